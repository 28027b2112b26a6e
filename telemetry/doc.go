// Package telemetry provides the event model, option normalization, and
// pub/sub fan-out for HTTP client lifecycle instrumentation.
//
// Six events are emitted per instrumented request, two phases times three
// lifecycle points:
//
//	pipeline.start  pipeline.stop  pipeline.error
//	adapter.start   adapter.stop   adapter.error
//
// The pipeline phase covers the full request span, from before any client
// middleware runs until all response or error processing completes. The
// adapter phase covers only the inner network call. Events from one request
// share a correlation id so subscribers can stitch them together.
//
// # Quick Start
//
// Create a bus, attach the default log subscriber, and hand the bus to an
// instrumented client (see the httpclient package):
//
//	bus := telemetry.NewBus()
//	if err := telemetry.AttachLogger(bus); err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := httpclient.New(
//	    httpclient.WithBus(bus),
//	    httpclient.WithTelemetry(true),
//	)
//
// # Custom Subscribers
//
// Any function can subscribe to a subset of the event names:
//
//	err := bus.SubscribeMany("my-handler", telemetry.AdapterEvents(),
//	    func(name string, m telemetry.Measurements, md telemetry.Metadata) {
//	        fmt.Println(name, md.Method, md.URL)
//	    })
//
// Handler ids are unique per bus: subscribing twice under the same id fails
// with ErrHandlerExists rather than silently duplicating delivery.
//
// # Options
//
// Telemetry options accept three shapes: a bool (enable or disable both
// phases), a map with the keys "pipeline", "adapter" and "metadata", or an
// already-canonical Settings value. See Normalize.
package telemetry
