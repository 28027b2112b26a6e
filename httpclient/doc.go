// Package httpclient installs telemetry lifecycle hooks into net/http's
// transport chain.
//
// Two phases are instrumented per request. The pipeline phase spans the
// whole request, from before any interceptor runs until all response or
// error processing completes. The adapter phase spans only the inner network
// call. The nesting is structural: the pipeline hook is the outermost
// RoundTripper and the adapter hook the innermost, so adapter timing
// excludes interceptor overhead by construction.
//
// # Quick Start
//
//	bus := telemetry.NewBus()
//	_ = telemetry.AttachLogger(bus)
//
//	client, err := httpclient.New(
//	    httpclient.WithBus(bus),
//	    httpclient.WithTelemetry(map[string]any{
//	        "metadata": map[string]any{"service": "billing"},
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Get(ctx, "https://api.example.com/users")
//
// A successful GET publishes four events sharing one correlation id:
// pipeline.start, adapter.start, adapter.stop, pipeline.stop. A transport
// error publishes adapter.error and pipeline.error instead of the stops.
//
// # Per-Call Overrides
//
// Telemetry can be re-configured for a single request through its context:
//
//	ctx = httpclient.WithCallOptions(ctx, false) // emit nothing for this call
//	resp, err := client.Get(ctx, url)
//
// An invalid override never fails the request: it is logged as a warning and
// the call proceeds with telemetry suppressed.
//
// # Wrapping Existing Clients
//
// Use NewTransport or WrapClient to instrument a transport or client you
// already have:
//
//	rt, err := httpclient.NewTransport(http.DefaultTransport,
//	    httpclient.WithBus(bus),
//	)
//	client := &http.Client{Transport: rt}
package httpclient
