// Package otelsub bridges telemetry bus events to OpenTelemetry metrics.
//
// Attach it to the same bus an instrumented client publishes to:
//
//	bus := telemetry.NewBus()
//	if err := otelsub.Attach(bus); err != nil {
//	    log.Fatal(err)
//	}
//
// Emitted instruments:
//   - http.client.phase.duration (histogram, seconds, per phase)
//   - http.client.phase.active (up/down counter of in-flight phases)
//   - http.client.phase.errors (counter, per phase)
package otelsub

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/beacon-labs/beacon-go/telemetry"
)

// scope is the instrumentation scope name for OpenTelemetry.
const scope = "github.com/beacon-labs/beacon-go/otelsub"

// HandlerID is the fixed handler id under which the bridge registers.
const HandlerID = "beacon.otelsub"

// Option configures Attach.
type Option func(*config)

type config struct {
	meterProvider metric.MeterProvider
	events        []string
}

// WithMeterProvider sets a custom MeterProvider. Defaults to the global
// provider from otel.GetMeterProvider().
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *config) {
		cfg.meterProvider = mp
	}
}

// WithEvents restricts the bridge to the given event names. Defaults to all
// six. Unknown names fail Attach.
func WithEvents(names ...string) Option {
	return func(cfg *config) {
		cfg.events = names
	}
}

// instruments holds the metric instruments recorded by the bridge.
type instruments struct {
	phaseDuration metric.Float64Histogram
	phaseActive   metric.Int64UpDownCounter
	phaseErrors   metric.Int64Counter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	ins := &instruments{}
	var err error

	ins.phaseDuration, err = meter.Float64Histogram(
		"http.client.phase.duration",
		metric.WithDescription("Duration of HTTP client lifecycle phases in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	ins.phaseActive, err = meter.Int64UpDownCounter(
		"http.client.phase.active",
		metric.WithDescription("Number of in-flight HTTP client phases"),
		metric.WithUnit("{phase}"),
	)
	if err != nil {
		return nil, err
	}

	ins.phaseErrors, err = meter.Int64Counter(
		"http.client.phase.errors",
		metric.WithDescription("Number of HTTP client phases that ended in error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return ins, nil
}

// Attach subscribes the metrics bridge to bus under HandlerID.
//
// It fails with telemetry.ErrHandlerExists when already attached, with a
// configuration error for unknown event names, and with the meter's error
// when instrument creation fails.
func Attach(bus *telemetry.Bus, opts ...Option) error {
	cfg := &config{
		meterProvider: otel.GetMeterProvider(),
		events:        telemetry.EventNames(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ins, err := newInstruments(cfg.meterProvider.Meter(scope))
	if err != nil {
		return err
	}

	return bus.SubscribeMany(HandlerID, cfg.events,
		func(name string, m telemetry.Measurements, md telemetry.Metadata) {
			ins.record(name, m, md)
		})
}

// record maps one event onto the instruments. Bus handlers receive no
// context, so recording uses context.Background().
func (ins *instruments) record(name string, m telemetry.Measurements, md telemetry.Metadata) {
	ctx := context.Background()
	phase, point, _ := strings.Cut(name, ".")

	attrs := []attribute.KeyValue{
		attribute.String("http.client.phase", phase),
		attribute.String("http.request.method", md.Method),
	}

	switch point {
	case "start":
		ins.phaseActive.Add(ctx, 1, metric.WithAttributes(attrs...))
	case "stop":
		ins.phaseActive.Add(ctx, -1, metric.WithAttributes(attrs...))
		if m.Duration != nil {
			withStatus := append(attrs, attribute.Int("http.response.status_code", md.StatusCode))
			ins.phaseDuration.Record(ctx, m.Duration.Seconds(), metric.WithAttributes(withStatus...))
		}
	case "error":
		ins.phaseActive.Add(ctx, -1, metric.WithAttributes(attrs...))
		ins.phaseErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
		if m.Duration != nil {
			ins.phaseDuration.Record(ctx, m.Duration.Seconds(), metric.WithAttributes(attrs...))
		}
	}
}
