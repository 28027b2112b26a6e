// Package promsub bridges telemetry bus events to Prometheus collectors.
//
// Attach it to the same bus an instrumented client publishes to, with the
// registry your /metrics endpoint serves:
//
//	bus := telemetry.NewBus()
//	if err := promsub.Attach(bus, prometheus.DefaultRegisterer); err != nil {
//	    log.Fatal(err)
//	}
//
// Exported series:
//   - http_client_phase_duration_seconds{phase,method}
//   - http_client_events_total{event}
//   - http_client_phase_errors_total{phase,method}
package promsub

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/beacon-labs/beacon-go/telemetry"
)

// HandlerID is the fixed handler id under which the bridge registers.
const HandlerID = "beacon.promsub"

// Option configures Attach.
type Option func(*config)

type config struct {
	events []string
}

// WithEvents restricts the bridge to the given event names. Defaults to all
// six. Unknown names fail Attach.
func WithEvents(names ...string) Option {
	return func(cfg *config) {
		cfg.events = names
	}
}

// collectors holds the Prometheus collectors recorded by the bridge.
type collectors struct {
	phaseDuration *prometheus.HistogramVec
	events        *prometheus.CounterVec
	phaseErrors   *prometheus.CounterVec
}

func newCollectors(reg prometheus.Registerer) (*collectors, error) {
	c := &collectors{
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_client_phase_duration_seconds",
			Help:    "Duration of HTTP client lifecycle phases in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"phase", "method"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_client_events_total",
			Help: "Telemetry events observed, by event name.",
		}, []string{"event"}),
		phaseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_client_phase_errors_total",
			Help: "HTTP client phases that ended in error.",
		}, []string{"phase", "method"}),
	}

	for _, col := range []prometheus.Collector{c.phaseDuration, c.events, c.phaseErrors} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Attach subscribes the metrics bridge to bus under HandlerID, registering
// its collectors against reg.
//
// It fails with telemetry.ErrHandlerExists when already attached, with a
// configuration error for unknown event names, and with the registry's
// error when a collector collides with an existing registration.
func Attach(bus *telemetry.Bus, reg prometheus.Registerer, opts ...Option) error {
	cfg := &config{events: telemetry.EventNames()}
	for _, opt := range opts {
		opt(cfg)
	}

	c, err := newCollectors(reg)
	if err != nil {
		return err
	}

	return bus.SubscribeMany(HandlerID, cfg.events,
		func(name string, m telemetry.Measurements, md telemetry.Metadata) {
			c.record(name, m, md)
		})
}

// record maps one event onto the collectors.
func (c *collectors) record(name string, m telemetry.Measurements, md telemetry.Metadata) {
	c.events.WithLabelValues(name).Inc()

	phase, point, _ := strings.Cut(name, ".")
	switch point {
	case "stop":
		if m.Duration != nil {
			c.phaseDuration.WithLabelValues(phase, md.Method).Observe(m.Duration.Seconds())
		}
	case "error":
		c.phaseErrors.WithLabelValues(phase, md.Method).Inc()
		if m.Duration != nil {
			c.phaseDuration.WithLabelValues(phase, md.Method).Observe(m.Duration.Seconds())
		}
	}
}
