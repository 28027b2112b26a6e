package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Invocation is the per-request state threaded through the lifecycle hooks.
//
// It holds the correlation id linking the request's events, the effective
// settings resolved once at the first hook, and the monotonic start time of
// each phase for duration computation. An Invocation is exclusively owned by
// the request that created it and is never shared across concurrent
// requests, so it needs no locking.
type Invocation struct {
	id       string
	settings Settings
	starts   map[Phase]time.Time
}

// NewInvocation creates an Invocation with a fresh correlation id and the
// given effective settings.
func NewInvocation(settings Settings) *Invocation {
	return &Invocation{
		id:       uuid.NewString(),
		settings: settings,
		starts:   make(map[Phase]time.Time, 2),
	}
}

// CorrelationID returns the opaque token linking this invocation's events.
func (inv *Invocation) CorrelationID() string {
	return inv.id
}

// Settings returns the effective settings resolved for this invocation.
func (inv *Invocation) Settings() Settings {
	return inv.settings
}

// markStart records the monotonic start time for a phase.
func (inv *Invocation) markStart(phase Phase) {
	inv.starts[phase] = time.Now()
}

// elapsed returns the time since the phase's start event, or nil when no
// start was recorded (the start event was suppressed).
func (inv *Invocation) elapsed(phase Phase) *time.Duration {
	start, ok := inv.starts[phase]
	if !ok {
		return nil
	}
	d := time.Since(start)
	return &d
}

// Emitter publishes lifecycle events to a Bus. It holds no per-request
// state of its own; everything request-scoped lives in the Invocation.
type Emitter struct {
	bus *Bus
}

// NewEmitter returns an Emitter publishing to bus.
func NewEmitter(bus *Bus) *Emitter {
	return &Emitter{bus: bus}
}

// PhaseStart publishes a start event for phase and records the phase's
// monotonic start time. It is a no-op when the phase is disabled in the
// invocation's effective settings.
func (e *Emitter) PhaseStart(inv *Invocation, phase Phase, req RequestInfo) {
	if !inv.settings.enabled(phase) {
		return
	}
	inv.markStart(phase)

	e.bus.Publish(eventName(phase, "start"),
		Measurements{Time: time.Now()},
		Metadata{
			CorrelationID:  inv.id,
			URL:            req.URL,
			Method:         req.Method,
			RequestHeaders: req.Headers,
			User:           inv.settings.Metadata,
		})
}

// PhaseStop publishes a stop event for phase with the elapsed duration since
// the phase's start. The duration is nil when the start was suppressed. It
// is a no-op when the phase is disabled.
func (e *Emitter) PhaseStop(inv *Invocation, phase Phase, req RequestInfo, resp ResponseInfo) {
	if !inv.settings.enabled(phase) {
		return
	}

	e.bus.Publish(eventName(phase, "stop"),
		Measurements{Duration: inv.elapsed(phase)},
		Metadata{
			CorrelationID:   inv.id,
			URL:             req.URL,
			Method:          req.Method,
			StatusCode:      resp.StatusCode,
			ResponseHeaders: resp.Headers,
			User:            inv.settings.Metadata,
		})
}

// PhaseError publishes an error event for phase, symmetric to PhaseStop but
// carrying the request headers and the error value instead of a response.
func (e *Emitter) PhaseError(inv *Invocation, phase Phase, req RequestInfo, err error) {
	if !inv.settings.enabled(phase) {
		return
	}

	e.bus.Publish(eventName(phase, "error"),
		Measurements{Duration: inv.elapsed(phase)},
		Metadata{
			CorrelationID:  inv.id,
			URL:            req.URL,
			Method:         req.Method,
			RequestHeaders: req.Headers,
			Err:            err,
			User:           inv.settings.Metadata,
		})
}
