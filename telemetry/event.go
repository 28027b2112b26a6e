package telemetry

import (
	"fmt"
	"net/http"
	"time"
)

// Phase identifies which span of a request an event describes.
type Phase string

const (
	// PhasePipeline is the full request span, including all client
	// middleware and response processing.
	PhasePipeline Phase = "pipeline"

	// PhaseAdapter is the inner span during which the network transport
	// executes, excluding surrounding middleware overhead.
	PhaseAdapter Phase = "adapter"
)

// Event names published on the bus. Each instrumented request produces at
// most one start and one stop or error event per enabled phase.
const (
	EventPipelineStart = "pipeline.start"
	EventPipelineStop  = "pipeline.stop"
	EventPipelineError = "pipeline.error"
	EventAdapterStart  = "adapter.start"
	EventAdapterStop   = "adapter.stop"
	EventAdapterError  = "adapter.error"
)

// EventNames returns all six event names in emission order for a successful
// request followed by the two error names.
func EventNames() []string {
	return []string{
		EventPipelineStart,
		EventAdapterStart,
		EventAdapterStop,
		EventPipelineStop,
		EventAdapterError,
		EventPipelineError,
	}
}

// PipelineEvents returns the three pipeline-phase event names.
func PipelineEvents() []string {
	return []string{EventPipelineStart, EventPipelineStop, EventPipelineError}
}

// AdapterEvents returns the three adapter-phase event names.
func AdapterEvents() []string {
	return []string{EventAdapterStart, EventAdapterStop, EventAdapterError}
}

// knownEvents is the closed set of valid event names.
var knownEvents = map[string]struct{}{
	EventPipelineStart: {},
	EventPipelineStop:  {},
	EventPipelineError: {},
	EventAdapterStart:  {},
	EventAdapterStop:   {},
	EventAdapterError:  {},
}

// validateEventNames rejects any name outside the six known event names.
// Requesting an unknown name is a programming mistake and is reported
// eagerly, at subscription time.
func validateEventNames(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("telemetry: empty event name list")
	}
	for _, name := range names {
		if _, ok := knownEvents[name]; !ok {
			return fmt.Errorf("telemetry: unknown event name %q", name)
		}
	}
	return nil
}

// eventName builds an event name from a phase and a lifecycle point.
func eventName(phase Phase, point string) string {
	return string(phase) + "." + point
}

// Measurements carries the timing portion of an event. Start events record
// the wall-clock time; stop and error events record the elapsed duration
// since the phase's start event.
type Measurements struct {
	// Time is the wall-clock timestamp of a start event. Zero for stop and
	// error events.
	Time time.Time

	// Duration is the elapsed time of the phase for stop and error events.
	// Nil when no start was recorded for the phase, for example when the
	// start event was suppressed by a per-call override.
	Duration *time.Duration
}

// Metadata carries the descriptive portion of an event. Which fields are
// populated depends on the lifecycle point: request headers on start and
// error, response headers and status on stop, the error value on error.
type Metadata struct {
	// CorrelationID links all events emitted for one request invocation.
	// It is an opaque unique token; subscribers should not parse it.
	CorrelationID string

	// URL is the full request URL.
	URL string

	// Method is the HTTP method.
	Method string

	// RequestHeaders are the outbound headers. Set on start and error events.
	RequestHeaders http.Header

	// ResponseHeaders are the inbound headers. Set on stop events.
	ResponseHeaders http.Header

	// StatusCode is the HTTP response status. Set on stop events.
	StatusCode int

	// Err is the failure reported by the wrapped request. Set on error events.
	Err error

	// User holds the effective user metadata from the telemetry options.
	User map[string]any
}

// RequestInfo describes the outbound request for event payloads.
type RequestInfo struct {
	Method  string
	URL     string
	Headers http.Header
}

// ResponseInfo describes the inbound response for stop event payloads.
type ResponseInfo struct {
	StatusCode int
	Headers    http.Header
}
