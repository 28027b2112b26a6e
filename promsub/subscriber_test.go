package promsub

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-labs/beacon-go/telemetry"
)

func TestAttachCountsEvents(t *testing.T) {
	bus := telemetry.NewBus()
	reg := prometheus.NewRegistry()
	require.NoError(t, Attach(bus, reg))

	dur := 80 * time.Millisecond
	bus.Publish(telemetry.EventPipelineStart,
		telemetry.Measurements{Time: time.Now()},
		telemetry.Metadata{Method: "GET"})
	bus.Publish(telemetry.EventPipelineStop,
		telemetry.Measurements{Duration: &dur},
		telemetry.Metadata{Method: "GET", StatusCode: 200})

	expected := `
		# HELP http_client_events_total Telemetry events observed, by event name.
		# TYPE http_client_events_total counter
		http_client_events_total{event="pipeline.start"} 1
		http_client_events_total{event="pipeline.stop"} 1
	`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"http_client_events_total"))
}

func TestAttachObservesDurations(t *testing.T) {
	bus := telemetry.NewBus()
	reg := prometheus.NewRegistry()
	require.NoError(t, Attach(bus, reg))

	dur := 50 * time.Millisecond
	bus.Publish(telemetry.EventAdapterStop,
		telemetry.Measurements{Duration: &dur},
		telemetry.Metadata{Method: "GET", StatusCode: 200})

	count, err := testutil.GatherAndCount(reg, "http_client_phase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAttachCountsErrors(t *testing.T) {
	bus := telemetry.NewBus()
	reg := prometheus.NewRegistry()
	require.NoError(t, Attach(bus, reg))

	bus.Publish(telemetry.EventAdapterError,
		telemetry.Measurements{},
		telemetry.Metadata{Method: "POST"})

	expected := `
		# HELP http_client_phase_errors_total HTTP client phases that ended in error.
		# TYPE http_client_phase_errors_total counter
		http_client_phase_errors_total{method="POST",phase="adapter"} 1
	`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"http_client_phase_errors_total"))
}

func TestAttachSkipsNilDurations(t *testing.T) {
	bus := telemetry.NewBus()
	reg := prometheus.NewRegistry()
	require.NoError(t, Attach(bus, reg))

	bus.Publish(telemetry.EventAdapterStop,
		telemetry.Measurements{},
		telemetry.Metadata{Method: "GET", StatusCode: 200})

	count, err := testutil.GatherAndCount(reg, "http_client_phase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAttachDuplicate(t *testing.T) {
	bus := telemetry.NewBus()
	require.NoError(t, Attach(bus, prometheus.NewRegistry()))

	err := Attach(bus, prometheus.NewRegistry())
	require.ErrorIs(t, err, telemetry.ErrHandlerExists)
}

func TestAttachRegistrationConflict(t *testing.T) {
	bus := telemetry.NewBus()
	reg := prometheus.NewRegistry()
	require.NoError(t, Attach(bus, reg))

	// A second attach against the same registry collides on collector
	// registration before the bus rejects the duplicate handler id.
	other := telemetry.NewBus()
	err := Attach(other, reg)

	var already prometheus.AlreadyRegisteredError
	require.ErrorAs(t, err, &already)
}

func TestAttachUnknownEventName(t *testing.T) {
	bus := telemetry.NewBus()

	err := Attach(bus, prometheus.NewRegistry(), WithEvents("pipeline.begin"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event name")
}
