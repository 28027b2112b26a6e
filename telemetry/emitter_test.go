package telemetry

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvent struct {
	name string
	m    Measurements
	md   Metadata
}

func newCapture(t *testing.T, bus *Bus) *[]capturedEvent {
	t.Helper()
	events := &[]capturedEvent{}
	require.NoError(t, bus.SubscribeMany("test.capture", EventNames(),
		func(name string, m Measurements, md Metadata) {
			*events = append(*events, capturedEvent{name: name, m: m, md: md})
		}))
	return events
}

func testRequestInfo() RequestInfo {
	return RequestInfo{
		Method:  http.MethodGet,
		URL:     "https://api.example.com/users",
		Headers: http.Header{"Accept": []string{"application/json"}},
	}
}

func TestEmitterPhaseStart(t *testing.T) {
	bus := NewBus()
	events := newCapture(t, bus)
	emitter := NewEmitter(bus)

	inv := NewInvocation(Settings{Pipeline: true, Adapter: true, Metadata: map[string]any{"svc": "billing"}})
	before := time.Now()
	emitter.PhaseStart(inv, PhasePipeline, testRequestInfo())

	require.Len(t, *events, 1)
	evt := (*events)[0]
	assert.Equal(t, EventPipelineStart, evt.name)
	assert.Equal(t, inv.CorrelationID(), evt.md.CorrelationID)
	assert.Equal(t, http.MethodGet, evt.md.Method)
	assert.Equal(t, "https://api.example.com/users", evt.md.URL)
	assert.Equal(t, "application/json", evt.md.RequestHeaders.Get("Accept"))
	assert.Equal(t, map[string]any{"svc": "billing"}, evt.md.User)
	assert.False(t, evt.m.Time.Before(before))
	assert.Nil(t, evt.m.Duration)
}

func TestEmitterDisabledPhaseIsNoop(t *testing.T) {
	bus := NewBus()
	events := newCapture(t, bus)
	emitter := NewEmitter(bus)

	inv := NewInvocation(Settings{Pipeline: false, Adapter: true})
	emitter.PhaseStart(inv, PhasePipeline, testRequestInfo())
	emitter.PhaseStop(inv, PhasePipeline, testRequestInfo(), ResponseInfo{StatusCode: 200})
	emitter.PhaseError(inv, PhasePipeline, testRequestInfo(), errors.New("boom"))

	assert.Empty(t, *events)
}

func TestEmitterStopDuration(t *testing.T) {
	tests := []struct {
		name         string
		start        bool
		wantDuration bool
	}{
		{
			name:         "given a recorded start, then stop carries a duration",
			start:        true,
			wantDuration: true,
		},
		{
			name:         "given no recorded start, then stop duration is nil",
			start:        false,
			wantDuration: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewBus()
			events := newCapture(t, bus)
			emitter := NewEmitter(bus)

			inv := NewInvocation(Settings{Adapter: true})
			if tt.start {
				emitter.PhaseStart(inv, PhaseAdapter, testRequestInfo())
				time.Sleep(5 * time.Millisecond)
			}
			emitter.PhaseStop(inv, PhaseAdapter, testRequestInfo(), ResponseInfo{
				StatusCode: 200,
				Headers:    http.Header{"Content-Type": []string{"application/json"}},
			})

			stop := (*events)[len(*events)-1]
			require.Equal(t, EventAdapterStop, stop.name)
			assert.Equal(t, 200, stop.md.StatusCode)
			assert.Equal(t, "application/json", stop.md.ResponseHeaders.Get("Content-Type"))

			if tt.wantDuration {
				require.NotNil(t, stop.m.Duration)
				assert.GreaterOrEqual(t, *stop.m.Duration, 5*time.Millisecond)
			} else {
				assert.Nil(t, stop.m.Duration)
			}
		})
	}
}

func TestEmitterPhaseError(t *testing.T) {
	bus := NewBus()
	events := newCapture(t, bus)
	emitter := NewEmitter(bus)

	inv := NewInvocation(Settings{Adapter: true})
	emitter.PhaseStart(inv, PhaseAdapter, testRequestInfo())

	cause := errors.New("connection refused")
	emitter.PhaseError(inv, PhaseAdapter, testRequestInfo(), cause)

	require.Len(t, *events, 2)
	errEvt := (*events)[1]
	assert.Equal(t, EventAdapterError, errEvt.name)
	assert.Equal(t, cause, errEvt.md.Err)
	assert.NotNil(t, errEvt.m.Duration)
	assert.Equal(t, inv.CorrelationID(), errEvt.md.CorrelationID)
}

func TestInvocationCorrelationIDsAreUnique(t *testing.T) {
	a := NewInvocation(Defaults())
	b := NewInvocation(Defaults())

	assert.NotEmpty(t, a.CorrelationID())
	assert.NotEqual(t, a.CorrelationID(), b.CorrelationID())
}

func TestEmitterPhasesTrackedIndependently(t *testing.T) {
	bus := NewBus()
	events := newCapture(t, bus)
	emitter := NewEmitter(bus)

	inv := NewInvocation(Defaults())
	emitter.PhaseStart(inv, PhasePipeline, testRequestInfo())
	time.Sleep(2 * time.Millisecond)
	emitter.PhaseStart(inv, PhaseAdapter, testRequestInfo())
	emitter.PhaseStop(inv, PhaseAdapter, testRequestInfo(), ResponseInfo{StatusCode: 200})
	emitter.PhaseStop(inv, PhasePipeline, testRequestInfo(), ResponseInfo{StatusCode: 200})

	require.Len(t, *events, 4)
	adapterStop := (*events)[2]
	pipelineStop := (*events)[3]
	require.NotNil(t, adapterStop.m.Duration)
	require.NotNil(t, pipelineStop.m.Duration)

	// The outer phase includes the inner one plus the gap before it.
	assert.Greater(t, *pipelineStop.m.Duration, *adapterStop.m.Duration)
}
