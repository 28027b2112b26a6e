package telemetry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusSubscribeMany(t *testing.T) {
	tests := []struct {
		name      string
		handlerID string
		events    []string
		handler   Handler
		wantErr   string
	}{
		{
			name:      "given valid subscription, then succeeds",
			handlerID: "h1",
			events:    EventNames(),
			handler:   func(string, Measurements, Metadata) {},
		},
		{
			name:      "given unknown event name, then fails",
			handlerID: "h1",
			events:    []string{"pipeline.start", "pipeline.finish"},
			handler:   func(string, Measurements, Metadata) {},
			wantErr:   "unknown event name",
		},
		{
			name:      "given empty event list, then fails",
			handlerID: "h1",
			events:    nil,
			handler:   func(string, Measurements, Metadata) {},
			wantErr:   "empty event name list",
		},
		{
			name:      "given empty handler id, then fails",
			handlerID: "",
			events:    EventNames(),
			handler:   func(string, Measurements, Metadata) {},
			wantErr:   "empty handler id",
		},
		{
			name:      "given nil handler, then fails",
			handlerID: "h1",
			events:    EventNames(),
			handler:   nil,
			wantErr:   "nil handler",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewBus()

			err := bus.SubscribeMany(tt.handlerID, tt.events, tt.handler)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBusDuplicateHandler(t *testing.T) {
	bus := NewBus()
	handler := func(string, Measurements, Metadata) {}

	require.NoError(t, bus.SubscribeMany("dup", EventNames(), handler))

	err := bus.SubscribeMany("dup", AdapterEvents(), handler)
	require.ErrorIs(t, err, ErrHandlerExists)
}

func TestBusPublishRouting(t *testing.T) {
	bus := NewBus()

	var adapterSeen, allSeen []string
	require.NoError(t, bus.SubscribeMany("adapter-only", AdapterEvents(),
		func(name string, _ Measurements, _ Metadata) {
			adapterSeen = append(adapterSeen, name)
		}))
	require.NoError(t, bus.SubscribeMany("everything", EventNames(),
		func(name string, _ Measurements, _ Metadata) {
			allSeen = append(allSeen, name)
		}))

	bus.Publish(EventPipelineStart, Measurements{}, Metadata{})
	bus.Publish(EventAdapterStart, Measurements{}, Metadata{})
	bus.Publish(EventAdapterStop, Measurements{}, Metadata{})
	bus.Publish(EventPipelineStop, Measurements{}, Metadata{})

	assert.Equal(t, []string{EventAdapterStart, EventAdapterStop}, adapterSeen)
	assert.Len(t, allSeen, 4)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	require.NoError(t, bus.SubscribeMany("h", EventNames(),
		func(string, Measurements, Metadata) { calls++ }))

	bus.Publish(EventPipelineStart, Measurements{}, Metadata{})
	bus.Unsubscribe("h")
	bus.Publish(EventPipelineStop, Measurements{}, Metadata{})

	assert.Equal(t, 1, calls)

	// Same id can be reused after unsubscribing.
	require.NoError(t, bus.SubscribeMany("h", EventNames(),
		func(string, Measurements, Metadata) { calls++ }))
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()

	assert.NotPanics(t, func() {
		bus.Publish(EventAdapterError, Measurements{}, Metadata{})
	})
}

func TestBusConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	require.NoError(t, bus.SubscribeMany("counter", EventNames(),
		func(string, Measurements, Metadata) {
			mu.Lock()
			count++
			mu.Unlock()
		}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(EventAdapterStart, Measurements{}, Metadata{})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, count)
}

func TestBusHandlerMayUnsubscribeItself(t *testing.T) {
	bus := NewBus()

	calls := 0
	require.NoError(t, bus.SubscribeMany("once", EventNames(),
		func(string, Measurements, Metadata) {
			calls++
			bus.Unsubscribe("once")
		}))

	bus.Publish(EventPipelineStart, Measurements{}, Metadata{})
	bus.Publish(EventPipelineStop, Measurements{}, Metadata{})

	assert.Equal(t, 1, calls)
}
