package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingHandler records how many events it saw, optionally failing or panicking
type countingHandler struct {
	mu     sync.Mutex
	seen   int
	types  []string
	err    error
	panics bool
}

func (h *countingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.seen++
	err := h.err
	h.mu.Unlock()
	if h.panics {
		panic("handler exploded")
	}
	return err
}

func (h *countingHandler) EventTypes() []string { return h.types }

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seen
}

func (h *countingHandler) setErr(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

func TestInMemoryEventBus_PublishDispatches(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))

	handler := &countingHandler{types: []string{"TestEvent"}}
	bus.Subscribe(handler)

	evt := &idempotencyTestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("TestEvent", "TestAggregate", uuid.New()),
	}

	require.NoError(t, bus.Publish(context.Background(), evt))
	assert.Equal(t, 1, handler.count())

	bus.Unsubscribe(handler)
	require.NoError(t, bus.Publish(context.Background(), evt))
	assert.Equal(t, 1, handler.count())

	require.NoError(t, bus.Stop(context.Background()))
}

func TestInMemoryEventBus_HandlerFailureDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	boom := errors.New("boom")
	failing := &countingHandler{types: []string{"TestEvent"}, err: boom}
	panicking := &countingHandler{types: []string{"TestEvent"}, panics: true}
	healthy := &countingHandler{types: []string{"TestEvent"}}

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	evt := &idempotencyTestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("TestEvent", "TestAggregate", uuid.New()),
	}

	// Every handler runs; the failures come back joined
	err := bus.Publish(context.Background(), evt)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "handler panicked")
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, panicking.count())
	assert.Equal(t, 1, healthy.count())
}
