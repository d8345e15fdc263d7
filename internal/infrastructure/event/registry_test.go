package event

import (
	"context"
	"testing"

	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

// staticHandler is a minimal EventHandler for registry tests
type staticHandler struct {
	types []string
}

func (h *staticHandler) Handle(ctx context.Context, event shared.DomainEvent) error { return nil }
func (h *staticHandler) EventTypes() []string                                       { return h.types }

func TestHandlerRegistry_RegisterAndGet(t *testing.T) {
	registry := NewHandlerRegistry()

	h1 := &staticHandler{types: []string{"OrderCreated"}}
	h2 := &staticHandler{types: []string{"OrderCreated", "OrderStatusChanged"}}

	registry.Register(h1, "OrderCreated")
	registry.Register(h2, "OrderCreated", "OrderStatusChanged")

	assert.Len(t, registry.GetHandlers("OrderCreated"), 2)
	assert.Len(t, registry.GetHandlers("OrderStatusChanged"), 1)
	assert.Empty(t, registry.GetHandlers("Unknown"))
}

func TestHandlerRegistry_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()

	wildcard := &staticHandler{}
	specific := &staticHandler{types: []string{"OrderCreated"}}

	registry.Register(wildcard)
	registry.Register(specific, "OrderCreated")

	// Wildcard handlers receive every event type
	assert.Len(t, registry.GetHandlers("OrderCreated"), 2)
	assert.Len(t, registry.GetHandlers("SomethingElse"), 1)
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()

	h := &staticHandler{types: []string{"OrderCreated"}}
	registry.Register(h, "OrderCreated")
	assert.Len(t, registry.GetHandlers("OrderCreated"), 1)

	registry.Unregister(h)
	assert.Empty(t, registry.GetHandlers("OrderCreated"))
}
