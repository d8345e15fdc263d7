package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/infrastructure/cache"
	"github.com/orderflow/backend/internal/infrastructure/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// These tests run the reconciler behind the idempotency wrapper, the way
// inventoryd wires it, and replay the same fact the way an at-least-once
// broker would.

func TestOrderCreatedHandler_RedeliveredFactAppliesOnce(t *testing.T) {
	stockRepo := newFakeStockRepository()
	shortfallRepo := &fakeShortfallRepository{}
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	handler := event.NewIdempotentHandler(
		NewOrderCreatedHandler(stockRepo, shortfallRepo, zap.NewNop()),
		store, zap.NewNop(),
	)

	productID := uuid.New()
	seedStock(t, stockRepo, productID, 50)

	evt := orderCreatedEvent(t, item(productID, 10))
	require.NoError(t, handler.Handle(context.Background(), evt))
	assert.Equal(t, int64(40), stockRepo.available(productID))

	// The same fact delivered again must not decrement twice
	require.NoError(t, handler.Handle(context.Background(), evt))
	assert.Equal(t, int64(40), stockRepo.available(productID))
	assert.Equal(t, int64(1), handler.GetMetrics().EventsDuplicate.Load())
}

func TestOrderCreatedHandler_RedeliveryAfterTransientFailureApplies(t *testing.T) {
	stockRepo := newFakeStockRepository()
	shortfallRepo := &fakeShortfallRepository{}
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	handler := event.NewIdempotentHandler(
		NewOrderCreatedHandler(stockRepo, shortfallRepo, zap.NewNop(), WithMaxSaveAttempts(2)),
		store, zap.NewNop(),
	)

	productID := uuid.New()
	seedStock(t, stockRepo, productID, 50)
	stockRepo.conflicts[productID] = 2

	// The first delivery exhausts its save attempts and fails
	evt := orderCreatedEvent(t, item(productID, 10))
	err := handler.Handle(context.Background(), evt)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, int64(50), stockRepo.available(productID))

	// The failure left no marker, so the redelivered fact lands
	processed, err := store.IsProcessed(context.Background(), evt.EventID().String())
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, handler.Handle(context.Background(), evt))
	assert.Equal(t, int64(40), stockRepo.available(productID))

	// And a further redelivery is recognized as a duplicate
	require.NoError(t, handler.Handle(context.Background(), evt))
	assert.Equal(t, int64(40), stockRepo.available(productID))
	assert.Equal(t, int64(1), handler.GetMetrics().EventsDuplicate.Load())
}
