package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/order"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryOutboxRepository is an in-memory OutboxRepository for processor tests
type memoryOutboxRepository struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*shared.OutboxEntry
}

func newMemoryOutboxRepository() *memoryOutboxRepository {
	return &memoryOutboxRepository{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *memoryOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *memoryOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusPending && len(result) < limit {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *memoryOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusFailed && e.NextRetryAt != nil && e.NextRetryAt.Before(before) && len(result) < limit {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *memoryOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusDead {
			result = append(result, e)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memoryOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return e, nil
}

func (r *memoryOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var claimed []*shared.OutboxEntry
	for _, id := range ids {
		e, ok := r.entries[id]
		if !ok {
			continue
		}
		if e.Status == shared.OutboxStatusPending || e.Status == shared.OutboxStatusFailed {
			e.Status = shared.OutboxStatusProcessing
			claimed = append(claimed, e)
		}
	}
	return claimed, nil
}

func (r *memoryOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	return nil
}

func (r *memoryOutboxRepository) RequeueStale(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var requeued int64
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusProcessing && e.UpdatedAt.Before(olderThan) {
			e.Status = shared.OutboxStatusPending
			e.UpdatedAt = time.Now()
			requeued++
		}
	}
	return requeued, nil
}

func (r *memoryOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, e := range r.entries {
		if e.Status == shared.OutboxStatusSent && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

// newBusForTest wires a handler into an in-memory bus so the processor
// drains outbox entries into local handlers, the single-process setup
func newBusForTest(handler shared.EventHandler) *InMemoryEventBus {
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(handler, order.EventTypeOrderCreated)
	return bus
}

func seedOutboxEntry(t *testing.T, repo *memoryOutboxRepository, serializer *EventSerializer) *shared.OutboxEntry {
	t.Helper()

	o, err := order.NewOrder("ORD-20260829-120000-A4B9", "Alice", "alice@example.com", []order.ItemSpec{
		{ProductID: uuid.New(), ProductName: "Widget", Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
	})
	require.NoError(t, err)

	event := order.NewOrderCreatedEvent(o)
	payload, err := serializer.Serialize(event)
	require.NoError(t, err)

	entry := shared.NewOutboxEntry(event, payload)
	require.NoError(t, repo.Save(context.Background(), entry))
	return entry
}

func TestOutboxProcessor_DispatchesPendingEntry(t *testing.T) {
	repo := newMemoryOutboxRepository()
	serializer := NewRegisteredEventSerializer()
	handler := &countingHandler{}
	bus := newBusForTest(handler)

	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())

	entry := seedOutboxEntry(t, repo, serializer)
	processor.ProcessBatch(context.Background())

	assert.Equal(t, 1, handler.count())

	stored, err := repo.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusSent, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestOutboxProcessor_PublishFailureSchedulesRetry(t *testing.T) {
	repo := newMemoryOutboxRepository()
	serializer := NewRegisteredEventSerializer()
	handler := &countingHandler{err: errors.New("downstream unavailable")}
	bus := newBusForTest(handler)

	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())

	entry := seedOutboxEntry(t, repo, serializer)
	processor.ProcessBatch(context.Background())

	stored, err := repo.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.NotNil(t, stored.NextRetryAt)
}

func TestOutboxProcessor_DeadLetterAfterMaxRetries(t *testing.T) {
	repo := newMemoryOutboxRepository()
	serializer := NewRegisteredEventSerializer()
	handler := &countingHandler{err: errors.New("downstream unavailable")}
	bus := newBusForTest(handler)

	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())

	entry := seedOutboxEntry(t, repo, serializer)

	// Drive the entry through every retry until it is dead-lettered
	for i := 0; i < shared.DefaultMaxRetries; i++ {
		stored, err := repo.FindByID(context.Background(), entry.ID)
		require.NoError(t, err)
		// Make the backoff due immediately
		if stored.NextRetryAt != nil {
			past := time.Now().Add(-time.Minute)
			stored.NextRetryAt = &past
			require.NoError(t, repo.Update(context.Background(), stored))
		}
		processor.ProcessBatch(context.Background())
	}

	stored, err := repo.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusDead, stored.Status)
	assert.Equal(t, shared.DefaultMaxRetries, stored.RetryCount)
}

func TestOutboxProcessor_RetryDeadEntry(t *testing.T) {
	repo := newMemoryOutboxRepository()
	serializer := NewRegisteredEventSerializer()
	handler := &countingHandler{err: errors.New("downstream unavailable")}
	bus := newBusForTest(handler)

	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())

	entry := seedOutboxEntry(t, repo, serializer)
	for i := 0; i < shared.DefaultMaxRetries; i++ {
		stored, err := repo.FindByID(context.Background(), entry.ID)
		require.NoError(t, err)
		if stored.NextRetryAt != nil {
			past := time.Now().Add(-time.Minute)
			stored.NextRetryAt = &past
			require.NoError(t, repo.Update(context.Background(), stored))
		}
		processor.ProcessBatch(context.Background())
	}

	// Downstream recovers; the operator resets the dead entry
	handler.setErr(nil)
	require.NoError(t, processor.RetryDeadEntry(context.Background(), entry.ID))

	processor.ProcessBatch(context.Background())

	stored, err := repo.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusSent, stored.Status)
	assert.Equal(t, shared.DefaultMaxRetries+1, handler.count())
}

func TestOutboxProcessor_RequeuesStaleProcessingEntry(t *testing.T) {
	repo := newMemoryOutboxRepository()
	serializer := NewRegisteredEventSerializer()
	handler := &countingHandler{}
	bus := newBusForTest(handler)

	config := DefaultOutboxProcessorConfig()
	config.StuckTimeout = time.Minute

	processor := NewOutboxProcessor(repo, bus, serializer, config, zap.NewNop())

	// A dispatcher crashed after claiming the entry, stranding it
	entry := seedOutboxEntry(t, repo, serializer)
	require.NoError(t, entry.MarkProcessing())
	entry.UpdatedAt = time.Now().Add(-2 * time.Minute)
	require.NoError(t, repo.Update(context.Background(), entry))

	processor.ProcessBatch(context.Background())

	stored, err := repo.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusSent, stored.Status)
	assert.Equal(t, 1, handler.count())
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	repo := newMemoryOutboxRepository()
	serializer := NewRegisteredEventSerializer()
	handler := &countingHandler{}
	bus := newBusForTest(handler)

	config := DefaultOutboxProcessorConfig()
	config.PollInterval = 10 * time.Millisecond

	processor := NewOutboxProcessor(repo, bus, serializer, config, zap.NewNop())

	require.NoError(t, processor.Start(context.Background()))
	seedOutboxEntry(t, repo, serializer)

	assert.Eventually(t, func() bool {
		return handler.count() == 1
	}, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, processor.Stop(stopCtx))
}
