package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/orderflow/backend/internal/domain/inventory"
	"github.com/orderflow/backend/internal/domain/order"
	"github.com/orderflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderCreatedHandler reconciles stock against OrderCreated facts. Each line
// item is applied with a bounded reload-and-retry loop around the CAS save,
// so concurrent facts touching the same product serialize without locks.
// A line that cannot be fully satisfied clamps at zero and records the
// deficit as a Shortfall; one failing line never aborts its siblings.
type OrderCreatedHandler struct {
	stockRepo     inventory.StockRepository
	shortfallRepo inventory.ShortfallRepository
	logger        *zap.Logger
	maxAttempts   int
}

// OrderCreatedHandlerOption is a functional option for OrderCreatedHandler
type OrderCreatedHandlerOption func(*OrderCreatedHandler)

// WithMaxSaveAttempts overrides the CAS retry ceiling
func WithMaxSaveAttempts(n int) OrderCreatedHandlerOption {
	return func(h *OrderCreatedHandler) {
		if n > 0 {
			h.maxAttempts = n
		}
	}
}

// NewOrderCreatedHandler creates a new handler for OrderCreated facts
func NewOrderCreatedHandler(
	stockRepo inventory.StockRepository,
	shortfallRepo inventory.ShortfallRepository,
	logger *zap.Logger,
	opts ...OrderCreatedHandlerOption,
) *OrderCreatedHandler {
	h := &OrderCreatedHandler{
		stockRepo:     stockRepo,
		shortfallRepo: shortfallRepo,
		logger:        logger,
		maxAttempts:   DefaultMaxSaveAttempts,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *OrderCreatedHandler) EventTypes() []string {
	return []string{order.EventTypeOrderCreated}
}

// Handle reconciles stock for every line item of the order. All lines are
// attempted regardless of individual outcomes; the combined error of the
// failed lines is returned so the delivery is retried after the idempotency
// TTL rather than dropped.
func (h *OrderCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	createdEvent, ok := event.(*order.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeOrderCreated, event.EventType())
	}

	h.logger.Info("reconciling stock for order",
		zap.String("order_id", createdEvent.OrderID.String()),
		zap.String("order_number", createdEvent.OrderNumber),
		zap.Int("items", len(createdEvent.Items)),
	)

	var lineErrs []error
	for _, item := range createdEvent.Items {
		if err := h.reconcileLine(ctx, createdEvent, item); err != nil {
			h.logger.Error("failed to reconcile line item",
				zap.String("order_id", createdEvent.OrderID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err),
			)
			lineErrs = append(lineErrs, fmt.Errorf("product %s: %w", item.ProductID, err))
		}
	}

	return errors.Join(lineErrs...)
}

// reconcileLine applies a single line item decrement with CAS retries
func (h *OrderCreatedHandler) reconcileLine(ctx context.Context, evt *order.OrderCreatedEvent, item order.OrderItemInfo) error {
	requested := int64(item.Quantity)

	for attempt := 0; attempt < h.maxAttempts; attempt++ {
		record, err := h.stockRepo.FindByProductID(ctx, item.ProductID)
		if errors.Is(err, shared.ErrNotFound) {
			return h.recordMissingProduct(ctx, evt, item, requested)
		}
		if err != nil {
			return err
		}

		result, err := record.Decrement(requested)
		if err != nil {
			return err
		}

		if result.Oversold() {
			record.AddDomainEvent(inventory.NewInsufficientStockEvent(record, evt.OrderID, result))
		} else {
			record.AddDomainEvent(inventory.NewStockAdjustedEvent(record, evt.OrderID, result))
		}

		err = h.stockRepo.SaveWithVersion(ctx, record)
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			// Another fact touched this product between load and save
			continue
		}
		if err != nil {
			return err
		}

		if result.Oversold() {
			shortfall := inventory.NewShortfall(evt.EventID(), evt.OrderID, item.ProductID, item.ProductName, result)
			if err := h.shortfallRepo.Save(ctx, shortfall); err != nil {
				return fmt.Errorf("failed to record shortfall: %w", err)
			}
			h.logger.Warn("stock oversold, shortfall recorded",
				zap.String("order_id", evt.OrderID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Int64("requested", result.Requested),
				zap.Int64("applied", result.Applied),
				zap.Int64("deficit", result.Shortfall),
			)
		} else {
			h.logger.Debug("stock decremented",
				zap.String("product_id", item.ProductID.String()),
				zap.Int64("applied", result.Applied),
				zap.Int64("remaining", result.Remaining),
			)
		}

		return nil
	}

	return fmt.Errorf("stock save for product %s: %w", item.ProductID, shared.ErrConcurrencyConflict)
}

// recordMissingProduct records a full shortfall for a product with no stock record
func (h *OrderCreatedHandler) recordMissingProduct(ctx context.Context, evt *order.OrderCreatedEvent, item order.OrderItemInfo, requested int64) error {
	result := inventory.DecrementResult{
		Requested: requested,
		Applied:   0,
		Shortfall: requested,
		Remaining: 0,
	}

	shortfall := inventory.NewShortfall(evt.EventID(), evt.OrderID, item.ProductID, item.ProductName, result)
	if err := h.shortfallRepo.Save(ctx, shortfall); err != nil {
		return fmt.Errorf("failed to record shortfall for unknown product: %w", err)
	}

	h.logger.Warn("no stock record for product, full shortfall recorded",
		zap.String("order_id", evt.OrderID.String()),
		zap.String("product_id", item.ProductID.String()),
		zap.Int64("requested", requested),
	)
	return nil
}

// Ensure OrderCreatedHandler implements EventHandler
var _ shared.EventHandler = (*OrderCreatedHandler)(nil)
