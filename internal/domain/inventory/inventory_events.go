package inventory

import (
	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeStockRecord = "StockRecord"

// Event type constants
const (
	EventTypeStockAdjusted     = "StockAdjusted"
	EventTypeInsufficientStock = "InsufficientStock"
)

// StockAdjustedEvent is raised when a stock decrement is applied
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Applied   int64     `json:"applied"`
	Remaining int64     `json:"remaining"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(record *StockRecord, orderID uuid.UUID, result DecrementResult) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeStockRecord, record.ID),
		ProductID:       record.ProductID,
		OrderID:         orderID,
		Applied:         result.Applied,
		Remaining:       result.Remaining,
	}
}

// EventType returns the event type name
func (e *StockAdjustedEvent) EventType() string {
	return EventTypeStockAdjusted
}

// InsufficientStockEvent signals that a decrement request exceeded the
// available quantity and a shortfall was recorded
type InsufficientStockEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Requested int64     `json:"requested"`
	Applied   int64     `json:"applied"`
	Deficit   int64     `json:"deficit"`
}

// NewInsufficientStockEvent creates a new InsufficientStockEvent
func NewInsufficientStockEvent(record *StockRecord, orderID uuid.UUID, result DecrementResult) *InsufficientStockEvent {
	return &InsufficientStockEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInsufficientStock, AggregateTypeStockRecord, record.ID),
		ProductID:       record.ProductID,
		OrderID:         orderID,
		Requested:       result.Requested,
		Applied:         result.Applied,
		Deficit:         result.Shortfall,
	}
}

// EventType returns the event type name
func (e *InsufficientStockEvent) EventType() string {
	return EventTypeInsufficientStock
}
