package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
)

// StockRecord tracks the available quantity for a single product. It is the
// aggregate root for stock operations; AvailableQuantity never goes
// negative. Concurrent adjustments to the same product are serialized by a
// compare-and-swap on the version token, so correctness does not depend on
// the arrival order of facts.
type StockRecord struct {
	shared.BaseAggregateRoot
	ProductID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ProductName       string    `gorm:"not null"`
	AvailableQuantity int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (StockRecord) TableName() string {
	return "stock_records"
}

// NewStockRecord creates a new stock record for a product
func NewStockRecord(productID uuid.UUID, productName string, initialQuantity int64) (*StockRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if initialQuantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Initial quantity cannot be negative")
	}

	return &StockRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		ProductName:       productName,
		AvailableQuantity: initialQuantity,
	}, nil
}

// DecrementResult describes the outcome of a stock decrement
type DecrementResult struct {
	Requested int64
	Applied   int64
	Shortfall int64
	Remaining int64
}

// Oversold returns true if the request could not be fully satisfied
func (r DecrementResult) Oversold() bool {
	return r.Shortfall > 0
}

// Decrement reduces available stock by the requested quantity, clamping at
// zero. The unmet portion is returned as a shortfall rather than discarded,
// so downstream systems can react to the oversell.
func (s *StockRecord) Decrement(requested int64) (DecrementResult, error) {
	if requested <= 0 {
		return DecrementResult{}, shared.NewDomainError("INVALID_QUANTITY", "Decrement quantity must be positive")
	}

	applied := requested
	if applied > s.AvailableQuantity {
		applied = s.AvailableQuantity
	}

	s.AvailableQuantity -= applied
	s.UpdatedAt = time.Now()

	return DecrementResult{
		Requested: requested,
		Applied:   applied,
		Shortfall: requested - applied,
		Remaining: s.AvailableQuantity,
	}, nil
}

// Increment adds stock back, e.g. on restock or compensation
func (s *StockRecord) Increment(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Increment quantity must be positive")
	}
	s.AvailableQuantity += quantity
	s.UpdatedAt = time.Now()
	return nil
}

// HasAvailableStock returns true if any stock remains
func (s *StockRecord) HasAvailableStock() bool {
	return s.AvailableQuantity > 0
}

// CanFulfill returns true if the available quantity covers the request
func (s *StockRecord) CanFulfill(quantity int64) bool {
	return s.AvailableQuantity >= quantity
}
