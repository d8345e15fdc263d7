package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Shortfall records the unmet portion of a stock decrement. The clamp at
// zero keeps the quantity invariant, but the deficit itself must not be
// lost: it is persisted here and surfaced through an InsufficientStock
// event for downstream compensating action.
type Shortfall struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	FactID      uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductName string
	Requested   int64 `gorm:"not null"`
	Applied     int64 `gorm:"not null"`
	Deficit     int64 `gorm:"not null"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (Shortfall) TableName() string {
	return "stock_shortfalls"
}

// NewShortfall creates a shortfall record from a decrement result
func NewShortfall(factID, orderID, productID uuid.UUID, productName string, result DecrementResult) *Shortfall {
	return &Shortfall{
		ID:          uuid.New(),
		FactID:      factID,
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		Requested:   result.Requested,
		Applied:     result.Applied,
		Deficit:     result.Shortfall,
		CreatedAt:   time.Now(),
	}
}
