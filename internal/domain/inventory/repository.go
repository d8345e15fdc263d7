package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockRepository defines persistence for stock records.
// SaveWithVersion is the compare-and-swap primitive backing per-product
// atomicity: it writes only if the persisted version still matches the
// version the record was loaded at, failing with
// shared.ErrConcurrencyConflict otherwise. Callers reload and retry.
type StockRepository interface {
	// Create inserts a new stock record
	Create(ctx context.Context, record *StockRecord) error
	// FindByProductID finds the stock record for a product
	FindByProductID(ctx context.Context, productID uuid.UUID) (*StockRecord, error)
	// SaveWithVersion updates a record with an optimistic version check
	SaveWithVersion(ctx context.Context, record *StockRecord) error
	// FindAll returns all stock records
	FindAll(ctx context.Context) ([]StockRecord, error)
}

// ShortfallRepository persists oversell shortfalls
type ShortfallRepository interface {
	// Save persists a shortfall record
	Save(ctx context.Context, shortfall *Shortfall) error
	// FindByOrderID returns shortfalls recorded for an order
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]Shortfall, error)
	// FindByProductID returns shortfalls recorded for a product
	FindByProductID(ctx context.Context, productID uuid.UUID) ([]Shortfall, error)
}
