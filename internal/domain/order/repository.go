package order

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines persistence for order aggregates.
// Save performs a compare-and-swap on the aggregate's version token: an
// update whose in-memory version does not match the persisted one fails
// with shared.ErrConcurrencyConflict, and the caller must reload and retry.
// On success the repository advances the token; callers never do.
type OrderRepository interface {
	// Save creates or updates an order and its items, writing any pending
	// domain events to the outbox within the same transaction
	Save(ctx context.Context, o *Order) error
	// FindByID finds an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByOrderNumber finds an order by its human-readable number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	// FindByEmail finds all orders placed with the given email
	FindByEmail(ctx context.Context, email string) ([]Order, error)
	// FindAll returns all orders
	FindAll(ctx context.Context) ([]Order, error)
	// ExistsByOrderNumber reports whether an order number is taken
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)
	// Delete removes an order and its items
	Delete(ctx context.Context, id uuid.UUID) error
}
