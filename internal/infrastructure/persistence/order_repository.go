package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/order"
	"github.com/orderflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormOrderRepository creates a new GORM-based order repository
func NewGormOrderRepository(db *gorm.DB, outboxSaver shared.OutboxEventSaver) *GormOrderRepository {
	return &GormOrderRepository{db: db, outboxSaver: outboxSaver}
}

// Save creates or updates an order with optimistic locking. Updates are a
// compare-and-swap on the version column: zero rows affected means another
// writer got there first and the caller sees ErrConcurrencyConflict.
// Pending domain events are written to the outbox in the same transaction,
// so an order is never persisted without its events.
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&order.Order{}).Where("id = ?", o.ID).Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := r.insert(tx, o); err != nil {
				return err
			}
		} else {
			if err := r.update(tx, o); err != nil {
				return err
			}
		}

		if events := o.GetDomainEvents(); len(events) > 0 && r.outboxSaver != nil {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	o.ClearDomainEvents()
	return nil
}

// insert persists a new order and its items
func (r *GormOrderRepository) insert(tx *gorm.DB, o *order.Order) error {
	if err := tx.Omit("Items").Create(o).Error; err != nil {
		return err
	}

	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		if err := tx.Create(&o.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// update applies a compare-and-swap write and replaces the item set
func (r *GormOrderRepository) update(tx *gorm.DB, o *order.Order) error {
	loadedVersion := o.Version
	o.UpdatedAt = time.Now()

	result := tx.Model(&order.Order{}).
		Where("id = ? AND version = ?", o.ID, loadedVersion).
		Updates(map[string]interface{}{
			"order_number":  o.OrderNumber,
			"customer_name": o.CustomerName,
			"email":         o.Email,
			"total_amount":  o.TotalAmount,
			"status":        o.Status,
			"version":       loadedVersion + 1,
			"updated_at":    o.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	o.Version = loadedVersion + 1

	// Items are replaced wholesale rather than diffed
	if err := tx.Where("order_id = ?", o.ID).Delete(&order.LineItem{}).Error; err != nil {
		return err
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		if err := tx.Create(&o.Items[i]).Error; err != nil {
			return err
		}
	}

	return nil
}

// FindByID finds an order by its ID with items preloaded
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByOrderNumber finds an order by its order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByEmail finds all orders placed with the given email
func (r *GormOrderRepository) FindByEmail(ctx context.Context, email string) ([]order.Order, error) {
	var orders []order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAll returns all orders
func (r *GormOrderRepository) FindAll(ctx context.Context) ([]order.Order, error) {
	var orders []order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ExistsByOrderNumber checks if an order number is already taken
func (r *GormOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes an order and its items
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&order.LineItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&order.Order{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Ensure GormOrderRepository implements OrderRepository
var _ order.OrderRepository = (*GormOrderRepository)(nil)

// Ensure GormOrderRepository satisfies the generator's uniqueness check
var _ order.UniquenessChecker = (*GormOrderRepository)(nil)
