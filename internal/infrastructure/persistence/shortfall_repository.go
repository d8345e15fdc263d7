package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormShortfallRepository implements ShortfallRepository using GORM
type GormShortfallRepository struct {
	db *gorm.DB
}

// NewGormShortfallRepository creates a new GORM-based shortfall repository
func NewGormShortfallRepository(db *gorm.DB) *GormShortfallRepository {
	return &GormShortfallRepository{db: db}
}

// Save persists a shortfall record
func (r *GormShortfallRepository) Save(ctx context.Context, shortfall *inventory.Shortfall) error {
	return r.db.WithContext(ctx).Create(shortfall).Error
}

// FindByOrderID returns shortfalls recorded for an order
func (r *GormShortfallRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]inventory.Shortfall, error) {
	var shortfalls []inventory.Shortfall
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&shortfalls).Error; err != nil {
		return nil, err
	}
	return shortfalls, nil
}

// FindByProductID returns shortfalls recorded for a product
func (r *GormShortfallRepository) FindByProductID(ctx context.Context, productID uuid.UUID) ([]inventory.Shortfall, error) {
	var shortfalls []inventory.Shortfall
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&shortfalls).Error; err != nil {
		return nil, err
	}
	return shortfalls, nil
}

// Ensure GormShortfallRepository implements ShortfallRepository
var _ inventory.ShortfallRepository = (*GormShortfallRepository)(nil)
