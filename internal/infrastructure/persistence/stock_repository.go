package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/inventory"
	"github.com/orderflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormStockRepository implements StockRepository using GORM
type GormStockRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormStockRepository creates a new GORM-based stock repository
func NewGormStockRepository(db *gorm.DB, outboxSaver shared.OutboxEventSaver) *GormStockRepository {
	return &GormStockRepository{db: db, outboxSaver: outboxSaver}
}

// Create inserts a new stock record
func (r *GormStockRepository) Create(ctx context.Context, record *inventory.StockRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		if events := record.GetDomainEvents(); len(events) > 0 && r.outboxSaver != nil {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	record.ClearDomainEvents()
	return nil
}

// FindByProductID finds the stock record for a product
func (r *GormStockRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*inventory.StockRecord, error) {
	var record inventory.StockRecord
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// SaveWithVersion updates a stock record with a compare-and-swap on the
// version column. Zero rows affected means the record changed since it was
// loaded; the caller reloads and retries. Pending domain events land in the
// outbox within the same transaction.
func (r *GormStockRepository) SaveWithVersion(ctx context.Context, record *inventory.StockRecord) error {
	loadedVersion := record.Version

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&inventory.StockRecord{}).
			Where("id = ? AND version = ?", record.ID, loadedVersion).
			Updates(map[string]interface{}{
				"product_name":       record.ProductName,
				"available_quantity": record.AvailableQuantity,
				"version":            loadedVersion + 1,
				"updated_at":         now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		record.Version = loadedVersion + 1
		record.UpdatedAt = now

		if events := record.GetDomainEvents(); len(events) > 0 && r.outboxSaver != nil {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	record.ClearDomainEvents()
	return nil
}

// FindAll returns all stock records
func (r *GormStockRepository) FindAll(ctx context.Context) ([]inventory.StockRecord, error) {
	var records []inventory.StockRecord
	if err := r.db.WithContext(ctx).
		Order("product_name ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Ensure GormStockRepository implements StockRepository
var _ inventory.StockRepository = (*GormStockRepository)(nil)
