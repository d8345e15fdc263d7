package persistence

import (
	"fmt"

	"github.com/orderflow/backend/internal/domain/inventory"
	"github.com/orderflow/backend/internal/domain/order"
	"github.com/orderflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the database schema for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&order.Order{},
		&order.LineItem{},
		&inventory.StockRecord{},
		&inventory.Shortfall{},
		&shared.OutboxEntry{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
