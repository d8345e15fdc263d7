package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/inventory"
)

// CreateStockRequest represents a request to register stock for a product
type CreateStockRequest struct {
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name"`
	InitialQuantity int64     `json:"initial_quantity"`
}

// StockResponse represents a stock record in API responses
type StockResponse struct {
	ID                uuid.UUID `json:"id"`
	ProductID         uuid.UUID `json:"product_id"`
	ProductName       string    `json:"product_name"`
	AvailableQuantity int64     `json:"available_quantity"`
	Version           int       `json:"version"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ToStockResponse converts a stock record to a response DTO
func ToStockResponse(record *inventory.StockRecord) StockResponse {
	return StockResponse{
		ID:                record.ID,
		ProductID:         record.ProductID,
		ProductName:       record.ProductName,
		AvailableQuantity: record.AvailableQuantity,
		Version:           record.Version,
		UpdatedAt:         record.UpdatedAt,
	}
}

// ShortfallResponse represents a recorded shortfall in API responses
type ShortfallResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int64     `json:"requested"`
	Applied     int64     `json:"applied"`
	Deficit     int64     `json:"deficit"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToShortfallResponse converts a shortfall record to a response DTO
func ToShortfallResponse(s *inventory.Shortfall) ShortfallResponse {
	return ShortfallResponse{
		ID:          s.ID,
		OrderID:     s.OrderID,
		ProductID:   s.ProductID,
		ProductName: s.ProductName,
		Requested:   s.Requested,
		Applied:     s.Applied,
		Deficit:     s.Deficit,
		CreatedAt:   s.CreatedAt,
	}
}
