package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	CustomerName string                 `json:"customer_name"`
	Email        string                 `json:"email"`
	Items        []CreateOrderItemInput `json:"items"`
}

// CreateOrderItemInput represents an item in the create order request
type CreateOrderItemInput struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// UpdateOrderRequest represents a request to update an order. The item list
// replaces the existing one wholesale; Version is the optimistic concurrency
// token the caller loaded the order at.
type UpdateOrderRequest struct {
	CustomerName string                 `json:"customer_name"`
	Email        string                 `json:"email"`
	Items        []CreateOrderItemInput `json:"items"`
	Version      int                    `json:"version"`
}

// UpdateStatusRequest represents a request to move an order through its lifecycle
type UpdateStatusRequest struct {
	Status  string `json:"status"`
	Version int    `json:"version"`
}

// OrderItemResponse represents a line item in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	OrderNumber  string              `json:"order_number"`
	CustomerName string              `json:"customer_name"`
	Email        string              `json:"email"`
	Items        []OrderItemResponse `json:"items"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	Status       string              `json:"status"`
	Version      int                 `json:"version"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// ToOrderResponse converts an order aggregate to a response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal(),
		}
	}

	return OrderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		CustomerName: o.CustomerName,
		Email:        o.Email,
		Items:        items,
		TotalAmount:  o.TotalAmount,
		Status:       o.Status.String(),
		Version:      o.Version,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

// toItemSpecs converts request item inputs to domain item specs
func toItemSpecs(inputs []CreateOrderItemInput) []order.ItemSpec {
	specs := make([]order.ItemSpec, len(inputs))
	for i, input := range inputs {
		specs[i] = order.ItemSpec{
			ProductID:   input.ProductID,
			ProductName: input.ProductName,
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
		}
	}
	return specs
}
