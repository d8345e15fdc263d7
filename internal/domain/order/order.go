package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MaxItemQuantity bounds a single line item to a sane maximum
const MaxItemQuantity = 10000

// Status represents the lifecycle status of an order
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for states with no outgoing transitions
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// legalTransitions is the explicit table of allowed (from, to) pairs.
// The lifecycle only moves forward; CANCELLED is reachable from every
// non-terminal state.
var legalTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// LineItem represents a line item in an order. Items are exclusively owned
// by their parent order; product name and unit price are snapshots captured
// at order time and do not track later catalog changes.
type LineItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewLineItem creates a new order line item
func NewLineItem(orderID, productID uuid.UUID, productName string, quantity int, unitPrice valueobject.Money) (*LineItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if quantity > MaxItemQuantity {
		return nil, shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Quantity cannot exceed %d", MaxItemQuantity))
	}
	if !unitPrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}

	now := time.Now()
	return &LineItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// LineTotal returns quantity * unit price
func (i *LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemSpec describes a requested line item, before it becomes part of an order
type ItemSpec struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Order represents a customer order aggregate root. The total amount is
// always derived from the items, never trusted from a caller.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber  string `gorm:"uniqueIndex;not null;size:50"`
	CustomerName string `gorm:"not null;size:100"`
	Email        string `gorm:"not null;size:100;index"`
	Items        []LineItem
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status       Status          `gorm:"not null;size:20;index"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new order in PENDING status. The order number must
// already be verified unique by the number generator; items must be
// non-empty and each item valid.
func NewOrder(orderNumber, customerName, email string, items []ItemSpec) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Order must contain at least one item")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerName:      customerName,
		Email:             email,
		Items:             make([]LineItem, 0, len(items)),
		TotalAmount:       decimal.Zero,
		Status:            StatusPending,
	}

	if err := o.setItems(items); err != nil {
		return nil, err
	}

	o.AddDomainEvent(NewOrderCreatedEvent(o))

	return o, nil
}

// ReplaceItems atomically replaces the entire item collection and
// recomputes the total. Partial patching is deliberately not supported.
// Only allowed while the order can still be modified.
func (o *Order) ReplaceItems(items []ItemSpec) error {
	if !o.CanModify() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit items of an order in %s status", o.Status))
	}
	if len(items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Order must contain at least one item")
	}

	if err := o.setItems(items); err != nil {
		return err
	}
	o.UpdatedAt = time.Now()

	return nil
}

// setItems validates every spec before mutating, so a failing item leaves
// the order unchanged.
func (o *Order) setItems(items []ItemSpec) error {
	newItems := make([]LineItem, 0, len(items))
	for _, spec := range items {
		item, err := NewLineItem(o.ID, spec.ProductID, spec.ProductName, spec.Quantity, valueobject.NewMoneyUSD(spec.UnitPrice))
		if err != nil {
			return err
		}
		newItems = append(newItems, *item)
	}
	o.Items = newItems
	o.recalculateTotal()
	return nil
}

// UpdateCustomer updates the customer name and email
func (o *Order) UpdateCustomer(customerName, email string) error {
	if !o.CanModify() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit an order in %s status", o.Status))
	}
	if customerName == "" {
		return shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if err := validateEmail(email); err != nil {
		return err
	}

	o.CustomerName = customerName
	o.Email = email
	o.UpdatedAt = time.Now()

	return nil
}

// TransitionTo moves the order to the requested status, checked against the
// legal transition table. Backward moves and moves out of a terminal state
// are rejected.
func (o *Order) TransitionTo(target Status) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown status %q", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}

	from := o.Status
	o.Status = target
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))

	return nil
}

// recalculateTotal recomputes the total amount from the items
func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	o.TotalAmount = total
}

// GetTotalAmountMoney returns the total amount as Money
func (o *Order) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.TotalAmount)
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// CanModify returns true if items and customer details can still change
func (o *Order) CanModify() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// CanDelete returns true if the order may be physically deleted.
// Orders in active fulfillment or already delivered must be kept.
func (o *Order) CanDelete() bool {
	switch o.Status {
	case StatusProcessing, StatusShipped, StatusDelivered:
		return false
	}
	return true
}

// IsTerminal returns true if the order is in a terminal state
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// GetItemByProduct returns an item by product ID
func (o *Order) GetItemByProduct(productID uuid.UUID) *LineItem {
	for idx := range o.Items {
		if o.Items[idx].ProductID == productID {
			return &o.Items[idx]
		}
	}
	return nil
}

// validateEmail applies a minimal well-formedness check. Full RFC
// validation belongs to the transport layer that deserialized the request.
func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return shared.NewDomainError("INVALID_EMAIL", "Email is not well-formed")
	}
	return nil
}
