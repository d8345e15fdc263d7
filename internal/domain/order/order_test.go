package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validItems() []ItemSpec {
	return []ItemSpec{
		{
			ProductID:   uuid.New(),
			ProductName: "Widget",
			Quantity:    2,
			UnitPrice:   decimal.NewFromFloat(19.99),
		},
		{
			ProductID:   uuid.New(),
			ProductName: "Gadget",
			Quantity:    1,
			UnitPrice:   decimal.NewFromFloat(5.00),
		},
	}
}

func TestNewOrder(t *testing.T) {
	o, err := NewOrder("ORD-20260829-120000-A4B9", "Alice Smith", "alice@example.com", validItems())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 0, o.Version)
	assert.Len(t, o.Items, 2)
	// 2*19.99 + 1*5.00
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromFloat(44.98)),
		"expected 44.98, got %s", o.TotalAmount)

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(*OrderCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, o.ID, created.OrderID)
	assert.Equal(t, "ORD-20260829-120000-A4B9", created.OrderNumber)
	assert.Len(t, created.Items, 2)
}

func TestNewOrder_Validation(t *testing.T) {
	tests := []struct {
		name         string
		orderNumber  string
		customerName string
		email        string
		items        []ItemSpec
	}{
		{"empty order number", "", "Alice", "a@b.com", validItems()},
		{"empty customer name", "ORD-1", "", "a@b.com", validItems()},
		{"empty email", "ORD-1", "Alice", "", validItems()},
		{"email without at", "ORD-1", "Alice", "nobody", validItems()},
		{"email with leading at", "ORD-1", "Alice", "@example.com", validItems()},
		{"email with trailing at", "ORD-1", "Alice", "nobody@", validItems()},
		{"no items", "ORD-1", "Alice", "a@b.com", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder(tt.orderNumber, tt.customerName, tt.email, tt.items)
			assert.Error(t, err)
		})
	}
}

func TestNewOrder_InvalidItem(t *testing.T) {
	tests := []struct {
		name string
		spec ItemSpec
	}{
		{"zero quantity", ItemSpec{ProductID: uuid.New(), ProductName: "X", Quantity: 0, UnitPrice: decimal.NewFromInt(1)}},
		{"negative quantity", ItemSpec{ProductID: uuid.New(), ProductName: "X", Quantity: -1, UnitPrice: decimal.NewFromInt(1)}},
		{"excessive quantity", ItemSpec{ProductID: uuid.New(), ProductName: "X", Quantity: MaxItemQuantity + 1, UnitPrice: decimal.NewFromInt(1)}},
		{"zero price", ItemSpec{ProductID: uuid.New(), ProductName: "X", Quantity: 1, UnitPrice: decimal.Zero}},
		{"negative price", ItemSpec{ProductID: uuid.New(), ProductName: "X", Quantity: 1, UnitPrice: decimal.NewFromInt(-5)}},
		{"nil product", ItemSpec{ProductID: uuid.Nil, ProductName: "X", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
		{"empty product name", ItemSpec{ProductID: uuid.New(), ProductName: "", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder("ORD-1", "Alice", "a@b.com", []ItemSpec{tt.spec})
			assert.Error(t, err)
		})
	}
}

func TestOrder_ReplaceItems(t *testing.T) {
	o, err := NewOrder("ORD-1", "Alice", "a@b.com", validItems())
	require.NoError(t, err)

	newItems := []ItemSpec{
		{ProductID: uuid.New(), ProductName: "Bolt", Quantity: 10, UnitPrice: decimal.NewFromFloat(0.50)},
	}
	require.NoError(t, o.ReplaceItems(newItems))

	assert.Len(t, o.Items, 1)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(5)))
}

func TestOrder_ReplaceItems_InvalidItemLeavesOrderUnchanged(t *testing.T) {
	o, err := NewOrder("ORD-1", "Alice", "a@b.com", validItems())
	require.NoError(t, err)
	before := o.TotalAmount

	bad := []ItemSpec{
		{ProductID: uuid.New(), ProductName: "Good", Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
		{ProductID: uuid.New(), ProductName: "Bad", Quantity: -1, UnitPrice: decimal.NewFromInt(1)},
	}
	err = o.ReplaceItems(bad)
	require.Error(t, err)

	assert.Len(t, o.Items, 2)
	assert.True(t, o.TotalAmount.Equal(before))
}

func TestOrder_ReplaceItems_Empty(t *testing.T) {
	o, err := NewOrder("ORD-1", "Alice", "a@b.com", validItems())
	require.NoError(t, err)

	assert.Error(t, o.ReplaceItems(nil))
}

func TestOrder_ReplaceItems_RejectedAfterProcessing(t *testing.T) {
	o, err := NewOrder("ORD-1", "Alice", "a@b.com", validItems())
	require.NoError(t, err)
	require.NoError(t, o.TransitionTo(StatusConfirmed))
	require.NoError(t, o.TransitionTo(StatusProcessing))

	assert.Error(t, o.ReplaceItems(validItems()))
}

func TestOrder_UpdateCustomer(t *testing.T) {
	o, err := NewOrder("ORD-1", "Alice", "a@b.com", validItems())
	require.NoError(t, err)

	require.NoError(t, o.UpdateCustomer("Bob Jones", "bob@example.com"))
	assert.Equal(t, "Bob Jones", o.CustomerName)
	assert.Equal(t, "bob@example.com", o.Email)

	assert.Error(t, o.UpdateCustomer("", "bob@example.com"))
	assert.Error(t, o.UpdateCustomer("Bob", "not-an-email"))
}

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusProcessing, false},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusProcessing, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusConfirmed, StatusShipped, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusConfirmed, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, true},
		{StatusShipped, StatusProcessing, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrder_TransitionTo(t *testing.T) {
	o, err := NewOrder("ORD-1", "Alice", "a@b.com", validItems())
	require.NoError(t, err)
	o.ClearDomainEvents()

	require.NoError(t, o.TransitionTo(StatusConfirmed))
	assert.Equal(t, StatusConfirmed, o.Status)

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	changed, ok := events[0].(*OrderStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, "PENDING", changed.FromStatus)
	assert.Equal(t, "CONFIRMED", changed.ToStatus)
}

func TestOrder_TransitionTo_Illegal(t *testing.T) {
	o, err := NewOrder("ORD-1", "Alice", "a@b.com", validItems())
	require.NoError(t, err)

	err = o.TransitionTo(StatusShipped)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)

	err = o.TransitionTo(Status("BOGUS"))
	assert.Error(t, err)
}

func TestOrder_CancelledIsTerminal(t *testing.T) {
	o, err := NewOrder("ORD-1", "Alice", "a@b.com", validItems())
	require.NoError(t, err)
	require.NoError(t, o.TransitionTo(StatusCancelled))

	assert.True(t, o.IsTerminal())
	assert.Error(t, o.TransitionTo(StatusConfirmed))
	assert.Error(t, o.TransitionTo(StatusPending))
}

func TestOrder_CanDelete(t *testing.T) {
	tests := []struct {
		status    Status
		deletable bool
	}{
		{StatusPending, true},
		{StatusConfirmed, true},
		{StatusProcessing, false},
		{StatusShipped, false},
		{StatusDelivered, false},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			o, err := NewOrder("ORD-1", "Alice", "a@b.com", validItems())
			require.NoError(t, err)
			o.Status = tt.status
			assert.Equal(t, tt.deletable, o.CanDelete())
		})
	}
}

func TestLineItem_LineTotal(t *testing.T) {
	items := []ItemSpec{
		{ProductID: uuid.New(), ProductName: "Widget", Quantity: 3, UnitPrice: decimal.NewFromFloat(2.50)},
	}
	o, err := NewOrder("ORD-1", "Alice", "a@b.com", items)
	require.NoError(t, err)

	assert.True(t, o.Items[0].LineTotal().Equal(decimal.NewFromFloat(7.50)))
}
