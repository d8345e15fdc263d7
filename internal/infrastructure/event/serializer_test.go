package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/inventory"
	"github.com/orderflow/backend/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder("ORD-20260829-120000-A4B9", "Alice", "alice@example.com", []order.ItemSpec{
		{ProductID: uuid.New(), ProductName: "Widget", Quantity: 2, UnitPrice: decimal.NewFromFloat(19.99)},
	})
	require.NoError(t, err)
	return o
}

func TestEventSerializer_RoundTrip_OrderCreated(t *testing.T) {
	serializer := NewRegisteredEventSerializer()

	o := newTestOrder(t)
	original := order.NewOrderCreatedEvent(o)

	data, err := serializer.Serialize(original)
	require.NoError(t, err)

	decoded, err := serializer.Deserialize(order.EventTypeOrderCreated, data)
	require.NoError(t, err)

	created, ok := decoded.(*order.OrderCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), created.EventID())
	assert.Equal(t, original.OrderID, created.OrderID)
	assert.Equal(t, original.OrderNumber, created.OrderNumber)
	require.Len(t, created.Items, 1)
	assert.Equal(t, original.Items[0].ProductID, created.Items[0].ProductID)
	assert.Equal(t, 2, created.Items[0].Quantity)
}

func TestEventSerializer_RoundTrip_InsufficientStock(t *testing.T) {
	serializer := NewRegisteredEventSerializer()

	record, err := inventory.NewStockRecord(uuid.New(), "Widget", 5)
	require.NoError(t, err)
	result := inventory.DecrementResult{Requested: 8, Applied: 5, Shortfall: 3, Remaining: 0}
	original := inventory.NewInsufficientStockEvent(record, uuid.New(), result)

	data, err := serializer.Serialize(original)
	require.NoError(t, err)

	decoded, err := serializer.Deserialize(inventory.EventTypeInsufficientStock, data)
	require.NoError(t, err)

	insufficient, ok := decoded.(*inventory.InsufficientStockEvent)
	require.True(t, ok)
	assert.Equal(t, int64(3), insufficient.Deficit)
	assert.Equal(t, original.ProductID, insufficient.ProductID)
}

func TestEventSerializer_UnknownType(t *testing.T) {
	serializer := NewEventSerializer()

	_, err := serializer.Deserialize("Nonexistent", []byte(`{}`))
	assert.Error(t, err)
}

func TestEventSerializer_Registration(t *testing.T) {
	serializer := NewRegisteredEventSerializer()

	assert.True(t, serializer.IsRegistered(order.EventTypeOrderCreated))
	assert.True(t, serializer.IsRegistered(order.EventTypeOrderStatusChanged))
	assert.True(t, serializer.IsRegistered(inventory.EventTypeStockAdjusted))
	assert.True(t, serializer.IsRegistered(inventory.EventTypeInsufficientStock))
	assert.False(t, serializer.IsRegistered("Unknown"))
	assert.Len(t, serializer.RegisteredTypes(), 4)
}
