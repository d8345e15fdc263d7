package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormShortfallRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormShortfallRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	productID := uuid.New()
	result := inventory.DecrementResult{Requested: 8, Applied: 5, Shortfall: 3, Remaining: 0}

	shortfall := inventory.NewShortfall(uuid.New(), orderID, productID, "Widget", result)
	require.NoError(t, repo.Save(ctx, shortfall))

	byOrder, err := repo.FindByOrderID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.Equal(t, int64(3), byOrder[0].Deficit)
	assert.Equal(t, int64(5), byOrder[0].Applied)
	assert.Equal(t, "Widget", byOrder[0].ProductName)

	byProduct, err := repo.FindByProductID(ctx, productID)
	require.NoError(t, err)
	assert.Len(t, byProduct, 1)

	empty, err := repo.FindByOrderID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}
