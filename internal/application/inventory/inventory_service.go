package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/inventory"
	"github.com/orderflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultMaxSaveAttempts bounds the compare-and-swap retry loop for stock writes
const DefaultMaxSaveAttempts = 5

// InventoryService handles stock management operations
type InventoryService struct {
	stockRepo     inventory.StockRepository
	shortfallRepo inventory.ShortfallRepository
	logger        *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	stockRepo inventory.StockRepository,
	shortfallRepo inventory.ShortfallRepository,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		stockRepo:     stockRepo,
		shortfallRepo: shortfallRepo,
		logger:        logger,
	}
}

// CreateStock registers a stock record for a product
func (s *InventoryService) CreateStock(ctx context.Context, req CreateStockRequest) (*StockResponse, error) {
	record, err := inventory.NewStockRecord(req.ProductID, req.ProductName, req.InitialQuantity)
	if err != nil {
		return nil, err
	}

	if err := s.stockRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("stock record created",
		zap.String("product_id", record.ProductID.String()),
		zap.Int64("quantity", record.AvailableQuantity),
	)

	response := ToStockResponse(record)
	return &response, nil
}

// GetStock retrieves the stock record for a product
func (s *InventoryService) GetStock(ctx context.Context, productID uuid.UUID) (*StockResponse, error) {
	record, err := s.stockRepo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	response := ToStockResponse(record)
	return &response, nil
}

// ListStock returns all stock records
func (s *InventoryService) ListStock(ctx context.Context) ([]StockResponse, error) {
	records, err := s.stockRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]StockResponse, len(records))
	for i := range records {
		responses[i] = ToStockResponse(&records[i])
	}
	return responses, nil
}

// Restock adds quantity to a product's available stock. Concurrent writers
// are handled with a bounded reload-and-retry loop around the CAS save.
func (s *InventoryService) Restock(ctx context.Context, productID uuid.UUID, quantity int64) (*StockResponse, error) {
	for attempt := 0; attempt < DefaultMaxSaveAttempts; attempt++ {
		record, err := s.stockRepo.FindByProductID(ctx, productID)
		if err != nil {
			return nil, err
		}

		if err := record.Increment(quantity); err != nil {
			return nil, err
		}

		err = s.stockRepo.SaveWithVersion(ctx, record)
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info("stock replenished",
			zap.String("product_id", productID.String()),
			zap.Int64("added", quantity),
			zap.Int64("available", record.AvailableQuantity),
		)

		response := ToStockResponse(record)
		return &response, nil
	}

	return nil, shared.ErrConcurrencyConflict
}

// GetShortfallsByOrder returns shortfalls recorded while reconciling an order
func (s *InventoryService) GetShortfallsByOrder(ctx context.Context, orderID uuid.UUID) ([]ShortfallResponse, error) {
	shortfalls, err := s.shortfallRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	responses := make([]ShortfallResponse, len(shortfalls))
	for i := range shortfalls {
		responses[i] = ToShortfallResponse(&shortfalls[i])
	}
	return responses, nil
}
