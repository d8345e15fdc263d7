package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/order"
	"github.com/orderflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderService handles order business operations
type OrderService struct {
	orderRepo order.OrderRepository
	numberGen *order.NumberGenerator
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo order.OrderRepository, numberGen *order.NumberGenerator, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		numberGen: numberGen,
		logger:    logger,
	}
}

// Create creates a new order. The order number is generated with a bounded
// uniqueness retry; the aggregate and its OrderCreated event are persisted in
// one transaction, so no order exists without its event.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	orderNumber, err := s.numberGen.Generate(ctx)
	if err != nil {
		s.logger.Error("failed to generate order number", zap.Error(err))
		return nil, err
	}

	o, err := order.NewOrder(orderNumber, req.CustomerName, req.Email, toItemSpecs(req.Items))
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		s.logger.Error("failed to save order",
			zap.String("order_number", orderNumber),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.Int("items", o.ItemCount()),
	)

	response := ToOrderResponse(o)
	return &response, nil
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// GetByOrderNumber retrieves an order by its order number
func (s *OrderService) GetByOrderNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// ListByEmail retrieves all orders placed with the given email
func (s *OrderService) ListByEmail(ctx context.Context, email string) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses, nil
}

// List retrieves all orders
func (s *OrderService) List(ctx context.Context) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses, nil
}

// Update replaces the customer details and item set of an order. The caller
// supplies the version it loaded the order at; a mismatch surfaces
// ErrConcurrencyConflict and is never retried silently.
func (s *OrderService) Update(ctx context.Context, orderID uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	if err := o.UpdateCustomer(req.CustomerName, req.Email); err != nil {
		return nil, err
	}
	if err := o.ReplaceItems(toItemSpecs(req.Items)); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order updated",
		zap.String("order_id", o.ID.String()),
		zap.Int("version", o.Version),
	)

	response := ToOrderResponse(o)
	return &response, nil
}

// UpdateStatus moves an order through its lifecycle. Illegal transitions are
// rejected by the aggregate's transition table.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	from := o.Status
	if err := o.TransitionTo(order.Status(req.Status)); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("from", from.String()),
		zap.String("to", o.Status.String()),
	)

	response := ToOrderResponse(o)
	return &response, nil
}

// Delete removes an order. Orders in active fulfillment or already delivered
// cannot be deleted.
func (s *OrderService) Delete(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !o.CanDelete() {
		return shared.NewDomainError("INVALID_STATE",
			"Orders in fulfillment or already delivered cannot be deleted")
	}

	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return err
	}

	s.logger.Info("order deleted",
		zap.String("order_id", orderID.String()),
		zap.String("order_number", o.OrderNumber),
	)
	return nil
}
