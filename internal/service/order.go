package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/repository"
)

const MaxOrderQuantity = 10

// OrderInput is a checkout request. Prices are never taken from the client.
type OrderInput struct {
	Items           []OrderLine `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string      `json:"paymentMethod" validate:"required"`
	ShippingAddress string      `json:"shippingAddress" validate:"required,max=500"`
}

type OrderLine struct {
	GoodieID string `json:"goodie" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type OrderService struct {
	repo   repository.OrderRepository
	logger *slog.Logger
}

func NewOrderService(repo repository.OrderRepository, logger *slog.Logger) *OrderService {
	return &OrderService{repo: repo, logger: logger}
}

// Place checks out the given items for userID. Quantities of a goodie listed
// twice are merged. Stock and coin checks happen atomically in the repository.
func (s *OrderService) Place(ctx context.Context, userID string, in OrderInput) (*model.Order, error) {
	method := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if method != model.PaymentCash && method != model.PaymentCoins {
		return nil, apperror.ValidationFailed("paymentMethod", "payment method must be cash or coins")
	}
	address := strings.TrimSpace(in.ShippingAddress)
	if err := required("shippingAddress", address); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, apperror.ValidationFailed("items", "an order needs at least one item")
	}

	var items []model.OrderItem
	index := make(map[string]int)
	for _, it := range in.Items {
		id := strings.TrimSpace(it.GoodieID)
		if id == "" {
			return nil, apperror.ValidationFailed("items", "every item needs a goodie")
		}
		if it.Quantity < 1 {
			return nil, apperror.ValidationFailed("items", "quantity must be at least 1")
		}
		if i, ok := index[id]; ok {
			items[i].Quantity += it.Quantity
		} else {
			index[id] = len(items)
			items = append(items, model.OrderItem{GoodieID: id, Quantity: it.Quantity})
		}
	}
	for _, it := range items {
		if it.Quantity > MaxOrderQuantity {
			return nil, apperror.ValidationFailed("items",
				fmt.Sprintf("at most %d of one goodie per order", MaxOrderQuantity))
		}
	}

	order := &model.Order{
		OrderID:         uuid.NewString(),
		UserID:          userID,
		Items:           items,
		PaymentMethod:   method,
		ShippingAddress: address,
		Status:          model.OrderPending,
	}
	if err := s.repo.PlaceOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("placing order: %w", err)
	}

	s.logger.Info("order placed",
		slog.String("orderId", order.OrderID),
		slog.String("user", userID),
		slog.String("payment", method),
	)
	return order, nil
}

func (s *OrderService) Mine(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) All(ctx context.Context, opts repository.ListOptions) ([]model.Order, error) {
	orders, err := s.repo.ListAll(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

var orderStatuses = map[string]bool{
	model.OrderPending:   true,
	model.OrderConfirmed: true,
	model.OrderShipped:   true,
	model.OrderDelivered: true,
	model.OrderCancelled: true,
}

// SetStatus moves an order to a new state. id may be the row id or the
// public order id. Delivered and cancelled orders are final; setting the
// current status again is a no-op.
func (s *OrderService) SetStatus(ctx context.Context, id, status string) (*model.Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !orderStatuses[status] {
		return nil, apperror.ValidationFailed("status", "unknown order status")
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("updating order: %w", err)
	}
	if order.Status == status {
		return order, nil
	}
	if model.OrderFinal(order.Status) {
		return nil, apperror.ConflictMessage(fmt.Sprintf("order is already %s", order.Status))
	}
	if err := s.repo.UpdateStatus(ctx, order.ID, status); err != nil {
		return nil, fmt.Errorf("updating order %s: %w", id, err)
	}
	order.Status = status
	s.logger.Info("order status changed", slog.String("orderId", order.OrderID), slog.String("status", status))
	return order, nil
}
