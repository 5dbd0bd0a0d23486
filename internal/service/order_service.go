package service

import (
	"context"
	"fmt"

	"telenonym/internal/domain"
	"telenonym/internal/repository"
)

// OrderService defines read access to a user's order history
type OrderService interface {
	ListOrders(ctx context.Context, userID int64, query string) ([]*domain.Order, error)
	GetOrder(ctx context.Context, userID int64, id string) (*domain.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

// ListOrders returns the user's orders, optionally filtered by a search
// over order ID and product name
func (s *orderService) ListOrders(ctx context.Context, userID int64, query string) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrder retrieves one of the user's orders
func (s *orderService) GetOrder(ctx context.Context, userID int64, id string) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}
