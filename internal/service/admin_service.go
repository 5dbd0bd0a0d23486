package service

import (
	"context"
	"fmt"

	"telenonym/internal/clock"
	"telenonym/internal/domain"
	"telenonym/internal/repository"
)

// Stats summarizes the store for the admin dashboard
type Stats struct {
	Products int     `json:"products"`
	Orders   int     `json:"orders"`
	Revenue  float64 `json:"revenue"`
}

// AdminService defines the operations behind the admin allow-list
type AdminService interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]domain.StoreUser, error)
	GetStats(ctx context.Context) (*Stats, error)
}

type adminService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	clock       clock.Clock
}

// NewAdminService creates a new instance of AdminService
func NewAdminService(productRepo repository.ProductRepository, orderRepo repository.OrderRepository, clk clock.Clock) AdminService {
	return &adminService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		clock:       clk,
	}
}

// CreateProduct adds a new catalog listing
func (s *adminService) CreateProduct(ctx context.Context, product *domain.Product) error {
	if !product.Category.Valid() {
		return ErrInvalidCategory
	}

	now := s.clock.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.productRepo.Create(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct edits an existing catalog listing
func (s *adminService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if !product.Category.Valid() {
		return ErrInvalidCategory
	}

	product.UpdatedAt = s.clock.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return err
	}
	return nil
}

// DeleteProduct removes a catalog listing
func (s *adminService) DeleteProduct(ctx context.Context, id string) error {
	return s.productRepo.Delete(ctx, id)
}

// ListUsers returns the customer list shown in the admin panel.
// TODO: back this with real Telegram user tracking once the bot records
// interactions; for now it serves the fixed sample set.
func (s *adminService) ListUsers(ctx context.Context) ([]domain.StoreUser, error) {
	return []domain.StoreUser{
		{ID: 123456789, Name: "John Smith", Username: "johnsmith", TotalOrders: 5, Status: "active"},
		{ID: 987654321, Name: "Alice Brown", Username: "alice_b", TotalOrders: 2, Status: "active"},
		{ID: 456789123, Name: "Robert Jones", Username: "robert", TotalOrders: 0, Status: "blocked"},
		{ID: 789123456, Name: "Emma Wilson", Username: "emma", TotalOrders: 3, Status: "active"},
	}, nil
}

// GetStats summarizes catalog size, order volume, and completed revenue
func (s *adminService) GetStats(ctx context.Context) (*Stats, error) {
	products, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	orders, revenue, err := s.orderRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Products: products,
		Orders:   orders,
		Revenue:  revenue,
	}, nil
}
