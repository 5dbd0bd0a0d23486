package service

import (
	"context"
	"errors"
	"fmt"

	"telenonym/internal/domain"
	"telenonym/internal/repository"
)

var (
	ErrInvalidCategory = errors.New("invalid category")
)

// CatalogService defines read access to the product catalog
type CatalogService interface {
	ListSection(ctx context.Context, category domain.Category) ([]*domain.Product, error)
	Search(ctx context.Context, query string) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogService{productRepo: productRepo}
}

// ListSection returns the ordered items of one catalog section
func (s *catalogService) ListSection(ctx context.Context, category domain.Category) ([]*domain.Product, error) {
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}

	products, err := s.productRepo.List(ctx, &category)
	if err != nil {
		return nil, fmt.Errorf("failed to list section: %w", err)
	}
	return products, nil
}

// Search returns catalog items matching the query across name, description,
// and category
func (s *catalogService) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	products, err := s.productRepo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}
	return products, nil
}

// GetProduct retrieves a single catalog item
func (s *catalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return product, nil
}
