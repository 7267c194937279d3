package service

import (
	"context"

	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/repository"
)

// ProductService handles business logic for products
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts returns the catalog, optionally narrowed to one kind.
// An empty kind returns everything.
func (s *ProductService) ListProducts(ctx context.Context, kind models.ProductKind) ([]models.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return products, nil
	}

	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Kind == kind {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}
