package service

import (
	"context"
	"errors"
	"time"

	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/pricing"
	"github.com/lexacademy/checkout/internal/repository"
)

var ErrInvalidProduct = errors.New("invalid product")

// CartService adds catalog products to a user's cart
type CartService struct {
	products   repository.ProductRepository
	carts      repository.CartRepository
	demoUserID string
}

func NewCartService(products repository.ProductRepository, carts repository.CartRepository, demoUserID string) *CartService {
	return &CartService{products: products, carts: carts, demoUserID: demoUserID}
}

// Owner returns the cart owner for a possibly anonymous caller.
func (s *CartService) Owner(userID string) string {
	return identityOrDemo(userID, s.demoUserID)
}

func (s *CartService) Read(ctx context.Context, userID string) ([]models.CartEntry, error) {
	return s.carts.Read(ctx, s.Owner(userID))
}

// AddItem snapshots the product's current title, price and type into the cart.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) ([]models.CartEntry, error) {
	if quantity <= 0 || quantity > pricing.MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrInvalidProduct
		}
		return nil, err
	}

	owner := s.Owner(userID)
	entry := models.CartEntry{
		ProductID: product.ID,
		Title:     product.Title,
		Price:     product.Price,
		Quantity:  quantity,
		CoverURL:  product.CoverURL,
		Kind:      product.Kind,
		IsDigital: product.IsDigital,
		AddedAt:   time.Now().UTC(),
	}
	if err := s.carts.Add(ctx, owner, entry); err != nil {
		return nil, err
	}
	return s.carts.Read(ctx, owner)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, s.Owner(userID))
}

func identityOrDemo(userID, demo string) string {
	if userID == "" {
		return demo
	}
	return userID
}
