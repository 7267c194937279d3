package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/lexacademy/checkout/internal/models"
	"github.com/lexacademy/checkout/internal/pricing"
	"github.com/lexacademy/checkout/internal/repository"
)

var (
	ErrEmptyOrder      = errors.New("order must contain at least one item")
	ErrInvalidQuantity = errors.New("quantity out of range")
	ErrInvalidPrice    = errors.New("unit price out of range")
	ErrMissingUser     = errors.New("userId is required")
	ErrInvalidStatus   = errors.New("unknown order status")
	ErrTotalMismatch   = errors.New("totalAmount does not match items")
	ErrTestModeTag     = errors.New("TEST_MODE payment requires isTestMode")
)

// OrderService is the order-persistence API: it validates and stores
// order-creation payloads and serves order lookups.
type OrderService struct {
	repo repository.OrderRepository
	log  *slog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repo repository.OrderRepository, log *slog.Logger) *OrderService {
	return &OrderService{
		repo: repo,
		log:  log,
	}
}

// CreateOrder validates the payload and stores it. Repeating an idempotency
// key returns the order created the first time.
func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrMissingUser
	}

	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	for _, item := range req.Items {
		if item.Quantity <= 0 || item.Quantity > pricing.MaxQuantity {
			return nil, ErrInvalidQuantity
		}
		if !(item.UnitPrice >= 0 && item.UnitPrice <= pricing.MaxUnitPrice) {
			return nil, ErrInvalidPrice
		}
	}

	if req.Status == "" {
		req.Status = models.OrderPaid
	}
	if !req.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	if req.PaymentMethod == models.PaymentTestMode && !req.IsTestMode {
		return nil, ErrTestModeTag
	}

	if pricing.Total(req.Items) != req.TotalAmount {
		return nil, ErrTotalMismatch
	}

	order := &models.Order{
		UserID:         req.UserID,
		Items:          req.Items,
		TotalAmount:    req.TotalAmount,
		ShippingInfo:   req.ShippingInfo,
		PaymentMethod:  req.PaymentMethod,
		SlipURL:        req.SlipURL,
		Status:         req.Status,
		IsTestMode:     req.IsTestMode,
		IdempotencyKey: req.IdempotencyKey,
	}

	stored, created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	if !created {
		s.log.Info("duplicate order submission collapsed",
			"order_id", stored.ID,
			"idempotency_key", req.IdempotencyKey,
		)
	}

	return stored, nil
}

// GetOrder returns one order
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// ListOrders returns a user's order history, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}
