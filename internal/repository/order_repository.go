package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexacademy/checkout/internal/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository persists orders. Create is idempotent on the order's
// idempotency key: a repeated key returns the stored order and created=false.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) (stored *models.Order, created bool, err error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
}

// prepareOrder fills the server-assigned fields of a new order.
func prepareOrder(order *models.Order) {
	now := time.Now().UTC()
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = now
	order.UpdatedAt = now
}

// InMemoryOrderRepository keeps orders in process memory
type InMemoryOrderRepository struct {
	mu       sync.RWMutex
	orders   map[string]models.Order
	byKey    map[string]string
	seenKeys *idempotencyFilter
}

func NewInMemoryOrderRepository(idempotencyCapacity int) *InMemoryOrderRepository {
	return &InMemoryOrderRepository{
		orders:   make(map[string]models.Order),
		byKey:    make(map[string]string),
		seenKeys: newIdempotencyFilter(idempotencyCapacity),
	}
}

func (r *InMemoryOrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := order.IdempotencyKey
	if key != "" && r.seenKeys.maybeSeen(key) {
		if id, ok := r.byKey[key]; ok {
			existing := r.orders[id]
			return &existing, false, nil
		}
	}

	stored := *order
	prepareOrder(&stored)
	r.orders[stored.ID] = stored
	if key != "" {
		r.byKey[key] = stored.ID
		r.seenKeys.add(key)
	}
	return &stored, true, nil
}

func (r *InMemoryOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// ListByUser returns a user's orders, newest first
func (r *InMemoryOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}
