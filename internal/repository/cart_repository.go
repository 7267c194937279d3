package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lexacademy/checkout/internal/models"
)

// CartRepository is the cart collaborator of the checkout flow
type CartRepository interface {
	Read(ctx context.Context, userID string) ([]models.CartEntry, error)
	Add(ctx context.Context, userID string, entry models.CartEntry) error
	Clear(ctx context.Context, userID string) error
}

// mergeEntry adds quantity to an existing entry for the same product or
// appends a new one.
func mergeEntry(items []models.CartEntry, entry models.CartEntry) []models.CartEntry {
	for i := range items {
		if items[i].ProductID == entry.ProductID {
			items[i].Quantity += entry.Quantity
			items[i].AddedAt = entry.AddedAt
			return items
		}
	}
	return append(items, entry)
}

// InMemoryCartRepository keeps carts in a map
type InMemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string][]models.CartEntry
}

func NewInMemoryCartRepository() *InMemoryCartRepository {
	return &InMemoryCartRepository{carts: make(map[string][]models.CartEntry)}
}

func (r *InMemoryCartRepository) Read(ctx context.Context, userID string) ([]models.CartEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.CartEntry(nil), r.carts[userID]...), nil
}

func (r *InMemoryCartRepository) Add(ctx context.Context, userID string, entry models.CartEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}
	r.carts[userID] = mergeEntry(r.carts[userID], entry)
	return nil
}

func (r *InMemoryCartRepository) Clear(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}

// RedisCartRepository stores each cart as one JSON document under cart:<user>
type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{client: client, ttl: ttl}
}

func (r *RedisCartRepository) Read(ctx context.Context, userID string) ([]models.CartEntry, error) {
	cart, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cart.Items, nil
}

// Add is a read-modify-write guarded by WATCH so concurrent adds to the same
// cart retry instead of overwriting each other.
func (r *RedisCartRepository) Add(ctx context.Context, userID string, entry models.CartEntry) error {
	key := cartKey(userID)
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}

	txf := func(tx *redis.Tx) error {
		cart, err := decodeCart(tx.Get(ctx, key), userID)
		if err != nil {
			return err
		}
		cart.Items = mergeEntry(cart.Items, entry)
		cart.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(cart)
		if err != nil {
			return fmt.Errorf("marshal cart failed: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < 3; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis add item failed: %w", err)
		}
		return nil
	}
	return fmt.Errorf("redis add item failed: %w", redis.TxFailedErr)
}

func (r *RedisCartRepository) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCartRepository) load(ctx context.Context, userID string) (*models.Cart, error) {
	return decodeCart(r.client.Get(ctx, cartKey(userID)), userID)
}

// decodeCart treats a missing key as an empty cart.
func decodeCart(cmd *redis.StringCmd, userID string) (*models.Cart, error) {
	data, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return &models.Cart{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}
