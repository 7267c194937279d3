package repository

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// idempotencyFilter answers "definitely new" for most keys without touching
// storage. A positive answer only means the store must be consulted.
type idempotencyFilter struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
}

func newIdempotencyFilter(capacity int) *idempotencyFilter {
	if capacity <= 0 {
		capacity = 1
	}
	return &idempotencyFilter{filter: bloom.NewWithEstimates(uint(capacity), 0.001)}
}

func (f *idempotencyFilter) maybeSeen(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter.TestString(key)
}

func (f *idempotencyFilter) add(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.AddString(key)
}
