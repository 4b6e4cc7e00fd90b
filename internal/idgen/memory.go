package idgen

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/filemill/internal/common"
)

// MemoryRepository is an in-memory counter store for tests and the
// "memory" backend.
type MemoryRepository struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{counters: map[string]int64{CounterName: 1}}
}

func (r *MemoryRepository) Get(ctx context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.counters[name]
	if !ok {
		return 0, fmt.Errorf("%w: counter %q", common.ErrContainerMissing, name)
	}
	return value, nil
}

func (r *MemoryRepository) CompareAndSet(ctx context.Context, name string, old, new int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counters[name] != old {
		return false, nil
	}
	r.counters[name] = new
	return true, nil
}
