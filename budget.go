package fixalloc

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// MemoryAcquirer accounts for the raw memory reserved by pools.
type MemoryAcquirer interface {
	// AcquireMemory reserves amount bytes, it must not block. A returned error
	// fails the pool construction.
	AcquireMemory(amount int64) error
	// ReleaseMemory gives back amount bytes previously acquired.
	ReleaseMemory(amount int64)
}

type unlimited struct{}

func (unlimited) AcquireMemory(int64) error { return nil }
func (unlimited) ReleaseMemory(int64)       {}

// MemoryBudget is a MemoryAcquirer with an optional hard limit shared by every
// pool configured with it. It is safe for concurrent use.
type MemoryBudget struct {
	limit int64
	sem   *semaphore.Weighted // nil if unlimited
	used  atomic.Int64
}

// NewMemoryBudget creates a budget of limit bytes. If limit <= 0 the budget only
// tracks usage.
func NewMemoryBudget(limit int64) *MemoryBudget {
	b := &MemoryBudget{limit: limit}
	if limit > 0 {
		b.sem = semaphore.NewWeighted(limit)
	}
	return b
}

// AcquireMemory implements MemoryAcquirer. Exceeding the limit returns an error
// wrapping ErrExhausted.
func (b *MemoryBudget) AcquireMemory(amount int64) error {
	if amount <= 0 {
		return nil
	}

	if b.sem != nil && !b.sem.TryAcquire(amount) {
		return fmt.Errorf("acquire %d bytes, %d of %d bytes in use: %w",
			amount, b.used.Load(), b.limit, ErrExhausted)
	}
	b.used.Add(amount)
	return nil
}

// ReleaseMemory implements MemoryAcquirer.
func (b *MemoryBudget) ReleaseMemory(amount int64) {
	if amount <= 0 {
		return
	}

	if b.sem != nil {
		b.sem.Release(amount)
	}
	b.used.Add(-amount)
}

// Used returns the bytes currently acquired.
func (b *MemoryBudget) Used() int64 {
	return b.used.Load()
}

// Limit returns the configured limit, 0 means unlimited.
func (b *MemoryBudget) Limit() int64 {
	if b.limit < 0 {
		return 0
	}
	return b.limit
}
