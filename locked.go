package fixalloc

import "sync"

// Locked serializes every call on a Pool with a mutex, so that several
// goroutines can share one pool.
type Locked[T any] struct {
	mu   sync.Mutex
	pool *Pool[T]
}

// NewLocked wraps pool. The pool must not be used directly afterwards.
func NewLocked[T any](pool *Pool[T]) *Locked[T] {
	return &Locked[T]{pool: pool}
}

// Allocate see Pool.Allocate
func (l *Locked[T]) Allocate(count int) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Allocate(count)
}

// MustAllocate see Pool.MustAllocate
func (l *Locked[T]) MustAllocate() Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.MustAllocate()
}

// Deallocate see Pool.Deallocate
func (l *Locked[T]) Deallocate(h Handle, count int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Deallocate(h, count)
}

// Do calls fn with the pool while holding the lock, used to read or write slots.
func (l *Locked[T]) Do(fn func(*Pool[T])) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.pool)
}

// Stats see Pool.Stats
func (l *Locked[T]) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Stats()
}

// Close see Pool.Close
func (l *Locked[T]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Close()
}
