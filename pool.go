package fixalloc

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"go.uber.org/zap"
)

// Handle refers to one slot of a Pool. The zero value is the null handle.
type Handle uint32

// Nil is the null handle, deallocating it is a no-op.
const Nil Handle = 0

// maxSlots keeps slot+1 within both Handle and a 32-bit int.
const maxSlots = math.MaxInt32 - 1

// IsNil returns true if h is the null handle.
func (h Handle) IsNil() bool {
	return h == Nil
}

// noCopy makes go vet's copylocks check report copies of a Pool.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Stats pool statistics
type Stats struct {
	// Capacity configured capacity in bytes
	Capacity int
	// ElemSize size of one slot in bytes
	ElemSize uintptr
	// Slots number of slots in the buffer
	Slots int
	// Tail index of the next never used slot
	Tail int
	// Free number of released slots waiting for reuse
	Free int
	// InUse number of allocated slots
	InUse int
	// Allocs successful Allocate calls
	Allocs uint64
	// Frees Deallocate calls that released a slot
	Frees uint64
	// Exhausted Allocate calls that failed with ErrExhausted
	Exhausted uint64
}

// Pool is a fixed capacity allocator of single T values. All slots live in one
// buffer reserved by New, released slots are reused in FIFO order once the
// buffer has been bumped to its end. The buffer never grows or moves, so a
// pointer returned by At stays valid until the slot is deallocated or the pool
// is closed.
//
// A Pool must not be copied, use Transfer to hand the buffer over. A Pool is
// not safe for concurrent use, see Locked.
type Pool[T any] struct {
	_ noCopy

	capacity int
	elemSize uintptr
	buf      []T
	slots    *Slots
	opts     options
	logger   *zap.Logger
	released bool

	stats struct {
		allocs, frees, exhausted uint64
	}
}

// New reserves capacity bytes and returns a pool of capacity/sizeof(T) slots.
// An error wrapping ErrExhausted is returned if the memory acquirer refuses the
// reservation.
func New[T any](capacity int, opts ...Option) (*Pool[T], error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	o.adjust()
	return newPool[T](capacity, o)
}

func newPool[T any](capacity int, opts options) (*Pool[T], error) {
	var zero T
	elemSize := unsafe.Sizeof(zero)
	if elemSize == 0 {
		return nil, fmt.Errorf("zero sized element type %T: %w", zero, ErrMisuse)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid capacity %d: %w", capacity, ErrMisuse)
	}
	n := capacity / int(elemSize)
	if uint64(n) > maxSlots {
		return nil, fmt.Errorf("capacity %d holds %d slots, max %d: %w",
			capacity, n, uint64(maxSlots), ErrMisuse)
	}

	if err := opts.acquirer.AcquireMemory(int64(capacity)); err != nil {
		return nil, exhaustedError(capacity, err)
	}

	p := &Pool[T]{
		capacity: capacity,
		elemSize: elemSize,
		buf:      make([]T, n),
		slots:    NewSlots(n),
		opts:     opts,
	}
	p.logger = opts.logger.Named("pool").With(zap.String("type", fmt.Sprintf("%T", zero)))
	p.logger.Debug("pool created",
		zap.Int("capacity", capacity),
		zap.Uintptr("elem-size", elemSize),
		zap.Int("slots", n))
	return p, nil
}

func exhaustedError(capacity int, err error) error {
	if errors.Is(err, ErrExhausted) {
		return fmt.Errorf("reserve %d bytes: %w", capacity, err)
	}
	return fmt.Errorf("reserve %d bytes: %w: %w", capacity, ErrExhausted, err)
}

// Allocate returns the handle of a free slot. count must be 1, anything else
// fails with ErrMisuse. ErrExhausted is returned if the buffer is used up and no
// slot was released. A failed call changes nothing.
//
// The slot is not initialized: a reused slot holds the zero value.
func (p *Pool[T]) Allocate(count int) (Handle, error) {
	if err := p.check("allocate", count); err != nil {
		return Nil, err
	}

	slot, err := p.slots.Take()
	if err != nil {
		p.stats.exhausted++
		if ce := p.logger.Check(zap.DebugLevel, "pool exhausted"); ce != nil {
			ce.Write(zap.Int("slots", p.slots.Len()),
				zap.Uint64("exhausted", p.stats.exhausted))
		}
		return Nil, err
	}
	p.stats.allocs++
	return Handle(slot + 1), nil
}

// MustAllocate is similar to Allocate(1), but panic if error returned
func (p *Pool[T]) MustAllocate() Handle {
	h, err := p.Allocate(1)
	if err != nil {
		panic(err)
	}
	return h
}

// Deallocate releases the slot of h for reuse. count must be 1, anything else
// fails with ErrMisuse. Deallocating Nil is a no-op.
//
// The handle is not checked for double free or for coming from another pool of
// the same size, both corrupt the free list. A handle outside of the buffer
// panics.
func (p *Pool[T]) Deallocate(h Handle, count int) error {
	if err := p.check("deallocate", count); err != nil {
		return err
	}
	if h == Nil {
		return nil
	}

	slot := p.index(h)
	var zero T
	p.buf[slot] = zero
	p.slots.Put(slot)
	p.stats.frees++
	return nil
}

// At returns the slot of h. It panics on Nil or a handle outside of the buffer.
func (p *Pool[T]) At(h Handle) *T {
	return &p.buf[p.index(h)]
}

// Offset returns the byte offset of the slot of h from the start of the buffer.
func (p *Pool[T]) Offset(h Handle) uintptr {
	return uintptr(p.index(h)) * p.elemSize
}

// Transfer moves the buffer and its bookkeeping into a new Pool. The receiver is
// released afterwards: every call on it fails with ErrMisuse and its Close does
// not give any memory back.
func (p *Pool[T]) Transfer() (*Pool[T], error) {
	if p.released {
		return nil, fmt.Errorf("transfer released pool: %w", ErrMisuse)
	}

	q := &Pool[T]{
		capacity: p.capacity,
		elemSize: p.elemSize,
		buf:      p.buf,
		slots:    p.slots,
		opts:     p.opts,
		logger:   p.logger,
	}
	q.stats = p.stats
	p.buf = nil
	p.slots = nil
	p.released = true
	p.logger.Debug("pool transferred")
	return q, nil
}

// Equal returns true only if other is p. Two pools are never interchangeable
// since each owns its own buffer.
func (p *Pool[T]) Equal(other *Pool[T]) bool {
	return p == other
}

// ElemSize returns the size of one slot in bytes.
func (p *Pool[T]) ElemSize() uintptr {
	return p.elemSize
}

// Capacity returns the configured capacity in bytes, 0 once released.
func (p *Pool[T]) Capacity() int {
	if p.released {
		return 0
	}
	return p.capacity
}

// Len returns the number of slots, 0 once released.
func (p *Pool[T]) Len() int {
	return len(p.buf)
}

// Stats returns the pool statistics. A released pool owns no buffer and reports
// only ElemSize, its counters go along with Transfer.
func (p *Pool[T]) Stats() Stats {
	if p.released {
		return Stats{ElemSize: p.elemSize}
	}
	s := Stats{
		Capacity:  p.capacity,
		ElemSize:  p.elemSize,
		Allocs:    p.stats.allocs,
		Frees:     p.stats.frees,
		Exhausted: p.stats.exhausted,
	}
	if p.slots != nil {
		s.Slots = p.slots.Len()
		s.Tail = p.slots.Tail()
		s.Free = p.slots.FreeLen()
		s.InUse = p.slots.InUse()
	}
	return s
}

// Close releases the buffer and gives the reserved capacity back to the memory
// acquirer. Values still allocated are dropped without any cleanup. Closing
// twice is a no-op.
func (p *Pool[T]) Close() error {
	if p.released {
		return nil
	}

	p.released = true
	p.buf = nil
	p.slots = nil
	p.opts.acquirer.ReleaseMemory(int64(p.capacity))
	p.logger.Debug("pool released",
		zap.Uint64("allocs", p.stats.allocs),
		zap.Uint64("frees", p.stats.frees))
	return nil
}

func (p *Pool[T]) check(op string, count int) error {
	if p.released {
		return fmt.Errorf("%s on released pool: %w", op, ErrMisuse)
	}
	if count != 1 {
		return fmt.Errorf("%s %d elements, only 1 is supported: %w", op, count, ErrMisuse)
	}
	return nil
}

func (p *Pool[T]) index(h Handle) int {
	if h == Nil || uint64(h) > uint64(len(p.buf)) {
		panic(fmt.Sprintf("invalid handle %d, slots %d", h, len(p.buf)))
	}
	return int(h) - 1
}

// Rebind returns a new pool for U with the capacity and options of p. The new
// pool owns its own buffer and is not Equal to p.
func Rebind[U, T any](p *Pool[T]) (*Pool[U], error) {
	if p.released {
		return nil, fmt.Errorf("rebind released pool: %w", ErrMisuse)
	}
	return newPool[U](p.capacity, p.opts)
}
