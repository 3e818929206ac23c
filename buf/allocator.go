package buf

import (
	"errors"

	"github.com/fagongzi/fixalloc"
	"go.uber.org/zap"
)

// Allocator memory allocation for byte buffers
type Allocator interface {
	// Alloc allocate a []byte with len(data) == size. The returned []byte cannot
	// be expanded in use.
	Alloc(size int) ([]byte, error)
	// Free free the allocated memory, nil is ignored
	Free([]byte) error
}

// OwningAllocator is an Allocator that can tell the []byte it allocated.
type OwningAllocator interface {
	Allocator
	// Owns returns true if data was allocated by this allocator
	Owns(data []byte) bool
}

type heapAllocator struct {
}

// NewHeapAllocator returns an Allocator backed by the Go heap, Free does nothing
// and the memory is left to the GC.
func NewHeapAllocator() Allocator {
	return &heapAllocator{}
}

func (ha *heapAllocator) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, errInvalidSize(size)
	}
	return make([]byte, size), nil
}

func (ha *heapAllocator) Free([]byte) error {
	return nil
}

type fallbackAllocator struct {
	primary  OwningAllocator
	fallback Allocator
	logger   *zap.Logger
}

// NewFallbackAllocator returns an Allocator serving from primary and from
// fallback once primary is exhausted. Misuse errors of primary are returned as
// is.
func NewFallbackAllocator(primary OwningAllocator, fallback Allocator, logger *zap.Logger) Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fallbackAllocator{
		primary:  primary,
		fallback: fallback,
		logger:   logger.Named("fallback-allocator"),
	}
}

func (fa *fallbackAllocator) Alloc(size int) ([]byte, error) {
	data, err := fa.primary.Alloc(size)
	if errors.Is(err, fixalloc.ErrExhausted) {
		if ce := fa.logger.Check(zap.DebugLevel, "primary exhausted, use fallback"); ce != nil {
			ce.Write(zap.Int("size", size))
		}
		return fa.fallback.Alloc(size)
	}
	return data, err
}

func (fa *fallbackAllocator) Free(data []byte) error {
	if fa.primary.Owns(data) {
		return fa.primary.Free(data)
	}
	return fa.fallback.Free(data)
}
