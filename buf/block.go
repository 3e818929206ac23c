package buf

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/fagongzi/fixalloc"
	"go.uber.org/zap"
)

var (
	_ OwningAllocator = (*BlockAllocator)(nil)
)

// BlockAllocator hands out fixed size blocks of one region reserved up front.
// The region is an anonymous memory mapping on unix and a Go heap slice
// elsewhere or with WithHeapRegion. Blocks are handed out in address order
// first, then released blocks in the order they were released.
//
// Returned memory is not zeroed. A BlockAllocator is not safe for concurrent
// use.
type BlockAllocator struct {
	blockSize int
	region    []byte
	release   func([]byte) error
	slots     *fixalloc.Slots
	logger    *zap.Logger
	closed    bool

	options struct {
		logger *zap.Logger
		heap   bool
	}
}

// NewBlockAllocator reserves blocks*blockSize bytes. An error wrapping
// fixalloc.ErrExhausted is returned if the region cannot be reserved.
func NewBlockAllocator(blockSize, blocks int, opts ...Option) (*BlockAllocator, error) {
	if blockSize <= 0 || blocks <= 0 || blocks > math.MaxInt/blockSize {
		return nil, fmt.Errorf("invalid %d blocks of %d bytes: %w",
			blocks, blockSize, fixalloc.ErrMisuse)
	}

	ba := &BlockAllocator{blockSize: blockSize}
	for _, opt := range opts {
		opt(ba)
	}
	ba.adjust()

	size := blockSize * blocks
	reserve := mapRegion
	if ba.options.heap {
		reserve = heapRegion
	}
	region, release, err := reserve(size)
	if err != nil {
		return nil, fmt.Errorf("reserve %d bytes: %w: %w", size, fixalloc.ErrExhausted, err)
	}

	ba.region = region
	ba.release = release
	ba.slots = fixalloc.NewSlots(blocks)
	ba.logger.Debug("block allocator created",
		zap.Int("block-size", blockSize),
		zap.Int("blocks", blocks),
		zap.Bool("heap", ba.options.heap))
	return ba, nil
}

func (ba *BlockAllocator) adjust() {
	if ba.options.logger == nil {
		ba.options.logger = zap.NewNop()
	}
	ba.logger = ba.options.logger.Named("block-allocator")
}

// Alloc returns a block of len size and cap BlockSize(). size must be in
// (0, BlockSize()], otherwise fixalloc.ErrMisuse is returned.
func (ba *BlockAllocator) Alloc(size int) ([]byte, error) {
	if ba.closed {
		return nil, fmt.Errorf("alloc on closed block allocator: %w", fixalloc.ErrMisuse)
	}
	if size <= 0 || size > ba.blockSize {
		return nil, fmt.Errorf("alloc %d bytes, block size %d: %w",
			size, ba.blockSize, fixalloc.ErrMisuse)
	}

	slot, err := ba.slots.Take()
	if err != nil {
		if ce := ba.logger.Check(zap.DebugLevel, "block allocator exhausted"); ce != nil {
			ce.Write(zap.Int("blocks", ba.slots.Len()))
		}
		return nil, err
	}

	offset := slot * ba.blockSize
	return ba.region[offset : offset+size : offset+ba.blockSize], nil
}

// Free releases the block of data. data must start at a block returned by
// Alloc, otherwise fixalloc.ErrMisuse is returned. Freeing nil is a no-op,
// freeing a block twice corrupts the allocator.
func (ba *BlockAllocator) Free(data []byte) error {
	if ba.closed {
		return fmt.Errorf("free on closed block allocator: %w", fixalloc.ErrMisuse)
	}
	if data == nil {
		return nil
	}

	slot, ok := ba.slot(data)
	if !ok {
		return fmt.Errorf("free %d bytes not allocated by this allocator: %w",
			len(data), fixalloc.ErrMisuse)
	}
	ba.slots.Put(slot)
	return nil
}

// Owns implements OwningAllocator.
func (ba *BlockAllocator) Owns(data []byte) bool {
	if ba.closed {
		return false
	}
	_, ok := ba.slot(data)
	return ok
}

// BlockSize returns the size of a block.
func (ba *BlockAllocator) BlockSize() int {
	return ba.blockSize
}

// Blocks returns the number of blocks in the region.
func (ba *BlockAllocator) Blocks() int {
	if ba.closed {
		return 0
	}
	return ba.slots.Len()
}

// InUse returns the number of allocated blocks.
func (ba *BlockAllocator) InUse() int {
	if ba.closed {
		return 0
	}
	return ba.slots.InUse()
}

// Close releases the region. Blocks still allocated must not be used anymore.
// Closing twice is a no-op.
func (ba *BlockAllocator) Close() error {
	if ba.closed {
		return nil
	}

	ba.closed = true
	region := ba.region
	ba.region = nil
	ba.logger.Debug("block allocator closed",
		zap.Int("in-use", ba.slots.InUse()))
	return ba.release(region)
}

func (ba *BlockAllocator) slot(data []byte) (int, bool) {
	if cap(data) == 0 || len(ba.region) == 0 {
		return 0, false
	}

	base := uintptr(unsafe.Pointer(unsafe.SliceData(ba.region)))
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(data)))
	if ptr < base || ptr >= base+uintptr(len(ba.region)) {
		return 0, false
	}

	offset := int(ptr - base)
	if offset%ba.blockSize != 0 {
		return 0, false
	}
	return offset / ba.blockSize, true
}

func heapRegion(size int) ([]byte, func([]byte) error, error) {
	return make([]byte, size), func([]byte) error { return nil }, nil
}

func errInvalidSize(size int) error {
	return fmt.Errorf("invalid size %d: %w", size, fixalloc.ErrMisuse)
}
