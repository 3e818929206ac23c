package buf

import "go.uber.org/zap"

// Option block allocator option
type Option func(*BlockAllocator)

// WithLogger set the logger of the block allocator
func WithLogger(logger *zap.Logger) Option {
	return func(ba *BlockAllocator) {
		ba.options.logger = logger
	}
}

// WithHeapRegion reserve the region from the Go heap instead of an anonymous
// memory mapping.
func WithHeapRegion() Option {
	return func(ba *BlockAllocator) {
		ba.options.heap = true
	}
}
