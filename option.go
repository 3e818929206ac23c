package fixalloc

import "go.uber.org/zap"

// Option pool option
type Option func(*options)

type options struct {
	logger   *zap.Logger
	acquirer MemoryAcquirer
}

// WithLogger set the logger of the pool, the package logger set by UseLogger is
// used if not set.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithMemoryAcquirer set the memory acquirer. The pool asks the acquirer for its
// whole capacity once at construction and gives it back once on Close.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(opts *options) {
		opts.acquirer = acquirer
	}
}

func (opts *options) adjust() {
	opts.logger = adjustLogger(opts.logger)
	if opts.acquirer == nil {
		opts.acquirer = unlimited{}
	}
}
