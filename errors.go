package fixalloc

import "errors"

var (
	// ErrMisuse indicates the caller broke the allocator contract: a count other
	// than 1, an invalid capacity or a call on a released pool. It is a
	// programming error and should never be retried.
	ErrMisuse = errors.New("fixalloc: misuse")

	// ErrExhausted indicates that neither fresh pool memory nor a freed slot is
	// available, or that the initial reservation was refused.
	ErrExhausted = errors.New("fixalloc: pool exhausted")
)
