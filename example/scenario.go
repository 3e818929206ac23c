package example

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/fagongzi/fixalloc"
	"go.uber.org/zap"
)

// RunScenario allocates 3 ints from a pool sized for 3 ints, fails the fourth
// allocation, frees the second one and allocates again. It returns the byte
// offsets of the 5 handed out slots, -1 for the failed one.
func RunScenario(logger *zap.Logger) ([]int, error) {
	p, err := fixalloc.New[int](3*int(unsafe.Sizeof(int(0))), fixalloc.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer p.Close()

	var offsets []int
	var handles []fixalloc.Handle
	for i := 0; i < 4; i++ {
		h, err := p.Allocate(1)
		if errors.Is(err, fixalloc.ErrExhausted) {
			offsets = append(offsets, -1)
			continue
		}
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
		offsets = append(offsets, int(p.Offset(h)))
	}

	if err := p.Deallocate(handles[1], 1); err != nil {
		return nil, err
	}
	h, err := p.Allocate(1)
	if err != nil {
		return nil, err
	}
	if h != handles[1] {
		return nil, fmt.Errorf("expect slot %d reused, got %d", handles[1], h)
	}
	return append(offsets, int(p.Offset(h))), nil
}
