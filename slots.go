package fixalloc

import (
	"github.com/eapache/queue"
)

// Slots is the bookkeeping of a fixed number of equally sized slots: a bump
// cursor over never used slots and a FIFO queue of released ones. It knows
// nothing about the memory behind the slots, Pool and the byte block allocator
// in package buf both build on it.
//
// Slots is not safe for concurrent use.
type Slots struct {
	n    int
	tail int
	free *queue.Queue
}

// NewSlots returns the bookkeeping for n slots, none of them used.
func NewSlots(n int) *Slots {
	if n < 0 {
		n = 0
	}
	return &Slots{n: n, free: queue.New()}
}

// Take returns a slot index. Never used slots are handed out first in
// increasing order, then released slots in the order they were released.
// ErrExhausted is returned if neither is left, and nothing changes.
func (s *Slots) Take() (int, error) {
	if s.tail < s.n {
		slot := s.tail
		s.tail++
		return slot, nil
	}

	if s.free.Length() > 0 {
		return s.free.Remove().(int), nil
	}
	return 0, ErrExhausted
}

// Put releases slot for reuse. The slot is not validated, releasing a slot
// twice or one that was never taken corrupts the bookkeeping.
func (s *Slots) Put(slot int) {
	s.free.Add(slot)
}

// Len returns the number of slots.
func (s *Slots) Len() int {
	return s.n
}

// Tail returns the index of the next never used slot, Len() once all slots have
// been bumped.
func (s *Slots) Tail() int {
	return s.tail
}

// FreeLen returns the number of released slots waiting for reuse.
func (s *Slots) FreeLen() int {
	return s.free.Length()
}

// InUse returns the number of slots taken and not released.
func (s *Slots) InUse() int {
	return s.tail - s.free.Length()
}
