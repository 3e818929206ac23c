// Package list implements a doubly linked list whose nodes live in a fixed
// capacity fixalloc.Pool. Every push allocates exactly one node and every pop
// or removal releases exactly one node, so the list holds at most as many
// values as the pool has slots.
package list

import (
	"fmt"
	"unsafe"

	"github.com/fagongzi/fixalloc"
)

type node[T any] struct {
	value      T
	prev, next fixalloc.Handle
}

// List is a sequence of T backed by a node pool. It is not safe for concurrent
// use.
type List[T any] struct {
	nodes      *fixalloc.Pool[node[T]]
	head, tail fixalloc.Handle
	len        int
}

// New creates a list whose node pool is alloc rebound to the node type, with
// the same byte capacity and options. alloc itself is left untouched and still
// belongs to the caller.
func New[T any](alloc *fixalloc.Pool[T]) (*List[T], error) {
	nodes, err := fixalloc.Rebind[node[T]](alloc)
	if err != nil {
		return nil, err
	}
	return &List[T]{nodes: nodes}, nil
}

// NewWithCapacity creates a list with a node pool of capacity bytes.
func NewWithCapacity[T any](capacity int, opts ...fixalloc.Option) (*List[T], error) {
	nodes, err := fixalloc.New[node[T]](capacity, opts...)
	if err != nil {
		return nil, err
	}
	return &List[T]{nodes: nodes}, nil
}

// NodeSize returns the bytes one value of T takes in the node pool, the
// capacity for n values is n*NodeSize[T]().
func NodeSize[T any]() int {
	var n node[T]
	return int(unsafe.Sizeof(n))
}

// Len returns the number of values.
func (l *List[T]) Len() int {
	return l.len
}

// Cap returns the max number of values the list can hold.
func (l *List[T]) Cap() int {
	return l.nodes.Len()
}

// PushBack appends v. It returns an error wrapping fixalloc.ErrExhausted if the
// node pool is full, the list is unchanged then.
func (l *List[T]) PushBack(v T) error {
	h, err := l.nodes.Allocate(1)
	if err != nil {
		return err
	}

	n := l.nodes.At(h)
	n.value = v
	n.prev = l.tail
	n.next = fixalloc.Nil
	if l.tail.IsNil() {
		l.head = h
	} else {
		l.nodes.At(l.tail).next = h
	}
	l.tail = h
	l.len++
	return nil
}

// PushFront prepends v, see PushBack.
func (l *List[T]) PushFront(v T) error {
	h, err := l.nodes.Allocate(1)
	if err != nil {
		return err
	}

	n := l.nodes.At(h)
	n.value = v
	n.prev = fixalloc.Nil
	n.next = l.head
	if l.head.IsNil() {
		l.tail = h
	} else {
		l.nodes.At(l.head).prev = h
	}
	l.head = h
	l.len++
	return nil
}

// Front returns the first value, false if the list is empty.
func (l *List[T]) Front() (T, bool) {
	if l.head.IsNil() {
		var zero T
		return zero, false
	}
	return l.nodes.At(l.head).value, true
}

// Back returns the last value, false if the list is empty.
func (l *List[T]) Back() (T, bool) {
	if l.tail.IsNil() {
		var zero T
		return zero, false
	}
	return l.nodes.At(l.tail).value, true
}

// PopFront removes and returns the first value, false if the list is empty.
func (l *List[T]) PopFront() (T, bool) {
	if l.head.IsNil() {
		var zero T
		return zero, false
	}
	return l.remove(l.head), true
}

// PopBack removes and returns the last value, false if the list is empty.
func (l *List[T]) PopBack() (T, bool) {
	if l.tail.IsNil() {
		var zero T
		return zero, false
	}
	return l.remove(l.tail), true
}

// At returns the value at index i, panic if i is out of range.
func (l *List[T]) At(i int) T {
	return l.nodes.At(l.find(i)).value
}

// Set replaces the value at index i, panic if i is out of range.
func (l *List[T]) Set(i int, v T) {
	l.nodes.At(l.find(i)).value = v
}

// RemoveAt removes and returns the value at index i, panic if i is out of range.
func (l *List[T]) RemoveAt(i int) T {
	return l.remove(l.find(i))
}

// Range calls fn for each value from front to back until fn returns false.
func (l *List[T]) Range(fn func(i int, v T) bool) {
	i := 0
	for h := l.head; !h.IsNil(); i++ {
		n := l.nodes.At(h)
		if !fn(i, n.value) {
			return
		}
		h = n.next
	}
}

// Values returns a copy of all values from front to back.
func (l *List[T]) Values() []T {
	values := make([]T, 0, l.len)
	l.Range(func(_ int, v T) bool {
		values = append(values, v)
		return true
	})
	return values
}

// Clear removes all values, every node goes back to the pool.
func (l *List[T]) Clear() {
	for !l.head.IsNil() {
		l.remove(l.head)
	}
}

// Stats returns the statistics of the node pool.
func (l *List[T]) Stats() fixalloc.Stats {
	return l.nodes.Stats()
}

// Close releases the node pool. Values still in the list are dropped.
func (l *List[T]) Close() error {
	l.head, l.tail, l.len = fixalloc.Nil, fixalloc.Nil, 0
	return l.nodes.Close()
}

func (l *List[T]) find(i int) fixalloc.Handle {
	if i < 0 || i >= l.len {
		panic(fmt.Sprintf("invalid index %d, len %d", i, l.len))
	}

	if i < l.len/2 {
		h := l.head
		for ; i > 0; i-- {
			h = l.nodes.At(h).next
		}
		return h
	}

	h := l.tail
	for j := l.len - 1; j > i; j-- {
		h = l.nodes.At(h).prev
	}
	return h
}

func (l *List[T]) remove(h fixalloc.Handle) T {
	n := l.nodes.At(h)
	v := n.value
	if n.prev.IsNil() {
		l.head = n.next
	} else {
		l.nodes.At(n.prev).next = n.next
	}
	if n.next.IsNil() {
		l.tail = n.prev
	} else {
		l.nodes.At(n.next).prev = n.prev
	}
	l.len--

	if err := l.nodes.Deallocate(h, 1); err != nil {
		panic(err)
	}
	return v
}
