package list

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/fagongzi/fixalloc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestList(t *testing.T, n int) *List[int] {
	l, err := NewWithCapacity[int](n * int(unsafe.Sizeof(node[int]{})))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, l.Close()) })
	return l
}

func TestPushAndPop(t *testing.T) {
	l := newTestList(t, 4)
	assert.Equal(t, 4, l.Cap())

	assert.NoError(t, l.PushBack(2))
	assert.NoError(t, l.PushBack(3))
	assert.NoError(t, l.PushFront(1))
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []int{1, 2, 3}, l.Values())

	v, ok := l.Front()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = l.Back()
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	v, ok = l.PopFront()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = l.PopBack()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	v, ok = l.PopBack()
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = l.PopFront()
	assert.False(t, ok)
	_, ok = l.PopBack()
	assert.False(t, ok)
	_, ok = l.Front()
	assert.False(t, ok)
	_, ok = l.Back()
	assert.False(t, ok)
	assert.Equal(t, 0, l.Len())
}

func TestPushOnFullList(t *testing.T) {
	l := newTestList(t, 2)
	assert.NoError(t, l.PushBack(1))
	assert.NoError(t, l.PushBack(2))

	assert.True(t, errors.Is(l.PushBack(3), fixalloc.ErrExhausted))
	assert.True(t, errors.Is(l.PushFront(0), fixalloc.ErrExhausted))
	assert.Equal(t, []int{1, 2}, l.Values())

	l.PopFront()
	assert.NoError(t, l.PushBack(3))
	assert.Equal(t, []int{2, 3}, l.Values())
}

func TestNodesAreReused(t *testing.T) {
	l := newTestList(t, 3)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.PushBack(i))
		if l.Len() == 3 {
			l.PopFront()
		}
	}
	assert.Equal(t, []int{98, 99}, l.Values())

	s := l.Stats()
	assert.Equal(t, 3, s.Slots)
	assert.Equal(t, 2, s.InUse)
	assert.Equal(t, uint64(100), s.Allocs)
	assert.Equal(t, uint64(98), s.Frees)
}

func TestAtSetAndRemoveAt(t *testing.T) {
	l := newTestList(t, 8)
	for i := 0; i < 6; i++ {
		require.NoError(t, l.PushBack(i*10))
	}

	for i := 0; i < 6; i++ {
		assert.Equal(t, i*10, l.At(i))
	}
	l.Set(4, 41)
	assert.Equal(t, 41, l.At(4))

	assert.Equal(t, 20, l.RemoveAt(2))
	assert.Equal(t, 0, l.RemoveAt(0))
	assert.Equal(t, 50, l.RemoveAt(3))
	assert.Equal(t, []int{10, 30, 41}, l.Values())

	assert.Panics(t, func() { l.At(3) })
	assert.Panics(t, func() { l.At(-1) })
	assert.Panics(t, func() { l.RemoveAt(3) })
}

func TestRange(t *testing.T) {
	l := newTestList(t, 4)
	for i := 1; i <= 4; i++ {
		require.NoError(t, l.PushBack(i))
	}

	sum := 0
	l.Range(func(i int, v int) bool {
		sum += v
		return i < 1
	})
	assert.Equal(t, 3, sum)
}

func TestClear(t *testing.T) {
	l := newTestList(t, 4)
	for i := 0; i < 4; i++ {
		require.NoError(t, l.PushBack(i))
	}
	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Values())
	assert.Equal(t, 0, l.Stats().InUse)

	for i := 0; i < 4; i++ {
		assert.NoError(t, l.PushFront(i))
	}
	assert.Equal(t, []int{3, 2, 1, 0}, l.Values())
}

func TestNewRebindsAllocator(t *testing.T) {
	budget := fixalloc.NewMemoryBudget(0)
	alloc, err := fixalloc.New[int](256, fixalloc.WithMemoryAcquirer(budget))
	require.NoError(t, err)
	defer alloc.Close()

	l, err := New(alloc)
	require.NoError(t, err)
	assert.Equal(t, int64(512), budget.Used())
	assert.Equal(t, 256/int(unsafe.Sizeof(node[int]{})), l.Cap())

	assert.NoError(t, l.PushBack(1))
	assert.Equal(t, 0, alloc.Stats().InUse)

	assert.NoError(t, l.Close())
	assert.Equal(t, int64(256), budget.Used())

	assert.NoError(t, alloc.Close())
	_, err = New(alloc)
	assert.True(t, errors.Is(err, fixalloc.ErrMisuse))
}

func TestUseAfterClose(t *testing.T) {
	l, err := NewWithCapacity[string](1024)
	require.NoError(t, err)
	assert.NoError(t, l.PushBack("a"))
	assert.NoError(t, l.Close())

	assert.Equal(t, 0, l.Len())
	assert.True(t, errors.Is(l.PushBack("b"), fixalloc.ErrMisuse))
}
