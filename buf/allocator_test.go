package buf

import (
	"errors"
	"testing"

	"github.com/fagongzi/fixalloc"
	"github.com/fagongzi/util/hack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHeapAllocate(t *testing.T) {
	allocator := NewHeapAllocator()
	data, err := allocator.Alloc(10)
	assert.NoError(t, err)
	assert.Equal(t, 10, len(data))
	assert.NoError(t, allocator.Free(data))

	_, err = allocator.Alloc(-1)
	assert.True(t, errors.Is(err, fixalloc.ErrMisuse))
}

func TestFallbackAllocator(t *testing.T) {
	primary, err := NewBlockAllocator(8, 1, WithHeapRegion())
	require.NoError(t, err)
	defer primary.Close()

	allocator := NewFallbackAllocator(primary, NewHeapAllocator(), zap.NewNop())
	a, err := allocator.Alloc(5)
	require.NoError(t, err)
	assert.True(t, primary.Owns(a))
	copy(a, hack.StringToSlice("hello"))

	b, err := allocator.Alloc(5)
	require.NoError(t, err)
	assert.False(t, primary.Owns(b))
	copy(b, hack.StringToSlice("world"))

	assert.Equal(t, "hello", hack.SliceToString(a))
	assert.Equal(t, "world", hack.SliceToString(b))

	assert.NoError(t, allocator.Free(b))
	assert.Equal(t, 1, primary.InUse())
	assert.NoError(t, allocator.Free(a))
	assert.Equal(t, 0, primary.InUse())

	_, err = allocator.Alloc(9)
	assert.True(t, errors.Is(err, fixalloc.ErrMisuse))
}
