package fixalloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlots(t *testing.T) {
	s := NewSlots(2)
	assert.Equal(t, 2, s.Len())

	v, err := s.Take()
	assert.NoError(t, err)
	assert.Equal(t, 0, v)
	v, err = s.Take()
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, s.Tail())

	_, err = s.Take()
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, 2, s.InUse())

	s.Put(1)
	s.Put(0)
	assert.Equal(t, 2, s.FreeLen())
	assert.Equal(t, 0, s.InUse())

	v, _ = s.Take()
	assert.Equal(t, 1, v)
	v, _ = s.Take()
	assert.Equal(t, 0, v)
	assert.Equal(t, 0, s.FreeLen())
}

func TestEmptySlots(t *testing.T) {
	for _, n := range []int{0, -1} {
		s := NewSlots(n)
		assert.Equal(t, 0, s.Len())
		_, err := s.Take()
		assert.True(t, errors.Is(err, ErrExhausted))
	}
}
