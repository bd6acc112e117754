package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory(t *testing.T) {
	t.Run("push past capacity evicts oldest", func(t *testing.T) {
		h := NewHistory[int](3)
		for i := 1; i <= 5; i++ {
			h.Push(i)
		}
		assert.Equal(t, 3, h.Len())
		assert.Equal(t, []int{5, 4, 3}, h.Items())

		top, ok := h.Pop()
		require.True(t, ok)
		assert.Equal(t, 5, top)
		assert.Equal(t, []int{4, 3}, h.Items())
	})

	t.Run("pop is LIFO and empty pop is a no-op", func(t *testing.T) {
		h := NewHistory[string](2)
		h.Push("a")
		h.Push("b")

		v, ok := h.Pop()
		require.True(t, ok)
		assert.Equal(t, "b", v)
		v, ok = h.Pop()
		require.True(t, ok)
		assert.Equal(t, "a", v)

		_, ok = h.Pop()
		assert.False(t, ok)
		assert.Equal(t, 0, h.Len())
	})

	t.Run("shrinking capacity evicts oldest immediately", func(t *testing.T) {
		h := NewHistory[int](10)
		for i := 1; i <= 6; i++ {
			h.Push(i)
		}
		evicted, err := h.SetCapacity(2)
		require.NoError(t, err)
		assert.Equal(t, 4, evicted)
		assert.Equal(t, []int{6, 5}, h.Items())

		evicted, err = h.SetCapacity(5)
		require.NoError(t, err)
		assert.Zero(t, evicted)
		assert.Equal(t, 5, h.Capacity())
	})

	t.Run("invalid capacity", func(t *testing.T) {
		h := NewHistory[int](0)
		assert.Equal(t, DefaultCapacity, h.Capacity())

		_, err := h.SetCapacity(0)
		assert.Error(t, err)
		assert.Equal(t, DefaultCapacity, h.Capacity())
	})

	t.Run("clear", func(t *testing.T) {
		h := NewHistory[int](4)
		h.Push(1)
		h.Push(2)
		h.Clear()
		assert.Zero(t, h.Len())
		assert.Empty(t, h.Items())
		_, ok := h.Pop()
		assert.False(t, ok)
	})
}
