package messenger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	items := make([]*QueuedMessage, 5)
	for i := range items {
		items[i] = &QueuedMessage{}
	}

	t.Run("容量与顺序", func(t *testing.T) {
		q := newQueue(3)
		assert.Nil(t, q.peek())
		assert.Nil(t, q.pop())

		require.True(t, q.push(items[0]))
		require.True(t, q.push(items[1]))
		require.True(t, q.push(items[2]))
		assert.True(t, q.full())
		assert.False(t, q.push(items[3]))
		assert.Equal(t, 3, q.len())

		assert.Same(t, items[0], q.peek())
		assert.Equal(t, 3, q.len())
		assert.Same(t, items[0], q.pop())
		assert.Same(t, items[1], q.peek())
	})

	t.Run("环绕", func(t *testing.T) {
		q := newQueue(2)
		for i := 0; i < 5; i++ {
			require.True(t, q.push(items[i]))
			assert.Same(t, items[i], q.pop())
		}
		assert.Equal(t, 0, q.len())
	})

	t.Run("popIf 只弹出队首", func(t *testing.T) {
		q := newQueue(2)
		q.push(items[0])
		q.push(items[1])
		assert.False(t, q.popIf(items[1]))
		assert.True(t, q.popIf(items[0]))
		assert.Equal(t, 1, q.len())
	})

	t.Run("drain", func(t *testing.T) {
		q := newQueue(4)
		q.push(items[0])
		q.push(items[1])
		got := q.drain()
		assert.Equal(t, []*QueuedMessage{items[0], items[1]}, got)
		assert.Equal(t, 0, q.len())
		assert.Equal(t, 4, q.capacity())
	})

	t.Run("非正容量", func(t *testing.T) {
		assert.Equal(t, 1, newQueue(0).capacity())
	})
}
