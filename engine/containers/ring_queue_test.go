package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueue(t *testing.T) {
	assert := assert.New(t)

	q := NewRingQueue[int](2)
	assert.True(q.IsEmpty())
	_, err := q.Dequeue()
	assert.ErrorIs(err, ErrQueueEmpty)
	_, err = q.Peek()
	assert.ErrorIs(err, ErrQueueEmpty)

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	assert.True(q.IsFull())
	assert.ErrorIs(q.Enqueue(3), ErrQueueFull)

	v, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(1, v)

	v, _ = q.Dequeue()
	assert.Equal(1, v)
	// wraps around
	require.NoError(t, q.Enqueue(3))
	v, _ = q.Dequeue()
	assert.Equal(2, v)
	v, _ = q.Dequeue()
	assert.Equal(3, v)
	assert.Zero(q.Len())
}
