package pthreadpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobQueueFIFO(t *testing.T) {
	q := newJobQueue()
	for i := 0; i < 3; i++ {
		require.True(t, q.push(job{id: i}))
	}
	assert.Equal(t, 3, q.len())

	for i := 0; i < 3; i++ {
		j, ok := q.pop()
		require.True(t, ok)
		assert.Equal(t, i, j.id)
	}
	_, ok := q.pop()
	assert.False(t, ok)
}

func TestJobQueueGrowsAcrossWrap(t *testing.T) {
	q := newJobQueue()
	for i := 0; i < 4; i++ {
		require.True(t, q.push(job{id: i}))
	}
	// Pop two so the ring's head sits mid-buffer, then push enough to
	// force a grow that has to wrap the copy around the old head.
	_, _ = q.pop()
	_, _ = q.pop()
	for i := 4; i < 10; i++ {
		require.True(t, q.push(job{id: i}))
	}
	assert.Equal(t, 8, q.len())

	for i := 2; i < 10; i++ {
		j, ok := q.pop()
		require.True(t, ok)
		assert.Equal(t, i, j.id)
	}
}

func TestJobQueueUndoPush(t *testing.T) {
	q := newJobQueue()
	require.True(t, q.push(job{id: 1}))
	require.True(t, q.push(job{id: 2}))
	q.undoPush()
	assert.Equal(t, 1, q.len())
	j, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, 1, j.id)
}

func TestJobQueueCancelRemovesMatchingAndCompacts(t *testing.T) {
	q := newJobQueue()
	fn := func(payload any) {}
	other := func(payload any) {}

	require.True(t, q.push(job{id: 1, fn: fn, payload: "a"}))
	require.True(t, q.push(job{id: 2, fn: fn, payload: "a"}))
	require.True(t, q.push(job{id: 3, fn: other, payload: "a"}))
	require.True(t, q.push(job{id: 4, fn: fn, payload: "a"}))

	removed := q.cancel(2, fn, "a")
	assert.Equal(t, 1, removed)
	assert.Equal(t, 3, q.len())

	var ids []int
	for {
		j, ok := q.pop()
		if !ok {
			break
		}
		ids = append(ids, j.id)
	}
	assert.Equal(t, []int{1, 3, 4}, ids)
}

func TestJobQueueCancelDoesNotMatchDifferentPayload(t *testing.T) {
	q := newJobQueue()
	fn := func(payload any) {}
	require.True(t, q.push(job{id: 1, fn: fn, payload: "a"}))

	removed := q.cancel(1, fn, "b")
	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, q.len())
}
