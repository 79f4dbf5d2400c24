package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitro/pvf/internal/pdfkey"
	"github.com/nitro/pvf/internal/queue"
	"github.com/nitro/pvf/internal/task"
)

func rk(page uint32) pdfkey.RenderedPageKey {
	return pdfkey.RenderedPageKey{Doc: "doc", Page: page, ScaleMilli: 1000}
}

func TestIdempotentSubmit(t *testing.T) {
	q := queue.New(16, nil)

	out := q.Submit(task.RenderTask{Key: rk(1), Priority: task.Background(), Generation: 1})
	assert.Equal(t, queue.Admitted, out)

	out = q.Submit(task.RenderTask{Key: rk(1), Priority: task.Background(), Generation: 1})
	assert.Equal(t, queue.DroppedDuplicate, out)
	assert.Equal(t, 1, q.Len())
}

func TestPriorityReplace(t *testing.T) {
	q := queue.New(16, nil)

	q.Submit(task.RenderTask{Key: rk(1), Priority: task.Background(), Generation: 1})
	out := q.Submit(task.RenderTask{Key: rk(1), Priority: task.Critical(), Generation: 1})
	assert.Equal(t, queue.ReplacedOutcome, out)
	assert.Equal(t, 1, q.Len())

	popped, ok := q.PopBest()
	require.True(t, ok)
	assert.True(t, popped.Priority.Equal(task.Critical()))

	// The reverse submission (lower priority after higher) is a no-op.
	q.Submit(task.RenderTask{Key: rk(2), Priority: task.Critical(), Generation: 1})
	out = q.Submit(task.RenderTask{Key: rk(2), Priority: task.Background(), Generation: 1})
	assert.Equal(t, queue.DroppedDuplicate, out)
}

func TestPopBestOrderingAndFIFOTiebreak(t *testing.T) {
	q := queue.New(16, nil)

	q.Submit(task.RenderTask{Key: rk(1), Priority: task.Background(), Generation: 1})
	q.Submit(task.RenderTask{Key: rk(2), Priority: task.Background(), Generation: 1})
	q.Submit(task.RenderTask{Key: rk(3), Priority: task.Critical(), Generation: 1})

	first, _ := q.PopBest()
	assert.Equal(t, rk(3), first.Key) // Critical first regardless of submission order

	second, _ := q.PopBest()
	assert.Equal(t, rk(1), second.Key) // FIFO among equal-priority Background tasks

	third, _ := q.PopBest()
	assert.Equal(t, rk(2), third.Key)
}

func TestPreemptionOnSaturation(t *testing.T) {
	const qMax = 8
	q := queue.New(qMax, nil)

	for i := uint32(0); i < qMax; i++ {
		out := q.Submit(task.RenderTask{Key: rk(i), Priority: task.Background(), Generation: 1})
		require.Equal(t, queue.Admitted, out)
	}
	require.Equal(t, qMax, q.Len())

	out := q.Submit(task.RenderTask{Key: rk(999), Priority: task.Critical(), Generation: 1})
	assert.Equal(t, queue.Admitted, out)
	assert.Equal(t, qMax, q.Len())

	best, ok := q.PopBest()
	require.True(t, ok)
	assert.Equal(t, rk(999), best.Key)
}

func TestRejectedWhenFullAndNoLowerPriorityExists(t *testing.T) {
	const qMax = 4
	q := queue.New(qMax, nil)

	for i := uint32(0); i < qMax; i++ {
		q.Submit(task.RenderTask{Key: rk(i), Priority: task.Critical(), Generation: 1})
	}

	out := q.Submit(task.RenderTask{Key: rk(999), Priority: task.Background(), Generation: 1})
	assert.Equal(t, queue.RejectedFull, out)
	assert.Equal(t, qMax, q.Len())
}

func TestStaleGenPurgeOnSubmit(t *testing.T) {
	q := queue.New(16, nil)

	q.Submit(task.RenderTask{Key: rk(1), Priority: task.Background(), Generation: 1})
	q.Submit(task.RenderTask{Key: rk(2), Priority: task.Lead(1), Generation: 1})

	// A fresh submission at a later generation purges the stale Background
	// entry but leaves the Lead entry (only Background is purged eagerly).
	q.Submit(task.RenderTask{Key: rk(3), Priority: task.Critical(), Generation: 5})

	assert.False(t, q.Contains(rk(1)))
	assert.True(t, q.Contains(rk(2)))
}

func TestCancelOlderThanKeepsCritical(t *testing.T) {
	q := queue.New(16, nil)

	q.Submit(task.RenderTask{Key: rk(1), Priority: task.Critical(), Generation: 1})
	q.Submit(task.RenderTask{Key: rk(2), Priority: task.Lead(1), Generation: 1})
	q.Submit(task.RenderTask{Key: rk(3), Priority: task.Background(), Generation: 1})

	removed := q.CancelOlderThan(5)
	assert.Equal(t, 2, removed)
	assert.True(t, q.Contains(rk(1)))
	assert.False(t, q.Contains(rk(2)))
	assert.False(t, q.Contains(rk(3)))
}

func TestNoDuplicateKeysInvariant(t *testing.T) {
	q := queue.New(16, nil)
	for i := 0; i < 5; i++ {
		q.Submit(task.RenderTask{Key: rk(1), Priority: task.Lead(uint32(i + 1)), Generation: 1})
	}
	assert.Equal(t, 1, q.Len())
}
