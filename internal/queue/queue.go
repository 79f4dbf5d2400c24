// Package queue implements the bounded, deduplicating priority queue that
// sits between the scheduler and the render pool, grounded on the
// binary-heap-plus-FIFO-tiebreak shape used by the priority worker-pool
// strategy in the example pack (go-foundations/workerpool's
// PriorityQueue), adapted to spec.md's dedup/replace/cancel admission
// rules instead of plain fairness counters.
package queue

import (
	"container/heap"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nitro/pvf/internal/pdfkey"
	"github.com/nitro/pvf/internal/task"
)

// Stats snapshots the queue's admission counters.
type Stats struct {
	Submitted uint64
	Replaced  uint64
	Dropped   uint64
	Rejected  uint64
	Evicted   uint64
	PurgedGen uint64
}

type item struct {
	t     task.RenderTask
	seq   int64
	index int
}

// minHeap orders items by descending priority (highest priority first),
// ties broken by insertion order (lower seq first, i.e. FIFO within a
// priority band).
type minHeap []*item

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].t.Priority.Equal(h[j].t.Priority) {
		return h[i].seq < h[j].seq
	}
	return h[i].t.Priority.Outranks(h[j].t.Priority)
}
func (h minHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *minHeap) Push(x any) {
	it := x.(*item)
	it.index = len(*h)
	*h = append(*h, it)
}
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// PrefetchQueue is a bounded priority queue of RenderTasks, deduplicated by
// RenderedPageKey, capped at qMax entries.
type PrefetchQueue struct {
	mu     sync.Mutex
	qMax   int
	heap   minHeap
	byKey  map[pdfkey.RenderedPageKey]*item
	seq    int64
	stats  Stats
	logger *logrus.Entry
}

// New returns an empty PrefetchQueue bounded at qMax entries.
func New(qMax int, logger *logrus.Entry) *PrefetchQueue {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	q := &PrefetchQueue{
		qMax:   qMax,
		byKey:  make(map[pdfkey.RenderedPageKey]*item),
		logger: logger.WithField("component", "prefetch_queue"),
	}
	heap.Init(&q.heap)
	return q
}

// SubmitOutcome reports what Submit did with a task.
type SubmitOutcome int

const (
	Admitted SubmitOutcome = iota
	ReplacedOutcome
	DroppedDuplicate
	RejectedFull
)

// Submit inserts t, applying dedup, stale-generation purge, and admission
// rules in that order, as specified.
func (q *PrefetchQueue) Submit(t task.RenderTask) SubmitOutcome {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stats.Submitted++

	// 1. Dedup: replace only if strictly higher priority, else drop.
	if existing, ok := q.byKey[t.Key]; ok {
		if t.Priority.Outranks(existing.t.Priority) {
			existing.t = t
			heap.Fix(&q.heap, existing.index)
			q.stats.Replaced++
			return ReplacedOutcome
		}
		q.stats.Dropped++
		return DroppedDuplicate
	}

	// 2. Stale-generation purge: drop queued entries that are behind this
	// task's generation and at or below Background priority.
	q.purgeStaleLocked(t.Generation)

	// 3. Admission.
	if q.heap.Len() < q.qMax {
		q.pushLocked(t)
		return Admitted
	}

	if victim := q.lowestPriorityItem(); victim != nil && t.Priority.Outranks(victim.t.Priority) {
		q.removeLocked(victim)
		q.stats.Evicted++
		q.pushLocked(t)
		return Admitted
	}

	q.stats.Rejected++
	q.logger.WithField("key", t.Key.String()).Debug("prefetch queue full, task rejected")
	return RejectedFull
}

func (q *PrefetchQueue) purgeStaleLocked(gen uint64) {
	var stale []*item
	for _, it := range q.heap {
		if it.t.Generation < gen && it.t.Priority.Class >= task.PriorityBackground {
			stale = append(stale, it)
		}
	}
	for _, it := range stale {
		q.removeLocked(it)
		q.stats.PurgedGen++
	}
}

func (q *PrefetchQueue) lowestPriorityItem() *item {
	var worst *item
	for _, it := range q.heap {
		if worst == nil || worst.t.Priority.Outranks(it.t.Priority) ||
			(it.t.Priority.Equal(worst.t.Priority) && it.seq < worst.seq) {
			worst = it
		}
	}
	return worst
}

func (q *PrefetchQueue) pushLocked(t task.RenderTask) {
	it := &item{t: t, seq: q.seq}
	q.seq++
	heap.Push(&q.heap, it)
	q.byKey[t.Key] = it
}

func (q *PrefetchQueue) removeLocked(it *item) {
	heap.Remove(&q.heap, it.index)
	delete(q.byKey, it.t.Key)
}

// PopBest removes and returns the highest-priority task, ties broken
// FIFO. Returns false if the queue is empty.
func (q *PrefetchQueue) PopBest() (task.RenderTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.heap.Len() == 0 {
		return task.RenderTask{}, false
	}
	it := heap.Pop(&q.heap).(*item)
	delete(q.byKey, it.t.Key)
	return it.t, true
}

// CancelOlderThan drops every queued task with generation < gen, except
// CriticalCurrent tasks (the current page is always wanted).
func (q *PrefetchQueue) CancelOlderThan(gen uint64) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	var stale []*item
	for _, it := range q.heap {
		if it.t.Generation < gen && it.t.Priority.Class != task.PriorityCritical {
			stale = append(stale, it)
		}
	}
	for _, it := range stale {
		q.removeLocked(it)
	}
	return len(stale)
}

// Contains reports whether a task keyed by k is queued.
func (q *PrefetchQueue) Contains(k pdfkey.RenderedPageKey) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byKey[k]
	return ok
}

// Len returns the number of queued tasks.
func (q *PrefetchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// Stats returns a snapshot of the queue's admission counters.
func (q *PrefetchQueue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}
