// Package cache implements the two-level cache: L1 holds raw RGBA rasters,
// L2 holds encoded terminal-protocol frames keyed by viewport and pan. Both
// are LRU-with-byte-budget stores; no third-party LRU library appears
// anywhere in the example pack (aistore rolls its own heap-based policy
// rather than importing one), so this follows the standard container/list
// + map idiom for O(1) recency bookkeeping, in the spirit of aistore's
// hand-rolled eviction loop.
package cache

import (
	"container/list"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nitro/pvf/internal/backend"
	"github.com/nitro/pvf/internal/pdfkey"
)

// AdmitResult reports what Put did.
type AdmitResult int

const (
	Admit AdmitResult = iota
	Replace
	Rejected
)

func (r AdmitResult) String() string {
	switch r {
	case Admit:
		return "Admit"
	case Replace:
		return "Replace"
	case Rejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// L1Stats snapshots the cache's counters.
type L1Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	BytesUsed int64
}

type l1Entry struct {
	key   pdfkey.RenderedPageKey
	frame backend.RgbaFrame
}

// L1 is the rasterized-page cache: RenderedPageKey -> RgbaFrame, LRU on
// access with a hard byte budget.
type L1 struct {
	mu     sync.Mutex
	budget int64
	used   int64
	order  *list.List
	items  map[pdfkey.RenderedPageKey]*list.Element

	hits, misses, evictions uint64

	log *logrus.Entry
}

// NewL1 returns an L1 cache bounded to budgetBytes.
func NewL1(budgetBytes int64, log *logrus.Entry) *L1 {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &L1{
		budget: budgetBytes,
		order:  list.New(),
		items:  make(map[pdfkey.RenderedPageKey]*list.Element),
		log:    log.WithField("cache", "l1"),
	}
}

// Get returns the cached frame for k, updating recency, and bumps the
// appropriate hit/miss counter.
func (c *L1) Get(k pdfkey.RenderedPageKey) (backend.RgbaFrame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[k]
	if !ok {
		c.misses++
		return backend.RgbaFrame{}, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*l1Entry).frame, true
}

// Contains reports presence without updating recency. It is a hint, not a
// contract: a concurrent Put may evict the entry right after it returns.
// The render pool does not consult it; its workers render every task they
// receive, whether or not the page is already cached.
func (c *L1) Contains(k pdfkey.RenderedPageKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[k]
	return ok
}

// Put inserts or replaces the frame for k, evicting least-recently-used
// entries until it fits the budget. If frame alone exceeds the budget, it
// is not admitted.
func (c *L1) Put(k pdfkey.RenderedPageKey, frame backend.RgbaFrame) AdmitResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := frame.SizeBytes()
	if size > c.budget {
		c.log.WithFields(logrus.Fields{"key": k.String(), "size": size, "budget": c.budget}).
			Warn("l1 put rejected: frame exceeds budget")
		return Rejected
	}

	result := Admit
	if el, ok := c.items[k]; ok {
		existing := el.Value.(*l1Entry)
		c.used -= existing.frame.SizeBytes()
		c.order.Remove(el)
		delete(c.items, k)
		result = Replace
	}

	for c.used+size > c.budget && c.order.Len() > 0 {
		c.evictOldest()
	}

	entry := &l1Entry{key: k, frame: frame}
	el := c.order.PushFront(entry)
	c.items[k] = el
	c.used += size

	return result
}

func (c *L1) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	entry := oldest.Value.(*l1Entry)
	c.order.Remove(oldest)
	delete(c.items, entry.key)
	c.used -= entry.frame.SizeBytes()
	c.evictions++
}

// Stats returns a snapshot of hit/miss/eviction counters and current byte
// usage.
func (c *L1) Stats() L1Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return L1Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		BytesUsed: c.used,
	}
}

// Len returns the number of cached entries.
func (c *L1) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
