package cache

import (
	"container/list"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nitro/pvf/internal/pdfkey"
	"github.com/nitro/pvf/internal/protocol"
)

// L2State is one of the encoded-frame lifecycle states.
type L2State int

const (
	L2Pending L2State = iota
	L2Encoding
	L2Ready
	L2Failed
)

func (s L2State) String() string {
	switch s {
	case L2Pending:
		return "Pending"
	case L2Encoding:
		return "Encoding"
	case L2Ready:
		return "Ready"
	case L2Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// L2Stats snapshots the L2 cache's counters.
type L2Stats struct {
	ReadyBytesUsed   int64
	PendingEncoding  int
	Evictions        int64
	OrphanedPending  int64
	ResultsDiscarded int64
}

type l2Entry struct {
	key        pdfkey.TerminalFrameKey
	state      L2State
	generation uint64
	frame      protocol.Frame
	failErr    error
	sizeBytes  int64

	readyEl   *list.Element // non-nil iff state is Ready/Failed and tracked for LRU
	pendingEl *list.Element // non-nil iff state is Pending/Encoding
}

// EnqueueFunc submits an encode request for key at generation gen. Called
// by L2.Request exactly once per fresh or re-submitted entry, outside of
// L2's internal lock.
type EnqueueFunc func(key pdfkey.TerminalFrameKey, gen uint64)

// L2 is the terminal-frame cache: TerminalFrameKey -> L2Entry, with
// independent LRU+budget accounting for Ready/Failed entries (B_L2) and a
// separate count cap for in-flight Pending/Encoding entries (Q_ENC), per
// spec: "Pending/Encoding are not evictable... but may be orphaned if the
// cache is over budget and forced to drop them."
type L2 struct {
	mu sync.Mutex

	readyBudget int64
	readyUsed   int64
	readyOrder  *list.List

	pendingMax   int
	pendingOrder *list.List

	entries map[pdfkey.TerminalFrameKey]*l2Entry

	evictions        int64
	orphanedPending  int64
	resultsDiscarded int64

	log *logrus.Entry
}

// NewL2 returns an L2 cache bounded to readyBudgetBytes for Ready/Failed
// entries and pendingMax in-flight Pending/Encoding entries.
func NewL2(readyBudgetBytes int64, pendingMax int, log *logrus.Entry) *L2 {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &L2{
		readyBudget:  readyBudgetBytes,
		readyOrder:   list.New(),
		pendingMax:   pendingMax,
		pendingOrder: list.New(),
		entries:      make(map[pdfkey.TerminalFrameKey]*l2Entry),
		log:          log.WithField("cache", "l2"),
	}
}

// Request ensures an entry exists for key at generation gen, submitting an
// encode via enqueue when a fresh submission is needed, and returns the
// entry's current state.
func (c *L2) Request(key pdfkey.TerminalFrameKey, gen uint64, enqueue EnqueueFunc) L2State {
	c.mu.Lock()

	e, ok := c.entries[key]
	if !ok {
		e = &l2Entry{key: key, state: L2Pending, generation: gen}
		c.entries[key] = e
		c.pushPending(e)
		c.mu.Unlock()
		enqueue(key, gen)
		return L2Pending
	}

	if e.generation == gen {
		state := e.state
		c.mu.Unlock()
		return state
	}

	if e.generation > gen {
		// A stale caller racing behind the cache's own generation; report
		// current state without disturbing it.
		state := e.state
		c.mu.Unlock()
		return state
	}

	// entry.generation < gen: re-submit. Any in-flight result for the old
	// generation is orphaned by the generation stamp alone (Ingest will
	// discard it on arrival).
	if e.readyEl != nil {
		c.readyOrder.Remove(e.readyEl)
		c.readyUsed -= e.sizeBytes
		e.readyEl = nil
	}
	if e.pendingEl == nil {
		c.pushPending(e)
	}
	e.generation = gen
	e.state = L2Pending
	e.frame = protocol.Frame{}
	e.failErr = nil
	e.sizeBytes = 0
	c.mu.Unlock()

	enqueue(key, gen)
	return L2Pending
}

// Claim atomically transitions an entry from Pending to Encoding for the
// given generation, returning false (and changing nothing) if the entry is
// absent, already claimed, or belongs to a stale generation — the signal
// to the encode worker to discard the request before encoding starts.
func (c *L2) Claim(key pdfkey.TerminalFrameKey, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.generation != gen || e.state != L2Pending {
		return false
	}
	e.state = L2Encoding
	return true
}

// Ingest records the outcome of an encode for key at generation gen. If the
// entry is missing or belongs to a different generation, the result is
// discarded on the orphan path: "no ingestion into an absent entry."
func (c *L2) Ingest(key pdfkey.TerminalFrameKey, gen uint64, frame protocol.Frame, encErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.generation != gen {
		c.resultsDiscarded++
		return
	}

	c.popPending(e)

	if encErr != nil {
		e.state = L2Failed
		e.failErr = encErr
		e.sizeBytes = 0
	} else {
		e.state = L2Ready
		e.frame = frame
		e.failErr = nil
		e.sizeBytes = frame.SizeBytes()
	}

	e.readyEl = c.readyOrder.PushFront(e)
	c.readyUsed += e.sizeBytes

	for c.readyUsed > c.readyBudget && c.readyOrder.Len() > 0 {
		c.evictOldestReady()
	}
}

// GetReady returns the ready protocol frame for key, if any.
func (c *L2) GetReady(key pdfkey.TerminalFrameKey) (protocol.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.state != L2Ready {
		return protocol.Frame{}, false
	}
	if e.readyEl != nil {
		c.readyOrder.MoveToFront(e.readyEl)
	}
	return e.frame, true
}

// GetFailure returns the failure reason for key, if the entry is Failed.
func (c *L2) GetFailure(key pdfkey.TerminalFrameKey) (error, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.state != L2Failed {
		return nil, false
	}
	return e.failErr, true
}

// State returns the current state of key, or (state=L2Pending, false) if
// absent (callers should treat false as "no entry", not as Pending).
func (c *L2) State(key pdfkey.TerminalFrameKey) (L2State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return L2Pending, false
	}
	return e.state, true
}

func (c *L2) pushPending(e *l2Entry) {
	e.pendingEl = c.pendingOrder.PushFront(e)
	if c.pendingMax > 0 && c.pendingOrder.Len() > c.pendingMax {
		c.orphanOldestPending()
	}
}

func (c *L2) popPending(e *l2Entry) {
	if e.pendingEl != nil {
		c.pendingOrder.Remove(e.pendingEl)
		e.pendingEl = nil
	}
}

// orphanOldestPending forcibly drops the oldest in-flight Pending/Encoding
// entry to respect Q_ENC. Any result that later arrives for it is ingested
// against an absent entry and silently discarded.
func (c *L2) orphanOldestPending() {
	oldest := c.pendingOrder.Back()
	if oldest == nil {
		return
	}
	e := oldest.Value.(*l2Entry)
	c.pendingOrder.Remove(oldest)
	delete(c.entries, e.key)
	c.orphanedPending++
	c.log.WithField("key", e.key.String()).Debug("l2 orphaned pending entry over Q_ENC")
}

func (c *L2) evictOldestReady() {
	oldest := c.readyOrder.Back()
	if oldest == nil {
		return
	}
	e := oldest.Value.(*l2Entry)
	c.readyOrder.Remove(oldest)
	c.readyUsed -= e.sizeBytes
	delete(c.entries, e.key)
	c.evictions++
}

// Stats returns a snapshot of the cache's counters.
func (c *L2) Stats() L2Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return L2Stats{
		ReadyBytesUsed:   c.readyUsed,
		PendingEncoding:  c.pendingOrder.Len(),
		Evictions:        c.evictions,
		OrphanedPending:  c.orphanedPending,
		ResultsDiscarded: c.resultsDiscarded,
	}
}
