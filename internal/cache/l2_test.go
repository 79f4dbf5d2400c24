package cache_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitro/pvf/internal/cache"
	"github.com/nitro/pvf/internal/pdfkey"
	"github.com/nitro/pvf/internal/protocol"
)

func tfk(page uint32, w, h uint32) pdfkey.TerminalFrameKey {
	return pdfkey.TerminalFrameKey{
		Page:     pdfkey.RenderedPageKey{Doc: "doc", Page: page, ScaleMilli: 1000},
		Viewport: pdfkey.Viewport{WCells: w, HCells: h, CellPxW: 10, CellPxH: 20},
	}
}

func TestL2RequestFreshEntryEnqueuesOnce(t *testing.T) {
	c := cache.NewL2(10_000, 8, nil)
	k := tfk(1, 80, 24)

	enqueued := 0
	state := c.Request(k, 5, func(key pdfkey.TerminalFrameKey, gen uint64) {
		enqueued++
		assert.Equal(t, k, key)
		assert.Equal(t, uint64(5), gen)
	})

	assert.Equal(t, cache.L2Pending, state)
	assert.Equal(t, 1, enqueued)

	// A second request at the same generation must not re-enqueue.
	state = c.Request(k, 5, func(pdfkey.TerminalFrameKey, uint64) { enqueued++ })
	assert.Equal(t, cache.L2Pending, state)
	assert.Equal(t, 1, enqueued)
}

func TestL2ClaimIngestReadyRoundTrip(t *testing.T) {
	c := cache.NewL2(10_000, 8, nil)
	k := tfk(1, 80, 24)
	c.Request(k, 1, func(pdfkey.TerminalFrameKey, uint64) {})

	ok := c.Claim(k, 1)
	require.True(t, ok)
	state, _ := c.State(k)
	assert.Equal(t, cache.L2Encoding, state)

	c.Ingest(k, 1, protocol.Frame{Encoding: "halfblock", Payload: []byte("xyz")}, nil)

	frame, ok := c.GetReady(k)
	require.True(t, ok)
	assert.Equal(t, "halfblock", frame.Encoding)
}

func TestL2IngestFailedSetsFailedState(t *testing.T) {
	c := cache.NewL2(10_000, 8, nil)
	k := tfk(1, 80, 24)
	c.Request(k, 1, func(pdfkey.TerminalFrameKey, uint64) {})
	c.Claim(k, 1)

	c.Ingest(k, 1, protocol.Frame{}, errors.New("bad picker"))

	state, _ := c.State(k)
	assert.Equal(t, cache.L2Failed, state)
	failErr, ok := c.GetFailure(k)
	require.True(t, ok)
	assert.EqualError(t, failErr, "bad picker")
}

func TestL2StaleGenerationResubmitsAndOrphansOldResult(t *testing.T) {
	c := cache.NewL2(10_000, 8, nil)
	k := tfk(1, 80, 24)

	c.Request(k, 1, func(pdfkey.TerminalFrameKey, uint64) {})
	c.Claim(k, 1)

	// Nav bump: re-request at a newer generation.
	enqueuedGen := uint64(0)
	state := c.Request(k, 2, func(key pdfkey.TerminalFrameKey, gen uint64) { enqueuedGen = gen })
	assert.Equal(t, cache.L2Pending, state)
	assert.Equal(t, uint64(2), enqueuedGen)

	// The old in-flight result arrives late, tagged with the stale generation.
	c.Ingest(k, 1, protocol.Frame{Payload: []byte("stale")}, nil)

	// It must not have clobbered the newer pending entry.
	state, _ = c.State(k)
	assert.Equal(t, cache.L2Pending, state)
	_, ready := c.GetReady(k)
	assert.False(t, ready)
	assert.Equal(t, int64(1), c.Stats().ResultsDiscarded)
}

func TestL2IngestIntoAbsentEntryIsDiscarded(t *testing.T) {
	c := cache.NewL2(10_000, 8, nil)
	k := tfk(1, 80, 24)

	// No Request was ever made; this simulates a result arriving after the
	// entry was evicted outright.
	c.Ingest(k, 1, protocol.Frame{Payload: []byte("orphan")}, nil)

	_, ok := c.State(k)
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Stats().ResultsDiscarded)
}

func TestL2ViewportSensitivityTwoDistinctEntries(t *testing.T) {
	c := cache.NewL2(10_000, 8, nil)
	a := tfk(1, 80, 24)
	b := tfk(1, 120, 40)

	c.Request(a, 1, func(pdfkey.TerminalFrameKey, uint64) {})
	c.Request(b, 1, func(pdfkey.TerminalFrameKey, uint64) {})

	c.Claim(a, 1)
	c.Ingest(a, 1, protocol.Frame{Payload: []byte("a")}, nil)

	_, aReady := c.GetReady(a)
	assert.True(t, aReady)

	stateB, ok := c.State(b)
	require.True(t, ok)
	assert.Equal(t, cache.L2Pending, stateB)
}

func TestL2ReadyBudgetEvictsLRU(t *testing.T) {
	c := cache.NewL2(10, 8, nil) // tiny budget: 10 bytes

	a := tfk(1, 80, 24)
	b := tfk(2, 80, 24)

	c.Request(a, 1, func(pdfkey.TerminalFrameKey, uint64) {})
	c.Claim(a, 1)
	c.Ingest(a, 1, protocol.Frame{Payload: []byte("0123456789")}, nil) // 10 bytes, fits exactly

	c.Request(b, 1, func(pdfkey.TerminalFrameKey, uint64) {})
	c.Claim(b, 1)
	c.Ingest(b, 1, protocol.Frame{Payload: []byte("abcdefghij")}, nil) // forces eviction of a

	_, aReady := c.GetReady(a)
	assert.False(t, aReady)
	_, bReady := c.GetReady(b)
	assert.True(t, bReady)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestL2PendingCapOrphansOldest(t *testing.T) {
	c := cache.NewL2(10_000, 2, nil)

	k1 := tfk(1, 80, 24)
	k2 := tfk(2, 80, 24)
	k3 := tfk(3, 80, 24)

	c.Request(k1, 1, func(pdfkey.TerminalFrameKey, uint64) {})
	c.Request(k2, 1, func(pdfkey.TerminalFrameKey, uint64) {})
	c.Request(k3, 1, func(pdfkey.TerminalFrameKey, uint64) {})

	_, ok := c.State(k1)
	assert.False(t, ok, "k1 should have been orphaned once pendingMax was exceeded")
	assert.Equal(t, int64(1), c.Stats().OrphanedPending)
}
