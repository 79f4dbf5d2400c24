package perf_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitro/pvf/internal/perf"
)

func TestRecorderTracksRollingHitRates(t *testing.T) {
	r := perf.NewRecorder()

	r.Record(perf.Sample{L1Hit: true, L2Hit: false})
	r.Record(perf.Sample{L1Hit: false, L2Hit: true})

	snap := r.Snapshot()
	assert.Equal(t, 0.5, snap.L1HitRate)
	assert.Equal(t, 0.5, snap.L2HitRate)
	assert.Equal(t, uint64(2), snap.Samples)
}

func TestRecorderCountsCanceled(t *testing.T) {
	r := perf.NewRecorder()

	r.Record(perf.Sample{Canceled: true})
	r.Record(perf.Sample{Canceled: false})

	assert.Equal(t, uint64(1), r.Snapshot().Canceled)
}

func TestRecorderRegistersCollectorsWithoutError(t *testing.T) {
	r := perf.NewRecorder()
	reg := prometheus.NewRegistry()

	require.NotPanics(t, func() { r.Register(reg) })

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
