// Package perf records per-frame timing and cache-hit samples and exports
// them as Prometheus metrics, grounded on gogotex's metrics package
// (CounterVec/HistogramVec registered through a Registerer rather than the
// default global registry).
package perf

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sample is one pipeline event's worth of timing and outcome data, such as
// a render or encode result.
type Sample struct {
	RenderMS   float64
	ConvertMS  float64
	BlitMS     float64
	L1Hit      bool
	L2Hit      bool
	QueueDepth int
	Canceled   bool
}

// Recorder aggregates Samples into rolling counters and Prometheus
// collectors. It is safe for concurrent use; the main task and workers may
// all report through the same Recorder.
type Recorder struct {
	mu sync.Mutex

	l1Hits, l1Total uint64
	l2Hits, l2Total uint64
	canceled        uint64
	samples         uint64

	renderMS  prometheus.Histogram
	convertMS prometheus.Histogram
	blitMS    prometheus.Histogram
	queueGa   prometheus.Gauge
	canceledC prometheus.Counter
}

// NewRecorder builds a Recorder with its own collectors, namespaced under
// "pvf", ready to be registered against a Registerer.
func NewRecorder() *Recorder {
	return &Recorder{
		renderMS: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pvf", Subsystem: "render", Name: "duration_ms",
			Help: "Time spent in PdfBackend.RenderPage.", Buckets: prometheus.DefBuckets,
		}),
		convertMS: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pvf", Subsystem: "encode", Name: "duration_ms",
			Help: "Time spent converting a cropped frame to a protocol frame.", Buckets: prometheus.DefBuckets,
		}),
		blitMS: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pvf", Subsystem: "present", Name: "blit_duration_ms",
			Help: "Time spent drawing a ready frame to the terminal surface.", Buckets: prometheus.DefBuckets,
		}),
		queueGa: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pvf", Subsystem: "queue", Name: "depth",
			Help: "Current prefetch queue depth.",
		}),
		canceledC: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pvf", Subsystem: "render", Name: "canceled_total",
			Help: "Render/encode tasks discarded as stale.",
		}),
	}
}

// Register registers every collector with reg. Call once at startup.
func (r *Recorder) Register(reg prometheus.Registerer) {
	reg.MustRegister(r.renderMS, r.convertMS, r.blitMS, r.queueGa, r.canceledC)
}

// Record ingests one Sample, updating rolling hit-rate counters and the
// Prometheus collectors.
func (r *Recorder) Record(s Sample) {
	r.mu.Lock()
	r.samples++
	r.l1Total++
	if s.L1Hit {
		r.l1Hits++
	}
	r.l2Total++
	if s.L2Hit {
		r.l2Hits++
	}
	if s.Canceled {
		r.canceled++
	}
	r.mu.Unlock()

	if s.RenderMS > 0 {
		r.renderMS.Observe(s.RenderMS)
	}
	if s.ConvertMS > 0 {
		r.convertMS.Observe(s.ConvertMS)
	}
	if s.BlitMS > 0 {
		r.blitMS.Observe(s.BlitMS)
	}
	r.queueGa.Set(float64(s.QueueDepth))
	if s.Canceled {
		r.canceledC.Inc()
	}
}

// Snapshot is a point-in-time rollup of hit rates and cancellation count.
type Snapshot struct {
	L1HitRate float64
	L2HitRate float64
	Canceled  uint64
	Samples   uint64
}

// Snapshot returns the current rolling hit rates.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{Canceled: r.canceled, Samples: r.samples}
	if r.l1Total > 0 {
		snap.L1HitRate = float64(r.l1Hits) / float64(r.l1Total)
	}
	if r.l2Total > 0 {
		snap.L2HitRate = float64(r.l2Hits) / float64(r.l2Total)
	}
	return snap
}

// SinceMillis is a small convenience for timing a step around render/encode
// calls: SinceMillis(time.Now()) after the work completes.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
