// Command pvf drives the rendering pipeline for a single page request from
// the command line, the same one-shot-render shape as render_tool.go in the
// example pack, generalized from a direct cgo rasterize call to the full
// worker-pool/cache/encode pipeline this repo implements. It stands in for
// the interactive terminal front end, which is out of this repo's scope:
// PdfBackend and ProtocolEncoder are wired here with deterministic
// in-memory stand-ins (the real MuPDF-backed and terminal-protocol
// implementations are injected the same way in a full build).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/nitro/pvf/internal/backend"
	"github.com/nitro/pvf/internal/backend/backendtest"
	"github.com/nitro/pvf/internal/cache"
	"github.com/nitro/pvf/internal/config"
	"github.com/nitro/pvf/internal/encode"
	"github.com/nitro/pvf/internal/nav"
	"github.com/nitro/pvf/internal/pdfkey"
	"github.com/nitro/pvf/internal/perf"
	"github.com/nitro/pvf/internal/present"
	"github.com/nitro/pvf/internal/protocol"
	"github.com/nitro/pvf/internal/protocol/protocoltest"
	"github.com/nitro/pvf/internal/queue"
	"github.com/nitro/pvf/internal/render"
	"github.com/nitro/pvf/internal/task"
)

var (
	pdfPath  = kingpin.Arg("pdf", "PDF file").Required().String()
	page     = kingpin.Flag("page", "zero-indexed page to render").Default("0").Short('p').Uint32()
	pages    = kingpin.Flag("pages", "total page count (stand-in backend only)").Default("50").Uint32()
	wCells   = kingpin.Flag("width", "viewport width in cells").Default("80").Uint32()
	hCells   = kingpin.Flag("height", "viewport height in cells").Default("24").Uint32()
	verbose  = kingpin.Flag("verbose", "enable debug logging").Short('v').Bool()
	resultMS = kingpin.Flag("timeout-ms", "milliseconds to wait for the pipeline to settle").Default("2000").Int()
)

func main() {
	kingpin.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	entry := logrus.NewEntry(log)
	slogLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := config.Load()
	doc := pdfkey.NewDocID(*pdfPath)

	l1 := cache.NewL1(cfg.L1BudgetBytes, entry)
	l2 := cache.NewL2(cfg.L2BudgetBytes, cfg.QueueMax/4+1, entry)
	pq := queue.New(cfg.QueueMax, entry)
	tracker := nav.NewTracker(entry)
	scheduler := nav.NewScheduler(cfg.LeadMax, cfg.BgRadius)
	scheduler.SetTarget(doc, pdfkey.ToScaleMilli(1.0))

	recorder := perf.NewRecorder()
	recorder.Register(prometheus.DefaultRegisterer)

	loader := func() (backend.PdfBackend, error) {
		return backendtest.NewFake(doc, *pages, 1200, 1600), nil
	}

	renderPool, err := render.New(cfg.WorkerCount, cfg.QueueMax, loader, tracker.CurrentGeneration, entry)
	if err != nil {
		slogLogger.Error("failed to start render pool", "error", err)
		os.Exit(1)
	}
	defer renderPool.Close()

	encoder := protocoltest.NewFake()
	encodePool := encode.New(cfg.EncodeWorkerCount, cfg.QueueMax, l2, encoder, tracker.CurrentGeneration, entry)
	defer encodePool.Close()

	presenter := present.New(l1, l2, encoder, renderPool.Submit, encodePool.Submit)

	intent := tracker.Apply(nav.Event{Kind: nav.EventPageChange, FromPage: *page, ToPage: *page})
	for _, t := range scheduler.Plan(intent, *page, *pages, cfg.PlanBudget) {
		pq.Submit(t)
	}
	for pq.Len() > 0 {
		t, ok := pq.PopBest()
		if !ok {
			break
		}
		renderPool.Submit(t)
	}

	viewport := pdfkey.Viewport{WCells: *wCells, HCells: *hCells, CellPxW: cfg.CellPxW, CellPxH: cfg.CellPxH}
	pageKey := pdfkey.RenderedPageKey{Doc: doc, Page: *page, ScaleMilli: pdfkey.ToScaleMilli(1.0)}

	deadline := time.After(time.Duration(*resultMS) * time.Millisecond)
	var drew bool

drainLoop:
	for {
		res := presenter.Request(pageKey, viewport, pdfkey.Pan{}, intent.Generation, protocol.Capabilities{TrueColor: true}, os.Stdout)
		if res.Drew {
			drew = true
			break
		}
		if res.Failed {
			slogLogger.Error("page failed to render", "reason", res.FailureReason)
			os.Exit(1)
		}

		select {
		case ev := <-renderPool.Out():
			switch ev.Kind {
			case task.OutcomeProduced:
				l1.Put(ev.Key, ev.Frame)
				recorder.Record(perf.Sample{RenderMS: 1})
			case task.OutcomeCanceled:
				recorder.Record(perf.Sample{Canceled: true})
			case task.OutcomeBackendError:
				slogLogger.Warn("backend render failed", "page", ev.Key.Page, "error", ev.Err)
			}
		case ev := <-encodePool.Out():
			l2.Ingest(ev.Key, ev.Generation, ev.Frame, ev.Err)
			recorder.Record(perf.Sample{ConvertMS: 1})
		case <-deadline:
			break drainLoop
		}
	}

	snap := recorder.Snapshot()
	fmt.Fprintf(os.Stderr, "\ndrew=%v l1_hit_rate=%.2f l2_hit_rate=%.2f canceled=%d queue_depth=%d\n",
		drew, snap.L1HitRate, snap.L2HitRate, snap.Canceled, pq.Len())

	if !drew {
		os.Exit(1)
	}
}
