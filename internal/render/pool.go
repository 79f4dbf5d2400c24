// Package render implements the parallel rasterization worker pool. Each
// worker owns its own PdfBackend handle (backends may not be thread-safe)
// constructed via an injected loader, and communicates with the main task
// exclusively through bounded channels — grounded on the actor/event-loop
// shape of Nitro-lazypdf's Rasterizer, generalized from one cgo-bound
// document handle per process to one backend handle per worker goroutine.
package render

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	ddTracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/nitro/pvf/internal/backend"
	"github.com/nitro/pvf/internal/task"
)

// CurrentGenerationFunc reports the navigation generation currently in
// effect, read lock-free from the NavTracker.
type CurrentGenerationFunc func() uint64

// Pool is a fixed-size pool of render workers, each with its own backend
// handle. Send tasks with Submit; drain results from Out.
type Pool struct {
	in  chan task.RenderTask
	out chan task.RenderResultEvent

	wg     sync.WaitGroup
	cancel func()

	log *logrus.Entry
}

// New starts workerCount workers, each constructed via loader, reading
// tasks from an inbound channel of size queueDepth and posting results to
// an outbound channel of the same size. currentGen lets a worker discard a
// task that has already gone stale before it starts rendering, instead of
// wasting a backend call on discarded work.
func New(workerCount, queueDepth int, loader backend.Loader, currentGen CurrentGenerationFunc, log *logrus.Entry) (*Pool, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "render_pool")

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		in:     make(chan task.RenderTask, queueDepth),
		out:    make(chan task.RenderResultEvent, queueDepth),
		cancel: cancel,
		log:    log,
	}

	for i := 0; i < workerCount; i++ {
		be, err := loader()
		if err != nil {
			cancel()
			return nil, err
		}
		p.wg.Add(1)
		go p.runWorker(ctx, i, be, currentGen)
	}

	return p, nil
}

// Submit enqueues a task for rendering. It blocks only until the inbound
// channel has room; callers should size queueDepth so that a full prefetch
// queue backs up rather than blocking the main task.
func (p *Pool) Submit(t task.RenderTask) {
	p.in <- t
}

// Out is the channel results are posted to.
func (p *Pool) Out() <-chan task.RenderResultEvent {
	return p.out
}

// Close stops accepting new tasks, waits for in-flight renders to finish
// (never aborted mid-step, per the cooperative cancellation model), and
// closes each worker's backend handle.
func (p *Pool) Close() {
	close(p.in)
	p.wg.Wait()
	p.cancel()
	close(p.out)
}

func (p *Pool) runWorker(ctx context.Context, id int, be backend.PdfBackend, currentGen CurrentGenerationFunc) {
	defer p.wg.Done()
	defer be.Close()

	workerLog := p.log.WithField("worker", id)

	for t := range p.in {
		p.processOne(ctx, t, be, currentGen, workerLog)
	}
}

func (p *Pool) processOne(ctx context.Context, t task.RenderTask, be backend.PdfBackend, currentGen CurrentGenerationFunc, log *logrus.Entry) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("render worker recovered from panic, task canceled")
			p.postResult(task.RenderResultEvent{
				Key: t.Key, Generation: t.Generation, Priority: t.Priority, Kind: task.OutcomeCanceled,
			})
		}
	}()

	if currentGen != nil && t.Generation < currentGen() && t.Priority.Class != task.PriorityCritical {
		p.postResult(task.RenderResultEvent{
			Key: t.Key, Generation: t.Generation, Priority: t.Priority, Kind: task.OutcomeCanceled,
		})
		return
	}

	span, ctx := ddTracer.StartSpanFromContext(ctx, "render.RenderPage")
	span.SetTag("page", t.Key.Page)
	span.SetTag("priority", t.Priority.String())
	frame, err := be.RenderPage(ctx, t.Key.Page, t.Key.ScaleMilli)
	span.Finish(ddTracer.WithError(err))
	if err != nil {
		log.WithError(err).WithField("page", t.Key.Page).Warn("backend render failed")
		p.postResult(task.RenderResultEvent{
			Key: t.Key, Generation: t.Generation, Priority: t.Priority, Kind: task.OutcomeBackendError, Err: err,
		})
		return
	}

	p.postResult(task.RenderResultEvent{
		Key: t.Key, Generation: t.Generation, Priority: t.Priority, Kind: task.OutcomeProduced, Frame: frame,
	})
}

func (p *Pool) postResult(ev task.RenderResultEvent) {
	p.out <- ev
}
