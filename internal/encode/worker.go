// Package encode implements the terminal-protocol encode worker pool: it
// claims a pending L2 entry, invokes the protocol encoder, and posts the
// outcome back on a result channel for the main task to ingest into
// L2Cache. Shaped after the same actor/request-channel pattern as
// internal/render.
package encode

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	ddTracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/nitro/pvf/internal/backend"
	"github.com/nitro/pvf/internal/cache"
	"github.com/nitro/pvf/internal/pdfkey"
	"github.com/nitro/pvf/internal/protocol"
)

// Request is a unit of encode work: a cropped RGBA frame ready to be turned
// into a protocol-specific payload.
type Request struct {
	Key        pdfkey.TerminalFrameKey
	Frame      backend.RgbaFrame
	Area       protocol.Area
	Picker     protocol.Picker
	Generation uint64
}

// ResultKind tags what happened to an encode request.
type ResultKind int

const (
	ResultReady ResultKind = iota
	ResultFailed
	ResultDiscarded
)

// Result is posted on the worker's output channel, keyed by TerminalFrameKey
// and generation so the main task can route it back into L2Cache.
type Result struct {
	Key        pdfkey.TerminalFrameKey
	Generation uint64
	Kind       ResultKind
	Frame      protocol.Frame
	Err        error
}

// CurrentGenerationFunc reports the navigation generation currently in effect.
type CurrentGenerationFunc func() uint64

// Pool is a fixed-size pool of encode workers sharing one L2Cache and one
// ProtocolEncoder instance; the encoder's Encode method is expected to be
// safe for concurrent use, same as the teacher's protocol-encoder
// collaborators.
type Pool struct {
	in  chan Request
	out chan Result

	wg     sync.WaitGroup
	cancel func()

	log *logrus.Entry
}

// New starts workerCount encode workers reading from a shared inbound
// channel of size queueDepth.
func New(workerCount, queueDepth int, l2 *cache.L2, encoder protocol.Encoder, currentGen CurrentGenerationFunc, log *logrus.Entry) *Pool {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "encode_pool")

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		in:     make(chan Request, queueDepth),
		out:    make(chan Result, queueDepth),
		cancel: cancel,
		log:    log,
	}

	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i, l2, encoder, currentGen)
	}

	return p
}

// Submit enqueues an encode request. EnqueueFunc (see cache.L2.Request)
// should wrap this so L2 can drive submission itself on a Pending insert.
func (p *Pool) Submit(req Request) {
	p.in <- req
}

// Out is the channel results are posted to.
func (p *Pool) Out() <-chan Result {
	return p.out
}

// Close stops accepting new jobs, waits for in-flight encodes to finish,
// and closes the output channel.
func (p *Pool) Close() {
	close(p.in)
	p.wg.Wait()
	p.cancel()
	close(p.out)
}

func (p *Pool) runWorker(ctx context.Context, id int, l2 *cache.L2, encoder protocol.Encoder, currentGen CurrentGenerationFunc) {
	defer p.wg.Done()
	workerLog := p.log.WithField("worker", id)

	for req := range p.in {
		p.processOne(ctx, req, l2, encoder, currentGen, workerLog)
	}
}

func (p *Pool) processOne(ctx context.Context, req Request, l2 *cache.L2, encoder protocol.Encoder, currentGen CurrentGenerationFunc, log *logrus.Entry) {
	if currentGen != nil && req.Generation < currentGen() {
		log.WithField("key", req.Key.String()).Debug("encode request stale before claim, discarding")
		p.out <- Result{Key: req.Key, Generation: req.Generation, Kind: ResultDiscarded}
		return
	}

	if !l2.Claim(req.Key, req.Generation) {
		log.WithField("key", req.Key.String()).Debug("encode request orphaned, entry no longer pending at this generation")
		p.out <- Result{Key: req.Key, Generation: req.Generation, Kind: ResultDiscarded}
		return
	}

	span, ctx := ddTracer.StartSpanFromContext(ctx, "encode.Encode")
	span.SetTag("picker", req.Picker.Name)
	span.SetTag("key", req.Key.String())
	frame, err := encoder.Encode(ctx, req.Frame, req.Area, req.Picker)
	span.Finish(ddTracer.WithError(err))
	if err != nil {
		log.WithError(err).WithField("key", req.Key.String()).Warn("protocol encode failed")
		p.out <- Result{Key: req.Key, Generation: req.Generation, Kind: ResultFailed, Err: err}
		return
	}

	p.out <- Result{Key: req.Key, Generation: req.Generation, Kind: ResultReady, Frame: frame}
}
