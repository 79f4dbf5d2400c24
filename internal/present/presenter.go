// Package present implements the pure-dispatch presenter: given a page key,
// viewport, and pan, it decides whether to draw a ready frame, surface a
// failure, or kick off the work needed to produce one. It never blocks
// waiting on a worker.
package present

import (
	"github.com/nitro/pvf/internal/cache"
	"github.com/nitro/pvf/internal/crop"
	"github.com/nitro/pvf/internal/encode"
	"github.com/nitro/pvf/internal/pdfkey"
	"github.com/nitro/pvf/internal/protocol"
	"github.com/nitro/pvf/internal/task"
)

// Result reports what Request did: it drew a frame, surfaced a failure, or
// (the zero value) did neither and the caller should show a loading
// indicator while work is in flight.
type Result struct {
	Drew          bool
	Failed        bool
	FailureReason string
}

// RenderSubmitFunc hands a CriticalCurrent render task to the render pool.
type RenderSubmitFunc func(task.RenderTask)

// EncodeSubmitFunc hands an encode request to the encode pool.
type EncodeSubmitFunc func(encode.Request)

// Presenter is pure dispatch over L1Cache and L2Cache; it holds no frames
// of its own.
type Presenter struct {
	l1      *cache.L1
	l2      *cache.L2
	encoder protocol.Encoder

	submitRender RenderSubmitFunc
	submitEncode EncodeSubmitFunc
}

// New returns a Presenter wired to the two caches, the protocol encoder,
// and the submission hooks into the render and encode pools.
func New(l1 *cache.L1, l2 *cache.L2, encoder protocol.Encoder, submitRender RenderSubmitFunc, submitEncode EncodeSubmitFunc) *Presenter {
	return &Presenter{l1: l1, l2: l2, encoder: encoder, submitRender: submitRender, submitEncode: submitEncode}
}

// Request implements the dispatch described in the presenter's state
// machine: Ready draws and returns true; Failed surfaces the failure;
// anything else ensures an L1 frame exists, crops and submits an encode
// once it does, and returns a non-drawing result so the caller can show a
// loading indicator.
func (p *Presenter) Request(key pdfkey.RenderedPageKey, viewport pdfkey.Viewport, pan pdfkey.Pan, gen uint64, caps protocol.Capabilities, surface protocol.Surface) Result {
	tfk := pdfkey.TerminalFrameKey{Page: key, Viewport: viewport, Pan: pan}

	if frame, ok := p.l2.GetReady(tfk); ok {
		area := protocol.Area{WCells: viewport.WCells, HCells: viewport.HCells}
		if err := p.encoder.Draw(frame, surface, area); err != nil {
			return Result{Failed: true, FailureReason: err.Error()}
		}
		return Result{Drew: true}
	}

	if failErr, ok := p.l2.GetFailure(tfk); ok {
		return Result{Failed: true, FailureReason: failErr.Error()}
	}

	l1Frame, ok := p.l1.Get(key)
	if !ok {
		if p.submitRender != nil {
			p.submitRender(task.RenderTask{Key: key, Priority: task.Critical(), Generation: gen})
		}
		return Result{}
	}

	cropped := crop.Crop(l1Frame,
		crop.ViewportPx{W: viewport.WidthPx(), H: viewport.HeightPx()},
		crop.PanPx{X: int(pan.X), Y: int(pan.Y)},
		crop.CellPx{W: int(viewport.CellPxW), H: int(viewport.CellPxH)},
	)
	picker := p.encoder.Pick(caps)
	area := protocol.Area{WCells: viewport.WCells, HCells: viewport.HCells}

	p.l2.Request(tfk, gen, func(k pdfkey.TerminalFrameKey, g uint64) {
		if p.submitEncode != nil {
			p.submitEncode(encode.Request{Key: k, Frame: cropped, Area: area, Picker: picker, Generation: g})
		}
	})

	return Result{}
}
