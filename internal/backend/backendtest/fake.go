// Package backendtest provides a deterministic in-memory PdfBackend used
// across the pipeline's test suites, standing in for the cgo/MuPDF backend
// that is out of scope for this repo.
package backendtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/nitro/pvf/internal/backend"
	"github.com/nitro/pvf/internal/pdfkey"
)

// Fake is a PdfBackend that synthesizes a solid-color frame per page and
// lets tests inject failures or render latencies.
type Fake struct {
	mu sync.Mutex

	Doc       pdfkey.DocID
	Pages     uint32
	PageW     int
	PageH     int
	FailPages map[uint32]error
	Delay     func(page uint32)

	RenderCalls []uint32
}

var _ backend.PdfBackend = (*Fake)(nil)

// NewFake returns a Fake covering the given number of pages, each
// rasterized to pageW x pageH.
func NewFake(doc pdfkey.DocID, pages uint32, pageW, pageH int) *Fake {
	return &Fake{
		Doc:       doc,
		Pages:     pages,
		PageW:     pageW,
		PageH:     pageH,
		FailPages: make(map[uint32]error),
	}
}

func (f *Fake) RenderPage(ctx context.Context, page uint32, scale pdfkey.ScaleMilli) (backend.RgbaFrame, error) {
	f.mu.Lock()
	f.RenderCalls = append(f.RenderCalls, page)
	failErr := f.FailPages[page]
	f.mu.Unlock()

	if f.Delay != nil {
		f.Delay(page)
	}

	select {
	case <-ctx.Done():
		return backend.RgbaFrame{}, ctx.Err()
	default:
	}

	if failErr != nil {
		return backend.RgbaFrame{}, failErr
	}
	if page >= f.Pages {
		return backend.RgbaFrame{}, fmt.Errorf("backendtest: page %d out of range", page)
	}

	w := f.PageW
	h := f.PageH
	stride := w * 4
	bytes := make([]byte, stride*h)
	// Deterministic "color" derived from page number so tests can assert
	// on content without a real rasterizer.
	r := byte(page * 37)
	g := byte(page * 59)
	b := byte(page * 83)
	for i := 0; i < len(bytes); i += 4 {
		bytes[i] = r
		bytes[i+1] = g
		bytes[i+2] = b
		bytes[i+3] = 0xff
	}

	return backend.RgbaFrame{Width: w, Height: h, Stride: stride, Bytes: bytes}, nil
}

func (f *Fake) ExtractText(ctx context.Context, page uint32) ([]backend.TextLine, error) {
	return nil, nil
}

func (f *Fake) PageSize(ctx context.Context, page uint32) (backend.PageSize, error) {
	return backend.PageSize{Width: float64(f.PageW), Height: float64(f.PageH)}, nil
}

func (f *Fake) DocID() pdfkey.DocID { return f.Doc }

func (f *Fake) PageCount() uint32 { return f.Pages }

func (f *Fake) Close() error { return nil }

// RenderCount returns how many times RenderPage was called, for assertions
// that verify a cache hit avoided a backend call.
func (f *Fake) RenderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.RenderCalls)
}
