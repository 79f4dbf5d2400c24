// Package backend defines the PdfBackend capability the rendering pipeline
// treats as an opaque collaborator. Actual PDF decoding is out of scope for
// this repo; only the contract and the raw RGBA frame type it produces live
// here, grounded on the signature shapes of the teacher's cgo/MuPDF
// bindings (render_page / page_count / extract_text) without any of the
// cgo plumbing itself.
package backend

import (
	"context"

	"github.com/nitro/pvf/internal/pdfkey"
)

// RgbaFrame is an immutable raw raster: 4 bytes per pixel, RGBA order,
// row-major, stride >= 4*width. Once produced it is never mutated; crop and
// encode operations borrow it read-only.
type RgbaFrame struct {
	Width  int
	Height int
	Stride int
	Bytes  []byte
}

// SizeBytes returns the buffer footprint charged against a cache budget.
func (f RgbaFrame) SizeBytes() int64 {
	return int64(f.Stride) * int64(f.Height)
}

// Empty reports whether f carries no pixel data.
func (f RgbaFrame) Empty() bool {
	return f.Width == 0 || f.Height == 0 || len(f.Bytes) == 0
}

// TextLine is one line of extracted text, located as percentages of page
// dimensions the same way the teacher's ImageParams/TextParams express
// placement: (0,0) is the upper-left corner, (1,1) the bottom-right.
type TextLine struct {
	Text     string
	X, Y     float64
	W, H     float64
	FontSize float64
}

// PageSize is a page's dimensions in PDF points (1/72 inch).
type PageSize struct {
	Width  float64
	Height float64
}

// PdfBackend is the abstract rasterization capability. Implementations are
// not required to be safe for concurrent use; the render pool gives each
// worker its own instance via a Loader.
type PdfBackend interface {
	// RenderPage rasterizes page at the given scale to an RGBA frame.
	// Origin is top-left.
	RenderPage(ctx context.Context, page uint32, scale pdfkey.ScaleMilli) (RgbaFrame, error)
	// ExtractText returns the line-oriented text content of a page. Only
	// consumed by the out-of-scope search/highlight extension.
	ExtractText(ctx context.Context, page uint32) ([]TextLine, error)
	// PageSize returns a page's dimensions in PDF points.
	PageSize(ctx context.Context, page uint32) (PageSize, error)
	// DocID returns the stable identity of the open document.
	DocID() pdfkey.DocID
	// PageCount returns the total number of pages.
	PageCount() uint32
	// Close releases any resources held by the backend.
	Close() error
}

// Loader constructs a fresh PdfBackend instance. The backend may not be
// thread-safe, so the render pool calls Loader once per worker rather than
// sharing a single instance.
type Loader func() (PdfBackend, error)
