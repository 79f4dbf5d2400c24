// Package pdfkey defines the content-independent identifiers used as cache
// and queue keys throughout the rendering pipeline: document identity, the
// rasterized-page key, and the terminal-frame key derived from it.
package pdfkey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DocID is a stable, content-independent hash of a document's source path.
// Equal paths produce equal DocIDs for the lifetime of the process.
type DocID string

// NewDocID derives a DocID from a source path. It never inspects file
// contents, only the path string, so it is cheap enough to call on every
// open and stable across re-opens of the same path.
func NewDocID(path string) DocID {
	sum := sha256.Sum256([]byte(path))
	return DocID(hex.EncodeToString(sum[:16]))
}

// ScaleMilli is an integer scale factor in thousandths, used instead of a
// float so that cache keys compare bit-exact.
type ScaleMilli uint32

// ToScaleMilli converts a logical float scale factor to its integer
// thousandths representation for use as a cache key.
func ToScaleMilli(factor float64) ScaleMilli {
	return ScaleMilli(factor*1000 + 0.5)
}

// Float returns the scale factor as a float64, for passing to a PdfBackend.
func (s ScaleMilli) Float() float64 {
	return float64(s) / 1000.0
}

// RenderedPageKey uniquely identifies an RGBA raster: a specific page of a
// specific document at a specific scale. Equality is bit-exact on all three
// fields.
type RenderedPageKey struct {
	Doc        DocID
	Page       uint32
	ScaleMilli ScaleMilli
}

func (k RenderedPageKey) String() string {
	return fmt.Sprintf("%s/p%d@%d", k.Doc, k.Page, k.ScaleMilli)
}

// Viewport is the area reserved for image rendering, in both cell and pixel
// terms. Two distinct viewports key two distinct L2 entries even when they
// share a RenderedPageKey.
type Viewport struct {
	WCells  uint32
	HCells  uint32
	CellPxW uint32
	CellPxH uint32
}

// WidthPx and HeightPx return the viewport's pixel dimensions.
func (v Viewport) WidthPx() int  { return int(v.WCells * v.CellPxW) }
func (v Viewport) HeightPx() int { return int(v.HCells * v.CellPxH) }

// Pan is the pixel offset of the visible window into an oversized rendered
// frame.
type Pan struct {
	X int32
	Y int32
}

// TerminalFrameKey identifies an encoded terminal-protocol frame: a
// RenderedPageKey cropped to a specific viewport and pan.
type TerminalFrameKey struct {
	Page     RenderedPageKey
	Viewport Viewport
	Pan      Pan
}

func (k TerminalFrameKey) String() string {
	return fmt.Sprintf("%s@%dx%d+%d+%d", k.Page, k.Viewport.WCells, k.Viewport.HCells, k.Pan.X, k.Pan.Y)
}
