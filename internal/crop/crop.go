// Package crop implements the pure window-selection function that turns an
// oversized rasterized page into the slice of pixels a viewport can show,
// snapped to terminal cell boundaries so no cell straddles a partial pixel
// row from the previous frame.
package crop

import "github.com/nitro/pvf/internal/backend"

// ViewportPx is a viewport's pixel dimensions.
type ViewportPx struct {
	W, H int
}

// PanPx is the pixel offset of the visible window into an oversized frame.
type PanPx struct {
	X, Y int
}

// CellPx is the terminal cell's pixel dimensions, used to snap crop origin
// and size to cell boundaries.
type CellPx struct {
	W, H int
}

// Crop selects the viewport-sized window of frame anchored at pan, clamped
// to stay inside the frame and snapped down to cell boundaries. If frame
// already fits within viewport on both axes, frame is returned unchanged
// with no copy.
func Crop(frame backend.RgbaFrame, viewport ViewportPx, pan PanPx, cell CellPx) backend.RgbaFrame {
	if frame.Width <= viewport.W && frame.Height <= viewport.H {
		return frame
	}

	outW := minInt(frame.Width, viewport.W)
	outH := minInt(frame.Height, viewport.H)

	maxX := frame.Width - outW
	maxY := frame.Height - outH
	x := clampInt(pan.X, 0, maxX)
	y := clampInt(pan.Y, 0, maxY)

	x = snapDown(x, cell.W)
	y = snapDown(y, cell.H)
	outW = snapDown(outW, cell.W)
	outH = snapDown(outH, cell.H)
	if outW == 0 {
		outW = minInt(frame.Width, viewport.W)
	}
	if outH == 0 {
		outH = minInt(frame.Height, viewport.H)
	}

	return extract(frame, x, y, outW, outH)
}

func extract(frame backend.RgbaFrame, x, y, w, h int) backend.RgbaFrame {
	const bpp = 4
	out := make([]byte, w*h*bpp)
	for row := 0; row < h; row++ {
		srcOff := (y+row)*frame.Stride + x*bpp
		dstOff := row * w * bpp
		copy(out[dstOff:dstOff+w*bpp], frame.Bytes[srcOff:srcOff+w*bpp])
	}
	return backend.RgbaFrame{Width: w, Height: h, Stride: w * bpp, Bytes: out}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func snapDown(v, cell int) int {
	if cell <= 0 {
		return v
	}
	return (v / cell) * cell
}
