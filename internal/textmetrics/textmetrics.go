// Package textmetrics turns backend.TextLine geometry (PDF-space text box
// coordinates) into pixel-accurate highlight boxes, using the font's actual
// descender rather than an assumed line-height fraction. The font-metrics
// cache and sfnt.Metrics call here are adapted from Nitro-lazypdf's
// GetDescenderToBaselineFromTTF, repurposed from PDF image-overlay
// placement to search-result highlight geometry.
package textmetrics

import (
	"fmt"
	"math"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/nitro/pvf/internal/backend"
)

var (
	fontCacheMu sync.RWMutex
	fontCache   = make(map[string]*sfnt.Font)
)

func loadFont(ttfPath string) (*sfnt.Font, error) {
	fontCacheMu.RLock()
	f, ok := fontCache[ttfPath]
	fontCacheMu.RUnlock()
	if ok {
		return f, nil
	}

	data, err := os.ReadFile(ttfPath)
	if err != nil {
		return nil, fmt.Errorf("textmetrics: read font %q: %w", ttfPath, err)
	}
	parsed, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("textmetrics: parse font %q: %w", ttfPath, err)
	}

	fontCacheMu.Lock()
	fontCache[ttfPath] = parsed
	fontCacheMu.Unlock()
	return parsed, nil
}

// DescenderPx returns the distance in pixels from baseline to the lowest
// point a glyph in ttfPath can reach at fontSize, used to extend a highlight
// box below the baseline.
func DescenderPx(ttfPath string, fontSize float64) (float64, error) {
	f, err := loadFont(ttfPath)
	if err != nil {
		return 0, err
	}

	var buf sfnt.Buffer
	metrics, err := f.Metrics(&buf, fixed.Int26_6(fontSize*64), font.HintingNone)
	if err != nil {
		return 0, fmt.Errorf("textmetrics: metrics for %q: %w", ttfPath, err)
	}
	return math.Abs(float64(metrics.Descent) / 64.0), nil
}

// HighlightBox is a pixel-space rectangle, origin top-left, suitable for
// drawing a search-result highlight over a rendered page.
type HighlightBox struct {
	X, Y, W, H float64
}

// Highlight converts a TextLine (PDF-space, baseline-anchored) into a
// pixel-space HighlightBox scaled by pxPerPoint, extending the box below the
// baseline by the font's actual descender instead of a fixed fraction of
// FontSize.
func Highlight(line backend.TextLine, ttfPath string, pxPerPoint float64) (HighlightBox, error) {
	descent, err := DescenderPx(ttfPath, line.FontSize)
	if err != nil {
		return HighlightBox{}, err
	}

	return HighlightBox{
		X: line.X * pxPerPoint,
		Y: line.Y * pxPerPoint,
		W: line.W * pxPerPoint,
		H: (line.H + descent) * pxPerPoint,
	}, nil
}
