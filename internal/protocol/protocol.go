// Package protocol defines the ProtocolEncoder capability: the terminal
// image protocol encoder is an external collaborator in the core spec, so
// only its contract and the frame/area value types live here.
package protocol

import (
	"context"
	"io"

	"github.com/nitro/pvf/internal/backend"
)

// Area is a drawable region measured in terminal cells.
type Area struct {
	WCells uint32
	HCells uint32
}

// Capabilities describes what the terminal can display, used to pick an
// encoding (half-blocks, Sixel, Kitty, iTerm2, ...).
type Capabilities struct {
	SupportsKitty  bool
	SupportsSixel  bool
	SupportsITerm2 bool
	TrueColor      bool
}

// Picker names the chosen encoding for a given terminal's capabilities.
type Picker struct {
	Name string
}

// Frame is an encoder-specific byte payload ready to be drawn to a
// terminal.
type Frame struct {
	Encoding string
	Payload  []byte
}

// SizeBytes returns the payload size charged against the L2 cache budget.
func (f Frame) SizeBytes() int64 { return int64(len(f.Payload)) }

// Surface is the terminal drawing target the presenter writes a Frame to.
type Surface interface {
	io.Writer
}

// Encoder is the abstract terminal image protocol encoder.
type Encoder interface {
	// Pick chooses an encoding for the given terminal capabilities.
	Pick(caps Capabilities) Picker
	// Encode turns a cropped RGBA frame into a protocol-specific payload.
	Encode(ctx context.Context, frame backend.RgbaFrame, area Area, picker Picker) (Frame, error)
	// Draw writes an already-encoded Frame to surface.
	Draw(frame Frame, surface Surface, area Area) error
}
