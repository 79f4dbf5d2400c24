// Package protocoltest provides a deterministic ProtocolEncoder stand-in
// for tests exercising the encode stage and presenter.
package protocoltest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nitro/pvf/internal/backend"
	"github.com/nitro/pvf/internal/protocol"
)

// Fake encodes a frame by stamping its dimensions into a payload, and lets
// tests force encode failures.
type Fake struct {
	mu         sync.Mutex
	FailNext   map[string]error
	EncodeCnt  int64
	DrawCnt    int64
	EncodeFunc func(frame backend.RgbaFrame, area protocol.Area) (protocol.Frame, error)
}

var _ protocol.Encoder = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{FailNext: make(map[string]error)}
}

func (f *Fake) Pick(caps protocol.Capabilities) protocol.Picker {
	if caps.SupportsKitty {
		return protocol.Picker{Name: "kitty"}
	}
	return protocol.Picker{Name: "halfblock"}
}

func (f *Fake) Encode(ctx context.Context, frame backend.RgbaFrame, area protocol.Area, picker protocol.Picker) (protocol.Frame, error) {
	atomic.AddInt64(&f.EncodeCnt, 1)

	select {
	case <-ctx.Done():
		return protocol.Frame{}, ctx.Err()
	default:
	}

	f.mu.Lock()
	failErr := f.FailNext[picker.Name]
	delete(f.FailNext, picker.Name)
	f.mu.Unlock()
	if failErr != nil {
		return protocol.Frame{}, failErr
	}

	if f.EncodeFunc != nil {
		return f.EncodeFunc(frame, area)
	}

	payload := []byte(fmt.Sprintf("%s:%dx%d:%dx%d", picker.Name, frame.Width, frame.Height, area.WCells, area.HCells))
	return protocol.Frame{Encoding: picker.Name, Payload: payload}, nil
}

func (f *Fake) Draw(frame protocol.Frame, surface protocol.Surface, area protocol.Area) error {
	atomic.AddInt64(&f.DrawCnt, 1)
	_, err := surface.Write(frame.Payload)
	return err
}
