// Package task defines the types shared between the scheduler, the prefetch
// queue, and the render pool: priorities, render tasks, and render
// outcomes. Keeping these in their own package avoids an import cycle
// between nav (which builds tasks), queue (which orders them), and render
// (which executes them).
package task

import (
	"fmt"

	"github.com/nitro/pvf/internal/backend"
	"github.com/nitro/pvf/internal/pdfkey"
)

// PriorityClass is the coarse priority band. Strict ordering, descending:
// Critical > Guard > Lead > Background.
type PriorityClass int

const (
	PriorityCritical PriorityClass = iota
	PriorityGuard
	PriorityLead
	PriorityBackground
)

func (c PriorityClass) String() string {
	switch c {
	case PriorityCritical:
		return "CriticalCurrent"
	case PriorityGuard:
		return "GuardReverse"
	case PriorityLead:
		return "DirectionalLead"
	case PriorityBackground:
		return "Background"
	default:
		return "Unknown"
	}
}

// Priority is a full priority value. Depth only matters within
// PriorityLead: lower depth outranks higher depth.
type Priority struct {
	Class PriorityClass
	Depth uint32
}

func (p Priority) String() string {
	if p.Class == PriorityLead {
		return fmt.Sprintf("DirectionalLead(%d)", p.Depth)
	}
	return p.Class.String()
}

// Outranks reports whether p strictly outranks other.
func (p Priority) Outranks(other Priority) bool {
	if p.Class != other.Class {
		return p.Class < other.Class
	}
	if p.Class == PriorityLead {
		return p.Depth < other.Depth
	}
	return false
}

// Equal reports whether p and other represent the same priority.
func (p Priority) Equal(other Priority) bool {
	return p.Class == other.Class && (p.Class != PriorityLead || p.Depth == other.Depth)
}

// Critical is the singleton CriticalCurrent priority.
func Critical() Priority { return Priority{Class: PriorityCritical} }

// Guard is the singleton GuardReverse priority.
func Guard() Priority { return Priority{Class: PriorityGuard} }

// Lead builds a DirectionalLead priority at the given depth (>=1).
func Lead(depth uint32) Priority { return Priority{Class: PriorityLead, Depth: depth} }

// Background is the singleton Background priority.
func Background() Priority { return Priority{Class: PriorityBackground} }

// RenderTask is a request to rasterize one page at one scale, tagged with
// the priority it was planned at and the navigation generation in effect
// when it was planned.
type RenderTask struct {
	Key        pdfkey.RenderedPageKey
	Priority   Priority
	Generation uint64
}

// OutcomeKind tags what happened to a render task.
type OutcomeKind int

const (
	OutcomeProduced OutcomeKind = iota
	OutcomeCanceled
	OutcomeBackendError
)

// RenderResultEvent is posted on the render pool's result channel. Frame is
// only valid when Kind is OutcomeProduced; Err only when OutcomeBackendError.
type RenderResultEvent struct {
	Key        pdfkey.RenderedPageKey
	Generation uint64
	Priority   Priority
	Kind       OutcomeKind
	Frame      backend.RgbaFrame
	Err        error
}
