// Package nav tracks navigation intent (direction, streak, generation) and
// turns it into a render plan. The single-owner, command-driven state
// machine here is grounded on the "manager" goroutine in aw-man's internal
// manager package, which owns all mutable viewer state (current/next page
// indices) behind one goroutine and drives transitions off a command enum.
package nav

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Direction is the signed travel direction derived from the last page
// change.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionForward
	DirectionBackward
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "Forward"
	case DirectionBackward:
		return "Backward"
	default:
		return "None"
	}
}

// EventKind tags the three navigation events the tracker reacts to.
type EventKind int

const (
	EventPageChange EventKind = iota
	EventZoom
	EventViewportResize
)

// Event is a navigation event. FromPage/ToPage are only meaningful for
// EventPageChange.
type Event struct {
	Kind     EventKind
	FromPage uint32
	ToPage   uint32
}

// Intent is the derived navigation state after applying an Event:
// direction, streak length, and the generation stamped on it.
type Intent struct {
	Direction  Direction
	Streak     uint32
	Generation uint64
}

// Tracker is the single-owner navigation state machine. Generation is kept
// in an atomic so render/encode workers can read CurrentGeneration()
// lock-free to gate stale-result discard, per spec: "a single integer
// compare gates all cancellation decisions."
type Tracker struct {
	generation atomic.Uint64
	direction  Direction
	streak     uint32

	log *logrus.Entry
}

// NewTracker returns a Tracker starting at generation 0, Idle.
func NewTracker(log *logrus.Entry) *Tracker {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Tracker{log: log.WithField("component", "nav_tracker")}
}

// Apply advances the generation and updates direction/streak per the
// event, returning the resulting Intent. Not safe for concurrent callers
// (Tracker is owned by the single cooperative main task); CurrentGeneration
// is the only method meant to be called from other goroutines.
func (t *Tracker) Apply(ev Event) Intent {
	gen := t.generation.Add(1)

	switch ev.Kind {
	case EventZoom, EventViewportResize:
		t.direction = DirectionNone
		t.streak = 0
	case EventPageChange:
		delta := int64(ev.ToPage) - int64(ev.FromPage)
		switch {
		case delta > 0:
			if t.direction == DirectionForward {
				t.streak++
			} else {
				t.direction = DirectionForward
				t.streak = 1
			}
		case delta < 0:
			if t.direction == DirectionBackward {
				t.streak++
			} else {
				t.direction = DirectionBackward
				t.streak = 1
			}
		default:
			t.direction = DirectionNone
			t.streak = 0
		}
	}

	t.log.WithFields(logrus.Fields{
		"generation": gen,
		"direction":  t.direction.String(),
		"streak":     t.streak,
	}).Debug("navigation event applied")

	return Intent{Direction: t.direction, Streak: t.streak, Generation: gen}
}

// CurrentGeneration returns the latest generation, safe to call
// concurrently from render/encode workers.
func (t *Tracker) CurrentGeneration() uint64 {
	return t.generation.Load()
}
