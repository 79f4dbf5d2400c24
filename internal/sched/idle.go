// Package sched provides the idle-triggered background-sweep gate: once the
// main event loop has seen no navigation input for a settle period, it may
// fire a round of Background-priority prefetch. The token bucket here
// throttles how often that can happen, the same token-bucket pattern
// gogotex's rate-limit middleware uses golang.org/x/time/rate for, repurposed
// from per-request admission to per-sweep admission.
package sched

import (
	"time"

	"golang.org/x/time/rate"
)

// IdleGate decides when the main loop may run a background-sweep pass: the
// event stream must have been quiet for at least Settle, and the token
// bucket must have a sweep available.
type IdleGate struct {
	limiter *rate.Limiter
	settle  time.Duration

	lastActivity time.Time
}

// NewIdleGate returns a gate that allows at most one sweep every period
// (with burst headroom), and requires settle quiet time since the last
// navigation event before it fires at all.
func NewIdleGate(period time.Duration, burst int, settle time.Duration) *IdleGate {
	return &IdleGate{
		limiter: rate.NewLimiter(rate.Every(period), burst),
		settle:  settle,
	}
}

// Touch records navigation activity at now, resetting the idle clock.
func (g *IdleGate) Touch(now time.Time) {
	g.lastActivity = now
}

// AllowSweep reports whether a background sweep may run at now: the input
// stream must have been idle for at least Settle, and the limiter must have
// a token available. A true result consumes a token.
func (g *IdleGate) AllowSweep(now time.Time) bool {
	if g.lastActivity.IsZero() {
		return g.limiter.AllowN(now, 1)
	}
	if now.Sub(g.lastActivity) < g.settle {
		return false
	}
	return g.limiter.AllowN(now, 1)
}
