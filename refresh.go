// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"strings"
	"time"
)

// Clock returns the current time. Tests inject a fake.
type Clock func() time.Time

// RefreshGate decides whether a ready render pass may run now. A gate that
// says no is asked again on the next Tick or frame.
type RefreshGate interface {
	ShouldRender(now time.Time) bool
}

// ImmediateRefresh lets every render pass through.
type ImmediateRefresh struct{}

// ShouldRender implements RefreshGate.
func (ImmediateRefresh) ShouldRender(time.Time) bool { return true }

// PacedRefresh lets at most one render pass through per Interval.
type PacedRefresh struct {
	Interval time.Duration
	last     time.Time
}

// NewPacedRefresh returns a gate with the given minimum interval.
func NewPacedRefresh(interval time.Duration) *PacedRefresh {
	return &PacedRefresh{Interval: interval}
}

// ShouldRender implements RefreshGate.
func (g *PacedRefresh) ShouldRender(now time.Time) bool {
	if !g.last.IsZero() && now.Sub(g.last) < g.Interval {
		return false
	}
	g.last = now
	return true
}

// gateFor returns the gate matching a refresh interval.
func gateFor(interval time.Duration) RefreshGate {
	if interval <= 0 {
		return ImmediateRefresh{}
	}
	return NewPacedRefresh(interval)
}

// RepaintReason records why the next render pass must run.
type RepaintReason uint8

const (
	// RepaintNewFrame: the engine finished a frame that needs compositing.
	RepaintNewFrame RepaintReason = 1 << iota
	// RepaintResize: a view moved or resized.
	RepaintResize
	// RepaintScreenshot: a screenshot is waiting for capture.
	RepaintScreenshot
)

func (r RepaintReason) String() string {
	if r == 0 {
		return "none"
	}
	var parts []string
	for _, f := range []struct {
		bit  RepaintReason
		name string
	}{
		{RepaintNewFrame, "new-frame"},
		{RepaintResize, "resize"},
		{RepaintScreenshot, "screenshot"},
	} {
		if r&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}
