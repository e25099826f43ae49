// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package viewport

import "github.com/gogpu/compositor/render"

// PaintMetric names a paint timing metric.
type PaintMetric uint8

const (
	FirstPaint PaintMetric = iota
	FirstContentfulPaint
)

func (m PaintMetric) String() string {
	switch m {
	case FirstPaint:
		return "FirstPaint"
	case FirstContentfulPaint:
		return "FirstContentfulPaint"
	default:
		return "Unknown"
	}
}

type metricPhase uint8

const (
	metricWaiting metricPhase = iota
	metricSeen
	metricSent
)

// PaintMetricState tracks one paint metric of one pipeline:
// Waiting, then Seen at the epoch of the first qualifying display list, then
// Sent once that epoch is rendered. Sent is final.
type PaintMetricState struct {
	phase       metricPhase
	epoch       render.Epoch
	firstReflow bool
}

// Waiting reports whether no qualifying display list arrived yet.
func (s *PaintMetricState) Waiting() bool { return s.phase == metricWaiting }

// Seen returns the epoch the metric waits to see rendered.
func (s *PaintMetricState) Seen() (render.Epoch, bool) {
	return s.epoch, s.phase == metricSeen
}

// Sent reports whether the metric was emitted.
func (s *PaintMetricState) Sent() bool { return s.phase == metricSent }

// Observe records a qualifying display list. Only the first one counts;
// the result reports whether the state moved to Seen.
func (s *PaintMetricState) Observe(epoch render.Epoch, firstReflow bool) bool {
	if s.phase != metricWaiting {
		return false
	}
	s.phase = metricSeen
	s.epoch = epoch
	s.firstReflow = firstReflow
	return true
}

// Resolve moves a Seen metric to Sent once current reaches its epoch. ok
// reports whether the metric is due now; firstReflow is the flag recorded by
// Observe.
func (s *PaintMetricState) Resolve(current render.Epoch) (firstReflow, ok bool) {
	if s.phase != metricSeen || current < s.epoch {
		return false, false
	}
	s.phase = metricSent
	return s.firstReflow, true
}
