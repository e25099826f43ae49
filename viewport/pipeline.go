// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package viewport

import (
	"fmt"

	"github.com/gogpu/compositor/render"
)

// EpochRegressionError reports an engine whose rendered epoch for a
// pipeline went backwards.
type EpochRegressionError struct {
	Pipeline render.PipelineID
	Previous render.Epoch
	Current  render.Epoch
}

func (e *EpochRegressionError) Error() string {
	return fmt.Sprintf("viewport: rendered epoch of pipeline %v went from %d to %d",
		e.Pipeline, e.Previous, e.Current)
}

// PipelineEntry is the compositor's record of one content pipeline.
type PipelineEntry struct {
	id     render.PipelineID
	scroll *ScrollTree

	epoch    render.Epoch
	hasEpoch bool

	rendered    render.Epoch
	hasRendered bool

	metrics [2]PaintMetricState

	// scale is the device scale in effect when the last display list
	// arrived.
	scale float32
}

func newPipelineEntry(id render.PipelineID) *PipelineEntry {
	return &PipelineEntry{id: id, scroll: NewScrollTree(nil)}
}

// ID returns the pipeline id.
func (p *PipelineEntry) ID() render.PipelineID { return p.id }

// ScrollTree returns the pipeline's scroll tree.
func (p *PipelineEntry) ScrollTree() *ScrollTree { return p.scroll }

// SetScrollTree replaces the scroll tree. Nodes that also exist in the old
// tree keep their old offset, clamped to the new scroll range.
func (p *PipelineEntry) SetScrollTree(t *ScrollTree) {
	if t == nil {
		t = NewScrollTree(nil)
	}
	t.inherit(p.scroll)
	p.scroll = t
}

// Epoch returns the highest display list epoch seen.
func (p *PipelineEntry) Epoch() (render.Epoch, bool) { return p.epoch, p.hasEpoch }

// ObserveEpoch records a display list epoch. Lower epochs arriving late
// never lower the recorded value; the result reports whether it advanced.
func (p *PipelineEntry) ObserveEpoch(e render.Epoch) bool {
	if p.hasEpoch && e <= p.epoch {
		return false
	}
	p.epoch = e
	p.hasEpoch = true
	return true
}

// Rendered returns the last epoch the engine reported rendered.
func (p *PipelineEntry) Rendered() (render.Epoch, bool) { return p.rendered, p.hasRendered }

// ObserveRendered records the engine's rendered epoch.
func (p *PipelineEntry) ObserveRendered(e render.Epoch) error {
	if p.hasRendered && e < p.rendered {
		return &EpochRegressionError{Pipeline: p.id, Previous: p.rendered, Current: e}
	}
	p.rendered = e
	p.hasRendered = true
	return nil
}

// Metric returns the state machine for m.
func (p *PipelineEntry) Metric(m PaintMetric) *PaintMetricState {
	return &p.metrics[m]
}

// ViewportScale returns the scale snapshot taken with the last display list.
func (p *PipelineEntry) ViewportScale() float32 { return p.scale }

// SetViewportScale stores the scale snapshot and reports whether it changed.
func (p *PipelineEntry) SetViewportScale(s float32) bool {
	if p.scale == s {
		return false
	}
	p.scale = s
	return true
}
