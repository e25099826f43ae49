// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/viewport"
)

var paintMetrics = [...]viewport.PaintMetric{viewport.FirstPaint, viewport.FirstContentfulPaint}

// NeedsRepaint reports whether a render pass has work to do.
func (p *Painter) NeedsRepaint() bool { return p.repaint != 0 }

// RepaintReasons returns the reasons accumulated since the last pass.
func (p *Painter) RepaintReasons() RepaintReason { return p.repaint }

// Render runs one render pass if one is needed and the refresh gate allows
// it: the engine rasterizes its latest frame, the surface presents it,
// ready screenshots are captured and paint metrics resolve against the
// epochs now on screen. It reports whether a frame was presented.
func (p *Painter) Render() bool {
	if p.repaint == 0 {
		return false
	}
	eng, ok := p.engine.Active()
	if !ok {
		return false
	}
	if !p.gate.ShouldRender(p.clock()) {
		Logger().Debug("compositor: render deferred by refresh gate", "reasons", p.repaint)
		return false
	}
	if err := p.surface.MakeCurrent(); err != nil {
		Logger().Error("compositor: make surface current", "err", err)
		return false
	}
	if err := eng.Render(p.surface.Size()); err != nil {
		Logger().Error("compositor: render", "err", err)
		return false
	}
	if err := p.surface.Present(eng); err != nil {
		Logger().Error("compositor: present", "err", err)
		return false
	}
	Logger().Debug("compositor: presented", "reasons", p.repaint, "size", p.surface.Size())
	p.repaint = 0

	p.captureScreenshots(eng)
	p.resolvePaintMetrics(eng)
	return true
}

// resolvePaintMetrics records the rendered epoch of every known pipeline
// and reports paint metrics whose epoch is now on screen.
func (p *Painter) resolvePaintMetrics(eng render.Engine) {
	now := p.clock()
	for e := range p.views.All() {
		for id, pe := range e.Pipelines() {
			current, ok := eng.CurrentEpoch(id)
			if !ok {
				continue
			}
			if err := pe.ObserveRendered(current); err != nil {
				p.violation("rendered epoch went backwards", "webview", e.ID(), "err", err)
				continue
			}
			for _, m := range paintMetrics {
				firstReflow, due := pe.Metric(m).Resolve(current)
				if !due {
					continue
				}
				p.notify(PaintMetricEvent{
					WebView:     e.ID(),
					Pipeline:    id,
					Metric:      m,
					Timestamp:   now,
					FirstReflow: firstReflow,
				})
			}
		}
	}
}
