// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"errors"
	"image"
	"maps"

	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/viewport"
)

// ErrEmptyScreenshot is returned when the requested region does not
// overlap its webview.
var ErrEmptyScreenshot = errors.New("compositor: empty screenshot region")

// screenshot is a capture waiting for content readiness and a render pass.
type screenshot struct {
	webview viewport.ID
	rect    *image.Rectangle
	done    func(*image.RGBA, error)

	// epochs is set by the readiness reply.
	epochs map[render.PipelineID]render.Epoch
	ready  bool
}

func (s *screenshot) finish(img *image.RGBA, err error) {
	if s.done != nil {
		s.done(img, err)
	}
}

func (p *Painter) requestScreenshot(m RequestScreenshot) {
	if _, ok := p.views.Get(m.WebView); !ok {
		if m.Done != nil {
			m.Done(nil, ErrUnknownWebView)
		}
		return
	}
	p.screenshots = append(p.screenshots, &screenshot{webview: m.WebView, rect: m.Rect, done: m.Done})
	p.notify(RequestScreenshotReadiness{WebView: m.WebView})
}

// screenshotReadiness arms every queued screenshot of a webview with the
// epochs content requires.
func (p *Painter) screenshotReadiness(id viewport.ID, epochs map[render.PipelineID]render.Epoch) {
	armed := 0
	for _, s := range p.screenshots {
		if s.webview != id || s.ready {
			continue
		}
		s.epochs = maps.Clone(epochs)
		s.ready = true
		armed++
	}
	if armed == 0 {
		Logger().Debug("compositor: readiness reply without screenshot", "webview", id)
		return
	}
	p.repaint |= RepaintScreenshot
}

// PendingScreenshots returns the number of screenshots not yet captured.
func (p *Painter) PendingScreenshots() int { return len(p.screenshots) }

// failScreenshots completes and drops every screenshot matching pred.
func (p *Painter) failScreenshots(pred func(*screenshot) bool, err error) {
	kept := p.screenshots[:0]
	var failed []*screenshot
	for _, s := range p.screenshots {
		if pred(s) {
			failed = append(failed, s)
			continue
		}
		kept = append(kept, s)
	}
	clear(p.screenshots[len(kept):])
	p.screenshots = kept
	for _, s := range failed {
		s.finish(nil, err)
	}
}

// captureScreenshots reads back every armed screenshot whose epochs are all
// rendered. Callbacks run after the queue is updated.
func (p *Painter) captureScreenshots(eng render.Engine) {
	if len(p.screenshots) == 0 {
		return
	}
	kept := p.screenshots[:0]
	var captured []*screenshot
	for _, s := range p.screenshots {
		if s.ready && p.epochsRendered(eng, s.epochs) {
			captured = append(captured, s)
			continue
		}
		kept = append(kept, s)
	}
	clear(p.screenshots[len(kept):])
	p.screenshots = kept

	for _, s := range captured {
		e, ok := p.views.Get(s.webview)
		if !ok {
			s.finish(nil, ErrUnknownWebView)
			continue
		}
		region := e.Details().Rect
		if s.rect != nil {
			region = s.rect.Add(region.Min).Intersect(region)
		}
		if region.Empty() {
			s.finish(nil, ErrEmptyScreenshot)
			continue
		}
		img, err := eng.ReadPixels(region)
		Logger().Debug("compositor: screenshot", "webview", s.webview, "region", region, "err", err)
		s.finish(img, err)
	}
}

func (p *Painter) epochsRendered(eng render.Engine, epochs map[render.PipelineID]render.Epoch) bool {
	for pipeline, want := range epochs {
		got, ok := eng.CurrentEpoch(pipeline)
		if !ok || got < want {
			return false
		}
	}
	return true
}
