// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"fmt"

	"gioui.org/f32"

	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/scene"
	"github.com/gogpu/compositor/viewport"
)

func (p *Painter) scrollNode(m ScrollNodeByDelta) {
	e, pe, ok := p.pipeline(m.WebView, m.Pipeline, "scroll node")
	if !ok {
		return
	}
	moved := pe.ScrollTree().ScrollBy(m.Node, m.Delta)
	p.submitScrollZoom(e, false, m.Pipeline, pe.ScrollTree(), moved)
}

// scrollViewport pans a pinch-zoomed view and scrolls the root scroll node
// of its root pipeline by what the pan left over.
func (p *Painter) scrollViewport(id viewport.ID, delta f32.Point) {
	e, ok := p.view(id, "scroll viewport")
	if !ok {
		return
	}
	rest, zoomed := e.Pan(delta)

	var (
		pipeline render.PipelineID
		tree     *viewport.ScrollTree
		moved    []render.ExternalScrollID
	)
	if root, ok := e.RootPipeline(); ok && rest != (f32.Point{}) {
		if pe, ok := e.Pipeline(root); ok {
			pipeline, tree = root, pe.ScrollTree()
			if node, ok := tree.Root(); ok {
				// Scroll offsets are in page pixels.
				scale := e.DevicePixelsPerPagePixel() * e.Pinch().Scale
				moved = tree.ScrollBy(node, rest.Div(scale))
			}
		}
	}
	p.submitScrollZoom(e, zoomed, pipeline, tree, moved)
}

func (p *Painter) pinchZoom(id viewport.ID, factor float32, center f32.Point) {
	e, ok := p.view(id, "pinch zoom")
	if !ok {
		return
	}
	if factor <= 0 {
		Logger().Warn("compositor: pinch zoom factor", "webview", id, "factor", factor)
		return
	}
	zoomed := e.Zoom(factor, center, p.views.Limits())
	p.submitScrollZoom(e, zoomed, render.PipelineID{}, nil, nil)
}

// submitScrollZoom sends the result of scroll or zoom input: a new root
// scene when the zoom changed, the offsets of the nodes that moved, and a
// frame request.
func (p *Painter) submitScrollZoom(e *viewport.Entry, zoomed bool, pipeline render.PipelineID, tree *viewport.ScrollTree, moved []render.ExternalScrollID) {
	if !zoomed && len(moved) == 0 {
		return
	}
	tx := render.NewTransaction()
	if zoomed {
		scene.BuildRootScene(tx, p.views)
	}
	if tree != nil {
		scene.AppendScrollOffsets(tx, pipeline, tree, moved)
	}
	tx.GenerateFrame()
	Logger().Debug("compositor: scroll/zoom", "webview", e.ID(), "zoomed", zoomed, "moved", len(moved))
	p.send(tx)
}

func (p *Painter) inputEvent(id viewport.ID, ev InputEvent) {
	switch ev := ev.(type) {
	case WheelEvent:
		p.scrollViewport(id, ev.Delta)
	case PinchEvent:
		p.pinchZoom(id, ev.Factor, ev.Center)
	case PointerMoveEvent:
		e, ok := p.view(id, "pointer move")
		if !ok {
			return
		}
		if root, ok := e.RootPipeline(); ok {
			p.notify(RefreshCursor{Pipeline: root})
		}
	default:
		Logger().Debug("compositor: input event ignored", "type", fmt.Sprintf("%T", ev))
	}
}

// scrollEvent records a scroll content performed itself.
func (p *Painter) scrollEvent(m NotifyScrollEvent) {
	_, pe, ok := p.pipeline(m.WebView, m.Pipeline, "scroll event")
	if !ok {
		return
	}
	offset, ok := pe.ScrollTree().SetOffset(m.Node, m.Offset)
	if !ok {
		Logger().Warn("compositor: scroll event for unknown node", "pipeline", m.Pipeline, "node", m.Node)
		return
	}
	tx := render.NewTransaction()
	tx.ScrollNodeWithID(m.Pipeline, m.Node, offset)
	tx.GenerateFrame()
	p.send(tx)
}
