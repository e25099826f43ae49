// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scene

import (
	"gioui.org/f32"

	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/viewport"
)

// ViewportTransform maps page pixels of e's root pipeline to device pixels
// of the drawable: device scale (hidpi times page zoom), then pinch zoom,
// then the view's position.
func ViewportTransform(e *viewport.Entry) f32.Affine2D {
	dppx := e.DevicePixelsPerPagePixel()
	pinch := e.Pinch()
	origin := e.Details().Rect.Min
	return f32.Affine2D{}.
		Scale(f32.Point{}, f32.Pt(dppx, dppx)).
		Scale(f32.Point{}, f32.Pt(pinch.Scale, pinch.Scale)).
		Offset(pinch.Offset).
		Offset(f32.Pt(float32(origin.X), float32(origin.Y)))
}

// BuildRootScene writes the root display list for the shown views into tx,
// followed by every scroll offset. Views without a root pipeline are
// skipped. The returned list is the one added to tx.
func BuildRootScene(tx *render.Transaction, views *viewport.Collection) *render.DisplayList {
	dl := &render.DisplayList{Pipeline: render.RootPipelineID}
	var extent f32.Point
	for e := range views.PaintingOrder() {
		root, ok := e.RootPipeline()
		if !ok {
			continue
		}
		r := e.Details().Rect
		dppx := e.DevicePixelsPerPagePixel()
		dl.Items = append(dl.Items,
			render.Item{Kind: render.ItemPushReferenceFrame, Transform: ViewportTransform(e)},
			render.Item{
				Kind:     render.ItemIframe,
				Bounds:   render.RectWH(0, 0, float32(r.Dx())/dppx, float32(r.Dy())/dppx),
				Pipeline: root,
			},
			render.Item{Kind: render.ItemPopReferenceFrame},
		)
		extent.X = max(extent.X, float32(r.Max.X))
		extent.Y = max(extent.Y, float32(r.Max.Y))
		e.MarkBuilt()
	}
	dl.ContentSize = extent

	tx.SetRootPipeline(render.RootPipelineID)
	tx.SetDisplayList(render.RootEpoch, dl)
	MergeScrollOffsets(tx, views)
	return dl
}
