// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package viewport

import (
	"cmp"
	"image"
	"iter"
	"slices"

	"gioui.org/f32"

	"github.com/gogpu/compositor/render"
)

// Details is the geometry of a view.
type Details struct {
	// Rect is the view's rectangle in device pixels.
	Rect image.Rectangle

	// HiDPIScale is device pixels per CSS pixel. Zero means 1.
	HiDPIScale float32

	// PageZoom is the user page zoom. Zero means 1.
	PageZoom float32
}

// DevicePixelsPerPagePixel returns hidpi scale times page zoom.
func (d Details) DevicePixelsPerPagePixel() float32 {
	return orOne(d.HiDPIScale) * orOne(d.PageZoom)
}

func orOne(v float32) float32 {
	if v <= 0 {
		return 1
	}
	return v
}

// scaleInputs are the values a root scene bakes into a view's transform.
type scaleInputs struct {
	hidpi, zoom, pinch float32
	offset             f32.Point
}

// Entry is the state of one view.
type Entry struct {
	id        ID
	details   Details
	pinch     PinchZoom
	shown     bool
	root      render.PipelineID
	pipelines map[render.PipelineID]*PipelineEntry

	built    scaleInputs
	hasBuilt bool
}

func newEntry(id ID, details Details) *Entry {
	return &Entry{
		id:        id,
		details:   details,
		pinch:     IdentityPinchZoom(),
		pipelines: make(map[render.PipelineID]*PipelineEntry),
	}
}

// ID returns the view id.
func (e *Entry) ID() ID { return e.id }

// Details returns the current geometry.
func (e *Entry) Details() Details { return e.details }

// Shown reports whether the view is in the painting order.
func (e *Entry) Shown() bool { return e.shown }

// SetRect moves or resizes the view. It reports whether anything changed.
func (e *Entry) SetRect(r image.Rectangle) bool {
	if e.details.Rect == r {
		return false
	}
	e.details.Rect = r
	return true
}

// SetHiDPIScale changes the device scale.
func (e *Entry) SetHiDPIScale(f float32) bool {
	if e.details.HiDPIScale == f {
		return false
	}
	e.details.HiDPIScale = f
	return true
}

// SetPageZoom changes the page zoom.
func (e *Entry) SetPageZoom(f float32) bool {
	if e.details.PageZoom == f {
		return false
	}
	e.details.PageZoom = f
	return true
}

// DevicePixelsPerPagePixel returns the combined hidpi and page zoom scale.
func (e *Entry) DevicePixelsPerPagePixel() float32 {
	return e.details.DevicePixelsPerPagePixel()
}

// Pinch returns the current pinch zoom.
func (e *Entry) Pinch() PinchZoom { return e.pinch }

// size is the view size in device pixels.
func (e *Entry) size() f32.Point {
	s := e.details.Rect.Size()
	return f32.Pt(float32(s.X), float32(s.Y))
}

// Zoom applies a pinch of factor around center (view-relative device
// pixels), clamped to limits. It reports whether the pinch zoom changed.
func (e *Entry) Zoom(factor float32, center f32.Point, limits ZoomLimits) bool {
	next := e.pinch.zoom(factor, center, e.size(), limits.normalized())
	if next == e.pinch {
		return false
	}
	e.pinch = next
	return true
}

// Pan moves a zoomed-in view by delta device pixels. It returns the part of
// delta the pinch zoom could not absorb.
func (e *Entry) Pan(delta f32.Point) (remaining f32.Point, changed bool) {
	next, rest := e.pinch.pan(delta, e.size())
	changed = next != e.pinch
	e.pinch = next
	return rest, changed
}

// RootPipeline returns the view's root content pipeline.
func (e *Entry) RootPipeline() (render.PipelineID, bool) {
	return e.root, !e.root.IsZero()
}

// SetRootPipeline assigns the root content pipeline and reports whether it
// changed.
func (e *Entry) SetRootPipeline(p render.PipelineID) bool {
	if e.root == p {
		return false
	}
	e.root = p
	e.ensurePipeline(p)
	return true
}

func (e *Entry) ensurePipeline(p render.PipelineID) *PipelineEntry {
	pe, ok := e.pipelines[p]
	if !ok {
		pe = newPipelineEntry(p)
		e.pipelines[p] = pe
	}
	return pe
}

// Pipeline returns the record of p.
func (e *Entry) Pipeline(p render.PipelineID) (*PipelineEntry, bool) {
	pe, ok := e.pipelines[p]
	return pe, ok
}

// RemovePipeline forgets p. Removing the root pipeline clears the root.
func (e *Entry) RemovePipeline(p render.PipelineID) bool {
	if _, ok := e.pipelines[p]; !ok {
		return false
	}
	delete(e.pipelines, p)
	if e.root == p {
		e.root = render.PipelineID{}
	}
	return true
}

// Pipelines yields the view's pipelines ordered by id.
func (e *Entry) Pipelines() iter.Seq2[render.PipelineID, *PipelineEntry] {
	ids := make([]render.PipelineID, 0, len(e.pipelines))
	for p := range e.pipelines {
		ids = append(ids, p)
	}
	slices.SortFunc(ids, func(a, b render.PipelineID) int {
		return cmp.Or(cmp.Compare(a.Namespace, b.Namespace), cmp.Compare(a.Index, b.Index))
	})
	return func(yield func(render.PipelineID, *PipelineEntry) bool) {
		for _, p := range ids {
			pe, ok := e.pipelines[p]
			if !ok {
				continue
			}
			if !yield(p, pe) {
				return
			}
		}
	}
}

func (e *Entry) currentScale() scaleInputs {
	return scaleInputs{
		hidpi:  orOne(e.details.HiDPIScale),
		zoom:   orOne(e.details.PageZoom),
		pinch:  e.pinch.Scale,
		offset: e.pinch.Offset,
	}
}

// ScaleChangedSinceBuild reports whether hidpi scale, page zoom or pinch
// zoom differ from the values baked into the last root scene.
func (e *Entry) ScaleChangedSinceBuild() bool {
	return !e.hasBuilt || e.built != e.currentScale()
}

// MarkBuilt records the scale inputs used by a root scene build.
func (e *Entry) MarkBuilt() {
	e.built = e.currentScale()
	e.hasBuilt = true
}
