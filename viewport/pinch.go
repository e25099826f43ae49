// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package viewport

import "gioui.org/f32"

// ZoomLimits bounds the pinch-zoom scale.
type ZoomLimits struct {
	Min float32
	Max float32
}

// DefaultZoomLimits allows zooming in up to 10x and never below 1x.
var DefaultZoomLimits = ZoomLimits{Min: 1, Max: 10}

func (l ZoomLimits) normalized() ZoomLimits {
	if l.Min <= 0 {
		l.Min = DefaultZoomLimits.Min
	}
	if l.Max < l.Min {
		l.Max = l.Min
	}
	return l
}

func (l ZoomLimits) clamp(s float32) float32 {
	return min(max(s, l.Min), l.Max)
}

// PinchZoom is the transient scale and pan applied on top of a view's
// device scale. A device point p of the unzoomed view lands at
// p*Scale + Offset.
type PinchZoom struct {
	Scale  float32
	Offset f32.Point
}

// IdentityPinchZoom returns the unzoomed state.
func IdentityPinchZoom() PinchZoom {
	return PinchZoom{Scale: 1}
}

// Transform returns the pinch zoom as an affine transform.
func (z PinchZoom) Transform() f32.Affine2D {
	return f32.Affine2D{}.Scale(f32.Point{}, f32.Pt(z.Scale, z.Scale)).Offset(z.Offset)
}

func (z PinchZoom) zoom(factor float32, center, size f32.Point, limits ZoomLimits) PinchZoom {
	if factor <= 0 {
		return z
	}
	s := limits.clamp(z.Scale * factor)
	// Keep the content point under center fixed.
	q := center.Sub(z.Offset).Div(z.Scale)
	next := PinchZoom{Scale: s, Offset: center.Sub(q.Mul(s))}
	return next.clamped(size, limits)
}

// clamped keeps the zoomed content covering the whole view.
func (z PinchZoom) clamped(size f32.Point, limits ZoomLimits) PinchZoom {
	z.Scale = limits.clamp(z.Scale)
	z.Offset = f32.Pt(
		clampAxis(z.Offset.X, size.X*(1-z.Scale)),
		clampAxis(z.Offset.Y, size.Y*(1-z.Scale)),
	)
	return z
}

// clampAxis limits an offset to the range between bound and zero.
func clampAxis(v, bound float32) float32 {
	return min(max(v, min(bound, 0)), max(bound, 0))
}

// pan scrolls the zoomed content by delta; content moves opposite to delta
// the way a scroll would. The unconsumed part of delta is returned.
func (z PinchZoom) pan(delta, size f32.Point) (PinchZoom, f32.Point) {
	want := z.Offset.Sub(delta)
	next := z
	next.Offset = f32.Pt(
		clampAxis(want.X, size.X*(1-z.Scale)),
		clampAxis(want.Y, size.Y*(1-z.Scale)),
	)
	consumed := z.Offset.Sub(next.Offset)
	return next, delta.Sub(consumed)
}
