// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image/color"

	"gioui.org/f32"
)

// Rect is an axis-aligned rectangle in float coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY float32
}

// RectWH returns the rectangle at (x, y) with the given size.
func RectWH(x, y, w, h float32) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// Width returns the horizontal extent.
func (r Rect) Width() float32 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r Rect) Height() float32 { return r.MaxY - r.MinY }

// IsEmpty reports whether r covers no area.
func (r Rect) IsEmpty() bool { return r.MinX >= r.MaxX || r.MinY >= r.MaxY }

// Offset returns r translated by d.
func (r Rect) Offset(d f32.Point) Rect {
	return Rect{MinX: r.MinX + d.X, MinY: r.MinY + d.Y, MaxX: r.MaxX + d.X, MaxY: r.MaxY + d.Y}
}

// Intersect returns the overlap of r and s; the result may be empty.
func (r Rect) Intersect(s Rect) Rect {
	return Rect{
		MinX: max(r.MinX, s.MinX),
		MinY: max(r.MinY, s.MinY),
		MaxX: min(r.MaxX, s.MaxX),
		MaxY: min(r.MaxY, s.MaxY),
	}
}

// Transform maps r through t. Only scale and translation are supported, so
// the result stays axis aligned.
func (r Rect) Transform(t f32.Affine2D) Rect {
	a := t.Transform(f32.Pt(r.MinX, r.MinY))
	b := t.Transform(f32.Pt(r.MaxX, r.MaxY))
	return Rect{MinX: min(a.X, b.X), MinY: min(a.Y, b.Y), MaxX: max(a.X, b.X), MaxY: max(a.Y, b.Y)}
}

// ItemKind identifies a display item.
type ItemKind uint8

const (
	// ItemRect fills Bounds with Color.
	ItemRect ItemKind = iota + 1
	// ItemImage draws Image scaled into Bounds.
	ItemImage
	// ItemIframe embeds Pipeline's display list at Bounds, clipped to it.
	ItemIframe
	// ItemPushReferenceFrame applies Transform to the items that follow.
	ItemPushReferenceFrame
	// ItemPopReferenceFrame ends the innermost reference frame.
	ItemPopReferenceFrame
)

func (k ItemKind) String() string {
	switch k {
	case ItemRect:
		return "Rect"
	case ItemImage:
		return "Image"
	case ItemIframe:
		return "Iframe"
	case ItemPushReferenceFrame:
		return "PushReferenceFrame"
	case ItemPopReferenceFrame:
		return "PopReferenceFrame"
	default:
		return "Unknown"
	}
}

// Item is one display item. Fields that do not apply to Kind are ignored.
type Item struct {
	Kind      ItemKind
	Bounds    Rect
	Color     color.RGBA
	Image     ImageKey
	Pipeline  PipelineID
	Transform f32.Affine2D

	// ScrollNode is the node whose offset moves this item; zero means the
	// item is fixed relative to its pipeline.
	ScrollNode ExternalScrollID
}

// DisplayList is the structured, decoded description of what one pipeline
// draws. Cache and SpatialTree are carried opaquely to the engine.
type DisplayList struct {
	Pipeline    PipelineID
	ContentSize f32.Point
	Items       []Item
	Cache       []byte
	SpatialTree []byte
}

// ImageKeys returns the distinct images referenced by the list, in first-use
// order.
func (dl *DisplayList) ImageKeys() []ImageKey {
	if dl == nil {
		return nil
	}
	seen := make(map[ImageKey]struct{})
	var keys []ImageKey
	for _, it := range dl.Items {
		if it.Kind != ItemImage {
			continue
		}
		if _, ok := seen[it.Image]; ok {
			continue
		}
		seen[it.Image] = struct{}{}
		keys = append(keys, it.Image)
	}
	return keys
}

// approxSize estimates the retained size of the list for memory reports.
func (dl *DisplayList) approxSize() int {
	const itemSize = 96
	return len(dl.Items)*itemSize + len(dl.Cache) + len(dl.SpatialTree)
}
