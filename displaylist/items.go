// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package displaylist

import (
	"fmt"
	"image/color"

	"gioui.org/f32"
	"github.com/golang/snappy"

	"github.com/gogpu/compositor/render"
)

// itemSize is the encoded size of one item before compression.
const itemSize = 1 + 4*4 + 4 + 8 + 8 + 6*4 + 8

// encodeItems serializes items and compresses the result.
func encodeItems(items []render.Item) []byte {
	e := &encoder{buf: make([]byte, 0, 4+len(items)*itemSize)}
	e.u32(uint32(len(items)))
	for _, it := range items {
		e.u8(uint8(it.Kind))
		e.f32(it.Bounds.MinX)
		e.f32(it.Bounds.MinY)
		e.f32(it.Bounds.MaxX)
		e.f32(it.Bounds.MaxY)
		e.buf = append(e.buf, it.Color.R, it.Color.G, it.Color.B, it.Color.A)
		e.u32(uint32(it.Image.Namespace))
		e.u32(it.Image.Index)
		e.u32(it.Pipeline.Namespace)
		e.u32(it.Pipeline.Index)
		sx, hx, ox, hy, sy, oy := it.Transform.Elems()
		for _, v := range [...]float32{sx, hx, ox, hy, sy, oy} {
			e.f32(v)
		}
		e.u64(uint64(it.ScrollNode))
	}
	return snappy.Encode(nil, e.buf)
}

// decodeItems reverses encodeItems.
func decodeItems(chunk []byte) ([]render.Item, error) {
	raw, err := snappy.Decode(nil, chunk)
	if err != nil {
		return nil, fmt.Errorf("displaylist: items: %w", err)
	}
	d := &decoder{buf: raw}
	n := d.u32()
	if d.err == nil && uint64(n)*itemSize > uint64(len(d.buf)) {
		return nil, fmt.Errorf("%w: %d items in %d bytes", ErrTruncated, n, len(d.buf))
	}
	items := make([]render.Item, 0, n)
	for range n {
		var it render.Item
		it.Kind = render.ItemKind(d.u8())
		it.Bounds = render.Rect{MinX: d.f32(), MinY: d.f32(), MaxX: d.f32(), MaxY: d.f32()}
		if c := d.take(4); c != nil {
			it.Color = color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
		}
		it.Image = render.ImageKey{Namespace: render.IDNamespace(d.u32()), Index: d.u32()}
		it.Pipeline = render.PipelineID{Namespace: d.u32(), Index: d.u32()}
		it.Transform = f32.NewAffine2D(d.f32(), d.f32(), d.f32(), d.f32(), d.f32(), d.f32())
		it.ScrollNode = render.ExternalScrollID(d.u64())
		if it.Kind < render.ItemRect || it.Kind > render.ItemPopReferenceFrame {
			return nil, fmt.Errorf("displaylist: unknown item kind %d", it.Kind)
		}
		items = append(items, it)
	}
	if d.err != nil {
		return nil, d.err
	}
	return items, nil
}
