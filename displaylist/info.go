// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package displaylist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"

	"gioui.org/f32"

	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/viewport"
)

// Decode errors.
var (
	// ErrTruncated is returned when a chunk ends before its declared content.
	ErrTruncated = errors.New("displaylist: truncated chunk")

	// ErrVersion is returned for info blocks written by another format version.
	ErrVersion = errors.New("displaylist: unsupported format version")
)

// Version is the info block format version.
const Version uint16 = 1

const (
	flagContentful = 1 << iota
	flagFirstReflow
)

// Info is the structured header of a display list.
type Info struct {
	Pipeline    render.PipelineID
	Epoch       render.Epoch
	Contentful  bool
	FirstReflow bool
	Viewport    viewport.Details
	ContentSize f32.Point
	ScrollTree  []viewport.ScrollNode
}

// encoder appends little-endian values.
type encoder struct{ buf []byte }

func (e *encoder) u8(v uint8)    { e.buf = append(e.buf, v) }
func (e *encoder) u16(v uint16)  { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *encoder) u32(v uint32)  { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) u64(v uint64)  { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }
func (e *encoder) f32(v float32) { e.u32(math.Float32bits(v)) }
func (e *encoder) i32(v int)     { e.u32(uint32(int32(v))) }

func (e *encoder) pt(p f32.Point) {
	e.f32(p.X)
	e.f32(p.Y)
}

// decoder reads little-endian values; the first short read sticks in err.
type decoder struct {
	buf []byte
	err error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.buf) < n {
		d.err = ErrTruncated
		d.buf = nil
		return nil
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b
}

func (d *decoder) u8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u16() uint16 {
	if b := d.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) u64() uint64 {
	if b := d.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (d *decoder) f32() float32 { return math.Float32frombits(d.u32()) }
func (d *decoder) i32() int     { return int(int32(d.u32())) }

func (d *decoder) pt() f32.Point {
	x := d.f32()
	return f32.Pt(x, d.f32())
}

// MarshalBinary encodes the info block.
func (info *Info) MarshalBinary() ([]byte, error) {
	e := &encoder{buf: make([]byte, 0, 64+len(info.ScrollTree)*32)}
	e.u16(Version)
	e.u32(info.Pipeline.Namespace)
	e.u32(info.Pipeline.Index)
	e.u32(uint32(info.Epoch))
	var flags uint8
	if info.Contentful {
		flags |= flagContentful
	}
	if info.FirstReflow {
		flags |= flagFirstReflow
	}
	e.u8(flags)

	r := info.Viewport.Rect
	e.i32(r.Min.X)
	e.i32(r.Min.Y)
	e.i32(r.Max.X)
	e.i32(r.Max.Y)
	e.f32(info.Viewport.HiDPIScale)
	e.f32(info.Viewport.PageZoom)
	e.pt(info.ContentSize)

	e.u32(uint32(len(info.ScrollTree)))
	for _, n := range info.ScrollTree {
		e.u64(uint64(n.ID))
		e.u64(uint64(n.Parent))
		e.pt(n.Scrollable)
		e.pt(n.Offset)
	}
	return e.buf, nil
}

// UnmarshalBinary decodes an info block.
func (info *Info) UnmarshalBinary(data []byte) error {
	d := &decoder{buf: data}
	if v := d.u16(); d.err == nil && v != Version {
		return fmt.Errorf("%w: %d", ErrVersion, v)
	}
	var out Info
	out.Pipeline = render.PipelineID{Namespace: d.u32(), Index: d.u32()}
	out.Epoch = render.Epoch(d.u32())
	flags := d.u8()
	out.Contentful = flags&flagContentful != 0
	out.FirstReflow = flags&flagFirstReflow != 0

	minX, minY := d.i32(), d.i32()
	maxX, maxY := d.i32(), d.i32()
	out.Viewport.Rect = image.Rect(minX, minY, maxX, maxY)
	out.Viewport.HiDPIScale = d.f32()
	out.Viewport.PageZoom = d.f32()
	out.ContentSize = d.pt()

	n := d.u32()
	if d.err == nil && uint64(n)*32 > uint64(len(d.buf)) {
		return fmt.Errorf("%w: %d scroll nodes in %d bytes", ErrTruncated, n, len(d.buf))
	}
	for range n {
		out.ScrollTree = append(out.ScrollTree, viewport.ScrollNode{
			ID:         render.ExternalScrollID(d.u64()),
			Parent:     render.ExternalScrollID(d.u64()),
			Scrollable: d.pt(),
			Offset:     d.pt(),
		})
	}
	if d.err != nil {
		return d.err
	}
	*info = out
	return nil
}
