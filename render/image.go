// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
)

// Image errors.
var (
	// ErrUnsupportedFormat is returned for pixel formats the engine cannot sample.
	ErrUnsupportedFormat = errors.New("render: unsupported image format")

	// ErrInvalidImage is returned when descriptor and data disagree.
	ErrInvalidImage = errors.New("render: invalid image data")
)

// ImageDescriptor describes the layout of an image resource.
type ImageDescriptor struct {
	Width  int
	Height int
	Format gputypes.TextureFormat

	// Stride is the row pitch in bytes; zero means tightly packed.
	Stride int

	Opaque bool
}

// BytesPerPixel returns the pixel size for the formats the engine accepts,
// or zero for anything else.
func (d ImageDescriptor) BytesPerPixel() int {
	switch d.Format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4
	case gputypes.TextureFormatR8Unorm:
		return 1
	default:
		return 0
	}
}

// RowPitch returns the effective stride.
func (d ImageDescriptor) RowPitch() int {
	if d.Stride > 0 {
		return d.Stride
	}
	return d.Width * d.BytesPerPixel()
}

// Validate checks that n bytes of raw data can back an image of d.
func (d ImageDescriptor) Validate(n int) error {
	bpp := d.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, d.Format)
	}
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidImage, d.Width, d.Height)
	}
	if d.RowPitch() < d.Width*bpp {
		return fmt.Errorf("%w: stride %d below row size %d", ErrInvalidImage, d.RowPitch(), d.Width*bpp)
	}
	if need := d.RowPitch()*(d.Height-1) + d.Width*bpp; n < need {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrInvalidImage, n, need)
	}
	return nil
}

// ExternalImageID names an image whose pixels live with an external producer
// (canvas, WebGL, WebGPU or XR) and are fetched through ExternalImages.
type ExternalImageID uint64

// ImageData is the payload of an image add or update. Exactly one of Raw and
// External is meaningful; External wins when non-zero.
type ImageData struct {
	Raw      []byte
	External ExternalImageID
}

// IsExternal reports whether the pixels come from the external registry.
func (d ImageData) IsExternal() bool { return d.External != 0 }

// decodeRGBA converts raw pixels to an *image.RGBA.
func decodeRGBA(desc ImageDescriptor, raw []byte) (*image.RGBA, error) {
	if err := desc.Validate(len(raw)); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height))
	pitch := desc.RowPitch()
	for y := range desc.Height {
		row := raw[y*pitch:]
		for x := range desc.Width {
			var c color.RGBA
			switch desc.Format {
			case gputypes.TextureFormatRGBA8Unorm:
				p := row[x*4:]
				c = color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
			case gputypes.TextureFormatBGRA8Unorm:
				p := row[x*4:]
				c = color.RGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
			case gputypes.TextureFormatR8Unorm:
				v := row[x]
				c = color.RGBA{R: v, G: v, B: v, A: 0xff}
			}
			if desc.Opaque {
				c.A = 0xff
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

// ImageUpdateKind distinguishes entries of an image update batch.
type ImageUpdateKind uint8

const (
	ImageAdd ImageUpdateKind = iota + 1
	ImageUpdate
	ImageDelete
)

func (k ImageUpdateKind) String() string {
	switch k {
	case ImageAdd:
		return "Add"
	case ImageUpdate:
		return "Update"
	case ImageDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// ImageUpdateEntry is one element of an out-of-band image update batch.
// HasEpoch marks updates that complete a canvas frame the compositor may be
// waiting for.
type ImageUpdateEntry struct {
	Kind       ImageUpdateKind
	Key        ImageKey
	Descriptor ImageDescriptor
	Data       ImageData
	Epoch      Epoch
	HasEpoch   bool
}
