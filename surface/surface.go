// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Surface errors.
var (
	// ErrClosed is returned by every method of a closed surface.
	ErrClosed = errors.New("surface: closed")

	// ErrNoProvider is returned when a GPU surface is requested without a
	// device provider.
	ErrNoProvider = errors.New("surface: no device provider")

	// ErrDeviceLost is returned by MakeCurrent when the provider no longer
	// hands out a device.
	ErrDeviceLost = errors.New("surface: device lost")

	// ErrNotCurrent is returned by Present before MakeCurrent succeeded.
	ErrNotCurrent = errors.New("surface: not current")
)

// Surface is the drawable the compositor presents into.
//
// Ownership of the drawable is exclusive: another actor (an XR runtime, a
// second window) may have taken the current context since the last frame,
// so MakeCurrent must be called before every render pass.
//
// Surfaces are used from the compositor goroutine only.
type Surface interface {
	// MakeCurrent (re)acquires the drawable for the calling goroutine.
	MakeCurrent() error

	// Size returns the drawable size in device pixels.
	Size() image.Point

	// Present shows the frame most recently rendered by src.
	Present(src FrameSource) error

	// Close releases the drawable. Close is idempotent.
	Close() error
}

// FrameSource is the read side of a rendering engine.
type FrameSource interface {
	ReadPixels(r image.Rectangle) (*image.RGBA, error)
}

// ResizableSurface is implemented by surfaces whose drawable follows the
// window size.
type ResizableSurface interface {
	Surface
	Resize(width, height int) error
}

// FormatSurface is implemented by surfaces that know their pixel format.
type FormatSurface interface {
	Surface
	Format() gputypes.TextureFormat
}

// Options configures surface creation through the registry.
type Options struct {
	// Width and Height are the initial drawable size. Non-positive values
	// are raised to 1.
	Width  int
	Height int

	// Provider is the host GPU device. Backends that need a device fail
	// with ErrNoProvider when it is nil.
	Provider gpucontext.DeviceProvider

	// Target receives presented frames on GPU backends.
	Target gpucontext.TextureUpdater
}

func (o Options) size() image.Point {
	return image.Pt(max(o.Width, 1), max(o.Height, 1))
}
