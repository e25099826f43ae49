// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// ImageSurface is a headless surface that keeps the presented frame in
// memory. It backs tests, the demo command and offscreen compositing.
// Presents and Snapshot may be called from any goroutine.
type ImageSurface struct {
	mu       sync.Mutex
	img      *image.RGBA
	current  bool
	presents int
	closed   bool
}

// NewImageSurface creates a surface of the given size.
func NewImageSurface(width, height int) *ImageSurface {
	size := Options{Width: width, Height: height}.size()
	return &ImageSurface{img: image.NewRGBA(image.Rectangle{Max: size})}
}

// MakeCurrent implements Surface.
func (s *ImageSurface) MakeCurrent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.current = true
	return nil
}

// Size implements Surface.
func (s *ImageSurface) Size() image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img.Rect.Size()
}

// Present copies the rendered frame from src. The surface must be current.
func (s *ImageSurface) Present(src FrameSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.current {
		return ErrNotCurrent
	}
	frame, err := src.ReadPixels(image.Rectangle{})
	if err != nil {
		return fmt.Errorf("surface: read frame: %w", err)
	}
	xdraw.Draw(s.img, s.img.Rect, &image.Uniform{C: color.Transparent}, image.Point{}, xdraw.Src)
	xdraw.Draw(s.img, s.img.Rect, frame, frame.Rect.Min, xdraw.Src)
	s.presents++
	return nil
}

// Resize changes the drawable size and discards the presented frame.
func (s *ImageSurface) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	size := Options{Width: width, Height: height}.size()
	s.img = image.NewRGBA(image.Rectangle{Max: size})
	return nil
}

// Release gives up the drawable so another actor can make itself current.
func (s *ImageSurface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = false
}

// Presents returns how many frames were presented.
func (s *ImageSurface) Presents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presents
}

// Snapshot returns a copy of the presented frame.
func (s *ImageSurface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.img.Rect)
	copy(out.Pix, s.img.Pix)
	return out
}

// Close implements Surface.
func (s *ImageSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.current = false
	return nil
}

var _ ResizableSurface = (*ImageSurface)(nil)
