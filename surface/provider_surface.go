// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	_ "embed"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
)

//go:embed shaders/present.wgsl
var presentShaderWGSL string

// compileWGSL is replaced in tests.
var compileWGSL = naga.Compile

// PresentShaderSource returns the WGSL source of the present pass.
func PresentShaderSource() string {
	return presentShaderWGSL
}

// ProviderSurface presents through a GPU device owned by the host
// application. The host keeps the swapchain; the surface uploads each
// composited frame into the host's frame texture in the surface format and
// hands the host the SPIR-V of the pass that samples it.
type ProviderSurface struct {
	provider gpucontext.DeviceProvider
	target   gpucontext.TextureUpdater
	size     image.Point
	format   gputypes.TextureFormat
	spirv    []uint32
	staging  []byte
	current  bool
	presents int
	closed   bool
}

// NewProviderSurface compiles the present pass and wraps provider. target
// receives the frame pixels on Present; it may be nil when the host reads
// frames some other way.
func NewProviderSurface(provider gpucontext.DeviceProvider, target gpucontext.TextureUpdater, width, height int) (*ProviderSurface, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	spirv, err := compileShader(presentShaderWGSL)
	if err != nil {
		return nil, err
	}
	return &ProviderSurface{
		provider: provider,
		target:   target,
		size:     Options{Width: width, Height: height}.size(),
		format:   provider.SurfaceFormat(),
		spirv:    spirv,
	}, nil
}

// compileShader compiles WGSL to little-endian SPIR-V words.
func compileShader(src string) ([]uint32, error) {
	b, err := compileWGSL(src)
	if err != nil {
		return nil, fmt.Errorf("surface: compile present shader: %w", err)
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("surface: present shader: %d bytes is not a whole number of words", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words, nil
}

// PresentSPIRV returns the compiled present pass.
func (s *ProviderSurface) PresentSPIRV() []uint32 {
	return s.spirv
}

// Format returns the host surface format.
func (s *ProviderSurface) Format() gputypes.TextureFormat {
	return s.format
}

// MakeCurrent checks that the host device is still alive.
func (s *ProviderSurface) MakeCurrent() error {
	if s.closed {
		return ErrClosed
	}
	if s.provider.Device() == nil {
		s.current = false
		return ErrDeviceLost
	}
	s.current = true
	return nil
}

// Size implements Surface.
func (s *ProviderSurface) Size() image.Point {
	return s.size
}

// Present uploads the frame to the target texture and polls the device.
func (s *ProviderSurface) Present(src FrameSource) error {
	if s.closed {
		return ErrClosed
	}
	if !s.current {
		return ErrNotCurrent
	}
	if s.target != nil {
		frame, err := src.ReadPixels(image.Rectangle{})
		if err != nil {
			return fmt.Errorf("surface: read frame: %w", err)
		}
		if err := s.target.UpdateData(s.encode(frame)); err != nil {
			return fmt.Errorf("surface: upload frame: %w", err)
		}
	}
	if p, ok := s.provider.Device().(interface{ Poll(wait bool) }); ok {
		p.Poll(false)
	}
	s.presents++
	return nil
}

// encode converts frame to the surface format, reusing the staging buffer.
func (s *ProviderSurface) encode(frame *image.RGBA) []byte {
	switch s.format {
	case gputypes.TextureFormatBGRA8Unorm:
		if cap(s.staging) < len(frame.Pix) {
			s.staging = make([]byte, len(frame.Pix))
		}
		out := s.staging[:len(frame.Pix)]
		for i := 0; i+3 < len(frame.Pix); i += 4 {
			out[i+0] = frame.Pix[i+2]
			out[i+1] = frame.Pix[i+1]
			out[i+2] = frame.Pix[i+0]
			out[i+3] = frame.Pix[i+3]
		}
		return out
	default:
		return frame.Pix
	}
}

// Resize records the new swapchain size.
func (s *ProviderSurface) Resize(width, height int) error {
	if s.closed {
		return ErrClosed
	}
	s.size = Options{Width: width, Height: height}.size()
	return nil
}

// Presents returns how many frames were presented.
func (s *ProviderSurface) Presents() int {
	return s.presents
}

// Close implements Surface. The host owns the device, so nothing is
// destroyed.
func (s *ProviderSurface) Close() error {
	s.closed = true
	s.current = false
	return nil
}

var (
	_ ResizableSurface = (*ProviderSurface)(nil)
	_ FormatSurface    = (*ProviderSurface)(nil)
)
