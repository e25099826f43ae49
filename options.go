// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/compositor/fonts"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/surface"
)

// EngineParams is what an EngineFactory receives.
type EngineParams struct {
	Notifier render.Notifier
	Config   Config
	External *render.ExternalImages
}

// EngineFactory creates the rendering engine of a Compositor.
type EngineFactory func(EngineParams) (render.Engine, error)

// HeadlessEngine is the default EngineFactory.
func HeadlessEngine(p EngineParams) (render.Engine, error) {
	return render.NewHeadless(p.Notifier, render.HeadlessOptions{
		MaxWorkers:        p.Config.MaxRasterWorkers,
		ImageCacheEntries: p.Config.ImageCacheEntries,
		External:          p.External,
	}), nil
}

// Option configures a Painter or Compositor.
//
// Example:
//
//	c, err := compositor.New(sink,
//	    compositor.WithConfig(cfg),
//	    compositor.WithDeviceProvider(app),
//	)
type Option func(*options)

type options struct {
	cfg         Config
	factory     EngineFactory
	gate        RefreshGate
	clock       Clock
	external    *render.ExternalImages
	systemFonts fonts.SystemSource
	surface     surface.Surface
	provider    gpucontext.DeviceProvider
	target      gpucontext.TextureUpdater
}

func defaultOptions() options {
	return options{
		cfg:     DefaultConfig(),
		factory: HeadlessEngine,
		clock:   time.Now,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.external == nil {
		o.external = render.NewExternalImages()
	}
	if o.systemFonts == nil {
		o.systemFonts = fonts.NewDirSource(o.cfg.SystemFontDirs...)
	}
	return o
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithEngine selects the engine factory of a Compositor.
func WithEngine(f EngineFactory) Option {
	return func(o *options) {
		if f != nil {
			o.factory = f
		}
	}
}

// WithRefreshGate installs an external refresh driver. Reconfigure leaves
// an installed gate alone.
func WithRefreshGate(g RefreshGate) Option {
	return func(o *options) {
		o.gate = g
	}
}

// WithClock injects the time source used for pacing and paint metrics.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithImageRegistry shares an external image registry with producers.
func WithImageRegistry(r *render.ExternalImages) Option {
	return func(o *options) {
		o.external = r
	}
}

// WithSystemFonts replaces the directory-backed system font source.
func WithSystemFonts(s fonts.SystemSource) Option {
	return func(o *options) {
		o.systemFonts = s
	}
}

// WithSurface presents into s instead of a registry-created surface.
func WithSurface(s surface.Surface) Option {
	return func(o *options) {
		o.surface = s
	}
}

// WithDeviceProvider lets the surface registry pick a GPU surface backed by
// the host device. target receives presented frames and may be nil.
func WithDeviceProvider(p gpucontext.DeviceProvider, target gpucontext.TextureUpdater) Option {
	return func(o *options) {
		o.provider = p
		o.target = target
	}
}
