// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/compositor/fonts"
	"github.com/gogpu/compositor/surface"
	"github.com/gogpu/compositor/viewport"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("compositor: invalid config")

// Config holds the compositor settings. Fields marked reloadable take
// effect through Reconfigure; the rest are read once at construction.
type Config struct {
	// Width and Height size the drawable created when no surface is given.
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`

	// MaxRasterWorkers caps the engine's raster pool; zero means all
	// available parallelism.
	MaxRasterWorkers int `toml:"max_raster_workers" yaml:"max_raster_workers"`

	// ImageCacheEntries is the per-shard size of the decoded image cache.
	ImageCacheEntries int `toml:"image_cache_entries" yaml:"image_cache_entries"`

	// InboxSize buffers inbound messages of a Compositor.
	InboxSize int `toml:"inbox_size" yaml:"inbox_size"`

	// Debug turns invariant violations into panics. Reloadable.
	Debug bool `toml:"debug" yaml:"debug"`

	// MinPinchZoom and MaxPinchZoom bound pinch zoom. Reloadable.
	MinPinchZoom float32 `toml:"min_pinch_zoom" yaml:"min_pinch_zoom"`
	MaxPinchZoom float32 `toml:"max_pinch_zoom" yaml:"max_pinch_zoom"`

	// RefreshIntervalMillis paces render passes; zero renders as soon as a
	// frame is ready. Reloadable.
	RefreshIntervalMillis int `toml:"refresh_interval_ms" yaml:"refresh_interval_ms"`

	// FontParser names the parser validating font data ("ximage" or "gotext").
	FontParser string `toml:"font_parser" yaml:"font_parser"`

	// SystemFontDirs are searched by AddSystemFont.
	SystemFontDirs []string `toml:"system_font_dirs" yaml:"system_font_dirs"`

	// SurfaceBackend names the registered surface backend used when no
	// surface is given. Empty picks the best available one.
	SurfaceBackend string `toml:"surface_backend" yaml:"surface_backend"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		Width:             800,
		Height:            600,
		ImageCacheEntries: 64,
		InboxSize:         256,
		MinPinchZoom:      viewport.DefaultZoomLimits.Min,
		MaxPinchZoom:      viewport.DefaultZoomLimits.Max,
		FontParser:        fonts.DefaultParserName,
	}
}

// Validate reports every invalid field, joined, each wrapping
// ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}
	if c.Width <= 0 || c.Height <= 0 {
		bad("size %dx%d", c.Width, c.Height)
	}
	if c.MaxRasterWorkers < 0 {
		bad("max_raster_workers %d", c.MaxRasterWorkers)
	}
	if c.ImageCacheEntries < 0 {
		bad("image_cache_entries %d", c.ImageCacheEntries)
	}
	if c.InboxSize < 1 {
		bad("inbox_size %d", c.InboxSize)
	}
	if c.MinPinchZoom <= 0 || c.MaxPinchZoom < c.MinPinchZoom {
		bad("pinch zoom range [%g, %g]", c.MinPinchZoom, c.MaxPinchZoom)
	}
	if c.RefreshIntervalMillis < 0 {
		bad("refresh_interval_ms %d", c.RefreshIntervalMillis)
	}
	if _, err := fonts.ParserByName(c.FontParser); err != nil {
		bad("font_parser %q", c.FontParser)
	}
	if c.SurfaceBackend != "" && !slices.Contains(surface.List(), c.SurfaceBackend) {
		bad("surface_backend %q", c.SurfaceBackend)
	}
	return errors.Join(errs...)
}

// ZoomLimits returns the pinch zoom range.
func (c Config) ZoomLimits() viewport.ZoomLimits {
	return viewport.ZoomLimits{Min: c.MinPinchZoom, Max: c.MaxPinchZoom}
}

// RefreshInterval returns the render pacing interval.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMillis) * time.Millisecond
}

// LoadConfig reads a TOML (.toml) or YAML (.yaml, .yml) file over the
// defaults. Unknown keys are errors.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("compositor: load config: %w", err)
	}
	cfg, err := ParseConfig(filepath.Ext(path), data)
	if err != nil {
		return Config{}, fmt.Errorf("compositor: load config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes data in the format named by ext over the defaults
// and validates the result.
func ParseConfig(ext string, data []byte) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(ext) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, err
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document leaves the defaults.
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WatchConfig reloads path whenever it changes and passes the result to fn,
// until ctx is done. The directory is watched so editors that replace the
// file are followed.
func WatchConfig(ctx context.Context, path string, fn func(Config, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("compositor: watch config: %w", err)
	}
	defer w.Close()

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("compositor: watch config: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := LoadConfig(path)
			if err == nil {
				Logger().Info("compositor: config reloaded", "path", path)
			}
			fn(cfg, err)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			Logger().Warn("compositor: config watcher", "err", err)
		}
	}
}
