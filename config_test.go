// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/compositor/viewport"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, viewport.DefaultZoomLimits, cfg.ZoomLimits())
	assert.Zero(t, cfg.RefreshInterval())
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 0
	cfg.InboxSize = 0
	cfg.FontParser = "nope"

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "size 0x600")
	assert.Contains(t, err.Error(), "inbox_size 0")
	assert.Contains(t, err.Error(), `font_parser "nope"`)
}

func TestValidateSurfaceBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SurfaceBackend = "image"
	require.NoError(t, cfg.Validate())

	cfg.SurfaceBackend = "vulkan"
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), `surface_backend "vulkan"`)
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
		want func(*Config)
	}{
		{
			name: "toml",
			ext:  ".toml",
			data: "width = 320\nheight = 240\nrefresh_interval_ms = 16\nfont_parser = \"gotext\"\n",
			want: func(c *Config) {
				c.Width, c.Height = 320, 240
				c.RefreshIntervalMillis = 16
				c.FontParser = "gotext"
			},
		},
		{
			name: "yaml",
			ext:  ".yaml",
			data: "debug: true\nmax_pinch_zoom: 4\nsystem_font_dirs: [/usr/share/fonts]\n",
			want: func(c *Config) {
				c.Debug = true
				c.MaxPinchZoom = 4
				c.SystemFontDirs = []string{"/usr/share/fonts"}
			},
		},
		{
			name: "empty yaml keeps defaults",
			ext:  ".yml",
			data: "",
			want: func(*Config) {},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig(tt.ext, []byte(tt.data))
			require.NoError(t, err)
			want := DefaultConfig()
			tt.want(&want)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig(".toml", []byte("bogus = 1\n"))
	assert.Error(t, err, "unknown toml key")

	_, err = ParseConfig(".yaml", []byte("bogus: 1\n"))
	assert.Error(t, err, "unknown yaml key")

	_, err = ParseConfig(".json", []byte("{}"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = ParseConfig(".toml", []byte("min_pinch_zoom = 5.0\nmax_pinch_zoom = 2.0\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compositor.toml")
	require.NoError(t, os.WriteFile(path, []byte("inbox_size = 8\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.InboxSize)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatchConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compositor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, path, func(cfg Config, err error) {
			if err == nil {
				reloads <- cfg
			}
		})
	}()

	// The watcher starts asynchronously; keep rewriting until it notices.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-reloads:
			if !cfg.Debug {
				continue
			}
			cancel()
			require.NoError(t, <-done)
			return
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0o600))
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
}
