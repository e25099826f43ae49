// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/compositor/displaylist"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/surface"
	"github.com/gogpu/compositor/viewport"
)

type shot struct {
	img *image.RGBA
	err error
}

func startCompositor(t *testing.T, sink Sink, opts ...Option) (*Compositor, *surface.ImageSurface) {
	t.Helper()
	surf := surface.NewImageSurface(64, 64)
	c, err := New(sink, append([]Option{WithSurface(surf)}, opts...)...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("compositor did not stop")
		}
	})
	return c, surf
}

// eventLog reads a ChannelSink and keeps events that were not asked for
// yet.
type eventLog struct {
	sink *ChannelSink
	seen []Event
}

func waitEvent[T Event](t *testing.T, log *eventLog) T {
	t.Helper()
	take := func() (T, bool) {
		for i, ev := range log.seen {
			if v, ok := ev.(T); ok {
				log.seen = append(log.seen[:i], log.seen[i+1:]...)
				return v, true
			}
		}
		var zero T
		return zero, false
	}
	deadline := time.After(5 * time.Second)
	for {
		if v, ok := take(); ok {
			return v
		}
		select {
		case ev := <-log.sink.Events():
			log.seen = append(log.seen, ev)
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestCompositorEndToEnd(t *testing.T) {
	sink := NewChannelSink(64)
	log := &eventLog{sink: sink}
	c, surf := startCompositor(t, sink)

	pipeline := render.PipelineID{Namespace: 1, Index: 1}
	require.NoError(t, c.Send(AddWebView{WebView: 1, Details: viewport.Details{Rect: image.Rect(0, 0, 64, 64)}}))
	require.NoError(t, c.Send(ShowWebView{WebView: 1}))
	require.NoError(t, c.Send(SetFrameTree{WebView: 1, Tree: FrameTree{Pipeline: pipeline}}))

	red := color.RGBA{R: 0xff, A: 0xff}
	ch := displaylist.NewChannel(4)
	info := displaylist.Info{Pipeline: pipeline, Epoch: 1, Contentful: true}
	desc, err := displaylist.Send(ch, &info, &render.DisplayList{Items: []render.Item{{
		Kind: render.ItemRect, Bounds: render.RectWH(0, 0, 10, 10), Color: red,
	}}})
	require.NoError(t, err)
	require.NoError(t, c.Send(NewDisplayList{WebView: 1, Descriptor: desc, Receiver: ch}))
	require.NoError(t, c.Send(GenerateFrameForScript{}))

	shots := make(chan shot, 1)
	require.NoError(t, c.Send(RequestScreenshot{WebView: 1, Done: func(img *image.RGBA, err error) {
		shots <- shot{img, err}
	}}))
	ready := waitEvent[RequestScreenshotReadiness](t, log)
	assert.Equal(t, viewport.ID(1), ready.WebView)
	require.NoError(t, c.Send(ScreenshotReadinessReply{
		WebView: 1,
		Epochs:  map[render.PipelineID]render.Epoch{pipeline: 1},
	}))

	select {
	case s := <-shots:
		require.NoError(t, s.err)
		assert.Equal(t, image.Pt(64, 64), s.img.Bounds().Size())
		assert.Equal(t, red, s.img.RGBAAt(2, 2))
	case <-time.After(5 * time.Second):
		t.Fatal("screenshot not captured")
	}

	fp := waitEvent[PaintMetricEvent](t, log)
	assert.Equal(t, pipeline, fp.Pipeline)
	assert.Equal(t, viewport.FirstPaint, fp.Metric)
	assert.Positive(t, surf.Presents())
}

func TestCompositorSendAfterClose(t *testing.T) {
	c, err := New(nil, WithSurface(surface.NewImageSurface(8, 8)))
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Send(Tick{}), ErrClosed)
	assert.ErrorIs(t, c.Reconfigure(DefaultConfig()), ErrClosed)
}

func TestCompositorReconfigureValidates(t *testing.T) {
	c, _ := startCompositor(t, nil)
	cfg := DefaultConfig()
	cfg.Width = 0
	assert.ErrorIs(t, c.Reconfigure(cfg), ErrInvalidConfig)
}

func TestCompositorMemoryReport(t *testing.T) {
	c, _ := startCompositor(t, nil)
	reply := make(chan render.MemoryReport, 1)
	require.NoError(t, c.Send(CollectMemoryReport{Reply: reply}))
	select {
	case <-reply:
	case <-time.After(5 * time.Second):
		t.Fatal("no memory report")
	}
}

func TestNewEngineFactoryError(t *testing.T) {
	boom := assert.AnError
	_, err := New(nil, WithSurface(surface.NewImageSurface(8, 8)), WithEngine(func(EngineParams) (render.Engine, error) {
		return nil, boom
	}))
	assert.ErrorIs(t, err, boom)
}
