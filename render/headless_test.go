// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"
	"testing"
	"time"

	"gioui.org/f32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameCounter chan bool

func (c frameCounter) NewFrameReady(composite bool) { c <- composite }

func (c frameCounter) wait(t *testing.T) {
	t.Helper()
	select {
	case composite := <-c:
		assert.True(t, composite)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func newTestEngine(t *testing.T, opts HeadlessOptions) (*Headless, frameCounter) {
	t.Helper()
	frames := make(frameCounter, 16)
	h := NewHeadless(frames, opts)
	t.Cleanup(h.Shutdown)
	return h, frames
}

var (
	red   = color.RGBA{R: 0xff, A: 0xff}
	green = color.RGBA{G: 0xff, A: 0xff}
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

var content = PipelineID{Namespace: 1, Index: 1}

// rootWith embeds content at the given offset and scale, the way the
// compositor stacks a viewport.
func rootWith(offset f32.Point, scale float32, w, h float32) *DisplayList {
	t := f32.Affine2D{}.Scale(f32.Point{}, f32.Pt(scale, scale)).Offset(offset)
	return &DisplayList{
		Pipeline: RootPipelineID,
		Items: []Item{
			{Kind: ItemPushReferenceFrame, Transform: t},
			{Kind: ItemIframe, Bounds: RectWH(0, 0, w, h), Pipeline: content},
			{Kind: ItemPopReferenceFrame},
		},
	}
}

func TestHeadlessRendersNestedPipeline(t *testing.T) {
	h, frames := newTestEngine(t, HeadlessOptions{MaxWorkers: 2, Background: white})

	tx := NewTransaction()
	tx.SetRootPipeline(RootPipelineID)
	tx.SetDisplayList(RootEpoch, rootWith(f32.Pt(10, 0), 2, 20, 20))
	tx.SetDisplayList(3, &DisplayList{
		Pipeline: content,
		Items:    []Item{{Kind: ItemRect, Bounds: RectWH(0, 0, 5, 5), Color: red}},
	})
	tx.GenerateFrame()
	h.SendTransaction(tx)
	frames.wait(t)

	_, ok := h.CurrentEpoch(content)
	assert.False(t, ok, "epoch is reported only after Render")

	require.NoError(t, h.Render(image.Pt(64, 32)))

	epoch, ok := h.CurrentEpoch(content)
	require.True(t, ok)
	assert.Equal(t, Epoch(3), epoch)

	img, err := h.ReadPixels(image.Rectangle{})
	require.NoError(t, err)
	assert.Equal(t, red, img.RGBAAt(10, 0))
	assert.Equal(t, red, img.RGBAAt(19, 9))
	assert.Equal(t, white, img.RGBAAt(20, 10))
	assert.Equal(t, white, img.RGBAAt(9, 0))

	stats := h.Stats()
	assert.Equal(t, 1, stats.Items)
	assert.Equal(t, uint64(1), stats.Frames)
}

func TestHeadlessIframeClipsContent(t *testing.T) {
	h, frames := newTestEngine(t, HeadlessOptions{MaxWorkers: 1, Background: white})

	tx := NewTransaction()
	tx.SetRootPipeline(RootPipelineID)
	tx.SetDisplayList(RootEpoch, rootWith(f32.Point{}, 1, 8, 8))
	tx.SetDisplayList(1, &DisplayList{
		Pipeline: content,
		Items:    []Item{{Kind: ItemRect, Bounds: RectWH(0, 0, 100, 100), Color: red}},
	})
	tx.GenerateFrame()
	h.SendTransaction(tx)
	frames.wait(t)

	require.NoError(t, h.Render(image.Pt(16, 16)))
	img, err := h.ReadPixels(image.Rectangle{})
	require.NoError(t, err)
	assert.Equal(t, red, img.RGBAAt(7, 7))
	assert.Equal(t, white, img.RGBAAt(8, 8))
}

func TestHeadlessScrollOffsets(t *testing.T) {
	h, frames := newTestEngine(t, HeadlessOptions{MaxWorkers: 2, Background: white})

	const node ExternalScrollID = 42
	tx := NewTransaction()
	tx.SetRootPipeline(RootPipelineID)
	tx.SetDisplayList(RootEpoch, rootWith(f32.Point{}, 1, 32, 32))
	tx.SetDisplayList(1, &DisplayList{
		Pipeline: content,
		Items: []Item{
			{Kind: ItemRect, Bounds: RectWH(0, 10, 4, 4), Color: red, ScrollNode: node},
		},
	})
	tx.ScrollNodeWithID(content, node, f32.Pt(0, 10))
	tx.GenerateFrame()
	h.SendTransaction(tx)
	frames.wait(t)

	require.NoError(t, h.Render(image.Pt(32, 32)))
	img, err := h.ReadPixels(image.Rectangle{})
	require.NoError(t, err)
	assert.Equal(t, red, img.RGBAAt(0, 0))
	assert.Equal(t, white, img.RGBAAt(0, 10))
}

func TestHeadlessDisplayListResetsScroll(t *testing.T) {
	h, frames := newTestEngine(t, HeadlessOptions{MaxWorkers: 1, Background: white})

	const node ExternalScrollID = 7
	list := &DisplayList{
		Pipeline: content,
		Items:    []Item{{Kind: ItemRect, Bounds: RectWH(0, 10, 4, 4), Color: red, ScrollNode: node}},
	}

	tx := NewTransaction()
	tx.SetRootPipeline(RootPipelineID)
	tx.SetDisplayList(RootEpoch, rootWith(f32.Point{}, 1, 32, 32))
	tx.SetDisplayList(1, list)
	tx.ScrollNodeWithID(content, node, f32.Pt(0, 10))
	tx.GenerateFrame()
	h.SendTransaction(tx)
	frames.wait(t)

	tx = NewTransaction()
	tx.SetDisplayList(2, list)
	tx.GenerateFrame()
	h.SendTransaction(tx)
	frames.wait(t)

	require.NoError(t, h.Render(image.Pt(32, 32)))
	img, err := h.ReadPixels(image.Rectangle{})
	require.NoError(t, err)
	assert.Equal(t, white, img.RGBAAt(0, 0))
	assert.Equal(t, red, img.RGBAAt(0, 10))
}

func TestHeadlessImages(t *testing.T) {
	h, frames := newTestEngine(t, HeadlessOptions{MaxWorkers: 2, Background: white})

	alloc := NewKeyAllocator(h.IDNamespace())
	present, absent := alloc.ImageKey(), alloc.ImageKey()

	// 2x1 BGRA: green then red.
	desc := ImageDescriptor{Width: 2, Height: 1, Format: gputypes.TextureFormatBGRA8Unorm}
	raw := []byte{0, 0xff, 0, 0xff, 0, 0, 0xff, 0xff}

	tx := NewTransaction()
	tx.AddImage(present, desc, ImageData{Raw: raw})
	tx.SetRootPipeline(RootPipelineID)
	tx.SetDisplayList(RootEpoch, rootWith(f32.Point{}, 1, 32, 32))
	tx.SetDisplayList(1, &DisplayList{
		Pipeline: content,
		Items: []Item{
			{Kind: ItemImage, Bounds: RectWH(0, 0, 8, 4), Image: present},
			{Kind: ItemImage, Bounds: RectWH(0, 8, 8, 4), Image: absent},
		},
	})
	tx.GenerateFrame()
	h.SendTransaction(tx)
	frames.wait(t)

	require.NoError(t, h.Render(image.Pt(16, 16)))
	img, err := h.ReadPixels(image.Rectangle{})
	require.NoError(t, err)
	assert.Equal(t, green, img.RGBAAt(1, 1))
	assert.Equal(t, red, img.RGBAAt(6, 1))
	assert.Equal(t, white, img.RGBAAt(1, 9))
	assert.Equal(t, 1, h.Stats().MissingImages)

	report := h.MemoryReport()
	assert.Equal(t, int64(len(raw)), report.Images)
	assert.Equal(t, int64(2*1*4), report.ImageCache)
	assert.Equal(t, int64(16*16*4), report.Framebuffer)

	tx = NewTransaction()
	tx.DeleteImage(present)
	tx.GenerateFrame()
	h.SendTransaction(tx)
	frames.wait(t)

	require.NoError(t, h.Render(image.Pt(16, 16)))
	assert.Equal(t, 2, h.Stats().MissingImages)
	assert.Zero(t, h.MemoryReport().ImageCache)
}

func TestHeadlessExternalImages(t *testing.T) {
	registry := NewExternalImages()
	store := NewFrameStore()
	registry.Register(ExternalCanvas, store)
	const canvas ExternalImageID = 9
	require.NoError(t, registry.Bind(canvas, ExternalCanvas))

	pixels := image.NewRGBA(image.Rect(0, 0, 1, 1))
	pixels.SetRGBA(0, 0, green)
	store.Publish(canvas, pixels)

	h, frames := newTestEngine(t, HeadlessOptions{MaxWorkers: 1, Background: white, External: registry})
	key := NewKeyAllocator(h.IDNamespace()).ImageKey()

	tx := NewTransaction()
	tx.AddImage(key, ImageDescriptor{Width: 1, Height: 1, Format: gputypes.TextureFormatRGBA8Unorm}, ImageData{External: canvas})
	tx.SetRootPipeline(RootPipelineID)
	tx.SetDisplayList(RootEpoch, rootWith(f32.Point{}, 1, 8, 8))
	tx.SetDisplayList(1, &DisplayList{
		Pipeline: content,
		Items:    []Item{{Kind: ItemImage, Bounds: RectWH(0, 0, 4, 4), Image: key}},
	})
	tx.GenerateFrame()
	h.SendTransaction(tx)
	frames.wait(t)

	require.NoError(t, h.Render(image.Pt(8, 8)))
	img, err := h.ReadPixels(image.Rect(0, 0, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, green, img.RGBAAt(3, 3))
	assert.Zero(t, store.Locked(canvas), "locks are released after raster")
}

func TestHeadlessIframeCycle(t *testing.T) {
	h, frames := newTestEngine(t, HeadlessOptions{MaxWorkers: 1, Background: white})

	tx := NewTransaction()
	tx.SetRootPipeline(RootPipelineID)
	tx.SetDisplayList(RootEpoch, rootWith(f32.Point{}, 1, 8, 8))
	tx.SetDisplayList(1, &DisplayList{
		Pipeline: content,
		Items: []Item{
			{Kind: ItemRect, Bounds: RectWH(0, 0, 1, 1), Color: red},
			{Kind: ItemIframe, Bounds: RectWH(0, 0, 8, 8), Pipeline: content},
		},
	})
	tx.GenerateFrame()
	h.SendTransaction(tx)
	frames.wait(t)

	require.NoError(t, h.Render(image.Pt(8, 8)))
	assert.Equal(t, 1, h.Stats().Items)
}

func TestHeadlessOneNotificationPerGenerate(t *testing.T) {
	h, frames := newTestEngine(t, HeadlessOptions{MaxWorkers: 1})

	for i := range 5 {
		tx := NewTransaction()
		tx.UpdateEpoch(content, Epoch(i))
		if i%2 == 0 {
			tx.GenerateFrame()
		}
		h.SendTransaction(tx)
	}
	for range 3 {
		frames.wait(t)
	}
	select {
	case <-frames:
		t.Fatal("unexpected extra notification")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHeadlessReadPixelsBeforeRender(t *testing.T) {
	h, _ := newTestEngine(t, HeadlessOptions{})
	_, err := h.ReadPixels(image.Rect(0, 0, 1, 1))
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestHeadlessRenderWithoutFrame(t *testing.T) {
	h, _ := newTestEngine(t, HeadlessOptions{Background: white})
	require.NoError(t, h.Render(image.Pt(4, 4)))
	img, err := h.ReadPixels(image.Rectangle{})
	require.NoError(t, err)
	assert.Equal(t, white, img.RGBAAt(3, 3))
	_, ok := h.CurrentEpoch(content)
	assert.False(t, ok)
}

func TestHeadlessShutdown(t *testing.T) {
	h, _ := newTestEngine(t, HeadlessOptions{})
	h.Shutdown()
	h.Shutdown()
	assert.ErrorIs(t, h.Render(image.Pt(1, 1)), ErrShutDown)

	tx := NewTransaction()
	tx.GenerateFrame()
	h.SendTransaction(tx)
}

func TestHeadlessRejectsInvalidSize(t *testing.T) {
	h, _ := newTestEngine(t, HeadlessOptions{})
	assert.Error(t, h.Render(image.Pt(0, 10)))
}
