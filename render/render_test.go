// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"
	"testing"

	"gioui.org/f32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	shutdowns int
}

func (*stubEngine) IDNamespace() IDNamespace                       { return 1 }
func (*stubEngine) SendTransaction(*Transaction)                   {}
func (*stubEngine) CurrentEpoch(PipelineID) (Epoch, bool)          { return 0, false }
func (*stubEngine) Render(image.Point) error                       { return nil }
func (*stubEngine) ReadPixels(image.Rectangle) (*image.RGBA, error) { return nil, ErrNoFrame }
func (*stubEngine) MemoryReport() MemoryReport                     { return MemoryReport{} }
func (e *stubEngine) Shutdown()                                    { e.shutdowns++ }

func TestHandleLifecycle(t *testing.T) {
	e := &stubEngine{}
	h := NewHandle(e)

	got, ok := h.Active()
	require.True(t, ok)
	assert.Same(t, e, got)
	assert.False(t, h.IsShutDown())

	require.NoError(t, h.Shutdown())
	assert.True(t, h.IsShutDown())
	_, ok = h.Active()
	assert.False(t, ok)

	assert.ErrorIs(t, h.Shutdown(), ErrShutDown)
	assert.Equal(t, 1, e.shutdowns)
}

func TestZeroHandleIsShutDown(t *testing.T) {
	var h Handle
	assert.True(t, h.IsShutDown())
	assert.ErrorIs(t, h.Shutdown(), ErrShutDown)
}

func TestPipelineID(t *testing.T) {
	assert.True(t, PipelineID{}.IsZero())
	assert.True(t, RootPipelineID.IsReserved())
	assert.False(t, RootPipelineID.IsZero())
	assert.False(t, PipelineID{Namespace: 1, Index: 1}.IsReserved())
	assert.Equal(t, "(0,1)", RootPipelineID.String())
	assert.Equal(t, Epoch(4), Epoch(3).Next())
}

func TestKeyAllocator(t *testing.T) {
	a := NewKeyAllocator(3)
	assert.Equal(t, ImageKey{Namespace: 3, Index: 1}, a.ImageKey())
	keys := a.ImageKeys(2)
	assert.Equal(t, []ImageKey{{3, 2}, {3, 3}}, keys)
	assert.Equal(t, FontKey{Namespace: 3, Index: 4}, a.FontKey())
	assert.Equal(t, FontInstanceKey{Namespace: 3, Index: 5}, a.FontInstanceKey())
	assert.Empty(t, a.ImageKeys(0))
	assert.Empty(t, a.ImageKeys(-1))
}

func TestTransaction(t *testing.T) {
	tx := NewTransaction()
	assert.True(t, tx.IsEmpty())

	tx.GenerateFrame()
	assert.False(t, tx.IsEmpty())
	assert.True(t, tx.GeneratesFrame())

	tx = NewTransaction()
	p := PipelineID{Namespace: 1, Index: 2}
	tx.SetRootPipeline(RootPipelineID)
	tx.ScrollNodeWithID(p, 5, f32.Pt(0, 3))
	tx.RemovePipeline(p)
	require.Len(t, tx.Ops(), 3)
	assert.Equal(t, SetRootPipelineOp{Pipeline: RootPipelineID}, tx.Ops()[0])
	assert.Equal(t, ScrollNodeOp{Pipeline: p, Node: 5, Offset: f32.Pt(0, 3)}, tx.Ops()[1])
	assert.Equal(t, RemovePipelineOp{Pipeline: p}, tx.Ops()[2])
	assert.False(t, tx.GeneratesFrame())
}

func TestRect(t *testing.T) {
	r := RectWH(1, 2, 3, 4)
	assert.Equal(t, float32(3), r.Width())
	assert.Equal(t, float32(4), r.Height())
	assert.False(t, r.IsEmpty())
	assert.True(t, r.Intersect(RectWH(10, 10, 1, 1)).IsEmpty())

	tr := f32.Affine2D{}.Scale(f32.Point{}, f32.Pt(2, 2)).Offset(f32.Pt(5, 0))
	assert.Equal(t, Rect{MinX: 7, MinY: 4, MaxX: 13, MaxY: 12}, r.Transform(tr))
	assert.Equal(t, Rect{MinX: 2, MinY: 2, MaxX: 5, MaxY: 6}, r.Offset(f32.Pt(1, 0)))
}

func TestDisplayListImageKeys(t *testing.T) {
	a, b := ImageKey{1, 1}, ImageKey{1, 2}
	dl := &DisplayList{Items: []Item{
		{Kind: ItemImage, Image: b},
		{Kind: ItemRect},
		{Kind: ItemImage, Image: a},
		{Kind: ItemImage, Image: b},
	}}
	assert.Equal(t, []ImageKey{b, a}, dl.ImageKeys())

	var nilList *DisplayList
	assert.Nil(t, nilList.ImageKeys())
}

func TestImageDescriptorValidate(t *testing.T) {
	tests := []struct {
		name string
		desc ImageDescriptor
		n    int
		err  error
	}{
		{"rgba", ImageDescriptor{Width: 2, Height: 2, Format: gputypes.TextureFormatRGBA8Unorm}, 16, nil},
		{"padded stride", ImageDescriptor{Width: 2, Height: 2, Format: gputypes.TextureFormatRGBA8Unorm, Stride: 12}, 20, nil},
		{"short", ImageDescriptor{Width: 2, Height: 2, Format: gputypes.TextureFormatRGBA8Unorm}, 15, ErrInvalidImage},
		{"stride too small", ImageDescriptor{Width: 2, Height: 1, Format: gputypes.TextureFormatR8Unorm, Stride: 1}, 8, ErrInvalidImage},
		{"empty", ImageDescriptor{Format: gputypes.TextureFormatR8Unorm}, 0, ErrInvalidImage},
		{"depth", ImageDescriptor{Width: 1, Height: 1, Format: gputypes.TextureFormatDepth24PlusStencil8}, 4, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate(tt.n)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDecodeRGBA(t *testing.T) {
	gray := ImageDescriptor{Width: 2, Height: 1, Format: gputypes.TextureFormatR8Unorm}
	img, err := decodeRGBA(gray, []byte{0x10, 0x20})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}, img.RGBAAt(1, 0))

	opaque := ImageDescriptor{Width: 1, Height: 1, Format: gputypes.TextureFormatRGBA8Unorm, Opaque: true}
	img, err = decodeRGBA(opaque, []byte{1, 2, 3, 0})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 0xff}, img.RGBAAt(0, 0))

	_, err = decodeRGBA(opaque, nil)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestExternalImages(t *testing.T) {
	r := NewExternalImages()

	var notRegistered *HandlerNotRegisteredError
	require.ErrorAs(t, r.Bind(1, ExternalWebGL), &notRegistered)
	assert.Equal(t, ExternalWebGL, notRegistered.Type)

	store := NewFrameStore()
	r.Register(ExternalWebGL, store)
	r.Register(ExternalCanvas, NewFrameStore())
	assert.Equal(t, []ExternalImageType{ExternalCanvas, ExternalWebGL}, r.Types())
	require.NoError(t, r.Bind(1, ExternalWebGL))

	var unknown *UnknownExternalImageError
	_, err := r.Lock(1)
	require.ErrorAs(t, err, &unknown, "bound but nothing published")

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	store.Publish(1, img)
	got, err := r.Lock(1)
	require.NoError(t, err)
	assert.Same(t, img, got)
	assert.Equal(t, 1, store.Locked(1))
	r.Unlock(1)
	assert.Zero(t, store.Locked(1))

	r.Unregister(ExternalWebGL)
	_, err = r.Lock(1)
	assert.ErrorAs(t, err, &notRegistered)

	r.Unbind(1)
	_, err = r.Lock(1)
	assert.ErrorAs(t, err, &unknown)
}

func TestFrameStoreConcurrentPublish(t *testing.T) {
	store := NewFrameStore()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			store.Publish(1, image.NewRGBA(image.Rect(0, 0, 1, 1)))
		}
	}()
	for range 100 {
		if _, ok := store.Lock(1); ok {
			store.Unlock(1)
		}
	}
	<-done
	assert.Zero(t, store.Locked(1))
}

func TestMemoryReportTotal(t *testing.T) {
	m := MemoryReport{Images: 1, ImageCache: 2, DisplayLists: 3, Fonts: 4, Framebuffer: 5}
	assert.Equal(t, int64(15), m.Total())
}
