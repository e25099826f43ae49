// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"image"

	"gioui.org/f32"

	"github.com/gogpu/compositor/displaylist"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/viewport"
)

// Message is one inbound operation on the compositor. Messages are handled
// strictly in arrival order on the compositor goroutine.
type Message interface {
	isMessage()
}

// FrameTree is the pipeline tree of a webview: the root document and its
// nested frames.
type FrameTree struct {
	Pipeline render.PipelineID
	Children []FrameTree
}

// Walk calls fn for every pipeline of the tree, parents first.
func (t FrameTree) Walk(fn func(render.PipelineID)) {
	fn(t.Pipeline)
	for _, c := range t.Children {
		c.Walk(fn)
	}
}

// SetFrameTree installs the pipeline tree of a webview. Its root pipeline
// becomes the pipeline the root scene embeds for the webview.
type SetFrameTree struct {
	WebView viewport.ID
	Tree    FrameTree
}

// AddWebView creates a hidden webview.
type AddWebView struct {
	WebView viewport.ID
	Details viewport.Details
}

// RemoveWebView destroys a webview. Result, when set, receives the outcome
// and must be buffered.
type RemoveWebView struct {
	WebView viewport.ID
	Result  chan<- error
}

// ShowWebView shows a webview on top of the shown ones.
type ShowWebView struct {
	WebView    viewport.ID
	HideOthers bool
	Result     chan<- error
}

// HideWebView hides a webview.
type HideWebView struct {
	WebView viewport.ID
	Result  chan<- error
}

// RaiseWebViewToTop moves a webview to the top of the paint order, showing
// it if needed.
type RaiseWebViewToTop struct {
	WebView    viewport.ID
	HideOthers bool
	Result     chan<- error
}

// MoveResizeWebView sets the device-pixel rectangle of a webview.
type MoveResizeWebView struct {
	WebView viewport.ID
	Rect    image.Rectangle
}

// SetHiDPIScale sets the device pixel ratio of a webview.
type SetHiDPIScale struct {
	WebView viewport.ID
	Scale   float32
}

// SetPageZoom sets the page zoom of a webview.
type SetPageZoom struct {
	WebView viewport.ID
	Zoom    float32
}

// NewDisplayList announces a display list waiting on Receiver as four
// chunks described by Descriptor.
type NewDisplayList struct {
	WebView    viewport.ID
	Descriptor displaylist.Descriptor
	Receiver   displaylist.Receiver
}

// UpdateEpoch advances a pipeline's epoch without a new display list.
type UpdateEpoch struct {
	WebView  viewport.ID
	Pipeline render.PipelineID
	Epoch    render.Epoch
}

// GenerateFrameForScript is sent by content once an "update the rendering"
// pass finished.
type GenerateFrameForScript struct{}

// DelayFramesForCanvas holds frame generation until each image has been
// uploaded at Epoch or later.
type DelayFramesForCanvas struct {
	Pipeline render.PipelineID
	Epoch    render.Epoch
	Images   []render.ImageKey
}

// UpdateImages applies a batch of image adds, updates and deletes.
type UpdateImages struct {
	Updates []render.ImageUpdateEntry
}

// ScrollNodeByDelta scrolls one node of a pipeline by Delta page pixels.
type ScrollNodeByDelta struct {
	WebView  viewport.ID
	Pipeline render.PipelineID
	Node     render.ExternalScrollID
	Delta    f32.Point
}

// ScrollViewportByDelta scrolls a webview by Delta device pixels, panning a
// pinch-zoomed view first.
type ScrollViewportByDelta struct {
	WebView viewport.ID
	Delta   f32.Point
}

// PinchZoom zooms a webview by Factor around Center, in view-relative
// device pixels.
type PinchZoom struct {
	WebView viewport.ID
	Factor  float32
	Center  f32.Point
}

// NotifyInputEvent routes an input event to a webview.
type NotifyInputEvent struct {
	WebView viewport.ID
	Event   InputEvent
}

// NotifyScrollEvent reports a scroll performed by content, such as a script
// calling scrollTo. Offset is absolute.
type NotifyScrollEvent struct {
	WebView  viewport.ID
	Pipeline render.PipelineID
	Node     render.ExternalScrollID
	Offset   f32.Point
}

// PipelineExited reports that a pipeline shut down.
type PipelineExited struct {
	WebView  viewport.ID
	Pipeline render.PipelineID
}

// AddFont adds font data. Index selects a face in a collection.
type AddFont struct {
	Key   render.FontKey
	Data  []byte
	Index int
}

// AddSystemFont adds an installed font by family name.
type AddSystemFont struct {
	Key    render.FontKey
	Family string
}

// AddFontInstance adds a sized instance of a font.
type AddFontInstance struct {
	Key  render.FontInstanceKey
	Font render.FontKey
	Size float32
}

// RemoveFonts removes fonts, their instances and the listed instances.
type RemoveFonts struct {
	Fonts     []render.FontKey
	Instances []render.FontInstanceKey
}

// GenerateImageKey replies with one fresh image key. Reply must be buffered.
type GenerateImageKey struct {
	Reply chan<- render.ImageKey
}

// GenerateImageKeys replies with N fresh image keys.
type GenerateImageKeys struct {
	N     int
	Reply chan<- []render.ImageKey
}

// FontKeys is the reply to GenerateFontKeys.
type FontKeys struct {
	Fonts     []render.FontKey
	Instances []render.FontInstanceKey
}

// GenerateFontKeys replies with fresh font and font instance keys.
type GenerateFontKeys struct {
	Fonts     int
	Instances int
	Reply     chan<- FontKeys
}

// RequestScreenshot captures a webview once content reports which epochs
// must be on screen. Rect is view-relative; nil captures the whole view.
// Done runs on the compositor goroutine.
type RequestScreenshot struct {
	WebView viewport.ID
	Rect    *image.Rectangle
	Done    func(*image.RGBA, error)
}

// ScreenshotReadinessReply answers RequestScreenshotReadiness with the
// epoch each pipeline must reach before capture.
type ScreenshotReadinessReply struct {
	WebView viewport.ID
	Epochs  map[render.PipelineID]render.Epoch
}

// CollectMemoryReport replies with the engine's memory report.
type CollectMemoryReport struct {
	Reply chan<- render.MemoryReport
}

// NewFrameReady is the engine's render-complete notification.
type NewFrameReady struct {
	Composite bool
}

// Tick retries a render pass deferred by the refresh gate.
type Tick struct{}

// Reconfigure applies the reloadable part of a configuration.
type Reconfigure struct {
	Config Config
}

func (SetFrameTree) isMessage()             {}
func (AddWebView) isMessage()               {}
func (RemoveWebView) isMessage()            {}
func (ShowWebView) isMessage()              {}
func (HideWebView) isMessage()              {}
func (RaiseWebViewToTop) isMessage()        {}
func (MoveResizeWebView) isMessage()        {}
func (SetHiDPIScale) isMessage()            {}
func (SetPageZoom) isMessage()              {}
func (NewDisplayList) isMessage()           {}
func (UpdateEpoch) isMessage()              {}
func (GenerateFrameForScript) isMessage()   {}
func (DelayFramesForCanvas) isMessage()     {}
func (UpdateImages) isMessage()             {}
func (ScrollNodeByDelta) isMessage()        {}
func (ScrollViewportByDelta) isMessage()    {}
func (PinchZoom) isMessage()                {}
func (NotifyInputEvent) isMessage()         {}
func (NotifyScrollEvent) isMessage()        {}
func (PipelineExited) isMessage()           {}
func (AddFont) isMessage()                  {}
func (AddSystemFont) isMessage()            {}
func (AddFontInstance) isMessage()          {}
func (RemoveFonts) isMessage()              {}
func (GenerateImageKey) isMessage()         {}
func (GenerateImageKeys) isMessage()        {}
func (GenerateFontKeys) isMessage()         {}
func (RequestScreenshot) isMessage()        {}
func (ScreenshotReadinessReply) isMessage() {}
func (CollectMemoryReport) isMessage()      {}
func (NewFrameReady) isMessage()            {}
func (Tick) isMessage()                     {}
func (Reconfigure) isMessage()              {}

// InputEvent is an input event relevant to compositing.
type InputEvent interface {
	isInputEvent()
}

// WheelEvent scrolls by Delta device pixels at Position.
type WheelEvent struct {
	Position f32.Point
	Delta    f32.Point
}

// PinchEvent is a touchpad or touch pinch gesture.
type PinchEvent struct {
	Factor float32
	Center f32.Point
}

// PointerMoveEvent moves the pointer to Position.
type PointerMoveEvent struct {
	Position f32.Point
}

func (WheelEvent) isInputEvent()       {}
func (PinchEvent) isInputEvent()       {}
func (PointerMoveEvent) isInputEvent() {}
