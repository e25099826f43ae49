// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/compositor/fonts"
	"github.com/gogpu/compositor/framedelay"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/scene"
	"github.com/gogpu/compositor/surface"
	"github.com/gogpu/compositor/viewport"
)

// ErrUnknownWebView is returned for ids no webview has.
var ErrUnknownWebView = errors.New("compositor: unknown webview")

// placeholderEpoch tags the empty display list a new root pipeline gets.
// Content epochs start above it, so a paint metric never resolves against
// the placeholder.
const placeholderEpoch render.Epoch = 0

// Painter is the frame coordinator. It owns the viewport collection, the
// frame delay tracker and the in-flight frame counter, turns inbound
// messages into engine transactions and runs render passes.
//
// A Painter is not safe for concurrent use. Compositor drives one from a
// single goroutine; hosts with their own event loop may call Handle and
// Render directly.
type Painter struct {
	cfg     Config
	engine  render.Handle
	surface surface.Surface
	sink    Sink
	gate    RefreshGate
	ownGate bool
	clock   Clock

	views    *viewport.Collection
	delays   *framedelay.Tracker
	keys     *render.KeyAllocator
	fonts    *fonts.Table
	system   fonts.SystemSource
	external *render.ExternalImages

	pendingFrames int
	repaint       RepaintReason
	screenshots   []*screenshot
}

// NewPainter wraps engine. Render-complete notifications from engine must
// be delivered back through Handle(NewFrameReady{...}) on the painter's
// goroutine. A nil sink discards events.
func NewPainter(engine render.Engine, sink Sink, opts ...Option) (*Painter, error) {
	return newPainter(engine, sink, buildOptions(opts))
}

func newPainter(engine render.Engine, sink Sink, o options) (*Painter, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	parser, err := fonts.ParserByName(o.cfg.FontParser)
	if err != nil {
		return nil, err
	}
	s := o.surface
	if s == nil {
		if s, err = newSurface(o); err != nil {
			return nil, fmt.Errorf("compositor: create surface: %w", err)
		}
	}
	if sink == nil {
		sink = DiscardSink
	}
	gate, ownGate := o.gate, o.gate == nil
	if ownGate {
		gate = gateFor(o.cfg.RefreshInterval())
	}

	p := &Painter{
		cfg:      o.cfg,
		engine:   render.NewHandle(engine),
		surface:  s,
		sink:     sink,
		gate:     gate,
		ownGate:  ownGate,
		clock:    o.clock,
		views:    viewport.NewCollection(o.cfg.ZoomLimits()),
		delays:   framedelay.New(),
		keys:     render.NewKeyAllocator(engine.IDNamespace()),
		fonts:    fonts.NewTable(parser),
		system:   o.systemFonts,
		external: o.external,
	}
	attachLogger(engine)

	// Establish the root pipeline before any content arrives.
	tx := render.NewTransaction()
	scene.BuildRootScene(tx, p.views)
	p.send(tx)

	Logger().Info("compositor: painter started",
		"namespace", engine.IDNamespace(), "surface", fmt.Sprintf("%T", s), "size", s.Size())
	return p, nil
}


// newSurface creates the drawable from the surface registry.
func newSurface(o options) (surface.Surface, error) {
	opts := surface.Options{
		Width:    o.cfg.Width,
		Height:   o.cfg.Height,
		Provider: o.provider,
		Target:   o.target,
	}
	Logger().Debug("compositor: surface backends", "available", surface.Available(), "requested", o.cfg.SurfaceBackend)
	if o.cfg.SurfaceBackend != "" {
		return surface.NewSurfaceByName(o.cfg.SurfaceBackend, opts)
	}
	return surface.NewSurface(opts)
}

// Handle processes one inbound message.
func (p *Painter) Handle(msg Message) {
	switch m := msg.(type) {
	case SetFrameTree:
		p.setFrameTree(m.WebView, m.Tree)
	case AddWebView:
		p.AddWebView(m.WebView, m.Details)
	case RemoveWebView:
		p.reply(m.Result, "remove webview", m.WebView, p.RemoveWebView(m.WebView))
	case ShowWebView:
		p.reply(m.Result, "show webview", m.WebView, p.ShowWebView(m.WebView, m.HideOthers))
	case HideWebView:
		p.reply(m.Result, "hide webview", m.WebView, p.HideWebView(m.WebView))
	case RaiseWebViewToTop:
		p.reply(m.Result, "raise webview", m.WebView, p.RaiseWebViewToTop(m.WebView, m.HideOthers))
	case MoveResizeWebView:
		p.moveResize(m.WebView, m.Rect)
	case SetHiDPIScale:
		p.setScale(m.WebView, func(e *viewport.Entry) bool { return e.SetHiDPIScale(m.Scale) })
	case SetPageZoom:
		p.setScale(m.WebView, func(e *viewport.Entry) bool { return e.SetPageZoom(m.Zoom) })
	case NewDisplayList:
		p.newDisplayList(m)
	case UpdateEpoch:
		p.updateEpoch(m)
	case GenerateFrameForScript:
		p.generateFrameForScript()
	case DelayFramesForCanvas:
		p.delays.RecordDelay(m.Pipeline, m.Epoch, m.Images)
	case UpdateImages:
		p.updateImages(m.Updates)
	case ScrollNodeByDelta:
		p.scrollNode(m)
	case ScrollViewportByDelta:
		p.scrollViewport(m.WebView, m.Delta)
	case PinchZoom:
		p.pinchZoom(m.WebView, m.Factor, m.Center)
	case NotifyInputEvent:
		p.inputEvent(m.WebView, m.Event)
	case NotifyScrollEvent:
		p.scrollEvent(m)
	case PipelineExited:
		p.pipelineExited(m.WebView, m.Pipeline)
	case AddFont:
		p.addFont(m.Key, m.Data, m.Index)
	case AddSystemFont:
		p.addSystemFont(m.Key, m.Family)
	case AddFontInstance:
		p.addFontInstance(m)
	case RemoveFonts:
		p.removeFonts(m.Fonts, m.Instances)
	case GenerateImageKey:
		replyTo(m.Reply, p.keys.ImageKey(), "image key")
	case GenerateImageKeys:
		replyTo(m.Reply, p.keys.ImageKeys(m.N), "image keys")
	case GenerateFontKeys:
		p.generateFontKeys(m)
	case RequestScreenshot:
		p.requestScreenshot(m)
	case ScreenshotReadinessReply:
		p.screenshotReadiness(m.WebView, m.Epochs)
	case CollectMemoryReport:
		replyTo(m.Reply, p.MemoryReport(), "memory report")
	case NewFrameReady:
		p.frameReady(m.Composite)
	case Tick:
		p.Render()
	case Reconfigure:
		if err := p.Reconfigure(m.Config); err != nil {
			Logger().Warn("compositor: reconfigure rejected", "err", err)
		}
	default:
		Logger().Warn("compositor: unhandled message", "type", fmt.Sprintf("%T", msg))
	}
}

// reply delivers the result of a request-response message. Without a
// result channel, failures are logged.
func (p *Painter) reply(ch chan<- error, op string, id viewport.ID, err error) {
	if ch != nil {
		replyTo(ch, err, op)
		return
	}
	if err != nil {
		Logger().Warn("compositor: "+op, "webview", id, "err", err)
	}
}

// replyTo sends v without blocking; reply channels must be buffered.
func replyTo[T any](ch chan<- T, v T, what string) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
		Logger().Warn("compositor: reply dropped", "reply", what)
	}
}

// notify sends an event upstream. Failures never change painter state.
func (p *Painter) notify(ev Event) {
	if err := p.sink.Send(ev); err != nil {
		Logger().Warn("compositor: event dropped", "event", fmt.Sprintf("%T", ev), "err", err)
	}
}

// violation reports a broken ordering contract of an external actor.
func (p *Painter) violation(msg string, args ...any) {
	if p.cfg.Debug {
		panic(fmt.Sprintf("compositor: invariant violation: %s %v", msg, args))
	}
	Logger().Error("compositor: invariant violation: "+msg, args...)
}

// send submits tx and counts it when it requests a frame.
func (p *Painter) send(tx *render.Transaction) {
	if tx.IsEmpty() {
		return
	}
	eng, ok := p.engine.Active()
	if !ok {
		Logger().Debug("compositor: transaction dropped after shutdown", "ops", len(tx.Ops()))
		return
	}
	if tx.GeneratesFrame() {
		p.pendingFrames++
	}
	Logger().Debug("compositor: transaction", "ops", len(tx.Ops()), "generate", tx.GeneratesFrame())
	eng.SendTransaction(tx)
}

// rebuildRootScene submits a new root scene and asks for a frame.
func (p *Painter) rebuildRootScene() {
	tx := render.NewTransaction()
	scene.BuildRootScene(tx, p.views)
	tx.GenerateFrame()
	p.send(tx)
}

func (p *Painter) frameReady(composite bool) {
	if p.pendingFrames == 0 {
		p.violation("render-complete notification without a pending frame")
	} else {
		p.pendingFrames--
	}
	if composite {
		p.repaint |= RepaintNewFrame
	}
}

// PendingFrames returns the number of frames requested from the engine and
// not yet reported complete.
func (p *Painter) PendingFrames() int { return p.pendingFrames }

// HasPendingFrames reports whether the engine still owes frames. Callers
// use it to hold off starting another top-level render pass.
func (p *Painter) HasPendingFrames() bool { return p.pendingFrames > 0 }

// Views returns the viewport collection. Callers must not mutate it.
func (p *Painter) Views() *viewport.Collection { return p.views }

// ExternalImages returns the registry producers use to publish external
// images.
func (p *Painter) ExternalImages() *render.ExternalImages { return p.external }

// Config returns the active configuration.
func (p *Painter) Config() Config { return p.cfg }

// CurrentEpoch returns the epoch of pipeline in the last rendered frame.
func (p *Painter) CurrentEpoch(pipeline render.PipelineID) (render.Epoch, bool) {
	eng, ok := p.engine.Active()
	if !ok {
		return 0, false
	}
	return eng.CurrentEpoch(pipeline)
}

// MemoryReport returns the engine's memory report.
func (p *Painter) MemoryReport() render.MemoryReport {
	eng, ok := p.engine.Active()
	if !ok {
		return render.MemoryReport{}
	}
	return eng.MemoryReport()
}

// Reconfigure applies Debug, the pinch zoom limits and the refresh interval
// of cfg. An externally installed refresh gate is kept.
func (p *Painter) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.cfg.Debug = cfg.Debug
	p.cfg.MinPinchZoom, p.cfg.MaxPinchZoom = cfg.MinPinchZoom, cfg.MaxPinchZoom
	p.views.SetLimits(cfg.ZoomLimits())
	if p.cfg.RefreshIntervalMillis != cfg.RefreshIntervalMillis {
		p.cfg.RefreshIntervalMillis = cfg.RefreshIntervalMillis
		if p.ownGate {
			p.gate = gateFor(cfg.RefreshInterval())
		}
	}
	Logger().Info("compositor: reconfigured",
		"debug", p.cfg.Debug, "refresh", p.cfg.RefreshInterval(), "zoom", p.views.Limits())
	return nil
}

// Shutdown fails pending screenshots, stops the engine and closes the
// surface. Later transactions are dropped.
func (p *Painter) Shutdown() error {
	eng, ok := p.engine.Active()
	if !ok {
		return render.ErrShutDown
	}
	p.failScreenshots(func(*screenshot) bool { return true }, render.ErrShutDown)
	detachLogger(eng)
	err := p.engine.Shutdown()
	Logger().Info("compositor: painter shut down", "pending_frames", p.pendingFrames)
	return errors.Join(err, p.surface.Close())
}

// AddWebView creates a hidden webview. Adding an existing id is a no-op.
func (p *Painter) AddWebView(id viewport.ID, d viewport.Details) bool {
	added := p.views.Add(id, d)
	Logger().Debug("compositor: add webview", "webview", id, "added", added)
	return added
}

// RemoveWebView destroys a webview, its pipelines and pending screenshots,
// and rebuilds the root scene.
func (p *Painter) RemoveWebView(id viewport.ID) error {
	e, err := p.views.Remove(id)
	if err != nil {
		return err
	}
	tx := render.NewTransaction()
	for pipeline := range e.Pipelines() {
		p.delays.ForgetPipeline(pipeline)
		tx.RemovePipeline(pipeline)
	}
	p.failScreenshots(func(s *screenshot) bool { return s.webview == id }, ErrUnknownWebView)
	scene.BuildRootScene(tx, p.views)
	tx.GenerateFrame()
	p.send(tx)
	return nil
}

// ShowWebView shows a webview, optionally hiding every other one.
func (p *Painter) ShowWebView(id viewport.ID, hideOthers bool) error {
	return p.reorder(p.views.Show(id, hideOthers))
}

// HideWebView hides a webview.
func (p *Painter) HideWebView(id viewport.ID) error {
	return p.reorder(p.views.Hide(id))
}

// RaiseWebViewToTop moves a webview to the top of the paint order.
func (p *Painter) RaiseWebViewToTop(id viewport.ID, hideOthers bool) error {
	return p.reorder(p.views.RaiseToTop(id, hideOthers))
}

// HideAllWebViews hides every webview.
func (p *Painter) HideAllWebViews() {
	p.reorder(p.views.HideAll(), nil)
}

func (p *Painter) reorder(changed bool, err error) error {
	if err != nil {
		return err
	}
	if changed {
		p.rebuildRootScene()
	}
	return nil
}

// view looks up a webview for an asynchronous message, logging misses.
func (p *Painter) view(id viewport.ID, op string) (*viewport.Entry, bool) {
	e, ok := p.views.Get(id)
	if !ok {
		Logger().Warn("compositor: "+op+": unknown webview", "webview", id)
	}
	return e, ok
}

// pipeline looks up a known pipeline of a webview, logging misses.
func (p *Painter) pipeline(id viewport.ID, pipeline render.PipelineID, op string) (*viewport.Entry, *viewport.PipelineEntry, bool) {
	e, ok := p.view(id, op)
	if !ok {
		return nil, nil, false
	}
	pe, ok := e.Pipeline(pipeline)
	if !ok {
		Logger().Warn("compositor: "+op+": unknown pipeline", "webview", id, "pipeline", pipeline)
	}
	return e, pe, ok
}

func (p *Painter) moveResize(id viewport.ID, r image.Rectangle) {
	e, ok := p.view(id, "move webview")
	if !ok || !e.SetRect(r) {
		return
	}
	p.repaint |= RepaintResize
	if e.Shown() {
		p.rebuildRootScene()
	}
}

func (p *Painter) setScale(id viewport.ID, set func(*viewport.Entry) bool) {
	e, ok := p.view(id, "set scale")
	if !ok || !set(e) {
		return
	}
	if e.Shown() {
		p.rebuildRootScene()
	}
}

// setFrameTree records the pipelines of a webview. A new root pipeline
// first gets an empty display list so it is usable before content paints.
func (p *Painter) setFrameTree(id viewport.ID, tree FrameTree) {
	e, ok := p.view(id, "set frame tree")
	if !ok {
		return
	}
	var reserved bool
	tree.Walk(func(pl render.PipelineID) { reserved = reserved || pl.IsReserved() })
	if reserved {
		Logger().Warn("compositor: set frame tree: reserved pipeline id", "webview", id)
		return
	}
	tree.Walk(func(pl render.PipelineID) {
		if _, err := p.views.EnsurePipeline(id, pl); err != nil {
			Logger().Warn("compositor: set frame tree", "webview", id, "err", err)
		}
	})
	root := tree.Pipeline
	if !e.SetRootPipeline(root) {
		return
	}
	tx := render.NewTransaction()
	if pe, ok := e.Pipeline(root); ok {
		if _, painted := pe.Epoch(); !painted {
			tx.SetDisplayList(placeholderEpoch, &render.DisplayList{Pipeline: root})
		}
	}
	scene.BuildRootScene(tx, p.views)
	tx.GenerateFrame()
	p.send(tx)
}

func (p *Painter) pipelineExited(id viewport.ID, pipeline render.PipelineID) {
	p.delays.ForgetPipeline(pipeline)
	e, ok := p.view(id, "pipeline exited")
	if !ok {
		return
	}
	root, _ := e.RootPipeline()
	if !e.RemovePipeline(pipeline) {
		Logger().Debug("compositor: exited pipeline was not tracked", "webview", id, "pipeline", pipeline)
		return
	}
	tx := render.NewTransaction()
	tx.RemovePipeline(pipeline)
	if root == pipeline {
		scene.BuildRootScene(tx, p.views)
	}
	tx.GenerateFrame()
	p.send(tx)
}
