// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"github.com/gogpu/compositor/displaylist"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/scene"
	"github.com/gogpu/compositor/viewport"
)

// newDisplayList decodes a display list from its byte channel and installs
// it. Frame generation is left to GenerateFrameForScript.
func (p *Painter) newDisplayList(m NewDisplayList) {
	payload, err := displaylist.Receive(m.Receiver, m.Descriptor)
	if err != nil {
		Logger().Warn("compositor: display list dropped", "webview", m.WebView, "err", err)
		return
	}
	e, ok := p.view(m.WebView, "display list")
	if !ok {
		return
	}
	info := &payload.Info
	if info.Pipeline.IsReserved() {
		Logger().Warn("compositor: display list for reserved pipeline", "webview", m.WebView, "pipeline", info.Pipeline)
		return
	}
	pe, err := p.views.EnsurePipeline(m.WebView, info.Pipeline)
	if err != nil {
		Logger().Warn("compositor: display list", "webview", m.WebView, "err", err)
		return
	}

	pe.SetScrollTree(viewport.NewScrollTree(info.ScrollTree))
	scaleChanged := pe.SetViewportScale(info.Viewport.DevicePixelsPerPagePixel())
	// A late list still counts for a waiting metric, at the highest epoch
	// seen so the metric never resolves against an older frame.
	pe.ObserveEpoch(info.Epoch)
	epoch, _ := pe.Epoch()
	pe.Metric(viewport.FirstPaint).Observe(epoch, info.FirstReflow)
	if info.Contentful {
		pe.Metric(viewport.FirstContentfulPaint).Observe(epoch, info.FirstReflow)
	}

	tx := render.NewTransaction()
	tx.SetDisplayList(info.Epoch, payload.DisplayList)
	root, hasRoot := e.RootPipeline()
	if hasRoot && root == info.Pipeline && (scaleChanged || e.ScaleChangedSinceBuild()) {
		scene.BuildRootScene(tx, p.views)
	} else {
		scene.MergeScrollOffsets(tx, p.views)
	}
	Logger().Debug("compositor: display list",
		"webview", m.WebView, "pipeline", info.Pipeline, "epoch", info.Epoch, "items", len(payload.DisplayList.Items))
	p.send(tx)
}

func (p *Painter) updateEpoch(m UpdateEpoch) {
	if _, ok := p.view(m.WebView, "update epoch"); !ok {
		return
	}
	if m.Pipeline.IsReserved() {
		Logger().Warn("compositor: update epoch of reserved pipeline", "pipeline", m.Pipeline)
		return
	}
	pe, err := p.views.EnsurePipeline(m.WebView, m.Pipeline)
	if err != nil {
		Logger().Warn("compositor: update epoch", "err", err)
		return
	}
	pe.ObserveEpoch(m.Epoch)
	tx := render.NewTransaction()
	tx.UpdateEpoch(m.Pipeline, m.Epoch)
	tx.GenerateFrame()
	p.send(tx)
}

// generateFrameForScript generates a frame now, or marks it pending until
// the canvas images it depends on are uploaded.
func (p *Painter) generateFrameForScript() {
	p.delays.RequestFrame()
	if !p.delays.Ready() {
		Logger().Debug("compositor: frame deferred on canvas images", "pending", p.delays.Pending())
		return
	}
	tx := render.NewTransaction()
	waiters := p.generateFrame(tx)
	p.send(tx)
	p.releaseWaiters(waiters)
}

// updateImages applies an image batch in one transaction. When the batch
// completes the last image a pending frame waits for, the frame is
// generated in the same transaction.
func (p *Painter) updateImages(updates []render.ImageUpdateEntry) {
	tx := render.NewTransaction()
	for _, u := range updates {
		switch u.Kind {
		case render.ImageAdd:
			tx.AddImage(u.Key, u.Descriptor, u.Data)
		case render.ImageUpdate:
			tx.UpdateImage(u.Key, u.Descriptor, u.Data)
		case render.ImageDelete:
			tx.DeleteImage(u.Key)
			p.delays.ObserveDelete(u.Key)
			continue
		default:
			Logger().Warn("compositor: unknown image update", "kind", u.Kind, "key", u.Key)
			continue
		}
		if u.HasEpoch {
			p.delays.ObserveUpload(u.Key, u.Epoch)
		}
	}

	var waiters []render.PipelineID
	if p.delays.Ready() {
		waiters = p.generateFrame(tx)
	}
	p.send(tx)
	p.releaseWaiters(waiters)
}

// generateFrame turns tx into a scene refresh that generates a frame and
// consumes the pending frame request.
func (p *Painter) generateFrame(tx *render.Transaction) []render.PipelineID {
	scene.MergeScrollOffsets(tx, p.views)
	tx.GenerateFrame()
	return p.delays.Consume()
}

func (p *Painter) releaseWaiters(pipelines []render.PipelineID) {
	if len(pipelines) == 0 {
		return
	}
	p.notify(NoLongerWaitingOnAsynchronousImageUpdates{Pipelines: pipelines})
}
