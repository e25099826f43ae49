// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package framedelay holds back frame generation until the canvas and video
// image updates a content pass depends on have reached the engine.
//
// Image updates travel on their own asynchronous path and may arrive before
// or after the request that depends on them. The tracker remembers the
// highest epoch uploaded per image, so an update that races ahead of its
// request never causes a stall.
//
// A Tracker is owned by the compositor goroutine and is not safe for
// concurrent use.
package framedelay

import (
	"cmp"
	"slices"

	"github.com/gogpu/compositor/render"
)

// Tracker records outstanding image uploads and a pending frame request.
type Tracker struct {
	imageEpochs map[render.ImageKey]render.Epoch
	pending     map[render.ImageKey]render.Epoch
	waiting     map[render.PipelineID]struct{}
	frame       bool
}

// New returns an idle tracker.
func New() *Tracker {
	return &Tracker{
		imageEpochs: make(map[render.ImageKey]render.Epoch),
		pending:     make(map[render.ImageKey]render.Epoch),
		waiting:     make(map[render.PipelineID]struct{}),
	}
}

// RecordDelay notes that pipeline finished a content pass at epoch which
// triggered uploads of images. Images already uploaded at or above epoch are
// not waited for. The pipeline is always queued for notification.
func (t *Tracker) RecordDelay(pipeline render.PipelineID, epoch render.Epoch, images []render.ImageKey) {
	for _, img := range images {
		if seen, ok := t.imageEpochs[img]; ok && seen >= epoch {
			continue
		}
		if cur, ok := t.pending[img]; ok && cur >= epoch {
			continue
		}
		t.pending[img] = epoch
	}
	t.waiting[pipeline] = struct{}{}
}

// ObserveUpload records that img was committed to the engine at epoch and
// clears a pending requirement it satisfies.
func (t *Tracker) ObserveUpload(img render.ImageKey, epoch render.Epoch) {
	if seen, ok := t.imageEpochs[img]; !ok || epoch > seen {
		t.imageEpochs[img] = epoch
	}
	if want, ok := t.pending[img]; ok && want <= t.imageEpochs[img] {
		delete(t.pending, img)
	}
}

// ObserveDelete forgets img entirely.
func (t *Tracker) ObserveDelete(img render.ImageKey) {
	delete(t.imageEpochs, img)
	delete(t.pending, img)
}

// RequestFrame marks a frame as wanted. Callers check Ready afterwards.
func (t *Tracker) RequestFrame() { t.frame = true }

// PendingFrame reports whether a frame request is outstanding.
func (t *Tracker) PendingFrame() bool { return t.frame }

// Pending returns the number of images still awaited.
func (t *Tracker) Pending() int { return len(t.pending) }

// IsPending reports whether img is awaited.
func (t *Tracker) IsPending(img render.ImageKey) bool {
	_, ok := t.pending[img]
	return ok
}

// Ready reports whether a frame was requested and nothing blocks it.
func (t *Tracker) Ready() bool {
	return t.frame && len(t.pending) == 0
}

// Consume clears the frame request and returns the pipelines waiting to
// hear that their image updates are done, ordered by id.
func (t *Tracker) Consume() []render.PipelineID {
	t.frame = false
	if len(t.waiting) == 0 {
		return nil
	}
	out := make([]render.PipelineID, 0, len(t.waiting))
	for p := range t.waiting {
		out = append(out, p)
	}
	clear(t.waiting)
	slices.SortFunc(out, func(a, b render.PipelineID) int {
		return cmp.Or(cmp.Compare(a.Namespace, b.Namespace), cmp.Compare(a.Index, b.Index))
	})
	return out
}

// ForgetPipeline drops pipeline from the notification set, used when it
// exits before its uploads finished.
func (t *Tracker) ForgetPipeline(pipeline render.PipelineID) {
	delete(t.waiting, pipeline)
}
