// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"image"
)

// Engine errors.
var (
	// ErrShutDown is returned by a Handle whose engine was already shut down.
	ErrShutDown = errors.New("render: engine shut down")

	// ErrNoFrame is returned by ReadPixels before the first Render.
	ErrNoFrame = errors.New("render: no frame rendered")
)

// Engine is the scene-building and rasterization engine the compositor feeds.
//
// SendTransaction never blocks on frame production: transactions are queued
// and applied on the engine's own goroutine. For every transaction that
// requested a frame, the engine calls its Notifier exactly once when the frame
// is ready.
//
// All other methods are called from the compositor goroutine.
type Engine interface {
	// IDNamespace is the namespace for keys allocated against this engine.
	IDNamespace() IDNamespace

	// SendTransaction queues tx for application.
	SendTransaction(tx *Transaction)

	// CurrentEpoch returns the epoch of p in the most recently rendered
	// frame. ok is false when p has not been rendered yet.
	CurrentEpoch(p PipelineID) (epoch Epoch, ok bool)

	// Render flushes the latest generated frame to the current drawable of
	// the given size.
	Render(size image.Point) error

	// ReadPixels copies a region of the last rendered frame.
	ReadPixels(r image.Rectangle) (*image.RGBA, error)

	// MemoryReport returns the engine's retained-memory breakdown.
	MemoryReport() MemoryReport

	// Shutdown stops the engine and releases its resources.
	Shutdown()
}

// Notifier receives asynchronous render-complete notifications. It is called
// from engine goroutines.
type Notifier interface {
	NewFrameReady(composite bool)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(composite bool)

// NewFrameReady implements Notifier.
func (f NotifierFunc) NewFrameReady(composite bool) { f(composite) }

// MemoryReport is the engine's retained memory in bytes, by category.
type MemoryReport struct {
	Images       int64
	ImageCache   int64
	DisplayLists int64
	Fonts        int64
	Framebuffer  int64
}

// Total sums every category.
func (m MemoryReport) Total() int64 {
	return m.Images + m.ImageCache + m.DisplayLists + m.Fonts + m.Framebuffer
}
