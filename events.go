// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"errors"
	"sync"
	"time"

	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/viewport"
)

// Sink errors.
var (
	// ErrSinkClosed is returned by a sink that no longer accepts events.
	ErrSinkClosed = errors.New("compositor: sink closed")

	// ErrSinkFull is returned by a ChannelSink whose buffer is full.
	ErrSinkFull = errors.New("compositor: sink full")
)

// Event is a notification from the compositor to the surrounding system.
type Event interface {
	isEvent()
}

// PaintMetricEvent reports that the first paint or first contentful paint of
// a pipeline reached the screen.
type PaintMetricEvent struct {
	WebView     viewport.ID
	Pipeline    render.PipelineID
	Metric      viewport.PaintMetric
	Timestamp   time.Time
	FirstReflow bool
}

// NoLongerWaitingOnAsynchronousImageUpdates releases pipelines that delayed
// their frame for canvas image uploads.
type NoLongerWaitingOnAsynchronousImageUpdates struct {
	Pipelines []render.PipelineID
}

// RequestScreenshotReadiness asks content which epochs a screenshot of
// WebView has to wait for. The answer comes back as ScreenshotReadinessReply.
type RequestScreenshotReadiness struct {
	WebView viewport.ID
}

// RefreshCursor asks the pipeline under the pointer to recompute the cursor.
type RefreshCursor struct {
	Pipeline render.PipelineID
}

func (PaintMetricEvent) isEvent()                          {}
func (NoLongerWaitingOnAsynchronousImageUpdates) isEvent() {}
func (RequestScreenshotReadiness) isEvent()                {}
func (RefreshCursor) isEvent()                             {}

// Sink delivers events upstream. Send must not block the compositor; a
// failed send is logged and otherwise ignored.
type Sink interface {
	Send(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

// Send implements Sink.
func (f SinkFunc) Send(e Event) error { return f(e) }

// DiscardSink drops every event.
var DiscardSink Sink = SinkFunc(func(Event) error { return nil })

// ChannelSink delivers events on a buffered channel.
type ChannelSink struct {
	mu     sync.RWMutex
	ch     chan Event
	closed bool
}

// NewChannelSink returns a sink buffering up to size events.
func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, max(size, 1))}
}

// Events returns the receive side. It is closed by Close.
func (s *ChannelSink) Events() <-chan Event { return s.ch }

// Send implements Sink without blocking.
func (s *ChannelSink) Send(e Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.ch <- e:
		return nil
	default:
		return ErrSinkFull
	}
}

// Close stops the sink. Close is idempotent.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
