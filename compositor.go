// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gogpu/compositor/render"
)

// ErrClosed is returned by Send after the compositor stopped.
var ErrClosed = errors.New("compositor: closed")

// Compositor runs a Painter on its own goroutine. Messages from any
// goroutine go through Send; render-complete notifications from the engine
// are delivered on the same goroutine, in order with the inbox.
type Compositor struct {
	painter  *Painter
	inbox    chan Message
	frames   chan bool
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error
}

// New creates a compositor with the configured engine and surface.
func New(sink Sink, opts ...Option) (*Compositor, error) {
	o := buildOptions(opts)
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Compositor{
		inbox:  make(chan Message, o.cfg.InboxSize),
		frames: make(chan bool, o.cfg.InboxSize),
		done:   make(chan struct{}),
	}
	notifier := render.NotifierFunc(func(composite bool) {
		select {
		case c.frames <- composite:
		case <-c.done:
		}
	})
	eng, err := o.factory(EngineParams{Notifier: notifier, Config: o.cfg, External: o.external})
	if err != nil {
		return nil, err
	}
	p, err := newPainter(eng, sink, o)
	if err != nil {
		close(c.done)
		eng.Shutdown()
		return nil, err
	}
	c.painter = p
	return c, nil
}

// Painter returns the painter. It must only be used from Run's goroutine
// or after Run returned.
func (c *Compositor) Painter() *Painter { return c.painter }

// ExternalImages returns the registry producers publish external images to.
func (c *Compositor) ExternalImages() *render.ExternalImages { return c.painter.ExternalImages() }

// Send enqueues msg. It blocks while the inbox is full.
func (c *Compositor) Send(msg Message) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.inbox <- msg:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Reconfigure validates cfg and queues it for the compositor goroutine.
func (c *Compositor) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return c.Send(Reconfigure{Config: cfg})
}

// Run processes messages until ctx is done, then shuts the painter down.
// A Tick is synthesized every refresh interval so a render pass deferred by
// the refresh gate is retried.
func (c *Compositor) Run(ctx context.Context) error {
	defer c.stop()

	interval := c.painter.Config().RefreshInterval()
	ticker := time.NewTicker(tickPeriod(interval))
	defer ticker.Stop()

	Logger().Info("compositor: running", "refresh", interval)
	for {
		var msg Message
		select {
		case <-ctx.Done():
			return nil
		case msg = <-c.inbox:
		case composite := <-c.frames:
			msg = NewFrameReady{Composite: composite}
		case <-ticker.C:
			if interval <= 0 || !c.painter.NeedsRepaint() {
				continue
			}
			msg = Tick{}
		}

		c.painter.Handle(msg)
		if _, tick := msg.(Tick); !tick && c.painter.NeedsRepaint() {
			c.painter.Render()
		}
		if next := c.painter.Config().RefreshInterval(); next != interval {
			interval = next
			ticker.Reset(tickPeriod(interval))
		}
	}
}

// tickPeriod keeps the ticker valid when pacing is off.
func tickPeriod(interval time.Duration) time.Duration {
	if interval <= 0 {
		return time.Hour
	}
	return interval
}

// Close shuts down a compositor whose Run was never called. After Run it
// returns the result of the shutdown Run performed.
func (c *Compositor) Close() error {
	c.stop()
	return c.stopErr
}

func (c *Compositor) stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.stopErr = c.painter.Shutdown()
	})
}
