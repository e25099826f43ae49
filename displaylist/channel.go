// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package displaylist

import (
	"errors"
	"sync"
)

// Channel errors.
var (
	// ErrClosed is returned by Send on a closed channel.
	ErrClosed = errors.New("displaylist: channel closed")

	// ErrNoChunk is returned by Recv when no chunk is queued.
	ErrNoChunk = errors.New("displaylist: no chunk queued")

	// ErrFull is returned by Send when the channel buffer is full.
	ErrFull = errors.New("displaylist: channel full")
)

// Sender is the producer end of a byte channel.
type Sender interface {
	Send(chunk []byte) error
}

// Receiver is the compositor end of a byte channel. Recv must not block:
// the compositor goroutine cannot wait on a producer.
type Receiver interface {
	Recv() ([]byte, error)
}

// Channel is an in-process byte channel. Producers send a whole payload
// before announcing it to the compositor, so Recv never waits.
type Channel struct {
	ch     chan []byte
	mu     sync.Mutex
	closed bool
}

// NewChannel returns a channel buffering up to size chunks. Sizes below
// ChunkCount are raised to it.
func NewChannel(size int) *Channel {
	return &Channel{ch: make(chan []byte, max(size, ChunkCount))}
}

// Send queues chunk without blocking.
func (c *Channel) Send(chunk []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.ch <- chunk:
		return nil
	default:
		return ErrFull
	}
}

// Recv implements Receiver.
func (c *Channel) Recv() ([]byte, error) {
	select {
	case b, ok := <-c.ch:
		if !ok {
			return nil, ErrClosed
		}
		return b, nil
	default:
		return nil, ErrNoChunk
	}
}

// Close stops further sends. Queued chunks can still be received.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}
