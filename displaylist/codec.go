// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package displaylist

import (
	"errors"
	"fmt"

	"github.com/gogpu/compositor/render"
)

// Chunk indexes, in transmission order.
const (
	ChunkInfo = iota
	ChunkItems
	ChunkCache
	ChunkSpatialTree

	ChunkCount
)

var chunkNames = [ChunkCount]string{"info", "items", "cache", "spatial tree"}

// ErrLength is returned when a chunk's size differs from its descriptor.
var ErrLength = errors.New("displaylist: chunk length mismatch")

// ChunkError reports which chunk of a payload failed.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string {
	name := "unknown"
	if e.Index >= 0 && e.Index < ChunkCount {
		name = chunkNames[e.Index]
	}
	return fmt.Sprintf("displaylist: %s chunk: %v", name, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Descriptor announces a payload: the byte length of each chunk as sent.
type Descriptor struct {
	Lengths [ChunkCount]int
}

// Payload is a decoded display list with its header.
type Payload struct {
	Info        Info
	DisplayList *render.DisplayList
}

// Encode produces the four chunks of a payload and their descriptor. The
// display list's pipeline and content size are taken from info.
func Encode(info *Info, dl *render.DisplayList) (Descriptor, [ChunkCount][]byte, error) {
	var chunks [ChunkCount][]byte
	head, err := info.MarshalBinary()
	if err != nil {
		return Descriptor{}, chunks, err
	}
	chunks[ChunkInfo] = head
	chunks[ChunkItems] = encodeItems(dl.Items)
	chunks[ChunkCache] = dl.Cache
	chunks[ChunkSpatialTree] = dl.SpatialTree

	var desc Descriptor
	for i, c := range chunks {
		desc.Lengths[i] = len(c)
	}
	return desc, chunks, nil
}

// Send encodes a payload onto s and returns its descriptor.
func Send(s Sender, info *Info, dl *render.DisplayList) (Descriptor, error) {
	desc, chunks, err := Encode(info, dl)
	if err != nil {
		return Descriptor{}, err
	}
	for i, c := range chunks {
		if err := s.Send(c); err != nil {
			return Descriptor{}, &ChunkError{Index: i, Err: err}
		}
	}
	return desc, nil
}

// Receive reads and decodes the four chunks announced by desc from r. All
// queued chunks of the payload are consumed even when one is rejected, so the
// next payload on r starts at its own first chunk.
func Receive(r Receiver, desc Descriptor) (*Payload, error) {
	var (
		chunks [ChunkCount][]byte
		bad    error
	)
	for i := range chunks {
		b, err := r.Recv()
		if err != nil {
			return nil, &ChunkError{Index: i, Err: err}
		}
		if bad == nil && len(b) != desc.Lengths[i] {
			bad = &ChunkError{Index: i, Err: fmt.Errorf("%w: got %d bytes, want %d", ErrLength, len(b), desc.Lengths[i])}
		}
		chunks[i] = b
	}
	if bad != nil {
		return nil, bad
	}
	return Decode(chunks)
}

// Decode decodes the chunks of a payload.
func Decode(chunks [ChunkCount][]byte) (*Payload, error) {
	var info Info
	if err := info.UnmarshalBinary(chunks[ChunkInfo]); err != nil {
		return nil, &ChunkError{Index: ChunkInfo, Err: err}
	}
	items, err := decodeItems(chunks[ChunkItems])
	if err != nil {
		return nil, &ChunkError{Index: ChunkItems, Err: err}
	}
	return &Payload{
		Info: info,
		DisplayList: &render.DisplayList{
			Pipeline:    info.Pipeline,
			ContentSize: info.ContentSize,
			Items:       items,
			Cache:       chunks[ChunkCache],
			SpatialTree: chunks[ChunkSpatialTree],
		},
	}, nil
}
