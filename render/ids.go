// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import "fmt"

// PipelineID identifies one content pipeline (a document producing display
// lists). Namespace 0 is reserved for the compositor itself: index 0 is the
// unused zero slot and index 1 is the root compositing pipeline.
type PipelineID struct {
	Namespace uint32
	Index     uint32
}

// RootPipelineID is the pipeline that stacks every visible viewport.
var RootPipelineID = PipelineID{Namespace: 0, Index: 1}

// RootEpoch is attached to every root scene. The engine detects structural
// changes on its own, so the value never advances.
const RootEpoch Epoch = 0

// IsZero reports whether p is the reserved zero slot.
func (p PipelineID) IsZero() bool {
	return p == PipelineID{}
}

// IsReserved reports whether p lives in the compositor's own namespace and
// therefore cannot be used by content.
func (p PipelineID) IsReserved() bool {
	return p.Namespace == 0
}

func (p PipelineID) String() string {
	return fmt.Sprintf("(%d,%d)", p.Namespace, p.Index)
}

// Epoch versions the display lists of a single pipeline.
type Epoch uint32

// Next returns the epoch following e.
func (e Epoch) Next() Epoch { return e + 1 }

// IDNamespace partitions resource keys between engine instances.
type IDNamespace uint32

// ImageKey names an image resource in the engine's image table.
type ImageKey struct {
	Namespace IDNamespace
	Index     uint32
}

func (k ImageKey) String() string {
	return fmt.Sprintf("img(%d,%d)", k.Namespace, k.Index)
}

// FontKey names a font resource.
type FontKey struct {
	Namespace IDNamespace
	Index     uint32
}

// FontInstanceKey names a sized instance of a font.
type FontInstanceKey struct {
	Namespace IDNamespace
	Index     uint32
}

// ExternalScrollID is the stable, content-assigned identity of a scroll node.
// Zero means "not scrolled by any node".
type ExternalScrollID uint64

// KeyAllocator hands out resource keys within one namespace.
// It is not safe for concurrent use; the compositor owns it.
type KeyAllocator struct {
	ns   IDNamespace
	next uint32
}

// NewKeyAllocator returns an allocator for ns.
func NewKeyAllocator(ns IDNamespace) *KeyAllocator {
	return &KeyAllocator{ns: ns, next: 1}
}

func (a *KeyAllocator) bump() uint32 {
	i := a.next
	a.next++
	return i
}

// ImageKey returns a fresh image key.
func (a *KeyAllocator) ImageKey() ImageKey {
	return ImageKey{Namespace: a.ns, Index: a.bump()}
}

// ImageKeys returns n fresh image keys.
func (a *KeyAllocator) ImageKeys(n int) []ImageKey {
	keys := make([]ImageKey, 0, max(n, 0))
	for range n {
		keys = append(keys, a.ImageKey())
	}
	return keys
}

// FontKey returns a fresh font key.
func (a *KeyAllocator) FontKey() FontKey {
	return FontKey{Namespace: a.ns, Index: a.bump()}
}

// FontInstanceKey returns a fresh font instance key.
func (a *KeyAllocator) FontInstanceKey() FontInstanceKey {
	return FontInstanceKey{Namespace: a.ns, Index: a.bump()}
}
