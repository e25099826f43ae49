// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package viewport

import (
	"iter"

	"gioui.org/f32"

	"github.com/gogpu/compositor/render"
)

// ScrollNode is one scrollable region.
type ScrollNode struct {
	ID render.ExternalScrollID

	// Parent is the enclosing node; zero for a top-level node.
	Parent render.ExternalScrollID

	// Scrollable is the maximum offset on each axis.
	Scrollable f32.Point

	Offset f32.Point
}

// ScrollTree is the set of scroll nodes of one pipeline.
type ScrollTree struct {
	nodes map[render.ExternalScrollID]*ScrollNode
	order []render.ExternalScrollID
}

// NewScrollTree builds a tree from nodes. Nodes with a zero id are ignored;
// duplicate ids keep the last definition. Initial offsets are clamped.
func NewScrollTree(nodes []ScrollNode) *ScrollTree {
	t := &ScrollTree{nodes: make(map[render.ExternalScrollID]*ScrollNode, len(nodes))}
	for _, n := range nodes {
		if n.ID == 0 {
			continue
		}
		if _, ok := t.nodes[n.ID]; !ok {
			t.order = append(t.order, n.ID)
		}
		n.Offset = clampOffset(n.Offset, n.Scrollable)
		t.nodes[n.ID] = &n
	}
	return t
}

// Len returns the number of nodes.
func (t *ScrollTree) Len() int { return len(t.order) }

// Node returns a copy of node id.
func (t *ScrollTree) Node(id render.ExternalScrollID) (ScrollNode, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return ScrollNode{}, false
	}
	return *n, true
}

// Root returns the first top-level node, the one that scrolls the document.
func (t *ScrollTree) Root() (render.ExternalScrollID, bool) {
	for _, id := range t.order {
		if t.nodes[id].Parent == 0 {
			return id, true
		}
	}
	return 0, false
}

func clampOffset(o, limit f32.Point) f32.Point {
	return f32.Pt(min(max(o.X, 0), max(limit.X, 0)), min(max(o.Y, 0), max(limit.Y, 0)))
}

// inherit copies the offsets of nodes that old shares with t.
func (t *ScrollTree) inherit(old *ScrollTree) {
	if old == nil {
		return
	}
	for id, n := range t.nodes {
		if prev, ok := old.nodes[id]; ok {
			n.Offset = clampOffset(prev.Offset, n.Scrollable)
		}
	}
}

// SetOffset moves node id to an absolute offset, clamped to its range.
func (t *ScrollTree) SetOffset(id render.ExternalScrollID, offset f32.Point) (f32.Point, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return f32.Point{}, false
	}
	n.Offset = clampOffset(offset, n.Scrollable)
	return n.Offset, true
}

// ScrollBy scrolls node id by delta. Delta a node cannot absorb chains to its
// parent. It returns the ids of the nodes that moved, innermost first.
func (t *ScrollTree) ScrollBy(id render.ExternalScrollID, delta f32.Point) []render.ExternalScrollID {
	var moved []render.ExternalScrollID
	for range len(t.order) {
		n, ok := t.nodes[id]
		if !ok || delta == (f32.Point{}) {
			break
		}
		next := clampOffset(n.Offset.Add(delta), n.Scrollable)
		if next != n.Offset {
			delta = delta.Sub(next.Sub(n.Offset))
			n.Offset = next
			moved = append(moved, n.ID)
		}
		id = n.Parent
	}
	return moved
}

// Offsets yields every node and its offset in definition order.
func (t *ScrollTree) Offsets() iter.Seq2[render.ExternalScrollID, f32.Point] {
	return func(yield func(render.ExternalScrollID, f32.Point) bool) {
		for _, id := range t.order {
			if !yield(id, t.nodes[id].Offset) {
				return
			}
		}
	}
}

// Nodes returns copies of every node in definition order.
func (t *ScrollTree) Nodes() []ScrollNode {
	out := make([]ScrollNode, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.nodes[id])
	}
	return out
}
