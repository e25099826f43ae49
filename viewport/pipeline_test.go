// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package viewport

import (
	"testing"

	"gioui.org/f32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/compositor/render"
)

var testPipeline = render.PipelineID{Namespace: 1, Index: 1}

func TestObserveEpochIsMonotonic(t *testing.T) {
	p := newPipelineEntry(testPipeline)
	_, ok := p.Epoch()
	assert.False(t, ok)

	assert.True(t, p.ObserveEpoch(5))
	assert.False(t, p.ObserveEpoch(3))
	assert.False(t, p.ObserveEpoch(5))
	e, ok := p.Epoch()
	require.True(t, ok)
	assert.Equal(t, render.Epoch(5), e)

	assert.True(t, p.ObserveEpoch(6))
}

func TestObserveRendered(t *testing.T) {
	p := newPipelineEntry(testPipeline)
	require.NoError(t, p.ObserveRendered(2))
	require.NoError(t, p.ObserveRendered(2))

	var regression *EpochRegressionError
	require.ErrorAs(t, p.ObserveRendered(1), &regression)
	assert.Equal(t, render.Epoch(2), regression.Previous)
	e, _ := p.Rendered()
	assert.Equal(t, render.Epoch(2), e)
}

func TestPaintMetricLifecycle(t *testing.T) {
	var s PaintMetricState
	assert.True(t, s.Waiting())

	_, ok := s.Resolve(10)
	assert.False(t, ok, "nothing to resolve while waiting")

	require.True(t, s.Observe(3, true))
	assert.False(t, s.Observe(1, false), "only the first display list counts")
	epoch, seen := s.Seen()
	require.True(t, seen)
	assert.Equal(t, render.Epoch(3), epoch)

	_, ok = s.Resolve(2)
	assert.False(t, ok, "placeholder frame below the seen epoch")

	reflow, ok := s.Resolve(3)
	require.True(t, ok)
	assert.True(t, reflow)
	assert.True(t, s.Sent())
}

func TestPaintMetricSentIsFinal(t *testing.T) {
	var s PaintMetricState
	s.Observe(1, false)
	_, ok := s.Resolve(1)
	require.True(t, ok)

	for epoch := range render.Epoch(20) {
		assert.False(t, s.Observe(epoch, true))
		_, ok := s.Resolve(epoch)
		assert.False(t, ok)
		assert.True(t, s.Sent())
	}
}

func TestPipelineMetricsAreIndependent(t *testing.T) {
	p := newPipelineEntry(testPipeline)
	p.Metric(FirstPaint).Observe(1, false)
	assert.True(t, p.Metric(FirstContentfulPaint).Waiting())
	assert.Equal(t, "FirstContentfulPaint", FirstContentfulPaint.String())
}

func TestSetScrollTreeKeepsOffsets(t *testing.T) {
	p := newPipelineEntry(testPipeline)
	p.SetScrollTree(NewScrollTree([]ScrollNode{
		{ID: 1, Scrollable: f32.Pt(0, 100)},
		{ID: 2, Scrollable: f32.Pt(100, 0)},
	}))
	p.ScrollTree().SetOffset(1, f32.Pt(0, 80))
	p.ScrollTree().SetOffset(2, f32.Pt(60, 0))

	p.SetScrollTree(NewScrollTree([]ScrollNode{
		{ID: 1, Scrollable: f32.Pt(0, 50)},
		{ID: 3, Scrollable: f32.Pt(0, 10), Offset: f32.Pt(0, 5)},
	}))
	n, ok := p.ScrollTree().Node(1)
	require.True(t, ok)
	assert.Equal(t, f32.Pt(0, 50), n.Offset, "old offset clamped to the new range")
	_, ok = p.ScrollTree().Node(2)
	assert.False(t, ok, "removed nodes are gone")
	n, _ = p.ScrollTree().Node(3)
	assert.Equal(t, f32.Pt(0, 5), n.Offset, "new nodes keep their own offset")

	p.SetScrollTree(nil)
	assert.Zero(t, p.ScrollTree().Len())
}

func TestScrollTreeChaining(t *testing.T) {
	tree := NewScrollTree([]ScrollNode{
		{ID: 1, Scrollable: f32.Pt(0, 500)},
		{ID: 2, Parent: 1, Scrollable: f32.Pt(0, 50), Offset: f32.Pt(0, 80)},
		{ID: 0, Scrollable: f32.Pt(9, 9)},
	})
	require.Equal(t, 2, tree.Len())

	n, _ := tree.Node(2)
	assert.Equal(t, f32.Pt(0, 50), n.Offset, "initial offsets are clamped")

	moved := tree.ScrollBy(2, f32.Pt(0, 30))
	assert.Equal(t, []render.ExternalScrollID{1}, moved, "inner node is at its end")
	n, _ = tree.Node(1)
	assert.Equal(t, f32.Pt(0, 30), n.Offset)

	moved = tree.ScrollBy(2, f32.Pt(0, -70))
	assert.Equal(t, []render.ExternalScrollID{2, 1}, moved)
	n, _ = tree.Node(2)
	assert.Equal(t, f32.Pt(0, 0), n.Offset)
	n, _ = tree.Node(1)
	assert.Equal(t, f32.Pt(0, 10), n.Offset)

	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, render.ExternalScrollID(1), root)

	assert.Nil(t, tree.ScrollBy(99, f32.Pt(0, 1)))
	_, ok = tree.SetOffset(99, f32.Point{})
	assert.False(t, ok)

	var ids []render.ExternalScrollID
	for id := range tree.Offsets() {
		ids = append(ids, id)
	}
	assert.Equal(t, []render.ExternalScrollID{1, 2}, ids)
	assert.Len(t, tree.Nodes(), 2)
}

func TestScrollTreeParentCycle(t *testing.T) {
	tree := NewScrollTree([]ScrollNode{
		{ID: 1, Parent: 2},
		{ID: 2, Parent: 1},
	})
	assert.Empty(t, tree.ScrollBy(1, f32.Pt(0, 10)))
}
