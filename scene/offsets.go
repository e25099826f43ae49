// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scene

import (
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/viewport"
)

// MergeScrollOffsets appends the offset of every scroll node of every
// pipeline of every view to tx.
func MergeScrollOffsets(tx *render.Transaction, views *viewport.Collection) {
	for e := range views.All() {
		for p, pe := range e.Pipelines() {
			for id, offset := range pe.ScrollTree().Offsets() {
				tx.ScrollNodeWithID(p, id, offset)
			}
		}
	}
}

// AppendScrollOffsets appends the offsets of the given nodes of pipeline p.
// Unknown nodes are skipped.
func AppendScrollOffsets(tx *render.Transaction, p render.PipelineID, tree *viewport.ScrollTree, nodes []render.ExternalScrollID) {
	for _, id := range nodes {
		if n, ok := tree.Node(id); ok {
			tx.ScrollNodeWithID(p, id, n.Offset)
		}
	}
}
