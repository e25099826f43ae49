// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package scene builds the compositor's root scene: one reference frame and
// embedded pipeline per shown view, stacked back to front, plus the scroll
// offsets every structural update must carry.
//
// The engine forgets scroll offsets whenever a pipeline's display list is
// replaced, so any transaction that may change scene structure re-supplies
// the complete offset state with [MergeScrollOffsets].
package scene
