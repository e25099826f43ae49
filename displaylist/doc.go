// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package displaylist moves display lists from content producers to the
// compositor over an out-of-band byte channel.
//
// A payload is four chunks sent in order on one channel:
//
//  1. info: epoch, pipeline, flags, viewport details and the scroll tree,
//     in a fixed little-endian layout
//  2. items: the item stream, snappy compressed
//  3. cache: auxiliary cache bytes, passed through
//  4. spatial tree: spatial tree bytes, passed through
//
// The accompanying [Descriptor] carries the length of each chunk as sent.
// [Receive] rejects a payload with a missing, extra-short or out-of-order
// chunk with a [*ChunkError].
package displaylist
