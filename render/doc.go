// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render defines the contract between the compositor and the
// scene-building engine that turns display lists into pixels.
//
// The compositor never calls into an engine synchronously for frame
// production. It batches scene mutations into a [Transaction], hands it to
// [Engine.SendTransaction] and later receives [Notifier.NewFrameReady] from
// an engine goroutine. Only [Engine.Render] touches the drawable.
//
// # Identifiers
//
//   - PipelineID: one content pipeline. Namespace 0 is reserved; the root
//     compositing pipeline is [RootPipelineID].
//   - Epoch: per-pipeline display list version.
//   - ImageKey, FontKey, FontInstanceKey: resource keys from a [KeyAllocator]
//     in the engine's [IDNamespace].
//
// # Engines
//
// [Headless] is a CPU reference engine. It applies transactions on its own
// goroutine and rasterizes the latest generated frame in bands on a worker
// pool. Images whose pixels are owned by other goroutines (canvas, WebGL,
// WebGPU, XR) are resolved through the mutex-guarded [ExternalImages]
// registry at raster time.
//
// [Handle] wraps an engine in an explicit active or shut-down state.
package render
