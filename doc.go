// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package compositor is the frame submission core of a multi-view
// compositor.
//
// # Overview
//
// Content processes produce display lists for their pipelines, canvas
// producers upload images, and the embedder manages webviews. The
// compositor turns all of that into transactions for a rendering engine,
// keeps track of frames the engine still owes, and presents finished frames
// to a surface.
//
// # Quick Start
//
//	sink := compositor.NewChannelSink(64)
//	c, err := compositor.New(sink, compositor.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	go c.Run(ctx)
//
//	c.Send(compositor.AddWebView{WebView: 1, Details: details})
//	c.Send(compositor.ShowWebView{WebView: 1})
//	c.Send(compositor.SetFrameTree{WebView: 1, Tree: compositor.FrameTree{Pipeline: p}})
//
// # Architecture
//
// The package is organized into:
//   - Painter: the single-threaded frame coordinator. It owns the viewport
//     collection, the canvas frame delay tracker and the in-flight frame
//     counter.
//   - Compositor: runs a Painter on one goroutine and feeds it messages and
//     render-complete notifications in arrival order.
//   - Message and Event: the inbound and outbound vocabularies.
//   - RefreshGate: decides when a ready frame may be presented.
//
// Subpackages:
//   - render: engine contract, transactions and the headless engine
//   - viewport: webviews, pipelines, scroll trees and pinch zoom
//   - scene: root scene construction
//   - framedelay: canvas image waits
//   - displaylist: display list transport
//   - fonts: font validation and system font lookup
//   - surface: presentation targets
//
// # Frame accounting
//
// Every transaction that requests a frame increments the pending frame
// count, and every render-complete notification decrements it. A
// notification without a pending frame is an ordering bug: it panics when
// Config.Debug is set and is logged at error level otherwise.
//
// # Logging
//
// Nothing is logged by default. See SetLogger.
package compositor
