// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package viewport tracks the compositor's logical views (webviews): their
// on-screen geometry, zoom factors, painting order and the per-pipeline
// state of the content they host.
//
// A [Collection] is owned by the compositor goroutine and is not safe for
// concurrent use.
package viewport
