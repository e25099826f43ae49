// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package fonts keeps the compositor's record of font resources sent to the
// engine, validates font data before it is sent, and resolves system fonts
// by family name.
//
// Two parsers are registered: "ximage" (golang.org/x/image/font/sfnt, reads
// family names) and "gotext" (github.com/go-text/typesetting).
package fonts
