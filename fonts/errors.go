// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package fonts

import (
	"errors"
	"fmt"

	"github.com/gogpu/compositor/render"
)

// Sentinel errors for the fonts package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("fonts: empty font data")

	// ErrDuplicateKey is returned when a key is added twice.
	ErrDuplicateKey = errors.New("fonts: duplicate key")

	// ErrFontNotFound is returned by system sources for unknown families.
	ErrFontNotFound = errors.New("fonts: font not found")

	// ErrUnknownParser is returned for parser names nobody registered.
	ErrUnknownParser = errors.New("fonts: unknown parser")

	// ErrInvalidSize is returned for non-positive instance sizes.
	ErrInvalidSize = errors.New("fonts: invalid font size")
)

// UnknownFontError is returned when an instance refers to a missing font.
type UnknownFontError struct {
	Key render.FontKey
}

func (e *UnknownFontError) Error() string {
	return fmt.Sprintf("fonts: unknown font (%d,%d)", e.Key.Namespace, e.Key.Index)
}

// FaceIndexError is returned when a collection has no face at Index.
type FaceIndexError struct {
	Index int
	Faces int
}

func (e *FaceIndexError) Error() string {
	return fmt.Sprintf("fonts: face index %d out of range (%d faces)", e.Index, e.Faces)
}
