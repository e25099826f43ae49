// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package fonts

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"
)

// Parser validates raw font data before it is handed to the engine.
type Parser interface {
	// Parse parses face index of data, which may be a single font or a
	// collection.
	Parse(data []byte, index int) (ParsedFont, error)
}

// ParsedFont is what the compositor keeps about a font.
type ParsedFont struct {
	// Family is the family name, empty when the parser does not read the
	// name table.
	Family string

	UnitsPerEm int

	// Faces is the number of faces in the file.
	Faces int
}

var (
	parsersMu sync.RWMutex
	parsers   = map[string]Parser{
		"ximage": ximageParser{},
		"gotext": gotextParser{},
	}
)

// DefaultParserName is the parser used when none is configured.
const DefaultParserName = "ximage"

// RegisterParser registers a parser under name, replacing any previous one.
func RegisterParser(name string, p Parser) {
	parsersMu.Lock()
	defer parsersMu.Unlock()
	parsers[name] = p
}

// ParserByName returns a registered parser. An empty name selects the
// default.
func ParserByName(name string) (Parser, error) {
	if name == "" {
		name = DefaultParserName
	}
	parsersMu.RLock()
	defer parsersMu.RUnlock()
	p, ok := parsers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParser, name)
	}
	return p, nil
}

// ParserNames returns the registered parser names, sorted.
func ParserNames() []string {
	parsersMu.RLock()
	defer parsersMu.RUnlock()
	names := make([]string, 0, len(parsers))
	for n := range parsers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ximageParser parses with golang.org/x/image/font/sfnt.
type ximageParser struct{}

func (ximageParser) Parse(data []byte, index int) (ParsedFont, error) {
	if len(data) == 0 {
		return ParsedFont{}, ErrEmptyFontData
	}
	c, err := sfnt.ParseCollection(data)
	if err != nil {
		return ParsedFont{}, fmt.Errorf("fonts: failed to parse font: %w", err)
	}
	if index < 0 || index >= c.NumFonts() {
		return ParsedFont{}, &FaceIndexError{Index: index, Faces: c.NumFonts()}
	}
	f, err := c.Font(index)
	if err != nil {
		return ParsedFont{}, fmt.Errorf("fonts: failed to load face %d: %w", index, err)
	}
	family, _ := f.Name(nil, sfnt.NameIDFamily)
	return ParsedFont{
		Family:     family,
		UnitsPerEm: int(f.UnitsPerEm()),
		Faces:      c.NumFonts(),
	}, nil
}

// gotextParser parses with github.com/go-text/typesetting. It does not read
// family names.
type gotextParser struct{}

func (gotextParser) Parse(data []byte, index int) (ParsedFont, error) {
	if len(data) == 0 {
		return ParsedFont{}, ErrEmptyFontData
	}
	faces, err := font.ParseTTC(bytes.NewReader(data))
	if err != nil {
		face, ttfErr := font.ParseTTF(bytes.NewReader(data))
		if ttfErr != nil {
			return ParsedFont{}, fmt.Errorf("fonts: failed to parse font: %w", ttfErr)
		}
		faces = []*font.Face{face}
	}
	if index < 0 || index >= len(faces) {
		return ParsedFont{}, &FaceIndexError{Index: index, Faces: len(faces)}
	}
	return ParsedFont{
		UnitsPerEm: int(faces[index].Upem()),
		Faces:      len(faces),
	}, nil
}
