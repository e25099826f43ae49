// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package fonts

import (
	"fmt"

	"github.com/gogpu/compositor/render"
)

// Font is a registered font resource.
type Font struct {
	Key    render.FontKey
	Data   []byte
	Index  int
	Parsed ParsedFont
}

// Instance is a sized instance of a font.
type Instance struct {
	Key  render.FontInstanceKey
	Font render.FontKey
	Size float32
}

// Table is the compositor's view of the engine's font resources.
// It is not safe for concurrent use.
type Table struct {
	parser    Parser
	fonts     map[render.FontKey]*Font
	instances map[render.FontInstanceKey]Instance
}

// NewTable returns an empty table validating fonts with parser.
func NewTable(parser Parser) *Table {
	if parser == nil {
		parser = ximageParser{}
	}
	return &Table{
		parser:    parser,
		fonts:     make(map[render.FontKey]*Font),
		instances: make(map[render.FontInstanceKey]Instance),
	}
}

// SetParser changes the parser used by later AddFont calls.
func (t *Table) SetParser(p Parser) {
	if p != nil {
		t.parser = p
	}
}

// AddFont parses and registers font data.
func (t *Table) AddFont(key render.FontKey, data []byte, index int) (*Font, error) {
	if _, ok := t.fonts[key]; ok {
		return nil, fmt.Errorf("%w: font (%d,%d)", ErrDuplicateKey, key.Namespace, key.Index)
	}
	parsed, err := t.parser.Parse(data, index)
	if err != nil {
		return nil, err
	}
	f := &Font{Key: key, Data: data, Index: index, Parsed: parsed}
	t.fonts[key] = f
	return f, nil
}

// AddInstance registers a sized instance of a known font.
func (t *Table) AddInstance(key render.FontInstanceKey, font render.FontKey, size float32) error {
	if _, ok := t.instances[key]; ok {
		return fmt.Errorf("%w: instance (%d,%d)", ErrDuplicateKey, key.Namespace, key.Index)
	}
	if _, ok := t.fonts[font]; !ok {
		return &UnknownFontError{Key: font}
	}
	if size <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSize, size)
	}
	t.instances[key] = Instance{Key: key, Font: font, Size: size}
	return nil
}

// Font returns a registered font.
func (t *Table) Font(key render.FontKey) (*Font, bool) {
	f, ok := t.fonts[key]
	return f, ok
}

// Instance returns a registered instance.
func (t *Table) Instance(key render.FontInstanceKey) (Instance, bool) {
	i, ok := t.instances[key]
	return i, ok
}

// Remove drops the given fonts and instances. Instances of removed fonts go
// with them. It returns what was actually removed.
func (t *Table) Remove(fonts []render.FontKey, instances []render.FontInstanceKey) ([]render.FontKey, []render.FontInstanceKey) {
	var goneFonts []render.FontKey
	var goneInstances []render.FontInstanceKey

	dropped := make(map[render.FontKey]bool)
	for _, k := range fonts {
		if _, ok := t.fonts[k]; ok {
			delete(t.fonts, k)
			dropped[k] = true
			goneFonts = append(goneFonts, k)
		}
	}
	for _, k := range instances {
		if _, ok := t.instances[k]; ok {
			delete(t.instances, k)
			goneInstances = append(goneInstances, k)
		}
	}
	for k, inst := range t.instances {
		if dropped[inst.Font] {
			delete(t.instances, k)
			goneInstances = append(goneInstances, k)
		}
	}
	return goneFonts, goneInstances
}

// Len returns the number of fonts and instances.
func (t *Table) Len() (fonts, instances int) {
	return len(t.fonts), len(t.instances)
}
