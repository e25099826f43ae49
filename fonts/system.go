// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package fonts

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/cases"
)

// SystemSource resolves a family name to font data.
type SystemSource interface {
	Lookup(family string) (data []byte, index int, err error)
}

// DirSource finds fonts by family name in directory trees. The trees are
// scanned once, on first lookup.
type DirSource struct {
	dirs []string

	once  sync.Once
	index map[string]fontFile
}

type fontFile struct {
	path  string
	index int
}

// NewDirSource returns a source scanning dirs.
func NewDirSource(dirs ...string) *DirSource {
	return &DirSource{dirs: dirs}
}

var fold = cases.Fold()

func familyKey(family string) string {
	return fold.String(strings.TrimSpace(family))
}

func isFontFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf", ".ttc", ".otc":
		return true
	}
	return false
}

func (s *DirSource) scan() {
	s.index = make(map[string]fontFile)
	for _, dir := range s.dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || !isFontFile(d.Name()) {
				return nil
			}
			s.addFile(path)
			return nil
		})
	}
}

func (s *DirSource) addFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	c, err := sfnt.ParseCollection(data)
	if err != nil {
		return
	}
	for i := range c.NumFonts() {
		f, err := c.Font(i)
		if err != nil {
			continue
		}
		family, err := f.Name(nil, sfnt.NameIDFamily)
		if err != nil || family == "" {
			continue
		}
		key := familyKey(family)
		if _, ok := s.index[key]; !ok {
			s.index[key] = fontFile{path: path, index: i}
		}
	}
}

// Lookup implements SystemSource. Family names match case-insensitively.
func (s *DirSource) Lookup(family string) ([]byte, int, error) {
	s.once.Do(s.scan)
	f, ok := s.index[familyKey(family)]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", ErrFontNotFound, family)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, 0, fmt.Errorf("fonts: read %s: %w", f.path, err)
	}
	return data, f.index, nil
}

// Families returns the number of distinct families found.
func (s *DirSource) Families() int {
	s.once.Do(s.scan)
	return len(s.index)
}

// MapSource is an in-memory SystemSource keyed by family name.
type MapSource map[string][]byte

// Lookup implements SystemSource.
func (m MapSource) Lookup(family string) ([]byte, int, error) {
	want := familyKey(family)
	for name, data := range m {
		if familyKey(name) == want {
			return data, 0, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: %q", ErrFontNotFound, family)
}
