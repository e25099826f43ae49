// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package viewport

import (
	"errors"
	"iter"
	"slices"

	"github.com/gogpu/compositor/render"
)

// ErrUnknownView is returned for view ids the collection does not hold.
var ErrUnknownView = errors.New("viewport: unknown view")

// ID is the externally assigned identity of a view.
type ID uint64

// Collection holds one Entry per view plus the back-to-front painting order
// of the shown views.
type Collection struct {
	entries map[ID]*Entry
	order   []ID
	paint   []ID
	limits  ZoomLimits
}

// NewCollection returns an empty collection whose pinch zoom is clamped to
// limits.
func NewCollection(limits ZoomLimits) *Collection {
	return &Collection{
		entries: make(map[ID]*Entry),
		limits:  limits.normalized(),
	}
}

// Limits returns the pinch-zoom limits.
func (c *Collection) Limits() ZoomLimits { return c.limits }

// SetLimits replaces the pinch-zoom limits and reclamps every view.
func (c *Collection) SetLimits(limits ZoomLimits) {
	c.limits = limits.normalized()
	for _, e := range c.entries {
		e.pinch = e.pinch.clamped(e.size(), c.limits)
	}
}

// Add inserts a hidden view. It reports false and changes nothing when the
// id already exists.
func (c *Collection) Add(id ID, details Details) bool {
	if _, ok := c.entries[id]; ok {
		return false
	}
	c.entries[id] = newEntry(id, details)
	c.order = append(c.order, id)
	return true
}

// Remove deletes a view and returns its final state.
func (c *Collection) Remove(id ID) (*Entry, error) {
	e, ok := c.entries[id]
	if !ok {
		return nil, ErrUnknownView
	}
	delete(c.entries, id)
	c.order = slices.DeleteFunc(c.order, func(v ID) bool { return v == id })
	c.paint = slices.DeleteFunc(c.paint, func(v ID) bool { return v == id })
	return e, nil
}

// Get returns the entry for id. The entry is live; mutations through it are
// visible to the collection.
func (c *Collection) Get(id ID) (*Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Len returns the number of views.
func (c *Collection) Len() int { return len(c.entries) }

// Show makes id visible, appending it to the top of the painting order if it
// was hidden. With hideOthers every other view is hidden first. The result
// reports whether the painting order changed.
func (c *Collection) Show(id ID, hideOthers bool) (bool, error) {
	e, ok := c.entries[id]
	if !ok {
		return false, ErrUnknownView
	}
	before := slices.Clone(c.paint)
	if hideOthers {
		c.hideExcept(id)
	}
	if !e.shown {
		e.shown = true
		c.paint = append(c.paint, id)
	}
	return !slices.Equal(before, c.paint), nil
}

// Hide removes id from the painting order.
func (c *Collection) Hide(id ID) (bool, error) {
	e, ok := c.entries[id]
	if !ok {
		return false, ErrUnknownView
	}
	if !e.shown {
		return false, nil
	}
	e.shown = false
	c.paint = slices.DeleteFunc(c.paint, func(v ID) bool { return v == id })
	return true, nil
}

// HideAll hides every view.
func (c *Collection) HideAll() bool {
	changed := len(c.paint) > 0
	for _, v := range c.paint {
		c.entries[v].shown = false
	}
	c.paint = c.paint[:0]
	return changed
}

func (c *Collection) hideExcept(keep ID) {
	kept := c.paint[:0]
	for _, v := range c.paint {
		if v == keep {
			kept = append(kept, v)
			continue
		}
		c.entries[v].shown = false
	}
	c.paint = kept
}

// RaiseToTop moves id to the top of the painting order, showing it if it was
// hidden.
func (c *Collection) RaiseToTop(id ID, hideOthers bool) (bool, error) {
	e, ok := c.entries[id]
	if !ok {
		return false, ErrUnknownView
	}
	before := slices.Clone(c.paint)
	if hideOthers {
		c.hideExcept(id)
	}
	c.paint = slices.DeleteFunc(c.paint, func(v ID) bool { return v == id })
	c.paint = append(c.paint, id)
	e.shown = true
	return !slices.Equal(before, c.paint), nil
}

// PaintingOrder yields the shown views back to front. The sequence can be
// ranged over any number of times; it must not be held across mutations.
func (c *Collection) PaintingOrder() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for _, id := range c.paint {
			if !yield(c.entries[id]) {
				return
			}
		}
	}
}

// All yields every view in insertion order.
func (c *Collection) All() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		for _, id := range c.order {
			if !yield(c.entries[id]) {
				return
			}
		}
	}
}

// EnsurePipeline returns the pipeline record of p inside view id, creating it
// on first reference.
func (c *Collection) EnsurePipeline(id ID, p render.PipelineID) (*PipelineEntry, error) {
	e, ok := c.entries[id]
	if !ok {
		return nil, ErrUnknownView
	}
	return e.ensurePipeline(p), nil
}

// FindPipeline returns the view hosting p.
func (c *Collection) FindPipeline(p render.PipelineID) (*Entry, *PipelineEntry, bool) {
	for _, id := range c.order {
		e := c.entries[id]
		if pe, ok := e.pipelines[p]; ok {
			return e, pe, true
		}
	}
	return nil, nil, false
}
