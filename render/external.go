// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"image"
	"sort"
	"sync"
)

// ExternalImageType identifies the producer family behind an external image.
type ExternalImageType uint8

const (
	ExternalCanvas ExternalImageType = iota + 1
	ExternalWebGL
	ExternalWebGPU
	ExternalXR
)

func (t ExternalImageType) String() string {
	switch t {
	case ExternalCanvas:
		return "canvas"
	case ExternalWebGL:
		return "webgl"
	case ExternalWebGPU:
		return "webgpu"
	case ExternalXR:
		return "xr"
	default:
		return "unknown"
	}
}

// ExternalImageHandler hands out the current pixels of images owned by one
// producer family. Lock and Unlock bracket the engine's use of the pixels;
// the producer must not overwrite a locked image in place.
type ExternalImageHandler interface {
	Lock(id ExternalImageID) (*image.RGBA, bool)
	Unlock(id ExternalImageID)
}

// UnknownExternalImageError reports an id that no handler owns.
type UnknownExternalImageError struct {
	ID ExternalImageID
}

func (e *UnknownExternalImageError) Error() string {
	return fmt.Sprintf("render: unknown external image %d", e.ID)
}

// HandlerNotRegisteredError reports a producer family with no handler.
type HandlerNotRegisteredError struct {
	Type ExternalImageType
}

func (e *HandlerNotRegisteredError) Error() string {
	return "render: no external image handler for " + e.Type.String()
}

// ExternalImages is the registry bridging external texture producers to the
// engine. Producers register and bind from their own goroutines while raster
// workers lock images, so every access goes through the mutex.
type ExternalImages struct {
	mu       sync.RWMutex
	handlers map[ExternalImageType]ExternalImageHandler
	owners   map[ExternalImageID]ExternalImageType
}

// NewExternalImages returns an empty registry.
func NewExternalImages() *ExternalImages {
	return &ExternalImages{
		handlers: make(map[ExternalImageType]ExternalImageHandler),
		owners:   make(map[ExternalImageID]ExternalImageType),
	}
}

// Register installs the handler for a producer family, replacing any
// previous one.
func (r *ExternalImages) Register(typ ExternalImageType, h ExternalImageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[typ] = h
}

// Unregister removes the handler for typ. Images bound to it stay bound but
// fail to lock until a handler returns.
func (r *ExternalImages) Unregister(typ ExternalImageType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, typ)
}

// Types returns the registered producer families in ascending order.
func (r *ExternalImages) Types() []ExternalImageType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]ExternalImageType, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Bind assigns id to the producer family typ.
func (r *ExternalImages) Bind(id ExternalImageID, typ ExternalImageType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[typ]; !ok {
		return &HandlerNotRegisteredError{Type: typ}
	}
	r.owners[id] = typ
	return nil
}

// Unbind forgets id.
func (r *ExternalImages) Unbind(id ExternalImageID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.owners, id)
}

func (r *ExternalImages) handlerFor(id ExternalImageID) (ExternalImageHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	typ, ok := r.owners[id]
	if !ok {
		return nil, &UnknownExternalImageError{ID: id}
	}
	h, ok := r.handlers[typ]
	if !ok {
		return nil, &HandlerNotRegisteredError{Type: typ}
	}
	return h, nil
}

// Lock returns the current pixels of id. A successful Lock must be paired
// with Unlock.
func (r *ExternalImages) Lock(id ExternalImageID) (*image.RGBA, error) {
	h, err := r.handlerFor(id)
	if err != nil {
		return nil, err
	}
	img, ok := h.Lock(id)
	if !ok {
		return nil, &UnknownExternalImageError{ID: id}
	}
	return img, nil
}

// Unlock releases an image obtained from Lock.
func (r *ExternalImages) Unlock(id ExternalImageID) {
	if h, err := r.handlerFor(id); err == nil {
		h.Unlock(id)
	}
}

// FrameStore is an ExternalImageHandler for producers that publish whole
// frames from their own goroutines (canvas 2D, video). Publish swaps the
// stored image, so a locked image is never written again.
type FrameStore struct {
	mu     sync.Mutex
	frames map[ExternalImageID]*image.RGBA
	locked map[ExternalImageID]int
}

// NewFrameStore returns an empty store.
func NewFrameStore() *FrameStore {
	return &FrameStore{
		frames: make(map[ExternalImageID]*image.RGBA),
		locked: make(map[ExternalImageID]int),
	}
}

// Publish makes img the current frame of id. The store takes ownership of img.
func (s *FrameStore) Publish(id ExternalImageID, img *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[id] = img
}

// Remove forgets id.
func (s *FrameStore) Remove(id ExternalImageID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.frames, id)
}

// Lock implements ExternalImageHandler.
func (s *FrameStore) Lock(id ExternalImageID) (*image.RGBA, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.frames[id]
	if ok {
		s.locked[id]++
	}
	return img, ok
}

// Unlock implements ExternalImageHandler.
func (s *FrameStore) Unlock(id ExternalImageID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked[id] <= 1 {
		delete(s.locked, id)
		return
	}
	s.locked[id]--
}

// Locked reports how many outstanding locks id has.
func (s *FrameStore) Locked(id ExternalImageID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked[id]
}
