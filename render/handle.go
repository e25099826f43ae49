// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

// Handle owns an Engine and records whether it was shut down. The state is a
// tagged variant: callers go through Active, so "already shut down" is a case
// they must handle rather than a nil they can forget to check.
type Handle struct {
	state handleState
}

type handleState interface {
	isHandleState()
}

type activeEngine struct {
	engine Engine
}

type shutDownEngine struct{}

func (activeEngine) isHandleState()   {}
func (shutDownEngine) isHandleState() {}

// NewHandle wraps an active engine.
func NewHandle(e Engine) Handle {
	return Handle{state: activeEngine{engine: e}}
}

// Active returns the engine while it is running.
func (h Handle) Active() (Engine, bool) {
	if a, ok := h.state.(activeEngine); ok {
		return a.engine, true
	}
	return nil, false
}

// IsShutDown reports whether Shutdown already ran.
func (h Handle) IsShutDown() bool {
	_, ok := h.state.(activeEngine)
	return !ok
}

// Shutdown stops the engine and moves the handle to the shut-down state.
func (h *Handle) Shutdown() error {
	a, ok := h.state.(activeEngine)
	if !ok {
		return ErrShutDown
	}
	h.state = shutDownEngine{}
	a.engine.Shutdown()
	return nil
}
