// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacedRefresh(t *testing.T) {
	g := NewPacedRefresh(16 * time.Millisecond)
	start := time.Unix(100, 0)

	assert.True(t, g.ShouldRender(start), "first pass always runs")
	assert.False(t, g.ShouldRender(start.Add(10*time.Millisecond)))
	assert.True(t, g.ShouldRender(start.Add(16*time.Millisecond)))
	assert.False(t, g.ShouldRender(start.Add(20*time.Millisecond)))
}

func TestGateFor(t *testing.T) {
	assert.Equal(t, ImmediateRefresh{}, gateFor(0))
	assert.True(t, gateFor(0).ShouldRender(time.Time{}))
	assert.IsType(t, &PacedRefresh{}, gateFor(time.Millisecond))
}

func TestRepaintReasonString(t *testing.T) {
	assert.Equal(t, "none", RepaintReason(0).String())
	assert.Equal(t, "resize", RepaintResize.String())
	assert.Equal(t, "new-frame|screenshot", (RepaintNewFrame | RepaintScreenshot).String())
}
