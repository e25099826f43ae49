// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSize(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)

	assert.Equal(t, procs, Size(0), "zero means uncapped")
	assert.Equal(t, procs, Size(-3), "negative means uncapped")
	assert.Equal(t, 1, Size(1))
	assert.Equal(t, min(procs, 2), Size(2))
	assert.Equal(t, procs, Size(procs+16), "cap above parallelism is a no-op")
}

func TestPool_RunAll(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var count atomic.Int64
	tasks := make([]func(), 200)
	for i := range tasks {
		tasks[i] = func() { count.Add(1) }
	}
	p.Run(tasks)

	assert.Equal(t, int64(200), count.Load())
}

func TestPool_RunDisjointWrites(t *testing.T) {
	p := NewPool(0)
	defer p.Close()

	out := make([]int, 64)
	tasks := make([]func(), len(out))
	for i := range tasks {
		tasks[i] = func() { out[i] = i * i }
	}
	p.Run(tasks)

	for i, v := range out {
		require.Equal(t, i*i, v)
	}
}

func TestPool_RunEmptyAndNil(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	p.Run(nil)
	p.Run([]func(){nil, nil})
}

func TestPool_CloseIdempotent(t *testing.T) {
	p := NewPool(2)
	require.True(t, p.IsRunning())

	p.Close()
	p.Close()
	assert.False(t, p.IsRunning())
}

func TestPool_RunAfterCloseRunsInline(t *testing.T) {
	p := NewPool(2)
	p.Close()

	var ran atomic.Bool
	p.Run([]func(){func() { ran.Store(true) }})
	assert.True(t, ran.Load())
}

func TestPool_ConcurrentRun(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tasks := make([]func(), 50)
			for i := range tasks {
				tasks[i] = func() { total.Add(1) }
			}
			p.Run(tasks)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(400), total.Load())
}

func TestPool_UnevenTasksComplete(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var done atomic.Int64
	tasks := make([]func(), 16)
	for i := range tasks {
		tasks[i] = func() {
			if i%4 == 0 {
				time.Sleep(5 * time.Millisecond)
			}
			done.Add(1)
		}
	}
	p.Run(tasks)

	assert.Equal(t, int64(16), done.Load())
}
