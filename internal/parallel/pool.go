// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package parallel provides the worker pool used by the reference engine to
// rasterize frame bands concurrently.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of goroutines with per-worker queues. A worker whose
// queue is empty steals from its siblings before blocking, which keeps bands
// with uneven cost from serializing on one worker.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()

	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// Size returns the number of workers a pool capped at maxWorkers will use:
// the available parallelism, limited by maxWorkers when it is positive.
func Size(maxWorkers int) int {
	n := runtime.GOMAXPROCS(0)
	if maxWorkers > 0 && n > maxWorkers {
		n = maxWorkers
	}
	return max(n, 1)
}

// NewPool starts a pool of Size(maxWorkers) workers.
func NewPool(maxWorkers int) *Pool {
	workers := Size(maxWorkers)

	queueSize := max(workers*4, 8)

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case task := <-own:
			run(task)
		default:
			if task := p.steal(id); task != nil {
				task()
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case task := <-own:
				run(task)
			}
		}
	}
}

func run(task func()) {
	if task != nil {
		task()
	}
}

func (p *Pool) drain(queue chan func()) {
	for {
		select {
		case task := <-queue:
			run(task)
		default:
			return
		}
	}
}

func (p *Pool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case task := <-p.queues[i]:
			return task
		default:
		}
	}
	return nil
}

// Run distributes tasks round-robin and blocks until every task has run.
// After Close, Run executes the tasks on the calling goroutine so callers
// never observe a partially rasterized frame.
func (p *Pool) Run(tasks []func()) {
	if len(tasks) == 0 {
		return
	}
	if !p.running.Load() {
		for _, task := range tasks {
			run(task)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		wrapped := func() {
			defer wg.Done()
			run(task)
		}
		select {
		case p.queues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	wg.Wait()
}

// Close stops the workers after their queues drain. It is idempotent.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts work.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}
