/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package workpool is a small goroutine pool for running
// independent jobs concurrently, such as replaying several trace files
// each against its own malloc.Allocator instance. It does not make a
// single Allocator safe to share across goroutines; every job brings
// its own.
package workpool

import (
	"context"
	"log"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// Option configures a Pool.
type Option struct {
	// MaxIdleWorkers is the max idle workers kept around waiting for
	// tasks. Workers beyond this count exit once their queued task is
	// done instead of blocking for more.
	MaxIdleWorkers int

	// WorkerMaxAge is how long an idle worker sticks around before
	// exiting on its own.
	WorkerMaxAge time.Duration

	// TaskChanBuffer bounds the pending-task queue. A full queue
	// falls back to spawning a bare goroutine for that one task
	// rather than blocking the submitter.
	TaskChanBuffer int
}

// DefaultOption returns sane defaults for a handful of concurrent
// trace-replay jobs; it's not tuned for thousands of tiny tasks.
func DefaultOption() *Option {
	return &Option{
		MaxIdleWorkers: 16,
		WorkerMaxAge:   time.Minute,
		TaskChanBuffer: 64,
	}
}

type task struct {
	ctx context.Context
	f   func()
}

// Pool runs submitted funcs on worker goroutines, keeping up to
// MaxIdleWorkers of them alive between tasks for reuse. The number of
// goroutines running at once is not capped: a submission that finds
// tasks still queued starts another worker, and one that finds the
// queue full runs on a goroutine of its own.
type Pool struct {
	name string

	workers int32
	maxIdle int32
	maxage  int64 // milliseconds

	panicHandler func(ctx context.Context, r interface{})

	tasks     chan task
	unixMilli int64

	createWorker func()
}

// New creates a Pool. A nil Option selects DefaultOption.
func New(name string, o *Option) *Pool {
	if o == nil {
		o = DefaultOption()
	}
	p := &Pool{
		name:    name,
		tasks:   make(chan task, o.TaskChanBuffer),
		maxage:  o.WorkerMaxAge.Milliseconds(),
		maxIdle: int32(o.MaxIdleWorkers),
	}
	p.createWorker = func() { p.runWorker() }
	return p
}

// Go runs f on the pool.
func (p *Pool) Go(f func()) {
	p.CtxGo(context.Background(), f)
}

// CtxGo runs f on the pool, passing ctx to the panic handler if f panics.
func (p *Pool) CtxGo(ctx context.Context, f func()) {
	select {
	case p.tasks <- task{ctx: ctx, f: f}:
	default:
		go p.runTask(ctx, f)
		return
	}
	if len(p.tasks) == 0 {
		return
	}
	go p.createWorker()
}

// SetPanicHandler overrides how the pool reports a recovered panic.
// By default it logs the pool's name, the panic value, and a stack trace.
func (p *Pool) SetPanicHandler(f func(ctx context.Context, r interface{})) {
	p.panicHandler = f
}

// CurrentWorkers reports how many worker goroutines are currently alive.
func (p *Pool) CurrentWorkers() int {
	return int(atomic.LoadInt32(&p.workers))
}

func (p *Pool) runTask(ctx context.Context, f func()) {
	defer func() {
		if r := recover(); r != nil {
			if p.panicHandler != nil {
				p.panicHandler(ctx, r)
			} else {
				log.Printf("workpool: panic in pool %q: %v: %s", p.name, r, debug.Stack())
			}
		}
	}()
	f()
}

func (p *Pool) runWorker() {
	id := atomic.AddInt32(&p.workers, 1)
	defer atomic.AddInt32(&p.workers, -1)

	if id > p.maxIdle {
		for {
			select {
			case t := <-p.tasks:
				p.runTask(t.ctx, t.f)
			default:
				return
			}
		}
	}

	createdAt := time.Now().UnixMilli()
	for t := range p.tasks {
		p.runTask(t.ctx, t.f)

		now := atomic.LoadInt64(&p.unixMilli)
		if now == 0 {
			now = time.Now().UnixMilli()
			if atomic.CompareAndSwapInt64(&p.unixMilli, 0, now) {
				go p.runTicker()
			}
		}
		if now-createdAt > p.maxage {
			return
		}
	}
}

var noopTask = task{f: func() {}}

func (p *Pool) runTicker() {
	defer atomic.StoreInt64(&p.unixMilli, 0)

	d := time.Duration(p.maxage) * time.Millisecond / 100
	if d < time.Millisecond {
		d = time.Millisecond
	}

	t := time.NewTicker(d)
	defer t.Stop()

	for now := range t.C {
		if p.CurrentWorkers() == 0 {
			return
		}
		atomic.StoreInt64(&p.unixMilli, now.UnixMilli())
		p.tasks <- noopTask
	}
}
