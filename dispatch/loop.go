/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package dispatch

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrLoopClosed is returned for work submitted to a closed Loop.
var ErrLoopClosed = errors.New("vpx(dispatch): loop closed")

// LockOSThread pins the calling goroutine to its OS thread and reports
// success. The goroutine stays pinned until it exits.
var LockOSThread Promoter = PromoterFunc(func() bool {
	runtime.LockOSThread()
	return true
})

// Loop is an Executor backed by one goroutine locked to its OS thread.
// Tasks run in submission order.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task
	closed bool
	done   chan struct{}
}

type task struct {
	ctx  context.Context
	fn   func(ctx context.Context)
	done chan error
}

// Ensure Loop implements Executor.
var _ Executor = (*Loop)(nil)

// NewLoop starts a loop goroutine.
func NewLoop() *Loop {
	l := &Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

func (l *Loop) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if l.closed {
			pending := l.queue
			l.queue = nil
			l.mu.Unlock()
			for _, t := range pending {
				t.done <- ErrLoopClosed
			}
			return
		}
		t := l.queue[0]
		l.queue[0] = task{}
		l.queue = l.queue[1:]
		l.mu.Unlock()

		t.fn(WithAffinity(t.ctx))
		t.done <- nil
	}
}

// Go queues fn and returns a channel that receives nil once fn has run, or
// ErrLoopClosed if it never will.
func (l *Loop) Go(ctx context.Context, fn func(ctx context.Context)) <-chan error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan error, 1)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		done <- ErrLoopClosed
		return done
	}
	l.queue = append(l.queue, task{ctx: ctx, fn: fn, done: done})
	l.cond.Signal()
	return done
}

// Submit queues fn and blocks until it has run.
func (l *Loop) Submit(ctx context.Context, fn func(ctx context.Context)) error {
	return <-l.Go(ctx, fn)
}

// Close stops accepting work. Queued tasks that have not started fail with
// ErrLoopClosed. Close does not wait for the running task; use Done for
// that.
func (l *Loop) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()
	return nil
}

// Done returns a channel closed when the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
