// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// Scheduler defers a resumption trigger to a later turn.
// Protocols route every resume through a Scheduler so that a caller never
// observes its own result inside the call that triggered it. Tasks may run
// serially or on separate goroutines.
type Scheduler interface {
	Schedule(task func())
}

// EventLoop is a cooperative FIFO run queue. The queue is unbounded:
// a task may schedule any number of follow-ups while the loop drains.
// Tasks run serially on whichever goroutine drains the loop; at most one
// goroutine drains at a time. Schedule is safe from any goroutine.
type EventLoop struct {
	mu    sync.Mutex
	queue []func()
	busy  atomix.Uint32
}

// NewEventLoop returns an empty loop.
func NewEventLoop() *EventLoop {
	return &EventLoop{}
}

// Schedule appends task to the run queue.
func (l *EventLoop) Schedule(task func()) {
	if task == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()
}

// Len returns the number of queued tasks.
func (l *EventLoop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *EventLoop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	if len(l.queue) == 0 {
		l.queue = nil
	}
	return task, true
}

// Drain runs queued tasks, including tasks they schedule, until the queue
// is empty. It returns false without running anything when another
// goroutine is already draining the loop.
func (l *EventLoop) Drain() bool {
	if !l.busy.CompareAndSwap(0, 1) {
		return false
	}
	defer l.busy.Store(0)
	for {
		task, ok := l.pop()
		if !ok {
			return true
		}
		task()
	}
}

// Run drains the loop until ctx is done, waiting with adaptive backoff
// (iox.Backoff) while the queue is empty. Returns ErrLoopBusy when another
// goroutine is draining.
func (l *EventLoop) Run(ctx context.Context) error {
	if !l.busy.CompareAndSwap(0, 1) {
		return ErrLoopBusy
	}
	defer l.busy.Store(0)
	var bo iox.Backoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		task, ok := l.pop()
		if !ok {
			bo.Wait()
			continue
		}
		bo.Reset()
		task()
	}
}
