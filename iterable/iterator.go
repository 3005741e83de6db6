// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iterable

import (
	"errors"
	"fmt"
	"iter"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/suspend"
)

// Result is one step of an iteration.
// Done is true for the body's return value.
type Result struct {
	Done  bool
	Value any
}

// Iterator pulls values from one suspended body.
type Iterator struct {
	co      *suspend.Coroutine
	sched   suspend.Scheduler
	cb      func(Result, error)
	done    atomix.Uint32
	pending atomix.Uint32
}

// Next arms the body to resume on a later turn and registers cb to receive
// the next Result or error. The first Next starts the body.
//
// Next fails with ErrPastEnd once the body has returned or failed, and with
// ErrPending while a previous callback has not fired yet.
func (it *Iterator) Next(cb func(Result, error)) error {
	if cb == nil {
		return fmt.Errorf("%w: nil next callback", suspend.ErrCallback)
	}
	if it.done.Load() != 0 {
		return ErrPastEnd
	}
	if !it.pending.CompareAndSwap(0, 1) {
		return ErrPending
	}
	it.cb = cb
	co := it.co
	it.sched.Schedule(func() {
		if err := co.Resume(nil); err != nil {
			it.deliver(Result{}, err)
		}
	})
	return nil
}

// ForEach calls each for every yielded value, then done exactly once with
// the body's return value or its error. each is never called after done.
func (it *Iterator) ForEach(each func(any), done func(any, error)) {
	var step func(Result, error)
	step = func(r Result, err error) {
		switch {
		case err != nil:
			done(nil, err)
		case r.Done:
			done(r.Value, nil)
		default:
			each(r.Value)
			if err := it.Next(step); err != nil {
				done(nil, err)
			}
		}
	}
	if err := it.Next(step); err != nil {
		done(nil, err)
	}
}

// Done reports whether the body has returned or failed.
func (it *Iterator) Done() bool { return it.done.Load() != 0 }

// All returns a blocking sequence over the yielded values. The body's
// return value is not part of the sequence; a body error is yielded once
// as the final pair.
//
// When the scheduler can be drained (as *suspend.EventLoop can), All
// drains it on the calling goroutine; otherwise it waits for another
// goroutine to run it. All must not be called from a scheduled task.
// Stopping early leaves the body suspended.
func (it *Iterator) All() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for {
			ch := make(chan outcome, 1)
			err := it.Next(func(r Result, err error) { ch <- outcome{r, err} })
			if errors.Is(err, ErrPastEnd) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			o := it.wait(ch)
			if o.err != nil {
				yield(nil, o.err)
				return
			}
			if o.r.Done {
				return
			}
			if !yield(o.r.Value, nil) {
				return
			}
		}
	}
}

type outcome struct {
	r   Result
	err error
}

type drainer interface {
	Drain() bool
}

// wait drains the scheduler until ch is ready, backing off with
// iox.Backoff while another goroutine owns the loop or a resolve is
// still in flight.
func (it *Iterator) wait(ch <-chan outcome) outcome {
	d, ok := it.sched.(drainer)
	if !ok {
		return <-ch
	}
	var bo iox.Backoff
	for {
		select {
		case o := <-ch:
			return o
		default:
		}
		d.Drain()
		select {
		case o := <-ch:
			return o
		default:
			bo.Wait()
		}
	}
}

func (it *Iterator) finish() {
	it.done.Store(1)
	it.co = nil
}

func (it *Iterator) deliver(r Result, err error) {
	cb := it.cb
	it.cb = nil
	it.pending.Store(0)
	if cb != nil {
		cb(r, err)
	}
}
