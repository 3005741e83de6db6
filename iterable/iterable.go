// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iterable

import (
	"errors"
	"fmt"

	"code.hybscloud.com/suspend"
)

var (
	// ErrPastEnd is returned by Next once the body has returned or failed.
	ErrPastEnd = errors.New("iterable: iterated past end")
	// ErrPending is returned by Next while an earlier Next is outstanding.
	ErrPending = errors.New("iterable: next already pending")
)

// Factory returns the iterable protocol. Invoke takes no invoker
// arguments and returns an *Iterator; resumes are scheduled on s.
//
// Yielded Awaitables are handed to the base protocol's Yield, so a body
// layered on suspend.CPS may await between the values it yields.
func Factory(s suspend.Scheduler) suspend.Factory {
	return func(_ suspend.Config, base suspend.Protocol) suspend.Ops {
		return suspend.Ops{
			Params: []string{},
			Invoke: func(co *suspend.Coroutine, _ []any) (any, error) {
				it := &Iterator{co: co, sched: s}
				co.SetLocal(it)
				return it, nil
			},
			Yield: func(co *suspend.Coroutine, v any) {
				if _, ok := v.(suspend.Awaitable); ok {
					base.Yield(co, v)
					return
				}
				iteratorOf(co).deliver(Result{Value: v}, nil)
			},
			Return: func(co *suspend.Coroutine, v any) {
				it := iteratorOf(co)
				it.finish()
				it.deliver(Result{Done: true, Value: v}, nil)
			},
			Throw: func(co *suspend.Coroutine, err error) {
				it := iteratorOf(co)
				it.finish()
				it.deliver(Result{}, err)
			},
		}
	}
}

func iteratorOf(co *suspend.Coroutine) *Iterator {
	it, ok := co.Local().(*Iterator)
	if !ok {
		panic(fmt.Sprintf("iterable: coroutine %d is not bound to an iterator", co.Serial()))
	}
	return it
}

// New layers the iterable protocol on b, scheduling resumes on s.
func New(b *suspend.Builder, s suspend.Scheduler) *suspend.Builder {
	return b.Layer(Factory(s), nil)
}

// Builder returns an iterable builder over the callback protocol, driven
// by p's event loop.
func Builder(p *suspend.Pipeline) *suspend.Builder {
	return New(suspend.NewBuilder(p, suspend.CPS(p.Loop()), nil, nil), p.Loop())
}

// Call invokes fn and returns its iterator.
func Call(fn *suspend.Suspendable, args ...any) (*Iterator, error) {
	v, err := fn.Call(args...)
	if err != nil {
		return nil, err
	}
	it, ok := v.(*Iterator)
	if !ok {
		return nil, fmt.Errorf("iterable: %s returned %T, not an iterator", fn.Name(), v)
	}
	return it, nil
}
