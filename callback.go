// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"fmt"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/kont"
)

// Awaitable is a deferred value. It is started with a resolve function
// that must be called exactly once, from any goroutine.
type Awaitable func(resolve func(any, error))

// Await suspends the running body until a resolves, evaluating to the
// resolved value or raising the resolved error.
func Await(a Awaitable) kont.Eff[any] {
	return Yield(a)
}

// Resolved returns an Awaitable that resolves immediately with v.
func Resolved(v any) Awaitable {
	return func(resolve func(any, error)) { resolve(v, nil) }
}

// Rejected returns an Awaitable that resolves immediately with err.
func Rejected(err error) Awaitable {
	return func(resolve func(any, error)) { resolve(nil, err) }
}

// CPS is the callback protocol. The invoker takes one trailing
// func(any, error) callback, invoked once with the body's result or
// error. The body never starts inside the call itself: Invoke schedules
// the first resume on s.
//
// Inside the body, yielding an Awaitable waits for it; yielding any other
// value resumes with that value on the next turn.
func CPS(s Scheduler) Factory {
	return func(_ Config, _ Protocol) Ops {
		return Ops{
			Params: []string{"callback"},
			Invoke: func(co *Coroutine, args []any) (any, error) {
				var cb func(any, error)
				if len(args) > 0 {
					cb, _ = args[0].(func(any, error))
				}
				if cb == nil {
					var got any
					if len(args) > 0 {
						got = args[0]
					}
					return nil, fmt.Errorf("%w: got %T", ErrCallback, got)
				}
				co.SetLocal(cb)
				s.Schedule(func() { mustResume(co.Resume(nil)) })
				return nil, nil
			},
			Yield: func(co *Coroutine, v any) {
				AwaitOn(co, s, v)
			},
			Return: func(co *Coroutine, v any) {
				co.Local().(func(any, error))(v, nil)
			},
			Throw: func(co *Coroutine, err error) {
				co.Local().(func(any, error))(nil, err)
			},
		}
	}
}

// AwaitOn arranges for co to resume on s with the outcome of v: the
// resolution of an Awaitable, or v itself.
func AwaitOn(co *Coroutine, s Scheduler, v any) {
	resolve := Resumer(co, s)
	if a, ok := v.(Awaitable); ok && a != nil {
		a(resolve)
		return
	}
	resolve(v, nil)
}

// Resumer returns a resolve function that resumes co on s with a value or
// an error. Only the first call takes effect; later calls are logged and
// dropped.
func Resumer(co *Coroutine, s Scheduler) func(any, error) {
	var once atomix.Uint32
	serial := co.Serial()
	log := co.pipeline.log
	return func(v any, err error) {
		if !once.CompareAndSwap(0, 1) {
			log.Error().Uint32("serial", serial).Msg("awaitable resolved more than once")
			return
		}
		s.Schedule(func() {
			if err != nil {
				mustResume(co.ResumeError(err))
				return
			}
			mustResume(co.Resume(v))
		})
	}
}

// mustResume panics on a resume the protocol should never have issued.
func mustResume(err error) {
	if err != nil {
		panic(err)
	}
}
