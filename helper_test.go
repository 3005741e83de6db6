// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend_test

import (
	"code.hybscloud.com/kont"
	"code.hybscloud.com/suspend"
)

// trace records what the synchronous test protocol observed for one call.
type trace struct {
	co      *suspend.Coroutine
	serial  suspend.Serial
	Invoker []any
	Yields  []any
	Result  any
	Err     error
	done    bool
}

// syncFactory drives the body to completion from inside Invoke and
// returns the trace. Resumes are issued from Invoke's frame, never from
// a protocol operation.
func syncFactory(params ...string) suspend.Factory {
	return func(_ suspend.Config, _ suspend.Protocol) suspend.Ops {
		return suspend.Ops{
			Params: append([]string{}, params...),
			Invoke: func(co *suspend.Coroutine, args []any) (any, error) {
				tr := &trace{co: co, serial: co.Serial(), Invoker: args}
				co.SetLocal(tr)
				for !tr.done {
					if err := co.Resume(len(tr.Yields)); err != nil {
						return nil, err
					}
				}
				return tr, nil
			},
			Yield: func(co *suspend.Coroutine, v any) {
				tr := co.Local().(*trace)
				tr.Yields = append(tr.Yields, v)
			},
			Return: func(co *suspend.Coroutine, v any) {
				tr := co.Local().(*trace)
				tr.Result = v
				tr.done = true
			},
			Throw: func(co *suspend.Coroutine, err error) {
				tr := co.Local().(*trace)
				tr.Err = err
				tr.done = true
			},
		}
	}
}

// syncBuilder returns a builder over the synchronous test protocol.
func syncBuilder(p *suspend.Pipeline, cfg suspend.Config, params ...string) *suspend.Builder {
	return suspend.NewBuilder(p, syncFactory(params...), cfg, nil)
}

// echo yields each body argument and returns them as a slice.
func echo(params ...string) suspend.Invokee {
	return suspend.Invokee{
		Name:   "echo",
		Params: params,
		Body: func(args []any) kont.Eff[any] {
			return suspend.YieldAll(append([]any{}, args...), args...)
		},
	}
}

// callTrace calls fn and returns the trace produced by the sync protocol.
func callTrace(fn *suspend.Suspendable, args ...any) (*trace, error) {
	v, err := fn.Call(args...)
	if err != nil {
		return nil, err
	}
	return v.(*trace), nil
}
