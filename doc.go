// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package suspend provides suspendable functions: bodies that pause at
// explicit yield points and resume later, with a pluggable [Protocol]
// deciding what callers observe (a callback, an iterator, ...).
//
// Bodies are effectful computations on [code.hybscloud.com/kont].
// Yielding performs the [Suspend] effect; the coroutine driver steps the
// body with kont's one-shot suspensions and dispatches the protocol.
//
// # Architecture
//
//   - Protocol: four operations (Invoke, Yield, Return, Throw) plus the
//     invoker parameter names. [Bootstrap] fails every operation with
//     [ErrUnimplemented].
//   - Builder: [NewBuilder] merges a [Factory]'s [Ops] over a base protocol.
//     [Builder.Derive] re-synthesizes with merged [Config], or layers a new
//     factory on the current protocol.
//   - Synthesis: [Builder.Func] turns an [Invokee] into a [Suspendable].
//     Arguments are split positionally between the body and the invoker.
//     The specialized strategy (default) caches one call shape per
//     (arity, names, protocol); the generic strategy splits at runtime.
//   - Pipeline: a bounded pool of [Coroutine] objects via
//     [code.hybscloud.com/lfq], and a one-way lock set on first synthesis
//     after which the default builder is frozen.
//   - Scheduling: resumes are routed through a [Scheduler]; [EventLoop]
//     is a cooperative run queue that waits with [code.hybscloud.com/iox]
//     backoff.
//
// # Body API
//
//   - Cont-world: [Yield], [YieldThen], [YieldBind], [Await], [AwaitBind],
//     [Do], [Done], [Throw], [Loop], [YieldAll].
//   - Expr-world: [ExprYieldThen], [ExprYieldBind], [ExprDone]; run an Expr
//     body with [ExprBody].
//
// Errors raised by a body (kont.ThrowError, [Throw], a resume with
// [Coroutine.ResumeError], or a panic captured as [*PanicError]) are routed
// to the protocol's Throw and never returned from Resume.
//
// # Example
//
//	loop := suspend.NewEventLoop()
//	b := suspend.NewBuilder(nil, suspend.CPS(loop), nil, nil)
//	add := b.MustFunc(suspend.Func2("add", "a", "b", func(a, b int) kont.Eff[any] {
//		return suspend.AwaitBind(suspend.Resolved(a), func(x any) kont.Eff[any] {
//			return suspend.Done(x.(int) + b)
//		})
//	}))
//	add.Call(1, 2, func(v any, err error) { fmt.Println(v, err) })
//	loop.Drain() // 3 <nil>
package suspend
