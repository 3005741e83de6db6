// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"fmt"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/kont"
)

// State is the lifecycle state of a Coroutine.
type State uint32

const (
	// Idle coroutines are owned by the pipeline's pool.
	Idle State = iota
	// Bound coroutines carry a protocol and body but have not started.
	Bound
	Running
	Suspended
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Bound:
		return "bound"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", uint32(s))
}

// Terminal reports whether s is Completed or Failed.
func (s State) Terminal() bool { return s == Completed || s == Failed }

// Coroutine is the reusable suspend/resume state of one in-flight
// suspendable call. It is loaned by a Pipeline to exactly one call and
// returned to the pool when the body completes or fails.
//
// A protocol must not retain a Coroutine past the Return or Throw
// dispatched to it: the pipeline recycles it immediately afterwards.
type Coroutine struct {
	pipeline    *Pipeline
	protocol    Protocol
	body        func() kont.Eff[any]
	susp        *kont.Suspension[completion]
	local       any
	state       atomix.Uint32
	dispatching atomix.Uint32
	serial      Serial
}

// Serial identifies one acquisition of a Coroutine. A recycled coroutine
// receives a fresh serial every time a call acquires it, so log lines and
// late resolves can be told apart across reuse.
type Serial = uint32

var serials atomix.Uint32

func nextSerial() Serial {
	return serials.Add(1)
}

// completion boxes the body's final value. Stepping over a struct keeps a
// nil result from reaching kont's typed result assertions.
type completion struct {
	value any
}

func box(v kont.Erased) kont.Erased { return completion{value: v} }

// completed maps m's result into a completion.
func completed(m kont.Expr[any]) kont.Expr[completion] {
	if _, ok := m.Frame.(kont.ReturnFrame); ok {
		return kont.ExprReturn(completion{value: m.Value})
	}
	return kont.Expr[completion]{
		Frame: kont.ChainFrames(m.Frame, &kont.MapFrame[kont.Erased, kont.Erased]{
			F:    box,
			Next: kont.ReturnFrame{},
		}),
	}
}

// State returns the current lifecycle state.
func (co *Coroutine) State() State { return State(co.state.Load()) }

// Serial returns the serial assigned when co was last acquired.
func (co *Coroutine) Serial() Serial { return co.serial }

// Protocol returns the protocol co is bound to.
func (co *Coroutine) Protocol() Protocol { return co.protocol }

// Local returns the protocol-owned slot.
func (co *Coroutine) Local() any { return co.local }

// SetLocal stores protocol-owned state for the duration of the call.
// The slot is cleared on release.
func (co *Coroutine) SetLocal(v any) { co.local = v }

// Resume runs co until its next yield, completion or failure.
// A Bound coroutine starts its body; a Suspended one continues from the
// pending yield, which evaluates to v.
//
// Resume returns ErrRunning while the body is being stepped, and
// ErrNotSuspended when co is idle or terminal. A coroutine is Suspended
// before its protocol's Yield runs, so Yield may hand the resume to any
// goroutine, including its own. Body errors are never
// returned here; they are delivered through the protocol's Throw.
func (co *Coroutine) Resume(v any) error {
	return co.resume(Resumption{Value: v})
}

// ResumeError continues a Suspended coroutine by raising err at the
// pending yield. A Bound coroutine starts normally and err is dropped.
func (co *Coroutine) ResumeError(err error) error {
	return co.resume(Resumption{Err: err})
}

func (co *Coroutine) resume(r Resumption) error {
	if co.state.CompareAndSwap(uint32(Bound), uint32(Running)) {
		co.advance(co.start)
		return nil
	}
	if co.state.CompareAndSwap(uint32(Suspended), uint32(Running)) {
		susp := co.susp
		co.susp = nil
		co.advance(func() (completion, *kont.Suspension[completion]) {
			return susp.Resume(r)
		})
		return nil
	}
	s := co.State()
	if s == Running {
		return ErrRunning
	}
	return fmt.Errorf("%w: state %s", ErrNotSuspended, s)
}

// start evaluates the body until its first effect.
// The body is only called here, so nothing runs before the first resume.
func (co *Coroutine) start() (completion, *kont.Suspension[completion]) {
	return kont.StepExpr(completed(kont.Reify(co.body())))
}

// advance drives the body one effect at a time.
// Error effects are evaluated eagerly and stepping continues; a Suspend
// effect parks the coroutine and returns control to the resumer.
func (co *Coroutine) advance(step func() (completion, *kont.Suspension[completion])) {
	var (
		result completion
		susp   *kont.Suspension[completion]
	)
	for {
		if err := capture(func() { result, susp = step() }); err != nil {
			co.fail(err)
			return
		}
		if susp == nil {
			co.finish(result.value)
			return
		}
		switch op := susp.Op().(type) {
		case coroutineDispatcher:
			op.DispatchCoroutine(co, susp)
			return
		case errorDispatcher:
			var (
				v      kont.Resumed
				thrown error
			)
			if err := capture(func() { v, thrown = dispatchError(op) }); err != nil {
				thrown = err
			}
			if thrown != nil {
				susp.Discard()
				co.fail(thrown)
				return
			}
			next := susp
			step = func() (completion, *kont.Suspension[completion]) {
				return next.Resume(v)
			}
		default:
			susp.Discard()
			co.fail(fmt.Errorf("%w: %T", ErrUnhandledEffect, op))
			return
		}
	}
}

func (co *Coroutine) finish(result any) {
	co.protocol.Return(co, result)
	co.state.Store(uint32(Completed))
	co.pipeline.recycle(co)
}

func (co *Coroutine) fail(err error) {
	co.pipeline.log.Debug().Uint32("serial", co.serial).Err(err).Msg("coroutine failed")
	co.protocol.Throw(co, err)
	co.state.Store(uint32(Failed))
	co.pipeline.recycle(co)
}

// capture runs f, converting a panic into a *PanicError.
func capture(f func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = newPanicError(p)
		}
	}()
	f()
	return nil
}
