// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"code.hybscloud.com/kont"
)

// Resumption is the value carried into a suspended body when it resumes.
// A non-nil Err is raised at the pending yield point.
type Resumption struct {
	Value any
	Err   error
}

// Suspend is the effect operation performed by a body to pause and hand
// Value to the protocol. Perform(Suspend{Value: v}) resumes with the
// Resumption passed to Coroutine.Resume or Coroutine.ResumeError.
type Suspend struct {
	kont.Phantom[Resumption]
	Value any
}

// DispatchCoroutine parks co on the Suspend effect and reports the yielded
// value to co's protocol. co is already Suspended when Yield runs, so a
// resume issued from Yield, or from a task it schedules on another
// goroutine, continues the body. co must not be touched after Yield.
func (s Suspend) DispatchCoroutine(co *Coroutine, susp *kont.Suspension[completion]) {
	proto := co.protocol
	co.susp = susp
	co.dispatching.Add(1)
	co.state.Store(uint32(Suspended))
	proto.Yield(co, s.Value)
	co.dispatching.Add(^uint32(0))
}

// coroutineDispatcher is the structural interface for coroutine effects.
// DispatchCoroutine takes ownership of the suspension.
type coroutineDispatcher interface {
	DispatchCoroutine(co *Coroutine, susp *kont.Suspension[completion])
}

// resumed turns a Resumption back into the body's view of a yield:
// the resumed value, or a thrown error.
func resumed(r Resumption) kont.Eff[any] {
	if r.Err != nil {
		return kont.ThrowError[error, any](r.Err)
	}
	return kont.Pure(r.Value)
}

// Yield suspends the running body with v and evaluates to the value the
// coroutine is resumed with. Resuming with an error raises it here.
func Yield(v any) kont.Eff[any] {
	return kont.Bind(kont.Perform(Suspend{Value: v}), resumed)
}
