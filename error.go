// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"errors"
	"fmt"

	"code.hybscloud.com/kont"
)

// Usage errors. Returned synchronously at the Builder, Derive and entry
// boundaries.
var (
	ErrNoArguments    = errors.New("suspend: expected at least one argument")
	ErrDeriveArgument = errors.New("suspend: derive expects a Config, or a Factory and an optional Config")
	ErrNotCallable    = errors.New("suspend: expected a single callable argument")
	ErrParamConflict  = errors.New("suspend: invokee and invoker share a parameter name")
	ErrArgType        = errors.New("suspend: argument has the wrong type")
	ErrCallback       = errors.New("suspend: expected a callback of type func(any, error)")
	ErrLocked         = errors.New("suspend: pipeline is locked; default protocol can no longer change")
)

// Protocol-contract errors.
var (
	ErrUnimplemented   = errors.New("suspend: protocol operation not implemented")
	ErrNotRunning      = errors.New("suspend: coroutine is not running")
	ErrRunning         = errors.New("suspend: coroutine is already running")
	ErrNotSuspended    = errors.New("suspend: coroutine is not suspended")
	ErrNotReleasable   = errors.New("suspend: coroutine is still in flight")
	ErrUnhandledEffect = errors.New("suspend: unhandled effect")
	ErrLoopBusy        = errors.New("suspend: event loop is already running")
)

// ConflictError reports a parameter name declared by both the invokee
// and the protocol's invoker.
type ConflictError struct {
	Invokee string
	Name    string
}

func (e *ConflictError) Error() string {
	if e.Invokee == "" {
		return fmt.Sprintf("%v: %q", ErrParamConflict, e.Name)
	}
	return fmt.Sprintf("%v: %q in %s", ErrParamConflict, e.Name, e.Invokee)
}

func (e *ConflictError) Unwrap() error { return ErrParamConflict }

// StateError reports a protocol operation dispatched against a coroutine
// in the wrong state.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%v: %s called in state %s", ErrNotRunning, e.Op, e.State)
}

func (e *StateError) Unwrap() error { return ErrNotRunning }

// errorDispatcher is the structural interface of kont's error effects.
// Throw sets the context error; Catch runs its body internally.
type errorDispatcher interface {
	DispatchError(ctx *kont.ErrorContext[error]) (kont.Resumed, bool)
}

// dispatchError evaluates a kont error effect eagerly.
// Returns the resumption value, or the thrown error.
func dispatchError(eop errorDispatcher) (kont.Resumed, error) {
	var ctx kont.ErrorContext[error]
	v, _ := eop.DispatchError(&ctx)
	if ctx.HasErr {
		if ctx.Err == nil {
			return nil, fmt.Errorf("%w: nil error thrown", ErrUnhandledEffect)
		}
		return nil, ctx.Err
	}
	return v, nil
}
