// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"fmt"
	"slices"
)

// Protocol decides how a suspendable call is started and how a running
// body's yields, result and error are exposed to the caller.
//
// The coroutine handle is always the implicit leading parameter of Invoke;
// Params names only the caller-supplied invoker arguments, so the invoker
// arity is len(Params()).
type Protocol interface {
	Params() []string
	Invoke(co *Coroutine, args []any) (any, error)
	Yield(co *Coroutine, value any)
	Return(co *Coroutine, value any)
	Throw(co *Coroutine, err error)
}

// Ops is a partial protocol returned by a Factory.
// Nil fields are inherited from the base protocol.
type Ops struct {
	Params []string
	Invoke func(co *Coroutine, args []any) (any, error)
	Yield  func(co *Coroutine, value any)
	Return func(co *Coroutine, value any)
	Throw  func(co *Coroutine, err error)
}

// Factory synthesizes the operations of a protocol from a configuration
// and the protocol it is layered on.
type Factory func(cfg Config, base Protocol) Ops

// Bootstrap is the placeholder protocol at the bottom of every chain.
// Each operation fails with ErrUnimplemented, so a protocol that forgets
// an operation is caught the first time it is exercised.
var Bootstrap Protocol = bootstrap{}

type bootstrap struct{}

func (bootstrap) Params() []string { return nil }

func (bootstrap) Invoke(*Coroutine, []any) (any, error) {
	return nil, fmt.Errorf("%w: invoke", ErrUnimplemented)
}

func (bootstrap) Yield(*Coroutine, any) {
	panic(fmt.Errorf("%w: yield", ErrUnimplemented))
}

func (bootstrap) Return(*Coroutine, any) {
	panic(fmt.Errorf("%w: return", ErrUnimplemented))
}

func (bootstrap) Throw(*Coroutine, error) {
	panic(fmt.Errorf("%w: throw", ErrUnimplemented))
}

// layered is the protocol produced by merging Ops over a base.
// Every operation is resolved at construction; dispatch never walks the chain.
type layered struct {
	params []string
	invoke func(co *Coroutine, args []any) (any, error)
	yield  func(co *Coroutine, value any)
	ret    func(co *Coroutine, value any)
	throw  func(co *Coroutine, err error)
}

// compose merges ops over base. Factory operations with matching names
// override the base; the rest are inherited.
func compose(base Protocol, ops Ops) *layered {
	if base == nil {
		base = Bootstrap
	}
	p := &layered{
		params: base.Params(),
		invoke: base.Invoke,
		yield:  base.Yield,
		ret:    base.Return,
		throw:  base.Throw,
	}
	if ops.Params != nil {
		p.params = ops.Params
	}
	if ops.Invoke != nil {
		p.invoke = ops.Invoke
	}
	if ops.Yield != nil {
		p.yield = ops.Yield
	}
	if ops.Return != nil {
		p.ret = ops.Return
	}
	if ops.Throw != nil {
		p.throw = ops.Throw
	}
	p.params = slices.Clip(slices.Clone(p.params))
	return p
}

func (p *layered) Params() []string { return slices.Clone(p.params) }

func (p *layered) Invoke(co *Coroutine, args []any) (any, error) {
	return p.invoke(co, args)
}

func (p *layered) Yield(co *Coroutine, value any) {
	mustDispatch(co, "yield")
	p.yield(co, value)
}

func (p *layered) Return(co *Coroutine, value any) {
	mustRun(co, "return")
	p.ret(co, value)
}

func (p *layered) Throw(co *Coroutine, err error) {
	mustRun(co, "throw")
	p.throw(co, err)
}

// mustRun panics unless co is running. Return and Throw are only
// meaningful while the body owns the coroutine.
func mustRun(co *Coroutine, op string) {
	if s := co.State(); s != Running {
		panic(&StateError{Op: op, State: s})
	}
}

// mustDispatch panics unless co is running or a yield is being dispatched
// for it.
func mustDispatch(co *Coroutine, op string) {
	if co.dispatching.Load() != 0 {
		return
	}
	mustRun(co, op)
}
