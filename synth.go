// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"slices"
	"strings"

	"code.hybscloud.com/kont"
)

// Invokee is the body a caller wants to run as a suspendable computation.
//
// Params names the body's declared parameters; len(Params) is its arity.
// Body is called once, lazily, when the coroutine first resumes. Check,
// when set, validates the body's arguments synchronously at call time.
type Invokee struct {
	Name   string
	Params []string
	Body   func(args []any) kont.Eff[any]
	Check  func(args []any) error
}

// Suspendable is a synthesized suspendable function.
type Suspendable struct {
	name     string
	params   []string
	strategy string
	call     func(args []any) (any, error)
}

// Call splits args positionally: the trailing len(invoker params) values
// go to the protocol's Invoke, the rest to the body. It returns Invoke's
// result verbatim.
func (s *Suspendable) Call(args ...any) (any, error) { return s.call(args) }

// Name returns the invokee's name.
func (s *Suspendable) Name() string { return s.name }

// Params returns the invokee's parameter names followed by the invoker's.
func (s *Suspendable) Params() []string { return slices.Clone(s.params) }

// Arity is the invokee's declared arity plus the invoker's.
func (s *Suspendable) Arity() int { return len(s.params) }

// Strategy reports which synthesis strategy produced s.
func (s *Suspendable) Strategy() string { return s.strategy }

// shapeKey identifies one call shape: arity, names, protocol.
type shapeKey struct {
	split    int
	arity    int
	names    string
	protocol Protocol
}

// shape is a cached call-shape specialization.
type shape struct {
	split  int
	params []string
}

func synthesizeGeneric(b *Builder, inv Invokee) (*Suspendable, error) {
	proto := b.protocol
	invoker := proto.Params()
	if err := checkConflict(inv, invoker); err != nil {
		return nil, err
	}
	p := b.pipeline
	k := len(invoker)
	return &Suspendable{
		name:     inv.Name,
		params:   slices.Concat(inv.Params, invoker),
		strategy: StrategyGeneric,
		call: func(args []any) (any, error) {
			invokeeArgs, invokerArgs := splitArgs(args, k)
			return dispatch(p, proto, inv, invokeeArgs, invokerArgs)
		},
	}, nil
}

func synthesizeSpecialized(b *Builder, inv Invokee) (*Suspendable, error) {
	proto := b.protocol
	sh, err := b.pipeline.specialize(proto, inv)
	if err != nil {
		return nil, err
	}
	p := b.pipeline
	arity, m := len(sh.params), sh.split
	k := arity - m
	return &Suspendable{
		name:     inv.Name,
		params:   sh.params,
		strategy: StrategySpecialized,
		call: func(args []any) (any, error) {
			if len(args) != arity {
				invokeeArgs, invokerArgs := splitArgs(args, k)
				return dispatch(p, proto, inv, invokeeArgs, invokerArgs)
			}
			buf := make([]any, arity)
			copy(buf, args)
			return dispatch(p, proto, inv, buf[:m:m], buf[m:])
		},
	}, nil
}

// specialize returns the cached shape for (inv, proto), validating and
// storing it on first use.
func (p *Pipeline) specialize(proto Protocol, inv Invokee) (*shape, error) {
	invoker := proto.Params()
	params := slices.Concat(inv.Params, invoker)
	key := shapeKey{
		split:    len(inv.Params),
		arity:    len(params),
		names:    strings.Join(params, "\x00"),
		protocol: proto,
	}
	if v, ok := p.shapes.Load(key); ok {
		return v.(*shape), nil
	}
	if err := checkConflict(inv, invoker); err != nil {
		return nil, err
	}
	v, _ := p.shapes.LoadOrStore(key, &shape{split: len(inv.Params), params: params})
	return v.(*shape), nil
}

// checkConflict rejects a parameter name declared by both the invokee and
// the invoker. Blank and "_" names never conflict.
func checkConflict(inv Invokee, invoker []string) error {
	for _, name := range invoker {
		if name == "" || name == "_" {
			continue
		}
		if slices.Contains(inv.Params, name) {
			return &ConflictError{Invokee: inv.Name, Name: name}
		}
	}
	return nil
}

// splitArgs is the positional split: the trailing k values belong to the
// invoker, the leading rest to the invokee. Short calls pad the invoker
// with nil on the right.
func splitArgs(args []any, k int) (invokee, invoker []any) {
	n := len(args) - k
	if n <= 0 {
		invoker = make([]any, k)
		copy(invoker, args)
		return nil, invoker
	}
	invokee = make([]any, n)
	copy(invokee, args[:n])
	invoker = make([]any, k)
	copy(invoker, args[n:])
	return invokee, invoker
}

// dispatch binds a fresh coroutine to the call and hands it to Invoke.
// Invoke may only fail before it starts the coroutine; the coroutine is
// then released unused.
func dispatch(p *Pipeline, proto Protocol, inv Invokee, invokeeArgs, invokerArgs []any) (any, error) {
	if len(invokeeArgs) == 0 {
		invokeeArgs = nil
	}
	if len(invokerArgs) == 0 {
		invokerArgs = nil
	}
	if inv.Check != nil {
		if err := inv.Check(invokeeArgs); err != nil {
			return nil, err
		}
	}
	body := inv.Body
	co := p.Acquire(proto, func() kont.Eff[any] { return body(invokeeArgs) })
	out, err := proto.Invoke(co, invokerArgs)
	if err != nil {
		if co.State() == Bound {
			_ = p.Release(co)
		}
		return nil, err
	}
	return out, nil
}
