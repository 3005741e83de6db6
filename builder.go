// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"fmt"
)

// Builder turns invokees into suspendable functions under one protocol.
// Builders are immutable; Derive, WithConfig and Layer return new ones.
type Builder struct {
	pipeline *Pipeline
	factory  Factory
	base     Protocol
	config   Config
	protocol Protocol
}

// NewBuilder synthesizes a protocol by calling f(cfg, base) and merging
// the result over base. A nil base is Bootstrap; a nil pipeline is the
// process default.
func NewBuilder(p *Pipeline, f Factory, cfg Config, base Protocol) *Builder {
	if p == nil {
		p = std
	}
	if base == nil {
		base = Bootstrap
	}
	cfg = cfg.Clone()
	var ops Ops
	if f != nil {
		ops = f(cfg, base)
	}
	return &Builder{
		pipeline: p,
		factory:  f,
		base:     base,
		config:   cfg,
		protocol: compose(base, ops),
	}
}

// Protocol returns the builder's synthesized protocol.
func (b *Builder) Protocol() Protocol { return b.protocol }

// Config returns a copy of the builder's configuration.
func (b *Builder) Config() Config { return b.config.Clone() }

// Pipeline returns the pipeline coroutines are drawn from.
func (b *Builder) Pipeline() *Pipeline { return b.pipeline }

// Derive layers new behavior on b. It accepts either
//   - a Config: same factory and base, configuration merged over b's; or
//   - a Factory and an optional Config: the new factory is layered on b's
//     protocol and the configuration is used as given.
//
// Derive with no arguments fails with ErrNoArguments.
func (b *Builder) Derive(args ...any) (*Builder, error) {
	switch len(args) {
	case 0:
		return nil, ErrNoArguments
	case 1:
		if cfg, ok := asConfig(args[0]); ok {
			return b.WithConfig(cfg), nil
		}
		if f, ok := asFactory(args[0]); ok {
			return b.Layer(f, nil), nil
		}
	case 2:
		f, ok := asFactory(args[0])
		if !ok {
			break
		}
		if args[1] == nil {
			return b.Layer(f, nil), nil
		}
		if cfg, ok := asConfig(args[1]); ok {
			return b.Layer(f, cfg), nil
		}
	}
	return nil, fmt.Errorf("%w: got %d argument(s)", ErrDeriveArgument, len(args))
}

// WithConfig re-synthesizes b's protocol from the same factory and base
// with b's configuration merged with override.
func (b *Builder) WithConfig(override Config) *Builder {
	d := NewBuilder(b.pipeline, b.factory, b.config.Merge(override), b.base)
	b.pipeline.log.Debug().Int("keys", len(override)).Msg("builder derived with configuration")
	return d
}

// Layer returns a builder whose protocol is f layered on b's protocol.
// cfg is not merged with b's configuration.
func (b *Builder) Layer(f Factory, cfg Config) *Builder {
	d := NewBuilder(b.pipeline, f, cfg, b.protocol)
	b.pipeline.log.Debug().Msg("builder derived with protocol")
	return d
}

// Func synthesizes a suspendable function from inv and locks the pipeline.
// Parameter names shared by inv and the invoker fail with a *ConflictError
// before any call can happen. The caller is expected to have validated
// that inv carries a body, as Async does.
func (b *Builder) Func(inv Invokee) (*Suspendable, error) {
	if inv.Body == nil {
		return nil, ErrNotCallable
	}
	var (
		s   *Suspendable
		err error
	)
	if b.config.Strategy() == StrategyGeneric {
		s, err = synthesizeGeneric(b, inv)
	} else {
		s, err = synthesizeSpecialized(b, inv)
	}
	if err != nil {
		return nil, err
	}
	b.pipeline.Lock()
	b.pipeline.log.Debug().Str("name", inv.Name).Int("arity", s.Arity()).Msg("suspendable synthesized")
	return s, nil
}

// MustFunc is like Func but panics on error.
func (b *Builder) MustFunc(inv Invokee) *Suspendable {
	s, err := b.Func(inv)
	if err != nil {
		panic(err)
	}
	return s
}

func asConfig(v any) (Config, bool) {
	switch c := v.(type) {
	case Config:
		return c, true
	case map[string]any:
		return c, true
	}
	return nil, false
}

func asFactory(v any) (Factory, bool) {
	switch f := v.(type) {
	case Factory:
		return f, f != nil
	case func(Config, Protocol) Ops:
		return f, f != nil
	}
	return nil, false
}
