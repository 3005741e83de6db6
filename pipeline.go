// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"fmt"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"code.hybscloud.com/lfq"
	"github.com/rs/zerolog"
)

// defaultPoolSize bounds the number of idle coroutines a pipeline retains.
// Coroutines released into a full pool are left to the garbage collector.
const defaultPoolSize = 64

// minPoolSize is the smallest ring lfq accepts.
const minPoolSize = 2

// Defaults is the lookup consulted by the entry function when no builder
// is selected explicitly.
type Defaults struct {
	Async *Builder
}

// Pipeline owns the coroutine pool, the protocol lock, and the defaults
// shared by every Builder constructed against it.
//
// The lock is one-way: it is set the first time any Builder synthesizes a
// suspendable function, after which SetDefault fails with ErrLocked.
type Pipeline struct {
	free     *lfq.MPMC[*Coroutine]
	locked   atomix.Uint32
	defMu    sync.Mutex
	defaults Defaults
	shapes   sync.Map
	loop     *EventLoop
	log      zerolog.Logger
	poolSize int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPoolSize bounds the idle coroutine pool. n is raised to at least 2
// and rounded up to a power of two; [Pipeline.PoolCap] reports the result.
// Non-positive values keep the default.
func WithPoolSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.poolSize = max(n, minPoolSize)
		}
	}
}

// WithLogger sets the pipeline's logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithEventLoop sets the loop used by the default callback builder.
func WithEventLoop(l *EventLoop) Option {
	return func(p *Pipeline) { p.loop = l }
}

// WithConfig applies the pipeline section of cfg.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) {
		if n, ok := cfg.PoolSize(); ok {
			WithPoolSize(n)(p)
		}
	}
}

// NewPipeline creates an unlocked pipeline with an empty pool.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		log:      zerolog.Nop(),
		poolSize: defaultPoolSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.loop == nil {
		p.loop = NewEventLoop()
	}
	p.free = lfq.NewMPMC[*Coroutine](p.poolSize)
	return p
}

// PoolCap returns the number of idle coroutines the pipeline retains.
func (p *Pipeline) PoolCap() int { return p.free.Cap() }

// Loop returns the event loop that drives the default callback builder.
func (p *Pipeline) Loop() *EventLoop { return p.loop }

// Logger returns the pipeline's logger.
func (p *Pipeline) Logger() zerolog.Logger { return p.log }

// Acquire returns a Bound coroutine carrying proto and body, recycled from
// the pool when one is available. The caller holds it exclusively until it
// reaches a terminal state or is released.
//
// A protocol not built by a Builder is wrapped so that its Yield, Return
// and Throw panic with a *StateError when dispatched out of turn.
func (p *Pipeline) Acquire(proto Protocol, body func() kont.Eff[any]) *Coroutine {
	if _, ok := proto.(*layered); !ok {
		proto = compose(proto, Ops{})
	}
	co, err := p.free.Dequeue()
	if err != nil {
		co = &Coroutine{pipeline: p}
		p.log.Debug().Msg("coroutine allocated")
	}
	co.protocol = proto
	co.body = body
	co.serial = nextSerial()
	co.state.Store(uint32(Bound))
	return co
}

// Release returns a coroutine that never started, or has completed or
// failed, to the pool. Terminal coroutines are released automatically;
// Release is for calls abandoned before their first resume.
func (p *Pipeline) Release(co *Coroutine) error {
	s := co.State()
	switch s {
	case Bound, Completed, Failed:
	default:
		return fmt.Errorf("%w: state %s", ErrNotReleasable, s)
	}
	if co.pipeline != p {
		return fmt.Errorf("%w: coroutine belongs to another pipeline", ErrNotReleasable)
	}
	p.recycle(co)
	return nil
}

// recycle clears every reference to the finished call and pools co.
func (p *Pipeline) recycle(co *Coroutine) {
	s := co.State()
	if s == Idle || !co.state.CompareAndSwap(uint32(s), uint32(Idle)) {
		return
	}
	co.protocol = nil
	co.body = nil
	co.susp = nil
	co.local = nil
	if err := p.free.Enqueue(&co); iox.IsWouldBlock(err) {
		p.log.Debug().Uint32("serial", co.serial).Msg("coroutine pool full, dropping")
		return
	}
	p.log.Debug().Uint32("serial", co.serial).Msg("coroutine recycled")
}

// Lock freezes the pipeline's default protocol. Repeated calls are no-ops.
func (p *Pipeline) Lock() {
	if p.locked.Load() != 0 {
		return
	}
	p.defMu.Lock()
	if p.locked.CompareAndSwap(0, 1) {
		p.log.Debug().Msg("pipeline locked")
	}
	p.defMu.Unlock()
}

// Locked reports whether any suspendable function has been synthesized.
func (p *Pipeline) Locked() bool { return p.locked.Load() != 0 }

// SetDefault installs b as the builder used by Async.
// It fails with ErrLocked once the pipeline is locked.
func (p *Pipeline) SetDefault(b *Builder) error {
	if b == nil {
		return fmt.Errorf("%w: nil builder", ErrNotCallable)
	}
	p.defMu.Lock()
	defer p.defMu.Unlock()
	if p.locked.Load() != 0 {
		return ErrLocked
	}
	p.defaults.Async = b
	p.log.Debug().Msg("default builder replaced")
	return nil
}

// Default returns the builder used by Async. Without an explicit default
// it is a callback-protocol builder driven by the pipeline's event loop.
func (p *Pipeline) Default() *Builder {
	p.defMu.Lock()
	defer p.defMu.Unlock()
	if p.defaults.Async == nil {
		p.defaults.Async = NewBuilder(p, CPS(p.loop), nil, nil)
	}
	return p.defaults.Async
}

// Defaults returns a snapshot of the defaults lookup.
func (p *Pipeline) Defaults() Defaults {
	p.defMu.Lock()
	defer p.defMu.Unlock()
	return p.defaults
}

// Async is the entry function: it synthesizes inv with the default builder.
// inv must carry a body.
func (p *Pipeline) Async(inv Invokee) (*Suspendable, error) {
	if inv.Body == nil {
		return nil, ErrNotCallable
	}
	return p.Default().Func(inv)
}

// std is the process-default pipeline.
var std = NewPipeline()

// DefaultPipeline returns the process-default pipeline.
func DefaultPipeline() *Pipeline { return std }

// SetDefault installs b as the process-default builder.
func SetDefault(b *Builder) error { return std.SetDefault(b) }

// Default returns the process-default builder.
func Default() *Builder { return std.Default() }

// Async synthesizes inv with the process-default builder.
func Async(inv Invokee) (*Suspendable, error) { return std.Async(inv) }
