// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/suspend"
	"github.com/rs/zerolog"
)

func TestCoroutineReusedWithoutResidualState(t *testing.T) {
	p := suspend.NewPipeline()
	fn := syncBuilder(p, nil, "x").MustFunc(echo("a"))
	tr, err := callTrace(fn, 1, 2)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	co := tr.co
	if co.State() != suspend.Idle {
		t.Fatalf("finished coroutine state got %s, want idle", co.State())
	}
	if co.Local() != nil || co.Protocol() != nil {
		t.Fatal("finished coroutine keeps references to the call")
	}

	again := p.Acquire(suspend.Bootstrap, func() kont.Eff[any] { return suspend.Done(nil) })
	if again != co {
		t.Fatal("pool did not hand back the recycled coroutine")
	}
	if again.State() != suspend.Bound || again.Local() != nil {
		t.Fatalf("reacquired coroutine got state %s local %v", again.State(), again.Local())
	}
	if again.Serial() == tr.serial {
		t.Fatal("reacquired coroutine kept its serial")
	}
	if err := p.Release(again); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestReleaseRejectsLiveCoroutine(t *testing.T) {
	p := suspend.NewPipeline()
	fn := suspend.NewBuilder(p, stepFactory(nil), nil, nil).MustFunc(suspend.Func0("park", func() kont.Eff[any] {
		return suspend.YieldThen(1, suspend.Done(nil))
	}))
	tr, _ := callTrace(fn)
	if err := tr.co.Resume(nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Release(tr.co); !errors.Is(err, suspend.ErrNotReleasable) {
		t.Fatalf("got %v, want ErrNotReleasable", err)
	}
	if err := suspend.NewPipeline().Release(tr.co); !errors.Is(err, suspend.ErrNotReleasable) {
		t.Fatalf("foreign pipeline: got %v", err)
	}
	if err := tr.co.Resume(nil); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := p.Release(tr.co); !errors.Is(err, suspend.ErrNotReleasable) {
		t.Fatalf("idle coroutine: got %v, want ErrNotReleasable", err)
	}
}

func TestPoolOverflowDropsCoroutines(t *testing.T) {
	var buf bytes.Buffer
	p := suspend.NewPipeline(suspend.WithPoolSize(2), suspend.WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	body := func() kont.Eff[any] { return suspend.Done(nil) }
	cos := make([]*suspend.Coroutine, 8)
	for i := range cos {
		cos[i] = p.Acquire(suspend.Bootstrap, body)
	}
	for i, co := range cos {
		if err := p.Release(co); err != nil {
			t.Fatalf("Release %d: %v", i, err)
		}
	}
	if !strings.Contains(buf.String(), "pool full") {
		t.Fatalf("overflow not logged: %s", buf.String())
	}
	seen := map[*suspend.Coroutine]bool{}
	for range cos {
		seen[p.Acquire(suspend.Bootstrap, body)] = true
	}
	if len(seen) != len(cos) {
		t.Fatalf("acquired %d distinct coroutines, want %d", len(seen), len(cos))
	}
}

func TestPoolSizeRoundsUp(t *testing.T) {
	for _, c := range []struct{ n, want int }{
		{n: -1, want: 64},
		{n: 0, want: 64},
		{n: 1, want: 2},
		{n: 2, want: 2},
		{n: 3, want: 4},
		{n: 100, want: 128},
	} {
		if got := suspend.NewPipeline(suspend.WithPoolSize(c.n)).PoolCap(); got != c.want {
			t.Fatalf("WithPoolSize(%d): cap got %d, want %d", c.n, got, c.want)
		}
	}
}

func TestWithConfigSetsPoolSize(t *testing.T) {
	cfg := suspend.Config{suspend.KeyPipeline: map[string]any{suspend.KeyPoolSize: 1}}
	p := suspend.NewPipeline(suspend.WithConfig(cfg))
	if p.PoolCap() != 2 {
		t.Fatalf("cap got %d, want 2", p.PoolCap())
	}
	body := func() kont.Eff[any] { return suspend.Done(nil) }
	cos := make([]*suspend.Coroutine, 4)
	for i := range cos {
		cos[i] = p.Acquire(suspend.Bootstrap, body)
	}
	for i, co := range cos {
		if err := p.Release(co); err != nil {
			t.Fatalf("Release %d: %v", i, err)
		}
	}
}

func TestPoolSharedAcrossGoroutines(t *testing.T) {
	p := suspend.NewPipeline(suspend.WithPoolSize(8))
	fn := syncBuilder(p, nil).MustFunc(suspend.Func1("id", "n", func(n int) kont.Eff[any] {
		return suspend.YieldThen(n, suspend.Done(n))
	}))
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for g := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				tr, err := callTrace(fn, g*1000+i)
				if err != nil {
					errs <- err
					return
				}
				if tr.Result != g*1000+i {
					errs <- fmt.Errorf("call %d got %v", g*1000+i, tr.Result)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

// bareProtocol implements Protocol without a Builder.
type bareProtocol struct{}

func (bareProtocol) Params() []string                              { return nil }
func (bareProtocol) Invoke(*suspend.Coroutine, []any) (any, error) { return nil, nil }
func (bareProtocol) Yield(*suspend.Coroutine, any)                 {}
func (bareProtocol) Return(*suspend.Coroutine, any)                {}
func (bareProtocol) Throw(*suspend.Coroutine, error)               {}

func TestAcquireGuardsBareProtocol(t *testing.T) {
	p := suspend.NewPipeline()
	co := p.Acquire(bareProtocol{}, func() kont.Eff[any] {
		return suspend.YieldThen(1, suspend.Done(nil))
	})
	err := recoverErr(func() { co.Protocol().Return(co, nil) })
	var se *suspend.StateError
	if !errors.As(err, &se) || se.State != suspend.Bound {
		t.Fatalf("Return on a bound coroutine got %v, want *StateError", err)
	}
	if err := co.Resume(nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := recoverErr(func() { co.Protocol().Yield(co, 2) }); !errors.Is(err, suspend.ErrNotRunning) {
		t.Fatalf("Yield on a suspended coroutine got %v, want ErrNotRunning", err)
	}
	if err := co.Resume(nil); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if co.State() != suspend.Idle {
		t.Fatalf("state got %s, want idle", co.State())
	}
}

func TestWithEventLoop(t *testing.T) {
	loop := suspend.NewEventLoop()
	p := suspend.NewPipeline(suspend.WithEventLoop(loop))
	if p.Loop() != loop {
		t.Fatal("event loop not installed")
	}
}

func TestProcessDefaultPipeline(t *testing.T) {
	if suspend.DefaultPipeline() == nil || suspend.Default() != suspend.DefaultPipeline().Default() {
		t.Fatal("process default builder mismatch")
	}
}
