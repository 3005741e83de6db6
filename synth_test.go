// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend_test

import (
	"errors"
	"reflect"
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/suspend"
)

var strategies = []string{suspend.StrategySpecialized, suspend.StrategyGeneric}

func strategyConfig(s string) suspend.Config {
	return suspend.Config{suspend.KeyStrategy: s}
}

func TestSuspendableArityAndParams(t *testing.T) {
	for _, s := range strategies {
		p := suspend.NewPipeline()
		b := suspend.NewBuilder(p, suspend.CPS(p.Loop()), strategyConfig(s), nil)
		fn := b.MustFunc(suspend.Func2("add", "a", "b", func(a, b int) kont.Eff[any] {
			return suspend.Done(a + b)
		}))
		if fn.Strategy() != s {
			t.Fatalf("strategy got %s, want %s", fn.Strategy(), s)
		}
		if fn.Arity() != 3 {
			t.Fatalf("%s: arity got %d, want 3", s, fn.Arity())
		}
		if got := fn.Params(); !reflect.DeepEqual(got, []string{"a", "b", "callback"}) {
			t.Fatalf("%s: params got %v", s, got)
		}
		if fn.Name() != "add" {
			t.Fatalf("%s: name got %q", s, fn.Name())
		}
	}
}

func TestParamConflictFailsAtSynthesis(t *testing.T) {
	for _, s := range strategies {
		p := suspend.NewPipeline()
		b := syncBuilder(p, strategyConfig(s), "cb", "timeout")
		ran := false
		_, err := b.Func(suspend.Invokee{
			Name:   "clash",
			Params: []string{"x", "timeout"},
			Body: func([]any) kont.Eff[any] {
				ran = true
				return suspend.Done(nil)
			},
		})
		var ce *suspend.ConflictError
		if !errors.As(err, &ce) {
			t.Fatalf("%s: got %v, want *ConflictError", s, err)
		}
		if ce.Name != "timeout" || ce.Invokee != "clash" || !errors.Is(err, suspend.ErrParamConflict) {
			t.Fatalf("%s: got %+v", s, ce)
		}
		if ran {
			t.Fatalf("%s: body ran", s)
		}
	}
}

func TestBlankParamsNeverConflict(t *testing.T) {
	b := syncBuilder(suspend.NewPipeline(), nil, "_", "")
	if _, err := b.Func(echo("_", "")); err != nil {
		t.Fatalf("got %v", err)
	}
}

func TestPositionalSplit(t *testing.T) {
	cases := []struct {
		args    []any
		invokee []any
		invoker []any
	}{
		{args: nil, invokee: nil, invoker: []any{nil, nil}},
		{args: []any{1}, invokee: nil, invoker: []any{1, nil}},
		{args: []any{1, 2}, invokee: nil, invoker: []any{1, 2}},
		{args: []any{1, 2, 3}, invokee: []any{1}, invoker: []any{2, 3}},
		{args: []any{1, 2, 3, 4}, invokee: []any{1, 2}, invoker: []any{3, 4}},
		{args: []any{1, 2, 3, 4, 5}, invokee: []any{1, 2, 3}, invoker: []any{4, 5}},
	}
	for _, s := range strategies {
		fn := syncBuilder(suspend.NewPipeline(), strategyConfig(s), "x", "y").MustFunc(echo("a", "b"))
		for _, c := range cases {
			tr, err := callTrace(fn, c.args...)
			if err != nil {
				t.Fatalf("%s %v: %v", s, c.args, err)
			}
			if !reflect.DeepEqual(tr.Invoker, c.invoker) {
				t.Fatalf("%s %v: invoker got %v, want %v", s, c.args, tr.Invoker, c.invoker)
			}
			if len(c.invokee) == 0 {
				if len(tr.Yields) != 0 {
					t.Fatalf("%s %v: invokee got %v, want none", s, c.args, tr.Yields)
				}
				continue
			}
			if !reflect.DeepEqual(tr.Yields, c.invokee) {
				t.Fatalf("%s %v: invokee got %v, want %v", s, c.args, tr.Yields, c.invokee)
			}
		}
	}
}

func TestCallerSliceNotRetained(t *testing.T) {
	for _, s := range strategies {
		fn := syncBuilder(suspend.NewPipeline(), strategyConfig(s), "x").MustFunc(suspend.Invokee{
			Name:   "mutate",
			Params: []string{"a"},
			Body: func(args []any) kont.Eff[any] {
				args[0] = "changed"
				return suspend.Done(nil)
			},
		})
		args := []any{"a", "x"}
		if _, err := fn.Call(args...); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if args[0] != "a" {
			t.Fatalf("%s: caller slice mutated", s)
		}
	}
}

func TestArgTypeCheckedBeforeAcquire(t *testing.T) {
	for _, s := range strategies {
		ran := false
		fn := syncBuilder(suspend.NewPipeline(), strategyConfig(s), "x").MustFunc(
			suspend.Func1("inc", "n", func(n int) kont.Eff[any] {
				ran = true
				return suspend.Done(n + 1)
			}))
		if _, err := fn.Call("one", nil); !errors.Is(err, suspend.ErrArgType) {
			t.Fatalf("%s: got %v, want ErrArgType", s, err)
		}
		if ran {
			t.Fatalf("%s: body ran", s)
		}
		tr, err := callTrace(fn, nil, nil)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if tr.Result != 1 {
			t.Fatalf("%s: nil argument got %v, want zero value", s, tr.Result)
		}
	}
}

func TestTypedInvokees(t *testing.T) {
	b := syncBuilder(suspend.NewPipeline(), nil)
	f3 := b.MustFunc(suspend.Func3("join", "a", "b", "c", func(a string, b int, c bool) kont.Eff[any] {
		return suspend.Done([]any{a, b, c})
	}))
	tr, err := callTrace(f3, "s", 2, true)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !reflect.DeepEqual(tr.Result, []any{"s", 2, true}) {
		t.Fatalf("got %v", tr.Result)
	}
	if _, err := f3.Call("s", 2, "true"); !errors.Is(err, suspend.ErrArgType) {
		t.Fatalf("got %v, want ErrArgType", err)
	}
	if _, err := f3.Call("s", "2", true); !errors.Is(err, suspend.ErrArgType) {
		t.Fatalf("got %v, want ErrArgType", err)
	}
}

func TestMustFuncPanicsOnConflict(t *testing.T) {
	b := syncBuilder(suspend.NewPipeline(), nil, "x")
	err := recoverErr(func() { b.MustFunc(echo("x")) })
	if !errors.Is(err, suspend.ErrParamConflict) {
		t.Fatalf("got %v", err)
	}
}

func TestFuncRejectsMissingBody(t *testing.T) {
	b := syncBuilder(suspend.NewPipeline(), nil)
	if _, err := b.Func(suspend.Invokee{Name: "empty"}); !errors.Is(err, suspend.ErrNotCallable) {
		t.Fatalf("got %v", err)
	}
}
