// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"fmt"
	"reflect"

	"code.hybscloud.com/kont"
)

// Func0 adapts a parameterless body.
func Func0(name string, f func() kont.Eff[any]) Invokee {
	return Invokee{
		Name: name,
		Body: func([]any) kont.Eff[any] { return f() },
	}
}

// Func1 adapts a typed one-parameter body. A missing or nil argument is
// passed as the zero value; a mistyped one fails the call with ErrArgType.
func Func1[A any](name, pa string, f func(A) kont.Eff[any]) Invokee {
	return Invokee{
		Name:   name,
		Params: []string{pa},
		Body: func(args []any) kont.Eff[any] {
			return f(arg[A](args, 0))
		},
		Check: func(args []any) error {
			return checkArg[A](name, args, 0)
		},
	}
}

// Func2 adapts a typed two-parameter body.
func Func2[A, B any](name, pa, pb string, f func(A, B) kont.Eff[any]) Invokee {
	return Invokee{
		Name:   name,
		Params: []string{pa, pb},
		Body: func(args []any) kont.Eff[any] {
			return f(arg[A](args, 0), arg[B](args, 1))
		},
		Check: func(args []any) error {
			if err := checkArg[A](name, args, 0); err != nil {
				return err
			}
			return checkArg[B](name, args, 1)
		},
	}
}

// Func3 adapts a typed three-parameter body.
func Func3[A, B, C any](name, pa, pb, pc string, f func(A, B, C) kont.Eff[any]) Invokee {
	return Invokee{
		Name:   name,
		Params: []string{pa, pb, pc},
		Body: func(args []any) kont.Eff[any] {
			return f(arg[A](args, 0), arg[B](args, 1), arg[C](args, 2))
		},
		Check: func(args []any) error {
			if err := checkArg[A](name, args, 0); err != nil {
				return err
			}
			if err := checkArg[B](name, args, 1); err != nil {
				return err
			}
			return checkArg[C](name, args, 2)
		},
	}
}

func arg[T any](args []any, i int) T {
	if i < len(args) {
		if v, ok := args[i].(T); ok {
			return v
		}
	}
	var zero T
	return zero
}

func checkArg[T any](name string, args []any, i int) error {
	if i >= len(args) || args[i] == nil {
		return nil
	}
	if _, ok := args[i].(T); !ok {
		return fmt.Errorf("%w: %s argument %d is %T, want %v", ErrArgType, name, i, args[i], reflect.TypeFor[T]())
	}
	return nil
}
