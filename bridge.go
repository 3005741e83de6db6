// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"code.hybscloud.com/kont"
)

// ExprBody adapts an Expr-world body for use as Invokee.Body.
// The body's result crosses into Cont-world boxed, so a nil result
// completes the call like any other value.
func ExprBody(f func(args []any) kont.Expr[any]) func(args []any) kont.Eff[any] {
	return func(args []any) kont.Eff[any] {
		return kont.Map(kont.Reflect(completed(f(args))), unbox)
	}
}

func unbox(c completion) any { return c.value }
