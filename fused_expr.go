// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"code.hybscloud.com/kont"
)

// identityResume is the identity resume function for EffectFrame construction.
// Named function produces a static function value, consistent with kont convention.
func identityResume(v kont.Erased) kont.Erased { return v }

func yieldBindUnwind[B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(any) kont.Expr[B])
	r := current.(Resumption)
	var next kont.Expr[B]
	if r.Err != nil {
		next = kont.Reify(kont.ThrowError[error, B](r.Err))
	} else {
		next = f(r.Value)
	}
	return kont.Erased(next.Value), next.Frame
}

// ExprYieldBind yields v and passes the resumed value to f.
// Fuses ExprPerform(Suspend{Value: v}) + ExprBind. Resuming with an error
// raises it instead of calling f.
func ExprYieldBind[B any](v any, f func(any) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = yieldBindUnwind[B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = Suspend{Value: v}
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

// ExprYieldThen yields v and then continues with next.
func ExprYieldThen[B any](v any, next kont.Expr[B]) kont.Expr[B] {
	return ExprYieldBind(v, func(any) kont.Expr[B] { return next })
}

// ExprDone completes an Expr-world body with v.
func ExprDone(v any) kont.Expr[any] {
	return kont.ExprReturn(v)
}
