// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"code.hybscloud.com/kont"
)

// YieldThen yields v and then continues with next.
// Fuses Yield + Then; the resumed value is discarded.
func YieldThen[B any](v any, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(Yield(v), next)
}

// YieldBind yields v and passes the resumed value to f.
// Fuses Yield + Bind.
func YieldBind[B any](v any, f func(any) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(Yield(v), f)
}

// AwaitBind waits for a and passes its resolved value to f.
func AwaitBind[B any](a Awaitable, f func(any) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(Await(a), f)
}

// Done completes the body with v.
func Done(v any) kont.Eff[any] {
	return kont.Pure(v)
}

// Throw fails the body with err. The error reaches the protocol's Throw.
func Throw(err error) kont.Eff[any] {
	return kont.ThrowError[error, any](err)
}

// Do runs f when the body reaches this point, completing with its value
// or failing with its error.
func Do(f func() (any, error)) kont.Eff[any] {
	return kont.Bind(kont.Pure(struct{}{}), func(struct{}) kont.Eff[any] {
		v, err := f()
		if err != nil {
			return Throw(err)
		}
		return kont.Pure(v)
	})
}
