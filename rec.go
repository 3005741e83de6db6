// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"code.hybscloud.com/kont"
)

// Loop runs an iterative body.
// step returns Left(nextState) to continue or Right(result) to finish.
func Loop[S any](initial S, step func(S) kont.Eff[kont.Either[S, any]]) kont.Eff[any] {
	return kont.Bind(step(initial), func(e kont.Either[S, any]) kont.Eff[any] {
		if next, ok := e.GetLeft(); ok {
			return Loop(next, step)
		}
		result, _ := e.GetRight()
		return kont.Pure(result)
	})
}

// YieldAll yields each value in turn and then completes with result.
func YieldAll(result any, values ...any) kont.Eff[any] {
	return Loop(0, func(i int) kont.Eff[kont.Either[int, any]] {
		if i >= len(values) {
			return kont.Pure(kont.Right[int, any](result))
		}
		return YieldThen(values[i], kont.Pure(kont.Left[int, any](i+1)))
	})
}
