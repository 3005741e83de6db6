// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package suspend

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// PanicError carries a panic recovered from a running body.
// It is delivered through the protocol's Throw like any other body error.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("%v", p.Value)
}

// ErrorWithStack returns the panic value followed by the captured stack.
func (p *PanicError) ErrorWithStack() string {
	return fmt.Sprintf("%v\n\n%s", p.Value, p.Stack)
}

func (p *PanicError) Unwrap() error {
	err, _ := p.Value.(error)
	return err
}

// DebugString walks the unwrap tree, expanding every nested PanicError
// with its stack. Cycles are visited once.
func (p *PanicError) DebugString() string {
	var sb strings.Builder
	seen := make(map[error]bool)

	var walk func(error)
	walk = func(e error) {
		if e == nil || seen[e] {
			return
		}
		seen[e] = true

		if pe, ok := e.(*PanicError); ok {
			sb.WriteString(pe.ErrorWithStack())
		} else {
			sb.WriteString(e.Error())
		}
		sb.WriteByte('\n')

		if multi, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range multi.Unwrap() {
				walk(inner)
			}
		} else if inner := errors.Unwrap(e); inner != nil {
			walk(inner)
		}
	}

	walk(p)
	return sb.String()
}

func newPanicError(v any) *PanicError {
	if pe, ok := v.(*PanicError); ok {
		return pe
	}
	return &PanicError{Value: v, Stack: debug.Stack()}
}
