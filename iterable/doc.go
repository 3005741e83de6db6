// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package iterable provides the iterable protocol: a suspendable function
// returns an [Iterator] and its body's yields are pulled one at a time.
//
// The protocol is layered on [suspend.CPS] with [suspend.Builder.Layer].
// Execution is lazy: invoking the function does not run any body code;
// the body starts on the first [Iterator.Next]. Every resume is scheduled,
// so Next callbacks never fire inside the Next call itself.
//
// # Example
//
//	loop := suspend.NewEventLoop()
//	b := iterable.New(suspend.NewBuilder(nil, suspend.CPS(loop), nil, nil), loop)
//	fn := b.MustFunc(suspend.Func0("count", func() kont.Eff[any] {
//		return suspend.YieldAll("done", 111, 222, 333)
//	}))
//	it, _ := iterable.Call(fn)
//	it.ForEach(func(v any) { fmt.Println(v) }, func(final any, err error) {})
//	loop.Drain()
package iterable
