// Package disposable provides the closed-state flag shared by every object
// that owns a native handle.
package disposable

import (
	"runtime"
	"sync/atomic"

	"github.com/typedz3/z3/errors"
)

// Guard tracks whether an owner has been closed. The zero value is live.
type Guard struct {
	closed atomic.Bool
}

// MarkDisposed flips the guard to closed. It reports true only for the call
// that performed the transition, so cleanup runs exactly once.
func (g *Guard) MarkDisposed() bool {
	return g.closed.CompareAndSwap(false, true)
}

// Disposed reports whether MarkDisposed has been called.
func (g *Guard) Disposed() bool {
	return g.closed.Load()
}

// Ensure returns a disposed error for op once the guard is closed.
func (g *Guard) Ensure(r errors.Resource, op string) error {
	if g.closed.Load() {
		return errors.Disposed(r, op)
	}
	return nil
}

// SetBackstop registers fn to run when obj becomes unreachable while the
// guard is still live. It is a safety net for owners that were never
// closed; finalizers run at an unspecified time on their own goroutine, so
// fn must not assume anything about the state of other objects. fn must not
// reference obj, or obj never becomes unreachable.
func SetBackstop[T any](obj *T, g *Guard, fn func()) {
	runtime.SetFinalizer(obj, func(*T) {
		if !g.Disposed() {
			fn()
		}
	})
}

// ClearBackstop removes a backstop registered with SetBackstop.
func ClearBackstop[T any](obj *T) {
	runtime.SetFinalizer(obj, nil)
}
