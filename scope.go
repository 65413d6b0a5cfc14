package z3

import (
	"sync/atomic"

	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/internal/ambient"
)

// contexts is the ambient "current context" of every goroutine.
var contexts ambient.Stack[*Context]

// Scope makes a context the current context of the goroutine that created
// it until Close. Scopes nest; closing one restores whatever was current
// before it was set up, even if inner scopes were left open.
//
//	scope, err := ctx.SetUp()
//	if err != nil {
//		return err
//	}
//	defer scope.Close()
type Scope struct {
	ctx    *Context
	mark   ambient.Mark
	closed atomic.Bool
}

// SetUp pushes c onto the calling goroutine's ambient stack.
func (c *Context) SetUp() (*Scope, error) {
	if err := c.ensure("SetUp"); err != nil {
		return nil, err
	}
	return &Scope{ctx: c, mark: contexts.Push(c)}, nil
}

// Within runs fn with c as the current context.
func (c *Context) Within(fn func() error) error {
	s, err := c.SetUp()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn()
}

// Context returns the context the scope made current.
func (s *Scope) Context() *Context { return s.ctx }

// Close restores the ambient stack to its state before SetUp. Calling it
// again is a no-op. It fails with an invalid state error when called from
// another goroutine, and the scope stays open.
func (s *Scope) Close() error {
	if s.closed.Load() {
		return nil
	}
	if err := contexts.Restore(s.mark); err != nil {
		return err
	}
	s.closed.Store(true)
	return nil
}

// Current returns the calling goroutine's current context.
func Current() (*Context, error) {
	c, ok := contexts.Top()
	if !ok {
		return nil, errors.InvalidState(errors.ResourceScope, "Current", "no current context; use ctx.SetUp()")
	}
	return c, nil
}

// MustCurrent is like Current but panics when no context is current.
func MustCurrent() *Context {
	c, err := Current()
	if err != nil {
		panic(err)
	}
	return c
}

// IsCurrentSet reports whether the calling goroutine has a current context.
func IsCurrentSet() bool {
	return contexts.Depth() > 0
}
