package z3

import (
	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/native"
)

// Term is implemented by every expression type.
type Term interface {
	Context() *Context
	Handle() native.Handle
	String() string
}

// Sorted is implemented by the typed expressions. Wrap and Sort are called
// on the zero value, which lets generic code build a T from nothing but a
// context:
//
//	x, err := z3.Const[z3.BvExpr[bv.Size32]](ctx, "x")
type Sorted[T any] interface {
	Term
	// Wrap turns a handle of T's sort into a T without calling the engine.
	Wrap(c *Context, h native.Handle) T
	// Sort returns the engine's sort for T.
	Sort(c *Context) (native.Handle, error)
}

// Expr represents a Z3 expression of any sort.
type Expr struct {
	ctx *Context
	h   native.Handle
}

// Context returns the context that owns the expression.
func (e Expr) Context() *Context { return e.ctx }

// Handle returns the native AST handle.
func (e Expr) Handle() native.Handle { return e.h }

// String returns the string representation of the expression.
func (e Expr) String() string {
	if e.ctx == nil {
		return "<nil>"
	}
	if e.ctx.Closed() {
		return "<disposed>"
	}
	s, err := e.ctx.st.api.AstString(e.ctx.st.h, e.h)
	if err != nil {
		return "<error: " + err.Error() + ">"
	}
	return s
}

// Equal reports whether both expressions are the same native term of the
// same context. Structurally equal terms built separately may or may not
// share a handle; that is up to the engine.
func (e Expr) Equal(o Term) bool {
	return o != nil && e.ctx != nil && e.ctx == o.Context() && e.h == o.Handle()
}

// GetSort returns the sort of the expression.
func (e Expr) GetSort() (Sort, error) {
	if err := e.ctx.ensure("GetSort"); err != nil {
		return Sort{}, err
	}
	h, err := e.ctx.st.api.SortOf(e.ctx.st.h, e.h)
	if err != nil {
		return Sort{}, wrapNative(errors.ResourceExpr, "GetSort", err)
	}
	if err := e.ctx.st.pin(h); err != nil {
		return Sort{}, wrapNative(errors.ResourceExpr, "GetSort", err)
	}
	return Sort{ctx: e.ctx, h: h}, nil
}

// AsBool views e as a Boolean expression after checking its sort.
func (e Expr) AsBool() (BoolExpr, error) {
	if err := e.expectKind("AsBool", native.BoolSort); err != nil {
		return BoolExpr{}, err
	}
	return BoolExpr{e}, nil
}

// AsInt views e as an integer expression after checking its sort.
func (e Expr) AsInt() (IntExpr, error) {
	if err := e.expectKind("AsInt", native.IntSort); err != nil {
		return IntExpr{}, err
	}
	return IntExpr{e}, nil
}

// AsReal views e as a real expression after checking its sort.
func (e Expr) AsReal() (RealExpr, error) {
	if err := e.expectKind("AsReal", native.RealSort); err != nil {
		return RealExpr{}, err
	}
	return RealExpr{e}, nil
}

func (e Expr) expectKind(op string, want native.SortKind) error {
	s, err := e.GetSort()
	if err != nil {
		return err
	}
	kind, err := s.Kind()
	if err != nil {
		return err
	}
	if kind != want {
		return errors.InvalidArgument(errors.ResourceExpr, op, "%s has sort %s, not %s", e, kind, want)
	}
	return nil
}

// Sort represents a Z3 sort (type).
type Sort struct {
	ctx *Context
	h   native.Handle
}

// Handle returns the native sort handle.
func (s Sort) Handle() native.Handle { return s.h }

// Kind returns the sort's kind.
func (s Sort) Kind() (native.SortKind, error) {
	if err := s.ctx.ensure("Sort.Kind"); err != nil {
		return native.UnknownSort, err
	}
	k, err := s.ctx.st.api.SortKind(s.ctx.st.h, s.h)
	return k, wrapNative(errors.ResourceExpr, "Sort.Kind", err)
}

// BvSize returns the width of a bit-vector sort.
func (s Sort) BvSize() (uint32, error) {
	if err := s.ctx.ensure("Sort.BvSize"); err != nil {
		return 0, err
	}
	n, err := s.ctx.st.api.BvSortSize(s.ctx.st.h, s.h)
	return n, wrapNative(errors.ResourceExpr, "Sort.BvSize", err)
}

// String returns the string representation of the sort.
func (s Sort) String() string {
	if s.ctx == nil || s.ctx.Closed() {
		return "<disposed>"
	}
	str, err := s.ctx.st.api.SortString(s.ctx.st.h, s.h)
	if err != nil {
		return "<error: " + err.Error() + ">"
	}
	return str
}

// Equal checks if two sorts are equal.
func (s Sort) Equal(o Sort) bool {
	return s.ctx == o.ctx && s.h == o.h
}

// Const declares a constant of type T.
func Const[T Sorted[T]](c *Context, name string) (T, error) {
	var zero T
	e, err := c.constant("Const", name, func() (native.Handle, error) { return zero.Sort(c) })
	if err != nil {
		return zero, err
	}
	return zero.Wrap(c, e.h), nil
}

// MustConst is Const that panics on failure.
func MustConst[T Sorted[T]](c *Context, name string) T {
	x, err := Const[T](c, name)
	if err != nil {
		panic(err)
	}
	return x
}

// Ite returns "if cond then a else b".
func Ite[T Sorted[T]](cond BoolExpr, a, b T) T {
	e := cond.ctx.app(native.OpIte, cond, a, b)
	return a.Wrap(e.ctx, e.h)
}

// Distinct returns a constraint that all xs are pairwise different.
// It is true when fewer than two are given. With no operands there is no
// context to take the literal from, so the current context is used and
// Distinct panics with an invalid state error when none is set.
func Distinct[T Sorted[T]](xs ...T) BoolExpr {
	if len(xs) < 2 {
		if len(xs) == 1 {
			return xs[0].Context().MkTrue()
		}
		return True()
	}
	terms := make([]Term, len(xs))
	for i, x := range xs {
		terms[i] = x
	}
	return BoolExpr{xs[0].Context().app(native.OpDistinct, terms...)}
}

// Simplify asks the engine for a simpler equivalent of x.
func Simplify[T Sorted[T]](x T) T {
	c := x.Context()
	c.mustLive("Simplify")
	h, err := c.st.api.Simplify(c.st.h, x.Handle())
	e := c.expr("Simplify", h, err)
	return x.Wrap(c, e.h)
}

// MkEq creates an equality between two terms of the same sort. The typed
// Eq methods are preferable; a sort mismatch here is only caught by the
// engine.
func (c *Context) MkEq(lhs, rhs Term) BoolExpr {
	return BoolExpr{c.app(native.OpEq, lhs, rhs)}
}

// MkDistinct creates a distinct constraint over terms of one sort.
func (c *Context) MkDistinct(terms ...Term) BoolExpr {
	if len(terms) <= 1 {
		return c.MkTrue()
	}
	return BoolExpr{c.app(native.OpDistinct, terms...)}
}

// MkIte creates an if-then-else over terms of one sort.
func (c *Context) MkIte(cond BoolExpr, then, els Term) Expr {
	return c.app(native.OpIte, cond, then, els)
}

// Try runs fn and returns the *errors.Error an expression builder panicked
// with, if any. Other panics propagate.
//
//	err := z3.Try(func() {
//		solver.Assert(x.Add(y).Eq(z))
//	})
func Try(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*errors.Error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	fn()
	return nil
}
