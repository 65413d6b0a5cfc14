package z3

import (
	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/internal/disposable"
	"github.com/typedz3/z3/native"
)

// Optimize represents a Z3 optimization context for solving optimization problems.
// Unlike Solver which only checks satisfiability, Optimize can find optimal solutions
// with respect to objective functions.
type Optimize struct {
	t   *tracked
	ctx *Context
}

// Objective is a handle on an objective registered with Maximize or
// Minimize. Its bounds are typed like the objective term.
type Objective[T Sorted[T]] struct {
	opt *Optimize
	idx uint32
}

// NewOptimize creates a new optimization context.
func (c *Context) NewOptimize() (*Optimize, error) {
	if err := c.ensure("NewOptimize"); err != nil {
		return nil, err
	}
	st := c.st
	h, err := st.api.MkOptimize(st.h)
	if err != nil {
		return nil, wrapNative(errors.ResourceOptimize, "NewOptimize", err)
	}
	t := st.track(h, errors.ResourceOptimize, func() error { return st.api.OptimizeRelease(st.h, h) })
	o := &Optimize{t: t, ctx: c}
	disposable.SetBackstop(o, &t.guard, func() { st.enqueue(t) })
	return o, nil
}

// Context returns the context that owns the optimizer.
func (o *Optimize) Context() *Context { return o.ctx }

// Close releases the optimizer. It is safe to call more than once.
func (o *Optimize) Close() error {
	disposable.ClearBackstop(o)
	return o.t.dispose()
}

// Closed reports whether the optimizer was closed, directly or by its
// context.
func (o *Optimize) Closed() bool { return o.t.guard.Disposed() }

// String returns the string representation of the optimize context.
func (o *Optimize) String() string {
	if o.t.ensure("String") != nil {
		return "<disposed>"
	}
	s, err := o.ctx.st.api.OptimizeString(o.ctx.st.h, o.t.h)
	if err != nil {
		return "<error: " + err.Error() + ">"
	}
	return s
}

func (o *Optimize) mutate(op string, terms ...Term) error {
	if err := o.t.ensure(op); err != nil {
		return err
	}
	for _, t := range terms {
		if err := o.owned(op, t); err != nil {
			return err
		}
	}
	return o.t.invalidate()
}

func (o *Optimize) fail(op string, err error) error {
	return wrapNative(errors.ResourceOptimize, op, err)
}

func (o *Optimize) owned(op string, t Term) error {
	if t.Context() != o.ctx {
		return errors.InvalidArgument(errors.ResourceOptimize, op, "term belongs to a different context")
	}
	return nil
}

// Assert adds hard constraints to the optimizer.
func (o *Optimize) Assert(constraints ...BoolExpr) error {
	terms := make([]Term, len(constraints))
	for i, f := range constraints {
		terms[i] = f
	}
	if err := o.mutate("Assert", terms...); err != nil {
		return err
	}
	for _, f := range constraints {
		if err := o.ctx.st.api.OptimizeAssert(o.ctx.st.h, o.t.h, f.h); err != nil {
			return o.fail("Assert", err)
		}
	}
	return nil
}

// AssertSoft adds a soft constraint with a weight, written as a decimal
// string such as "1" or "2.5". Soft constraints with the same group share
// one objective, whose index is returned; its bound is the total weight of
// the group's violated constraints.
func (o *Optimize) AssertSoft(constraint BoolExpr, weight, group string) (uint32, error) {
	if err := o.mutate("AssertSoft", constraint); err != nil {
		return 0, err
	}
	idx, err := o.ctx.st.api.OptimizeAssertSoft(o.ctx.st.h, o.t.h, constraint.h, weight, group)
	if err != nil {
		return 0, o.fail("AssertSoft", err)
	}
	return idx, nil
}

// Maximize adds a maximization objective and returns its index.
func (o *Optimize) Maximize(t Term) (uint32, error) {
	return o.objective("Maximize", t, o.ctx.st.api.OptimizeMaximize)
}

// Minimize adds a minimization objective and returns its index.
func (o *Optimize) Minimize(t Term) (uint32, error) {
	return o.objective("Minimize", t, o.ctx.st.api.OptimizeMinimize)
}

func (o *Optimize) objective(op string, t Term, add func(ctx, o, t native.Handle) (uint32, error)) (uint32, error) {
	if err := o.mutate(op, t); err != nil {
		return 0, err
	}
	idx, err := add(o.ctx.st.h, o.t.h, t.Handle())
	if err != nil {
		return 0, o.fail(op, err)
	}
	return idx, nil
}

// Maximize adds x as a maximization objective of o.
func Maximize[T Sorted[T]](o *Optimize, x T) (Objective[T], error) {
	idx, err := o.Maximize(x)
	return Objective[T]{opt: o, idx: idx}, err
}

// Minimize adds x as a minimization objective of o.
func Minimize[T Sorted[T]](o *Optimize, x T) (Objective[T], error) {
	idx, err := o.Minimize(x)
	return Objective[T]{opt: o, idx: idx}, err
}

// Index returns the objective's index in its optimizer.
func (ob Objective[T]) Index() uint32 { return ob.idx }

// Upper returns the upper bound found by the last check.
func (ob Objective[T]) Upper() (T, error) { return ob.typed(ob.opt.Upper(ob.idx)) }

// Lower returns the lower bound found by the last check.
func (ob Objective[T]) Lower() (T, error) { return ob.typed(ob.opt.Lower(ob.idx)) }

func (ob Objective[T]) typed(e Expr, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	return zero.Wrap(e.ctx, e.h), nil
}

// Check checks the satisfiability of the constraints and optimizes
// objectives, under the given assumptions.
func (o *Optimize) Check(assumptions ...BoolExpr) (Status, error) {
	if err := o.mutate("Check"); err != nil {
		return Unknown, err
	}
	hs, err := handlesOf(o.ctx, "Check", assumptions)
	if err != nil {
		return Unknown, err
	}
	r, err := o.ctx.st.api.OptimizeCheck(o.ctx.st.h, o.t.h, hs)
	if err != nil {
		return Unknown, o.fail("Check", err)
	}
	o.t.status = statusOf(r)
	o.t.checked = true
	return o.t.status, nil
}

// Model returns the model of the last check, which must have returned
// Satisfiable.
func (o *Optimize) Model() (*Model, error) {
	if err := o.t.ensure("Model"); err != nil {
		return nil, err
	}
	if err := o.t.requireStatus("Model", Satisfiable); err != nil {
		return nil, err
	}
	return o.t.modelFor(o.ctx, o, func() (native.Handle, error) {
		return o.ctx.st.api.OptimizeModel(o.ctx.st.h, o.t.h)
	})
}

// Push creates a backtracking point.
func (o *Optimize) Push() error {
	if err := o.mutate("Push"); err != nil {
		return err
	}
	return o.fail("Push", o.ctx.st.api.OptimizePush(o.ctx.st.h, o.t.h))
}

// Pop removes a backtracking point.
func (o *Optimize) Pop() error {
	if err := o.mutate("Pop"); err != nil {
		return err
	}
	return o.fail("Pop", o.ctx.st.api.OptimizePop(o.ctx.st.h, o.t.h))
}

// Upper retrieves the upper bound for the objective at idx.
func (o *Optimize) Upper(idx uint32) (Expr, error) {
	return o.bound("Upper", idx, o.ctx.st.api.OptimizeUpper)
}

// Lower retrieves the lower bound for the objective at idx.
func (o *Optimize) Lower(idx uint32) (Expr, error) {
	return o.bound("Lower", idx, o.ctx.st.api.OptimizeLower)
}

func (o *Optimize) bound(op string, idx uint32, get func(ctx, o native.Handle, idx uint32) (native.Handle, error)) (Expr, error) {
	if err := o.t.ensure(op); err != nil {
		return Expr{}, err
	}
	if err := o.t.requireStatus(op, Satisfiable); err != nil {
		return Expr{}, err
	}
	h, err := get(o.ctx.st.h, o.t.h, idx)
	if err != nil {
		return Expr{}, o.fail(op, err)
	}
	return tryExpr(func() Expr { return o.ctx.expr(op, h, nil) })
}

// ReasonUnknown returns the reason why the result is unknown.
func (o *Optimize) ReasonUnknown() (string, error) {
	if err := o.t.ensure("ReasonUnknown"); err != nil {
		return "", err
	}
	r, err := o.ctx.st.api.OptimizeReasonUnknown(o.ctx.st.h, o.t.h)
	return r, o.fail("ReasonUnknown", err)
}

// SetParams sets parameters for the optimizer.
func (o *Optimize) SetParams(p *Params) error {
	if err := o.t.ensure("SetParams"); err != nil {
		return err
	}
	if err := p.Err(); err != nil {
		return err
	}
	return o.fail("SetParams", o.ctx.st.api.OptimizeSetParams(o.ctx.st.h, o.t.h, p.list()))
}
