package z3

import (
	"math/big"

	"github.com/typedz3/z3/bv"
	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/internal/disposable"
	"github.com/typedz3/z3/native"
)

// Model represents a Z3 model (satisfying assignment).
//
// A model belongs to the check that produced it. Any later change to its
// solver or optimizer, or closing either of them, invalidates it, and every
// read fails with a disposed error instead of returning stale values.
// Reads are not cached; each goes to the engine.
type Model struct {
	ms  *modelState
	ctx *Context
	// keep holds the solver or optimizer wrapper so its finalizer cannot
	// invalidate a model that is still in use.
	keep any
}

type modelState struct {
	guard disposable.Guard
	ctx   *ctxState
	h     native.Handle
}

// modelFor returns the model of the current check, fetching it once.
func (t *tracked) modelFor(c *Context, owner any, get func() (native.Handle, error)) (*Model, error) {
	if t.model == nil {
		h, err := get()
		if err != nil {
			return nil, wrapNative(errors.ResourceModel, "Model", err)
		}
		t.model = &modelState{ctx: t.ctx, h: h}
	}
	return &Model{ms: t.model, ctx: c, keep: owner}, nil
}

func (ms *modelState) invalidate() error {
	if !ms.guard.MarkDisposed() {
		return nil
	}
	return wrapNative(errors.ResourceModel, "invalidate", ms.ctx.api.ModelRelease(ms.ctx.h, ms.h))
}

func (m *Model) ensure(op string) error {
	if m.ms.guard.Disposed() || m.ms.ctx.guard.Disposed() {
		return errors.New(errors.KindDisposed).
			Resource(errors.ResourceModel).
			Op(op).
			Detail("model invalidated by solver state change").
			Build()
	}
	m.ms.ctx.drain()
	return nil
}

// Valid reports whether the model can still be read.
func (m *Model) Valid() bool { return m.ensure("Valid") == nil }

// String returns the string representation of the model.
func (m *Model) String() string {
	if m.ensure("String") != nil {
		return "<invalidated>"
	}
	s, err := m.ms.ctx.api.ModelString(m.ms.ctx.h, m.ms.h)
	if err != nil {
		return "<error: " + err.Error() + ">"
	}
	return s
}

// Eval evaluates t in the model. With completion, constants the model
// leaves open get default values; without it such terms may come back
// partially evaluated.
func (m *Model) Eval(t Term, completion bool) (Expr, error) {
	if err := m.ensure("Eval"); err != nil {
		return Expr{}, err
	}
	if t.Context() == nil || t.Context().st != m.ms.ctx {
		return Expr{}, errors.InvalidArgument(errors.ResourceModel, "Eval", "term belongs to a different context")
	}
	h, ok, err := m.ms.ctx.api.ModelEval(m.ms.ctx.h, m.ms.h, t.Handle(), completion)
	if err != nil {
		return Expr{}, wrapNative(errors.ResourceModel, "Eval", err)
	}
	if !ok {
		return Expr{}, errors.New(errors.KindNative).
			Resource(errors.ResourceModel).
			Op("Eval").
			Detail("engine could not evaluate %s", t).
			Build()
	}
	if err := m.ms.ctx.pin(h); err != nil {
		return Expr{}, wrapNative(errors.ResourceModel, "Eval", err)
	}
	return Expr{ctx: t.Context(), h: h}, nil
}

// Evaluate is Eval with the result typed like x.
func Evaluate[T Sorted[T]](m *Model, x T, completion bool) (T, error) {
	e, err := m.Eval(x, completion)
	if err != nil {
		var zero T
		return zero, err
	}
	return x.Wrap(e.ctx, e.h), nil
}

// NumeralString evaluates t with completion and returns the resulting
// numeral in decimal ("p/q" for non-integral reals).
func (m *Model) NumeralString(t Term) (string, error) {
	e, err := m.Eval(t, true)
	if err != nil {
		return "", err
	}
	s, err := m.ms.ctx.api.NumeralString(m.ms.ctx.h, e.h)
	if err != nil {
		return "", wrapNative(errors.ResourceModel, "NumeralString", err)
	}
	return s, nil
}

// BoolValue returns the value of x in the model.
func (m *Model) BoolValue(x BoolExpr) (bool, error) {
	e, err := m.Eval(x, true)
	if err != nil {
		return false, err
	}
	v, err := m.ms.ctx.api.BoolValue(m.ms.ctx.h, e.h)
	if err != nil {
		return false, wrapNative(errors.ResourceModel, "BoolValue", err)
	}
	switch v {
	case native.LTrue:
		return true, nil
	case native.LFalse:
		return false, nil
	default:
		return false, errors.InvalidState(errors.ResourceModel, "BoolValue", x.String()+" has no Boolean value in the model")
	}
}

// IntValue returns the value of x in the model.
func (m *Model) IntValue(x IntExpr) (*big.Int, error) {
	s, err := m.NumeralString(x)
	if err != nil {
		return nil, err
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.InvalidState(errors.ResourceModel, "IntValue", "engine returned non-integer "+s)
	}
	return v, nil
}

// RealValue returns the value of x in the model.
func (m *Model) RealValue(x RealExpr) (*big.Rat, error) {
	s, err := m.NumeralString(x)
	if err != nil {
		return nil, err
	}
	v, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, errors.InvalidState(errors.ResourceModel, "RealValue", "engine returned non-rational "+s)
	}
	return v, nil
}

// BitVecValue returns the value of x in the model.
func BitVecValue[S bv.Size](m *Model, x BvExpr[S]) (bv.Value[S], error) {
	s, err := m.NumeralString(x)
	if err != nil {
		return bv.Value[S]{}, err
	}
	v, err := bv.Parse[S](s, 10)
	if err != nil {
		return bv.Value[S]{}, errors.New(errors.KindInvalidState).
			Resource(errors.ResourceModel).
			Op("BitVecValue").
			Detail("engine returned %q", s).
			Cause(err).
			Build()
	}
	return v, nil
}
