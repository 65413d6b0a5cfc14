package z3

import (
	"math/big"
	"strconv"

	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/native"
)

// Arithmetic operations and sorts

// IntExpr is an integer expression.
type IntExpr struct {
	Expr
}

// Wrap implements Sorted.
func (IntExpr) Wrap(c *Context, h native.Handle) IntExpr { return IntExpr{Expr{ctx: c, h: h}} }

// Sort implements Sorted.
func (IntExpr) Sort(c *Context) (native.Handle, error) { return c.intSort() }

// RealExpr is a real-valued expression.
type RealExpr struct {
	Expr
}

// Wrap implements Sorted.
func (RealExpr) Wrap(c *Context, h native.Handle) RealExpr { return RealExpr{Expr{ctx: c, h: h}} }

// Sort implements Sorted.
func (RealExpr) Sort(c *Context) (native.Handle, error) { return c.realSort() }

// MkInt creates an integer constant from an int64.
func (c *Context) MkInt(value int64) IntExpr {
	return IntExpr{c.numeral("MkInt", strconv.FormatInt(value, 10), c.intSort)}
}

// MkIntFromBig creates an integer constant of arbitrary size.
func (c *Context) MkIntFromBig(value *big.Int) IntExpr {
	return IntExpr{c.numeral("MkInt", value.String(), c.intSort)}
}

// MkReal creates a real constant from numerator and denominator.
func (c *Context) MkReal(num, den int64) RealExpr {
	if den == 0 {
		panic(errors.InvalidArgument(errors.ResourceExpr, "MkReal", "zero denominator"))
	}
	return c.MkRealFromRat(big.NewRat(num, den))
}

// MkRealFromRat creates a real constant from a rational.
func (c *Context) MkRealFromRat(value *big.Rat) RealExpr {
	return RealExpr{c.numeral("MkReal", value.RatString(), c.realSort)}
}

// MkIntConst creates an integer constant (variable) with the given name.
func (c *Context) MkIntConst(name string) IntExpr {
	return MustConst[IntExpr](c, name)
}

// MkRealConst creates a real constant (variable) with the given name.
func (c *Context) MkRealConst(name string) RealExpr {
	return MustConst[RealExpr](c, name)
}

// Add creates an addition.
func (a IntExpr) Add(others ...IntExpr) IntExpr {
	if len(others) == 0 {
		return a
	}
	return IntExpr{a.ctx.app(native.OpAdd, intTerms(a, others)...)}
}

// Sub creates a subtraction.
func (a IntExpr) Sub(others ...IntExpr) IntExpr {
	if len(others) == 0 {
		return a
	}
	return IntExpr{a.ctx.app(native.OpSub, intTerms(a, others)...)}
}

// Mul creates a multiplication.
func (a IntExpr) Mul(others ...IntExpr) IntExpr {
	if len(others) == 0 {
		return a
	}
	return IntExpr{a.ctx.app(native.OpMul, intTerms(a, others)...)}
}

func intTerms(first IntExpr, rest []IntExpr) []Term {
	ts := make([]Term, 0, len(rest)+1)
	ts = append(ts, first)
	for _, r := range rest {
		ts = append(ts, r)
	}
	return ts
}

// Div creates integer division, rounding toward negative infinity for
// positive divisors as SMT-LIB does.
func (a IntExpr) Div(b IntExpr) IntExpr { return IntExpr{a.ctx.app(native.OpDiv, a, b)} }

// Mod creates the modulus. The result is never negative.
func (a IntExpr) Mod(b IntExpr) IntExpr { return IntExpr{a.ctx.app(native.OpMod, a, b)} }

// Rem creates the remainder, which takes the sign of the divisor.
func (a IntExpr) Rem(b IntExpr) IntExpr { return IntExpr{a.ctx.app(native.OpRem, a, b)} }

// Neg creates a unary minus.
func (a IntExpr) Neg() IntExpr { return IntExpr{a.ctx.app(native.OpNeg, a)} }

// Lt creates a less-than comparison.
func (a IntExpr) Lt(b IntExpr) BoolExpr { return BoolExpr{a.ctx.app(native.OpLt, a, b)} }

// Le creates a less-than-or-equal comparison.
func (a IntExpr) Le(b IntExpr) BoolExpr { return BoolExpr{a.ctx.app(native.OpLe, a, b)} }

// Gt creates a greater-than comparison.
func (a IntExpr) Gt(b IntExpr) BoolExpr { return BoolExpr{a.ctx.app(native.OpGt, a, b)} }

// Ge creates a greater-than-or-equal comparison.
func (a IntExpr) Ge(b IntExpr) BoolExpr { return BoolExpr{a.ctx.app(native.OpGe, a, b)} }

// Eq creates an equality.
func (a IntExpr) Eq(b IntExpr) BoolExpr { return BoolExpr{a.ctx.app(native.OpEq, a, b)} }

// Neq creates a disequality.
func (a IntExpr) Neq(b IntExpr) BoolExpr { return a.Eq(b).Not() }

// ToReal converts an integer expression to a real.
func (a IntExpr) ToReal() RealExpr { return RealExpr{a.ctx.app(native.OpToReal, a)} }

// Add creates an addition.
func (a RealExpr) Add(others ...RealExpr) RealExpr {
	if len(others) == 0 {
		return a
	}
	return RealExpr{a.ctx.app(native.OpAdd, realTerms(a, others)...)}
}

// Sub creates a subtraction.
func (a RealExpr) Sub(others ...RealExpr) RealExpr {
	if len(others) == 0 {
		return a
	}
	return RealExpr{a.ctx.app(native.OpSub, realTerms(a, others)...)}
}

// Mul creates a multiplication.
func (a RealExpr) Mul(others ...RealExpr) RealExpr {
	if len(others) == 0 {
		return a
	}
	return RealExpr{a.ctx.app(native.OpMul, realTerms(a, others)...)}
}

func realTerms(first RealExpr, rest []RealExpr) []Term {
	ts := make([]Term, 0, len(rest)+1)
	ts = append(ts, first)
	for _, r := range rest {
		ts = append(ts, r)
	}
	return ts
}

// Div creates a real division.
func (a RealExpr) Div(b RealExpr) RealExpr { return RealExpr{a.ctx.app(native.OpDiv, a, b)} }

// Neg creates a unary minus.
func (a RealExpr) Neg() RealExpr { return RealExpr{a.ctx.app(native.OpNeg, a)} }

// Lt creates a less-than comparison.
func (a RealExpr) Lt(b RealExpr) BoolExpr { return BoolExpr{a.ctx.app(native.OpLt, a, b)} }

// Le creates a less-than-or-equal comparison.
func (a RealExpr) Le(b RealExpr) BoolExpr { return BoolExpr{a.ctx.app(native.OpLe, a, b)} }

// Gt creates a greater-than comparison.
func (a RealExpr) Gt(b RealExpr) BoolExpr { return BoolExpr{a.ctx.app(native.OpGt, a, b)} }

// Ge creates a greater-than-or-equal comparison.
func (a RealExpr) Ge(b RealExpr) BoolExpr { return BoolExpr{a.ctx.app(native.OpGe, a, b)} }

// Eq creates an equality.
func (a RealExpr) Eq(b RealExpr) BoolExpr { return BoolExpr{a.ctx.app(native.OpEq, a, b)} }

// Neq creates a disequality.
func (a RealExpr) Neq(b RealExpr) BoolExpr { return a.Eq(b).Not() }

// ToInt converts a real expression to an integer (floor).
func (a RealExpr) ToInt() IntExpr { return IntExpr{a.ctx.app(native.OpToInt, a)} }

// IsInt creates a predicate that checks if a real has no fractional part.
func (a RealExpr) IsInt() BoolExpr { return BoolExpr{a.ctx.app(native.OpIsInt, a)} }
