package z3

import "github.com/typedz3/z3/native"

// BoolExpr is a Boolean expression.
type BoolExpr struct {
	Expr
}

// Wrap implements Sorted.
func (BoolExpr) Wrap(c *Context, h native.Handle) BoolExpr { return BoolExpr{Expr{ctx: c, h: h}} }

// Sort implements Sorted.
func (BoolExpr) Sort(c *Context) (native.Handle, error) { return c.boolSort() }

// MkTrue creates the Boolean constant true.
func (c *Context) MkTrue() BoolExpr {
	c.mustLive("true")
	h, err := c.st.api.MkApp(c.st.h, native.OpTrue)
	return BoolExpr{c.expr("true", h, err)}
}

// MkFalse creates the Boolean constant false.
func (c *Context) MkFalse() BoolExpr {
	c.mustLive("false")
	h, err := c.st.api.MkApp(c.st.h, native.OpFalse)
	return BoolExpr{c.expr("false", h, err)}
}

// MkBool creates a Boolean constant.
func (c *Context) MkBool(value bool) BoolExpr {
	if value {
		return c.MkTrue()
	}
	return c.MkFalse()
}

// MkBoolConst creates a Boolean constant (variable) with the given name.
func (c *Context) MkBoolConst(name string) BoolExpr {
	return MustConst[BoolExpr](c, name)
}

// MkAnd creates a conjunction. The empty conjunction is true.
func (c *Context) MkAnd(exprs ...BoolExpr) BoolExpr {
	switch len(exprs) {
	case 0:
		return c.MkTrue()
	case 1:
		return exprs[0]
	}
	return BoolExpr{c.app(native.OpAnd, boolTerms(exprs)...)}
}

// MkOr creates a disjunction. The empty disjunction is false.
func (c *Context) MkOr(exprs ...BoolExpr) BoolExpr {
	switch len(exprs) {
	case 0:
		return c.MkFalse()
	case 1:
		return exprs[0]
	}
	return BoolExpr{c.app(native.OpOr, boolTerms(exprs)...)}
}

// AndAll is MkAnd on the context of the first operand, or on the current
// context when there are none.
func AndAll(exprs ...BoolExpr) BoolExpr {
	if len(exprs) == 0 {
		return True()
	}
	return exprs[0].ctx.MkAnd(exprs...)
}

// OrAll is MkOr on the context of the first operand, or on the current
// context when there are none.
func OrAll(exprs ...BoolExpr) BoolExpr {
	if len(exprs) == 0 {
		return False()
	}
	return exprs[0].ctx.MkOr(exprs...)
}

func boolTerms(exprs []BoolExpr) []Term {
	ts := make([]Term, len(exprs))
	for i, e := range exprs {
		ts[i] = e
	}
	return ts
}

// And creates a conjunction of b and others.
func (b BoolExpr) And(others ...BoolExpr) BoolExpr {
	return b.ctx.MkAnd(append([]BoolExpr{b}, others...)...)
}

// Or creates a disjunction of b and others.
func (b BoolExpr) Or(others ...BoolExpr) BoolExpr {
	return b.ctx.MkOr(append([]BoolExpr{b}, others...)...)
}

// Not creates a negation.
func (b BoolExpr) Not() BoolExpr {
	return BoolExpr{b.ctx.app(native.OpNot, b)}
}

// Implies creates an implication.
func (b BoolExpr) Implies(o BoolExpr) BoolExpr {
	return BoolExpr{b.ctx.app(native.OpImplies, b, o)}
}

// Iff creates a bi-implication.
func (b BoolExpr) Iff(o BoolExpr) BoolExpr {
	return BoolExpr{b.ctx.app(native.OpIff, b, o)}
}

// Xor creates exclusive or.
func (b BoolExpr) Xor(o BoolExpr) BoolExpr {
	return BoolExpr{b.ctx.app(native.OpXor, b, o)}
}

// Eq creates an equality.
func (b BoolExpr) Eq(o BoolExpr) BoolExpr {
	return BoolExpr{b.ctx.app(native.OpEq, b, o)}
}

// Neq creates a disequality.
func (b BoolExpr) Neq(o BoolExpr) BoolExpr {
	return b.Eq(o).Not()
}

// Ite returns "if b then then else els" for any sort.
func (b BoolExpr) Ite(then, els Term) Expr {
	return b.ctx.MkIte(b, then, els)
}
