package z3

import (
	"github.com/typedz3/z3/native"
)

// Array operations and sorts

// ArrayExpr is an array from K to V.
type ArrayExpr[K Sorted[K], V Sorted[V]] struct {
	Expr
}

// Wrap implements Sorted.
func (ArrayExpr[K, V]) Wrap(c *Context, h native.Handle) ArrayExpr[K, V] {
	return ArrayExpr[K, V]{Expr{ctx: c, h: h}}
}

// Sort implements Sorted.
func (ArrayExpr[K, V]) Sort(c *Context) (native.Handle, error) {
	var k K
	var v V
	dom, err := k.Sort(c)
	if err != nil {
		return 0, err
	}
	rng, err := v.Sort(c)
	if err != nil {
		return 0, err
	}
	return c.arraySort(dom, rng)
}

// ArrayConst declares an array constant (variable).
func ArrayConst[K Sorted[K], V Sorted[V]](c *Context, name string) (ArrayExpr[K, V], error) {
	return Const[ArrayExpr[K, V]](c, name)
}

// ConstArray creates the array mapping every index to value.
//
//	zeros := z3.ConstArray[z3.IntExpr](ctx.MkInt(0))
func ConstArray[K Sorted[K], V Sorted[V]](value V) ArrayExpr[K, V] {
	c := value.Context()
	c.mustLive("ConstArray")
	var k K
	dom, err := k.Sort(c)
	if err != nil {
		panic(err)
	}
	h, err := c.st.api.MkConstArray(c.st.h, dom, c.own("ConstArray", value))
	return ArrayExpr[K, V]{c.expr("ConstArray", h, err)}
}

// Select reads the element at index.
func (a ArrayExpr[K, V]) Select(index K) V {
	e := a.ctx.app(native.OpSelect, a, index)
	var v V
	return v.Wrap(e.ctx, e.h)
}

// Store returns a copy of a with value at index.
func (a ArrayExpr[K, V]) Store(index K, value V) ArrayExpr[K, V] {
	return ArrayExpr[K, V]{a.ctx.app(native.OpStore, a, index, value)}
}

// Eq creates an equality.
func (a ArrayExpr[K, V]) Eq(b ArrayExpr[K, V]) BoolExpr {
	return BoolExpr{a.ctx.app(native.OpEq, a, b)}
}
