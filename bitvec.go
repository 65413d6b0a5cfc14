package z3

import (
	"github.com/typedz3/z3/bv"
	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/native"
)

// Bit-vector operations

// BvExpr is a bit-vector expression whose width is the size tag S.
// Binary operations require both operands to have the same S, so width
// mismatches do not compile. Resize, Extract, Concat and Repeat change the
// width explicitly.
type BvExpr[S bv.Size] struct {
	Expr
}

// Wrap implements Sorted.
func (BvExpr[S]) Wrap(c *Context, h native.Handle) BvExpr[S] {
	return BvExpr[S]{Expr{ctx: c, h: h}}
}

// Sort implements Sorted.
func (BvExpr[S]) Sort(c *Context) (native.Handle, error) { return c.bvSort(bv.Width[S]()) }

// Size returns the width in bits.
func (BvExpr[S]) Size() uint32 { return bv.Width[S]() }

// BvConst creates a bit-vector constant (variable) with the given name.
func BvConst[S bv.Size](c *Context, name string) BvExpr[S] {
	return MustConst[BvExpr[S]](c, name)
}

// BvVal creates a bit-vector literal. v is truncated to the width of S.
func BvVal[S bv.Size](c *Context, v int64) BvExpr[S] {
	return BvFromValue(c, bv.New[S](v))
}

// BvFromValue creates a bit-vector literal from a value of the same width.
func BvFromValue[S bv.Size](c *Context, v bv.Value[S]) BvExpr[S] {
	var zero BvExpr[S]
	e := c.numeral("BvVal", v.String(), func() (native.Handle, error) { return zero.Sort(c) })
	return BvExpr[S]{e}
}

func (a BvExpr[S]) bin(op native.Op, b BvExpr[S]) BvExpr[S] {
	return BvExpr[S]{a.ctx.app(op, a, b)}
}

func (a BvExpr[S]) pred(op native.Op, b BvExpr[S]) BoolExpr {
	return BoolExpr{a.ctx.app(op, a, b)}
}

func pick(signed bool, s, u native.Op) native.Op {
	if signed {
		return s
	}
	return u
}

// Add creates a bit-vector addition.
func (a BvExpr[S]) Add(b BvExpr[S]) BvExpr[S] { return a.bin(native.OpBvAdd, b) }

// Sub creates a bit-vector subtraction.
func (a BvExpr[S]) Sub(b BvExpr[S]) BvExpr[S] { return a.bin(native.OpBvSub, b) }

// Mul creates a bit-vector multiplication.
func (a BvExpr[S]) Mul(b BvExpr[S]) BvExpr[S] { return a.bin(native.OpBvMul, b) }

// Div creates a signed or unsigned bit-vector division.
func (a BvExpr[S]) Div(b BvExpr[S], signed bool) BvExpr[S] {
	return a.bin(pick(signed, native.OpBvSDiv, native.OpBvUDiv), b)
}

// Rem creates a signed or unsigned bit-vector remainder. The signed
// remainder takes the sign of the dividend.
func (a BvExpr[S]) Rem(b BvExpr[S], signed bool) BvExpr[S] {
	return a.bin(pick(signed, native.OpBvSRem, native.OpBvURem), b)
}

// SMod creates a signed modulus, which takes the sign of the divisor.
func (a BvExpr[S]) SMod(b BvExpr[S]) BvExpr[S] { return a.bin(native.OpBvSMod, b) }

// Neg creates a two's complement negation.
func (a BvExpr[S]) Neg() BvExpr[S] { return BvExpr[S]{a.ctx.app(native.OpBvNeg, a)} }

// Not creates a bitwise negation.
func (a BvExpr[S]) Not() BvExpr[S] { return BvExpr[S]{a.ctx.app(native.OpBvNot, a)} }

// And creates a bitwise AND.
func (a BvExpr[S]) And(b BvExpr[S]) BvExpr[S] { return a.bin(native.OpBvAnd, b) }

// Or creates a bitwise OR.
func (a BvExpr[S]) Or(b BvExpr[S]) BvExpr[S] { return a.bin(native.OpBvOr, b) }

// Xor creates a bitwise XOR.
func (a BvExpr[S]) Xor(b BvExpr[S]) BvExpr[S] { return a.bin(native.OpBvXor, b) }

// Shl creates a shift left.
func (a BvExpr[S]) Shl(b BvExpr[S]) BvExpr[S] { return a.bin(native.OpBvShl, b) }

// Shr creates an arithmetic (signed) or logical shift right.
func (a BvExpr[S]) Shr(b BvExpr[S], signed bool) BvExpr[S] {
	return a.bin(pick(signed, native.OpBvAShr, native.OpBvLShr), b)
}

// Lt creates a less-than comparison.
func (a BvExpr[S]) Lt(b BvExpr[S], signed bool) BoolExpr {
	return a.pred(pick(signed, native.OpBvSLt, native.OpBvULt), b)
}

// Le creates a less-than-or-equal comparison.
func (a BvExpr[S]) Le(b BvExpr[S], signed bool) BoolExpr {
	return a.pred(pick(signed, native.OpBvSLe, native.OpBvULe), b)
}

// Gt creates a greater-than comparison.
func (a BvExpr[S]) Gt(b BvExpr[S], signed bool) BoolExpr {
	return a.pred(pick(signed, native.OpBvSGt, native.OpBvUGt), b)
}

// Ge creates a greater-than-or-equal comparison.
func (a BvExpr[S]) Ge(b BvExpr[S], signed bool) BoolExpr {
	return a.pred(pick(signed, native.OpBvSGe, native.OpBvUGe), b)
}

// Eq creates an equality.
func (a BvExpr[S]) Eq(b BvExpr[S]) BoolExpr { return a.pred(native.OpEq, b) }

// Neq creates a disequality.
func (a BvExpr[S]) Neq(b BvExpr[S]) BoolExpr { return a.Eq(b).Not() }

// AddNoOverflow is true when a+b does not overflow.
func (a BvExpr[S]) AddNoOverflow(b BvExpr[S], signed bool) BoolExpr {
	return a.pred(pick(signed, native.OpBvAddNoOverflowS, native.OpBvAddNoOverflowU), b)
}

// AddNoUnderflow is true when the signed sum a+b does not underflow.
func (a BvExpr[S]) AddNoUnderflow(b BvExpr[S]) BoolExpr {
	return a.pred(native.OpBvAddNoUnderflow, b)
}

// SubNoOverflow is true when the signed difference a-b does not overflow.
func (a BvExpr[S]) SubNoOverflow(b BvExpr[S]) BoolExpr {
	return a.pred(native.OpBvSubNoOverflow, b)
}

// SubNoUnderflow is true when a-b does not underflow.
func (a BvExpr[S]) SubNoUnderflow(b BvExpr[S], signed bool) BoolExpr {
	return a.pred(pick(signed, native.OpBvSubNoUnderflowS, native.OpBvSubNoUnderflowU), b)
}

// MulNoOverflow is true when a*b does not overflow.
func (a BvExpr[S]) MulNoOverflow(b BvExpr[S], signed bool) BoolExpr {
	return a.pred(pick(signed, native.OpBvMulNoOverflowS, native.OpBvMulNoOverflowU), b)
}

// MulNoUnderflow is true when the signed product a*b does not underflow.
func (a BvExpr[S]) MulNoUnderflow(b BvExpr[S]) BoolExpr {
	return a.pred(native.OpBvMulNoUnderflow, b)
}

// SDivNoOverflow is true when the signed quotient a/b does not overflow.
func (a BvExpr[S]) SDivNoOverflow(b BvExpr[S]) BoolExpr {
	return a.pred(native.OpBvSDivNoOverflow, b)
}

// NegNoOverflow is true when -a does not overflow.
func (a BvExpr[S]) NegNoOverflow() BoolExpr {
	return BoolExpr{a.ctx.app(native.OpBvNegNoOverflow, a)}
}

// ToInt converts to an integer, reading the bits as two's complement when
// signed is true.
func (a BvExpr[S]) ToInt(signed bool) IntExpr {
	var flag uint32
	if signed {
		flag = 1
	}
	return IntExpr{a.ctx.indexed(native.OpBv2Int, a, flag)}
}

// IntToBV converts an integer to a bit-vector of width S, modulo 2^S.
func IntToBV[S bv.Size](i IntExpr) BvExpr[S] {
	return BvExpr[S]{i.ctx.indexed(native.OpInt2Bv, i, bv.Width[S]())}
}

// RotateLeft rotates by n bits. n is taken modulo the width; a rotation by
// a multiple of the width returns a itself.
func (a BvExpr[S]) RotateLeft(n int) (BvExpr[S], error) {
	return a.rotate("RotateLeft", native.OpRotateLeft, n)
}

// RotateRight rotates by n bits. n is taken modulo the width; a rotation
// by a multiple of the width returns a itself.
func (a BvExpr[S]) RotateRight(n int) (BvExpr[S], error) {
	return a.rotate("RotateRight", native.OpRotateRight, n)
}

func (a BvExpr[S]) rotate(op string, nop native.Op, n int) (BvExpr[S], error) {
	if n < 0 {
		return BvExpr[S]{}, errors.InvalidArgument(errors.ResourceBitVec, op, "negative rotation %d", n)
	}
	if err := a.ctx.ensure(op); err != nil {
		return BvExpr[S]{}, err
	}
	k := uint32(n) % bv.Width[S]()
	if k == 0 {
		return a, nil
	}
	e, err := tryExpr(func() Expr { return a.ctx.indexed(nop, a, k) })
	return BvExpr[S]{e}, err
}

// Resize converts x to width T. Equal widths return x unchanged, a
// narrower T keeps the low bits, and a wider T sign-extends when signed is
// true and zero-extends otherwise.
func Resize[T, S bv.Size](x BvExpr[S], signed bool) BvExpr[T] {
	from, to := bv.Width[S](), bv.Width[T]()
	switch {
	case to == from:
		return BvExpr[T]{x.Expr}
	case to < from:
		return BvExpr[T]{x.ctx.indexed(native.OpExtract, x, to-1, 0)}
	default:
		return BvExpr[T]{x.ctx.indexed(pick(signed, native.OpSignExt, native.OpZeroExt), x, to-from)}
	}
}

// Extract returns the width(T) bits of x starting at bit start.
func Extract[T, S bv.Size](x BvExpr[S], start uint32) (BvExpr[T], error) {
	from, to := bv.Width[S](), bv.Width[T]()
	if uint64(start)+uint64(to) > uint64(from) {
		return BvExpr[T]{}, errors.InvalidArgument(errors.ResourceBitVec, "Extract",
			"bits [%d, %d) out of range for a %d-bit vector", start, uint64(start)+uint64(to), from)
	}
	e, err := tryExpr(func() Expr { return x.ctx.indexed(native.OpExtract, x, start+to-1, start) })
	return BvExpr[T]{e}, err
}

// Concat joins hi and lo with hi in the high bits. width(R) must equal
// width(H) + width(L).
func Concat[R, H, L bv.Size](hi BvExpr[H], lo BvExpr[L]) (BvExpr[R], error) {
	h, l, r := bv.Width[H](), bv.Width[L](), bv.Width[R]()
	if r != h+l {
		return BvExpr[R]{}, errors.InvalidArgument(errors.ResourceBitVec, "Concat",
			"%d-bit result cannot hold %d + %d bits", r, h, l)
	}
	e, err := tryExpr(func() Expr { return hi.ctx.app(native.OpConcat, hi, lo) })
	return BvExpr[R]{e}, err
}

// Repeat tiles x to width R, which must be a multiple of width(S).
func Repeat[R, S bv.Size](x BvExpr[S]) (BvExpr[R], error) {
	from, to := bv.Width[S](), bv.Width[R]()
	if to%from != 0 {
		return BvExpr[R]{}, errors.InvalidArgument(errors.ResourceBitVec, "Repeat",
			"%d bits is not a multiple of %d", to, from)
	}
	if to == from {
		return BvExpr[R]{x.Expr}, nil
	}
	e, err := tryExpr(func() Expr { return x.ctx.indexed(native.OpRepeat, x, to/from) })
	return BvExpr[R]{e}, err
}

func tryExpr(fn func() Expr) (e Expr, err error) {
	err = Try(func() { e = fn() })
	return e, err
}
