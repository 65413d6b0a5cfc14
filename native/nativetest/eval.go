package nativetest

import (
	"math/big"

	"github.com/typedz3/z3/native"
)

// eval interprets h under env. Constants missing from env get their default
// value when completion is set (and *defaulted is raised); otherwise eval
// reports ok=false.
func (c *context) eval(h native.Handle, env map[native.Handle]value, completion bool, defaulted *bool) (value, bool) {
	n := c.nodes[h]
	switch n.tag {
	case tagNum:
		return n.val, true
	case tagConst:
		if v, ok := env[h]; ok {
			return v, true
		}
		if !completion {
			return value{}, false
		}
		if defaulted != nil {
			*defaulted = true
		}
		return c.defaultValue(n.sort), true
	case tagConstArray:
		v, ok := c.eval(n.args[0], env, completion, defaulted)
		if !ok {
			return value{}, false
		}
		return constArray(v), true
	}

	args := make([]value, len(n.args))
	for i, a := range n.args {
		v, ok := c.eval(a, env, completion, defaulted)
		if !ok {
			return value{}, false
		}
		args[i] = v
	}
	if n.tag == tagIndexed {
		return c.evalIndexed(n, args[0]), true
	}
	return c.evalApp(n, args), true
}

func (c *context) evalApp(n *node, a []value) value {
	switch n.op {
	case native.OpTrue:
		return boolV(true)
	case native.OpFalse:
		return boolV(false)
	case native.OpEq, native.OpIff:
		return boolV(equal(a[0], a[1]))
	case native.OpDistinct:
		seen := make(map[string]bool, len(a))
		for _, v := range a {
			if seen[v.key()] {
				return boolV(false)
			}
			seen[v.key()] = true
		}
		return boolV(true)
	case native.OpNot:
		return boolV(!a[0].b)
	case native.OpImplies:
		return boolV(!a[0].b || a[1].b)
	case native.OpXor:
		return boolV(a[0].b != a[1].b)
	case native.OpAnd:
		for _, v := range a {
			if !v.b {
				return boolV(false)
			}
		}
		return boolV(true)
	case native.OpOr:
		for _, v := range a {
			if v.b {
				return boolV(true)
			}
		}
		return boolV(false)
	case native.OpIte:
		if a[0].b {
			return a[1]
		}
		return a[2]

	case native.OpAdd, native.OpSub, native.OpMul:
		return arithFold(n.op, a)
	case native.OpDiv:
		if a[0].kind == native.IntSort {
			if a[1].i.Sign() == 0 {
				return intV(new(big.Int))
			}
			return intV(new(big.Int).Div(a[0].i, a[1].i))
		}
		if a[1].r.Sign() == 0 {
			return realV(new(big.Rat))
		}
		return realV(new(big.Rat).Quo(a[0].r, a[1].r))
	case native.OpMod:
		if a[1].i.Sign() == 0 {
			return intV(new(big.Int).Set(a[0].i))
		}
		return intV(new(big.Int).Mod(a[0].i, a[1].i))
	case native.OpRem:
		if a[1].i.Sign() == 0 {
			return intV(new(big.Int).Set(a[0].i))
		}
		m := new(big.Int).Mod(a[0].i, a[1].i)
		if a[1].i.Sign() < 0 {
			m.Neg(m)
		}
		return intV(m)
	case native.OpNeg:
		if a[0].kind == native.IntSort {
			return intV(new(big.Int).Neg(a[0].i))
		}
		return realV(new(big.Rat).Neg(a[0].r))
	case native.OpLt, native.OpLe, native.OpGt, native.OpGe:
		return boolV(compare(n.op, arithCmp(a[0], a[1])))
	case native.OpToReal:
		return realV(new(big.Rat).SetInt(a[0].i))
	case native.OpToInt:
		q := new(big.Int).Div(a[0].r.Num(), a[0].r.Denom())
		return intV(q)
	case native.OpIsInt:
		return boolV(a[0].r.IsInt())
	case native.OpSelect:
		return a[0].selectAt(a[1])
	case native.OpStore:
		return a[0].store(a[1], a[2])
	}
	return evalBv(n.op, a)
}

func arithFold(op native.Op, a []value) value {
	if a[0].kind == native.IntSort {
		acc := new(big.Int).Set(a[0].i)
		for _, v := range a[1:] {
			switch op {
			case native.OpAdd:
				acc.Add(acc, v.i)
			case native.OpSub:
				acc.Sub(acc, v.i)
			case native.OpMul:
				acc.Mul(acc, v.i)
			}
		}
		return intV(acc)
	}
	acc := new(big.Rat).Set(a[0].r)
	for _, v := range a[1:] {
		switch op {
		case native.OpAdd:
			acc.Add(acc, v.r)
		case native.OpSub:
			acc.Sub(acc, v.r)
		case native.OpMul:
			acc.Mul(acc, v.r)
		}
	}
	return realV(acc)
}

func arithCmp(x, y value) int {
	if x.kind == native.IntSort {
		return x.i.Cmp(y.i)
	}
	return x.r.Cmp(y.r)
}

func compare(op native.Op, cmp int) bool {
	switch op {
	case native.OpLt, native.OpBvULt, native.OpBvSLt:
		return cmp < 0
	case native.OpLe, native.OpBvULe, native.OpBvSLe:
		return cmp <= 0
	case native.OpGt, native.OpBvUGt, native.OpBvSGt:
		return cmp > 0
	default:
		return cmp >= 0
	}
}

func evalBv(op native.Op, a []value) value {
	x := a[0]
	w := x.width
	maxS := new(big.Int).Sub(pow2(w-1), big.NewInt(1))
	minS := new(big.Int).Neg(pow2(w - 1))
	inS := func(r *big.Int) bool { return r.Cmp(minS) >= 0 && r.Cmp(maxS) <= 0 }

	switch op {
	case native.OpBvNeg:
		return bvV(new(big.Int).Neg(x.i), w)
	case native.OpBvNot:
		return bvV(new(big.Int).Not(x.i), w)
	case native.OpBvNegNoOverflow:
		return boolV(signed(x).Cmp(minS) != 0)
	}

	y := a[1]
	switch op {
	case native.OpBvAdd:
		return bvV(new(big.Int).Add(x.i, y.i), w)
	case native.OpBvSub:
		return bvV(new(big.Int).Sub(x.i, y.i), w)
	case native.OpBvMul:
		return bvV(new(big.Int).Mul(x.i, y.i), w)
	case native.OpBvUDiv:
		if y.i.Sign() == 0 {
			return bvV(big.NewInt(-1), w)
		}
		return bvV(new(big.Int).Quo(x.i, y.i), w)
	case native.OpBvURem:
		if y.i.Sign() == 0 {
			return x
		}
		return bvV(new(big.Int).Rem(x.i, y.i), w)
	case native.OpBvSDiv:
		if y.i.Sign() == 0 {
			if signed(x).Sign() < 0 {
				return bvV(big.NewInt(1), w)
			}
			return bvV(big.NewInt(-1), w)
		}
		return bvV(new(big.Int).Quo(signed(x), signed(y)), w)
	case native.OpBvSRem:
		if y.i.Sign() == 0 {
			return x
		}
		return bvV(new(big.Int).Rem(signed(x), signed(y)), w)
	case native.OpBvSMod:
		if y.i.Sign() == 0 {
			return x
		}
		sy := signed(y)
		r := new(big.Int).Rem(signed(x), sy)
		if r.Sign() != 0 && (r.Sign() < 0) != (sy.Sign() < 0) {
			r.Add(r, sy)
		}
		return bvV(r, w)
	case native.OpBvAnd:
		return bvV(new(big.Int).And(x.i, y.i), w)
	case native.OpBvOr:
		return bvV(new(big.Int).Or(x.i, y.i), w)
	case native.OpBvXor:
		return bvV(new(big.Int).Xor(x.i, y.i), w)
	case native.OpBvShl, native.OpBvLShr, native.OpBvAShr:
		if !y.i.IsUint64() || y.i.Uint64() >= uint64(w) {
			if op == native.OpBvAShr && signed(x).Sign() < 0 {
				return bvV(big.NewInt(-1), w)
			}
			return bvV(new(big.Int), w)
		}
		n := uint(y.i.Uint64())
		switch op {
		case native.OpBvShl:
			return bvV(new(big.Int).Lsh(x.i, n), w)
		case native.OpBvLShr:
			return bvV(new(big.Int).Rsh(x.i, n), w)
		default:
			return bvV(new(big.Int).Rsh(signed(x), n), w)
		}
	case native.OpBvULt, native.OpBvULe, native.OpBvUGt, native.OpBvUGe:
		return boolV(compare(op, x.i.Cmp(y.i)))
	case native.OpBvSLt, native.OpBvSLe, native.OpBvSGt, native.OpBvSGe:
		return boolV(compare(op, signed(x).Cmp(signed(y))))
	case native.OpConcat:
		r := new(big.Int).Lsh(x.i, uint(y.width))
		return bvV(r.Or(r, y.i), w+y.width)

	case native.OpBvAddNoOverflowU:
		return boolV(new(big.Int).Add(x.i, y.i).Cmp(pow2(w)) < 0)
	case native.OpBvAddNoOverflowS:
		return boolV(new(big.Int).Add(signed(x), signed(y)).Cmp(maxS) <= 0)
	case native.OpBvAddNoUnderflow:
		return boolV(new(big.Int).Add(signed(x), signed(y)).Cmp(minS) >= 0)
	case native.OpBvSubNoOverflow:
		return boolV(new(big.Int).Sub(signed(x), signed(y)).Cmp(maxS) <= 0)
	case native.OpBvSubNoUnderflowU:
		return boolV(x.i.Cmp(y.i) >= 0)
	case native.OpBvSubNoUnderflowS:
		return boolV(new(big.Int).Sub(signed(x), signed(y)).Cmp(minS) >= 0)
	case native.OpBvMulNoOverflowU:
		return boolV(new(big.Int).Mul(x.i, y.i).Cmp(pow2(w)) < 0)
	case native.OpBvMulNoOverflowS:
		return boolV(new(big.Int).Mul(signed(x), signed(y)).Cmp(maxS) <= 0)
	case native.OpBvMulNoUnderflow:
		return boolV(new(big.Int).Mul(signed(x), signed(y)).Cmp(minS) >= 0)
	case native.OpBvSDivNoOverflow:
		if y.i.Sign() == 0 {
			return boolV(true)
		}
		return boolV(inS(new(big.Int).Quo(signed(x), signed(y))))
	}
	return value{}
}

func (c *context) evalIndexed(n *node, x value) value {
	switch n.op {
	case native.OpInt2Bv:
		return bvV(x.i, n.idx[0])
	case native.OpBv2Int:
		if n.idx[0] == 1 {
			return intV(signed(x))
		}
		return intV(new(big.Int).Set(x.i))
	case native.OpExtract:
		hi, lo := n.idx[0], n.idx[1]
		return bvV(new(big.Int).Rsh(x.i, uint(lo)), hi-lo+1)
	case native.OpSignExt:
		return bvV(signed(x), x.width+n.idx[0])
	case native.OpZeroExt:
		return bvV(x.i, x.width+n.idx[0])
	case native.OpRepeat:
		r := new(big.Int)
		for i := uint32(0); i < n.idx[0]; i++ {
			r.Or(r, new(big.Int).Lsh(x.i, uint(i*x.width)))
		}
		return bvV(r, x.width*n.idx[0])
	case native.OpRotateLeft, native.OpRotateRight:
		k := uint(n.idx[0] % x.width)
		if k == 0 {
			return x
		}
		if n.op == native.OpRotateRight {
			k = uint(x.width) - k
		}
		hi := new(big.Int).Lsh(x.i, k)
		lo := new(big.Int).Rsh(x.i, uint(x.width)-k)
		return bvV(hi.Or(hi, lo), x.width)
	}
	return value{}
}
