//go:build cgo

package dl

/*
#include "trampoline.h"
*/
import "C"

import (
	"unsafe"

	"github.com/typedz3/z3/native"
)

type shape int

const (
	nullary shape = iota
	unary
	binary
	ternary
	nary
	binarySigned   // (ctx, a, b, bool is_signed)
	binaryUnsigned // same symbol as binarySigned, flag false
)

type opSpec struct {
	sym   string
	shape shape
}

var ops = map[native.Op]opSpec{
	native.OpTrue:     {"Z3_mk_true", nullary},
	native.OpFalse:    {"Z3_mk_false", nullary},
	native.OpEq:       {"Z3_mk_eq", binary},
	native.OpDistinct: {"Z3_mk_distinct", nary},
	native.OpNot:      {"Z3_mk_not", unary},
	native.OpIte:      {"Z3_mk_ite", ternary},
	native.OpIff:      {"Z3_mk_iff", binary},
	native.OpImplies:  {"Z3_mk_implies", binary},
	native.OpXor:      {"Z3_mk_xor", binary},
	native.OpAnd:      {"Z3_mk_and", nary},
	native.OpOr:       {"Z3_mk_or", nary},

	native.OpAdd:    {"Z3_mk_add", nary},
	native.OpSub:    {"Z3_mk_sub", nary},
	native.OpMul:    {"Z3_mk_mul", nary},
	native.OpDiv:    {"Z3_mk_div", binary},
	native.OpMod:    {"Z3_mk_mod", binary},
	native.OpRem:    {"Z3_mk_rem", binary},
	native.OpNeg:    {"Z3_mk_unary_minus", unary},
	native.OpLt:     {"Z3_mk_lt", binary},
	native.OpLe:     {"Z3_mk_le", binary},
	native.OpGt:     {"Z3_mk_gt", binary},
	native.OpGe:     {"Z3_mk_ge", binary},
	native.OpToReal: {"Z3_mk_int2real", unary},
	native.OpToInt:  {"Z3_mk_real2int", unary},
	native.OpIsInt:  {"Z3_mk_is_int", unary},

	native.OpBvAdd:  {"Z3_mk_bvadd", binary},
	native.OpBvSub:  {"Z3_mk_bvsub", binary},
	native.OpBvMul:  {"Z3_mk_bvmul", binary},
	native.OpBvUDiv: {"Z3_mk_bvudiv", binary},
	native.OpBvSDiv: {"Z3_mk_bvsdiv", binary},
	native.OpBvURem: {"Z3_mk_bvurem", binary},
	native.OpBvSRem: {"Z3_mk_bvsrem", binary},
	native.OpBvSMod: {"Z3_mk_bvsmod", binary},
	native.OpBvNeg:  {"Z3_mk_bvneg", unary},
	native.OpBvNot:  {"Z3_mk_bvnot", unary},
	native.OpBvAnd:  {"Z3_mk_bvand", binary},
	native.OpBvOr:   {"Z3_mk_bvor", binary},
	native.OpBvXor:  {"Z3_mk_bvxor", binary},
	native.OpBvShl:  {"Z3_mk_bvshl", binary},
	native.OpBvLShr: {"Z3_mk_bvlshr", binary},
	native.OpBvAShr: {"Z3_mk_bvashr", binary},
	native.OpBvULt:  {"Z3_mk_bvult", binary},
	native.OpBvULe:  {"Z3_mk_bvule", binary},
	native.OpBvUGt:  {"Z3_mk_bvugt", binary},
	native.OpBvUGe:  {"Z3_mk_bvuge", binary},
	native.OpBvSLt:  {"Z3_mk_bvslt", binary},
	native.OpBvSLe:  {"Z3_mk_bvsle", binary},
	native.OpBvSGt:  {"Z3_mk_bvsgt", binary},
	native.OpBvSGe:  {"Z3_mk_bvsge", binary},
	native.OpConcat: {"Z3_mk_concat", binary},

	native.OpBvAddNoOverflowU:  {"Z3_mk_bvadd_no_overflow", binaryUnsigned},
	native.OpBvAddNoOverflowS:  {"Z3_mk_bvadd_no_overflow", binarySigned},
	native.OpBvAddNoUnderflow:  {"Z3_mk_bvadd_no_underflow", binary},
	native.OpBvSubNoOverflow:   {"Z3_mk_bvsub_no_overflow", binary},
	native.OpBvSubNoUnderflowU: {"Z3_mk_bvsub_no_underflow", binaryUnsigned},
	native.OpBvSubNoUnderflowS: {"Z3_mk_bvsub_no_underflow", binarySigned},
	native.OpBvMulNoOverflowU:  {"Z3_mk_bvmul_no_overflow", binaryUnsigned},
	native.OpBvMulNoOverflowS:  {"Z3_mk_bvmul_no_overflow", binarySigned},
	native.OpBvMulNoUnderflow:  {"Z3_mk_bvmul_no_underflow", binary},
	native.OpBvSDivNoOverflow:  {"Z3_mk_bvsdiv_no_overflow", binary},
	native.OpBvNegNoOverflow:   {"Z3_mk_bvneg_no_overflow", unary},

	native.OpSelect: {"Z3_mk_select", binary},
	native.OpStore:  {"Z3_mk_store", ternary},
}

var indexedOps = map[native.Op]string{
	native.OpExtract:     "Z3_mk_extract",
	native.OpSignExt:     "Z3_mk_sign_ext",
	native.OpZeroExt:     "Z3_mk_zero_ext",
	native.OpRepeat:      "Z3_mk_repeat",
	native.OpRotateLeft:  "Z3_mk_rotate_left",
	native.OpRotateRight: "Z3_mk_rotate_right",
	native.OpBv2Int:      "Z3_mk_bv2int",
	native.OpInt2Bv:      "Z3_mk_int2bv",
}

func (l *Library) BoolSort(ctx native.Handle) (native.Handle, error) {
	return l.ctxCall(ctx, "Z3_mk_bool_sort")
}

func (l *Library) IntSort(ctx native.Handle) (native.Handle, error) {
	return l.ctxCall(ctx, "Z3_mk_int_sort")
}

func (l *Library) RealSort(ctx native.Handle) (native.Handle, error) {
	return l.ctxCall(ctx, "Z3_mk_real_sort")
}

func (l *Library) BvSort(ctx native.Handle, width uint32) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	return l.handle(ctx, C.t_p_pu(l.fn("Z3_mk_bv_sort"), u(ctx), C.uint(width)), "Z3_mk_bv_sort")
}

func (l *Library) ArraySort(ctx, domain, rng native.Handle) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	return l.handle(ctx, C.t_p_ppp(l.fn("Z3_mk_array_sort"), u(ctx), u(domain), u(rng)), "Z3_mk_array_sort")
}

func (l *Library) ctxCall(ctx native.Handle, name string) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	return l.handle(ctx, C.t_p_p(l.fn(name), u(ctx)), name)
}

// MkConst declares a constant named by a string symbol.
func (l *Library) MkConst(ctx native.Handle, name string, sort native.Handle) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	sym := C.t_p_ps(l.fn("Z3_mk_string_symbol"), u(ctx), cname)
	if err := l.check(ctx); err != nil {
		return 0, err
	}
	return l.handle(ctx, C.t_p_ppp(l.fn("Z3_mk_const"), u(ctx), sym, u(sort)), "Z3_mk_const")
}

func (l *Library) MkNumeral(ctx native.Handle, numeral string, sort native.Handle) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	cnum := C.CString(numeral)
	defer C.free(unsafe.Pointer(cnum))
	return l.handle(ctx, C.t_p_psp(l.fn("Z3_mk_numeral"), u(ctx), cnum, u(sort)), "Z3_mk_numeral")
}

// MkApp dispatches op to its Z3_mk_* constructor.
func (l *Library) MkApp(ctx native.Handle, op native.Op, args ...native.Handle) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	spec, ok := ops[op]
	if !ok {
		return 0, native.Errorf(native.InvalidArg, "%s is not an application operator", op)
	}
	want := map[shape]int{nullary: 0, unary: 1, binary: 2, ternary: 3, binarySigned: 2, binaryUnsigned: 2}
	if n, fixed := want[spec.shape]; fixed && len(args) != n {
		return 0, native.Errorf(native.InvalidArg, "%s takes %d arguments, got %d", op, n, len(args))
	}
	if spec.shape == nary && len(args) == 0 {
		return 0, native.Errorf(native.InvalidArg, "%s needs at least one argument", op)
	}

	f := l.fn(spec.sym)
	var r C.uintptr_t
	switch spec.shape {
	case nullary:
		r = C.t_p_p(f, u(ctx))
	case unary:
		r = C.t_p_pp(f, u(ctx), u(args[0]))
	case binary:
		r = C.t_p_ppp(f, u(ctx), u(args[0]), u(args[1]))
	case ternary:
		r = C.t_p_pppp(f, u(ctx), u(args[0]), u(args[1]), u(args[2]))
	case nary:
		n, p := handles(args)
		r = C.t_p_pn(f, u(ctx), n, p)
	case binarySigned, binaryUnsigned:
		r = C.t_p_pppb(f, u(ctx), u(args[0]), u(args[1]), cbool(spec.shape == binarySigned))
	}
	return l.handle(ctx, r, spec.sym)
}

// MkIndexed builds the parameterized bit-vector operators.
func (l *Library) MkIndexed(ctx native.Handle, op native.Op, indices []uint32, arg native.Handle) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	sym, ok := indexedOps[op]
	if !ok {
		return 0, native.Errorf(native.InvalidArg, "%s is not an indexed operator", op)
	}
	want := 1
	if op == native.OpExtract {
		want = 2
	}
	if len(indices) != want {
		return 0, native.Errorf(native.InvalidArg, "%s takes %d indices, got %d", op, want, len(indices))
	}

	f := l.fn(sym)
	var r C.uintptr_t
	switch op {
	case native.OpExtract:
		r = C.t_p_puup(f, u(ctx), C.uint(indices[0]), C.uint(indices[1]), u(arg))
	case native.OpBv2Int:
		r = C.t_p_ppb(f, u(ctx), u(arg), cbool(indices[0] != 0))
	default:
		r = C.t_p_pup(f, u(ctx), C.uint(indices[0]), u(arg))
	}
	return l.handle(ctx, r, sym)
}

func (l *Library) MkConstArray(ctx, domain, value native.Handle) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	return l.handle(ctx, C.t_p_ppp(l.fn("Z3_mk_const_array"), u(ctx), u(domain), u(value)), "Z3_mk_const_array")
}

func (l *Library) Simplify(ctx, ast native.Handle) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	return l.handle(ctx, C.t_p_pp(l.fn("Z3_simplify"), u(ctx), u(ast)), "Z3_simplify")
}

func (l *Library) SortOf(ctx, ast native.Handle) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	return l.handle(ctx, C.t_p_pp(l.fn("Z3_get_sort"), u(ctx), u(ast)), "Z3_get_sort")
}

func (l *Library) SortKind(ctx, sort native.Handle) (native.SortKind, error) {
	if err := l.live(); err != nil {
		return native.UnknownSort, err
	}
	k := C.t_i_pp(l.fn("Z3_get_sort_kind"), u(ctx), u(sort))
	if err := l.check(ctx); err != nil {
		return native.UnknownSort, err
	}
	switch kind := native.SortKind(k); kind {
	case native.UninterpretedSort, native.BoolSort, native.IntSort, native.RealSort, native.BvSort, native.ArraySort:
		return kind, nil
	default:
		return native.UnknownSort, nil
	}
}

func (l *Library) BvSortSize(ctx, sort native.Handle) (uint32, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	n := C.t_u_pp(l.fn("Z3_get_bv_sort_size"), u(ctx), u(sort))
	return uint32(n), l.check(ctx)
}

func (l *Library) SortString(ctx, sort native.Handle) (string, error) {
	return l.str(ctx, "Z3_sort_to_string", sort)
}

func (l *Library) AstString(ctx, ast native.Handle) (string, error) {
	return l.str(ctx, "Z3_ast_to_string", ast)
}

func (l *Library) NumeralString(ctx, ast native.Handle) (string, error) {
	return l.str(ctx, "Z3_get_numeral_string", ast)
}

// str copies a string result out of the engine before the next call can
// overwrite its buffer.
func (l *Library) str(ctx native.Handle, name string, h native.Handle) (string, error) {
	if err := l.live(); err != nil {
		return "", err
	}
	cs := C.t_s_pp(l.fn(name), u(ctx), u(h))
	if err := l.check(ctx); err != nil {
		return "", err
	}
	if cs == nil {
		return "", nil
	}
	return C.GoString(cs), nil
}

func (l *Library) BoolValue(ctx, ast native.Handle) (native.LBool, error) {
	if err := l.live(); err != nil {
		return native.LUndef, err
	}
	v := C.t_i_pp(l.fn("Z3_get_bool_value"), u(ctx), u(ast))
	return native.LBool(v), l.check(ctx)
}
