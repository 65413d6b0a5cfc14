package nativetest

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/typedz3/z3/native"
)

type tag int

const (
	tagSort tag = iota
	tagConst
	tagNum
	tagApp
	tagIndexed
	tagConstArray
)

type node struct {
	tag tag

	// sorts
	kind     native.SortKind
	width    uint32
	dom, rng native.Handle

	// terms
	sort native.Handle
	name string
	val  value
	op   native.Op
	args []native.Handle
	idx  []uint32
}

type context struct {
	e          *Engine
	id         native.Handle
	params     map[string]string
	nodes      map[native.Handle]*node
	intern     map[string]native.Handle
	refs       map[native.Handle]int
	solvers    map[native.Handle]*solver
	optimizers map[native.Handle]*optimizer
	models     map[native.Handle]*model
}

func newContext(e *Engine, id native.Handle, config map[string]string) *context {
	c := &context{
		e:          e,
		id:         id,
		params:     make(map[string]string),
		nodes:      make(map[native.Handle]*node),
		intern:     make(map[string]native.Handle),
		refs:       make(map[native.Handle]int),
		solvers:    make(map[native.Handle]*solver),
		optimizers: make(map[native.Handle]*optimizer),
		models:     make(map[native.Handle]*model),
	}
	for k, v := range config {
		c.params[k] = v
	}
	return c
}

// mk returns the node registered under key, creating it on first use, so
// structurally equal terms share one handle.
func (c *context) mk(key string, n *node) native.Handle {
	if h, ok := c.intern[key]; ok {
		return h
	}
	h := c.e.alloc()
	c.nodes[h] = n
	c.intern[key] = h
	return h
}

func (c *context) term(h native.Handle) (*node, error) {
	n, ok := c.nodes[h]
	if !ok || n.tag == tagSort {
		return nil, native.Errorf(native.InvalidArg, "invalid term %#x", uintptr(h))
	}
	return n, nil
}

func (c *context) sortNode(h native.Handle) (*node, error) {
	n, ok := c.nodes[h]
	if !ok || n.tag != tagSort {
		return nil, native.Errorf(native.InvalidArg, "invalid sort %#x", uintptr(h))
	}
	return n, nil
}

func (c *context) kindOf(t native.Handle) native.SortKind {
	return c.nodes[c.nodes[t].sort].kind
}

func (c *context) widthOf(t native.Handle) uint32 {
	return c.nodes[c.nodes[t].sort].width
}

// Sorts

func (c *context) boolSort() native.Handle {
	return c.mk("S:Bool", &node{tag: tagSort, kind: native.BoolSort})
}

func (c *context) intSort() native.Handle {
	return c.mk("S:Int", &node{tag: tagSort, kind: native.IntSort})
}

func (c *context) realSort() native.Handle {
	return c.mk("S:Real", &node{tag: tagSort, kind: native.RealSort})
}

func (c *context) bvSort(width uint32) (native.Handle, error) {
	if width == 0 {
		return 0, native.Errorf(native.InvalidArg, "bit-vector size must be greater than zero")
	}
	return c.mk(fmt.Sprintf("S:bv:%d", width), &node{tag: tagSort, kind: native.BvSort, width: width}), nil
}

func (c *context) arraySort(dom, rng native.Handle) (native.Handle, error) {
	if _, err := c.sortNode(dom); err != nil {
		return 0, err
	}
	if _, err := c.sortNode(rng); err != nil {
		return 0, err
	}
	return c.mk(fmt.Sprintf("S:arr:%d:%d", dom, rng), &node{tag: tagSort, kind: native.ArraySort, dom: dom, rng: rng}), nil
}

func (e *Engine) sortCall(method string, ctx native.Handle, f func(c *context) (native.Handle, error)) (native.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup(method, ctx)
	if err != nil {
		return 0, err
	}
	return f(c)
}

// BoolSort implements native.Library.
func (e *Engine) BoolSort(ctx native.Handle) (native.Handle, error) {
	return e.sortCall("BoolSort", ctx, func(c *context) (native.Handle, error) { return c.boolSort(), nil })
}

// IntSort implements native.Library.
func (e *Engine) IntSort(ctx native.Handle) (native.Handle, error) {
	return e.sortCall("IntSort", ctx, func(c *context) (native.Handle, error) { return c.intSort(), nil })
}

// RealSort implements native.Library.
func (e *Engine) RealSort(ctx native.Handle) (native.Handle, error) {
	return e.sortCall("RealSort", ctx, func(c *context) (native.Handle, error) { return c.realSort(), nil })
}

// BvSort implements native.Library.
func (e *Engine) BvSort(ctx native.Handle, width uint32) (native.Handle, error) {
	return e.sortCall("BvSort", ctx, func(c *context) (native.Handle, error) { return c.bvSort(width) })
}

// ArraySort implements native.Library.
func (e *Engine) ArraySort(ctx, dom, rng native.Handle) (native.Handle, error) {
	return e.sortCall("ArraySort", ctx, func(c *context) (native.Handle, error) { return c.arraySort(dom, rng) })
}

// Terms

func (c *context) mkConst(name string, sort native.Handle) (native.Handle, error) {
	if _, err := c.sortNode(sort); err != nil {
		return 0, err
	}
	return c.mk(fmt.Sprintf("C:%s:%d", name, sort), &node{tag: tagConst, name: name, sort: sort}), nil
}

func (c *context) mkValue(v value, sort native.Handle) native.Handle {
	switch v.kind {
	case native.BoolSort:
		if v.b {
			return c.mk("A:true", &node{tag: tagApp, op: native.OpTrue, sort: c.boolSort()})
		}
		return c.mk("A:false", &node{tag: tagApp, op: native.OpFalse, sort: c.boolSort()})
	case native.ArraySort:
		sn := c.nodes[sort]
		h, _ := c.mkConstArray(sn.dom, c.mkValue(v.arr.def, sn.rng))
		for _, e := range v.arr.entries {
			k := c.mkValue(e[0], sn.dom)
			x := c.mkValue(e[1], sn.rng)
			h, _ = c.mkApp(native.OpStore, h, k, x)
		}
		return h
	}
	return c.mk(fmt.Sprintf("N:%d:%s", sort, v.key()), &node{tag: tagNum, sort: sort, val: v})
}

func (c *context) mkNumeral(s string, sort native.Handle) (native.Handle, error) {
	sn, err := c.sortNode(sort)
	if err != nil {
		return 0, err
	}
	var v value
	switch sn.kind {
	case native.IntSort:
		x, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return 0, native.Errorf(native.ParserError, "invalid numeral %q", s)
		}
		v = intV(x)
	case native.RealSort:
		x, ok := new(big.Rat).SetString(s)
		if !ok {
			return 0, native.Errorf(native.ParserError, "invalid numeral %q", s)
		}
		v = realV(x)
	case native.BvSort:
		x, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return 0, native.Errorf(native.ParserError, "invalid numeral %q", s)
		}
		v = bvV(x, sn.width)
	default:
		return 0, native.Errorf(native.InvalidArg, "numerals of sort %s are not supported", sn.kind)
	}
	return c.mkValue(v, sort), nil
}

func (c *context) mkConstArray(dom, val native.Handle) (native.Handle, error) {
	vn, err := c.term(val)
	if err != nil {
		return 0, err
	}
	as, err := c.arraySort(dom, vn.sort)
	if err != nil {
		return 0, err
	}
	return c.mk(fmt.Sprintf("K:%d:%d", as, val), &node{tag: tagConstArray, sort: as, args: []native.Handle{val}}), nil
}

func sortErr(op native.Op, format string, args ...any) error {
	return native.Errorf(native.SortError, "Sort mismatch at argument of '%s': %s", op, fmt.Sprintf(format, args...))
}

// appSort type-checks an application and returns its result sort.
func (c *context) appSort(op native.Op, args []native.Handle) (native.Handle, error) {
	for _, a := range args {
		if _, err := c.term(a); err != nil {
			return 0, err
		}
	}
	kinds := make([]native.SortKind, len(args))
	for i, a := range args {
		kinds[i] = c.kindOf(a)
	}
	arity := func(n int) error {
		if len(args) != n {
			return native.Errorf(native.InvalidArg, "'%s' expects %d arguments, got %d", op, n, len(args))
		}
		return nil
	}
	sameSort := func(from int) error {
		for i := from + 1; i < len(args); i++ {
			if c.nodes[args[i]].sort != c.nodes[args[from]].sort {
				return sortErr(op, "arguments have different sorts")
			}
		}
		return nil
	}
	allKind := func(k native.SortKind) error {
		for _, kk := range kinds {
			if kk != k {
				return sortErr(op, "expected %s, got %s", k, kk)
			}
		}
		return nil
	}
	arith := func() error {
		if len(args) == 0 {
			return native.Errorf(native.InvalidArg, "'%s' expects arguments", op)
		}
		if kinds[0] != native.IntSort && kinds[0] != native.RealSort {
			return sortErr(op, "expected Int or Real, got %s", kinds[0])
		}
		return sameSort(0)
	}
	bvBinary := func() error {
		if err := arity(2); err != nil {
			return err
		}
		if err := allKind(native.BvSort); err != nil {
			return err
		}
		return sameSort(0)
	}
	boolSort := c.boolSort()

	switch op {
	case native.OpTrue, native.OpFalse:
		return boolSort, arity(0)
	case native.OpEq:
		if err := arity(2); err != nil {
			return 0, err
		}
		return boolSort, sameSort(0)
	case native.OpDistinct:
		if len(args) < 2 {
			return 0, native.Errorf(native.InvalidArg, "distinct expects at least 2 arguments")
		}
		return boolSort, sameSort(0)
	case native.OpNot:
		if err := arity(1); err != nil {
			return 0, err
		}
		return boolSort, allKind(native.BoolSort)
	case native.OpIff, native.OpImplies, native.OpXor:
		if err := arity(2); err != nil {
			return 0, err
		}
		return boolSort, allKind(native.BoolSort)
	case native.OpAnd, native.OpOr:
		return boolSort, allKind(native.BoolSort)
	case native.OpIte:
		if err := arity(3); err != nil {
			return 0, err
		}
		if kinds[0] != native.BoolSort {
			return 0, sortErr(op, "condition must be Bool")
		}
		return c.nodes[args[1]].sort, sameSort(1)
	case native.OpAdd, native.OpSub, native.OpMul:
		return c.nodes[args[0]].sort, arith()
	case native.OpDiv:
		if err := arity(2); err != nil {
			return 0, err
		}
		return c.nodes[args[0]].sort, arith()
	case native.OpMod, native.OpRem:
		if err := arity(2); err != nil {
			return 0, err
		}
		return c.intSort(), allKind(native.IntSort)
	case native.OpNeg:
		if err := arity(1); err != nil {
			return 0, err
		}
		return c.nodes[args[0]].sort, arith()
	case native.OpLt, native.OpLe, native.OpGt, native.OpGe:
		if err := arity(2); err != nil {
			return 0, err
		}
		return boolSort, arith()
	case native.OpToReal:
		if err := arity(1); err != nil {
			return 0, err
		}
		return c.realSort(), allKind(native.IntSort)
	case native.OpToInt:
		if err := arity(1); err != nil {
			return 0, err
		}
		return c.intSort(), allKind(native.RealSort)
	case native.OpIsInt:
		if err := arity(1); err != nil {
			return 0, err
		}
		return boolSort, allKind(native.RealSort)
	case native.OpBvAdd, native.OpBvSub, native.OpBvMul, native.OpBvUDiv, native.OpBvSDiv,
		native.OpBvURem, native.OpBvSRem, native.OpBvSMod, native.OpBvAnd, native.OpBvOr,
		native.OpBvXor, native.OpBvShl, native.OpBvLShr, native.OpBvAShr:
		return c.nodes[args[0]].sort, bvBinary()
	case native.OpBvNeg, native.OpBvNot:
		if err := arity(1); err != nil {
			return 0, err
		}
		return c.nodes[args[0]].sort, allKind(native.BvSort)
	case native.OpBvULt, native.OpBvULe, native.OpBvUGt, native.OpBvUGe,
		native.OpBvSLt, native.OpBvSLe, native.OpBvSGt, native.OpBvSGe,
		native.OpBvAddNoOverflowU, native.OpBvAddNoOverflowS, native.OpBvAddNoUnderflow,
		native.OpBvSubNoOverflow, native.OpBvSubNoUnderflowU, native.OpBvSubNoUnderflowS,
		native.OpBvMulNoOverflowU, native.OpBvMulNoOverflowS, native.OpBvMulNoUnderflow,
		native.OpBvSDivNoOverflow:
		return boolSort, bvBinary()
	case native.OpBvNegNoOverflow:
		if err := arity(1); err != nil {
			return 0, err
		}
		return boolSort, allKind(native.BvSort)
	case native.OpConcat:
		if err := arity(2); err != nil {
			return 0, err
		}
		if err := allKind(native.BvSort); err != nil {
			return 0, err
		}
		return c.bvSort(c.widthOf(args[0]) + c.widthOf(args[1]))
	case native.OpSelect:
		if err := arity(2); err != nil {
			return 0, err
		}
		if kinds[0] != native.ArraySort {
			return 0, sortErr(op, "expected Array, got %s", kinds[0])
		}
		as := c.nodes[c.nodes[args[0]].sort]
		if c.nodes[args[1]].sort != as.dom {
			return 0, sortErr(op, "index does not match array domain")
		}
		return as.rng, nil
	case native.OpStore:
		if err := arity(3); err != nil {
			return 0, err
		}
		if kinds[0] != native.ArraySort {
			return 0, sortErr(op, "expected Array, got %s", kinds[0])
		}
		as := c.nodes[c.nodes[args[0]].sort]
		if c.nodes[args[1]].sort != as.dom || c.nodes[args[2]].sort != as.rng {
			return 0, sortErr(op, "index or value does not match array sort")
		}
		return c.nodes[args[0]].sort, nil
	}
	return 0, native.Errorf(native.InvalidArg, "unsupported operator %s", op)
}

func (c *context) mkApp(op native.Op, args ...native.Handle) (native.Handle, error) {
	if op.Indexed() {
		return 0, native.Errorf(native.InvalidArg, "'%s' is an indexed operator", op)
	}
	s, err := c.appSort(op, args)
	if err != nil {
		return 0, err
	}
	var key strings.Builder
	fmt.Fprintf(&key, "A:%d", op)
	for _, a := range args {
		fmt.Fprintf(&key, ":%d", a)
	}
	return c.mk(key.String(), &node{tag: tagApp, op: op, sort: s, args: append([]native.Handle(nil), args...)}), nil
}

func (c *context) indexedSort(op native.Op, idx []uint32, arg native.Handle) (native.Handle, error) {
	if _, err := c.term(arg); err != nil {
		return 0, err
	}
	if len(idx) == 0 || (op == native.OpExtract && len(idx) != 2) {
		return 0, native.Errorf(native.InvalidArg, "wrong number of indices for '%s'", op)
	}
	k := c.kindOf(arg)
	if op == native.OpInt2Bv {
		if k != native.IntSort {
			return 0, sortErr(op, "expected Int, got %s", k)
		}
		return c.bvSort(idx[0])
	}
	if k != native.BvSort {
		return 0, sortErr(op, "expected BitVec, got %s", k)
	}
	w := c.widthOf(arg)
	switch op {
	case native.OpExtract:
		hi, lo := idx[0], idx[1]
		if hi >= w || lo > hi {
			return 0, native.Errorf(native.InvalidArg, "invalid extract [%d:%d] on %d bits", hi, lo, w)
		}
		return c.bvSort(hi - lo + 1)
	case native.OpSignExt, native.OpZeroExt:
		return c.bvSort(w + idx[0])
	case native.OpRepeat:
		if idx[0] == 0 {
			return 0, native.Errorf(native.InvalidArg, "repeat count must be positive")
		}
		return c.bvSort(w * idx[0])
	case native.OpRotateLeft, native.OpRotateRight:
		return c.nodes[arg].sort, nil
	case native.OpBv2Int:
		return c.intSort(), nil
	}
	return 0, native.Errorf(native.InvalidArg, "unsupported indexed operator %s", op)
}

func (c *context) mkIndexed(op native.Op, idx []uint32, arg native.Handle) (native.Handle, error) {
	if !op.Indexed() {
		return 0, native.Errorf(native.InvalidArg, "'%s' is not an indexed operator", op)
	}
	s, err := c.indexedSort(op, idx, arg)
	if err != nil {
		return 0, err
	}
	key := fmt.Sprintf("I:%d:%v:%d", op, idx, arg)
	return c.mk(key, &node{tag: tagIndexed, op: op, sort: s, idx: append([]uint32(nil), idx...), args: []native.Handle{arg}}), nil
}

func (e *Engine) termCall(method string, ctx native.Handle, f func(c *context) (native.Handle, error)) (native.Handle, error) {
	return e.sortCall(method, ctx, f)
}

// MkConst implements native.Library.
func (e *Engine) MkConst(ctx native.Handle, name string, sort native.Handle) (native.Handle, error) {
	return e.termCall("MkConst", ctx, func(c *context) (native.Handle, error) { return c.mkConst(name, sort) })
}

// MkNumeral implements native.Library.
func (e *Engine) MkNumeral(ctx native.Handle, numeral string, sort native.Handle) (native.Handle, error) {
	return e.termCall("MkNumeral", ctx, func(c *context) (native.Handle, error) { return c.mkNumeral(numeral, sort) })
}

// MkApp implements native.Library.
func (e *Engine) MkApp(ctx native.Handle, op native.Op, args ...native.Handle) (native.Handle, error) {
	return e.termCall("MkApp", ctx, func(c *context) (native.Handle, error) { return c.mkApp(op, args...) })
}

// MkIndexed implements native.Library.
func (e *Engine) MkIndexed(ctx native.Handle, op native.Op, indices []uint32, arg native.Handle) (native.Handle, error) {
	return e.termCall("MkIndexed", ctx, func(c *context) (native.Handle, error) { return c.mkIndexed(op, indices, arg) })
}

// MkConstArray implements native.Library.
func (e *Engine) MkConstArray(ctx, domain, val native.Handle) (native.Handle, error) {
	return e.termCall("MkConstArray", ctx, func(c *context) (native.Handle, error) { return c.mkConstArray(domain, val) })
}

// Simplify implements native.Library. Ground terms fold to values; anything
// mentioning a constant is returned unchanged.
func (e *Engine) Simplify(ctx, ast native.Handle) (native.Handle, error) {
	return e.termCall("Simplify", ctx, func(c *context) (native.Handle, error) {
		n, err := c.term(ast)
		if err != nil {
			return 0, err
		}
		v, ok := c.eval(ast, nil, false, nil)
		if !ok {
			return ast, nil
		}
		return c.mkValue(v, n.sort), nil
	})
}

// SortOf implements native.Library.
func (e *Engine) SortOf(ctx, ast native.Handle) (native.Handle, error) {
	return e.termCall("SortOf", ctx, func(c *context) (native.Handle, error) {
		n, err := c.term(ast)
		if err != nil {
			return 0, err
		}
		return n.sort, nil
	})
}

// SortKind implements native.Library.
func (e *Engine) SortKind(ctx, sort native.Handle) (native.SortKind, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup("SortKind", ctx)
	if err != nil {
		return native.UnknownSort, err
	}
	n, err := c.sortNode(sort)
	if err != nil {
		return native.UnknownSort, err
	}
	return n.kind, nil
}

// BvSortSize implements native.Library.
func (e *Engine) BvSortSize(ctx, sort native.Handle) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup("BvSortSize", ctx)
	if err != nil {
		return 0, err
	}
	n, err := c.sortNode(sort)
	if err != nil {
		return 0, err
	}
	if n.kind != native.BvSort {
		return 0, native.Errorf(native.InvalidArg, "not a bit-vector sort")
	}
	return n.width, nil
}

func (e *Engine) stringCall(method string, ctx native.Handle, f func(c *context) (string, error)) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup(method, ctx)
	if err != nil {
		return "", err
	}
	return f(c)
}

// SortString implements native.Library.
func (e *Engine) SortString(ctx, sort native.Handle) (string, error) {
	return e.stringCall("SortString", ctx, func(c *context) (string, error) {
		if _, err := c.sortNode(sort); err != nil {
			return "", err
		}
		return c.sortString(sort), nil
	})
}

// AstString implements native.Library.
func (e *Engine) AstString(ctx, ast native.Handle) (string, error) {
	return e.stringCall("AstString", ctx, func(c *context) (string, error) {
		if n, ok := c.nodes[ast]; ok && n.tag == tagSort {
			return c.sortString(ast), nil
		}
		if _, err := c.term(ast); err != nil {
			return "", err
		}
		return c.termString(ast), nil
	})
}

// NumeralString implements native.Library.
func (e *Engine) NumeralString(ctx, ast native.Handle) (string, error) {
	return e.stringCall("NumeralString", ctx, func(c *context) (string, error) {
		n, err := c.term(ast)
		if err != nil {
			return "", err
		}
		if n.tag != tagNum {
			return "", native.Errorf(native.InvalidArg, "the argument must be a numeral")
		}
		if n.val.kind == native.RealSort {
			return n.val.r.RatString(), nil
		}
		return n.val.i.String(), nil
	})
}

// BoolValue implements native.Library.
func (e *Engine) BoolValue(ctx, ast native.Handle) (native.LBool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup("BoolValue", ctx)
	if err != nil {
		return native.LUndef, err
	}
	n, err := c.term(ast)
	if err != nil {
		return native.LUndef, err
	}
	if n.tag == tagApp && n.op == native.OpTrue {
		return native.LTrue, nil
	}
	if n.tag == tagApp && n.op == native.OpFalse {
		return native.LFalse, nil
	}
	return native.LUndef, nil
}

// Printing

func (c *context) sortString(h native.Handle) string {
	n := c.nodes[h]
	switch n.kind {
	case native.BvSort:
		return fmt.Sprintf("(_ BitVec %d)", n.width)
	case native.ArraySort:
		return fmt.Sprintf("(Array %s %s)", c.sortString(n.dom), c.sortString(n.rng))
	}
	return n.kind.String()
}

func (c *context) valueString(v value) string {
	switch v.kind {
	case native.BoolSort:
		return v.key()
	case native.IntSort:
		if v.i.Sign() < 0 {
			return fmt.Sprintf("(- %s)", new(big.Int).Neg(v.i))
		}
		return v.i.String()
	case native.RealSort:
		abs := new(big.Rat).Abs(v.r)
		s := abs.Num().String() + ".0"
		if !abs.IsInt() {
			s = fmt.Sprintf("(/ %s.0 %s.0)", abs.Num(), abs.Denom())
		}
		if v.r.Sign() < 0 {
			return "(- " + s + ")"
		}
		return s
	case native.BvSort:
		if v.width%4 == 0 {
			h := v.i.Text(16)
			return "#x" + strings.Repeat("0", int(v.width/4)-len(h)) + h
		}
		b := v.i.Text(2)
		return "#b" + strings.Repeat("0", int(v.width)-len(b)) + b
	}
	return "?"
}

func (c *context) termString(h native.Handle) string {
	n := c.nodes[h]
	switch n.tag {
	case tagConst:
		return n.name
	case tagNum:
		return c.valueString(n.val)
	case tagConstArray:
		return fmt.Sprintf("((as const %s) %s)", c.sortString(n.sort), c.termString(n.args[0]))
	case tagIndexed:
		arg := c.termString(n.args[0])
		switch n.op {
		case native.OpBv2Int:
			if n.idx[0] == 1 {
				return fmt.Sprintf("(sbv2int %s)", arg)
			}
			return fmt.Sprintf("(bv2int %s)", arg)
		case native.OpExtract:
			return fmt.Sprintf("((_ extract %d %d) %s)", n.idx[0], n.idx[1], arg)
		}
		return fmt.Sprintf("((_ %s %d) %s)", n.op, n.idx[0], arg)
	}
	if len(n.args) == 0 {
		return n.op.String()
	}
	parts := make([]string, len(n.args))
	for i, a := range n.args {
		parts[i] = c.termString(a)
	}
	return "(" + n.op.String() + " " + strings.Join(parts, " ") + ")"
}

// consts collects the constants reachable from roots in first-seen order.
func (c *context) consts(roots ...native.Handle) []native.Handle {
	seen := make(map[native.Handle]bool)
	var out []native.Handle
	var walk func(h native.Handle)
	walk = func(h native.Handle) {
		if seen[h] {
			return
		}
		seen[h] = true
		n := c.nodes[h]
		if n.tag == tagConst {
			out = append(out, h)
			return
		}
		for _, a := range n.args {
			walk(a)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}
