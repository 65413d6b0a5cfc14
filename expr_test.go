package z3

import (
	"math/big"
	"testing"

	"github.com/typedz3/z3/bv"
	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/native"
)

func TestExpr_EqualIsHandleIdentity(t *testing.T) {
	ctx, _ := newTestContext(t)
	x1 := ctx.MkIntConst("x")
	x2 := ctx.MkIntConst("x")
	y := ctx.MkIntConst("y")
	if !x1.Equal(x2) || x1 != x2 {
		t.Fatal("Expected the same constant to share a handle")
	}
	if x1.Equal(y) {
		t.Fatal("Expected different constants to differ")
	}
	// x+0 is equivalent to x but a different term.
	if x1.Add(ctx.MkInt(0)).Equal(x1) {
		t.Fatal("Expected structural equality to be ignored")
	}
}

func TestExpr_String(t *testing.T) {
	ctx, _ := newTestContext(t)
	x := ctx.MkIntConst("x")
	if got := x.Add(ctx.MkInt(1)).String(); got != "(+ x 1)" {
		t.Fatalf("Expected (+ x 1), got %s", got)
	}
	var zero Expr
	if got := zero.String(); got != "<nil>" {
		t.Fatalf("Expected <nil>, got %s", got)
	}
	ctx.Close()
	if got := x.String(); got != "<disposed>" {
		t.Fatalf("Expected <disposed>, got %s", got)
	}
}

func TestExpr_SortMismatchIsNative(t *testing.T) {
	ctx, _ := newTestContext(t)
	x := ctx.MkIntConst("x")
	p := ctx.MkBoolConst("p")

	err := Try(func() { ctx.MkEq(x, p) })
	expectKind(t, err, errors.KindNative)
	var e *errors.Error
	if !errors.As(err, &e) || e.Code != int(native.SortError) {
		t.Fatalf("Expected engine code %d, got %v", native.SortError, err)
	}
	var ne *native.Error
	if !errors.As(err, &ne) {
		t.Fatalf("Expected the engine error as cause, got %v", err)
	}
}

func TestTry(t *testing.T) {
	if err := Try(func() {}); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}
	defer func() {
		if r := recover(); r != "other" {
			t.Fatalf("Expected foreign panic to propagate, got %v", r)
		}
	}()
	Try(func() { panic("other") })
}

func TestExpr_Conversions(t *testing.T) {
	ctx, _ := newTestContext(t)
	x := ctx.MkIntConst("x")
	e := ctx.MkIte(ctx.MkTrue(), x, ctx.MkInt(1))

	if _, err := e.AsInt(); err != nil {
		t.Fatalf("Expected Int, got %v", err)
	}
	_, err := e.AsBool()
	expectKind(t, err, errors.KindInvalidArgument)
	_, err = e.AsReal()
	expectKind(t, err, errors.KindInvalidArgument)

	s, err := x.GetSort()
	if err != nil {
		t.Fatal(err)
	}
	if k, _ := s.Kind(); k != native.IntSort {
		t.Fatalf("Expected Int sort, got %v", k)
	}
}

func TestBoolExpr(t *testing.T) {
	ctx, _ := newTestContext(t)
	p := ctx.MkBoolConst("p")
	q := ctx.MkBoolConst("q")
	tr, fa := ctx.MkTrue(), ctx.MkFalse()

	tests := []struct {
		name string
		x    BoolExpr
		want string
	}{
		{"and", tr.And(fa), "false"},
		{"or", tr.Or(fa), "true"},
		{"not", fa.Not(), "true"},
		{"implies", fa.Implies(tr), "true"},
		{"iff", tr.Iff(fa), "false"},
		{"xor", tr.Xor(fa), "true"},
		{"eq", fa.Eq(fa), "true"},
		{"neq", fa.Neq(tr), "true"},
		{"empty and", ctx.MkAnd(), "true"},
		{"empty or", ctx.MkOr(), "false"},
		{"distinct", ctx.MkDistinct(tr, fa), "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Simplify(tt.x).String(); got != tt.want {
				t.Fatalf("Expected %s, got %s", tt.want, got)
			}
		})
	}

	if got := p.And(q).String(); got != "(and p q)" {
		t.Fatalf("Expected (and p q), got %s", got)
	}
	if single := ctx.MkAnd(p); !single.Equal(p) {
		t.Fatal("Expected a single conjunct to be returned as is")
	}
	if got := Ite(p, ctx.MkInt(1), ctx.MkInt(2)).String(); got != "(ite p 1 2)" {
		t.Fatalf("Expected (ite p 1 2), got %s", got)
	}
}

func TestArith(t *testing.T) {
	ctx, _ := newTestContext(t)
	seven, two := ctx.MkInt(7), ctx.MkInt(2)
	mseven := ctx.MkInt(-7)

	tests := []struct {
		name string
		x    Term
		want string
	}{
		{"add", seven.Add(two, two), "11"},
		{"sub", seven.Sub(two), "5"},
		{"mul", seven.Mul(two), "14"},
		{"div", mseven.Div(two), "-4"},
		{"mod", mseven.Mod(two), "1"},
		{"neg", seven.Neg(), "-7"},
		{"big", ctx.MkIntFromBig(new(big.Int).Lsh(big.NewInt(1), 100)), "1267650600228229401496703205376"},
		{"to real", seven.ToReal().Div(ctx.MkReal(2, 1)), "7/2"},
		{"real to int", ctx.MkReal(7, 2).ToInt(), "3"},
		{"real add", ctx.MkReal(1, 3).Add(ctx.MkReal(1, 6)), "1/2"},
		{"real mul", ctx.MkRealFromRat(big.NewRat(3, 4)).Mul(ctx.MkReal(2, 1)), "3/2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := numeral(t, tt.x); got != tt.want {
				t.Fatalf("Expected %s, got %s", tt.want, got)
			}
		})
	}

	expectPanicKind(t, errors.KindInvalidArgument, func() { ctx.MkReal(1, 0) })
	if !seven.Add().Equal(seven) {
		t.Fatal("Expected Add with no operands to return the receiver")
	}
}

func TestArith_Predicates(t *testing.T) {
	ctx, _ := newTestContext(t)
	a, b := ctx.MkInt(3), ctx.MkInt(5)
	h := ctx.MkReal(1, 2)

	tests := []struct {
		name string
		p    BoolExpr
		want string
	}{
		{"lt", a.Lt(b), "true"},
		{"le", b.Le(a), "false"},
		{"gt", b.Gt(a), "true"},
		{"ge", a.Ge(a), "true"},
		{"neq", a.Neq(b), "true"},
		{"real lt", h.Lt(ctx.MkReal(1, 1)), "true"},
		{"is int", h.IsInt(), "false"},
		{"distinct", Distinct(a, b, a), "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Simplify(tt.p).String(); got != tt.want {
				t.Fatalf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestArray(t *testing.T) {
	ctx, _ := newTestContext(t)
	zeros := ConstArray[IntExpr](BvVal[bv.Size8](ctx, 0))
	a := zeros.Store(ctx.MkInt(3), BvVal[bv.Size8](ctx, 42))

	if got := numeral(t, a.Select(ctx.MkInt(3))); got != "42" {
		t.Fatalf("Expected 42, got %s", got)
	}
	if got := numeral(t, a.Select(ctx.MkInt(4))); got != "0" {
		t.Fatalf("Expected 0, got %s", got)
	}

	arr, err := ArrayConst[IntExpr, BoolExpr](ctx, "arr")
	if err != nil {
		t.Fatal(err)
	}
	s, _ := arr.GetSort()
	if got := s.String(); got != "(Array Int Bool)" {
		t.Fatalf("Expected (Array Int Bool), got %s", got)
	}
	sel := arr.Select(ctx.MkInt(0))
	if _, err := sel.AsBool(); err != nil {
		t.Fatalf("Expected a Boolean element, got %v", err)
	}
	if got := arr.Eq(arr).String(); got != "(= arr arr)" {
		t.Fatalf("Expected (= arr arr), got %s", got)
	}
}

func TestConst_Generic(t *testing.T) {
	ctx, _ := newTestContext(t)
	r, err := Const[RealExpr](ctx, "r")
	if err != nil {
		t.Fatal(err)
	}
	if k, _ := r.GetSort(); k.String() != "Real" {
		t.Fatalf("Expected Real, got %s", k)
	}
	b := MustConst[BvExpr[bv.Size32]](ctx, "b")
	if b.Size() != 32 {
		t.Fatalf("Expected 32 bits, got %d", b.Size())
	}
	if got := Simplify(Ite(ctx.MkFalse(), BvVal[bv.Size32](ctx, 7), BvVal[bv.Size32](ctx, 9))).String(); got != "#x00000009" {
		t.Fatalf("Expected #x00000009, got %s", got)
	}
}

func TestDistinct_NoOperandsUsesCurrentContext(t *testing.T) {
	expectPanicKind(t, errors.KindInvalidState, func() { Distinct[IntExpr]() })

	ctx, _ := newTestContext(t)
	scope, err := ctx.SetUp()
	if err != nil {
		t.Fatal(err)
	}
	defer scope.Close()

	d := Distinct[IntExpr]()
	if d.Context() != ctx {
		t.Fatal("Expected the literal to come from the current context")
	}
	if d.String() != "true" {
		t.Fatalf("Expected true, got %q", d.String())
	}
}
