package z3

import (
	"testing"

	"github.com/typedz3/z3/bv"
	"github.com/typedz3/z3/errors"
)

// numeral simplifies x and returns the resulting numeral in decimal.
func numeral(t *testing.T, x Term) string {
	t.Helper()
	c := x.Context()
	h, err := c.st.api.Simplify(c.st.h, x.Handle())
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	s, err := c.st.api.NumeralString(c.st.h, h)
	if err != nil {
		t.Fatalf("Expected %s to simplify to a numeral, got %v", x, err)
	}
	return s
}

func TestBvExpr_Size(t *testing.T) {
	ctx, _ := newTestContext(t)
	x := BvConst[bv.Size24](ctx, "x")
	if x.Size() != 24 {
		t.Fatalf("Expected width 24, got %d", x.Size())
	}
	s, err := x.GetSort()
	if err != nil {
		t.Fatal(err)
	}
	if w, _ := s.BvSize(); w != 24 {
		t.Fatalf("Expected sort width 24, got %d", w)
	}
	if got := s.String(); got != "(_ BitVec 24)" {
		t.Fatalf("Expected (_ BitVec 24), got %s", got)
	}
}

func TestResize_SameWidthIsIdentity(t *testing.T) {
	ctx, _ := newTestContext(t)
	x := BvConst[bv.Size16](ctx, "x")
	for _, signed := range []bool{false, true} {
		if r := Resize[bv.Size16](x, signed); !r.Equal(x) {
			t.Fatalf("Expected identical expression (signed=%v), got %s", signed, r)
		}
	}
	v := bv.New[bv.Size16](-2)
	if r := bv.Resize[bv.Size16](v, true); !r.Equal(v) {
		t.Fatalf("Expected identical value, got %v", r)
	}
}

func TestResize_Extension(t *testing.T) {
	ctx, _ := newTestContext(t)
	x := BvVal[bv.Size8](ctx, 200)

	tests := []struct {
		name   string
		signed bool
		want   string
	}{
		{"zero extend", false, "200"},
		{"sign extend", true, "65480"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := numeral(t, Resize[bv.Size16](x, tt.signed)); got != tt.want {
				t.Fatalf("Expected %s, got %s", tt.want, got)
			}
		})
	}

	if got := numeral(t, Resize[bv.Size4](x, false)); got != "8" {
		t.Fatalf("Expected truncation to keep the low bits (8), got %s", got)
	}
}

func TestExtractConcat_Reconstructs(t *testing.T) {
	ctx, _ := newTestContext(t)
	x := BvVal[bv.Size16](ctx, 0xBEEF)

	lo, err := Extract[bv.Size8](x, 0)
	if err != nil {
		t.Fatal(err)
	}
	hi, err := Extract[bv.Size8](x, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got := numeral(t, hi); got != "190" {
		t.Fatalf("Expected high byte 190, got %s", got)
	}
	joined, err := Concat[bv.Size16](hi, lo)
	if err != nil {
		t.Fatal(err)
	}
	if got := numeral(t, joined); got != "48879" {
		t.Fatalf("Expected 48879, got %s", got)
	}

	// The same holds symbolically.
	y := BvConst[bv.Size16](ctx, "y")
	ylo, _ := Extract[bv.Size4](y, 0)
	yhi, _ := Extract[bv.Size12](y, 4)
	back, err := Concat[bv.Size16](yhi, ylo)
	if err != nil {
		t.Fatal(err)
	}
	s := newTestSolver(t, ctx)
	s.Assert(y.Eq(x), back.Neq(y))
	mustCheck(t, s, Unsatisfiable)
}

func TestExtract_OutOfRange(t *testing.T) {
	ctx, _ := newTestContext(t)
	x := BvConst[bv.Size16](ctx, "x")
	_, err := Extract[bv.Size8](x, 9)
	expectKind(t, err, errors.KindInvalidArgument)
	_, err = Extract[bv.Size32](x, 0)
	expectKind(t, err, errors.KindInvalidArgument)
	if _, err := Extract[bv.Size8](x, 8); err != nil {
		t.Fatalf("Expected the top byte to be extractable, got %v", err)
	}
}

func TestConcat_WidthMismatch(t *testing.T) {
	ctx, _ := newTestContext(t)
	a := BvConst[bv.Size8](ctx, "a")
	b := BvConst[bv.Size8](ctx, "b")
	_, err := Concat[bv.Size32](a, b)
	expectKind(t, err, errors.KindInvalidArgument)
}

func TestRepeat(t *testing.T) {
	ctx, _ := newTestContext(t)
	x := BvVal[bv.Size4](ctx, 0xA)

	r, err := Repeat[bv.Size12](x)
	if err != nil {
		t.Fatal(err)
	}
	if got := numeral(t, r); got != "2730" {
		t.Fatalf("Expected 0xAAA (2730), got %s", got)
	}
	same, err := Repeat[bv.Size4](x)
	if err != nil || !same.Equal(x) {
		t.Fatalf("Expected repeating once to be the identity, got %v (%v)", same, err)
	}

	y := BvConst[bv.Size8](ctx, "y")
	_, err = Repeat[bv.Size12](y)
	expectKind(t, err, errors.KindInvalidArgument)
	_, err = bv.Repeat[bv.Size12](bv.New[bv.Size8](1))
	expectKind(t, err, errors.KindInvalidArgument)
}

func TestRotate(t *testing.T) {
	ctx, _ := newTestContext(t)
	x := BvVal[bv.Size8](ctx, 0x81)

	l, err := x.RotateLeft(1)
	if err != nil {
		t.Fatal(err)
	}
	if got := numeral(t, l); got != "3" {
		t.Fatalf("Expected 3, got %s", got)
	}
	r, err := x.RotateRight(9)
	if err != nil {
		t.Fatal(err)
	}
	if got := numeral(t, r); got != "192" {
		t.Fatalf("Expected 192, got %s", got)
	}
	for _, n := range []int{0, 8, 16} {
		same, err := x.RotateLeft(n)
		if err != nil || !same.Equal(x) {
			t.Fatalf("Expected rotation by %d to be the identity, got %v (%v)", n, same, err)
		}
	}
	_, err = x.RotateLeft(-1)
	expectKind(t, err, errors.KindInvalidArgument)
	_, err = x.RotateRight(-3)
	expectKind(t, err, errors.KindInvalidArgument)
}

func TestBvExpr_Arithmetic(t *testing.T) {
	ctx, _ := newTestContext(t)
	a := BvVal[bv.Size8](ctx, 200)
	b := BvVal[bv.Size8](ctx, 100)
	m := BvVal[bv.Size8](ctx, -7)
	d := BvVal[bv.Size8](ctx, 2)

	tests := []struct {
		name string
		x    Term
		want string
	}{
		{"add wraps", a.Add(b), "44"},
		{"sub", a.Sub(b), "100"},
		{"mul wraps", b.Mul(d), "200"},
		{"udiv", a.Div(b, false), "2"},
		{"sdiv", m.Div(d, true), "253"},
		{"srem", m.Rem(d, true), "255"},
		{"smod", m.SMod(d), "1"},
		{"and", a.And(b), "64"},
		{"or", a.Or(b), "236"},
		{"xor", a.Xor(b), "172"},
		{"not", b.Not(), "155"},
		{"neg", d.Neg(), "254"},
		{"shl", b.Shl(d), "144"},
		{"lshr", m.Shr(d, false), "62"},
		{"ashr", m.Shr(d, true), "254"},
		{"to int unsigned", m.ToInt(false), "249"},
		{"to int signed", m.ToInt(true), "-7"},
		{"int to bv", IntToBV[bv.Size8](ctx.MkInt(-1)), "255"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := numeral(t, tt.x); got != tt.want {
				t.Fatalf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestBvExpr_Predicates(t *testing.T) {
	ctx, _ := newTestContext(t)
	a := BvVal[bv.Size8](ctx, 200)
	b := BvVal[bv.Size8](ctx, 100)
	s := newTestSolver(t, ctx)

	tests := []struct {
		name string
		p    BoolExpr
		want bool
	}{
		{"unsigned lt", b.Lt(a, false), true},
		{"signed lt", b.Lt(a, true), false},
		{"le", a.Le(a, false), true},
		{"gt", a.Gt(b, false), true},
		{"ge signed", a.Ge(b, true), false},
		{"neq", a.Neq(b), true},
		{"add no overflow unsigned", a.AddNoOverflow(b, false), false},
		{"add no overflow signed", b.AddNoOverflow(b, true), false},
		{"add no underflow", a.AddNoUnderflow(a), true},
		{"sub no overflow", b.SubNoOverflow(a), false},
		{"sub no underflow unsigned", b.SubNoUnderflow(a, false), false},
		{"mul no overflow unsigned", b.MulNoOverflow(BvVal[bv.Size8](ctx, 2), false), true},
		{"mul no underflow", a.MulNoUnderflow(b), false},
		{"sdiv no overflow", BvVal[bv.Size8](ctx, -128).SDivNoOverflow(BvVal[bv.Size8](ctx, -1)), false},
		{"neg no overflow", BvVal[bv.Size8](ctx, -128).NegNoOverflow(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.Reset()
			s.Assert(tt.p)
			want := Satisfiable
			if !tt.want {
				want = Unsatisfiable
			}
			mustCheck(t, s, want)
		})
	}
}
