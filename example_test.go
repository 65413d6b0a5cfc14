package z3_test

import (
	"fmt"

	z3 "github.com/typedz3/z3"
	"github.com/typedz3/z3/bv"
	"github.com/typedz3/z3/native/nativetest"
)

// newContext stands in for z3.NewContext() on a machine with libz3
// installed and $Z3_LIBRARY_PATH set.
func newContext() (*z3.Context, func()) {
	lib, err := z3.OpenLibrary(nativetest.New())
	if err != nil {
		panic(err)
	}
	ctx, err := z3.NewContext(z3.WithLibrary(lib))
	if err != nil {
		panic(err)
	}
	return ctx, func() {
		ctx.Close()
		lib.Close()
	}
}

func Example() {
	ctx, done := newContext()
	defer done()

	x := ctx.MkIntConst("x")
	y := ctx.MkIntConst("y")

	solver, err := ctx.NewSolver()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	solver.Assert(x.Eq(ctx.MkInt(4)), y.Eq(x.Add(ctx.MkInt(6))), y.Gt(x))

	status, err := solver.Check()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Status:", status)
	if status == z3.Satisfiable {
		model, _ := solver.Model()
		xv, _ := model.IntValue(x)
		yv, _ := model.IntValue(y)
		fmt.Println("x =", xv)
		fmt.Println("y =", yv)
	}

	// a > 0 and a < 0 cannot both hold.
	solver.Reset()
	a := ctx.MkIntConst("a")
	solver.Assert(a.Eq(ctx.MkInt(3)), a.Lt(ctx.MkInt(0)))
	status, _ = solver.Check()
	fmt.Println("Status:", status)

	// Output:
	// Status: sat
	// x = 4
	// y = 10
	// Status: unsat
}

func Example_bitVectors() {
	ctx, done := newContext()
	defer done()

	x := z3.BvConst[bv.Size8](ctx, "x")
	y := z3.BvConst[bv.Size8](ctx, "y")

	solver, _ := ctx.NewSolver()
	solver.Assert(
		x.Eq(z3.BvVal[bv.Size8](ctx, 200)),
		y.Eq(x.Add(z3.BvVal[bv.Size8](ctx, 100))),
		x.Gt(y, false),
	)
	if status, _ := solver.Check(); status != z3.Satisfiable {
		fmt.Println("Status:", status)
		return
	}
	model, _ := solver.Model()
	xv, _ := z3.BitVecValue(model, x)
	yv, _ := z3.BitVecValue(model, y)
	fmt.Println("x =", xv, "signed", xv.Int64())
	fmt.Println("y =", yv)

	wide := z3.Resize[bv.Size16](x, true)
	wv, _ := z3.BitVecValue(model, wide)
	fmt.Printf("sign extended: %x\n", wv)

	// Output:
	// x = 200 signed -56
	// y = 44
	// sign extended: 0xFFC8 (16-bit)
}

func ExampleContext_SetUp() {
	ctx, done := newContext()
	defer done()

	scope, err := ctx.SetUp()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer scope.Close()

	sum := z3.Simplify(z3.Int(2).Add(z3.Int(3)))
	fmt.Println(sum)
	fmt.Println(z3.Simplify(z3.BV[bv.Size4](9).Add(z3.BV[bv.Size4](9))))

	// Output:
	// 5
	// #x2
}

func ExampleOptimize() {
	ctx, done := newContext()
	defer done()

	opt, _ := ctx.NewOptimize()
	x := ctx.MkIntConst("x")
	p := ctx.MkBoolConst("p")

	opt.Assert(x.Eq(ctx.MkInt(7)))
	best, _ := z3.Maximize(opt, x)
	opt.AssertSoft(p.Not(), "1", "prefer-false")

	status, _ := opt.Check()
	fmt.Println("Status:", status)
	upper, _ := best.Upper()
	fmt.Println("max x =", upper)
	model, _ := opt.Model()
	pv, _ := model.BoolValue(p)
	fmt.Println("p =", pv)

	// Output:
	// Status: sat
	// max x = 7
	// p = false
}

func ExampleSolver_FromString() {
	ctx, done := newContext()
	defer done()

	solver, _ := ctx.NewSolver()
	err := solver.FromString(`
(declare-const a Int)
(declare-const b Int)
(assert (= a 15))
(assert (= b (+ a 5)))
(assert (> b a))`)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	status, _ := solver.Check()
	fmt.Println("Status:", status)
	model, _ := solver.Model()
	fmt.Print(model)

	// Output:
	// Status: sat
	// (define-fun a () Int
	//   15)
	// (define-fun b () Int
	//   20)
}
