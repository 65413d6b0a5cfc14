// Package z3 provides typed Go bindings for the Z3 theorem prover.
//
// Z3 is a high-performance SMT (Satisfiability Modulo Theories) solver
// developed at Microsoft Research. These bindings load libz3 at run time and
// wrap its C API with typed expressions and explicit lifetimes: every native
// object belongs to a Context, and closing the Context releases it.
//
// # Basic Usage
//
// Load the engine and create a context:
//
//	lib, err := z3.LoadLibrary("/usr/lib/libz3.so")
//	if err != nil {
//		return err
//	}
//	z3.SetDefaultLibrary(lib)
//
//	ctx, err := z3.NewContext()
//	if err != nil {
//		return err
//	}
//	defer ctx.Close()
//
// Create variables and constraints:
//
//	x := z3.BvConst[bv.Size8](ctx, "x")
//	solver, _ := ctx.NewSolver()
//	solver.Assert(x.Eq(z3.BvVal[bv.Size8](ctx, 42)))
//
// Check satisfiability and get model:
//
//	if st, _ := solver.Check(); st == z3.Satisfiable {
//		model, _ := solver.Model()
//		v, _ := z3.BitVecValue(model, x)
//		fmt.Println("x =", v)
//	}
//
// # Lifetimes
//
// Context.Close closes every Solver and Optimize created from the context,
// then deletes the native context. A Model is only valid until its solver
// changes; reads after that fail with a disposed error. Finalizers act as a
// backstop for objects that are never closed, but they run at the garbage
// collector's discretion and should not be relied on.
//
// # Bit-vector widths
//
// BvExpr carries its width as a type parameter (bv.Size8, bv.Size32, ...),
// so operations on vectors of different widths do not compile. Resize,
// Extract, Concat and Repeat change widths explicitly.
//
// # Current context
//
// Context.SetUp makes a context current for the calling goroutine until the
// returned Scope is closed. Literal helpers such as Int, True and BV use the
// current context:
//
//	scope, _ := ctx.SetUp()
//	defer scope.Close()
//	solver.Assert(y.Gt(z3.Int(10)))
//
// # Errors
//
// Methods on Context, Solver, Optimize, Model and Library return errors of
// type *errors.Error. Expression builders panic with the same type when the
// context is closed or the engine rejects a term; Try turns such a panic
// back into an error.
package z3
