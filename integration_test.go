//go:build z3 && cgo

package z3

import (
	"os"
	"testing"

	"github.com/typedz3/z3/bv"
	"github.com/typedz3/z3/errors"
)

// These tests run against a real engine:
//
//	Z3_LIBRARY_PATH=/usr/lib/libz3.so go test -tags z3 ./...

func newEngineContext(t *testing.T) *Context {
	t.Helper()
	path := os.Getenv(EnvLibraryPath)
	if path == "" {
		t.Skip(EnvLibraryPath + " not set")
	}
	lib, err := LoadLibrary(path)
	if err != nil {
		t.Fatalf("LoadLibrary(%s) failed: %v", path, err)
	}
	ctx, err := NewContext(WithLibrary(lib), WithParam("model", "true"))
	if err != nil {
		lib.Close()
		t.Fatalf("NewContext failed: %v", err)
	}
	t.Cleanup(func() {
		if err := ctx.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
		lib.Close()
	})
	return ctx
}

func TestEngine_LinearArithmetic(t *testing.T) {
	ctx := newEngineContext(t)
	x := ctx.MkIntConst("x")
	y := ctx.MkIntConst("y")

	s := newTestSolver(t, ctx)
	s.Assert(x.Add(y).Eq(ctx.MkInt(10)), x.Sub(y).Eq(ctx.MkInt(2)))
	mustCheck(t, s, Satisfiable)

	m, err := s.Model()
	if err != nil {
		t.Fatal(err)
	}
	xv, _ := m.IntValue(x)
	yv, _ := m.IntValue(y)
	if xv.Int64() != 6 || yv.Int64() != 4 {
		t.Fatalf("Expected x=6 y=4, got x=%s y=%s", xv, yv)
	}
}

func TestEngine_BitVectorOverflow(t *testing.T) {
	ctx := newEngineContext(t)
	a := BvConst[bv.Size8](ctx, "a")
	b := BvConst[bv.Size8](ctx, "b")

	s := newTestSolver(t, ctx)
	s.Assert(a.AddNoOverflow(b, false).Not(), a.Gt(BvVal[bv.Size8](ctx, 250), false))
	mustCheck(t, s, Satisfiable)

	m, _ := s.Model()
	av, err := BitVecValue(m, a)
	if err != nil {
		t.Fatal(err)
	}
	bvv, _ := BitVecValue(m, b)
	if av.Uint64()+bvv.Uint64() < 256 {
		t.Fatalf("Expected an overflowing pair, got %s + %s", av, bvv)
	}
}

func TestEngine_SortErrorIsReported(t *testing.T) {
	ctx := newEngineContext(t)
	err := Try(func() { ctx.MkEq(ctx.MkIntConst("x"), ctx.MkBoolConst("p")) })
	expectKind(t, err, errors.KindNative)
}

func TestEngine_CascadeReleasesEverything(t *testing.T) {
	ctx := newEngineContext(t)
	s := newTestSolver(t, ctx)
	o, err := ctx.NewOptimize()
	if err != nil {
		t.Fatal(err)
	}
	s.Assert(ctx.MkTrue())
	mustCheck(t, s, Satisfiable)
	m, _ := s.Model()

	if err := ctx.Close(); err != nil {
		t.Fatal(err)
	}
	if !s.Closed() || !o.Closed() || m.Valid() {
		t.Fatal("Expected closing the context to close its children")
	}
}
