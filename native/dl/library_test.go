//go:build cgo

package dl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/native"
)

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "libz3-missing.so"))
	if err == nil {
		t.Fatal("Expected dlopen of a missing file to fail")
	}
	if errors.KindOf(err) != errors.KindNotFound {
		t.Fatalf("Expected kind %s, got %s (%v)", errors.KindNotFound, errors.KindOf(err), err)
	}
}

func openEngine(t *testing.T) *Library {
	t.Helper()
	path := os.Getenv("Z3_LIBRARY_PATH")
	if path == "" {
		t.Skip("Z3_LIBRARY_PATH not set")
	}
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", path, err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLibrary_SolveBitVector(t *testing.T) {
	l := openEngine(t)
	if l.Version().Major < 4 {
		t.Fatalf("Expected engine version 4 or later, got %s", l.Version())
	}

	ctx, err := l.MkContext(map[string]string{"model": "true"})
	if err != nil {
		t.Fatalf("MkContext failed: %v", err)
	}
	defer l.DelContext(ctx)

	bv8, _ := l.BvSort(ctx, 8)
	x, err := l.MkConst(ctx, "x", bv8)
	if err != nil {
		t.Fatalf("MkConst failed: %v", err)
	}
	v, _ := l.MkNumeral(ctx, "42", bv8)
	eq, err := l.MkApp(ctx, native.OpEq, x, v)
	if err != nil {
		t.Fatalf("MkApp failed: %v", err)
	}

	s, err := l.MkSolver(ctx, false)
	if err != nil {
		t.Fatalf("MkSolver failed: %v", err)
	}
	defer l.SolverRelease(ctx, s)

	if err := l.SolverAssert(ctx, s, eq); err != nil {
		t.Fatalf("SolverAssert failed: %v", err)
	}
	res, err := l.SolverCheck(ctx, s, nil)
	if err != nil || res != native.LTrue {
		t.Fatalf("Expected sat, got %d (%v)", res, err)
	}
	m, err := l.SolverModel(ctx, s)
	if err != nil {
		t.Fatalf("SolverModel failed: %v", err)
	}
	defer l.ModelRelease(ctx, m)

	r, ok, err := l.ModelEval(ctx, m, x, true)
	if err != nil || !ok {
		t.Fatalf("ModelEval failed: %v", err)
	}
	if got, _ := l.NumeralString(ctx, r); got != "42" {
		t.Fatalf("Expected 42, got %s", got)
	}
}

func TestLibrary_SortErrorIsReported(t *testing.T) {
	l := openEngine(t)
	ctx, err := l.MkContext(nil)
	if err != nil {
		t.Fatalf("MkContext failed: %v", err)
	}
	defer l.DelContext(ctx)

	is, _ := l.IntSort(ctx)
	bs, _ := l.BoolSort(ctx)
	a, _ := l.MkConst(ctx, "a", is)
	b, _ := l.MkConst(ctx, "b", bs)
	_, err = l.MkApp(ctx, native.OpEq, a, b)
	var nerr *native.Error
	if !errors.As(err, &nerr) {
		t.Fatalf("Expected *native.Error, got %v", err)
	}
	if nerr.Code != native.SortError {
		t.Fatalf("Expected %s, got %s", native.SortError, nerr.Code)
	}
}
