package z3

import (
	"testing"

	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/native/nativetest"
)

// newTestLibrary wraps a fresh in-memory engine and fails the test if the
// engine saw any misuse.
func newTestLibrary(t *testing.T) (*Library, *nativetest.Engine) {
	t.Helper()
	e := nativetest.New()
	lib, err := OpenLibrary(e)
	if err != nil {
		t.Fatalf("OpenLibrary failed: %v", err)
	}
	t.Cleanup(func() {
		if v := e.Violations(); len(v) != 0 {
			t.Errorf("Engine recorded violations: %v", v)
		}
	})
	return lib, e
}

func newTestContext(t *testing.T, opts ...Option) (*Context, *nativetest.Engine) {
	t.Helper()
	lib, e := newTestLibrary(t)
	ctx, err := NewContext(append([]Option{WithLibrary(lib)}, opts...)...)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	t.Cleanup(func() {
		ctx.Close()
		lib.Close()
	})
	return ctx, e
}

func newTestSolver(t *testing.T, ctx *Context) *Solver {
	t.Helper()
	s, err := ctx.NewSolver()
	if err != nil {
		t.Fatalf("NewSolver failed: %v", err)
	}
	return s
}

func expectKind(t *testing.T, err error, want errors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", want)
	}
	if got := errors.KindOf(err); got != want {
		t.Fatalf("Expected %s error, got %s (%v)", want, got, err)
	}
}

func expectPanicKind(t *testing.T, want errors.Kind, fn func()) {
	t.Helper()
	expectKind(t, Try(fn), want)
}

func mustCheck(t *testing.T, s *Solver, want Status) {
	t.Helper()
	got, err := s.Check()
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if got != want {
		t.Fatalf("Expected %s, got %s", want, got)
	}
}
