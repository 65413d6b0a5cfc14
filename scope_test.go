package z3

import (
	"sync"
	"testing"

	"github.com/typedz3/z3/bv"
	"github.com/typedz3/z3/errors"
)

func TestScope_NestedRestore(t *testing.T) {
	a, _ := newTestContext(t)
	b, _ := newTestContext(t)

	if IsCurrentSet() {
		t.Fatal("Expected no current context at start")
	}
	sa, err := a.SetUp()
	if err != nil {
		t.Fatalf("SetUp failed: %v", err)
	}
	sb, err := b.SetUp()
	if err != nil {
		t.Fatalf("SetUp failed: %v", err)
	}
	if c, _ := Current(); c != b {
		t.Fatal("Expected inner context to be current")
	}
	if err := sb.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if c, _ := Current(); c != a {
		t.Fatal("Expected outer context to be current again")
	}
	if err := sb.Close(); err != nil {
		t.Fatalf("Expected second Close to return nil, got %v", err)
	}
	if c, _ := Current(); c != a {
		t.Fatal("Expected repeated Close to leave the outer scope alone")
	}
	sa.Close()
	if IsCurrentSet() {
		t.Fatal("Expected no current context after closing every scope")
	}
}

func TestScope_OuterCloseRestoresEverything(t *testing.T) {
	a, _ := newTestContext(t)
	b, _ := newTestContext(t)
	sa, _ := a.SetUp()
	b.SetUp()
	b.SetUp()
	sa.Close()
	if IsCurrentSet() {
		t.Fatal("Expected closing the outer scope to drop the inner ones")
	}
}

func TestScope_StaleInnerCloseKeepsLaterScopes(t *testing.T) {
	a, _ := newTestContext(t)
	b, _ := newTestContext(t)
	c, _ := newTestContext(t)
	d, _ := newTestContext(t)

	sa, _ := a.SetUp()
	sb, _ := b.SetUp()
	sa.Close()

	sc, _ := c.SetUp()
	sd, _ := d.SetUp()
	if err := sb.Close(); err != nil {
		t.Fatalf("Expected stale Close to return nil, got %v", err)
	}
	if cur, _ := Current(); cur != d {
		t.Fatal("Expected the innermost live scope to stay current")
	}
	sd.Close()
	if cur, _ := Current(); cur != c {
		t.Fatal("Expected closing d to restore c")
	}
	sc.Close()
	if IsCurrentSet() {
		t.Fatal("Expected no current context after closing every scope")
	}
}

func TestScope_RestoredWhilePanicking(t *testing.T) {
	a, _ := newTestContext(t)
	b, _ := newTestContext(t)

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Fatalf("Expected panic boom, got %v", r)
			}
		}()
		sa, _ := a.SetUp()
		defer sa.Close()
		func() {
			sb, _ := b.SetUp()
			defer sb.Close()
			panic("boom")
		}()
	}()

	if IsCurrentSet() {
		t.Fatal("Expected no current context after unwinding")
	}
	_, err := Current()
	expectKind(t, err, errors.KindInvalidState)
}

func TestScope_SequentialScopesAreIndependent(t *testing.T) {
	a, _ := newTestContext(t)
	b, _ := newTestContext(t)

	err := a.Within(func() error {
		if c, _ := Current(); c != a {
			t.Fatal("Expected a to be current")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if IsCurrentSet() {
		t.Fatal("Expected a to be gone after its scope")
	}
	b.Within(func() error {
		if c, _ := Current(); c != b {
			t.Fatal("Expected b to be current")
		}
		return nil
	})
	if IsCurrentSet() {
		t.Fatal("Expected b to be gone after its scope")
	}
}

func TestScope_WithinReturnsError(t *testing.T) {
	ctx, _ := newTestContext(t)
	want := errors.InvalidState(errors.ResourceSolver, "test", "stop")
	if err := ctx.Within(func() error { return want }); err != want {
		t.Fatalf("Expected Within to return the callback error, got %v", err)
	}
}

func TestScope_GoroutineIsolation(t *testing.T) {
	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan string, workers)

	for i := 0; i < workers; i++ {
		ctx, _ := newTestContext(t)
		wg.Add(1)
		go func(ctx *Context) {
			defer wg.Done()
			if IsCurrentSet() {
				errs <- "fresh goroutine sees a current context"
				return
			}
			for j := 0; j < 100; j++ {
				s, err := ctx.SetUp()
				if err != nil {
					errs <- err.Error()
					return
				}
				if c, _ := Current(); c != ctx {
					errs <- "goroutine observed another goroutine's context"
				}
				s.Close()
			}
			if IsCurrentSet() {
				errs <- "scope leaked"
			}
		}(ctx)
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatal(msg)
	}
}

func TestScope_CloseFromAnotherGoroutine(t *testing.T) {
	ctx, _ := newTestContext(t)
	s, _ := ctx.SetUp()
	defer s.Close()

	done := make(chan error)
	go func() { done <- s.Close() }()
	expectKind(t, <-done, errors.KindInvalidState)

	if c, _ := Current(); c != ctx {
		t.Fatal("Expected the scope to stay open after a foreign Close")
	}
}

func TestLiterals_UseCurrentContext(t *testing.T) {
	ctx, _ := newTestContext(t)

	expectPanicKind(t, errors.KindInvalidState, func() { Int(1) })

	s, _ := ctx.SetUp()
	defer s.Close()

	x := ctx.MkIntConst("x")
	sum := Simplify(Int(2).Add(Int(3)))
	if got := sum.String(); got != "5" {
		t.Fatalf("Expected 5, got %s", got)
	}
	if got := x.Gt(Int(10)).Context(); got != ctx {
		t.Fatal("Expected the literal to live on the current context")
	}
	if !True().Equal(ctx.MkTrue()) || !False().Equal(ctx.MkFalse()) || !Bool(true).Equal(True()) {
		t.Fatal("Expected Boolean literals to be shared")
	}
	if got := Simplify(Real(1, 2).Add(Real(1, 2))).String(); got != "1" && got != "1.0" {
		t.Fatalf("Expected 1, got %s", got)
	}
	b := BV[bv.Size8](300)
	v := BVValue(bv.New[bv.Size8](44))
	if !b.Equal(v) {
		t.Fatal("Expected 300 to wrap to 44 in 8 bits")
	}
	if got := AndAll().String(); got != "true" {
		t.Fatalf("Expected empty conjunction true, got %s", got)
	}
	if got := OrAll().String(); got != "false" {
		t.Fatalf("Expected empty disjunction false, got %s", got)
	}
}
