package disposable

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/typedz3/z3/errors"
)

func TestGuard_Live(t *testing.T) {
	var g Guard
	if g.Disposed() {
		t.Fatal("Expected zero guard to be live")
	}
	if err := g.Ensure(errors.ResourceSolver, "Check"); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
}

func TestGuard_MarkOnce(t *testing.T) {
	var g Guard
	if !g.MarkDisposed() {
		t.Fatal("Expected first MarkDisposed to report the transition")
	}
	if g.MarkDisposed() {
		t.Fatal("Expected second MarkDisposed to report false")
	}

	for i := 0; i < 2; i++ {
		err := g.Ensure(errors.ResourceSolver, "Check")
		if !errors.Is(err, errors.ErrDisposed) {
			t.Fatalf("Expected disposed error on call %d, got %v", i, err)
		}
	}
}

func TestGuard_ConcurrentMark(t *testing.T) {
	var g Guard
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.MarkDisposed() {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("Expected exactly one winner, got %d", winners)
	}
}

type owner struct{ _ [16]byte }

func TestSetBackstop_RunsForLeakedOwner(t *testing.T) {
	g := new(Guard)
	ran := make(chan struct{}, 1)
	func() {
		o := new(owner)
		SetBackstop(o, g, func() { ran <- struct{}{} })
	}()

	for i := 0; i < 20; i++ {
		runtime.GC()
		select {
		case <-ran:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
	t.Skip("finalizer did not run in time; backstops are best effort")
}

func TestClearBackstop(t *testing.T) {
	g := new(Guard)
	ran := make(chan struct{}, 1)
	func() {
		o := new(owner)
		SetBackstop(o, g, func() { ran <- struct{}{} })
		ClearBackstop(o)
	}()

	for i := 0; i < 3; i++ {
		runtime.GC()
	}
	select {
	case <-ran:
		t.Fatal("Expected cleared backstop not to run")
	case <-time.After(20 * time.Millisecond):
	}
}
