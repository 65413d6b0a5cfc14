package ambient

import (
	"sync"
	"testing"

	"github.com/typedz3/z3/errors"
)

func TestStack_PushRestore(t *testing.T) {
	var s Stack[string]

	if _, ok := s.Top(); ok {
		t.Fatal("Expected empty stack")
	}

	a := s.Push("a")
	b := s.Push("b")
	if top, _ := s.Top(); top != "b" {
		t.Fatalf("Expected top b, got %q", top)
	}

	if err := s.Restore(b); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if top, _ := s.Top(); top != "a" {
		t.Fatalf("Expected top a, got %q", top)
	}

	if err := s.Restore(a); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if s.Depth() != 0 {
		t.Fatalf("Expected depth 0, got %d", s.Depth())
	}
}

func TestStack_RestoreIdempotent(t *testing.T) {
	var s Stack[int]
	m := s.Push(1)
	_ = s.Restore(m)
	if err := s.Restore(m); err != nil {
		t.Fatalf("Expected second restore to be a no-op, got %v", err)
	}
}

func TestStack_OuterRestoreDropsInner(t *testing.T) {
	var s Stack[int]
	outer := s.Push(1)
	inner := s.Push(2)

	_ = s.Restore(outer)
	if s.Depth() != 0 {
		t.Fatalf("Expected depth 0, got %d", s.Depth())
	}
	if err := s.Restore(inner); err != nil {
		t.Fatalf("Expected stale inner restore to be a no-op, got %v", err)
	}
	if s.Depth() != 0 {
		t.Fatalf("Expected depth 0, got %d", s.Depth())
	}
}

func TestStack_StaleRestoreKeepsNewerPushes(t *testing.T) {
	var s Stack[string]
	a := s.Push("a")
	b := s.Push("b")
	_ = s.Restore(a)

	s.Push("c")
	s.Push("d")
	if err := s.Restore(b); err != nil {
		t.Fatalf("Expected stale restore to be a no-op, got %v", err)
	}
	if s.Depth() != 2 {
		t.Fatalf("Expected depth 2, got %d", s.Depth())
	}
	if top, _ := s.Top(); top != "d" {
		t.Fatalf("Expected top d, got %q", top)
	}
}

func TestStack_ForeignGoroutine(t *testing.T) {
	var s Stack[int]
	m := s.Push(1)
	defer s.Restore(m)

	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		err = s.Restore(m)
	}()
	<-done

	if !errors.Is(err, errors.ErrInvalidState) {
		t.Fatalf("Expected invalid state error, got %v", err)
	}
	if s.Depth() != 1 {
		t.Fatalf("Expected own stack untouched, got depth %d", s.Depth())
	}
}

func TestStack_GoroutineIsolation(t *testing.T) {
	var s Stack[int]
	var wg sync.WaitGroup
	failures := make(chan string, 64)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m := s.Push(id)
				if top, _ := s.Top(); top != id {
					failures <- "saw another goroutine's value"
				}
				if s.Depth() != 1 {
					failures <- "saw another goroutine's depth"
				}
				_ = s.Restore(m)
			}
		}(i)
	}
	wg.Wait()
	close(failures)

	for f := range failures {
		t.Fatal(f)
	}
}
