// Package ambient keeps a per-goroutine stack of values.
//
// Go has no thread-local storage; stacks are keyed by goroutine id and an
// entry is dropped as soon as its stack empties, so finished goroutines do not
// leave anything behind as long as they unwind what they pushed.
package ambient

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"

	"github.com/typedz3/z3/errors"
)

// Mark records where a push happened so the matching restore can truncate
// back to it. The sequence number tells a live push apart from a later one
// that reused the same depth.
type Mark struct {
	gid   int64
	depth int
	seq   uint64
}

type slot[T any] struct {
	v   T
	seq uint64
}

// Stack is a set of independent LIFO stacks, one per goroutine.
// Each goroutine only ever touches its own slice, so the slices need no lock.
type Stack[T any] struct {
	stacks sync.Map // int64 -> *[]slot[T]
	seq    atomic.Uint64
}

func (s *Stack[T]) current(create bool) *[]slot[T] {
	gid := goid.Get()
	if v, ok := s.stacks.Load(gid); ok {
		return v.(*[]slot[T])
	}
	if !create {
		return nil
	}
	st := new([]slot[T])
	s.stacks.Store(gid, st)
	return st
}

// Push puts v on top of the calling goroutine's stack.
func (s *Stack[T]) Push(v T) Mark {
	st := s.current(true)
	m := Mark{gid: goid.Get(), depth: len(*st), seq: s.seq.Add(1)}
	*st = append(*st, slot[T]{v: v, seq: m.seq})
	return m
}

// Restore truncates the calling goroutine's stack to the depth recorded in m.
// Restoring a mark whose push is already gone is a no-op, even when newer
// pushes have since reached the same depth. A mark can only be restored on
// the goroutine that created it.
func (s *Stack[T]) Restore(m Mark) error {
	if gid := goid.Get(); gid != m.gid {
		return errors.InvalidState(errors.ResourceScope, "Close",
			"scope closed on a different goroutine than the one that opened it")
	}
	st := s.current(false)
	if st == nil || len(*st) <= m.depth || (*st)[m.depth].seq != m.seq {
		return nil
	}
	for i := m.depth; i < len(*st); i++ {
		(*st)[i] = slot[T]{}
	}
	*st = (*st)[:m.depth]
	if m.depth == 0 {
		s.stacks.Delete(m.gid)
	}
	return nil
}

// Top returns the value on top of the calling goroutine's stack.
func (s *Stack[T]) Top() (T, bool) {
	var zero T
	st := s.current(false)
	if st == nil || len(*st) == 0 {
		return zero, false
	}
	return (*st)[len(*st)-1].v, true
}

// Depth returns the size of the calling goroutine's stack.
func (s *Stack[T]) Depth() int {
	st := s.current(false)
	if st == nil {
		return 0
	}
	return len(*st)
}
