package z3

import (
	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/internal/disposable"
	"github.com/typedz3/z3/native"
)

// Status represents the result of a satisfiability check.
type Status int

const (
	// Unsatisfiable means the constraints are unsatisfiable.
	Unsatisfiable Status = -1
	// Unknown means Z3 could not determine satisfiability.
	Unknown Status = 0
	// Satisfiable means the constraints are satisfiable.
	Satisfiable Status = 1
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case Unsatisfiable:
		return "unsat"
	case Satisfiable:
		return "sat"
	default:
		return "unknown"
	}
}

func statusOf(b native.LBool) Status {
	switch b {
	case native.LTrue:
		return Satisfiable
	case native.LFalse:
		return Unsatisfiable
	default:
		return Unknown
	}
}

// Solver represents a Z3 solver.
//
// Every call that changes the solver's state (assertions, scopes, checks)
// invalidates the model of the previous check.
type Solver struct {
	t   *tracked
	ctx *Context
}

// NewSolver creates a new solver for the given context.
func (c *Context) NewSolver() (*Solver, error) {
	return c.newSolver("NewSolver", false)
}

// NewSimpleSolver creates a solver without the engine's preprocessing
// tactics.
func (c *Context) NewSimpleSolver() (*Solver, error) {
	return c.newSolver("NewSimpleSolver", true)
}

func (c *Context) newSolver(op string, simple bool) (*Solver, error) {
	if err := c.ensure(op); err != nil {
		return nil, err
	}
	st := c.st
	h, err := st.api.MkSolver(st.h, simple)
	if err != nil {
		return nil, wrapNative(errors.ResourceSolver, op, err)
	}
	t := st.track(h, errors.ResourceSolver, func() error { return st.api.SolverRelease(st.h, h) })
	s := &Solver{t: t, ctx: c}
	disposable.SetBackstop(s, &t.guard, func() { st.enqueue(t) })
	return s, nil
}

// Context returns the context that owns the solver.
func (s *Solver) Context() *Context { return s.ctx }

// Close releases the solver. It is safe to call more than once, and after
// the context was closed.
func (s *Solver) Close() error {
	disposable.ClearBackstop(s)
	return s.t.dispose()
}

// Closed reports whether the solver was closed, directly or by its context.
func (s *Solver) Closed() bool { return s.t.guard.Disposed() }

// String returns the string representation of the solver.
func (s *Solver) String() string {
	if s.t.ensure("String") != nil {
		return "<disposed>"
	}
	str, err := s.ctx.st.api.SolverString(s.ctx.st.h, s.t.h)
	if err != nil {
		return "<error: " + err.Error() + ">"
	}
	return str
}

func (s *Solver) mutate(op string) error {
	if err := s.t.ensure(op); err != nil {
		return err
	}
	return s.t.invalidate()
}

func (s *Solver) fail(op string, err error) error {
	return wrapNative(errors.ResourceSolver, op, err)
}

// Assert adds constraints to the solver.
func (s *Solver) Assert(constraints ...BoolExpr) error {
	if err := s.t.ensure("Assert"); err != nil {
		return err
	}
	for _, f := range constraints {
		if f.ctx != s.ctx {
			return errors.InvalidArgument(errors.ResourceSolver, "Assert", "constraint belongs to a different context")
		}
	}
	if err := s.t.invalidate(); err != nil {
		return err
	}
	for _, f := range constraints {
		if err := s.ctx.st.api.SolverAssert(s.ctx.st.h, s.t.h, f.h); err != nil {
			return s.fail("Assert", err)
		}
	}
	return nil
}

// Check checks the satisfiability of the constraints.
func (s *Solver) Check() (Status, error) {
	return s.CheckAssumptions()
}

// CheckAssumptions checks satisfiability under assumptions. After an
// Unsatisfiable result, UnsatCore returns the assumptions responsible.
func (s *Solver) CheckAssumptions(assumptions ...BoolExpr) (Status, error) {
	if err := s.t.ensure("Check"); err != nil {
		return Unknown, err
	}
	hs, err := handlesOf(s.ctx, "Check", assumptions)
	if err != nil {
		return Unknown, err
	}
	if err := s.t.invalidate(); err != nil {
		return Unknown, err
	}
	r, err := s.ctx.st.api.SolverCheck(s.ctx.st.h, s.t.h, hs)
	if err != nil {
		return Unknown, s.fail("Check", err)
	}
	s.t.status = statusOf(r)
	s.t.checked = true
	return s.t.status, nil
}

func handlesOf(c *Context, op string, xs []BoolExpr) ([]native.Handle, error) {
	if len(xs) == 0 {
		return nil, nil
	}
	hs := make([]native.Handle, len(xs))
	for i, x := range xs {
		if x.ctx != c {
			return nil, errors.InvalidArgument(errors.ResourceExpr, op, "assumption belongs to a different context")
		}
		hs[i] = x.h
	}
	return hs, nil
}

// requireStatus fails unless the last check returned want.
func (t *tracked) requireStatus(op string, want Status) error {
	if !t.checked {
		return errors.InvalidState(t.res, op, "no check has been run since the last change")
	}
	if t.status != want {
		return errors.InvalidState(t.res, op, "last check returned "+t.status.String()+", need "+want.String())
	}
	return nil
}

// Model returns the model of the last check, which must have returned
// Satisfiable. The model stays valid until the solver changes.
func (s *Solver) Model() (*Model, error) {
	if err := s.t.ensure("Model"); err != nil {
		return nil, err
	}
	if err := s.t.requireStatus("Model", Satisfiable); err != nil {
		return nil, err
	}
	return s.t.modelFor(s.ctx, s, func() (native.Handle, error) {
		return s.ctx.st.api.SolverModel(s.ctx.st.h, s.t.h)
	})
}

// UnsatCore returns the subset of the assumptions that made the last check
// Unsatisfiable.
func (s *Solver) UnsatCore() ([]BoolExpr, error) {
	if err := s.t.ensure("UnsatCore"); err != nil {
		return nil, err
	}
	if err := s.t.requireStatus("UnsatCore", Unsatisfiable); err != nil {
		return nil, err
	}
	hs, err := s.ctx.st.api.SolverUnsatCore(s.ctx.st.h, s.t.h)
	if err != nil {
		return nil, s.fail("UnsatCore", err)
	}
	return s.wrapAll("UnsatCore", hs)
}

// Proof returns the refutation proof of the last check, which must have
// returned Unsatisfiable. The context needs the "proof" parameter.
func (s *Solver) Proof() (Expr, error) {
	if err := s.t.ensure("Proof"); err != nil {
		return Expr{}, err
	}
	if err := s.t.requireStatus("Proof", Unsatisfiable); err != nil {
		return Expr{}, err
	}
	h, err := s.ctx.st.api.SolverProof(s.ctx.st.h, s.t.h)
	if err != nil {
		return Expr{}, s.fail("Proof", err)
	}
	return tryExpr(func() Expr { return s.ctx.expr("Proof", h, nil) })
}

// Assertions returns the assertions in the solver.
func (s *Solver) Assertions() ([]BoolExpr, error) {
	if err := s.t.ensure("Assertions"); err != nil {
		return nil, err
	}
	hs, err := s.ctx.st.api.SolverAssertions(s.ctx.st.h, s.t.h)
	if err != nil {
		return nil, s.fail("Assertions", err)
	}
	return s.wrapAll("Assertions", hs)
}

func (s *Solver) wrapAll(op string, hs []native.Handle) ([]BoolExpr, error) {
	out := make([]BoolExpr, len(hs))
	for i, h := range hs {
		if err := s.ctx.st.pin(h); err != nil {
			return nil, s.fail(op, err)
		}
		out[i] = BoolExpr{Expr{ctx: s.ctx, h: h}}
	}
	return out, nil
}

// Push creates a backtracking point.
func (s *Solver) Push() error {
	if err := s.mutate("Push"); err != nil {
		return err
	}
	return s.fail("Push", s.ctx.st.api.SolverPush(s.ctx.st.h, s.t.h))
}

// Pop removes n backtracking points.
func (s *Solver) Pop(n uint) error {
	if err := s.mutate("Pop"); err != nil {
		return err
	}
	scopes, err := s.ctx.st.api.SolverNumScopes(s.ctx.st.h, s.t.h)
	if err != nil {
		return s.fail("Pop", err)
	}
	if uint64(n) > uint64(scopes) {
		return errors.InvalidArgument(errors.ResourceSolver, "Pop", "cannot pop %d of %d scopes", n, scopes)
	}
	return s.fail("Pop", s.ctx.st.api.SolverPop(s.ctx.st.h, s.t.h, uint32(n)))
}

// Reset removes all assertions from the solver.
func (s *Solver) Reset() error {
	if err := s.mutate("Reset"); err != nil {
		return err
	}
	return s.fail("Reset", s.ctx.st.api.SolverReset(s.ctx.st.h, s.t.h))
}

// NumScopes returns the number of backtracking points.
func (s *Solver) NumScopes() (uint, error) {
	if err := s.t.ensure("NumScopes"); err != nil {
		return 0, err
	}
	n, err := s.ctx.st.api.SolverNumScopes(s.ctx.st.h, s.t.h)
	return uint(n), s.fail("NumScopes", err)
}

// ReasonUnknown returns the reason why the result is unknown.
func (s *Solver) ReasonUnknown() (string, error) {
	if err := s.t.ensure("ReasonUnknown"); err != nil {
		return "", err
	}
	r, err := s.ctx.st.api.SolverReasonUnknown(s.ctx.st.h, s.t.h)
	return r, s.fail("ReasonUnknown", err)
}

// SetParams sets solver parameters such as the timeout.
func (s *Solver) SetParams(p *Params) error {
	if err := s.t.ensure("SetParams"); err != nil {
		return err
	}
	if err := p.Err(); err != nil {
		return err
	}
	return s.fail("SetParams", s.ctx.st.api.SolverSetParams(s.ctx.st.h, s.t.h, p.list()))
}

// FromString parses and asserts SMT-LIB2 formulas from a string.
// Declarations are local to the call.
func (s *Solver) FromString(smt2 string) error {
	if err := s.mutate("FromString"); err != nil {
		return err
	}
	return s.fail("FromString", s.ctx.st.api.SolverFromString(s.ctx.st.h, s.t.h, smt2))
}
