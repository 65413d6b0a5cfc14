// Package native defines the boundary between the z3 binding and the solving
// engine.
//
// The binding never calls the engine directly. It talks to a Library, which
// is implemented by package dl (the real libz3, loaded with dlopen) and by
// package nativetest (an in-memory double used by tests).
//
// Ownership contract: every Handle a Library returns for a solver, optimizer
// or model carries one reference that the caller must give back through the
// matching Release call. AST handles (sorts and terms) are returned
// unreferenced; the caller pins them with IncRef, and they are all reclaimed
// when their context is deleted.
package native

import "fmt"

// Handle is an opaque engine pointer. Zero is never a valid handle.
type Handle uintptr

// IsZero reports whether h is the null handle.
func (h Handle) IsZero() bool { return h == 0 }

// LBool is the engine's three-valued boolean.
type LBool int

const (
	LFalse LBool = -1
	LUndef LBool = 0
	LTrue  LBool = 1
)

// SortKind mirrors Z3_sort_kind for the sorts the binding understands.
type SortKind int

const (
	UninterpretedSort SortKind = 0
	BoolSort          SortKind = 1
	IntSort           SortKind = 2
	RealSort          SortKind = 3
	BvSort            SortKind = 4
	ArraySort         SortKind = 5
	UnknownSort       SortKind = 1000
)

func (k SortKind) String() string {
	switch k {
	case UninterpretedSort:
		return "uninterpreted"
	case BoolSort:
		return "Bool"
	case IntSort:
		return "Int"
	case RealSort:
		return "Real"
	case BvSort:
		return "BitVec"
	case ArraySort:
		return "Array"
	default:
		return fmt.Sprintf("sort(%d)", int(k))
	}
}

// Version identifies an engine build.
type Version struct {
	Major, Minor, Build, Revision uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}

// Param is a solver or optimizer parameter. Value is a bool, uint32, float64
// or string (a symbol).
type Param struct {
	Name  string
	Value any
}

// Library is a loaded engine.
type Library interface {
	// Path is where the engine was loaded from.
	Path() string
	Version() Version
	// Close unloads the engine. No handle from it may be used afterwards.
	Close() error

	ContextAPI
	TermAPI
	SolverAPI
	OptimizeAPI
	ModelAPI
	LogAPI
}

// ContextAPI creates and configures contexts.
type ContextAPI interface {
	// MkContext creates a reference-counted context. config is applied to the
	// configuration object before the context is created.
	MkContext(config map[string]string) (Handle, error)
	DelContext(ctx Handle) error
	UpdateParam(ctx Handle, name, value string) error
	IncRef(ctx, ast Handle) error
	DecRef(ctx, ast Handle) error
}

// TermAPI builds and inspects sorts and terms.
type TermAPI interface {
	BoolSort(ctx Handle) (Handle, error)
	IntSort(ctx Handle) (Handle, error)
	RealSort(ctx Handle) (Handle, error)
	BvSort(ctx Handle, width uint32) (Handle, error)
	ArraySort(ctx, domain, rng Handle) (Handle, error)

	MkConst(ctx Handle, name string, sort Handle) (Handle, error)
	// MkNumeral parses a decimal (or "p/q" for reals) numeral of the given sort.
	MkNumeral(ctx Handle, numeral string, sort Handle) (Handle, error)
	MkApp(ctx Handle, op Op, args ...Handle) (Handle, error)
	MkIndexed(ctx Handle, op Op, indices []uint32, arg Handle) (Handle, error)
	MkConstArray(ctx, domain, value Handle) (Handle, error)
	Simplify(ctx, ast Handle) (Handle, error)

	SortOf(ctx, ast Handle) (Handle, error)
	SortKind(ctx, sort Handle) (SortKind, error)
	BvSortSize(ctx, sort Handle) (uint32, error)
	SortString(ctx, sort Handle) (string, error)
	AstString(ctx, ast Handle) (string, error)
	NumeralString(ctx, ast Handle) (string, error)
	BoolValue(ctx, ast Handle) (LBool, error)
}

// SolverAPI drives solvers.
type SolverAPI interface {
	MkSolver(ctx Handle, simple bool) (Handle, error)
	SolverRelease(ctx, s Handle) error
	SolverAssert(ctx, s, f Handle) error
	SolverFromString(ctx, s Handle, smt2 string) error
	SolverCheck(ctx, s Handle, assumptions []Handle) (LBool, error)
	SolverModel(ctx, s Handle) (Handle, error)
	SolverUnsatCore(ctx, s Handle) ([]Handle, error)
	SolverProof(ctx, s Handle) (Handle, error)
	SolverAssertions(ctx, s Handle) ([]Handle, error)
	SolverPush(ctx, s Handle) error
	SolverPop(ctx, s Handle, n uint32) error
	SolverReset(ctx, s Handle) error
	SolverNumScopes(ctx, s Handle) (uint32, error)
	SolverReasonUnknown(ctx, s Handle) (string, error)
	SolverSetParams(ctx, s Handle, params []Param) error
	SolverString(ctx, s Handle) (string, error)
}

// OptimizeAPI drives optimization contexts.
type OptimizeAPI interface {
	MkOptimize(ctx Handle) (Handle, error)
	OptimizeRelease(ctx, o Handle) error
	OptimizeAssert(ctx, o, f Handle) error
	// OptimizeAssertSoft returns the index of the soft constraint group.
	OptimizeAssertSoft(ctx, o, f Handle, weight, group string) (uint32, error)
	OptimizeMaximize(ctx, o, t Handle) (uint32, error)
	OptimizeMinimize(ctx, o, t Handle) (uint32, error)
	OptimizeCheck(ctx, o Handle, assumptions []Handle) (LBool, error)
	OptimizeModel(ctx, o Handle) (Handle, error)
	OptimizePush(ctx, o Handle) error
	OptimizePop(ctx, o Handle) error
	OptimizeLower(ctx, o Handle, idx uint32) (Handle, error)
	OptimizeUpper(ctx, o Handle, idx uint32) (Handle, error)
	OptimizeReasonUnknown(ctx, o Handle) (string, error)
	OptimizeSetParams(ctx, o Handle, params []Param) error
	OptimizeString(ctx, o Handle) (string, error)
}

// ModelAPI reads models.
type ModelAPI interface {
	ModelRelease(ctx, m Handle) error
	// ModelEval returns ok=false when the engine could not evaluate t.
	ModelEval(ctx, m, t Handle, completion bool) (result Handle, ok bool, err error)
	ModelString(ctx, m Handle) (string, error)
}

// LogAPI controls the engine's process-wide interaction log.
type LogAPI interface {
	OpenLog(path string) error
	AppendLog(s string) error
	CloseLog() error
}
