package z3

import "github.com/typedz3/z3/bv"

// Literals on the current context. Each panics when the calling goroutine
// has no current context; see Context.SetUp.

// True returns true on the current context.
func True() BoolExpr { return MustCurrent().MkTrue() }

// False returns false on the current context.
func False() BoolExpr { return MustCurrent().MkFalse() }

// Bool returns a Boolean literal on the current context.
func Bool(v bool) BoolExpr { return MustCurrent().MkBool(v) }

// Int returns an integer literal on the current context.
func Int(v int64) IntExpr { return MustCurrent().MkInt(v) }

// Real returns the rational num/den on the current context.
func Real(num, den int64) RealExpr { return MustCurrent().MkReal(num, den) }

// BV returns a bit-vector literal of width S on the current context.
func BV[S bv.Size](v int64) BvExpr[S] { return BvVal[S](MustCurrent(), v) }

// BVValue lifts a concrete bit-vector value onto the current context.
func BVValue[S bv.Size](v bv.Value[S]) BvExpr[S] { return BvFromValue(MustCurrent(), v) }
