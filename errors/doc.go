// Package errors provides the structured error type returned by the z3 binding.
//
// Errors are categorized by Kind (what went wrong) and carry the Resource the
// failing call was made on (context, solver, model, ...), the operation name,
// an optional native engine error code and the cause chain.
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.KindInvalidArgument).
//		Resource(errors.ResourceBitVec).
//		Op("Extract").
//		Detail("slice [%d, %d) exceeds width %d", start, end, width).
//		Build()
//
// Or the convenience constructors:
//
//	err := errors.Disposed(errors.ResourceSolver, "Check")
//	err := errors.Native("Assert", code, msg, cause)
//
// Matching works with the standard library:
//
//	if errors.Is(err, errors.ErrDisposed) { ... }
package errors
