package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind categorizes the error
type Kind string

const (
	KindDisposed        Kind = "disposed"         // resource already closed or invalidated
	KindInvalidState    Kind = "invalid_state"    // operation not valid in the current state
	KindInvalidArgument Kind = "invalid_argument" // caller supplied a malformed argument
	KindNative          Kind = "native"           // the engine reported a failure
	KindNotFound        Kind = "not_found"        // a file or library could not be located
	KindUnsupported     Kind = "unsupported"      // not available in this build or version
)

// Resource names the kind of object an operation was made on
type Resource string

const (
	ResourceLibrary  Resource = "library"
	ResourceContext  Resource = "context"
	ResourceSolver   Resource = "solver"
	ResourceOptimize Resource = "optimize"
	ResourceModel    Resource = "model"
	ResourceScope    Resource = "scope"
	ResourceExpr     Resource = "expr"
	ResourceBitVec   Resource = "bitvec"
	ResourceParams   Resource = "params"
)

// Error is the structured error type used throughout the binding
type Error struct {
	Cause    error
	Kind     Kind
	Resource Resource
	Op       string
	Detail   string
	Code     int // native error code, zero when not from the engine
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Resource != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Resource))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Code != 0 {
		fmt.Fprintf(&b, " (code %d)", e.Code)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Kinds must be equal; the
// resource is compared only when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Resource == "" || t.Resource == e.Resource
}

// Sentinels for errors.Is matching by kind.
var (
	ErrDisposed        = &Error{Kind: KindDisposed}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrNative          = &Error{Kind: KindNative}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrUnsupported     = &Error{Kind: KindUnsupported}
)

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(kind Kind) *Builder {
	return &Builder{err: Error{Kind: kind}}
}

// Resource sets the resource the operation was made on
func (b *Builder) Resource(r Resource) *Builder {
	b.err.Resource = r
	return b
}

// Op sets the operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Code sets the native error code
func (b *Builder) Code(code int) *Builder {
	b.err.Code = code
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Disposed creates an error for an operation on a closed resource
func Disposed(r Resource, op string) *Error {
	return &Error{
		Kind:     KindDisposed,
		Resource: r,
		Op:       op,
		Detail:   string(r) + " has been closed",
	}
}

// InvalidState creates an invalid state error
func InvalidState(r Resource, op, detail string) *Error {
	return &Error{
		Kind:     KindInvalidState,
		Resource: r,
		Op:       op,
		Detail:   detail,
	}
}

// InvalidArgument creates an argument error
func InvalidArgument(r Resource, op string, format string, args ...any) *Error {
	return &Error{
		Kind:     KindInvalidArgument,
		Resource: r,
		Op:       op,
		Detail:   fmt.Sprintf(format, args...),
	}
}

// Native creates an error carrying the engine's code and message
func Native(op string, code int, msg string, cause error) *Error {
	return &Error{
		Kind:   KindNative,
		Op:     op,
		Code:   code,
		Detail: msg,
		Cause:  cause,
	}
}

// NotFound creates a not-found error for a path
func NotFound(r Resource, path string, cause error) *Error {
	return &Error{
		Kind:     KindNotFound,
		Resource: r,
		Detail:   fmt.Sprintf("%q not found", path),
		Cause:    cause,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(r Resource, what string) *Error {
	return &Error{
		Kind:     KindUnsupported,
		Resource: r,
		Detail:   what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(kind Kind, r Resource, op string, cause error) *Error {
	return &Error{
		Kind:     kind,
		Resource: r,
		Op:       op,
		Cause:    cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
