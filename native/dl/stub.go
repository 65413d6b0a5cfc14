//go:build !cgo

// Package dl loads libz3 at run time. This build has cgo disabled, so Open
// always fails and callers must supply another native.Library.
package dl

import (
	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/native"
)

// Library is unavailable without cgo.
type Library struct {
	native.Library
}

// Open reports that dynamic loading needs cgo.
func Open(path string) (*Library, error) {
	return nil, errors.Unsupported(errors.ResourceLibrary, "loading "+path+" requires a cgo build")
}
