// Package bv provides bit-vector widths as types and fixed-width bit-vector
// values.
//
// A width is a zero-sized tag type implementing Size. Values and expressions
// are parameterized by their tag, so combining an 8-bit and a 16-bit operand
// is a compile error rather than a runtime check:
//
//	a := bv.New[bv.Size8](200)
//	b := bv.New[bv.Size8](100)
//	sum := a.Add(b)                      // 44, wraps at 2^8
//	wide := bv.Resize[bv.Size16](a, false) // 200
//
// Operations that change the width are package-level functions whose first
// type parameter is the target width; the source width is inferred.
package bv

// Size is implemented by width tags. Bits must be positive and must not depend
// on the receiver's value.
type Size interface {
	Bits() uint32
}

type (
	Size1   struct{}
	Size4   struct{}
	Size8   struct{}
	Size12  struct{}
	Size16  struct{}
	Size24  struct{}
	Size32  struct{}
	Size64  struct{}
	Size128 struct{}
	Size256 struct{}
)

func (Size1) Bits() uint32   { return 1 }
func (Size4) Bits() uint32   { return 4 }
func (Size8) Bits() uint32   { return 8 }
func (Size12) Bits() uint32  { return 12 }
func (Size16) Bits() uint32  { return 16 }
func (Size24) Bits() uint32  { return 24 }
func (Size32) Bits() uint32  { return 32 }
func (Size64) Bits() uint32  { return 64 }
func (Size128) Bits() uint32 { return 128 }
func (Size256) Bits() uint32 { return 256 }

// Width returns the number of bits of S.
func Width[S Size]() uint32 {
	var s S
	return s.Bits()
}
