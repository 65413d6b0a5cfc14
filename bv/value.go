package bv

import (
	"fmt"
	"math/big"
	"math/bits"
	"strings"

	"github.com/typedz3/z3/errors"
)

// Value is an immutable unsigned bit-vector of width S. The zero value is 0.
type Value[S Size] struct {
	v *big.Int // always in [0, 2^width)
}

func mask(width uint32) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return m.Sub(m, big.NewInt(1))
}

// wrap reduces x modulo 2^width. Negative inputs map to two's complement.
func wrap(x *big.Int, width uint32) *big.Int {
	return new(big.Int).And(x, mask(width))
}

func fromRaw[S Size](x *big.Int) Value[S] {
	return Value[S]{v: wrap(x, Width[S]())}
}

// New returns v reduced to width S. Negative numbers use two's complement.
func New[S Size](v int64) Value[S] {
	return fromRaw[S](big.NewInt(v))
}

// FromUint64 returns v reduced to width S.
func FromUint64[S Size](v uint64) Value[S] {
	return fromRaw[S](new(big.Int).SetUint64(v))
}

// FromBig returns x reduced to width S. x is not retained.
func FromBig[S Size](x *big.Int) Value[S] {
	if x == nil {
		return Value[S]{}
	}
	return fromRaw[S](x)
}

// Parse reads s in the given base (0 lets the prefix decide, as in
// big.Int.SetString) and reduces it to width S.
func Parse[S Size](s string, base int) (Value[S], error) {
	x, ok := new(big.Int).SetString(strings.ReplaceAll(s, "_", ""), base)
	if !ok {
		return Value[S]{}, errors.InvalidArgument(errors.ResourceBitVec, "Parse", "cannot parse %q as a %d-bit value", s, Width[S]())
	}
	return fromRaw[S](x), nil
}

func (a Value[S]) raw() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// Size returns the width in bits.
func (a Value[S]) Size() uint32 { return Width[S]() }

// BigInt returns the value as an integer, interpreting the top bit as a sign
// bit when signed is true. The result is a fresh copy.
func (a Value[S]) BigInt(signed bool) *big.Int {
	r := new(big.Int).Set(a.raw())
	if signed && a.signBit() {
		r.Sub(r, new(big.Int).Lsh(big.NewInt(1), uint(Width[S]())))
	}
	return r
}

// Uint64 returns the low 64 bits.
func (a Value[S]) Uint64() uint64 {
	return new(big.Int).And(a.raw(), mask(64)).Uint64()
}

// Int64 returns the signed value truncated to 64 bits.
func (a Value[S]) Int64() int64 {
	s := a.BigInt(true)
	if s.IsInt64() {
		return s.Int64()
	}
	return int64(wrap(s, 64).Uint64())
}

// IsZero reports whether every bit is clear.
func (a Value[S]) IsZero() bool { return a.raw().Sign() == 0 }

// Bit returns bit i (0 is the least significant).
func (a Value[S]) Bit(i uint32) uint {
	return a.raw().Bit(int(i))
}

func (a Value[S]) signBit() bool {
	return a.raw().Bit(int(Width[S]()-1)) == 1
}

// Equal reports whether a and b hold the same bits.
func (a Value[S]) Equal(b Value[S]) bool {
	return a.raw().Cmp(b.raw()) == 0
}

// Arithmetic, all modulo 2^width.

func (a Value[S]) Add(b Value[S]) Value[S] {
	return fromRaw[S](new(big.Int).Add(a.raw(), b.raw()))
}

func (a Value[S]) Sub(b Value[S]) Value[S] {
	return fromRaw[S](new(big.Int).Sub(a.raw(), b.raw()))
}

func (a Value[S]) Mul(b Value[S]) Value[S] {
	return fromRaw[S](new(big.Int).Mul(a.raw(), b.raw()))
}

// Neg returns the two's complement negation.
func (a Value[S]) Neg() Value[S] {
	return fromRaw[S](new(big.Int).Neg(a.raw()))
}

func divisionByZero(op string) error {
	return errors.InvalidArgument(errors.ResourceBitVec, op, "division by zero")
}

// Div divides a by b, truncating toward zero. Signed division treats both
// operands as two's complement.
func (a Value[S]) Div(b Value[S], signed bool) (Value[S], error) {
	if b.IsZero() {
		return Value[S]{}, divisionByZero("Div")
	}
	if !signed {
		return fromRaw[S](new(big.Int).Quo(a.raw(), b.raw())), nil
	}
	return fromRaw[S](new(big.Int).Quo(a.BigInt(true), b.BigInt(true))), nil
}

// Rem returns the remainder of Div. A signed remainder takes the sign of the
// dividend.
func (a Value[S]) Rem(b Value[S], signed bool) (Value[S], error) {
	if b.IsZero() {
		return Value[S]{}, divisionByZero("Rem")
	}
	if !signed {
		return fromRaw[S](new(big.Int).Rem(a.raw(), b.raw())), nil
	}
	return fromRaw[S](new(big.Int).Rem(a.BigInt(true), b.BigInt(true))), nil
}

// SignedMod is the signed modulo whose non-zero result takes the sign of the
// divisor, matching bvsmod.
func (a Value[S]) SignedMod(b Value[S]) (Value[S], error) {
	if b.IsZero() {
		return Value[S]{}, divisionByZero("SignedMod")
	}
	l, r := a.BigInt(true), b.BigInt(true)
	res := new(big.Int).Rem(l, r)
	if res.Sign() != 0 && (res.Sign() < 0) != (r.Sign() < 0) {
		res.Add(res, r)
	}
	return fromRaw[S](res), nil
}

// Bitwise operations.

func (a Value[S]) And(b Value[S]) Value[S] {
	return Value[S]{v: new(big.Int).And(a.raw(), b.raw())}
}

func (a Value[S]) Or(b Value[S]) Value[S] {
	return Value[S]{v: new(big.Int).Or(a.raw(), b.raw())}
}

func (a Value[S]) Xor(b Value[S]) Value[S] {
	return Value[S]{v: new(big.Int).Xor(a.raw(), b.raw())}
}

func (a Value[S]) Not() Value[S] {
	return Value[S]{v: new(big.Int).Xor(a.raw(), mask(Width[S]()))}
}

// shiftAmount reports b as a shift count, or ok=false when it is at least the
// width and everything is shifted out.
func shiftAmount[S Size](b Value[S]) (uint, bool) {
	n := b.raw()
	if !n.IsUint64() || n.Uint64() >= uint64(Width[S]()) {
		return 0, false
	}
	return uint(n.Uint64()), true
}

// Shl shifts left by b; shifting by the width or more yields zero.
func (a Value[S]) Shl(b Value[S]) Value[S] {
	n, ok := shiftAmount(b)
	if !ok {
		return Value[S]{}
	}
	return fromRaw[S](new(big.Int).Lsh(a.raw(), n))
}

// Shr shifts right by b. A signed shift replicates the sign bit.
func (a Value[S]) Shr(b Value[S], signed bool) Value[S] {
	n, ok := shiftAmount(b)
	if !ok {
		if signed && a.signBit() {
			return Value[S]{v: mask(Width[S]())}
		}
		return Value[S]{}
	}
	if signed {
		return fromRaw[S](new(big.Int).Rsh(a.BigInt(true), n))
	}
	return Value[S]{v: new(big.Int).Rsh(a.raw(), n)}
}

// Comparisons.

func (a Value[S]) cmp(b Value[S], signed bool) int {
	if signed {
		return a.BigInt(true).Cmp(b.BigInt(true))
	}
	return a.raw().Cmp(b.raw())
}

func (a Value[S]) Lt(b Value[S], signed bool) bool { return a.cmp(b, signed) < 0 }
func (a Value[S]) Le(b Value[S], signed bool) bool { return a.cmp(b, signed) <= 0 }
func (a Value[S]) Gt(b Value[S], signed bool) bool { return a.cmp(b, signed) > 0 }
func (a Value[S]) Ge(b Value[S], signed bool) bool { return a.cmp(b, signed) >= 0 }

// Bit counting.

// PopCount returns the number of set bits.
func (a Value[S]) PopCount() uint32 {
	n := 0
	for _, w := range a.raw().Bits() {
		n += bits.OnesCount(uint(w))
	}
	return uint32(n)
}

// LeadingZeros counts clear bits above the highest set bit.
func (a Value[S]) LeadingZeros() uint32 {
	return Width[S]() - uint32(a.raw().BitLen())
}

// TrailingZeros counts clear bits below the lowest set bit. Zero yields the width.
func (a Value[S]) TrailingZeros() uint32 {
	if a.IsZero() {
		return Width[S]()
	}
	return uint32(a.raw().TrailingZeroBits())
}

// Rotations.

func rotation(op string, n int, width uint32) (uint, error) {
	if n < 0 {
		return 0, errors.InvalidArgument(errors.ResourceBitVec, op, "rotation must be non-negative, got %d", n)
	}
	return uint(n) % uint(width), nil
}

// RotateLeft rotates by n bits. n is taken modulo the width; negative n is an error.
func (a Value[S]) RotateLeft(n int) (Value[S], error) {
	w := Width[S]()
	k, err := rotation("RotateLeft", n, w)
	if err != nil || k == 0 {
		return a, err
	}
	hi := new(big.Int).Lsh(a.raw(), k)
	lo := new(big.Int).Rsh(a.raw(), uint(w)-k)
	return fromRaw[S](hi.Or(hi, lo)), nil
}

// RotateRight rotates by n bits. n is taken modulo the width; negative n is an error.
func (a Value[S]) RotateRight(n int) (Value[S], error) {
	w := Width[S]()
	k, err := rotation("RotateRight", n, w)
	if err != nil || k == 0 {
		return a, err
	}
	lo := new(big.Int).Rsh(a.raw(), k)
	hi := new(big.Int).Lsh(a.raw(), uint(w)-k)
	return fromRaw[S](hi.Or(hi, lo)), nil
}

// Width-changing operations.

// Resize converts a to width T. Shrinking keeps the low bits; growing zero- or
// sign-extends depending on signed. Resizing to the same width returns a.
func Resize[T, S Size](a Value[S], signed bool) Value[T] {
	if Width[T]() <= Width[S]() {
		return fromRaw[T](a.raw())
	}
	return fromRaw[T](a.BigInt(signed))
}

// Extract returns the width(T) bits of a starting at bit start.
func Extract[T, S Size](a Value[S], start uint32) (Value[T], error) {
	tw, sw := Width[T](), Width[S]()
	if uint64(start)+uint64(tw) > uint64(sw) {
		return Value[T]{}, errors.InvalidArgument(errors.ResourceBitVec, "Extract",
			"cannot extract %d bits starting at bit %d from a %d-bit vector", tw, start, sw)
	}
	return fromRaw[T](new(big.Int).Rsh(a.raw(), uint(start))), nil
}

// Concat places hi above lo. The width of R must be the sum of both widths.
func Concat[R, H, L Size](hi Value[H], lo Value[L]) (Value[R], error) {
	rw, hw, lw := Width[R](), Width[H](), Width[L]()
	if rw != hw+lw {
		return Value[R]{}, errors.InvalidArgument(errors.ResourceBitVec, "Concat",
			"result width %d must equal %d + %d", rw, hw, lw)
	}
	r := new(big.Int).Lsh(hi.raw(), uint(lw))
	return fromRaw[R](r.Or(r, lo.raw())), nil
}

// Repeat concatenates copies of a to fill width R, which must be a multiple of
// the width of S.
func Repeat[R, S Size](a Value[S]) (Value[R], error) {
	rw, sw := Width[R](), Width[S]()
	if rw%sw != 0 {
		return Value[R]{}, errors.InvalidArgument(errors.ResourceBitVec, "Repeat",
			"target width %d is not a multiple of source width %d", rw, sw)
	}
	r := new(big.Int)
	for i := uint32(0); i < rw/sw; i++ {
		r.Or(r, new(big.Int).Lsh(a.raw(), uint(i*sw)))
	}
	return fromRaw[R](r), nil
}

// Formatting.

// String returns the unsigned decimal value.
func (a Value[S]) String() string {
	return a.raw().String()
}

// BinaryString returns all width bits, most significant first.
func (a Value[S]) BinaryString() string {
	s := a.raw().Text(2)
	return strings.Repeat("0", int(Width[S]())-len(s)) + s
}

// HexString returns the value in upper-case hex, padded to ceil(width/4) digits.
func (a Value[S]) HexString() string {
	s := strings.ToUpper(a.raw().Text(16))
	digits := int(Width[S]()+3) / 4
	if len(s) < digits {
		s = strings.Repeat("0", digits-len(s)) + s
	}
	return s
}

// Format implements fmt.Formatter.
//
//	%v %s  unsigned decimal value
//	%d     value with width, e.g. "42 (8-bit)"
//	%b     "0b00101010 (8-bit)"
//	%x %X  "0x2A (8-bit)"
func (a Value[S]) Format(f fmt.State, verb rune) {
	w := Width[S]()
	switch verb {
	case 'v', 's':
		fmt.Fprint(f, a.String())
	case 'd':
		fmt.Fprintf(f, "%s (%d-bit)", a.String(), w)
	case 'b':
		fmt.Fprintf(f, "0b%s (%d-bit)", a.BinaryString(), w)
	case 'x', 'X':
		fmt.Fprintf(f, "0x%s (%d-bit)", strings.ToUpper(a.raw().Text(16)), w)
	default:
		fmt.Fprintf(f, "%%!%c(bv.Value=%s)", verb, a.String())
	}
}
