package bv

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/typedz3/z3/errors"
)

func TestWidth(t *testing.T) {
	if Width[Size8]() != 8 || Width[Size256]() != 256 || Width[Size1]() != 1 {
		t.Fatal("Unexpected tag widths")
	}
	if New[Size12](0).Size() != 12 {
		t.Fatalf("Expected size 12, got %d", New[Size12](0).Size())
	}
}

func TestNew_Wraps(t *testing.T) {
	tests := []struct {
		in   int64
		want uint64
	}{
		{0, 0},
		{255, 255},
		{256, 0},
		{-1, 255},
		{-56, 200},
	}
	for _, tt := range tests {
		if got := New[Size8](tt.in).Uint64(); got != tt.want {
			t.Errorf("New[Size8](%d): expected %d, got %d", tt.in, tt.want, got)
		}
	}

	var zero Value[Size8]
	if !zero.IsZero() || zero.String() != "0" {
		t.Fatalf("Expected zero value to be 0, got %s", zero)
	}
}

func TestArithmetic(t *testing.T) {
	a, b := New[Size8](200), New[Size8](100)
	if got := a.Add(b).Uint64(); got != 44 {
		t.Fatalf("Expected 200+100 = 44 mod 256, got %d", got)
	}
	if got := b.Sub(a).Uint64(); got != 156 {
		t.Fatalf("Expected 100-200 = 156 mod 256, got %d", got)
	}
	if got := New[Size8](16).Mul(New[Size8](17)).Uint64(); got != 16 {
		t.Fatalf("Expected 16*17 = 16 mod 256, got %d", got)
	}
	if got := New[Size8](1).Neg().Uint64(); got != 255 {
		t.Fatalf("Expected -1 = 255, got %d", got)
	}
}

func TestDivision(t *testing.T) {
	m7, two := New[Size8](-7), New[Size8](2)

	q, err := m7.Div(two, true)
	if err != nil || q.Int64() != -3 {
		t.Fatalf("Expected -7/2 = -3, got %d (%v)", q.Int64(), err)
	}
	q, _ = m7.Div(two, false)
	if q.Uint64() != 124 {
		t.Fatalf("Expected 249/2 = 124, got %d", q.Uint64())
	}

	r, _ := m7.Rem(two, true)
	if r.Int64() != -1 {
		t.Fatalf("Expected -7 rem 2 = -1, got %d", r.Int64())
	}

	m, _ := m7.SignedMod(two)
	if m.Int64() != 1 {
		t.Fatalf("Expected -7 smod 2 = 1, got %d", m.Int64())
	}
	m, _ = New[Size8](7).SignedMod(New[Size8](-2))
	if m.Int64() != -1 {
		t.Fatalf("Expected 7 smod -2 = -1, got %d", m.Int64())
	}

	var zero Value[Size8]
	if _, err := m7.Div(zero, false); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("Expected division by zero error, got %v", err)
	}
	if _, err := m7.Rem(zero, true); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("Expected division by zero error, got %v", err)
	}
	if _, err := m7.SignedMod(zero); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("Expected division by zero error, got %v", err)
	}
}

func TestBitwiseAndShifts(t *testing.T) {
	a := FromUint64[Size8](0b1100_1010)
	b := FromUint64[Size8](0b1010_0110)

	if got := a.And(b).Uint64(); got != 0b1000_0010 {
		t.Fatalf("And: got %08b", got)
	}
	if got := a.Or(b).Uint64(); got != 0b1110_1110 {
		t.Fatalf("Or: got %08b", got)
	}
	if got := a.Xor(b).Uint64(); got != 0b0110_1100 {
		t.Fatalf("Xor: got %08b", got)
	}
	if got := a.Not().Uint64(); got != 0b0011_0101 {
		t.Fatalf("Not: got %08b", got)
	}

	lowest := New[Size8](-128)
	if got := lowest.Shr(New[Size8](1), true).Uint64(); got != 0xC0 {
		t.Fatalf("Expected arithmetic shift 0xC0, got %#x", got)
	}
	if got := lowest.Shr(New[Size8](1), false).Uint64(); got != 0x40 {
		t.Fatalf("Expected logical shift 0x40, got %#x", got)
	}
	if got := lowest.Shr(New[Size8](8), true).Uint64(); got != 0xFF {
		t.Fatalf("Expected full arithmetic shift 0xFF, got %#x", got)
	}
	if got := New[Size8](1).Shl(New[Size8](9)).Uint64(); got != 0 {
		t.Fatalf("Expected shift past width to be 0, got %d", got)
	}
	if got := New[Size8](3).Shl(New[Size8](2)).Uint64(); got != 12 {
		t.Fatalf("Expected 3<<2 = 12, got %d", got)
	}
}

func TestComparison(t *testing.T) {
	a, b := New[Size8](-1), New[Size8](1)
	if !a.Lt(b, true) {
		t.Fatal("Expected -1 < 1 signed")
	}
	if !a.Gt(b, false) {
		t.Fatal("Expected 255 > 1 unsigned")
	}
	if !a.Le(a, true) || !a.Ge(a, false) || !a.Equal(FromUint64[Size8](255)) {
		t.Fatal("Expected reflexive comparisons to hold")
	}
}

func TestBitCounts(t *testing.T) {
	v := FromUint64[Size8](0b1001_0110)
	if v.PopCount() != 4 {
		t.Fatalf("Expected popcount 4, got %d", v.PopCount())
	}
	if New[Size8](1).LeadingZeros() != 7 {
		t.Fatalf("Expected 7 leading zeros, got %d", New[Size8](1).LeadingZeros())
	}
	if New[Size8](8).TrailingZeros() != 3 {
		t.Fatalf("Expected 3 trailing zeros, got %d", New[Size8](8).TrailingZeros())
	}
	var zero Value[Size8]
	if zero.TrailingZeros() != 8 || zero.LeadingZeros() != 8 {
		t.Fatal("Expected zero to have width leading and trailing zeros")
	}
}

func TestRotate(t *testing.T) {
	v := FromUint64[Size8](0b1001_0110)

	l, err := v.RotateLeft(1)
	if err != nil || l.Uint64() != 0b0010_1101 {
		t.Fatalf("RotateLeft(1): got %08b (%v)", l.Uint64(), err)
	}
	l9, _ := v.RotateLeft(9)
	if !l9.Equal(l) {
		t.Fatal("Expected rotation by 9 to equal rotation by 1 on 8 bits")
	}
	r, _ := v.RotateRight(1)
	if r.Uint64() != 0b0100_1011 {
		t.Fatalf("RotateRight(1): got %08b", r.Uint64())
	}
	same, _ := v.RotateRight(8)
	if !same.Equal(v) {
		t.Fatal("Expected full rotation to be identity")
	}

	if _, err := v.RotateLeft(-1); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("Expected argument error for negative rotation, got %v", err)
	}
	if _, err := v.RotateRight(-3); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("Expected argument error for negative rotation, got %v", err)
	}
}

func TestResize_Identity(t *testing.T) {
	for _, x := range []int64{0, 1, 42, 127, -128, -1} {
		v := New[Size8](x)
		for _, signed := range []bool{false, true} {
			if got := Resize[Size8](v, signed); !got.Equal(v) {
				t.Fatalf("Resize to same width changed %s into %s", v, got)
			}
		}
	}
}

func TestResize_Extension(t *testing.T) {
	for _, x := range []int64{0, 1, 100, 127, -128, -56, -1} {
		v := New[Size8](x)

		zext := Resize[Size16](v, false)
		if zext.BigInt(false).Cmp(v.BigInt(false)) != 0 {
			t.Fatalf("Zero extension changed unsigned value of %d: %s", x, zext)
		}

		sext := Resize[Size64](v, true)
		if sext.Int64() != x {
			t.Fatalf("Sign extension changed signed value: expected %d, got %d", x, sext.Int64())
		}
	}

	trunc := Resize[Size8](FromUint64[Size16](0x1234), false)
	if trunc.Uint64() != 0x34 {
		t.Fatalf("Expected truncation to keep low byte 0x34, got %#x", trunc.Uint64())
	}
}

func TestExtractConcat_Reconstructs(t *testing.T) {
	for _, x := range []uint64{0, 0xBEEF, 0xFFFF, 0x00FF, 0x8001} {
		v := FromUint64[Size16](x)

		hi, err := Extract[Size8](v, 8)
		if err != nil {
			t.Fatal(err)
		}
		lo, err := Extract[Size8](v, 0)
		if err != nil {
			t.Fatal(err)
		}
		back, err := Concat[Size16](hi, lo)
		if err != nil {
			t.Fatal(err)
		}
		if !back.Equal(v) {
			t.Fatalf("Expected %#x, got %s", x, back.HexString())
		}
	}

	v := FromUint64[Size16](0xBEEF)
	nib, _ := Extract[Size4](v, 4)
	if nib.Uint64() != 0xE {
		t.Fatalf("Expected nibble 0xE, got %#x", nib.Uint64())
	}
	if _, err := Extract[Size8](v, 9); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("Expected out-of-range extract to fail, got %v", err)
	}
	if _, err := Concat[Size32](New[Size8](1), New[Size8](2)); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("Expected mismatched concat width to fail, got %v", err)
	}
}

func TestRepeat(t *testing.T) {
	r, err := Repeat[Size24](FromUint64[Size8](0xAB))
	if err != nil {
		t.Fatal(err)
	}
	if r.Uint64() != 0xABABAB {
		t.Fatalf("Expected 0xABABAB, got %s", r.HexString())
	}

	if _, err := Repeat[Size12](New[Size8](1)); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("Expected non-multiple repeat to fail, got %v", err)
	}
}

func TestParse(t *testing.T) {
	v, err := Parse[Size8]("0xff", 0)
	if err != nil || v.Uint64() != 255 {
		t.Fatalf("Expected 255, got %s (%v)", v, err)
	}
	v, _ = Parse[Size8]("1_0000_0001", 2)
	if v.Uint64() != 1 {
		t.Fatalf("Expected overflow bits dropped, got %s", v)
	}
	if _, err := Parse[Size8]("zz", 10); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("Expected parse error, got %v", err)
	}
}

func TestFormatting(t *testing.T) {
	v := New[Size8](42)
	tests := []struct {
		format string
		want   string
	}{
		{"%v", "42"},
		{"%s", "42"},
		{"%d", "42 (8-bit)"},
		{"%b", "0b00101010 (8-bit)"},
		{"%x", "0x2A (8-bit)"},
	}
	for _, tt := range tests {
		if got := fmt.Sprintf(tt.format, v); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.format, tt.want, got)
		}
	}

	if got := FromUint64[Size12](0xA).HexString(); got != "00A" {
		t.Fatalf("Expected 00A, got %q", got)
	}
	if got := FromUint64[Size4](5).BinaryString(); got != "0101" {
		t.Fatalf("Expected 0101, got %q", got)
	}
}

func TestBigInt_Wide(t *testing.T) {
	x, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10) // 2^128-1
	v := FromBig[Size128](x)
	if v.BigInt(true).Int64() != -1 {
		t.Fatalf("Expected all ones to read as -1 signed, got %s", v.BigInt(true))
	}
	if v.PopCount() != 128 {
		t.Fatalf("Expected 128 set bits, got %d", v.PopCount())
	}
	wide := Resize[Size256](v, true)
	if wide.PopCount() != 256 {
		t.Fatalf("Expected sign extension to fill 256 bits, got %d", wide.PopCount())
	}
}
