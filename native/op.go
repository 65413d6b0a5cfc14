package native

import "fmt"

// Op selects the term constructor for MkApp and MkIndexed.
type Op int

const (
	OpTrue Op = iota
	OpFalse
	OpEq
	OpDistinct
	OpNot
	OpIte
	OpIff
	OpImplies
	OpXor
	OpAnd
	OpOr

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpRem
	OpNeg
	OpLt
	OpLe
	OpGt
	OpGe
	OpToReal
	OpToInt
	OpIsInt

	OpBvAdd
	OpBvSub
	OpBvMul
	OpBvUDiv
	OpBvSDiv
	OpBvURem
	OpBvSRem
	OpBvSMod
	OpBvNeg
	OpBvNot
	OpBvAnd
	OpBvOr
	OpBvXor
	OpBvShl
	OpBvLShr
	OpBvAShr
	OpBvULt
	OpBvULe
	OpBvUGt
	OpBvUGe
	OpBvSLt
	OpBvSLe
	OpBvSGt
	OpBvSGe
	OpConcat

	OpBvAddNoOverflowU
	OpBvAddNoOverflowS
	OpBvAddNoUnderflow
	OpBvSubNoOverflow
	OpBvSubNoUnderflowU
	OpBvSubNoUnderflowS
	OpBvMulNoOverflowU
	OpBvMulNoOverflowS
	OpBvMulNoUnderflow
	OpBvSDivNoOverflow
	OpBvNegNoOverflow

	OpSelect
	OpStore

	// Indexed operators, built with MkIndexed.
	OpExtract     // indices: high, low
	OpSignExt     // indices: bits to add
	OpZeroExt     // indices: bits to add
	OpRepeat      // indices: count
	OpRotateLeft  // indices: amount
	OpRotateRight // indices: amount
	OpBv2Int      // indices: 1 for signed, 0 for unsigned
	OpInt2Bv      // indices: width

	opCount
)

var opNames = [...]string{
	OpTrue:     "true",
	OpFalse:    "false",
	OpEq:       "=",
	OpDistinct: "distinct",
	OpNot:      "not",
	OpIte:      "ite",
	OpIff:      "=",
	OpImplies:  "=>",
	OpXor:      "xor",
	OpAnd:      "and",
	OpOr:       "or",

	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "div",
	OpMod:    "mod",
	OpRem:    "rem",
	OpNeg:    "-",
	OpLt:     "<",
	OpLe:     "<=",
	OpGt:     ">",
	OpGe:     ">=",
	OpToReal: "to_real",
	OpToInt:  "to_int",
	OpIsInt:  "is_int",

	OpBvAdd:  "bvadd",
	OpBvSub:  "bvsub",
	OpBvMul:  "bvmul",
	OpBvUDiv: "bvudiv",
	OpBvSDiv: "bvsdiv",
	OpBvURem: "bvurem",
	OpBvSRem: "bvsrem",
	OpBvSMod: "bvsmod",
	OpBvNeg:  "bvneg",
	OpBvNot:  "bvnot",
	OpBvAnd:  "bvand",
	OpBvOr:   "bvor",
	OpBvXor:  "bvxor",
	OpBvShl:  "bvshl",
	OpBvLShr: "bvlshr",
	OpBvAShr: "bvashr",
	OpBvULt:  "bvult",
	OpBvULe:  "bvule",
	OpBvUGt:  "bvugt",
	OpBvUGe:  "bvuge",
	OpBvSLt:  "bvslt",
	OpBvSLe:  "bvsle",
	OpBvSGt:  "bvsgt",
	OpBvSGe:  "bvsge",
	OpConcat: "concat",

	OpBvAddNoOverflowU:  "bvadd_noovfl",
	OpBvAddNoOverflowS:  "bvadd_noovfl_s",
	OpBvAddNoUnderflow:  "bvadd_noudfl",
	OpBvSubNoOverflow:   "bvsub_noovfl",
	OpBvSubNoUnderflowU: "bvsub_noudfl",
	OpBvSubNoUnderflowS: "bvsub_noudfl_s",
	OpBvMulNoOverflowU:  "bvumul_noovfl",
	OpBvMulNoOverflowS:  "bvsmul_noovfl",
	OpBvMulNoUnderflow:  "bvsmul_noudfl",
	OpBvSDivNoOverflow:  "bvsdiv_noovfl",
	OpBvNegNoOverflow:   "bvneg_noovfl",

	OpSelect: "select",
	OpStore:  "store",

	OpExtract:     "extract",
	OpSignExt:     "sign_extend",
	OpZeroExt:     "zero_extend",
	OpRepeat:      "repeat",
	OpRotateLeft:  "rotate_left",
	OpRotateRight: "rotate_right",
	OpBv2Int:      "bv2int",
	OpInt2Bv:      "int2bv",
}

// String returns the SMT-LIB name of the operator.
func (o Op) String() string {
	if o >= 0 && o < opCount {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Indexed reports whether o is built with MkIndexed.
func (o Op) Indexed() bool {
	return o >= OpExtract && o < opCount
}

// LookupOp finds an operator by its SMT-LIB name. Names shared by several
// operators resolve to the first one: "=" is OpEq and "-" is OpSub.
func LookupOp(name string) (Op, bool) {
	for i, n := range opNames {
		if n == name {
			return Op(i), true
		}
	}
	return 0, false
}
