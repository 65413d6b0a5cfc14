package nativetest

import (
	"math/big"
	"sort"
	"strings"

	"github.com/typedz3/z3/native"
)

// value is a concrete interpretation of a term.
type value struct {
	kind  native.SortKind
	b     bool
	i     *big.Int // Int, and BitVec in [0, 2^width)
	r     *big.Rat
	width uint32
	arr   *arrayValue
}

type arrayValue struct {
	def     value
	entries map[string][2]value // key string -> (key, value)
}

func boolV(b bool) value { return value{kind: native.BoolSort, b: b} }

func intV(x *big.Int) value { return value{kind: native.IntSort, i: x} }

func realV(x *big.Rat) value { return value{kind: native.RealSort, r: x} }

func bvV(x *big.Int, width uint32) value {
	return value{kind: native.BvSort, i: wrap(x, width), width: width}
}

func pow2(n uint32) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(n))
}

func wrap(x *big.Int, width uint32) *big.Int {
	m := new(big.Int).Sub(pow2(width), big.NewInt(1))
	return new(big.Int).And(x, m)
}

func signed(v value) *big.Int {
	r := new(big.Int).Set(v.i)
	if r.Bit(int(v.width)-1) == 1 {
		r.Sub(r, pow2(v.width))
	}
	return r
}

func (v value) key() string {
	switch v.kind {
	case native.BoolSort:
		if v.b {
			return "true"
		}
		return "false"
	case native.IntSort, native.BvSort:
		return v.i.String()
	case native.RealSort:
		return v.r.RatString()
	case native.ArraySort:
		var b strings.Builder
		b.WriteString("[" + v.arr.def.key())
		keys := make([]string, 0, len(v.arr.entries))
		for k := range v.arr.entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(";" + k + "=" + v.arr.entries[k][1].key())
		}
		b.WriteString("]")
		return b.String()
	}
	return "?"
}

func equal(a, b value) bool {
	return a.kind == b.kind && a.key() == b.key()
}

func (v value) selectAt(k value) value {
	if e, ok := v.arr.entries[k.key()]; ok {
		return e[1]
	}
	return v.arr.def
}

func (v value) store(k, x value) value {
	entries := make(map[string][2]value, len(v.arr.entries)+1)
	for key, e := range v.arr.entries {
		entries[key] = e
	}
	if equal(x, v.arr.def) {
		delete(entries, k.key())
	} else {
		entries[k.key()] = [2]value{k, x}
	}
	return value{kind: native.ArraySort, arr: &arrayValue{def: v.arr.def, entries: entries}}
}

func constArray(def value) value {
	return value{kind: native.ArraySort, arr: &arrayValue{def: def, entries: map[string][2]value{}}}
}

// defaultValue is the value model completion assigns to an unconstrained
// constant of sort s.
func (c *context) defaultValue(s native.Handle) value {
	n := c.nodes[s]
	switch n.kind {
	case native.BoolSort:
		return boolV(false)
	case native.IntSort:
		return intV(new(big.Int))
	case native.RealSort:
		return realV(new(big.Rat))
	case native.BvSort:
		return bvV(new(big.Int), n.width)
	case native.ArraySort:
		return constArray(c.defaultValue(n.rng))
	}
	return value{}
}
