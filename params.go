package z3

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/native"
)

// Params represents a parameter set for Solver.SetParams and
// Optimize.SetParams. Names and values are passed to the engine as given;
// the engine validates them when the set is applied.
//
// The zero value and a nil *Params are empty sets. A setter given a value
// the engine cannot take leaves the parameter unset and records the error;
// SetParams returns it instead of applying the set.
type Params struct {
	values map[string]any
	err    error
}

// NewParams creates a new parameter set.
func NewParams() *Params {
	return &Params{values: make(map[string]any)}
}

func (p *Params) set(key string, v any) *Params {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	p.values[key] = v
	return p
}

// SetBool sets a Boolean parameter.
func (p *Params) SetBool(key string, value bool) *Params { return p.set(key, value) }

func (p *Params) reject(op, format string, args ...any) *Params {
	if p.err == nil {
		p.err = errors.InvalidArgument(errors.ResourceParams, op, format, args...)
	}
	return p
}

// SetUint sets an unsigned integer parameter. Values above the engine's
// 32-bit range are rejected.
func (p *Params) SetUint(key string, value uint) *Params {
	if uint64(value) > math.MaxUint32 {
		return p.reject("SetUint", "%s = %d exceeds the 32-bit range", key, value)
	}
	return p.set(key, uint32(value))
}

// SetDouble sets a double parameter.
func (p *Params) SetDouble(key string, value float64) *Params { return p.set(key, value) }

// SetSymbol sets a symbol parameter.
func (p *Params) SetSymbol(key, value string) *Params { return p.set(key, value) }

// SetTimeout sets the "timeout" parameter in milliseconds. A check that
// runs out of time returns Unknown. Negative durations are rejected.
func (p *Params) SetTimeout(d time.Duration) *Params {
	if d < 0 {
		return p.reject("SetTimeout", "negative timeout %s", d)
	}
	return p.SetUint("timeout", uint(d.Milliseconds()))
}

// SetProof sets the "proof" parameter.
func (p *Params) SetProof(on bool) *Params { return p.SetBool("proof", on) }

// SetUnsatCore sets the "unsat_core" parameter.
func (p *Params) SetUnsatCore(on bool) *Params { return p.SetBool("unsat_core", on) }

// Err returns the first value a setter rejected, if any.
func (p *Params) Err() error {
	if p == nil {
		return nil
	}
	return p.err
}

// Len returns the number of parameters in the set.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.values)
}

// String returns the string representation of the parameters.
func (p *Params) String() string {
	var b strings.Builder
	b.WriteString("(params")
	for _, np := range p.list() {
		fmt.Fprintf(&b, " %s %v", np.Name, np.Value)
	}
	b.WriteString(")")
	return b.String()
}

// list returns the parameters sorted by name.
func (p *Params) list() []native.Param {
	if p == nil || len(p.values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]native.Param, len(keys))
	for i, k := range keys {
		out[i] = native.Param{Name: k, Value: p.values[k]}
	}
	return out
}
