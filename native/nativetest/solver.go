package nativetest

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/typedz3/z3/native"
)

type solver struct {
	simple  bool
	frames  [][]native.Handle
	params  map[string]any
	status  native.LBool
	checked bool
	env     map[native.Handle]value
	core    []native.Handle
	reason  string
}

type soft struct {
	f      native.Handle
	weight string
	group  string
}

type optimizer struct {
	solver
	softs     []soft
	softMarks []int
	objs      []objective
	objMarks  []int
}

type objective struct {
	t        native.Handle
	maximize bool
	soft     bool
	group    string
}

type model struct {
	env map[native.Handle]value
}

func newSolver(simple bool) *solver {
	return &solver{simple: simple, frames: [][]native.Handle{nil}, params: map[string]any{}}
}

func (s *solver) assertions() []native.Handle {
	var out []native.Handle
	for _, f := range s.frames {
		out = append(out, f...)
	}
	return out
}

func (s *solver) push() { s.frames = append(s.frames, nil) }

func (s *solver) pop(n uint32) error {
	if int(n) > len(s.frames)-1 {
		return native.Errorf(native.InvalidUsage, "cannot pop %d scopes, only %d available", n, len(s.frames)-1)
	}
	s.frames = s.frames[:len(s.frames)-int(n)]
	return nil
}

func (s *solver) add(f native.Handle) {
	top := len(s.frames) - 1
	s.frames[top] = append(s.frames[top], f)
}

// solve decides assertions by propagating top-level equalities to a
// fixpoint and evaluating everything under the resulting assignment.
func (c *context) solve(assertions []native.Handle) (native.LBool, map[native.Handle]value, string) {
	env := make(map[native.Handle]value)
	for changed := true; changed; {
		changed = false
		for _, a := range assertions {
			if c.propagate(a, env) {
				changed = true
			}
		}
	}

	defaulted := false
	sat := true
	for _, a := range assertions {
		v, _ := c.eval(a, env, true, &defaulted)
		if !v.b {
			sat = false
		}
	}
	if sat {
		for _, k := range c.consts(assertions...) {
			if _, ok := env[k]; !ok {
				env[k] = c.defaultValue(c.nodes[k].sort)
			}
		}
		return native.LTrue, env, ""
	}
	if !defaulted {
		return native.LFalse, env, ""
	}
	return native.LUndef, nil, "incomplete"
}

func (c *context) propagate(h native.Handle, env map[native.Handle]value) bool {
	n := c.nodes[h]
	switch {
	case n.tag == tagConst && c.kindOf(h) == native.BoolSort:
		if _, ok := env[h]; !ok {
			env[h] = boolV(true)
			return true
		}
	case n.tag == tagApp && n.op == native.OpNot:
		a := n.args[0]
		if c.nodes[a].tag == tagConst {
			if _, ok := env[a]; !ok {
				env[a] = boolV(false)
				return true
			}
		}
	case n.tag == tagApp && n.op == native.OpAnd:
		changed := false
		for _, a := range n.args {
			if c.propagate(a, env) {
				changed = true
			}
		}
		return changed
	case n.tag == tagApp && (n.op == native.OpEq || n.op == native.OpIff):
		for _, pair := range [2][2]native.Handle{{n.args[0], n.args[1]}, {n.args[1], n.args[0]}} {
			lhs, rhs := pair[0], pair[1]
			if c.nodes[lhs].tag != tagConst {
				continue
			}
			if _, ok := env[lhs]; ok {
				continue
			}
			if v, ok := c.eval(rhs, env, false, nil); ok {
				env[lhs] = v
				return true
			}
		}
	}
	return false
}

func (c *context) check(s *solver, assumptions []native.Handle) native.LBool {
	all := append(s.assertions(), assumptions...)
	status, env, reason := c.solve(all)
	s.status, s.env, s.reason, s.checked = status, env, reason, true
	s.core = nil
	if status == native.LFalse {
		for _, a := range assumptions {
			if v, _ := c.eval(a, env, true, nil); !v.b {
				s.core = append(s.core, a)
			}
		}
	}
	return status
}

func (c *context) newModel(env map[native.Handle]value) native.Handle {
	h := c.e.alloc()
	snapshot := make(map[native.Handle]value, len(env))
	for k, v := range env {
		snapshot[k] = v
	}
	c.models[h] = &model{env: snapshot}
	return h
}

func (e *Engine) solverCall(method string, ctx, s native.Handle, f func(c *context, s *solver) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup(method, ctx)
	if err != nil {
		return err
	}
	sv, ok := c.solvers[s]
	if !ok {
		if what, gone := e.dead[s]; gone {
			e.violate("%s on released %s %#x", method, what, uintptr(s))
		} else {
			e.violate("%s on unknown solver %#x", method, uintptr(s))
		}
		return native.Errorf(native.InvalidArg, "invalid solver")
	}
	return f(c, sv)
}

// MkSolver implements native.Library.
func (e *Engine) MkSolver(ctx native.Handle, simple bool) (native.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup("MkSolver", ctx)
	if err != nil {
		return 0, err
	}
	h := e.alloc()
	c.solvers[h] = newSolver(simple)
	return h, nil
}

// SolverRelease implements native.Library.
func (e *Engine) SolverRelease(ctx, s native.Handle) error {
	return e.solverCall("SolverRelease", ctx, s, func(c *context, _ *solver) error {
		delete(c.solvers, s)
		e.dead[s] = "solver"
		e.releases["solver"]++
		return nil
	})
}

// SolverAssert implements native.Library.
func (e *Engine) SolverAssert(ctx, s, f native.Handle) error {
	return e.solverCall("SolverAssert", ctx, s, func(c *context, sv *solver) error {
		if _, err := c.term(f); err != nil {
			return err
		}
		if c.kindOf(f) != native.BoolSort {
			return native.Errorf(native.SortError, "assertion must be Boolean")
		}
		sv.add(f)
		return nil
	})
}

// SolverFromString implements native.Library.
func (e *Engine) SolverFromString(ctx, s native.Handle, smt2 string) error {
	return e.solverCall("SolverFromString", ctx, s, func(c *context, sv *solver) error {
		return c.runScript(sv, smt2)
	})
}

// SolverCheck implements native.Library.
func (e *Engine) SolverCheck(ctx, s native.Handle, assumptions []native.Handle) (native.LBool, error) {
	res := native.LUndef
	err := e.solverCall("SolverCheck", ctx, s, func(c *context, sv *solver) error {
		for _, a := range assumptions {
			if _, err := c.term(a); err != nil {
				return err
			}
		}
		res = c.check(sv, assumptions)
		return nil
	})
	return res, err
}

// SolverModel implements native.Library.
func (e *Engine) SolverModel(ctx, s native.Handle) (native.Handle, error) {
	var h native.Handle
	err := e.solverCall("SolverModel", ctx, s, func(c *context, sv *solver) error {
		if !sv.checked || sv.status != native.LTrue {
			return native.Errorf(native.InvalidUsage, "there is no current model")
		}
		h = c.newModel(sv.env)
		return nil
	})
	return h, err
}

// SolverUnsatCore implements native.Library.
func (e *Engine) SolverUnsatCore(ctx, s native.Handle) ([]native.Handle, error) {
	var core []native.Handle
	err := e.solverCall("SolverUnsatCore", ctx, s, func(c *context, sv *solver) error {
		if !sv.checked || sv.status != native.LFalse {
			return native.Errorf(native.InvalidUsage, "unsat core is not available")
		}
		core = append(core, sv.core...)
		return nil
	})
	return core, err
}

// SolverProof implements native.Library. Proofs need the "proof" context
// parameter; the proof term itself is a placeholder constant.
func (e *Engine) SolverProof(ctx, s native.Handle) (native.Handle, error) {
	var h native.Handle
	err := e.solverCall("SolverProof", ctx, s, func(c *context, sv *solver) error {
		if c.params["proof"] != "true" || !sv.checked || sv.status != native.LFalse {
			return native.Errorf(native.InvalidUsage, "proof is not available")
		}
		var err error
		h, err = c.mkConst("proof", c.boolSort())
		return err
	})
	return h, err
}

// SolverAssertions implements native.Library.
func (e *Engine) SolverAssertions(ctx, s native.Handle) ([]native.Handle, error) {
	var out []native.Handle
	err := e.solverCall("SolverAssertions", ctx, s, func(c *context, sv *solver) error {
		out = sv.assertions()
		return nil
	})
	return out, err
}

// SolverPush implements native.Library.
func (e *Engine) SolverPush(ctx, s native.Handle) error {
	return e.solverCall("SolverPush", ctx, s, func(_ *context, sv *solver) error {
		sv.push()
		return nil
	})
}

// SolverPop implements native.Library.
func (e *Engine) SolverPop(ctx, s native.Handle, n uint32) error {
	return e.solverCall("SolverPop", ctx, s, func(_ *context, sv *solver) error {
		return sv.pop(n)
	})
}

// SolverReset implements native.Library.
func (e *Engine) SolverReset(ctx, s native.Handle) error {
	return e.solverCall("SolverReset", ctx, s, func(_ *context, sv *solver) error {
		sv.frames = [][]native.Handle{nil}
		sv.checked = false
		return nil
	})
}

// SolverNumScopes implements native.Library.
func (e *Engine) SolverNumScopes(ctx, s native.Handle) (uint32, error) {
	var n uint32
	err := e.solverCall("SolverNumScopes", ctx, s, func(_ *context, sv *solver) error {
		n = uint32(len(sv.frames) - 1)
		return nil
	})
	return n, err
}

// SolverReasonUnknown implements native.Library.
func (e *Engine) SolverReasonUnknown(ctx, s native.Handle) (string, error) {
	var r string
	err := e.solverCall("SolverReasonUnknown", ctx, s, func(_ *context, sv *solver) error {
		r = sv.reason
		if !sv.checked {
			r = "no check was performed"
		}
		return nil
	})
	return r, err
}

// SolverSetParams implements native.Library.
func (e *Engine) SolverSetParams(ctx, s native.Handle, params []native.Param) error {
	return e.solverCall("SolverSetParams", ctx, s, func(_ *context, sv *solver) error {
		return setParams(sv.params, params)
	})
}

// SolverString implements native.Library.
func (e *Engine) SolverString(ctx, s native.Handle) (string, error) {
	var out string
	err := e.solverCall("SolverString", ctx, s, func(c *context, sv *solver) error {
		out = c.script(sv.assertions())
		return nil
	})
	return out, err
}

func (c *context) script(assertions []native.Handle) string {
	var b strings.Builder
	for _, k := range c.consts(assertions...) {
		fmt.Fprintf(&b, "(declare-fun %s () %s)\n", c.nodes[k].name, c.sortString(c.nodes[k].sort))
	}
	for _, a := range assertions {
		fmt.Fprintf(&b, "(assert %s)\n", c.termString(a))
	}
	return b.String()
}

var solverParams = map[string]string{
	"timeout":            "uint",
	"rlimit":             "uint",
	"random_seed":        "uint",
	"max_memory":         "uint",
	"unsat_core":         "bool",
	"model":              "bool",
	"proof":              "bool",
	"core.minimize":      "bool",
	"smt.random_seed":    "uint",
	"priority":           "symbol",
	"maxsat_engine":      "symbol",
	"opt.priority":       "symbol",
	"smt.arith.solver":   "uint",
	"sat.restart.factor": "double",
}

func setParams(dst map[string]any, params []native.Param) error {
	for _, p := range params {
		want, ok := solverParams[p.Name]
		if !ok {
			return native.Errorf(native.InvalidArg, "unknown parameter '%s'", p.Name)
		}
		var got string
		switch p.Value.(type) {
		case bool:
			got = "bool"
		case uint32:
			got = "uint"
		case float64:
			got = "double"
		case string:
			got = "symbol"
		}
		if got != want {
			return native.Errorf(native.InvalidArg, "parameter '%s' expects a %s value", p.Name, want)
		}
		dst[p.Name] = p.Value
	}
	return nil
}

// Optimize

func (e *Engine) optCall(method string, ctx, o native.Handle, f func(c *context, o *optimizer) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup(method, ctx)
	if err != nil {
		return err
	}
	ov, ok := c.optimizers[o]
	if !ok {
		if what, gone := e.dead[o]; gone {
			e.violate("%s on released %s %#x", method, what, uintptr(o))
		} else {
			e.violate("%s on unknown optimizer %#x", method, uintptr(o))
		}
		return native.Errorf(native.InvalidArg, "invalid optimize context")
	}
	return f(c, ov)
}

// MkOptimize implements native.Library.
func (e *Engine) MkOptimize(ctx native.Handle) (native.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup("MkOptimize", ctx)
	if err != nil {
		return 0, err
	}
	h := e.alloc()
	c.optimizers[h] = &optimizer{solver: *newSolver(false)}
	return h, nil
}

// OptimizeRelease implements native.Library.
func (e *Engine) OptimizeRelease(ctx, o native.Handle) error {
	return e.optCall("OptimizeRelease", ctx, o, func(c *context, _ *optimizer) error {
		delete(c.optimizers, o)
		e.dead[o] = "optimize"
		e.releases["optimize"]++
		return nil
	})
}

// OptimizeAssert implements native.Library.
func (e *Engine) OptimizeAssert(ctx, o, f native.Handle) error {
	return e.optCall("OptimizeAssert", ctx, o, func(c *context, ov *optimizer) error {
		if _, err := c.term(f); err != nil {
			return err
		}
		if c.kindOf(f) != native.BoolSort {
			return native.Errorf(native.SortError, "assertion must be Boolean")
		}
		ov.add(f)
		return nil
	})
}

// OptimizeAssertSoft implements native.Library. Soft constraints sharing a
// group share one objective, whose bound is the total weight of the group's
// violated constraints.
func (e *Engine) OptimizeAssertSoft(ctx, o, f native.Handle, weight, group string) (uint32, error) {
	var idx uint32
	err := e.optCall("OptimizeAssertSoft", ctx, o, func(c *context, ov *optimizer) error {
		if _, err := c.term(f); err != nil {
			return err
		}
		if c.kindOf(f) != native.BoolSort {
			return native.Errorf(native.SortError, "soft constraint must be Boolean")
		}
		ov.softs = append(ov.softs, soft{f: f, weight: weight, group: group})
		for i, obj := range ov.objs {
			if obj.soft && obj.group == group {
				idx = uint32(i)
				return nil
			}
		}
		idx = uint32(len(ov.objs))
		ov.objs = append(ov.objs, objective{soft: true, group: group})
		return nil
	})
	return idx, err
}

func (e *Engine) addObjective(method string, ctx, o, t native.Handle, maximize bool) (uint32, error) {
	var idx uint32
	err := e.optCall(method, ctx, o, func(c *context, ov *optimizer) error {
		if _, err := c.term(t); err != nil {
			return err
		}
		switch c.kindOf(t) {
		case native.IntSort, native.RealSort, native.BvSort:
		default:
			return native.Errorf(native.SortError, "objective must be arithmetic or bit-vector")
		}
		idx = uint32(len(ov.objs))
		ov.objs = append(ov.objs, objective{t: t, maximize: maximize})
		return nil
	})
	return idx, err
}

// OptimizeMaximize implements native.Library.
func (e *Engine) OptimizeMaximize(ctx, o, t native.Handle) (uint32, error) {
	return e.addObjective("OptimizeMaximize", ctx, o, t, true)
}

// OptimizeMinimize implements native.Library.
func (e *Engine) OptimizeMinimize(ctx, o, t native.Handle) (uint32, error) {
	return e.addObjective("OptimizeMinimize", ctx, o, t, false)
}

// OptimizeCheck implements native.Library. Soft constraints are kept
// greedily by descending weight while the hard constraints stay satisfiable;
// objectives are reported at the value the final model gives them.
func (e *Engine) OptimizeCheck(ctx, o native.Handle, assumptions []native.Handle) (native.LBool, error) {
	res := native.LUndef
	err := e.optCall("OptimizeCheck", ctx, o, func(c *context, ov *optimizer) error {
		hard := append(ov.assertions(), assumptions...)
		status, env, reason := c.solve(hard)
		if status == native.LTrue {
			softs := append([]soft(nil), ov.softs...)
			sort.SliceStable(softs, func(i, j int) bool { return weightOf(softs[i].weight) > weightOf(softs[j].weight) })
			kept := hard
			for _, s := range softs {
				try := append(append([]native.Handle(nil), kept...), s.f)
				if st, tenv, _ := c.solve(try); st == native.LTrue {
					kept, env = try, tenv
				}
			}
		}
		ov.status, ov.env, ov.reason, ov.checked = status, env, reason, true
		res = status
		return nil
	})
	return res, err
}

func weightOf(w string) float64 {
	var f float64
	if _, err := fmt.Sscan(w, &f); err != nil {
		return 1
	}
	return f
}

// OptimizeModel implements native.Library.
func (e *Engine) OptimizeModel(ctx, o native.Handle) (native.Handle, error) {
	var h native.Handle
	err := e.optCall("OptimizeModel", ctx, o, func(c *context, ov *optimizer) error {
		if !ov.checked || ov.status != native.LTrue {
			return native.Errorf(native.InvalidUsage, "there is no current model")
		}
		h = c.newModel(ov.env)
		return nil
	})
	return h, err
}

// OptimizePush implements native.Library.
func (e *Engine) OptimizePush(ctx, o native.Handle) error {
	return e.optCall("OptimizePush", ctx, o, func(_ *context, ov *optimizer) error {
		ov.push()
		ov.softMarks = append(ov.softMarks, len(ov.softs))
		ov.objMarks = append(ov.objMarks, len(ov.objs))
		return nil
	})
}

// OptimizePop implements native.Library.
func (e *Engine) OptimizePop(ctx, o native.Handle) error {
	return e.optCall("OptimizePop", ctx, o, func(_ *context, ov *optimizer) error {
		if err := ov.pop(1); err != nil {
			return err
		}
		last := len(ov.softMarks) - 1
		ov.softs = ov.softs[:ov.softMarks[last]]
		ov.objs = ov.objs[:ov.objMarks[last]]
		ov.softMarks, ov.objMarks = ov.softMarks[:last], ov.objMarks[:last]
		return nil
	})
}

func (e *Engine) bound(method string, ctx, o native.Handle, idx uint32) (native.Handle, error) {
	var h native.Handle
	err := e.optCall(method, ctx, o, func(c *context, ov *optimizer) error {
		if int(idx) >= len(ov.objs) {
			return native.Errorf(native.IndexOutOfBounds, "objective index %d out of range", idx)
		}
		if !ov.checked || ov.status != native.LTrue {
			return native.Errorf(native.InvalidUsage, "optimization has not produced a model")
		}
		obj := ov.objs[idx]
		if obj.soft {
			cost := new(big.Rat)
			for _, s := range ov.softs {
				if v, _ := c.eval(s.f, ov.env, true, nil); s.group == obj.group && !v.b {
					cost.Add(cost, new(big.Rat).SetFloat64(weightOf(s.weight)))
				}
			}
			h = c.mkValue(realV(cost), c.realSort())
			return nil
		}
		v, _ := c.eval(obj.t, ov.env, true, nil)
		h = c.mkValue(v, c.nodes[obj.t].sort)
		return nil
	})
	return h, err
}

// OptimizeLower implements native.Library.
func (e *Engine) OptimizeLower(ctx, o native.Handle, idx uint32) (native.Handle, error) {
	return e.bound("OptimizeLower", ctx, o, idx)
}

// OptimizeUpper implements native.Library.
func (e *Engine) OptimizeUpper(ctx, o native.Handle, idx uint32) (native.Handle, error) {
	return e.bound("OptimizeUpper", ctx, o, idx)
}

// OptimizeReasonUnknown implements native.Library.
func (e *Engine) OptimizeReasonUnknown(ctx, o native.Handle) (string, error) {
	var r string
	err := e.optCall("OptimizeReasonUnknown", ctx, o, func(_ *context, ov *optimizer) error {
		r = ov.reason
		return nil
	})
	return r, err
}

// OptimizeSetParams implements native.Library.
func (e *Engine) OptimizeSetParams(ctx, o native.Handle, params []native.Param) error {
	return e.optCall("OptimizeSetParams", ctx, o, func(_ *context, ov *optimizer) error {
		return setParams(ov.params, params)
	})
}

// OptimizeString implements native.Library.
func (e *Engine) OptimizeString(ctx, o native.Handle) (string, error) {
	var out string
	err := e.optCall("OptimizeString", ctx, o, func(c *context, ov *optimizer) error {
		var b strings.Builder
		b.WriteString(c.script(ov.assertions()))
		for _, s := range ov.softs {
			fmt.Fprintf(&b, "(assert-soft %s :weight %s :id %s)\n", c.termString(s.f), s.weight, s.group)
		}
		for _, obj := range ov.objs {
			if obj.soft {
				continue
			}
			kw := "minimize"
			if obj.maximize {
				kw = "maximize"
			}
			fmt.Fprintf(&b, "(%s %s)\n", kw, c.termString(obj.t))
		}
		b.WriteString("(check-sat)\n")
		out = b.String()
		return nil
	})
	return out, err
}

// Model

func (e *Engine) modelCall(method string, ctx, m native.Handle, f func(c *context, m *model) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup(method, ctx)
	if err != nil {
		return err
	}
	mv, ok := c.models[m]
	if !ok {
		if what, gone := e.dead[m]; gone {
			e.violate("%s on released %s %#x", method, what, uintptr(m))
		} else {
			e.violate("%s on unknown model %#x", method, uintptr(m))
		}
		return native.Errorf(native.InvalidArg, "invalid model")
	}
	return f(c, mv)
}

// ModelRelease implements native.Library.
func (e *Engine) ModelRelease(ctx, m native.Handle) error {
	return e.modelCall("ModelRelease", ctx, m, func(c *context, _ *model) error {
		delete(c.models, m)
		e.dead[m] = "model"
		e.releases["model"]++
		return nil
	})
}

// ModelEval implements native.Library. Without completion, a term that
// mentions a constant the model does not fix is returned unchanged.
func (e *Engine) ModelEval(ctx, m, t native.Handle, completion bool) (native.Handle, bool, error) {
	var h native.Handle
	err := e.modelCall("ModelEval", ctx, m, func(c *context, mv *model) error {
		n, err := c.term(t)
		if err != nil {
			return err
		}
		v, ok := c.eval(t, mv.env, completion, nil)
		if !ok {
			h = t
			return nil
		}
		h = c.mkValue(v, n.sort)
		return nil
	})
	return h, err == nil, err
}

// ModelString implements native.Library.
func (e *Engine) ModelString(ctx, m native.Handle) (string, error) {
	var out string
	err := e.modelCall("ModelString", ctx, m, func(c *context, mv *model) error {
		keys := make([]native.Handle, 0, len(mv.env))
		for k := range mv.env {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return c.nodes[keys[i]].name < c.nodes[keys[j]].name })
		var b strings.Builder
		for _, k := range keys {
			n := c.nodes[k]
			fmt.Fprintf(&b, "(define-fun %s () %s\n  %s)\n", n.name, c.sortString(n.sort), c.termString(c.mkValue(mv.env[k], n.sort)))
		}
		out = b.String()
		return nil
	})
	return out, err
}
