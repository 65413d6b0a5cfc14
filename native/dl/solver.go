//go:build cgo

package dl

/*
#include "trampoline.h"
*/
import "C"

import (
	"unsafe"

	"github.com/typedz3/z3/native"
)

// MkSolver creates a solver and takes the caller's reference on it.
func (l *Library) MkSolver(ctx native.Handle, simple bool) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	name := "Z3_mk_solver"
	if simple {
		name = "Z3_mk_simple_solver"
	}
	s, err := l.handle(ctx, C.t_p_p(l.fn(name), u(ctx)), name)
	if err != nil {
		return 0, err
	}
	C.t_v_pp(l.fn("Z3_solver_inc_ref"), u(ctx), u(s))
	return s, l.check(ctx)
}

func (l *Library) SolverRelease(ctx, s native.Handle) error {
	return l.call2(ctx, "Z3_solver_dec_ref", s)
}

func (l *Library) SolverAssert(ctx, s, f native.Handle) error {
	if err := l.live(); err != nil {
		return err
	}
	C.t_v_ppp(l.fn("Z3_solver_assert"), u(ctx), u(s), u(f))
	return l.check(ctx)
}

func (l *Library) SolverFromString(ctx, s native.Handle, smt2 string) error {
	if err := l.live(); err != nil {
		return err
	}
	cs := C.CString(smt2)
	defer C.free(unsafe.Pointer(cs))
	C.t_v_pps(l.fn("Z3_solver_from_string"), u(ctx), u(s), cs)
	return l.check(ctx)
}

func (l *Library) SolverCheck(ctx, s native.Handle, assumptions []native.Handle) (native.LBool, error) {
	if err := l.live(); err != nil {
		return native.LUndef, err
	}
	var r C.int
	if len(assumptions) == 0 {
		r = C.t_i_pp(l.fn("Z3_solver_check"), u(ctx), u(s))
	} else {
		n, p := handles(assumptions)
		r = C.t_i_ppn(l.fn("Z3_solver_check_assumptions"), u(ctx), u(s), n, p)
	}
	return native.LBool(r), l.check(ctx)
}

func (l *Library) SolverModel(ctx, s native.Handle) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	return l.model(ctx, C.t_p_pp(l.fn("Z3_solver_get_model"), u(ctx), u(s)))
}

func (l *Library) SolverUnsatCore(ctx, s native.Handle) ([]native.Handle, error) {
	if err := l.live(); err != nil {
		return nil, err
	}
	return l.vector(ctx, C.t_p_pp(l.fn("Z3_solver_get_unsat_core"), u(ctx), u(s)))
}

func (l *Library) SolverProof(ctx, s native.Handle) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	return l.handle(ctx, C.t_p_pp(l.fn("Z3_solver_get_proof"), u(ctx), u(s)), "Z3_solver_get_proof")
}

func (l *Library) SolverAssertions(ctx, s native.Handle) ([]native.Handle, error) {
	if err := l.live(); err != nil {
		return nil, err
	}
	return l.vector(ctx, C.t_p_pp(l.fn("Z3_solver_get_assertions"), u(ctx), u(s)))
}

func (l *Library) SolverPush(ctx, s native.Handle) error {
	return l.call2(ctx, "Z3_solver_push", s)
}

func (l *Library) SolverPop(ctx, s native.Handle, n uint32) error {
	if err := l.live(); err != nil {
		return err
	}
	C.t_v_ppu(l.fn("Z3_solver_pop"), u(ctx), u(s), C.uint(n))
	return l.check(ctx)
}

func (l *Library) SolverReset(ctx, s native.Handle) error {
	return l.call2(ctx, "Z3_solver_reset", s)
}

func (l *Library) SolverNumScopes(ctx, s native.Handle) (uint32, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	n := C.t_u_pp(l.fn("Z3_solver_get_num_scopes"), u(ctx), u(s))
	return uint32(n), l.check(ctx)
}

func (l *Library) SolverReasonUnknown(ctx, s native.Handle) (string, error) {
	return l.str(ctx, "Z3_solver_get_reason_unknown", s)
}

func (l *Library) SolverSetParams(ctx, s native.Handle, params []native.Param) error {
	return l.withParams(ctx, params, func(p C.uintptr_t) {
		C.t_v_ppp(l.fn("Z3_solver_set_params"), u(ctx), u(s), p)
	})
}

func (l *Library) SolverString(ctx, s native.Handle) (string, error) {
	return l.str(ctx, "Z3_solver_to_string", s)
}

// MkOptimize creates an optimization context and takes the caller's
// reference on it.
func (l *Library) MkOptimize(ctx native.Handle) (native.Handle, error) {
	o, err := l.ctxCall(ctx, "Z3_mk_optimize")
	if err != nil {
		return 0, err
	}
	C.t_v_pp(l.fn("Z3_optimize_inc_ref"), u(ctx), u(o))
	return o, l.check(ctx)
}

func (l *Library) OptimizeRelease(ctx, o native.Handle) error {
	return l.call2(ctx, "Z3_optimize_dec_ref", o)
}

func (l *Library) OptimizeAssert(ctx, o, f native.Handle) error {
	if err := l.live(); err != nil {
		return err
	}
	C.t_v_ppp(l.fn("Z3_optimize_assert"), u(ctx), u(o), u(f))
	return l.check(ctx)
}

func (l *Library) OptimizeAssertSoft(ctx, o, f native.Handle, weight, group string) (uint32, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	cw, cg := C.CString(weight), C.CString(group)
	defer C.free(unsafe.Pointer(cw))
	defer C.free(unsafe.Pointer(cg))
	sym := C.t_p_ps(l.fn("Z3_mk_string_symbol"), u(ctx), cg)
	idx := C.t_u_pppsp(l.fn("Z3_optimize_assert_soft"), u(ctx), u(o), u(f), cw, sym)
	return uint32(idx), l.check(ctx)
}

func (l *Library) OptimizeMaximize(ctx, o, t native.Handle) (uint32, error) {
	return l.objective(ctx, "Z3_optimize_maximize", o, t)
}

func (l *Library) OptimizeMinimize(ctx, o, t native.Handle) (uint32, error) {
	return l.objective(ctx, "Z3_optimize_minimize", o, t)
}

func (l *Library) objective(ctx native.Handle, name string, o, t native.Handle) (uint32, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	idx := C.t_u_ppp(l.fn(name), u(ctx), u(o), u(t))
	return uint32(idx), l.check(ctx)
}

func (l *Library) OptimizeCheck(ctx, o native.Handle, assumptions []native.Handle) (native.LBool, error) {
	if err := l.live(); err != nil {
		return native.LUndef, err
	}
	n, p := handles(assumptions)
	r := C.t_i_ppn(l.fn("Z3_optimize_check"), u(ctx), u(o), n, p)
	return native.LBool(r), l.check(ctx)
}

func (l *Library) OptimizeModel(ctx, o native.Handle) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	return l.model(ctx, C.t_p_pp(l.fn("Z3_optimize_get_model"), u(ctx), u(o)))
}

func (l *Library) OptimizePush(ctx, o native.Handle) error {
	return l.call2(ctx, "Z3_optimize_push", o)
}

func (l *Library) OptimizePop(ctx, o native.Handle) error {
	return l.call2(ctx, "Z3_optimize_pop", o)
}

func (l *Library) OptimizeLower(ctx, o native.Handle, idx uint32) (native.Handle, error) {
	return l.bound(ctx, "Z3_optimize_get_lower", o, idx)
}

func (l *Library) OptimizeUpper(ctx, o native.Handle, idx uint32) (native.Handle, error) {
	return l.bound(ctx, "Z3_optimize_get_upper", o, idx)
}

func (l *Library) bound(ctx native.Handle, name string, o native.Handle, idx uint32) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	return l.handle(ctx, C.t_p_ppu(l.fn(name), u(ctx), u(o), C.uint(idx)), name)
}

func (l *Library) OptimizeReasonUnknown(ctx, o native.Handle) (string, error) {
	return l.str(ctx, "Z3_optimize_get_reason_unknown", o)
}

func (l *Library) OptimizeSetParams(ctx, o native.Handle, params []native.Param) error {
	return l.withParams(ctx, params, func(p C.uintptr_t) {
		C.t_v_ppp(l.fn("Z3_optimize_set_params"), u(ctx), u(o), p)
	})
}

func (l *Library) OptimizeString(ctx, o native.Handle) (string, error) {
	return l.str(ctx, "Z3_optimize_to_string", o)
}

func (l *Library) ModelRelease(ctx, m native.Handle) error {
	return l.call2(ctx, "Z3_model_dec_ref", m)
}

func (l *Library) ModelEval(ctx, m, t native.Handle, completion bool) (native.Handle, bool, error) {
	if err := l.live(); err != nil {
		return 0, false, err
	}
	var out C.uintptr_t
	ok := C.t_b_pppbp(l.fn("Z3_model_eval"), u(ctx), u(m), u(t), cbool(completion), &out)
	if err := l.check(ctx); err != nil {
		return 0, false, err
	}
	if !bool(ok) || out == 0 {
		return 0, false, nil
	}
	return native.Handle(out), true, nil
}

func (l *Library) ModelString(ctx, m native.Handle) (string, error) {
	return l.str(ctx, "Z3_model_to_string", m)
}

func (l *Library) call2(ctx native.Handle, name string, h native.Handle) error {
	if err := l.live(); err != nil {
		return err
	}
	C.t_v_pp(l.fn(name), u(ctx), u(h))
	return l.check(ctx)
}

// model takes a reference on a freshly returned model handle.
func (l *Library) model(ctx native.Handle, m C.uintptr_t) (native.Handle, error) {
	h, err := l.handle(ctx, m, "get_model")
	if err != nil {
		return 0, err
	}
	C.t_v_pp(l.fn("Z3_model_inc_ref"), u(ctx), m)
	return h, l.check(ctx)
}

// vector copies an ast_vector into a slice and releases the vector.
func (l *Library) vector(ctx native.Handle, v C.uintptr_t) ([]native.Handle, error) {
	if err := l.check(ctx); err != nil {
		return nil, err
	}
	if v == 0 {
		return nil, nil
	}
	C.t_v_pp(l.fn("Z3_ast_vector_inc_ref"), u(ctx), v)
	defer C.t_v_pp(l.fn("Z3_ast_vector_dec_ref"), u(ctx), v)

	n := C.t_u_pp(l.fn("Z3_ast_vector_size"), u(ctx), v)
	out := make([]native.Handle, 0, int(n))
	for i := C.uint(0); i < n; i++ {
		out = append(out, native.Handle(C.t_p_ppu(l.fn("Z3_ast_vector_get"), u(ctx), v, i)))
	}
	return out, l.check(ctx)
}

// withParams builds a Z3_params object, hands it to apply and releases it.
func (l *Library) withParams(ctx native.Handle, params []native.Param, apply func(C.uintptr_t)) error {
	if err := l.live(); err != nil {
		return err
	}
	p := C.t_p_p(l.fn("Z3_mk_params"), u(ctx))
	if err := l.check(ctx); err != nil {
		return err
	}
	C.t_v_pp(l.fn("Z3_params_inc_ref"), u(ctx), p)
	defer C.t_v_pp(l.fn("Z3_params_dec_ref"), u(ctx), p)

	for _, prm := range params {
		cname := C.CString(prm.Name)
		key := C.t_p_ps(l.fn("Z3_mk_string_symbol"), u(ctx), cname)
		C.free(unsafe.Pointer(cname))

		switch v := prm.Value.(type) {
		case bool:
			C.t_v_pppb(l.fn("Z3_params_set_bool"), u(ctx), p, key, cbool(v))
		case uint32:
			C.t_v_pppu(l.fn("Z3_params_set_uint"), u(ctx), p, key, C.uint(v))
		case float64:
			C.t_v_pppd(l.fn("Z3_params_set_double"), u(ctx), p, key, C.double(v))
		case string:
			cv := C.CString(v)
			sym := C.t_p_ps(l.fn("Z3_mk_string_symbol"), u(ctx), cv)
			C.free(unsafe.Pointer(cv))
			C.t_v_pppp(l.fn("Z3_params_set_symbol"), u(ctx), p, key, sym)
		default:
			return native.Errorf(native.InvalidArg, "parameter %s has unsupported type %T", prm.Name, prm.Value)
		}
		if err := l.check(ctx); err != nil {
			return err
		}
	}
	apply(p)
	return l.check(ctx)
}
