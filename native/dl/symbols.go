//go:build cgo

package dl

// symbols lists every entry point resolved at Open.
var symbols = []string{
	"Z3_append_log",
	"Z3_ast_to_string",
	"Z3_ast_vector_dec_ref",
	"Z3_ast_vector_get",
	"Z3_ast_vector_inc_ref",
	"Z3_ast_vector_size",
	"Z3_close_log",
	"Z3_dec_ref",
	"Z3_del_config",
	"Z3_del_context",
	"Z3_get_bool_value",
	"Z3_get_bv_sort_size",
	"Z3_get_error_code",
	"Z3_get_error_msg",
	"Z3_get_numeral_string",
	"Z3_get_sort",
	"Z3_get_sort_kind",
	"Z3_get_version",
	"Z3_inc_ref",
	"Z3_mk_add",
	"Z3_mk_and",
	"Z3_mk_array_sort",
	"Z3_mk_bool_sort",
	"Z3_mk_bv2int",
	"Z3_mk_bv_sort",
	"Z3_mk_bvadd",
	"Z3_mk_bvadd_no_overflow",
	"Z3_mk_bvadd_no_underflow",
	"Z3_mk_bvand",
	"Z3_mk_bvashr",
	"Z3_mk_bvlshr",
	"Z3_mk_bvmul",
	"Z3_mk_bvmul_no_overflow",
	"Z3_mk_bvmul_no_underflow",
	"Z3_mk_bvneg",
	"Z3_mk_bvneg_no_overflow",
	"Z3_mk_bvnot",
	"Z3_mk_bvor",
	"Z3_mk_bvsdiv",
	"Z3_mk_bvsdiv_no_overflow",
	"Z3_mk_bvsge",
	"Z3_mk_bvsgt",
	"Z3_mk_bvshl",
	"Z3_mk_bvsle",
	"Z3_mk_bvslt",
	"Z3_mk_bvsmod",
	"Z3_mk_bvsrem",
	"Z3_mk_bvsub",
	"Z3_mk_bvsub_no_overflow",
	"Z3_mk_bvsub_no_underflow",
	"Z3_mk_bvudiv",
	"Z3_mk_bvuge",
	"Z3_mk_bvugt",
	"Z3_mk_bvule",
	"Z3_mk_bvult",
	"Z3_mk_bvurem",
	"Z3_mk_bvxor",
	"Z3_mk_concat",
	"Z3_mk_config",
	"Z3_mk_const",
	"Z3_mk_const_array",
	"Z3_mk_context_rc",
	"Z3_mk_distinct",
	"Z3_mk_div",
	"Z3_mk_eq",
	"Z3_mk_extract",
	"Z3_mk_false",
	"Z3_mk_ge",
	"Z3_mk_gt",
	"Z3_mk_iff",
	"Z3_mk_implies",
	"Z3_mk_int2bv",
	"Z3_mk_int2real",
	"Z3_mk_int_sort",
	"Z3_mk_is_int",
	"Z3_mk_ite",
	"Z3_mk_le",
	"Z3_mk_lt",
	"Z3_mk_mod",
	"Z3_mk_mul",
	"Z3_mk_not",
	"Z3_mk_numeral",
	"Z3_mk_optimize",
	"Z3_mk_or",
	"Z3_mk_params",
	"Z3_mk_real2int",
	"Z3_mk_real_sort",
	"Z3_mk_rem",
	"Z3_mk_repeat",
	"Z3_mk_rotate_left",
	"Z3_mk_rotate_right",
	"Z3_mk_select",
	"Z3_mk_sign_ext",
	"Z3_mk_simple_solver",
	"Z3_mk_solver",
	"Z3_mk_store",
	"Z3_mk_string_symbol",
	"Z3_mk_sub",
	"Z3_mk_true",
	"Z3_mk_unary_minus",
	"Z3_mk_xor",
	"Z3_mk_zero_ext",
	"Z3_model_dec_ref",
	"Z3_model_eval",
	"Z3_model_inc_ref",
	"Z3_model_to_string",
	"Z3_open_log",
	"Z3_optimize_assert",
	"Z3_optimize_assert_soft",
	"Z3_optimize_check",
	"Z3_optimize_dec_ref",
	"Z3_optimize_get_lower",
	"Z3_optimize_get_model",
	"Z3_optimize_get_reason_unknown",
	"Z3_optimize_get_upper",
	"Z3_optimize_inc_ref",
	"Z3_optimize_maximize",
	"Z3_optimize_minimize",
	"Z3_optimize_pop",
	"Z3_optimize_push",
	"Z3_optimize_set_params",
	"Z3_optimize_to_string",
	"Z3_params_dec_ref",
	"Z3_params_inc_ref",
	"Z3_params_set_bool",
	"Z3_params_set_double",
	"Z3_params_set_symbol",
	"Z3_params_set_uint",
	"Z3_set_error_handler",
	"Z3_set_param_value",
	"Z3_simplify",
	"Z3_solver_assert",
	"Z3_solver_check",
	"Z3_solver_check_assumptions",
	"Z3_solver_dec_ref",
	"Z3_solver_from_string",
	"Z3_solver_get_assertions",
	"Z3_solver_get_model",
	"Z3_solver_get_num_scopes",
	"Z3_solver_get_proof",
	"Z3_solver_get_reason_unknown",
	"Z3_solver_get_unsat_core",
	"Z3_solver_inc_ref",
	"Z3_solver_pop",
	"Z3_solver_push",
	"Z3_solver_reset",
	"Z3_solver_set_params",
	"Z3_solver_to_string",
	"Z3_sort_to_string",
	"Z3_update_param_value",
}
