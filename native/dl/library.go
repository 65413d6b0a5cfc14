//go:build cgo

// Package dl loads libz3 at run time with dlopen and implements
// native.Library on top of the resolved C API.
//
// Nothing is linked against libz3 at build time; the engine a process uses
// is chosen by path when it is opened. Each context gets a null error
// handler, so engine failures come back as *native.Error instead of
// aborting the process.
package dl

/*
#cgo linux LDFLAGS: -ldl
#include "trampoline.h"
*/
import "C"

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"unsafe"

	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/native"
)

// Library is a dlopen'ed libz3.
type Library struct {
	path    string
	dlh     unsafe.Pointer
	syms    map[string]unsafe.Pointer
	version native.Version
	closed  atomic.Bool
}

var _ native.Library = (*Library)(nil)

// Open loads the shared library at path and resolves every entry point the
// binding uses. A library missing any of them is rejected.
func Open(path string) (*Library, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	h := C.z3dl_open(cpath)
	if h == nil {
		return nil, errors.New(errors.KindNotFound).
			Resource(errors.ResourceLibrary).
			Op("Open").
			Detail("dlopen %s: %s", path, C.GoString(C.z3dl_error())).
			Build()
	}

	l := &Library{path: path, dlh: h, syms: make(map[string]unsafe.Pointer, len(symbols))}
	var missing []string
	for _, name := range symbols {
		cname := C.CString(name)
		p := C.z3dl_sym(h, cname)
		C.free(unsafe.Pointer(cname))
		if p == nil {
			missing = append(missing, name)
			continue
		}
		l.syms[name] = p
	}
	if len(missing) > 0 {
		C.z3dl_close(h)
		sort.Strings(missing)
		return nil, errors.Unsupported(errors.ResourceLibrary,
			fmt.Sprintf("%s lacks %s", path, strings.Join(missing, ", ")))
	}

	var major, minor, build, rev C.uint
	C.t_v_uuuu(l.fn("Z3_get_version"), &major, &minor, &build, &rev)
	l.version = native.Version{
		Major:    uint32(major),
		Minor:    uint32(minor),
		Build:    uint32(build),
		Revision: uint32(rev),
	}
	return l, nil
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string { return l.path }

// Version returns the engine version reported by Z3_get_version.
func (l *Library) Version() native.Version { return l.version }

// Close unloads the library. It is safe to call more than once.
func (l *Library) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	if C.z3dl_close(l.dlh) != 0 {
		return errors.New(errors.KindNative).
			Resource(errors.ResourceLibrary).
			Op("Close").
			Detail("dlclose %s: %s", l.path, C.GoString(C.z3dl_error())).
			Build()
	}
	return nil
}

func (l *Library) fn(name string) unsafe.Pointer {
	p, ok := l.syms[name]
	if !ok {
		panic("dl: unresolved symbol " + name)
	}
	return p
}

func (l *Library) live() error {
	if l.closed.Load() {
		return errors.Disposed(errors.ResourceLibrary, "call")
	}
	return nil
}

// check reads the context's last error code and turns it into an error.
func (l *Library) check(ctx native.Handle) error {
	code := C.t_i_p(l.fn("Z3_get_error_code"), u(ctx))
	if code == 0 {
		return nil
	}
	msg := C.GoString(C.t_s_pi(l.fn("Z3_get_error_msg"), u(ctx), code))
	return &native.Error{Code: native.ErrorCode(code), Message: msg}
}

// handle returns h, or the pending error, or a generic error when the engine
// returned null without setting a code.
func (l *Library) handle(ctx native.Handle, h C.uintptr_t, what string) (native.Handle, error) {
	if err := l.check(ctx); err != nil {
		return 0, err
	}
	if h == 0 {
		return 0, native.Errorf(native.Exception, "%s returned null", what)
	}
	return native.Handle(h), nil
}

func u(h native.Handle) C.uintptr_t { return C.uintptr_t(h) }

func cbool(b bool) C.bool { return C.bool(b) }

func handles(hs []native.Handle) (C.uint, *C.uintptr_t) {
	if len(hs) == 0 {
		return 0, nil
	}
	return C.uint(len(hs)), (*C.uintptr_t)(unsafe.Pointer(&hs[0]))
}

// MkContext builds a config, applies the settings and creates a
// reference-counted context from it.
func (l *Library) MkContext(config map[string]string) (native.Handle, error) {
	if err := l.live(); err != nil {
		return 0, err
	}
	cfg := C.t_p_v(l.fn("Z3_mk_config"))
	if cfg == 0 {
		return 0, native.Errorf(native.MemoutFail, "Z3_mk_config returned null")
	}
	defer C.t_v_p(l.fn("Z3_del_config"), cfg)

	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ck, cv := C.CString(k), C.CString(config[k])
		C.t_v_pss(l.fn("Z3_set_param_value"), cfg, ck, cv)
		C.free(unsafe.Pointer(ck))
		C.free(unsafe.Pointer(cv))
	}

	ctx := C.t_p_p(l.fn("Z3_mk_context_rc"), cfg)
	if ctx == 0 {
		return 0, native.Errorf(native.Exception, "Z3_mk_context_rc returned null")
	}
	C.t_v_pp(l.fn("Z3_set_error_handler"), ctx, 0)
	return native.Handle(ctx), nil
}

// DelContext deletes the context and everything it owns.
func (l *Library) DelContext(ctx native.Handle) error {
	if err := l.live(); err != nil {
		return err
	}
	C.t_v_p(l.fn("Z3_del_context"), u(ctx))
	return nil
}

// UpdateParam changes a context parameter after creation.
func (l *Library) UpdateParam(ctx native.Handle, name, value string) error {
	if err := l.live(); err != nil {
		return err
	}
	cn, cv := C.CString(name), C.CString(value)
	defer C.free(unsafe.Pointer(cn))
	defer C.free(unsafe.Pointer(cv))
	C.t_v_pss(l.fn("Z3_update_param_value"), u(ctx), cn, cv)
	return l.check(ctx)
}

func (l *Library) IncRef(ctx, ast native.Handle) error {
	if err := l.live(); err != nil {
		return err
	}
	C.t_v_pp(l.fn("Z3_inc_ref"), u(ctx), u(ast))
	return l.check(ctx)
}

func (l *Library) DecRef(ctx, ast native.Handle) error {
	if err := l.live(); err != nil {
		return err
	}
	C.t_v_pp(l.fn("Z3_dec_ref"), u(ctx), u(ast))
	return l.check(ctx)
}

// OpenLog starts the engine's interaction log at path.
func (l *Library) OpenLog(path string) error {
	if err := l.live(); err != nil {
		return err
	}
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	if !bool(C.t_b_s(l.fn("Z3_open_log"), cpath)) {
		return native.Errorf(native.FileAccessError, "cannot open log %s", path)
	}
	return nil
}

// AppendLog writes a comment line to the interaction log.
func (l *Library) AppendLog(s string) error {
	if err := l.live(); err != nil {
		return err
	}
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	C.t_v_s(l.fn("Z3_append_log"), cs)
	return nil
}

// CloseLog stops the interaction log.
func (l *Library) CloseLog() error {
	if err := l.live(); err != nil {
		return err
	}
	C.t_v_v(l.fn("Z3_close_log"))
	return nil
}
