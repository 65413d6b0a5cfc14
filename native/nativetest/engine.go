// Package nativetest provides an in-memory engine implementing
// native.Library.
//
// It is a test double, not a solver. Terms are type-checked and hash-consed
// like the real engine does, ground terms evaluate exactly (bit-vectors,
// unbounded integers, rationals, arrays) and Check decides problems whose
// constants are fixed by top-level equalities. Anything else comes back as
// unknown.
//
// The engine also audits how it is driven: releasing a handle twice, using a
// handle after its context was deleted, or unloading the library while
// contexts are live is recorded as a violation instead of crashing.
package nativetest

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/typedz3/z3/native"
)

// Option configures an Engine.
type Option func(*Engine)

// WithVersion sets the version the engine reports.
func WithVersion(v native.Version) Option {
	return func(e *Engine) { e.version = v }
}

// WithPath sets the path the engine reports.
func WithPath(p string) Option {
	return func(e *Engine) { e.path = p }
}

// Engine is an in-memory native.Library. It is safe for concurrent use.
type Engine struct {
	mu         sync.Mutex
	path       string
	version    native.Version
	next       native.Handle
	closed     bool
	contexts   map[native.Handle]*context
	dead       map[native.Handle]string
	violations []string
	releases   map[string]int
	failures   map[string]*native.Error
	logOpen    bool
	logBuf     strings.Builder
}

var _ native.Library = (*Engine)(nil)

// New creates an engine reporting version 4.13.0.
func New(opts ...Option) *Engine {
	e := &Engine{
		path:     "nativetest",
		version:  native.Version{Major: 4, Minor: 13, Build: 0},
		contexts: make(map[native.Handle]*context),
		dead:     make(map[native.Handle]string),
		releases: make(map[string]int),
		failures: make(map[string]*native.Error),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) alloc() native.Handle {
	e.next++
	return e.next
}

func (e *Engine) violate(format string, args ...any) {
	e.violations = append(e.violations, fmt.Sprintf(format, args...))
}

// Fail makes the next call of the named method (e.g. "MkContext",
// "SolverCheck") return an engine error with the given code.
func (e *Engine) Fail(method string, code native.ErrorCode, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[method] = &native.Error{Code: code, Message: msg}
}

// Violations returns every misuse recorded so far.
func (e *Engine) Violations() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.violations...)
}

// Releases counts release calls per object kind: "context", "solver",
// "optimize" and "model".
func (e *Engine) Releases(kind string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.releases[kind]
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// LiveContexts returns the number of contexts not yet deleted.
func (e *Engine) LiveContexts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.contexts)
}

// LiveSolvers returns the number of solvers not yet released.
func (e *Engine) LiveSolvers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.contexts {
		n += len(c.solvers)
	}
	return n
}

// LiveOptimizers returns the number of optimizers not yet released.
func (e *Engine) LiveOptimizers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.contexts {
		n += len(c.optimizers)
	}
	return n
}

// LiveModels returns the number of models not yet released.
func (e *Engine) LiveModels() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.contexts {
		n += len(c.models)
	}
	return n
}

// Log returns everything appended to the interaction log.
func (e *Engine) Log() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.logBuf.String()
}

// enter is called with mu held at the start of every engine call.
func (e *Engine) enter(method string) error {
	if e.closed {
		e.violate("%s called after library close", method)
		return native.Errorf(native.InvalidUsage, "library has been unloaded")
	}
	if err, ok := e.failures[method]; ok {
		delete(e.failures, method)
		return err
	}
	return nil
}

func (e *Engine) lookup(method string, h native.Handle) (*context, error) {
	if err := e.enter(method); err != nil {
		return nil, err
	}
	c, ok := e.contexts[h]
	if !ok {
		if what, gone := e.dead[h]; gone {
			e.violate("%s on deleted %s %#x", method, what, uintptr(h))
		} else {
			e.violate("%s on unknown context %#x", method, uintptr(h))
		}
		return nil, native.Errorf(native.InvalidArg, "invalid context")
	}
	return c, nil
}

// Path implements native.Library.
func (e *Engine) Path() string { return e.path }

// Version implements native.Library.
func (e *Engine) Version() native.Version { return e.version }

// Close implements native.Library.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		e.violate("library closed twice")
		return nil
	}
	if n := len(e.contexts); n > 0 {
		e.violate("library closed with %d live contexts", n)
	}
	e.closed = true
	return nil
}

// MkContext implements native.Library.
func (e *Engine) MkContext(config map[string]string) (native.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("MkContext"); err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !knownParam(k) {
			return 0, native.Errorf(native.InvalidArg, "unknown parameter '%s'", k)
		}
	}
	c := newContext(e, e.alloc(), config)
	e.contexts[c.id] = c
	return c.id, nil
}

// DelContext implements native.Library.
func (e *Engine) DelContext(ctx native.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup("DelContext", ctx)
	if err != nil {
		return err
	}
	for h := range c.solvers {
		e.dead[h] = "solver"
	}
	for h := range c.optimizers {
		e.dead[h] = "optimize"
	}
	for h := range c.models {
		e.dead[h] = "model"
	}
	e.dead[ctx] = "context"
	delete(e.contexts, ctx)
	e.releases["context"]++
	return nil
}

// UpdateParam implements native.Library.
func (e *Engine) UpdateParam(ctx native.Handle, name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup("UpdateParam", ctx)
	if err != nil {
		return err
	}
	if !knownParam(name) {
		return native.Errorf(native.InvalidArg, "unknown parameter '%s'", name)
	}
	c.params[name] = value
	return nil
}

// IncRef implements native.Library.
func (e *Engine) IncRef(ctx, ast native.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup("IncRef", ctx)
	if err != nil {
		return err
	}
	if _, ok := c.nodes[ast]; !ok {
		e.violate("IncRef on unknown ast %#x", uintptr(ast))
		return native.Errorf(native.InvalidArg, "invalid ast")
	}
	c.refs[ast]++
	return nil
}

// DecRef implements native.Library.
func (e *Engine) DecRef(ctx, ast native.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.lookup("DecRef", ctx)
	if err != nil {
		return err
	}
	if c.refs[ast] <= 0 {
		e.violate("DecRef below zero on ast %#x", uintptr(ast))
		return native.Errorf(native.DecRefError, "reference count underflow")
	}
	c.refs[ast]--
	return nil
}

// OpenLog implements native.Library.
func (e *Engine) OpenLog(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("OpenLog"); err != nil {
		return err
	}
	if path == "" {
		return native.Errorf(native.FileAccessError, "cannot open log file")
	}
	e.logOpen = true
	return nil
}

// AppendLog implements native.Library.
func (e *Engine) AppendLog(s string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("AppendLog"); err != nil {
		return err
	}
	if !e.logOpen {
		return native.Errorf(native.InvalidUsage, "log is not open")
	}
	e.logBuf.WriteString(s)
	e.logBuf.WriteByte('\n')
	return nil
}

// CloseLog implements native.Library.
func (e *Engine) CloseLog() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("CloseLog"); err != nil {
		return err
	}
	e.logOpen = false
	return nil
}

var params = map[string]bool{
	"auto_config":       true,
	"debug_ref_count":   true,
	"dump_models":       true,
	"model":             true,
	"model_validate":    true,
	"proof":             true,
	"random_seed":       true,
	"rlimit":            true,
	"smtlib2_compliant": true,
	"timeout":           true,
	"trace":             true,
	"type_check":        true,
	"unsat_core":        true,
	"well_sorted_check": true,
	"encoding":          true,
}

func knownParam(name string) bool {
	return params[name]
}
