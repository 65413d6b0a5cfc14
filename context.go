package z3

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/internal/disposable"
	"github.com/typedz3/z3/native"
)

// Option configures NewContext.
type Option func(*contextOptions)

type contextOptions struct {
	lib    *Library
	params map[string]string
	logger *zap.Logger
}

// WithLibrary creates the context on l instead of the default library.
func WithLibrary(l *Library) Option {
	return func(o *contextOptions) { o.lib = l }
}

// WithParams sets configuration parameters applied before the context is
// created, e.g. {"model": "true", "proof": "true"}.
func WithParams(params map[string]string) Option {
	return func(o *contextOptions) {
		for k, v := range params {
			o.params[k] = v
		}
	}
}

// WithParam sets one configuration parameter.
func WithParam(name, value string) Option {
	return func(o *contextOptions) { o.params[name] = value }
}

// WithLogger sets the logger for this context and everything it creates.
func WithLogger(l *zap.Logger) Option {
	return func(o *contextOptions) { o.logger = l }
}

// Context represents a Z3 logical context.
//
// A Context owns every solver, optimizer and model created from it. Closing
// it closes them too, in no particular order, before the native context is
// deleted. Expressions are not closed individually; they live until their
// context closes.
//
// A Context is not safe for concurrent use. Use one per goroutine.
type Context struct {
	st *ctxState
}

// ctxState is everything a Context owns. Children point here rather than at
// the Context wrapper, so tracking a child never keeps the wrapper (and its
// finalizer) alive.
type ctxState struct {
	guard disposable.Guard
	lib   *Library
	api   native.Library
	h     native.Handle
	log   *zap.Logger

	mu       sync.Mutex
	children map[*tracked]struct{}
	pending  []*tracked // released by finalizers, waiting for the owner goroutine

	// Touched only by the goroutine using the context.
	pinned map[native.Handle]struct{}
	sorts  map[sortKey]native.Handle
}

type sortKey struct {
	kind     native.SortKind
	width    uint32
	dom, rng native.Handle
}

// NewContext creates a context on the library chosen by the options, or on
// the default library.
func NewContext(opts ...Option) (*Context, error) {
	o := contextOptions{params: make(map[string]string)}
	for _, opt := range opts {
		opt(&o)
	}

	lib := o.lib
	var err error
	if lib != nil {
		err = lib.acquire()
	} else {
		lib, err = acquireDefault()
	}
	if err != nil {
		return nil, err
	}

	h, err := lib.impl.MkContext(o.params)
	if err != nil {
		if rerr := lib.release(); rerr != nil {
			err = multierr.Append(err, rerr)
		}
		return nil, wrapNative(errors.ResourceContext, "NewContext", err)
	}

	log := o.logger
	if log == nil {
		log = Logger()
	}
	st := &ctxState{
		lib:      lib,
		api:      lib.impl,
		h:        h,
		log:      log.With(zap.Uintptr("ctx", uintptr(h))),
		children: make(map[*tracked]struct{}),
		pinned:   make(map[native.Handle]struct{}),
		sorts:    make(map[sortKey]native.Handle),
	}
	c := &Context{st: st}
	disposable.SetBackstop(c, &st.guard, func() {
		st.log.Warn("finalizer reclaimed an unclosed context")
		if err := st.close(); err != nil {
			st.log.Warn("closing leaked context failed", zap.Error(err))
		}
	})
	st.log.Debug("context created", zap.Int("params", len(o.params)))
	return c, nil
}

// Close closes every solver and optimizer created from the context, then
// deletes the native context and releases the library. It is safe to call
// more than once; only the first call does anything. Failures of individual
// children are collected and returned together once all were attempted.
func (c *Context) Close() error {
	disposable.ClearBackstop(c)
	return c.st.close()
}

func (st *ctxState) close() error {
	if !st.guard.MarkDisposed() {
		return nil
	}

	st.mu.Lock()
	children := make([]*tracked, 0, len(st.children))
	for t := range st.children {
		children = append(children, t)
	}
	st.pending = nil
	st.mu.Unlock()

	var errs error
	for _, t := range children {
		if t.guard.Disposed() {
			st.log.Debug("cascade skipped closed child", zap.String("kind", string(t.res)))
			continue
		}
		if err := t.dispose(); err != nil {
			st.log.Warn("closing child failed", zap.String("kind", string(t.res)), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}

	if err := st.api.DelContext(st.h); err != nil {
		errs = multierr.Append(errs, wrapNative(errors.ResourceContext, "Close", err))
	}
	if err := st.lib.release(); err != nil {
		errs = multierr.Append(errs, err)
	}
	st.log.Debug("context closed", zap.Int("children", len(children)))
	return errs
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool { return c.st.guard.Disposed() }

// Library returns the library the context was created on.
func (c *Context) Library() *Library { return c.st.lib }

func (c *Context) String() string {
	state := "open"
	if c.Closed() {
		state = "closed"
	}
	return fmt.Sprintf("Context(%#x, %s)", uintptr(c.st.h), state)
}

// SetParam sets a context parameter. The engine validates it.
func (c *Context) SetParam(name, value string) error {
	if err := c.ensure("SetParam"); err != nil {
		return err
	}
	return wrapNative(errors.ResourceContext, "SetParam", c.st.api.UpdateParam(c.st.h, name, value))
}

// ensure fails once the context is closed and otherwise releases children
// that finalizers gave up on.
func (c *Context) ensure(op string) error {
	if err := c.st.guard.Ensure(errors.ResourceContext, op); err != nil {
		return err
	}
	c.st.drain()
	return nil
}

func (st *ctxState) drain() {
	st.mu.Lock()
	if len(st.pending) == 0 {
		st.mu.Unlock()
		return
	}
	pending := st.pending
	st.pending = nil
	st.mu.Unlock()

	for _, t := range pending {
		if err := t.dispose(); err != nil {
			st.log.Warn("releasing leaked child failed", zap.String("kind", string(t.res)), zap.Error(err))
		}
	}
}

func (st *ctxState) enqueue(t *tracked) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.guard.Disposed() {
		return
	}
	st.log.Warn("finalizer reclaimed an unclosed child", zap.String("kind", string(t.res)))
	st.pending = append(st.pending, t)
}

// tracked is the part of a solver or optimizer the context keeps for the
// cascade.
type tracked struct {
	guard   disposable.Guard
	ctx     *ctxState
	h       native.Handle
	res     errors.Resource
	release func() error

	model   *modelState
	status  Status
	checked bool
}

func (st *ctxState) track(h native.Handle, res errors.Resource, release func() error) *tracked {
	t := &tracked{ctx: st, h: h, res: res, release: release}
	st.mu.Lock()
	st.children[t] = struct{}{}
	st.mu.Unlock()
	st.log.Debug("child created", zap.String("kind", string(res)))
	return t
}

// dispose releases the child once. It never touches the context guard, so
// the cascade can run it after the context was marked closed.
func (t *tracked) dispose() error {
	if !t.guard.MarkDisposed() {
		return nil
	}
	var errs error
	if err := t.invalidate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := t.release(); err != nil {
		errs = multierr.Append(errs, wrapNative(t.res, "Close", err))
	}
	t.ctx.mu.Lock()
	delete(t.ctx.children, t)
	t.ctx.mu.Unlock()
	t.ctx.log.Debug("child closed", zap.String("kind", string(t.res)))
	return errs
}

// invalidate drops the cached model and the last check result.
func (t *tracked) invalidate() error {
	t.checked = false
	t.status = Unknown
	m := t.model
	if m == nil {
		return nil
	}
	t.model = nil
	return m.invalidate()
}

func (t *tracked) ensure(op string) error {
	if err := t.guard.Ensure(t.res, op); err != nil {
		return err
	}
	if err := t.ctx.guard.Ensure(errors.ResourceContext, op); err != nil {
		return err
	}
	t.ctx.drain()
	return nil
}

// pin takes the context's single reference on an AST handle.
func (st *ctxState) pin(h native.Handle) error {
	if _, ok := st.pinned[h]; ok {
		return nil
	}
	if err := st.api.IncRef(st.h, h); err != nil {
		return err
	}
	st.pinned[h] = struct{}{}
	return nil
}

func (st *ctxState) sort(key sortKey, mk func() (native.Handle, error)) (native.Handle, error) {
	if h, ok := st.sorts[key]; ok {
		return h, nil
	}
	h, err := mk()
	if err != nil {
		return 0, wrapNative(errors.ResourceContext, "Sort", err)
	}
	if err := st.pin(h); err != nil {
		return 0, wrapNative(errors.ResourceContext, "Sort", err)
	}
	st.sorts[key] = h
	return h, nil
}

func (c *Context) boolSort() (native.Handle, error) {
	return c.st.sort(sortKey{kind: native.BoolSort}, func() (native.Handle, error) {
		return c.st.api.BoolSort(c.st.h)
	})
}

func (c *Context) intSort() (native.Handle, error) {
	return c.st.sort(sortKey{kind: native.IntSort}, func() (native.Handle, error) {
		return c.st.api.IntSort(c.st.h)
	})
}

func (c *Context) realSort() (native.Handle, error) {
	return c.st.sort(sortKey{kind: native.RealSort}, func() (native.Handle, error) {
		return c.st.api.RealSort(c.st.h)
	})
}

func (c *Context) bvSort(width uint32) (native.Handle, error) {
	return c.st.sort(sortKey{kind: native.BvSort, width: width}, func() (native.Handle, error) {
		return c.st.api.BvSort(c.st.h, width)
	})
}

func (c *Context) arraySort(dom, rng native.Handle) (native.Handle, error) {
	return c.st.sort(sortKey{kind: native.ArraySort, dom: dom, rng: rng}, func() (native.Handle, error) {
		return c.st.api.ArraySort(c.st.h, dom, rng)
	})
}

// expr pins h and wraps it. Builders call it with the result of an engine
// call and panic on failure; see Try.
func (c *Context) expr(op string, h native.Handle, err error) Expr {
	if err != nil {
		panic(wrapNative(errors.ResourceExpr, op, err))
	}
	if err := c.st.pin(h); err != nil {
		panic(wrapNative(errors.ResourceExpr, op, err))
	}
	return Expr{ctx: c, h: h}
}

// mustLive panics with a disposed error once the context is closed.
func (c *Context) mustLive(op string) {
	if err := c.ensure(op); err != nil {
		panic(err)
	}
}

func (c *Context) app(op native.Op, args ...Term) Expr {
	name := op.String()
	c.mustLive(name)
	hs := make([]native.Handle, len(args))
	for i, a := range args {
		hs[i] = c.own(name, a)
	}
	h, err := c.st.api.MkApp(c.st.h, op, hs...)
	return c.expr(name, h, err)
}

func (c *Context) indexed(op native.Op, arg Term, indices ...uint32) Expr {
	name := op.String()
	c.mustLive(name)
	h, err := c.st.api.MkIndexed(c.st.h, op, indices, c.own(name, arg))
	return c.expr(name, h, err)
}

// own returns t's handle after checking that t was built by c.
func (c *Context) own(op string, t Term) native.Handle {
	if t.Context() != c {
		panic(errors.InvalidArgument(errors.ResourceExpr, op, "operand %s belongs to a different context", t))
	}
	return t.Handle()
}

func (c *Context) numeral(op, literal string, sort func() (native.Handle, error)) Expr {
	c.mustLive(op)
	s, err := sort()
	if err != nil {
		panic(err)
	}
	h, err := c.st.api.MkNumeral(c.st.h, literal, s)
	return c.expr(op, h, err)
}

func (c *Context) constant(op, name string, sort func() (native.Handle, error)) (Expr, error) {
	if err := c.ensure(op); err != nil {
		return Expr{}, err
	}
	s, err := sort()
	if err != nil {
		return Expr{}, err
	}
	h, err := c.st.api.MkConst(c.st.h, name, s)
	if err != nil {
		return Expr{}, wrapNative(errors.ResourceExpr, op, err)
	}
	if err := c.st.pin(h); err != nil {
		return Expr{}, wrapNative(errors.ResourceExpr, op, err)
	}
	return Expr{ctx: c, h: h}, nil
}
