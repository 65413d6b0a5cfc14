package z3

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/typedz3/z3/errors"
	"github.com/typedz3/z3/native"
	"github.com/typedz3/z3/native/dl"
)

// EnvLibraryPath names the environment variable read by LoadDefaultLibrary.
const EnvLibraryPath = "Z3_LIBRARY_PATH"

// DefaultVersionConstraint is the engine range accepted by LoadLibrary.
// 4.8.0 is the first release whose C API uses bool for Z3_bool.
const DefaultVersionConstraint = ">= 4.8.0"

// Library is a loaded engine. Any number of contexts may share one; each
// holds a reference, and the engine is unloaded once the library has been
// closed or retired and the last of those contexts is gone.
type Library struct {
	impl    native.Library
	version *semver.Version
	log     *zap.Logger

	mu      sync.Mutex
	refs    int
	retired bool
	closed  bool

	logMu   sync.Mutex
	logOpen bool
}

// LoadOption configures LoadLibrary and OpenLibrary.
type LoadOption func(*loadOptions)

type loadOptions struct {
	constraint string
	opener     func(path string) (native.Library, error)
	logger     *zap.Logger
}

// WithVersionConstraint replaces DefaultVersionConstraint. The constraint
// uses Masterminds semver syntax, e.g. ">= 4.12, < 5".
func WithVersionConstraint(c string) LoadOption {
	return func(o *loadOptions) { o.constraint = c }
}

// WithOpener replaces the dlopen based loader used by LoadLibrary.
func WithOpener(fn func(path string) (native.Library, error)) LoadOption {
	return func(o *loadOptions) { o.opener = fn }
}

// WithLibraryLogger sets the logger for library lifecycle events.
func WithLibraryLogger(l *zap.Logger) LoadOption {
	return func(o *loadOptions) { o.logger = l }
}

func openDL(path string) (native.Library, error) {
	l, err := dl.Open(path)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func applyLoadOptions(opts []LoadOption) loadOptions {
	o := loadOptions{constraint: DefaultVersionConstraint, opener: openDL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = Logger()
	}
	return o
}

// LoadLibrary loads the engine from the shared library at path.
func LoadLibrary(path string, opts ...LoadOption) (*Library, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.InvalidArgument(errors.ResourceLibrary, "LoadLibrary", "library path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NotFound(errors.ResourceLibrary, path, err)
	}

	o := applyLoadOptions(opts)
	impl, err := o.opener(path)
	if err != nil {
		if errors.KindOf(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.KindNative, errors.ResourceLibrary, "LoadLibrary", err)
	}
	return openLibrary(impl, o)
}

// LoadDefaultLibrary loads the engine named by $Z3_LIBRARY_PATH.
func LoadDefaultLibrary(opts ...LoadOption) (*Library, error) {
	return LoadLibrary(os.Getenv(EnvLibraryPath), opts...)
}

// OpenLibrary wraps an already loaded engine. The Library takes ownership of
// impl and closes it when it is unloaded, including when the version check
// fails.
func OpenLibrary(impl native.Library, opts ...LoadOption) (*Library, error) {
	return openLibrary(impl, applyLoadOptions(opts))
}

func openLibrary(impl native.Library, o loadOptions) (*Library, error) {
	constraint, err := semver.NewConstraint(o.constraint)
	if err != nil {
		impl.Close()
		return nil, errors.New(errors.KindInvalidArgument).
			Resource(errors.ResourceLibrary).
			Op("OpenLibrary").
			Detail("bad version constraint %q", o.constraint).
			Cause(err).
			Build()
	}
	version, err := semver.NewVersion(impl.Version().String())
	if err != nil {
		impl.Close()
		return nil, errors.Wrap(errors.KindNative, errors.ResourceLibrary, "OpenLibrary", err)
	}
	if !constraint.Check(version) {
		impl.Close()
		return nil, errors.Unsupported(errors.ResourceLibrary,
			fmt.Sprintf("engine %s at %s does not satisfy %s", version, impl.Path(), o.constraint))
	}

	l := &Library{impl: impl, version: version, log: o.logger}
	l.log.Debug("library loaded",
		zap.String("path", impl.Path()),
		zap.String("version", version.String()))
	return l, nil
}

// Path returns the file the engine was loaded from.
func (l *Library) Path() string { return l.impl.Path() }

// Version returns the engine version.
func (l *Library) Version() *semver.Version { return l.version }

func (l *Library) String() string {
	return fmt.Sprintf("z3 %s (%s)", l.version, l.impl.Path())
}

// Closed reports whether the engine has been unloaded.
func (l *Library) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Close releases the caller's hold on the library. The engine is unloaded
// immediately when no context uses it, otherwise when the last one closes.
// Contexts can no longer be created from a closed library.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.retired {
		return nil
	}
	l.retired = true
	if l.refs == 0 {
		return l.unloadLocked()
	}
	return nil
}

func (l *Library) acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.retired {
		return errors.Disposed(errors.ResourceLibrary, "acquire")
	}
	l.refs++
	return nil
}

func (l *Library) release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refs--
	if l.refs == 0 && l.retired && !l.closed {
		return l.unloadLocked()
	}
	return nil
}

func (l *Library) unloadLocked() error {
	l.closed = true
	l.log.Debug("library unloaded", zap.String("path", l.impl.Path()))
	if err := l.impl.Close(); err != nil {
		return errors.Wrap(errors.KindNative, errors.ResourceLibrary, "Close", err)
	}
	return nil
}

var defaultLibrary atomic.Pointer[Library]

// DefaultLibrary returns the library NewContext uses when none is given,
// or nil.
func DefaultLibrary() *Library {
	return defaultLibrary.Load()
}

// SetDefaultLibrary makes l the process default and retires the previous
// default, which is unloaded once its last context closes. Contexts already
// running on the old library are unaffected.
func SetDefaultLibrary(l *Library) {
	old := defaultLibrary.Swap(l)
	if old == nil || old == l {
		return
	}
	old.log.Debug("library retired", zap.String("path", old.impl.Path()))
	if err := old.Close(); err != nil {
		old.log.Warn("unloading retired library failed", zap.Error(err))
	}
}

// acquireDefault takes a reference on the default library, loading it from
// $Z3_LIBRARY_PATH on first use. A library retired between the load and the
// acquire is skipped in favour of its replacement.
func acquireDefault() (*Library, error) {
	for {
		l := defaultLibrary.Load()
		if l == nil {
			if os.Getenv(EnvLibraryPath) == "" {
				return nil, errors.New(errors.KindNotFound).
					Resource(errors.ResourceLibrary).
					Op("NewContext").
					Detail("no default library; call SetDefaultLibrary or set %s", EnvLibraryPath).
					Build()
			}
			loaded, err := LoadDefaultLibrary()
			if err != nil {
				return nil, err
			}
			if !defaultLibrary.CompareAndSwap(nil, loaded) {
				loaded.Close()
			}
			continue
		}
		err := l.acquire()
		if err == nil {
			return l, nil
		}
		if defaultLibrary.Load() == l {
			return nil, err
		}
	}
}

// OpenLog starts the engine's interaction log. The log is process wide.
func (l *Library) OpenLog(path string) error {
	l.logMu.Lock()
	defer l.logMu.Unlock()
	if err := l.impl.OpenLog(path); err != nil {
		return wrapNative(errors.ResourceLibrary, "OpenLog", err)
	}
	l.logOpen = true
	return nil
}

// AppendLog appends a user-provided string to the interaction log.
// It fails if the log is not open.
func (l *Library) AppendLog(s string) error {
	l.logMu.Lock()
	defer l.logMu.Unlock()
	if !l.logOpen {
		return errors.InvalidState(errors.ResourceLibrary, "AppendLog", "log is not open")
	}
	return wrapNative(errors.ResourceLibrary, "AppendLog", l.impl.AppendLog(s))
}

// CloseLog closes the interaction log.
func (l *Library) CloseLog() error {
	l.logMu.Lock()
	defer l.logMu.Unlock()
	if !l.logOpen {
		return nil
	}
	l.logOpen = false
	return wrapNative(errors.ResourceLibrary, "CloseLog", l.impl.CloseLog())
}

// IsLogOpen returns true if the interaction log is open.
func (l *Library) IsLogOpen() bool {
	l.logMu.Lock()
	defer l.logMu.Unlock()
	return l.logOpen
}

// wrapNative turns an engine failure into a KindNative error carrying the
// engine's code. Errors that are already classified pass through.
func wrapNative(r errors.Resource, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *errors.Error
	if errors.As(err, &e) {
		return e
	}
	var ne *native.Error
	if errors.As(err, &ne) {
		out := errors.Native(op, int(ne.Code), ne.Message, ne)
		out.Resource = r
		return out
	}
	return errors.Wrap(errors.KindNative, r, op, err)
}
