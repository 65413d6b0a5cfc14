package z3

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/typedz3/z3/errors"
)

// watchDebounce is how long the file has to stay quiet before a reload.
var watchDebounce = 250 * time.Millisecond

// LibraryWatcher reloads the engine when its shared library changes on
// disk and makes the new load the default library. Contexts created before
// the reload keep running on the old library until they close.
//
// Replace the library by writing a new file and renaming it over the old
// path. The dynamic loader hands back the already mapped image for a path
// that is rewritten in place, so such a reload may keep running old code.
// Events are debounced, so a copy that takes several writes reloads once.
type LibraryWatcher struct {
	w     *fsnotify.Watcher
	path  string
	opts  []LoadOption
	log   *zap.Logger
	delay time.Duration

	reloads chan *Library
	errs    chan error
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// WatchLibrary starts watching the library at path. opts are used for every
// reload.
func WatchLibrary(path string, opts ...LoadOption) (*LibraryWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.KindInvalidArgument, errors.ResourceLibrary, "WatchLibrary", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.KindUnsupported, errors.ResourceLibrary, "WatchLibrary", err)
	}
	// Watch the directory: installers usually replace the file by rename,
	// which drops a watch on the file itself.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.NotFound(errors.ResourceLibrary, filepath.Dir(abs), err)
	}
	lw := &LibraryWatcher{
		w:       w,
		path:    abs,
		opts:    opts,
		log:     applyLoadOptions(opts).logger,
		delay:   watchDebounce,
		reloads: make(chan *Library, 8),
		errs:    make(chan error, 8),
		done:    make(chan struct{}),
	}
	lw.wg.Add(1)
	go lw.loop()
	return lw, nil
}

// Reloaded delivers every library the watcher installed as the default.
func (lw *LibraryWatcher) Reloaded() <-chan *Library { return lw.reloads }

// Errors delivers reload and watch failures.
func (lw *LibraryWatcher) Errors() <-chan error { return lw.errs }

// Path returns the watched library path.
func (lw *LibraryWatcher) Path() string { return lw.path }

// Close stops watching. Libraries already installed stay the default.
func (lw *LibraryWatcher) Close() error {
	var err error
	lw.once.Do(func() {
		close(lw.done)
		err = lw.w.Close()
		lw.wg.Wait()
	})
	return err
}

func (lw *LibraryWatcher) loop() {
	defer lw.wg.Done()
	var settle <-chan time.Time
	for {
		select {
		case <-lw.done:
			return
		case <-settle:
			settle = nil
			lw.reload()
		case ev, ok := <-lw.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != lw.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			settle = time.After(lw.delay)
		case err, ok := <-lw.w.Errors:
			if !ok {
				return
			}
			lw.report(errors.Wrap(errors.KindNative, errors.ResourceLibrary, "watch", err))
		}
	}
}

func (lw *LibraryWatcher) reload() {
	l, err := LoadLibrary(lw.path, lw.opts...)
	if err != nil {
		lw.log.Warn("library reload failed", zap.String("path", lw.path), zap.Error(err))
		lw.report(err)
		return
	}
	SetDefaultLibrary(l)
	lw.log.Debug("library reloaded", zap.String("path", lw.path), zap.Stringer("version", l.Version()))
	select {
	case lw.reloads <- l:
	default:
	}
}

func (lw *LibraryWatcher) report(err error) {
	select {
	case lw.errs <- err:
	default:
	}
}
