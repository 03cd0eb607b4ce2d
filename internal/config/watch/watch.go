// Package watch reloads a configuration file when it changes on disk.
package watch

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/semtrace/internal/config"
)

// DefaultDebounce collapses bursts of writes from editors that save in
// several steps.
const DefaultDebounce = 100 * time.Millisecond

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("watcher is closed")

// Handler receives each reloaded configuration, or the error that
// prevented loading it.
type Handler func(cfg *config.Config, err error)

// Watcher watches one configuration file. The file's directory is
// watched rather than the file itself so that atomic renames are seen.
type Watcher struct {
	path     string
	loader   *config.Loader
	handler  Handler
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	closed  bool

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLoader sets the loader used for reloads.
func WithLoader(l *config.Loader) Option {
	return func(w *Watcher) {
		if l != nil {
			w.loader = l
		}
	}
}

// New creates a watcher for path. Call Start to begin watching.
func New(path string, handler Handler, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		loader:   config.NewLoader(),
		handler:  handler,
		debounce: DefaultDebounce,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.watcher != nil {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return err
	}
	w.watcher = fsw

	w.wg.Add(1)
	go w.processLoop(fsw)
	return nil
}

func (w *Watcher) processLoop(fsw *fsnotify.Watcher) {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.handler(nil, err)
		}
	}
}

// schedule starts or restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

// reload loads the file and hands the result to the handler.
func (w *Watcher) reload() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	cfg, err := w.loader.Load(w.path)
	w.handler(cfg, err)
}

// Close stops watching. Pending reloads are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	fsw := w.watcher
	w.mu.Unlock()

	w.wg.Wait()

	if fsw != nil {
		return fsw.Close()
	}
	return nil
}
