// Package app wires configured listeners to a trace registry.
//
// An App owns the listeners declared in a config.Config. Each listener is
// bound to every current and future source of the registry through a
// listener.Binding, so reloading a configuration only swaps the binding's
// router unless the listener's sink itself changed.
package app

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/semtrace/internal/config"
	"github.com/dshills/semtrace/internal/listener"
	"github.com/dshills/semtrace/internal/trace"
)

// Options configures New.
type Options struct {
	Registry *trace.Registry
	Config   *config.Config
	Logger   *slog.Logger

	// BaseDir resolves relative script and output paths. Usually the
	// directory of the config file.
	BaseDir string

	Stdout io.Writer
	Stderr io.Writer

	// OpenFile opens file outputs; it appends to the file by default.
	OpenFile func(path string) (io.WriteCloser, error)
}

// App holds the running listeners.
type App struct {
	opts   Options
	reg    *trace.Registry
	logger *slog.Logger

	mu      sync.Mutex
	cfg     *config.Config
	entries []*entry
	closed  bool
}

// entry is one running listener.
type entry struct {
	decl    config.Listener
	binding *listener.Binding
	closer  io.Closer
}

// New builds and binds every listener in opts.Config. If any listener
// fails to build, the ones already bound are closed.
func New(opts Options) (*App, error) {
	if opts.Registry == nil {
		return nil, ErrNoRegistry
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.OpenFile == nil {
		opts.OpenFile = openAppend
	}

	a := &App{
		opts:   opts,
		reg:    opts.Registry,
		logger: opts.Logger,
		cfg:    opts.Config,
	}

	for _, decl := range opts.Config.Listeners {
		e, err := a.start(decl)
		if err != nil {
			a.closeEntries(a.entries)
			return nil, err
		}
		a.entries = append(a.entries, e)
	}

	a.logger.Debug("listeners started", slog.Int("count", len(a.entries)))
	return a, nil
}

// start builds decl and binds it to the registry.
func (a *App) start(decl config.Listener) (*entry, error) {
	component := "listener " + decl.Name

	router, err := decl.Router()
	if err != nil {
		return nil, &ComponentError{Component: component, Action: "route", Err: err}
	}

	l, closer, err := a.build(a.resolvePaths(decl))
	if err != nil {
		return nil, &ComponentError{Component: component, Action: "build", Err: err}
	}

	return &entry{
		decl:    decl,
		binding: listener.Bind(a.reg, l, router),
		closer:  closer,
	}, nil
}

func (a *App) resolvePaths(decl config.Listener) config.Listener {
	if a.opts.BaseDir == "" {
		return decl
	}
	if decl.Script != "" && !filepath.IsAbs(decl.Script) {
		decl.Script = filepath.Join(a.opts.BaseDir, decl.Script)
	}
	switch decl.Output {
	case "", config.OutputStdout, config.OutputStderr:
	default:
		if !filepath.IsAbs(decl.Output) {
			decl.Output = filepath.Join(a.opts.BaseDir, decl.Output)
		}
	}
	return decl
}

// Registry returns the registry listeners are bound to.
func (a *App) Registry() *trace.Registry {
	return a.reg
}

// Config returns the configuration currently applied.
func (a *App) Config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// Listener returns the running listener with the given name.
func (a *App) Listener(name string) (trace.Listener, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, e := range a.entries {
		if e.decl.Name == name {
			return e.binding.Listener(), true
		}
	}
	return nil, false
}

// Listeners returns the names of the running listeners in order.
func (a *App) Listeners() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := make([]string, len(a.entries))
	for i, e := range a.entries {
		names[i] = e.decl.Name
	}
	return names
}

// Reload applies cfg. Listeners whose sink is unchanged keep running and
// only get new filters; changed, added and removed listeners are rebuilt,
// started and closed. On error the previous configuration stays in
// effect.
func (a *App) Reload(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	old := make(map[string]*entry, len(a.entries))
	for _, e := range a.entries {
		old[e.decl.Name] = e
	}

	type retarget struct {
		e      *entry
		router listener.Router
	}
	var (
		next      []*entry
		started   []*entry
		retargets []retarget
	)
	for _, decl := range cfg.Listeners {
		if e, ok := old[decl.Name]; ok && sameSink(e.decl, decl) {
			router, err := decl.Router()
			if err != nil {
				a.closeEntries(started)
				return &ComponentError{Component: "listener " + decl.Name, Action: "route", Err: err}
			}
			delete(old, decl.Name)
			retargets = append(retargets, retarget{e, router})
			next = append(next, &entry{decl: decl, binding: e.binding, closer: e.closer})
			continue
		}

		e, err := a.start(decl)
		if err != nil {
			a.closeEntries(started)
			return err
		}
		started = append(started, e)
		next = append(next, e)
	}

	for _, rt := range retargets {
		rt.e.binding.SetRouter(rt.router)
	}

	var stale []*entry
	for _, e := range a.entries {
		if _, ok := old[e.decl.Name]; ok {
			stale = append(stale, e)
		}
	}
	a.closeEntries(stale)

	a.entries = next
	a.cfg = cfg

	a.logger.Info("config applied",
		slog.Int("listeners", len(next)),
		slog.Int("started", len(started)),
		slog.Int("stopped", len(stale)),
	)
	return nil
}

// Close detaches and closes every listener.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	err := a.closeEntries(a.entries)
	a.entries = nil
	return err
}

// closeEntries closes entries in reverse order.
func (a *App) closeEntries(entries []*entry) error {
	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		e.binding.Close()
		if e.closer == nil {
			continue
		}
		if err := e.closer.Close(); err != nil {
			errs = append(errs, &ComponentError{Component: "listener " + e.decl.Name, Action: "close", Err: err})
			a.logger.Warn("closing listener", slog.String("listener", e.decl.Name), slog.String("error", err.Error()))
		}
	}
	return errors.Join(errs...)
}
