package app

import (
	"io"
	"log/slog"
	"os"

	"github.com/dshills/semtrace/internal/config"
	"github.com/dshills/semtrace/internal/listener/console"
	"github.com/dshills/semtrace/internal/listener/script"
	"github.com/dshills/semtrace/internal/listener/slogsink"
	"github.com/dshills/semtrace/internal/trace"
)

// nopCloser wraps the process's standard streams, which the app must not
// close.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// output opens a listener's output target.
func (a *App) output(target, fallback string) (io.WriteCloser, error) {
	if target == "" {
		target = fallback
	}
	switch target {
	case config.OutputStdout:
		return nopCloser{a.opts.Stdout}, nil
	case config.OutputStderr:
		return nopCloser{a.opts.Stderr}, nil
	default:
		return a.opts.OpenFile(target)
	}
}

func openAppend(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
}

// build creates the listener declared by lc. The returned closer releases
// its output and any listener resources.
func (a *App) build(lc config.Listener) (trace.Listener, io.Closer, error) {
	switch lc.Type {
	case config.TypeConsole:
		w, err := a.output(lc.Output, config.OutputStdout)
		if err != nil {
			return nil, nil, err
		}
		var opts []console.Option
		if lc.Header {
			opts = append(opts, console.WithHeader())
		}
		if lc.LevelTag {
			opts = append(opts, console.WithLevelTag())
		}
		if lc.Timestamps != "" {
			layout := lc.Timestamps
			if layout == "true" || layout == "default" {
				layout = ""
			}
			opts = append(opts, console.WithTimestamps(layout))
		}
		return console.New(w, opts...), w, nil

	case config.TypeSlog:
		if lc.Output == "" {
			return slogsink.New(a.logger.Handler()), nopCloser{}, nil
		}
		w, err := a.output(lc.Output, config.OutputStderr)
		if err != nil {
			return nil, nil, err
		}
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogsink.Level(trace.LevelVerbose)})
		return slogsink.New(h), w, nil

	case config.TypeScript:
		w, err := a.output(lc.Output, config.OutputStdout)
		if err != nil {
			return nil, nil, err
		}
		l, err := script.NewFromFile(lc.Script, w, script.WithName(lc.Name))
		if err != nil {
			_ = w.Close()
			return nil, nil, err
		}
		return l, closers{l, w}, nil

	default:
		return nil, nil, &config.ValidationError{Field: "type", Message: "unknown listener type " + lc.Type}
	}
}

// closers closes each element in order and returns the first error.
type closers []io.Closer

func (cs closers) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// sameSink reports whether two declarations build the same listener and
// differ at most in their filters.
func sameSink(a, b config.Listener) bool {
	return a.Type == b.Type &&
		a.Output == b.Output &&
		a.Header == b.Header &&
		a.LevelTag == b.LevelTag &&
		a.Timestamps == b.Timestamps &&
		a.Script == b.Script
}
