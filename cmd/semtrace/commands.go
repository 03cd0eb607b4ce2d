package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dshills/semtrace/internal/app"
	"github.com/dshills/semtrace/internal/config"
	"github.com/dshills/semtrace/internal/config/watch"
	"github.com/dshills/semtrace/internal/logging"
	"github.com/dshills/semtrace/internal/manifest"
	"github.com/dshills/semtrace/internal/sources/diag"
	"github.com/dshills/semtrace/internal/sources/firefox"
	"github.com/dshills/semtrace/internal/trace"
)

const appName = "semtrace"

func newApp() *cli.App {
	return &cli.App{
		Name:    appName,
		Usage:   "Typed event tracing with runtime-attachable listeners",
		Version: fmt.Sprintf("%s (%s, %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "supervisory log level (debug, info, warn, error)",
				EnvVars: []string{config.EnvLogLevel},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "supervisory log format (text, json)",
				EnvVars: []string{config.EnvLogFormat},
			},
		},
		Commands: []*cli.Command{
			demoCmd(),
			manifestCmd(),
			configCmd(),
		},
	}
}

// newLogger builds the supervisory logger. Flags win over the config.
func newLogger(c *cli.Context, cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	opts := logging.Options{Output: w}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
	}
	if c.IsSet("log-level") {
		opts.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		opts.Format = c.String("log-format")
	}
	return logging.New(opts)
}

// registerSources creates the built-in sources on reg.
func registerSources(reg *trace.Registry) (*firefox.Log, *diag.Log, error) {
	ff, err := firefox.New(reg)
	if err != nil {
		return nil, nil, err
	}
	dbg, err := diag.New(reg)
	if err != nil {
		return nil, nil, err
	}
	return ff, dbg, nil
}

func demoCmd() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Trace simulated requests through the configured listeners",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML or YAML configuration file",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "keep running and apply config file changes until interrupted",
			},
			&cli.IntFlag{
				Name:  "requests",
				Usage: "number of simulated requests",
				Value: len(firefox.DefaultRequests),
				Action: func(_ *cli.Context, n int) error {
					if n < 0 {
						return fmt.Errorf("--requests must not be negative, got %d", n)
					}
					return nil
				},
			},
		},
		Action: func(c *cli.Context) error {
			path := c.String("config")
			if c.Bool("watch") && path == "" {
				return fmt.Errorf("--watch requires --config")
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			logger, err := newLogger(c, cfg, c.App.ErrWriter)
			if err != nil {
				return err
			}

			reg := trace.NewRegistry(trace.WithRegistryLogger(logger))

			opts := app.Options{
				Registry: reg,
				Config:   cfg,
				Logger:   logger,
				Stdout:   c.App.Writer,
				Stderr:   c.App.ErrWriter,
			}
			if path != "" {
				opts.BaseDir = filepath.Dir(path)
			}
			a, err := app.New(opts)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warn("shutdown", slog.String("error", err.Error()))
				}
			}()

			ff, dbg, err := registerSources(reg)
			if err != nil {
				return err
			}

			ff.Simulate(firefox.Requests(c.Int("requests")))
			dbg.Message1("demo")
			dbg.Message2("demo", appName)

			if !c.Bool("watch") {
				return nil
			}
			return watchConfig(c.Context, path, a, logger)
		},
	}
}

// watchConfig applies changes to path until ctx ends or a signal arrives.
func watchConfig(ctx context.Context, path string, a *app.App, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(path, func(cfg *config.Config, err error) {
		if err != nil {
			logger.Error("config reload failed", slog.String("path", path), slog.String("error", err.Error()))
			return
		}
		if err := a.Reload(cfg); err != nil {
			logger.Error("config rejected", slog.String("path", path), slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Close()

	logger.Info("watching config", slog.String("path", w.Path()))
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func manifestCmd() *cli.Command {
	return &cli.Command{
		Name:  "manifest",
		Usage: "Print the event manifest of the built-in sources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format (yaml, toml)",
				Value: manifest.FormatYAML,
			},
		},
		Action: func(c *cli.Context) error {
			reg := trace.NewRegistry()
			if _, _, err := registerSources(reg); err != nil {
				return err
			}
			data, err := manifest.Build(reg).Marshal(c.String("format"))
			if err != nil {
				return err
			}
			_, err = c.App.Writer.Write(data)
			return err
		},
	}
}

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML or YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format (toml, yaml)",
				Value: string(config.FormatTOML),
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg, config.Format(c.String("format")))
			if err != nil {
				return err
			}
			_, err = c.App.Writer.Write(data)
			return err
		},
	}
}
