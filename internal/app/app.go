// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/internal/daemon"
)

// Application wires configuration, logging, and the daemon together.
//
// It is created once at startup. Run blocks until the process receives
// SIGINT or SIGTERM, then tears everything down in order.
type Application struct {
	Config *config.Config
	Logger *zerolog.Logger
	Daemon *daemon.Daemon
}

// New creates and initializes an Application.
//
// It configures logging from the config, then assembles the daemon, which
// restores persisted tab sessions and starts the expiry sweeper. If any step
// fails, an error is returned and no resources are left allocated.
func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logLevel := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var logWriter io.Writer
	if cfg.JSONLog {
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.NewConsoleWriter()
	}
	logger := log.Output(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	d, err := daemon.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize daemon: %w", err)
	}

	return &Application{
		Config: cfg,
		Logger: &logger,
		Daemon: d,
	}, nil
}

// Run writes the lockfile, serves the HTTP API, and blocks until the context
// is canceled or a termination signal arrives. The lockfile is removed and
// sessions are persisted on the way out.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Daemon.WriteStartupLock(); err != nil {
		a.Logger.Warn().Err(err).Msg("Could not write startup lockfile")
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := a.Daemon.Serve(sigCtx)

	a.Daemon.Shutdown()
	if lockErr := a.Daemon.RemoveLock(); lockErr != nil {
		a.Logger.Warn().Err(lockErr).Msg("Could not remove lockfile")
	}
	a.Logger.Info().Msg("Daemon shut down")
	return err
}
