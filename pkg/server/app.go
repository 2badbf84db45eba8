package server

import (
	"context"
	"errors"
	"time"

	"ConsensusBot/internal/usecase"
	"ConsensusBot/pkg/config"
	xhttp "ConsensusBot/pkg/http"
	applogger "ConsensusBot/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	engine     *usecase.Engine
	sink       *usecase.EventSink
	ticks      usecase.TickSource
	httpServer *xhttp.Server
	detach     func()
}

// New creates a new App instance with all dependencies. ticks is nil
// unless the live feed is in use.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	engine *usecase.Engine,
	sink *usecase.EventSink,
	ticks usecase.TickSource,
	httpServer *xhttp.Server,
) *App {
	return &App{
		cfg:        cfg,
		log:        log.With("app"),
		engine:     engine,
		sink:       sink,
		ticks:      ticks,
		httpServer: httpServer,
	}
}

// Engine exposes the engine handle, mainly for the CLI.
func (a *App) Engine() *usecase.Engine { return a.engine }

// Run starts every service and blocks until ctx is cancelled, then shuts down.
func (a *App) Run(ctx context.Context) error {
	a.sink.Start(ctx)
	a.detach = a.sink.Attach(a.engine)

	if a.ticks != nil {
		if err := a.ticks.Start(ctx); err != nil {
			a.log.Error("tick source start error", applogger.Error(err))
			return errors.Join(err, a.shutdown())
		}
		a.log.Info("tick source started",
			applogger.String("source", a.cfg.Feed.Source),
			applogger.Strings("symbols", a.cfg.Engine.Symbols),
		)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return errors.Join(err, a.shutdown())
	}

	if a.cfg.Engine.AutoStart {
		if err := a.engine.Start(); err != nil {
			a.log.Warn("engine auto-start failed", applogger.Error(err))
		}
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops the engine first so no trade is cut short, then the
// inputs, then the HTTP server, and drains the event sink last.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.log.Info("shutting down...")
	var errs []error

	if err := a.engine.Close(ctx); err != nil {
		a.log.Warn("engine stop error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.ticks != nil {
		if err := a.ticks.Shutdown(ctx); err != nil {
			a.log.Warn("tick source stop error", applogger.Error(err))
		}
	}

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.detach != nil {
		a.detach()
	}
	if err := a.sink.Close(ctx); err != nil {
		a.log.Warn("event sink drain error", applogger.Error(err))
		errs = append(errs, err)
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
