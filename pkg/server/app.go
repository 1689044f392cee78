package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Sentinel/internal/usecase"
	"Sentinel/pkg/config"
	xhttp "Sentinel/pkg/http"
	pkgkafka "Sentinel/pkg/kafka"
	applogger "Sentinel/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer // nil when kafka is disabled
	regime     *usecase.RegimeUseCase
	l          *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	regime *usecase.RegimeUseCase,
	l *applogger.Logger,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		httpServer: httpServer,
		consumer:   consumer,
		regime:     regime,
		l:          l.With("app"),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext serves until ctx is done or the HTTP server fails.
func (a *App) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Start(ctx); err != nil {
			return err
		}
		a.l.Info("kafka consumer started", applogger.Strings("topics", a.consumer.Topics()))
	}

	if a.regime != nil && a.cfg.Regime.AutoRefresh {
		go a.refreshRegime(ctx)
	}

	errCh := a.httpServer.Start()

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			a.l.Error("http server error", applogger.Error(err))
			runErr = err
		}
	}
	cancel()

	return errors.Join(runErr, a.shutdown())
}

// refreshRegime reclassifies on a fixed interval. Failures keep the last regime.
func (a *App) refreshRegime(ctx context.Context) {
	rc := a.cfg.Regime
	interval := rc.RefreshInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		if _, err := a.regime.Refresh(ctx, rc.Index, rc.Lookback); err != nil && ctx.Err() == nil {
			a.l.Warn("regime refresh failed", applogger.String("index", rc.Index), applogger.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
