package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"prensa-go/internal/config"
	"prensa-go/internal/metrics"
	"prensa-go/internal/renderer"
	"prensa-go/internal/repositories"
	"prensa-go/internal/scheduler"
	"prensa-go/internal/services/pipeline"
)

// App holds everything a process needs, built once at start-up.
type App struct {
	Config    *config.Config
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Repo      repositories.EntryRepository
	Purger    repositories.Purger
	Notifiers []pipeline.Notifier
	Renderer  renderer.Renderer
	Pipeline  *pipeline.Service
	Scheduler *scheduler.Scheduler
	Server    *http.Server

	closers []func() error
}

// Start runs the scheduler and serves HTTP until Shutdown.
func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return err
	}

	go func() {
		slog.Info("HTTP server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	return nil
}

// RunOnce performs a single pipeline run without starting the scheduler.
func (a *App) RunOnce(ctx context.Context) int {
	return a.Pipeline.Run(ctx)
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()
	err := a.Server.Shutdown(ctx)
	return errors.Join(err, a.Close())
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
