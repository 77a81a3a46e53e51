// Command scrape performs a single archive run and exits. It is meant to be
// invoked by an external scheduler.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"prensa-go/internal/app"
	"prensa-go/internal/config"
	"prensa-go/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("config error", "error", err)
		return 1
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.LogLevel))

	application, err := app.NewBuilder(&cfg).Build(ctx)
	if err != nil {
		slog.Error("app build error", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}()

	inserted := application.RunOnce(ctx)
	slog.Info("run finished", "inserted", inserted)
	return 0
}
