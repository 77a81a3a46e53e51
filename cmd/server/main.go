package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"prensa-go/internal/app"
	"prensa-go/internal/config"
	"prensa-go/internal/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.LogLevel))

	application, err := app.NewBuilder(&cfg).Build(ctx)
	if err != nil {
		slog.Error("app build error", "error", err)
		os.Exit(1)
	}

	if err := application.Start(); err != nil {
		slog.Error("app start error", "error", err)
		_ = application.Close()
		os.Exit(1)
	}

	waitForShutdown(application)
}

func waitForShutdown(application *app.App) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
}
