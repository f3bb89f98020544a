package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"formflow/internal/app"
	"formflow/internal/platform/config"
	"formflow/internal/platform/logger"
)

// main wires high-level dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start formflow", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	log.Info("starting formflow", "addr", cfg.Server.Addr)
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("formflow stopped with error", "error", err)
		a.Close()
		os.Exit(1)
	}
	log.Info("formflow stopped")
}
