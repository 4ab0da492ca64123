package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"canvascal/internal/app"
	"canvascal/internal/config"
	"canvascal/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single sync cycle and exit")
	flag.Parse()

	bootLogger := logging.New("info")
	cfg := config.Load(bootLogger)
	logger := logging.New(cfg.Logging.Level)

	if cfg.Canvas.BaseURL == "" || cfg.Canvas.Token == "" {
		logger.Error("CANVAS_API_URL and CANVAS_API_KEY must be set")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	if *once {
		if err := application.RunOnce(ctx); err != nil {
			logger.Error("sync failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
