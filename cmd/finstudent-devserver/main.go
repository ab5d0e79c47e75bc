package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"finstudent/internal/cli"
	"finstudent/internal/devserver"
	"finstudent/internal/log"
)

func main() {
	demo := flag.Bool("demo", false, "seed the demo account ("+devserver.DemoEmail+" / "+devserver.DemoPassword+")")
	flag.Parse()

	if err := cli.LoadEnvFile(); err != nil {
		log.New(log.DefaultConfig()).Error("Failed to load .env", log.FieldError, err)
		os.Exit(1)
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, os.Stderr).WithComponent(log.ComponentDevServer)

	srv := devserver.NewServer(devserver.Options{
		Addr:        ":" + cfg.DevServerPort,
		RequireCSRF: cfg.DevServerRequireCSRF,
		Logger:      logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	if *demo {
		if _, err := srv.Store().SeedDemo(); err != nil {
			logger.Error("Failed to seed demo data", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Seeded demo account", log.FieldEmail, devserver.DemoEmail)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting FinStudent dev server",
		"port", cfg.DevServerPort,
		"require_csrf", cfg.DevServerRequireCSRF,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.DevServerPort)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
