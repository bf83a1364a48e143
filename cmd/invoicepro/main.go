package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"invoicepro/internal/backend"
	"invoicepro/internal/cli"
	apphttp "invoicepro/internal/http"
	applog "invoicepro/internal/log"
	"invoicepro/internal/session"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(initCtx, backendCfg)
	cancelInit()
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:     ":" + cfg.Port,
		Records:  result.Service,
		Sessions: session.NewManager(cfg.DemoUsername, cfg.DemoPassword, cfg.SessionTTL),
		Logger:   logger.WithComponent(applog.ComponentHTTP),
		Ready:    result.Ping,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, func(ctx context.Context) error {
		err := srv.Shutdown(ctx)
		if result.Cleanup != nil {
			err = errors.Join(err, result.Cleanup())
		}
		return err
	})

	logger.Info("Starting invoicepro server", "port", cfg.Port, "backend", backendCfg.Type, "broker", backendCfg.Broker)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
