package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"invoicepro/internal/backend"
	"invoicepro/internal/cli"
	"invoicepro/internal/config"
	applog "invoicepro/internal/log"
	"invoicepro/internal/records/google"
	"invoicepro/internal/services"
	"invoicepro/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentWorker)
	logger.Info("Starting invoicepro-worker")

	ctx, done := cli.GracefulShutdown(logger, nil)
	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	if backendCfg.Type != backend.SQLiteBackend && backendCfg.Type != backend.PostgresBackend {
		return fmt.Errorf("the worker mirrors a SQL backend, DATA_BACKEND is %s", backendCfg.Type)
	}
	if err := cfg.ValidateMirror(); err != nil {
		return err
	}

	repo, err := backend.OpenRepository(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	mirror, err := google.New(ctx, backendCfg.SheetsConfig())
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	syncWorker := worker.NewSyncWorker(repo, mirror, cfg.SyncBatchSize)

	// Catch up on records whose messages were lost while the worker was down.
	if n, err := syncWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup sync check failed", applog.FieldError, err)
	} else if n > 0 {
		logger.Info("Startup sync check mirrored records", "count", n)
	}

	consumer, err := backend.NewConsumer(backendCfg)
	if err != nil {
		return fmt.Errorf("initialize %s consumer: %w", backendCfg.Broker, err)
	}

	processor := services.NewSyncProcessor(syncWorker, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return processor.Run(gctx) })
	if consumer != nil {
		defer consumer.Close()
		g.Go(func() error { return consumer.Consume(gctx, syncWorker.HandleMessage) })
	} else {
		logger.Info("No event broker configured, relying on the pending poll")
	}
	return g.Wait()
}
