package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"betledger/internal/amqp"
	"betledger/internal/backend"
	"betledger/internal/cli"
	"betledger/internal/config"
	"betledger/internal/log"
	"betledger/internal/metrics"
	"betledger/internal/sheets"
	gsheet "betledger/internal/sheets/google"
	memmirror "betledger/internal/sheets/memory"
	"betledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting betledger-worker", log.FieldOperation, log.OpStartup)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	result, err := backend.NewFactory(logger).CreateBackend(startCtx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize data backend", err, log.FieldBackend, cfg.DataBackend)
	}

	mirror, err := newMirror(startCtx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize sheets mirror", err, "mirror", cfg.SheetsMirror)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)
	metricsSrv := &http.Server{Addr: ":" + cfg.Port, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", log.FieldError, err)
		}
	}()

	syncWorker := worker.NewSyncWorker(result.Store, mirror, m, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		amqpClient.Close()
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logger.Error("Metrics server shutdown error", log.FieldError, err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	// BACKFILL_USER mirrors every existing entry of one user before consuming.
	if user := os.Getenv("BACKFILL_USER"); user != "" {
		n, err := syncWorker.Backfill(ctx, user)
		if err != nil {
			logger.Error("Backfill incomplete", log.FieldUserID, user, log.FieldRows, n, log.FieldError, err)
		} else {
			logger.Info("Backfill complete", log.FieldUserID, user, log.FieldRows, n)
		}
	}

	logger.Info("Consuming entry events", "queue", cfg.AMQPQueue, "mirror", cfg.SheetsMirror)
	if err := amqpClient.Consume(ctx, syncWorker.HandleEntryChanged); err != nil && !errors.Is(err, context.Canceled) {
		cli.Fatal(logger, "Consumer stopped", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

func newMirror(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.EntryMirror, error) {
	if cfg.SheetsMirror == config.MirrorMemory {
		logger.Warn("Using in-memory sheets mirror, rows are not persisted")
		return memmirror.New(), nil
	}
	return gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
}
