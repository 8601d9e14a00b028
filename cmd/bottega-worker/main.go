package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bottega/internal/amqp"
	"bottega/internal/cache"
	"bottega/internal/cli"
	"bottega/internal/config"
	"bottega/internal/log"
	"bottega/internal/services"
	"bottega/internal/sheets"
	gsheet "bottega/internal/sheets/google"
	mem "bottega/internal/sheets/memory"
	"bottega/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting bottega-worker", log.FieldOperation, log.OpStartup)

	cli.MustValidateConfig(logger, cfg)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Spreadsheet target: Google when configured, in-memory sink otherwise.
	var writer sheets.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"report_sheet", cfg.GoogleReportSheet)
	} else {
		writer = mem.New()
		logger.Info("Google Sheets disabled - exports go to the in-memory sink")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPStatusQueue, cfg.AMQPExportQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker recomputes reports itself, so it never publishes exports
	// and needs no cache.
	reportService := services.NewReportService(repo, cache.Noop[services.CashflowReport]{}, nil, logger)
	exportWorker := worker.NewExportWorker(reportService, writer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = amqpClient.ConsumeReportExports(ctx, func(msg *amqp.ReportExportMessage) error {
		return exportWorker.HandleExportMessage(ctx, msg)
	})
	if err != nil && err != context.Canceled {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
