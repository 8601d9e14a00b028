package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bottega/internal/amqp"
	"bottega/internal/cache"
	"bottega/internal/cli"
	"bottega/internal/config"
	apphttp "bottega/internal/http"
	"bottega/internal/log"
	"bottega/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.MustValidateConfig(logger, cfg)

	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional: without it status events and report exports are off.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPStatusQueue, cfg.AMQPExportQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	reportCache, closeCache, err := newReportCache(cfg)
	if err != nil {
		logger.Error("Failed to initialize report cache", log.FieldError, err.Error())
		os.Exit(1)
	}
	if closeCache != nil {
		defer closeCache()
	}

	var statusPublisher services.StatusPublisher
	var exportPublisher services.ExportPublisher
	if amqpClient != nil {
		statusPublisher = amqpClient
		exportPublisher = amqpClient
	}

	orderService := services.NewOrderService(repo, statusPublisher, logger)
	reportService := services.NewReportService(repo, reportCache, exportPublisher, logger)
	auth := apphttp.NewAuthManager(cfg.JWTSecret, cfg.JWTTokenTTL, cfg.AdminUser, cfg.AdminPasswordHash)

	srv := apphttp.NewServer(":"+cfg.Port, orderService, reportService, auth, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting bottega server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"cache_backend", cfg.CacheBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func newReportCache(cfg *config.Config) (cache.ReportCache[services.CashflowReport], func() error, error) {
	switch cfg.CacheBackend {
	case "redis":
		c := cache.NewRedis[services.CashflowReport](cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Ping(pingCtx); err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	case "none":
		return cache.Noop[services.CashflowReport]{}, nil, nil
	default:
		return cache.NewMemory[services.CashflowReport](128, cfg.CacheTTL), nil, nil
	}
}
