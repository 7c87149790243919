package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/chemtrade-erp/chemtrade-erp/internal/activity"
	"github.com/chemtrade-erp/chemtrade-erp/internal/alerts"
	"github.com/chemtrade-erp/chemtrade-erp/internal/app"
	"github.com/chemtrade-erp/chemtrade-erp/internal/feed"
	"github.com/chemtrade-erp/chemtrade-erp/internal/invoices"
	"github.com/chemtrade-erp/chemtrade-erp/internal/ledger"
	"github.com/chemtrade-erp/chemtrade-erp/internal/observability"
	"github.com/chemtrade-erp/chemtrade-erp/internal/platform/cache"
	"github.com/chemtrade-erp/chemtrade-erp/internal/platform/db"
	"github.com/chemtrade-erp/chemtrade-erp/internal/settings"
	"github.com/chemtrade-erp/chemtrade-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	changeFeed := feed.NewPublisher(redisClient)

	activityService := activity.NewService(activity.NewRepository(pool), logger)
	ledgerService := ledger.NewService(ledger.NewRepository(pool), ledger.NewSnapshot(), activityService, changeFeed, nil, logger)
	settingsService := settings.NewService(logger, settings.NewRepository(pool), activityService, cfg.ExpiryThresholdDays)
	alertService := alerts.NewService(logger, ledgerService, settingsService)

	invoiceService := invoices.NewService(logger,
		invoices.NewRepository(pool),
		invoices.NewLocalStore(cfg.InvoiceFallbackPath),
		activityService, changeFeed, nil)

	reconcileJob := &jobs.InvoiceReconcileJob{Invoices: invoiceService, Metrics: metrics, Logger: logger}
	recomputeJob := &jobs.AlertsRecomputeJob{Products: ledgerService, Alerts: alertService, Metrics: metrics, Logger: logger}

	reconcileTask, err := jobs.NewInvoiceReconcileTask(jobs.InvoiceReconcilePayload{Reason: "cron"})
	if err != nil {
		logger.Error("build reconcile task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskInvoiceReconcile, Handler: reconcileJob.Handle},
			{Type: jobs.TaskAlertsRecompute, Handler: recomputeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/10 * * * *", Task: reconcileTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 * * * *", Task: jobs.NewAlertsRecomputeTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting")
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
