package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/chemtrade-erp/chemtrade-erp/internal/activity"
	"github.com/chemtrade-erp/chemtrade-erp/internal/alerts"
	"github.com/chemtrade-erp/chemtrade-erp/internal/app"
	"github.com/chemtrade-erp/chemtrade-erp/internal/auth"
	"github.com/chemtrade-erp/chemtrade-erp/internal/export"
	"github.com/chemtrade-erp/chemtrade-erp/internal/feed"
	"github.com/chemtrade-erp/chemtrade-erp/internal/invoices"
	"github.com/chemtrade-erp/chemtrade-erp/internal/ledger"
	"github.com/chemtrade-erp/chemtrade-erp/internal/observability"
	"github.com/chemtrade-erp/chemtrade-erp/internal/platform/cache"
	"github.com/chemtrade-erp/chemtrade-erp/internal/platform/db"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/settings"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
	"github.com/chemtrade-erp/chemtrade-erp/internal/suppliers"
	"github.com/chemtrade-erp/chemtrade-erp/jobs"
	"github.com/chemtrade-erp/chemtrade-erp/report"
)

// changeRelay forwards product change events to a handler bound after the
// ledger service is constructed.
type changeRelay struct {
	handler ledger.ChangeHandler
}

func (r *changeRelay) HandleProductsChanged(ctx context.Context) {
	if r.handler != nil {
		r.handler.HandleProductsChanged(ctx)
	}
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	sessionManager := shared.NewSessionManager(redisClient, "chemtrade_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	metrics := observability.NewMetrics()
	changeFeed := feed.NewPublisher(redisClient)

	enqueuer := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	activityService := activity.NewService(activity.NewRepository(pool), logger)

	profileService := profile.NewService(profile.NewRepository(pool), cfg, logger)
	profileMiddleware := profile.Middleware{Service: profileService, Logger: logger}

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, profileService, sessionManager)

	relay := &changeRelay{}
	ledgerService := ledger.NewService(ledger.NewRepository(pool), ledger.NewSnapshot(), activityService, changeFeed, relay, logger)
	productHandler := ledger.NewHandler(logger, ledgerService, profileMiddleware)

	settingsService := settings.NewService(logger, settings.NewRepository(pool), activityService, cfg.ExpiryThresholdDays)
	alertService := alerts.NewService(logger, ledgerService, settingsService)
	settingsService.SetRecomputer(alertService)
	relay.handler = alertService
	alertHandler := alerts.NewHandler(logger, alertService, profileMiddleware)
	settingsHandler := settings.NewHandler(logger, settingsService, profileMiddleware)

	supplierService := suppliers.NewService(logger, suppliers.NewRepository(pool), activityService, changeFeed)
	supplierHandler := suppliers.NewHandler(logger, supplierService, profileMiddleware)

	invoiceService := invoices.NewService(logger,
		invoices.NewRepository(pool),
		invoices.NewLocalStore(cfg.InvoiceFallbackPath),
		activityService, changeFeed, enqueuer)
	invoiceHandler := invoices.NewHandler(logger, invoiceService, profileMiddleware)

	activityHandler := activity.NewHandler(logger, activityService, profileMiddleware)

	exportService := export.NewService(ledgerService, supplierService, invoiceService, settingsService)
	exportHandler := export.NewHandler(logger, exportService, profileMiddleware)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(logger, reportClient, invoiceService, settingsService, profileMiddleware)

	// Warm the snapshot and derive the initial notification set. Failures are
	// tolerated: the first authenticated read retries the load.
	if err := ledgerService.Refresh(ctx); err != nil {
		logger.Warn("initial product load", slog.Any("error", err))
	} else {
		alertService.Recompute(ctx)
	}

	// Other instances publish change events; refresh and re-derive on each.
	subscriber := feed.NewSubscriber(logger, redisClient, func(ctx context.Context, entity string) {
		if entity != "products" {
			return
		}
		if err := ledgerService.Refresh(ctx); err != nil {
			logger.Warn("refresh after change event", slog.Any("error", err))
			return
		}
		alertService.Recompute(ctx)
	})

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		ProfileMiddleware: profileMiddleware,
		AuthHandler:       authHandler,
		ProductHandler:    productHandler,
		SupplierHandler:   supplierHandler,
		InvoiceHandler:    invoiceHandler,
		AlertHandler:      alertHandler,
		SettingsHandler:   settingsHandler,
		ActivityHandler:   activityHandler,
		ExportHandler:     exportHandler,
		ReportHandler:     reportHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := subscriber.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
		os.Exit(1)
	}
}
