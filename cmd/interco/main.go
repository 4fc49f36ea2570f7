package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/interco/internal/accounting/accounts"
	"github.com/odyssey-erp/interco/internal/accounting/journals"
	"github.com/odyssey-erp/interco/internal/accounting/mappings"
	"github.com/odyssey-erp/interco/internal/app"
	"github.com/odyssey-erp/interco/internal/auth"
	"github.com/odyssey-erp/interco/internal/documents"
	"github.com/odyssey-erp/interco/internal/intercompany"
	"github.com/odyssey-erp/interco/internal/masterdata/companies"
	"github.com/odyssey-erp/interco/internal/observability"
	"github.com/odyssey-erp/interco/internal/platform/cache"
	"github.com/odyssey-erp/interco/internal/platform/db"
	"github.com/odyssey-erp/interco/internal/shared"
	"github.com/odyssey-erp/interco/jobs"
)

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

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	var summaryCache intercompany.SummaryCache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, summary cache disabled", slog.Any("error", err))
	} else {
		summaryCache = cache.NewVersioned(redisClient, "interco:summary", cfg.SummaryCacheTTL)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	policy, err := cfg.AmountPolicy()
	if err != nil {
		logger.Error("amount policy", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	authService := auth.NewService(auth.NewRepository(dbpool), logger)

	companyService := companies.NewService(companies.NewRepository(dbpool))
	accountService := accounts.NewService(accounts.NewRepository(dbpool))
	mappingService := mappings.NewService(mappings.NewRepository(dbpool))
	journalService := journals.NewService(journals.NewRepository(dbpool), auditLogger, logger)
	documentService := documents.NewService(documents.NewRepository(dbpool))
	icService := intercompany.NewService(intercompany.NewRepository(dbpool), logger, intercompany.Config{
		AmountPolicy: policy,
		Audit:        auditLogger,
		Cache:        summaryCache,
		Metrics:      metrics,
	})

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AuthService:         authService,
		CompaniesHandler:    companies.NewHandler(logger, companyService),
		AccountsHandler:     accounts.NewHandler(logger, accountService),
		MappingsHandler:     mappings.NewHandler(logger, mappingService),
		JournalsHandler:     journals.NewHandler(logger, journalService),
		DocumentsHandler:    documents.NewHandler(logger, documentService),
		IntercompanyHandler: intercompany.NewHandler(logger, icService, idempotencyStore),
		JobHandler:          jobs.NewHandler(inspector, logger),
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Bool("api_auth", cfg.APIAuthEnabled))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
