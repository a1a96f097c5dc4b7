package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/quotemill/quotemill/internal/app"
	"github.com/quotemill/quotemill/internal/company"
	jobmetrics "github.com/quotemill/quotemill/internal/jobs"
	"github.com/quotemill/quotemill/internal/observability"
	"github.com/quotemill/quotemill/internal/pdf"
	"github.com/quotemill/quotemill/internal/platform/cache"
	"github.com/quotemill/quotemill/internal/platform/db"
	"github.com/quotemill/quotemill/internal/quotes"
	"github.com/quotemill/quotemill/jobs"
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
		logger.Error("connect database", slog.Any("error", err))
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

	companyRepo := company.NewRepository(pool)
	companyCache := company.NewCache(redisClient, cfg.ProfileCacheTTL)
	companyService := company.NewService(companyRepo, companyCache, logger)

	quotesRepo := quotes.NewRepository(pool)
	renderer := pdf.NewRenderer()
	quotesService := quotes.NewService(quotesRepo, nil, companyService, renderer, nil, logger, metrics)

	cleanupTask, err := quotes.NewDocumentCleanupTask(cfg.DocRetentionDays)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	jm := jobmetrics.NewMetrics(metrics.Registerer())
	tracked := func(name string, h asynq.HandlerFunc) asynq.HandlerFunc {
		return func(ctx context.Context, t *asynq.Task) error {
			return jm.Track(name).End(h(ctx, t))
		}
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: quotes.TaskTypeExport, Handler: tracked(quotes.TaskTypeExport, quotesService.HandleExportTask)},
			{Type: quotes.TaskTypeDocumentCleanup, Handler: tracked(quotes.TaskTypeDocumentCleanup, quotesService.HandleDocumentCleanupTask)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 2 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
