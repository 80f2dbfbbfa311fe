package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/bbb-analytics/bbb-analytics/internal/app"
	jobmetrics "github.com/bbb-analytics/bbb-analytics/internal/jobs"
	"github.com/bbb-analytics/bbb-analytics/internal/metrics"
	metricsdb "github.com/bbb-analytics/bbb-analytics/internal/metrics/db"
	"github.com/bbb-analytics/bbb-analytics/internal/platform/cache"
	"github.com/bbb-analytics/bbb-analytics/internal/platform/db"
	"github.com/bbb-analytics/bbb-analytics/jobs"
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

	repo := metricsdb.New(pool)
	optionsCache := metrics.NewCache(redisClient, cfg.OptionsCacheTTL)
	service := metrics.NewService(repo, optionsCache)
	warmup := jobs.NewOptionsWarmupJob(service, logger, jobmetrics.NewMetrics(nil))

	hourlyWarmup, err := jobs.NewOptionsWarmupTask(jobs.OptionsWarmupPayload{Bump: true})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOptionsWarmup, Handler: warmup.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 * * * *", Task: hourlyWarmup},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
