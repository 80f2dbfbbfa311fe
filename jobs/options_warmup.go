package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bbb-analytics/bbb-analytics/internal/jobs"
	"github.com/bbb-analytics/bbb-analytics/internal/metrics"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// OptionsWarmupJob repopulates the filter-option cache so the first
// dashboard request after a data load does not pay the enumeration cost.
type OptionsWarmupJob struct {
	Service *metrics.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewOptionsWarmupJob wires dependencies for the warmup handler.
func NewOptionsWarmupJob(service *metrics.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *OptionsWarmupJob {
	return &OptionsWarmupJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskOptionsWarmup tasks.
func (j *OptionsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("options warmup: handler not configured")
	}
	var payload OptionsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track("options_warmup")
	logger := j.logger()
	start := j.clock()

	if payload.Bump {
		if err := j.Service.Cache().Bump(ctx); err != nil {
			logger.Error("bump options cache", slog.Any("error", err))
			return tracker.End(err)
		}
	}

	options, err := j.Service.FilterOptions(ctx)
	if err != nil {
		logger.Error("warm filter options", slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Info("filter options warmed",
		slog.Int("regions", len(options.Regions)),
		slog.Int("products", len(options.Products)),
		slog.Int("customers", len(options.Customers)),
		slog.Duration("took", j.clock().Sub(start)),
	)
	return tracker.End(nil)
}

func (j *OptionsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *OptionsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
