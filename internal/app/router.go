package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	metricshttp "github.com/bbb-analytics/bbb-analytics/internal/metrics/http"
	"github.com/bbb-analytics/bbb-analytics/internal/observability"
	"github.com/bbb-analytics/bbb-analytics/internal/platform/httpx"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Pool             *pgxpool.Pool
	Redis            *redis.Client
	Metrics          *observability.Metrics
	DashboardHandler *metricshttp.Handler
}

// NewRouter assembles the router with the shared middleware stack, the
// health probe and the dashboard API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: params.Logger, Config: params.Config}) {
		r.Use(mw)
	}
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}

	r.Get("/healthz", healthHandler(params.Pool, params.Redis))
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	if params.DashboardHandler != nil {
		r.Route("/api/dashboard", params.DashboardHandler.MountRoutes)
	}

	return r
}

// healthHandler probes the database and, when configured, Redis. The cache
// is optional: Redis being down marks the field but the probe stays ok as
// long as Postgres answers.
func healthHandler(pool *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				status["status"] = "degraded"
				status["database"] = err.Error()
				httpx.JSON(w, http.StatusServiceUnavailable, status)
				return
			}
			status["database"] = "up"
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				status["cache"] = "down"
			} else {
				status["cache"] = "up"
			}
		}
		httpx.JSON(w, http.StatusOK, status)
	}
}
