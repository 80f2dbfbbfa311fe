package metricshttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the dashboard endpoints onto the router. Filters
// travel in the POST body; the CSV export carries a tighter rate limit
// because it fans out the three heaviest aggregations at once.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Post("/summary", h.handleSummary)
	r.Post("/trends", h.handleTrend)
	r.Post("/backlog-by-region", h.handleBacklogByRegion)
	r.Post("/product-distribution", h.handleProductDistribution)
	r.Post("/drilldown", h.handleDrillDown)
	r.Get("/filters", h.handleFilterOptions)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/export.csv", h.handleExportCSV)
	})
}
