// Package metricshttp exposes the dashboard aggregations as a JSON API.
package metricshttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/bbb-analytics/bbb-analytics/internal/metrics"
	"github.com/bbb-analytics/bbb-analytics/internal/metrics/export"
	"github.com/bbb-analytics/bbb-analytics/internal/platform/httpx"
)

const requestTimeout = 10 * time.Second

const isoDate = "2006-01-02"

// DashboardService defines the aggregation contract used by the handler.
type DashboardService interface {
	KPISummary(ctx context.Context, f metrics.Filter) (metrics.KPISummary, error)
	MonthlyTrend(ctx context.Context, f metrics.Filter) ([]metrics.TrendPoint, error)
	BacklogByRegion(ctx context.Context, f metrics.Filter) ([]metrics.Slice, error)
	ProductDistribution(ctx context.Context, f metrics.Filter) ([]metrics.Slice, error)
	DrillDown(ctx context.Context, f metrics.Filter) ([]metrics.RegionSummary, error)
	FilterOptions(ctx context.Context) (metrics.FilterOptions, error)
}

// FilterRequest is the JSON body accepted by every dashboard endpoint.
// Absent fields mean no constraint on that dimension.
type FilterRequest struct {
	StartDate string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Region    string `json:"region"`
	Product   string `json:"product"`
	Customer  string `json:"customer"`
}

type filterError struct {
	field  string
	reason string
}

func (e filterError) Error() string {
	return fmt.Sprintf("invalid filter field %s: %s", e.field, e.reason)
}

// Handler coordinates HTTP requests for the dashboard.
type Handler struct {
	logger   *slog.Logger
	service  DashboardService
	validate *validator.Validate
	csvPool  sync.Pool
	now      func() time.Time
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService) *Handler {
	h := &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		now:      time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// parseFilter decodes and validates the request body. An empty body is a
// legal "no constraints" filter.
func (h *Handler) parseFilter(r *http.Request) (metrics.Filter, error) {
	var req FilterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		if errors.Is(err, io.EOF) {
			return metrics.Filter{}, nil
		}
		return metrics.Filter{}, filterError{field: "body", reason: "malformed JSON"}
	}
	if err := h.validate.Struct(req); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			return metrics.Filter{}, filterError{field: invalid[0].Field(), reason: "expected ISO date (YYYY-MM-DD)"}
		}
		return metrics.Filter{}, filterError{field: "body", reason: err.Error()}
	}

	f := metrics.Filter{
		Region:   req.Region,
		Product:  req.Product,
		Customer: req.Customer,
	}
	if req.StartDate != "" {
		start, _ := time.Parse(isoDate, req.StartDate)
		f.Start = &start
	}
	if req.EndDate != "" {
		end, _ := time.Parse(isoDate, req.EndDate)
		f.End = &end
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return metrics.Filter{}, filterError{field: "endDate", reason: "must not precede startDate"}
	}
	return f, nil
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilter(r)
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.KPISummary(ctx, f)
	if err != nil {
		h.respondServerError(w, "kpi summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilter(r)
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	points, err := h.service.MonthlyTrend(ctx, f)
	if err != nil {
		h.respondServerError(w, "monthly trend", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"monthlyTrend": points})
}

func (h *Handler) handleBacklogByRegion(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilter(r)
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	slices, err := h.service.BacklogByRegion(ctx, f)
	if err != nil {
		h.respondServerError(w, "backlog by region", err)
		return
	}
	if slices == nil {
		slices = []metrics.Slice{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"backlogByRegion": slices})
}

func (h *Handler) handleProductDistribution(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilter(r)
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	slices, err := h.service.ProductDistribution(ctx, f)
	if err != nil {
		h.respondServerError(w, "product distribution", err)
		return
	}
	if slices == nil {
		slices = []metrics.Slice{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"productDistribution": slices})
}

func (h *Handler) handleDrillDown(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilter(r)
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	regions, err := h.service.DrillDown(ctx, f)
	if err != nil {
		h.respondServerError(w, "drill-down", err)
		return
	}
	if regions == nil {
		regions = []metrics.RegionSummary{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"regionStats": regions})
}

func (h *Handler) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	options, err := h.service.FilterOptions(ctx)
	if err != nil {
		h.respondServerError(w, "filter options", err)
		return
	}
	httpx.JSON(w, http.StatusOK, options)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilter(r)
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var (
		summary metrics.KPISummary
		trend   []metrics.TrendPoint
		regions []metrics.RegionSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = h.service.KPISummary(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		trend, err = h.service.MonthlyTrend(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		regions, err = h.service.DrillDown(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		h.respondServerError(w, "export", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteKPICSV(buf, summary); err != nil {
		h.respondServerError(w, "write kpi csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteTrendCSV(buf, trend); err != nil {
		h.respondServerError(w, "write trend csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteDrillDownCSV(buf, regions); err != nil {
		h.respondServerError(w, "write drill-down csv", err)
		return
	}

	filename := fmt.Sprintf("bbb-dashboard-%s.csv", h.now().UTC().Format(isoDate))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("stream csv", slog.Any("error", err))
	}
}

func (h *Handler) respondFilterError(w http.ResponseWriter, err error) {
	httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
}

func (h *Handler) respondServerError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("dashboard request failed", slog.String("op", op), slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "failed to retrieve dashboard data")
}
