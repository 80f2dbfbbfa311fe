package metrics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// TrendWindowMonths is the fixed width of the rolling trend series.
const TrendWindowMonths = 12

// TrendPoint is one month bucket of the bookings-versus-billings series.
// Field casing follows the chart contract consumed by the frontend.
type TrendPoint struct {
	Name          string  `json:"name"`
	Bookings      float64 `json:"Bookings"`
	Billings      float64 `json:"Billings"`
	BookingsCount int64   `json:"BookingsCount"`
	BillingsCount int64   `json:"BillingsCount"`
}

// MonthlyTrend buckets booking and billing totals into the rolling window
// ending at the current month, oldest first. Every bucket is pre-zeroed so
// sparse data still yields exactly TrendWindowMonths points; rows outside
// the window are ignored.
func (s *Service) MonthlyTrend(ctx context.Context, f Filter) ([]TrendPoint, error) {
	now := s.now().UTC()
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	points := make([]TrendPoint, TrendWindowMonths)
	index := make(map[string]int, TrendWindowMonths)
	for i := 0; i < TrendWindowMonths; i++ {
		month := anchor.AddDate(0, i-TrendWindowMonths+1, 0)
		key := month.Format("2006-01")
		points[i] = TrendPoint{Name: month.Format("Jan")}
		index[key] = i
	}

	var bookings, billings []MonthlyTotal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.MonthlyTotals(gctx, StreamBookings, f)
		if err != nil {
			return err
		}
		bookings = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.MonthlyTotals(gctx, StreamBillings, f)
		if err != nil {
			return err
		}
		billings = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("metrics: monthly trend: %w", err)
	}

	for _, row := range bookings {
		if i, ok := index[row.Month]; ok {
			points[i].Bookings = round2(row.Amount)
			points[i].BookingsCount = row.Count
		}
	}
	for _, row := range billings {
		if i, ok := index[row.Month]; ok {
			points[i].Billings = round2(row.Amount)
			points[i].BillingsCount = row.Count
		}
	}
	return points, nil
}
