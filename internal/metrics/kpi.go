package metrics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// KPISummary is the flat headline record rendered on the dashboard cards.
// Amount and ratio fields are rounded to two decimals; counts are integral.
// The headline book-to-bill ratio is defined over transaction counts; the
// amount-based variant exists only in the drill-down view.
type KPISummary struct {
	TotalBookings      int64   `json:"totalBookings"`
	TotalBookingAmount float64 `json:"totalBookingAmount"`
	TotalBillings      int64   `json:"totalBillings"`
	TotalBillingAmount float64 `json:"totalBillingAmount"`
	TotalBacklogs      int64   `json:"totalBacklogs"`
	TotalBacklogAmount float64 `json:"totalBacklogAmount"`
	BookToBillRatio    float64 `json:"bookToBillRatio"`

	TotalBookingsMTD   float64 `json:"totalBookingsMTD"`
	TotalBookingsYTD   float64 `json:"totalBookingsYTD"`
	TotalBillingsMTD   float64 `json:"totalBillingsMTD"`
	TotalBillingsYTD   float64 `json:"totalBillingsYTD"`
	TotalBacklogMTD    float64 `json:"totalBacklogMTD"`
	TotalBacklogYTD    float64 `json:"totalBacklogYTD"`
	BookToBillRatioMTD float64 `json:"bookToBillRatioMTD"`
	BookToBillRatioYTD float64 `json:"bookToBillRatioYTD"`

	TotalBookingsChange      float64 `json:"totalBookingsChange"`
	TotalBillingsChange      float64 `json:"totalBillingsChange"`
	TotalBacklogAmountChange float64 `json:"totalBacklogAmountChange"`
	BookToBillRatioChange    float64 `json:"bookToBillRatioChange"`

	CurrentMonthBookingsCount         int64   `json:"currentMonthBookingsCount"`
	CurrentMonthBillingsCount         int64   `json:"currentMonthBillingsCount"`
	CurrentMonthBookingsChange        float64 `json:"currentMonthBookingsChange"`
	CurrentMonthBillingsChange        float64 `json:"currentMonthBillingsChange"`
	CurrentMonthBacklogAmount         float64 `json:"currentMonthBacklogAmount"`
	CurrentMonthBacklogAmountChange   float64 `json:"currentMonthBacklogAmountChange"`
	CurrentMonthBookToBillRatio       float64 `json:"currentMonthBookToBillRatio"`
	CurrentMonthBookToBillRatioChange float64 `json:"currentMonthBookToBillRatioChange"`
}

// kpiInputs collects every repository figure the summary derives from. Each
// errgroup goroutine writes exactly one field.
type kpiInputs struct {
	bookings      int64
	billings      int64
	backlogs      int64
	bookingAmount float64
	billingAmount float64
	backlogAmount float64

	mtdBookingSum float64
	mtdBillingSum float64
	mtdBacklogSum float64
	mtdBookings   int64
	mtdBillings   int64

	ytdBookingSum float64
	ytdBillingSum float64
	ytdBacklogSum float64
	ytdBookings   int64
	ytdBillings   int64

	prevBookings   int64
	prevBillings   int64
	prevBacklogSum float64
}

// KPISummary computes the headline figures for the given filter.
//
// The as-filtered totals honour any caller date range. MTD, YTD and the
// month-over-month snapshots deliberately drop caller dates and intersect
// the remaining dimensional filter with the calendar windows, so calendar
// figures stay comparable regardless of the range being browsed.
func (s *Service) KPISummary(ctx context.Context, f Filter) (KPISummary, error) {
	periods := PeriodRanges(s.now().UTC())
	base := f.WithoutDates()
	mtd := base.WithRange(periods.MTD)
	ytd := base.WithRange(periods.YTD)
	prev := base.WithRange(periods.PreviousMonth)

	var in kpiInputs
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, stream Stream, f Filter) {
		g.Go(func() error {
			v, err := s.repo.Count(gctx, stream, f)
			if err != nil {
				return err
			}
			*dst = v
			return nil
		})
	}
	sum := func(dst *float64, stream Stream, f Filter) {
		g.Go(func() error {
			v, err := s.repo.SumAmount(gctx, stream, f)
			if err != nil {
				return err
			}
			*dst = v
			return nil
		})
	}

	count(&in.bookings, StreamBookings, f)
	count(&in.billings, StreamBillings, f)
	count(&in.backlogs, StreamBacklog, f)
	sum(&in.bookingAmount, StreamBookings, f)
	sum(&in.billingAmount, StreamBillings, f)
	sum(&in.backlogAmount, StreamBacklog, f)

	sum(&in.mtdBookingSum, StreamBookings, mtd)
	sum(&in.mtdBillingSum, StreamBillings, mtd)
	sum(&in.mtdBacklogSum, StreamBacklog, mtd)
	count(&in.mtdBookings, StreamBookings, mtd)
	count(&in.mtdBillings, StreamBillings, mtd)

	sum(&in.ytdBookingSum, StreamBookings, ytd)
	sum(&in.ytdBillingSum, StreamBillings, ytd)
	sum(&in.ytdBacklogSum, StreamBacklog, ytd)
	count(&in.ytdBookings, StreamBookings, ytd)
	count(&in.ytdBillings, StreamBillings, ytd)

	count(&in.prevBookings, StreamBookings, prev)
	count(&in.prevBillings, StreamBillings, prev)
	sum(&in.prevBacklogSum, StreamBacklog, prev)

	if err := g.Wait(); err != nil {
		return KPISummary{}, fmt.Errorf("metrics: kpi summary: %w", err)
	}
	return buildKPISummary(in), nil
}

func buildKPISummary(in kpiInputs) KPISummary {
	ratio := safeRatio(float64(in.bookings), float64(in.billings))
	prevRatio := safeRatio(float64(in.prevBookings), float64(in.prevBillings))
	currentRatio := safeRatio(float64(in.mtdBookings), float64(in.mtdBillings))

	return KPISummary{
		TotalBookings:      in.bookings,
		TotalBookingAmount: round2(in.bookingAmount),
		TotalBillings:      in.billings,
		TotalBillingAmount: round2(in.billingAmount),
		TotalBacklogs:      in.backlogs,
		TotalBacklogAmount: round2(in.backlogAmount),
		BookToBillRatio:    ratio,

		TotalBookingsMTD:   round2(in.mtdBookingSum),
		TotalBookingsYTD:   round2(in.ytdBookingSum),
		TotalBillingsMTD:   round2(in.mtdBillingSum),
		TotalBillingsYTD:   round2(in.ytdBillingSum),
		TotalBacklogMTD:    round2(in.mtdBacklogSum),
		TotalBacklogYTD:    round2(in.ytdBacklogSum),
		BookToBillRatioMTD: currentRatio,
		BookToBillRatioYTD: safeRatio(float64(in.ytdBookings), float64(in.ytdBillings)),

		TotalBookingsChange:      percentChange(float64(in.bookings), float64(in.prevBookings)),
		TotalBillingsChange:      percentChange(float64(in.billings), float64(in.prevBillings)),
		TotalBacklogAmountChange: percentChange(in.backlogAmount, in.prevBacklogSum),
		BookToBillRatioChange:    percentChange(ratio, prevRatio),

		CurrentMonthBookingsCount:         in.mtdBookings,
		CurrentMonthBillingsCount:         in.mtdBillings,
		CurrentMonthBookingsChange:        percentChange(float64(in.mtdBookings), float64(in.prevBookings)),
		CurrentMonthBillingsChange:        percentChange(float64(in.mtdBillings), float64(in.prevBillings)),
		CurrentMonthBacklogAmount:         round2(in.mtdBacklogSum),
		CurrentMonthBacklogAmountChange:   percentChange(in.mtdBacklogSum, in.prevBacklogSum),
		CurrentMonthBookToBillRatio:       currentRatio,
		CurrentMonthBookToBillRatioChange: percentChange(currentRatio, prevRatio),
	}
}
