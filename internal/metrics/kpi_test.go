package metrics

import (
	"context"
	"testing"
	"time"
)

func kpiFixtureRepo() *fakeRepo {
	return &fakeRepo{records: []record{
		// Bookings spread over the year plus one prior-year row.
		{stream: StreamBookings, date: day(2026, time.June, 3), region: "North", product: "Falcon", customer: "Acme", amount: 100},
		{stream: StreamBookings, date: day(2026, time.June, 20), region: "South", product: "Osprey", customer: "Borealis", amount: 200},
		{stream: StreamBookings, date: day(2026, time.May, 10), region: "North", product: "Falcon", customer: "Acme", amount: 50},
		{stream: StreamBookings, date: day(2026, time.February, 14), region: "East", product: "Kestrel", customer: "Cascade", amount: 400},
		{stream: StreamBookings, date: day(2025, time.December, 30), region: "North", product: "Falcon", customer: "Acme", amount: 999},

		{stream: StreamBillings, date: day(2026, time.June, 5), region: "North", product: "Falcon", customer: "Acme", amount: 150},
		{stream: StreamBillings, date: day(2026, time.May, 2), region: "South", product: "Osprey", customer: "Borealis", amount: 60},
		{stream: StreamBillings, date: day(2026, time.May, 28), region: "North", product: "Falcon", customer: "Acme", amount: 40},

		{stream: StreamBacklog, date: day(2026, time.June, 1), region: "North", product: "Falcon", customer: "Acme", amount: 500},
		{stream: StreamBacklog, date: day(2026, time.May, 15), region: "South", product: "Osprey", customer: "Borealis", amount: 250},
		{stream: StreamBacklog, date: day(2026, time.January, 9), region: "East", product: "Kestrel", customer: "Cascade", amount: 100},
	}}
}

func TestKPISummaryUnfiltered(t *testing.T) {
	svc := NewService(kpiFixtureRepo(), nil)
	svc.WithNow(fixedClock(day(2026, time.June, 15)))

	got, err := svc.KPISummary(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("kpi summary: %v", err)
	}

	if got.TotalBookings != 5 || got.TotalBookingAmount != 1749 {
		t.Fatalf("bookings totals = %d / %v", got.TotalBookings, got.TotalBookingAmount)
	}
	if got.TotalBillings != 3 || got.TotalBillingAmount != 250 {
		t.Fatalf("billings totals = %d / %v", got.TotalBillings, got.TotalBillingAmount)
	}
	if got.TotalBacklogs != 3 || got.TotalBacklogAmount != 850 {
		t.Fatalf("backlog totals = %d / %v", got.TotalBacklogs, got.TotalBacklogAmount)
	}
	if got.BookToBillRatio != 1.67 {
		t.Fatalf("book-to-bill ratio = %v", got.BookToBillRatio)
	}

	// Calendar windows: MTD is the whole current month, YTD the whole year,
	// and the prior-year December booking stays out of both.
	if got.TotalBookingsMTD != 300 || got.TotalBillingsMTD != 150 || got.TotalBacklogMTD != 500 {
		t.Fatalf("MTD sums = %v / %v / %v", got.TotalBookingsMTD, got.TotalBillingsMTD, got.TotalBacklogMTD)
	}
	if got.TotalBookingsYTD != 750 || got.TotalBillingsYTD != 250 || got.TotalBacklogYTD != 850 {
		t.Fatalf("YTD sums = %v / %v / %v", got.TotalBookingsYTD, got.TotalBillingsYTD, got.TotalBacklogYTD)
	}
	if got.BookToBillRatioMTD != 2 {
		t.Fatalf("MTD ratio = %v", got.BookToBillRatioMTD)
	}
	if got.BookToBillRatioYTD != 1.33 {
		t.Fatalf("YTD ratio = %v", got.BookToBillRatioYTD)
	}

	if got.TotalBookingsChange != 400 {
		t.Fatalf("bookings change = %v", got.TotalBookingsChange)
	}
	if got.TotalBillingsChange != 50 {
		t.Fatalf("billings change = %v", got.TotalBillingsChange)
	}
	if got.TotalBacklogAmountChange != 240 {
		t.Fatalf("backlog amount change = %v", got.TotalBacklogAmountChange)
	}
	if got.BookToBillRatioChange != 234 {
		t.Fatalf("ratio change = %v", got.BookToBillRatioChange)
	}

	if got.CurrentMonthBookingsCount != 2 || got.CurrentMonthBillingsCount != 1 {
		t.Fatalf("current month counts = %d / %d", got.CurrentMonthBookingsCount, got.CurrentMonthBillingsCount)
	}
	if got.CurrentMonthBookingsChange != 100 || got.CurrentMonthBillingsChange != -50 {
		t.Fatalf("current month changes = %v / %v", got.CurrentMonthBookingsChange, got.CurrentMonthBillingsChange)
	}
	if got.CurrentMonthBacklogAmount != 500 || got.CurrentMonthBacklogAmountChange != 100 {
		t.Fatalf("current month backlog = %v / %v", got.CurrentMonthBacklogAmount, got.CurrentMonthBacklogAmountChange)
	}
	if got.CurrentMonthBookToBillRatio != 2 || got.CurrentMonthBookToBillRatioChange != 300 {
		t.Fatalf("current month ratio = %v / %v", got.CurrentMonthBookToBillRatio, got.CurrentMonthBookToBillRatioChange)
	}
}

func TestKPISummaryDropsCallerDatesForCalendarFigures(t *testing.T) {
	svc := NewService(kpiFixtureRepo(), nil)
	svc.WithNow(fixedClock(day(2026, time.June, 15)))

	start, end := day(2026, time.February, 1), day(2026, time.February, 28)
	got, err := svc.KPISummary(context.Background(), Filter{Start: &start, End: &end})
	if err != nil {
		t.Fatalf("kpi summary: %v", err)
	}

	// As-filtered totals honour the requested range.
	if got.TotalBookings != 1 || got.TotalBookingAmount != 400 {
		t.Fatalf("filtered bookings = %d / %v", got.TotalBookings, got.TotalBookingAmount)
	}
	if got.TotalBillings != 0 {
		t.Fatalf("filtered billings = %d", got.TotalBillings)
	}
	if got.BookToBillRatio != 0 {
		t.Fatalf("ratio with zero billings = %v", got.BookToBillRatio)
	}

	// MTD and YTD ignore the caller range entirely.
	if got.TotalBookingsMTD != 300 || got.TotalBookingsYTD != 750 {
		t.Fatalf("calendar sums = %v / %v", got.TotalBookingsMTD, got.TotalBookingsYTD)
	}
}

func TestKPISummaryDimensionFilterNarrowsCalendarFigures(t *testing.T) {
	svc := NewService(kpiFixtureRepo(), nil)
	svc.WithNow(fixedClock(day(2026, time.June, 15)))

	got, err := svc.KPISummary(context.Background(), Filter{Region: "North"})
	if err != nil {
		t.Fatalf("kpi summary: %v", err)
	}
	if got.TotalBookings != 3 {
		t.Fatalf("north bookings = %d", got.TotalBookings)
	}
	if got.TotalBookingsMTD != 100 {
		t.Fatalf("north MTD bookings = %v", got.TotalBookingsMTD)
	}
	if got.CurrentMonthBacklogAmount != 500 {
		t.Fatalf("north current backlog = %v", got.CurrentMonthBacklogAmount)
	}
}

func TestKPISummaryEmptyDataIsAllZeros(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)
	svc.WithNow(fixedClock(day(2026, time.June, 15)))

	got, err := svc.KPISummary(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("kpi summary: %v", err)
	}
	if got != (KPISummary{}) {
		t.Fatalf("expected zero summary, got %#v", got)
	}
}

func TestKPISummaryPropagatesRepoError(t *testing.T) {
	svc := NewService(&fakeRepo{err: context.DeadlineExceeded}, nil)
	svc.WithNow(fixedClock(day(2026, time.June, 15)))

	if _, err := svc.KPISummary(context.Background(), Filter{}); err == nil {
		t.Fatalf("expected error")
	}
}
