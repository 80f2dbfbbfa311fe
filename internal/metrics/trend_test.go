package metrics

import (
	"context"
	"testing"
	"time"
)

func TestMonthlyTrendZeroFillsTwelveMonths(t *testing.T) {
	repo := &fakeRepo{records: []record{
		{stream: StreamBookings, date: day(2026, time.June, 3), amount: 100},
		{stream: StreamBookings, date: day(2026, time.June, 22), amount: 50},
		{stream: StreamBookings, date: day(2025, time.July, 8), amount: 30},
		// Thirteen months back, outside the rolling window.
		{stream: StreamBookings, date: day(2025, time.May, 1), amount: 999},
		{stream: StreamBillings, date: day(2026, time.January, 12), amount: 70},
	}}
	svc := NewService(repo, nil)
	svc.WithNow(fixedClock(day(2026, time.June, 15)))

	points, err := svc.MonthlyTrend(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("monthly trend: %v", err)
	}
	if len(points) != TrendWindowMonths {
		t.Fatalf("expected %d points, got %d", TrendWindowMonths, len(points))
	}

	// Oldest first: July 2025 through June 2026.
	if points[0].Name != "Jul" {
		t.Fatalf("first point = %q", points[0].Name)
	}
	if points[11].Name != "Jun" {
		t.Fatalf("last point = %q", points[11].Name)
	}

	if points[0].Bookings != 30 || points[0].BookingsCount != 1 {
		t.Fatalf("jul 2025 = %v / %d", points[0].Bookings, points[0].BookingsCount)
	}
	if points[11].Bookings != 150 || points[11].BookingsCount != 2 {
		t.Fatalf("jun 2026 = %v / %d", points[11].Bookings, points[11].BookingsCount)
	}
	if points[6].Billings != 70 || points[6].BillingsCount != 1 {
		t.Fatalf("jan 2026 billings = %v / %d", points[6].Billings, points[6].BillingsCount)
	}

	// Every other bucket stays zeroed rather than being dropped.
	for i, p := range points {
		if i == 0 || i == 6 || i == 11 {
			continue
		}
		if p.Bookings != 0 || p.Billings != 0 || p.BookingsCount != 0 || p.BillingsCount != 0 {
			t.Fatalf("bucket %d (%s) should be empty, got %#v", i, p.Name, p)
		}
	}
}

func TestMonthlyTrendRespectsFilter(t *testing.T) {
	repo := &fakeRepo{records: []record{
		{stream: StreamBookings, date: day(2026, time.June, 3), region: "North", amount: 100},
		{stream: StreamBookings, date: day(2026, time.June, 4), region: "South", amount: 40},
	}}
	svc := NewService(repo, nil)
	svc.WithNow(fixedClock(day(2026, time.June, 15)))

	points, err := svc.MonthlyTrend(context.Background(), Filter{Region: "North"})
	if err != nil {
		t.Fatalf("monthly trend: %v", err)
	}
	if points[11].Bookings != 100 || points[11].BookingsCount != 1 {
		t.Fatalf("filtered jun = %v / %d", points[11].Bookings, points[11].BookingsCount)
	}
}

func TestMonthlyTrendJanuaryAnchorSpansYears(t *testing.T) {
	repo := &fakeRepo{records: []record{
		{stream: StreamBillings, date: day(2025, time.February, 2), amount: 10},
	}}
	svc := NewService(repo, nil)
	svc.WithNow(fixedClock(day(2026, time.January, 20)))

	points, err := svc.MonthlyTrend(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("monthly trend: %v", err)
	}
	if points[0].Name != "Feb" || points[0].Billings != 10 {
		t.Fatalf("feb 2025 = %q / %v", points[0].Name, points[0].Billings)
	}
	if points[11].Name != "Jan" {
		t.Fatalf("last point = %q", points[11].Name)
	}
}
