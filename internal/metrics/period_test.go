package metrics

import (
	"testing"
	"time"
)

func TestPeriodRangesMidYear(t *testing.T) {
	now := time.Date(2026, time.June, 18, 14, 30, 0, 0, time.UTC)
	p := PeriodRanges(now)

	if !p.CurrentMonth.From.Equal(day(2026, time.June, 1)) {
		t.Fatalf("current month start = %v", p.CurrentMonth.From)
	}
	if !p.CurrentMonth.To.Equal(day(2026, time.June, 30)) {
		t.Fatalf("current month end = %v", p.CurrentMonth.To)
	}
	if !p.PreviousMonth.From.Equal(day(2026, time.May, 1)) || !p.PreviousMonth.To.Equal(day(2026, time.May, 31)) {
		t.Fatalf("previous month = %v..%v", p.PreviousMonth.From, p.PreviousMonth.To)
	}
	if p.MTD != p.CurrentMonth {
		t.Fatalf("MTD should equal current month, got %v", p.MTD)
	}
	if !p.YTD.From.Equal(day(2026, time.January, 1)) || !p.YTD.To.Equal(day(2026, time.December, 31)) {
		t.Fatalf("YTD = %v..%v", p.YTD.From, p.YTD.To)
	}
}

func TestPeriodRangesJanuaryRollsBackToDecember(t *testing.T) {
	now := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	p := PeriodRanges(now)

	if !p.PreviousMonth.From.Equal(day(2025, time.December, 1)) {
		t.Fatalf("previous month start = %v", p.PreviousMonth.From)
	}
	if !p.PreviousMonth.To.Equal(day(2025, time.December, 31)) {
		t.Fatalf("previous month end = %v", p.PreviousMonth.To)
	}
	if !p.YTD.From.Equal(day(2026, time.January, 1)) {
		t.Fatalf("YTD start = %v", p.YTD.From)
	}
}

func TestPeriodRangesLeapFebruary(t *testing.T) {
	p := PeriodRanges(time.Date(2028, time.February, 10, 0, 0, 0, 0, time.UTC))
	if !p.CurrentMonth.To.Equal(day(2028, time.February, 29)) {
		t.Fatalf("leap february end = %v", p.CurrentMonth.To)
	}
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{From: day(2026, time.March, 1), To: day(2026, time.March, 31)}
	if !r.Contains(day(2026, time.March, 1)) || !r.Contains(day(2026, time.March, 31)) {
		t.Fatalf("range should include both endpoints")
	}
	if r.Contains(day(2026, time.February, 28)) || r.Contains(day(2026, time.April, 1)) {
		t.Fatalf("range should exclude days outside it")
	}
}
