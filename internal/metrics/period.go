package metrics

import "time"

// DateRange is an inclusive [From, To] day span.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// PeriodSet holds the calendar windows every other computation anchors to.
// MTD spans the whole current calendar month and YTD the whole current year,
// matching how the dashboard has always defined its month/year figures.
type PeriodSet struct {
	CurrentMonth  DateRange
	PreviousMonth DateRange
	MTD           DateRange
	YTD           DateRange
}

// PeriodRanges derives the calendar windows relative to now. Pure calendar
// math; time.Date normalises the December to January rollover.
func PeriodRanges(now time.Time) PeriodSet {
	year, month := now.Year(), now.Month()

	currentStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	currentEnd := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)

	previousStart := time.Date(year, month-1, 1, 0, 0, 0, 0, time.UTC)
	previousEnd := time.Date(year, month, 0, 0, 0, 0, 0, time.UTC)

	current := DateRange{From: currentStart, To: currentEnd}
	return PeriodSet{
		CurrentMonth:  current,
		PreviousMonth: DateRange{From: previousStart, To: previousEnd},
		MTD:           current,
		YTD: DateRange{
			From: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		},
	}
}
