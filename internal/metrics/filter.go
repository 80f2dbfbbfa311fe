package metrics

import "time"

// UnknownLabel is substituted when a record carries no region or customer.
// Rows are never dropped for missing dimension values.
const UnknownLabel = "Unknown"

// Filter narrows the record streams. Zero values mean no constraint on the
// dimension; all present constraints are AND-combined.
type Filter struct {
	Start    *time.Time
	End      *time.Time
	Region   string
	Product  string
	Customer string
}

// WithoutDates strips any caller-supplied date range. Calendar-anchored
// figures (MTD, YTD, month-over-month) ignore the requested range and keep
// only the dimensional constraints.
func (f Filter) WithoutDates() Filter {
	f.Start = nil
	f.End = nil
	return f
}

// WithRange pins the filter to the given calendar window, replacing any
// caller-supplied dates.
func (f Filter) WithRange(r DateRange) Filter {
	from, to := r.From, r.To
	f.Start = &from
	f.End = &to
	return f
}
