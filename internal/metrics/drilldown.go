package metrics

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CustomerSummary is the leaf level of the drill-down view: one customer's
// totals within a region, with both ratio variants. A customer appearing in
// only one stream keeps zeroed figures for the others.
type CustomerSummary struct {
	Customer              string  `json:"customer"`
	Region                string  `json:"region"`
	Bookings              int64   `json:"bookings"`
	BookingAmount         float64 `json:"bookingAmount"`
	Billings              int64   `json:"billings"`
	BillingAmount         float64 `json:"billingAmount"`
	Backlogs              int64   `json:"backlogs"`
	BacklogAmount         float64 `json:"backlogAmount"`
	BookToBillRatio       float64 `json:"bookToBillRatio"`
	BookToBillAmountRatio float64 `json:"bookToBillAmountRatio"`
}

// RegionSummary rolls a region's customers up. The per-stream customer
// counts are distinct cardinalities per stream, not a shared denominator,
// and region ratios are recomputed from region totals rather than averaged
// from customer ratios.
type RegionSummary struct {
	Region                string            `json:"region"`
	BookingCustomersCount int               `json:"bookingCustomersCount"`
	BillingCustomersCount int               `json:"billingCustomersCount"`
	BacklogCustomersCount int               `json:"backlogCustomersCount"`
	TotalBookings         int64             `json:"totalBookings"`
	BookingAmount         float64           `json:"bookingAmount"`
	TotalBillings         int64             `json:"totalBillings"`
	BillingAmount         float64           `json:"billingAmount"`
	TotalBacklogs         int64             `json:"totalBacklogs"`
	BacklogAmount         float64           `json:"backlogAmount"`
	BookToBillRatio       float64           `json:"bookToBillRatio"`
	BookToBillAmountRatio float64           `json:"bookToBillAmountRatio"`
	Customers             []CustomerSummary `json:"customers"`
}

type customerKey struct {
	region   string
	customer string
}

type customerAcc struct {
	bookings      int64
	bookingAmount float64
	billings      int64
	billingAmount float64
	backlogs      int64
	backlogAmount float64
}

// regionAcc tracks raw region totals plus one counting set per stream.
type regionAcc struct {
	bookings         int64
	bookingAmount    float64
	billings         int64
	billingAmount    float64
	backlogs         int64
	backlogAmount    float64
	bookingCustomers map[string]struct{}
	billingCustomers map[string]struct{}
	backlogCustomers map[string]struct{}
	customers        []CustomerSummary
}

// DrillDown joins the three streams by (region, customer) over the union of
// keys: a pair present in any stream appears in the output with the missing
// streams zeroed.
func (s *Service) DrillDown(ctx context.Context, f Filter) ([]RegionSummary, error) {
	var bookingRows, billingRows, backlogRows []CustomerTotal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.CustomerTotals(gctx, StreamBookings, f)
		bookingRows = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.CustomerTotals(gctx, StreamBillings, f)
		billingRows = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.CustomerTotals(gctx, StreamBacklog, f)
		backlogRows = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("metrics: drill-down: %w", err)
	}

	accs := make(map[customerKey]*customerAcc)
	acc := func(region, customer string) *customerAcc {
		key := customerKey{region: fallbackLabel(region), customer: fallbackLabel(customer)}
		a, ok := accs[key]
		if !ok {
			a = &customerAcc{}
			accs[key] = a
		}
		return a
	}
	for _, row := range bookingRows {
		a := acc(row.Region, row.Customer)
		a.bookings += row.Count
		a.bookingAmount += row.Amount
	}
	for _, row := range billingRows {
		a := acc(row.Region, row.Customer)
		a.billings += row.Count
		a.billingAmount += row.Amount
	}
	for _, row := range backlogRows {
		a := acc(row.Region, row.Customer)
		a.backlogs += row.Count
		a.backlogAmount += row.Amount
	}

	regions := make(map[string]*regionAcc)
	for key, a := range accs {
		r, ok := regions[key.region]
		if !ok {
			r = &regionAcc{
				bookingCustomers: make(map[string]struct{}),
				billingCustomers: make(map[string]struct{}),
				backlogCustomers: make(map[string]struct{}),
			}
			regions[key.region] = r
		}
		r.customers = append(r.customers, CustomerSummary{
			Customer:              key.customer,
			Region:                key.region,
			Bookings:              a.bookings,
			BookingAmount:         round2(a.bookingAmount),
			Billings:              a.billings,
			BillingAmount:         round2(a.billingAmount),
			Backlogs:              a.backlogs,
			BacklogAmount:         round2(a.backlogAmount),
			BookToBillRatio:       safeRatio(float64(a.bookings), float64(a.billings)),
			BookToBillAmountRatio: safeRatio(a.bookingAmount, a.billingAmount),
		})
		r.bookings += a.bookings
		r.bookingAmount += a.bookingAmount
		r.billings += a.billings
		r.billingAmount += a.billingAmount
		r.backlogs += a.backlogs
		r.backlogAmount += a.backlogAmount
		if a.bookings > 0 {
			r.bookingCustomers[key.customer] = struct{}{}
		}
		if a.billings > 0 {
			r.billingCustomers[key.customer] = struct{}{}
		}
		if a.backlogs > 0 {
			r.backlogCustomers[key.customer] = struct{}{}
		}
	}

	collator := collate.New(language.English)
	out := make([]RegionSummary, 0, len(regions))
	for name, r := range regions {
		sort.SliceStable(r.customers, func(i, j int) bool {
			return collator.CompareString(r.customers[i].Customer, r.customers[j].Customer) < 0
		})
		out = append(out, RegionSummary{
			Region:                name,
			BookingCustomersCount: len(r.bookingCustomers),
			BillingCustomersCount: len(r.billingCustomers),
			BacklogCustomersCount: len(r.backlogCustomers),
			TotalBookings:         r.bookings,
			BookingAmount:         round2(r.bookingAmount),
			TotalBillings:         r.billings,
			BillingAmount:         round2(r.billingAmount),
			TotalBacklogs:         r.backlogs,
			BacklogAmount:         round2(r.backlogAmount),
			BookToBillRatio:       safeRatio(float64(r.bookings), float64(r.billings)),
			BookToBillAmountRatio: safeRatio(r.bookingAmount, r.billingAmount),
			Customers:             r.customers,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out, nil
}

func fallbackLabel(v string) string {
	if v == "" {
		return UnknownLabel
	}
	return v
}
