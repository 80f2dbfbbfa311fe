package metrics

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestDrillDownJoinsStreamsByRegionAndCustomer(t *testing.T) {
	repo := &fakeRepo{records: []record{
		{stream: StreamBookings, date: day(2026, time.June, 1), region: "North", customer: "Acme", amount: 100},
		{stream: StreamBookings, date: day(2026, time.June, 2), region: "North", customer: "Borealis", amount: 200},
		{stream: StreamBillings, date: day(2026, time.June, 3), region: "North", customer: "Acme", amount: 50},
	}}
	svc := NewService(repo, nil)

	regions, err := svc.DrillDown(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("drill-down: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}

	north := regions[0]
	if north.Region != "North" {
		t.Fatalf("region = %q", north.Region)
	}
	if north.TotalBookings != 2 || north.BookingAmount != 300 {
		t.Fatalf("region bookings = %d / %v", north.TotalBookings, north.BookingAmount)
	}
	if north.TotalBillings != 1 || north.BillingAmount != 50 {
		t.Fatalf("region billings = %d / %v", north.TotalBillings, north.BillingAmount)
	}
	if north.BookToBillRatio != 2 || north.BookToBillAmountRatio != 6 {
		t.Fatalf("region ratios = %v / %v", north.BookToBillRatio, north.BookToBillAmountRatio)
	}

	// Distinct customer counts are tracked per stream.
	if north.BookingCustomersCount != 2 || north.BillingCustomersCount != 1 || north.BacklogCustomersCount != 0 {
		t.Fatalf("customer counts = %d / %d / %d",
			north.BookingCustomersCount, north.BillingCustomersCount, north.BacklogCustomersCount)
	}

	if len(north.Customers) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(north.Customers))
	}
	acme, borealis := north.Customers[0], north.Customers[1]
	if acme.Customer != "Acme" || borealis.Customer != "Borealis" {
		t.Fatalf("customer order = %q, %q", acme.Customer, borealis.Customer)
	}
	if acme.BookToBillRatio != 1 || acme.BookToBillAmountRatio != 2 {
		t.Fatalf("acme ratios = %v / %v", acme.BookToBillRatio, acme.BookToBillAmountRatio)
	}
	// A customer with no billings keeps zeroed ratios instead of NaN.
	if borealis.Billings != 0 || borealis.BookToBillRatio != 0 || borealis.BookToBillAmountRatio != 0 {
		t.Fatalf("borealis billing figures = %d / %v / %v",
			borealis.Billings, borealis.BookToBillRatio, borealis.BookToBillAmountRatio)
	}
}

func TestDrillDownUnionIncludesSingleStreamCustomers(t *testing.T) {
	repo := &fakeRepo{records: []record{
		{stream: StreamBacklog, date: day(2026, time.June, 1), region: "West", customer: "Delta", amount: 75},
	}}
	svc := NewService(repo, nil)

	regions, err := svc.DrillDown(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("drill-down: %v", err)
	}
	if len(regions) != 1 || regions[0].Region != "West" {
		t.Fatalf("unexpected regions %#v", regions)
	}
	west := regions[0]
	if west.BacklogCustomersCount != 1 || west.BookingCustomersCount != 0 {
		t.Fatalf("customer counts = %d / %d", west.BacklogCustomersCount, west.BookingCustomersCount)
	}
	if len(west.Customers) != 1 || west.Customers[0].Backlogs != 1 || west.Customers[0].BacklogAmount != 75 {
		t.Fatalf("unexpected customers %#v", west.Customers)
	}
	if west.Customers[0].Bookings != 0 || west.Customers[0].Billings != 0 {
		t.Fatalf("missing streams should stay zeroed, got %#v", west.Customers[0])
	}
}

func TestDrillDownFoldsMissingLabelsIntoUnknown(t *testing.T) {
	repo := &fakeRepo{records: []record{
		{stream: StreamBookings, date: day(2026, time.June, 1), region: "", customer: "", amount: 10},
	}}
	svc := NewService(repo, nil)

	regions, err := svc.DrillDown(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("drill-down: %v", err)
	}
	if len(regions) != 1 || regions[0].Region != UnknownLabel {
		t.Fatalf("unexpected regions %#v", regions)
	}
	if regions[0].Customers[0].Customer != UnknownLabel {
		t.Fatalf("customer label = %q", regions[0].Customers[0].Customer)
	}
}

func TestDrillDownOrderingIsDeterministic(t *testing.T) {
	repo := &fakeRepo{records: []record{
		{stream: StreamBookings, date: day(2026, time.June, 1), region: "West", customer: "Zephyr", amount: 10},
		{stream: StreamBookings, date: day(2026, time.June, 2), region: "East", customer: "alpha", amount: 20},
		{stream: StreamBookings, date: day(2026, time.June, 3), region: "East", customer: "Bravo", amount: 30},
		{stream: StreamBillings, date: day(2026, time.June, 4), region: "North", customer: "Acme", amount: 40},
	}}
	svc := NewService(repo, nil)
	ctx := context.Background()

	first, err := svc.DrillDown(ctx, Filter{})
	if err != nil {
		t.Fatalf("drill-down: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 regions, got %d", len(first))
	}
	if first[0].Region != "East" || first[1].Region != "North" || first[2].Region != "West" {
		t.Fatalf("region order = %q %q %q", first[0].Region, first[1].Region, first[2].Region)
	}
	// Customers sort case-insensitively, the way the UI lists them.
	east := first[0]
	if east.Customers[0].Customer != "alpha" || east.Customers[1].Customer != "Bravo" {
		t.Fatalf("customer order = %q, %q", east.Customers[0].Customer, east.Customers[1].Customer)
	}

	second, err := svc.DrillDown(ctx, Filter{})
	if err != nil {
		t.Fatalf("drill-down: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input should produce identical output")
	}
}
