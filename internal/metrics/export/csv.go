// Package export serialises dashboard datasets for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/bbb-analytics/bbb-analytics/internal/metrics"
)

// WriteKPICSV serialises the headline summary as metric/value pairs.
func WriteKPICSV(w io.Writer, summary metrics.KPISummary) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Total Bookings", formatInt(summary.TotalBookings)},
		{"Total Booking Amount", formatFloat(summary.TotalBookingAmount)},
		{"Total Billings", formatInt(summary.TotalBillings)},
		{"Total Billing Amount", formatFloat(summary.TotalBillingAmount)},
		{"Total Backlogs", formatInt(summary.TotalBacklogs)},
		{"Total Backlog Amount", formatFloat(summary.TotalBacklogAmount)},
		{"Book-to-Bill Ratio", formatFloat(summary.BookToBillRatio)},
		{"Bookings MTD", formatFloat(summary.TotalBookingsMTD)},
		{"Bookings YTD", formatFloat(summary.TotalBookingsYTD)},
		{"Billings MTD", formatFloat(summary.TotalBillingsMTD)},
		{"Billings YTD", formatFloat(summary.TotalBillingsYTD)},
		{"Backlog MTD", formatFloat(summary.TotalBacklogMTD)},
		{"Backlog YTD", formatFloat(summary.TotalBacklogYTD)},
		{"Book-to-Bill Ratio MTD", formatFloat(summary.BookToBillRatioMTD)},
		{"Book-to-Bill Ratio YTD", formatFloat(summary.BookToBillRatioYTD)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTrendCSV emits the rolling monthly series.
func WriteTrendCSV(w io.Writer, points []metrics.TrendPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Month", "Bookings", "Billings", "Bookings Count", "Billings Count"}); err != nil {
		return err
	}
	for _, point := range points {
		if err := writer.Write([]string{
			point.Name,
			formatFloat(point.Bookings),
			formatFloat(point.Billings),
			formatInt(point.BookingsCount),
			formatInt(point.BillingsCount),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDrillDownCSV flattens the region/customer hierarchy, region rollup
// rows first with their customers indented beneath.
func WriteDrillDownCSV(w io.Writer, regions []metrics.RegionSummary) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	header := []string{
		"Region", "Customer",
		"Bookings", "Booking Amount",
		"Billings", "Billing Amount",
		"Backlogs", "Backlog Amount",
		"Book-to-Bill Ratio", "Book-to-Bill Amount Ratio",
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, region := range regions {
		if err := writer.Write([]string{
			region.Region, "",
			formatInt(region.TotalBookings), formatFloat(region.BookingAmount),
			formatInt(region.TotalBillings), formatFloat(region.BillingAmount),
			formatInt(region.TotalBacklogs), formatFloat(region.BacklogAmount),
			formatFloat(region.BookToBillRatio), formatFloat(region.BookToBillAmountRatio),
		}); err != nil {
			return err
		}
		for _, customer := range region.Customers {
			if err := writer.Write([]string{
				region.Region, customer.Customer,
				formatInt(customer.Bookings), formatFloat(customer.BookingAmount),
				formatInt(customer.Billings), formatFloat(customer.BillingAmount),
				formatInt(customer.Backlogs), formatFloat(customer.BacklogAmount),
				formatFloat(customer.BookToBillRatio), formatFloat(customer.BookToBillAmountRatio),
			}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
