package metrics

import (
	"context"
	"fmt"
	"sort"
)

// Slice is one wedge of a distribution chart.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Count int64   `json:"count"`
	Fill  string  `json:"fill"`
}

// regionColors keys the fixed palette by region name. Unrecognised regions
// fall back to fallbackColor so every wedge renders.
var regionColors = map[string]string{
	"South": "#8884d8",
	"North": "#83a6ed",
	"East":  "#82ca9d",
	"West":  "#a4de6c",
}

const fallbackColor = "#ffc658"

// productPalette is cycled by insertion order for the product chart.
var productPalette = []string{"#8884d8", "#82ca9d", "#ffc658", "#ff7300", "#00ff00", "#ff00ff"}

// BacklogByRegion sums backlog amount and row count per region. Labels come
// back deduplicated from the grouping with missing regions folded into
// Unknown; ordering follows the repository (largest value first).
func (s *Service) BacklogByRegion(ctx context.Context, f Filter) ([]Slice, error) {
	rows, err := s.repo.GroupTotals(ctx, StreamBacklog, DimensionRegion, f)
	if err != nil {
		return nil, fmt.Errorf("metrics: backlog by region: %w", err)
	}
	slices := make([]Slice, 0, len(rows))
	for _, row := range rows {
		fill, ok := regionColors[row.Label]
		if !ok {
			fill = fallbackColor
		}
		slices = append(slices, Slice{
			Name:  row.Label,
			Value: round2(row.Amount),
			Count: row.Count,
			Fill:  fill,
		})
	}
	return slices, nil
}

// ProductDistribution sums booking amount and row count per product,
// descending by value, with palette colors assigned cyclically in insertion
// order.
func (s *Service) ProductDistribution(ctx context.Context, f Filter) ([]Slice, error) {
	rows, err := s.repo.GroupTotals(ctx, StreamBookings, DimensionProduct, f)
	if err != nil {
		return nil, fmt.Errorf("metrics: product distribution: %w", err)
	}
	slices := make([]Slice, 0, len(rows))
	for i, row := range rows {
		slices = append(slices, Slice{
			Name:  row.Label,
			Value: round2(row.Amount),
			Count: row.Count,
			Fill:  productPalette[i%len(productPalette)],
		})
	}
	sort.SliceStable(slices, func(i, j int) bool { return slices[i].Value > slices[j].Value })
	return slices, nil
}
