package metrics

import (
	"context"
	"fmt"
)

// FilterOptions enumerates the distinct values the filter widgets offer.
// Values are read from the bookings stream, the authoritative source for
// dimension vocabulary.
type FilterOptions struct {
	Regions   []string `json:"regions"`
	Products  []string `json:"products"`
	Customers []string `json:"customers"`
}

// FilterOptions resolves distinct regions, products and customers, served
// through the versioned cache when one is configured.
func (s *Service) FilterOptions(ctx context.Context) (FilterOptions, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		var opts FilterOptions
		var err error
		if opts.Regions, err = s.repo.DistinctValues(ctx, DimensionRegion); err != nil {
			return FilterOptions{}, err
		}
		if opts.Products, err = s.repo.DistinctValues(ctx, DimensionProduct); err != nil {
			return FilterOptions{}, err
		}
		if opts.Customers, err = s.repo.DistinctValues(ctx, DimensionCustomer); err != nil {
			return FilterOptions{}, err
		}
		return opts, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return FilterOptions{}, fmt.Errorf("metrics: filter options: %w", err)
		}
		return value.(FilterOptions), nil
	}

	key, err := s.cache.BuildKey(ctx, "metrics", "options")
	if err != nil {
		return FilterOptions{}, fmt.Errorf("metrics: filter options: %w", err)
	}
	var opts FilterOptions
	if err := s.cache.FetchJSON(ctx, key, &opts, loader); err != nil {
		return FilterOptions{}, fmt.Errorf("metrics: filter options: %w", err)
	}
	return opts, nil
}
