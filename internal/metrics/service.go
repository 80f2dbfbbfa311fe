// Package metrics implements the aggregation engine behind the bookings,
// billings and backlog dashboard. Every derived view is recomputed per
// request from the persistence collaborator; the engine keeps no state of
// its own beyond the optional filter-option cache.
package metrics

import (
	"context"
	"math"
	"time"
)

// Stream identifies one of the three independent fact streams. They are
// correlated only by grouping key, never by transaction identity.
type Stream int

const (
	StreamBookings Stream = iota
	StreamBillings
	StreamBacklog
)

// String names the stream for error messages and cache keys.
func (s Stream) String() string {
	switch s {
	case StreamBookings:
		return "bookings"
	case StreamBillings:
		return "billings"
	case StreamBacklog:
		return "backlog"
	default:
		return "unknown"
	}
}

// Dimension selects a grouping or enumeration column.
type Dimension string

const (
	DimensionRegion   Dimension = "region"
	DimensionProduct  Dimension = "product"
	DimensionCustomer Dimension = "customer"
)

// MonthlyTotal is one month bucket of a grouped stream query.
type MonthlyTotal struct {
	Month  string // "2006-01"
	Amount float64
	Count  int64
}

// GroupTotal is one label bucket of a single-dimension grouping.
type GroupTotal struct {
	Label  string
	Amount float64
	Count  int64
}

// CustomerTotal is one (region, customer) bucket of a stream.
type CustomerTotal struct {
	Region   string
	Customer string
	Amount   float64
	Count    int64
}

// Repository is the persistence collaborator contract. Implementations
// apply the filter predicates AND-combined, scan empty result sets as
// zeros, and propagate retrieval failures without retrying.
type Repository interface {
	Count(ctx context.Context, stream Stream, f Filter) (int64, error)
	SumAmount(ctx context.Context, stream Stream, f Filter) (float64, error)
	MonthlyTotals(ctx context.Context, stream Stream, f Filter) ([]MonthlyTotal, error)
	GroupTotals(ctx context.Context, stream Stream, dim Dimension, f Filter) ([]GroupTotal, error)
	CustomerTotals(ctx context.Context, stream Stream, f Filter) ([]CustomerTotal, error)
	DistinctValues(ctx context.Context, dim Dimension) ([]string, error)
}

// Service is the aggregation engine. The cache is optional and only backs
// filter-option enumeration; derived metrics are never cached.
type Service struct {
	repo  Repository
	cache *Cache
	now   func() time.Time
}

// NewService wires the engine to its repository and optional cache.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// WithNow overrides the engine clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Cache exposes the option cache so callers can invalidate it.
func (s *Service) Cache() *Cache {
	return s.cache
}

// round2 rounds to two decimals. All monetary sums and ratios leave the
// engine rounded; counts stay integral.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// safeRatio divides with a zero-denominator guard: denominator zero yields
// zero, never NaN or Inf.
func safeRatio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return round2(numerator / denominator)
}

// percentChange is the month-over-month delta. A zero baseline reads as
// +100% when the current value is positive and 0 otherwise.
func percentChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return round2((current - previous) / previous * 100)
}
