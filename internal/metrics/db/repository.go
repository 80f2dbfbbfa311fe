// Package metricsdb implements the metrics.Repository contract on
// PostgreSQL. All queries are read-only filtered aggregations; empty result
// sets scan as zeros via COALESCE and failures propagate without retries.
package metricsdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bbb-analytics/bbb-analytics/internal/metrics"
)

var _ metrics.Repository = (*Repo)(nil)

// streamSource maps a stream to its fact table and amount column.
type streamSource struct {
	table  string
	amount string
}

var streamSources = map[metrics.Stream]streamSource{
	metrics.StreamBookings: {table: "bookings", amount: "booking_amount"},
	metrics.StreamBillings: {table: "billings", amount: "billed_amount"},
	metrics.StreamBacklog:  {table: "backlog", amount: "backlog_amount"},
}

// Repo executes the dashboard aggregation queries.
type Repo struct {
	pool *pgxpool.Pool
}

// New wires the repository to a connection pool.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func source(stream metrics.Stream) (streamSource, error) {
	src, ok := streamSources[stream]
	if !ok {
		return streamSource{}, fmt.Errorf("metricsdb: unknown stream %d", int(stream))
	}
	return src, nil
}

// whereClause renders the optional filter predicates as an AND-combined
// WHERE clause with positional parameters.
func whereClause(f metrics.Filter) (string, []any) {
	var conditions []string
	var args []any
	add := func(cond string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if f.Start != nil {
		add("date >= $%d", *f.Start)
	}
	if f.End != nil {
		add("date <= $%d", *f.End)
	}
	if f.Region != "" {
		add("region = $%d", f.Region)
	}
	if f.Product != "" {
		add("product = $%d", f.Product)
	}
	if f.Customer != "" {
		add("customer = $%d", f.Customer)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Count returns the number of rows matching the filter.
func (r *Repo) Count(ctx context.Context, stream metrics.Stream, f metrics.Filter) (int64, error) {
	src, err := source(stream)
	if err != nil {
		return 0, err
	}
	where, args := whereClause(f)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", src.table, where)

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("metricsdb: count %s: %w", stream, err)
	}
	return count, nil
}

// SumAmount returns the summed amount of rows matching the filter.
func (r *Repo) SumAmount(ctx context.Context, stream metrics.Stream, f metrics.Filter) (float64, error) {
	src, err := source(stream)
	if err != nil {
		return 0, err
	}
	where, args := whereClause(f)
	query := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0)::float8 FROM %s%s", src.amount, src.table, where)

	var total float64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("metricsdb: sum %s: %w", stream, err)
	}
	return total, nil
}

// MonthlyTotals groups matching rows by calendar month.
func (r *Repo) MonthlyTotals(ctx context.Context, stream metrics.Stream, f metrics.Filter) ([]metrics.MonthlyTotal, error) {
	src, err := source(stream)
	if err != nil {
		return nil, err
	}
	where, args := whereClause(f)
	query := fmt.Sprintf(`
		SELECT to_char(date, 'YYYY-MM') AS month,
		       COALESCE(SUM(%s), 0)::float8 AS total,
		       COUNT(*) AS cnt
		FROM %s%s
		GROUP BY 1
		ORDER BY 1`, src.amount, src.table, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metricsdb: monthly totals %s: %w", stream, err)
	}
	defer rows.Close()

	var totals []metrics.MonthlyTotal
	for rows.Next() {
		var t metrics.MonthlyTotal
		if err := rows.Scan(&t.Month, &t.Amount, &t.Count); err != nil {
			return nil, fmt.Errorf("metricsdb: monthly totals %s scan: %w", stream, err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metricsdb: monthly totals %s rows: %w", stream, err)
	}
	return totals, nil
}

// GroupTotals groups matching rows by one dimension, largest amount first.
// Missing labels fold into the Unknown bucket instead of being dropped.
func (r *Repo) GroupTotals(ctx context.Context, stream metrics.Stream, dim metrics.Dimension, f metrics.Filter) ([]metrics.GroupTotal, error) {
	src, err := source(stream)
	if err != nil {
		return nil, err
	}
	column, err := dimensionColumn(dim)
	if err != nil {
		return nil, err
	}
	where, args := whereClause(f)
	query := fmt.Sprintf(`
		SELECT COALESCE(NULLIF(%s, ''), '%s') AS label,
		       COALESCE(SUM(%s), 0)::float8 AS total,
		       COUNT(*) AS cnt
		FROM %s%s
		GROUP BY 1
		ORDER BY total DESC`, column, metrics.UnknownLabel, src.amount, src.table, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metricsdb: group totals %s by %s: %w", stream, dim, err)
	}
	defer rows.Close()

	var totals []metrics.GroupTotal
	for rows.Next() {
		var t metrics.GroupTotal
		if err := rows.Scan(&t.Label, &t.Amount, &t.Count); err != nil {
			return nil, fmt.Errorf("metricsdb: group totals %s by %s scan: %w", stream, dim, err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metricsdb: group totals %s by %s rows: %w", stream, dim, err)
	}
	return totals, nil
}

// CustomerTotals groups matching rows by (region, customer).
func (r *Repo) CustomerTotals(ctx context.Context, stream metrics.Stream, f metrics.Filter) ([]metrics.CustomerTotal, error) {
	src, err := source(stream)
	if err != nil {
		return nil, err
	}
	where, args := whereClause(f)
	query := fmt.Sprintf(`
		SELECT COALESCE(NULLIF(region, ''), '%[1]s') AS region,
		       COALESCE(NULLIF(customer, ''), '%[1]s') AS customer,
		       COALESCE(SUM(%[2]s), 0)::float8 AS total,
		       COUNT(*) AS cnt
		FROM %[3]s%[4]s
		GROUP BY 1, 2
		ORDER BY 1, 2`, metrics.UnknownLabel, src.amount, src.table, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metricsdb: customer totals %s: %w", stream, err)
	}
	defer rows.Close()

	var totals []metrics.CustomerTotal
	for rows.Next() {
		var t metrics.CustomerTotal
		if err := rows.Scan(&t.Region, &t.Customer, &t.Amount, &t.Count); err != nil {
			return nil, fmt.Errorf("metricsdb: customer totals %s scan: %w", stream, err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metricsdb: customer totals %s rows: %w", stream, err)
	}
	return totals, nil
}

// DistinctValues enumerates the dimension vocabulary from the bookings
// stream, ordered alphabetically.
func (r *Repo) DistinctValues(ctx context.Context, dim metrics.Dimension) ([]string, error) {
	column, err := dimensionColumn(dim)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT DISTINCT %[1]s
		FROM bookings
		WHERE %[1]s IS NOT NULL AND %[1]s <> ''
		ORDER BY %[1]s`, column)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("metricsdb: distinct %s: %w", dim, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("metricsdb: distinct %s scan: %w", dim, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metricsdb: distinct %s rows: %w", dim, err)
	}
	return values, nil
}

func dimensionColumn(dim metrics.Dimension) (string, error) {
	switch dim {
	case metrics.DimensionRegion, metrics.DimensionProduct, metrics.DimensionCustomer:
		return string(dim), nil
	default:
		return "", fmt.Errorf("metricsdb: unknown dimension %q", dim)
	}
}
