package analytics

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"evsales/internal/dataprocessing"
	"evsales/internal/dataset"
	"evsales/pkg/contracts/domain"
)

// monthGroup is the run of rows sharing one Date.
type monthGroup struct {
	date time.Time
	rows []domain.Record
}

// prepare checks the measure columns and returns the table keyed and sorted by Date.
func prepare(t *dataset.Table, operation string, cols ...domain.Column) (*dataset.Table, error) {
	if err := t.Require(operation, cols...); err != nil {
		return nil, err
	}
	return dataprocessing.EnsureDate(t)
}

// groupByDate splits a Date-sorted table into consecutive month groups.
// Rows without a Date belong to no group.
func groupByDate(t *dataset.Table) []monthGroup {
	var groups []monthGroup
	for _, r := range t.Rows() {
		d, ok := r.Date.Get()
		if !ok {
			continue
		}
		if n := len(groups); n > 0 && groups[n-1].date.Equal(d) {
			groups[n-1].rows = append(groups[n-1].rows, r)
			continue
		}
		groups = append(groups, monthGroup{date: d, rows: []domain.Record{r}})
	}
	return groups
}

func present(rows []domain.Record, c domain.Column) []float64 {
	var out []float64
	for _, r := range rows {
		if v, ok := r.Numeric(c).Get(); ok {
			out = append(out, v)
		}
	}
	return out
}

// sumOf skips absent values. No values sums to 0.
func sumOf(rows []domain.Record, c domain.Column) float64 {
	return floats.Sum(present(rows, c))
}

// meanOf skips absent values. No values averages to 0.
func meanOf(rows []domain.Record, c domain.Column) float64 {
	return mean(present(rows, c))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// reduceFrame applies one reducer per column to every month group.
func reduceFrame(groups []monthGroup, cols []domain.Column, reduce func([]domain.Record, domain.Column) float64) Frame {
	f := Frame{Dates: make([]time.Time, len(groups)), Columns: make([]string, len(cols)), Values: make([][]float64, len(cols))}
	for j, c := range cols {
		f.Columns[j] = string(c)
		f.Values[j] = make([]float64, len(groups))
	}
	for i, g := range groups {
		f.Dates[i] = g.date
		for j, c := range cols {
			f.Values[j][i] = reduce(g.rows, c)
		}
	}
	return f
}

// Pearson returns the linear correlation of x and y. Fewer than two points or a
// constant input gives 0.
func Pearson(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// safeDiv returns 0 when the denominator is 0.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
