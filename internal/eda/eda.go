// Package eda provides the basic exploratory views of a sales table: shape and
// column overview, descriptive statistics, missing values, category counts,
// numeric correlation, year/month distribution and per-column value
// distributions.
package eda

import (
	"cmp"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"evsales/internal/analytics"
	"evsales/internal/dataset"
	"evsales/pkg/contracts/domain"
)

// HeadSize is the number of rows shown at each end of the overview.
const HeadSize = 5

// ColumnInfo describes one column of the table.
type ColumnInfo struct {
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Missing    int     `json:"missing"`
	MissingPct float64 `json:"missing_pct"`
}

// OverviewResult is the shape and column summary of a table.
type OverviewResult struct {
	Rows    int            `json:"rows"`
	Columns []ColumnInfo   `json:"columns"`
	Head    *dataset.Table `json:"-"`
	Tail    *dataset.Table `json:"-"`
}

// Description is the descriptive statistics of one numeric column.
type Description struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Q50    float64 `json:"q50"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Count pairs a category value with its number of rows.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoryCounts holds the value counts of one column.
type CategoryCounts struct {
	Column string  `json:"column"`
	Counts []Count `json:"counts"`
}

// ValueCountsResult holds the counted columns and the requested columns the table lacked.
type ValueCountsResult struct {
	Columns []CategoryCounts `json:"columns"`
	Skipped []string         `json:"skipped,omitempty"`
}

// Matrix is a square matrix over named columns.
type Matrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// KeyCount pairs an integer key with a row count.
type KeyCount struct {
	Key   int `json:"key"`
	Count int `json:"count"`
}

// YearMonthResult counts rows by Year and by Month. A nil slice means the column is absent.
type YearMonthResult struct {
	ByYear  []KeyCount `json:"by_year"`
	ByMonth []KeyCount `json:"by_month"`
}

// Distribution is the present values of one numeric column.
type Distribution struct {
	Column string    `json:"column"`
	Values []float64 `json:"values"`
}

// Overview returns the table shape, column kinds, missing counts and head/tail rows.
func Overview(t *dataset.Table) OverviewResult {
	out := OverviewResult{Rows: t.Len(), Head: t.Head(HeadSize), Tail: t.Tail(HeadSize)}
	for _, c := range t.Columns() {
		out.Columns = append(out.Columns, columnInfo(string(c), kindName(c.Kind()), countMissing(t, c), t.Len()))
	}
	for _, h := range t.Extras() {
		out.Columns = append(out.Columns, columnInfo(h, "text", countMissingExtra(t, h), t.Len()))
	}
	return out
}

func columnInfo(name, kind string, missing, rows int) ColumnInfo {
	info := ColumnInfo{Name: name, Kind: kind, Missing: missing}
	if rows > 0 {
		info.MissingPct = math.Round(float64(missing)/float64(rows)*10000) / 100
	}
	return info
}

func kindName(k domain.ColumnKind) string {
	switch k {
	case domain.KindInteger:
		return "integer"
	case domain.KindCategorical:
		return "categorical"
	case domain.KindDate:
		return "date"
	default:
		return "numeric"
	}
}

// Describe computes count, mean, sample std, min, quartiles and max for every
// integer and numeric column. Quartiles use linear interpolation of the
// empirical distribution.
func Describe(t *dataset.Table) []Description {
	var out []Description
	for _, c := range numericColumns(t) {
		values := presentValues(t, c)
		d := Description{Column: string(c), Count: len(values)}
		if len(values) > 0 {
			slices.Sort(values)
			d.Mean = stat.Mean(values, nil)
			if len(values) > 1 {
				d.Std = stat.StdDev(values, nil)
			}
			d.Min = values[0]
			d.Max = values[len(values)-1]
			d.Q25 = stat.Quantile(0.25, stat.LinInterp, values, nil)
			d.Q50 = stat.Quantile(0.50, stat.LinInterp, values, nil)
			d.Q75 = stat.Quantile(0.75, stat.LinInterp, values, nil)
		}
		out = append(out, d)
	}
	return out
}

// MissingCounts returns the columns with at least one missing value, fewest first.
func MissingCounts(t *dataset.Table) []Count {
	var out []Count
	for _, info := range Overview(t).Columns {
		if info.Missing > 0 {
			out = append(out, Count{Value: info.Name, Count: info.Missing})
		}
	}
	slices.SortStableFunc(out, func(a, b Count) int { return cmp.Compare(a.Count, b.Count) })
	return out
}

// ValueCounts counts the values of each requested column, most frequent first.
// A column the table lacks is logged and skipped; the rest are still counted.
func ValueCounts(t *dataset.Table, columns []string, logger *slog.Logger) ValueCountsResult {
	var out ValueCountsResult
	for _, name := range columns {
		values, ok := columnStrings(t, name)
		if !ok {
			logger.Warn("column not in table", slog.String("column", name))
			out.Skipped = append(out.Skipped, name)
			continue
		}
		out.Columns = append(out.Columns, CategoryCounts{Column: name, Counts: countValues(values)})
	}
	return out
}

func countValues(values []string) []Count {
	counts := lo.CountValues(values)
	order := lo.Uniq(values)
	out := make([]Count, len(order))
	for i, v := range order {
		out[i] = Count{Value: v, Count: counts[v]}
	}
	slices.SortStableFunc(out, func(a, b Count) int { return cmp.Compare(b.Count, a.Count) })
	return out
}

// CorrelationMatrix computes Pearson correlation between every pair of integer
// and numeric columns over the rows where both values are present.
func CorrelationMatrix(t *dataset.Table) Matrix {
	cols := numericColumns(t)
	m := Matrix{Columns: make([]string, len(cols)), Values: make([][]float64, len(cols))}
	rows := t.Rows()
	for i, a := range cols {
		m.Columns[i] = string(a)
		m.Values[i] = make([]float64, len(cols))
		for j, b := range cols {
			var xs, ys []float64
			for _, r := range rows {
				x, okX := r.Numeric(a).Get()
				y, okY := r.Numeric(b).Get()
				if okX && okY {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			m.Values[i][j] = analytics.Pearson(xs, ys)
		}
	}
	return m
}

// YearMonthDistribution counts rows per Year and per Month, ordered by key.
func YearMonthDistribution(t *dataset.Table) YearMonthResult {
	var out YearMonthResult
	if t.Has(domain.ColYear) {
		out.ByYear = countKeys(t, domain.ColYear)
	}
	if t.Has(domain.ColMonth) {
		out.ByMonth = countKeys(t, domain.ColMonth)
	}
	return out
}

func countKeys(t *dataset.Table, c domain.Column) []KeyCount {
	keys := lo.FilterMap(t.Rows(), func(r domain.Record, _ int) (int, bool) {
		return r.Integer(c).Get()
	})
	counts := lo.CountValues(keys)
	out := make([]KeyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, KeyCount{Key: k, Count: n})
	}
	slices.SortFunc(out, func(a, b KeyCount) int { return cmp.Compare(a.Key, b.Key) })
	return out
}

// Distributions returns the present values of every measure column in the table.
func Distributions(t *dataset.Table) []Distribution {
	var out []Distribution
	for _, c := range domain.NumericColumns {
		if !t.Has(c) {
			continue
		}
		out = append(out, Distribution{Column: string(c), Values: presentValues(t, c)})
	}
	return out
}

func numericColumns(t *dataset.Table) []domain.Column {
	return lo.Filter(t.Columns(), func(c domain.Column, _ int) bool {
		k := c.Kind()
		return k == domain.KindInteger || k == domain.KindNumeric
	})
}

func presentValues(t *dataset.Table, c domain.Column) []float64 {
	return lo.FilterMap(t.Numeric(c), func(v domain.Optional[float64], _ int) (float64, bool) {
		return v.Get()
	})
}

func countMissing(t *dataset.Table, c domain.Column) int {
	return lo.CountBy(t.Rows(), func(r domain.Record) bool { return !r.Present(c) })
}

func countMissingExtra(t *dataset.Table, header string) int {
	return lo.CountBy(t.Rows(), func(r domain.Record) bool { return r.Extra[header] == "" })
}

// columnStrings resolves a column by canonical name or extra header and returns
// its present values as text.
func columnStrings(t *dataset.Table, name string) ([]string, bool) {
	c := domain.Column(name)
	if c.Known() && t.Has(c) {
		var out []string
		for _, r := range t.Rows() {
			if s, ok := formatValue(r, c); ok {
				out = append(out, s)
			}
		}
		return out, true
	}
	if slices.Contains(t.Extras(), name) {
		var out []string
		for _, r := range t.Rows() {
			if v := r.Extra[name]; v != "" {
				out = append(out, v)
			}
		}
		return out, true
	}
	return nil, false
}

func formatValue(r domain.Record, c domain.Column) (string, bool) {
	switch c.Kind() {
	case domain.KindCategorical:
		return r.Categorical(c).Get()
	case domain.KindInteger:
		v, ok := r.Integer(c).Get()
		return strconv.Itoa(v), ok
	case domain.KindDate:
		v, ok := r.Date.Get()
		return v.Format("2006-01-02"), ok
	default:
		v, ok := r.Numeric(c).Get()
		return strconv.FormatFloat(v, 'f', -1, 64), ok
	}
}
