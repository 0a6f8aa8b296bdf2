package analytics

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series is one value per month, in chronological order.
type Series struct {
	Name   string      `json:"name"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Len returns the number of points.
func (s Series) Len() int {
	return len(s.Dates)
}

// Tail returns the last n points.
func (s Series) Tail(n int) Series {
	from := max(len(s.Dates)-max(n, 0), 0)
	return Series{
		Name:   s.Name,
		Dates:  slices.Clone(s.Dates[from:]),
		Values: slices.Clone(s.Values[from:]),
	}
}

// Stats summarizes a series.
type Stats struct {
	Count int       `json:"count"`
	Sum   float64   `json:"sum"`
	Mean  float64   `json:"mean"`
	Min   float64   `json:"min"`
	MinAt time.Time `json:"min_at"`
	Max   float64   `json:"max"`
	MaxAt time.Time `json:"max_at"`
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// Stats computes bounds, sum and mean. An empty series yields zero Stats.
func (s Series) Stats() Stats {
	if len(s.Values) == 0 {
		return Stats{}
	}
	minIdx := floats.MinIdx(s.Values)
	maxIdx := floats.MaxIdx(s.Values)
	return Stats{
		Count: len(s.Values),
		Sum:   floats.Sum(s.Values),
		Mean:  stat.Mean(s.Values, nil),
		Min:   s.Values[minIdx],
		MinAt: s.Dates[minIdx],
		Max:   s.Values[maxIdx],
		MaxAt: s.Dates[maxIdx],
		First: s.Dates[0],
		Last:  s.Dates[len(s.Dates)-1],
	}
}

// Frame holds several aligned series over the same months.
type Frame struct {
	Dates   []time.Time `json:"dates"`
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"` // Values[column][date]
}

// Series returns the named column, or false if it is not in the frame.
func (f Frame) Series(name string) (Series, bool) {
	i := slices.Index(f.Columns, name)
	if i < 0 {
		return Series{}, false
	}
	return Series{Name: name, Dates: slices.Clone(f.Dates), Values: slices.Clone(f.Values[i])}, true
}

// Tail returns the last n months of every column.
func (f Frame) Tail(n int) Frame {
	from := max(len(f.Dates)-max(n, 0), 0)
	out := Frame{Dates: slices.Clone(f.Dates[from:]), Columns: slices.Clone(f.Columns)}
	for _, col := range f.Values {
		out.Values = append(out.Values, slices.Clone(col[from:]))
	}
	return out
}

// Bounds returns the first and last month, or zero times for an empty frame.
func (f Frame) Bounds() (first, last time.Time) {
	return bounds(f.Dates)
}

func bounds(dates []time.Time) (first, last time.Time) {
	if len(dates) == 0 {
		return time.Time{}, time.Time{}
	}
	return dates[0], dates[len(dates)-1]
}

// Means returns the mean of each column, in column order.
func (f Frame) Means() []NamedValue {
	out := make([]NamedValue, len(f.Columns))
	for i, name := range f.Columns {
		out[i] = NamedValue{Name: name, Value: mean(f.Values[i])}
	}
	return out
}

// NamedValue pairs a label with a number.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ShareTable holds, per month, each model's fraction of that month's deliveries.
// Every row sums to 1, or is all zero when the month's total was zero.
type ShareTable struct {
	Dates  []time.Time `json:"dates"`
	Models []string    `json:"models"`
	Shares [][]float64 `json:"shares"` // Shares[date][model]
}

// Row returns the shares for month i keyed by model.
func (s ShareTable) Row(i int) map[string]float64 {
	out := make(map[string]float64, len(s.Models))
	for j, m := range s.Models {
		out[m] = s.Shares[i][j]
	}
	return out
}

// Series returns one model's share over time.
func (s ShareTable) Series(model string) (Series, bool) {
	j := slices.Index(s.Models, model)
	if j < 0 {
		return Series{}, false
	}
	out := Series{Name: model, Dates: slices.Clone(s.Dates), Values: make([]float64, len(s.Dates))}
	for i := range s.Dates {
		out.Values[i] = s.Shares[i][j]
	}
	return out, true
}

// Tail returns the last n months.
func (s ShareTable) Tail(n int) ShareTable {
	from := max(len(s.Dates)-max(n, 0), 0)
	out := ShareTable{Dates: slices.Clone(s.Dates[from:]), Models: slices.Clone(s.Models)}
	for _, row := range s.Shares[from:] {
		out.Shares = append(out.Shares, slices.Clone(row))
	}
	return out
}

// MeanShares returns each model's average share across months, largest first.
func (s ShareTable) MeanShares() []NamedValue {
	out := make([]NamedValue, len(s.Models))
	for j, m := range s.Models {
		col := make([]float64, len(s.Dates))
		for i := range s.Dates {
			col[i] = s.Shares[i][j]
		}
		out[j] = NamedValue{Name: m, Value: mean(col)}
	}
	sortDesc(out)
	return out
}

// LatestShares returns the shares of the last month, largest first.
func (s ShareTable) LatestShares() []NamedValue {
	if len(s.Dates) == 0 {
		return nil
	}
	last := s.Shares[len(s.Dates)-1]
	out := make([]NamedValue, len(s.Models))
	for j, m := range s.Models {
		out[j] = NamedValue{Name: m, Value: last[j]}
	}
	sortDesc(out)
	return out
}

func sortDesc(values []NamedValue) {
	slices.SortStableFunc(values, func(a, b NamedValue) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		}
		return 0
	})
}
