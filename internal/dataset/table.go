package dataset

import (
	"cmp"
	"slices"
	"time"

	apperrors "evsales/internal/errors"
	"evsales/pkg/contracts/domain"
)

// Table is an ordered, immutable sequence of records sharing one column set.
// Every transformation returns a new Table; accessors hand out copies.
type Table struct {
	columns []domain.Column
	extras  []string
	rows    []domain.Record
}

// New builds a table over the given columns. Rows are copied.
func New(columns []domain.Column, rows []domain.Record) *Table {
	return NewWithExtras(columns, nil, rows)
}

// NewWithExtras builds a table that also carries unknown headers, in file order.
func NewWithExtras(columns []domain.Column, extras []string, rows []domain.Record) *Table {
	t := &Table{
		columns: slices.Clone(columns),
		extras:  slices.Clone(extras),
		rows:    make([]domain.Record, len(rows)),
	}
	for i, r := range rows {
		t.rows[i] = r.Clone()
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Columns returns the known columns present in the table.
func (t *Table) Columns() []domain.Column {
	return slices.Clone(t.columns)
}

// Extras returns the headers of columns outside the record schema.
func (t *Table) Extras() []string {
	return slices.Clone(t.extras)
}

// Rows returns a copy of every row.
func (t *Table) Rows() []domain.Record {
	out := make([]domain.Record, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Clone()
	}
	return out
}

// Row returns a copy of row i.
func (t *Table) Row(i int) domain.Record {
	return t.rows[i].Clone()
}

// Has reports whether column c is part of the table.
func (t *Table) Has(c domain.Column) bool {
	return slices.Contains(t.columns, c)
}

// Missing returns the subset of cols the table lacks, in argument order.
func (t *Table) Missing(cols ...domain.Column) []domain.Column {
	var missing []domain.Column
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Require fails with a schema error naming every absent column.
func (t *Table) Require(operation string, cols ...domain.Column) error {
	missing := t.Missing(cols...)
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, c := range missing {
		names[i] = string(c)
	}
	return apperrors.NewSchemaError(operation, names...)
}

// Filter returns the rows for which keep is true, in order.
func (t *Table) Filter(keep func(domain.Record) bool) *Table {
	out := &Table{columns: t.Columns(), extras: t.Extras()}
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, r.Clone())
		}
	}
	return out
}

// Drop returns the table without column c. Dropping an absent column is a no-op copy.
func (t *Table) Drop(c domain.Column) *Table {
	out := &Table{
		columns: slices.DeleteFunc(t.Columns(), func(k domain.Column) bool { return k == c }),
		extras:  t.Extras(),
		rows:    make([]domain.Record, len(t.rows)),
	}
	for i, r := range t.rows {
		out.rows[i] = r.Without(c)
	}
	return out
}

// WithColumn returns a table where column c is set on every row by fn.
// c is appended to the column list when not already present. The first
// error from fn aborts the transformation.
func (t *Table) WithColumn(c domain.Column, fn func(i int, r domain.Record) (domain.Record, error)) (*Table, error) {
	out := &Table{columns: t.Columns(), extras: t.Extras(), rows: make([]domain.Record, len(t.rows))}
	if !out.Has(c) {
		out.columns = append(out.columns, c)
	}
	for i, r := range t.rows {
		updated, err := fn(i, r.Clone())
		if err != nil {
			return nil, err
		}
		out.rows[i] = updated
	}
	return out, nil
}

// SortBy returns the rows stably ordered by keys, ascending. Absent values sort last.
func (t *Table) SortBy(keys ...domain.Column) *Table {
	out := &Table{columns: t.Columns(), extras: t.Extras(), rows: t.Rows()}
	slices.SortStableFunc(out.rows, func(a, b domain.Record) int {
		for _, k := range keys {
			if c := CompareColumn(a, b, k); c != 0 {
				return c
			}
		}
		return 0
	})
	return out
}

// Numeric returns the values of a numeric column, one per row.
func (t *Table) Numeric(c domain.Column) []domain.Optional[float64] {
	out := make([]domain.Optional[float64], len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Numeric(c)
	}
	return out
}

// Categorical returns the values of a categorical column, one per row.
func (t *Table) Categorical(c domain.Column) []domain.Optional[string] {
	out := make([]domain.Optional[string], len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Categorical(c)
	}
	return out
}

// Head returns at most the first n rows.
func (t *Table) Head(n int) *Table {
	n = min(max(n, 0), len(t.rows))
	return NewWithExtras(t.columns, t.extras, t.rows[:n])
}

// Tail returns at most the last n rows.
func (t *Table) Tail(n int) *Table {
	n = min(max(n, 0), len(t.rows))
	return NewWithExtras(t.columns, t.extras, t.rows[len(t.rows)-n:])
}

// CompareColumn orders two records by column c. Absent values sort after present ones.
func CompareColumn(a, b domain.Record, c domain.Column) int {
	switch c.Kind() {
	case domain.KindInteger:
		return compareOptional(a.Integer(c), b.Integer(c), cmp.Compare[int])
	case domain.KindCategorical:
		return compareOptional(a.Categorical(c), b.Categorical(c), cmp.Compare[string])
	case domain.KindDate:
		return compareOptional(a.Date, b.Date, func(x, y time.Time) int { return x.Compare(y) })
	default:
		return compareOptional(a.Numeric(c), b.Numeric(c), cmp.Compare[float64])
	}
}

func compareOptional[T any](a, b domain.Optional[T], compare func(T, T) int) int {
	switch {
	case a.Valid && b.Valid:
		return compare(a.Value, b.Value)
	case a.Valid:
		return -1
	case b.Valid:
		return 1
	default:
		return 0
	}
}
