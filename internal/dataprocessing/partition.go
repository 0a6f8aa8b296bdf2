package dataprocessing

import (
	"iter"
	"slices"

	"github.com/samber/lo"

	"evsales/internal/dataset"
	apperrors "evsales/internal/errors"
	"evsales/pkg/contracts/domain"
)

// SplitOptions configures SplitByRegion.
type SplitOptions struct {
	// Column is the categorical partition key.
	Column domain.Column
	// DropColumn removes the key column from every partition.
	DropColumn bool
}

// DefaultSplitOptions partitions by Region and drops it.
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{Column: domain.ColRegion, DropColumn: true}
}

// Partitions is an ordered mapping from partition key to table.
// Keys are kept in lexicographic order.
type Partitions struct {
	names  []string
	tables map[string]*dataset.Table
}

// NewPartitions builds Partitions from a plain map.
func NewPartitions(tables map[string]*dataset.Table) *Partitions {
	p := &Partitions{tables: make(map[string]*dataset.Table, len(tables))}
	for name, t := range tables {
		p.names = append(p.names, name)
		p.tables[name] = t
	}
	slices.Sort(p.names)
	return p
}

// Names returns the partition keys in order.
func (p *Partitions) Names() []string {
	return slices.Clone(p.names)
}

// Get returns the table for name.
func (p *Partitions) Get(name string) (*dataset.Table, bool) {
	t, ok := p.tables[name]
	return t, ok
}

// Len returns the number of partitions.
func (p *Partitions) Len() int {
	return len(p.names)
}

// TotalRows sums the row counts of every partition.
func (p *Partitions) TotalRows() int {
	total := 0
	for _, t := range p.tables {
		total += t.Len()
	}
	return total
}

// All iterates partitions in key order.
func (p *Partitions) All() iter.Seq2[string, *dataset.Table] {
	return func(yield func(string, *dataset.Table) bool) {
		for _, name := range p.names {
			if !yield(name, p.tables[name]) {
				return
			}
		}
	}
}

// RegionNames returns the distinct present values of a categorical column,
// sorted lexicographically or in order of first occurrence.
func RegionNames(t *dataset.Table, column domain.Column, sorted bool) ([]string, error) {
	if err := requireCategorical(t, column, "region names"); err != nil {
		return nil, err
	}

	present := lo.FilterMap(t.Categorical(column), func(v domain.Optional[string], _ int) (string, bool) {
		return v.Get()
	})
	names := lo.Uniq(present)
	if sorted {
		slices.Sort(names)
	}
	return names, nil
}

// SplitByRegion splits t into one table per distinct key value. Each partition is
// stably sorted by (Year, Month). Rows with an absent key belong to no partition.
func SplitByRegion(t *dataset.Table, opts SplitOptions) (*Partitions, error) {
	names, err := RegionNames(t, opts.Column, true)
	if err != nil {
		return nil, err
	}

	p := &Partitions{names: names, tables: make(map[string]*dataset.Table, len(names))}
	for _, name := range names {
		part := t.Filter(func(r domain.Record) bool {
			v, ok := r.Categorical(opts.Column).Get()
			return ok && v == name
		}).SortBy(domain.ColYear, domain.ColMonth)

		if opts.DropColumn {
			part = part.Drop(opts.Column)
		}
		p.tables[name] = part
	}
	return p, nil
}

func requireCategorical(t *dataset.Table, column domain.Column, operation string) error {
	if err := t.Require(operation, column); err != nil {
		return err
	}
	if column.Kind() != domain.KindCategorical {
		return apperrors.NewSchemaError(operation+": not a categorical column", string(column))
	}
	return nil
}
