package dataprocessing

import (
	"fmt"
	"time"

	"evsales/internal/dataset"
	apperrors "evsales/internal/errors"
	"evsales/pkg/contracts/domain"
)

// MonthStart returns the first day of the month in UTC.
func MonthStart(year, month int) (time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month %d out of range 1-12", month)
	}
	if year < 1 {
		return time.Time{}, fmt.Errorf("year %d out of range", year)
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// AddDateColumn returns a new table with Date set to the first day of (Year, Month).
// Any existing Date values are replaced.
func AddDateColumn(t *dataset.Table) (*dataset.Table, error) {
	if err := t.Require("add date column", domain.ColYear, domain.ColMonth); err != nil {
		return nil, err
	}

	return t.WithColumn(domain.ColDate, func(i int, r domain.Record) (domain.Record, error) {
		year, okY := r.Year.Get()
		month, okM := r.Month.Get()
		if !okY || !okM {
			return r, apperrors.NewValueError(fmt.Sprintf("row %d: year or month is missing", i), nil).
				WithContext("row", i)
		}

		d, err := MonthStart(year, month)
		if err != nil {
			return r, apperrors.NewValueError(fmt.Sprintf("row %d: invalid year/month (%d, %d)", i, year, month), err).
				WithContext("row", i)
		}
		r.Date = domain.Some(d)
		return r, nil
	})
}

// EnsureDate adds the Date column when absent and returns the table stably
// sorted by Date ascending. Calling it on its own output is a no-op.
func EnsureDate(t *dataset.Table) (*dataset.Table, error) {
	if !t.Has(domain.ColDate) {
		var err error
		if t, err = AddDateColumn(t); err != nil {
			return nil, err
		}
	}
	return t.SortBy(domain.ColDate), nil
}
