package exporter

import (
	"strconv"
	"time"

	"evsales/pkg/contracts/domain"
)

// DateLayout is the on-disk form of the Date column.
const DateLayout = "2006-01-02"

// formatFloat writes the shortest text that parses back to the same value.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// formatCell renders one column of a record. Absent values are empty.
func formatCell(r domain.Record, c domain.Column) string {
	switch c.Kind() {
	case domain.KindInteger:
		if v, ok := r.Integer(c).Get(); ok {
			return formatInt(v)
		}
	case domain.KindCategorical:
		return r.Categorical(c).OrElse("")
	case domain.KindDate:
		if v, ok := r.Date.Get(); ok {
			return formatDate(v)
		}
	default:
		if v, ok := r.Numeric(c).Get(); ok {
			return formatFloat(v)
		}
	}
	return ""
}

// cellValue returns a typed value for spreadsheet cells, or nil when absent.
func cellValue(r domain.Record, c domain.Column) interface{} {
	switch c.Kind() {
	case domain.KindInteger:
		if v, ok := r.Integer(c).Get(); ok {
			return v
		}
	case domain.KindCategorical:
		if v, ok := r.Categorical(c).Get(); ok {
			return v
		}
	case domain.KindDate:
		if v, ok := r.Date.Get(); ok {
			return formatDate(v)
		}
	default:
		if v, ok := r.Numeric(c).Get(); ok {
			return v
		}
	}
	return nil
}
