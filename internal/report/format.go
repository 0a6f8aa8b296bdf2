package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"evsales/internal/analytics"
)

const dateLayout = "2006-01-02"

var decimalFormats = [...]string{"#,###.", "#,###.#", "#,###.##", "#,###.###"}

// number formats v with thousands separators and the given number of decimals (0-3).
func number(v float64, decimals int) string {
	decimals = min(max(decimals, 0), len(decimalFormats)-1)
	return humanize.FormatFloat(decimalFormats[decimals], v)
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func period(first, last time.Time) string {
	return fmt.Sprintf("Period: %s ~ %s", day(first), day(last))
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

// writeSeries prints a date/value table for a single series.
func writeSeries(w io.Writer, s analytics.Series, decimals int) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "%s\t%s\t\n", "Date", s.Name)
	for i, d := range s.Dates {
		fmt.Fprintf(tw, "%s\t%s\t\n", day(d), number(s.Values[i], decimals))
	}
	return tw.Flush()
}

// writeFrame prints a date by column table.
func writeFrame(w io.Writer, f analytics.Frame, decimals int) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Date\t%s\t\n", strings.Join(f.Columns, "\t"))
	for i, d := range f.Dates {
		cells := make([]string, len(f.Columns))
		for j := range f.Columns {
			cells[j] = number(f.Values[j][i], decimals)
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", day(d), strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func writeShares(w io.Writer, s analytics.ShareTable, decimals int) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Date\t%s\t\n", strings.Join(s.Models, "\t"))
	for i, d := range s.Dates {
		cells := make([]string, len(s.Models))
		for j := range s.Models {
			cells[j] = number(s.Shares[i][j], decimals)
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", day(d), strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// writeNamed prints one "name value" line per entry.
func writeNamed(w io.Writer, values []analytics.NamedValue, decimals int) error {
	tw := newTable(w)
	for _, v := range values {
		fmt.Fprintf(tw, "%s\t%s\t\n", v.Name, number(v.Value, decimals))
	}
	return tw.Flush()
}
