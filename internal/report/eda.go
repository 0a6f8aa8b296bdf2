package report

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"evsales/internal/charts"
	"evsales/internal/dataset"
	"evsales/internal/eda"
	"evsales/pkg/contracts/domain"
)

// DefaultCategoricalColumns are the columns value-counted by PresentEDA.
var DefaultCategoricalColumns = []string{string(domain.ColRegion), string(domain.ColModel)}

// PresentEDA prints the basic exploratory summary of t and, when drawing is
// on, saves the EDA charts. It returns the chart paths.
func (p *Presenter) PresentEDA(t *dataset.Table, categorical []string) ([]string, error) {
	overview := eda.Overview(t)
	if err := WriteOverview(p.out, overview); err != nil {
		return nil, err
	}
	if err := WriteDescribe(p.out, eda.Describe(t)); err != nil {
		return nil, err
	}

	counts := eda.ValueCounts(t, categorical, p.logger)
	if err := WriteValueCounts(p.out, counts); err != nil {
		return nil, err
	}

	if !p.opts.Draw {
		return nil, nil
	}

	var paths []string
	save := func(name string, canvas charts.Canvas) error {
		path := p.chartPath(name)
		if err := canvas.Save(path); err != nil {
			return err
		}
		p.logger.Info("chart saved", slog.String("chart", name), slog.String("path", path))
		paths = append(paths, path)
		return nil
	}

	missing := eda.MissingCounts(t)
	if len(missing) == 0 {
		fmt.Fprintln(p.out, ">> No missing values found.")
	} else {
		canvas, err := p.canvas("Missing Values per Column", "Column", "Count")
		if err != nil {
			return paths, err
		}
		labels, values := countBars(missing)
		if err := canvas.AddBars("Missing", labels, values); err != nil {
			return paths, err
		}
		if err := save("missing_values", canvas); err != nil {
			return paths, err
		}
	}

	matrix := eda.CorrelationMatrix(t)
	if len(matrix.Columns) > 0 {
		canvas, err := p.canvas("Correlation Heatmap (Numeric Only)", "", "")
		if err != nil {
			return paths, err
		}
		if err := canvas.AddHeatMap(matrix.Columns, matrix.Columns, matrix.Values); err != nil {
			return paths, err
		}
		if err := save("correlation_heatmap", canvas); err != nil {
			return paths, err
		}
	}

	dist := eda.YearMonthDistribution(t)
	for _, d := range []struct {
		name, label string
		counts      []eda.KeyCount
	}{
		{"year_distribution", "Year", dist.ByYear},
		{"month_distribution", "Month", dist.ByMonth},
	} {
		if len(d.counts) == 0 {
			continue
		}
		canvas, err := p.canvas("Distribution by "+d.label, d.label, "Count")
		if err != nil {
			return paths, err
		}
		labels, values := keyBars(d.counts)
		if err := canvas.AddBars("Count", labels, values); err != nil {
			return paths, err
		}
		if err := save(d.name, canvas); err != nil {
			return paths, err
		}
	}

	for _, d := range eda.Distributions(t) {
		if len(d.Values) == 0 {
			continue
		}
		canvas, err := p.canvas("Distribution: "+d.Column, d.Column, "Count")
		if err != nil {
			return paths, err
		}
		if err := canvas.AddHistogram(d.Column, d.Values, charts.DefaultBins); err != nil {
			return paths, err
		}
		if err := save("distribution_"+strings.ToLower(d.Column), canvas); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

func (p *Presenter) canvas(title, xLabel, yLabel string) (charts.Canvas, error) {
	opts := charts.Options{
		Title:  title + regionSuffix(p.opts.Region),
		XLabel: xLabel,
		YLabel: yLabel,
		Width:  p.opts.Width,
		Height: p.opts.Height,
	}
	return charts.New(p.opts.Format, opts)
}

func countBars(counts []eda.Count) ([]string, []float64) {
	labels := make([]string, len(counts))
	values := make([]float64, len(counts))
	for i, c := range counts {
		labels[i] = c.Value
		values[i] = float64(c.Count)
	}
	return labels, values
}

func keyBars(counts []eda.KeyCount) ([]string, []float64) {
	labels := make([]string, len(counts))
	values := make([]float64, len(counts))
	for i, c := range counts {
		labels[i] = strconv.Itoa(c.Key)
		values[i] = float64(c.Count)
	}
	return labels, values
}

// WriteOverview prints shape, column kinds, head, tail and missing values.
func WriteOverview(w io.Writer, o eda.OverviewResult) error {
	fmt.Fprintln(w, "=== Table Shape ===")
	fmt.Fprintf(w, "(%d, %d)\n\n", o.Rows, len(o.Columns))

	fmt.Fprintln(w, "=== Columns & Kinds ===")
	tw := newTable(w)
	for _, c := range o.Columns {
		fmt.Fprintf(tw, "%s\t%s\t\n", c.Name, c.Kind)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\n=== Head ===")
	if err := WriteRows(w, o.Head); err != nil {
		return err
	}
	fmt.Fprintln(w, "\n=== Tail ===")
	if err := WriteRows(w, o.Tail); err != nil {
		return err
	}

	fmt.Fprintln(w, "\n=== Missing Values ===")
	tw = newTable(w)
	for _, c := range o.Columns {
		fmt.Fprintf(tw, "%s\t%d\t\n", c.Name, c.Missing)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\n=== Missing Ratio (%) ===")
	tw = newTable(w)
	for _, c := range o.Columns {
		fmt.Fprintf(tw, "%s\t%s\t\n", c.Name, number(c.MissingPct, 2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// WriteRows prints the rows of t with a leading row index. Absent values print as NaN.
func WriteRows(w io.Writer, t *dataset.Table) error {
	tw := newTable(w)
	cols := t.Columns()
	extras := t.Extras()

	header := make([]string, 0, len(cols)+len(extras)+1)
	header = append(header, "")
	for _, c := range cols {
		header = append(header, string(c))
	}
	header = append(header, extras...)
	fmt.Fprintf(tw, "%s\t\n", strings.Join(header, "\t"))

	for i, r := range t.Rows() {
		cells := make([]string, 0, len(header))
		cells = append(cells, strconv.Itoa(i))
		for _, c := range cols {
			cells = append(cells, cellText(r, c))
		}
		for _, h := range extras {
			cells = append(cells, r.Extra[h])
		}
		fmt.Fprintf(tw, "%s\t\n", strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func cellText(r domain.Record, c domain.Column) string {
	const absent = "NaN"
	switch c.Kind() {
	case domain.KindInteger:
		if v, ok := r.Integer(c).Get(); ok {
			return strconv.Itoa(v)
		}
	case domain.KindCategorical:
		if v, ok := r.Categorical(c).Get(); ok {
			return v
		}
	case domain.KindDate:
		if v, ok := r.Date.Get(); ok {
			return day(v)
		}
	default:
		if v, ok := r.Numeric(c).Get(); ok {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return absent
}

// WriteDescribe prints the numeric summary table.
func WriteDescribe(w io.Writer, stats []eda.Description) error {
	fmt.Fprintln(w, "=== Numeric Summary Statistics ===")
	tw := newTable(w)
	fmt.Fprintln(tw, "\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
	for _, d := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			d.Column, d.Count,
			number(d.Mean, 2), number(d.Std, 2), number(d.Min, 2),
			number(d.Q25, 2), number(d.Q50, 2), number(d.Q75, 2), number(d.Max, 2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// WriteValueCounts prints the counts per categorical column. Skipped columns
// get a warning line in their place.
func WriteValueCounts(w io.Writer, r eda.ValueCountsResult) error {
	for _, name := range r.Skipped {
		fmt.Fprintf(w, "[WARN] Column '%s' not in table.\n", name)
	}
	for _, c := range r.Columns {
		fmt.Fprintf(w, "\n=== Value Counts: %s ===\n", c.Column)
		tw := newTable(w)
		for _, v := range c.Counts {
			fmt.Fprintf(tw, "%s\t%d\t\n", v.Value, v.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	return nil
}
