package report

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"evsales/internal/analytics"
	"evsales/internal/charts"
	apperrors "evsales/internal/errors"
	"evsales/internal/exporter"
)

// Options controls what the presenter prints and draws.
type Options struct {
	// Region is appended to titles and chart file names when set.
	Region     string
	Explain    bool
	PrintStats bool
	Draw       bool
	Format     charts.Format
	OutDir     string
	// Width and Height are in inches.
	Width  float64
	Height float64
}

// DefaultOptions prints everything and saves PNG charts under ./charts.
func DefaultOptions() Options {
	return Options{
		Explain:    true,
		PrintStats: true,
		Draw:       true,
		Format:     charts.FormatPNG,
		OutDir:     "charts",
		Width:      12,
		Height:     6,
	}
}

// Presenter turns analysis results into console text and chart files.
type Presenter struct {
	out    io.Writer
	logger *slog.Logger
	opts   Options
}

// NewPresenter creates a presenter writing text to out.
func NewPresenter(out io.Writer, logger *slog.Logger, opts Options) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{
		out:    out,
		logger: logger.With(slog.String("component", "presenter")),
		opts:   opts,
	}
}

// Options returns the presenter's options.
func (p *Presenter) Options() Options {
	return p.opts
}

// Present prints the narrative and statistics for an analysis result and
// saves its chart. It returns the chart path, or "" when drawing is off.
func (p *Presenter) Present(kind analytics.Kind, result any) (string, error) {
	if p.opts.Explain {
		if n, ok := NarrativeFor(kind); ok {
			WriteNarrative(p.out, n, p.opts.Region)
		}
	}
	if p.opts.PrintStats {
		if err := WriteStats(p.out, kind, result, p.opts.Region); err != nil {
			return "", err
		}
	}
	if !p.opts.Draw {
		return "", nil
	}

	canvas, err := NewChart(kind, result, p.opts.Format, p.chartOptions())
	if err != nil {
		return "", err
	}
	path := p.chartPath(string(kind))
	if err := canvas.Save(path); err != nil {
		return "", err
	}
	p.logger.Info("chart saved", slog.String("analysis", string(kind)), slog.String("path", path))
	return path, nil
}

func (p *Presenter) chartOptions() ChartOptions {
	return ChartOptions{Region: p.opts.Region, Width: p.opts.Width, Height: p.opts.Height}
}

func (p *Presenter) chartPath(name string) string {
	if p.opts.Region != "" {
		name += "_" + exporter.SanitizeRegionName(p.opts.Region)
	}
	return filepath.Join(p.opts.OutDir, charts.FileName(name, p.opts.Format))
}

// WriteStats prints the summary statistics block for an analysis result.
func WriteStats(w io.Writer, kind analytics.Kind, result any, region string) error {
	header := func(name string) {
		fmt.Fprintf(w, "=== [%s Stats]%s ===\n", name, regionSuffix(region))
	}

	switch r := result.(type) {
	case *analytics.MonthlyDeliveriesResult:
		if r.Series.Len() == 0 {
			return nil
		}
		header("Monthly Deliveries")
		fmt.Fprintln(w, period(r.Stats.First, r.Stats.Last))
		fmt.Fprintf(w, "Total: %s\n", number(r.Stats.Sum, 0))
		fmt.Fprintf(w, "Mean: %s\n", number(r.Stats.Mean, 1))
		fmt.Fprintf(w, "Min: %s (%s), Max: %s (%s)\n",
			number(r.Stats.Min, 0), day(r.Stats.MinAt), number(r.Stats.Max, 0), day(r.Stats.MaxAt))
		fmt.Fprintf(w, "Last %d months:\n", analytics.TailSize)
		if err := writeSeries(w, r.Tail, 0); err != nil {
			return err
		}

	case *analytics.ProductionVsDeliveriesResult:
		if len(r.Frame.Dates) == 0 {
			return nil
		}
		header("Production vs Deliveries")
		fmt.Fprintln(w, period(r.First, r.Last))
		fmt.Fprintln(w, "Means:")
		if err := writeNamed(w, r.Means, 2); err != nil {
			return err
		}
		fmt.Fprintf(w, "Deliveries/production ratio (mean): %s\n", number(r.MeanRatio, 3))
		fmt.Fprintf(w, "Deliveries-production correlation: %s\n", number(r.Correlation, 3))
		fmt.Fprintf(w, "Last %d months:\n", analytics.TailSize)
		if err := writeFrame(w, r.Tail, 0); err != nil {
			return err
		}

	case *analytics.AveragePriceResult:
		if r.Series.Len() == 0 {
			return nil
		}
		header("Average Price")
		fmt.Fprintln(w, period(r.Stats.First, r.Stats.Last))
		fmt.Fprintf(w, "Mean price: %s USD\n", number(r.Stats.Mean, 2))
		fmt.Fprintf(w, "Min: %s, Max: %s\n", number(r.Stats.Min, 2), number(r.Stats.Max, 2))
		fmt.Fprintf(w, "Last %d months:\n", analytics.TailSize)
		if err := writeSeries(w, r.Tail, 2); err != nil {
			return err
		}

	case *analytics.ModelShareResult:
		if len(r.Shares.Dates) == 0 {
			return nil
		}
		header("Model Share")
		fmt.Fprintln(w, period(r.First, r.Last))
		fmt.Fprintln(w, "Mean share over the whole period:")
		if err := writeNamed(w, r.MeanShares, 3); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nShare on the latest date (%s):\n", day(r.LatestDate))
		if err := writeNamed(w, r.LatestShares, 3); err != nil {
			return err
		}
		fmt.Fprintf(w, "Last %d months:\n", analytics.TailSize)
		if err := writeShares(w, r.Tail, 3); err != nil {
			return err
		}

	case *analytics.PairResult:
		if len(r.Frame.Dates) == 0 {
			return nil
		}
		name, corrLabel := pairLabels(kind)
		header(name)
		fmt.Fprintln(w, period(r.First, r.Last))
		fmt.Fprintln(w, "Means:")
		if err := writeNamed(w, r.Means, 2); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s correlation: %s\n", corrLabel, number(r.Correlation, 3))
		fmt.Fprintf(w, "Last %d months:\n", analytics.TailSize)
		if err := writeFrame(w, r.Tail, 2); err != nil {
			return err
		}

	default:
		return apperrors.NewValueError(fmt.Sprintf("no statistics for result %T", result), nil)
	}

	fmt.Fprintln(w)
	return nil
}

func pairLabels(kind analytics.Kind) (name, corr string) {
	if kind == analytics.KindInfraVsSales {
		return "Infrastructure vs Sales", "Deliveries-charging stations"
	}
	return "Battery & Range", "Battery-range"
}
