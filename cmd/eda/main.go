// Command eda prints a basic exploratory summary of the EV sales dataset and
// saves the distribution and correlation charts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"evsales/internal/app"
	"evsales/internal/charts"
	"evsales/internal/config"
	apperrors "evsales/internal/errors"
	"evsales/internal/report"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "eda:", err)
		}
		os.Exit(app.ExitCode(err))
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("eda", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (defaults to config.yaml or configs/config.yaml)")
	in := fs.String("in", "", "input dataset, .csv or .xlsx")
	categories := fs.String("categories", "", "comma separated columns to value-count (default Region,Model)")
	drawCharts := fs.Bool("charts", true, "save the EDA charts")
	chartsDir := fs.String("charts-dir", "", "directory for chart files")
	format := fs.String("format", "", "chart format: png or html")
	if err := app.ParseFlags(fs, args); err != nil {
		return err
	}
	set := app.SetFlags(fs)

	ctx, rt, err := app.Bootstrap(ctx, app.BootstrapOptions{
		Command:    "eda",
		ConfigPath: *configPath,
		Stderr:     stderr,
		Override: func(cfg *config.Config) {
			if set["in"] {
				cfg.Input.Path = *in
			}
			if set["categories"] {
				cfg.Report.Categories = app.SplitList(*categories)
			}
			if set["charts"] {
				cfg.Charts.Enabled = *drawCharts
			}
			if set["charts-dir"] {
				cfg.Charts.OutDir = *chartsDir
			}
			if set["format"] {
				cfg.Charts.Format = *format
			}
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rt.Close(context.WithoutCancel(ctx)))
	}()
	cfg := rt.Config

	chartFormat, err := charts.ParseFormat(cfg.Charts.Format)
	if err != nil {
		return apperrors.NewConfigError("invalid chart format", err)
	}
	input, err := rt.InputFile()
	if err != nil {
		return err
	}
	if cfg.Charts.Enabled {
		if err := rt.Validator.ValidateOutputDirectory(rt.Paths.ChartsDir); err != nil {
			return err
		}
	}

	table, err := rt.Pipeline.Load(ctx, input)
	if err != nil {
		return err
	}

	categorical := cfg.Report.Categories
	if len(categorical) == 0 {
		categorical = report.DefaultCategoricalColumns
	}
	presenter := report.NewPresenter(stdout, rt.Logger, report.Options{
		Draw:   cfg.Charts.Enabled,
		Format: chartFormat,
		OutDir: rt.Paths.ChartsDir,
		Width:  cfg.Charts.Width,
		Height: cfg.Charts.Height,
	})
	paths, err := presenter.PresentEDA(table, categorical)
	if err != nil {
		return err
	}
	for _, p := range paths {
		rt.Metrics.RecordChart(ctx, "eda", string(chartFormat))
		fmt.Fprintf(stdout, "Chart: %s\n", p)
	}

	rt.Logger.InfoContext(ctx, "eda completed",
		slog.Int("rows", table.Len()),
		slog.Int("charts", len(paths)))
	return nil
}
