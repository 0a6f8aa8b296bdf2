// Command analyzer runs the time-series analyses over the EV sales dataset,
// optionally for a single region, printing a narrative and statistics for
// each one and saving its chart.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"evsales/internal/analytics"
	"evsales/internal/app"
	"evsales/internal/charts"
	"evsales/internal/config"
	apperrors "evsales/internal/errors"
	"evsales/internal/report"
	"evsales/internal/services"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "analyzer:", err)
		}
		os.Exit(app.ExitCode(err))
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("analyzer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (defaults to config.yaml or configs/config.yaml)")
	in := fs.String("in", "", "input dataset, .csv or .xlsx")
	region := fs.String("region", "", "only analyse rows of this region")
	analyses := fs.String("analyses", "", "comma separated analyses to run (default all)")
	format := fs.String("format", "", "chart format: png or html")
	chartsDir := fs.String("charts-dir", "", "directory for chart files")
	noCharts := fs.Bool("no-charts", false, "print text only")
	exportDir := fs.String("export", "", "also write each aggregated result as CSV to this directory")
	quiet := fs.Bool("quiet", false, "skip the narrative descriptions")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: analyzer [flags]\n\nAnalyses:\n")
		for _, k := range analytics.Kinds {
			fmt.Fprintf(fs.Output(), "  %s\n", k)
		}
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
	if err := app.ParseFlags(fs, args); err != nil {
		return err
	}
	set := app.SetFlags(fs)

	ctx, rt, err := app.Bootstrap(ctx, app.BootstrapOptions{
		Command:    "analyzer",
		ConfigPath: *configPath,
		Stderr:     stderr,
		Override: func(cfg *config.Config) {
			if set["in"] {
				cfg.Input.Path = *in
			}
			if set["region"] {
				cfg.Report.Region = *region
			}
			if set["analyses"] {
				cfg.Report.Analyses = app.SplitList(*analyses)
			}
			if set["format"] {
				cfg.Charts.Format = *format
			}
			if set["charts-dir"] {
				cfg.Charts.OutDir = *chartsDir
			}
			if *noCharts {
				cfg.Charts.Enabled = false
			}
			if *quiet {
				cfg.Report.Explain = false
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

	kinds, err := services.ParseKinds(cfg.Report.Analyses)
	if err != nil {
		return apperrors.NewConfigError("invalid -analyses", err)
	}
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
	if *exportDir != "" {
		if err := rt.Validator.ValidateOutputDirectory(*exportDir); err != nil {
			return err
		}
	}

	table, err := rt.Pipeline.Load(ctx, input)
	if err != nil {
		return err
	}
	table, err = services.FilterRegion(table, cfg.Report.Region)
	if err != nil {
		return err
	}

	presenter := report.NewPresenter(stdout, rt.Logger, report.Options{
		Region:     cfg.Report.Region,
		Explain:    cfg.Report.Explain,
		PrintStats: cfg.Report.PrintStats,
		Draw:       cfg.Charts.Enabled,
		Format:     chartFormat,
		OutDir:     rt.Paths.ChartsDir,
		Width:      cfg.Charts.Width,
		Height:     cfg.Charts.Height,
	})

	var skipped []error
	for _, kind := range kinds {
		result, err := rt.Pipeline.Analyze(ctx, table, kind, cfg.Report.Region)
		if err != nil {
			if !apperrors.IsType(err, apperrors.ErrTypeSchema) && !apperrors.IsType(err, apperrors.ErrTypeMissingColumn) {
				return fmt.Errorf("%s: %w", kind, err)
			}
			fmt.Fprintf(stdout, "[WARN] Skipping %s: %v\n\n", kind, err)
			skipped = append(skipped, fmt.Errorf("%s: %w", kind, err))
			continue
		}

		path, err := presenter.Present(kind, result)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		if path != "" {
			rt.Metrics.RecordChart(ctx, string(kind), string(chartFormat))
			fmt.Fprintf(stdout, "Chart: %s\n\n", path)
		}

		if *exportDir != "" {
			csvPath, err := rt.Pipeline.ExportResult(ctx, kind, result, *exportDir, cfg.Report.Region)
			if err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
			fmt.Fprintf(stdout, "Exported: %s\n\n", csvPath)
		}
	}

	if len(skipped) == len(kinds) {
		return errors.Join(skipped...)
	}
	rt.Logger.InfoContext(ctx, "analyses completed",
		slog.Int("run", len(kinds)-len(skipped)),
		slog.Int("skipped", len(skipped)),
		slog.String("region", cfg.Report.Region))
	return nil
}
