// Command splitter loads the EV sales dataset and writes one CSV per region,
// optionally plus a workbook with one sheet per region.
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
	"evsales/internal/config"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "splitter:", err)
		}
		os.Exit(app.ExitCode(err))
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("splitter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (defaults to config.yaml or configs/config.yaml)")
	in := fs.String("in", "", "input dataset, .csv or .xlsx")
	out := fs.String("out", "", "output directory for the region files")
	prefix := fs.String("prefix", "", "file name prefix for the region files")
	index := fs.Bool("index", false, "write the row index as the first column")
	workbook := fs.String("workbook", "", "also write every region as a sheet of this workbook, relative to -out")
	bom := fs.Bool("bom", false, "start each file with a UTF-8 byte order mark")
	if err := app.ParseFlags(fs, args); err != nil {
		return err
	}
	set := app.SetFlags(fs)

	ctx, rt, err := app.Bootstrap(ctx, app.BootstrapOptions{
		Command:    "splitter",
		ConfigPath: *configPath,
		Stderr:     stderr,
		Override: func(cfg *config.Config) {
			if set["in"] {
				cfg.Input.Path = *in
			}
			if set["out"] {
				cfg.Export.OutDir = *out
			}
			if set["prefix"] {
				cfg.Export.Prefix = *prefix
			}
			if set["index"] {
				cfg.Export.WriteIndex = *index
			}
			if set["workbook"] {
				cfg.Export.Workbook = *workbook
			}
			if set["bom"] {
				cfg.Export.BOM = *bom
			}
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rt.Close(context.WithoutCancel(ctx)))
	}()

	input, err := rt.InputFile()
	if err != nil {
		return err
	}
	if err := rt.Validator.ValidateOutputDirectory(rt.Paths.ExportDir); err != nil {
		return err
	}

	table, err := rt.Pipeline.Load(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Loaded %d rows from %s\n", table.Len(), input)

	result, err := rt.Pipeline.Split(ctx, table, rt.Paths.ExportDir, rt.Paths.WorkbookFile)
	if err != nil {
		return err
	}

	i := 0
	for name, part := range result.Partitions.All() {
		fmt.Fprintf(stdout, "Saved: %s (%s, %d rows)\n", result.Files[i], name, part.Len())
		i++
	}
	if result.Workbook != "" {
		fmt.Fprintf(stdout, "Workbook: %s (%d sheets)\n", result.Workbook, result.Partitions.Len())
	}

	// earlier runs may have left other regions behind
	held, err := rt.Validator.CountFiles(rt.Paths.ExportDir, rt.Config.Export.Prefix+"*.csv")
	if err != nil {
		rt.Logger.WarnContext(ctx, "could not count region files", slog.String("error", err.Error()))
	} else {
		fmt.Fprintf(stdout, "%d region files in %s\n", held, rt.Paths.ExportDir)
	}

	rt.Logger.InfoContext(ctx, "split completed",
		slog.Int("regions", result.Partitions.Len()),
		slog.String("dir", rt.Paths.ExportDir))
	return nil
}
