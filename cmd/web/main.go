// Command web serves the local dataset viewer: JSON analyses under /api,
// interactive charts under /charts and Prometheus metrics on /metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"evsales/internal/app"
	"evsales/internal/config"
	apperrors "evsales/internal/errors"
	"evsales/internal/infrastructure"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "web:", err)
		}
		os.Exit(app.ExitCode(err))
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (defaults to config.yaml or configs/config.yaml)")
	addr := fs.String("addr", "", "listen address, e.g. 127.0.0.1:8080")
	in := fs.String("in", "", "input dataset, .csv or .xlsx")
	if err := app.ParseFlags(fs, args); err != nil {
		return err
	}
	set := app.SetFlags(fs)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if set["addr"] {
		cfg.Server.Addr = *addr
	}
	if set["in"] {
		cfg.Input.Path = *in
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, logFile, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return apperrors.NewConfigError("failed to create logger", err)
	}
	if logFile != nil {
		defer func() {
			err = errors.Join(err, logFile.Close())
		}()
	}

	application, err := app.NewApplication(cfg, logger, app.Options{TraceOut: stderr})
	if err != nil {
		return err
	}
	return application.Run(ctx)
}
