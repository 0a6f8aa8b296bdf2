package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"evsales/internal/config"
	apperrors "evsales/internal/errors"
	"evsales/internal/infrastructure"
	"evsales/internal/services"
	"evsales/internal/validation"
)

// Runtime is what a command builds before its first stage.
type Runtime struct {
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	OTel      *infrastructure.OTelProviders
	Metrics   *infrastructure.Metrics
	Pipeline  *services.Pipeline
	Validator *validation.FileValidator

	logFile *os.File
}

// BootstrapOptions configures Bootstrap.
type BootstrapOptions struct {
	// Command names the run in every log line.
	Command    string
	ConfigPath string
	// Override applies command-line flags on top of the loaded config. The
	// result is validated again.
	Override func(*config.Config)
	// Stderr receives console logs and stdout-exported spans; nil means os.Stderr.
	Stderr io.Writer
}

// Bootstrap loads the configuration and builds the logger, telemetry and
// pipeline for a one-shot command. The returned context carries a fresh run
// id used as trace_id in logs. Callers must Close the runtime.
func Bootstrap(ctx context.Context, opts BootstrapOptions) (context.Context, *Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return ctx, nil, err
	}
	if opts.Override != nil {
		opts.Override(cfg)
		if err := cfg.Validate(); err != nil {
			return ctx, nil, err
		}
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger, file, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return ctx, nil, apperrors.NewConfigError("failed to create logger", err)
	}
	logger = logger.With(slog.String("command", opts.Command))
	ctx = infrastructure.WithTraceID(ctx, uuid.NewString())

	rt := &Runtime{Config: cfg, Logger: logger, logFile: file}

	rt.Paths, err = config.ResolvePaths(cfg, "")
	if err != nil {
		rt.closeLog()
		return ctx, nil, err
	}
	rt.Paths.LogPathResolution(logger)

	rt.OTel, err = infrastructure.InitializeOTel(cfg.Telemetry, stderr, logger)
	if err != nil {
		rt.closeLog()
		return ctx, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	rt.Metrics, err = infrastructure.NewMetrics(rt.OTel.Meter)
	if err != nil {
		_ = rt.Close(ctx)
		return ctx, nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	rt.Pipeline = services.NewPipeline(cfg, logger, rt.OTel.Tracer, rt.Metrics)
	rt.Validator = validation.NewFileValidator(logger)

	logger.InfoContext(ctx, "run started",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))
	return ctx, rt, nil
}

// InputFile validates the configured dataset path and returns it.
func (rt *Runtime) InputFile() (string, error) {
	path := rt.Paths.InputFile
	if _, err := rt.Validator.ValidateInputFile(path); err != nil {
		return "", err
	}
	return path, nil
}

// Close flushes telemetry and closes the log file.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.OTel != nil {
		errs = append(errs, rt.OTel.Shutdown(ctx))
	}
	errs = append(errs, rt.closeLog())
	return errors.Join(errs...)
}

func (rt *Runtime) closeLog() error {
	if rt.logFile == nil {
		return nil
	}
	err := rt.logFile.Close()
	rt.logFile = nil
	return err
}

// ParseFlags parses args and wraps failures as configuration errors so
// ExitCode reports them as usage errors.
func ParseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return apperrors.NewConfigError("invalid arguments", err)
	}
	if fs.NArg() > 0 {
		return apperrors.NewConfigError(fmt.Sprintf("unexpected arguments: %s", strings.Join(fs.Args(), " ")), nil)
	}
	return nil
}

// SplitList splits a comma separated flag value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ExitCode maps a command error to a process exit status: 0 for success or
// -h, 2 for usage and configuration errors, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case apperrors.IsType(err, apperrors.ErrTypeConfig):
		return 2
	default:
		return 1
	}
}

// SetFlags reports which flags were given on the command line, so only those
// override the configuration.
func SetFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}
