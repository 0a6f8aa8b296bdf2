package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "evsales/internal/errors"
)

// Paths contains the resolved file locations for one run
type Paths struct {
	BaseDir      string
	InputFile    string
	ExportDir    string
	ChartsDir    string
	LogsDir      string
	WorkbookFile string
}

// ResolvePaths anchors the relative locations in cfg at baseDir. An empty
// baseDir means the working directory. Absolute locations are kept as is.
func ResolvePaths(cfg *Config, baseDir string) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, apperrors.NewIOError("failed to get working directory", err)
		}
		baseDir = wd
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	paths := &Paths{
		BaseDir:   baseDir,
		InputFile: resolve(cfg.Input.Path),
		ExportDir: resolve(cfg.Export.OutDir),
		ChartsDir: resolve(cfg.Charts.OutDir),
		LogsDir:   resolve(filepath.Dir(cfg.Logging.FilePath)),
	}
	if cfg.Export.Workbook != "" {
		paths.WorkbookFile = filepath.Join(paths.ExportDir, cfg.Export.Workbook)
	}
	return paths, nil
}

// EnsureDirectories creates the output directories if they don't exist
func (p *Paths) EnsureDirectories(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, dir := range []string{p.ExportDir, p.ChartsDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.NewIOError(fmt.Sprintf("failed to create directory %s", dir), err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// ChartPath returns the location of a chart file.
func (p *Paths) ChartPath(filename string) string {
	return filepath.Join(p.ChartsDir, filename)
}

// ExportPath returns the location of an exported file.
func (p *Paths) ExportPath(filename string) string {
	return filepath.Join(p.ExportDir, filename)
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.String("base", p.BaseDir),
		slog.String("input", p.InputFile),
		slog.Group("directories",
			slog.String("exports", p.ExportDir),
			slog.String("charts", p.ChartsDir),
			slog.String("logs", p.LogsDir),
		))
}

// ValidateRequiredFiles checks that the input dataset exists
func (p *Paths) ValidateRequiredFiles() error {
	if p.InputFile == "" {
		return apperrors.NewConfigError("no input file configured", nil)
	}
	if !FileExists(p.InputFile) {
		return apperrors.NewNotFoundError(p.InputFile)
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
