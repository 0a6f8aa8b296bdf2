package charts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"evsales/internal/analytics"
	apperrors "evsales/internal/errors"
)

// Format selects the rendering backend.
type Format string

const (
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
)

// ParseFormat accepts "png" or "html" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatHTML:
		return f, nil
	}
	return "", apperrors.NewValueError(fmt.Sprintf("unknown chart format %q", s), nil)
}

// Ext returns the file extension for the format, with the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Options configures a single figure.
type Options struct {
	Title          string
	XLabel         string
	YLabel         string
	SecondaryLabel string
	// Width and Height are in inches. HTML output uses 96 pixels per inch.
	Width  float64
	Height float64
}

// DefaultOptions returns a 12x6 inch figure.
func DefaultOptions(title string) Options {
	return Options{Title: title, XLabel: "Date", Width: 12, Height: 6}
}

// SeriesStyle controls how a line is drawn.
type SeriesStyle struct {
	// Secondary plots the series against a second value axis.
	Secondary bool
	Dashed    bool
	Marker    bool
}

// Canvas is a figure that series are added to before it is written out.
// Series added to the same canvas compose into one figure.
type Canvas interface {
	AddLine(s analytics.Series, style SeriesStyle) error
	// AddStackedArea stacks the series on top of each other in order.
	AddStackedArea(layers []analytics.Series) error
	AddBars(name string, labels []string, values []float64) error
	AddHistogram(name string, values []float64, bins int) error
	// AddHeatMap draws values[row][col] with the given row and column labels.
	AddHeatMap(rows, cols []string, values [][]float64) error
	Render(w io.Writer) error
	Save(path string) error
	Format() Format
}

// New returns a canvas for the given format.
func New(format Format, opts Options) (Canvas, error) {
	switch format {
	case FormatPNG:
		return NewPlotCanvas(opts), nil
	case FormatHTML:
		return NewEChartsCanvas(opts), nil
	}
	return nil, apperrors.NewValueError(fmt.Sprintf("unknown chart format %q", format), nil)
}

// FileName returns a file name for a figure in the given format.
func FileName(name string, format Format) string {
	return name + format.Ext()
}

func saveTo(path string, render func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewIOError(fmt.Sprintf("failed to create chart directory %s", dir), err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewIOError(fmt.Sprintf("failed to create chart file %s", path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = apperrors.NewIOError(fmt.Sprintf("failed to close chart file %s", path), cerr)
		}
	}()
	if err := render(f); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}

func checkLengths(name string, a, b int) error {
	if a != b {
		return apperrors.NewValueError(fmt.Sprintf("%s: %d labels for %d values", name, a, b), nil)
	}
	return nil
}

func checkGrid(rows, cols []string, values [][]float64) error {
	if len(values) != len(rows) {
		return apperrors.NewValueError(fmt.Sprintf("heat map: %d rows for %d labels", len(values), len(rows)), nil)
	}
	for i, row := range values {
		if len(row) != len(cols) {
			return apperrors.NewValueError(fmt.Sprintf("heat map: row %d has %d values for %d columns", i, len(row), len(cols)), nil)
		}
	}
	return nil
}
