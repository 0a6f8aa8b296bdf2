package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"evsales/internal/dataprocessing"
	"evsales/internal/dataset"
	apperrors "evsales/internal/errors"
	"evsales/pkg/contracts/domain"
)

// SaveOptions configures per-region export.
type SaveOptions struct {
	// Prefix is prepended to every file name.
	Prefix string
	// WriteIndex adds an unnamed leading column numbering rows from 0.
	WriteIndex bool
	// BOMPrefix starts each file with a UTF-8 byte order mark.
	BOMPrefix bool
	// Schema supplies the header names. The zero value uses canonical names.
	Schema domain.Schema
}

// DefaultSaveOptions writes tesla_<region>.csv without an index.
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{Prefix: "tesla_", Schema: domain.DefaultSchema()}
}

// RegionExporter writes one CSV file per partition.
type RegionExporter struct {
	csvWriter *CSVWriter
	logger    *slog.Logger
}

// NewRegionExporter creates a region exporter.
func NewRegionExporter(logger *slog.Logger) *RegionExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegionExporter{
		csvWriter: NewCSVWriter("", logger),
		logger:    logger.With(slog.String("component", "region_exporter")),
	}
}

// SanitizeRegionName trims, lowercases and replaces spaces and slashes with underscores.
func SanitizeRegionName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "/", "_").Replace(s)
}

// RegionFileName returns the file name used for a region.
func RegionFileName(prefix, region string) string {
	return prefix + SanitizeRegionName(region) + ".csv"
}

// SaveRegionTables creates outDir and writes every partition to
// outDir/{prefix}{sanitized region}.csv. It returns the written paths in
// partition order. Two regions that sanitize to the same file name are
// rejected before anything is written.
func (e *RegionExporter) SaveRegionTables(parts *dataprocessing.Partitions, outDir string, opts SaveOptions) ([]string, error) {
	owners := make(map[string]string, parts.Len())
	for _, name := range parts.Names() {
		file := RegionFileName(opts.Prefix, name)
		if prev, dup := owners[file]; dup {
			return nil, apperrors.NewValueError(
				fmt.Sprintf("regions %q and %q both map to %s", prev, name, file), nil).
				WithContext("file", file)
		}
		owners[file] = name
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, apperrors.NewIOError("failed to create output directory", err).WithContext("path", outDir)
	}

	var written []string
	for name, table := range parts.All() {
		path := filepath.Join(outDir, RegionFileName(opts.Prefix, name))
		if err := e.WriteTable(path, table, opts); err != nil {
			return written, fmt.Errorf("export region %s: %w", name, err)
		}
		e.logger.Info("region exported",
			slog.String("region", name),
			slog.String("path", path),
			slog.Int("rows", table.Len()))
		written = append(written, path)
	}
	return written, nil
}

// WriteTable streams one table to path.
func (e *RegionExporter) WriteTable(path string, t *dataset.Table, opts SaveOptions) error {
	columns := t.Columns()
	extras := t.Extras()

	headers := make([]string, 0, len(columns)+len(extras)+1)
	if opts.WriteIndex {
		headers = append(headers, "")
	}
	for _, c := range columns {
		headers = append(headers, opts.Schema.Header(c))
	}
	headers = append(headers, extras...)

	sw, err := e.csvWriter.CreateStreamWriter(path, headers, opts.BOMPrefix)
	if err != nil {
		return err
	}

	for i, r := range t.Rows() {
		row := make([]string, 0, len(headers))
		if opts.WriteIndex {
			row = append(row, formatInt(i))
		}
		for _, c := range columns {
			row = append(row, formatCell(r, c))
		}
		for _, h := range extras {
			row = append(row, r.Extra[h])
		}
		if err := sw.WriteRecord(row); err != nil {
			sw.Close()
			return err
		}
	}
	return sw.Close()
}
