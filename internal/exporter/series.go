package exporter

import (
	"log/slog"

	"evsales/internal/analytics"
)

// FrameExporter writes aggregated monthly results to CSV.
type FrameExporter struct {
	csvWriter *CSVWriter
}

// NewFrameExporter creates an exporter rooted at outDir.
func NewFrameExporter(outDir string, logger *slog.Logger) *FrameExporter {
	return &FrameExporter{csvWriter: NewCSVWriter(outDir, logger)}
}

// ExportSeries writes Date,<name> rows.
func (e *FrameExporter) ExportSeries(path string, s analytics.Series) error {
	records := make([][]string, s.Len())
	for i := range s.Dates {
		records[i] = []string{formatDate(s.Dates[i]), formatFloat(s.Values[i])}
	}
	return e.csvWriter.WriteSimpleCSV(path, []string{"Date", s.Name}, records)
}

// ExportFrame writes Date followed by one column per frame column.
func (e *FrameExporter) ExportFrame(path string, f analytics.Frame) error {
	headers := append([]string{"Date"}, f.Columns...)
	records := make([][]string, len(f.Dates))
	for i, d := range f.Dates {
		row := []string{formatDate(d)}
		for j := range f.Columns {
			row = append(row, formatFloat(f.Values[j][i]))
		}
		records[i] = row
	}
	return e.csvWriter.WriteSimpleCSV(path, headers, records)
}

// ExportShares writes Date followed by one share column per model.
func (e *FrameExporter) ExportShares(path string, s analytics.ShareTable) error {
	headers := append([]string{"Date"}, s.Models...)
	records := make([][]string, len(s.Dates))
	for i, d := range s.Dates {
		row := []string{formatDate(d)}
		for _, v := range s.Shares[i] {
			row = append(row, formatFloat(v))
		}
		records[i] = row
	}
	return e.csvWriter.WriteSimpleCSV(path, headers, records)
}
