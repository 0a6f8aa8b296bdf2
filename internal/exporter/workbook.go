package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"evsales/internal/dataprocessing"
	"evsales/internal/dataset"
	apperrors "evsales/internal/errors"
	"evsales/pkg/contracts/domain"
)

// maxSheetName is Excel's sheet name limit.
const maxSheetName = 31

// WorkbookExporter writes partitions as sheets of one XLSX workbook.
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter.
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{logger: logger.With(slog.String("component", "workbook_exporter"))}
}

// SheetName makes a region name valid as an Excel sheet name.
func SheetName(region string) string {
	s := strings.TrimSpace(region)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, s)
	s = strings.Trim(s, "'")
	if s == "" {
		s = "_"
	}
	if r := []rune(s); len(r) > maxSheetName {
		s = string(r[:maxSheetName])
	}
	return s
}

// SaveRegionWorkbook writes one sheet per partition, in partition order.
func (e *WorkbookExporter) SaveRegionWorkbook(parts *dataprocessing.Partitions, path string, schema domain.Schema) error {
	if parts.Len() == 0 {
		return apperrors.NewValueError("no partitions to write", nil)
	}

	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]string)
	first := true
	for name, table := range parts.All() {
		sheet := SheetName(name)
		if prev, dup := used[strings.ToLower(sheet)]; dup {
			return apperrors.NewValueError(fmt.Sprintf("regions %q and %q both map to sheet %q", prev, name, sheet), nil)
		}
		used[strings.ToLower(sheet)] = name

		if first {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return apperrors.NewIOError("failed to name sheet", err)
			}
			first = false
		} else if _, err := f.NewSheet(sheet); err != nil {
			return apperrors.NewIOError("failed to add sheet", err)
		}

		if err := writeSheet(f, sheet, table, schema); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewIOError("failed to create directory", err).WithContext("path", path)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewIOError("failed to save workbook", err).WithContext("path", path)
	}

	e.logger.Info("workbook exported", slog.String("path", path), slog.Int("sheets", parts.Len()))
	return nil
}

func writeSheet(f *excelize.File, sheet string, t *dataset.Table, schema domain.Schema) error {
	columns := t.Columns()
	extras := t.Extras()

	header := make([]interface{}, 0, len(columns)+len(extras))
	for _, c := range columns {
		header = append(header, schema.Header(c))
	}
	for _, h := range extras {
		header = append(header, h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return apperrors.NewIOError("failed to write header", err)
	}

	for i, r := range t.Rows() {
		row := make([]interface{}, 0, len(header))
		for _, c := range columns {
			row = append(row, cellValue(r, c))
		}
		for _, h := range extras {
			row = append(row, r.Extra[h])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewIOError("invalid cell", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.NewIOError(fmt.Sprintf("failed to write row %d", i), err)
		}
	}
	return nil
}
