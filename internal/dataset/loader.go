package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "evsales/internal/errors"
	"evsales/pkg/contracts/domain"
)

// DefaultSortKeys is the composite key applied when LoadOptions.Sort is set.
var DefaultSortKeys = []domain.Column{domain.ColYear, domain.ColMonth, domain.ColRegion, domain.ColModel}

// nullTokens are cell values treated as absent.
var nullTokens = map[string]bool{
	"":     true,
	"NaN":  true,
	"nan":  true,
	"NA":   true,
	"N/A":  true,
	"null": true,
	"None": true,
}

// dateLayouts are accepted for a Date column present in the input.
var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// LoadOptions controls how a flat file becomes a Table.
type LoadOptions struct {
	// Sort orders rows by (Year, Month, Region, Model) ascending.
	Sort bool
	// Schema maps file headers to columns. The zero value uses canonical names.
	Schema domain.Schema
	// Sheet selects the XLSX worksheet. Empty means the first sheet.
	Sheet string
}

// DefaultLoadOptions sorts and uses the canonical headers.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Sort: true, Schema: domain.DefaultSchema()}
}

// Load reads a CSV or XLSX file into a Table. The format is chosen by extension;
// anything other than .xlsx is read as comma-separated text.
// Required columns are not checked here: consumers check what they need.
func Load(path string, opts LoadOptions) (*Table, error) {
	if IsWorkbook(path) {
		return loadWorkbook(path, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to open %s", path), err).
			WithContext("path", path)
	}
	defer f.Close()

	t, err := Read(f, opts)
	if err != nil {
		if apperrors.TypeOf(err) == "" {
			return nil, apperrors.NewIOError(fmt.Sprintf("failed to read %s", path), err).
				WithContext("path", path)
		}
		return nil, err
	}
	return t, nil
}

// IsWorkbook reports whether path is loaded as an XLSX workbook.
func IsWorkbook(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// Read parses comma-separated text with a header row.
func Read(r io.Reader, opts LoadOptions) (*Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewIOError("failed to read input", err)
	}

	// Remove BOM if present
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewIOError("failed to parse CSV", err)
	}
	return FromRows(records, opts)
}

func loadWorkbook(path string, opts LoadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to open workbook %s", path), err).
			WithContext("path", path)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewIOError(fmt.Sprintf("workbook %s has no sheets", path), nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to read sheet %q", sheet), err).
			WithContext("path", path)
	}
	return FromRows(rows, opts)
}

// FromRows builds a Table from a header row followed by data rows.
// Short rows are padded with absent values.
func FromRows(records [][]string, opts LoadOptions) (*Table, error) {
	if len(records) == 0 {
		return New(nil, nil), nil
	}

	header := records[0]
	known := make([]domain.Column, len(header))
	var columns []domain.Column
	var extras []string
	seen := make(map[string]bool, len(header))

	for i, h := range header {
		name := cleanHeader(h)
		if seen[name] {
			return nil, apperrors.NewAppError(apperrors.ErrTypeSchema,
				fmt.Sprintf("duplicate column %q", name), nil).WithContext("column", name)
		}
		seen[name] = true

		if c, ok := opts.Schema.Lookup(name); ok {
			known[i] = c
			columns = append(columns, c)
			continue
		}
		extras = append(extras, name)
	}

	rows := make([]domain.Record, 0, len(records)-1)
	for n, rec := range records[1:] {
		var r domain.Record
		for i, name := range header {
			cell := ""
			if i < len(rec) {
				cell = strings.TrimSpace(rec[i])
			}
			if known[i] == "" {
				if r.Extra == nil {
					r.Extra = make(map[string]string)
				}
				r.Extra[cleanHeader(name)] = cell
				continue
			}
			if err := setCell(&r, known[i], cell); err != nil {
				return nil, apperrors.NewValueError(
					fmt.Sprintf("row %d column %s: cannot parse %q", n, known[i], cell), err).
					WithContext("row", n).
					WithContext("column", string(known[i]))
			}
		}
		rows = append(rows, r)
	}

	t := &Table{columns: columns, extras: extras, rows: rows}
	if opts.Sort {
		t = t.SortBy(DefaultSortKeys...)
	}
	return t, nil
}

func cleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

func setCell(r *domain.Record, c domain.Column, cell string) error {
	if nullTokens[cell] {
		return nil
	}

	switch c.Kind() {
	case domain.KindInteger:
		v, err := ParseInteger(cell)
		if err != nil {
			return err
		}
		switch c {
		case domain.ColYear:
			r.Year = domain.Some(v)
		case domain.ColMonth:
			r.Month = domain.Some(v)
		}
	case domain.KindCategorical:
		switch c {
		case domain.ColRegion:
			r.Region = domain.Some(cell)
		case domain.ColModel:
			r.Model = domain.Some(cell)
		}
	case domain.KindDate:
		d, err := parseDate(cell)
		if err != nil {
			return err
		}
		r.Date = domain.Some(d)
	default:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(v) {
			return nil
		}
		setNumeric(r, c, v)
	}
	return nil
}

func setNumeric(r *domain.Record, c domain.Column, v float64) {
	switch c {
	case domain.ColEstimatedDeliveries:
		r.EstimatedDeliveries = domain.Some(v)
	case domain.ColProductionUnits:
		r.ProductionUnits = domain.Some(v)
	case domain.ColAvgPriceUSD:
		r.AvgPriceUSD = domain.Some(v)
	case domain.ColBatteryCapacityKWh:
		r.BatteryCapacityKWh = domain.Some(v)
	case domain.ColRangeKM:
		r.RangeKM = domain.Some(v)
	case domain.ColChargingStations:
		r.ChargingStations = domain.Some(v)
	}
}

// ParseInteger accepts plain integers and integral float text such as "2023.0".
func ParseInteger(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}

func parseDate(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range dateLayouts {
		d, err := time.Parse(layout, s)
		if err == nil {
			return d.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
