// Package exporter writes sales tables and aggregated results back to flat files.
//
// CSVWriter is the shared writer: headers, append mode, an optional UTF-8 BOM for
// Excel, and a streaming variant for row-by-row output.
//
// RegionExporter writes one CSV per region partition as
// {outDir}/{prefix}{sanitized region}.csv. WorkbookExporter writes the same
// partitions as sheets of a single XLSX workbook. FrameExporter writes the
// monthly series, frames and share tables produced by the analytics package.
//
// Example usage:
//
//	parts, err := dataprocessing.SplitByRegion(table, dataprocessing.DefaultSplitOptions())
//	if err != nil {
//	    return err
//	}
//	paths, err := exporter.NewRegionExporter(logger).SaveRegionTables(parts, "data/regions", exporter.DefaultSaveOptions())
package exporter
