// Package shared provides test helpers used across the evsales packages.
//
// The testutil subpackage captures slog output so tests can assert on
// messages and attributes:
//
//	logger, handler := testutil.NewTestLogger(t)
//	exporter := exporter.NewRegionExporter(logger)
//	...
//	assert.True(t, handler.ContainsMessage("region exported"))
package shared
