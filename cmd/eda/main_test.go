package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evsales/internal/app"
)

const salesCSV = `Year,Month,Region,Model,Estimated_Deliveries,Production_Units,Avg_Price_USD,Battery_Capacity_kWh,Range_km,Charging_Stations
2023,1,US,Model 3,1000,1200,45000.5,75,500,10
2023,1,EU,Model Y,500,400,50000,80,520,5
2023,2,US,Model 3,1500,1500,46000,76,505,12
`

func workspace(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("sales.csv", []byte(salesCSV), 0644))
}

func TestRun_SummaryAndCharts(t *testing.T) {
	workspace(t)
	var stdout, stderr bytes.Buffer

	err := run(t.Context(), []string{
		"-in", "sales.csv", "-format", "html", "-charts-dir", "eda", "-categories", "Region, Color",
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "=== Table Shape ===\n(3, 10)")
	assert.Contains(t, out, "=== Value Counts: Region ===")
	assert.NotContains(t, out, "=== Value Counts: Model ===")
	assert.Contains(t, out, "[WARN] Column 'Color' not in table.")
	assert.Contains(t, out, "Chart: ")

	for _, name := range []string{"correlation_heatmap.html", "year_distribution.html", "distribution_range_km.html"} {
		_, err := os.Stat(filepath.Join("eda", name))
		assert.NoError(t, err, name)
	}
	assert.Contains(t, stderr.String(), "eda completed")
}

func TestRun_WithoutCharts(t *testing.T) {
	workspace(t)
	var stdout, stderr bytes.Buffer

	err := run(t.Context(), []string{"-in", "sales.csv", "-charts=false"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "=== Numeric Summary Statistics ===")
	assert.Contains(t, stdout.String(), "=== Value Counts: Model ===")
	assert.NotContains(t, stdout.String(), "Chart: ")

	_, err = os.Stat("charts")
	assert.True(t, os.IsNotExist(err))
}

func TestRun_BadInput(t *testing.T) {
	workspace(t)
	require.NoError(t, os.Mkdir("data", 0755))
	var stdout, stderr bytes.Buffer

	err := run(t.Context(), []string{"-in", "data"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Equal(t, 1, app.ExitCode(err))

	err = run(t.Context(), []string{"-in", "sales.csv", "-format", "gif"}, &stdout, &stderr)
	assert.Equal(t, 2, app.ExitCode(err))
}
