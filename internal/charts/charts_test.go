package charts

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evsales/internal/analytics"
	apperrors "evsales/internal/errors"
)

var pngMagic = []byte("\x89PNG")

func months(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2023, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func series(name string, values ...float64) analytics.Series {
	return analytics.Series{Name: name, Dates: months(len(values)), Values: values}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PNG ")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)

	f, err = ParseFormat("html")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)

	_, err = ParseFormat("svg")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValue))
}

func TestNew(t *testing.T) {
	c, err := New(FormatPNG, DefaultOptions("x"))
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, c.Format())

	c, err = New(FormatHTML, DefaultOptions("x"))
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, c.Format())

	_, err = New(Format("gif"), DefaultOptions("x"))
	assert.Error(t, err)
	assert.Equal(t, "deliveries.html", FileName("deliveries", FormatHTML))
}

func TestPlotCanvas_LineRendersPNG(t *testing.T) {
	c := NewPlotCanvas(DefaultOptions("Monthly deliveries"))
	require.NoError(t, c.AddLine(series("Estimated_Deliveries", 10, 20, 15), SeriesStyle{Marker: true}))

	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPlotCanvas_SecondaryAxisPanel(t *testing.T) {
	opts := DefaultOptions("Production vs deliveries")
	opts.SecondaryLabel = "Ratio"
	c := NewPlotCanvas(opts)
	require.NoError(t, c.AddLine(series("Production_Units", 100, 120), SeriesStyle{}))
	require.NoError(t, c.AddLine(series("Estimated_Deliveries", 90, 110), SeriesStyle{}))
	require.NoError(t, c.AddLine(series("Delivery_Ratio", 0.9, 0.92), SeriesStyle{Secondary: true, Dashed: true}))
	require.NotNil(t, c.secondary)

	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPlotCanvas_StackedArea(t *testing.T) {
	c := NewPlotCanvas(DefaultOptions("Model share"))
	err := c.AddStackedArea([]analytics.Series{
		series("X", 0.25, 0.5),
		series("Y", 0.75, 0.5),
	})
	require.NoError(t, err)

	err = c.AddStackedArea([]analytics.Series{series("X", 1, 2), series("Y", 1)})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValue))
}

func TestPlotCanvas_BarsHistogramHeatMap(t *testing.T) {
	dir := t.TempDir()

	bars := NewPlotCanvas(DefaultOptions("Missing values"))
	require.NoError(t, bars.AddBars("missing", []string{"Model", "Range_km"}, []float64{1, 3}))
	require.Error(t, bars.AddBars("missing", []string{"Model"}, []float64{1, 3}))
	require.NoError(t, bars.Save(filepath.Join(dir, "bars.png")))

	hist := NewPlotCanvas(DefaultOptions("Avg_Price_USD"))
	require.NoError(t, hist.AddHistogram("Avg_Price_USD", []float64{1, 2, 2, 3, 8}, 0))
	require.Error(t, hist.AddHistogram("empty", nil, 10))
	require.NoError(t, hist.Save(filepath.Join(dir, "hist.png")))

	heat := NewPlotCanvas(DefaultOptions("Correlation"))
	cols := []string{"a", "b"}
	require.NoError(t, heat.AddHeatMap(cols, cols, [][]float64{{1, -0.5}, {-0.5, 1}}))
	require.Error(t, heat.AddHeatMap(cols, cols, [][]float64{{1}}))
	require.NoError(t, heat.Save(filepath.Join(dir, "nested", "heat.png")))

	for _, name := range []string{"bars.png", "hist.png", filepath.Join("nested", "heat.png")} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, pngMagic), name)
	}
}

func TestPlotCanvas_SaveUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	c := NewPlotCanvas(DefaultOptions("x"))
	require.NoError(t, c.AddLine(series("a", 1, 2), SeriesStyle{}))
	err := c.Save(filepath.Join(blocker, "out.png"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}

func TestEChartsCanvas_LinesAndDualAxis(t *testing.T) {
	opts := DefaultOptions("Production vs deliveries")
	opts.SecondaryLabel = "Ratio"
	c := NewEChartsCanvas(opts)
	require.NoError(t, c.AddLine(series("Production_Units", 100, 120), SeriesStyle{}))
	require.NoError(t, c.AddLine(series("Delivery_Ratio", 0.9, 0.92), SeriesStyle{Secondary: true, Dashed: true}))
	assert.True(t, c.hasY2)
	assert.Len(t, c.charts, 1, "lines share one chart")

	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf))
	out := buf.String()
	assert.Contains(t, out, "Production_Units")
	assert.Contains(t, out, "Delivery_Ratio")
	assert.Contains(t, out, "dashed")
	assert.Contains(t, out, "2023-02-01")
}

func TestEChartsCanvas_AlignsToFirstAxis(t *testing.T) {
	c := NewEChartsCanvas(DefaultOptions("x"))
	require.NoError(t, c.AddLine(series("a", 1, 2, 3), SeriesStyle{}))

	later := analytics.Series{Name: "b", Dates: months(3)[1:], Values: []float64{5, 6}}
	data, err := c.aligned(later)
	require.NoError(t, err)
	require.Len(t, data, 3)
	assert.Nil(t, data[0].Value)
	assert.Equal(t, 5.0, data[1].Value)
	assert.Equal(t, 6.0, data[2].Value)

	_, err = c.aligned(analytics.Series{Name: "bad", Dates: months(2), Values: []float64{1}})
	assert.Error(t, err)
}

func TestEChartsCanvas_OtherKinds(t *testing.T) {
	c := NewEChartsCanvas(DefaultOptions("EDA"))
	require.NoError(t, c.AddStackedArea([]analytics.Series{series("X", 0.4), series("Y", 0.6)}))
	require.NoError(t, c.AddBars("counts", []string{"US", "EU"}, []float64{3, 2}))
	require.NoError(t, c.AddHistogram("Range_km", []float64{300, 320, 450}, 3))
	require.NoError(t, c.AddHeatMap([]string{"a", "b"}, []string{"a", "b"}, [][]float64{{1, 0}, {0, 1}}))
	assert.Len(t, c.charts, 4)

	path := filepath.Join(t.TempDir(), "eda.html")
	require.NoError(t, c.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "echarts")
	assert.Contains(t, string(data), "Range_km")
}

func TestColors(t *testing.T) {
	assert.Nil(t, palette(0))
	assert.Len(t, palette(4), 4)
	assert.Equal(t, "#ff0000", hexColor(color.RGBA{R: 255, A: 255}))

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		seen[hexColor(colorAt(i))] = true
	}
	assert.Len(t, seen, 10)
	assert.Equal(t, hexColor(colorAt(0)), hexColor(colorAt(10)))
}
