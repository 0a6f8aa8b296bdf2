package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"evsales/internal/analytics"
	"evsales/internal/config"
	"evsales/internal/dataset"
	apperrors "evsales/internal/errors"
	"evsales/internal/infrastructure"
	"evsales/internal/shared/testutil"
)

const salesCSV = `Year,Month,Region,Model,Estimated_Deliveries,Production_Units,Avg_Price_USD,Battery_Capacity_kWh,Range_km,Charging_Stations
2023,2,US,Model 3,1500,1500,46000,76,505,12
2023,1,US,Model 3,1000,1200,45000.5,75,500,10
2023,1,Europe,Model Y,500,400,50000,80,520,5
`

type harness struct {
	pipeline *Pipeline
	spans    *tracetest.SpanRecorder
	reader   *sdkmetric.ManualReader
	path     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0644))

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.NewMetrics(mp.Meter("test"))
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	return &harness{
		pipeline: NewPipeline(config.Default(), logger, tp.Tracer("test"), metrics),
		spans:    spans,
		reader:   reader,
		path:     path,
	}
}

func (h *harness) spanNames() []string {
	var names []string
	for _, s := range h.spans.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func (h *harness) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestPipeline_Load(t *testing.T) {
	h := newHarness(t)
	tbl, err := h.pipeline.Load(context.Background(), h.path)
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Len())
	assert.Contains(t, h.spanNames(), "pipeline.load")
	assert.Equal(t, int64(3), h.counter(t, "rows_loaded_total"))
}

func TestPipeline_LoadMissingFile(t *testing.T) {
	h := newHarness(t)
	_, err := h.pipeline.Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))

	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "Error", ended[0].Status().Code.String())
}

func TestPipeline_Split(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tbl, err := h.pipeline.Load(ctx, h.path)
	require.NoError(t, err)

	out := t.TempDir()
	workbook := filepath.Join(out, "regions.xlsx")
	result, err := h.pipeline.Split(ctx, tbl, out, workbook)
	require.NoError(t, err)

	assert.Equal(t, []string{"Europe", "US"}, result.Partitions.Names())
	assert.Equal(t, []string{
		filepath.Join(out, "tesla_europe.csv"),
		filepath.Join(out, "tesla_us.csv"),
	}, result.Files)
	assert.Equal(t, workbook, result.Workbook)
	assert.FileExists(t, workbook)
	assert.Subset(t, h.spanNames(), []string{"pipeline.split", "pipeline.export", "pipeline.workbook"})
	assert.Equal(t, int64(4), h.counter(t, "partitions_written_total"))

	us, err := dataset.Load(result.Files[1], dataset.DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, us.Len())
}

func TestPipeline_Analyze(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tbl, err := h.pipeline.Load(ctx, h.path)
	require.NoError(t, err)

	result, err := h.pipeline.Analyze(ctx, tbl, analytics.KindMonthlyDeliveries, "")
	require.NoError(t, err)
	monthly := result.(*analytics.MonthlyDeliveriesResult)
	assert.Equal(t, []float64{1500, 1500}, monthly.Series.Values)

	_, err = h.pipeline.Analyze(ctx, tbl, analytics.Kind("bogus"), "")
	assert.Error(t, err)

	assert.Contains(t, h.spanNames(), "analysis.monthly-deliveries")
	assert.Equal(t, int64(2), h.counter(t, "analyses_total"))
}

func TestFilterRegion(t *testing.T) {
	h := newHarness(t)
	tbl, err := h.pipeline.Load(context.Background(), h.path)
	require.NoError(t, err)

	same, err := FilterRegion(tbl, "")
	require.NoError(t, err)
	assert.Same(t, tbl, same)

	us, err := FilterRegion(tbl, "US")
	require.NoError(t, err)
	assert.Equal(t, 2, us.Len())

	_, err = FilterRegion(tbl, "Mars")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	_, err = FilterRegion(tbl.Drop("Region"), "US")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestParseKinds(t *testing.T) {
	all, err := ParseKinds(nil)
	require.NoError(t, err)
	assert.Equal(t, analytics.Kinds, all)

	kinds, err := ParseKinds([]string{"model-share", "average-price"})
	require.NoError(t, err)
	assert.Equal(t, []analytics.Kind{analytics.KindModelShare, analytics.KindAveragePrice}, kinds)

	_, err = ParseKinds([]string{"nope"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValue))
}

func TestPipeline_ExportResult(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tbl, err := h.pipeline.Load(ctx, h.path)
	require.NoError(t, err)
	dir := t.TempDir()

	result, err := h.pipeline.Analyze(ctx, tbl, analytics.KindModelShare, "")
	require.NoError(t, err)
	path, err := h.pipeline.ExportResult(ctx, analytics.KindModelShare, result, dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "model-share.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Date,Model 3,Model Y\n2023-01-01,0.6666666666666666,0.3333333333333333\n2023-02-01,1,0\n", string(data))

	us, err := FilterRegion(tbl, "US")
	require.NoError(t, err)
	result, err = h.pipeline.Analyze(ctx, us, analytics.KindProductionVsDeliveries, "US")
	require.NoError(t, err)
	path, err = h.pipeline.ExportResult(ctx, analytics.KindProductionVsDeliveries, result, dir, "US")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "production-vs-deliveries_us.csv"), path)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Date,Estimated_Deliveries,Production_Units\n2023-01-01,1000,1200\n2023-02-01,1500,1500\n", string(data))

	_, err = h.pipeline.ExportResult(ctx, analytics.KindModelShare, "bogus", dir, "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValue))
	assert.Contains(t, h.spanNames(), "pipeline.export_result")
}
