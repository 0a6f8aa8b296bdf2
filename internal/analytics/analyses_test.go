package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evsales/internal/dataset"
	apperrors "evsales/internal/errors"
	"evsales/pkg/contracts/domain"
)

func month(year, m int) time.Time {
	return time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
}

type row struct {
	year, month             int
	region, model           string
	deliveries, produced    float64
	price, battery, rangeKM float64
	stations                float64
}

func (r row) record() domain.Record {
	return domain.Record{
		Year:                domain.Some(r.year),
		Month:               domain.Some(r.month),
		Region:              domain.Some(r.region),
		Model:               domain.Some(r.model),
		EstimatedDeliveries: domain.Some(r.deliveries),
		ProductionUnits:     domain.Some(r.produced),
		AvgPriceUSD:         domain.Some(r.price),
		BatteryCapacityKWh:  domain.Some(r.battery),
		RangeKM:             domain.Some(r.rangeKM),
		ChargingStations:    domain.Some(r.stations),
	}
}

func table(rows ...row) *dataset.Table {
	records := make([]domain.Record, len(rows))
	for i, r := range rows {
		records[i] = r.record()
	}
	return dataset.New(domain.AllColumns[:10], records)
}

func TestMonthlyDeliveries(t *testing.T) {
	tbl := table(
		row{year: 2023, month: 1, region: "US", model: "X", deliveries: 100, produced: 120},
		row{year: 2023, month: 1, region: "EU", model: "X", deliveries: 50, produced: 120},
		row{year: 2023, month: 2, region: "US", model: "X", deliveries: 80, produced: 90},
	)

	res, err := MonthlyDeliveries(tbl)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{month(2023, 1), month(2023, 2)}, res.Series.Dates)
	assert.Equal(t, []float64{150, 80}, res.Series.Values)

	assert.Equal(t, 2, res.Stats.Count)
	assert.Equal(t, 230.0, res.Stats.Sum)
	assert.Equal(t, 115.0, res.Stats.Mean)
	assert.Equal(t, 80.0, res.Stats.Min)
	assert.Equal(t, month(2023, 2), res.Stats.MinAt)
	assert.Equal(t, 150.0, res.Stats.Max)
	assert.Equal(t, month(2023, 1), res.Stats.First)
	assert.Equal(t, month(2023, 2), res.Stats.Last)
	assert.Equal(t, 2, res.Tail.Len())
}

func TestMonthlyDeliveries_ChronologicalOnUnsortedInput(t *testing.T) {
	var rows []row
	for _, ym := range [][2]int{{2024, 3}, {2022, 11}, {2023, 6}, {2022, 11}, {2024, 1}, {2023, 6}, {2021, 2}, {2024, 5}} {
		rows = append(rows, row{year: ym[0], month: ym[1], model: "X", deliveries: 1})
	}

	res, err := MonthlyDeliveries(table(rows...))
	require.NoError(t, err)

	require.Equal(t, 6, res.Series.Len())
	for i := 1; i < res.Series.Len(); i++ {
		assert.True(t, res.Series.Dates[i-1].Before(res.Series.Dates[i]))
	}
	assert.Equal(t, []float64{1, 2, 2, 1, 1, 1}, res.Series.Values)
	require.Equal(t, TailSize, res.Tail.Len())
	assert.Equal(t, month(2022, 11), res.Tail.Dates[0])
	assert.Equal(t, month(2024, 5), res.Tail.Dates[TailSize-1])
}

func TestMonthlyDeliveries_AbsentValuesSkipped(t *testing.T) {
	tbl := dataset.New(
		[]domain.Column{domain.ColYear, domain.ColMonth, domain.ColEstimatedDeliveries},
		[]domain.Record{
			{Year: domain.Some(2023), Month: domain.Some(1), EstimatedDeliveries: domain.Some(10.0)},
			{Year: domain.Some(2023), Month: domain.Some(1)},
			{Year: domain.Some(2023), Month: domain.Some(2)},
		},
	)

	res, err := MonthlyDeliveries(tbl)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 0}, res.Series.Values)
}

func TestMonthlyDeliveries_Errors(t *testing.T) {
	noDeliveries := dataset.New([]domain.Column{domain.ColYear, domain.ColMonth}, nil)
	_, err := MonthlyDeliveries(noDeliveries)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))

	badMonth := table(row{year: 2023, month: 13, deliveries: 1})
	_, err = MonthlyDeliveries(badMonth)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValue))
}

func TestProductionVsDeliveries(t *testing.T) {
	tbl := table(
		row{year: 2023, month: 1, deliveries: 100, produced: 200},
		row{year: 2023, month: 2, deliveries: 150, produced: 300},
		row{year: 2023, month: 3, deliveries: 120, produced: 240},
		row{year: 2023, month: 4, deliveries: 90, produced: 180},
	)

	res, err := ProductionVsDeliveries(tbl)
	require.NoError(t, err)

	assert.Equal(t, []string{"Estimated_Deliveries", "Production_Units"}, res.Frame.Columns)
	assert.InDelta(t, 1.0, res.Correlation, 1e-12)
	assert.InDelta(t, 0.5, res.MeanRatio, 1e-12)
	for _, v := range res.Ratio.Values {
		assert.InDelta(t, 0.5, v, 1e-12)
	}
	assert.Equal(t, []NamedValue{
		{Name: "Estimated_Deliveries", Value: 115},
		{Name: "Production_Units", Value: 230},
	}, res.Means)
	assert.Equal(t, month(2023, 1), res.First)
	assert.Equal(t, month(2023, 4), res.Last)
}

func TestProductionVsDeliveries_ZeroProduction(t *testing.T) {
	tbl := table(
		row{year: 2023, month: 1, deliveries: 10, produced: 0},
		row{year: 2023, month: 2, deliveries: 10, produced: 20},
	)

	res, err := ProductionVsDeliveries(tbl)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.5}, res.Ratio.Values)
	assert.Equal(t, 0.25, res.MeanRatio)
	assert.False(t, math.IsNaN(res.Correlation))
	// deliveries are constant, so correlation is undefined and reported as 0
	assert.Equal(t, 0.0, res.Correlation)
}

func TestAveragePrice(t *testing.T) {
	tbl := table(
		row{year: 2023, month: 1, price: 40000},
		row{year: 2023, month: 1, price: 60000},
		row{year: 2023, month: 2, price: 45000},
	)

	res, err := AveragePrice(tbl)
	require.NoError(t, err)
	assert.Equal(t, []float64{50000, 45000}, res.Series.Values)
	assert.Equal(t, 45000.0, res.Stats.Min)
	assert.Equal(t, 47500.0, res.Stats.Mean)
}

func TestModelShare(t *testing.T) {
	tbl := table(
		row{year: 2023, month: 1, region: "US", model: "A", deliveries: 20},
		row{year: 2023, month: 1, region: "EU", model: "A", deliveries: 10},
		row{year: 2023, month: 1, region: "US", model: "B", deliveries: 70},
		row{year: 2023, month: 2, region: "US", model: "B", deliveries: 0},
		row{year: 2023, month: 2, region: "US", model: "A", deliveries: 0},
		row{year: 2023, month: 3, region: "US", model: "B", deliveries: 5},
	)

	res, err := ModelShare(tbl)
	require.NoError(t, err)

	shares := res.Shares
	assert.Equal(t, []string{"A", "B"}, shares.Models)
	require.Len(t, shares.Dates, 3)

	jan := shares.Row(0)
	assert.InDelta(t, 0.3, jan["A"], 1e-12)
	assert.InDelta(t, 0.7, jan["B"], 1e-12)

	// zero total gives an all-zero row
	assert.Equal(t, map[string]float64{"A": 0, "B": 0}, shares.Row(1))

	// model absent in a month is filled with 0
	assert.Equal(t, map[string]float64{"A": 0, "B": 1}, shares.Row(2))

	for i := range shares.Dates {
		var sum float64
		for _, v := range shares.Shares[i] {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
			sum += v
		}
		assert.True(t, math.Abs(sum-1) < 1e-9 || sum == 0, "row %d sums to %v", i, sum)
	}

	assert.Equal(t, month(2023, 3), res.LatestDate)
	assert.Equal(t, "B", res.LatestShares[0].Name)
	assert.Equal(t, "B", res.MeanShares[0].Name)
	assert.InDelta(t, 0.1, res.MeanShares[1].Value, 1e-12)
	assert.Equal(t, month(2023, 1), res.First)
	assert.Equal(t, month(2023, 3), res.Last)
	assert.Equal(t, shares, res.Tail)
}

func TestModelShare_TailKeepsLastMonths(t *testing.T) {
	var rows []row
	for m := 1; m <= 7; m++ {
		rows = append(rows,
			row{year: 2023, month: m, model: "A", deliveries: float64(m)},
			row{year: 2023, month: m, model: "B", deliveries: 10 - float64(m)},
		)
	}

	res, err := ModelShare(table(rows...))
	require.NoError(t, err)

	require.Len(t, res.Tail.Dates, TailSize)
	require.Len(t, res.Tail.Shares, TailSize)
	assert.Equal(t, []string{"A", "B"}, res.Tail.Models)
	assert.Equal(t, month(2023, 3), res.Tail.Dates[0])
	assert.Equal(t, month(2023, 7), res.Tail.Dates[TailSize-1])
	assert.Equal(t, res.Shares.Row(6), res.Tail.Row(TailSize-1))

	// the tail is a copy
	res.Tail.Shares[0][0] = -1
	assert.InDelta(t, 0.3, res.Shares.Shares[2][0], 1e-12)
}

func TestModelShare_SkipsAbsentModel(t *testing.T) {
	tbl := dataset.New(
		[]domain.Column{domain.ColYear, domain.ColMonth, domain.ColModel, domain.ColEstimatedDeliveries},
		[]domain.Record{
			{Year: domain.Some(2023), Month: domain.Some(1), Model: domain.Some("A"), EstimatedDeliveries: domain.Some(5.0)},
			{Year: domain.Some(2023), Month: domain.Some(1), EstimatedDeliveries: domain.Some(95.0)},
		},
	)

	res, err := ModelShare(tbl)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"A": 1}, res.Shares.Row(0))
}

func TestModelShare_Series(t *testing.T) {
	res, err := ModelShare(table(
		row{year: 2023, month: 1, model: "A", deliveries: 1},
		row{year: 2023, month: 1, model: "B", deliveries: 3},
	))
	require.NoError(t, err)

	s, ok := res.Shares.Series("B")
	require.True(t, ok)
	assert.Equal(t, []float64{0.75}, s.Values)

	_, ok = res.Shares.Series("Z")
	assert.False(t, ok)
}

func TestBatteryAndRange_PerfectCorrelation(t *testing.T) {
	tbl := table(
		row{year: 2023, month: 1, battery: 60, rangeKM: 120},
		row{year: 2023, month: 2, battery: 75, rangeKM: 150},
		row{year: 2023, month: 3, battery: 100, rangeKM: 200},
	)

	res, err := BatteryAndRange(tbl)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Correlation, 1e-12)
	assert.Equal(t, []string{"Battery_Capacity_kWh", "Range_km"}, res.Frame.Columns)
	assert.Equal(t, month(2023, 1), res.First)
	assert.Equal(t, month(2023, 3), res.Last)
	assert.Equal(t, res.Frame, res.Tail)
}

func TestInfraVsSales(t *testing.T) {
	tbl := table(
		row{year: 2023, month: 1, region: "US", deliveries: 10, stations: 5},
		row{year: 2023, month: 1, region: "EU", deliveries: 10, stations: 5},
		row{year: 2023, month: 2, region: "US", deliveries: 30, stations: 1},
		row{year: 2023, month: 3, region: "US", deliveries: 40, stations: 0},
	)

	res, err := InfraVsSales(tbl)
	require.NoError(t, err)

	stations, ok := res.Frame.Series("Charging_Stations")
	require.True(t, ok)
	assert.Equal(t, []float64{10, 1, 0}, stations.Values)
	assert.Less(t, res.Correlation, 0.0)
}

func TestPearson(t *testing.T) {
	assert.Equal(t, 0.0, Pearson([]float64{1}, []float64{2}))
	assert.Equal(t, 0.0, Pearson([]float64{1, 1, 1}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, Pearson([]float64{1, 2}, []float64{1}))
	assert.InDelta(t, -1.0, Pearson([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-12)
}

func TestRun(t *testing.T) {
	tbl := table(
		row{year: 2023, month: 1, model: "A", deliveries: 10, produced: 12, price: 1, battery: 1, rangeKM: 1, stations: 1},
		row{year: 2023, month: 2, model: "B", deliveries: 20, produced: 22, price: 2, battery: 2, rangeKM: 2, stations: 2},
	)

	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			parsed, err := ParseKind(string(k))
			require.NoError(t, err)

			res, err := Run(parsed, tbl)
			require.NoError(t, err)
			assert.NotNil(t, res)
		})
	}

	_, err := ParseKind("nope")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValue))

	_, err = Run("nope", tbl)
	assert.Error(t, err)
}

func TestSeriesStats_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, Series{}.Stats())
	assert.Equal(t, 0, Series{}.Tail(5).Len())
}
