package analytics

import (
	"slices"
	"time"

	"evsales/internal/dataset"
	"evsales/pkg/contracts/domain"
)

// TailSize is the number of trailing months every summary carries.
const TailSize = 5

// MonthlyDeliveriesResult is the monthly delivery total.
type MonthlyDeliveriesResult struct {
	Series Series `json:"series"`
	Stats  Stats  `json:"stats"`
	Tail   Series `json:"tail"`
}

// ProductionVsDeliveriesResult compares monthly production and deliveries.
type ProductionVsDeliveriesResult struct {
	Frame       Frame        `json:"frame"`
	Ratio       Series       `json:"ratio"`
	MeanRatio   float64      `json:"mean_ratio"`
	Correlation float64      `json:"correlation"`
	Means       []NamedValue `json:"means"`
	First       time.Time    `json:"first"`
	Last        time.Time    `json:"last"`
	Tail        Frame        `json:"tail"`
}

// AveragePriceResult is the monthly mean price.
type AveragePriceResult struct {
	Series Series `json:"series"`
	Stats  Stats  `json:"stats"`
	Tail   Series `json:"tail"`
}

// ModelShareResult is each model's share of monthly deliveries.
type ModelShareResult struct {
	Shares       ShareTable   `json:"shares"`
	MeanShares   []NamedValue `json:"mean_shares"`
	LatestDate   time.Time    `json:"latest_date"`
	LatestShares []NamedValue `json:"latest_shares"`
	First        time.Time    `json:"first"`
	Last         time.Time    `json:"last"`
	Tail         ShareTable   `json:"tail"`
}

// PairResult is two monthly measures and their correlation.
type PairResult struct {
	Frame       Frame        `json:"frame"`
	Correlation float64      `json:"correlation"`
	Means       []NamedValue `json:"means"`
	First       time.Time    `json:"first"`
	Last        time.Time    `json:"last"`
	Tail        Frame        `json:"tail"`
}

// MonthlyDeliveries sums Estimated_Deliveries per month.
func MonthlyDeliveries(t *dataset.Table) (*MonthlyDeliveriesResult, error) {
	prepared, err := prepare(t, "monthly deliveries", domain.ColEstimatedDeliveries)
	if err != nil {
		return nil, err
	}

	f := reduceFrame(groupByDate(prepared), []domain.Column{domain.ColEstimatedDeliveries}, sumOf)
	s, _ := f.Series(string(domain.ColEstimatedDeliveries))
	return &MonthlyDeliveriesResult{Series: s, Stats: s.Stats(), Tail: s.Tail(TailSize)}, nil
}

// ProductionVsDeliveries sums deliveries and production per month and relates them.
func ProductionVsDeliveries(t *dataset.Table) (*ProductionVsDeliveriesResult, error) {
	cols := []domain.Column{domain.ColEstimatedDeliveries, domain.ColProductionUnits}
	prepared, err := prepare(t, "production vs deliveries", cols...)
	if err != nil {
		return nil, err
	}

	f := reduceFrame(groupByDate(prepared), cols, sumOf)
	deliveries, production := f.Values[0], f.Values[1]

	ratio := Series{Name: "Delivery_Ratio", Dates: slices.Clone(f.Dates), Values: make([]float64, len(f.Dates))}
	for i := range f.Dates {
		ratio.Values[i] = safeDiv(deliveries[i], production[i])
	}

	result := &ProductionVsDeliveriesResult{
		Frame:       f,
		Ratio:       ratio,
		MeanRatio:   mean(ratio.Values),
		Correlation: Pearson(deliveries, production),
		Means:       f.Means(),
		Tail:        f.Tail(TailSize),
	}
	result.First, result.Last = f.Bounds()
	return result, nil
}

// AveragePrice averages Avg_Price_USD per month.
func AveragePrice(t *dataset.Table) (*AveragePriceResult, error) {
	prepared, err := prepare(t, "average price", domain.ColAvgPriceUSD)
	if err != nil {
		return nil, err
	}

	f := reduceFrame(groupByDate(prepared), []domain.Column{domain.ColAvgPriceUSD}, meanOf)
	s, _ := f.Series(string(domain.ColAvgPriceUSD))
	return &AveragePriceResult{Series: s, Stats: s.Stats(), Tail: s.Tail(TailSize)}, nil
}

// ModelShare sums deliveries per (month, model), pivots models into columns
// with missing combinations as 0, and divides each month by its total.
// Rows without a Model are ignored.
func ModelShare(t *dataset.Table) (*ModelShareResult, error) {
	prepared, err := prepare(t, "model share", domain.ColModel, domain.ColEstimatedDeliveries)
	if err != nil {
		return nil, err
	}

	var models []string
	var dates []time.Time
	var totals []map[string]float64

	for _, g := range groupByDate(prepared) {
		byModel := make(map[string]float64)
		for _, r := range g.rows {
			m, ok := r.Model.Get()
			if !ok {
				continue
			}
			if !slices.Contains(models, m) {
				models = append(models, m)
			}
			byModel[m] += r.EstimatedDeliveries.OrElse(0)
		}
		if len(byModel) == 0 {
			continue
		}
		dates = append(dates, g.date)
		totals = append(totals, byModel)
	}
	slices.Sort(models)

	share := ShareTable{Dates: dates, Models: models, Shares: make([][]float64, len(dates))}
	for i, byModel := range totals {
		var rowSum float64
		for _, v := range byModel {
			rowSum += v
		}
		row := make([]float64, len(models))
		for j, m := range models {
			row[j] = safeDiv(byModel[m], rowSum)
		}
		share.Shares[i] = row
	}

	result := &ModelShareResult{
		Shares:       share,
		MeanShares:   share.MeanShares(),
		LatestShares: share.LatestShares(),
		Tail:         share.Tail(TailSize),
	}
	result.First, result.Last = bounds(dates)
	result.LatestDate = result.Last
	return result, nil
}

// BatteryAndRange averages battery capacity and range per month.
func BatteryAndRange(t *dataset.Table) (*PairResult, error) {
	return pair(t, "battery and range", meanOf, domain.ColBatteryCapacityKWh, domain.ColRangeKM)
}

// InfraVsSales sums deliveries and charging stations per month.
func InfraVsSales(t *dataset.Table) (*PairResult, error) {
	return pair(t, "infrastructure vs sales", sumOf, domain.ColEstimatedDeliveries, domain.ColChargingStations)
}

func pair(t *dataset.Table, operation string, reduce func([]domain.Record, domain.Column) float64, a, b domain.Column) (*PairResult, error) {
	prepared, err := prepare(t, operation, a, b)
	if err != nil {
		return nil, err
	}

	f := reduceFrame(groupByDate(prepared), []domain.Column{a, b}, reduce)
	result := &PairResult{
		Frame:       f,
		Correlation: Pearson(f.Values[0], f.Values[1]),
		Means:       f.Means(),
		Tail:        f.Tail(TailSize),
	}
	result.First, result.Last = f.Bounds()
	return result, nil
}
