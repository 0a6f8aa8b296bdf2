package report

import (
	"fmt"

	"evsales/internal/analytics"
	"evsales/internal/charts"
	apperrors "evsales/internal/errors"
	"evsales/pkg/contracts/domain"
)

// ChartOptions are the per-figure settings shared by every analysis chart.
type ChartOptions struct {
	Region string
	Width  float64
	Height float64
}

type chartLayout struct {
	title     string
	yLabel    string
	secondary string
}

var layouts = map[analytics.Kind]chartLayout{
	analytics.KindMonthlyDeliveries:      {title: "Monthly Estimated Deliveries", yLabel: "Estimated Deliveries"},
	analytics.KindProductionVsDeliveries: {title: "Production vs Deliveries", yLabel: "Units"},
	analytics.KindAveragePrice:           {title: "Average Price Over Time", yLabel: "Avg Price (USD)"},
	analytics.KindModelShare:             {title: "Model Market Share Over Time", yLabel: "Share of Deliveries"},
	analytics.KindBatteryRange:           {title: "Battery Capacity & Range Over Time", yLabel: "Battery Capacity (kWh)", secondary: "Range (km)"},
	analytics.KindInfraVsSales:           {title: "Infrastructure vs Sales Over Time", yLabel: "Estimated Deliveries", secondary: "Charging Stations"},
}

// CanvasOptions returns the figure options for an analysis.
func CanvasOptions(kind analytics.Kind, opts ChartOptions) charts.Options {
	layout := layouts[kind]
	out := charts.DefaultOptions(layout.title + regionSuffix(opts.Region))
	out.YLabel = layout.yLabel
	out.SecondaryLabel = layout.secondary
	if opts.Width > 0 && opts.Height > 0 {
		out.Width, out.Height = opts.Width, opts.Height
	}
	return out
}

// NewChart creates a canvas in the given format and draws the result on it.
func NewChart(kind analytics.Kind, result any, format charts.Format, opts ChartOptions) (charts.Canvas, error) {
	canvas, err := charts.New(format, CanvasOptions(kind, opts))
	if err != nil {
		return nil, err
	}
	if err := Draw(canvas, kind, result); err != nil {
		return nil, err
	}
	return canvas, nil
}

// Draw adds the series of an analysis result to canvas.
func Draw(canvas charts.Canvas, kind analytics.Kind, result any) error {
	switch r := result.(type) {
	case *analytics.MonthlyDeliveriesResult:
		return canvas.AddLine(r.Series, charts.SeriesStyle{Marker: true})

	case *analytics.AveragePriceResult:
		return canvas.AddLine(r.Series, charts.SeriesStyle{Marker: true})

	case *analytics.ProductionVsDeliveriesResult:
		return drawFrame(canvas, r.Frame, false)

	case *analytics.PairResult:
		return drawFrame(canvas, r.Frame, true)

	case *analytics.ModelShareResult:
		layers := make([]analytics.Series, 0, len(r.Shares.Models))
		for _, m := range r.Shares.Models {
			s, _ := r.Shares.Series(m)
			layers = append(layers, s)
		}
		return canvas.AddStackedArea(layers)
	}
	return apperrors.NewValueError(fmt.Sprintf("no chart for %s result %T", kind, result), nil)
}

// drawFrame draws the first column solid and the second dashed, on the
// secondary axis when dual is set.
func drawFrame(canvas charts.Canvas, f analytics.Frame, dual bool) error {
	for i, name := range f.Columns {
		s, _ := f.Series(name)
		s.Name = displayName(name)
		style := charts.SeriesStyle{Marker: true}
		if i > 0 {
			style.Dashed = true
			style.Secondary = dual
		}
		if err := canvas.AddLine(s, style); err != nil {
			return err
		}
	}
	return nil
}

var displayNames = map[domain.Column]string{
	domain.ColEstimatedDeliveries: "Estimated Deliveries",
	domain.ColProductionUnits:     "Production Units",
	domain.ColBatteryCapacityKWh:  "Battery Capacity (kWh)",
	domain.ColRangeKM:             "Range (km)",
	domain.ColChargingStations:    "Charging Stations",
	domain.ColAvgPriceUSD:         "Avg Price (USD)",
}

func displayName(column string) string {
	if n, ok := displayNames[domain.Column(column)]; ok {
		return n
	}
	return column
}
