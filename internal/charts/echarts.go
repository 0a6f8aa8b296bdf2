package charts

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot/plotter"

	"evsales/internal/analytics"
	apperrors "evsales/internal/errors"
)

const (
	pixelsPerInch = 96
	dateLabel     = "2006-01-02"
)

// heatColors is the diverging scale used for correlation heat maps.
var heatColors = []string{"#3b4cc0", "#7b9ff9", "#c0d4f5", "#f2cbb7", "#ee8468", "#b40426"}

// EChartsCanvas builds interactive HTML figures with go-echarts.
// Lines and stacked areas share one chart; bars, histograms and heat maps
// each add a chart to the page.
type EChartsCanvas struct {
	opts   Options
	line   *charts.Line
	labels []string
	index  map[string]int
	hasY2  bool
	charts []components.Charter
	series int
}

// NewEChartsCanvas creates an empty HTML canvas.
func NewEChartsCanvas(opts Options) *EChartsCanvas {
	return &EChartsCanvas{opts: opts}
}

// Format implements Canvas.
func (c *EChartsCanvas) Format() Format { return FormatHTML }

func (c *EChartsCanvas) initialization() opts.Initialization {
	width, height := c.opts.Width, c.opts.Height
	if width <= 0 || height <= 0 {
		width, height = 12, 6
	}
	return opts.Initialization{
		PageTitle: c.opts.Title,
		Width:     fmt.Sprintf("%dpx", int(width*pixelsPerInch)),
		Height:    fmt.Sprintf("%dpx", int(height*pixelsPerInch)),
	}
}

func (c *EChartsCanvas) nextColor() string {
	col := hexColor(colorAt(c.series))
	c.series++
	return col
}

// timeChart returns the shared line chart, creating it with the dates of the
// first series as the category axis.
func (c *EChartsCanvas) timeChart(dates []time.Time) *charts.Line {
	if c.line != nil {
		return c.line
	}
	c.labels = make([]string, len(dates))
	c.index = make(map[string]int, len(dates))
	for i, d := range dates {
		c.labels[i] = d.Format(dateLabel)
		c.index[c.labels[i]] = i
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(c.initialization()),
		charts.WithTitleOpts(opts.Title{Title: c.opts.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.opts.XLabel, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.opts.YLabel}),
	)
	line.SetXAxis(c.labels)
	c.line = line
	c.charts = append(c.charts, line)
	return line
}

// aligned maps the series onto the chart's date axis. Dates the axis does not
// carry are dropped and axis dates the series lacks stay empty.
func (c *EChartsCanvas) aligned(s analytics.Series) ([]opts.LineData, error) {
	if len(s.Dates) != len(s.Values) {
		return nil, apperrors.NewValueError(fmt.Sprintf("series %s: %d dates for %d values", s.Name, len(s.Dates), len(s.Values)), nil)
	}
	data := make([]opts.LineData, len(c.labels))
	for i, d := range s.Dates {
		if j, ok := c.index[d.Format(dateLabel)]; ok {
			data[j] = opts.LineData{Value: finite(s.Values[i])}
		}
	}
	return data, nil
}

// AddLine implements Canvas.
func (c *EChartsCanvas) AddLine(s analytics.Series, style SeriesStyle) error {
	line := c.timeChart(s.Dates)
	data, err := c.aligned(s)
	if err != nil {
		return err
	}

	lineOpts := opts.LineChart{ShowSymbol: opts.Bool(style.Marker)}
	if style.Marker {
		lineOpts.Symbol = "circle"
	}
	if style.Secondary {
		if !c.hasY2 {
			line.ExtendYAxis(opts.YAxis{Name: c.opts.SecondaryLabel, Position: "right"})
			c.hasY2 = true
		}
		lineOpts.YAxisIndex = 1
	}
	lineStyle := opts.LineStyle{Color: c.nextColor(), Width: 2}
	if style.Dashed {
		lineStyle.Type = "dashed"
	}

	line.AddSeries(s.Name, data,
		charts.WithLineChartOpts(lineOpts),
		charts.WithLineStyleOpts(lineStyle),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: lineStyle.Color}),
	)
	return nil
}

// AddStackedArea implements Canvas.
func (c *EChartsCanvas) AddStackedArea(layers []analytics.Series) error {
	if len(layers) == 0 {
		return nil
	}
	line := c.timeChart(layers[0].Dates)
	for _, layer := range layers {
		data, err := c.aligned(layer)
		if err != nil {
			return err
		}
		col := c.nextColor()
		line.AddSeries(layer.Name, data,
			charts.WithLineChartOpts(opts.LineChart{Stack: "stack", ShowSymbol: opts.Bool(false)}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: col, Opacity: opts.Float(0.85)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: col, Width: 1}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: col}),
		)
	}
	return nil
}

// AddBars implements Canvas.
func (c *EChartsCanvas) AddBars(name string, labels []string, values []float64) error {
	if err := checkLengths(name, len(labels), len(values)); err != nil {
		return err
	}
	data := make([]opts.BarData, len(values))
	for i, v := range values {
		data[i] = opts.BarData{Value: finite(v)}
	}
	c.charts = append(c.charts, c.barChart(name, labels, data, c.opts.XLabel))
	return nil
}

// AddHistogram implements Canvas. Bins are computed the same way as on the
// PNG canvas.
func (c *EChartsCanvas) AddHistogram(name string, values []float64, bins int) error {
	clean := dropNonFinite(values)
	if len(clean) == 0 {
		return apperrors.NewValueError(fmt.Sprintf("histogram %s: no values", name), nil)
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	h, err := plotter.NewHist(plotter.Values(clean), bins)
	if err != nil {
		return fmt.Errorf("histogram %s: %w", name, err)
	}
	labels := make([]string, len(h.Bins))
	data := make([]opts.BarData, len(h.Bins))
	for i, b := range h.Bins {
		labels[i] = fmt.Sprintf("%.4g", (b.Min+b.Max)/2)
		data[i] = opts.BarData{Value: b.Weight}
	}
	c.charts = append(c.charts, c.barChart(name, labels, data, name))
	return nil
}

func (c *EChartsCanvas) barChart(name string, labels []string, data []opts.BarData, xName string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(c.initialization()),
		charts.WithTitleOpts(opts.Title{Title: c.opts.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.opts.YLabel}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries(name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: c.nextColor()}))
	return bar
}

// AddHeatMap implements Canvas.
func (c *EChartsCanvas) AddHeatMap(rows, cols []string, values [][]float64) error {
	if err := checkGrid(rows, cols, values); err != nil {
		return err
	}
	if len(rows) == 0 || len(cols) == 0 {
		return nil
	}
	lo, hi := grid{values: values}.bounds()

	data := make([]opts.HeatMapData, 0, len(rows)*len(cols))
	for r, row := range values {
		for col, v := range row {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{col, r, finite(v)}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(c.initialization()),
		charts.WithTitleOpts(opts.Title{Title: c.opts.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: cols}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: rows}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: heatColors},
		}),
	)
	hm.AddSeries(c.opts.Title, data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	c.charts = append(c.charts, hm)
	return nil
}

// Render implements Canvas. The figure is written as a standalone HTML page.
func (c *EChartsCanvas) Render(w io.Writer) error {
	page := components.NewPage()
	page.SetPageTitle(c.opts.Title)
	page.AddCharts(c.charts...)
	return page.Render(w)
}

// Save implements Canvas.
func (c *EChartsCanvas) Save(path string) error {
	return saveTo(path, c.Render)
}
