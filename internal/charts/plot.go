package charts

import (
	"fmt"
	"io"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"evsales/internal/analytics"
	apperrors "evsales/internal/errors"
)

// DefaultBins is used when a histogram is requested with no bin count.
const DefaultBins = 20

const monthTickFormat = "2006-01"

// PlotCanvas draws PNG figures with gonum/plot. Series on the secondary axis
// go to a lower panel that shares the time axis with the main panel.
type PlotCanvas struct {
	opts      Options
	main      *plot.Plot
	secondary *plot.Plot
	series    int
}

// NewPlotCanvas creates an empty PNG canvas.
func NewPlotCanvas(opts Options) *PlotCanvas {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return &PlotCanvas{opts: opts, main: p}
}

// Format implements Canvas.
func (c *PlotCanvas) Format() Format { return FormatPNG }

// Plot exposes the main panel.
func (c *PlotCanvas) Plot() *plot.Plot { return c.main }

func (c *PlotCanvas) nextColor() draw.LineStyle {
	style := plotter.DefaultLineStyle
	style.Color = colorAt(c.series)
	style.Width = vg.Points(1.5)
	c.series++
	return style
}

func (c *PlotCanvas) lower() *plot.Plot {
	if c.secondary == nil {
		p := plot.New()
		p.X.Label.Text = c.opts.XLabel
		p.Y.Label.Text = c.opts.SecondaryLabel
		p.X.Tick.Marker = plot.TimeTicks{Format: monthTickFormat}
		p.Legend.Top = true
		p.Add(plotter.NewGrid())
		c.secondary = p
		c.main.X.Label.Text = ""
	}
	return c.secondary
}

// AddLine implements Canvas.
func (c *PlotCanvas) AddLine(s analytics.Series, style SeriesStyle) error {
	xys, err := timeXYs(s)
	if err != nil {
		return err
	}

	target := c.main
	if style.Secondary {
		target = c.lower()
	}
	target.X.Tick.Marker = plot.TimeTicks{Format: monthTickFormat}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("line %s: %w", s.Name, err)
	}
	line.LineStyle = c.nextColor()
	if style.Dashed {
		line.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
	}
	target.Add(line)

	if style.Marker {
		points, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("markers %s: %w", s.Name, err)
		}
		points.Color = line.Color
		points.Radius = vg.Points(2)
		points.Shape = draw.CircleGlyph{}
		target.Add(points)
		target.Legend.Add(s.Name, line, points)
		return nil
	}
	target.Legend.Add(s.Name, line)
	return nil
}

// AddStackedArea implements Canvas. Layers must share the same dates.
func (c *PlotCanvas) AddStackedArea(layers []analytics.Series) error {
	if len(layers) == 0 {
		return nil
	}
	dates := layers[0].Dates
	base := make([]float64, len(dates))
	c.main.X.Tick.Marker = plot.TimeTicks{Format: monthTickFormat}

	for _, layer := range layers {
		if len(layer.Dates) != len(dates) || len(layer.Values) != len(dates) {
			return apperrors.NewValueError(fmt.Sprintf("stacked layer %s does not match the first layer's dates", layer.Name), nil)
		}
		if len(dates) == 0 {
			continue
		}

		top := make([]float64, len(dates))
		for i, v := range layer.Values {
			top[i] = base[i] + finite(v)
		}

		// Upper edge left to right, then the lower edge back.
		ring := make(plotter.XYs, 0, 2*len(dates))
		for i, d := range dates {
			ring = append(ring, plotter.XY{X: unixX(d), Y: top[i]})
		}
		for i := len(dates) - 1; i >= 0; i-- {
			ring = append(ring, plotter.XY{X: unixX(dates[i]), Y: base[i]})
		}

		poly, err := plotter.NewPolygon(ring)
		if err != nil {
			return fmt.Errorf("area %s: %w", layer.Name, err)
		}
		style := c.nextColor()
		poly.Color = style.Color
		poly.LineStyle.Width = 0
		c.main.Add(poly)
		c.main.Legend.Add(layer.Name, poly)

		base = top
	}
	return nil
}

// AddBars implements Canvas.
func (c *PlotCanvas) AddBars(name string, labels []string, values []float64) error {
	if err := checkLengths(name, len(labels), len(values)); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	bars, err := plotter.NewBarChart(plotter.Values(finiteAll(values)), vg.Points(20))
	if err != nil {
		return fmt.Errorf("bars %s: %w", name, err)
	}
	style := c.nextColor()
	bars.Color = style.Color
	bars.LineStyle.Width = 0
	c.main.Add(bars)
	c.main.NominalX(labels...)
	c.main.Legend.Add(name, bars)
	return nil
}

// AddHistogram implements Canvas. NaN and infinite values are ignored.
func (c *PlotCanvas) AddHistogram(name string, values []float64, bins int) error {
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
	style := c.nextColor()
	h.FillColor = style.Color
	c.main.Add(h)
	c.main.Legend.Add(name, h)
	return nil
}

// AddHeatMap implements Canvas.
func (c *PlotCanvas) AddHeatMap(rows, cols []string, values [][]float64) error {
	if err := checkGrid(rows, cols, values); err != nil {
		return err
	}
	if len(rows) == 0 || len(cols) == 0 {
		return nil
	}
	g := grid{values: values}
	lo, hi := g.bounds()

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(lo)
	cmap.SetMax(hi)
	hm := plotter.NewHeatMap(g, cmap.Palette(255))
	hm.Min, hm.Max = lo, hi
	c.main.Add(hm)
	c.main.NominalX(cols...)
	c.main.NominalY(rows...)
	return nil
}

// Render implements Canvas.
func (c *PlotCanvas) Render(w io.Writer) error {
	width := vg.Length(c.opts.Width) * vg.Inch
	height := vg.Length(c.opts.Height) * vg.Inch
	if width <= 0 || height <= 0 {
		width, height = 12*vg.Inch, 6*vg.Inch
	}

	if c.secondary == nil {
		wt, err := c.main.WriterTo(width, height, string(FormatPNG))
		if err != nil {
			return err
		}
		_, err = wt.WriteTo(w)
		return err
	}

	img, err := draw.NewFormattedCanvas(width, height, string(FormatPNG))
	if err != nil {
		return err
	}
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	plots := [][]*plot.Plot{{c.main}, {c.secondary}}
	canvases := plot.Align(plots, tiles, draw.New(img))
	c.main.Draw(canvases[0][0])
	c.secondary.Draw(canvases[1][0])
	_, err = img.WriteTo(w)
	return err
}

// Save implements Canvas.
func (c *PlotCanvas) Save(path string) error {
	return saveTo(path, c.Render)
}

// grid adapts a row-major matrix to plotter.GridXYZ. Row 0 is drawn at the bottom.
type grid struct {
	values [][]float64
}

func (g grid) Dims() (c, r int)   { return len(g.values[0]), len(g.values) }
func (g grid) Z(c, r int) float64 { return g.values[r][c] }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

func (g grid) bounds() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range g.values {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

func unixX(t time.Time) float64 {
	return float64(t.Unix())
}

func timeXYs(s analytics.Series) (plotter.XYs, error) {
	if len(s.Dates) != len(s.Values) {
		return nil, apperrors.NewValueError(fmt.Sprintf("series %s: %d dates for %d values", s.Name, len(s.Dates), len(s.Values)), nil)
	}
	xys := make(plotter.XYs, len(s.Dates))
	for i, d := range s.Dates {
		xys[i] = plotter.XY{X: unixX(d), Y: finite(s.Values[i])}
	}
	return xys, nil
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func finiteAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = finite(v)
	}
	return out
}

func dropNonFinite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
