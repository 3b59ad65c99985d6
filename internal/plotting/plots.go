// Package plotting renders the comparison charts for an analysis run: the
// three evapotranspiration estimates, the water balance series, and the
// standardized index at each scale.
package plotting

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/wxtools/droughtindex/internal/dataset"
	"github.com/wxtools/droughtindex/internal/pipeline"
)

var methodColors = map[string]color.RGBA{
	pipeline.MethodThornthwaite: {R: 0xd6, G: 0x28, B: 0x28, A: 0xff},
	pipeline.MethodHargreaves:   {R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	pipeline.MethodPenman:       {R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
}

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// RenderAll writes every chart for a run into dir and returns the file names
// rendered.
func RenderAll(result *pipeline.Result, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating plot directory: %w", err)
	}

	var names []string

	name := "et_comparison.png"
	if err := ETComparison(result.Table, filepath.Join(dir, name)); err != nil {
		return nil, err
	}
	names = append(names, name)

	name = "et_climatology.png"
	if err := ETClimatology(result.Table, filepath.Join(dir, name)); err != nil {
		return nil, err
	}
	names = append(names, name)

	name = "water_balance.png"
	if err := WaterBalance(result.Table, filepath.Join(dir, name)); err != nil {
		return nil, err
	}
	names = append(names, name)

	for _, scale := range result.Scales {
		for _, method := range pipeline.Methods {
			name = fmt.Sprintf("spei_%d_%s.png", scale, method)
			if err := SPEISeries(result.Table, method, scale, filepath.Join(dir, name)); err != nil {
				return nil, err
			}
			names = append(names, name)
		}
	}

	if len(result.Scales) > 1 {
		for _, method := range pipeline.Methods {
			name = fmt.Sprintf("spei_grid_%s.png", method)
			if err := SPEIGrid(result.Table, method, result.Scales, filepath.Join(dir, name)); err != nil {
				return nil, err
			}
			names = append(names, name)
		}
	}

	return names, nil
}

// ETComparison plots the three evapotranspiration series on one chart.
func ETComparison(table *dataset.Table, path string) error {
	p := plot.New()
	p.Title.Text = "Potential evapotranspiration, three estimates"
	p.Y.Label.Text = "ET (mm/month)"
	configureTimeAxis(p)

	idx := table.TimeIndex()
	for _, method := range pipeline.Methods {
		col, ok := table.Column(pipeline.ETColumn(method))
		if !ok {
			return fmt.Errorf("missing column %q", pipeline.ETColumn(method))
		}
		line, err := plotter.NewLine(timeXYs(idx, col))
		if err != nil {
			return fmt.Errorf("building %s line: %w", method, err)
		}
		line.Color = methodColors[method]
		p.Add(line)
		p.Legend.Add(method, line)
	}
	p.Legend.Top = true

	return save(p, path)
}

// WaterBalance plots precipitation minus evapotranspiration for each method.
func WaterBalance(table *dataset.Table, path string) error {
	p := plot.New()
	p.Title.Text = "Climatic water balance (P − ET)"
	p.Y.Label.Text = "Balance (mm/month)"
	configureTimeAxis(p)

	idx := table.TimeIndex()
	for _, method := range pipeline.Methods {
		col, ok := table.Column(pipeline.BalanceColumn(method))
		if !ok {
			return fmt.Errorf("missing column %q", pipeline.BalanceColumn(method))
		}
		line, err := plotter.NewLine(timeXYs(idx, col))
		if err != nil {
			return fmt.Errorf("building %s line: %w", method, err)
		}
		line.Color = methodColors[method]
		p.Add(line)
		p.Legend.Add(method, line)
	}
	p.Legend.Top = true
	addZeroLine(p, idx)

	return save(p, path)
}

// ETClimatology plots the long-term mean annual cycle of the three
// evapotranspiration estimates.
func ETClimatology(table *dataset.Table, path string) error {
	p := plot.New()
	p.Title.Text = "Mean annual cycle of potential evapotranspiration"
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "ET (mm/month)"
	p.X.Tick.Marker = monthTicks{}
	p.Add(plotter.NewGrid())

	months := table.Months()
	for _, method := range pipeline.Methods {
		col, ok := table.Column(pipeline.ETColumn(method))
		if !ok {
			return fmt.Errorf("missing column %q", pipeline.ETColumn(method))
		}

		var sums [13]float64
		var counts [13]int
		for i, v := range col {
			if math.IsNaN(v) {
				continue
			}
			sums[months[i]] += v
			counts[months[i]]++
		}
		pts := make(plotter.XYs, 0, 12)
		for m := 1; m <= 12; m++ {
			if counts[m] == 0 {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(m), Y: sums[m] / float64(counts[m])})
		}

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("building %s cycle: %w", method, err)
		}
		line.Color = methodColors[method]
		points.Color = methodColors[method]
		p.Add(line, points)
		p.Legend.Add(method, line, points)
	}
	p.Legend.Top = true

	return save(p, path)
}

// SPEISeries plots one standardized index series with wet and dry spells
// shaded around the zero line.
func SPEISeries(table *dataset.Table, method string, scale int, path string) error {
	p, err := speiPlot(table, method, scale)
	if err != nil {
		return err
	}
	return save(p, path)
}

// SPEIGrid stacks the index series for every scale into one chart per method.
func SPEIGrid(table *dataset.Table, method string, scales []int, path string) error {
	plots := make([][]*plot.Plot, len(scales))
	for i, scale := range scales {
		p, err := speiPlot(table, method, scale)
		if err != nil {
			return err
		}
		plots[i] = []*plot.Plot{p}
	}

	img := vgimg.New(plotWidth, plotHeight*vg.Length(len(scales)))
	dc := draw.New(img)
	canvases := plot.Align(plots, draw.Tiles{Rows: len(scales), Cols: 1}, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func speiPlot(table *dataset.Table, method string, scale int) (*plot.Plot, error) {
	colName := pipeline.SPEIColumn(method, scale)
	col, ok := table.Column(colName)
	if !ok {
		return nil, fmt.Errorf("missing column %q", colName)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("SPEI-%d (%s)", scale, method)
	p.Y.Label.Text = "SPEI"
	p.Y.Min, p.Y.Max = -3, 3
	configureTimeAxis(p)

	idx := table.TimeIndex()
	addShading(p, idx, col)

	line, err := plotter.NewLine(timeXYs(idx, col))
	if err != nil {
		return nil, fmt.Errorf("building index line: %w", err)
	}
	line.Color = methodColors[method]
	p.Add(line)
	addZeroLine(p, idx)

	return p, nil
}

// addShading fills wet spells (index > 0) blue and dry spells red.
func addShading(p *plot.Plot, idx []time.Time, values []float64) {
	wet := color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0x50}
	dry := color.RGBA{R: 0xd6, G: 0x28, B: 0x28, A: 0x50}

	for _, side := range []struct {
		positive bool
		fill     color.RGBA
	}{{true, wet}, {false, dry}} {
		pts := clippedArea(idx, values, side.positive)
		if len(pts) == 0 {
			continue
		}
		poly, err := plotter.NewPolygon(pts)
		if err != nil {
			continue
		}
		poly.Color = side.fill
		poly.LineStyle.Width = 0
		p.Add(poly)
	}
}

// clippedArea closes the series against the zero line, keeping only the
// requested sign, so the polygon fills the area between curve and baseline.
func clippedArea(idx []time.Time, values []float64, positive bool) plotter.XYs {
	first, last := -1, -1
	for i, v := range values {
		if !math.IsNaN(v) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil
	}

	pts := make(plotter.XYs, 0, last-first+3)
	pts = append(pts, plotter.XY{X: float64(idx[first].Unix()), Y: 0})
	for i := first; i <= last; i++ {
		v := values[i]
		if math.IsNaN(v) || (positive && v < 0) || (!positive && v > 0) {
			v = 0
		}
		pts = append(pts, plotter.XY{X: float64(idx[i].Unix()), Y: v})
	}
	pts = append(pts, plotter.XY{X: float64(idx[last].Unix()), Y: 0})
	return pts
}

// monthTicks labels a 1..12 axis with month abbreviations.
type monthTicks struct{}

func (monthTicks) Ticks(min, max float64) []plot.Tick {
	ticks := make([]plot.Tick, 0, 12)
	for m := 1; m <= 12; m++ {
		if float64(m) < min || float64(m) > max {
			continue
		}
		ticks = append(ticks, plot.Tick{
			Value: float64(m),
			Label: time.Month(m).String()[:3],
		})
	}
	return ticks
}

func configureTimeAxis(p *plot.Plot) {
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())
}

func addZeroLine(p *plot.Plot, idx []time.Time) {
	if len(idx) == 0 {
		return
	}
	zero, err := plotter.NewLine(plotter.XYs{
		{X: float64(idx[0].Unix()), Y: 0},
		{X: float64(idx[len(idx)-1].Unix()), Y: 0},
	})
	if err != nil {
		return
	}
	zero.Color = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
	zero.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	p.Add(zero)
}

// timeXYs converts a time-indexed column to plot points, dropping NaN rows so
// incomplete aggregation windows leave a gap at the series head instead of a
// spike.
func timeXYs(idx []time.Time, values []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(idx[i].Unix()), Y: v})
	}
	return pts
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
