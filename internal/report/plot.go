package report

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Figure size of the stacked chart.
const (
	panelWidth  = 12 * vg.Inch
	panelHeight = 12 * vg.Inch
)

var skyBlue = color.RGBA{R: 135, G: 206, B: 235, A: 255}

// Panel is one bar chart of the stacked figure.
type Panel struct {
	Title   string
	Entries []Entry
	Shots   int
}

func (p Panel) probabilities() plotter.Values {
	vals := make(plotter.Values, len(p.Entries))
	for i, e := range p.Entries {
		vals[i] = float64(e.Count) / float64(p.Shots)
	}
	return vals
}

// newBarPlot draws a panel's probabilities with value labels above each
// bar and a dashed horizontal grid.
func newBarPlot(p Panel) (*plot.Plot, error) {
	if p.Shots <= 0 {
		return nil, fmt.Errorf("%w: panel %q", ErrBadShots, p.Title)
	}
	pl := plot.New()
	pl.Title.Text = p.Title
	pl.X.Label.Text = "Bitstring"
	pl.Y.Label.Text = "Probability"
	pl.Y.Min = 0
	pl.Y.Max = 0.1

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	grid.Horizontal.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	grid.Horizontal.Color = color.Gray{Y: 180}
	pl.Add(grid)

	vals := p.probabilities()
	if len(vals) == 0 {
		return pl, nil
	}

	bars, err := plotter.NewBarChart(vals, vg.Points(48))
	if err != nil {
		return nil, fmt.Errorf("bar chart %q: %w", p.Title, err)
	}
	bars.Color = skyBlue
	bars.LineStyle.Width = 0
	pl.Add(bars)

	peak := 0.0
	labels := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(vals)),
		Labels: make([]string, len(vals)),
	}
	names := make([]string, len(vals))
	for i, v := range vals {
		peak = max(peak, v)
		labels.XYs[i] = plotter.XY{X: float64(i), Y: v + 0.005}
		labels.Labels[i] = fmt.Sprintf("%.3f", v)
		names[i] = p.Entries[i].Bitstring
	}
	lbl, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("labels %q: %w", p.Title, err)
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].XAlign = text.XCenter
	}
	pl.Add(lbl)

	pl.NominalX(names...)
	pl.Y.Max = peak + 0.05
	return pl, nil
}

// PlotTopK renders the panels stacked vertically into a PNG file.
func PlotTopK(path string, panels []Panel) error {
	if len(panels) == 0 {
		return fmt.Errorf("plot %s: no panels", path)
	}
	rows := make([][]*plot.Plot, len(panels))
	for i, p := range panels {
		pl, err := newBarPlot(p)
		if err != nil {
			return err
		}
		rows[i] = []*plot.Plot{pl}
	}

	img := vgimg.New(panelWidth, panelHeight*vg.Length(len(panels)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(panels),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      8 * vg.Millimeter,
		PadTop:    4 * vg.Millimeter,
		PadBottom: 4 * vg.Millimeter,
		PadLeft:   4 * vg.Millimeter,
		PadRight:  4 * vg.Millimeter,
	}
	canvases := plot.Align(rows, tiles, dc)
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write plot %s: %w", path, err)
	}
	return f.Close()
}
