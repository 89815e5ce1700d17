// Package chart draws a sweep result as a line chart with gonum/plot.
package chart

import (
	"fmt"
	"image/color"
	"log"
	"strconv"
	"strings"

	"github.com/signalnine/sweepbench/internal/result"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

type Options struct {
	// Output is the file to write; its extension picks the format.
	Output string
	Width  vg.Length
	Height vg.Length
}

var palette = []color.Color{
	color.RGBA{31, 119, 180, 255},
	color.RGBA{255, 127, 14, 255},
	color.RGBA{44, 160, 44, 255},
	color.RGBA{214, 39, 40, 255},
	color.RGBA{148, 103, 189, 255},
	color.RGBA{140, 86, 75, 255},
	color.RGBA{227, 119, 194, 255},
	color.RGBA{127, 127, 127, 255},
}

// Render draws one line per series and saves the chart to opts.Output.
func Render(res *result.SweepResult, opts Options) error {
	p, err := Build(res)
	if err != nil {
		return err
	}
	if opts.Width <= 0 {
		opts.Width = 8 * vg.Inch
	}
	if opts.Height <= 0 {
		opts.Height = 5 * vg.Inch
	}
	if err := p.Save(opts.Width, opts.Height, opts.Output); err != nil {
		return fmt.Errorf("saving chart %s: %w", opts.Output, err)
	}
	return nil
}

// Build lays out the plot without writing it anywhere.
func Build(res *result.SweepResult) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = res.Title
	p.X.Label.Text = res.XLabel
	p.Y.Label.Text = res.YLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	xs := NewXAxis(res.XLabels())
	if xs.Categorical() {
		p.X.Tick.Marker = plot.ConstantTicks(xs.Ticks())
		p.X.Min = -0.5
		p.X.Max = float64(len(xs.labels)) - 0.5
	}

	for i, s := range res.Series {
		pts := Points(s, xs)
		if len(pts) == 0 {
			continue
		}
		line, scatter, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", s.Name, err)
		}
		c := palette[i%len(palette)]
		line.Color = c
		line.Width = vg.Points(2)
		scatter.Color = c
		scatter.Shape = draw.CircleGlyph{}
		scatter.Radius = vg.Points(3)
		p.Add(line, scatter)
		p.Legend.Add(s.Name, line, scatter)
	}
	return p, nil
}

// XAxis maps X labels to plot coordinates. When every label is a number the
// axis is numeric; otherwise labels are placed at 0, 1, 2, ... in order.
type XAxis struct {
	labels  []string
	numeric bool
	index   map[string]int
}

func NewXAxis(labels []string) *XAxis {
	a := &XAxis{labels: labels, numeric: true, index: map[string]int{}}
	for i, l := range labels {
		a.index[l] = i
		if _, err := strconv.ParseFloat(strings.TrimSpace(l), 64); err != nil {
			a.numeric = false
		}
	}
	return a
}

func (a *XAxis) Categorical() bool { return !a.numeric }

func (a *XAxis) Value(label string) (float64, bool) {
	if a.numeric {
		v, err := strconv.ParseFloat(strings.TrimSpace(label), 64)
		return v, err == nil
	}
	i, ok := a.index[label]
	return float64(i), ok
}

func (a *XAxis) Ticks() []plot.Tick {
	ticks := make([]plot.Tick, len(a.labels))
	for i, l := range a.labels {
		ticks[i] = plot.Tick{Value: float64(i), Label: l}
	}
	return ticks
}

// Points converts a series to plot coordinates, dropping points whose Y is
// not a number.
func Points(s result.Series, xs *XAxis) plotter.XYs {
	var pts plotter.XYs
	for _, pt := range s.Points {
		x, ok := xs.Value(pt.X)
		if !ok {
			continue
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(pt.Y), 64)
		if err != nil {
			log.Printf("warning: %s at %s: value %q is not a number, not drawn", s.Name, pt.X, pt.Y)
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	return pts
}
