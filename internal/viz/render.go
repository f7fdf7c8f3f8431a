package viz

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/san-kum/regsim/internal/sim"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

type RenderOptions struct {
	Title  string
	Width  vg.Length
	Height vg.Length
	DPI    int
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Width: 8 * vg.Inch, Height: 5 * vg.Inch, DPI: 150}
}

var (
	measurementColor = color.RGBA{R: 0, G: 140, B: 200, A: 255}
	targetColor      = color.RGBA{R: 210, G: 40, B: 40, A: 255}
)

func newLine(xs, ys []float64, c color.Color) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = c
	return line, nil
}

// RenderPNG draws measurement and target over time as a PNG image.
func RenderPNG(w io.Writer, ticks []sim.Tick, opts RenderOptions) error {
	if len(ticks) == 0 {
		return ErrNoData
	}
	s := NewSeries(ticks)

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "measurement"
	p.Add(plotter.NewGrid())

	measured, err := newLine(s.Time, s.Measurement, measurementColor)
	if err != nil {
		return fmt.Errorf("measurement line: %w", err)
	}
	target, err := newLine(s.Time, s.Target, targetColor)
	if err != nil {
		return fmt.Errorf("target line: %w", err)
	}
	target.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(measured, target)
	p.Legend.Add("measurement", measured)
	p.Legend.Add("target", target)
	p.Legend.Top = true

	c := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return bw.Flush()
}

func SavePNG(path string, ticks []sim.Tick, opts RenderOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := RenderPNG(f, ticks, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
