package analysis

import (
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot draws the mean curve with a ±1 std band and saves it to path. The
// image format follows the file extension.
func Plot(path string, c Curve) error {
	p := plot.New()
	p.Title.Text = "Neuroevolution performance on " + c.EnvID
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Best fitness"
	p.Add(plotter.NewGrid())

	mean := make(plotter.XYs, len(c.Points))
	band := make(plotter.XYs, 0, 2*len(c.Points))
	for i, pt := range c.Points {
		mean[i].X = float64(pt.Generation)
		mean[i].Y = pt.Mean
		band = append(band, plotter.XY{X: float64(pt.Generation), Y: pt.Mean + pt.Std})
	}
	for i := len(c.Points) - 1; i >= 0; i-- {
		pt := c.Points[i]
		band = append(band, plotter.XY{X: float64(pt.Generation), Y: pt.Mean - pt.Std})
	}

	if len(band) > 0 {
		poly, err := plotter.NewPolygon(band)
		if err != nil {
			return err
		}
		poly.Color = color.RGBA{R: 31, G: 119, B: 180, A: 77}
		poly.LineStyle.Width = 0
		p.Add(poly)
		p.Legend.Add("std dev", poly)
	}

	line, err := plotter.NewLine(mean)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(line)
	p.Legend.Add("mean", line)
	p.Legend.Top = true
	p.Legend.Left = true

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
