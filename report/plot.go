package report

import (
	"image/color"
	"io"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// CVCurve plots cross-validated MSE against lambda, with the chosen lambda
// marked. Duplicate lambdas are plotted once.
func CVCurve(rows []CVRow) (*plot.Plot, error) {
	if len(rows) == 0 {
		return nil, errors.NewValueError("report.CVCurve", "empty cross-validation table")
	}
	sorted := append([]CVRow(nil), rows...)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Lambda < sorted[b].Lambda })

	xys := make(plotter.XYs, 0, len(sorted))
	var best plotter.XYs
	for i, r := range sorted {
		if i > 0 && r.Lambda == sorted[i-1].Lambda {
			continue
		}
		xys = append(xys, plotter.XY{X: r.Lambda, Y: r.MSE})
	}
	for _, r := range rows {
		if r.Best {
			best = append(best, plotter.XY{X: r.Lambda, Y: r.MSE})
			break
		}
	}

	p := plot.New()
	p.Title.Text = "Cross-validated MSE by penalty"
	p.X.Label.Text = "lambda"
	p.Y.Label.Text = "CV MSE"
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, errors.Wrap(err, "cv curve")
	}
	line.Color = color.RGBA{R: 20, G: 80, B: 200, A: 255}
	points.GlyphStyle.Color = line.Color
	points.GlyphStyle.Radius = vg.Points(2)
	p.Add(line, points)
	p.Legend.Add("cv mse", line, points)

	if len(best) > 0 {
		sel, err := plotter.NewScatter(best)
		if err != nil {
			return nil, errors.Wrap(err, "best lambda marker")
		}
		sel.GlyphStyle.Color = color.RGBA{R: 200, G: 30, B: 30, A: 255}
		sel.GlyphStyle.Radius = vg.Points(4)
		p.Add(sel)
		p.Legend.Add("selected", sel)
	}
	return p, nil
}

// WritePlot renders the CV curve of rows as PNG to w.
func WritePlot(w io.Writer, rows []CVRow) error {
	p, err := CVCurve(rows)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return errors.Wrap(err, "render cv curve")
	}
	_, err = wt.WriteTo(w)
	return err
}
