package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/laserplane/internal/sweep"
)

// PlotOptions controls the static charts.
type PlotOptions struct {
	// Experiment is shown in parentheses in every title.
	Experiment string
	WidthIn    float64
	HeightIn   float64
}

func (o PlotOptions) size() (vg.Length, vg.Length) {
	w, h := o.WidthIn, o.HeightIn
	if w <= 0 {
		w = 10
	}
	if h <= 0 {
		h = 6
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

// NewMetricPlot builds the chart for one metric. Each series gets its own
// color and the dash pattern of its line style.
func NewMetricPlot(metric sweep.MetricKind, series []sweep.ErrorSeries, experiment string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = ChartTitle(metric, experiment)
	p.X.Label.Text = XAxisLabel
	p.Y.Label.Text = metric.AxisLabel()

	colors := generateColors(len(series))
	for i, s := range series {
		xs, ys, dropped := finite(s)
		if dropped > 0 {
			reportLog.Infof("%s: dropped %d non-finite values from %q", metric, dropped, s.Label())
		}
		if len(xs) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(xs))
		for j := range xs {
			pts[j] = plotter.XY{X: float64(xs[j]), Y: ys[j]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("%s line: %w", s.Label(), err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		line.Dashes = resolveLineStyle(s.Key.LineStyle).dashes
		p.Add(line)
		p.Legend.Add(s.Label(), line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePNGs saves one <metric>.png per metric present in r into dir and
// returns the written paths in metric order.
func WritePNGs(dir string, r sweep.Result, o PlotOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot dir: %w", err)
	}
	w, h := o.size()

	var files []string
	for _, m := range sweep.Metrics {
		series, ok := r[m]
		if !ok {
			continue
		}
		p, err := NewMetricPlot(m, series, o.Experiment)
		if err != nil {
			return files, err
		}
		file := filepath.Join(dir, string(m)+".png")
		if err := p.Save(w, h, file); err != nil {
			return files, fmt.Errorf("failed to save %s: %w", file, err)
		}
		files = append(files, file)
	}
	return files, nil
}
