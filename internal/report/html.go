package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/laserplane/internal/sweep"
)

// HTMLOptions controls the interactive page.
type HTMLOptions struct {
	Experiment string
	// Subtitle is shown under every chart title, e.g. the run ID.
	Subtitle string
	// AssetsHost overrides where the echarts scripts are loaded from.
	AssetsHost string
}

// NewMetricChart builds an echarts line chart for one metric.
func NewMetricChart(metric sweep.MetricKind, series []sweep.ErrorSeries, o HTMLOptions) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: metric.Title(), Width: "100%", Height: "560px", AssetsHost: o.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: ChartTitle(metric, o.Experiment), Subtitle: o.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: XAxisLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: metric.AxisLabel(), NameLocation: "middle", NameGap: 50}),
	)

	colors := generateColors(len(series))
	for i, s := range series {
		xs, ys, _ := finite(s)
		data := make([]opts.LineData, len(xs))
		for j := range xs {
			data[j] = opts.LineData{Value: []interface{}{xs[j], ys[j]}}
		}
		line.AddSeries(s.Label(), data,
			charts.WithLineStyleOpts(opts.LineStyle{
				Color: hexColor(colors[i]),
				Width: 1.5,
				Type:  resolveLineStyle(s.Key.LineStyle).echarts,
			}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(colors[i])}),
		)
	}
	return line
}

// WriteHTML renders one chart per metric present in r, in metric order, as a
// single page.
func WriteHTML(w io.Writer, r sweep.Result, o HTMLOptions) error {
	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("Calibration Sensitivity (%s)", o.Experiment))
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}
	for _, m := range sweep.Metrics {
		if series, ok := r[m]; ok {
			page.AddCharts(NewMetricChart(m, series, o))
		}
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render sweep page: %w", err)
	}
	return nil
}
