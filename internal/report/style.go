// Package report renders sweep results as static PNG charts and an
// interactive HTML page.
package report

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/laserplane/internal/monitoring"
	"github.com/banshee-data/laserplane/internal/sweep"
)

var reportLog = monitoring.Prefixed("report")

// XAxisLabel is shared by every chart.
const XAxisLabel = "Number of Points Used for Calibration"

// ChartTitle returns the title used for a metric chart, e.g.
// "Mean Reconstruction Error vs Number of Points Used for Calibration (synthetic)".
func ChartTitle(metric sweep.MetricKind, experiment string) string {
	return fmt.Sprintf("%s vs %s (%s)", metric.Title(), XAxisLabel, experiment)
}

// lineStyle is a series line style resolved for both renderers.
type lineStyle struct {
	echarts string
	dashes  []vg.Length
}

// resolveLineStyle accepts the names and the short forms of the usual
// line styles. Unknown styles draw solid.
func resolveLineStyle(name string) lineStyle {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dashed", "--":
		return lineStyle{echarts: "dashed", dashes: []vg.Length{vg.Points(6), vg.Points(3)}}
	case "dotted", ":":
		return lineStyle{echarts: "dotted", dashes: []vg.Length{vg.Points(1), vg.Points(2)}}
	case "dashdot", "-.":
		// echarts has no dash-dot line type
		return lineStyle{echarts: "dashed", dashes: []vg.Length{vg.Points(6), vg.Points(2), vg.Points(1), vg.Points(2)}}
	}
	return lineStyle{echarts: "solid"}
}

// finite drops non-finite points, which neither renderer can draw, and
// reports how many were dropped.
func finite(s sweep.ErrorSeries) (xs []int, ys []float64, dropped int) {
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			dropped++
			continue
		}
		xs = append(xs, s.PointCounts[i])
		ys = append(ys, v)
	}
	return xs, ys, dropped
}

// generateColors creates a palette of n distinct colors.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := range colors {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// hslToRGB converts HSL in [0,1] to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	rf, gf, bf := l, l, l
	if s != 0 {
		q := l + s - l*s
		if l < 0.5 {
			q = l * (1 + s)
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
