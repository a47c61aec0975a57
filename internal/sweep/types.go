package sweep

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/laserplane/internal/triangulation"
)

var (
	// ErrPointCountMismatch is returned when image points and ground-truth
	// world points disagree on N.
	ErrPointCountMismatch = errors.New("point count mismatch")

	// ErrInvalidWindow is returned for an empty or inverted [start, end) window.
	ErrInvalidWindow = errors.New("invalid point-count window")

	// ErrInvalidSeriesKey is returned by ParseSeriesKey.
	ErrInvalidSeriesKey = errors.New("invalid series key")
)

// SeriesKey labels one family of calibration runs, e.g. a calibration method
// drawn with a particular line style.
type SeriesKey struct {
	Name      string `json:"name"`
	LineStyle string `json:"linestyle"`
}

// ParseSeriesKey parses the "name/linestyle" form used in experiment logs.
func ParseSeriesKey(s string) (SeriesKey, error) {
	name, style, ok := strings.Cut(s, "/")
	if !ok || name == "" || strings.Contains(style, "/") {
		return SeriesKey{}, fmt.Errorf("%w: %q: expected name/linestyle", ErrInvalidSeriesKey, s)
	}
	return SeriesKey{Name: name, LineStyle: style}, nil
}

func (k SeriesKey) String() string {
	return k.Name + "/" + k.LineStyle
}

// PointCountSample is one calibration estimate tagged with the number of
// laser spots it was estimated from.
type PointCountSample struct {
	PointCount int                             `json:"point_count"`
	Sample     triangulation.CalibrationVector `json:"sample"`
}

// SamplesFromRaw converts a positional list of raw calibration vectors, where
// raw[i] was estimated from firstCount+i points, into typed samples.
func SamplesFromRaw(firstCount int, raw [][]float64) ([]PointCountSample, error) {
	out := make([]PointCountSample, 0, len(raw))
	for i, r := range raw {
		v, err := triangulation.NewCalibrationVector(r)
		if err != nil {
			return nil, fmt.Errorf("sample %d (%d points): %w", i, firstCount+i, err)
		}
		out = append(out, PointCountSample{PointCount: firstCount + i, Sample: v})
	}
	return out, nil
}

// NoiseLevel groups the samples produced with one injected noise level.
type NoiseLevel struct {
	Std     float64            `json:"std"`
	Samples []PointCountSample `json:"samples"`
}

// Series is every noise level evaluated for one series key.
type Series struct {
	Key    SeriesKey    `json:"key"`
	Levels []NoiseLevel `json:"levels"`
}

// sortedLevels returns the levels in ascending std, each with samples in
// ascending point count. The input is not modified.
func (s Series) sortedLevels() []NoiseLevel {
	levels := make([]NoiseLevel, len(s.Levels))
	for i, l := range s.Levels {
		samples := append([]PointCountSample(nil), l.Samples...)
		sort.SliceStable(samples, func(a, b int) bool {
			return samples[a].PointCount < samples[b].PointCount
		})
		levels[i] = NoiseLevel{Std: l.Std, Samples: samples}
	}
	sort.SliceStable(levels, func(a, b int) bool {
		return levels[a].Std < levels[b].Std
	})
	return levels
}

// MetricKind names an error metric produced by the evaluator.
type MetricKind string

const (
	MetricPositionPercentError    MetricKind = "position_percent_error"
	MetricDirectionPercentError   MetricKind = "direction_percent_error"
	MetricMeanReconstructionError MetricKind = "mean_reconstruction_error"
	MetricMeanZPercentError       MetricKind = "mean_z_percent_error"
)

// Metrics lists every metric in report order.
var Metrics = []MetricKind{
	MetricPositionPercentError,
	MetricDirectionPercentError,
	MetricMeanReconstructionError,
	MetricMeanZPercentError,
}

// Title is the human readable metric name used in chart titles and legends.
func (m MetricKind) Title() string {
	switch m {
	case MetricPositionPercentError:
		return "Position Percent Error"
	case MetricDirectionPercentError:
		return "Direction Percent Error"
	case MetricMeanReconstructionError:
		return "Mean Reconstruction Error"
	case MetricMeanZPercentError:
		return "Mean Z Percent Error"
	}
	return string(m)
}

// AxisLabel is the y-axis label for the metric.
func (m MetricKind) AxisLabel() string {
	switch m {
	case MetricMeanReconstructionError:
		return "Mean Reconstruction Error (m)"
	case MetricMeanZPercentError:
		return "Mean Z Percent Error (%)"
	}
	return "Percent Error (%)"
}

// ErrorSeries is one metric evaluated over increasing point counts for a
// single (series, std) pair. PointCounts and Values are parallel.
type ErrorSeries struct {
	Metric      MetricKind `json:"metric"`
	Key         SeriesKey  `json:"key"`
	Std         float64    `json:"std"`
	PointCounts []int      `json:"point_counts"`
	Values      []float64  `json:"values"`
}

// Label is the legend text for the series.
func (s ErrorSeries) Label() string {
	return fmt.Sprintf("Std %g %s (%s)", s.Std, s.Metric.Title(), s.Key.Name)
}

// Result maps each metric to its series, ordered by input series and then
// ascending std.
type Result map[MetricKind][]ErrorSeries
