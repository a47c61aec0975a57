// Package sweep evaluates how laser reconstruction accuracy degrades as the
// laser calibration is estimated from fewer points under more noise. It also
// carries the flag parsing, statistics and CSV output used by sweep tools.
package sweep

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseCSVFloat64s parses a comma-separated list of floats. Empty input
// returns nil, nil.
func ParseCSVFloat64s(s string) ([]float64, error) {
	parts := splitCSV(s)
	if parts == nil {
		return nil, nil
	}
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseCSVInts parses a comma-separated list of ints. Empty input returns
// nil, nil.
func ParseCSVInts(s string) ([]int, error) {
	parts := splitCSV(s)
	if parts == nil {
		return nil, nil
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseSeriesKeys parses a comma-separated list of "name/linestyle" keys.
func ParseSeriesKeys(s string) ([]SeriesKey, error) {
	parts := splitCSV(s)
	out := make([]SeriesKey, 0, len(parts))
	for _, p := range parts {
		k, err := ParseSeriesKey(p)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// MeanStddev returns the mean and sample standard deviation of xs.
// Empty input gives (0, 0) and a single value has zero deviation.
func MeanStddev(xs []float64) (mean, stddev float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}
