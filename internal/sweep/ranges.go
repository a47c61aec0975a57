package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxRangeValues caps generated ranges so a typo in a step cannot allocate
// millions of sweep combinations.
const maxRangeValues = 10000

// RangeSpec is a float "min:max:step" range, max inclusive.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// IntRangeSpec is an integer "min:max:step" range, max inclusive.
type IntRangeSpec struct {
	Min  int
	Max  int
	Step int
}

func splitRange(s string) ([3]string, error) {
	var out [3]string
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return out, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out, nil
}

// ParseRangeSpec parses "min:max:step" into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts, err := splitRange(s)
	if err != nil {
		return RangeSpec{}, err
	}
	var v [3]float64
	for i, name := range []string{"min", "max", "step"} {
		if v[i], err = strconv.ParseFloat(parts[i], 64); err != nil {
			return RangeSpec{}, fmt.Errorf("invalid %s value %q: %w", name, parts[i], err)
		}
	}
	if v[2] <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %g", v[2])
	}
	return RangeSpec{Min: v[0], Max: v[1], Step: v[2]}, nil
}

// ParseIntRangeSpec parses "min:max:step" into an IntRangeSpec.
func ParseIntRangeSpec(s string) (IntRangeSpec, error) {
	parts, err := splitRange(s)
	if err != nil {
		return IntRangeSpec{}, err
	}
	var v [3]int
	for i, name := range []string{"min", "max", "step"} {
		if v[i], err = strconv.Atoi(parts[i]); err != nil {
			return IntRangeSpec{}, fmt.Errorf("invalid %s value %q: %w", name, parts[i], err)
		}
	}
	if v[2] <= 0 {
		return IntRangeSpec{}, fmt.Errorf("step must be positive, got %d", v[2])
	}
	return IntRangeSpec{Min: v[0], Max: v[1], Step: v[2]}, nil
}

// GenerateRange expands min..max by step, rounded to 1e-6 to keep
// accumulated float error out of labels. Empty when min > max or the range
// is too large.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}
	count := int(math.Floor((max-min)/step+1e-9)) + 1
	if count > maxRangeValues || count < 0 {
		return nil
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = math.Round((min+float64(i)*step)*1e6) / 1e6
	}
	return out
}

// GenerateIntRange expands min..max by step. Empty when min > max or the
// range is too large.
func GenerateIntRange(min, max, step int) []int {
	if step <= 0 || min > max {
		return nil
	}
	count := (max-min)/step + 1
	if count > maxRangeValues || count < 0 {
		return nil
	}
	out := make([]int, count)
	for i := range out {
		out[i] = min + i*step
	}
	return out
}

// ParseParamList accepts either a "min:max:step" range or a comma-separated
// list of floats.
func ParseParamList(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		spec, err := ParseRangeSpec(s)
		if err != nil {
			return nil, err
		}
		return GenerateRange(spec.Min, spec.Max, spec.Step), nil
	}
	return ParseCSVFloat64s(s)
}

// ParseIntParamList accepts either a "min:max:step" range or a
// comma-separated list of ints.
func ParseIntParamList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		spec, err := ParseIntRangeSpec(s)
		if err != nil {
			return nil, err
		}
		return GenerateIntRange(spec.Min, spec.Max, spec.Step), nil
	}
	return ParseCSVInts(s)
}
