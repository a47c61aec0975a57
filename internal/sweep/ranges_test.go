package sweep

import (
	"reflect"
	"testing"
)

func TestParseRangeSpec(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  RangeSpec
		expectErr bool
	}{
		{"valid_range", "0.005:0.02:0.005", RangeSpec{Min: 0.005, Max: 0.02, Step: 0.005}, false},
		{"with_spaces", " 1 : 5 : 0.5 ", RangeSpec{Min: 1, Max: 5, Step: 0.5}, false},
		{"missing_parts", "1:5", RangeSpec{}, true},
		{"too_many_parts", "1:5:1:1", RangeSpec{}, true},
		{"invalid_min", "abc:5:1", RangeSpec{}, true},
		{"invalid_step", "1:5:abc", RangeSpec{}, true},
		{"zero_step", "1:5:0", RangeSpec{}, true},
		{"negative_step", "1:5:-1", RangeSpec{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseRangeSpec(tc.input)
			if tc.expectErr {
				if err == nil {
					t.Errorf("Expected error for input %q, got nil", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result != tc.expected {
				t.Errorf("Expected %+v, got %+v", tc.expected, result)
			}
		})
	}
}

func TestParseIntRangeSpec(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expected  IntRangeSpec
		expectErr bool
	}{
		{"valid_range", "2:50:1", IntRangeSpec{Min: 2, Max: 50, Step: 1}, false},
		{"with_spaces", " 2 : 10 : 2 ", IntRangeSpec{Min: 2, Max: 10, Step: 2}, false},
		{"float_value", "1.5:10:2", IntRangeSpec{}, true},
		{"invalid_max", "1:abc:2", IntRangeSpec{}, true},
		{"zero_step", "1:10:0", IntRangeSpec{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseIntRangeSpec(tc.input)
			if tc.expectErr {
				if err == nil {
					t.Errorf("Expected error for input %q, got nil", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result != tc.expected {
				t.Errorf("Expected %+v, got %+v", tc.expected, result)
			}
		})
	}
}

func TestGenerateRange(t *testing.T) {
	testCases := []struct {
		name     string
		min, max float64
		step     float64
		expected []float64
	}{
		{"noise_levels", 0.005, 0.02, 0.005, []float64{0.005, 0.01, 0.015, 0.02}},
		{"tenths", 0, 0.3, 0.1, []float64{0, 0.1, 0.2, 0.3}},
		{"single", 1, 1, 0.5, []float64{1}},
		{"reversed", 2, 1, 0.5, nil},
		{"zero_step", 0, 1, 0, nil},
		{"too_many", 0, 1e6, 1e-3, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := GenerateRange(tc.min, tc.max, tc.step)
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestGenerateIntRange(t *testing.T) {
	testCases := []struct {
		name           string
		min, max, step int
		expected       []int
	}{
		{"counts", 2, 6, 1, []int{2, 3, 4, 5, 6}},
		{"stride", 2, 10, 4, []int{2, 6, 10}},
		{"reversed", 5, 2, 1, nil},
		{"too_many", 0, 1000000, 1, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := GenerateIntRange(tc.min, tc.max, tc.step)
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestParseParamLists(t *testing.T) {
	floats, err := ParseParamList("0.01, 0.02")
	if err != nil || !reflect.DeepEqual(floats, []float64{0.01, 0.02}) {
		t.Errorf("ParseParamList list: got %v, %v", floats, err)
	}
	floats, err = ParseParamList("0.01:0.03:0.01")
	if err != nil || !reflect.DeepEqual(floats, []float64{0.01, 0.02, 0.03}) {
		t.Errorf("ParseParamList range: got %v, %v", floats, err)
	}
	if _, err := ParseParamList("0.01:x:0.01"); err == nil {
		t.Error("expected error for bad range")
	}

	ints, err := ParseIntParamList("2:5:1")
	if err != nil || !reflect.DeepEqual(ints, []int{2, 3, 4, 5}) {
		t.Errorf("ParseIntParamList range: got %v, %v", ints, err)
	}
	ints, err = ParseIntParamList("2,5,10,50")
	if err != nil || !reflect.DeepEqual(ints, []int{2, 5, 10, 50}) {
		t.Errorf("ParseIntParamList list: got %v, %v", ints, err)
	}
	if ints, err := ParseIntParamList(""); ints != nil || err != nil {
		t.Errorf("empty input: got %v, %v", ints, err)
	}
}
