package sweep

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/laserplane/internal/monitoring"
	"github.com/banshee-data/laserplane/internal/synthetic"
	"github.com/banshee-data/laserplane/internal/triangulation"
)

var truthPlane = triangulation.LaserPlane{
	Axis:   r3.Vector{X: -0.04, Y: -0.015, Z: 1},
	Origin: r3.Vector{X: 0.25, Y: 0.1},
}

func newTestScene(t *testing.T) *synthetic.Scene {
	t.Helper()
	cam, err := triangulation.NewCameraModelFromIntrinsics(800, 800, 320, 240)
	require.NoError(t, err)
	scene, err := synthetic.NewScene(cam, truthPlane, 20, 0.5, 3)
	require.NoError(t, err)
	return scene
}

func newTestEvaluator(t *testing.T, window *Window) *Evaluator {
	t.Helper()
	scene := newTestScene(t)
	e, err := NewEvaluator(EvaluatorConfig{
		InvertedIntrinsics: scene.Camera.InvertedIntrinsics(),
		ImagePoints:        scene.Image,
		Truth:              truthPlane,
		StepCount:          10,
		Window:             window,
		Workers:            4,
	})
	require.NoError(t, err)
	return e
}

// perturbed returns the truth vector with every component scaled by (1+eps).
func perturbed(eps float64) triangulation.CalibrationVector {
	v := truthPlane.Vector()
	for i := range v {
		v[i] *= 1 + eps
	}
	return v
}

func samplesFor(counts []int, eps float64) []PointCountSample {
	out := make([]PointCountSample, len(counts))
	for i, n := range counts {
		out[i] = PointCountSample{PointCount: n, Sample: perturbed(eps)}
	}
	return out
}

func TestEvaluate_ExactSamplesHaveZeroError(t *testing.T) {
	t.Parallel()
	e := newTestEvaluator(t, nil)

	res, err := e.Evaluate(context.Background(), []Series{{
		Key:    SeriesKey{Name: "exact", LineStyle: "solid"},
		Levels: []NoiseLevel{{Std: 0, Samples: samplesFor([]int{2, 3, 4, 5}, 0)}},
	}})
	require.NoError(t, err)

	for _, m := range Metrics {
		require.Len(t, res[m], 1, m)
		assert.Equal(t, []int{2, 3, 4, 5}, res[m][0].PointCounts)
		for _, v := range res[m][0].Values {
			assert.InDelta(t, 0.0, v, 1e-12, m)
		}
	}
}

func TestEvaluate_PercentErrorOfScaledSample(t *testing.T) {
	t.Parallel()
	e := newTestEvaluator(t, nil)

	res, err := e.Evaluate(context.Background(), []Series{{
		Key:    SeriesKey{Name: "scaled", LineStyle: "dashed"},
		Levels: []NoiseLevel{{Std: 0.01, Samples: samplesFor([]int{2}, 0.02)}},
	}})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, res[MetricPositionPercentError][0].Values[0], 1e-9)
	assert.InDelta(t, 2.0, res[MetricDirectionPercentError][0].Values[0], 1e-9)
	// a scaled axis is the same direction, so only the origin shift moves points
	assert.Greater(t, res[MetricMeanReconstructionError][0].Values[0], 0.0)
	assert.Greater(t, res[MetricMeanZPercentError][0].Values[0], 0.0)
}

func TestEvaluate_OrderingBySeriesThenStd(t *testing.T) {
	t.Parallel()
	e := newTestEvaluator(t, nil)

	series := []Series{
		{
			Key: SeriesKey{Name: "ransac", LineStyle: "dashed"},
			Levels: []NoiseLevel{
				{Std: 0.02, Samples: samplesFor([]int{2, 3}, 0.02)},
				{Std: 0.005, Samples: samplesFor([]int{2, 3}, 0.005)},
				{Std: 0.01, Samples: samplesFor([]int{2, 3}, 0.01)},
			},
		},
		{
			Key: SeriesKey{Name: "lstsq", LineStyle: "solid"},
			Levels: []NoiseLevel{
				{Std: 0.01, Samples: samplesFor([]int{2, 3}, 0.01)},
				{Std: 0.001, Samples: samplesFor([]int{2, 3}, 0.001)},
			},
		},
	}
	res, err := e.Evaluate(context.Background(), series)
	require.NoError(t, err)

	type label struct {
		Name string
		Std  float64
	}
	want := []label{
		{"ransac", 0.005}, {"ransac", 0.01}, {"ransac", 0.02},
		{"lstsq", 0.001}, {"lstsq", 0.01},
	}
	for _, m := range Metrics {
		var got []label
		for _, s := range res[m] {
			assert.Equal(t, m, s.Metric)
			got = append(got, label{s.Key.Name, s.Std})
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s ordering mismatch (-want +got):\n%s", m, diff)
		}
	}

	// input is left untouched
	assert.Equal(t, 0.02, series[0].Levels[0].Std)
}

func TestEvaluate_SortsSamplesAndAppliesWindow(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name   string
		window *Window
		want   []int
	}{
		{"default_window", nil, []int{2, 3, 4, 5, 6, 7, 8, 9}},
		{"explicit_window", &Window{Start: 3, End: 6}, []int{3, 4, 5}},
		{"window_past_data", &Window{Start: 8, End: 100}, []int{8, 9, 10, 11}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEvaluator(t, tc.window)
			if tc.window != nil {
				assert.Equal(t, *tc.window, e.Window())
			} else {
				assert.Equal(t, DefaultWindow(10), e.Window())
			}
			samples := samplesFor([]int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}, 0.01)

			res, err := e.Evaluate(context.Background(), []Series{{
				Key:    SeriesKey{Name: "a", LineStyle: "solid"},
				Levels: []NoiseLevel{{Std: 0.01, Samples: samples}},
			}})
			require.NoError(t, err)
			for _, m := range Metrics {
				assert.Equal(t, tc.want, res[m][0].PointCounts)
				assert.Len(t, res[m][0].Values, len(tc.want))
			}
		})
	}
}

func TestEvaluate_WorkerCountDoesNotChangeResult(t *testing.T) {
	t.Parallel()
	scene := newTestScene(t)
	var series []Series
	for _, name := range []string{"a", "b", "c"} {
		s := Series{Key: SeriesKey{Name: name, LineStyle: "dotted"}}
		for i, std := range []float64{0.03, 0.01, 0.02} {
			s.Levels = append(s.Levels, NoiseLevel{Std: std, Samples: samplesFor([]int{2, 3, 4}, std*float64(i+1))})
		}
		series = append(series, s)
	}

	var results []Result
	for _, workers := range []int{1, 8} {
		e, err := NewEvaluator(EvaluatorConfig{
			InvertedIntrinsics: scene.Camera.InvertedIntrinsics(),
			ImagePoints:        scene.Image,
			Truth:              truthPlane,
			TruthWorld:         scene.World,
			StepCount:          5,
			Workers:            workers,
		})
		require.NoError(t, err)
		res, err := e.Evaluate(context.Background(), series)
		require.NoError(t, err)
		results = append(results, res)
	}
	if diff := cmp.Diff(results[0], results[1]); diff != "" {
		t.Errorf("results depend on worker count (-1 +8):\n%s", diff)
	}
}

func TestEvaluate_ZeroTruthComponentPropagates(t *testing.T) {
	t.Parallel()
	scene := newTestScene(t)
	flat := triangulation.LaserPlane{Axis: r3.Vector{X: 0, Y: -0.015, Z: 1}, Origin: truthPlane.Origin}
	e, err := NewEvaluator(EvaluatorConfig{
		InvertedIntrinsics: scene.Camera.InvertedIntrinsics(),
		ImagePoints:        scene.Image,
		Truth:              flat,
		StepCount:          3,
	})
	require.NoError(t, err)

	offAxis := flat.Vector()
	offAxis[0] = 0.01
	same := flat.Vector()

	res, err := e.Evaluate(context.Background(), []Series{{
		Key: SeriesKey{Name: "flat", LineStyle: "solid"},
		Levels: []NoiseLevel{
			{Std: 1, Samples: []PointCountSample{{PointCount: 2, Sample: offAxis}}},
			{Std: 2, Samples: []PointCountSample{{PointCount: 2, Sample: same}}},
		},
	}})
	require.NoError(t, err)

	dir := res[MetricDirectionPercentError]
	assert.True(t, math.IsInf(dir[0].Values[0], 1), "got %v", dir[0].Values[0])
	assert.True(t, math.IsNaN(dir[1].Values[0]), "got %v", dir[1].Values[0])
}

func TestEvaluate_LogsDegenerateRays(t *testing.T) {
	var lines []string
	prev := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, format)
	})
	t.Cleanup(func() { monitoring.SetLogger(prev) })

	// every ray through the principal point runs straight down the laser
	inv := mat.NewDiagDense(3, []float64{1, 1, 1})
	img := mat.NewDense(3, 1, []float64{0, 0, 1})
	plane := triangulation.LaserPlane{Axis: r3.Vector{X: 0.1, Y: 0.1, Z: 1}, Origin: r3.Vector{X: 0.1, Y: 0.1}}
	e, err := NewEvaluator(EvaluatorConfig{
		InvertedIntrinsics: inv,
		ImagePoints:        img,
		Truth:              plane,
		TruthWorld:         mat.NewDense(3, 1, []float64{0, 0, 1}),
		StepCount:          3,
		Workers:            1,
	})
	require.NoError(t, err)

	degenerate := triangulation.LaserPlane{Axis: r3.Vector{Z: 1}}.Vector()
	_, err = e.Evaluate(context.Background(), []Series{{
		Key:    SeriesKey{Name: "d", LineStyle: "solid"},
		Levels: []NoiseLevel{{Std: 1, Samples: []PointCountSample{{PointCount: 2, Sample: degenerate}}}},
	}})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "degenerate")
}

func TestEvaluate_CancelledContext(t *testing.T) {
	t.Parallel()
	e := newTestEvaluator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Evaluate(ctx, []Series{{
		Key:    SeriesKey{Name: "a", LineStyle: "solid"},
		Levels: []NoiseLevel{{Std: 1, Samples: samplesFor([]int{2}, 0.1)}},
	}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEvaluator_Errors(t *testing.T) {
	t.Parallel()
	scene := newTestScene(t)
	inv := scene.Camera.InvertedIntrinsics()

	testCases := []struct {
		name string
		cfg  EvaluatorConfig
		want error
	}{
		{
			name: "empty_default_window",
			cfg:  EvaluatorConfig{InvertedIntrinsics: inv, ImagePoints: scene.Image, Truth: truthPlane, StepCount: 2},
			want: ErrInvalidWindow,
		},
		{
			name: "inverted_window",
			cfg:  EvaluatorConfig{InvertedIntrinsics: inv, ImagePoints: scene.Image, Truth: truthPlane, Window: &Window{Start: 5, End: 3}},
			want: ErrInvalidWindow,
		},
		{
			name: "point_count_mismatch",
			cfg: EvaluatorConfig{
				InvertedIntrinsics: inv, ImagePoints: scene.Image, Truth: truthPlane, StepCount: 10,
				TruthWorld: mat.NewDense(3, 2, nil),
			},
			want: ErrPointCountMismatch,
		},
		{
			name: "truth_world_not_3_rows",
			cfg: EvaluatorConfig{
				InvertedIntrinsics: inv, ImagePoints: scene.Image, Truth: truthPlane, StepCount: 10,
				TruthWorld: mat.NewDense(2, 20, nil),
			},
			want: triangulation.ErrShapeMismatch,
		},
		{
			name: "image_points_not_3_rows",
			cfg: EvaluatorConfig{
				InvertedIntrinsics: inv, ImagePoints: mat.NewDense(2, 4, nil), Truth: truthPlane, StepCount: 10,
			},
			want: triangulation.ErrShapeMismatch,
		},
		{
			name: "missing_intrinsics",
			cfg:  EvaluatorConfig{ImagePoints: scene.Image, Truth: truthPlane, StepCount: 10},
			want: triangulation.ErrShapeMismatch,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEvaluator(tc.cfg)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestMeanResult(t *testing.T) {
	t.Parallel()
	key := SeriesKey{Name: "a", LineStyle: "solid"}
	trial := func(v ...float64) Result {
		return Result{MetricMeanReconstructionError: {{
			Metric: MetricMeanReconstructionError, Key: key, Std: 0.1,
			PointCounts: []int{2, 3}, Values: v,
		}}}
	}

	got, err := MeanResult([]Result{trial(1, 2), trial(3, 6)})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, got[MetricMeanReconstructionError][0].Values)
	assert.Equal(t, []int{2, 3}, got[MetricMeanReconstructionError][0].PointCounts)

	_, err = MeanResult([]Result{trial(1, 2), trial(3)})
	assert.ErrorIs(t, err, ErrResultMismatch)

	empty, err := MeanResult(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMeanResult_RejectsMismatchedLayouts(t *testing.T) {
	t.Parallel()
	a := SeriesKey{Name: "a", LineStyle: "solid"}
	b := SeriesKey{Name: "b", LineStyle: "dashed"}
	one := func(key SeriesKey, counts []int, v ...float64) ErrorSeries {
		return ErrorSeries{Metric: MetricMeanReconstructionError, Key: key, Std: 0.1, PointCounts: counts, Values: v}
	}
	base := Result{MetricMeanReconstructionError: {one(a, []int{2}, 1)}}

	testCases := []struct {
		name  string
		other Result
	}{
		{"point_counts_differ", Result{MetricMeanReconstructionError: {one(a, []int{7}, 3)}}},
		{"extra_series", Result{MetricMeanReconstructionError: {one(a, []int{2}, 3), one(b, []int{2}, 3)}}},
		{"extra_metric", Result{
			MetricMeanReconstructionError: {one(a, []int{2}, 3)},
			MetricMeanZPercentError:       {one(a, []int{2}, 3)},
		}},
		{"missing_metric", Result{MetricMeanZPercentError: {one(a, []int{2}, 3)}}},
		{"empty_series_key_differs", Result{MetricMeanReconstructionError: {one(SeriesKey{Name: "zzz", LineStyle: "solid"}, nil)}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MeanResult([]Result{base, tc.other})
			assert.ErrorIs(t, err, ErrResultMismatch)
			// the first trial sets the layout either way round
			_, err = MeanResult([]Result{tc.other, base})
			assert.ErrorIs(t, err, ErrResultMismatch)
		})
	}

	emptyA := Result{MetricMeanReconstructionError: {one(a, nil)}}
	emptyZ := Result{MetricMeanReconstructionError: {one(SeriesKey{Name: "zzz", LineStyle: "solid"}, nil)}}
	_, err := MeanResult([]Result{emptyA, emptyZ})
	assert.ErrorIs(t, err, ErrResultMismatch)
}
