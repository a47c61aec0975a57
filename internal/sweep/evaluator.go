package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/laserplane/internal/monitoring"
	"github.com/banshee-data/laserplane/internal/triangulation"
)

// ErrResultMismatch is returned by MeanResult when trials disagree on layout.
var ErrResultMismatch = errors.New("sweep results do not line up")

var sweepLog = monitoring.Prefixed("sweep")

// EvaluatorConfig holds the fixed inputs of one sensitivity sweep.
type EvaluatorConfig struct {
	// InvertedIntrinsics is the 3×3 inverse camera matrix.
	InvertedIntrinsics mat.Matrix
	// ImagePoints are the 3×N homogeneous observations of the laser.
	ImagePoints mat.Matrix
	// Truth is the ground-truth laser.
	Truth triangulation.LaserPlane
	// TruthWorld is the 3×N ground-truth world point set. When nil it is
	// reconstructed from Truth.
	TruthWorld mat.Matrix

	// StepCount sets the default window [2, StepCount) when Window is nil.
	StepCount int
	Window    *Window

	// DegeneracyTolerance defaults to triangulation.DefaultDegeneracyTolerance.
	DegeneracyTolerance float64
	// Workers bounds concurrent (series, std) evaluations. Defaults to GOMAXPROCS.
	Workers int
}

// Evaluator re-triangulates a fixed image point set under many calibration
// estimates and reports how far each drifts from the truth.
type Evaluator struct {
	truth    triangulation.CalibrationVector
	rays     *mat.Dense
	world    *mat.Dense
	window   Window
	tol      float64
	workers  int
	numPoint int
}

// NewEvaluator validates cfg and precomputes the camera rays and the
// ground-truth world points shared by every combination.
func NewEvaluator(cfg EvaluatorConfig) (*Evaluator, error) {
	window := DefaultWindow(cfg.StepCount)
	if cfg.Window != nil {
		window = *cfg.Window
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	rays, err := triangulation.BackProject(cfg.ImagePoints, cfg.InvertedIntrinsics)
	if err != nil {
		return nil, fmt.Errorf("back-projecting image points: %w", err)
	}
	_, n := rays.Dims()

	var world *mat.Dense
	if cfg.TruthWorld == nil {
		world, _, err = triangulation.IntersectPlane(rays, cfg.Truth.Origin, cfg.Truth.Axis)
		if err != nil {
			return nil, fmt.Errorf("reconstructing ground truth: %w", err)
		}
	} else {
		r, c := cfg.TruthWorld.Dims()
		if r != 3 {
			return nil, fmt.Errorf("%w: ground-truth world points have %d rows, want 3", triangulation.ErrShapeMismatch, r)
		}
		if c != n {
			return nil, fmt.Errorf("%w: %d image points vs %d ground-truth world points", ErrPointCountMismatch, n, c)
		}
		world = mat.DenseCopyOf(cfg.TruthWorld)
	}

	tol := cfg.DegeneracyTolerance
	if tol <= 0 {
		tol = triangulation.DefaultDegeneracyTolerance
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Evaluator{
		truth:    cfg.Truth.Vector(),
		rays:     rays,
		world:    world,
		window:   window,
		tol:      tol,
		workers:  workers,
		numPoint: n,
	}, nil
}

// Window returns the point-count window the evaluator reports.
func (e *Evaluator) Window() Window { return e.window }

// levelResult is the per-metric output of one (series, std) combination, in
// Metrics order.
type levelResult [4]ErrorSeries

// Evaluate computes every metric for every (series, std) combination. Within a
// metric the output keeps the order of series and, inside each series,
// ascending std. Combinations run concurrently; ctx is checked before each.
func (e *Evaluator) Evaluate(ctx context.Context, series []Series) (Result, error) {
	type job struct {
		key   SeriesKey
		level NoiseLevel
	}
	var jobs []job
	for _, s := range series {
		for _, l := range s.sortedLevels() {
			jobs = append(jobs, job{key: s.Key, level: l})
		}
	}

	slots := make([]levelResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sweepLog.Debugf("combo %d of %d: %s std=%g (%d samples)", i+1, len(jobs), j.key, j.level.Std, len(j.level.Samples))
			res, err := e.evaluateLevel(j.key, j.level)
			if err != nil {
				return fmt.Errorf("%s std=%g: %w", j.key, j.level.Std, err)
			}
			slots[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(Result, len(Metrics))
	for _, res := range slots {
		for m, s := range res {
			out[Metrics[m]] = append(out[Metrics[m]], s)
		}
	}
	return out, nil
}

func (e *Evaluator) evaluateLevel(key SeriesKey, level NoiseLevel) (levelResult, error) {
	var res levelResult
	for m := range res {
		res[m] = ErrorSeries{Metric: Metrics[m], Key: key, Std: level.Std}
	}

	for _, s := range level.Samples {
		if !e.window.Contains(s.PointCount) {
			continue
		}
		plane := s.Sample.Plane()
		noisy, denom, err := triangulation.IntersectPlane(e.rays, plane.Origin, plane.Axis)
		if err != nil {
			return res, err
		}
		if bad := triangulation.DegenerateIndices(denom, e.tol); len(bad) > 0 {
			sweepLog.Infof("%s std=%g n=%d: %d of %d rays degenerate", key, level.Std, s.PointCount, len(bad), e.numPoint)
		}

		direction, position := ParameterPercentError(s.Sample, e.truth)
		values := [4]float64{
			position,
			direction,
			MeanReconstructionError(noisy, e.world),
			MeanZPercentError(noisy, e.world),
		}
		for m := range res {
			res[m].PointCounts = append(res[m].PointCounts, s.PointCount)
			res[m].Values = append(res[m].Values, values[m])
		}
	}
	return res, nil
}

// MeanResult averages repeated trials of the same sweep pointwise. Every trial
// must have the same metrics, series and point counts in the same order.
func MeanResult(trials []Result) (Result, error) {
	if len(trials) == 0 {
		return Result{}, nil
	}
	first := trials[0]
	for ti, trial := range trials[1:] {
		if err := sameLayout(first, trial); err != nil {
			return nil, fmt.Errorf("%w: trial %d: %v", ErrResultMismatch, ti+1, err)
		}
	}

	out := make(Result, len(first))
	buf := make([]float64, len(trials))
	for metric, series := range first {
		merged := make([]ErrorSeries, len(series))
		for si, s := range series {
			values := make([]float64, len(s.Values))
			for vi := range values {
				for ti, trial := range trials {
					buf[ti] = trial[metric][si].Values[vi]
				}
				values[vi] = stat.Mean(buf, nil)
			}
			merged[si] = ErrorSeries{
				Metric:      s.Metric,
				Key:         s.Key,
				Std:         s.Std,
				PointCounts: slices.Clone(s.PointCounts),
				Values:      values,
			}
		}
		out[metric] = merged
	}
	return out, nil
}

func sameLayout(want, got Result) error {
	if len(got) != len(want) {
		return fmt.Errorf("%d metrics, want %d", len(got), len(want))
	}
	for metric, series := range want {
		other, ok := got[metric]
		if !ok {
			return fmt.Errorf("missing metric %s", metric)
		}
		if len(other) != len(series) {
			return fmt.Errorf("%s: %d series, want %d", metric, len(other), len(series))
		}
		for si, s := range series {
			o := other[si]
			switch {
			case o.Key != s.Key || o.Std != s.Std:
				return fmt.Errorf("%s series %d: %s std=%g, want %s std=%g", metric, si, o.Key, o.Std, s.Key, s.Std)
			case !slices.Equal(o.PointCounts, s.PointCounts):
				return fmt.Errorf("%s series %d: point counts %v, want %v", metric, si, o.PointCounts, s.PointCounts)
			case len(o.Values) != len(s.Values):
				return fmt.Errorf("%s series %d: %d values, want %d", metric, si, len(o.Values), len(s.Values))
			}
		}
	}
	return nil
}
