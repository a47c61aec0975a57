package sweep

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/laserplane/internal/triangulation"
)

// PercentError returns |estimate − truth| / |truth| × 100 elementwise.
// A zero truth component yields NaN or +Inf for that element.
func PercentError(estimate, truth triangulation.CalibrationVector) triangulation.CalibrationVector {
	var out triangulation.CalibrationVector
	floats.SubTo(out[:], estimate[:], truth[:])
	floats.Div(out[:], truth[:])
	for i, v := range out {
		out[i] = math.Abs(v)
	}
	floats.Scale(100, out[:])
	return out
}

// ParameterPercentError splits the elementwise percent error into the mean
// over the three direction components and the mean over the two origin
// components.
func ParameterPercentError(estimate, truth triangulation.CalibrationVector) (direction, position float64) {
	pe := PercentError(estimate, truth)
	return stat.Mean(pe[:3], nil), stat.Mean(pe[3:], nil)
}

// MeanReconstructionError is the mean Euclidean distance between matching
// columns of two 3×N point sets.
func MeanReconstructionError(estimated, truth mat.Matrix) float64 {
	var diff mat.Dense
	diff.Sub(estimated, truth)
	_, n := diff.Dims()
	dist := make([]float64, n)
	for j := range dist {
		dist[j] = mat.Norm(diff.ColView(j), 2)
	}
	return stat.Mean(dist, nil)
}

// MeanZPercentError is the mean over points of |ΔZ| / Z × 100. Z is the
// signed ground-truth depth, so points behind the camera contribute negative
// terms and a zero depth yields ±Inf or NaN.
func MeanZPercentError(estimated, truth mat.Matrix) float64 {
	_, n := truth.Dims()
	pct := make([]float64, n)
	for j := range pct {
		z := truth.At(2, j)
		pct[j] = math.Abs(estimated.At(2, j)-z) / z * 100
	}
	return stat.Mean(pct, nil)
}
