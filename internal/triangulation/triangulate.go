package triangulation

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// DefaultDegeneracyTolerance is the |denom| below which a reconstructed point
// is treated as unreliable.
const DefaultDegeneracyTolerance = 1e-9

// BackProject turns 3×N homogeneous image points into 3×N unit camera rays.
//
// Each column of K⁻¹·p is normalized and negated so the rays follow the sign
// convention of the laser axis. A zero-norm column (an image point that maps
// to the origin) divides by zero and yields NaN components.
func BackProject(imagePoints, invertedIntrinsics mat.Matrix) (*mat.Dense, error) {
	if err := checkDims("inverted intrinsics", invertedIntrinsics, 3, 3); err != nil {
		return nil, err
	}
	if err := checkRows("image points", imagePoints, 3); err != nil {
		return nil, err
	}

	var projected mat.Dense
	projected.Mul(invertedIntrinsics, imagePoints)

	_, n := projected.Dims()
	rays := mat.NewDense(3, n, nil)
	for j := 0; j < n; j++ {
		col := projected.ColView(j)
		norm := mat.Norm(col, 2)
		for i := 0; i < 3; i++ {
			rays.Set(i, j, -col.AtVec(i)/norm)
		}
	}
	return rays, nil
}

// IntersectPlane reconstructs the world point on every ray and returns it
// with the ray's degeneracy denominator.
//
// With â the normalized axis, o the origin and r a unit ray:
//
//	t     = (r·o − (â·o)(â·r)) / (1 − (â·r)²)
//	point = t·r
//	denom = 1 − (â·r)²
//
// denom is 1 for rays orthogonal to the axis and 0 for rays parallel to it.
// Nothing is clamped: callers inspect denom (see DegenerateIndices) to decide
// which points to trust.
func IntersectPlane(rays mat.Matrix, origin, axis r3.Vector) (*mat.Dense, []float64, error) {
	if err := checkRows("rays", rays, 3); err != nil {
		return nil, nil, err
	}

	a := axis.Mul(1 / axis.Norm())
	dotAxisOrigin := a.Dot(origin)

	_, n := rays.Dims()
	world := mat.NewDense(3, n, nil)
	denom := make([]float64, n)
	for j := 0; j < n; j++ {
		r := Column(rays, j)
		dotAxisRay := a.Dot(r)
		denom[j] = 1 - dotAxisRay*dotAxisRay

		t := (r.Dot(origin) - dotAxisOrigin*dotAxisRay) / denom[j]
		p := r.Mul(t)
		world.Set(0, j, p.X)
		world.Set(1, j, p.Y)
		world.Set(2, j, p.Z)
	}
	return world, denom, nil
}

// Reconstruct back-projects image points through the camera and intersects
// them with the laser plane.
func Reconstruct(camera CameraModel, imagePoints mat.Matrix, plane LaserPlane) (*mat.Dense, []float64, error) {
	if camera.inverted == nil {
		return nil, nil, fmt.Errorf("%w: camera model has no intrinsics", ErrShapeMismatch)
	}
	rays, err := BackProject(imagePoints, camera.inverted)
	if err != nil {
		return nil, nil, err
	}
	return IntersectPlane(rays, plane.Origin, plane.Axis)
}

// DegenerateIndices lists the columns whose denominator is within tol of zero
// or is not a number.
func DegenerateIndices(denom []float64, tol float64) []int {
	var out []int
	for i, d := range denom {
		if math.IsNaN(d) || math.Abs(d) <= tol {
			out = append(out, i)
		}
	}
	return out
}
