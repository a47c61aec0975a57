// Package calibration estimates laser calibrations from observed laser spots
// and generates noisy estimates for sensitivity sweeps.
package calibration

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/laserplane/internal/triangulation"
)

var (
	// ErrTooFewPoints is returned when fewer than two spots are given.
	ErrTooFewPoints = errors.New("need at least 2 points to fit a laser")

	// ErrDegenerateFit is returned when the fitted direction cannot be
	// anchored on the Z=0 plane.
	ErrDegenerateFit = errors.New("degenerate laser fit")
)

// FitLaserPlane fits the laser through 3D spots with a principal component
// fit. The axis is the dominant right singular vector of the centred spots,
// oriented towards +Z, and the origin is where the fitted line crosses Z=0.
func FitLaserPlane(points []r3.Vector) (triangulation.LaserPlane, error) {
	n := len(points)
	if n < 2 {
		return triangulation.LaserPlane{}, fmt.Errorf("%w: got %d", ErrTooFewPoints, n)
	}

	var centroid r3.Vector
	for _, p := range points {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(n))

	data := mat.NewDense(n, 3, nil)
	for i, p := range points {
		d := p.Sub(centroid)
		data.SetRow(i, []float64{d.X, d.Y, d.Z})
	}

	var svd mat.SVD
	if ok := svd.Factorize(data, mat.SVDThin); !ok {
		return triangulation.LaserPlane{}, fmt.Errorf("%w: SVD factorization failed", ErrDegenerateFit)
	}
	var v mat.Dense
	svd.VTo(&v)

	axis := r3.Vector{X: v.At(0, 0), Y: v.At(1, 0), Z: v.At(2, 0)}
	if axis.Z == 0 {
		return triangulation.LaserPlane{}, fmt.Errorf("%w: fitted axis %v is parallel to the image plane", ErrDegenerateFit, axis)
	}
	if axis.Z < 0 {
		axis = axis.Mul(-1)
	}

	origin := centroid.Sub(axis.Mul(centroid.Z / axis.Z))
	origin.Z = 0

	return triangulation.LaserPlane{Axis: axis, Origin: origin}, nil
}
