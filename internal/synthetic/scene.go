package synthetic

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/laserplane/internal/triangulation"
)

// ErrInvalidScene is returned when a scene cannot be laid out on the laser.
var ErrInvalidScene = errors.New("invalid scene")

// Scene is a set of laser spots with known world positions and the image
// points a camera would observe for them.
type Scene struct {
	Camera triangulation.CameraModel
	Plane  triangulation.LaserPlane
	World  *mat.Dense // 3×N ground truth
	Image  *mat.Dense // 3×N homogeneous pixels
}

// NewScene places n laser spots at evenly spaced depths in
// [depthMin, depthMax] along the laser and projects them through camera.
func NewScene(camera triangulation.CameraModel, plane triangulation.LaserPlane, n int, depthMin, depthMax float64) (*Scene, error) {
	points, err := PointsAlongLaser(plane, n, depthMin, depthMax)
	if err != nil {
		return nil, err
	}
	world, err := triangulation.NewPointMatrix(points)
	if err != nil {
		return nil, err
	}
	img, err := camera.Project(world)
	if err != nil {
		return nil, fmt.Errorf("projecting scene: %w", err)
	}
	return &Scene{Camera: camera, Plane: plane, World: world, Image: img}, nil
}

// PointsAlongLaser returns n points on the laser at evenly spaced depths.
// A single point sits at the middle of the depth range.
func PointsAlongLaser(plane triangulation.LaserPlane, n int, depthMin, depthMax float64) ([]r3.Vector, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: need at least one point, got %d", ErrInvalidScene, n)
	}
	if depthMin <= 0 || depthMax < depthMin {
		return nil, fmt.Errorf("%w: depth range [%g, %g] must be positive and ordered", ErrInvalidScene, depthMin, depthMax)
	}
	a := plane.UnitAxis()
	if a.Z == 0 {
		return nil, fmt.Errorf("%w: laser axis %v never changes depth", ErrInvalidScene, plane.Axis)
	}

	depths := make([]float64, n)
	if n == 1 {
		depths[0] = (depthMin + depthMax) / 2
	} else {
		floats.Span(depths, depthMin, depthMax)
	}

	out := make([]r3.Vector, n)
	for i, z := range depths {
		out[i] = plane.Origin.Add(a.Mul((z - plane.Origin.Z) / a.Z))
	}
	return out, nil
}
