package triangulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// CalibrationLen is the number of parameters in a CalibrationVector.
const CalibrationLen = 5

var (
	// ErrMalformedSample is returned when a calibration vector does not hold
	// exactly CalibrationLen values.
	ErrMalformedSample = errors.New("malformed calibration sample")

	// ErrInvalidPlane is returned by LaserPlane.Validate.
	ErrInvalidPlane = errors.New("invalid laser plane")
)

// LaserPlane describes the laser as seen from the camera frame.
//
// Axis is a direction and need not be unit length; the solver normalizes it.
// Origin is where the laser leaves the Z=0 plane of the camera, so Origin.Z is
// expected to be 0. A non-zero Origin.Z is not rejected by the solver and
// silently produces divergent reconstructions.
type LaserPlane struct {
	Axis   r3.Vector `json:"axis"`
	Origin r3.Vector `json:"origin"`
}

// UnitAxis returns the axis scaled to unit length. A zero axis yields NaN
// components.
func (p LaserPlane) UnitAxis() r3.Vector {
	return p.Axis.Mul(1 / p.Axis.Norm())
}

// Vector packs the plane into its calibration form [axis, origin.x, origin.y].
// The axis is packed as given, not normalized.
func (p LaserPlane) Vector() CalibrationVector {
	return CalibrationVector{p.Axis.X, p.Axis.Y, p.Axis.Z, p.Origin.X, p.Origin.Y}
}

// Validate checks the conventions the solver relies on but never enforces:
// a finite, non-zero axis and an origin on the Z=0 plane.
func (p LaserPlane) Validate() error {
	for _, v := range []float64{p.Axis.X, p.Axis.Y, p.Axis.Z, p.Origin.X, p.Origin.Y, p.Origin.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite component in %+v", ErrInvalidPlane, p)
		}
	}
	if p.Axis.Norm2() == 0 {
		return fmt.Errorf("%w: zero axis", ErrInvalidPlane)
	}
	if p.Origin.Z != 0 {
		return fmt.Errorf("%w: origin z must be 0, got %g", ErrInvalidPlane, p.Origin.Z)
	}
	return nil
}

// CalibrationVector is one laser calibration estimate laid out as
// [axis.x, axis.y, axis.z, origin.x, origin.y].
type CalibrationVector [CalibrationLen]float64

// NewCalibrationVector converts a raw parameter slice, failing when it does
// not hold exactly CalibrationLen values.
func NewCalibrationVector(v []float64) (CalibrationVector, error) {
	var c CalibrationVector
	if len(v) != CalibrationLen {
		return c, fmt.Errorf("%w: expected %d values, got %d", ErrMalformedSample, CalibrationLen, len(v))
	}
	copy(c[:], v)
	return c, nil
}

// Axis returns the direction part of the vector.
func (c CalibrationVector) Axis() r3.Vector {
	return r3.Vector{X: c[0], Y: c[1], Z: c[2]}
}

// Origin returns the laser origin with Z fixed at 0.
func (c CalibrationVector) Origin() r3.Vector {
	return r3.Vector{X: c[3], Y: c[4], Z: 0}
}

// Plane unpacks the vector into a LaserPlane.
func (c CalibrationVector) Plane() LaserPlane {
	return LaserPlane{Axis: c.Axis(), Origin: c.Origin()}
}
