package triangulation

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is returned when a matrix argument has the wrong shape.
var ErrShapeMismatch = errors.New("shape mismatch")

// CameraModel holds the pinhole intrinsics K and their inverse. It is
// immutable once built; accessors hand out copies.
type CameraModel struct {
	intrinsics *mat.Dense
	inverted   *mat.Dense
}

// NewCameraModel builds a camera from an already inverted 3×3 intrinsic
// matrix.
func NewCameraModel(invertedIntrinsics mat.Matrix) (CameraModel, error) {
	if err := checkDims("inverted intrinsics", invertedIntrinsics, 3, 3); err != nil {
		return CameraModel{}, err
	}
	inv := mat.DenseCopyOf(invertedIntrinsics)
	var k mat.Dense
	if err := k.Inverse(inv); err != nil {
		return CameraModel{}, fmt.Errorf("inverting camera intrinsics: %w", err)
	}
	return CameraModel{intrinsics: &k, inverted: inv}, nil
}

// NewCameraModelFromIntrinsics builds a camera from focal lengths and the
// principal point, all in pixels.
func NewCameraModelFromIntrinsics(fx, fy, cx, cy float64) (CameraModel, error) {
	k := mat.NewDense(3, 3, []float64{
		fx, 0, cx,
		0, fy, cy,
		0, 0, 1,
	})
	var inv mat.Dense
	if err := inv.Inverse(k); err != nil {
		return CameraModel{}, fmt.Errorf("inverting camera intrinsics fx=%g fy=%g: %w", fx, fy, err)
	}
	return CameraModel{intrinsics: k, inverted: &inv}, nil
}

// InvertedIntrinsics returns a copy of K⁻¹.
func (c CameraModel) InvertedIntrinsics() *mat.Dense {
	return mat.DenseCopyOf(c.inverted)
}

// Intrinsics returns a copy of K.
func (c CameraModel) Intrinsics() *mat.Dense {
	return mat.DenseCopyOf(c.intrinsics)
}

// Project maps 3×N camera-frame points to 3×N homogeneous image points.
// Points with Z == 0 project to ±Inf/NaN.
func (c CameraModel) Project(worldPoints mat.Matrix) (*mat.Dense, error) {
	if err := checkRows("world points", worldPoints, 3); err != nil {
		return nil, err
	}
	var projected mat.Dense
	projected.Mul(c.intrinsics, worldPoints)

	_, n := projected.Dims()
	for j := 0; j < n; j++ {
		w := projected.At(2, j)
		projected.Set(0, j, projected.At(0, j)/w)
		projected.Set(1, j, projected.At(1, j)/w)
		projected.Set(2, j, 1)
	}
	return &projected, nil
}

func checkDims(name string, m mat.Matrix, rows, cols int) error {
	if m == nil {
		return fmt.Errorf("%w: %s is nil", ErrShapeMismatch, name)
	}
	r, c := m.Dims()
	if r != rows || c != cols {
		return fmt.Errorf("%w: %s must be %dx%d, got %dx%d", ErrShapeMismatch, name, rows, cols, r, c)
	}
	return nil
}

func checkRows(name string, m mat.Matrix, rows int) error {
	if m == nil {
		return fmt.Errorf("%w: %s is nil", ErrShapeMismatch, name)
	}
	r, c := m.Dims()
	if r != rows || c == 0 {
		return fmt.Errorf("%w: %s must be %dxN with N > 0, got %dx%d", ErrShapeMismatch, name, rows, r, c)
	}
	return nil
}
