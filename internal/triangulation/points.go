package triangulation

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// NewImagePoints builds a 3×N homogeneous image point matrix from pixel
// coordinates.
func NewImagePoints(pixels [][2]float64) (*mat.Dense, error) {
	if len(pixels) == 0 {
		return nil, fmt.Errorf("%w: no image points", ErrShapeMismatch)
	}
	m := mat.NewDense(3, len(pixels), nil)
	for j, p := range pixels {
		m.Set(0, j, p[0])
		m.Set(1, j, p[1])
		m.Set(2, j, 1)
	}
	return m, nil
}

// NewPointMatrix stacks 3D points as the columns of a 3×N matrix.
func NewPointMatrix(points []r3.Vector) (*mat.Dense, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrShapeMismatch)
	}
	m := mat.NewDense(3, len(points), nil)
	for j, p := range points {
		m.Set(0, j, p.X)
		m.Set(1, j, p.Y)
		m.Set(2, j, p.Z)
	}
	return m, nil
}

// Column returns column j of a 3×N point matrix as a vector.
func Column(m mat.Matrix, j int) r3.Vector {
	return r3.Vector{X: m.At(0, j), Y: m.At(1, j), Z: m.At(2, j)}
}

// Columns unpacks every column of a 3×N point matrix.
func Columns(m mat.Matrix) []r3.Vector {
	_, n := m.Dims()
	out := make([]r3.Vector, n)
	for j := range out {
		out[j] = Column(m, j)
	}
	return out
}
