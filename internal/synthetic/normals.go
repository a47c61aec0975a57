// Package synthetic generates reproducible inputs for triangulation
// experiments: surface normals, laser scenes and their image points.
//
// All randomness flows through an explicit rand.Source so a batch seeded with
// the same value produces bit-identical output regardless of what else runs
// in the process.
package synthetic

import (
	"math/rand/v2"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/laserplane/internal/triangulation"
)

const (
	// DefaultNormalStd is the spread of the raw normal draw. Only the
	// direction survives normalization, so the value matters for
	// reproducibility rather than shape.
	DefaultNormalStd = 0.1

	// DefaultNormalSeed seeds CalculateNormals batches.
	DefaultNormalSeed uint64 = 0
)

// NewSource returns the deterministic generator used by every batch in this
// package.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed)
}

// SyntheticNormal draws a random unit normal for point and returns both.
// The normal is flipped so that its Z component is never negative.
func SyntheticNormal(src rand.Source, point r3.Vector, std float64) (r3.Vector, r3.Vector) {
	dist := distuv.Normal{Mu: 0, Sigma: std, Src: src}
	n := r3.Vector{X: dist.Rand(), Y: dist.Rand(), Z: dist.Rand()}
	n = n.Mul(1 / n.Norm())
	if n.Z < 0 {
		n = n.Mul(-1)
	}
	return point, n
}

// CalculateNormals draws one normal per column of a 3×N point matrix from a
// generator seeded with seed. The whole batch owns its generator, so equal
// seeds give identical batches.
func CalculateNormals(points mat.Matrix, seed uint64, std float64) []r3.Vector {
	src := NewSource(seed)
	cols := triangulation.Columns(points)
	normals := make([]r3.Vector, len(cols))
	for i, p := range cols {
		_, normals[i] = SyntheticNormal(src, p, std)
	}
	return normals
}
