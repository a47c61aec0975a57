package calibration

import (
	"fmt"
	"math/rand/v2"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/laserplane/internal/sweep"
	"github.com/banshee-data/laserplane/internal/synthetic"
	"github.com/banshee-data/laserplane/internal/triangulation"
)

// Default depth range, in metres, over which calibration spots are placed.
const (
	DefaultDepthMin = 0.5
	DefaultDepthMax = 3.0
)

// Generator produces noisy calibration estimates of a known laser. Each
// estimate fits a line through spots placed on the true laser at evenly spaced
// depths and perturbed by isotropic Gaussian noise.
type Generator struct {
	Truth    triangulation.LaserPlane
	DepthMin float64
	DepthMax float64
	Std      float64

	noise distuv.Normal
}

// NewGenerator returns a generator seeded with its own PCG source, so two
// generators built with the same arguments produce identical samples.
func NewGenerator(truth triangulation.LaserPlane, depthMin, depthMax, std float64, seed uint64) *Generator {
	return NewGeneratorFromSource(truth, depthMin, depthMax, std, synthetic.NewSource(seed))
}

// NewGeneratorFromSource is NewGenerator with a caller supplied source.
func NewGeneratorFromSource(truth triangulation.LaserPlane, depthMin, depthMax, std float64, src rand.Source) *Generator {
	return &Generator{
		Truth:    truth,
		DepthMin: depthMin,
		DepthMax: depthMax,
		Std:      std,
		noise:    distuv.Normal{Mu: 0, Sigma: std, Src: src},
	}
}

// Sample fits one calibration from n noisy spots. The fitted axis is rescaled
// to the length and Z sign of the true axis so that a noise-free fit
// reproduces the truth exactly.
func (g *Generator) Sample(n int) (triangulation.CalibrationVector, error) {
	spots, err := synthetic.PointsAlongLaser(g.Truth, n, g.DepthMin, g.DepthMax)
	if err != nil {
		return triangulation.CalibrationVector{}, err
	}
	for i, p := range spots {
		spots[i] = p.Add(r3.Vector{X: g.noise.Rand(), Y: g.noise.Rand(), Z: g.noise.Rand()})
	}

	fit, err := FitLaserPlane(spots)
	if err != nil {
		return triangulation.CalibrationVector{}, fmt.Errorf("fitting %d spots: %w", n, err)
	}
	scale := g.Truth.Axis.Norm()
	if g.Truth.Axis.Z < 0 {
		scale = -scale
	}
	fit.Axis = fit.Axis.Mul(scale)
	return fit.Vector(), nil
}

// Samples draws one calibration per point count, in the order given.
func (g *Generator) Samples(counts []int) ([]sweep.PointCountSample, error) {
	out := make([]sweep.PointCountSample, 0, len(counts))
	for _, n := range counts {
		v, err := g.Sample(n)
		if err != nil {
			return nil, err
		}
		out = append(out, sweep.PointCountSample{PointCount: n, Sample: v})
	}
	return out, nil
}

// GenerateSamples is a one-shot Generator over the default depth range.
func GenerateSamples(truth triangulation.LaserPlane, counts []int, std float64, seed uint64) ([]sweep.PointCountSample, error) {
	return NewGenerator(truth, DefaultDepthMin, DefaultDepthMax, std, seed).Samples(counts)
}
