package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/laserplane/internal/sweep"
	"github.com/banshee-data/laserplane/internal/triangulation"
)

// DefaultConfigPath is the path to the canonical sweep defaults file.
const DefaultConfigPath = "config/sweep.defaults.json"

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// SeriesConfig describes one synthetic calibration series. Each series fits
// its calibration spots over its own depth range.
type SeriesConfig struct {
	Key      string   `json:"key"` // "name/linestyle"
	DepthMin *float64 `json:"depth_min,omitempty"`
	DepthMax *float64 `json:"depth_max,omitempty"`
}

// SweepConfig is the root configuration of a calibration sensitivity sweep.
// Every field is optional; the Get* accessors supply defaults.
type SweepConfig struct {
	// Point-count window
	StepCount   *int  `json:"step_count,omitempty"`
	Start       *int  `json:"start,omitempty"`
	End         *int  `json:"end,omitempty"`
	PointCounts []int `json:"point_counts,omitempty"` // overrides start/end when set

	// Noise and repetition
	NoiseStds []float64 `json:"noise_stds,omitempty"`
	Trials    *int      `json:"trials,omitempty"`
	Seed      *uint64   `json:"seed,omitempty"`
	NormalStd *float64  `json:"normal_std,omitempty"`

	// Evaluation
	DegeneracyTolerance *float64 `json:"degeneracy_tolerance,omitempty"`
	Workers             *int     `json:"workers,omitempty"` // 0 means GOMAXPROCS

	// Camera intrinsics, pixels
	Fx *float64 `json:"fx,omitempty"`
	Fy *float64 `json:"fy,omitempty"`
	Cx *float64 `json:"cx,omitempty"`
	Cy *float64 `json:"cy,omitempty"`

	// Ground-truth laser and scene
	LaserAxis   []float64      `json:"laser_axis,omitempty"`   // [x, y, z]
	LaserOrigin []float64      `json:"laser_origin,omitempty"` // [x, y]
	DepthMin    *float64       `json:"depth_min,omitempty"`
	DepthMax    *float64       `json:"depth_max,omitempty"`
	ScenePoints *int           `json:"scene_points,omitempty"`
	Series      []SeriesConfig `json:"series,omitempty"`

	// Output
	OutputDir    *string  `json:"output_dir,omitempty"`
	PlotWidthIn  *float64 `json:"plot_width_in,omitempty"`
	PlotHeightIn *float64 `json:"plot_height_in,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptySweepConfig returns a SweepConfig with every field unset.
func EmptySweepConfig() *SweepConfig {
	return &SweepConfig{}
}

// LoadSweepConfig loads a SweepConfig from a JSON file. The file must have a
// .json extension and be under 1MB. Omitted fields fall back to defaults.
func LoadSweepConfig(path string) (*SweepConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySweepConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the working
// directory and its parents. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *SweepConfig {
	prefix := ""
	for i := 0; i < 5; i++ {
		if cfg, err := LoadSweepConfig(prefix + DefaultConfigPath); err == nil {
			return cfg
		}
		prefix += "../"
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *SweepConfig) Validate() error {
	if c.StepCount != nil && *c.StepCount <= sweep.MinPointCount {
		return fmt.Errorf("step_count must be greater than %d, got %d", sweep.MinPointCount, *c.StepCount)
	}
	if len(c.PointCounts) == 0 {
		w := c.GetWindow()
		if err := w.Validate(); err != nil {
			return err
		}
		if w.Start < sweep.MinPointCount {
			return fmt.Errorf("start must be at least %d, got %d", sweep.MinPointCount, w.Start)
		}
	}
	for _, n := range c.PointCounts {
		if n < sweep.MinPointCount {
			return fmt.Errorf("point_counts entries must be at least %d, got %d", sweep.MinPointCount, n)
		}
	}
	for _, s := range c.NoiseStds {
		if s < 0 {
			return fmt.Errorf("noise_stds must be non-negative, got %g", s)
		}
	}
	if c.Trials != nil && *c.Trials < 1 {
		return fmt.Errorf("trials must be at least 1, got %d", *c.Trials)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.NormalStd != nil && *c.NormalStd <= 0 {
		return fmt.Errorf("normal_std must be positive, got %g", *c.NormalStd)
	}
	if c.DegeneracyTolerance != nil && *c.DegeneracyTolerance < 0 {
		return fmt.Errorf("degeneracy_tolerance must be non-negative, got %g", *c.DegeneracyTolerance)
	}
	if c.LaserAxis != nil && len(c.LaserAxis) != 3 {
		return fmt.Errorf("laser_axis must have 3 components, got %d", len(c.LaserAxis))
	}
	if c.LaserOrigin != nil && len(c.LaserOrigin) != 2 {
		return fmt.Errorf("laser_origin must have 2 components, got %d", len(c.LaserOrigin))
	}
	if err := c.GetLaserPlane().Validate(); err != nil {
		return err
	}
	if min, max := c.GetDepthRange(); min <= 0 || max < min {
		return fmt.Errorf("depth range [%g, %g] must be positive and ordered", min, max)
	}
	if c.ScenePoints != nil && *c.ScenePoints < 1 {
		return fmt.Errorf("scene_points must be at least 1, got %d", *c.ScenePoints)
	}
	for i, s := range c.Series {
		if _, err := sweep.ParseSeriesKey(s.Key); err != nil {
			return fmt.Errorf("series %d: %w", i, err)
		}
		if min, max := c.SeriesDepthRange(s); min <= 0 || max < min {
			return fmt.Errorf("series %q: depth range [%g, %g] must be positive and ordered", s.Key, min, max)
		}
	}
	for _, v := range []*float64{c.PlotWidthIn, c.PlotHeightIn} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("plot dimensions must be positive, got %g", *v)
		}
	}
	return nil
}

// GetStepCount returns step_count or the default of 51.
func (c *SweepConfig) GetStepCount() int {
	if c.StepCount == nil {
		return 51
	}
	return *c.StepCount
}

// GetWindow returns the [start, end) point-count window, defaulting to
// [2, step_count).
func (c *SweepConfig) GetWindow() sweep.Window {
	w := sweep.DefaultWindow(c.GetStepCount())
	if c.Start != nil {
		w.Start = *c.Start
	}
	if c.End != nil {
		w.End = *c.End
	}
	return w
}

// GetPointCounts returns the explicit point counts, or every count in the
// window.
func (c *SweepConfig) GetPointCounts() []int {
	if len(c.PointCounts) > 0 {
		return append([]int(nil), c.PointCounts...)
	}
	w := c.GetWindow()
	return sweep.GenerateIntRange(w.Start, w.End-1, 1)
}

// GetNoiseStds returns noise_stds or the default levels.
func (c *SweepConfig) GetNoiseStds() []float64 {
	if len(c.NoiseStds) == 0 {
		return []float64{0.005, 0.01, 0.02}
	}
	return append([]float64(nil), c.NoiseStds...)
}

// GetTrials returns trials or the default.
func (c *SweepConfig) GetTrials() int {
	if c.Trials == nil {
		return 10
	}
	return *c.Trials
}

// GetSeed returns seed or the default.
func (c *SweepConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 0
	}
	return *c.Seed
}

// GetNormalStd returns normal_std or the default.
func (c *SweepConfig) GetNormalStd() float64 {
	if c.NormalStd == nil {
		return 0.1
	}
	return *c.NormalStd
}

// GetDegeneracyTolerance returns degeneracy_tolerance or the default.
func (c *SweepConfig) GetDegeneracyTolerance() float64 {
	if c.DegeneracyTolerance == nil {
		return triangulation.DefaultDegeneracyTolerance
	}
	return *c.DegeneracyTolerance
}

// GetWorkers returns workers, 0 meaning one per CPU.
func (c *SweepConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetIntrinsics returns fx, fy, cx, cy with defaults for a 640x480 camera.
func (c *SweepConfig) GetIntrinsics() (fx, fy, cx, cy float64) {
	get := func(p *float64, def float64) float64 {
		if p == nil {
			return def
		}
		return *p
	}
	return get(c.Fx, 800), get(c.Fy, 800), get(c.Cx, 320), get(c.Cy, 240)
}

// GetLaserPlane returns the ground-truth laser.
func (c *SweepConfig) GetLaserPlane() triangulation.LaserPlane {
	p := triangulation.LaserPlane{
		Axis:   r3.Vector{X: -0.04, Y: -0.015, Z: 1},
		Origin: r3.Vector{X: 0.25, Y: 0.1},
	}
	if len(c.LaserAxis) == 3 {
		p.Axis = r3.Vector{X: c.LaserAxis[0], Y: c.LaserAxis[1], Z: c.LaserAxis[2]}
	}
	if len(c.LaserOrigin) == 2 {
		p.Origin = r3.Vector{X: c.LaserOrigin[0], Y: c.LaserOrigin[1]}
	}
	return p
}

// GetDepthRange returns the scene depth range in metres.
func (c *SweepConfig) GetDepthRange() (min, max float64) {
	min, max = 0.5, 3.0
	if c.DepthMin != nil {
		min = *c.DepthMin
	}
	if c.DepthMax != nil {
		max = *c.DepthMax
	}
	return min, max
}

// GetScenePoints returns scene_points or the default.
func (c *SweepConfig) GetScenePoints() int {
	if c.ScenePoints == nil {
		return 20
	}
	return *c.ScenePoints
}

// GetSeries returns the configured series or a single full-range series.
func (c *SweepConfig) GetSeries() []SeriesConfig {
	if len(c.Series) == 0 {
		return []SeriesConfig{{Key: "pca/solid"}}
	}
	return append([]SeriesConfig(nil), c.Series...)
}

// SeriesDepthRange returns the depth range a series fits over, falling back
// to the scene depth range.
func (c *SweepConfig) SeriesDepthRange(s SeriesConfig) (min, max float64) {
	min, max = c.GetDepthRange()
	if s.DepthMin != nil {
		min = *s.DepthMin
	}
	if s.DepthMax != nil {
		max = *s.DepthMax
	}
	return min, max
}

// GetOutputDir returns output_dir or the default.
func (c *SweepConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "sweep-output"
	}
	return *c.OutputDir
}

// GetPlotSize returns the PNG plot size in inches.
func (c *SweepConfig) GetPlotSize() (width, height float64) {
	width, height = 10, 6
	if c.PlotWidthIn != nil {
		width = *c.PlotWidthIn
	}
	if c.PlotHeightIn != nil {
		height = *c.PlotHeightIn
	}
	return width, height
}
