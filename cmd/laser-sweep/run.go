package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/banshee-data/laserplane/internal/calibration"
	"github.com/banshee-data/laserplane/internal/config"
	"github.com/banshee-data/laserplane/internal/monitoring"
	"github.com/banshee-data/laserplane/internal/report"
	"github.com/banshee-data/laserplane/internal/security"
	"github.com/banshee-data/laserplane/internal/sweep"
	"github.com/banshee-data/laserplane/internal/synthetic"
	"github.com/banshee-data/laserplane/internal/triangulation"
)

var runLog = monitoring.Prefixed("laser-sweep")

// runOptions are the knobs that are not part of the sweep configuration.
type runOptions struct {
	RunID      string
	Experiment string
	PNG        bool
	HTML       bool
}

// run executes a full synthetic sweep and writes its artifacts under
// <output_dir>/<run id>/. It returns that directory.
func run(ctx context.Context, cfg *config.SweepConfig, o runOptions) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}
	base := cfg.GetOutputDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	o.RunID = security.SanitizeFilename(o.RunID)
	outDir := filepath.Join(base, o.RunID)
	if err := security.ValidatePathWithinDirectory(outDir, base); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run dir: %w", err)
	}

	fx, fy, cx, cy := cfg.GetIntrinsics()
	cam, err := triangulation.NewCameraModelFromIntrinsics(fx, fy, cx, cy)
	if err != nil {
		return "", err
	}
	truth := cfg.GetLaserPlane()
	depthMin, depthMax := cfg.GetDepthRange()
	scene, err := synthetic.NewScene(cam, truth, cfg.GetScenePoints(), depthMin, depthMax)
	if err != nil {
		return "", err
	}
	if err := writeScene(filepath.Join(outDir, "scene.csv"), scene, cfg); err != nil {
		return "", err
	}

	counts := cfg.GetPointCounts()
	window := cfg.GetWindow()
	if len(cfg.PointCounts) > 0 {
		window = sweep.Window{Start: slices.Min(counts), End: slices.Max(counts) + 1}
	}
	eval, err := sweep.NewEvaluator(sweep.EvaluatorConfig{
		InvertedIntrinsics:  cam.InvertedIntrinsics(),
		ImagePoints:         scene.Image,
		Truth:               truth,
		TruthWorld:          scene.World,
		Window:              &window,
		DegeneracyTolerance: cfg.GetDegeneracyTolerance(),
		Workers:             cfg.GetWorkers(),
	})
	if err != nil {
		return "", err
	}

	w := eval.Window()
	runLog.Infof("evaluating point counts in [%d, %d) over %d trials", w.Start, w.End, cfg.GetTrials())

	trials := cfg.GetTrials()
	results := make([]sweep.Result, 0, trials)
	for t := 0; t < trials; t++ {
		series, err := generateSeries(cfg, counts, cfg.GetSeed()+uint64(t))
		if err != nil {
			return "", fmt.Errorf("trial %d: %w", t, err)
		}
		res, err := eval.Evaluate(ctx, series)
		if err != nil {
			return "", fmt.Errorf("trial %d: %w", t, err)
		}
		results = append(results, res)
		runLog.Debugf("trial %d of %d done", t+1, trials)
	}
	result, err := sweep.MeanResult(results)
	if err != nil {
		return "", err
	}

	if err := writeCSV(outDir, o.RunID, result); err != nil {
		return "", err
	}
	if o.PNG {
		w, h := cfg.GetPlotSize()
		files, err := report.WritePNGs(outDir, result, report.PlotOptions{Experiment: o.Experiment, WidthIn: w, HeightIn: h})
		if err != nil {
			return "", err
		}
		runLog.Infof("wrote %d plots", len(files))
	}
	if o.HTML {
		if err := writeHTML(filepath.Join(outDir, "report.html"), o, result); err != nil {
			return "", err
		}
	}
	if err := writeEffectiveConfig(filepath.Join(outDir, "config.json"), cfg); err != nil {
		return "", err
	}
	return outDir, nil
}

// generateSeries draws one trial's calibration samples for every configured
// series and noise level from a single seeded source.
func generateSeries(cfg *config.SweepConfig, counts []int, seed uint64) ([]sweep.Series, error) {
	src := synthetic.NewSource(seed)
	truth := cfg.GetLaserPlane()

	var out []sweep.Series
	for _, sc := range cfg.GetSeries() {
		key, err := sweep.ParseSeriesKey(sc.Key)
		if err != nil {
			return nil, err
		}
		depthMin, depthMax := cfg.SeriesDepthRange(sc)
		s := sweep.Series{Key: key}
		for _, std := range cfg.GetNoiseStds() {
			samples, err := calibration.NewGeneratorFromSource(truth, depthMin, depthMax, std, src).Samples(counts)
			if err != nil {
				return nil, fmt.Errorf("%s std=%g: %w", key, std, err)
			}
			s.Levels = append(s.Levels, sweep.NoiseLevel{Std: std, Samples: samples})
		}
		out = append(out, s)
	}
	return out, nil
}

// writeScene records the ground-truth spots, their pixels and a reproducible
// synthetic surface normal per spot.
func writeScene(path string, scene *synthetic.Scene, cfg *config.SweepConfig) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer closeFile(f, &err)

	normals := synthetic.CalculateNormals(scene.World, cfg.GetSeed(), cfg.GetNormalStd())
	w := csv.NewWriter(f)
	w.Write([]string{"index", "x", "y", "z", "u", "v", "nx", "ny", "nz"})
	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', 12, 64) }
	for j, p := range triangulation.Columns(scene.World) {
		n := normals[j]
		w.Write([]string{
			strconv.Itoa(j), ff(p.X), ff(p.Y), ff(p.Z),
			ff(scene.Image.At(0, j)), ff(scene.Image.At(1, j)),
			ff(n.X), ff(n.Y), ff(n.Z),
		})
	}
	w.Flush()
	return w.Error()
}

func writeCSV(dir, runID string, result sweep.Result) (err error) {
	summary, err := os.Create(filepath.Join(dir, "summary.csv"))
	if err != nil {
		return fmt.Errorf("could not create summary csv: %w", err)
	}
	defer closeFile(summary, &err)
	raw, err := os.Create(filepath.Join(dir, "raw.csv"))
	if err != nil {
		return fmt.Errorf("could not create raw csv: %w", err)
	}
	defer closeFile(raw, &err)

	w := sweep.NewCSVWriter(runID, summary, raw)
	if err := w.WriteHeaders(); err != nil {
		return err
	}
	return w.WriteResult(result)
}

// closeFile closes f and reports its error through errp unless an earlier
// error is already set.
func closeFile(f *os.File, errp *error) {
	if cerr := f.Close(); cerr != nil && *errp == nil {
		*errp = fmt.Errorf("could not close %s: %w", f.Name(), cerr)
	}
}

func writeHTML(path string, o runOptions, result sweep.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer closeFile(f, &err)
	return report.WriteHTML(f, result, report.HTMLOptions{Experiment: o.Experiment, Subtitle: "run " + o.RunID})
}

func writeEffectiveConfig(path string, cfg *config.SweepConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
