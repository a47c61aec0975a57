// Command laser-sweep measures how laser triangulation accuracy degrades as
// the laser calibration is estimated from fewer, noisier spots.
//
// It builds a synthetic scene from the configured camera and laser, draws
// noisy calibrations for every series, noise level and point count, and
// writes CSV, PNG and HTML reports under <output_dir>/<run id>/.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/google/uuid"

	"github.com/banshee-data/laserplane/internal/config"
	"github.com/banshee-data/laserplane/internal/monitoring"
	"github.com/banshee-data/laserplane/internal/sweep"
	"github.com/banshee-data/laserplane/internal/version"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Sweep configuration JSON (missing default file means built-in defaults)")
	outputDir := flag.String("output", "", "Output directory (overrides output_dir)")
	noiseList := flag.String("noise", "", "Comma-separated noise stds (e.g. 0.005,0.01) or range start:end:step")
	countList := flag.String("counts", "", "Comma-separated point counts (e.g. 2,5,10,50) or range start:end:step")
	seriesList := flag.String("series", "", "Comma-separated name/linestyle series keys (overrides series)")
	trials := flag.Int("trials", 0, "Trials averaged per point count (overrides trials)")
	seed := flag.Int64("seed", -1, "Base random seed (overrides seed)")
	workers := flag.Int("workers", -1, "Concurrent evaluations, 0 for one per CPU (overrides workers)")
	experiment := flag.String("experiment", "synthetic", "Experiment label shown in chart titles")
	runID := flag.String("run-id", "", "Run identifier (defaults to a new UUID)")
	noPNG := flag.Bool("no-png", false, "Skip PNG charts")
	noHTML := flag.Bool("no-html", false, "Skip the HTML report")
	verbose := flag.Bool("verbose", false, "Log per-combination progress")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("laser-sweep", version.String())
		return
	}

	monitoring.SetVerbose(*verbose)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if *noiseList != "" {
		stds, err := sweep.ParseParamList(*noiseList)
		if err != nil {
			log.Fatalf("Invalid -noise: %v", err)
		}
		cfg.NoiseStds = stds
	}
	if *countList != "" {
		counts, err := sweep.ParseIntParamList(*countList)
		if err != nil {
			log.Fatalf("Invalid -counts: %v", err)
		}
		cfg.PointCounts = counts
	}
	if *seriesList != "" {
		keys, err := sweep.ParseSeriesKeys(*seriesList)
		if err != nil {
			log.Fatalf("Invalid -series: %v", err)
		}
		cfg.Series = cfg.Series[:0]
		for _, k := range keys {
			cfg.Series = append(cfg.Series, config.SeriesConfig{Key: k.String()})
		}
	}
	if *trials > 0 {
		cfg.Trials = trials
	}
	if *seed >= 0 {
		s := uint64(*seed)
		cfg.Seed = &s
	}
	if *workers >= 0 {
		cfg.Workers = workers
	}

	id := *runID
	if id == "" {
		id = uuid.New().String()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dir, err := run(ctx, cfg, runOptions{
		RunID:      id,
		Experiment: *experiment,
		PNG:        !*noPNG,
		HTML:       !*noHTML,
	})
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	log.Printf("Sweep %s written to %s", id, dir)
}

// loadConfig reads path, falling back to built-in defaults only when the
// default config file is absent.
func loadConfig(path string) (*config.SweepConfig, error) {
	cfg, err := config.LoadSweepConfig(path)
	if err == nil {
		return cfg, nil
	}
	if path == config.DefaultConfigPath {
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			log.Printf("%s not found, using built-in defaults", path)
			return config.EmptySweepConfig(), nil
		}
	}
	return nil, err
}
