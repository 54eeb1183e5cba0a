package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/evolab/petri/config"
	"github.com/evolab/petri/sim"
	"github.com/evolab/petri/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot (empty = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, negative = time-based)")
	generations := flag.Int("generations", 0, "Number of generations to run (0 = use config)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *generations > 0 {
		cfg.Evolution.Generations = *generations
	}

	rngSeed := cfg.Evolution.Seed
	if *seed > 0 {
		rngSeed = *seed
	} else if *seed < 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	dir := *outputDir
	if dir == "" && cfg.Telemetry.Enabled {
		dir = cfg.Telemetry.OutputDir
	}
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		slog.Error("failed to open output", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to snapshot config", "error", err)
		os.Exit(1)
	}

	s, err := sim.NewSim(cfg, rngSeed)
	if err != nil {
		slog.Error("failed to build world", "error", err)
		os.Exit(1)
	}
	s.SetOutput(out)

	slog.Info("starting simulation",
		"seed", rngSeed,
		"generations", cfg.Evolution.Generations,
		"ticks_per_generation", cfg.Evolution.TicksPerGeneration,
		"populations", len(cfg.Populations),
	)

	start := time.Now()
	if err := s.Run(); err != nil {
		slog.Error("simulation failed", "error", err, "generation", s.Generation())
		os.Exit(1)
	}

	slog.Info("simulation complete",
		"generations", s.Generation(),
		"ticks", s.Tick(),
		"elapsed", time.Since(start).String(),
	)
}
