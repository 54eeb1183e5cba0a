package main

import (
	"io"
	"sync"

	"github.com/evolab/petri/config"
	"github.com/evolab/petri/sim"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []int64
	baseConfig  *config.Config

	mu       sync.Mutex
	lastMean float64 // mean agent fitness from the most recent Evaluate
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		baseConfig:  baseCfg,
	}
}

// LastMean returns the mean agent fitness from the most recent evaluation.
func (fe *FitnessEvaluator) LastMean() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMean
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Each seed evolves for generations-1 full generations, then scores the
// final cohort over one more generation of ticks without evolving. The
// result is the negated champion fitness averaged over seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	var totalBest, totalMean float64
	for _, seed := range fe.seeds {
		s, err := sim.NewSim(cfg, seed)
		if err != nil {
			// Unbuildable config: worst possible fitness.
			return 0
		}
		for g := 0; g < fe.generations-1; g++ {
			if err := s.RunGeneration(); err != nil {
				return 0
			}
		}
		for t := 0; t < cfg.Evolution.TicksPerGeneration; t++ {
			if err := s.Step(); err != nil {
				return 0
			}
		}
		totalBest += s.BestFitness()
		totalMean += s.MeanFitness()
	}

	fe.mu.Lock()
	fe.lastMean = totalMean / float64(len(fe.seeds))
	fe.mu.Unlock()

	return -totalBest / float64(len(fe.seeds))
}

// copyConfig makes a shallow copy safe for scalar overrides. Population
// and source slices are shared read-only.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	c := *fe.baseConfig
	return &c
}

// silenceSimLogs routes the per-generation summaries away from stdout so
// the optimizer's own progress output stays readable.
func silenceSimLogs() {
	sim.SetLogWriter(io.Discard)
}
