// Package telemetry aggregates per-generation statistics and writes them
// as structured CSV experiment output.
package telemetry

import (
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// AgentSample is one agent's end-of-generation state as seen by telemetry.
type AgentSample struct {
	UID      uuid.UUID
	Fitness  float64
	Neurons  int
	Synapses int
	Layers   int
}

// GenerationStats holds aggregated statistics for one population over one
// generation.
type GenerationStats struct {
	Generation int    `csv:"generation"`
	Population string `csv:"population"`
	Size       int    `csv:"size"`

	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`
	FitnessP10  float64 `csv:"fitness_p10"`
	FitnessP50  float64 `csv:"fitness_p50"`
	FitnessP90  float64 `csv:"fitness_p90"`
	FitnessMax  float64 `csv:"fitness_max"`

	// Structural complexity, averaged over the population.
	NeuronsMean  float64 `csv:"neurons_mean"`
	SynapsesMean float64 `csv:"synapses_mean"`
	MaxLayers    int     `csv:"max_layers"`
}

// ChampionRecord identifies the best agent of a population's generation.
type ChampionRecord struct {
	Generation int     `csv:"generation"`
	Population string  `csv:"population"`
	UID        string  `csv:"uid"`
	Fitness    float64 `csv:"fitness"`
	Neurons    int     `csv:"neurons"`
	Synapses   int     `csv:"synapses"`
	Layers     int     `csv:"layers"`
}

// Summarize aggregates one population's generation into stats and the
// champion record. Empty samples produce zeroed stats.
func Summarize(generation int, population string, samples []AgentSample) (GenerationStats, ChampionRecord) {
	gs := GenerationStats{
		Generation: generation,
		Population: population,
		Size:       len(samples),
	}
	champ := ChampionRecord{Generation: generation, Population: population}
	if len(samples) == 0 {
		return gs, champ
	}

	fit := make([]float64, len(samples))
	best := 0
	var neurons, synapses float64
	for i, s := range samples {
		fit[i] = s.Fitness
		neurons += float64(s.Neurons)
		synapses += float64(s.Synapses)
		if s.Layers > gs.MaxLayers {
			gs.MaxLayers = s.Layers
		}
		if s.Fitness > samples[best].Fitness {
			best = i
		}
	}

	gs.FitnessMean = stat.Mean(fit, nil)
	gs.FitnessStd = stat.StdDev(fit, nil)
	sort.Float64s(fit)
	gs.FitnessP10 = Percentile(fit, 0.10)
	gs.FitnessP50 = Percentile(fit, 0.50)
	gs.FitnessP90 = Percentile(fit, 0.90)
	gs.FitnessMax = fit[len(fit)-1]
	gs.NeuronsMean = neurons / float64(len(samples))
	gs.SynapsesMean = synapses / float64(len(samples))

	b := samples[best]
	champ.UID = b.UID.String()
	champ.Fitness = b.Fitness
	champ.Neurons = b.Neurons
	champ.Synapses = b.Synapses
	champ.Layers = b.Layers
	return gs, champ
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
