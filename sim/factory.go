package sim

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/ojrac/opensimplex-go"

	"github.com/evolab/petri/components"
	"github.com/evolab/petri/neural"
)

// placementAttempts bounds noise rejection sampling per source.
const placementAttempts = 30

// spawnPopulation creates a population's founder cohort.
func (s *Sim) spawnPopulation(p *Population) error {
	for i := 0; i < p.size; i++ {
		genome, circuit, err := p.founderBrain(s.rng)
		if err != nil {
			return err
		}
		if err := s.spawnAgent(p, genome, circuit); err != nil {
			return err
		}
	}
	return nil
}

// spawnAgent creates one agent entity at a random pose.
func (s *Sim) spawnAgent(p *Population, genome *neural.Genome, circuit *neural.Circuit) error {
	id := s.nextID
	s.nextID++

	bc := s.cfg.Body
	body := components.Body{
		X:               s.rng.Float32() * s.cfg.Derived.WorldW32,
		Y:               s.rng.Float32() * s.cfg.Derived.WorldH32,
		Heading:         s.rng.Float32() * 2 * math.Pi,
		Mass:            float32(bc.Mass),
		AxleOffX:        float32(bc.AxleOffX),
		AxleOffY:        float32(bc.AxleOffY),
		WheelSeparation: float32(bc.WheelSeparation),
	}

	sensors, effectors := p.bindDevices(genome)
	agent := components.Agent{
		ID:        id,
		UID:       uuid.New(),
		Tag:       p.tag,
		Genome:    genome,
		Circuit:   circuit,
		Sensors:   sensors,
		Effectors: effectors,
	}
	emitter := p.emitter

	entity := s.agentMapper.NewEntity(&body, &agent, &emitter)
	p.members = append(p.members, entity)
	return nil
}

// spawnSources seeds the environment signal sources. Placement rejection
// samples an OpenSimplex field so sources of each kind form patches rather
// than uniform scatter.
func (s *Sim) spawnSources() error {
	for _, sc := range s.cfg.Sources.Kinds {
		kind, err := neural.ParseSignalKind(sc.Kind)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		for i := 0; i < sc.Count; i++ {
			x, y := s.placeByNoise()
			pos := components.Position{X: x, Y: y}
			src := components.SignalSource{
				Kind:      kind,
				Radius:    float32(sc.Radius),
				Intensity: float32(sc.Intensity),
			}
			s.sourceMapper.NewEntity(&pos, &src)
		}
	}
	return nil
}

// placeByNoise draws a position biased into high-noise patches. Falls back
// to the last uniform draw when the field rejects every attempt.
func (s *Sim) placeByNoise() (float32, float32) {
	scale := s.cfg.Sources.NoiseScale
	threshold := s.cfg.Sources.NoiseThreshold
	var x, y float32
	for i := 0; i < placementAttempts; i++ {
		x = s.rng.Float32() * s.cfg.Derived.WorldW32
		y = s.rng.Float32() * s.cfg.Derived.WorldH32
		if s.noise.Eval2(float64(x)*scale, float64(y)*scale) >= threshold {
			break
		}
	}
	return x, y
}

// respawnSources repositions every source for a fresh generation and
// clears consumption.
func (s *Sim) respawnSources() {
	query := s.sourceFilter.Query()
	for query.Next() {
		pos, src := query.Get()
		pos.X, pos.Y = s.placeByNoise()
		src.Consumed = false
	}
}

// newNoise builds the placement field from the run seed.
func newNoise(seed int64) opensimplex.Noise {
	return opensimplex.NewNormalized(seed)
}
