// Package sim owns the simulation world: the ECS storage, the sensorimotor
// tick loop and the generational evolution loop that breeds each
// population's next cohort from its scored members.
package sim

import (
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/evolab/petri/components"
	"github.com/evolab/petri/config"
	"github.com/evolab/petri/neural"
	"github.com/evolab/petri/systems"
	"github.com/evolab/petri/telemetry"
)

// Sim holds the complete simulation state.
type Sim struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand
	noise opensimplex.Noise

	agentMapper *ecs.Map3[components.Body, components.Agent, components.Emitter]
	agentFilter *ecs.Filter3[components.Body, components.Agent, components.Emitter]

	sourceMapper *ecs.Map2[components.Position, components.SignalSource]
	sourceFilter *ecs.Filter2[components.Position, components.SignalSource]

	// Individual component mappers for lookups
	agentMap  *ecs.Map1[components.Agent]
	bodyMap   *ecs.Map1[components.Body]
	sourceMap *ecs.Map1[components.SignalSource]

	populations []*Population

	out *telemetry.OutputManager

	tick       int
	generation int
	nextID     uint32

	// Scratch buffers reused across ticks.
	scratch    []float32
	sourceEnts []ecs.Entity
}

// NewSim builds the world from config: parses populations, seeds the
// environment sources and spawns every founder cohort.
func NewSim(cfg *config.Config, seed int64) (*Sim, error) {
	world := ecs.NewWorld()

	s := &Sim{
		cfg:          cfg,
		world:        world,
		rng:          rand.New(rand.NewSource(seed)),
		noise:        newNoise(seed),
		agentMapper:  ecs.NewMap3[components.Body, components.Agent, components.Emitter](world),
		agentFilter:  ecs.NewFilter3[components.Body, components.Agent, components.Emitter](world),
		sourceMapper: ecs.NewMap2[components.Position, components.SignalSource](world),
		sourceFilter: ecs.NewFilter2[components.Position, components.SignalSource](world),
		agentMap:     ecs.NewMap1[components.Agent](world),
		bodyMap:      ecs.NewMap1[components.Body](world),
		sourceMap:    ecs.NewMap1[components.SignalSource](world),
		nextID:       1, // owner 0 marks environment sources
	}

	if err := s.spawnSources(); err != nil {
		return nil, err
	}
	for _, pc := range cfg.Populations {
		p, err := newPopulation(pc)
		if err != nil {
			return nil, err
		}
		if err := s.spawnPopulation(p); err != nil {
			return nil, err
		}
		s.populations = append(s.populations, p)
	}
	return s, nil
}

// SetOutput attaches a telemetry output manager. May be nil.
func (s *Sim) SetOutput(om *telemetry.OutputManager) {
	s.out = om
}

// Generation returns the current generation index.
func (s *Sim) Generation() int { return s.generation }

// Tick returns the total tick count across all generations.
func (s *Sim) Tick() int { return s.tick }

// Step runs one simulation tick: every agent senses the shared pre-tick
// snapshot, processes its circuit, actuates its wheels and moves; then a
// second pass scores fitness against post-move positions and retires
// consumed sources.
func (s *Sim) Step() error {
	snap, sourceEnts := s.buildSnapshot()
	dt := s.cfg.Derived.DT32
	noiseSigma := float32(s.cfg.Physics.WheelNoiseSigma)
	strength := float32(s.cfg.Motor.Strength)
	friction := float32(s.cfg.Motor.Friction)

	query := s.agentFilter.Query()
	for query.Next() {
		body, agent, _ := query.Get()

		pose := body.Pose()
		s.scratch = s.scratch[:0]
		for i := range agent.Sensors {
			agent.Sensors[i].Sense(snap.Signals, agent.ID, pose)
			s.scratch = append(s.scratch, agent.Sensors[i].Activation)
		}
		if err := agent.Circuit.LoadSensors(s.scratch); err != nil {
			return err
		}
		agent.Circuit.Process()
		outs := agent.Circuit.ReadOutputs()
		for i := range agent.Effectors {
			agent.Effectors[i].SetActivation(outs[i])
			agent.Effectors[i].Update(dt, body.Mass, strength, friction)
		}

		forward, turn := systems.Drive(body, &agent.Effectors[0], &agent.Effectors[1], dt, noiseSigma, s.rng)
		agent.LastForward = forward
		agent.LastTurn = turn
		body.X = wrapCoord(body.X, s.cfg.Derived.WorldW32)
		body.Y = wrapCoord(body.Y, s.cfg.Derived.WorldH32)
	}

	query = s.agentFilter.Query()
	for query.Next() {
		body, agent, _ := query.Get()
		delta, consumed := systems.FitnessDelta(agent, body, &snap, s.cfg.Fitness)
		agent.Fitness += delta
		for _, idx := range consumed {
			s.sourceMap.Get(sourceEnts[idx]).Consumed = true
			// Consumption is exclusive: later agents this tick cannot eat
			// the same source.
			snap.Signals[idx].Kind = neural.SignalNone
		}
	}

	s.tick++
	return nil
}

// buildSnapshot assembles the tick's shared read-only environment view:
// live sources first, then peer emitters, plus the peer position list.
// Returns the entity handle per source index for consumption.
func (s *Sim) buildSnapshot() (systems.Snapshot, []ecs.Entity) {
	var snap systems.Snapshot
	ents := s.sourceEnts[:0]

	query := s.sourceFilter.Query()
	for query.Next() {
		pos, src := query.Get()
		if src.Consumed {
			continue
		}
		snap.Signals = append(snap.Signals, neural.Signal{
			Kind:      src.Kind,
			X:         pos.X,
			Y:         pos.Y,
			Radius:    src.Radius,
			Intensity: src.Intensity,
		})
		ents = append(ents, query.Entity())
	}
	snap.NumSources = len(snap.Signals)

	aq := s.agentFilter.Query()
	for aq.Next() {
		body, agent, emitter := aq.Get()
		x, y := body.Position()
		snap.Peers = append(snap.Peers, systems.PeerView{ID: agent.ID, Tag: agent.Tag, X: x, Y: y})
		if !emitter.Silent() {
			snap.Signals = append(snap.Signals, neural.Signal{
				Kind:      emitter.Kind,
				X:         x,
				Y:         y,
				Radius:    emitter.Radius,
				Intensity: emitter.Intensity,
				Owner:     agent.ID,
			})
		}
	}

	s.sourceEnts = ents
	return snap, ents
}

// RunGeneration runs one full generation of ticks then breeds every
// population's next cohort.
func (s *Sim) RunGeneration() error {
	for t := 0; t < s.cfg.Evolution.TicksPerGeneration; t++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return s.evolve()
}

// Run executes the configured number of generations.
func (s *Sim) Run() error {
	for g := 0; g < s.cfg.Evolution.Generations; g++ {
		if err := s.RunGeneration(); err != nil {
			return err
		}
	}
	return nil
}

// evolve scores each population, records telemetry, breeds the next cohort
// and resets the world for the next generation.
func (s *Sim) evolve() error {
	for _, p := range s.populations {
		agents := make([]*components.Agent, len(p.members))
		samples := make([]telemetry.AgentSample, len(p.members))
		for i, e := range p.members {
			a := s.agentMap.Get(e)
			agents[i] = a
			samples[i] = telemetry.AgentSample{
				UID:      a.UID,
				Fitness:  a.Fitness,
				Neurons:  len(a.Genome.Neurons()),
				Synapses: len(a.Genome.Synapses),
				Layers:   a.Genome.LayerCount(),
			}
		}

		gs, champ := telemetry.Summarize(s.generation, p.name, samples)
		logGeneration(gs, champ)
		if s.out != nil {
			if err := s.out.WriteGeneration(gs); err != nil {
				return err
			}
			if err := s.out.WriteChampion(champ); err != nil {
				return err
			}
		}

		offspring, err := p.nextBrains(agents, s.cfg.Evolution, s.cfg.Mutation, s.rng)
		if err != nil {
			return err
		}

		for i, e := range p.members {
			agent := s.agentMap.Get(e)
			body := s.bodyMap.Get(e)
			o := offspring[i]
			agent.Genome = o.Genome
			agent.Circuit = o.Circuit
			agent.Sensors, agent.Effectors = p.bindDevices(o.Genome)
			agent.Fitness = 0
			agent.Generation = s.generation + 1
			agent.UID = uuid.New()
			agent.LastForward = 0
			agent.LastTurn = 0
			body.X = s.rng.Float32() * s.cfg.Derived.WorldW32
			body.Y = s.rng.Float32() * s.cfg.Derived.WorldH32
			body.Heading = s.rng.Float32() * 2 * math.Pi
		}
	}

	s.respawnSources()
	s.generation++
	return nil
}

// MeanFitness returns the mean lifetime fitness over all agents at the
// current tick. Resets to zero at each generation boundary.
func (s *Sim) MeanFitness() float64 {
	var sum float64
	var n int
	query := s.agentFilter.Query()
	for query.Next() {
		_, agent, _ := query.Get()
		sum += agent.Fitness
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// BestFitness returns the highest lifetime fitness over all agents at the
// current tick.
func (s *Sim) BestFitness() float64 {
	best := math.Inf(-1)
	query := s.agentFilter.Query()
	for query.Next() {
		_, agent, _ := query.Get()
		if agent.Fitness > best {
			best = agent.Fitness
		}
	}
	if math.IsInf(best, -1) {
		return 0
	}
	return best
}

// wrapCoord wraps a coordinate into [0, max) toroidally.
func wrapCoord(v, max float32) float32 {
	v = float32(math.Mod(float64(v), float64(max)))
	if v < 0 {
		v += max
	}
	return v
}
