package sim

import (
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/evolab/petri/components"
	"github.com/evolab/petri/config"
	"github.com/evolab/petri/neural"
)

// sensorTemplate is a population's parsed sensor placement.
type sensorTemplate struct {
	kind       neural.SignalKind
	offX, offY float32
}

// effectorTemplate is a population's parsed wheel placement.
type effectorTemplate struct {
	offX, offY float32
}

// Population is one co-evolving cohort. All members share terminal gene
// identity: every founder is a clone of the population prototype, so
// crossover alignment holds across the whole lineage forever.
type Population struct {
	name string
	tag  components.PopulationTag
	size int

	emitter   components.Emitter
	sensors   []sensorTemplate
	effectors []effectorTemplate

	// registry issues gene identities for this lineage only. Sharing a
	// registry across populations would work but ids stay smaller and
	// lineages stay independent this way.
	registry  *neural.GeneRegistry
	prototype *neural.Genome

	members []ecs.Entity
}

// newPopulation parses one population config and builds its founder
// prototype genome.
func newPopulation(pc config.PopulationConfig) (*Population, error) {
	tag, ok := components.ParseTag(pc.Tag)
	if !ok {
		return nil, fmt.Errorf("population %q: unknown tag %q", pc.Name, pc.Tag)
	}

	p := &Population{
		name:     pc.Name,
		tag:      tag,
		size:     pc.Size,
		registry: neural.NewGeneRegistry(),
	}

	for _, sc := range pc.Sensors {
		kind, err := neural.ParseSignalKind(sc.Kind)
		if err != nil {
			return nil, fmt.Errorf("population %q: %w", pc.Name, err)
		}
		p.sensors = append(p.sensors, sensorTemplate{
			kind: kind,
			offX: float32(sc.OffX),
			offY: float32(sc.OffY),
		})
	}
	for _, ec := range pc.Effectors {
		p.effectors = append(p.effectors, effectorTemplate{
			offX: float32(ec.OffX),
			offY: float32(ec.OffY),
		})
	}
	if len(p.effectors) < 2 {
		return nil, fmt.Errorf("population %q: needs left and right wheel effectors", pc.Name)
	}

	if pc.Emitter.Intensity > 0 && pc.Emitter.Radius > 0 {
		kind, err := neural.ParseSignalKind(pc.Emitter.Kind)
		if err != nil {
			return nil, fmt.Errorf("population %q emitter: %w", pc.Name, err)
		}
		p.emitter = components.Emitter{
			Kind:      kind,
			Radius:    float32(pc.Emitter.Radius),
			Intensity: float32(pc.Emitter.Intensity),
		}
	}

	p.prototype = neural.NewFounderGenome(p.registry, len(p.sensors), len(p.effectors))
	return p, nil
}

// founderBrain clones the prototype and instantiates it with randomized
// parameters. Cloning keeps every founder's gene ids identical.
func (p *Population) founderBrain(rng *rand.Rand) (*neural.Genome, *neural.Circuit, error) {
	g := p.prototype.Clone()
	c, err := neural.Connect(g)
	if err != nil {
		return nil, nil, fmt.Errorf("population %q founder: %w", p.name, err)
	}
	c.RandomizeParams(rng)
	return g, c, nil
}

// bindDevices builds the population's sensor and effector sets bound to a
// genome's terminal neurons. Terminal gene order is fixed at founding, so
// index i always maps to the same device across the lineage.
func (p *Population) bindDevices(g *neural.Genome) ([]neural.Sensor, []neural.Effector) {
	sensors := make([]neural.Sensor, len(p.sensors))
	for i, t := range p.sensors {
		sensors[i] = neural.Sensor{
			Kind:     t.kind,
			OffX:     t.offX,
			OffY:     t.offY,
			NeuronID: g.Inputs[i].ID,
		}
	}
	effectors := make([]neural.Effector, len(p.effectors))
	for i, t := range p.effectors {
		effectors[i] = neural.Effector{
			OffX:     t.offX,
			OffY:     t.offY,
			NeuronID: g.Outputs[i].ID,
		}
	}
	return sensors, effectors
}

// tournament picks the fittest of k uniformly drawn members.
func (p *Population) tournament(agents []*components.Agent, k int, rng *rand.Rand) *components.Agent {
	best := agents[rng.Intn(len(agents))]
	for i := 1; i < k; i++ {
		c := agents[rng.Intn(len(agents))]
		if c.Fitness > best.Fitness {
			best = c
		}
	}
	return best
}

// champion returns the member with the highest fitness.
func (p *Population) champion(agents []*components.Agent) *components.Agent {
	best := agents[0]
	for _, a := range agents[1:] {
		if a.Fitness > best.Fitness {
			best = a
		}
	}
	return best
}

// nextBrains breeds the next generation of genomes and circuits from the
// scored cohort. The first elites slots are exact copies of the champion;
// the rest come from tournament-selected crossover. All offspring are
// rebalanced to the cohort's tallest layer schema so homologous genes sit
// at the same depth population-wide.
func (p *Population) nextBrains(agents []*components.Agent, ev config.EvolutionConfig, rates neural.MutationRates, rng *rand.Rand) ([]neural.Offspring, error) {
	champ := p.champion(agents)
	champParent := neural.Parent{Genome: champ.Genome, Circuit: champ.Circuit}

	offspring := make([]neural.Offspring, len(agents))
	for i := range agents {
		if i < ev.Elites {
			// Self-crossover with zero rates reproduces the champion
			// exactly: every gene matches and both coin sides carry the
			// same parameters.
			o, err := neural.Crossover(champParent, champParent, neural.MutationRates{}, p.registry, rng)
			if err != nil {
				return nil, fmt.Errorf("population %q elite: %w", p.name, err)
			}
			offspring[i] = o
			continue
		}
		a := p.tournament(agents, ev.TournamentSize, rng)
		b := p.tournament(agents, ev.TournamentSize, rng)
		o, err := neural.Crossover(
			neural.Parent{Genome: a.Genome, Circuit: a.Circuit},
			neural.Parent{Genome: b.Genome, Circuit: b.Circuit},
			rates, p.registry, rng,
		)
		if err != nil {
			return nil, fmt.Errorf("population %q crossover: %w", p.name, err)
		}
		offspring[i] = o
	}

	// Align the cohort to the tallest schema.
	tallest := 0
	for _, o := range offspring {
		if lc := o.Genome.LayerCount(); lc > tallest {
			tallest = lc
		}
	}
	for _, o := range offspring {
		if o.Genome.LayerCount() < tallest {
			o.Genome.RaiseOutputs(tallest - 1)
			o.Circuit.Balance(o.Genome)
		}
	}
	return offspring, nil
}
