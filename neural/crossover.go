package neural

import (
	"fmt"
	"math/rand"
	"sort"
)

// MutationRates carries the population-level mutation probabilities applied
// during reproduction. AddSynapse/AddNeuron are structural, the rest are
// independent per-parameter re-roll probabilities.
type MutationRates struct {
	AddSynapse float64 `yaml:"add_synapse"`
	AddNeuron  float64 `yaml:"add_neuron"`
	Weight     float64 `yaml:"weight"`
	Bias       float64 `yaml:"bias"`
	Threshold  float64 `yaml:"threshold"`
}

// Parent bundles one parent's genome with the circuit carrying its runtime
// weights, biases and thresholds.
type Parent struct {
	Genome  *Genome
	Circuit *Circuit
}

// Offspring is a crossover result: a finished genome and the circuit built
// from it with all parameters resolved and mutated.
type Offspring struct {
	Genome  *Genome
	Circuit *Circuit
}

// maxLinkAttempts bounds the random search for a new unconnected pair.
const maxLinkAttempts = 20

// Crossover produces a child from two parents of the same population.
//
// Synapse genes are aligned by stable identity over the sorted union of
// both parents' gene IDs: a gene present in both ("matching") is inherited
// from one parent by a single unbiased coin flip, together with its neuron
// endpoints; a gene present in only one ("disjoint/excess") is inherited
// unconditionally from its sole owner. Iterating the ID set once makes
// duplicate inheritance impossible regardless of gene order in either
// parent.
//
// Structural mutation then adds genes with fresh registry IDs, the child
// circuit is built, parameters are resolved from the contributing parent
// (novel genes draw weight~U(-1,1), bias~U(-1,1), threshold~U(0,1)), and
// independent parametric re-rolls are applied.
//
// Deterministic for a fixed rng; neither parent is ever modified.
func Crossover(a, b Parent, rates MutationRates, reg *GeneRegistry, rng *rand.Rand) (Offspring, error) {
	if err := checkParents(a, b); err != nil {
		return Offspring{}, err
	}

	child := &Genome{
		Inputs:  make([]NeuronGene, len(a.Genome.Inputs)),
		Outputs: make([]NeuronGene, len(a.Genome.Outputs)),
	}
	copy(child.Inputs, a.Genome.Inputs)
	copy(child.Outputs, a.Genome.Outputs)

	// Child schema spans the taller parent; outputs sit at its top layer.
	top := a.Genome.LayerCount()
	if lb := b.Genome.LayerCount(); lb > top {
		top = lb
	}
	child.RaiseOutputs(top - 1)

	aSyn := synapseIndex(a.Genome)
	bSyn := synapseIndex(b.Genome)

	// origin records which parent contributed each inherited synapse gene.
	origin := make(map[int]Parent, len(aSyn)+len(bSyn))

	for _, id := range unionIDs(aSyn, bSyn) {
		ga, inA := aSyn[id]
		gb, inB := bSyn[id]
		var gene SynapseGene
		var from Parent
		switch {
		case inA && inB:
			if rng.Float64() < 0.5 {
				gene, from = ga, a
			} else {
				gene, from = gb, b
			}
		case inA:
			gene, from = ga, a
		default:
			gene, from = gb, b
		}
		inheritNeuron(child, from.Genome, gene.From)
		inheritNeuron(child, from.Genome, gene.To)
		child.Synapses = append(child.Synapses, gene)
		origin[id] = from
	}

	// Parents may have shifted a shared hidden gene onto different layers
	// in their own lineages; monotone repair restores from < to everywhere.
	repairLayers(child)

	if rng.Float64() < rates.AddSynapse {
		addSynapseGene(child, reg, rng)
	}
	if rng.Float64() < rates.AddNeuron {
		splitSynapseGene(child, reg, rng)
	}

	circuit, err := Connect(child)
	if err != nil {
		return Offspring{}, fmt.Errorf("crossover: %w", err)
	}

	resolveParams(circuit, origin, a, b, rng)
	mutateParams(circuit, rates, rng)

	return Offspring{Genome: child, Circuit: circuit}, nil
}

// checkParents verifies that both parents describe the same terminal
// interface: identical ordered input and output gene IDs.
func checkParents(a, b Parent) error {
	if len(a.Genome.Inputs) != len(b.Genome.Inputs) || len(a.Genome.Outputs) != len(b.Genome.Outputs) {
		return fmt.Errorf("crossover: parents disagree on terminal counts (%d/%d inputs, %d/%d outputs)",
			len(a.Genome.Inputs), len(b.Genome.Inputs), len(a.Genome.Outputs), len(b.Genome.Outputs))
	}
	for i := range a.Genome.Inputs {
		if a.Genome.Inputs[i].ID != b.Genome.Inputs[i].ID {
			return fmt.Errorf("crossover: input gene %d differs between parents", i)
		}
	}
	for i := range a.Genome.Outputs {
		if a.Genome.Outputs[i].ID != b.Genome.Outputs[i].ID {
			return fmt.Errorf("crossover: output gene %d differs between parents", i)
		}
	}
	return nil
}

func synapseIndex(g *Genome) map[int]SynapseGene {
	idx := make(map[int]SynapseGene, len(g.Synapses))
	for _, s := range g.Synapses {
		idx[s.ID] = s
	}
	return idx
}

// unionIDs returns the sorted union of both parents' synapse-gene IDs.
// Sorting keeps the coin-flip sequence deterministic for a fixed rng.
func unionIDs(a, b map[int]SynapseGene) []int {
	ids := make([]int, 0, len(a)+len(b))
	for id := range a {
		ids = append(ids, id)
	}
	for id := range b {
		if _, dup := a[id]; !dup {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// inheritNeuron copies the neuron gene with the given ID from the donor
// into the child unless the child already carries it. Terminal genes are
// pre-seeded, so only hidden genes ever transfer here.
func inheritNeuron(child, donor *Genome, id int) {
	if _, ok := child.Neuron(id); ok {
		return
	}
	gene, ok := donor.Neuron(id)
	if !ok || gene.Kind != NeuronHidden {
		return
	}
	child.Hidden = append(child.Hidden, gene)
}

// repairLayers restores from.Layer < to.Layer by raising offending targets,
// never lowering anything, so non-conflicting inherited layers stay put.
// Hidden neurons are raised individually; outputs are raised as a block to
// stay on one top layer. A no-op for consistent genomes.
func repairLayers(g *Genome) {
	limit := len(g.Hidden) + len(g.Outputs) + 2
	for pass := 0; pass < limit; pass++ {
		changed := false
		for _, s := range g.Synapses {
			from, _ := g.Neuron(s.From)
			to, _ := g.Neuron(s.To)
			if from.Layer < to.Layer {
				continue
			}
			if to.Kind == NeuronOutput {
				g.RaiseOutputs(from.Layer + 1)
			} else {
				for i := range g.Hidden {
					if g.Hidden[i].ID == to.ID {
						g.Hidden[i].Layer = from.Layer + 1
						break
					}
				}
			}
			changed = true
		}
		if !changed {
			break
		}
	}
	// Outputs always cap the schema, above every hidden neuron.
	topHidden := 0
	for _, h := range g.Hidden {
		if h.Layer > topHidden {
			topHidden = h.Layer
		}
	}
	if len(g.Outputs) > 0 && g.Outputs[0].Layer <= topHidden {
		g.RaiseOutputs(topHidden + 1)
	}
}

// addSynapseGene connects two previously unconnected neurons on distinct
// layers, oriented lower to higher. Gives up after maxLinkAttempts random
// picks, which keeps dense genomes from spinning.
func addSynapseGene(g *Genome, reg *GeneRegistry, rng *rand.Rand) bool {
	neurons := g.Neurons()
	if len(neurons) < 2 {
		return false
	}
	for attempt := 0; attempt < maxLinkAttempts; attempt++ {
		n1 := neurons[rng.Intn(len(neurons))]
		n2 := neurons[rng.Intn(len(neurons))]
		if n1.Layer == n2.Layer {
			continue
		}
		if n1.Layer > n2.Layer {
			n1, n2 = n2, n1
		}
		if g.HasConnection(n1.ID, n2.ID) {
			continue
		}
		g.Synapses = append(g.Synapses, SynapseGene{
			ID:      reg.NextSynapseID(),
			From:    n1.ID,
			To:      n2.ID,
			Enabled: true,
		})
		return true
	}
	return false
}

// splitSynapseGene adds a hidden neuron by splitting a random enabled
// synapse: the original gene is disabled and replaced by two fresh genes
// through the new neuron. When the split spans adjacent layers a new layer
// is inserted, growing the genome's schema; the population notices via
// LayerCount and rebalances its peers.
func splitSynapseGene(g *Genome, reg *GeneRegistry, rng *rand.Rand) bool {
	enabled := make([]int, 0, len(g.Synapses))
	for i, s := range g.Synapses {
		if s.Enabled {
			enabled = append(enabled, i)
		}
	}
	if len(enabled) == 0 {
		return false
	}
	si := enabled[rng.Intn(len(enabled))]
	split := g.Synapses[si]
	from, _ := g.Neuron(split.From)
	to, _ := g.Neuron(split.To)

	var layer int
	if to.Layer-from.Layer >= 2 {
		layer = from.Layer + 1
	} else {
		g.insertLayer(to.Layer)
		layer = to.Layer
	}

	g.Synapses[si].Enabled = false
	hidden := NeuronGene{ID: reg.NextNeuronID(), Kind: NeuronHidden, Layer: layer}
	g.Hidden = append(g.Hidden, hidden)
	g.Synapses = append(g.Synapses,
		SynapseGene{ID: reg.NextSynapseID(), From: split.From, To: hidden.ID, Enabled: true},
		SynapseGene{ID: reg.NextSynapseID(), From: hidden.ID, To: split.To, Enabled: true},
	)
	return true
}

// resolveParams fills the child circuit's parameters. Neurons first take
// their bias/threshold from parent a, then b, then fresh uniform draws;
// each synapse then resolves its weight and its destination's bias and
// threshold from whichever parent contributed the gene, in ascending gene
// ID order so repeated runs with one rng agree.
func resolveParams(c *Circuit, origin map[int]Parent, a, b Parent, rng *rand.Rand) {
	for _, id := range sortedNeuronIDs(c) {
		n := c.Neuron(id)
		if n.Kind == NeuronInput {
			continue
		}
		if pn := a.Circuit.Neuron(id); pn != nil {
			n.Bias, n.Threshold = pn.Bias, pn.Threshold
		} else if pn := b.Circuit.Neuron(id); pn != nil {
			n.Bias, n.Threshold = pn.Bias, pn.Threshold
		} else {
			n.Bias = uniform(rng, -1, 1)
			n.Threshold = uniform(rng, 0, 1)
		}
	}

	for _, s := range c.Synapses() {
		parent, inherited := origin[s.ID]
		if !inherited {
			s.Weight = uniform(rng, -1, 1)
			continue
		}
		ps := parent.Circuit.Synapse(s.ID)
		if ps != nil {
			s.Weight = ps.Weight
		} else {
			// Gene was disabled in the parent, so no runtime weight
			// survived; treat it as novel.
			s.Weight = uniform(rng, -1, 1)
		}
		if pd := parent.Circuit.Neuron(s.To.ID); pd != nil {
			s.To.Bias, s.To.Threshold = pd.Bias, pd.Threshold
		}
	}
}

// mutateParams applies independent parametric re-rolls: per-synapse weight,
// per-non-input-neuron bias and threshold, each with its own rate.
func mutateParams(c *Circuit, rates MutationRates, rng *rand.Rand) {
	for _, s := range c.Synapses() {
		if rng.Float64() < rates.Weight {
			s.Weight = uniform(rng, -1, 1)
		}
	}
	for _, id := range sortedNeuronIDs(c) {
		n := c.Neuron(id)
		if n.Kind == NeuronInput {
			continue
		}
		if rng.Float64() < rates.Bias {
			n.Bias = uniform(rng, -1, 1)
		}
		if rng.Float64() < rates.Threshold {
			n.Threshold = uniform(rng, 0, 1)
		}
	}
}

func sortedNeuronIDs(c *Circuit) []int {
	ids := make([]int, 0, len(c.neurons))
	for id := range c.neurons {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
