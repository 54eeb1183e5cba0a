// Package neural implements the evolvable neural circuits that control
// creatures: gene-level genomes, identity-aligned crossover and mutation,
// and the layered runtime circuits instantiated from them.
package neural

import (
	"fmt"
)

// NeuronKind discriminates the three neuron variants.
type NeuronKind uint8

const (
	NeuronInput NeuronKind = iota
	NeuronHidden
	NeuronOutput
)

// String returns a human-readable kind name.
func (k NeuronKind) String() string {
	switch k {
	case NeuronInput:
		return "input"
	case NeuronHidden:
		return "hidden"
	case NeuronOutput:
		return "output"
	}
	return "unknown"
}

// NeuronGene describes one neuron of a genome. The ID is a stable identity
// issued once by the GeneRegistry; homologous neurons share the same ID
// across genomes. Layer is the topological rank: inputs sit at layer 0,
// outputs at the top layer of the population schema.
type NeuronGene struct {
	ID    int
	Kind  NeuronKind
	Layer int
}

// SynapseGene describes one directed connection between two neuron genes.
// From and To are neuron-gene IDs. A disabled gene stays in the genome for
// identity alignment but produces no runtime synapse.
type SynapseGene struct {
	ID      int
	From    int
	To      int
	Enabled bool
}

// Genome is the gene-level description of a circuit. Inputs and Outputs are
// ordered and bind 1:1 to the owning agent's sensors and effectors.
type Genome struct {
	Inputs   []NeuronGene
	Outputs  []NeuronGene
	Hidden   []NeuronGene
	Synapses []SynapseGene
}

// Neuron returns the neuron gene with the given ID.
func (g *Genome) Neuron(id int) (NeuronGene, bool) {
	for _, n := range g.Inputs {
		if n.ID == id {
			return n, true
		}
	}
	for _, n := range g.Outputs {
		if n.ID == id {
			return n, true
		}
	}
	for _, n := range g.Hidden {
		if n.ID == id {
			return n, true
		}
	}
	return NeuronGene{}, false
}

// Synapse returns the synapse gene with the given ID.
func (g *Genome) Synapse(id int) (SynapseGene, bool) {
	for _, s := range g.Synapses {
		if s.ID == id {
			return s, true
		}
	}
	return SynapseGene{}, false
}

// HasConnection reports whether any synapse gene (enabled or not) already
// links from -> to.
func (g *Genome) HasConnection(from, to int) bool {
	for _, s := range g.Synapses {
		if s.From == from && s.To == to {
			return true
		}
	}
	return false
}

// Neurons returns all neuron genes: inputs, then outputs, then hidden.
func (g *Genome) Neurons() []NeuronGene {
	all := make([]NeuronGene, 0, len(g.Inputs)+len(g.Outputs)+len(g.Hidden))
	all = append(all, g.Inputs...)
	all = append(all, g.Outputs...)
	all = append(all, g.Hidden...)
	return all
}

// LayerCount returns the number of topological layers (max layer + 1).
func (g *Genome) LayerCount() int {
	max := 0
	for _, n := range g.Neurons() {
		if n.Layer > max {
			max = n.Layer
		}
	}
	return max + 1
}

// RaiseOutputs moves every output gene to the given layer. The population
// calls this when a peer's mutation grew the shared layer schema; the
// circuit is re-bucketed afterwards with Circuit.Balance.
func (g *Genome) RaiseOutputs(layer int) {
	for i := range g.Outputs {
		g.Outputs[i].Layer = layer
	}
}

// insertLayer shifts every neuron at or above the given layer up by one,
// opening an empty layer for a split. Relative layer order is preserved, so
// every synapse keeps from.Layer < to.Layer.
func (g *Genome) insertLayer(at int) {
	bump := func(genes []NeuronGene) {
		for i := range genes {
			if genes[i].Layer >= at {
				genes[i].Layer++
			}
		}
	}
	bump(g.Inputs)
	bump(g.Outputs)
	bump(g.Hidden)
}

// Clone returns a deep copy sharing no slices with the original.
func (g *Genome) Clone() *Genome {
	c := &Genome{
		Inputs:   make([]NeuronGene, len(g.Inputs)),
		Outputs:  make([]NeuronGene, len(g.Outputs)),
		Hidden:   make([]NeuronGene, len(g.Hidden)),
		Synapses: make([]SynapseGene, len(g.Synapses)),
	}
	copy(c.Inputs, g.Inputs)
	copy(c.Outputs, g.Outputs)
	copy(c.Hidden, g.Hidden)
	copy(c.Synapses, g.Synapses)
	return c
}

// Validate checks every genome invariant: unique neuron and synapse IDs,
// kind/layer consistency, and resolvable synapse endpoints with
// from.Layer < to.Layer.
func (g *Genome) Validate() error {
	seen := make(map[int]NeuronGene, len(g.Inputs)+len(g.Outputs)+len(g.Hidden))
	check := func(n NeuronGene, kind NeuronKind) error {
		if n.Kind != kind {
			return fmt.Errorf("neuron gene %d: kind %s listed as %s", n.ID, n.Kind, kind)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("duplicate neuron gene id %d", n.ID)
		}
		seen[n.ID] = n
		return nil
	}
	for _, n := range g.Inputs {
		if err := check(n, NeuronInput); err != nil {
			return err
		}
		if n.Layer != 0 {
			return fmt.Errorf("input gene %d: layer %d, want 0", n.ID, n.Layer)
		}
	}
	top := g.LayerCount() - 1
	for _, n := range g.Outputs {
		if err := check(n, NeuronOutput); err != nil {
			return err
		}
		if n.Layer != top {
			return fmt.Errorf("output gene %d: layer %d, want top layer %d", n.ID, n.Layer, top)
		}
	}
	for _, n := range g.Hidden {
		if err := check(n, NeuronHidden); err != nil {
			return err
		}
	}

	synSeen := make(map[int]bool, len(g.Synapses))
	for _, s := range g.Synapses {
		if synSeen[s.ID] {
			return fmt.Errorf("duplicate synapse gene id %d", s.ID)
		}
		synSeen[s.ID] = true
		from, ok := seen[s.From]
		if !ok {
			return fmt.Errorf("synapse gene %d: missing source neuron gene %d", s.ID, s.From)
		}
		to, ok := seen[s.To]
		if !ok {
			return fmt.Errorf("synapse gene %d: missing target neuron gene %d", s.ID, s.To)
		}
		if from.Layer >= to.Layer {
			return fmt.Errorf("synapse gene %d: source layer %d not below target layer %d",
				s.ID, from.Layer, to.Layer)
		}
	}
	return nil
}

// NewFounderGenome builds the minimal founder prototype: numIn input genes
// at layer 0 fully connected to numOut output genes at layer 1. Founders of
// one population clone the same prototype so their genes stay homologous;
// per-founder variety comes from randomized circuit parameters, not
// structure.
func NewFounderGenome(reg *GeneRegistry, numIn, numOut int) *Genome {
	g := &Genome{
		Inputs:  make([]NeuronGene, 0, numIn),
		Outputs: make([]NeuronGene, 0, numOut),
	}
	for i := 0; i < numIn; i++ {
		g.Inputs = append(g.Inputs, NeuronGene{ID: reg.NextNeuronID(), Kind: NeuronInput, Layer: 0})
	}
	for i := 0; i < numOut; i++ {
		g.Outputs = append(g.Outputs, NeuronGene{ID: reg.NextNeuronID(), Kind: NeuronOutput, Layer: 1})
	}
	for _, in := range g.Inputs {
		for _, out := range g.Outputs {
			g.Synapses = append(g.Synapses, SynapseGene{
				ID:      reg.NextSynapseID(),
				From:    in.ID,
				To:      out.ID,
				Enabled: true,
			})
		}
	}
	return g
}
