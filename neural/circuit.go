package neural

import (
	"fmt"
	"math/rand"
	"sort"
)

// Neuron is the runtime form of a neuron gene. Kind is the closed variant
// tag: input neurons take their activation from a bound sensor, output
// neurons hand theirs to a bound effector, hidden neurons compute it from
// incoming synapses. Bias and threshold are unused for inputs.
type Neuron struct {
	ID        int
	Kind      NeuronKind
	Layer     int
	Bias      float32
	Threshold float32

	// Activation is the last computed (or sensed) value.
	Activation float32

	// DisplayX/DisplayY are non-functional positions for renderers,
	// interpolated between the input and output layer extents.
	DisplayX float32
	DisplayY float32

	incoming []*Synapse
}

// Incoming returns the synapses feeding this neuron. Read-only view for
// renderers and inspection.
func (n *Neuron) Incoming() []*Synapse {
	return n.incoming
}

// computeActivation evaluates the weighted sum of incoming activations plus
// bias and applies the thresholded response. Input neurons keep their
// externally driven activation.
func (n *Neuron) computeActivation() {
	if n.Kind == NeuronInput {
		return
	}
	sum := n.Bias
	for _, s := range n.incoming {
		sum += s.Weight * s.From.Activation
	}
	n.Activation = response(sum, n.Threshold)
}

// response is the neuron transfer function: silent below the threshold,
// saturating tanh above it. Output range [0, 1).
func response(x, threshold float32) float32 {
	if x < threshold {
		return 0
	}
	return tanh32(x - threshold)
}

// tanh32 is a fast rational tanh approximation (soup's brain uses the same
// trick); exact at 0 and clamped past |x| > 4.
func tanh32(x float32) float32 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

// Synapse is the runtime form of an enabled synapse gene. From and To are
// references into the owning circuit; the gene ID ties it back to the
// genome for crossover weight resolution.
type Synapse struct {
	ID     int
	Weight float32
	From   *Neuron
	To     *Neuron
}

// Circuit owns all runtime neurons and synapses instantiated from one
// genome. Layers bucket neurons by topological rank; Layers[i] holds
// exactly the neurons whose layer is i. A circuit is strictly derived
// state: rebuild it whenever the genome's structure changes.
type Circuit struct {
	Layers  [][]*Neuron
	inputs  []*Neuron // ordered 1:1 with sensors
	outputs []*Neuron // ordered 1:1 with effectors

	neurons  map[int]*Neuron
	synapses []*Synapse
}

// Connect instantiates a runtime circuit from a finished genome. Every
// synapse gene must resolve to present neuron genes; a dangling endpoint is
// a construction-time contract violation and fails fast. Disabled genes
// produce no runtime synapse.
func Connect(g *Genome) (*Circuit, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("connecting circuit: %w", err)
	}

	c := &Circuit{
		Layers:  make([][]*Neuron, g.LayerCount()),
		neurons: make(map[int]*Neuron),
	}

	add := func(gene NeuronGene) *Neuron {
		n := &Neuron{ID: gene.ID, Kind: gene.Kind, Layer: gene.Layer}
		c.neurons[n.ID] = n
		c.Layers[n.Layer] = append(c.Layers[n.Layer], n)
		return n
	}
	for _, gene := range g.Inputs {
		c.inputs = append(c.inputs, add(gene))
	}
	for _, gene := range g.Outputs {
		c.outputs = append(c.outputs, add(gene))
	}
	for _, gene := range g.Hidden {
		add(gene)
	}

	for _, gene := range g.Synapses {
		if !gene.Enabled {
			continue
		}
		from := c.neurons[gene.From]
		to := c.neurons[gene.To]
		if from == nil || to == nil {
			return nil, fmt.Errorf("connecting circuit: synapse gene %d references missing neuron", gene.ID)
		}
		s := &Synapse{ID: gene.ID, From: from, To: to}
		to.incoming = append(to.incoming, s)
		c.synapses = append(c.synapses, s)
	}
	sort.Slice(c.synapses, func(i, j int) bool { return c.synapses[i].ID < c.synapses[j].ID })

	c.layoutDisplay()
	return c, nil
}

// NumInputs returns the sensor-bound neuron count.
func (c *Circuit) NumInputs() int { return len(c.inputs) }

// NumOutputs returns the effector-bound neuron count.
func (c *Circuit) NumOutputs() int { return len(c.outputs) }

// Neuron returns the runtime neuron with the given gene ID.
func (c *Circuit) Neuron(id int) *Neuron { return c.neurons[id] }

// Synapses returns the runtime synapses in ascending gene-ID order.
func (c *Circuit) Synapses() []*Synapse { return c.synapses }

// Synapse returns the runtime synapse with the given gene ID, or nil if the
// gene is absent or disabled.
func (c *Circuit) Synapse(id int) *Synapse {
	i := sort.Search(len(c.synapses), func(i int) bool { return c.synapses[i].ID >= id })
	if i < len(c.synapses) && c.synapses[i].ID == id {
		return c.synapses[i]
	}
	return nil
}

// LoadSensors writes sensed activations into the input neurons, in the
// declared sensor order. Must run before Process each tick.
func (c *Circuit) LoadSensors(activations []float32) error {
	if len(activations) != len(c.inputs) {
		return fmt.Errorf("loading sensors: got %d activations for %d input neurons",
			len(activations), len(c.inputs))
	}
	for i, n := range c.inputs {
		n.Activation = activations[i]
	}
	return nil
}

// Process evaluates all non-input neurons in ascending layer order. Layer
// order is sufficient because construction enforces from.Layer < to.Layer
// for every synapse. Empty layers are skipped without fault.
func (c *Circuit) Process() {
	for li := 1; li < len(c.Layers); li++ {
		for _, n := range c.Layers[li] {
			n.computeActivation()
		}
	}
}

// ReadOutputs returns the output-neuron activations in effector order.
func (c *Circuit) ReadOutputs() []float32 {
	out := make([]float32, len(c.outputs))
	for i, n := range c.outputs {
		out[i] = n.Activation
	}
	return out
}

// Balance re-buckets this circuit against the genome after the population's
// layer schema grew: each output neuron whose gene layer no longer matches
// its runtime layer is relocated into the correct bucket, creating empty
// buckets as needed. Keeps structurally divergent peers comparable under
// one schema.
func (c *Circuit) Balance(g *Genome) {
	for _, gene := range g.Outputs {
		n := c.neurons[gene.ID]
		if n == nil || n.Layer == gene.Layer {
			continue
		}
		old := c.Layers[n.Layer]
		for i, m := range old {
			if m == n {
				c.Layers[n.Layer] = append(old[:i], old[i+1:]...)
				break
			}
		}
		for len(c.Layers) <= gene.Layer {
			c.Layers = append(c.Layers, nil)
		}
		n.Layer = gene.Layer
		c.Layers[gene.Layer] = append(c.Layers[gene.Layer], n)
	}
	c.layoutDisplay()
}

// RandomizeParams draws fresh parameters for every synapse and non-input
// neuron: weight ~ U(-1,1), bias ~ U(-1,1), threshold ~ U(0,1). Used for
// population founders, which share structure but not parameters.
func (c *Circuit) RandomizeParams(rng *rand.Rand) {
	for _, s := range c.synapses {
		s.Weight = uniform(rng, -1, 1)
	}
	// Sorted ids keep the draw order independent of map iteration.
	for _, id := range sortedNeuronIDs(c) {
		n := c.neurons[id]
		if n.Kind == NeuronInput {
			continue
		}
		n.Bias = uniform(rng, -1, 1)
		n.Threshold = uniform(rng, 0, 1)
	}
}

// layoutDisplay assigns non-functional display positions: X interpolates
// linearly from the input layer (0) to the output layer (1), Y spreads
// neurons evenly within their layer.
func (c *Circuit) layoutDisplay() {
	span := float32(len(c.Layers) - 1)
	if span <= 0 {
		span = 1
	}
	for li, layer := range c.Layers {
		if len(layer) == 0 {
			continue
		}
		x := float32(li) / span
		for i, n := range layer {
			n.DisplayX = x
			n.DisplayY = (float32(i) + 0.5) / float32(len(layer))
		}
	}
}

func uniform(rng *rand.Rand, lo, hi float32) float32 {
	return lo + rng.Float32()*(hi-lo)
}
