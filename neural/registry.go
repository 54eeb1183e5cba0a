package neural

// GeneRegistry issues stable gene identities. One registry is shared by a
// whole population (owned by the generation loop) so that structurally
// homologous genes carry the same ID across genomes and can be aligned
// during crossover. Not safe for concurrent use; the tick model is
// single-threaded.
type GeneRegistry struct {
	nextNeuron  int
	nextSynapse int
}

// NewGeneRegistry creates a registry with IDs starting at 1.
func NewGeneRegistry() *GeneRegistry {
	return &GeneRegistry{nextNeuron: 1, nextSynapse: 1}
}

// NextNeuronID returns a fresh neuron-gene identity.
func (r *GeneRegistry) NextNeuronID() int {
	id := r.nextNeuron
	r.nextNeuron++
	return id
}

// NextSynapseID returns a fresh synapse-gene identity.
func (r *GeneRegistry) NextSynapseID() int {
	id := r.nextSynapse
	r.nextSynapse++
	return id
}
