package neural

import (
	"math/rand"
	"testing"
)

func TestConnectBucketsNeuronsByLayer(t *testing.T) {
	reg := NewGeneRegistry()
	g := NewFounderGenome(reg, 2, 3)

	c, err := Connect(g)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if len(c.Layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(c.Layers))
	}
	if len(c.Layers[0]) != 2 || len(c.Layers[1]) != 3 {
		t.Errorf("layer sizes %d/%d, want 2/3", len(c.Layers[0]), len(c.Layers[1]))
	}
	for li, layer := range c.Layers {
		for _, n := range layer {
			if n.Layer != li {
				t.Errorf("neuron %d in bucket %d but carries layer %d", n.ID, li, n.Layer)
			}
		}
	}
	if c.NumInputs() != 2 || c.NumOutputs() != 3 {
		t.Errorf("terminal counts %d/%d, want 2/3", c.NumInputs(), c.NumOutputs())
	}
}

func TestConnectFailsFastOnDanglingEndpoint(t *testing.T) {
	reg := NewGeneRegistry()
	g := NewFounderGenome(reg, 1, 1)
	g.Synapses[0].To = 424242

	if _, err := Connect(g); err == nil {
		t.Error("expected construction error for dangling endpoint")
	}
}

func TestConnectSkipsDisabledGenes(t *testing.T) {
	reg := NewGeneRegistry()
	g := NewFounderGenome(reg, 2, 1)
	g.Synapses[0].Enabled = false

	c, err := Connect(g)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if len(c.Synapses()) != 1 {
		t.Errorf("expected 1 runtime synapse, got %d", len(c.Synapses()))
	}
	if c.Synapse(g.Synapses[0].ID) != nil {
		t.Error("disabled gene produced a runtime synapse")
	}
}

func TestProcessIsDeterministic(t *testing.T) {
	reg := NewGeneRegistry()
	rng := rand.New(rand.NewSource(13))
	g := NewFounderGenome(reg, 3, 2)
	splitSynapseGene(g, reg, rng)

	c, err := Connect(g)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	c.RandomizeParams(rng)

	inputs := []float32{0.8, 0.1, 0.5}
	var first []float32
	for run := 0; run < 5; run++ {
		if err := c.LoadSensors(inputs); err != nil {
			t.Fatalf("LoadSensors failed: %v", err)
		}
		c.Process()
		out := c.ReadOutputs()
		if run == 0 {
			first = out
			continue
		}
		for i := range out {
			if out[i] != first[i] {
				t.Errorf("run %d output %d: %f, want %f", run, i, out[i], first[i])
			}
		}
	}
}

func TestProcessPropagatesThroughHiddenLayer(t *testing.T) {
	// Hand-built 1-1-1 chain with known parameters: in -> hidden -> out.
	reg := NewGeneRegistry()
	in := NeuronGene{ID: reg.NextNeuronID(), Kind: NeuronInput, Layer: 0}
	hid := NeuronGene{ID: reg.NextNeuronID(), Kind: NeuronHidden, Layer: 1}
	out := NeuronGene{ID: reg.NextNeuronID(), Kind: NeuronOutput, Layer: 2}
	g := &Genome{
		Inputs:  []NeuronGene{in},
		Outputs: []NeuronGene{out},
		Hidden:  []NeuronGene{hid},
		Synapses: []SynapseGene{
			{ID: reg.NextSynapseID(), From: in.ID, To: hid.ID, Enabled: true},
			{ID: reg.NextSynapseID(), From: hid.ID, To: out.ID, Enabled: true},
		},
	}

	c, err := Connect(g)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	for _, s := range c.Synapses() {
		s.Weight = 1
	}
	// Zero thresholds and biases: out = tanh(tanh(in)).
	if err := c.LoadSensors([]float32{1}); err != nil {
		t.Fatalf("LoadSensors failed: %v", err)
	}
	c.Process()

	want := tanh32(tanh32(1))
	got := c.ReadOutputs()[0]
	if got != want {
		t.Errorf("chain output %f, want %f", got, want)
	}
}

func TestThresholdSilencesWeakSums(t *testing.T) {
	reg := NewGeneRegistry()
	g := NewFounderGenome(reg, 1, 1)

	c, err := Connect(g)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	s := c.Synapses()[0]
	s.Weight = 1
	n := c.Neuron(g.Outputs[0].ID)
	n.Threshold = 0.9

	c.LoadSensors([]float32{0.5})
	c.Process()
	if got := c.ReadOutputs()[0]; got != 0 {
		t.Errorf("sum below threshold should yield 0, got %f", got)
	}

	c.LoadSensors([]float32{1.0})
	c.Process()
	if got := c.ReadOutputs()[0]; got <= 0 {
		t.Errorf("sum above threshold should yield positive activation, got %f", got)
	}
}

func TestLoadSensorsLengthMismatch(t *testing.T) {
	reg := NewGeneRegistry()
	g := NewFounderGenome(reg, 2, 1)
	c, err := Connect(g)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := c.LoadSensors([]float32{1}); err == nil {
		t.Error("expected error for activation count mismatch")
	}
}

func TestBalanceRelocatesOutputsIntoSchema(t *testing.T) {
	reg := NewGeneRegistry()
	g := NewFounderGenome(reg, 2, 2)
	c, err := Connect(g)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// A peer's mutation grew the population schema to 4 layers.
	g.RaiseOutputs(3)
	c.Balance(g)

	if len(c.Layers) != 4 {
		t.Fatalf("expected 4 layer buckets, got %d", len(c.Layers))
	}
	if len(c.Layers[1]) != 0 || len(c.Layers[2]) != 0 {
		t.Errorf("interior layers should be empty, got %d/%d neurons", len(c.Layers[1]), len(c.Layers[2]))
	}
	if len(c.Layers[3]) != 2 {
		t.Errorf("output bucket holds %d neurons, want 2", len(c.Layers[3]))
	}
	for _, gene := range g.Outputs {
		n := c.Neuron(gene.ID)
		if n.Layer != 3 {
			t.Errorf("output neuron %d at layer %d, want 3", n.ID, n.Layer)
		}
	}

	// Empty layers must not fault execution.
	c.LoadSensors([]float32{0.4, 0.6})
	c.Process()
}

func TestBalanceIsIdempotent(t *testing.T) {
	reg := NewGeneRegistry()
	g := NewFounderGenome(reg, 1, 1)
	c, _ := Connect(g)

	g.RaiseOutputs(2)
	c.Balance(g)
	c.Balance(g)

	if len(c.Layers[2]) != 1 {
		t.Errorf("output bucket holds %d neurons after repeated balance, want 1", len(c.Layers[2]))
	}
}

func TestDisplayPositionsInterpolateAcrossLayers(t *testing.T) {
	reg := NewGeneRegistry()
	rng := rand.New(rand.NewSource(31))
	g := NewFounderGenome(reg, 2, 2)
	splitSynapseGene(g, reg, rng)

	c, err := Connect(g)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	for _, gene := range g.Inputs {
		if x := c.Neuron(gene.ID).DisplayX; x != 0 {
			t.Errorf("input display X = %f, want 0", x)
		}
	}
	for _, gene := range g.Outputs {
		if x := c.Neuron(gene.ID).DisplayX; x != 1 {
			t.Errorf("output display X = %f, want 1", x)
		}
	}
	for _, gene := range g.Hidden {
		x := c.Neuron(gene.ID).DisplayX
		if x <= 0 || x >= 1 {
			t.Errorf("hidden display X = %f, want strictly between layer extents", x)
		}
	}
}
