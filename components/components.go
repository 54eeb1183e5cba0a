// Package components defines ECS components for the simulation.
package components

import (
	"github.com/google/uuid"

	"github.com/evolab/petri/neural"
)

// PopulationTag selects the fitness objective a population optimizes.
type PopulationTag uint8

const (
	TagTraffic PopulationTag = iota
	TagFood
	TagPrey
	TagPredator
	TagCluster
)

var tagNames = [...]string{"traffic", "food", "prey", "predator", "cluster"}

// String returns the config name of the tag.
func (t PopulationTag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "unknown"
}

// ParseTag maps a config name to a PopulationTag.
func ParseTag(name string) (PopulationTag, bool) {
	for i, n := range tagNames {
		if n == name {
			return PopulationTag(i), true
		}
	}
	return 0, false
}

// Body owns an agent's physical state: pivot position, heading, mass and
// the differential-drive geometry. The neural core writes pivot/heading
// deltas and reads pose and mass; boundary handling lives in the sim loop.
type Body struct {
	X, Y    float32 // pivot position
	Heading float32 // radians
	Mass    float32

	// AxleOffX/AxleOffY locate the wheel axle relative to the pivot; the
	// agent's reported position is the axle point rotated by heading.
	AxleOffX, AxleOffY float32
	WheelSeparation    float32
}

// Pose returns the body state the neural devices need.
func (b *Body) Pose() neural.Pose {
	return neural.Pose{X: b.X, Y: b.Y, Heading: b.Heading}
}

// Position returns the agent's world position: pivot plus the axle offset
// rotated by the current heading.
func (b *Body) Position() (float32, float32) {
	return b.Pose().Mount(b.AxleOffX, b.AxleOffY)
}

// Emitter makes an agent detectable by peers' sensors. Intensity 0 keeps
// the agent silent; every agent carries the component so populations can
// toggle emission through config alone.
type Emitter struct {
	Kind      neural.SignalKind
	Radius    float32
	Intensity float32
}

// Silent reports whether the emitter produces no signal.
func (e *Emitter) Silent() bool {
	return e.Intensity <= 0 || e.Radius <= 0
}

// Agent aggregates one creature's evolvable state: genome, the circuit
// derived from it, terminal devices and the lifetime fitness accumulator.
// The agent owns its subgraph; sensors and effectors refer back into the
// circuit only by neuron ID.
type Agent struct {
	// ID is the in-simulation identity used to mask self-sensing.
	ID uint32
	// UID is the stable lineage identity carried into telemetry.
	UID uuid.UUID

	Tag        PopulationTag
	Generation int

	Genome    *neural.Genome
	Circuit   *neural.Circuit
	Sensors   []neural.Sensor
	Effectors []neural.Effector

	// Fitness is the lifetime running total; deltas accumulate every tick
	// with no reset or decay within a generation.
	Fitness float64

	// LastForward and LastTurn record the most recent drive step for the
	// traffic fitness model.
	LastForward float32
	LastTurn    float32
}

// SignalSource is a detectable environment entity (food, hazard or light).
// Consumed sources stay in the world but drop out of snapshots until the
// factory respawns them.
type SignalSource struct {
	Kind      neural.SignalKind
	Radius    float32
	Intensity float32
	Consumed  bool
}

// Position is the world position of a non-agent entity.
type Position struct {
	X, Y float32
}
