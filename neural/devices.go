package neural

import (
	"fmt"
	"math"
)

// SignalKind classifies detectable signals: environment sources and the
// signal emitters carried by other creatures.
type SignalKind uint8

const (
	SignalNone SignalKind = iota
	SignalFood
	SignalHazard
	SignalLight
	SignalTraffic
	SignalPrey
	SignalPredator
	SignalCluster
)

var signalKindNames = map[string]SignalKind{
	"food":     SignalFood,
	"hazard":   SignalHazard,
	"light":    SignalLight,
	"traffic":  SignalTraffic,
	"prey":     SignalPrey,
	"predator": SignalPredator,
	"cluster":  SignalCluster,
}

// ParseSignalKind maps a config name to a SignalKind.
func ParseSignalKind(name string) (SignalKind, error) {
	if k, ok := signalKindNames[name]; ok {
		return k, nil
	}
	return SignalNone, fmt.Errorf("unknown signal kind %q", name)
}

// String returns the config name of the kind.
func (k SignalKind) String() string {
	for name, kind := range signalKindNames {
		if kind == k {
			return name
		}
	}
	return "none"
}

// Signal is one detectable entry of an environment snapshot: a food,
// hazard or light source, or another creature's emitter. Owner is the
// emitting agent's runtime ID (0 for environment sources) so creatures
// never sense their own emissions.
type Signal struct {
	Kind      SignalKind
	X, Y      float32
	Radius    float32
	Intensity float32
	Owner     uint32
}

// Pose is the body state a terminal device needs: pivot position and
// heading. The body itself is owned outside the neural package.
type Pose struct {
	X, Y    float32
	Heading float32
}

// Mount translates a body-relative offset into world space: rotated by the
// heading, translated by the pivot.
func (p Pose) Mount(offX, offY float32) (float32, float32) {
	sin, cos := sincos32(p.Heading)
	return p.X + offX*cos - offY*sin, p.Y + offX*sin + offY*cos
}

// Sensor reads one signal kind at a body-relative mount point and drives
// one input neuron. NeuronID is a non-owning back-reference into the
// agent's circuit.
type Sensor struct {
	Kind       SignalKind
	OffX, OffY float32
	NeuronID   int

	// Activation is the accumulated signal from the last Sense call.
	Activation float32
}

// Sense recomputes the sensor activation from a pre-tick environment
// snapshot: every matching-kind signal closer than its effective radius
// contributes intensity scaled by inverse-linear falloff. selfID masks the
// owning agent's own emitter. A signal with a non-positive radius can never
// satisfy the distance check, so the falloff division is always finite.
func (s *Sensor) Sense(signals []Signal, selfID uint32, body Pose) {
	s.Activation = 0
	sx, sy := body.Mount(s.OffX, s.OffY)
	for _, sig := range signals {
		if sig.Kind != s.Kind {
			continue
		}
		if sig.Owner != 0 && sig.Owner == selfID {
			continue
		}
		dx := sig.X - sx
		dy := sig.Y - sy
		dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
		if dist >= sig.Radius {
			continue
		}
		s.Activation += sig.Intensity * (1 - dist/sig.Radius)
	}
}

// Effector converts a bound output neuron's activation into wheel motor
// velocity. Velocity persists across ticks as a first-order damped
// actuator: each update adds activation-driven impulse and bleeds off a
// friction fraction.
type Effector struct {
	OffX, OffY float32
	NeuronID   int

	// Velocity is the current wheel velocity, persisting with momentum.
	Velocity float32

	activation float32
}

// SetActivation stores the bound neuron's output for the next Update.
func (e *Effector) SetActivation(a float32) {
	e.activation = a
}

// Activation returns the last value written by the bound neuron.
func (e *Effector) Activation() float32 {
	return e.activation
}

// Update advances the damped actuator one step:
//
//	v += motorStrength * activation * dt / mass
//	v -= friction * v
//
// A non-positive mass skips the drive impulse rather than producing
// non-finite velocity.
func (e *Effector) Update(dt, mass, motorStrength, friction float32) {
	if mass > 0 {
		e.Velocity += motorStrength * e.activation * dt / mass
	}
	e.Velocity -= friction * e.Velocity
}

func sincos32(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}
