// Package systems implements the per-tick numeric models that act on ECS
// components: differential-drive kinematics and the tag-specific fitness
// scoring.
package systems

import (
	"math"
	"math/rand"

	"github.com/evolab/petri/components"
	"github.com/evolab/petri/neural"
)

// thetaEps below which a drive step is treated as straight-line motion.
const thetaEps = 1e-6

// Drive advances a body one tick from its two wheel effectors using exact
// differential-drive integration. Each wheel displacement is independently
// perturbed by multiplicative Gaussian noise. Returns the mean displacement
// and the heading change for fitness scoring.
//
// A non-positive wheel separation means the geometry cannot turn; the step
// degrades to straight translation instead of dividing by zero.
func Drive(body *components.Body, left, right *neural.Effector, dt, noiseSigma float32, rng *rand.Rand) (forward, turn float32) {
	dl := left.Velocity * dt
	dr := right.Velocity * dt
	if noiseSigma > 0 {
		dl *= 1 + float32(rng.NormFloat64())*noiseSigma
		dr *= 1 + float32(rng.NormFloat64())*noiseSigma
	}

	dAvg := (dl + dr) / 2
	var theta float32
	if body.WheelSeparation > 0 {
		theta = (dl - dr) / body.WheelSeparation
	}

	sin, cos := sincos32(body.Heading)
	if theta > -thetaEps && theta < thetaEps {
		body.X += dAvg * cos
		body.Y += dAvg * sin
		return dAvg, 0
	}

	// Arc of radius r = dAvg/theta: chord endpoint in the body frame is
	// (r sin theta, r (1 - cos theta)), rotated into the world frame.
	r := dAvg / theta
	st, ct := sincos32(theta)
	lx := r * st
	ly := r * (1 - ct)
	body.X += lx*cos - ly*sin
	body.Y += lx*sin + ly*cos
	body.Heading = normalizeAngle(body.Heading + theta)
	return dAvg, theta
}

// normalizeAngle wraps angle to [-pi, pi].
func normalizeAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func sincos32(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}
