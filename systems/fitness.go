package systems

import (
	"math"

	"github.com/evolab/petri/components"
	"github.com/evolab/petri/neural"
)

// PeerView is a pre-tick view of another agent for fitness scoring.
type PeerView struct {
	ID   uint32
	Tag  components.PopulationTag
	X, Y float32
}

// Snapshot is the read-only environment state for one tick, assembled
// before any agent moves. Signals holds the environment sources first,
// then peer emitters; fitness consumption indices refer to the source
// prefix only.
type Snapshot struct {
	Signals []neural.Signal
	Peers   []PeerView

	// NumSources is the environment-source prefix length of Signals.
	NumSources int
}

// FitnessParams holds the tag-specific scoring constants.
type FitnessParams struct {
	TurnPenalty     float64 `yaml:"turn_penalty"`     // traffic: weight on |heading change|
	CollisionRadius float64 `yaml:"collision_radius"` // peer proximity counting as collision
	CollisionCost   float64 `yaml:"collision_cost"`   // traffic/prey collision penalty
	EatRadius       float64 `yaml:"eat_radius"`       // food: consumption distance
	FoodReward      float64 `yaml:"food_reward"`
	HazardCost      float64 `yaml:"hazard_cost"`
	CatchReward     float64 `yaml:"catch_reward"` // predator: reward per caught prey
	ClusterMinDist  float64 `yaml:"cluster_min_dist"`
}

// DefaultFitnessParams returns the canonical scoring constants.
func DefaultFitnessParams() FitnessParams {
	return FitnessParams{
		TurnPenalty:     1.0,
		CollisionRadius: 8.0,
		CollisionCost:   20.0,
		EatRadius:       10.0,
		FoodReward:      200.0,
		HazardCost:      100.0,
		CatchReward:     20.0,
		ClusterMinDist:  1.0,
	}
}

// FitnessDelta computes one tick's fitness contribution for an agent and
// returns the indices of any snapshot sources the agent consumed. The
// caller accumulates the delta into the agent's lifetime total and retires
// consumed sources from the world.
func FitnessDelta(agent *components.Agent, body *components.Body, snap *Snapshot, p FitnessParams) (float64, []int) {
	x, y := body.Position()
	switch agent.Tag {
	case components.TagTraffic:
		return trafficDelta(agent, x, y, snap, p), nil
	case components.TagFood:
		return foodDelta(agent, x, y, snap, p)
	case components.TagPrey:
		return preyDelta(agent, x, y, snap, p), nil
	case components.TagPredator:
		return predatorDelta(agent, x, y, snap, p), nil
	case components.TagCluster:
		return clusterDelta(agent, x, y, snap, p), nil
	}
	return 0, nil
}

// trafficDelta rewards forward progress, penalizes turning sharpness and
// proximity collisions with same-population peers.
func trafficDelta(agent *components.Agent, x, y float32, snap *Snapshot, p FitnessParams) float64 {
	delta := float64(agent.LastForward) - p.TurnPenalty*math.Abs(float64(agent.LastTurn))
	for _, peer := range snap.Peers {
		if peer.ID == agent.ID || peer.Tag != components.TagTraffic {
			continue
		}
		if dist(x, y, peer.X, peer.Y) < p.CollisionRadius {
			delta -= p.CollisionCost
			break
		}
	}
	return delta
}

// foodDelta eats nearby food and hazard sources; each consumed source is
// retired from the environment by the caller.
func foodDelta(agent *components.Agent, x, y float32, snap *Snapshot, p FitnessParams) (float64, []int) {
	var delta float64
	var consumed []int
	for i := 0; i < snap.NumSources; i++ {
		sig := snap.Signals[i]
		var reward float64
		switch sig.Kind {
		case neural.SignalFood:
			reward = p.FoodReward
		case neural.SignalHazard:
			reward = -p.HazardCost
		default:
			continue
		}
		if dist(x, y, sig.X, sig.Y) >= p.EatRadius {
			continue
		}
		delta += reward
		consumed = append(consumed, i)
	}
	return delta, consumed
}

// preyDelta rewards keeping distance to the nearest predator and penalizes
// being caught.
func preyDelta(agent *components.Agent, x, y float32, snap *Snapshot, p FitnessParams) float64 {
	nearest := math.Inf(1)
	for _, peer := range snap.Peers {
		if peer.Tag != components.TagPredator {
			continue
		}
		if d := dist(x, y, peer.X, peer.Y); d < nearest {
			nearest = d
		}
	}
	if math.IsInf(nearest, 1) {
		return 0
	}
	delta := nearest / 2
	if nearest < p.CollisionRadius {
		delta -= p.CollisionCost
	}
	return delta
}

// predatorDelta rewards colliding with prey.
func predatorDelta(agent *components.Agent, x, y float32, snap *Snapshot, p FitnessParams) float64 {
	var delta float64
	for _, peer := range snap.Peers {
		if peer.Tag != components.TagPrey {
			continue
		}
		if dist(x, y, peer.X, peer.Y) < p.CollisionRadius {
			delta += p.CatchReward
		}
	}
	return delta
}

// clusterDelta rewards inverse distance to the nearest same-population
// peer. Distances below ClusterMinDist are clamped so two coincident
// agents score finite.
func clusterDelta(agent *components.Agent, x, y float32, snap *Snapshot, p FitnessParams) float64 {
	nearest := math.Inf(1)
	for _, peer := range snap.Peers {
		if peer.ID == agent.ID || peer.Tag != components.TagCluster {
			continue
		}
		if d := dist(x, y, peer.X, peer.Y); d < nearest {
			nearest = d
		}
	}
	if math.IsInf(nearest, 1) {
		return 0
	}
	if nearest < p.ClusterMinDist {
		nearest = p.ClusterMinDist
	}
	return 1 / nearest
}

func dist(x1, y1, x2, y2 float32) float64 {
	dx := float64(x1 - x2)
	dy := float64(y1 - y2)
	return math.Sqrt(dx*dx + dy*dy)
}
