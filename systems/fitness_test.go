package systems

import (
	"testing"

	"github.com/evolab/petri/components"
	"github.com/evolab/petri/neural"
)

func fitnessAgent(tag components.PopulationTag) (*components.Agent, *components.Body) {
	return &components.Agent{ID: 1, Tag: tag}, &components.Body{Mass: 1, WheelSeparation: 4}
}

func TestFoodDeltaRewards(t *testing.T) {
	p := DefaultFitnessParams()
	agent, body := fitnessAgent(components.TagFood)
	snap := &Snapshot{
		Signals: []neural.Signal{
			{Kind: neural.SignalFood, X: 3, Y: 4, Radius: 50, Intensity: 1},   // dist 5, in reach
			{Kind: neural.SignalHazard, X: 0, Y: 6, Radius: 50, Intensity: 1}, // dist 6, in reach
			{Kind: neural.SignalFood, X: 100, Y: 0, Radius: 50, Intensity: 1}, // out of reach
			{Kind: neural.SignalLight, X: 0, Y: 0, Radius: 50, Intensity: 1},  // wrong kind
		},
		NumSources: 4,
	}

	delta, consumed := FitnessDelta(agent, body, snap, p)

	want := p.FoodReward - p.HazardCost // 200 - 100
	if delta != want {
		t.Errorf("delta = %f, want %f", delta, want)
	}
	if len(consumed) != 2 || consumed[0] != 0 || consumed[1] != 1 {
		t.Errorf("consumed = %v, want [0 1]", consumed)
	}
}

func TestFoodDeltaIgnoresPeerEmitters(t *testing.T) {
	p := DefaultFitnessParams()
	agent, body := fitnessAgent(components.TagFood)
	snap := &Snapshot{
		Signals: []neural.Signal{
			// Peer emitter beyond the source prefix must never be eaten.
			{Kind: neural.SignalFood, X: 1, Y: 0, Radius: 50, Intensity: 1, Owner: 7},
		},
		NumSources: 0,
	}

	delta, consumed := FitnessDelta(agent, body, snap, p)
	if delta != 0 || consumed != nil {
		t.Errorf("peer emitter consumed: delta=%f consumed=%v", delta, consumed)
	}
}

func TestTrafficDelta(t *testing.T) {
	p := DefaultFitnessParams()
	agent, body := fitnessAgent(components.TagTraffic)
	agent.LastForward = 3
	agent.LastTurn = -0.5

	snap := &Snapshot{}
	delta, _ := FitnessDelta(agent, body, snap, p)
	want := 3.0 - p.TurnPenalty*0.5
	if delta != want {
		t.Errorf("open road delta = %f, want %f", delta, want)
	}

	// A same-tag peer within the collision radius costs once, not per peer.
	snap.Peers = []PeerView{
		{ID: 2, Tag: components.TagTraffic, X: 1, Y: 0},
		{ID: 3, Tag: components.TagTraffic, X: 0, Y: 1},
		{ID: 1, Tag: components.TagTraffic, X: 0, Y: 0}, // self, masked by ID
	}
	delta, _ = FitnessDelta(agent, body, snap, p)
	if delta != want-p.CollisionCost {
		t.Errorf("collision delta = %f, want %f", delta, want-p.CollisionCost)
	}
}

func TestPreyDelta(t *testing.T) {
	p := DefaultFitnessParams()
	agent, body := fitnessAgent(components.TagPrey)

	// No predator in the world: nothing to score against.
	delta, _ := FitnessDelta(agent, body, &Snapshot{}, p)
	if delta != 0 {
		t.Errorf("no-predator delta = %f, want 0", delta)
	}

	// Distant predator: reward half the distance to the nearest.
	snap := &Snapshot{Peers: []PeerView{
		{ID: 2, Tag: components.TagPredator, X: 30, Y: 40}, // dist 50
		{ID: 3, Tag: components.TagPredator, X: 0, Y: 100}, // farther
	}}
	delta, _ = FitnessDelta(agent, body, snap, p)
	if delta != 25 {
		t.Errorf("distant delta = %f, want 25", delta)
	}

	// Caught: distance reward minus the collision cost.
	snap = &Snapshot{Peers: []PeerView{
		{ID: 2, Tag: components.TagPredator, X: 4, Y: 0},
	}}
	delta, _ = FitnessDelta(agent, body, snap, p)
	if delta != 2-p.CollisionCost {
		t.Errorf("caught delta = %f, want %f", delta, 2-p.CollisionCost)
	}
}

func TestPredatorDelta(t *testing.T) {
	p := DefaultFitnessParams()
	agent, body := fitnessAgent(components.TagPredator)
	snap := &Snapshot{Peers: []PeerView{
		{ID: 2, Tag: components.TagPrey, X: 1, Y: 0},
		{ID: 3, Tag: components.TagPrey, X: 0, Y: 2},
		{ID: 4, Tag: components.TagPrey, X: 100, Y: 0},
		{ID: 5, Tag: components.TagPredator, X: 0, Y: 0},
	}}

	delta, _ := FitnessDelta(agent, body, snap, p)
	if delta != 2*p.CatchReward {
		t.Errorf("delta = %f, want %f", delta, 2*p.CatchReward)
	}
}

func TestClusterDelta(t *testing.T) {
	p := DefaultFitnessParams()
	agent, body := fitnessAgent(components.TagCluster)

	snap := &Snapshot{Peers: []PeerView{
		{ID: 2, Tag: components.TagCluster, X: 4, Y: 0},
		{ID: 3, Tag: components.TagCluster, X: 10, Y: 0},
		{ID: 1, Tag: components.TagCluster, X: 0, Y: 0}, // self
	}}
	delta, _ := FitnessDelta(agent, body, snap, p)
	if delta != 0.25 {
		t.Errorf("delta = %f, want 0.25", delta)
	}

	// Coincident peers clamp to the minimum distance instead of diverging.
	snap = &Snapshot{Peers: []PeerView{
		{ID: 2, Tag: components.TagCluster, X: 0, Y: 0},
	}}
	delta, _ = FitnessDelta(agent, body, snap, p)
	if delta != 1/p.ClusterMinDist {
		t.Errorf("coincident delta = %f, want %f", delta, 1/p.ClusterMinDist)
	}

	// Alone in the world scores nothing.
	delta, _ = FitnessDelta(agent, body, &Snapshot{}, p)
	if delta != 0 {
		t.Errorf("lone delta = %f, want 0", delta)
	}
}

func TestFitnessUsesAxlePosition(t *testing.T) {
	p := DefaultFitnessParams()
	agent, body := fitnessAgent(components.TagFood)
	body.AxleOffX = 20 // axle sits away from the pivot

	snap := &Snapshot{
		Signals:    []neural.Signal{{Kind: neural.SignalFood, X: 20, Y: 0, Radius: 50, Intensity: 1}},
		NumSources: 1,
	}
	delta, consumed := FitnessDelta(agent, body, snap, p)
	if delta != p.FoodReward || len(consumed) != 1 {
		t.Errorf("axle-positioned agent missed its food: delta=%f consumed=%v", delta, consumed)
	}
}
