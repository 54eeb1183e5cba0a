package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Physics.DT <= 0 {
		t.Errorf("dt = %v, want positive", cfg.Physics.DT)
	}
	if len(cfg.Populations) == 0 {
		t.Fatal("defaults define no populations")
	}
	for _, p := range cfg.Populations {
		if len(p.Effectors) < 2 {
			t.Errorf("population %q has %d effectors, want >= 2", p.Name, len(p.Effectors))
		}
	}
	if cfg.Fitness.FoodReward != 200 || cfg.Fitness.HazardCost != 100 {
		t.Errorf("fitness constants wrong: %+v", cfg.Fitness)
	}
	if cfg.Derived.WorldW32 != float32(cfg.World.Width) {
		t.Errorf("derived width %f != %d", cfg.Derived.WorldW32, cfg.World.Width)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	override := "world:\n  width: 1234\nmutation:\n  weight: 0.5\n"
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.World.Width != 1234 {
		t.Errorf("width = %d, want 1234", cfg.World.Width)
	}
	if cfg.Mutation.Weight != 0.5 {
		t.Errorf("mutation.weight = %v, want 0.5", cfg.Mutation.Weight)
	}
	// Untouched defaults survive the merge.
	if cfg.World.Height == 0 || cfg.Physics.DT == 0 {
		t.Error("merge dropped default values")
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"zero dt", "physics:\n  dt: 0\n"},
		{"bad tag", "populations:\n  - name: x\n    tag: swarm\n    size: 5\n    sensors:\n      - kind: food\n    effectors:\n      - off_y: -3\n      - off_y: 3\n"},
		{"bad sensor kind", "populations:\n  - name: x\n    tag: food\n    size: 5\n    sensors:\n      - kind: sonar\n    effectors:\n      - off_y: -3\n      - off_y: 3\n"},
		{"one wheel", "populations:\n  - name: x\n    tag: food\n    size: 5\n    sensors:\n      - kind: food\n    effectors:\n      - off_y: 0\n"},
	}
	for _, tc := range cases {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte(tc.yaml), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.World.Width != cfg.World.Width || back.Evolution.Seed != cfg.Evolution.Seed {
		t.Error("round trip changed values")
	}
	if len(back.Populations) != len(cfg.Populations) {
		t.Errorf("round trip changed population count: %d vs %d", len(back.Populations), len(cfg.Populations))
	}
}
