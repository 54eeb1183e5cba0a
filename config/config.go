// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/evolab/petri/neural"
	"github.com/evolab/petri/systems"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World       WorldConfig           `yaml:"world"`
	Physics     PhysicsConfig         `yaml:"physics"`
	Motor       MotorConfig           `yaml:"motor"`
	Body        BodyConfig            `yaml:"body"`
	Evolution   EvolutionConfig       `yaml:"evolution"`
	Mutation    neural.MutationRates  `yaml:"mutation"`
	Fitness     systems.FitnessParams `yaml:"fitness"`
	Sources     SourcesConfig         `yaml:"sources"`
	Populations []PopulationConfig    `yaml:"populations"`
	Telemetry   TelemetryConfig       `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds simulation world dimensions. Positions wrap toroidally.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PhysicsConfig holds simulation physics parameters.
type PhysicsConfig struct {
	DT              float64 `yaml:"dt"`
	WheelNoiseSigma float64 `yaml:"wheel_noise_sigma"` // multiplicative Gaussian noise on wheel displacement
}

// MotorConfig holds the damped wheel actuator parameters.
type MotorConfig struct {
	Strength float64 `yaml:"strength"` // impulse per unit activation
	Friction float64 `yaml:"friction"` // velocity fraction bled per step
}

// BodyConfig holds the shared differential-drive body geometry.
type BodyConfig struct {
	Mass            float64 `yaml:"mass"`
	AxleOffX        float64 `yaml:"axle_off_x"` // axle point relative to the pivot
	AxleOffY        float64 `yaml:"axle_off_y"`
	WheelSeparation float64 `yaml:"wheel_separation"`
}

// EvolutionConfig holds the generational loop parameters.
type EvolutionConfig struct {
	Seed               int64 `yaml:"seed"`
	Generations        int   `yaml:"generations"`
	TicksPerGeneration int   `yaml:"ticks_per_generation"`
	TournamentSize     int   `yaml:"tournament_size"`
	Elites             int   `yaml:"elites"` // champions copied unchanged into the next generation
}

// SourcesConfig holds environment signal source parameters. Placement is
// seeded from a noise field so sources cluster into patches.
type SourcesConfig struct {
	NoiseScale     float64        `yaml:"noise_scale"`     // noise frequency over world coordinates
	NoiseThreshold float64        `yaml:"noise_threshold"` // candidate positions below this are rejected
	Kinds          []SourceConfig `yaml:"kinds"`
}

// SourceConfig describes one kind of environment source.
type SourceConfig struct {
	Kind      string  `yaml:"kind"` // neural.ParseSignalKind name
	Count     int     `yaml:"count"`
	Radius    float64 `yaml:"radius"`
	Intensity float64 `yaml:"intensity"`
}

// PopulationConfig defines one evolving population: its fitness tag, size,
// emitter and the sensor/effector layout every member shares. The layout
// fixes the founder genome's terminal count, so it must not change once a
// run has started.
type PopulationConfig struct {
	Name string `yaml:"name"`
	Tag  string `yaml:"tag"` // fitness objective: traffic, food, prey, predator or cluster
	Size int    `yaml:"size"`

	Emitter   EmitterConfig    `yaml:"emitter"`
	Sensors   []SensorConfig   `yaml:"sensors"`
	Effectors []EffectorConfig `yaml:"effectors"`
}

// EmitterConfig describes a population's carried emitter. Zero intensity or
// radius keeps the population silent.
type EmitterConfig struct {
	Kind      string  `yaml:"kind"`
	Radius    float64 `yaml:"radius"`
	Intensity float64 `yaml:"intensity"`
}

// SensorConfig places one sensor on the body.
type SensorConfig struct {
	Kind string  `yaml:"kind"`
	OffX float64 `yaml:"off_x"`
	OffY float64 `yaml:"off_y"`
}

// EffectorConfig places one wheel effector on the body. The first two
// entries are the left and right drive wheels.
type EffectorConfig struct {
	OffX float64 `yaml:"off_x"`
	OffY float64 `yaml:"off_y"`
}

// TelemetryConfig holds telemetry output parameters.
type TelemetryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32     float32 // Physics.DT as float32
	WorldW32 float32
	WorldH32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configs the simulation cannot run with.
func (c *Config) validate() error {
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world dimensions must be positive, got %dx%d", c.World.Width, c.World.Height)
	}
	if len(c.Populations) == 0 {
		return fmt.Errorf("at least one population is required")
	}
	for i, pop := range c.Populations {
		if pop.Size <= 0 {
			return fmt.Errorf("population %q: size must be positive", pop.Name)
		}
		if _, err := ParseTagName(pop.Tag); err != nil {
			return fmt.Errorf("population %q: %w", pop.Name, err)
		}
		if len(pop.Sensors) == 0 {
			return fmt.Errorf("population %q: needs at least one sensor", pop.Name)
		}
		if len(pop.Effectors) < 2 {
			return fmt.Errorf("population %q: needs left and right wheel effectors", pop.Name)
		}
		for _, s := range pop.Sensors {
			if _, err := neural.ParseSignalKind(s.Kind); err != nil {
				return fmt.Errorf("population %q sensor: %w", pop.Name, err)
			}
		}
		if pop.Emitter.Intensity > 0 {
			if _, err := neural.ParseSignalKind(pop.Emitter.Kind); err != nil {
				return fmt.Errorf("population %q emitter: %w", pop.Name, err)
			}
		}
		c.Populations[i] = pop
	}
	for _, src := range c.Sources.Kinds {
		if _, err := neural.ParseSignalKind(src.Kind); err != nil {
			return fmt.Errorf("source: %w", err)
		}
	}
	if c.Evolution.TournamentSize < 1 {
		return fmt.Errorf("evolution.tournament_size must be at least 1")
	}
	return nil
}

// ParseTagName checks a fitness tag name against the known set. The sim
// layer maps the name onto its component type; config only gatekeeps.
func ParseTagName(name string) (string, error) {
	switch name {
	case "traffic", "food", "prey", "predator", "cluster":
		return name, nil
	}
	return "", fmt.Errorf("unknown fitness tag %q", name)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
