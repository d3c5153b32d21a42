// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Playfield  PlayfieldConfig  `yaml:"playfield"`
	Bird       BirdConfig       `yaml:"bird"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Pipes      PipesConfig      `yaml:"pipes"`
	Fitness    FitnessConfig    `yaml:"fitness"`
	Sim        SimConfig        `yaml:"sim"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Neural     NeuralConfig     `yaml:"neural"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	HallOfFame HallOfFameConfig `yaml:"hall_of_fame"`
	Store      StoreConfig      `yaml:"store"`
	Spectate   SpectateConfig   `yaml:"spectate"`
	UI         UIConfig         `yaml:"ui"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// PlayfieldConfig holds the logical world dimensions. The screen may scale it.
type PlayfieldConfig struct {
	Width  float64 `yaml:"width"`  // Right boundary; new pipes spawn here
	Height float64 `yaml:"height"` // Floor; birds below it are eliminated
}

// BirdConfig holds the spawn point and collision box of every bird.
type BirdConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PhysicsConfig holds the impulse-based kinematic model parameters.
type PhysicsConfig struct {
	Gravity              float64 `yaml:"gravity"`               // d = v*t + 0.5*g*t^2
	JumpImpulse          float64 `yaml:"jump_impulse"`          // Velocity set on jump (negative = up)
	TerminalDisplacement float64 `yaml:"terminal_displacement"` // Max downward displacement per tick
	RiseBoost            float64 `yaml:"rise_boost"`            // Extra upward displacement while rising
}

// PipesConfig holds obstacle geometry and motion.
type PipesConfig struct {
	Width          float64 `yaml:"width"`
	GapHeight      float64 `yaml:"gap_height"`
	GapMin         int     `yaml:"gap_min"` // Gap top drawn from [gap_min, gap_max)
	GapMax         int     `yaml:"gap_max"`
	FirstX         float64 `yaml:"first_x"`         // Initial pipe position
	Velocity       float64 `yaml:"velocity"`        // Pixels per tick in training mode
	ReplayVelocity float64 `yaml:"replay_velocity"` // Pixels per tick in replay mode
}

// FitnessConfig holds the reward shaping constants.
type FitnessConfig struct {
	SurvivalBonus    float64 `yaml:"survival_bonus"`
	PassBonus        float64 `yaml:"pass_bonus"`
	CollisionPenalty float64 `yaml:"collision_penalty"`
	PassBonusPolicy  string  `yaml:"pass_bonus_policy"` // "tick", "cohort" or "survivors"
}

// SimConfig holds harness-level settings.
type SimConfig struct {
	Seed              int64   `yaml:"seed"`              // 0 = time-based
	SuccessThreshold  int     `yaml:"success_threshold"` // Score that ends a generation with a champion
	MaxTicks          int     `yaml:"max_ticks"`         // 0 = unlimited
	JumpThreshold     float64 `yaml:"jump_threshold"`
	ParallelDecisions bool    `yaml:"parallel_decisions"`
	ParallelThreshold int     `yaml:"parallel_threshold"` // Minimum alive count before going parallel
}

// EvolutionConfig holds the reference population search parameters.
type EvolutionConfig struct {
	Population       int     `yaml:"population"`
	Generations      int     `yaml:"generations"`
	EliteFraction    float64 `yaml:"elite_fraction"`
	MutationRate     float64 `yaml:"mutation_rate"`
	MutationSigma    float64 `yaml:"mutation_sigma"`
	MutationBigRate  float64 `yaml:"mutation_big_rate"`
	MutationBigSigma float64 `yaml:"mutation_big_sigma"`
	CrossoverProb    float64 `yaml:"crossover_prob"`      // neat only; within a species
	HallOfFameReseed float64 `yaml:"hall_of_fame_reseed"` // Fraction of offspring drawn from the hall of fame
}

// NeuralConfig selects the controller implementation.
type NeuralConfig struct {
	Kind           string  `yaml:"kind"` // "ffnn" or "neat"
	ConnectionProb float64 `yaml:"connection_prob"`
}

// TelemetryConfig holds output and logging settings.
type TelemetryConfig struct {
	OutputDir           string `yaml:"output_dir"`
	PerfWindow          int    `yaml:"perf_window"`
	BookmarkHistorySize int    `yaml:"bookmark_history_size"`
	LogEvery            int    `yaml:"log_every"` // Log every N generations
}

// HallOfFameConfig holds champion archive settings.
type HallOfFameConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

// StoreConfig selects the champion persistence backend.
type StoreConfig struct {
	Kind string `yaml:"kind"` // "memory", "file" or "sqlite"
	Path string `yaml:"path"`
}

// SpectateConfig holds the SSH spectator server settings.
type SpectateConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	HostKeyPath string `yaml:"host_key_path"`
	FPS         int    `yaml:"fps"`
}

// UIConfig holds viewer-only toggles. None of these affect simulation outcomes.
type UIConfig struct {
	DrawLines     bool `yaml:"draw_lines"`
	TintByHistory bool `yaml:"tint_by_history"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	PipeSpan int // gap_max - gap_min
}

var global *Config

// Init loads the configuration and stores it as the global config.
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

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.PipeSpan = c.Pipes.GapMax - c.Pipes.GapMin
	c.Fitness.PassBonusPolicy = strings.ToLower(strings.TrimSpace(c.Fitness.PassBonusPolicy))
	if c.Fitness.PassBonusPolicy == "" {
		c.Fitness.PassBonusPolicy = "tick"
	}
	if c.Sim.ParallelThreshold < 1 {
		c.Sim.ParallelThreshold = 1
	}
}

// Validate checks the parameters the simulation cannot run without.
// Every returned error wraps ErrInvalid.
func (c *Config) Validate() error {
	c.computeDerived()

	switch {
	case c.Playfield.Width <= 0 || c.Playfield.Height <= 0:
		return fmt.Errorf("%w: playfield must be positive, got %vx%v", ErrInvalid, c.Playfield.Width, c.Playfield.Height)
	case c.Bird.Width <= 0 || c.Bird.Height <= 0:
		return fmt.Errorf("%w: bird size must be positive, got %vx%v", ErrInvalid, c.Bird.Width, c.Bird.Height)
	case c.Pipes.Width <= 0:
		return fmt.Errorf("%w: pipe width must be positive, got %v", ErrInvalid, c.Pipes.Width)
	case c.Pipes.GapHeight <= 0:
		return fmt.Errorf("%w: gap height must be positive, got %v", ErrInvalid, c.Pipes.GapHeight)
	case c.Derived.PipeSpan <= 0:
		return fmt.Errorf("%w: gap range [%d, %d) is empty", ErrInvalid, c.Pipes.GapMin, c.Pipes.GapMax)
	case c.Pipes.Velocity <= 0 || c.Pipes.ReplayVelocity <= 0:
		return fmt.Errorf("%w: pipe velocity must be positive", ErrInvalid)
	case c.Sim.SuccessThreshold < 0:
		return fmt.Errorf("%w: success threshold must not be negative", ErrInvalid)
	case c.Sim.MaxTicks < 0:
		return fmt.Errorf("%w: max ticks must not be negative", ErrInvalid)
	}

	switch c.Fitness.PassBonusPolicy {
	case "tick", "cohort", "survivors":
	default:
		return fmt.Errorf("%w: unknown pass bonus policy %q", ErrInvalid, c.Fitness.PassBonusPolicy)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
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
