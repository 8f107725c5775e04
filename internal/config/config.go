package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/rigidbody"
	"github.com/san-kum/hinape/internal/system"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt     = 0.016
	DefaultSteps  = 120
	DefaultKernel = "placeholder"
)

var ErrInvalidConfig = errors.New("config: invalid scene")

type Vec3 = [3]float64

type Config struct {
	Name     string          `yaml:"name"`
	Kernel   string          `yaml:"kernel"`
	Dt       float64         `yaml:"dt"`
	Steps    int             `yaml:"steps"`
	Gravity  *Vec3           `yaml:"gravity,omitempty"`
	Entities []EntityConfig  `yaml:"entities"`
	Schedule []ScheduleEntry `yaml:"schedule,omitempty"`
}

type EntityConfig struct {
	ID              uint32         `yaml:"id"`
	Name            string         `yaml:"name"`
	Kind            physics.Kind   `yaml:"kind"`
	Type            rigidbody.Type `yaml:"type"`
	Mass            float64        `yaml:"mass,omitempty"`
	LinearDamping   *float64       `yaml:"linear_damping,omitempty"`
	AngularDamping  *float64       `yaml:"angular_damping,omitempty"`
	Position        Vec3           `yaml:"position"`
	Rotation        Vec3           `yaml:"rotation"`
	Velocity        Vec3           `yaml:"velocity,omitempty"`
	AngularVelocity Vec3           `yaml:"angular_velocity,omitempty"`
}

// ScheduleEntry changes the desired rigid-body type of an entity before the
// given step runs.
type ScheduleEntry struct {
	Step   int            `yaml:"step"`
	Entity uint32         `yaml:"entity"`
	Type   rigidbody.Type `yaml:"type"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:   "untitled",
		Kernel: DefaultKernel,
		Dt:     DefaultDt,
		Steps:  DefaultSteps,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidConfig, c.Steps)
	}
	if _, err := system.NewKernel(c.Kernel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	seen := make(map[uint32]bool, len(c.Entities))
	for _, e := range c.Entities {
		if seen[e.ID] {
			return fmt.Errorf("%w: duplicate entity id %d", ErrInvalidConfig, e.ID)
		}
		seen[e.ID] = true
		if e.Kind == physics.KindRigidBody && e.Type != rigidbody.TypeNone && !e.Type.Valid() {
			return fmt.Errorf("%w: entity %d: unknown rigid body type %s", ErrInvalidConfig, e.ID, e.Type)
		}
		if e.Mass < 0 {
			return fmt.Errorf("%w: entity %d: negative mass", ErrInvalidConfig, e.ID)
		}
	}

	for _, s := range c.Schedule {
		if !seen[s.Entity] {
			return fmt.Errorf("%w: schedule references unknown entity %d", ErrInvalidConfig, s.Entity)
		}
		if s.Step < 0 || s.Step >= c.Steps {
			return fmt.Errorf("%w: schedule step %d outside run of %d steps", ErrInvalidConfig, s.Step, c.Steps)
		}
	}
	return nil
}

// NewKernel builds the configured kernel, applying the scene gravity to
// kernels that use one.
func (c *Config) NewKernel() (system.Kernel, error) {
	k, err := system.NewKernel(c.Kernel)
	if err != nil {
		return nil, err
	}
	if g, ok := k.(system.GravityKernel); ok && c.Gravity != nil {
		g.SetGravity(*c.Gravity)
	}
	return k, nil
}
