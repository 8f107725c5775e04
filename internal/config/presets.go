package config

import (
	"slices"

	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/rigidbody"
)

func ptr(v float64) *float64 { return &v }

var Presets = map[string]*Config{
	"idle": {
		Name: "idle", Kernel: "placeholder", Dt: 0.016, Steps: 1,
		Entities: []EntityConfig{
			{ID: 1, Name: "crate", Kind: physics.KindRigidBody, Type: rigidbody.TypeDynamic, Mass: 2.0},
		},
	},
	"drop": {
		Name: "drop", Kernel: "euler", Dt: 0.01, Steps: 200,
		Entities: []EntityConfig{
			{ID: 1, Name: "ground", Kind: physics.KindRigidBody, Type: rigidbody.TypeStatic},
			{ID: 2, Name: "crate", Kind: physics.KindRigidBody, Type: rigidbody.TypeDynamic, Mass: 2.0, Position: Vec3{0, 10, 0}},
		},
	},
	"toggle": {
		Name: "toggle", Kernel: "euler", Dt: 0.01, Steps: 300,
		Entities: []EntityConfig{
			{ID: 1, Name: "crate", Kind: physics.KindRigidBody, Type: rigidbody.TypeDynamic, Position: Vec3{0, 20, 0}, Velocity: Vec3{1, 0, 0}},
		},
		Schedule: []ScheduleEntry{
			{Step: 100, Entity: 1, Type: rigidbody.TypeStatic},
			{Step: 200, Entity: 1, Type: rigidbody.TypeDynamic},
		},
	},
	"platform": {
		Name: "platform", Kernel: "euler", Dt: 0.01, Steps: 300,
		Entities: []EntityConfig{
			{ID: 1, Name: "lift", Kind: physics.KindRigidBody, Type: rigidbody.TypeKinematic, Velocity: Vec3{0, 0.5, 0}},
			{ID: 2, Name: "ball", Kind: physics.KindRigidBody, Type: rigidbody.TypeDynamic, Mass: 0.5, LinearDamping: ptr(0.2), Position: Vec3{2, 5, 0}},
			{ID: 3, Name: "camera", Kind: physics.KindNone, Position: Vec3{0, 2, -10}},
		},
		Schedule: []ScheduleEntry{
			{Step: 150, Entity: 1, Type: rigidbody.TypeDynamic},
			{Step: 150, Entity: 2, Type: rigidbody.TypeKinematic},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	out := *cfg
	out.Entities = slices.Clone(cfg.Entities)
	out.Schedule = slices.Clone(cfg.Schedule)
	return &out
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
