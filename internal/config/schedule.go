package config

import (
	"fmt"

	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/rigidbody"
	"github.com/san-kum/hinape/internal/scene"
)

// Apply sets the desired rigid-body types scheduled for step.
func (c *Config) Apply(sc *scene.Scene, step int) error {
	for _, s := range c.Schedule {
		if s.Step != step {
			continue
		}
		e, ok := sc.Entity(s.Entity)
		if !ok {
			return fmt.Errorf("schedule step %d: unknown entity %d", step, s.Entity)
		}
		e.SetRigidBodyType(s.Type)
	}
	return nil
}

// ApplyDesired copies the configured type of every entity into the scene
// as its desired type. Used when a scene file changes on disk.
func (c *Config) ApplyDesired(sc *scene.Scene) int {
	changed := 0
	for _, ec := range c.Entities {
		e, ok := sc.Entity(ec.ID)
		if !ok || !e.HasPhysics() {
			continue
		}
		want := ec.Type
		if ec.Kind != physics.KindRigidBody {
			want = rigidbody.TypeNone
		}
		if e.RigidBodyType() != want {
			e.SetRigidBodyType(want)
			changed++
		}
	}
	return changed
}
