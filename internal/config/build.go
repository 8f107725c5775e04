package config

import (
	"fmt"

	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/rigidbody"
	"github.com/san-kum/hinape/internal/scene"
	"github.com/san-kum/hinape/internal/system"
)

// BuildScene creates every configured entity and adds it to a new scene
// driven by sys.
func (c *Config) BuildScene(sys *system.System, opts ...scene.Option) (*scene.Scene, error) {
	sc := scene.New(sys, opts...)
	for _, ec := range c.Entities {
		e, err := ec.Build()
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", ec.ID, err)
		}
		if err := sc.Add(e); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

// Build creates the entity. Rigid bodies start dynamic so mass, damping and
// velocity can be set, then switch to the configured type.
func (ec EntityConfig) Build() (*scene.Entity, error) {
	pose := scene.Pose{Position: ec.Position, Rotation: ec.Rotation}
	name := ec.Name
	if name == "" {
		name = fmt.Sprintf("entity_%d", ec.ID)
	}

	switch ec.Kind {
	case physics.KindNone:
		return scene.NewEntity(ec.ID, name, pose), nil
	case physics.KindRigidBody:
	default:
		_, err := physics.New(ec.Kind)
		return nil, err
	}

	obj, err := physics.New(physics.KindRigidBody)
	if err != nil {
		return nil, err
	}

	d, err := physics.Get[rigidbody.Dynamic](obj)
	if err != nil {
		return nil, err
	}
	if ec.Mass > 0 {
		d.SetMass(ec.Mass)
	}
	if ec.LinearDamping != nil {
		d.SetLinearDamping(*ec.LinearDamping)
	}
	if ec.AngularDamping != nil {
		d.SetAngularDamping(*ec.AngularDamping)
	}
	d.SetLinearVelocity(ec.Velocity)
	d.SetAngularVelocity(ec.AngularVelocity)

	if err := obj.SwitchRigidBodyType(ec.Type); err != nil {
		return nil, err
	}
	return scene.Attach(ec.ID, name, pose, obj), nil
}
