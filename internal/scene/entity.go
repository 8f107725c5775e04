// Package scene holds scene entities that own physics objects and the
// per-step protocol that materializes an entity's requested rigid-body type.
//
// Each physics-enabled entity carries two rigid-body types: the desired type,
// which an editor or script may change at any time, and the applied type,
// which only [Entity.Step] changes. A step converts the entity's body only
// when the two differ, then records the desired type as applied.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/rigidbody"
)

type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Vec3
}

// TransitionError reports a rigid-body type change an entity could not make.
type TransitionError struct {
	EntityID uint32
	From     rigidbody.Type
	To       rigidbody.Type
	Err      error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("entity %d: transition %s -> %s: %v", e.EntityID, e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

type Entity struct {
	ID   uint32
	Name string

	pose    Pose
	desired rigidbody.Type
	applied rigidbody.Type
	object  *physics.Object
}

// NewEntity returns an entity without physics.
func NewEntity(id uint32, name string, pose Pose) *Entity {
	return &Entity{
		ID:      id,
		Name:    name,
		pose:    pose,
		desired: rigidbody.TypeNone,
		applied: rigidbody.TypeNone,
	}
}

// NewPhysicsEntity returns an entity whose physics object already holds a
// body of type t, placed at pose. TypeNone gives an empty object.
func NewPhysicsEntity(id uint32, name string, pose Pose, t rigidbody.Type) (*Entity, error) {
	var obj *physics.Object
	switch {
	case t == rigidbody.TypeNone:
		obj = &physics.Object{}
	case t.Valid():
		body, err := rigidbody.New(t)
		if err != nil {
			return nil, err
		}
		obj = physics.FromRigidBody(body)
	default:
		return nil, &TransitionError{EntityID: id, From: rigidbody.TypeNone, To: t, Err: physics.ErrInvalidState}
	}

	e := NewEntity(id, name, pose)
	e.object = obj
	e.desired, e.applied = t, t
	e.pushPose()
	return e, nil
}

// Attach returns an entity that owns obj. The applied and desired types
// start at obj's live rigid-body type, and obj is moved to pose.
func Attach(id uint32, name string, pose Pose, obj *physics.Object) *Entity {
	e := NewEntity(id, name, pose)
	e.object = obj
	e.desired = obj.RigidBodyType()
	e.applied = e.desired
	e.pushPose()
	return e
}

func (e *Entity) HasPhysics() bool         { return e.object != nil }
func (e *Entity) Object() *physics.Object { return e.object }

// SetRigidBodyType records the desired type. Nothing changes until Step.
func (e *Entity) SetRigidBodyType(t rigidbody.Type) { e.desired = t }

func (e *Entity) RigidBodyType() rigidbody.Type        { return e.desired }
func (e *Entity) AppliedRigidBodyType() rigidbody.Type { return e.applied }

// Pending reports whether the next Step will attempt a transition.
func (e *Entity) Pending() bool { return e.desired != e.applied }

// Step runs the transition protocol once. It reports whether the live body
// was replaced. On error the applied type is left unchanged.
func (e *Entity) Step() (bool, error) {
	if e.desired == e.applied {
		return false, nil
	}
	if e.object == nil {
		return false, e.fail(physics.ErrInvalidOperation)
	}
	if e.desired != rigidbody.TypeNone && !e.desired.Valid() {
		return false, e.fail(physics.ErrInvalidState)
	}
	if e.object.IsDeformable() {
		return false, e.fail(physics.ErrInvalidOperation)
	}

	switch {
	case e.desired == rigidbody.TypeNone:
		e.object.Clear()
	case e.object.IsRigidBody():
		if err := e.object.SwitchRigidBodyType(e.desired); err != nil {
			return false, e.fail(err)
		}
	default:
		body, err := rigidbody.New(e.desired)
		if err != nil {
			return false, e.fail(physics.ErrInvalidState)
		}
		e.object.SetRigidBody(body)
		e.pushPose()
	}

	e.applied = e.desired
	return true, nil
}

func (e *Entity) fail(err error) error {
	return &TransitionError{EntityID: e.ID, From: e.applied, To: e.desired, Err: err}
}

func (e *Entity) Pose() Pose { return e.pose }

// SetPose moves the entity and its rigid body, if any.
func (e *Entity) SetPose(p Pose) {
	e.pose = p
	e.pushPose()
}

// SyncPose copies the rigid body's position and rotation into the entity.
func (e *Entity) SyncPose() {
	if e.object == nil || !e.object.IsRigidBody() {
		return
	}
	e.pose = Pose{Position: e.object.Position(), Rotation: e.object.Rotation()}
}

// Velocity reports the rigid body's linear velocity, zero without one.
func (e *Entity) Velocity() mgl64.Vec3 {
	if e.object == nil {
		return mgl64.Vec3{}
	}
	return e.object.Velocity()
}

func (e *Entity) pushPose() {
	if e.object == nil {
		return
	}
	e.object.SetPosition(e.pose.Position)
	e.object.SetRotation(e.pose.Rotation)
}
