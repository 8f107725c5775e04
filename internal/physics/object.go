// Package physics provides the physics object: a tagged union holding one
// rigid-body or deformable alternative, or nothing.
//
// The universal facade (position, rotation, velocity, force, mass) works
// whatever the live alternative is; quantities an alternative does not
// have read as zero. Type-specific work goes through [Object.SwitchRigidBodyType]
// or through [Get] when the caller already knows the live alternative.
package physics

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hinape/internal/deformable"
	"github.com/san-kum/hinape/internal/rigidbody"
)

type Kind int

const (
	KindRigidBody  Kind = 0
	KindDeformable Kind = 1
	KindFluid      Kind = 2

	KindNone Kind = -1
)

func (k Kind) String() string {
	switch k {
	case KindRigidBody:
		return "rigidbody"
	case KindDeformable:
		return "deformable"
	case KindFluid:
		return "fluid"
	case KindNone:
		return "none"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rigidbody", "rigid":
		return KindRigidBody, nil
	case "deformable":
		return KindDeformable, nil
	case "fluid":
		return KindFluid, nil
	case "none", "":
		return KindNone, nil
	}
	return KindNone, fmt.Errorf("physics: unknown kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Object holds at most one live alternative. Share it by pointer; the
// alternative is replaced in place when the rigid-body state switches, so
// every holder observes the switch.
type Object struct {
	// nil, rigidbody.Dynamic, rigidbody.Static, rigidbody.Kinematic,
	// deformable.Cloth or deformable.Mesh
	live any
}

// New builds an object of the given kind. A rigid-body object starts as a
// dynamic body. Deformable and fluid objects are not implemented.
func New(kind Kind) (*Object, error) {
	switch kind {
	case KindRigidBody:
		return &Object{live: rigidbody.NewDynamic()}, nil
	case KindDeformable:
		return nil, fmt.Errorf("%w: deformable objects", ErrNotImplemented)
	case KindFluid:
		return nil, fmt.Errorf("%w: fluid objects", ErrNotImplemented)
	case KindNone:
		return &Object{}, nil
	}
	return nil, fmt.Errorf("%w: kind %s", ErrInvalidState, kind)
}

func FromRigidBody(body rigidbody.Body) *Object {
	o := &Object{}
	o.SetRigidBody(body)
	return o
}

func FromDeformable(body deformable.Body) *Object {
	o := &Object{}
	o.SetDeformable(body)
	return o
}

// SetRigidBody replaces the live alternative with body. A zero-value body
// such as rigidbody.Dynamic{} is stored as a fresh body of its state.
func (o *Object) SetRigidBody(body rigidbody.Body) {
	if body == nil {
		o.live = nil
		return
	}
	o.live = rigidbody.Ready(body)
}

func (o *Object) SetDeformable(body deformable.Body) {
	if body == nil {
		o.live = nil
		return
	}
	o.live = body
}

func (o *Object) Clear()        { o.live = nil }
func (o *Object) IsEmpty() bool { return o.live == nil }

// Alternative is the set of concrete types an Object can hold.
type Alternative interface {
	rigidbody.Dynamic | rigidbody.Static | rigidbody.Kinematic | deformable.Cloth | deformable.Mesh
}

// Get returns the live alternative as T, or ErrTypeMismatch when T is not
// the live alternative.
func Get[T Alternative](o *Object) (T, error) {
	v, ok := o.live.(T)
	if !ok {
		var zero T
		want := strings.TrimPrefix(fmt.Sprintf("%T", (*T)(nil)), "*")
		return zero, fmt.Errorf("%w: want %s, live %s", ErrTypeMismatch, want, o.describe())
	}
	return v, nil
}

func (o *Object) describe() string {
	switch v := o.live.(type) {
	case nil:
		return "none"
	case rigidbody.Body:
		return "rigidbody/" + v.Type().String()
	case deformable.Body:
		return "deformable/" + v.Type().String()
	}
	return fmt.Sprintf("%T", o.live)
}

func (o *Object) Kind() Kind {
	switch o.live.(type) {
	case rigidbody.Dynamic, rigidbody.Static, rigidbody.Kinematic:
		return KindRigidBody
	case deformable.Cloth, deformable.Mesh:
		return KindDeformable
	}
	return KindNone
}

func (o *Object) Position() mgl64.Vec3 {
	if b, ok := o.live.(rigidbody.Body); ok {
		return b.Position()
	}
	return mgl64.Vec3{}
}

func (o *Object) Rotation() mgl64.Vec3 {
	if b, ok := o.live.(rigidbody.Body); ok {
		return b.Rotation()
	}
	return mgl64.Vec3{}
}

// Velocity reports the linear velocity. Static bodies, deformables and the
// empty object report zero.
func (o *Object) Velocity() mgl64.Vec3 {
	switch b := o.live.(type) {
	case rigidbody.Dynamic:
		return b.LinearVelocity()
	case rigidbody.Kinematic:
		return b.LinearVelocity()
	}
	return mgl64.Vec3{}
}

// Force reports the accumulated force. Only dynamic bodies accumulate force.
func (o *Object) Force() mgl64.Vec3 {
	if b, ok := o.live.(rigidbody.Dynamic); ok {
		return b.Force()
	}
	return mgl64.Vec3{}
}

func (o *Object) Mass() float64 {
	if b, ok := o.live.(rigidbody.Body); ok {
		return b.Mass()
	}
	return 0
}

func (o *Object) SetPosition(p mgl64.Vec3) {
	if b, ok := o.live.(rigidbody.Body); ok {
		b.SetPosition(p)
	}
}

func (o *Object) SetRotation(r mgl64.Vec3) {
	if b, ok := o.live.(rigidbody.Body); ok {
		b.SetRotation(r)
	}
}

// SetVelocity sets the linear velocity of a dynamic or kinematic body and
// is ignored otherwise.
func (o *Object) SetVelocity(v mgl64.Vec3) {
	switch b := o.live.(type) {
	case rigidbody.Dynamic:
		b.SetLinearVelocity(v)
	case rigidbody.Kinematic:
		b.SetLinearVelocity(v)
	}
}

func (o *Object) IsRigidBody() bool {
	_, ok := o.live.(rigidbody.Body)
	return ok
}

// RigidBodyType reports the live rigid-body state, or TypeNone.
func (o *Object) RigidBodyType() rigidbody.Type {
	if b, ok := o.live.(rigidbody.Body); ok {
		return b.Type()
	}
	return rigidbody.TypeNone
}

// SwitchRigidBodyType converts the live rigid body to the state to and
// stores the result in place. TypeNone clears the object; switching to
// the current state does nothing.
func (o *Object) SwitchRigidBodyType(to rigidbody.Type) error {
	b, ok := o.live.(rigidbody.Body)
	if !ok {
		return fmt.Errorf("%w: switch rigid body type on %s object", ErrInvalidOperation, o.describe())
	}
	if to == rigidbody.TypeNone {
		o.live = nil
		return nil
	}
	if !to.Valid() {
		return fmt.Errorf("%w: rigid body type %s", ErrInvalidState, to)
	}
	if b.Type() == to {
		return nil
	}
	converted, err := rigidbody.ConvertTo(b, to)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	o.live = converted
	return nil
}

func (o *Object) IsDeformable() bool {
	_, ok := o.live.(deformable.Body)
	return ok
}

func (o *Object) DeformableType() deformable.Type {
	if b, ok := o.live.(deformable.Body); ok {
		return b.Type()
	}
	return deformable.TypeNone
}

func (o *Object) DirtyPositions() []mgl64.Vec3 {
	if b, ok := o.live.(deformable.Body); ok {
		return b.DirtyPositions()
	}
	return nil
}

func (o *Object) DirtyIndices() []uint32 {
	if b, ok := o.live.(deformable.Body); ok {
		return b.DirtyIndices()
	}
	return nil
}
