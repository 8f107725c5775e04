package rigidbody

import "github.com/go-gl/mathgl/mgl64"

const (
	DefaultMass           = 1.0
	DefaultLinearDamping  = 0.01
	DefaultAngularDamping = 0.05
)

// impl is the implementation block shared by every state. Static bodies
// leave motion and dynamics nil; kinematic bodies leave dynamics nil.
type impl struct {
	position      mgl64.Vec3
	rotation      mgl64.Vec3
	mass          float64
	linearDamping float64

	motion   *motion
	dynamics *dynamics
}

type motion struct {
	linearVelocity  mgl64.Vec3
	angularVelocity mgl64.Vec3
}

type dynamics struct {
	angularDamping float64
	force          mgl64.Vec3
}

func newImpl(t Type) *impl {
	b := &impl{
		mass:          DefaultMass,
		linearDamping: DefaultLinearDamping,
	}
	switch t {
	case TypeDynamic:
		b.motion = &motion{}
		b.dynamics = &dynamics{angularDamping: DefaultAngularDamping}
	case TypeKinematic:
		b.motion = &motion{}
	}
	return b
}

// Body is implemented by [Dynamic], [Static] and [Kinematic] only.
type Body interface {
	Type() Type
	Position() mgl64.Vec3
	Rotation() mgl64.Vec3
	SetPosition(p mgl64.Vec3)
	SetRotation(r mgl64.Vec3)
	Mass() float64

	block() *impl
}

// State is the type-set of the rigid-body states, used by [Convert].
type State interface {
	Dynamic | Static | Kinematic
	Body
}

type base struct {
	b *impl
}

func (s base) Position() mgl64.Vec3     { return s.b.position }
func (s base) Rotation() mgl64.Vec3     { return s.b.rotation }
func (s base) SetPosition(p mgl64.Vec3) { s.b.position = p }
func (s base) SetRotation(r mgl64.Vec3) { s.b.rotation = r }
func (s base) Mass() float64            { return s.b.mass }
func (s base) block() *impl             { return s.b }

// moving carries the operations shared by dynamic and kinematic bodies.
type moving struct {
	base
}

func (s moving) SetMass(m float64) { s.b.mass = m }

func (s moving) LinearVelocity() mgl64.Vec3  { return s.b.motion.linearVelocity }
func (s moving) AngularVelocity() mgl64.Vec3 { return s.b.motion.angularVelocity }

func (s moving) SetLinearVelocity(v mgl64.Vec3)  { s.b.motion.linearVelocity = v }
func (s moving) SetAngularVelocity(w mgl64.Vec3) { s.b.motion.angularVelocity = w }

func (s moving) LinearDamping() float64     { return s.b.linearDamping }
func (s moving) SetLinearDamping(d float64) { s.b.linearDamping = d }

// Dynamic is a body moved by forces and integration.
type Dynamic struct {
	moving
}

func NewDynamic() Dynamic {
	return Dynamic{moving{base{newImpl(TypeDynamic)}}}
}

func (Dynamic) Type() Type { return TypeDynamic }

func (d Dynamic) AddForce(f mgl64.Vec3) {
	d.b.dynamics.force = d.b.dynamics.force.Add(f)
}

// AddAcceleration accumulates the force that produces a on the current mass.
func (d Dynamic) AddAcceleration(a mgl64.Vec3) {
	d.AddForce(a.Mul(d.b.mass))
}

func (d Dynamic) Force() mgl64.Vec3 { return d.b.dynamics.force }
func (d Dynamic) ClearForce()       { d.b.dynamics.force = mgl64.Vec3{} }

func (d Dynamic) AngularDamping() float64     { return d.b.dynamics.angularDamping }
func (d Dynamic) SetAngularDamping(v float64) { d.b.dynamics.angularDamping = v }

// Kinematic is a body whose velocity is set from outside the solver.
type Kinematic struct {
	moving
}

func NewKinematic() Kinematic {
	return Kinematic{moving{base{newImpl(TypeKinematic)}}}
}

func (Kinematic) Type() Type { return TypeKinematic }

// Static is an immovable body. Its mass is carried for conversions but the
// solver treats it as infinite.
type Static struct {
	base
}

func NewStatic() Static {
	return Static{base{newImpl(TypeStatic)}}
}

func (Static) Type() Type { return TypeStatic }

// IsZero reports whether b is a zero value such as Dynamic{}, which has no
// implementation block. Accessors on a zero body panic; [Ready] replaces it
// with a fresh body of the same state.
func IsZero(b Body) bool {
	return b == nil || b.block() == nil
}

// Ready returns b, or a fresh body of b's state when b is a zero value.
func Ready(b Body) Body {
	if b == nil || b.block() != nil {
		return b
	}
	fresh, _ := New(b.Type())
	return fresh
}

// New returns a fresh body for t.
func New(t Type) (Body, error) {
	switch t {
	case TypeDynamic:
		return NewDynamic(), nil
	case TypeStatic:
		return NewStatic(), nil
	case TypeKinematic:
		return NewKinematic(), nil
	}
	return nil, ErrUnknownType
}
