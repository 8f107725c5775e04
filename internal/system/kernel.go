package system

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/rigidbody"
)

// Placeholder visits nothing and integrates nothing.
type Placeholder struct{}

func (Placeholder) Name() string                    { return "placeholder" }
func (Placeholder) Simulate(*System, float64) error { return nil }

var DefaultGravity = mgl64.Vec3{0, -9.81, 0}

// GravityKernel is a kernel that applies a uniform gravity to dynamic bodies.
type GravityKernel interface {
	Kernel
	SetGravity(g mgl64.Vec3)
}

// Euler is a semi-implicit Euler step over rigid bodies. Dynamic bodies
// integrate their accumulated force plus gravity, kinematic bodies follow
// their velocity and static bodies never move. No collisions.
type Euler struct {
	Gravity mgl64.Vec3
}

func NewEuler() *Euler {
	return &Euler{Gravity: DefaultGravity}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) SetGravity(g mgl64.Vec3) { e.Gravity = g }

func (e *Euler) Simulate(s *System, dt float64) error {
	return integrate(s, dt, e.stepDynamic)
}

// integrate steps every dynamic body with stepDynamic and moves every
// kinematic body along its velocity.
func integrate(s *System, dt float64, stepDynamic func(rigidbody.Dynamic, float64)) error {
	var err error
	s.Each(func(id uint32, obj *physics.Object) {
		if err != nil {
			return
		}
		switch obj.RigidBodyType() {
		case rigidbody.TypeDynamic:
			d, getErr := physics.Get[rigidbody.Dynamic](obj)
			if getErr != nil {
				err = fmt.Errorf("object %d: %w", id, getErr)
				return
			}
			stepDynamic(d, dt)
		case rigidbody.TypeKinematic:
			k, getErr := physics.Get[rigidbody.Kinematic](obj)
			if getErr != nil {
				err = fmt.Errorf("object %d: %w", id, getErr)
				return
			}
			k.SetPosition(k.Position().Add(k.LinearVelocity().Mul(dt)))
			k.SetRotation(k.Rotation().Add(k.AngularVelocity().Mul(dt)))
		}
	})
	return err
}

func (e *Euler) stepDynamic(d rigidbody.Dynamic, dt float64) {
	defer d.ClearForce()
	if d.Mass() <= 0 {
		return
	}

	d.AddAcceleration(e.Gravity)
	accel := d.Force().Mul(1 / d.Mass())

	v := d.LinearVelocity().Add(accel.Mul(dt))
	v = v.Mul(damp(d.LinearDamping(), dt))
	w := d.AngularVelocity().Mul(damp(d.AngularDamping(), dt))

	d.SetLinearVelocity(v)
	d.SetAngularVelocity(w)
	d.SetPosition(d.Position().Add(v.Mul(dt)))
	d.SetRotation(d.Rotation().Add(w.Mul(dt)))
}

// Verlet is a velocity Verlet step. Forces are held constant across the
// step, so positions pick up the half-step acceleration term that Euler
// drops.
type Verlet struct {
	Gravity mgl64.Vec3
}

func NewVerlet() *Verlet {
	return &Verlet{Gravity: DefaultGravity}
}

func (v *Verlet) Name() string { return "verlet" }

func (v *Verlet) SetGravity(g mgl64.Vec3) { v.Gravity = g }

func (v *Verlet) Simulate(s *System, dt float64) error {
	return integrate(s, dt, v.stepDynamic)
}

func (v *Verlet) stepDynamic(d rigidbody.Dynamic, dt float64) {
	defer d.ClearForce()
	if d.Mass() <= 0 {
		return
	}

	d.AddAcceleration(v.Gravity)
	accel := d.Force().Mul(1 / d.Mass())

	vel := d.LinearVelocity()
	d.SetPosition(d.Position().Add(vel.Mul(dt)).Add(accel.Mul(0.5 * dt * dt)))
	vel = vel.Add(accel.Mul(dt)).Mul(damp(d.LinearDamping(), dt))
	d.SetLinearVelocity(vel)

	w := d.AngularVelocity().Mul(damp(d.AngularDamping(), dt))
	d.SetAngularVelocity(w)
	d.SetRotation(d.Rotation().Add(w.Mul(dt)))
}

func damp(c, dt float64) float64 {
	return math.Max(0, 1-c*dt)
}

var kernels = map[string]func() Kernel{
	"placeholder": func() Kernel { return Placeholder{} },
	"euler":       func() Kernel { return NewEuler() },
	"verlet":      func() Kernel { return NewVerlet() },
}

func NewKernel(name string) (Kernel, error) {
	fn, ok := kernels[name]
	if !ok {
		return nil, fmt.Errorf("unknown kernel: %s", name)
	}
	return fn(), nil
}

func ListKernels() []string {
	names := make([]string, 0, len(kernels))
	for name := range kernels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
