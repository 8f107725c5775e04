package physics

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/hinape/internal/deformable"
	"github.com/san-kum/hinape/internal/rigidbody"
)

func TestNewRigidBodyIsDynamic(t *testing.T) {
	for i := 0; i < 3; i++ {
		obj, err := New(KindRigidBody)
		if err != nil {
			t.Fatalf("new failed: %v", err)
		}
		if obj.RigidBodyType() != rigidbody.TypeDynamic {
			t.Errorf("expected dynamic, got %s", obj.RigidBodyType())
		}
		if !obj.IsRigidBody() {
			t.Error("expected rigid body")
		}
		if obj.IsDeformable() {
			t.Error("rigid body reported as deformable")
		}
		if obj.Kind() != KindRigidBody {
			t.Errorf("expected kind rigidbody, got %s", obj.Kind())
		}
	}
}

func TestNewNotImplemented(t *testing.T) {
	for _, kind := range []Kind{KindDeformable, KindFluid, KindDeformable, KindFluid} {
		obj, err := New(kind)
		if !errors.Is(err, ErrNotImplemented) {
			t.Errorf("kind %s: expected ErrNotImplemented, got %v", kind, err)
		}
		if obj != nil {
			t.Errorf("kind %s: expected nil object", kind)
		}
	}
}

func TestNewNone(t *testing.T) {
	obj, err := New(KindNone)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if !obj.IsEmpty() {
		t.Error("expected empty object")
	}
	if obj.RigidBodyType() != rigidbody.TypeNone {
		t.Errorf("expected TypeNone, got %s", obj.RigidBodyType())
	}
	if obj.DeformableType() != deformable.TypeNone {
		t.Errorf("expected deformable TypeNone, got %s", obj.DeformableType())
	}
}

func TestGetMatchesLiveAlternative(t *testing.T) {
	objects := map[string]*Object{
		"dynamic":   FromRigidBody(rigidbody.NewDynamic()),
		"static":    FromRigidBody(rigidbody.NewStatic()),
		"kinematic": FromRigidBody(rigidbody.NewKinematic()),
		"cloth":     FromDeformable(deformable.Cloth{}),
		"mesh":      FromDeformable(deformable.Mesh{}),
		"none":      {},
	}

	getters := map[string]func(*Object) error{
		"dynamic":   func(o *Object) error { _, err := Get[rigidbody.Dynamic](o); return err },
		"static":    func(o *Object) error { _, err := Get[rigidbody.Static](o); return err },
		"kinematic": func(o *Object) error { _, err := Get[rigidbody.Kinematic](o); return err },
		"cloth":     func(o *Object) error { _, err := Get[deformable.Cloth](o); return err },
		"mesh":      func(o *Object) error { _, err := Get[deformable.Mesh](o); return err },
	}

	for live, obj := range objects {
		for want, get := range getters {
			err := get(obj)
			if live == want {
				if err != nil {
					t.Errorf("Get[%s] on %s: unexpected error %v", want, live, err)
				}
				continue
			}
			if !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("Get[%s] on %s: expected ErrTypeMismatch, got %v", want, live, err)
			}
		}
	}
}

func TestFacadeStaticReportsZero(t *testing.T) {
	d := rigidbody.NewDynamic()
	d.SetLinearVelocity(mgl64.Vec3{1, 2, 3})
	d.AddForce(mgl64.Vec3{4, 0, 0})
	obj := FromRigidBody(d)

	if obj.Velocity() != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("expected velocity, got %v", obj.Velocity())
	}
	if obj.Force() != (mgl64.Vec3{4, 0, 0}) {
		t.Errorf("expected force, got %v", obj.Force())
	}

	if err := obj.SwitchRigidBodyType(rigidbody.TypeStatic); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	obj.SetVelocity(mgl64.Vec3{9, 9, 9})

	if obj.Velocity() != (mgl64.Vec3{}) {
		t.Errorf("static velocity should read zero, got %v", obj.Velocity())
	}
	if obj.Force() != (mgl64.Vec3{}) {
		t.Errorf("static force should read zero, got %v", obj.Force())
	}
}

func TestFacadeKinematic(t *testing.T) {
	obj := FromRigidBody(rigidbody.NewKinematic())
	obj.SetVelocity(mgl64.Vec3{0, 1, 0})
	obj.SetPosition(mgl64.Vec3{5, 0, 0})
	obj.SetRotation(mgl64.Vec3{0, 0, 1})

	if obj.Velocity() != (mgl64.Vec3{0, 1, 0}) {
		t.Errorf("expected velocity, got %v", obj.Velocity())
	}
	if obj.Force() != (mgl64.Vec3{}) {
		t.Errorf("kinematic force should read zero, got %v", obj.Force())
	}
	if obj.Position() != (mgl64.Vec3{5, 0, 0}) || obj.Rotation() != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("pose not stored: %v %v", obj.Position(), obj.Rotation())
	}
}

func TestSwitchRigidBodyType(t *testing.T) {
	d := rigidbody.NewDynamic()
	d.SetMass(3)
	d.SetPosition(mgl64.Vec3{1, 1, 1})
	obj := FromRigidBody(d)

	if err := obj.SwitchRigidBodyType(rigidbody.TypeKinematic); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	k, err := Get[rigidbody.Kinematic](obj)
	if err != nil {
		t.Fatalf("expected kinematic: %v", err)
	}
	if k.Mass() != 3 || k.Position() != (mgl64.Vec3{1, 1, 1}) {
		t.Errorf("fields not carried: mass=%v pos=%v", k.Mass(), k.Position())
	}

	if err := obj.SwitchRigidBodyType(rigidbody.TypeKinematic); err != nil {
		t.Errorf("same-type switch should be a no-op, got %v", err)
	}

	if err := obj.SwitchRigidBodyType(rigidbody.Type(5)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}

	if err := obj.SwitchRigidBodyType(rigidbody.TypeNone); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if !obj.IsEmpty() {
		t.Error("expected empty object after switching to none")
	}
}

func TestSwitchRigidBodyTypeInvalidOperation(t *testing.T) {
	tests := []struct {
		name string
		obj  *Object
	}{
		{"empty", &Object{}},
		{"cloth", FromDeformable(deformable.Cloth{})},
		{"mesh", FromDeformable(deformable.Mesh{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obj.SwitchRigidBodyType(rigidbody.TypeStatic)
			if !errors.Is(err, ErrInvalidOperation) {
				t.Errorf("expected ErrInvalidOperation, got %v", err)
			}
		})
	}
}

func TestZeroValueRigidBody(t *testing.T) {
	obj := FromRigidBody(rigidbody.Dynamic{})

	if obj.Mass() != rigidbody.DefaultMass {
		t.Errorf("expected default mass, got %v", obj.Mass())
	}
	obj.SetVelocity(mgl64.Vec3{1, 0, 0})
	if obj.Velocity() != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("expected velocity to stick, got %v", obj.Velocity())
	}
	if err := obj.SwitchRigidBodyType(rigidbody.TypeStatic); err != nil {
		t.Fatalf("switch failed: %v", err)
	}

	obj.SetRigidBody(rigidbody.Kinematic{})
	if obj.RigidBodyType() != rigidbody.TypeKinematic || obj.Position() != (mgl64.Vec3{}) {
		t.Errorf("expected fresh kinematic body, got %s", obj.RigidBodyType())
	}
}

func TestDeformableNotImplemented(t *testing.T) {
	if _, err := deformable.NewCloth(); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("NewCloth: expected ErrNotImplemented, got %v", err)
	}
	if _, err := deformable.NewMesh(); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("NewMesh: expected ErrNotImplemented, got %v", err)
	}
}

func TestDeformableFacade(t *testing.T) {
	obj := FromDeformable(deformable.Mesh{})

	if !obj.IsDeformable() || obj.DeformableType() != deformable.TypeMesh {
		t.Errorf("expected mesh deformable, got %s", obj.DeformableType())
	}
	if obj.Kind() != KindDeformable {
		t.Errorf("expected kind deformable, got %s", obj.Kind())
	}
	if obj.Mass() != 0 || obj.Velocity() != (mgl64.Vec3{}) {
		t.Error("deformable facade should read zero")
	}
	if len(obj.DirtyPositions()) != 0 || len(obj.DirtyIndices()) != 0 {
		t.Error("expected empty dirty buffers")
	}
}

func TestParseKind(t *testing.T) {
	var k Kind
	if err := k.UnmarshalText([]byte("fluid")); err != nil || k != KindFluid {
		t.Errorf("expected fluid, got %v (%v)", k, err)
	}
	if _, err := ParseKind("plasma"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
