// Package deformable declares the deformable-body alternatives of a physics
// object. Simulation of deformable bodies is not implemented; constructors
// always fail with [ErrNotImplemented].
package deformable

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrNotImplemented = errors.New("physics: not implemented")

type Type int

const (
	TypeCloth Type = 0
	TypeMesh  Type = 1

	TypeNone Type = -1
)

func (t Type) String() string {
	switch t {
	case TypeCloth:
		return "cloth"
	case TypeMesh:
		return "mesh"
	case TypeNone:
		return "none"
	}
	return "unknown"
}

// Body is implemented by [Cloth] and [Mesh].
type Body interface {
	Type() Type
	DirtyPositions() []mgl64.Vec3
	DirtyIndices() []uint32
}

type surface struct {
	positions []mgl64.Vec3
	indices   []uint32
}

func (s surface) DirtyPositions() []mgl64.Vec3 { return s.positions }
func (s surface) DirtyIndices() []uint32       { return s.indices }

type Cloth struct {
	surface
}

func (Cloth) Type() Type { return TypeCloth }

type Mesh struct {
	surface
}

func (Mesh) Type() Type { return TypeMesh }

func NewCloth() (Cloth, error) { return Cloth{}, ErrNotImplemented }
func NewMesh() (Mesh, error)   { return Mesh{}, ErrNotImplemented }
