package physics

import (
	"errors"

	"github.com/san-kum/hinape/internal/deformable"
)

// Contract violations raised by physics objects and their owners. None of
// them is recovered locally.
var (
	// ErrNotImplemented indicates a declared but unsupported object kind.
	// The deformable constructors return the same value.
	ErrNotImplemented = deformable.ErrNotImplemented

	// ErrTypeMismatch indicates Get was asked for a type that is not live.
	ErrTypeMismatch = errors.New("physics: type mismatch")

	// ErrInvalidOperation indicates a rigid-body operation on an object
	// that holds no rigid body.
	ErrInvalidOperation = errors.New("physics: invalid operation")

	// ErrInvalidState indicates a rigid-body type tag outside the supported set.
	ErrInvalidState = errors.New("physics: invalid state")
)
