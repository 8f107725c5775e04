package rigidbody

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType indicates a rigid-body type tag outside the known set.
var ErrUnknownType = errors.New("rigidbody: unknown rigid body type")

type Type int

const (
	TypeDynamic   Type = 0
	TypeStatic    Type = 1
	TypeKinematic Type = 2

	TypeNone Type = -1
)

var typeNames = map[Type]string{
	TypeDynamic:   "dynamic",
	TypeStatic:    "static",
	TypeKinematic: "kinematic",
	TypeNone:      "none",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether t names one of the three rigid-body states.
func (t Type) Valid() bool {
	return t == TypeDynamic || t == TypeStatic || t == TypeKinematic
}

func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dynamic":
		return TypeDynamic, nil
	case "static":
		return TypeStatic, nil
	case "kinematic":
		return TypeKinematic, nil
	case "none", "":
		return TypeNone, nil
	}
	return TypeNone, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

func (t Type) MarshalText() ([]byte, error) {
	if _, ok := typeNames[t]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
