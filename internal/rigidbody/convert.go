package rigidbody

import "fmt"

// Convert builds a fresh body of state To from the body from.
//
// Position, rotation, mass and linear damping always carry over. Velocity
// carries over only between dynamic and kinematic bodies, so anything that
// passes through Static comes out at rest. Angular damping survives only
// dynamic to dynamic; other targets get the default. Accumulated force is
// never carried.
//
// A zero-value source converts to a fresh body with default parameters.
//
// Converting a body to its own state is not a state switch; callers should
// not do it. It returns an independent copy.
func Convert[To, From State](from From) To {
	var target To
	return wrap[To](convertImpl(from.block(), target.Type()))
}

func convertImpl(src *impl, to Type) *impl {
	dst := newImpl(to)
	if src == nil {
		return dst
	}
	dst.position = src.position
	dst.rotation = src.rotation
	dst.mass = src.mass
	dst.linearDamping = src.linearDamping

	if src.motion != nil && dst.motion != nil {
		*dst.motion = *src.motion
	}
	if src.dynamics != nil && dst.dynamics != nil {
		dst.dynamics.angularDamping = src.dynamics.angularDamping
	}
	return dst
}

func wrap[T State](b *impl) T {
	var out T
	switch p := any(&out).(type) {
	case *Dynamic:
		p.b = b
	case *Static:
		p.b = b
	case *Kinematic:
		p.b = b
	}
	return out
}

// ConvertTo is the run-time form of [Convert] for callers holding a [Body]
// of unknown state. It dispatches over every (from, to) pair.
func ConvertTo(from Body, to Type) (Body, error) {
	switch src := from.(type) {
	case Dynamic:
		switch to {
		case TypeStatic:
			return Convert[Static](src), nil
		case TypeKinematic:
			return Convert[Kinematic](src), nil
		case TypeDynamic:
			return Convert[Dynamic](src), nil
		}
	case Static:
		switch to {
		case TypeDynamic:
			return Convert[Dynamic](src), nil
		case TypeKinematic:
			return Convert[Kinematic](src), nil
		case TypeStatic:
			return Convert[Static](src), nil
		}
	case Kinematic:
		switch to {
		case TypeDynamic:
			return Convert[Dynamic](src), nil
		case TypeStatic:
			return Convert[Static](src), nil
		case TypeKinematic:
			return Convert[Kinematic](src), nil
		}
	default:
		return nil, fmt.Errorf("rigidbody: cannot convert %T", from)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, to)
}
