// Package rigidbody provides the rigid-body type-state values.
//
// A rigid body is in exactly one of three states, each its own Go type:
//
//   - [Dynamic]: affected by forces; owns velocity, damping and a force accumulator
//   - [Kinematic]: driven externally; owns velocity but never accumulates force
//   - [Static]: immovable; stores no velocity at all
//
// The method set of each type is its capability set. Applying a force to a
// [Static] body does not compile:
//
//	ground := rigidbody.NewStatic()
//	ground.AddForce(mgl64.Vec3{0, 10, 0}) // compile error
//
// Switching state is an explicit conversion that builds a fresh value and
// copies only the fields meaningful to both states:
//
//	box := rigidbody.NewDynamic()
//	box.SetLinearVelocity(mgl64.Vec3{1, 0, 0})
//	frozen := rigidbody.Convert[rigidbody.Static](box) // velocity dropped
//
// Values hold a pointer to their implementation block, so copying a value
// aliases the same body. Only [Convert] and [ConvertTo] create new blocks.
package rigidbody
