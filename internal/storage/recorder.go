package storage

import (
	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/system"
)

// Recorder is a system observer that samples every registered object
// after each tick.
type Recorder struct {
	samples []Sample
}

func NewRecorder() *Recorder {
	return &Recorder{samples: make([]Sample, 0)}
}

func (r *Recorder) OnTick(s *system.System, t float64) {
	step := s.Steps()
	s.Each(func(id uint32, obj *physics.Object) {
		r.samples = append(r.samples, Sample{
			Step:     step,
			Time:     t,
			ID:       id,
			Type:     obj.RigidBodyType(),
			Mass:     obj.Mass(),
			Position: obj.Position(),
			Rotation: obj.Rotation(),
			Velocity: obj.Velocity(),
		})
	})
}

func (r *Recorder) Samples() []Sample { return r.samples }

func (r *Recorder) Reset() { r.samples = r.samples[:0] }
