package metrics

import (
	"math"

	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/system"
)

// Stability is the fraction of ticks in which every object stayed finite
// and within threshold of the origin.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) OnTick(sys *system.System, t float64) {
	s.samples++
	violated := false
	sys.Each(func(_ uint32, obj *physics.Object) {
		if violated {
			return
		}
		for _, val := range obj.Position() {
			if math.IsNaN(val) || math.Abs(val) > s.threshold {
				violated = true
				return
			}
		}
	})
	if violated {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// MaxSpeed is the largest linear speed any object reached.
type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) OnTick(s *system.System, t float64) {
	s.Each(func(_ uint32, obj *physics.Object) {
		m.max = math.Max(m.max, obj.Velocity().Len())
	})
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }
