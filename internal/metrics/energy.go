package metrics

import (
	"math"

	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/system"
)

// Metric summarizes a run by observing the system after every tick.
type Metric interface {
	system.Observer
	Name() string
	Value() float64
	Reset()
}

// Defaults returns the metrics recorded for every run.
func Defaults() []Metric {
	return []Metric{NewKineticEnergy(), NewEnergyDrift(), NewMaxSpeed(), NewStability(1e6)}
}

// kineticEnergy sums ½mv² over every moving rigid body. Static bodies and
// non-rigid objects contribute nothing.
func kineticEnergy(s *system.System) float64 {
	total := 0.0
	s.Each(func(_ uint32, obj *physics.Object) {
		v := obj.Velocity()
		total += 0.5 * obj.Mass() * v.Dot(v)
	})
	return total
}

// KineticEnergy is the mean total kinetic energy over the run.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) OnTick(s *system.System, t float64) {
	e.total += kineticEnergy(s)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift is the largest relative change of kinetic energy from the
// first observed tick.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) OnTick(s *system.System, t float64) {
	energy := kineticEnergy(s)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
