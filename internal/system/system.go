// Package system provides the physics system: a registry of shared physics
// objects ticked once per frame through a swappable simulation kernel.
//
// Hosts construct a [System] with [New] and pass it to whatever needs it.
// [Instance] and [Destroy] manage a lazily created process-wide system for
// hosts that want a single default.
//
// # Thread Safety
//
// A System is NOT safe for concurrent use. Register, transitions and Tick
// must all run on the thread that drives the frame loop.
package system

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/san-kum/hinape/internal/physics"
)

var (
	ErrDestroyed = errors.New("system: destroyed")
	ErrInvalidDt = errors.New("system: dt must be positive and finite")
)

// Kernel advances every registered object by one step.
type Kernel interface {
	Name() string
	Simulate(s *System, dt float64) error
}

// Observer is notified after every successful tick.
type Observer interface {
	OnTick(s *System, t float64)
}

type System struct {
	objects   map[uint32]*physics.Object
	kernel    Kernel
	observers []Observer
	logger    *slog.Logger

	time      float64
	steps     int
	destroyed bool
}

type Option func(*System)

func WithKernel(k Kernel) Option {
	return func(s *System) { s.kernel = k }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *System) { s.logger = l }
}

func New(opts ...Option) *System {
	s := &System{
		objects:   make(map[uint32]*physics.Object),
		kernel:    Placeholder{},
		observers: make([]Observer, 0),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *System) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *System) Kernel() Kernel { return s.kernel }

func (s *System) SetKernel(k Kernel) {
	s.logger.Debug("kernel changed", "from", s.kernel.Name(), "to", k.Name())
	s.kernel = k
}

// Register stores obj under id, replacing any previous entry. The system
// shares obj with its other holders. Registering nil removes the entry.
func (s *System) Register(id uint32, obj *physics.Object) {
	if obj == nil {
		s.Unregister(id)
		return
	}
	if _, ok := s.objects[id]; ok {
		s.logger.Debug("physics object replaced", "id", id)
	}
	s.objects[id] = obj
}

func (s *System) Unregister(id uint32) {
	delete(s.objects, id)
}

func (s *System) Lookup(id uint32) (*physics.Object, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

func (s *System) Len() int { return len(s.objects) }

// IDs returns the registered ids in ascending order.
func (s *System) IDs() []uint32 {
	ids := make([]uint32, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Each calls fn for every registered object in id order.
func (s *System) Each(fn func(id uint32, obj *physics.Object)) {
	for _, id := range s.IDs() {
		fn(id, s.objects[id])
	}
}

func (s *System) Time() float64 { return s.time }
func (s *System) Steps() int     { return s.steps }

// Tick runs the kernel once over all registered objects.
func (s *System) Tick(dt float64) error {
	if s.destroyed {
		return ErrDestroyed
	}
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w, got %f", ErrInvalidDt, dt)
	}

	if err := s.kernel.Simulate(s, dt); err != nil {
		return fmt.Errorf("kernel %s at step %d: %w", s.kernel.Name(), s.steps, err)
	}

	s.time += dt
	s.steps++

	for _, o := range s.observers {
		o.OnTick(s, s.time)
	}
	return nil
}

// Destroy releases every registered object and observer. The system
// rejects further ticks.
func (s *System) Destroy() {
	if s.destroyed {
		return
	}
	s.logger.Debug("physics system destroyed", "objects", len(s.objects), "steps", s.steps)
	clear(s.objects)
	s.observers = nil
	s.destroyed = true
}

func (s *System) Destroyed() bool { return s.destroyed }
