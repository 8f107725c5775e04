package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/san-kum/hinape/internal/system"
)

var ErrDuplicateEntity = errors.New("scene: duplicate entity id")

// Scene owns entities and drives their physics through an injected system.
type Scene struct {
	system   *system.System
	entities map[uint32]*Entity
	logger   *slog.Logger
}

type Option func(*Scene)

func WithLogger(l *slog.Logger) Option {
	return func(s *Scene) { s.logger = l }
}

func New(sys *system.System, opts ...Option) *Scene {
	s := &Scene{
		system:   sys,
		entities: make(map[uint32]*Entity),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scene) System() *system.System { return s.system }

// Add inserts e and registers its physics object, if any, under e.ID.
func (s *Scene) Add(e *Entity) error {
	if _, ok := s.entities[e.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateEntity, e.ID)
	}
	s.entities[e.ID] = e
	if e.HasPhysics() {
		s.system.Register(e.ID, e.Object())
	}
	return nil
}

func (s *Scene) Remove(id uint32) {
	if _, ok := s.entities[id]; !ok {
		return
	}
	delete(s.entities, id)
	s.system.Unregister(id)
}

func (s *Scene) Entity(id uint32) (*Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Entities returns the entities in id order.
func (s *Scene) Entities() []*Entity {
	out := make([]*Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Entity) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// StepReport summarizes the transitions of one scene step.
type StepReport struct {
	Conversions int
	Errors      []error
}

// Err joins the per-entity transition errors.
func (r StepReport) Err() error {
	return errors.Join(r.Errors...)
}

// Step runs every entity's transition, ticks the system, then copies the
// simulated poses back into the entities. A failed transition is recorded
// in the report and does not stop the other entities or the tick.
func (s *Scene) Step(dt float64) (StepReport, error) {
	var report StepReport
	entities := s.Entities()

	for _, e := range entities {
		from := e.AppliedRigidBodyType()
		converted, err := e.Step()
		if err != nil {
			s.logger.Warn("rigid body transition failed", "entity", e.ID, "error", err)
			report.Errors = append(report.Errors, err)
			continue
		}
		if converted {
			report.Conversions++
			s.logger.Debug("rigid body converted", "entity", e.ID, "from", from, "to", e.AppliedRigidBodyType())
		}
	}

	if err := s.system.Tick(dt); err != nil {
		return report, err
	}

	for _, e := range entities {
		e.SyncPose()
	}
	return report, nil
}
