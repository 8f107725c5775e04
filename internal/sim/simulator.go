// Package sim runs configured scenes to completion.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/hinape/internal/config"
	"github.com/san-kum/hinape/internal/metrics"
	"github.com/san-kum/hinape/internal/scene"
	"github.com/san-kum/hinape/internal/system"
)

// Hook runs before every step, after scheduled type changes are applied.
type Hook func(sc *scene.Scene, step int)

type Simulator struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   []metrics.Metric
	observers []system.Observer
	hooks     []Hook
	realtime  bool
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func WithMetrics(m ...metrics.Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, m...) }
}

func WithObserver(o system.Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, o) }
}

func WithHook(h Hook) Option {
	return func(s *Simulator) { s.hooks = append(s.hooks, h) }
}

// WithRealtime paces steps so that simulated time tracks wall-clock time.
func WithRealtime() Option {
	return func(s *Simulator) { s.realtime = true }
}

func New(cfg *config.Config, opts ...Option) *Simulator {
	s := &Simulator{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Result struct {
	Name             string
	Kernel           string
	StepsTaken       int
	Conversions      int
	TransitionErrors []error
	Metrics          map[string]float64
	Elapsed          time.Duration

	// Scene is the simulated scene after the last step. Its system is
	// still live and owned by the caller.
	Scene *scene.Scene
}

// Run builds a fresh system and scene from the config and steps it
// cfg.Steps times. Transition failures are collected in the result; a
// kernel failure or cancellation stops the run and is returned together
// with the partial result.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	kernel, err := s.cfg.NewKernel()
	if err != nil {
		return nil, err
	}
	sys := system.New(system.WithKernel(kernel), system.WithLogger(s.logger))
	for _, m := range s.metrics {
		m.Reset()
		sys.AddObserver(m)
	}
	for _, o := range s.observers {
		sys.AddObserver(o)
	}

	sc, err := s.cfg.BuildScene(sys, scene.WithLogger(s.logger))
	if err != nil {
		sys.Destroy()
		return nil, err
	}

	result := &Result{
		Name:    s.cfg.Name,
		Kernel:  kernel.Name(),
		Metrics: make(map[string]float64),
		Scene:   sc,
	}

	var pace *time.Ticker
	if s.realtime {
		pace = time.NewTicker(time.Duration(s.cfg.Dt * float64(time.Second)))
		defer pace.Stop()
	}

	start := time.Now()
	defer func() {
		result.Elapsed = time.Since(start)
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}()

	for i := 0; i < s.cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := s.cfg.Apply(sc, i); err != nil {
			return result, err
		}
		for _, h := range s.hooks {
			h(sc, i)
		}

		report, err := sc.Step(s.cfg.Dt)
		result.Conversions += report.Conversions
		result.TransitionErrors = append(result.TransitionErrors, report.Errors...)
		if err != nil {
			return result, fmt.Errorf("step %d: %w", i, err)
		}
		result.StepsTaken++

		if pace != nil {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-pace.C:
			}
		}
	}

	s.logger.Debug("run complete", "scene", s.cfg.Name, "steps", result.StepsTaken,
		"conversions", result.Conversions, "transition_errors", len(result.TransitionErrors))
	return result, nil
}

// Err joins the transition errors of the run.
func (r *Result) Err() error {
	return errors.Join(r.TransitionErrors...)
}
