package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/san-kum/hinape/internal/config"
	"github.com/san-kum/hinape/internal/metrics"
	"github.com/san-kum/hinape/internal/sim"
	"gopkg.in/yaml.v3"
)

// Batch lists independent scene runs to execute together, e.g. the same
// scene under different kernels.
type Batch struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Runs        []BatchRun `yaml:"runs"`

	dir string
}

// BatchRun names a scene by preset or file and optionally overrides its
// run settings.
type BatchRun struct {
	Label  string  `yaml:"label"`
	Preset string  `yaml:"preset"`
	Scene  string  `yaml:"scene"`
	Kernel string  `yaml:"kernel"`
	Dt     float64 `yaml:"dt"`
	Steps  int     `yaml:"steps"`
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var batch Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, err
	}
	if len(batch.Runs) == 0 {
		return nil, fmt.Errorf("batch %s has no runs", path)
	}
	batch.dir = filepath.Dir(path)
	return &batch, nil
}

// Config resolves the scene of one run. Scene paths are relative to the
// batch file.
func (b *Batch) Config(i int) (*config.Config, error) {
	run := b.Runs[i]

	var cfg *config.Config
	switch {
	case run.Scene != "" && run.Preset != "":
		return nil, fmt.Errorf("run %d: set either preset or scene, not both", i+1)
	case run.Scene != "":
		path := run.Scene
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.dir, path)
		}
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}
		cfg = loaded
	case run.Preset != "":
		cfg = config.GetPreset(run.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("run %d: unknown preset: %s", i+1, run.Preset)
		}
	default:
		return nil, fmt.Errorf("run %d: no preset or scene", i+1)
	}

	if run.Kernel != "" {
		cfg.Kernel = run.Kernel
	}
	if run.Dt != 0 {
		cfg.Dt = run.Dt
	}
	if run.Steps != 0 {
		cfg.Steps = run.Steps
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("run %d: %w", i+1, err)
	}
	return cfg, nil
}

// Label names a run for reports.
func (b *Batch) Label(i int) string {
	run := b.Runs[i]
	if run.Label != "" {
		return run.Label
	}
	name := run.Preset
	if name == "" {
		name = filepath.Base(run.Scene)
	}
	if run.Kernel != "" {
		name += "/" + run.Kernel
	}
	return name
}

// RunBatch runs every scene of the batch concurrently, each in its own
// physics system with the default metrics attached. opts apply to every
// run and must not share mutable observers between runs.
func RunBatch(ctx context.Context, batch *Batch, opts ...sim.Option) ([]*sim.Result, error) {
	sims := make([]*sim.Simulator, len(batch.Runs))
	for i := range batch.Runs {
		cfg, err := batch.Config(i)
		if err != nil {
			return nil, err
		}
		runOpts := append([]sim.Option{sim.WithMetrics(metrics.Defaults()...)}, opts...)
		sims[i] = sim.New(cfg, runOpts...)
	}

	results, err := sim.NewEnsemble(sims...).Run(ctx)
	if err != nil {
		return results, fmt.Errorf("batch %s: %w", batch.Name, err)
	}
	return results, nil
}
