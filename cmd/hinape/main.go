package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/hinape/internal/automation"
	"github.com/san-kum/hinape/internal/config"
	"github.com/san-kum/hinape/internal/export"
	"github.com/san-kum/hinape/internal/metrics"
	"github.com/san-kum/hinape/internal/scene"
	"github.com/san-kum/hinape/internal/sim"
	"github.com/san-kum/hinape/internal/storage"
	"github.com/san-kum/hinape/internal/stream"
	"github.com/san-kum/hinape/internal/system"
	"github.com/san-kum/hinape/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dataDir   string
	verbose   bool
	sceneFile string
	preset    string
	kernel    string
	dt        float64
	steps     int
	noRecord  bool
	entityID  uint32
	axis      string
	format    string
	addr      string
	watch     bool
)

var logger = slog.Default()

func main() {
	rootCmd := &cobra.Command{
		Use:   "hinape",
		Short: "rigid body scene simulator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".hinape", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	sceneFlags := func(c *cobra.Command) {
		c.Flags().StringVarP(&sceneFile, "scene", "s", "", "scene file path (yaml)")
		c.Flags().StringVarP(&preset, "preset", "p", "drop", "preset scene, used when --scene is not set")
		c.Flags().StringVar(&kernel, "kernel", "", "override the scene kernel")
		c.Flags().Float64Var(&dt, "dt", 0, "override the scene timestep")
		c.Flags().IntVar(&steps, "steps", 0, "override the scene step count")
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scene and record it",
		Args:  cobra.NoArgs,
		RunE:  runScene,
	}
	sceneFlags(runCmd)
	runCmd.Flags().BoolVar(&noRecord, "no-record", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one axis of an entity over a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().Uint32Var(&entityID, "entity", 1, "entity id")
	plotCmd.Flags().StringVar(&axis, "axis", "py", "px, py, pz, vx, vy or vz")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "json, csv or svg")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a preset scene to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(preset)
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s scene to %s\n", preset, args[0])
			return nil
		},
	}
	initCmd.Flags().StringVarP(&preset, "preset", "p", "drop", "preset scene")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKERNEL\tENTITIES\tSTEPS\tSCHEDULED")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", name, cfg.Kernel, len(cfg.Entities), cfg.Steps, len(cfg.Schedule))
			}
			return w.Flush()
		},
	}

	kernelsCmd := &cobra.Command{
		Use:   "kernels",
		Short: "list simulation kernels",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range system.ListKernels() {
				fmt.Println(name)
			}
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step a scene interactively in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	sceneFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream a scene over websocket in real time",
		Args:  cobra.NoArgs,
		RunE:  serveScene,
	}
	sceneFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&watch, "watch", true, "apply desired types from the scene file when it changes")

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run the scenes of a batch file concurrently and compare them",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, initCmd, presetsCmd, kernelsCmd, liveCmd, serveCmd, batchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadScene reads --scene or --preset and applies the override flags.
func loadScene(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if sceneFile != "" {
		loaded, err := config.Load(sceneFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load scene: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if cmd.Flags().Changed("kernel") {
		cfg.Kernel = kernel
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	return cfg, cfg.Validate()
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := storage.NewRecorder()
	ms := metrics.Defaults()
	s := sim.New(cfg,
		sim.WithLogger(logger),
		sim.WithMetrics(ms...),
		sim.WithObserver(rec),
	)

	fmt.Printf("running %s scene...\n", cfg.Name)
	result, err := s.Run(ctx)
	if result != nil {
		defer result.Scene.System().Destroy()
	}
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("conversions: %d\n", result.Conversions)
	for _, terr := range result.TransitionErrors {
		fmt.Printf("  transition failed: %v\n", terr)
	}

	fmt.Println("\nentities:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tTYPE\tPOSITION\tVELOCITY")
	for _, e := range result.Scene.Entities() {
		p, v := e.Pose().Position, e.Velocity()
		fmt.Fprintf(w, "  %d\t%s\t%s\t(%.3f, %.3f, %.3f)\t(%.3f, %.3f, %.3f)\n",
			e.ID, e.Name, e.AppliedRigidBodyType(), p.X(), p.Y(), p.Z(), v.X(), v.Y(), v.Z())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nmetrics:")
	for _, m := range ms {
		fmt.Printf("  %s: %.6f\n", m.Name(), result.Metrics[m.Name()])
	}

	if noRecord {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Scene:            cfg.Name,
		Kernel:           result.Kernel,
		Dt:               cfg.Dt,
		Steps:            result.StepsTaken,
		Entities:         len(result.Scene.Entities()),
		Conversions:      result.Conversions,
		TransitionErrors: len(result.TransitionErrors),
	}, rec.Samples())
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tKERNEL\tSTEPS\tDT\tCONVERSIONS\tFAILED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Kernel,
			run.Steps,
			run.Dt,
			run.Conversions,
			run.TransitionErrors,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	data, err := storage.Series(samples, entityID, axis)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("no samples for entity %d", entityID)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(data))

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("entity %d %s vs step", entityID, axis)),
	)
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return storage.ExportJSON(os.Stdout, *meta, samples)
	case "csv":
		return storage.WriteCSV(os.Stdout, samples)
	case "svg":
		return export.TrajectoriesSVG(os.Stdout, samples, 800, 600)
	}
	return fmt.Errorf("unknown format: %s", format)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd)
	if err != nil {
		return err
	}

	// The terminal belongs to the TUI; scene warnings show in its log pane.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	k, err := cfg.NewKernel()
	if err != nil {
		return err
	}
	sys := system.New(system.WithKernel(k), system.WithLogger(quiet))
	defer sys.Destroy()

	sc, err := cfg.BuildScene(sys, scene.WithLogger(quiet))
	if err != nil {
		return err
	}

	var opts []tui.Option
	if sceneFile != "" {
		w, err := config.NewWatcher(sceneFile)
		if err != nil {
			return err
		}
		defer w.Close()
		opts = append(opts, tui.WithWatcher(w))
	}

	p := tea.NewProgram(tui.NewModel(sc, cfg.Name, cfg.Dt, opts...), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func serveScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadScene(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := stream.NewHub(stream.WithLogger(logger))
	defer hub.Close()

	var watcher *config.Watcher
	if watch && sceneFile != "" {
		watcher, err = config.NewWatcher(sceneFile)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("streaming scene", "scene", cfg.Name, "addr", addr, "path", "/ws")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Client commands and file reloads are applied on the stepping goroutine.
	hook := func(sc *scene.Scene, step int) {
	drain:
		for {
			select {
			case c := <-hub.Commands():
				if err := hub.Apply(sc, c); err != nil {
					logger.Warn("client command rejected", "err", err)
				}
			default:
				break drain
			}
		}
		if watcher == nil {
			return
		}
		select {
		case reloaded, ok := <-watcher.Events:
			if ok {
				n := reloaded.ApplyDesired(sc)
				logger.Info("scene file reloaded", "changes", n)
			}
		case err, ok := <-watcher.Errors:
			if ok {
				logger.Warn("scene file reload failed", "err", err)
			}
		default:
		}
	}

	s := sim.New(cfg,
		sim.WithLogger(logger),
		sim.WithObserver(hub),
		sim.WithHook(hook),
		sim.WithRealtime(),
	)

	result, runErr := s.Run(ctx)
	if result != nil {
		defer result.Scene.System().Destroy()
		logger.Info("scene finished", "steps", result.StepsTaken,
			"conversions", result.Conversions, "transition_errors", len(result.TransitionErrors))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-serveErr; err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	batch, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("running batch %s (%d runs)...\n", batch.Name, len(batch.Runs))
	results, err := automation.RunBatch(ctx, batch, sim.WithLogger(logger))
	for _, r := range results {
		if r != nil {
			defer r.Scene.System().Destroy()
		}
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tKERNEL\tSTEPS\tCONVERSIONS\tFAILED\tKINETIC\tDRIFT\tMAX SPEED\tELAPSED")
	for i, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.4f\t%.4f\t%.4f\t%v\n",
			batch.Label(i),
			r.Kernel,
			r.StepsTaken,
			r.Conversions,
			len(r.TransitionErrors),
			r.Metrics["kinetic_energy"],
			r.Metrics["energy_drift"],
			r.Metrics["max_speed"],
			r.Elapsed,
		)
	}
	return w.Flush()
}
