package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/verletsim/internal/analysis"
	"github.com/san-kum/verletsim/internal/automation"
	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/export"
	"github.com/san-kum/verletsim/internal/gui"
	"github.com/san-kum/verletsim/internal/metrics"
	"github.com/san-kum/verletsim/internal/optim"
	"github.com/san-kum/verletsim/internal/physics"
	"github.com/san-kum/verletsim/internal/recolor"
	"github.com/san-kum/verletsim/internal/sim"
	"github.com/san-kum/verletsim/internal/storage"
	"github.com/san-kum/verletsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	imagePath  string
	width      float64
	height     float64
	ticks      int
	dt         float64
	workers    int
	bandRows   int
	drag       float64
	emitter    string
	seed       int64
	settle     float64
	runName    string
	numRuns    int
	// svg
	svgScale   float64
	svgBraille bool
	svgSeries  string
	outFile    string
	// analyze
	divergence bool
	settleEps  float64
	// bench
	sweep      bool
	benchTicks int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "verletsim",
		Short: "verlet particle solver",
		RunE:  runGUI,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".verletsim", "data directory")
	addSolverFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSolverFlags(runCmd)
	runCmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "number of ticks")
	runCmd.Flags().StringVar(&runName, "name", "run", "run name")
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "ensemble size (seeds seed..seed+runs-1)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render final snapshot or a series as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().Float64Var(&svgScale, "scale", 4, "pixels per unit")
	svgCmd.Flags().BoolVar(&svgBraille, "braille", false, "render through the braille canvas")
	svgCmd.Flags().StringVar(&svgSeries, "series", "", "plot a series instead of the snapshot")
	svgCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "energy spectrum and settling analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().BoolVar(&divergence, "divergence", false, "estimate separation exponent of the run's configuration")
	analyzeCmd.Flags().Float64Var(&settleEps, "settle-threshold", 1.0, "kinetic energy below which the run counts as settled")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark tick throughput",
		RunE:  benchSolver,
	}
	benchCmd.Flags().BoolVar(&sweep, "sweep", false, "grid search workers and band rows")
	benchCmd.Flags().IntVar(&benchTicks, "ticks", 300, "ticks per measurement")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live terminal visualization",
		RunE:  runLive,
	}
	addSolverFlags(liveCmd)

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run simulation in a window",
		RunE:  runGUI,
	}
	addSolverFlags(guiCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tEMITTER\tDRAG")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.0fx%.0f\t%s\t%.3f\n", name, p.Width, p.Height, p.Emitter, p.Drag)
			}
			return w.Flush()
		},
	}

	scriptCmd := &cobra.Command{
		Use:   "script [file.yaml]",
		Short: "run a scenario script",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	addSolverFlags(scriptCmd)

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, exportCSVCmd, svgCmd, analyzeCmd, benchCmd, liveCmd, guiCmd, presetsCmd, scriptCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSolverFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&imagePath, "image", "", "image to recolor the settled particles from")
	f.Float64Var(&width, "width", config.DefaultWidth, "bounds width")
	f.Float64Var(&height, "height", config.DefaultHeight, "bounds height")
	f.Float64Var(&dt, "dt", config.DefaultDt, "seconds per tick")
	f.IntVar(&workers, "workers", 0, "collision workers (0 = one per CPU)")
	f.IntVar(&bandRows, "band-rows", physics.DefaultBandRows, "grid rows per collision band")
	f.Float64Var(&drag, "drag", 0, "velocity damping per sub-step")
	f.StringVar(&emitter, "emitter", config.EmitterColumn, "emitter (column, wave)")
	f.Int64Var(&seed, "seed", 0, "emitter seed")
	f.Float64Var(&settle, "settle", config.DefaultSettle, "seconds to wait after full before recoloring")
}

// resolveConfig layers defaults, preset, config file and explicit flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("band-rows") {
		cfg.BandRows = bandRows
	}
	if flags.Changed("drag") {
		cfg.Drag = drag
	}
	if flags.Changed("emitter") {
		cfg.Emitter = emitter
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("settle") {
		cfg.SettleSeconds = settle
	}
	if flags.Changed("image") {
		cfg.Image = imagePath
	}
	return cfg, nil
}

// buildSolver creates the solver and, when an image is configured, a
// director that resizes the solver to it.
func buildSolver(cfg *config.Config) (*physics.Solver, *recolor.Director, error) {
	s, err := cfg.NewSolver()
	if err != nil {
		return nil, nil, err
	}
	director := recolor.NewDirector(nil, cfg.SettleSeconds)
	if cfg.Image == "" {
		return s, director, nil
	}

	img, err := recolor.LoadImage(cfg.Image)
	if err != nil {
		return nil, nil, err
	}
	if err := director.Load(s, img); err != nil {
		return nil, nil, err
	}
	size := s.Size()
	cfg.Width, cfg.Height = size.X, size.Y
	return s, director, nil
}

func runMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewPopulation(),
		metrics.NewKineticEnergy(),
		metrics.NewOverflow(),
		metrics.NewPenetration(),
		metrics.NewContainment(),
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if numRuns > 1 {
		return runEnsemble(ctx, cfg)
	}

	solver, director, err := buildSolver(cfg)
	if err != nil {
		return err
	}

	s := sim.New()
	for _, m := range runMetrics() {
		s.AddMetric(m)
	}
	s.AddHook(sim.HookFunc(func(solver *physics.Solver, tick int, t float64) {
		if director.Advance(solver, cfg.Dt) {
			fmt.Printf("recolored at tick %d\n", tick)
		}
	}))

	fmt.Printf("running %.0fx%.0f (capacity %d, %d workers)...\n",
		cfg.Width, cfg.Height, solver.MaxObjects(), solver.Workers())
	start := time.Now()

	result, runErr := s.Run(ctx, solver, sim.Config{Ticks: cfg.Ticks, Dt: cfg.Dt, Seed: cfg.Seed})
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	runID, err := st.Save(runName, cfg, result, storage.NewSnapshot(solver))
	if err != nil {
		return err
	}

	status := viz.StatusRunning.Render("completed")
	if runErr != nil {
		status = viz.StatusPaused.Render("interrupted")
	}
	fmt.Printf("%s in %v\n", status, elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", result.TicksTaken)
	if result.FullAt >= 0 {
		fmt.Printf("full at tick: %d\n", result.FullAt)
	}
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %s\n", viz.MetricLabel.Render(name), viz.MetricValue.Render(strconv.FormatFloat(result.Metrics[name], 'f', 6, 64)))
	}

	return runErr
}

func runEnsemble(ctx context.Context, cfg *config.Config) error {
	if cfg.Image != "" {
		return fmt.Errorf("--runs does not support --image")
	}
	build := func(seed int64) (*physics.Solver, error) {
		c := *cfg
		c.Seed = seed
		return c.NewSolver()
	}

	ens := sim.NewEnsemble(build, runMetrics, numRuns, cfg.Seed)
	ens.SetLimit(2)

	fmt.Printf("running ensemble of %d...\n", numRuns)
	results, err := ens.Run(ctx, sim.Config{Ticks: cfg.Ticks, Dt: cfg.Dt})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tFULL_AT\tKINETIC_ENERGY\tPENETRATION\tCONTAINMENT")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%.4f\t%.4f\t%.4f\n",
			r.Seed, r.FullAt,
			r.Metrics["kinetic_energy"], r.Metrics["penetration"], r.Metrics["containment"])
	}
	return w.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
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
	fmt.Fprintln(w, "ID\tTIME\tSIZE\tTICKS\tPOP\tFULL_AT\tIMAGE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.0fx%.0f\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width, run.Height,
			run.Ticks,
			run.Population,
			run.FullAt,
			run.Image,
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

	samples, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Println(viz.HeaderStyle.Render("run: " + meta.ID))
	fmt.Printf("size: %.0fx%.0f\n", meta.Width, meta.Height)
	fmt.Printf("samples: %d\n\n", len(samples))

	result := &sim.Result{Samples: samples}
	for _, name := range []string{sim.SeriesPopulation, sim.SeriesKineticEnergy, sim.SeriesOverflow} {
		data, _ := result.Series(name)
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(strings.ReplaceAll(name, "_", " ")),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	snap, err := st.LoadSnapshot(runID)
	if err != nil {
		return nil
	}
	profile := analysis.DensityProfile(snapshotParticles(snap), physics.Vec2{X: snap.Width, Y: snap.Height}, 16)
	fmt.Println("density by depth:")
	fmt.Print(analysis.ProfileToASCII(profile, 60))

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	if outFile != "" {
		return storage.ExportJSON(outFile, meta, samples)
	}
	return storage.ExportJSONStdout(meta, samples)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteSeriesCSV(os.Stdout, samples)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	var svg string
	switch {
	case svgSeries != "":
		samples, err := st.LoadSeries(runID)
		if err != nil {
			return err
		}
		data, err := (&sim.Result{Samples: samples}).Series(svgSeries)
		if err != nil {
			return err
		}
		svg = export.SeriesToSVG(data, 800, 240, "#00ccff")

	case svgBraille:
		snap, err := st.LoadSnapshot(runID)
		if err != nil {
			return err
		}
		canvas := viz.NewCanvas(int(snap.Width/2)+1, int(snap.Height/4)+1)
		viz.DrawParticles(canvas, physics.Vec2{X: snap.Width, Y: snap.Height}, snapshotParticles(snap))
		svg = export.CanvasToSVG(canvas, svgScale)

	default:
		snap, err := st.LoadSnapshot(runID)
		if err != nil {
			return err
		}
		svg = export.SnapshotToSVG(snap, svgScale)
	}

	if outFile == "" {
		fmt.Print(svg)
		return nil
	}
	return os.WriteFile(outFile, []byte(svg), 0644)
}

func snapshotParticles(snap *storage.Snapshot) []physics.Particle {
	particles := make([]physics.Particle, len(snap.Particles))
	for i, p := range snap.Particles {
		particles[i] = physics.Particle{
			Position: physics.Vec2{X: p.X, Y: p.Y},
			Color:    p.RGBA(),
		}
	}
	return particles
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("no data")
	}

	fmt.Println(viz.HeaderStyle.Render("frequency analysis: " + meta.ID))
	fmt.Println()

	energy, _ := (&sim.Result{Samples: samples}).Series(sim.SeriesKineticEnergy)
	ps := analysis.PowerSpectrum(energy)
	plotData := ps
	if len(ps) >= 8 {
		plotData = ps[:len(ps)/4]
	}

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (kinetic energy)"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(energy, meta.Dt)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	if tick := analysis.SettleTick(energy, settleEps); tick >= 0 {
		fmt.Printf("settled below %.3f at tick %d (%.2f s)\n", settleEps, tick+1, float64(tick+1)*meta.Dt)
	} else {
		fmt.Printf("never settled below %.3f\n", settleEps)
	}

	if !divergence {
		return nil
	}

	cfg := config.DefaultConfig()
	cfg.Width, cfg.Height, cfg.Dt = meta.Width, meta.Height, meta.Dt
	cfg.Substeps, cfg.BandRows, cfg.Workers = meta.Substeps, meta.BandRows, meta.Workers
	cfg.Emitter, cfg.Seed = meta.Emitter, meta.Seed

	build := func(perturbation float64) (*physics.Solver, error) {
		c := *cfg
		c.GravityX += perturbation
		return c.NewSolver()
	}
	lambda, err := analysis.SeparationExponent(build, meta.Ticks, meta.Dt, 1e-9)
	if err != nil {
		return err
	}
	fmt.Printf("separation exponent: %.4f /s\n", lambda)
	return nil
}

func benchSolver(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if sweep {
		base := config.DefaultConfig()
		base.Ticks = benchTicks

		g := optim.NewGridSearch(
			[]string{"workers", "band_rows"},
			[][]float64{{1, 2, 4, 8}, {3, 4, 8, 16}},
		)
		fmt.Printf("sweeping workers x band_rows on %.0fx%.0f\n\n", base.Width, base.Height)
		best, ms, err := g.Search(ctx, optim.TickTime(base), "tick_ms")
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WORKERS\tBAND_ROWS\tMS/TICK")
		for _, t := range g.Trials() {
			if t.Err != nil {
				fmt.Fprintf(w, "%.0f\t%.0f\terror: %v\n", t.Params["workers"], t.Params["band_rows"], t.Err)
				continue
			}
			fmt.Fprintf(w, "%.0f\t%.0f\t%.3f\n", t.Params["workers"], t.Params["band_rows"], t.Metrics["tick_ms"])
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nbest: workers=%.0f band_rows=%.0f (%.3f ms/tick)\n", best["workers"], best["band_rows"], ms)
		return nil
	}

	sizes := []float64{64, 128, 256}
	workerCounts := []int{1, 0}

	fmt.Printf("benchmarking %d ticks\n\n", benchTicks)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tWORKERS\tOBJECTS\tTIME\tTICKS/SEC")

	for _, size := range sizes {
		for _, n := range workerCounts {
			s, err := physics.New(physics.Vec2{X: size, Y: size}, physics.WithWorkers(n))
			if err != nil {
				return err
			}

			start := time.Now()
			for i := 0; i < benchTicks; i++ {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.Tick(config.DefaultDt)
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%.0fx%.0f\t%d\t%d\t%v\t%.0f\n",
				size, size, s.Workers(), s.Len(), elapsed, float64(benchTicks)/elapsed.Seconds())
		}
	}

	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, director, err := buildSolver(cfg)
	if err != nil {
		return err
	}

	name := "verletsim"
	if preset != "" {
		name = preset
	}
	return viz.Run(viz.NewModel(s, director, cfg.Dt, name))
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, director, err := buildSolver(cfg)
	if err != nil {
		return err
	}

	gui.Run(s, director, cfg.Image)
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if scenario.Name != "" {
		fmt.Printf("scenario: %s\n", scenario.Name)
	}
	runner := &automation.Runner{Base: base, Store: st, Out: os.Stdout}
	results, err := runner.RunScenario(ctx, scenario)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d steps\n", viz.StatusRunning.Render("completed"), len(results))
	return nil
}
