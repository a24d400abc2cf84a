package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/ljmartin/timemachine/internal/analysis"
	"github.com/ljmartin/timemachine/internal/config"
	"github.com/ljmartin/timemachine/internal/metrics"
	"github.com/ljmartin/timemachine/internal/minimize"
	"github.com/ljmartin/timemachine/internal/potential"
	"github.com/ljmartin/timemachine/internal/setup"
	"github.com/ljmartin/timemachine/internal/sim"
	"github.com/ljmartin/timemachine/internal/trajectory"
	"github.com/ljmartin/timemachine/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	// System overrides
	atoms   int
	boxEdge float64
	// Integrator overrides
	dt          float64
	temperature float64
	friction    float64
	seed        int64
	integrator  string
	// Run overrides
	steps         int
	storeInterval int
	// Barostat overrides
	npt      bool
	pressure float64
	// Plot and analyze options
	showFrame  bool
	bins       int
	rMax       float64
	withFrames bool
	// Minimizer options
	forceTol float64
	maxIter  int
	// Ensemble options
	replicas int
	// SVG export options
	svgOut    string
	svgWidth  int
	svgHeight int
)

// main registers commands and flags; with no subcommand it opens the
// interactive preset browser.
func main() {
	rootCmd := &cobra.Command{
		Use:   "timemachine",
		Short: "deterministic molecular dynamics lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".timemachine", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [system]",
		Short: "run a simulation and store the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [system]",
		Short: "run a simulation with the live monitor",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	describeCmd := &cobra.Command{
		Use:   "describe [system]",
		Short: "print the built system and its term energies",
		Args:  cobra.MaximumNArgs(1),
		RunE:  describeSystem,
	}
	addConfigFlags(describeCmd)

	minimizeCmd := &cobra.Command{
		Use:   "minimize [system]",
		Short: "relax a system to a local energy minimum",
		Args:  cobra.MaximumNArgs(1),
		RunE:  minimizeSystem,
	}
	addConfigFlags(minimizeCmd)
	minimizeCmd.Flags().Float64Var(&forceTol, "tol", 0, "force tolerance in kJ/mol/nm (0 = default)")
	minimizeCmd.Flags().IntVar(&maxIter, "max-iter", 0, "iteration cap (0 = default)")

	scanCmd := &cobra.Command{
		Use:   "scan [system] [dt...]",
		Short: "compare timesteps on the same system",
		Args:  cobra.MinimumNArgs(2),
		RunE:  scanTimesteps,
	}
	addConfigFlags(scanCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [system]",
		Short: "run seeded replicas in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReplicas,
	}
	addConfigFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&replicas, "replicas", 4, "number of replicas")

	benchCmd := &cobra.Command{
		Use:   "bench [system]",
		Short: "benchmark raw stepping throughput",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchSystem,
	}
	addConfigFlags(benchCmd)

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listStoredRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&showFrame, "show-frame", false, "render the final frame")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum, diffusion and structure of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&bins, "bins", 40, "g(r) histogram bins")
	analyzeCmd.Flags().Float64Var(&rMax, "rmax", 0, "g(r) range in nm (0 = half box)")

	compareCmd := &cobra.Command{
		Use:   "compare [run_a] [run_b]",
		Short: "measure how two stored runs diverge",
		Args:  cobra.ExactArgs(2),
		RunE:  compareRuns,
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
		RunE:  exportJSONRun,
	}
	exportJSONCmd.Flags().BoolVar(&withFrames, "frames", false, "include frames and boxes")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run energies to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSVRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export run energies to an SVG plot",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVGRun,
	}
	exportSVGCmd.Flags().StringVar(&svgOut, "out", "", "output path (default <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width in px")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 300, "image height in px")

	presetsCmd := &cobra.Command{
		Use:   "presets [system]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, describeCmd, minimizeCmd, scanCmd, ensembleCmd, benchCmd,
		runsCmd, plotCmd, analyzeCmd, compareCmd, exportCmd, exportJSONCmd, exportCSVCmd,
		exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&atoms, "atoms", 0, "number of atoms")
	cmd.Flags().Float64Var(&boxEdge, "box", 0, "cubic box edge in nm")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep in ps")
	cmd.Flags().Float64Var(&temperature, "temperature", config.DefaultTemperature, "thermostat temperature in K")
	cmd.Flags().Float64Var(&friction, "friction", config.DefaultFriction, "langevin friction in 1/ps")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (langevin, verlet)")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of timesteps")
	cmd.Flags().IntVar(&storeInterval, "store-interval", config.DefaultStoreInterval, "steps between stored frames")
	cmd.Flags().BoolVar(&npt, "npt", false, "enable the Monte Carlo barostat")
	cmd.Flags().Float64Var(&pressure, "pressure", config.DefaultPressure, "barostat pressure in bar")
}

// resolveConfig layers preset or config file under explicit flags, the
// same precedence for every command that builds a system.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	system := ""
	if len(args) > 0 {
		system = args[0]
	}

	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if system != "" && system != loaded.System.Kind {
			return nil, fmt.Errorf("config file builds %q, not %q", loaded.System.Kind, system)
		}
		cfg = loaded
	case preset != "":
		if system == "" {
			return nil, fmt.Errorf("--preset needs a system argument")
		}
		p := config.GetPreset(system, preset)
		if p == nil {
			names := config.ListPresets(system)
			sort.Strings(names)
			return nil, fmt.Errorf("unknown preset %q for %s (available: %v)", preset, system, names)
		}
		c := *p
		cfg = &c
	default:
		base, err := baseConfig(system)
		if err != nil {
			return nil, err
		}
		cfg = base
	}

	f := cmd.Flags()
	if f.Changed("atoms") {
		cfg.System.Atoms = atoms
	}
	if f.Changed("box") {
		cfg.System.BoxEdge = boxEdge
	}
	if f.Changed("dt") {
		cfg.Integrator.Dt = dt
	}
	if f.Changed("temperature") {
		cfg.Integrator.Temperature = temperature
	}
	if f.Changed("friction") {
		cfg.Integrator.Friction = friction
	}
	if f.Changed("seed") {
		cfg.Integrator.Seed = seed
	}
	if f.Changed("integrator") {
		cfg.Integrator.Kind = integrator
	}
	if f.Changed("steps") {
		cfg.Run.Steps = steps
	}
	if f.Changed("store-interval") {
		cfg.Run.StoreInterval = storeInterval
	}
	if f.Changed("npt") {
		cfg.Barostat.Enabled = npt
	}
	if f.Changed("pressure") {
		cfg.Barostat.Enabled = true
		cfg.Barostat.Pressure = pressure
	}

	return cfg, nil
}

// baseConfig picks the canonical starting point for each system kind.
func baseConfig(system string) (*config.Config, error) {
	switch system {
	case "", "dimer":
		return config.DefaultConfig(), nil
	case "chain":
		c := *config.GetPreset("chain", "small")
		return &c, nil
	case "lj-fluid":
		c := *config.GetPreset("lj-fluid", "sparse")
		return &c, nil
	}
	return nil, fmt.Errorf("unknown system %q (available: %v)", system, setup.NewRegistry().ListSystems())
}

func runInteractive() error {
	cfg, err := tui.PickPreset()
	if err != nil || cfg == nil {
		return err
	}
	c := *cfg
	simn, err := setup.Build(&c)
	if err != nil {
		return err
	}
	defer simn.Free()
	return tui.Run(simn)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := trajectory.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	simn, err := setup.Build(cfg)
	if err != nil {
		return err
	}
	defer simn.Free()

	fmt.Printf("running %s (%d atoms, %s, dt=%g ps, %d steps)...\n",
		cfg.System.Kind, cfg.System.Atoms, cfg.Integrator.Kind, cfg.Integrator.Dt, cfg.Run.Steps)
	start := time.Now()

	result, err := sim.Run(context.Background(), simn.Ctx, simn.RunConfig(), metrics.Default(), nil)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(result.Times))
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	simn, err := setup.Build(cfg)
	if err != nil {
		return err
	}
	defer simn.Free()
	return tui.Run(simn)
}

func listStoredRuns(cmd *cobra.Command, args []string) error {
	st := trajectory.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tATOMS\tSTEPS\tDT\tINTEG")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4f\t%s\n",
			run.ID,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Atoms,
			run.Steps,
			run.Dt,
			run.Integrator,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := trajectory.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	times, energies, temps, err := st.LoadEnergies(runID)
	if err != nil {
		return err
	}
	if len(energies) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("system: %s\n", meta.System)
	fmt.Printf("samples: %d\n", len(energies))
	if len(times) > 1 {
		fmt.Printf("span: %.3f ps\n", times[len(times)-1]-times[0])
	}
	fmt.Println()

	graph := asciigraph.Plot(energies,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("potential energy (kJ/mol)"),
	)
	fmt.Println(graph)
	fmt.Println()

	graph = asciigraph.Plot(temps,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("temperature (K)"),
	)
	fmt.Println(graph)

	if showFrame {
		frames, boxes, err := st.LoadFrames(runID)
		if err != nil {
			return err
		}
		if len(frames) == 0 || len(boxes) < len(frames) {
			return fmt.Errorf("no frames to render")
		}
		fmt.Println()
		fmt.Println("final frame (x-z projection):")
		fmt.Print(analysis.FrameToASCII(frames[len(frames)-1], boxes[len(frames)-1], 70, 24))
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := trajectory.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	times, energies, _, err := st.LoadEnergies(runID)
	if err != nil {
		return err
	}
	if len(energies) < 4 || len(times) < 2 {
		return fmt.Errorf("not enough samples to analyze")
	}
	sampleDt := times[1] - times[0]

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("system: %s\n\n", meta.System)

	// Remove the DC level so the spectrum shows fluctuations, not the
	// mean energy.
	mean := 0.0
	for _, e := range energies {
		mean += e
	}
	mean /= float64(len(energies))
	centered := make([]float64, len(energies))
	for i, e := range energies {
		centered[i] = e - mean
	}

	ps := analysis.PowerSpectrum(centered)
	plotData := ps
	if len(plotData) > 64 {
		plotData = plotData[:64]
	}
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("energy power spectrum"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(ps, sampleDt)
	fmt.Printf("dominant frequency: %.4f /ps\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.4f ps\n", 1/freq)
	}

	frames, boxes, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) >= 4 {
		msd := analysis.MeanSquaredDisplacement(frames, len(frames)-1)
		d := analysis.DiffusionCoefficient(msd, sampleDt)
		fmt.Printf("diffusion coefficient: %.6g nm²/ps\n", d)
	}
	if len(frames) > 0 && len(boxes) >= len(frames) && meta.Atoms >= 2 {
		box := boxes[len(frames)-1]
		rmax := rMax
		if rmax <= 0 {
			rmax = box[0] / 2
			for _, edge := range []float64{box[4], box[8]} {
				if edge/2 < rmax {
					rmax = edge / 2
				}
			}
		}
		r, g := analysis.RadialDistribution(frames, box, bins, rmax)
		if len(g) > 0 {
			best := 0
			for k := range g {
				if g[k] > g[best] {
					best = k
				}
			}
			fmt.Printf("g(r) peak: %.3f at r = %.3f nm\n", g[best], r[best])
		}
	}

	return nil
}

func compareRuns(cmd *cobra.Command, args []string) error {
	st := trajectory.New(dataDir)

	framesA, _, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	framesB, _, err := st.LoadFrames(args[1])
	if err != nil {
		return err
	}

	sep := analysis.TrajectoryDivergence(framesA, framesB)
	if sep == nil {
		return fmt.Errorf("runs have mismatched frame shapes")
	}
	if len(sep) == 0 {
		return fmt.Errorf("no overlapping frames")
	}

	if analysis.MaxValue(sep) == 0 {
		fmt.Printf("trajectories are bitwise identical over %d frames\n", len(sep))
		return nil
	}

	graph := asciigraph.Plot(sep,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("rms separation (nm)"),
	)
	fmt.Println(graph)
	fmt.Println()

	sampleDt := 1.0
	if times, _, _, err := st.LoadEnergies(args[0]); err == nil && len(times) > 1 {
		sampleDt = times[1] - times[0]
	}
	fmt.Printf("max separation: %.6g nm\n", analysis.MaxValue(sep))
	fmt.Printf("divergence rate: %.4f /ps\n", analysis.GrowthRate(sep, sampleDt))

	return nil
}

func scanTimesteps(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}

	dts := make([]float64, 0, len(args)-1)
	for _, arg := range args[1:] {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("bad timestep %q", arg)
		}
		dts = append(dts, v)
	}

	fmt.Printf("scanning timesteps for %s (%d atoms, %s, %d steps each)\n\n",
		cfg.System.Kind, cfg.System.Atoms, cfg.Integrator.Kind, cfg.Run.Steps)
	fmt.Printf("%-10s  %14s  %12s  %12s\n", "dt", "final_energy", "energy_drift", "time_ms")
	fmt.Println(strings.Repeat("-", 54))

	for _, dtv := range dts {
		c := *cfg
		c.Integrator.Dt = dtv

		simn, err := setup.Build(&c)
		if err != nil {
			fmt.Printf("%-10.4f  error: %v\n", dtv, err)
			continue
		}

		start := time.Now()
		result, err := sim.Run(context.Background(), simn.Ctx, simn.RunConfig(), metrics.Default(), nil)
		elapsed := time.Since(start)
		simn.Free()

		if err != nil {
			fmt.Printf("%-10.4f  error: %v\n", dtv, err)
			continue
		}

		finalE := 0.0
		if len(result.Energies) > 0 {
			finalE = result.Energies[len(result.Energies)-1]
		}
		fmt.Printf("%-10.4f  %14.6f  %12.2e  %12.2f\n",
			dtv, finalE, result.Metrics["energy_drift"], float64(elapsed.Microseconds())/1000)
	}

	return nil
}

func runReplicas(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if replicas < 1 {
		return fmt.Errorf("need at least one replica")
	}

	run := func(ctx context.Context, seed int64) (*sim.Result, error) {
		c := *cfg
		c.Integrator.Seed = seed
		simn, err := setup.Build(&c)
		if err != nil {
			return nil, err
		}
		defer simn.Free()
		return sim.Run(ctx, simn.Ctx, simn.RunConfig(), metrics.Default(), nil)
	}

	fmt.Printf("running %d replicas of %s (seeds %d..%d)...\n",
		replicas, cfg.System.Kind, cfg.Integrator.Seed, cfg.Integrator.Seed+int64(replicas)-1)
	start := time.Now()

	results, err := sim.NewEnsemble(run, replicas, cfg.Integrator.Seed).Run(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REPLICA\tSEED\tMEAN_E\tDRIFT\tSTABILITY")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%.6f\t%.2e\t%.3f\n",
			i, cfg.Integrator.Seed+int64(i),
			r.Metrics["mean_energy"], r.Metrics["energy_drift"], r.Metrics["stability"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(results) >= 2 && len(results[0].Frames) > 1 {
		sep := analysis.TrajectoryDivergence(results[0].Frames, results[1].Frames)
		if len(sep) > 0 {
			fmt.Printf("\nreplica 0 vs 1 max separation: %.6g nm\n", analysis.MaxValue(sep))
		}
	}
	return nil
}

func benchSystem(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	stepCounts := []int{500, 2000}
	dts := []float64{0.0005, 0.001, 0.002}

	fmt.Printf("benchmarking %s (%d atoms)\n\n", cfg.System.Kind, cfg.System.Atoms)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEPS\tDT\tTIME\tSTEPS/SEC")

	for _, n := range stepCounts {
		for _, dtv := range dts {
			c := *cfg
			c.Integrator.Dt = dtv

			simn, err := setup.Build(&c)
			if err != nil {
				return err
			}

			start := time.Now()
			_, _, err = simn.Ctx.MultipleSteps(n, n)
			elapsed := time.Since(start)
			simn.Free()

			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%d\t%.4f\t%v\t%.0f\n",
				n, dtv, elapsed.Round(time.Microsecond), float64(n)/elapsed.Seconds())
		}
	}

	return w.Flush()
}

func describeSystem(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	return describeConfig(os.Stdout, cfg)
}

func describeConfig(w io.Writer, cfg *config.Config) error {
	simn, err := setup.Build(cfg)
	if err != nil {
		return err
	}
	defer simn.Free()

	fmt.Fprintf(w, "system: %s\n", cfg.System.Kind)
	fmt.Fprintf(w, "atoms: %d\n", cfg.System.Atoms)
	fmt.Fprintf(w, "box: %.3f x %.3f x %.3f nm\n", cfg.System.BoxEdge, cfg.System.BoxEdge, cfg.System.BoxEdge)
	if cfg.Integrator.Kind == "verlet" {
		fmt.Fprintf(w, "integrator: verlet (dt = %g ps)\n", cfg.Integrator.Dt)
	} else {
		fmt.Fprintf(w, "integrator: %s (dt = %g ps, T = %g K, friction = %g /ps)\n",
			cfg.Integrator.Kind, cfg.Integrator.Dt, cfg.Integrator.Temperature, cfg.Integrator.Friction)
	}
	if cfg.Barostat.Enabled {
		fmt.Fprintf(w, "barostat: %g bar every %d steps\n", cfg.Barostat.Pressure, cfg.Barostat.Interval)
	} else {
		fmt.Fprintln(w, "barostat: off")
	}
	if len(cfg.System.FrozenAtoms) > 0 {
		fmt.Fprintf(w, "frozen atoms: %v\n", cfg.System.FrozenAtoms)
	}
	fmt.Fprintf(w, "run: %d steps, store every %d\n", cfg.Run.Steps, cfg.Run.StoreInterval)

	terms, err := simn.Ctx.TermEnergies()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "\nterms:")
	for i, name := range simn.Sys.Names {
		fmt.Fprintf(w, "  %-12s %6s  %14.6f kJ/mol\n", name, termCount(simn.Sys.Bound[i].Potential), terms[i])
	}

	total, err := simn.Ctx.Energies()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\ntotal energy: %.6f kJ/mol\n", total)

	return nil
}

func minimizeSystem(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	simn, err := setup.Build(cfg)
	if err != nil {
		return err
	}
	defer simn.Free()

	fmt.Printf("minimizing %s (%d atoms)...\n", cfg.System.Kind, cfg.System.Atoms)
	res, err := minimize.Run(context.Background(), simn.Ctx, simn.Sys.ActiveMask(),
		minimize.Options{MaxIterations: maxIter, ForceTol: forceTol})
	if err != nil {
		return err
	}

	fmt.Printf("initial energy: %.6f kJ/mol\n", res.InitialEnergy)
	fmt.Printf("final energy:   %.6f kJ/mol\n", res.FinalEnergy)
	fmt.Printf("iterations: %d\n", res.Iterations)
	fmt.Printf("max force: %.3f kJ/mol/nm\n", res.MaxForce)
	if !res.Converged {
		fmt.Println("did not converge")
	}
	return nil
}

func termCount(p potential.Potential) string {
	switch t := p.(type) {
	case *potential.HarmonicBond:
		return strconv.Itoa(t.NumBonds())
	case *potential.HarmonicAngle:
		return strconv.Itoa(t.NumAngles())
	case *potential.PeriodicTorsion:
		return strconv.Itoa(t.NumTorsions())
	case *potential.FlatBottomBond:
		return strconv.Itoa(t.NumBonds())
	case *potential.NonbondedPairList:
		return strconv.Itoa(t.NumPairs())
	default:
		return "-"
	}
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := trajectory.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSONRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := trajectory.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	times, energies, temps, err := st.LoadEnergies(runID)
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.System.Kind = meta.System
	cfg.System.Atoms = meta.Atoms
	cfg.Integrator.Kind = meta.Integrator
	cfg.Integrator.Dt = meta.Dt
	cfg.Integrator.Temperature = meta.Temperature
	cfg.Integrator.Seed = meta.Seed

	result := &sim.Result{
		Times:        times,
		Energies:     energies,
		Temperatures: temps,
		Metrics:      meta.Metrics,
		StepsTaken:   meta.Steps,
	}
	if withFrames {
		frames, boxes, err := st.LoadFrames(runID)
		if err != nil {
			return err
		}
		result.Frames = frames
		result.Boxes = boxes
	}

	return trajectory.ExportJSONStdout(cfg, result, withFrames)
}

func exportCSVRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := trajectory.New(dataDir)
	times, energies, temps, err := st.LoadEnergies(runID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"time", "energy", "temperature"}); err != nil {
		return err
	}
	for i := range times {
		row := []string{
			strconv.FormatFloat(times[i], 'g', -1, 64),
			strconv.FormatFloat(energies[i], 'g', -1, 64),
			strconv.FormatFloat(temps[i], 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func exportSVGRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := trajectory.New(dataDir)
	times, energies, temps, err := st.LoadEnergies(runID)
	if err != nil {
		return err
	}

	series := []trajectory.SVGSeries{
		{Label: "energy (kJ/mol)", Color: "#00ff00", Values: energies},
		{Label: "temperature (K)", Color: "#ff8800", Values: temps},
	}

	out := svgOut
	if out == "" {
		out = runID + ".svg"
	}
	if err := trajectory.WriteSVG(out, times, series, svgWidth, svgHeight); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	systems := make([]string, 0, len(config.Presets))
	for name := range config.Presets {
		systems = append(systems, name)
	}
	sort.Strings(systems)

	if len(args) == 1 {
		if _, ok := config.Presets[args[0]]; !ok {
			return fmt.Errorf("unknown system %q (available: %v)", args[0], systems)
		}
		systems = args[:1]
	}

	for _, system := range systems {
		names := config.ListPresets(system)
		sort.Strings(names)
		fmt.Printf("presets for %s:\n", system)
		for _, name := range names {
			p := config.GetPreset(system, name)
			fmt.Printf("  %-14s %d atoms, %s, %d steps\n", name, p.System.Atoms, p.Integrator.Kind, p.Run.Steps)
		}
		fmt.Println()
	}
	return nil
}
