package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/experiment"
	"github.com/san-kum/heatsim/internal/logging"
	"github.com/san-kum/heatsim/internal/observability"
	"github.com/san-kum/heatsim/internal/server"
	"github.com/san-kum/heatsim/internal/sim"
	"github.com/san-kum/heatsim/internal/storage"
	"github.com/san-kum/heatsim/internal/store"
	"github.com/san-kum/heatsim/internal/thermal"
	"github.com/san-kum/heatsim/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var v = viper.New()

// main registers commands and flags and executes the root command. It exits
// with status 1 if the command returns an error.
func main() {
	v.SetEnvPrefix("heatsim")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "heatsim",
		Short:         "coupled fluid / plate / fin heat-sink simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Subcommands share flag names, so only the executing command's set is bound.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return v.BindPFlags(cmd.Flags())
		},
	}
	rootCmd.PersistentFlags().String("data", ".heatsim", "data directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", logging.FormatText, "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and archive it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().Bool("live", false, "show the live terminal view")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "plot profiles and convergence of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().String("out", "", "output file (default stdout)")
	exportCmd.Flags().Bool("all", false, "include every snapshot")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list material and run presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "run every material on the same geometry",
		Args:  cobra.NoArgs,
		RunE:  compareMaterials,
	}
	addRunFlags(compareCmd)
	compareCmd.Flags().Int("jobs", 0, "materials simulated at once (0 = all)")

	finCmd := &cobra.Command{
		Use:   "fin",
		Short: "run one fin alone with insulated edges",
		Args:  cobra.NoArgs,
		RunE:  runFin,
	}
	finCmd.Flags().Int("index", 0, "fin index")
	finCmd.Flags().Float64("initial", 23, "initial fin temperature [°C]")
	finCmd.Flags().Float64("time", 1, "simulated time [s]")
	finCmd.Flags().String("material", config.DefaultMaterial, "solid material")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run a simulation while streaming progress on /ws and /metrics",
		Args:  cobra.NoArgs,
		RunE:  serveSimulation,
	}
	addRunFlags(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "listen address")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, exportCmd, presetsCmd, compareCmd, finCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() (*logrus.Logger, error) {
	return logging.New(v.GetString("log-level"), v.GetString("log-format"))
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func openStore() (*storage.Store, error) {
	st := storage.New(v.GetString("data"))
	return st, st.Init()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, preset, err := resolveConfig(v)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	exp := experiment.New(cfg, cfg.Run, logger)
	var result *sim.Result
	if v.GetBool("live") {
		logger.SetOutput(io.Discard)
		result, err = runLive(ctx, exp, cfg)
	} else {
		progress := sim.ObserverFunc(func(p sim.Progress) { fmt.Println(p.Line()) })
		if err = exp.Setup(experiment.NewRegistry().DefaultMetrics(), progress); err != nil {
			return err
		}
		result, err = exp.Run(ctx)
	}
	if err != nil {
		return err
	}

	runID, err := st.Save(cfg, preset, result)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	fmt.Println()
	fmt.Print(viz.Summary(cfg, result))
	fmt.Printf("\nrun saved: %s\n", runID)
	return nil
}

func runLive(ctx context.Context, exp *experiment.Experiment, cfg *config.Config) (*sim.Result, error) {
	feed := viz.NewFeed(16)
	if err := exp.Setup(experiment.NewRegistry().DefaultMetrics(), feed); err != nil {
		return nil, err
	}
	return viz.Watch(ctx, cfg.Solid.Name, feed, exp.Run)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(v.GetString("data"))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMATERIAL\tPRESET\tTIME\tSTATUS\tSTEPS\tT_END")

	for _, run := range runs {
		tEnd := float64(run.StepsTaken) * run.Plan.PlateDt
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.2fs\n",
			run.ID,
			run.Material,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Status,
			run.StepsTaken,
			tEnd,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(v.GetString("data"))

	result, err := st.LoadResult(runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Print(viz.Summary(cfg, result))
	fmt.Println()

	final, ok := result.Final()
	if !ok {
		return nil
	}
	if graph := viz.ProfilePlot(final.Fluid, "coolant temperature along the channel [°C]"); graph != "" {
		fmt.Println(graph)
		fmt.Println()
	}
	air, err := viz.AirFace(final, result.Layout)
	if err != nil {
		return err
	}
	if graph := viz.ProfilePlot(air, "plate air face [°C]"); graph != "" {
		fmt.Println(graph)
		fmt.Println()
	}
	if graph := viz.ConvergencePlot(result.Convergence, 80); graph != "" {
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(v.GetString("data"))

	meta, err := st.Load(runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	all, _ := cmd.Flags().GetBool("all")
	data := store.NewExportData(runID, meta.Material, result, all)

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return store.ExportJSONStdout(data)
	}
	if err := store.ExportJSON(out, data); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported %s to %s\n", runID, out)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MATERIAL\tNAME\tK [W/mK]\tRHO [kg/m3]\tCP [J/kgK]\tALPHA [m2/s]")
	for _, name := range config.ListMaterials() {
		m, _ := config.GetMaterial(name)
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%.3e\n", name, m.Name, m.Conductivity, m.Density, m.SpecificHeat, m.Diffusivity)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "RUN\tT_MAX [s]\tEPSILON [K/s]\tSAVE EVERY\tENERGY")
	for _, name := range config.ListRunPresets() {
		rc, _ := config.GetRunPreset(name)
		fmt.Fprintf(w, "%s\t%g\t%g\t%d\t%t\n", name, rc.MaxTime, rc.Epsilon, rc.SaveEvery, rc.EnergyBalance)
	}
	return w.Flush()
}

func compareMaterials(cmd *cobra.Command, args []string) error {
	base, _, err := resolveConfig(v)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	names := config.ListMaterials()
	configs := make([]*config.Config, len(names))
	for i, name := range names {
		if configs[i], err = base.WithMaterial(name); err != nil {
			return err
		}
	}

	ctx, stop := interruptible()
	defer stop()

	registry := experiment.NewRegistry()
	jobs, _ := cmd.Flags().GetInt("jobs")
	ens := sim.NewEnsemble(logger, configs...).WithMetrics(registry.DefaultMetrics).WithLimit(jobs)
	results, err := ens.Run(ctx, base.Run)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MATERIAL\tSTATUS\tT_CONV [s]\tOUTLET [°C]\tFIN MEAN [°C]\tHEAT [W]\tSTEPS")
	for i, res := range results {
		cfg := configs[i]
		outlet := res.Metrics["outlet_temp"]
		conv := "-"
		if res.Converged {
			conv = fmt.Sprintf("%.2f", res.ConvergedAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%d\n",
			cfg.Solid.Name,
			res.Status,
			conv,
			outlet-273.15,
			res.Metrics["fin_mean_temp"]-273.15,
			cfg.HeatDissipated(outlet),
			res.StepsTaken,
		)
	}
	return w.Flush()
}

func runFin(cmd *cobra.Command, args []string) error {
	material, _ := cmd.Flags().GetString("material")
	cfg, err := config.DefaultConfig().WithMaterial(material)
	if err != nil {
		return err
	}
	index, _ := cmd.Flags().GetInt("index")
	initial, _ := cmd.Flags().GetFloat64("initial")
	duration, _ := cmd.Flags().GetFloat64("time")

	ctx, stop := interruptible()
	defer stop()

	res, err := experiment.FinRun{Index: index, Initial: initial + 273.15, Duration: duration}.Run(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("fin %d (%s): %d steps of %.3e s, insulated edges\n\n", index, cfg.Solid.Name, res.Steps, res.Dt)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T [s]\tMIN [°C]\tMAX [°C]\tCENTRE [°C]\tSURFACE [°C]")
	for _, s := range res.Samples {
		fmt.Fprintf(w, "%.3e\t%.2f\t%.2f\t%.2f\t%.2f\n", s.Time, s.Min-273.15, s.Max-273.15, s.Centre-273.15, s.Surface-273.15)
	}
	return w.Flush()
}

func serveSimulation(cmd *cobra.Command, args []string) error {
	cfg, _, err := resolveConfig(v)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	collector, err := observability.NewCollector(nil)
	if err != nil {
		return err
	}
	hub := server.NewHub(logger)
	srv := server.NewServer(v.GetString("addr"), hub, collector.Handler(), logger)

	ctx, stop := interruptible()
	defer stop()

	exp := experiment.New(cfg, cfg.Run, logger)
	if err := exp.Setup(experiment.NewRegistry().DefaultMetrics(), collector, hub); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx) })
	g.Go(func() error {
		result, err := exp.Run(ctx)
		if err != nil {
			if errors.Is(err, thermal.ErrCanceled) {
				return nil
			}
			hub.Publish(server.Message{Type: server.TypeError, Content: err.Error()})
			return err
		}
		hub.Publish(server.Message{Type: server.TypeDone, Content: result.Status.String()})
		logger.WithField("status", result.Status).Info("run finished, still serving until interrupted")
		return nil
	})
	return g.Wait()
}
