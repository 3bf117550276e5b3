package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/earther/internal/analysis"
	"github.com/san-kum/earther/internal/calendar"
	"github.com/san-kum/earther/internal/config"
	"github.com/san-kum/earther/internal/export"
	"github.com/san-kum/earther/internal/geo"
	"github.com/san-kum/earther/internal/provider"
	"github.com/san-kum/earther/internal/scene"
	"github.com/san-kum/earther/internal/server"
	"github.com/san-kum/earther/internal/shell"
	"github.com/san-kum/earther/internal/storage"
	"github.com/san-kum/earther/internal/viz"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	// Overrides of config values
	gridPath    string
	providerURI string
	frameRate   int
	listenAddr  string
	// play
	archiveID string
	threshold int
	// fetch
	level int
	// plot / analyze / export
	cell    int
	svgPath string
	outPath string
)

var errUnknownVariable = errors.New("unknown variable")

func main() {
	rootCmd := &cobra.Command{
		Use:          "earther",
		Short:        "climate model output on a spinning globe",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".earther", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&providerURI, "provider", config.DefaultProviderURI, "data API base URL")
	rootCmd.PersistentFlags().StringVar(&gridPath, "grid", config.DefaultGridPath, "geodesic grid file")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list model runs",
		Args:  cobra.NoArgs,
		RunE:  listModelRuns,
	}

	varsCmd := &cobra.Command{
		Use:   "vars",
		Short: "list displayable variables",
		Args:  cobra.NoArgs,
		RunE:  listVariables,
	}

	infoCmd := &cobra.Command{
		Use:   "info [run_id] [model/var]",
		Short: "show the time steps of a variable",
		Args:  cobra.ExactArgs(2),
		RunE:  showInfo,
	}

	playCmd := &cobra.Command{
		Use:   "play [run_id] [model/var]",
		Short: "animate a variable in the terminal",
		Args:  cobra.RangeArgs(0, 2),
		RunE:  runPlay,
	}
	playCmd.Flags().IntVar(&frameRate, "fps", config.DefaultFPS, "frame rate")
	playCmd.Flags().StringVar(&archiveID, "archive", "", "play an archived variable offline")
	playCmd.Flags().IntVar(&threshold, "threshold", viz.DefaultThreshold, "lowest material index drawn")

	serveCmd := &cobra.Command{
		Use:   "serve [run_id] [model/var]",
		Short: "stream shells to browsers over websocket",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&frameRate, "fps", config.DefaultFPS, "frame rate")
	serveCmd.Flags().StringVar(&listenAddr, "listen", config.DefaultListenAddr, "listen address")

	fetchCmd := &cobra.Command{
		Use:   "fetch [run_id] [model/var]",
		Short: "download keyframes into the archive",
		Args:  cobra.ExactArgs(2),
		RunE:  runFetch,
	}
	fetchCmd.Flags().IntVar(&level, "level", 0, "vertical level (3d variables)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived variables",
		Args:  cobra.NoArgs,
		RunE:  listArchives,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [archive_id]",
		Short: "plot one cell over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotArchive,
	}
	plotCmd.Flags().IntVar(&cell, "cell", 0, "grid index")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the series as svg")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [archive_id]",
		Short: "frequency analysis of one cell",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeArchive,
	}
	analyzeCmd.Flags().IntVar(&cell, "cell", 0, "grid index")

	exportCmd := &cobra.Command{
		Use:   "export [archive_id]",
		Short: "export an archive as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportArchive,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (stdout when empty)")

	rootCmd.AddCommand(runsCmd, varsCmd, infoCmd, playCmd, serveCmd, fetchCmd, listCmd, plotCmd, analyzeCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file when given. Flags the user set override
// the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("provider") || cfg.ProviderURI == "" {
		cfg.ProviderURI = providerURI
	}
	if flags.Changed("grid") || cfg.GridPath == "" {
		cfg.GridPath = gridPath
	}
	if flags.Lookup("fps") != nil && flags.Changed("fps") {
		cfg.FPS = frameRate
	}
	if flags.Lookup("listen") != nil && flags.Changed("listen") {
		cfg.Listen = listenAddr
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(logLevel))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()
}

func newClient(cfg *config.Config, log zerolog.Logger) *provider.Client {
	c := provider.NewClient(cfg.ProviderURI, cfg.FetchTimeout, log)
	if cfg.Remap != "" {
		c.Remap = cfg.Remap
	}
	return c
}

func shellOptions(cfg *config.Config, log zerolog.Logger) scene.Options {
	opts := scene.DefaultOptions()
	opts.Shell.TimeSteps = cfg.TimeSteps
	opts.Shell.FramesPerSegment = cfg.FramesPerSegment
	opts.Shell.Concurrency = cfg.FetchConcurrency
	opts.Shell.Logger = log
	opts.Logger = log
	if len(cfg.Levels) > 0 {
		opts.Levels = cfg.Levels
	}
	return opts
}

func findVariable(cfg *config.Config, key string) (config.VariableDesc, error) {
	desc, ok := cfg.FindVariable(key)
	if !ok {
		return config.VariableDesc{}, fmt.Errorf("%w: %s (see earther vars)", errUnknownVariable, key)
	}
	return desc, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func listModelRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr)
	ctx, cancel := signalContext()
	defer cancel()

	runs, err := newClient(cfg, log).Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\n", r.InstanceID, r.CreatedTime)
	}
	return w.Flush()
}

func listVariables(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIABLE\tTYPE\tDISPLAY\tUNITS\tDESCRIPTION")
	for _, v := range cfg.Catalog() {
		kind := "flat"
		if !v.IsFlat() {
			kind = "3d"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.Key(), kind, shell.ParseMode(v.Display), v.Units, v.Description)
	}
	return w.Flush()
}

func showInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	desc, err := findVariable(cfg, args[1])
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr)
	ctx, cancel := signalContext()
	defer cancel()

	info, err := newClient(cfg, log).Info(ctx, provider.Variable{RunID: args[0], Model: desc.Model, VarName: desc.VarName})
	if err != nil {
		return err
	}

	fmt.Printf("variable: %s (%s)\n", desc.Key(), desc.Description)
	fmt.Printf("time steps: %d (showing %d)\n\n", len(info.Time.Values), min(len(info.Time.Values), cfg.TimeSteps))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tDAY\tMONTH")
	for i, t := range info.Time.Values {
		if i >= cfg.TimeSteps {
			break
		}
		fmt.Fprintf(w, "%d\t%g\t%s\n", i, t, calendar.LabelForTime(t))
	}
	return w.Flush()
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(filepath.Join(dataDir, "earther.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := newLogger(logFile)

	grid, err := geo.LoadGrid(cfg.GridPath)
	if err != nil {
		return fmt.Errorf("load grid: %w", err)
	}
	world, err := scene.NewWorld(grid, shellOptions(cfg, log))
	if err != nil {
		return err
	}
	live := viz.NewModel(world, viz.Options{FPS: cfg.FPS, Threshold: threshold, OutDir: ".", Logger: log})

	ctx, cancel := signalContext()
	defer cancel()

	var (
		runID string
		load  viz.Loader
		vars  = cfg.Catalog()
		first *config.VariableDesc
	)

	if archiveID != "" {
		arch, err := storage.New(dataDir).Open(archiveID)
		if err != nil {
			return err
		}
		runID = arch.Meta.RunID
		desc, ok := cfg.FindVariable(arch.Meta.Model + "/" + arch.Meta.VarName)
		if !ok {
			desc = config.VariableDesc{Model: arch.Meta.Model, VarName: arch.Meta.VarName, Units: arch.Meta.Units}
		}
		vars = []config.VariableDesc{desc}
		first = &desc
		archLevel := arch.Meta.Level
		load = func(d config.VariableDesc) error {
			return world.LoadLevels(ctx, arch, runID, d, []int{archLevel})
		}
	} else {
		if len(args) == 0 {
			return fmt.Errorf("play needs a run id, or --archive")
		}
		runID = args[0]
		client := newClient(cfg, log)
		load = func(d config.VariableDesc) error {
			return world.LoadVariable(ctx, client, runID, d)
		}
		if len(args) == 2 {
			desc, err := findVariable(cfg, args[1])
			if err != nil {
				return err
			}
			first = &desc
		}
	}

	if first != nil {
		if err := load(*first); err != nil {
			return err
		}
	}

	app := viz.NewApp(live, runID, vars, load)
	_, err = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	world.Discard()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr)

	grid, err := geo.LoadGrid(cfg.GridPath)
	if err != nil {
		return fmt.Errorf("load grid: %w", err)
	}
	world, err := scene.NewWorld(grid, shellOptions(cfg, log))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	client := newClient(cfg, log)
	runID := args[0]
	if len(args) == 2 {
		desc, err := findVariable(cfg, args[1])
		if err != nil {
			return err
		}
		if err := world.LoadVariable(ctx, client, runID, desc); err != nil {
			return err
		}
	}

	srv := server.New(world, server.Options{
		FPS:     cfg.FPS,
		RunID:   runID,
		Fetcher: client,
		Lookup:  cfg.FindVariable,
		Logger:  log,
	})
	httpSrv := &http.Server{Addr: cfg.Listen, Handler: srv.Handler()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.Listen).Int("cells", grid.Len()).Msg("serving")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	desc, err := findVariable(cfg, args[1])
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr)
	ctx, cancel := signalContext()
	defer cancel()

	lvl := shell.FlatLevel
	if !desc.IsFlat() {
		lvl = level
	}
	ref := provider.Variable{RunID: args[0], Model: desc.Model, VarName: desc.VarName}
	client := newClient(cfg, log)

	info, err := client.Info(ctx, ref)
	if err != nil {
		return err
	}
	times := info.Time.Values
	if len(times) > cfg.TimeSteps {
		times = times[:cfg.TimeSteps]
	}
	if len(times) == 0 {
		return shell.ErrNoTimeSteps
	}

	kf := storage.Keyframes{Times: times, Data: make([][]float64, len(times))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.FetchConcurrency)
	for i, t := range times {
		i, t := i, t
		g.Go(func() error {
			data, err := client.Data(gctx, provider.DataQuery{Variable: ref, Time: t, Level: lvl})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Err(err).Int("slot", i).Msg("keyframe unavailable")
				return nil
			}
			kf.Data[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(storage.ArchiveMetadata{
		RunID:   args[0],
		Model:   desc.Model,
		VarName: desc.VarName,
		Level:   lvl,
		Units:   desc.Units,
	}, kf)
	if err != nil {
		return err
	}

	meta, err := st.Load(id)
	if err != nil {
		return err
	}
	fmt.Printf("archive id: %s\n", id)
	fmt.Printf("keyframes: %d (%d missing)\n", len(times)-len(meta.Missing), len(meta.Missing))
	fmt.Printf("cells: %d\n", meta.Cells)
	return nil
}

func listArchives(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	archives, err := st.List()
	if err != nil {
		return err
	}

	if len(archives) == 0 {
		fmt.Println("no archives found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRUN\tVARIABLE\tLEVEL\tSTEPS\tMISSING\tSAVED")
	for _, a := range archives {
		lvl := "-"
		if a.Level >= 0 {
			lvl = fmt.Sprintf("%d", a.Level)
		}
		fmt.Fprintf(w, "%s\t%s\t%s/%s\t%s\t%d\t%d\t%s\n",
			a.ID,
			a.RunID,
			a.Model, a.VarName,
			lvl,
			len(a.Times),
			len(a.Missing),
			a.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

func cellSeries(id string) (*storage.Archive, []float64, []float64, error) {
	arch, err := storage.New(dataDir).Open(id)
	if err != nil {
		return nil, nil, nil, err
	}
	if cell < 0 || cell >= arch.Meta.Cells {
		return nil, nil, nil, fmt.Errorf("cell %d out of range [0, %d)", cell, arch.Meta.Cells)
	}
	times, values := arch.Series(cell)
	if len(values) == 0 {
		return nil, nil, nil, fmt.Errorf("no data to plot")
	}
	return arch, times, values, nil
}

func plotArchive(cmd *cobra.Command, args []string) error {
	arch, times, values, err := cellSeries(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("archive: %s\n", arch.Meta.ID)
	fmt.Printf("variable: %s/%s\n", arch.Meta.Model, arch.Meta.VarName)
	fmt.Printf("cell: %d\n", cell)
	fmt.Printf("samples: %d (%s .. %s)\n\n", len(values), calendar.LabelForTime(times[0]), calendar.LabelForTime(times[len(times)-1]))

	graph := asciigraph.Plot(values,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s [%s]", arch.Meta.VarName, arch.Meta.Units)),
	)
	fmt.Println(graph)

	if svgPath != "" {
		svg := export.SeriesToSVG(times, values, 800, 300, "#00ccff")
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("\nsvg written to %s\n", svgPath)
	}
	return nil
}

func analyzeArchive(cmd *cobra.Command, args []string) error {
	arch, _, values, err := cellSeries(args[0])
	if err != nil {
		return err
	}

	sum, err := analysis.Summarize(values)
	if err != nil {
		return err
	}
	fmt.Printf("archive: %s\n", arch.Meta.ID)
	fmt.Printf("cell: %d, samples: %d\n\n", cell, len(values))
	fmt.Printf("mean:   %.6g %s\n", sum.Mean, arch.Meta.Units)
	fmt.Printf("stddev: %.6g\n", sum.StdDev)
	fmt.Printf("range:  %.6g .. %.6g\n\n", sum.Min, sum.Max)

	period, ok := analysis.DominantPeriod(values)
	if !ok {
		fmt.Println("no dominant period")
		return nil
	}
	fmt.Printf("dominant period: %.2f samples\n\n", period)

	ps := analysis.PowerSpectrum(values)
	type bin struct {
		k     int
		power float64
	}
	bins := make([]bin, 0, len(ps))
	for k := 1; k < len(ps); k++ {
		bins = append(bins, bin{k, ps[k]})
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].power > bins[j].power })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BIN\tPERIOD\tPOWER")
	for i := 0; i < len(bins) && i < 5; i++ {
		b := bins[i]
		fmt.Fprintf(w, "%d\t%.2f\t%.4g\n", b.k, float64(len(values))/float64(b.k), b.power)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(ps) > 2 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(ps[1:], asciigraph.Height(8), asciigraph.Caption("power spectrum")))
	}
	return nil
}

func exportArchive(cmd *cobra.Command, args []string) error {
	arch, err := storage.New(dataDir).Open(args[0])
	if err != nil {
		return err
	}
	if outPath == "" {
		return arch.WriteJSON(os.Stdout)
	}
	if err := arch.ExportJSON(outPath); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outPath)
	return nil
}
