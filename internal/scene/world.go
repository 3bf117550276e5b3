package scene

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/san-kum/earther/internal/config"
	"github.com/san-kum/earther/internal/geo"
	"github.com/san-kum/earther/internal/shell"
)

const (
	// MinutesPerDay is the wall-clock length of one globe revolution.
	MinutesPerDay = 5

	EntranceDelay    = 5 * time.Second
	EntranceDuration = 2 * time.Second
)

type Options struct {
	Shell  shell.Options
	Levels []int
	Logger zerolog.Logger
}

func DefaultOptions() Options {
	return Options{
		Shell:  shell.DefaultOptions(),
		Levels: append([]int(nil), config.Levels...),
		Logger: zerolog.Nop(),
	}
}

// World owns the globe and every shell currently shown on it. It is not
// safe for concurrent use; one goroutine drives Tick and LoadVariable.
type World struct {
	Grid     *geo.Grid
	Globe    *geo.Mesh
	Shells   []*shell.Shell
	Rotation float64

	opts    Options
	desc    config.VariableDesc
	runID   string
	start   time.Time
	last    time.Time
	paused  bool
	log     zerolog.Logger
	onShell []func(*shell.Shell)
}

func NewWorld(grid *geo.Grid, opts Options) (*World, error) {
	if grid.Len() == 0 {
		return nil, geo.ErrEmptyGrid
	}
	if len(opts.Levels) == 0 {
		opts.Levels = append([]int(nil), config.Levels...)
	}
	if opts.Shell.Radius <= 0 {
		opts.Shell.Radius = geo.EarthRadius
	}
	return &World{
		Grid:  grid,
		Globe: geo.BuildGlobe(grid, opts.Shell.Radius),
		opts:  opts,
		log:   opts.Logger,
	}, nil
}

// OnShell registers fn to run for every shell created by later loads.
func (w *World) OnShell(fn func(*shell.Shell)) { w.onShell = append(w.onShell, fn) }

// DisplayFor translates catalog display settings into shell settings.
func DisplayFor(desc config.VariableDesc) (shell.Display, error) {
	c, err := shell.ParseColor(desc.Color)
	if err != nil {
		return shell.Display{}, err
	}
	return shell.Display{
		Mode:   shell.ParseMode(desc.Display),
		Color:  c,
		Height: shell.ParseHeight(desc.Height),
	}, nil
}

// LoadVariable replaces every shell with the shells of desc: one for a
// flat variable, one per configured level otherwise.
func (w *World) LoadVariable(ctx context.Context, f shell.Fetcher, runID string, desc config.VariableDesc) error {
	levels := w.opts.Levels
	if desc.IsFlat() {
		levels = []int{shell.FlatLevel}
	}
	return w.LoadLevels(ctx, f, runID, desc, levels)
}

// LoadLevels is LoadVariable with an explicit level list.
func (w *World) LoadLevels(ctx context.Context, f shell.Fetcher, runID string, desc config.VariableDesc, levels []int) error {
	d, err := DisplayFor(desc)
	if err != nil {
		return fmt.Errorf("variable %s: %w", desc.Key(), err)
	}

	w.Discard()
	w.desc = desc
	w.runID = runID

	for _, level := range levels {
		s := shell.New(w.Grid, w.opts.Shell)
		v := shell.Variable{
			RunID:   runID,
			Model:   desc.Model,
			VarName: desc.VarName,
			Level:   level,
			Units:   desc.Units,
		}
		if err := s.Configure(v); err != nil {
			return err
		}
		for _, fn := range w.onShell {
			fn(s)
		}
		if err := s.SetDisplay(ctx, f, d); err != nil {
			return err
		}
		w.Shells = append(w.Shells, s)
	}
	w.log.Info().Str("run", runID).Str("variable", desc.Key()).Int("shells", len(w.Shells)).Msg("variable loaded")
	return nil
}

// Discard drops every shell.
func (w *World) Discard() {
	for _, s := range w.Shells {
		s.Discard()
	}
	w.Shells = nil
}

func (w *World) SetPaused(p bool) { w.paused = p }
func (w *World) Paused() bool     { return w.paused }

// Tick advances the rotation by the wall time since the previous tick and
// ticks every shell. It returns the number of shells that painted a frame.
// While paused, fetch results are still applied but nothing moves.
func (w *World) Tick(now time.Time) int {
	if w.start.IsZero() {
		w.start = now
		w.last = now
	}
	elapsed := now.Sub(w.last)
	w.last = now

	if w.paused {
		for _, s := range w.Shells {
			s.Pump()
		}
		return 0
	}

	w.Rotation = math.Mod(w.Rotation+RotationFor(elapsed), 2*math.Pi)

	painted := 0
	for _, s := range w.Shells {
		if s.Tick() {
			painted++
		}
	}
	return painted
}

// RotationFor returns the globe rotation in radians accumulated over d.
func RotationFor(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return 2 * math.Pi * d.Seconds() / (MinutesPerDay * 60)
}

// Entrance returns the globe scale for the time since the first tick.
func (w *World) Entrance(now time.Time) float64 {
	if w.start.IsZero() {
		return 0
	}
	return EntranceScale(now.Sub(w.start))
}

// EntranceScale is a cubic in-out tween from 0 to 1 over EntranceDuration,
// starting after EntranceDelay.
func EntranceScale(elapsed time.Duration) float64 {
	if elapsed <= EntranceDelay {
		return 0
	}
	t := float64(elapsed-EntranceDelay) / float64(EntranceDuration)
	if t >= 1 {
		return 1
	}
	t *= 2
	if t < 1 {
		return 0.5 * t * t * t
	}
	t -= 2
	return 0.5 * (t*t*t + 2)
}

func (w *World) Variable() config.VariableDesc { return w.desc }
func (w *World) RunID() string                 { return w.runID }

// Primary returns the lowest shell, or nil.
func (w *World) Primary() *shell.Shell {
	if len(w.Shells) == 0 {
		return nil
	}
	return w.Shells[0]
}

// Shell finds a shell by its variable key.
func (w *World) Shell(key string) *shell.Shell {
	for _, s := range w.Shells {
		if s.Variable().Key() == key {
			return s
		}
	}
	return nil
}
