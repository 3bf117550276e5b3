package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/earther/internal/geo"
	"github.com/san-kum/earther/internal/provider"
)

// State is the lifecycle stage of a shell.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Animating
	Discarded
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Animating:
		return "animating"
	case Discarded:
		return "discarded"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// FlatLevel marks a variable without vertical levels.
const FlatLevel = -1

// Variable identifies the data a shell displays.
type Variable struct {
	RunID   string
	Model   string
	VarName string
	Level   int
	Units   string
}

func (v Variable) Ref() provider.Variable {
	return provider.Variable{RunID: v.RunID, Model: v.Model, VarName: v.VarName}
}

// Key is a stable identifier for the shell, e.g. "atm/T@3".
func (v Variable) Key() string {
	if v.Level == FlatLevel {
		return v.Model + "/" + v.VarName
	}
	return fmt.Sprintf("%s/%s@%d", v.Model, v.VarName, v.Level)
}

// DefaultHeight is the shell radius as a multiple of the globe radius.
const DefaultHeight = 1.02

// Height places the shell either just above the terrain or at a fixed
// multiple of the globe radius.
type Height struct {
	Ground bool
	Scale  float64
}

func HeightAbove(scale float64) Height { return Height{Scale: scale} }

var HeightGround = Height{Ground: true}

// ParseHeight reads the catalog form: "ground", a number, or empty.
func ParseHeight(s string) Height {
	s = strings.TrimSpace(s)
	if s == "ground" {
		return HeightGround
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return HeightAbove(f)
	}
	return HeightAbove(DefaultHeight)
}

// Radius returns the shell radius above cell for a globe of radius r.
func (h Height) Radius(r float64, cell geo.Cell, level int) float64 {
	if h.Ground {
		return r + geo.CellHeight(r, cell) + 0.1
	}
	scale := h.Scale
	if scale == 0 {
		scale = DefaultHeight
	}
	return r * (scale + float64(level)/1000)
}

// Display holds the presentation settings chosen for a variable.
type Display struct {
	Mode   Mode
	Color  RGB
	Height Height
}

// Fetcher loads variable metadata and keyframe data.
type Fetcher interface {
	Info(ctx context.Context, v provider.Variable) (*provider.VariableInfo, error)
	Data(ctx context.Context, q provider.DataQuery) ([]float64, error)
}

// Observer is notified each time a frame is painted.
type Observer interface {
	OnFrame(frame Snapshot, materials []int)
}

type Options struct {
	TimeSteps        int
	FramesPerSegment int
	Concurrency      int
	Radius           float64
	Logger           zerolog.Logger
}

func DefaultOptions() Options {
	return Options{
		TimeSteps:        24,
		FramesPerSegment: 20,
		Concurrency:      4,
		Radius:           geo.EarthRadius,
		Logger:           zerolog.Nop(),
	}
}

type loadMsg struct {
	info  bool
	times []float64
	index int
	snap  Snapshot
	err   error
}

// Shell is the renderable representation of one variable at one level.
type Shell struct {
	grid      *geo.Grid
	opts      Options
	variable  Variable
	display   Display
	state     State
	store     *KeyframeStore
	cfg       DisplayConfig
	mesh      *geo.Mesh
	faces     []Face
	materials []int
	groups    []Group
	times     []float64
	cursor    int
	shown     int
	last      int
	results   chan loadMsg
	cancel    context.CancelFunc
	observers []Observer
	log       zerolog.Logger
}

func New(grid *geo.Grid, opts Options) *Shell {
	def := DefaultOptions()
	if opts.TimeSteps <= 0 {
		opts.TimeSteps = def.TimeSteps
	}
	if opts.FramesPerSegment <= 0 {
		opts.FramesPerSegment = def.FramesPerSegment
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.Radius <= 0 {
		opts.Radius = def.Radius
	}
	return &Shell{
		grid:  grid,
		opts:  opts,
		store: NewKeyframeStore(opts.FramesPerSegment, grid.Len(), opts.Logger),
		shown: -1,
		last:  -1,
		log:   opts.Logger,
	}
}

func (s *Shell) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Configure points the shell at a new variable and drops everything loaded
// for the previous one.
func (s *Shell) Configure(v Variable) error {
	if s.state == Discarded {
		return ErrDiscarded
	}
	s.stopLoading()
	s.variable = v
	s.reset()
	s.state = Uninitialized
	s.log = s.opts.Logger.With().Str("shell", v.Key()).Logger()
	s.store.log = s.log
	return nil
}

func (s *Shell) reset() {
	s.store.Configure(nil, s.variable.Level)
	s.cfg = DisplayConfig{}
	s.mesh = nil
	s.faces = nil
	s.materials = nil
	s.groups = nil
	s.times = nil
	s.cursor = 0
	s.shown = -1
	s.last = -1
}

// SetDisplay applies presentation settings and starts fetching keyframes.
// Fetches run in the background; their results are applied by Tick.
func (s *Shell) SetDisplay(ctx context.Context, f Fetcher, d Display) error {
	if s.state == Discarded {
		return ErrDiscarded
	}
	if s.variable.VarName == "" {
		return ErrNotConfigured
	}
	s.stopLoading()
	s.reset()
	s.display = d

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.results = make(chan loadMsg, s.opts.TimeSteps+1)
	s.state = Loading

	go s.load(ctx, f, s.variable, s.results)
	return nil
}

func (s *Shell) stopLoading() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.results = nil
}

func (s *Shell) load(ctx context.Context, f Fetcher, v Variable, out chan<- loadMsg) {
	send := func(m loadMsg) {
		select {
		case out <- m:
		case <-ctx.Done():
		}
	}

	info, err := f.Info(ctx, v.Ref())
	if err != nil {
		send(loadMsg{info: true, err: err})
		return
	}
	times := info.Time.Values
	if len(times) > s.opts.TimeSteps {
		times = times[:s.opts.TimeSteps]
	}
	if len(times) == 0 {
		send(loadMsg{info: true, err: ErrNoTimeSteps})
		return
	}
	send(loadMsg{info: true, times: times})

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, t := range times {
		i, t := i, t
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			data, err := f.Data(ctx, provider.DataQuery{Variable: v.Ref(), Time: t, Level: v.Level})
			if ctx.Err() != nil {
				return nil
			}
			send(loadMsg{index: i, snap: data, err: err})
			return nil
		})
	}
	_ = g.Wait()
}

// Pump applies all fetch results that have arrived so far without blocking.
func (s *Shell) Pump() {
	for s.results != nil {
		select {
		case m := <-s.results:
			s.apply(m)
		default:
			return
		}
	}
}

func (s *Shell) apply(m loadMsg) {
	if s.state == Discarded {
		return
	}
	if m.info {
		if m.err != nil {
			s.log.Error().Err(m.err).Msg("variable info unavailable")
			return
		}
		s.times = m.times
		s.store.Configure(m.times, s.variable.Level)
		return
	}
	if m.err != nil {
		s.store.Fail(m.index, m.err)
		return
	}
	if err := s.Ingest(m.index, m.snap); err != nil {
		s.log.Error().Err(err).Int("slot", m.index).Msg("keyframe rejected")
	}
}

// Ingest hands a keyframe to the store directly. The first keyframe makes
// the shell visible.
func (s *Shell) Ingest(index int, snap Snapshot) error {
	if s.state == Discarded {
		return ErrDiscarded
	}
	if err := s.store.Ingest(index, snap); err != nil {
		return err
	}
	if index == 0 && s.state == Loading {
		return s.becomeReady(snap)
	}
	return nil
}

// Prepare configures the keyframe slots without fetching, for callers that
// feed keyframes through Ingest.
func (s *Shell) Prepare(times []float64, d Display) {
	s.stopLoading()
	s.reset()
	s.display = d
	s.times = times
	s.store.Configure(times, s.variable.Level)
	s.state = Loading
}

func (s *Shell) becomeReady(snap Snapshot) error {
	n := s.grid.Len()
	if len(snap) != n {
		return fmt.Errorf("%w: grid has %d cells, first keyframe has %d", ErrShapeMismatch, n, len(snap))
	}
	s.cfg = NewDisplayConfig(s.display.Mode, s.display.Color, s.variable.Units, snap)
	s.mesh = geo.BuildShellMesh(s.grid, func(c geo.Cell) float64 {
		return s.display.Height.Radius(s.opts.Radius, c, s.variable.Level)
	})
	s.faces = make([]Face, n*FacesPerCell)
	s.materials = make([]int, n)
	s.paint(snap)
	s.groups = faceGroups(s.faces, VerticesPerFace)
	s.state = Ready
	s.log.Debug().Float64("min", s.cfg.Min).Float64("max", s.cfg.Max).Msg("shell ready")
	return nil
}

func (s *Shell) paint(frame Snapshot) {
	n := min(len(frame), len(s.materials))
	ParallelFor(n, paintChunk, func(start, end int) {
		for i := start; i < end; i++ {
			v := frame[i]
			c := s.cfg.Color(v)
			m := s.cfg.MaterialIndex(v)
			s.materials[i] = m
			base := i * FacesPerCell
			for k := 0; k < FacesPerCell; k++ {
				s.faces[base+k] = Face{Color: c, MaterialIndex: m}
			}
		}
	})
}

// Tick applies pending fetch results, paints the frame under the cursor and
// advances the cursor. It reports whether a frame was painted.
func (s *Shell) Tick() bool {
	if s.state == Discarded {
		return false
	}
	s.Pump()
	if s.state != Ready && s.state != Animating {
		return false
	}

	frames := s.store.Frames()
	s.last = frames.LastContiguous()
	if s.last < 0 {
		return false
	}
	if s.cursor > s.last {
		s.cursor = 0
	}
	frame := frames.At(s.cursor)
	s.paint(frame)
	s.groups = faceGroups(s.faces, VerticesPerFace)
	s.shown = s.cursor
	for _, o := range s.observers {
		o.OnFrame(frame, s.materials)
	}
	s.state = Animating

	if s.last == 0 {
		s.cursor = 0
	} else {
		s.cursor = (s.cursor + 1) % s.last
	}
	return true
}

// Discard stops pending fetches and releases the shell's buffers. Results
// still in flight are dropped.
func (s *Shell) Discard() {
	s.stopLoading()
	s.reset()
	s.state = Discarded
}

func (s *Shell) State() State                 { return s.state }
func (s *Shell) Variable() Variable           { return s.variable }
func (s *Shell) Display() Display             { return s.display }
func (s *Shell) DisplayConfig() DisplayConfig { return s.cfg }
func (s *Shell) Store() *KeyframeStore        { return s.store }
func (s *Shell) Mesh() *geo.Mesh              { return s.mesh }
func (s *Shell) Faces() []Face                { return s.faces }
func (s *Shell) Groups() []Group              { return s.groups }
func (s *Shell) Cursor() int                  { return s.cursor }
func (s *Shell) LastContiguous() int          { return s.last }
func (s *Shell) Times() []float64             { return s.times }

// Materials returns the material index of each cell for the painted frame.
func (s *Shell) Materials() []int { return s.materials }

// Shown returns the index of the frame painted last, or -1.
func (s *Shell) Shown() int { return s.shown }

// ShownTime returns the model time of the keyframe opening the segment the
// painted frame belongs to.
func (s *Shell) ShownTime() (float64, bool) {
	if s.shown < 0 || len(s.times) == 0 {
		return 0, false
	}
	k := s.shown / s.opts.FramesPerSegment
	if k >= len(s.times) {
		return 0, false
	}
	return s.times[k], true
}
