package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"

	"github.com/san-kum/earther/internal/calendar"
	"github.com/san-kum/earther/internal/export"
	"github.com/san-kum/earther/internal/geo"
	"github.com/san-kum/earther/internal/metrics"
	"github.com/san-kum/earther/internal/scene"
	"github.com/san-kum/earther/internal/shell"
)

const (
	width  = 60
	height = 24

	// DefaultThreshold is the lowest material index drawn as a shell dot.
	DefaultThreshold = 10
)

type TickMsg time.Time

type Options struct {
	FPS       int
	Threshold int
	OutDir    string
	Logger    zerolog.Logger
}

// Model draws a World on a Braille canvas and ticks it at a fixed rate.
type Model struct {
	world     *scene.World
	rec       *metrics.Recorder
	canvas    *Canvas
	camera    *Camera
	centers   []geo.Vec3
	land      []bool
	interval  time.Duration
	threshold int
	outDir    string
	now       time.Time
	frame     int
	recording bool
	frames    []*image.Paletted
	showHelp  bool
	notice    string
	log       zerolog.Logger
}

// NewModel attaches a metrics recorder to the primary shell of every
// variable the world loads from now on.
func NewModel(w *scene.World, opts Options) *Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}

	m := &Model{
		world:     w,
		rec:       metrics.NewRecorder(metrics.DefaultHistory, metrics.NewMean(), metrics.NewCoverage(), metrics.NewExtremes(0, 0)),
		canvas:    NewCanvas(width, height),
		camera:    NewCamera(),
		centers:   make([]geo.Vec3, w.Grid.Len()),
		land:      make([]bool, w.Grid.Len()),
		interval:  time.Second / time.Duration(opts.FPS),
		threshold: opts.Threshold,
		outDir:    opts.OutDir,
		log:       opts.Logger,
	}
	for i, c := range w.Grid.Cells {
		m.centers[i] = c.Center()
		m.land[i] = geo.IsLand(c)
	}

	w.OnShell(func(s *shell.Shell) {
		if len(w.Shells) == 0 {
			m.rec.Reset()
			s.AddObserver(rangedRecorder{s: s, rec: m.rec})
		}
	})
	if p := w.Primary(); p != nil {
		p.AddObserver(rangedRecorder{s: p, rec: m.rec})
	}
	return m
}

// rangedRecorder points the Extremes metric at the shell's display range
// before each frame reaches the recorder.
type rangedRecorder struct {
	s   *shell.Shell
	rec *metrics.Recorder
}

func (r rangedRecorder) OnFrame(frame shell.Snapshot, materials []int) {
	cfg := r.s.DisplayConfig()
	for _, mt := range r.rec.Metrics() {
		if e, ok := mt.(*metrics.Extremes); ok {
			e.SetRange(cfg.Min, cfg.Max)
		}
	}
	r.rec.OnFrame(frame, materials)
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.world.Discard()
			return m, tea.Quit
		case " ":
			m.world.SetPaused(!m.world.Paused())
		case "t":
			NextTheme()
		case "g":
			m.toggleRecording()
		case "s":
			m.saveSVG()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.Step(time.Time(msg))
		return m, m.tick()
	}
	return m, nil
}

// Step advances the world to now and redraws the canvas.
func (m *Model) Step(now time.Time) {
	m.now = now
	m.world.Tick(now)
	m.frame++
	m.draw()
	if m.recording {
		m.captureFrame()
	}
}

func (m *Model) draw() {
	c := m.canvas
	c.Clear()
	scale := m.world.Entrance(m.now)
	if scale <= 0 {
		return
	}
	sw, sh := c.SubWidth(), c.SubHeight()
	r := m.camera.Radius(sw, sh, scale)
	c.DrawCircle(sw/2, sh/2, int(r), LayerLimb)

	var materials []int
	if p := m.world.Primary(); p != nil {
		materials = p.Materials()
	}
	for i, center := range m.centers {
		x, y, _, ok := m.camera.Project(center, m.world.Rotation, sw, sh, scale)
		if !ok {
			continue
		}
		switch {
		case i < len(materials) && materials[i] >= m.threshold:
			c.Mark(x, y, LayerShell)
		case m.land[i]:
			c.Mark(x, y, LayerLand)
		}
	}
}

// Canvas exposes the current drawing.
func (m *Model) Canvas() *Canvas { return m.canvas }

func (m *Model) Recorder() *metrics.Recorder { return m.rec }

func visible(s *shell.Shell) bool {
	return s.State() == shell.Ready || s.State() == shell.Animating
}

func (m *Model) status() string {
	p := m.world.Primary()
	switch {
	case m.recording:
		return StatusRecording.Render("● RECORDING")
	case p == nil:
		return Subtle.Render("NO VARIABLE")
	case m.world.Paused():
		return StatusPaused.Render("PAUSED")
	case p.State() == shell.Loading || p.State() == shell.Ready && p.LastContiguous() < 0:
		return StatusPaused.Render(AnimatedSpinner(m.frame) + " LOADING")
	default:
		return StatusRunning.Render("PLAYING")
	}
}

func (m *Model) stats() string {
	var s strings.Builder
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}

	desc := m.world.Variable()
	s.WriteString(headerStyle.Render(strings.ToUpper(desc.Key())) + "\n")
	if desc.Description != "" {
		s.WriteString(Subtle.Render(desc.Description) + "\n")
	}
	s.WriteString(m.status() + "\n\n")

	p := m.world.Primary()
	if p == nil {
		return s.String()
	}
	if t, ok := p.ShownTime(); ok {
		row("Date", calendar.LabelForTime(t))
	}
	row("State", p.State().String())
	row("Frame", fmt.Sprintf("%d / %d", max(p.Shown(), 0), max(p.LastContiguous(), 0)))

	total := len(p.Store().Slots())
	loaded := p.Store().LoadedCount()
	if total > 0 {
		row("Keyframes", fmt.Sprintf("%s %d/%d", ProgressBar(float64(loaded)/float64(total), 12), loaded, total))
	}
	if visible(p) {
		cfg := p.DisplayConfig()
		row("Range", fmt.Sprintf("%.4g .. %.4g %s", cfg.Min, cfg.Max, cfg.Units))
		row("Mode", string(cfg.Mode))
	}
	row("Groups", fmt.Sprintf("%d", len(p.Groups())))
	row("Shells", fmt.Sprintf("%d", len(m.world.Shells)))
	if v, ok := m.rec.Value("coverage"); ok {
		row("Coverage", fmt.Sprintf("%.1f%%", v*100))
	}
	if v, ok := m.rec.Value("extremes"); ok {
		row("Clamped", fmt.Sprintf("%.1f%%", v*100))
	}

	if hist := m.rec.History("mean"); len(hist) > 1 {
		chart := asciigraph.Plot(hist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Mean"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if m.notice != "" {
		s.WriteString(Subtle.Render(m.notice) + "\n")
	}
	s.WriteString(helpStyle.Render(Separator(30) + "\nSP:Pause T:Theme Q:Quit\nG:Record S:SVG   ?:Help"))
	return s.String()
}

func (m *Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.Render(CurrentTheme))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(m.stats()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  Q        - Quit                     ║
║  G        - Toggle GIF recording     ║
║  S        - Save SVG snapshot        ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = make([]*image.Paletted, 0)
		return
	}
	path, err := m.saveGIF()
	if err != nil {
		m.log.Error().Err(err).Msg("gif not saved")
		m.notice = "gif failed: " + err.Error()
	} else if path != "" {
		m.notice = "saved " + path
	}
	m.recording = false
	m.frames = nil
}

func themePalette(t Theme) color.Palette {
	pal := color.Palette{color.Black}
	for _, c := range []lipgloss.Color{t.Muted, t.Land, t.Shell} {
		cc, err := colorful.Hex(string(c))
		if err != nil {
			pal = append(pal, color.White)
			continue
		}
		pal = append(pal, cc)
	}
	return pal
}

func (m *Model) captureFrame() {
	charW, charH := 8, 16
	imgW, imgH := m.canvas.Width*charW, m.canvas.Height*charH
	img := image.NewPaletted(image.Rect(0, 0, imgW, imgH), themePalette(CurrentTheme))
	dotW, dotH := charW/2, charH/4
	for row := 0; row < m.canvas.Height; row++ {
		for col := 0; col < m.canvas.Width; col++ {
			r := m.canvas.Grid[row][col]
			if r <= brailleBase {
				continue
			}
			pattern := int(r - brailleBase)
			idx := uint8(m.canvas.Layers[row][col])
			if idx == 0 {
				idx = 1
			}
			baseX, baseY := col*charW, row*charH
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+dx*dotW+px, baseY+dy*dotH+py, idx)
						}
					}
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() (string, error) {
	if len(m.frames) == 0 {
		return "", nil
	}
	anim := gif.GIF{LoopCount: 0}
	delay := int(m.interval / (10 * time.Millisecond))
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}
	path := filepath.Join(m.outDir, "earther.gif")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		return "", err
	}
	return path, nil
}

func (m *Model) saveSVG() {
	colors := map[Layer]string{
		LayerNone:  string(CurrentTheme.Text),
		LayerLimb:  string(CurrentTheme.Muted),
		LayerLand:  string(CurrentTheme.Land),
		LayerShell: string(CurrentTheme.Shell),
	}
	svg := export.BrailleToSVG(m.canvas.Grid, 4, func(row, col int) string {
		return colors[m.canvas.Layers[row][col]]
	})
	path := filepath.Join(m.outDir, "earther.svg")
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		m.log.Error().Err(err).Msg("svg not saved")
		m.notice = "svg failed: " + err.Error()
		return
	}
	m.notice = "saved " + path
}
