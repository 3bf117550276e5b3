package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/earther/internal/config"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// Loader switches the world to another variable.
type Loader func(desc config.VariableDesc) error

// App shows a variable menu and hands over to the live globe once a
// variable is picked. Pressing v on the globe returns to the menu.
type App struct {
	picking bool
	cursor  int
	vars    []config.VariableDesc
	load    Loader
	live    *Model
	runID   string
	err     error
}

// NewApp starts on the menu when nothing is loaded yet.
func NewApp(live *Model, runID string, vars []config.VariableDesc, load Loader) *App {
	return &App{
		picking: live.world.Primary() == nil,
		vars:    vars,
		load:    load,
		live:    live,
		runID:   runID,
	}
}

func (a *App) Init() tea.Cmd { return a.live.Init() }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if !a.picking {
		if isKey && key.String() == "v" {
			a.picking = true
			return a, nil
		}
		_, cmd := a.live.Update(msg)
		return a, cmd
	}

	if !isKey {
		// keep the tick loop alive behind the menu
		_, cmd := a.live.Update(msg)
		return a, cmd
	}
	switch key.String() {
	case "q", "ctrl+c":
		a.live.world.Discard()
		return a, tea.Quit
	case "esc":
		if a.live.world.Primary() != nil {
			a.picking = false
		}
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.vars)-1 {
			a.cursor++
		}
	case "enter":
		if len(a.vars) == 0 {
			return a, nil
		}
		if err := a.load(a.vars[a.cursor]); err != nil {
			a.err = err
			return a, nil
		}
		a.err = nil
		a.picking = false
	}
	return a, nil
}

func (a *App) Picking() bool { return a.picking }

func (a *App) View() string {
	if !a.picking {
		return a.live.View()
	}

	var b strings.Builder
	b.WriteString("\n  " + cyan.Render("EARTHER") + dim.Render("  run "+a.runID) + "\n\n")
	for i, v := range a.vars {
		kind := "flat"
		if !v.IsFlat() {
			kind = "3d"
		}
		line := fmt.Sprintf("%-16s %-5s %s", v.Key(), kind, v.Description)
		if i == a.cursor {
			b.WriteString(yellow.Render("  ▸ "+line) + "\n")
		} else {
			b.WriteString("    " + white.Render(line) + "\n")
		}
	}
	if a.err != nil {
		b.WriteString("\n  " + red.Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n  " + dim.Render("↑↓ select  enter load  esc back  q quit") + "\n")
	return b.String()
}
