package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ljmartin/timemachine/internal/config"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

var systemInfo = map[string]string{
	"dimer":    "two bonded atoms, the smallest test system",
	"chain":    "helical polymer with bonds, angles and torsions",
	"lj-fluid": "argon-like fluid on a cubic lattice",
}

type pickerState int

const (
	pickSystem pickerState = iota
	pickPreset
)

type picker struct {
	state   pickerState
	cursor  int
	systems []string
	presets []string

	system string
	preset string
	chosen bool
}

func newPicker() picker {
	systems := make([]string, 0, len(config.Presets))
	for name := range config.Presets {
		systems = append(systems, name)
	}
	sort.Strings(systems)
	return picker{state: pickSystem, systems: systems}
}

func (p picker) Init() tea.Cmd { return nil }

func (p picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch key.String() {
	case "q", "ctrl+c":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < p.listLen()-1 {
			p.cursor++
		}
	case "escape":
		if p.state == pickPreset {
			p.state = pickSystem
			p.cursor = 0
		}
	case "enter", " ":
		switch p.state {
		case pickSystem:
			p.system = p.systems[p.cursor]
			presets := config.ListPresets(p.system)
			sort.Strings(presets)
			p.presets = presets
			p.state = pickPreset
			p.cursor = 0
		case pickPreset:
			p.preset = p.presets[p.cursor]
			p.chosen = true
			return p, tea.Quit
		}
	}
	return p, nil
}

func (p picker) listLen() int {
	if p.state == pickSystem {
		return len(p.systems)
	}
	return len(p.presets)
}

func (p picker) View() string {
	var s strings.Builder
	s.WriteString("\n  " + cyan.Render("timemachine") + dim.Render("  pick a system\n\n"))

	if p.state == pickSystem {
		for i, name := range p.systems {
			line := "   " + name
			if i == p.cursor {
				line = cyan.Render(" > " + name)
			} else {
				line = white.Render(line)
			}
			s.WriteString(line + "  " + dimmer.Render(systemInfo[name]) + "\n")
		}
	} else {
		s.WriteString(dim.Render("  "+p.system) + "\n\n")
		for i, name := range p.presets {
			cfg := config.GetPreset(p.system, name)
			info := ""
			if cfg != nil {
				info = dimmer.Render(presetBlurb(cfg))
			}
			if i == p.cursor {
				s.WriteString(cyan.Render(" > "+name) + "  " + info + "\n")
			} else {
				s.WriteString(white.Render("   "+name) + "  " + info + "\n")
			}
		}
	}

	s.WriteString(dim.Render("\n  ↑↓ move   enter select   esc back   q quit\n"))
	return s.String()
}

func presetBlurb(cfg *config.Config) string {
	parts := []string{
		fmt.Sprintf("%d atoms", cfg.System.Atoms),
		cfg.Integrator.Kind,
		fmt.Sprintf("%d steps", cfg.Run.Steps),
	}
	if cfg.Barostat.Enabled {
		parts = append(parts, "npt")
	}
	return strings.Join(parts, ", ")
}

// PickPreset opens the browser and returns the chosen preset, or nil
// when the user backs out.
func PickPreset() (*config.Config, error) {
	p := tea.NewProgram(newPicker(), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	pk, ok := final.(picker)
	if !ok || !pk.chosen {
		return nil, nil
	}
	return config.GetPreset(pk.system, pk.preset), nil
}
