// Package tui provides the terminal front end: a live monitor for a
// running simulation and an interactive preset browser.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/ljmartin/timemachine/internal/analysis"
	"github.com/ljmartin/timemachine/internal/potential"
	"github.com/ljmartin/timemachine/internal/setup"
	"github.com/ljmartin/timemachine/internal/sim"
)

const (
	canvasWidth     = 46
	canvasHeight    = 20
	historyCapacity = 600
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(48)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(13)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model drives one simulation from inside the event loop: every tick
// advances the context by a store interval and refreshes the charts.
type Model struct {
	simn *setup.Simulation
	cfg  sim.RunConfig

	stepsDone  int
	energyHist []float64
	tempHist   []float64
	frame      []float64
	box        []float64

	running  bool
	done     bool
	err      error
	showHelp bool
}

func NewModel(simn *setup.Simulation) Model {
	cfg := simn.RunConfig()
	return Model{
		simn:       simn,
		cfg:        cfg,
		energyHist: make([]float64, 0, historyCapacity),
		tempHist:   make([]float64, 0, historyCapacity),
		frame:      simn.Ctx.Positions(),
		box:        simn.Ctx.Box(),
		running:    true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if !m.done && m.err == nil {
				m.running = !m.running
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.done && m.err == nil {
			m.advance()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// advance runs one store interval worth of steps and samples the
// observables shown in the side panel.
func (m *Model) advance() {
	remaining := m.cfg.Steps - m.stepsDone
	if remaining <= 0 {
		m.done = true
		return
	}

	chunk := m.cfg.StoreInterval
	if chunk <= 0 || chunk > remaining {
		chunk = remaining
	}
	if _, _, err := m.simn.Ctx.MultipleSteps(chunk, chunk); err != nil {
		m.err = err
		return
	}
	m.stepsDone += chunk

	energy, err := m.simn.Ctx.Energies()
	if err != nil {
		m.err = err
		return
	}

	m.energyHist = append(m.energyHist, energy)
	if len(m.energyHist) > historyCapacity {
		m.energyHist = m.energyHist[1:]
	}
	temp := sim.Temperature(m.simn.Ctx.Velocities(), m.cfg.Masses)
	m.tempHist = append(m.tempHist, temp)
	if len(m.tempHist) > historyCapacity {
		m.tempHist = m.tempHist[1:]
	}

	m.frame = m.simn.Ctx.Positions()
	m.box = m.simn.Ctx.Box()

	if m.stepsDone >= m.cfg.Steps {
		m.done = true
	}
}

func (m Model) View() string {
	canvasView := canvasStyle.Render(analysis.FrameToASCII(m.frame, m.box, canvasWidth, canvasHeight))

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.simn.Cfg.System.Kind)) + "\n")
	s.WriteString(m.status() + "\n")

	if len(m.energyHist) > 1 {
		chart := asciigraph.Plot(m.energyHist, asciigraph.Height(4), asciigraph.Width(32), asciigraph.Caption("Energy (kJ/mol)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if len(m.tempHist) > 1 {
		chart := asciigraph.Plot(m.tempHist, asciigraph.Height(4), asciigraph.Width(32), asciigraph.Caption("Temperature (K)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.3f ps", float64(m.stepsDone)*m.cfg.Dt)) + "\n")
	s.WriteString(labelStyle.Render("Steps") + valueStyle.Render(fmt.Sprintf("%d / %d", m.stepsDone, m.cfg.Steps)) + "\n")
	if len(m.energyHist) > 0 {
		s.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.4f kJ/mol", m.energyHist[len(m.energyHist)-1])) + "\n")
	}
	if len(m.tempHist) > 0 {
		s.WriteString(labelStyle.Render("Temperature") + valueStyle.Render(fmt.Sprintf("%.1f K", m.tempHist[len(m.tempHist)-1])) + "\n")
	}
	if len(m.box) == 9 {
		s.WriteString(labelStyle.Render("Volume") + valueStyle.Render(fmt.Sprintf("%.3f nm³", potential.Volume(m.box))) + "\n")
	}

	s.WriteString(helpStyle.Render("\nSP:Pause  Q:Quit  ?:Help"))

	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume run         ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n" + mainView
	}
	return mainView
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("ERROR: " + m.err.Error())
	case m.done:
		return valueStyle.Render("DONE")
	case !m.running:
		return valueStyle.Render("PAUSED")
	default:
		return valueStyle.Render("RUNNING")
	}
}

// Run drives a live simulation to completion or until the user quits.
func Run(simn *setup.Simulation) error {
	p := tea.NewProgram(NewModel(simn), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
