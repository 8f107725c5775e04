package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/hinape/internal/config"
	"github.com/san-kum/hinape/internal/rigidbody"
	"github.com/san-kum/hinape/internal/scene"
)

const (
	frameRate       = 60
	historyCapacity = 240
	maxLogLines     = 5
)

type TickMsg time.Time

// ConfigMsg carries a reloaded scene file.
type ConfigMsg struct {
	Config *config.Config
}

// WatchErrMsg carries a scene file that failed to reload.
type WatchErrMsg struct {
	Err error
}

// typeKeys maps number keys to the desired rigid-body type they request.
var typeKeys = map[string]rigidbody.Type{
	"0": rigidbody.TypeNone,
	"1": rigidbody.TypeDynamic,
	"2": rigidbody.TypeStatic,
	"3": rigidbody.TypeKinematic,
}

// Model drives a scene from the bubbletea event loop and renders its
// entities. All scene access happens in Update.
type Model struct {
	scene    *scene.Scene
	name     string
	dt       float64
	running  bool
	selected int
	width    int

	configs <-chan *config.Config
	errs    <-chan error

	history     []float64
	log         []string
	conversions int
	failures    int
	fatal       error
}

type Option func(*Model)

// WithWatcher feeds reloaded scene files into the model. Desired types in
// the reloaded file are applied to the running scene.
func WithWatcher(w *config.Watcher) Option {
	return func(m *Model) {
		m.configs = w.Events
		m.errs = w.Errors
	}
}

func NewModel(sc *scene.Scene, name string, dt float64, opts ...Option) Model {
	m := Model{
		scene:   sc,
		name:    name,
		dt:      dt,
		running: true,
		width:   80,
		history: make([]float64, 0, historyCapacity),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func waitForConfig(configs <-chan *config.Config, errs <-chan error) tea.Cmd {
	if configs == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case cfg, ok := <-configs:
			if !ok {
				return nil
			}
			return ConfigMsg{Config: cfg}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			return WatchErrMsg{Err: err}
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), waitForConfig(m.configs, m.errs))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case TickMsg:
		if m.running && m.fatal == nil {
			m.step()
		}
		return m, tick()
	case ConfigMsg:
		n := msg.Config.ApplyDesired(m.scene)
		m.addLog(fmt.Sprintf("scene reloaded, %d desired type change(s)", n))
		return m, waitForConfig(m.configs, m.errs)
	case WatchErrMsg:
		m.addLog("reload failed: " + msg.Err.Error())
		return m, waitForConfig(m.configs, m.errs)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	entities := m.scene.Entities()
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "n", ".":
		if !m.running && m.fatal == nil {
			m.step()
		}
	case "up", "k":
		if m.selected > 0 {
			m.selected--
			m.history = m.history[:0]
		}
	case "down", "j":
		if m.selected < len(entities)-1 {
			m.selected++
			m.history = m.history[:0]
		}
	default:
		t, ok := typeKeys[key]
		if !ok || m.selected >= len(entities) {
			break
		}
		e := entities[m.selected]
		if !e.HasPhysics() {
			m.addLog(fmt.Sprintf("%s has no physics", e.Name))
			break
		}
		e.SetRigidBodyType(t)
		m.addLog(fmt.Sprintf("%s desired -> %s", e.Name, t))
	}
	return m, nil
}

func (m *Model) step() {
	report, err := m.scene.Step(m.dt)
	if err != nil {
		m.fatal = err
		m.addLog("tick failed: " + err.Error())
		return
	}
	m.conversions += report.Conversions
	m.failures += len(report.Errors)
	for _, e := range report.Errors {
		m.addLog(e.Error())
	}

	entities := m.scene.Entities()
	if m.selected < len(entities) {
		m.history = append(m.history, entities[m.selected].Pose().Position.Y())
		if len(m.history) > historyCapacity {
			m.history = m.history[1:]
		}
	}
}

func (m *Model) addLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func (m Model) View() string {
	var s strings.Builder
	sys := m.scene.System()

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.fatal != nil:
		status = StatusFailed.Render("STOPPED")
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "  " + status + "\n")
	s.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s  %s %s\n\n",
		labelStyle.Render("t"), valueStyle.Render(fmt.Sprintf("%.3fs", sys.Time())),
		labelStyle.Render("step"), valueStyle.Render(fmt.Sprintf("%d", sys.Steps())),
		labelStyle.Render("converted"), valueStyle.Render(fmt.Sprintf("%d", m.conversions)),
		labelStyle.Render("failed"), valueStyle.Render(fmt.Sprintf("%d", m.failures)),
	))

	s.WriteString(m.entityTable())

	if len(m.history) > 1 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(6),
			asciigraph.Width(min(60, max(10, m.width-20))),
			asciigraph.Caption("selected y"),
		)
		s.WriteString(graphStyle.Render(graph) + "\n")
	}

	for _, line := range m.log {
		s.WriteString(logStyle.Render(line) + "\n")
	}

	s.WriteString(helpStyle.Render("space pause  n step  j/k select  0 none  1 dynamic  2 static  3 kinematic  q quit"))
	return s.String()
}

func (m Model) entityTable() string {
	var rows []string
	rows = append(rows, columnStyle.Render(fmt.Sprintf("  %-4s %-12s %-10s %-10s %-26s %-26s",
		"id", "name", "desired", "applied", "position", "velocity")))

	for i, e := range m.scene.Entities() {
		p, v := e.Pose().Position, e.Velocity()
		row := fmt.Sprintf("%-4d %-12s %-10s %-10s %-26s %-26s",
			e.ID, truncate(e.Name, 12),
			e.RigidBodyType(), e.AppliedRigidBodyType(),
			fmt.Sprintf("%7.2f %7.2f %7.2f", p.X(), p.Y(), p.Z()),
			fmt.Sprintf("%7.2f %7.2f %7.2f", v.X(), v.Y(), v.Z()),
		)
		style := rowStyle
		if e.Pending() {
			style = pendingStyle
		}
		if i == m.selected {
			rows = append(rows, selectedStyle.Render("> "+row))
		} else {
			rows = append(rows, style.Render("  "+row))
		}
	}
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)) + "\n"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
