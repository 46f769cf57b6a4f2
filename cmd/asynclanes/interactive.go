package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/comalice/asynclanes/internal/config"
	"github.com/comalice/asynclanes/internal/core"
	"github.com/comalice/asynclanes/internal/primitives"
	"github.com/comalice/asynclanes/internal/production"
	"github.com/comalice/asynclanes/internal/scenario"
	"github.com/comalice/asynclanes/timeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	laneStyle = lipgloss.NewStyle().
			Bold(true).
			Width(12)

	frameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	awaitingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")).
			Italic(true)

	traceStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	boxStyles = map[production.BoxClass]lipgloss.Style{
		production.BoxUI:           lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#3B82F6")).Padding(0, 1),
		production.BoxIO:           lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#FBBF24")).Padding(0, 1),
		production.BoxThreadPool:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#10B981")).Padding(0, 1),
		production.BoxContinuation: lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#A855F7")).Padding(0, 1),
	}
)

type keyMap struct {
	Step     key.Binding
	Back     key.Binding
	Play     key.Binding
	Faster   key.Binding
	Slower   key.Binding
	Reset    key.Binding
	Mode     key.Binding
	Scenario key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Play, k.Mode, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Step, k.Back, k.Reset},
		{k.Play, k.Faster, k.Slower},
		{k.Mode, k.Scenario},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Step:     key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/l", "step")),
	Back:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "back")),
	Play:     key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
	Faster:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
	Slower:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
	Reset:    key.NewBinding(key.WithKeys("r", "home"), key.WithHelp("r", "reset")),
	Mode:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "ui/server")),
	Scenario: key.NewBinding(key.WithKeys("tab", "s"), key.WithHelp("tab", "next scenario")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

const speedStep = 0.25

// tickMsg advances playback. gen ties it to the play session that scheduled it
// so ticks from before a pause are ignored.
type tickMsg struct{ gen int }

type interactiveModel struct {
	scenarios []*scenario.Scenario
	current   int
	session   *timeline.Session
	mode      primitives.Mode
	speed     float64
	playing   bool
	gen       int

	keys     keyMap
	help     help.Model
	progress progress.Model
}

func newInteractiveModel(cfg config.Config) (*interactiveModel, error) {
	all, err := scenario.Catalog()
	if err != nil {
		return nil, err
	}
	current := 0
	if cfg.ScenarioFile != "" {
		sc, err := scenario.LoadFile(cfg.ScenarioFile)
		if err != nil {
			return nil, err
		}
		all = append([]*scenario.Scenario{sc}, all...)
	} else if i := slices.IndexFunc(all, func(sc *scenario.Scenario) bool { return sc.ID == cfg.Scenario }); i >= 0 {
		current = i
	} else {
		return nil, fmt.Errorf("%w: %q", scenario.ErrNotFound, cfg.Scenario)
	}

	m := &interactiveModel{
		scenarios: all,
		current:   current,
		mode:      cfg.EnvMode(),
		speed:     timeline.ClampSpeed(cfg.Speed),
		keys:      keys,
		help:      help.New(),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	m.load()
	return m, nil
}

func (m *interactiveModel) load() {
	sc := m.scenarios[m.current]
	m.session = timeline.NewSession(sc.ID, sc.Events, m.mode)
	m.playing = false
	m.gen++
}

func (m *interactiveModel) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(timeline.Interval(m.speed), func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.progress.Width = max(10, min(60, msg.Width-20))

	case tickMsg:
		if !m.playing || msg.gen != m.gen {
			return m, nil
		}
		if !m.session.Step() || m.session.AtEnd() {
			m.playing = false
			return m, nil
		}
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Step):
			m.pause()
			m.session.Step()

		case key.Matches(msg, m.keys.Back):
			m.pause()
			m.session.JumpTo(m.session.Index() - 1)

		case key.Matches(msg, m.keys.Reset):
			m.pause()
			m.session.Reset()

		case key.Matches(msg, m.keys.Play):
			if m.playing {
				m.pause()
				return m, nil
			}
			if m.session.AtEnd() {
				m.session.Reset()
			}
			m.playing = true
			m.gen++
			return m, m.tick()

		case key.Matches(msg, m.keys.Faster):
			m.speed = timeline.ClampSpeed(m.speed + speedStep)

		case key.Matches(msg, m.keys.Slower):
			m.speed = timeline.ClampSpeed(m.speed - speedStep)

		case key.Matches(msg, m.keys.Mode):
			m.pause()
			m.mode = m.mode.Toggle()
			m.session.SetMode(m.mode)

		case key.Matches(msg, m.keys.Scenario):
			m.current = (m.current + 1) % len(m.scenarios)
			m.load()

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

func (m *interactiveModel) pause() {
	m.playing = false
	m.gen++
}

func (m *interactiveModel) percent() float64 {
	if m.session.Len() == 0 {
		return 1
	}
	return float64(m.session.Index()+1) / float64(m.session.Len())
}

func (m *interactiveModel) View() string {
	var b strings.Builder
	sc := m.scenarios[m.current]
	frame := m.session.Frame()

	b.WriteString(titleStyle.Render("asynclanes: " + sc.Title))
	b.WriteString("\n\n")

	state := "paused"
	if m.playing {
		state = "playing"
	}
	fmt.Fprintf(&b, "Environment: %s   Speed: %.2fx   %s\n", m.mode, m.speed, state)
	fmt.Fprintf(&b, "%s %d/%d\n\n", m.progress.ViewAs(m.percent()), frame.Index+1, frame.Total)

	if frame.Event != nil {
		fmt.Fprintf(&b, "Event: %s\n", frame.Event)
	}
	if note := frame.Note(); note != "" {
		b.WriteString(noteStyle.Render(note))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	snap := frame.Snapshot
	for _, lane := range primitives.Lanes() {
		b.WriteString(renderLane(lane, snap))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	v := &production.TextVisualizer{}
	b.WriteString(traceStyle.Render(strings.TrimRight(v.Trace(snap), "\n")))
	b.WriteString("\n")

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderLane draws one lane: its call stack followed by the visible operation
// boxes ordered queued, running, done.
func renderLane(lane primitives.LaneID, snap core.Snapshot) string {
	var parts []string
	for _, method := range snap.Stack(lane) {
		if snap.IsSuspended(lane, method) {
			parts = append(parts, awaitingStyle.Render(method+" ⏸"))
			continue
		}
		parts = append(parts, frameStyle.Render(method))
	}
	boxes := production.Boxes(snap, lane)
	slices.SortStableFunc(boxes, func(a, b production.Box) int { return int(a.Position) - int(b.Position) })
	for _, box := range boxes {
		if !box.Visible {
			continue
		}
		parts = append(parts, boxStyles[box.Class].Render(box.Label))
	}
	if len(parts) == 0 {
		parts = append(parts, frameStyle.Faint(true).Render("idle"))
	}
	return laneStyle.Render(string(lane)) + strings.Join(parts, " ")
}

func runInteractive(cfg config.Config) error {
	m, err := newInteractiveModel(cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
