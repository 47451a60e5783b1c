// Package tui provides a BubbleTea live volume meter for the default sink.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/volwatch/internal/volume"
	"github.com/jmylchreest/volwatch/internal/watcher"
)

const (
	historySize = 8
	maxBarWidth = 60
	padding     = 2
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	deviceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	mutedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// UpdateMsg delivers a volume update to the model.
type UpdateMsg volume.Update

// doneMsg reports that the watcher stopped.
type doneMsg struct {
	status int
	err    error
}

type tickMsg time.Time

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

// Model is the TUI model.
type Model struct {
	keys     KeyMap
	help     help.Model
	progress progress.Model

	current   volume.Update
	hasUpdate bool
	history   []volume.Update

	status    string
	statusErr bool
	err       error
	width     int

	clipboard string
	now       func() time.Time
}

// New creates a new TUI model.
func New(clipboard string) Model {
	return Model{
		keys:      DefaultKeyMap(),
		help:      help.New(),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		clipboard: clipboard,
		now:       time.Now,
	}
}

// Init starts the clock used for relative times.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progress.Width = min(msg.Width-padding*2, maxBarWidth)
		return m, nil

	case UpdateMsg:
		u := volume.Update(msg)
		m.current = u
		m.hasUpdate = true
		m.history = append([]volume.Update{u}, m.history...)
		if len(m.history) > historySize {
			m.history = m.history[:historySize]
		}
		return m, nil

	case doneMsg:
		m.err = msg.err
		return m, tea.Quit

	case tickMsg:
		return m, tick()

	case statusMsg:
		m.status = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.status = ""
		m.statusErr = false
		return m, nil
	}

	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		if !m.hasUpdate {
			return m, nil
		}
		return m, m.copyReading()
	}
	return m, nil
}

func (m Model) copyReading() tea.Cmd {
	text := fmt.Sprintf("volume = %d muted = %d", m.current.Percent, m.current.MutedFlag())
	command := m.clipboard
	return func() tea.Msg {
		if err := copyText(text, command); err != nil {
			return statusMsg{text: "Copy failed: " + err.Error(), isErr: true}
		}
		return statusMsg{text: "Copied to clipboard"}
	}
}

// View renders the TUI.
func (m Model) View() string {
	pad := strings.Repeat(" ", padding)
	var b strings.Builder

	b.WriteString("\n" + pad + titleStyle.Render("volwatch") + "\n\n")

	if m.err != nil {
		b.WriteString(pad + errorStyle.Render("Error: "+m.err.Error()) + "\n")
		return b.String()
	}

	if !m.hasUpdate {
		b.WriteString(pad + "Waiting for the default output device...\n")
	} else {
		b.WriteString(pad + deviceStyle.Render(m.current.Device) + "\n\n")
		b.WriteString(pad + m.progress.ViewAs(barFraction(m.current)) + "\n\n")
		b.WriteString(pad + m.reading(m.current) + "\n")

		if len(m.history) > 1 {
			b.WriteString("\n" + pad + deviceStyle.Render("Recent changes") + "\n")
			for _, u := range m.history[1:] {
				b.WriteString(pad + fmt.Sprintf("  %-10s %s", m.reading(u), deviceStyle.Render(m.ago(u.At))) + "\n")
			}
		}
	}

	b.WriteString("\n")
	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(pad + style.Render(m.status) + "\n")
	} else {
		b.WriteString(pad + m.help.View(m.keys) + "\n")
	}
	return b.String()
}

func (m Model) reading(u volume.Update) string {
	if u.Muted {
		return mutedStyle.Render(fmt.Sprintf("%d%% muted", u.Percent))
	}
	return valueStyle.Render(fmt.Sprintf("%d%%", u.Percent))
}

func (m Model) ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, m.now(), "ago", "from now")
}

// barFraction maps an update onto the 0-1 range of the meter. Boosted
// volumes fill the bar; muted shows empty.
func barFraction(u volume.Update) float64 {
	if u.Muted {
		return 0
	}
	return float64(max(0, min(u.Percent, 100))) / 100
}

// RunOptions configures the TUI.
type RunOptions struct {
	// Start runs the watcher until ctx is cancelled, emitting to sink.
	Start func(ctx context.Context, sink watcher.Sink) (int, error)
	// Clipboard overrides clipboard command detection.
	Clipboard string
}

// Run starts the TUI and the watcher. It returns the watcher's exit
// status once either side stops.
func Run(ctx context.Context, opts RunOptions) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(opts.Clipboard), tea.WithAltScreen())

	result := make(chan doneMsg, 1)
	go func() {
		status, err := opts.Start(ctx, watcher.SinkFunc(func(u volume.Update) error {
			p.Send(UpdateMsg(u))
			return nil
		}))
		done := doneMsg{status: status, err: err}
		result <- done
		p.Send(done)
	}()

	if _, err := p.Run(); err != nil {
		return 1, err
	}

	// The user quit; stop the watcher and collect its status.
	cancel()
	done := <-result
	return done.status, done.err
}
