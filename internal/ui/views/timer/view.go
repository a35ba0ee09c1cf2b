package timer

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "focustrack/internal/modules/session/dto"
	"focustrack/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

// Port is the slice of the session use-case this view drives.
type Port interface {
	Pause(ctx context.Context) (sessiondto.SessionOutput, error)
	Resume(ctx context.Context) (sessiondto.SessionOutput, error)
	FinishLater(ctx context.Context, notes string) error
	Complete(ctx context.Context, notes string) error
	Current(ctx context.Context) (sessiondto.SessionOutput, error)
	Minimize()
	Maximize()
	AcquireTimerLock(ctx context.Context) error
	ReleaseTimerLock(ctx context.Context) error
}

// NetReader exposes connectivity without dragging the monitor in.
type NetReader interface {
	Online() bool
}

// ─── messages ────────────────────────────────────────────────────────────────

// TickMsg drives the once-per-second redraw.
type TickMsg time.Time

// RefreshMsg carries the session state after an operation round-trip.
type RefreshMsg struct {
	Session sessiondto.SessionOutput
	Gone    bool
	Err     error
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the watch surface for the active session. The displayed clock is
// recomputed from absolute instants on every tick, so a laptop waking from
// suspend snaps to the right value on the next redraw.
type Model struct {
	port    Port
	net     NetReader
	spinner spinner.Model

	session sessiondto.SessionOutput
	gone    bool
	errMsg  string
	width   int
}

func New(port Port, net NetReader) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{port: port, net: net, spinner: sp}
}

// Init claims the advisory timer lock and starts the redraw loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			_ = m.port.AcquireTimerLock(context.Background())
			return m.refresh()
		},
		tick(),
		m.spinner.Tick,
	)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case TickMsg:
		return m, tea.Batch(tick(), func() tea.Msg { return m.refresh() })

	case RefreshMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.gone = msg.Gone
		if !msg.Gone {
			m.session = msg.Session
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, func() tea.Msg {
			_ = m.port.ReleaseTimerLock(context.Background())
			return tea.Quit()
		}
	case " ":
		return m, m.op(func(ctx context.Context) (sessiondto.SessionOutput, error) {
			if m.session.Running {
				return m.port.Pause(ctx)
			}
			return m.port.Resume(ctx)
		})
	case "c":
		return m, m.terminal(m.port.Complete)
	case "f":
		return m, m.terminal(m.port.FinishLater)
	case "m":
		if m.session.Minimized {
			m.port.Maximize()
		} else {
			m.port.Minimize()
		}
		return m, func() tea.Msg { return m.refresh() }
	}
	return m, nil
}

func (m Model) op(fn func(ctx context.Context) (sessiondto.SessionOutput, error)) tea.Cmd {
	return func() tea.Msg {
		session, err := fn(context.Background())
		if err != nil {
			return RefreshMsg{Err: err}
		}
		return RefreshMsg{Session: session}
	}
}

func (m Model) terminal(fn func(ctx context.Context, notes string) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(context.Background(), ""); err != nil {
			return RefreshMsg{Err: err}
		}
		return RefreshMsg{Gone: true}
	}
}

func (m Model) refresh() tea.Msg {
	session, err := m.port.Current(context.Background())
	if err != nil {
		// Absence is a state here, not a failure.
		return RefreshMsg{Gone: true}
	}
	return RefreshMsg{Session: session}
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.gone {
		return theme.App.Render(theme.Muted.Render("No active session.") + "\n\n" + m.helpLine(true))
	}

	title := theme.Title.Render(m.session.Title)
	clock := theme.Clock.Render(m.session.Clock)

	status := theme.Good.Render("● running")
	if !m.session.Running {
		status = theme.Warn.Render("⏸ paused")
	}
	badges := status
	if m.net != nil && !m.net.Online() {
		badges += "  " + theme.Danger.Render("offline")
	}
	if m.session.Syncing {
		badges += "  " + m.spinner.View() + theme.Muted.Render("syncing")
	}
	if m.session.Minimized {
		badges += "  " + theme.Muted.Render("minimized")
	}

	pane := theme.Pane.Render(title + "\n\n" + clock + "\n\n" + badges)
	if m.errMsg != "" {
		pane += "\n" + theme.Danger.Render(m.errMsg)
	}
	return theme.App.Render(pane + "\n" + m.helpLine(false))
}

func (m Model) helpLine(gone bool) string {
	if gone {
		return theme.Muted.Render("q quit")
	}
	return theme.Muted.Render("space pause/resume · c complete · f finish later · m minimize · q quit")
}
