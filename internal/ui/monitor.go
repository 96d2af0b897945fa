package ui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/earctl/internal/session"
)

// maxLogLines bounds the event log under the status panel.
const maxLogLines = 12

type eventMsg struct{ ev session.Event }

type streamClosedMsg struct{}

type refreshDoneMsg struct{ err error }

type logLine struct {
	at   time.Time
	name string
	text string
	bad  bool
}

// Monitor is the Bubble Tea model behind `earctl watch`: a live status
// panel with the most recent events beneath it.
type Monitor struct {
	events   <-chan session.Event
	refresh  func(context.Context) error
	snapshot session.Snapshot
	log      []logLine
	width    int
	height   int
	closed   bool
	now      func() time.Time
}

// NewMonitor creates a monitor starting from snap and fed by events.
// refresh, when non-nil, runs on the "r" key.
func NewMonitor(snap session.Snapshot, events <-chan session.Event, refresh func(context.Context) error) Monitor {
	width, height := GetTerminalSize()
	return Monitor{
		events:   events,
		refresh:  refresh,
		snapshot: snap,
		width:    width,
		height:   height,
		now:      time.Now,
	}
}

// Snapshot is the monitor's current view of the device.
func (m Monitor) Snapshot() session.Snapshot {
	return m.snapshot
}

func waitForEvent(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{ev}
	}
}

// Init implements tea.Model
func (m Monitor) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update implements tea.Model
func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.refresh == nil {
				return m, nil
			}
			refresh := m.refresh
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return refreshDoneMsg{err: refresh(ctx)}
			}
		}

	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)
		m.height = msg.Height

	case eventMsg:
		m.snapshot.Apply(msg.ev)
		m = m.appendLog(logLine{
			at:   m.now(),
			name: msg.ev.EventName(),
			text: DescribeEvent(msg.ev),
			bad:  isErrorEvent(msg.ev),
		})
		return m, waitForEvent(m.events)

	case refreshDoneMsg:
		if msg.err != nil {
			m = m.appendLog(logLine{at: m.now(), name: "refresh", text: msg.err.Error(), bad: true})
		}

	case streamClosedMsg:
		m.closed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Monitor) appendLog(l logLine) Monitor {
	m.log = append(m.log, l)
	if len(m.log) > maxLogLines {
		m.log = append([]logLine(nil), m.log[len(m.log)-maxLogLines:]...)
	}
	return m
}

// View implements tea.Model
func (m Monitor) View() string {
	var b strings.Builder
	b.WriteString(RenderStatus(m.snapshot, m.width))
	b.WriteString("\n\n")

	for _, l := range m.log {
		text := ResultValueStyle.Render(l.text)
		if l.bad {
			text = ErrorMessageStyle.Render(l.text)
		}
		b.WriteString("  ")
		b.WriteString(EventTimeStyle.Render(l.at.Format("15:04:05")))
		b.WriteString("  ")
		b.WriteString(EventNameStyle.Render(l.name))
		b.WriteString(text)
		b.WriteString("\n")
	}

	help := "q quit"
	if m.refresh != nil {
		help = "r refresh · " + help
	}
	if m.closed {
		help = "session closed · " + help
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(MutedColor).PaddingLeft(2).Render(help))
	b.WriteString("\n")
	return b.String()
}

// RunMonitor runs the monitor full screen until the user quits or the
// event stream closes.
func RunMonitor(ctx context.Context, m Monitor) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
