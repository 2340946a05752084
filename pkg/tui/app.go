// Package tui is the terminal front-end: a bubbletea program that renders
// the session transcript and drives the controller. It never mutates
// session state directly; it invokes controller operations and redraws
// from the snapshots the controller publishes.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/smagr173/casey/pkg/session"
)

// snapshotMsg delivers a controller state change into the program.
type snapshotMsg session.Snapshot

// opDoneMsg reports a finished controller operation. Failures are kept
// quiet in the transcript (the session design is silent on errors) but
// shown in the status line.
type opDoneMsg struct{ err error }

// Run starts the interactive chat. updates must be the channel the
// controller's OnUpdate callback feeds; chatID, when non-empty, loads an
// existing conversation before the first prompt.
func Run(ctrl *session.Controller, updates <-chan session.Snapshot, chatID string) error {
	m := newModel(ctrl, updates, chatID)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run chat ui: %w", err)
	}
	return nil
}

type model struct {
	ctrl    *session.Controller
	updates <-chan session.Snapshot
	chatID  string

	snap     session.Snapshot
	vp       viewport.Model
	input    textinput.Model
	spin     spinner.Model
	width    int
	height   int
	ready    bool
	showRefs bool
	modelIdx int
	status   string
}

func newModel(ctrl *session.Controller, updates <-chan session.Snapshot, chatID string) model {
	input := textinput.New()
	input.Placeholder = "Enter a prompt here"
	input.Focus()
	input.CharLimit = 4000

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = spinnerStyle

	snap := ctrl.Snapshot()
	return model{
		ctrl:     ctrl,
		updates:  updates,
		chatID:   chatID,
		snap:     snap,
		input:    input,
		spin:     spin,
		modelIdx: indexOfModel(snap.SelectedModel),
	}
}

func indexOfModel(name string) int {
	for i, m := range session.LLMModels {
		if m == name {
			return i
		}
	}
	return 0
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForUpdate(), m.spin.Tick, textinput.Blink}
	if m.chatID != "" {
		cmds = append(cmds, m.loadCmd(m.chatID))
	}
	return tea.Batch(cmds...)
}

// waitForUpdate blocks on the controller's update channel and re-arms
// itself after every message.
func (m model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-m.updates)
	}
}

func (m model) submitCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: m.ctrl.Submit(context.Background(), text)}
	}
}

func (m model) runPlanCmd() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: m.ctrl.RunPlan(context.Background())}
	}
}

func (m model) loadCmd(chatID string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: m.ctrl.Load(context.Background(), chatID)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - chromeHeight
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = vpHeight
		}
		m.refreshViewport()
		return m, nil

	case snapshotMsg:
		m.snap = session.Snapshot(msg)
		m.refreshViewport()
		m.vp.GotoBottom()
		cmds = append(cmds, m.waitForUpdate())

	case opDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = ""
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.ctrl.Close()
			return m, tea.Quit
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.snap.Busy {
				break
			}
			m.input.Reset()
			cmds = append(cmds, m.submitCmd(text))
		case "ctrl+e":
			if m.snap.ActivePlanID != "" && !m.snap.Busy {
				cmds = append(cmds, m.runPlanCmd())
			}
		case "ctrl+r":
			m.showRefs = !m.showRefs
			m.refreshViewport()
		case "ctrl+p":
			m.modelIdx = (m.modelIdx + 1) % len(session.LLMModels)
			m.ctrl.SelectModel(session.LLMModels[m.modelIdx])
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) refreshViewport() {
	if !m.ready {
		return
	}
	m.vp.SetContent(m.renderTranscript())
}

func (m model) View() string {
	if !m.ready {
		return "Starting chat..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.vp.View())
	b.WriteString("\n")
	if m.snap.Busy {
		b.WriteString(m.spin.View())
		if m.snap.ActivePlanID != "" && m.snap.State == session.StateAwaitingPlanRun {
			b.WriteString(busyStyle.Render(" Executing plan " + m.snap.ActivePlanID))
		} else {
			b.WriteString(busyStyle.Render(" Waiting for a response..."))
		}
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

func (m model) headerView() string {
	title := "Casey"
	if m.snap.ChatID != "" {
		title += " · " + m.snap.ChatID
	}
	model := fmt.Sprintf("model: %s", m.snap.SelectedModel)
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(model) - 2
	if gap < 1 {
		gap = 1
	}
	return headerStyle.Render(title + strings.Repeat(" ", gap) + model)
}

func (m model) statusView() string {
	if m.status != "" {
		return errorStyle.Render(m.status)
	}
	help := "enter send · ctrl+e run plan · ctrl+p model · ctrl+r references · esc quit"
	return helpStyle.Render(help)
}
