package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/smagr173/casey/pkg/models"
	"github.com/smagr173/casey/pkg/render"
)

// chromeHeight is the number of terminal rows reserved around the
// transcript viewport: header, input line and status line plus spacing.
const chromeHeight = 4

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	userStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	noticeStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("242"))
	linkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	collapseBar  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	controlOn    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	controlOff   = lipgloss.NewStyle().Faint(true)
	tableHeader  = lipgloss.NewStyle().Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	busyStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// renderTranscript turns the current snapshot into the viewport body.
func (m model) renderTranscript() string {
	state := render.State{
		ActivePlanID: m.snap.ActivePlanID,
		JobActive:    m.snap.Busy,
	}
	blocks := render.Transcript(m.snap.Transcript, state)

	var b strings.Builder
	for _, blk := range blocks {
		b.WriteString(m.renderBlock(blk))
		b.WriteString("\n")
	}

	if len(m.snap.PlanSteps) > 0 {
		b.WriteString(m.planPanel())
		b.WriteString("\n")
	}
	if m.showRefs {
		b.WriteString(m.referencesPanel())
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderBlock(blk render.Block) string {
	switch blk := blk.(type) {
	case render.UserBlock:
		return userStyle.Render("You: ") + blk.Text + "\n"
	case render.NoticeBlock:
		return noticeStyle.Render(blk.Markdown) + "\n"
	case render.MarkdownBlock:
		return m.renderMarkdown(blk.Markdown)
	case render.TableBlock:
		return m.renderTable(blk)
	case render.LinkBlock:
		return linkStyle.Render(blk.Name) + "  " + blk.URL + "\n"
	case render.CollapseBlock:
		var b strings.Builder
		b.WriteString(collapseBar.Render("── "+blk.Title+" ──") + "\n")
		b.WriteString(m.renderMarkdown(blk.Markdown))
		return b.String()
	case render.ControlBlock:
		label := fmt.Sprintf("[ %s (ctrl+e) ]", blk.Label)
		if blk.Disabled {
			return controlOff.Render(label) + "\n"
		}
		return controlOn.Render(label) + "\n"
	default:
		return ""
	}
}

func (m model) renderMarkdown(md string) string {
	width := m.vp.Width - 2
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md + "\n"
	}
	out, err := r.Render(md)
	if err != nil {
		return md + "\n"
	}
	return out
}

func (m model) renderTable(t render.TableBlock) string {
	if len(t.Columns) == 0 {
		return ""
	}
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for i, c := range t.Columns {
		b.WriteString(tableHeader.Render(pad(c, widths[i])))
		if i < len(t.Columns)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")
	for _, row := range t.Rows {
		for i, cell := range row {
			b.WriteString(pad(cell, widths[i]))
			if i < len(row)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	if t.Hidden > 0 {
		b.WriteString(helpStyle.Render(fmt.Sprintf("... and %d more rows", t.Hidden)) + "\n")
	}
	return b.String()
}

func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func (m model) planPanel() string {
	var b strings.Builder
	b.WriteString("Proposed plan\n")
	for i, step := range m.snap.PlanSteps {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, step.Description))
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m model) referencesPanel() string {
	refs := m.snap.References()
	if len(refs) == 0 {
		return panelStyle.Render("No references yet")
	}
	var b strings.Builder
	b.WriteString("References\n")
	for _, ref := range refs {
		b.WriteString(linkStyle.Render(models.ResolveStorageURL(ref.DocumentURL)) + "\n")
		if ref.DocumentText != "" {
			b.WriteString(helpStyle.Render(truncate(ref.DocumentText, 160)) + "\n")
		}
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
