package render

import (
	"fmt"

	"github.com/smagr173/casey/pkg/models"
)

// Block is one display node produced from a chat entry.
type Block interface{ isBlock() }

// UserBlock is a submitted user prompt, shown as a user bubble.
type UserBlock struct {
	Text string
}

// NoticeBlock is a one-line routing notice.
type NoticeBlock struct {
	Markdown string
}

// MarkdownBlock is normalized AI markup.
type MarkdownBlock struct {
	Markdown string
}

// TableBlock is a tabular query result. Hidden counts rows beyond the
// display batch.
type TableBlock struct {
	Columns []string
	Rows    [][]string
	Hidden  int
}

// LinkBlock is a named resource link.
type LinkBlock struct {
	Name string
	URL  string
}

// CollapseBlock is content shown inside a collapsible panel.
type CollapseBlock struct {
	Title    string
	Markdown string
}

// ControlBlock is an actionable control attached to an entry.
type ControlBlock struct {
	Label    string
	Disabled bool
}

func (UserBlock) isBlock()     {}
func (NoticeBlock) isBlock()   {}
func (MarkdownBlock) isBlock() {}
func (TableBlock) isBlock()    {}
func (LinkBlock) isBlock()     {}
func (CollapseBlock) isBlock() {}
func (ControlBlock) isBlock()  {}

// State carries the session facts the renderer needs beyond the entry
// itself: whether a plan is pending and whether a job is outstanding.
type State struct {
	ActivePlanID string
	JobActive    bool
}

// thoughtProcessTitle labels the collapsible trace panel.
const thoughtProcessTitle = "Thought Process"

// Entry transforms one chat entry into its display blocks. Dispatch is
// exhaustive over the entry's kind; metadata-only entries yield nothing.
func Entry(e *models.Entry, state State) []Block {
	switch e.Kind() {
	case models.KindHumanInput:
		return []Block{UserBlock{Text: e.HumanInput}}
	case models.KindRouteNotice:
		return []Block{NoticeBlock{
			Markdown: fmt.Sprintf("Using route **%s** to respond", e.RouteName),
		}}
	case models.KindAIText:
		return renderAIText(e)
	case models.KindAIParts:
		return renderParts(e.Parts)
	case models.KindPlan:
		return renderPlan(e, state)
	case models.KindMetadata:
		return nil
	default:
		return nil
	}
}

func renderAIText(e *models.Entry) []Block {
	blocks := []Block{MarkdownBlock{Markdown: HTMLToMarkdown(e.AIOutput)}}

	if table := buildTable(e.DBResult); table != nil {
		blocks = append(blocks, *table)
	}
	for _, name := range sortedKeys(e.Resources) {
		blocks = append(blocks, LinkBlock{Name: name, URL: e.Resources[name]})
	}
	if e.AgentLogs != "" {
		blocks = append(blocks, CollapseBlock{
			Title:    thoughtProcessTitle,
			Markdown: FormatTraceLogs(e.AgentLogs),
		})
	}
	if e.RouteLogs != "" {
		blocks = append(blocks, CollapseBlock{
			Title:    thoughtProcessTitle,
			Markdown: FormatTraceLogs(e.RouteLogs),
		})
	}
	return blocks
}

func renderParts(parts []models.OutputPart) []Block {
	var blocks []Block
	for i := range parts {
		part := &parts[i]
		switch {
		case part.TextContent != "":
			if part.Type == "Observation" {
				blocks = append(blocks, MarkdownBlock{
					Markdown: fmt.Sprintf("**Observation**\n\n- %s", part.TextContent),
				})
				continue
			}
			blocks = append(blocks, MarkdownBlock{Markdown: part.TextContent})
		case len(part.JSONContent) > 0:
			if b := renderStructuredPart(part); b != nil {
				blocks = append(blocks, b)
			}
		}
	}
	return blocks
}

// renderStructuredPart dispatches a json_content part by its type tag.
// Unknown types render nothing.
func renderStructuredPart(part *models.OutputPart) Block {
	switch part.Type {
	case "Action":
		payload, err := part.ActionPayload()
		if err != nil {
			return nil
		}
		return MarkdownBlock{Markdown: renderAction(payload)}
	case "Observation":
		payload, err := part.ObservationPayload()
		if err != nil || payload.Recipients == nil {
			return nil
		}
		return MarkdownBlock{
			Markdown: fmt.Sprintf("**Observation**\n\n- **Recipients:** %s", flattenValue(payload.Recipients)),
		}
	default:
		return nil
	}
}

func renderAction(payload *models.ActionPayload) string {
	md := "**Action**\n"
	if payload.ActionInput != nil {
		md += "\n- **Action Input**: "
		if obj, ok := payload.ActionInput.(map[string]any); ok {
			for _, key := range sortedKeys(obj) {
				md += fmt.Sprintf("\n  - %s: %s", capitalizeFirst(key), flattenValue(obj[key]))
			}
		} else {
			md += flattenValue(payload.ActionInput)
		}
	}
	if payload.Action != "" {
		md += fmt.Sprintf("\n- **Action:** %s", payload.Action)
	}
	return md
}

func renderPlan(e *models.Entry, state State) []Block {
	return []Block{
		MarkdownBlock{Markdown: FormatPlanMarkdown(e.AIOutput)},
		ControlBlock{
			Label:    "Execute Plan",
			Disabled: state.ActivePlanID != "" && state.JobActive,
		},
	}
}

// Transcript renders every entry of a history in order.
func Transcript(history []models.Entry, state State) []Block {
	var blocks []Block
	for i := range history {
		blocks = append(blocks, Entry(&history[i], state)...)
	}
	return blocks
}
