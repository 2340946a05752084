package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smagr173/casey/pkg/render"
	"github.com/smagr173/casey/pkg/session"
)

func TestPad(t *testing.T) {
	assert.Equal(t, "ab   ", pad("ab", 5))
	assert.Equal(t, "abcde", pad("abcde", 5))
	assert.Equal(t, "abcdef", pad("abcdef", 5))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))

	// Cuts fall on rune boundaries, not bytes.
	assert.Equal(t, "héllo wö...", truncate("héllo wörld über", 8))
	assert.Equal(t, "日本語...", truncate("日本語のテキスト", 3))
}

func TestIndexOfModel(t *testing.T) {
	assert.Equal(t, 0, indexOfModel(session.LLMModels[0]))
	assert.Equal(t, len(session.LLMModels)-1, indexOfModel(session.LLMModels[len(session.LLMModels)-1]))
	// Unknown selections start the cycle at the top of the catalog.
	assert.Equal(t, 0, indexOfModel("not-a-model"))
}

func TestRenderTable(t *testing.T) {
	m := model{}
	out := m.renderTable(render.TableBlock{
		Columns: []string{"ID", "Member Name"},
		Rows: [][]string{
			{"1", "Jane doe"},
			{"2", "John roe"},
		},
		Hidden: 3,
	})

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Jane doe")
	assert.Contains(t, out, "and 3 more rows")
	assert.Equal(t, "", m.renderTable(render.TableBlock{}))
}

func TestRenderBlock_Control(t *testing.T) {
	m := model{}

	on := m.renderBlock(render.ControlBlock{Label: "Execute Plan"})
	assert.Contains(t, on, "Execute Plan")
	assert.Contains(t, on, "ctrl+e")

	off := m.renderBlock(render.ControlBlock{Label: "Execute Plan", Disabled: true})
	assert.Contains(t, off, "Execute Plan")
}
