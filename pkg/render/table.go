package render

import (
	"strings"

	"github.com/smagr173/casey/pkg/models"
)

// tableBatchSize is how many result rows are shown before the remainder
// is collapsed behind a "show more" marker.
const tableBatchSize = 5

// camelCaseToTitle converts a camelCase column name to a display heading.
// Words of three characters or fewer are upper-cased wholesale (acronym
// heuristic), longer words are title-cased.
func camelCaseToTitle(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	words := strings.Fields(b.String())
	for i, w := range words {
		if len(w) <= 3 {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// buildTable shapes tabular query results for display: headings derived
// from column names, cell values stringified with their first letter
// capitalized, and rows beyond the batch size counted as hidden.
func buildTable(rows []models.DBRow) *TableBlock {
	if len(rows) == 0 {
		return nil
	}
	cols := sortedKeys(rows[0])

	headings := make([]string, len(cols))
	for i, c := range cols {
		headings[i] = camelCaseToTitle(c)
	}

	shown := len(rows)
	if shown > tableBatchSize {
		shown = tableBatchSize
	}
	out := make([][]string, 0, shown)
	for _, row := range rows[:shown] {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = capitalizeFirst(flattenValue(row[c]))
		}
		out = append(out, cells)
	}

	return &TableBlock{
		Columns: headings,
		Rows:    out,
		Hidden:  len(rows) - shown,
	}
}
