// Package render transforms chat entries into display nodes: pure
// classification plus the markup rewrites the portal applies to stored
// history before showing it.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// htmlRewrites maps legacy simple-HTML tags in stored history to their
// markdown equivalents. Order matters: "<br>" must precede "<b>" so the
// longer literal is not consumed by the shorter one.
var htmlRewrites = []string{
	"<strong>", "**",
	"</strong>", "**",
	"<br>", "\n",
	"<b>", "**",
	"</b>", "**",
	"<em>", "*",
	"</em>", "*",
	"<p>", "\n",
	"</p>", "\n",
	"<li>", "-",
	"</li>", "",
}

var htmlReplacer = strings.NewReplacer(htmlRewrites...)

// HTMLToMarkdown rewrites legacy emphasis, line-break, paragraph and list
// tags to markdown in a single pass. Text without legacy tags passes
// through unchanged, so the rewrite is idempotent.
func HTMLToMarkdown(text string) string {
	return htmlReplacer.Replace(text)
}

// traceRewrite is one literal-to-markup mapping applied to raw agent and
// route trace text.
type traceRewrite struct {
	literal     string
	replacement string
}

// traceRewrites is applied strictly in order. Later rules depend on
// earlier rewrites not having consumed their literals (e.g. "Action:" is
// rewritten before "Action Input:" is examined, and the two do not
// overlap).
var traceRewrites = []traceRewrite{
	{"Task:", "- **Task**:"},
	{"Observation:", "---\n**Observation**:"},
	{"Thought:", "- **Thought**:"},
	{"Action:", "- **Action**:"},
	{"Action Input:", "- **Action Input**:"},
	{"Route:", "- **Route**:"},
	{"> Finished chain", "**Finished chain**"},
}

// FormatTraceLogs rewrites the fixed trace markers of raw agent/route logs
// into list items and headings for markdown rendering.
func FormatTraceLogs(logs string) string {
	out := logs
	for _, r := range traceRewrites {
		out = strings.ReplaceAll(out, r.literal, r.replacement)
	}
	return out
}

// FormatPlanMarkdown bolds the prompt literals of a plan announcement
// line by line. "Thought:" forces a preceding blank line; "Plan:" is
// dropped in favor of a paragraph break.
func FormatPlanMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.ReplaceAll(line, "Task:", "**Task:**")
		line = strings.ReplaceAll(line, "Thought:", "\n\n**Thought:**")
		line = strings.ReplaceAll(line, "Plan:", "\n\n")
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// flattenValue renders an arbitrary decoded JSON value as a readable
// string: scalars literally, arrays comma-joined, objects as JSON.
func flattenValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return formatNumber(val)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = flattenValue(item)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(raw)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sortedKeys returns map keys in a stable order.
func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
