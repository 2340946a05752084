package models

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which variant of the entry union applies. Exactly one
// kind applies per entry; classification is first-match-wins in the order
// the constants are declared (after KindMetadata, the fallback).
type Kind int

const (
	// KindMetadata is an entry carrying only auxiliary fields (e.g. plan
	// execution logs). It produces no visible output.
	KindMetadata Kind = iota
	// KindHumanInput is a submitted user prompt.
	KindHumanInput
	// KindRouteNotice names the routing target that handled a turn with
	// no accompanying AI output.
	KindRouteNotice
	// KindAIText is a single textual AI response.
	KindAIText
	// KindAIParts is an ordered sequence of text and structured parts.
	KindAIParts
	// KindPlan announces a proposed multi-step plan awaiting execution.
	KindPlan
)

// Entry is one unit of conversation within a transcript. On the wire it is
// a single object discriminated by which fields are populated; Kind()
// resolves the ambiguity into an explicit variant.
type Entry struct {
	HumanInput string
	// AIOutput holds the textual form of the AI response. Parts holds the
	// structured form; the two are mutually exclusive on the wire
	// (AIOutput is either a string or an array).
	AIOutput        string
	Parts           []OutputPart
	QueryReferences []Reference
	DBResult        []DBRow
	Plan            *PlanRef
	Resources       map[string]string
	AgentLogs       string
	RouteLogs       string
	PlanLogs        string
	RouteName       string
}

// DBRow is one tabular row of a database query result. Column names are
// arbitrary; values are strings or numbers.
type DBRow map[string]any

// Kind classifies the entry. First match wins: entries are not guaranteed
// to satisfy only one predicate, and the order here mirrors how stored
// history is interpreted by the portal.
func (e *Entry) Kind() Kind {
	switch {
	case e.HumanInput != "":
		return KindHumanInput
	case e.RouteName != "" && !e.hasAIOutput():
		return KindRouteNotice
	case e.AIOutput != "" && e.Plan == nil:
		return KindAIText
	case len(e.Parts) > 0:
		return KindAIParts
	case e.Plan != nil:
		return KindPlan
	default:
		return KindMetadata
	}
}

func (e *Entry) hasAIOutput() bool {
	return e.AIOutput != "" || len(e.Parts) > 0
}

// entryWire mirrors the gateway's JSON shape. AIOutput is deferred to a
// raw message because the service emits either a string or an array.
type entryWire struct {
	HumanInput      string            `json:"HumanInput,omitempty"`
	AIOutput        json.RawMessage   `json:"AIOutput,omitempty"`
	QueryReferences []Reference       `json:"query_references,omitempty"`
	DBResult        []DBRow           `json:"db_result,omitempty"`
	Plan            *PlanRef          `json:"plan,omitempty"`
	Resources       map[string]string `json:"resources,omitempty"`
	AgentLogs       string            `json:"agent_logs,omitempty"`
	RouteLogs       string            `json:"route_logs,omitempty"`
	PlanLogs        string            `json:"plan_logs,omitempty"`
	RouteName       string            `json:"route_name,omitempty"`
}

// UnmarshalJSON decodes the polymorphic wire form.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w entryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode chat entry: %w", err)
	}
	*e = Entry{
		HumanInput:      w.HumanInput,
		QueryReferences: w.QueryReferences,
		DBResult:        w.DBResult,
		Plan:            w.Plan,
		Resources:       w.Resources,
		AgentLogs:       w.AgentLogs,
		RouteLogs:       w.RouteLogs,
		PlanLogs:        w.PlanLogs,
		RouteName:       w.RouteName,
	}
	if len(w.AIOutput) == 0 || string(w.AIOutput) == "null" {
		return nil
	}
	var text string
	if err := json.Unmarshal(w.AIOutput, &text); err == nil {
		e.AIOutput = text
		return nil
	}
	var parts []OutputPart
	if err := json.Unmarshal(w.AIOutput, &parts); err != nil {
		return fmt.Errorf("decode AIOutput: %w", err)
	}
	e.Parts = parts
	return nil
}

// MarshalJSON encodes back to the wire form.
func (e Entry) MarshalJSON() ([]byte, error) {
	w := entryWire{
		HumanInput:      e.HumanInput,
		QueryReferences: e.QueryReferences,
		DBResult:        e.DBResult,
		Plan:            e.Plan,
		Resources:       e.Resources,
		AgentLogs:       e.AgentLogs,
		RouteLogs:       e.RouteLogs,
		PlanLogs:        e.PlanLogs,
		RouteName:       e.RouteName,
	}
	switch {
	case len(e.Parts) > 0:
		raw, err := json.Marshal(e.Parts)
		if err != nil {
			return nil, err
		}
		w.AIOutput = raw
	case e.AIOutput != "":
		raw, err := json.Marshal(e.AIOutput)
		if err != nil {
			return nil, err
		}
		w.AIOutput = raw
	}
	return json.Marshal(w)
}

// OutputPart is one element of a structured AI response: either free text
// or a typed record (Action, Observation) carried as raw JSON.
type OutputPart struct {
	TextContent string          `json:"text_content,omitempty"`
	JSONContent json.RawMessage `json:"json_content,omitempty"`
	Type        string          `json:"type,omitempty"`
}

// ActionPayload is the decoded json_content of an Action part.
type ActionPayload struct {
	Action      string `json:"action"`
	ActionInput any    `json:"action_input"`
}

// ObservationPayload is the decoded json_content of an Observation part.
type ObservationPayload struct {
	Recipients any `json:"recipients"`
}

// ActionPayload decodes the part's json_content as an action record.
func (p *OutputPart) ActionPayload() (*ActionPayload, error) {
	var a ActionPayload
	if err := json.Unmarshal(p.JSONContent, &a); err != nil {
		return nil, fmt.Errorf("decode action payload: %w", err)
	}
	return &a, nil
}

// ObservationPayload decodes the part's json_content as an observation record.
func (p *OutputPart) ObservationPayload() (*ObservationPayload, error) {
	var o ObservationPayload
	if err := json.Unmarshal(p.JSONContent, &o); err != nil {
		return nil, fmt.Errorf("decode observation payload: %w", err)
	}
	return &o, nil
}
