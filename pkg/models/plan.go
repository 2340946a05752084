package models

import (
	"encoding/json"
	"fmt"
)

// Plan is a server-proposed ordered sequence of steps the user may execute
// as a follow-up action. Fetched by id; consumed exactly once.
type Plan struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Steps       []PlanStep `json:"plan_steps"`
}

// PlanStep is one step of a plan. Description is markup text.
type PlanStep struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// PlanRef is the plan announcement embedded in a chat entry.
type PlanRef struct {
	ID           string `json:"id"`
	TaskResponse string `json:"task_response,omitempty"`
}

// UnmarshalJSON tolerates the two shapes stored history uses for the plan
// field: a single object, or an array of objects (first element wins).
// Ids arrive as strings or numbers.
func (p *PlanRef) UnmarshalJSON(data []byte) error {
	trimmed := skipSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []PlanRef
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode plan list: %w", err)
		}
		if len(list) > 0 {
			*p = list[0]
		}
		return nil
	}
	var aux struct {
		ID           any    `json:"id"`
		TaskResponse string `json:"task_response"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decode plan: %w", err)
	}
	p.TaskResponse = aux.TaskResponse
	switch id := aux.ID.(type) {
	case string:
		p.ID = id
	case float64:
		p.ID = fmt.Sprintf("%.0f", id)
	case nil:
		p.ID = ""
	default:
		p.ID = fmt.Sprintf("%v", id)
	}
	return nil
}

func skipSpace(data []byte) []byte {
	for len(data) > 0 {
		switch data[0] {
		case ' ', '\t', '\n', '\r':
			data = data[1:]
		default:
			return data
		}
	}
	return data
}
