package models

// References flattens every entry's citations in transcript order and
// deduplicates by chunk id. Later occurrences override earlier ones with
// the same key, but the output keeps the first-insertion order of distinct
// keys.
func References(history []Entry) []Reference {
	index := make(map[string]int)
	var out []Reference
	for _, e := range history {
		for _, ref := range e.QueryReferences {
			if i, ok := index[ref.ChunkID]; ok {
				out[i] = ref
				continue
			}
			index[ref.ChunkID] = len(out)
			out = append(out, ref)
		}
	}
	return out
}

// ActivePlan scans the transcript from the end and returns the plan carried
// by the most recent entry, or nil when no entry carries one.
func ActivePlan(history []Entry) *PlanRef {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Plan != nil {
			return history[i].Plan
		}
	}
	return nil
}
