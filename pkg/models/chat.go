// Package models contains the wire types exchanged with the chat/job gateway
// and pure transforms over conversation transcripts.
package models

import (
	"sort"
	"time"
)

// Chat is one conversation thread as returned by the gateway.
type Chat struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	AgentName        string  `json:"agent_name"`
	LLMType          string  `json:"llm_type"`
	UserID           string  `json:"user_id"`
	CreatedBy        string  `json:"created_by"`
	CreatedTime      string  `json:"created_time"`
	LastModifiedBy   string  `json:"last_modified_by"`
	LastModifiedTime string  `json:"last_modified_time"`
	History          []Entry `json:"history"`
}

// DisplayTitle returns the chat title, falling back to the first human
// prompt in the history when the gateway left the title empty.
func (c *Chat) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	for _, e := range c.History {
		if e.HumanInput != "" {
			return e.HumanInput
		}
	}
	return c.ID
}

// CreatedAt parses the gateway's created_time. Returns the zero time when
// the field is absent or malformed.
func (c *Chat) CreatedAt() time.Time {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999-07:00",
		"2006-01-02T15:04:05.999999",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, c.CreatedTime); err == nil {
			return t
		}
	}
	return time.Time{}
}

// RecentChats returns up to limit chats ordered newest-first by creation
// time. Timestamps are compared parsed, not as raw strings, because the
// gateway emits mixed layouts. The input slice is not modified.
func RecentChats(chats []Chat, limit int) []Chat {
	out := make([]Chat, len(chats))
	copy(out, chats)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt().After(out[j].CreatedAt())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CreateChatRequest contains fields for dispatching a prompt to a routing
// target. ChatID is empty for a brand-new conversation.
type CreateChatRequest struct {
	Prompt        string `json:"prompt"`
	Route         string `json:"-"`
	ChatID        string `json:"chat_id,omitempty"`
	LLMType       string `json:"llm_type"`
	RunAsBatchJob bool   `json:"run_as_batch_job"`
}

// ObjectRef is a bare identifier reference embedded in dispatch responses.
type ObjectRef struct {
	ID string `json:"id"`
}

// DispatchResponse is the gateway's answer to a create-chat dispatch.
// Chat carries the (possibly newly created) conversation id; BatchJob is
// present when the turn runs as an asynchronous batch job.
type DispatchResponse struct {
	Chat      *ObjectRef `json:"chat,omitempty"`
	BatchJob  *ObjectRef `json:"batch_job,omitempty"`
	RouteName string     `json:"route_name,omitempty"`
}

// ChatID returns the conversation id from the response, or "" when absent.
func (r *DispatchResponse) ChatID() string {
	if r == nil || r.Chat == nil {
		return ""
	}
	return r.Chat.ID
}

// JobID returns the batch job id from the response, or "" when absent.
func (r *DispatchResponse) JobID() string {
	if r == nil || r.BatchJob == nil {
		return ""
	}
	return r.BatchJob.ID
}
