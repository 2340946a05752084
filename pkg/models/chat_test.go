package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_DisplayTitle(t *testing.T) {
	t.Run("explicit title", func(t *testing.T) {
		c := Chat{ID: "c1", Title: "Coverage question"}
		assert.Equal(t, "Coverage question", c.DisplayTitle())
	})

	t.Run("falls back to first human prompt", func(t *testing.T) {
		c := Chat{ID: "c1", History: []Entry{
			{AIOutput: "You can ask me anything."},
			{HumanInput: "What does my plan cover?"},
			{HumanInput: "second question"},
		}}
		assert.Equal(t, "What does my plan cover?", c.DisplayTitle())
	})

	t.Run("falls back to id when history has no prompts", func(t *testing.T) {
		c := Chat{ID: "c1", History: []Entry{{AIOutput: "greeting"}}}
		assert.Equal(t, "c1", c.DisplayTitle())
	})
}

func TestChat_CreatedAt(t *testing.T) {
	c := Chat{CreatedTime: "2026-03-01T10:30:00Z"}
	got := c.CreatedAt()
	require.False(t, got.IsZero())
	assert.Equal(t, 2026, got.Year())

	c = Chat{CreatedTime: "2026-03-01 10:30:00.123456-05:00"}
	assert.False(t, c.CreatedAt().IsZero())

	c = Chat{CreatedTime: "not a timestamp"}
	assert.True(t, c.CreatedAt().IsZero())

	c = Chat{}
	assert.True(t, c.CreatedAt().IsZero())
}

func TestRecentChats(t *testing.T) {
	chats := []Chat{
		{ID: "a", CreatedTime: "2026-01-01T00:00:00Z"},
		{ID: "b", CreatedTime: "2026-03-01T00:00:00Z"},
		{ID: "c", CreatedTime: "2026-02-01T00:00:00Z"},
	}

	recent := RecentChats(chats, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ID)
	assert.Equal(t, "c", recent[1].ID)

	// Input order untouched.
	assert.Equal(t, "a", chats[0].ID)

	// Zero limit means everything.
	assert.Len(t, RecentChats(chats, 0), 3)
}

func TestRecentChats_MixedTimestampLayouts(t *testing.T) {
	// Raw string comparison would order the RFC 3339 layout before the
	// space-separated one regardless of the actual instants ('T' > ' ').
	chats := []Chat{
		{ID: "newer", CreatedTime: "2026-03-01 23:00:00.000000-00:00"},
		{ID: "older", CreatedTime: "2026-03-01T10:00:00Z"},
		{ID: "oldest", CreatedTime: "2026-02-28T23:00:00Z"},
	}

	recent := RecentChats(chats, 0)
	require.Len(t, recent, 3)
	assert.Equal(t, "newer", recent[0].ID)
	assert.Equal(t, "older", recent[1].ID)
	assert.Equal(t, "oldest", recent[2].ID)
}

func TestDispatchResponse_IDs(t *testing.T) {
	var nilResp *DispatchResponse
	assert.Empty(t, nilResp.ChatID())
	assert.Empty(t, nilResp.JobID())

	resp := &DispatchResponse{Chat: &ObjectRef{ID: "chat-1"}}
	assert.Equal(t, "chat-1", resp.ChatID())
	assert.Empty(t, resp.JobID())

	resp.BatchJob = &ObjectRef{ID: "job-1"}
	assert.Equal(t, "job-1", resp.JobID())
}
