package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smagr173/casey/pkg/models"
)

// newTestClient points a client at the given handler for both the chat
// and jobs endpoints.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{Endpoint: srv.URL, JobsEndpoint: srv.URL})
}

func TestClient_CreateChat(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"data": {"chat": {"id": "chat-1"}, "batch_job": {"id": "job-1"}, "route_name": "Casey"}}`))
	}))

	resp, err := client.CreateChat(context.Background(), "tok", models.CreateChatRequest{
		Prompt:        "hello",
		Route:         "Casey",
		LLMType:       "model-a",
		RunAsBatchJob: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "/agent/dispatch/Casey", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "hello", gotBody["prompt"])
	assert.Equal(t, true, gotBody["run_as_batch_job"])
	// The route travels in the path, never the body.
	assert.NotContains(t, gotBody, "Route")

	assert.Equal(t, "chat-1", resp.ChatID())
	assert.Equal(t, "job-1", resp.JobID())
}

func TestClient_FetchChat(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/chat-1", r.URL.Path)
		w.Write([]byte(`{"data": {"id": "chat-1", "history": [{"HumanInput": "hi"}, {"AIOutput": "hello"}]}}`))
	}))

	chat, err := client.FetchChat(context.Background(), "tok", "chat-1")
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, "chat-1", chat.ID)
	require.Len(t, chat.History, 2)
	assert.Equal(t, "hi", chat.History[0].HumanInput)
}

func TestClient_FetchChat_EmptyID(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	chat, err := client.FetchChat(context.Background(), "tok", "")
	require.NoError(t, err)
	assert.Nil(t, chat)
	assert.Zero(t, calls.Load())
}

func TestClient_FetchChatHistory(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "0", q.Get("skip"))
		assert.Equal(t, "100", q.Get("limit"))
		assert.Equal(t, "false", q.Get("with_all_history"))
		assert.Equal(t, "true", q.Get("with_first_history"))
		w.Write([]byte(`{"data": [{"id": "a"}, {"id": "b"}]}`))
	}))

	chats, err := client.FetchChatHistory(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "a", chats[0].ID)
}

func TestClient_DeleteChat(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"data": null}`))
	}))

	require.NoError(t, client.DeleteChat(context.Background(), "tok", "chat-1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/chat/chat-1", gotPath)
}

func TestClient_FetchPlan_Caches(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"data": {"id": "p-1", "plan_steps": [{"id": "s1", "description": "verify"}]}}`))
	}))

	plan, err := client.FetchPlan(context.Background(), "tok", "p-1")
	require.NoError(t, err)
	require.NotNil(t, plan)
	require.Len(t, plan.Steps, 1)

	// Second fetch is served from the cache.
	_, err = client.FetchPlan(context.Background(), "tok", "p-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_FetchPlan_EmptyID(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	plan, err := client.FetchPlan(context.Background(), "tok", "")
	require.NoError(t, err)
	assert.Nil(t, plan)
	assert.Zero(t, calls.Load())
}

func TestClient_ExecutePlan(t *testing.T) {
	t.Run("current field name", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/agent/plan/p-1/run", r.URL.Path)
			assert.Equal(t, "chat-1", r.URL.Query().Get("chat_id"))
			w.Write([]byte(`{"data": {"agent_process_output": "Task: done"}}`))
		}))

		trace, err := client.ExecutePlan(context.Background(), "tok", "p-1", "chat-1")
		require.NoError(t, err)
		assert.Equal(t, "Task: done", trace)
	})

	t.Run("legacy field name wins when both are set", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {"agent_logs": "legacy", "agent_process_output": "current"}}`))
		}))

		trace, err := client.ExecutePlan(context.Background(), "tok", "p-1", "chat-1")
		require.NoError(t, err)
		assert.Equal(t, "legacy", trace)
	})

	t.Run("empty trace is not an error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {}}`))
		}))

		trace, err := client.ExecutePlan(context.Background(), "tok", "p-1", "chat-1")
		require.NoError(t, err)
		assert.Empty(t, trace)
	})
}

func TestClient_ExecutePlan_InvalidatesCache(t *testing.T) {
	var planFetches atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			planFetches.Add(1)
			w.Write([]byte(`{"data": {"id": "p-1"}}`))
			return
		}
		w.Write([]byte(`{"data": {"agent_process_output": "ran"}}`))
	}))

	_, err := client.FetchPlan(context.Background(), "tok", "p-1")
	require.NoError(t, err)

	_, err = client.ExecutePlan(context.Background(), "tok", "p-1", "chat-1")
	require.NoError(t, err)

	_, err = client.FetchPlan(context.Background(), "tok", "p-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), planFetches.Load())
}

func TestClient_JobStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/agent_run_dispatch/job-1", r.URL.Path)
		w.Write([]byte(`{"data": {"status": "succeeded"}}`))
	}))

	status, err := client.JobStatus(context.Background(), "tok", "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusSucceeded, status)
	assert.True(t, status.Terminal())
}

func TestClient_JobStatus_EmptyToken(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	status, err := client.JobStatus(context.Background(), "", "job-1")
	require.NoError(t, err)
	assert.Empty(t, status)
	assert.False(t, status.Terminal())
	assert.Zero(t, calls.Load())
}

func TestClient_HTTPError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.FetchChat(context.Background(), "tok", "chat-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestClient_NullData(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": null}`))
	}))

	chat, err := client.FetchChat(context.Background(), "tok", "chat-1")
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Empty(t, chat.ID)
}
