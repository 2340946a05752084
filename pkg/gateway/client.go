package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smagr173/casey/pkg/models"
)

// Config holds the gateway client's endpoints and tuning.
type Config struct {
	// Endpoint is the base URL of the chat/agent service.
	Endpoint string
	// JobsEndpoint is the base URL of the batch jobs service.
	JobsEndpoint string
	// Timeout bounds each HTTP request. Zero means 30s.
	Timeout time.Duration
	// PlanCacheTTL bounds how long fetched plans are reused. Zero means 1m.
	PlanCacheTTL time.Duration
}

// Client provides HTTP access to the chat/job gateway. Every call takes
// the bearer token explicitly; the client holds no ambient credentials.
type Client struct {
	endpoint     string
	jobsEndpoint string
	httpClient   *http.Client
	logger       *slog.Logger
	plans        *planCache
}

// NewClient creates a gateway client from config.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cacheTTL := cfg.PlanCacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 1 * time.Minute
	}
	return &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		jobsEndpoint: strings.TrimRight(cfg.JobsEndpoint, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		logger:       slog.Default(),
		plans:        newPlanCache(cacheTTL),
	}
}

// OverrideHTTPClientForTest replaces the internal HTTP client.
// For testing only.
func (c *Client) OverrideHTTPClientForTest(httpClient *http.Client) {
	c.httpClient = httpClient
}

// envelope is the gateway's standard response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// CreateChat dispatches a prompt to a routing target. The response carries
// the chat reference (new or existing) and, when the turn runs as a batch
// job, the job reference to poll.
func (c *Client) CreateChat(ctx context.Context, token string, req models.CreateChatRequest) (*models.DispatchResponse, error) {
	endpoint := fmt.Sprintf("%s/agent/dispatch/%s", c.endpoint, url.PathEscape(req.Route))
	var resp models.DispatchResponse
	if err := c.do(ctx, http.MethodPost, endpoint, token, req, &resp); err != nil {
		return nil, fmt.Errorf("dispatch to route %s: %w", req.Route, err)
	}
	return &resp, nil
}

// FetchChat retrieves a full chat record including its transcript.
// An empty id resolves to (nil, nil) without a network call.
func (c *Client) FetchChat(ctx context.Context, token, chatID string) (*models.Chat, error) {
	if chatID == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/chat/%s", c.endpoint, url.PathEscape(chatID))
	var chat models.Chat
	if err := c.do(ctx, http.MethodGet, endpoint, token, nil, &chat); err != nil {
		return nil, fmt.Errorf("fetch chat %s: %w", chatID, err)
	}
	return &chat, nil
}

// FetchChatHistory lists the user's chats, newest window first. Full
// history bodies are omitted; only each chat's first entry is included so
// list views can derive titles.
func (c *Client) FetchChatHistory(ctx context.Context, token string) ([]models.Chat, error) {
	params := url.Values{}
	params.Set("skip", "0")
	params.Set("limit", "100")
	params.Set("with_all_history", "false")
	params.Set("with_first_history", "true")

	endpoint := fmt.Sprintf("%s/chat?%s", c.endpoint, params.Encode())
	var chats []models.Chat
	if err := c.do(ctx, http.MethodGet, endpoint, token, nil, &chats); err != nil {
		return nil, fmt.Errorf("fetch chat history: %w", err)
	}
	return chats, nil
}

// DeleteChat removes a chat.
func (c *Client) DeleteChat(ctx context.Context, token, chatID string) error {
	endpoint := fmt.Sprintf("%s/chat/%s", c.endpoint, url.PathEscape(chatID))
	if err := c.do(ctx, http.MethodDelete, endpoint, token, nil, nil); err != nil {
		return fmt.Errorf("delete chat %s: %w", chatID, err)
	}
	return nil
}

// FetchPlan retrieves a plan and its ordered steps. An empty id resolves
// to (nil, nil) without a network call. Results are cached briefly so a
// session reload does not refetch an unchanged plan.
func (c *Client) FetchPlan(ctx context.Context, token, planID string) (*models.Plan, error) {
	if planID == "" {
		return nil, nil
	}
	if plan, ok := c.plans.Get(planID); ok {
		return plan, nil
	}

	endpoint := fmt.Sprintf("%s/agent/plan/%s", c.endpoint, url.PathEscape(planID))
	var plan models.Plan
	if err := c.do(ctx, http.MethodGet, endpoint, token, nil, &plan); err != nil {
		return nil, fmt.Errorf("fetch plan %s: %w", planID, err)
	}
	c.plans.Set(planID, &plan)
	return &plan, nil
}

// executePlanResponse tolerates both field names the service has used for
// the execution trace.
type executePlanResponse struct {
	AgentProcessOutput string `json:"agent_process_output"`
	AgentLogs          string `json:"agent_logs"`
}

// ExecutePlan runs a plan against a chat and returns the free-text
// execution trace. An empty trace means the execution is not yet ready.
func (c *Client) ExecutePlan(ctx context.Context, token, planID, chatID string) (string, error) {
	endpoint := fmt.Sprintf("%s/agent/plan/%s/run?chat_id=%s",
		c.endpoint, url.PathEscape(planID), url.QueryEscape(chatID))
	var resp executePlanResponse
	if err := c.do(ctx, http.MethodPost, endpoint, token, struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("execute plan %s: %w", planID, err)
	}
	c.plans.Invalidate(planID)
	if resp.AgentLogs != "" {
		return resp.AgentLogs, nil
	}
	return resp.AgentProcessOutput, nil
}

// JobStatus looks up the status of a batch job. An empty token
// short-circuits to no result rather than issuing an unauthenticated call.
func (c *Client) JobStatus(ctx context.Context, token, jobID string) (models.JobStatus, error) {
	if token == "" {
		return "", nil
	}
	endpoint := fmt.Sprintf("%s/jobs/agent_run_dispatch/%s", c.jobsEndpoint, url.PathEscape(jobID))
	var resp models.JobStatusResponse
	if err := c.do(ctx, http.MethodGet, endpoint, token, nil, &resp); err != nil {
		return "", fmt.Errorf("job status %s: %w", jobID, err)
	}
	return resp.Status, nil
}

// do issues one authenticated JSON request and decodes the enveloped
// response into out (when out is non-nil).
func (c *Client) do(ctx context.Context, method, endpoint, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned HTTP %d for %s %s", resp.StatusCode, method, endpoint)
	}
	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
