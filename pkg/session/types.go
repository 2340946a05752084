// Package session owns chat conversation state: the transcript, the active
// plan and batch job, and the state machine that coordinates gateway calls
// with the background job poller.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/smagr173/casey/pkg/models"
)

// State is the controller's per-turn lifecycle state.
type State string

// Controller states. Every turn returns to StateIdle on success, failure,
// or timeout.
const (
	StateIdle            State = "idle"
	StateAwaitingCreate  State = "awaiting_create"
	StateAwaitingJob     State = "awaiting_job"
	StateAwaitingPlanRun State = "awaiting_plan_run"
)

// Sentinel errors returned by controller operations.
var (
	// ErrBusy rejects a user-initiated transition while a submission or
	// plan execution is outstanding.
	ErrBusy = errors.New("session is busy")
	// ErrNoActivePlan rejects plan execution when no plan is pending.
	ErrNoActivePlan = errors.New("no active plan")
	// ErrPlanNotReady is reported when plan execution stayed empty past
	// the retry cap.
	ErrPlanNotReady = errors.New("plan execution not ready")
)

// Gateway is the subset of the gateway client the controller consumes.
type Gateway interface {
	CreateChat(ctx context.Context, token string, req models.CreateChatRequest) (*models.DispatchResponse, error)
	FetchChat(ctx context.Context, token, chatID string) (*models.Chat, error)
	FetchPlan(ctx context.Context, token, planID string) (*models.Plan, error)
	ExecutePlan(ctx context.Context, token, planID, chatID string) (string, error)
	JobStatus(ctx context.Context, token, jobID string) (models.JobStatus, error)
}

// Greeting opens every fresh conversation.
const Greeting = "You can ask me anything."

// planNotReadyNotice is appended as a visible turn when plan execution
// stays empty past the retry cap.
const planNotReadyNotice = "The plan could not be executed right now. Please try running it again."

// DefaultRoute is the routing target prompts are dispatched to.
const DefaultRoute = "Casey"

// DefaultModel is the language model used when none is selected.
const DefaultModel = "VertexAI-Chat-Palm2-32k-Langchain"

// LLMModels is the catalog of selectable language model variants.
var LLMModels = []string{
	"VertexAI-Gemini-Pro",
	"VertexAI-Chat-Palm2V2-Langchain",
	"VertexAI-Chat-Palm2-V2",
	"VertexAI-Chat-Palm2-32k-Langchain",
	"VertexAI-Chat-Palm2-32k",
	"VertexAI-Chat",
	"OpenAI-GPT4-latest",
	"OpenAI-GPT4",
	"OpenAI-GPT3.5",
	"Cohere",
}

// Default poller tuning (see Options).
const (
	DefaultPollInterval = 1 * time.Second
	DefaultPollDeadline = 180 * time.Second
)

// Default plan-retry tuning: capped exponential backoff while the
// execution trace stays empty.
const (
	DefaultPlanRetryInitial = 500 * time.Millisecond
	DefaultPlanRetryMax     = 8 * time.Second
	DefaultPlanRetryCap     = 8
)

// Options configures a Controller. Zero values fall back to the defaults
// above.
type Options struct {
	// Token is the bearer token passed into every gateway call.
	Token string
	// Route is the routing target for dispatches.
	Route string
	// Model is the initially selected language model.
	Model string
	// PollInterval is the gap between the completion of one job status
	// check and the dispatch of the next.
	PollInterval time.Duration
	// PollDeadline bounds the whole polling loop, measured from the
	// first attempt. Exceeding it is a silent give-up, not an error.
	PollDeadline time.Duration
	// PlanRetryInitial, PlanRetryMax and PlanRetryCap tune the backoff
	// applied while plan execution reports "not yet ready".
	PlanRetryInitial time.Duration
	PlanRetryMax     time.Duration
	PlanRetryCap     uint64
	// OnUpdate, when set, is invoked with a fresh snapshot after every
	// state change. Called without the controller lock held.
	OnUpdate func(Snapshot)
}

// Snapshot is a read-only copy of session state for rendering. The
// controller owns the live state exclusively; observers only ever see
// copies.
type Snapshot struct {
	ChatID        string
	Transcript    []models.Entry
	State         State
	Busy          bool
	ActivePlanID  string
	ActiveJobID   string
	PlanSteps     []models.PlanStep
	SelectedModel string
	Route         string
}

// References returns the deduplicated citation list for the transcript.
func (s *Snapshot) References() []models.Reference {
	return models.References(s.Transcript)
}
