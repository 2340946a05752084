package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/smagr173/casey/pkg/models"
)

// Controller owns one conversation's state and coordinates the gateway,
// the job poller and observers. All mutation happens here; the poller and
// renderers only receive snapshots or report outcomes back via callback.
type Controller struct {
	gw     Gateway
	logger *slog.Logger

	token            string
	route            string
	pollInterval     time.Duration
	pollDeadline     time.Duration
	planRetryInitial time.Duration
	planRetryMax     time.Duration
	planRetryCap     uint64
	onUpdate         func(Snapshot)

	mu            sync.Mutex
	chatID        string
	transcript    []models.Entry
	state         State
	busy          bool
	activePlanID  string
	activeJobID   string
	planSteps     []models.PlanStep
	selectedModel string
	poll          *poller
}

// NewController creates a controller for a fresh conversation, seeded
// with the greeting entry.
func NewController(gw Gateway, opts Options) *Controller {
	c := &Controller{
		gw:               gw,
		logger:           slog.With("component", "session"),
		token:            opts.Token,
		route:            opts.Route,
		pollInterval:     opts.PollInterval,
		pollDeadline:     opts.PollDeadline,
		planRetryInitial: opts.PlanRetryInitial,
		planRetryMax:     opts.PlanRetryMax,
		planRetryCap:     opts.PlanRetryCap,
		onUpdate:         opts.OnUpdate,
		state:            StateIdle,
		selectedModel:    opts.Model,
		transcript:       []models.Entry{{AIOutput: Greeting}},
	}
	if c.route == "" {
		c.route = DefaultRoute
	}
	if c.selectedModel == "" {
		c.selectedModel = DefaultModel
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.pollDeadline <= 0 {
		c.pollDeadline = DefaultPollDeadline
	}
	if c.planRetryInitial <= 0 {
		c.planRetryInitial = DefaultPlanRetryInitial
	}
	if c.planRetryMax <= 0 {
		c.planRetryMax = DefaultPlanRetryMax
	}
	if c.planRetryCap == 0 {
		c.planRetryCap = DefaultPlanRetryCap
	}
	return c
}

// Snapshot returns a read-only copy of the session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	transcript := make([]models.Entry, len(c.transcript))
	copy(transcript, c.transcript)
	steps := make([]models.PlanStep, len(c.planSteps))
	copy(steps, c.planSteps)
	return Snapshot{
		ChatID:        c.chatID,
		Transcript:    transcript,
		State:         c.state,
		Busy:          c.busy,
		ActivePlanID:  c.activePlanID,
		ActiveJobID:   c.activeJobID,
		PlanSteps:     steps,
		SelectedModel: c.selectedModel,
		Route:         c.route,
	}
}

// notify delivers a snapshot to the observer, outside the lock.
func (c *Controller) notify() {
	if c.onUpdate == nil {
		return
	}
	c.onUpdate(c.Snapshot())
}

// SelectModel sets the language model for the next submission. In-flight
// operations keep the model they were dispatched with.
func (c *Controller) SelectModel(model string) {
	c.mu.Lock()
	c.selectedModel = model
	c.mu.Unlock()
	c.notify()
}

// Submit dispatches a user prompt. The prompt is appended to the
// transcript immediately and never rolled back; a gateway failure only
// clears the busy state, leaving the user's message visible with no
// reply. When the response carries a batch job reference, the poller is
// started and the session stays busy until the job finishes.
func (c *Controller) Submit(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.state = StateAwaitingCreate
	c.activePlanID = ""
	c.planSteps = nil
	c.transcript = append(c.transcript, models.Entry{HumanInput: text})
	// Capture the call parameters now: a concurrent SelectModel must not
	// alter this dispatch.
	req := models.CreateChatRequest{
		Prompt:        text,
		Route:         c.route,
		ChatID:        c.chatID,
		LLMType:       c.selectedModel,
		RunAsBatchJob: true,
	}
	token := c.token
	c.mu.Unlock()
	c.notify()

	resp, err := c.gw.CreateChat(ctx, token, req)
	if err != nil {
		c.logger.Error("Send failed", "error", err)
		c.mu.Lock()
		c.busy = false
		c.state = StateIdle
		c.mu.Unlock()
		c.notify()
		return fmt.Errorf("submit: %w", err)
	}

	c.mu.Lock()
	if id := resp.ChatID(); id != "" {
		// A session may be created lazily on first submission; adopt the
		// returned identifier for all subsequent calls.
		c.chatID = id
	}
	// Without a token every status check would short-circuit to no result;
	// clear the pending indicator immediately instead of spinning until the
	// deadline.
	if jobID := resp.JobID(); jobID != "" && c.token != "" {
		c.activeJobID = jobID
		c.state = StateAwaitingJob
		c.startPollLocked(jobID)
	} else {
		c.busy = false
		c.state = StateIdle
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// startPollLocked supersedes any previous poller and starts a new one for
// jobID. Caller holds c.mu.
func (c *Controller) startPollLocked(jobID string) {
	if c.poll != nil {
		c.poll.Stop()
	}
	p := newPoller(c.gw, c.token, jobID, c.pollInterval, c.pollDeadline, c.logger)
	c.poll = p
	startChatID := c.chatID
	go func() {
		outcome := p.run(context.Background())
		c.finishPoll(p, startChatID, outcome)
	}()
}

// finishPoll applies a poll outcome. Busy and job state clear regardless
// of outcome, but the reconciliation refetch runs only when the session
// still points at the chat that was current when polling began: a stale
// completion must not mutate state for a different conversation.
func (c *Controller) finishPoll(p *poller, startChatID string, outcome Outcome) {
	c.mu.Lock()
	if c.poll != p {
		// Superseded; the newer poller owns the session state now.
		c.mu.Unlock()
		return
	}
	c.poll = nil
	c.activeJobID = ""
	c.busy = false
	c.state = StateIdle
	currentChatID := c.chatID
	token := c.token
	c.mu.Unlock()

	if outcome == OutcomeDone && currentChatID == startChatID {
		if err := c.reload(context.Background(), token, currentChatID); err != nil {
			c.logger.Warn("Reconciliation refetch failed", "chat_id", currentChatID, "error", err)
		}
	}
	c.notify()
}

// reload refetches the authoritative transcript and re-derives plan state
// from it. The fetched history is adopted only if the session still
// points at the same chat.
func (c *Controller) reload(ctx context.Context, token, chatID string) error {
	chat, err := c.gw.FetchChat(ctx, token, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		return nil
	}

	planRef := models.ActivePlan(chat.History)
	var steps []models.PlanStep
	if planRef != nil && planRef.ID != "" {
		plan, err := c.gw.FetchPlan(ctx, token, planRef.ID)
		if err != nil {
			c.logger.Warn("Plan fetch failed", "plan_id", planRef.ID, "error", err)
		} else if plan != nil {
			steps = plan.Steps
		}
	}

	c.mu.Lock()
	if c.chatID != chatID {
		c.mu.Unlock()
		return nil
	}
	if len(chat.History) > 0 {
		c.transcript = chat.History
	} else {
		c.transcript = []models.Entry{{AIOutput: Greeting}}
	}
	if planRef != nil && planRef.ID != "" {
		c.activePlanID = planRef.ID
		c.planSteps = steps
	} else {
		c.activePlanID = ""
		c.planSteps = nil
	}
	c.mu.Unlock()
	return nil
}

// Load replaces the session with an existing conversation. Any in-flight
// poll for the previous conversation is invalidated before the switch.
func (c *Controller) Load(ctx context.Context, chatID string) error {
	c.mu.Lock()
	if c.poll != nil {
		c.poll.Stop()
		c.poll = nil
	}
	c.activeJobID = ""
	c.busy = false
	c.state = StateIdle
	c.chatID = chatID
	token := c.token
	c.mu.Unlock()

	if err := c.reload(ctx, token, chatID); err != nil {
		c.notify()
		return fmt.Errorf("load chat %s: %w", chatID, err)
	}
	c.notify()
	return nil
}

// RunPlan executes the pending plan. An empty execution trace means the
// plan is not yet ready; it is retried with capped exponential backoff
// and surfaced as a failed turn once the cap is reached. A gateway error
// returns the session to idle but keeps the plan id so the user can retry.
func (c *Controller) RunPlan(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.activePlanID == "" {
		c.mu.Unlock()
		return ErrNoActivePlan
	}
	c.busy = true
	c.state = StateAwaitingPlanRun
	planID := c.activePlanID
	chatID := c.chatID
	token := c.token
	c.mu.Unlock()
	c.notify()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(c.newPlanBackoff(), c.planRetryCap),
		ctx,
	)
	var trace string
	err := backoff.Retry(func() error {
		out, execErr := c.gw.ExecutePlan(ctx, token, planID, chatID)
		if execErr != nil {
			return backoff.Permanent(execErr)
		}
		if out == "" {
			return ErrPlanNotReady
		}
		trace = out
		return nil
	}, policy)

	c.mu.Lock()
	c.busy = false
	c.state = StateIdle
	if err != nil {
		if errors.Is(err, ErrPlanNotReady) {
			// Retry cap reached with the trace still empty: surface the
			// stalled execution instead of looping forever. The plan id
			// stays set so the user can try again.
			c.transcript = append(c.transcript, models.Entry{AIOutput: planNotReadyNotice})
		}
		c.mu.Unlock()
		c.notify()
		c.logger.Error("Plan execution failed", "plan_id", planID, "error", err)
		return fmt.Errorf("run plan %s: %w", planID, err)
	}
	c.transcript = append(c.transcript, models.Entry{PlanLogs: trace})
	c.activePlanID = ""
	c.planSteps = nil
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *Controller) newPlanBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.planRetryInitial
	b.MaxInterval = c.planRetryMax
	b.MaxElapsedTime = 0
	return b
}

// Close tears down the session: any scheduled poll check is prevented
// from firing and the pending-job indicator clears.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.poll != nil {
		c.poll.Stop()
		c.poll = nil
	}
	c.activeJobID = ""
	c.busy = false
	c.state = StateIdle
	c.mu.Unlock()
}
