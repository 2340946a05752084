// Package gatewaystub is an in-memory implementation of the chat/job
// gateway contract, used for local development and integration tests.
// Dispatched prompts run as simulated batch jobs that complete after a
// configurable delay; plan execution reports "not ready" once before
// returning a trace, mirroring the remote service's batch behavior.
package gatewaystub

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smagr173/casey/pkg/models"
)

// Responder produces the AI turn appended when a dispatched job
// completes. The default responder echoes the prompt with a citation and
// proposes a plan when the prompt mentions one.
type Responder func(prompt string) (models.Entry, *models.Plan)

// Options configures the stub.
type Options struct {
	// Token, when set, is required as the bearer token on every call.
	Token string
	// JobDelay is how long dispatched jobs stay active. Zero means 2s.
	JobDelay time.Duration
	// Respond overrides the default responder.
	Respond Responder
}

type jobState struct {
	chatID    string
	prompt    string
	startedAt time.Time
	done      bool
}

// Server holds the stub's in-memory state.
type Server struct {
	token    string
	jobDelay time.Duration
	respond  Responder
	logger   *slog.Logger

	mu        sync.Mutex
	chats     map[string]*models.Chat
	chatOrder []string
	plans     map[string]*models.Plan
	planRuns  map[string]int
	jobs      map[string]*jobState
}

// NewServer creates a stub gateway.
func NewServer(opts Options) *Server {
	s := &Server{
		token:    opts.Token,
		jobDelay: opts.JobDelay,
		respond:  opts.Respond,
		logger:   slog.With("component", "gatewaystub"),
		chats:    make(map[string]*models.Chat),
		plans:    make(map[string]*models.Plan),
		planRuns: make(map[string]int),
		jobs:     make(map[string]*jobState),
	}
	if s.jobDelay <= 0 {
		s.jobDelay = 2 * time.Second
	}
	if s.respond == nil {
		s.respond = defaultResponder
	}
	return s
}

// Router builds the gin engine exposing the gateway contract.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.authMiddleware())

	r.POST("/agent/dispatch/:route", s.dispatch)
	r.GET("/chat", s.listChats)
	r.GET("/chat/:id", s.getChat)
	r.DELETE("/chat/:id", s.deleteChat)
	r.GET("/agent/plan/:id", s.getPlan)
	r.POST("/agent/plan/:id/run", s.runPlan)
	r.GET("/jobs/agent_run_dispatch/:id", s.jobStatus)
	return r
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if header != "Bearer "+s.token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
			return
		}
		c.Next()
	}
}

func envelope(data any) gin.H {
	return gin.H{"data": data}
}

type dispatchRequest struct {
	Prompt        string `json:"prompt" binding:"required"`
	ChatID        string `json:"chat_id"`
	LLMType       string `json:"llm_type"`
	RunAsBatchJob bool   `json:"run_as_batch_job"`
}

func (s *Server) dispatch(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	route := c.Param("route")

	s.mu.Lock()
	chat, ok := s.chats[req.ChatID]
	if !ok {
		chat = &models.Chat{
			ID:          uuid.New().String(),
			Title:       req.Prompt,
			LLMType:     req.LLMType,
			AgentName:   route,
			CreatedTime: time.Now().UTC().Format(time.RFC3339Nano),
		}
		s.chats[chat.ID] = chat
		s.chatOrder = append(s.chatOrder, chat.ID)
	}
	chat.History = append(chat.History, models.Entry{HumanInput: req.Prompt})
	chat.LastModifiedTime = time.Now().UTC().Format(time.RFC3339Nano)

	resp := models.DispatchResponse{
		Chat:      &models.ObjectRef{ID: chat.ID},
		RouteName: route,
	}
	if req.RunAsBatchJob {
		jobID := uuid.New().String()
		s.jobs[jobID] = &jobState{
			chatID:    chat.ID,
			prompt:    req.Prompt,
			startedAt: time.Now(),
		}
		resp.BatchJob = &models.ObjectRef{ID: jobID}
	} else {
		s.completeTurnLocked(chat, req.Prompt)
	}
	s.mu.Unlock()

	s.logger.Info("Dispatched prompt", "route", route, "chat_id", chat.ID)
	c.JSON(http.StatusOK, envelope(resp))
}

// completeTurnLocked appends the AI reply for a finished turn and
// registers any proposed plan. Caller holds s.mu.
func (s *Server) completeTurnLocked(chat *models.Chat, prompt string) {
	entry, plan := s.respond(prompt)
	if plan != nil {
		if plan.ID == "" {
			plan.ID = uuid.New().String()
		}
		s.plans[plan.ID] = plan
		entry.Plan = &models.PlanRef{ID: plan.ID}
	}
	chat.History = append(chat.History, entry)
	chat.LastModifiedTime = time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *Server) listChats(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	firstOnly := c.DefaultQuery("with_first_history", "false") == "true"
	allHistory := c.DefaultQuery("with_all_history", "false") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Chat, 0, len(s.chatOrder))
	for i, id := range s.chatOrder {
		if i < skip {
			continue
		}
		if len(out) >= limit {
			break
		}
		chat := *s.chats[id]
		switch {
		case allHistory:
			// Full history included.
		case firstOnly && len(chat.History) > 0:
			chat.History = chat.History[:1]
		default:
			chat.History = nil
		}
		out = append(out, chat)
	}
	c.JSON(http.StatusOK, envelope(out))
}

func (s *Server) getChat(c *gin.Context) {
	s.mu.Lock()
	chat, ok := s.chats[c.Param("id")]
	if !ok {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	snapshot := *chat
	s.mu.Unlock()
	c.JSON(http.StatusOK, envelope(snapshot))
}

func (s *Server) deleteChat(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	delete(s.chats, id)
	for i, oid := range s.chatOrder {
		if oid == id {
			s.chatOrder = append(s.chatOrder[:i], s.chatOrder[i+1:]...)
			break
		}
	}
	c.JSON(http.StatusOK, envelope(nil))
}

func (s *Server) getPlan(c *gin.Context) {
	s.mu.Lock()
	plan, ok := s.plans[c.Param("id")]
	if !ok {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}
	snapshot := *plan
	s.mu.Unlock()
	c.JSON(http.StatusOK, envelope(snapshot))
}

// runPlan reports an empty trace on the first attempt and a full trace
// afterwards, so clients exercise their not-ready retry path.
func (s *Server) runPlan(c *gin.Context) {
	id := c.Param("id")
	chatID := c.Query("chat_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}
	s.planRuns[id]++
	if s.planRuns[id] == 1 {
		c.JSON(http.StatusOK, envelope(gin.H{"agent_process_output": ""}))
		return
	}

	var b strings.Builder
	b.WriteString("Task: execute plan\n")
	for _, step := range plan.Steps {
		fmt.Fprintf(&b, "Thought: %s\nAction: run step %s\nObservation: step completed\n", step.Description, step.ID)
	}
	b.WriteString("> Finished chain\n")
	trace := b.String()

	if chat, ok := s.chats[chatID]; ok {
		chat.History = append(chat.History, models.Entry{PlanLogs: trace})
	}
	delete(s.plans, id)
	c.JSON(http.StatusOK, envelope(gin.H{"agent_process_output": trace}))
}

// jobStatus reports active until the job delay elapses, then flips the
// job to succeeded and appends the AI turn to its chat.
func (s *Server) jobStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	status := models.JobStatusActive
	if time.Since(job.startedAt) >= s.jobDelay {
		status = models.JobStatusSucceeded
		if !job.done {
			job.done = true
			if chat, ok := s.chats[job.chatID]; ok {
				s.completeTurnLocked(chat, job.prompt)
			}
		}
	}
	c.JSON(http.StatusOK, envelope(models.JobStatusResponse{Status: status}))
}

// defaultResponder answers with a short acknowledgement, one citation and
// a demo table; prompts mentioning a plan get a three-step plan proposal.
func defaultResponder(prompt string) (models.Entry, *models.Plan) {
	if strings.Contains(strings.ToLower(prompt), "plan") {
		plan := &models.Plan{
			Name:        "Assistance plan",
			Description: "Steps to resolve the request",
			Steps: []models.PlanStep{
				{ID: "1", Description: "Review the submitted case details"},
				{ID: "2", Description: "Check eligibility requirements"},
				{ID: "3", Description: "Draft the response for the applicant"},
			},
		}
		entry := models.Entry{
			AIOutput: "Task: I prepared a plan for your request.\nPlan:\n1. Review case\n2. Check eligibility\n3. Draft response",
		}
		return entry, plan
	}

	entry := models.Entry{
		AIOutput: fmt.Sprintf("Here is what I found about <b>%s</b>.<br>Let me know if you need more detail.", prompt),
		QueryReferences: []models.Reference{
			{
				ChunkID:      "stub-chunk-1",
				DocumentURL:  "/b/assist-docs/o/eligibility.html",
				DocumentText: "Eligibility overview for assistance programs.",
			},
		},
		AgentLogs: "Task: look up the request\nThought: search the knowledge base\nObservation: found a match\n> Finished chain",
	}
	return entry, nil
}
