package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Outcome is the single report a poller produces when it finishes.
type Outcome string

const (
	// OutcomeDone means the job reached a terminal status.
	OutcomeDone Outcome = "done"
	// OutcomeFailed means a status check errored; the sequence aborts
	// immediately without retrying the check.
	OutcomeFailed Outcome = "failed"
	// OutcomeTimeout means the deadline elapsed with the job still
	// active. A silent give-up, not an error.
	OutcomeTimeout Outcome = "timeout"
	// OutcomeCancelled means the poller was torn down before finishing.
	OutcomeCancelled Outcome = "cancelled"
)

// poller drives a bounded polling loop for one batch job. Each poller is
// its own cancellation token: superseding or tearing it down closes stopCh,
// which prevents any further scheduled check from firing.
type poller struct {
	gw       Gateway
	token    string
	jobID    string
	interval time.Duration
	deadline time.Duration
	logger   *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
}

func newPoller(gw Gateway, token, jobID string, interval, deadline time.Duration, logger *slog.Logger) *poller {
	return &poller{
		gw:       gw,
		token:    token,
		jobID:    jobID,
		interval: interval,
		deadline: deadline,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Stop invalidates the poller. Safe to call multiple times.
func (p *poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

func (p *poller) stopped() bool {
	select {
	case <-p.stopCh:
		return true
	default:
		return false
	}
}

// run polls job status until a terminal status, an error, the deadline,
// or cancellation, and reports exactly once. Checks are strictly
// sequential: the next one is dispatched only after the previous result
// is known, with the interval measured from check completion.
func (p *poller) run(ctx context.Context) Outcome {
	log := p.logger.With("job_id", p.jobID)
	deadline := time.Now().Add(p.deadline)

	for {
		if p.stopped() {
			return OutcomeCancelled
		}
		if time.Now().After(deadline) {
			log.Info("Job poll deadline elapsed, giving up")
			return OutcomeTimeout
		}

		status, err := p.gw.JobStatus(ctx, p.token, p.jobID)
		if err != nil {
			log.Warn("Job status check failed, aborting poll", "error", err)
			return OutcomeFailed
		}
		if status.Terminal() {
			log.Info("Job reached terminal status", "status", string(status))
			return OutcomeDone
		}
		// A non-terminal status (or the empty status an absent token
		// short-circuits to) keeps the loop going until the deadline.
		select {
		case <-p.stopCh:
			return OutcomeCancelled
		case <-ctx.Done():
			return OutcomeCancelled
		case <-time.After(p.interval):
		}
	}
}
