package session

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/smagr173/casey/pkg/models"
)

func TestPoller_TerminalStatusEndsLoop(t *testing.T) {
	gw := newFakeGateway()
	gw.jobStatuses = []models.JobStatus{models.JobStatusActive, models.JobStatusFailed}

	p := newPoller(gw, "tok", "job-1", time.Millisecond, time.Second, slog.Default())
	outcome := p.run(context.Background())

	// A failed job is still a completed poll; the reconciliation decision
	// belongs to the controller.
	assert.Equal(t, OutcomeDone, outcome)
	assert.Equal(t, 2, gw.jobCallCount())
}

func TestPoller_StopBeforeRun(t *testing.T) {
	gw := newFakeGateway()

	p := newPoller(gw, "tok", "job-1", time.Millisecond, time.Second, slog.Default())
	p.Stop()
	p.Stop() // idempotent

	assert.Equal(t, OutcomeCancelled, p.run(context.Background()))
	assert.Zero(t, gw.jobCallCount())
}

func TestPoller_StopDuringWait(t *testing.T) {
	gw := newFakeGateway() // always active

	p := newPoller(gw, "tok", "job-1", time.Hour, time.Hour, slog.Default())
	done := make(chan Outcome, 1)
	go func() { done <- p.run(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	p.Stop()

	select {
	case outcome := <-done:
		assert.Equal(t, OutcomeCancelled, outcome)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	assert.Equal(t, 1, gw.jobCallCount())
}

func TestPoller_ContextCancellation(t *testing.T) {
	gw := newFakeGateway() // always active

	ctx, cancel := context.WithCancel(context.Background())
	p := newPoller(gw, "tok", "job-1", time.Hour, time.Hour, slog.Default())
	done := make(chan Outcome, 1)
	go func() { done <- p.run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case outcome := <-done:
		assert.Equal(t, OutcomeCancelled, outcome)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPoller_DeadlineElapsed(t *testing.T) {
	gw := newFakeGateway() // always active

	p := newPoller(gw, "tok", "job-1", 5*time.Millisecond, 20*time.Millisecond, slog.Default())
	outcome := p.run(context.Background())

	assert.Equal(t, OutcomeTimeout, outcome)
	assert.GreaterOrEqual(t, gw.jobCallCount(), 1)
}
