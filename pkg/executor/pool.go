package executor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Outcome is the terminal result of one tool call. Exactly one Outcome is
// produced per validated call, in submission order.
type Outcome struct {
	CallID        string         `json:"call_id"`
	ToolName      string         `json:"tool_name"`
	Arguments     map[string]any `json:"arguments"`
	Result        map[string]any `json:"result"`
	Success       bool           `json:"success"`
	ExecutionTime float64        `json:"execution_time"`
}

// Submission identifies one work item handed to the pool.
type Submission struct {
	CallID    string
	ToolName  string
	Arguments map[string]any
	Timeout   time.Duration
}

// Work is the unit executed under the pool's limits. It must return an
// Outcome rather than fail; the executor converts errors before the pool
// sees them.
type Work func(ctx context.Context) Outcome

// Pool is a bounded-concurrency gate shared by every executor in the
// process. At most capacity work items run at once; each is raced against
// its deadline. Construct one explicitly and pass it by handle - there is no
// package-level instance.
type Pool struct {
	defaultTimeout time.Duration
	sem            *semaphore.Weighted
	logger         zerolog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

func NewPool(capacity int, defaultTimeout time.Duration, logger zerolog.Logger) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{
		defaultTimeout: defaultTimeout,
		sem:            semaphore.NewWeighted(int64(capacity)),
		logger:         logger.With().Str("component", "pool").Logger(),
		active:         make(map[string]struct{}),
	}
}

// Active reports how many identities are currently claimed, including calls
// still waiting for a slot.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// Submit runs work under the pool's limits and returns its outcome. It
// blocks until a slot is free, enforces the submission's deadline, and keeps
// call identities unique among active calls. A timed-out work item is
// abandoned, not preempted: its context is cancelled so cooperative tools
// can stop early, but its goroutine may run to completion detached from the
// caller.
func (p *Pool) Submit(ctx context.Context, sub Submission, work Work) Outcome {
	key := p.claimIdentity(sub.CallID)
	defer p.releaseIdentity(key)

	timeout := sub.Timeout
	if timeout <= 0 {
		timeout = p.defaultTimeout
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return failureOutcome(sub, fmt.Sprintf("execution cancelled before start: %v", err), 0)
	}
	defer p.sem.Release(1)

	workCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- failureOutcome(sub, fmt.Sprintf("tool panicked: %v", r), 0)
			}
		}()
		done <- work(workCtx)
	}()

	select {
	case outcome := <-done:
		return outcome
	case <-workCtx.Done():
		if errors.Is(workCtx.Err(), context.DeadlineExceeded) {
			p.logger.Warn().
				Str("call_id", sub.CallID).
				Str("tool", sub.ToolName).
				Dur("timeout", timeout).
				Msg("work item exceeded deadline, abandoning result")
			return failureOutcome(sub, TimeoutMessage(timeout), timeout.Seconds())
		}
		return failureOutcome(sub, fmt.Sprintf("execution cancelled: %v", context.Cause(workCtx)), 0)
	}
}

// TimeoutMessage names the budget a timed-out call exceeded.
func TimeoutMessage(timeout time.Duration) string {
	seconds := strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64)
	return fmt.Sprintf("tool execution timed out after %ss", seconds)
}

// claimIdentity reserves the call id for the duration of the call. A
// colliding id gets a disambiguating suffix; the caller-visible id in the
// Outcome is never rewritten.
func (p *Pool) claimIdentity(callID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := callID
	if _, busy := p.active[key]; busy {
		key = fmt.Sprintf("%s_%d_%s", callID, time.Now().UnixNano(), uuid.NewString()[:8])
		p.logger.Debug().
			Str("call_id", callID).
			Str("minted", key).
			Msg("duplicate call identity, minted internal alias")
	}
	p.active[key] = struct{}{}
	return key
}

func (p *Pool) releaseIdentity(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, key)
}

func failureOutcome(sub Submission, message string, elapsed float64) Outcome {
	return Outcome{
		CallID:        sub.CallID,
		ToolName:      sub.ToolName,
		Arguments:     sub.Arguments,
		Result:        map[string]any{"success": false, "error": message},
		Success:       false,
		ExecutionTime: elapsed,
	}
}
