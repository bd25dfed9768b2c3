package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog"

	"github.com/OpenSQZ/gtplanner/pkg/models"
	"github.com/OpenSQZ/gtplanner/pkg/storage"
	"github.com/OpenSQZ/gtplanner/pkg/streaming"
	"github.com/OpenSQZ/gtplanner/pkg/tools"
)

// ToolCallRequest is one model-issued function call, in the OpenAI wire
// shape. Arguments is a JSON string that must be parsed before use.
type ToolCallRequest struct {
	ID       string       `json:"id"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// validatedCall is a request that survived parsing and schema checks,
// annotated with its scheduling hints. Immutable once built.
type validatedCall struct {
	callID   string
	toolName string
	tool     tools.Tool
	args     map[string]any
	priority int
	timeout  time.Duration
}

// ToolExecutor orchestrates one batch of tool calls: validate, prioritize,
// execute through the shared pool, and report every transition into the
// streaming session. Construct with the pool handle; several executors may
// share one pool and its concurrency bound.
type ToolExecutor struct {
	pool     *Pool
	registry *tools.Registry
	errors   *ErrorLog
	store    storage.Storage
	logger   zerolog.Logger
}

func NewToolExecutor(pool *Pool, registry *tools.Registry, errorLog *ErrorLog, store storage.Storage, logger zerolog.Logger) *ToolExecutor {
	return &ToolExecutor{
		pool:     pool,
		registry: registry,
		errors:   errorLog,
		store:    store,
		logger:   logger.With().Str("component", "executor").Logger(),
	}
}

// ExecuteBatch runs every valid request concurrently and returns outcomes in
// priority-sorted submission order, regardless of completion order. Requests
// that fail parsing or schema validation are dropped from the result and
// recorded in the error log; they emit no events. A tool failure never
// aborts the batch.
func (e *ToolExecutor) ExecuteBatch(ctx context.Context, requests []ToolCallRequest, session *streaming.Session) []Outcome {
	if len(requests) == 0 {
		return nil
	}

	calls := e.validateRequests(requests)

	// Stable sort keeps the original relative order of equal priorities.
	sort.SliceStable(calls, func(i, j int) bool {
		return calls[i].priority < calls[j].priority
	})

	// Results are reassembled by index, not completion order.
	results := make([]Outcome, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call validatedCall) {
			defer wg.Done()
			results[i] = e.executeCall(ctx, call, session)
		}(i, call)
	}
	wg.Wait()

	if e.store != nil {
		for i := range results {
			e.persistOutcome(session.ID(), calls[i].priority, results[i])
		}
	}

	return results
}

// validateRequests parses and schema-checks each request. Failures are
// recorded out of band and the request is dropped; the batch continues.
func (e *ToolExecutor) validateRequests(requests []ToolCallRequest) []validatedCall {
	calls := make([]validatedCall, 0, len(requests))
	for _, req := range requests {
		name := req.Function.Name

		args, err := parseArguments(req.Function.Arguments)
		if err != nil {
			e.errors.Record(SourceParse, name,
				fmt.Sprintf("failed to parse arguments: %v, raw: %s", err, req.Function.Arguments))
			continue
		}

		tool, ok := e.registry.Resolve(name)
		if !ok {
			e.errors.Record(SourceSchema, name, fmt.Sprintf("unknown tool: %s", name))
			continue
		}

		if err := tool.ValidateArgs(args); err != nil {
			e.errors.Record(SourceSchema, name, err.Error())
			continue
		}

		calls = append(calls, validatedCall{
			callID:   req.ID,
			toolName: name,
			tool:     tool,
			args:     args,
			priority: tool.Priority(),
			timeout:  tool.Timeout(),
		})
	}
	return calls
}

// parseArguments decodes the raw argument string, attempting a repair pass
// on malformed JSON before giving up. Models occasionally emit truncated or
// single-quoted payloads that jsonrepair can recover.
func parseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args, nil
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &args); err != nil {
		return nil, fmt.Errorf("invalid JSON after repair: %w", err)
	}
	return args, nil
}

// executeCall runs one validated call through the pool and emits its
// terminal event. The work item emits starting and running itself, so a
// call's own events are strictly ordered even though events from different
// calls interleave freely.
func (e *ToolExecutor) executeCall(ctx context.Context, call validatedCall, session *streaming.Session) Outcome {
	sub := Submission{
		CallID:    call.callID,
		ToolName:  call.toolName,
		Arguments: call.args,
		Timeout:   call.timeout,
	}

	outcome := e.pool.Submit(ctx, sub, func(workCtx context.Context) Outcome {
		return e.runCall(workCtx, call, session)
	})

	e.emitTerminal(session, call, outcome)
	return outcome
}

// runCall is the work item proper: announce the call, invoke the tool, and
// convert any failure into a failed outcome so nothing escapes to the pool.
func (e *ToolExecutor) runCall(ctx context.Context, call validatedCall, session *streaming.Session) Outcome {
	session.Emit(streaming.NewToolCallStart(session.ID(), streaming.ToolCallStatus{
		ToolName:        call.toolName,
		Status:          streaming.StatusStarting,
		CallID:          call.callID,
		ProgressMessage: fmt.Sprintf("Invoking %s tool...", call.toolName),
		Arguments:       call.args,
	}))

	session.Emit(streaming.NewToolCallProgress(session.ID(), streaming.ToolCallStatus{
		ToolName:        call.toolName,
		Status:          streaming.StatusRunning,
		CallID:          call.callID,
		ProgressMessage: fmt.Sprintf("Executing %s tool...", call.toolName),
	}))

	start := time.Now()
	result, err := e.invoke(ctx, call)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		e.errors.Record(SourceInvoke, call.toolName,
			fmt.Sprintf("tool invocation failed: %v", err))
		return Outcome{
			CallID:        call.callID,
			ToolName:      call.toolName,
			Arguments:     call.args,
			Result:        map[string]any{"success": false, "error": err.Error()},
			Success:       false,
			ExecutionTime: elapsed,
		}
	}

	return Outcome{
		CallID:        call.callID,
		ToolName:      call.toolName,
		Arguments:     call.args,
		Result:        result,
		Success:       true,
		ExecutionTime: elapsed,
	}
}

// invoke shields the pipeline from panicking tool implementations.
func (e *ToolExecutor) invoke(ctx context.Context, call validatedCall) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return call.tool.Invoke(ctx, call.args)
}

// emitTerminal reports the single terminal event for a call, covering
// normal completion, tool failure and pool-synthesized timeouts alike.
func (e *ToolExecutor) emitTerminal(session *streaming.Session, call validatedCall, outcome Outcome) {
	status := streaming.ToolCallStatus{
		ToolName:      call.toolName,
		CallID:        call.callID,
		Result:        outcome.Result,
		ExecutionTime: outcome.ExecutionTime,
	}
	if outcome.Success {
		status.Status = streaming.StatusCompleted
		status.ProgressMessage = fmt.Sprintf("%s tool completed", call.toolName)
	} else {
		status.Status = streaming.StatusFailed
		status.ProgressMessage = fmt.Sprintf("%s tool failed", call.toolName)
		if msg, ok := outcome.Result["error"].(string); ok {
			status.ErrorMessage = msg
		}
	}
	session.Emit(streaming.NewToolCallEnd(session.ID(), status))
}

// persistOutcome writes an execution record without blocking the caller.
// Background context intentionally - the record should land even if the
// request is already done.
func (e *ToolExecutor) persistOutcome(sessionID string, priority int, outcome Outcome) {
	inputJSON, _ := json.Marshal(outcome.Arguments)
	rec := &models.ToolExecution{
		SessionID:  sessionID,
		CallID:     outcome.CallID,
		ToolName:   outcome.ToolName,
		Priority:   priority,
		InputJSON:  string(inputJSON),
		DurationMs: int64(outcome.ExecutionTime * 1000),
		Success:    outcome.Success,
	}
	if outcome.Success {
		outputJSON, _ := json.Marshal(outcome.Result)
		rec.OutputJSON = string(outputJSON)
	} else if msg, ok := outcome.Result["error"].(string); ok {
		rec.ErrorMessage = msg
	}

	go func() { //nolint:contextcheck
		if err := e.store.CreateToolExecution(context.Background(), rec); err != nil {
			e.logger.Error().Err(err).Str("call_id", rec.CallID).Msg("failed to persist execution record")
		}
	}()
}
