package main

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/OpenSQZ/gtplanner/pkg/executor"
	"github.com/OpenSQZ/gtplanner/pkg/storage"
	"github.com/OpenSQZ/gtplanner/pkg/streaming"
	"github.com/OpenSQZ/gtplanner/pkg/tools"
)

// batchRequest is the POST /api/tool-calls body.
type batchRequest struct {
	SessionID string                     `json:"session_id,omitempty"`
	ToolCalls []executor.ToolCallRequest `json:"tool_calls"`
}

// batchResponse reports the batch results plus any requests dropped during
// validation. Dropped requests never produce a result entry.
type batchResponse struct {
	SessionID string                 `json:"session_id"`
	Results   []executor.Outcome     `json:"results"`
	Dropped   []executor.ErrorRecord `json:"dropped,omitempty"`
}

// batchHandler executes tool-call batches submitted over HTTP. Callers
// subscribe to /api/events with the same session id to watch progress.
type batchHandler struct {
	pool     *executor.Pool
	registry *tools.Registry
	store    storage.Storage
	streams  *streaming.Manager
	logger   zerolog.Logger
}

func newBatchHandler(pool *executor.Pool, registry *tools.Registry, store storage.Storage, streams *streaming.Manager, logger zerolog.Logger) *batchHandler {
	return &batchHandler{
		pool:     pool,
		registry: registry,
		store:    store,
		streams:  streams,
		logger:   logger.With().Str("component", "batch_api").Logger(),
	}
}

func (h *batchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.ToolCalls) == 0 {
		http.Error(w, "tool_calls must not be empty", http.StatusBadRequest)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	session := h.streams.GetOrCreate(sessionID)

	// A fresh error log per request keeps dropped-call reports scoped to
	// this batch; the pool and its concurrency bound stay shared.
	errorLog := executor.NewErrorLog(h.logger)
	exec := executor.NewToolExecutor(h.pool, h.registry, errorLog, h.store, h.logger)

	h.logger.Info().
		Str("session_id", sessionID).
		Int("tool_calls", len(req.ToolCalls)).
		Msg("executing tool call batch")

	results := exec.ExecuteBatch(r.Context(), req.ToolCalls, session)
	if results == nil {
		results = []executor.Outcome{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(batchResponse{
		SessionID: sessionID,
		Results:   results,
		Dropped:   errorLog.Records(),
	})
}
