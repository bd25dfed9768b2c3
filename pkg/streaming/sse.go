package streaming

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/OpenSQZ/gtplanner/pkg/types"
)

// channelHandler bridges a session to one connected SSE client. Events are
// forwarded over a buffered channel; a slow client drops events instead of
// stalling the executor.
type channelHandler struct {
	ch chan *Event
}

func newChannelHandler() *channelHandler {
	return &channelHandler{ch: make(chan *Event, types.EventBufferSize)}
}

func (h *channelHandler) HandleEvent(event *Event) error {
	select {
	case h.ch <- event:
		return nil
	default:
		return fmt.Errorf("client buffer full, dropping %s event", event.EventType)
	}
}

func (h *channelHandler) HandleError(_ error, _ string) {}

func (h *channelHandler) Close() error {
	return nil
}

// StreamHandler serves the SSE endpoint. Each connection attaches a channel
// handler to the requested session and relays frames until the client
// disconnects.
type StreamHandler struct {
	manager   *Manager
	logger    zerolog.Logger
	heartbeat time.Duration
}

func NewStreamHandler(manager *Manager, logger zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		manager:   manager,
		logger:    logger.With().Str("component", "sse").Logger(),
		heartbeat: types.HeartbeatInterval,
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	session := h.manager.GetOrCreate(sessionID)
	client := newChannelHandler()
	session.AddHandler(client)
	defer session.RemoveHandler(client)

	h.logger.Info().Str("session_id", sessionID).Msg("SSE connection established")

	if _, err := fmt.Fprintf(w, "event: connected\ndata: {\"session_id\":%q}\n\n", sessionID); err != nil {
		h.logger.Error().Err(err).Msg("failed to send connection frame")
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case event := <-client.ch:
			frame, err := event.SSE()
			if err != nil {
				h.logger.Error().Err(err).Msg("failed to serialize event")
				continue
			}
			if _, err := w.Write(frame); err != nil {
				h.logger.Error().Err(err).Msg("failed to write SSE frame")
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			h.logger.Info().Str("session_id", sessionID).Msg("SSE connection closed")
			return
		}
	}
}
