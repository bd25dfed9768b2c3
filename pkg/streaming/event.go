package streaming

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType identifies a stream event on the wire.
type EventType string

const (
	EventConversationStart     EventType = "conversation_start"
	EventAssistantMessageStart EventType = "assistant_message_start"
	EventAssistantMessageChunk EventType = "assistant_message_chunk"
	EventAssistantMessageEnd   EventType = "assistant_message_end"
	EventToolCallStart         EventType = "tool_call_start"
	EventToolCallProgress      EventType = "tool_call_progress"
	EventToolCallEnd           EventType = "tool_call_end"
	EventProcessingStatus      EventType = "processing_status"
	EventError                 EventType = "error"
	EventConversationEnd       EventType = "conversation_end"
)

// Event is one frame in a session's stream. Events are append-only; a status
// change is a new event, never a mutation of an earlier one.
type Event struct {
	EventType EventType      `json:"event_type"`
	Timestamp string         `json:"timestamp"`
	SessionID string         `json:"session_id,omitempty"`
	Data      any            `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ToolCallStatus is the payload carried by tool_call_* events. Each lifecycle
// transition is reported as a fresh snapshot.
type ToolCallStatus struct {
	ToolName        string         `json:"tool_name"`
	Status          string         `json:"status"`
	CallID          string         `json:"call_id,omitempty"`
	ProgressMessage string         `json:"progress_message,omitempty"`
	Arguments       map[string]any `json:"arguments,omitempty"`
	Result          map[string]any `json:"result,omitempty"`
	ExecutionTime   float64        `json:"execution_time,omitempty"`
	ErrorMessage    string         `json:"error_message,omitempty"`
}

// Tool call statuses. Terminal statuses are completed and failed.
const (
	StatusStarting  = "starting"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

func newEvent(eventType EventType, sessionID string, data any) *Event {
	return &Event{
		EventType: eventType,
		Timestamp: time.Now().Format(time.RFC3339Nano),
		SessionID: sessionID,
		Data:      data,
	}
}

// JSON serializes the event payload.
func (e *Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// SSE renders the event as a Server-Sent Events frame:
//
//	event: <event_type>
//	data: <json>
//	<blank line>
func (e *Event) SSE() ([]byte, error) {
	data, err := e.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize event: %w", err)
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", e.EventType, data)), nil
}

// NewConversationStart announces a new conversation turn.
func NewConversationStart(sessionID, userInput string) *Event {
	return newEvent(EventConversationStart, sessionID, map[string]any{
		"user_input": userInput,
	})
}

// NewConversationEnd closes a conversation turn.
func NewConversationEnd(sessionID string) *Event {
	return newEvent(EventConversationEnd, sessionID, map[string]any{})
}

// NewToolCallStart reports a call entering the starting state.
func NewToolCallStart(sessionID string, status ToolCallStatus) *Event {
	return newEvent(EventToolCallStart, sessionID, status)
}

// NewToolCallProgress reports an intermediate transition, typically running.
func NewToolCallProgress(sessionID string, status ToolCallStatus) *Event {
	return newEvent(EventToolCallProgress, sessionID, status)
}

// NewToolCallEnd reports the terminal transition for a call. Exactly one end
// event is emitted per surviving call.
func NewToolCallEnd(sessionID string, status ToolCallStatus) *Event {
	return newEvent(EventToolCallEnd, sessionID, status)
}

// NewProcessingStatus reports coarse progress outside any single tool call.
func NewProcessingStatus(sessionID, message string) *Event {
	return newEvent(EventProcessingStatus, sessionID, map[string]any{
		"status_message": message,
	})
}

// NewError reports a session-level error.
func NewError(sessionID, message string, details map[string]any) *Event {
	if details == nil {
		details = map[string]any{}
	}
	return newEvent(EventError, sessionID, map[string]any{
		"error_message": message,
		"error_details": details,
	})
}
