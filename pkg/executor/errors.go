package executor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Error sources recorded by the batch pipeline.
const (
	SourceParse  = "validator.parse"
	SourceSchema = "validator.schema"
	SourceInvoke = "executor.invoke"
)

// ErrorRecord is one out-of-band failure. Parse and schema failures never
// reach the event stream or the outcome list; this log is the only place
// they surface.
type ErrorRecord struct {
	Source    string    `json:"source"`
	ToolName  string    `json:"tool_name"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorLog collects ErrorRecords across batches. Safe for concurrent use.
type ErrorLog struct {
	logger zerolog.Logger

	mu      sync.Mutex
	records []ErrorRecord
}

func NewErrorLog(logger zerolog.Logger) *ErrorLog {
	return &ErrorLog{
		logger: logger.With().Str("component", "executor").Logger(),
	}
}

func (l *ErrorLog) Record(source, toolName, message string) {
	l.logger.Warn().
		Str("source", source).
		Str("tool", toolName).
		Msg(message)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, ErrorRecord{
		Source:    source,
		ToolName:  toolName,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// Records returns a snapshot of everything recorded so far.
func (l *ErrorLog) Records() []ErrorRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ErrorRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
