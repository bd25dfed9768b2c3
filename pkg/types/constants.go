package types

import "time"

const (
	// MaxConcurrentTools caps the number of tool calls executing at once
	// across the whole process, independent of how many batches are in flight.
	MaxConcurrentTools = 5

	// DefaultToolTimeout is the execution budget for ordinary tools.
	DefaultToolTimeout = 60 * time.Second

	// ResearchToolTimeout is the extended budget for the research tool,
	// which fans out to external sources and routinely runs long.
	ResearchToolTimeout = 90 * time.Second

	// DefaultToolPriority is assigned to tools without an explicit priority.
	// Lower numbers run earlier.
	DefaultToolPriority = 3

	// EventBufferSize is the per-client buffer for streamed events. Slow
	// consumers drop events rather than stall the executor.
	EventBufferSize = 100

	// HeartbeatInterval keeps idle SSE connections alive through proxies.
	HeartbeatInterval = 30 * time.Second

	// MaxHistoryLimit bounds a single history page.
	MaxHistoryLimit = 100
)
