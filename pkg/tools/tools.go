package tools

import (
	"context"
	"time"

	"github.com/OpenSQZ/gtplanner/pkg/server"
)

// Tool is one capability the planning agent can invoke. Priority and Timeout
// are hints consumed by the executor: lower priority numbers run earlier,
// and Timeout bounds a single invocation.
type Tool interface {
	Name() string
	Description() string
	Priority() int
	Timeout() time.Duration

	// ValidateArgs checks an already-parsed argument map against the tool's
	// input schema. A non-nil error excludes the call from execution.
	ValidateArgs(args map[string]any) error

	// Invoke runs the tool. Implementations should observe ctx cancellation;
	// the executor abandons, but does not preempt, overdue invocations.
	Invoke(ctx context.Context, args map[string]any) (map[string]any, error)

	// Register publishes the tool on the MCP server.
	Register(srv *server.Server) error
}
