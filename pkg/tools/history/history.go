package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/OpenSQZ/gtplanner/pkg/server"
	"github.com/OpenSQZ/gtplanner/pkg/storage"
	"github.com/OpenSQZ/gtplanner/pkg/tools"
	"github.com/OpenSQZ/gtplanner/pkg/types"
)

const toolName = "history"

// Input defines the history arguments.
type Input struct {
	Action    string `json:"action" validate:"required,oneof=list get delete clear stats"`
	ID        uint   `json:"id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Limit     int    `json:"limit,omitempty" validate:"min=0,max=100"`
	Offset    int    `json:"offset,omitempty" validate:"min=0"`
}

// Tool browses and manages the persisted execution history.
type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	store     storage.Storage
}

func New(logger zerolog.Logger, store storage.Storage) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", toolName).Logger(),
		validator: validator.New(),
		store:     store,
	}
}

func (t *Tool) Name() string { return toolName }

func (t *Tool) Description() string {
	return "Browse and manage tool execution history. Actions: list (paginated), get (by ID), delete (by ID), clear (all), stats (success counts)."
}

func (t *Tool) Priority() int { return types.DefaultToolPriority }

func (t *Tool) Timeout() time.Duration { return types.DefaultToolTimeout }

func (t *Tool) ValidateArgs(args map[string]any) error {
	var input Input
	return tools.CheckArgs(t.validator, args, &input)
}

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	var input Input
	if err := tools.DecodeArgs(args, &input); err != nil {
		return nil, err
	}

	switch input.Action {
	case "list":
		limit := input.Limit
		if limit == 0 {
			limit = 10
		}
		if input.SessionID != "" {
			executions, err := t.store.GetToolExecutionsBySession(ctx, input.SessionID)
			if err != nil {
				return nil, fmt.Errorf("failed to list session executions: %w", err)
			}
			return map[string]any{
				"success":    true,
				"session_id": input.SessionID,
				"executions": executions,
			}, nil
		}
		executions, total, err := t.store.GetToolExecutions(ctx, limit, input.Offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list executions: %w", err)
		}
		return map[string]any{
			"success":    true,
			"total":      total,
			"limit":      limit,
			"offset":     input.Offset,
			"executions": executions,
		}, nil

	case "get":
		if input.ID == 0 {
			return nil, fmt.Errorf("id is required for get action")
		}
		exec, err := t.store.GetToolExecution(ctx, input.ID)
		if err != nil {
			return nil, fmt.Errorf("execution not found: %w", err)
		}
		return map[string]any{
			"success":   true,
			"execution": exec,
		}, nil

	case "delete":
		if input.ID == 0 {
			return nil, fmt.Errorf("id is required for delete action")
		}
		if err := t.store.DeleteToolExecution(ctx, input.ID); err != nil {
			return nil, fmt.Errorf("failed to delete execution: %w", err)
		}
		return map[string]any{
			"success": true,
			"message": fmt.Sprintf("Execution %d deleted successfully", input.ID),
		}, nil

	case "clear":
		if err := t.store.DeleteAllToolExecutions(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear executions: %w", err)
		}
		return map[string]any{
			"success": true,
			"message": "All execution history cleared",
		}, nil

	case "stats":
		succeeded, failed, err := t.store.CountToolExecutionsBySuccess(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count executions: %w", err)
		}
		return map[string]any{
			"success":   true,
			"succeeded": succeeded,
			"failed":    failed,
		}, nil
	}

	return nil, fmt.Errorf("unknown action %q", input.Action)
}

func (t *Tool) Register(srv *server.Server) error {
	tool := &mcp.Tool{
		Name:        toolName,
		Description: t.Description(),
	}

	if t.store == nil {
		t.store = srv.Storage()
	}

	mcp.AddTool(&srv.Server, tool, t.HistoryHandler)
	t.logger.Debug().Msg("history tool registered")

	return nil
}

func (t *Tool) HistoryHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	args, err := tools.ArgsFromInput(input)
	if err != nil {
		return nil, nil, err
	}

	result, err := t.Invoke(ctx, args)
	if err != nil {
		return nil, nil, err
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}
