package planning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/OpenSQZ/gtplanner/pkg/server"
	"github.com/OpenSQZ/gtplanner/pkg/tools"
	"github.com/OpenSQZ/gtplanner/pkg/types"
)

const toolName = "short_planning"

// Input defines the short_planning arguments.
type Input struct {
	UserRequirements  string   `json:"user_requirements" validate:"required"`
	ImprovementPoints []string `json:"improvement_points,omitempty"`
	Language          string   `json:"language,omitempty" validate:"omitempty,oneof=en zh es fr ja"`
}

// Tool produces a step-by-step project scope outline. It is called
// repeatedly during scope confirmation, folding in improvement points until
// the user signs off.
type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
}

func New(logger zerolog.Logger) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", toolName).Logger(),
		validator: validator.New(),
	}
}

func (t *Tool) Name() string { return toolName }

func (t *Tool) Description() string {
	return "Define and refine project scope. Called repeatedly with improvement_points until the user confirms the plan."
}

// Priority 1: scope planning runs before recommendation tools.
func (t *Tool) Priority() int { return 1 }

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
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	language := input.Language
	if language == "" {
		language = "en"
	}

	t.logger.Info().Str("language", language).Msg("generating scope outline")

	var b strings.Builder
	fmt.Fprintf(&b, "Project scope for: %s\n\n", strings.TrimSpace(input.UserRequirements))
	steps := []string{
		"Clarify target users and the core problem",
		"List must-have capabilities and explicit exclusions",
		"Sketch the main user flow end to end",
		"Identify external services and data the flow depends on",
		"Confirm the scope with the user before technical design",
	}
	for i, step := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	if len(input.ImprovementPoints) > 0 {
		b.WriteString("\nIncorporated feedback:\n")
		for _, point := range input.ImprovementPoints {
			fmt.Fprintf(&b, "- %s\n", point)
		}
	}

	return map[string]any{
		"success":  true,
		"flow":     b.String(),
		"language": language,
	}, nil
}

func (t *Tool) Register(srv *server.Server) error {
	tool := &mcp.Tool{
		Name:        toolName,
		Description: t.Description(),
	}

	wrappedHandler := tools.WrapToolHandler(
		srv.Storage(),
		toolName,
		t.Priority(),
		t.PlanningHandler,
	)

	mcp.AddTool(&srv.Server, tool, wrappedHandler)
	t.logger.Debug().Msg("short_planning tool registered")

	return nil
}

func (t *Tool) PlanningHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	args, err := tools.ArgsFromInput(input)
	if err != nil {
		return nil, nil, err
	}

	result, err := t.Invoke(ctx, args)
	if err != nil {
		return nil, nil, fmt.Errorf("short_planning failed: %w", err)
	}

	flow, _ := result["flow"].(string)
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: flow},
		},
	}, nil, nil
}
