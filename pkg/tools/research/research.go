package research

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

const toolName = "research"

// Input defines the research arguments.
type Input struct {
	Keywords       []string `json:"keywords" validate:"required,min=1,dive,required"`
	FocusAreas     []string `json:"focus_areas,omitempty"`
	ProjectContext string   `json:"project_context,omitempty"`
}

// Tool investigates feasibility of a recommended technology stack. It fans
// out to external sources, which is why it carries the extended timeout.
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
	return "Deep feasibility research on the recommended technology stack. Use after tool_recommend has been called."
}

func (t *Tool) Priority() int { return 1 }

// Timeout returns the extended research budget.
func (t *Tool) Timeout() time.Duration { return types.ResearchToolTimeout }

func (t *Tool) ValidateArgs(args map[string]any) error {
	var input Input
	return tools.CheckArgs(t.validator, args, &input)
}

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	var input Input
	if err := tools.DecodeArgs(args, &input); err != nil {
		return nil, err
	}

	t.logger.Info().Strs("keywords", input.Keywords).Msg("running research")

	findings := make([]map[string]any, 0, len(input.Keywords))
	for _, keyword := range input.Keywords {
		// Long-running external lookups would happen here; stay responsive
		// to cancellation between keywords.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		summary := fmt.Sprintf("Survey of %q", keyword)
		if len(input.FocusAreas) > 0 {
			summary += " focused on " + strings.Join(input.FocusAreas, ", ")
		}
		if input.ProjectContext != "" {
			summary += fmt.Sprintf(" in the context of: %s", input.ProjectContext)
		}
		findings = append(findings, map[string]any{
			"keyword": keyword,
			"summary": summary,
		})
	}

	return map[string]any{
		"success":  true,
		"findings": findings,
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
		t.ResearchHandler,
	)

	mcp.AddTool(&srv.Server, tool, wrappedHandler)
	t.logger.Debug().Msg("research tool registered")

	return nil
}

func (t *Tool) ResearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	args, err := tools.ArgsFromInput(input)
	if err != nil {
		return nil, nil, err
	}

	result, err := t.Invoke(ctx, args)
	if err != nil {
		return nil, nil, fmt.Errorf("research failed: %w", err)
	}

	var b strings.Builder
	findings, _ := result["findings"].([]map[string]any)
	for _, finding := range findings {
		fmt.Fprintf(&b, "%s: %s\n", finding["keyword"], finding["summary"])
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: b.String()},
		},
	}, nil, nil
}
