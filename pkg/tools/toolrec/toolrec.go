package toolrec

import (
	"context"
	"encoding/json"
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

const (
	toolName    = "tool_recommend"
	defaultTopK = 5
)

// Input defines the tool_recommend arguments.
type Input struct {
	Query     string   `json:"query" validate:"required"`
	TopK      int      `json:"top_k,omitempty" validate:"min=0,max=20"`
	ToolTypes []string `json:"tool_types,omitempty" validate:"omitempty,dive,oneof=PYTHON_PACKAGE APIS"`
}

// catalogEntry is one recommendable capability.
type catalogEntry struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Summary  string `json:"summary"`
	keywords []string
}

// Tool recommends platform-supported packages and APIs for a confirmed
// project scope. First step of the technical-design phase.
type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	catalog   []catalogEntry
}

func New(logger zerolog.Logger) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", toolName).Logger(),
		validator: validator.New(),
		catalog:   defaultCatalog(),
	}
}

func defaultCatalog() []catalogEntry {
	return []catalogEntry{
		{Name: "requests", Type: "PYTHON_PACKAGE", Summary: "HTTP client for API integrations", keywords: []string{"http", "api", "rest", "client"}},
		{Name: "fastapi", Type: "PYTHON_PACKAGE", Summary: "Async web framework for service endpoints", keywords: []string{"web", "api", "server", "http"}},
		{Name: "sqlalchemy", Type: "PYTHON_PACKAGE", Summary: "Database toolkit and ORM", keywords: []string{"database", "sql", "storage", "orm"}},
		{Name: "pandas", Type: "PYTHON_PACKAGE", Summary: "Tabular data analysis", keywords: []string{"data", "csv", "analysis", "table"}},
		{Name: "openai-api", Type: "APIS", Summary: "Hosted LLM completion and embedding API", keywords: []string{"llm", "ai", "embedding", "chat"}},
		{Name: "jina-reader", Type: "APIS", Summary: "Web page extraction API for research pipelines", keywords: []string{"search", "web", "crawl", "research"}},
		{Name: "stripe-api", Type: "APIS", Summary: "Payment processing API", keywords: []string{"payment", "billing", "checkout"}},
	}
}

func (t *Tool) Name() string { return toolName }

func (t *Tool) Description() string {
	return "Recommend platform-supported packages and APIs for the confirmed project scope. Mandatory precursor to research."
}

// Priority 2: recommendations run after scope planning but before
// unprioritized tools.
func (t *Tool) Priority() int { return 2 }

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

	topK := input.TopK
	if topK == 0 {
		topK = defaultTopK
	}

	queryTerms := strings.Fields(strings.ToLower(input.Query))
	typeFilter := make(map[string]bool, len(input.ToolTypes))
	for _, tt := range input.ToolTypes {
		typeFilter[tt] = true
	}

	var matches []catalogEntry
	for _, entry := range t.catalog {
		if len(typeFilter) > 0 && !typeFilter[entry.Type] {
			continue
		}
		if matchesQuery(entry, queryTerms) {
			matches = append(matches, entry)
		}
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}

	t.logger.Info().Str("query", input.Query).Int("matches", len(matches)).Msg("tool recommendation complete")

	recommendations := make([]map[string]any, 0, len(matches))
	for _, entry := range matches {
		recommendations = append(recommendations, map[string]any{
			"name":    entry.Name,
			"type":    entry.Type,
			"summary": entry.Summary,
		})
	}

	return map[string]any{
		"success":         true,
		"recommendations": recommendations,
	}, nil
}

func matchesQuery(entry catalogEntry, queryTerms []string) bool {
	if len(queryTerms) == 0 {
		return true
	}
	for _, term := range queryTerms {
		for _, keyword := range entry.keywords {
			if strings.Contains(keyword, term) || strings.Contains(term, keyword) {
				return true
			}
		}
		if strings.Contains(strings.ToLower(entry.Name), term) {
			return true
		}
	}
	return false
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
		t.RecommendHandler,
	)

	mcp.AddTool(&srv.Server, tool, wrappedHandler)
	t.logger.Debug().Msg("tool_recommend tool registered")

	return nil
}

func (t *Tool) RecommendHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	args, err := tools.ArgsFromInput(input)
	if err != nil {
		return nil, nil, err
	}

	result, err := t.Invoke(ctx, args)
	if err != nil {
		return nil, nil, fmt.Errorf("tool_recommend failed: %w", err)
	}

	data, _ := json.MarshalIndent(result["recommendations"], "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}
