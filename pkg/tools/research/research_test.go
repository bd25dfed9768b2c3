package research

import (
	"context"
	"os"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	"github.com/OpenSQZ/gtplanner/pkg/types"
)

type ResearchTestSuite struct {
	suite.Suite
	logger zerolog.Logger
	tool   *Tool
}

func (s *ResearchTestSuite) SetupTest() {
	s.logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	researcher := New(s.logger)
	s.tool = researcher.(*Tool)
}

func (s *ResearchTestSuite) TestMetadata() {
	s.Equal("research", s.tool.Name())
	s.Equal(1, s.tool.Priority())
	s.Equal(types.ResearchToolTimeout, s.tool.Timeout())
}

func (s *ResearchTestSuite) TestValidateArgs_RequiresKeywords() {
	s.Error(s.tool.ValidateArgs(map[string]any{}))
	s.Error(s.tool.ValidateArgs(map[string]any{"keywords": []any{}}))
	s.Error(s.tool.ValidateArgs(map[string]any{"keywords": []any{""}}))
}

func (s *ResearchTestSuite) TestValidateArgs_Valid() {
	err := s.tool.ValidateArgs(map[string]any{
		"keywords":    []any{"postgres", "redis"},
		"focus_areas": []any{"scaling"},
	})
	s.NoError(err)
}

func (s *ResearchTestSuite) TestInvoke() {
	result, err := s.tool.Invoke(context.Background(), map[string]any{
		"keywords":        []any{"postgres", "redis"},
		"focus_areas":     []any{"scaling", "cost"},
		"project_context": "multi-tenant SaaS",
	})
	s.Require().NoError(err)

	s.Equal(true, result["success"])
	findings, ok := result["findings"].([]map[string]any)
	s.Require().True(ok)
	s.Require().Len(findings, 2)
	s.Equal("postgres", findings[0]["keyword"])
	s.Contains(findings[0]["summary"], "scaling")
	s.Contains(findings[0]["summary"], "multi-tenant SaaS")
}

func (s *ResearchTestSuite) TestInvoke_CancelledBetweenKeywords() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.tool.Invoke(ctx, map[string]any{
		"keywords": []any{"postgres"},
	})
	s.Error(err)
}

func (s *ResearchTestSuite) TestResearchHandler() {
	result, _, err := s.tool.ResearchHandler(context.Background(), &mcp.CallToolRequest{}, Input{
		Keywords: []string{"postgres"},
	})
	s.Require().NoError(err)
	s.Require().Len(result.Content, 1)

	text := result.Content[0].(*mcp.TextContent).Text
	s.Contains(text, "postgres")
}

func (s *ResearchTestSuite) TestResearchHandler_ValidationError() {
	_, _, err := s.tool.ResearchHandler(context.Background(), &mcp.CallToolRequest{}, Input{})
	s.Require().Error(err)
	s.Contains(err.Error(), "validation error")
}

func TestResearchTestSuite(t *testing.T) {
	suite.Run(t, new(ResearchTestSuite))
}
