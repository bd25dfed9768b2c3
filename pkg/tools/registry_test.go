package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenSQZ/gtplanner/pkg/server"
	"github.com/OpenSQZ/gtplanner/pkg/types"
)

type fakeTool struct {
	name     string
	priority int
	timeout  time.Duration
}

func (t *fakeTool) Name() string                           { return t.name }
func (t *fakeTool) Description() string                    { return "fake" }
func (t *fakeTool) Priority() int                          { return t.priority }
func (t *fakeTool) Timeout() time.Duration                 { return t.timeout }
func (t *fakeTool) ValidateArgs(_ map[string]any) error    { return nil }
func (t *fakeTool) Register(_ *server.Server) error        { return nil }
func (t *fakeTool) Invoke(_ context.Context, _ map[string]any) (map[string]any, error) {
	return map[string]any{"success": true}, nil
}

func TestRegistryAddAndResolve(t *testing.T) {
	registry := NewRegistry()
	tool := &fakeTool{name: "research", priority: 1, timeout: types.ResearchToolTimeout}

	require.NoError(t, registry.Add(tool))

	resolved, ok := registry.Resolve("research")
	require.True(t, ok)
	assert.Equal(t, "research", resolved.Name())

	_, ok = registry.Resolve("missing")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Add(&fakeTool{name: "short_planning"}))

	err := registry.Add(&fakeTool{name: "short_planning"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistryPriorityFallback(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Add(&fakeTool{name: "research", priority: 1}))

	assert.Equal(t, 1, registry.Priority("research"))
	assert.Equal(t, types.DefaultToolPriority, registry.Priority("unknown"))
}

func TestRegistryTimeoutFallback(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Add(&fakeTool{name: "research", timeout: types.ResearchToolTimeout}))

	assert.Equal(t, types.ResearchToolTimeout, registry.Timeout("research"))
	assert.Equal(t, types.DefaultToolTimeout, registry.Timeout("unknown"))
}

func TestRegistryNames(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Add(&fakeTool{name: "research"}))
	require.NoError(t, registry.Add(&fakeTool{name: "short_planning"}))

	assert.ElementsMatch(t, []string{"research", "short_planning"}, registry.Names())
}
