package tools

import (
	"fmt"
	"sync"
	"time"

	"github.com/OpenSQZ/gtplanner/pkg/types"
)

// Registry resolves tool names to capability objects. It is populated once at
// startup; lookups during batch execution are read-only.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

func (r *Registry) Add(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := tool.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.byName[name] = tool
	return nil
}

func (r *Registry) Resolve(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.byName[name]
	return tool, ok
}

// Priority returns the tool's priority hint, or the default (lowest) for
// names the registry does not know.
func (r *Registry) Priority(name string) int {
	if tool, ok := r.Resolve(name); ok {
		return tool.Priority()
	}
	return types.DefaultToolPriority
}

// Timeout returns the tool's execution budget, or the default for unknown
// names.
func (r *Registry) Timeout(name string) time.Duration {
	if tool, ok := r.Resolve(name); ok {
		return tool.Timeout()
	}
	return types.DefaultToolTimeout
}

// Names returns the registered tool names, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}
