package tools

import (
	"sort"

	"github.com/jg-phare/crew/pkg/llm"
)

// Registry holds available tools and resolves them by name.
type Registry struct {
	tools    map[string]Tool
	disabled map[string]bool // offered-but-refused (team management for teammates)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDisabled marks tool names as disabled. Disabled tools are excluded
// from definitions and refused at dispatch.
func WithDisabled(names ...string) RegistryOption {
	return func(r *Registry) {
		for _, n := range names {
			r.disabled[n] = true
		}
	}
}

// NewRegistry creates a new tool registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:    make(map[string]Tool),
		disabled: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name()] = tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// IsDisabled returns true if the tool is registered but refused.
func (r *Registry) IsDisabled(name string) bool {
	return r.disabled[name]
}

// Names returns all enabled tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		if !r.disabled[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Definitions returns wire-format tool definitions for all enabled tools.
func (r *Registry) Definitions() []llm.ToolDefinition {
	names := r.Names()
	defs := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		tool := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}
	return defs
}
