package tool

import (
	"fmt"
	"sync"
)

// Registry holds every tool available to a run, keyed by name, and answers
// role-scoped toolset queries (spec §4.2: "Environment.GetToolset(names)
// returns only those").
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, compiling and validating its declared schema.
func (r *Registry) Register(t Tool) error {
	if _, err := CompileSchema(t); err != nil {
		return fmt.Errorf("registering tool %s: %w", t.Name(), err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Toolset returns only the tools named in names, in the order given. An
// unknown name is a configuration error.
func (r *Registry) Toolset(names []string) ([]Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("toolset references unknown tool %q", name)
		}
		out = append(out, t)
	}
	return out, nil
}

// All returns every registered tool, for iteration during setup/teardown.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

// Named toolset presets, matching the original's TOOLSETS dict: crypto,
// misc, and forensics exclude binary-analysis tools that don't apply to
// those categories.
var (
	ToolsetDefault = []string{
		"run_command", "create_file", "submit_flag", "giveup",
		"disassemble", "decompile",
	}
	ToolsetNoBinaryAnalysis = []string{
		"run_command", "create_file", "submit_flag", "giveup",
	}
	ToolsetPlanner      = append(append([]string{}, ToolsetDefault...), "delegate")
	ToolsetExecutor     = append(append([]string{}, ToolsetDefault...), "finish_task")
	ToolsetAutoprompter = []string{"run_command", "create_file", "generate_prompt"}
)

// ToolsetForCategory picks the preset matching the original dataset's
// TOOLSETS dict keyed by challenge category.
func ToolsetForCategory(category string) []string {
	switch category {
	case "crypto", "misc", "forensics":
		return ToolsetNoBinaryAnalysis
	default:
		return ToolsetDefault
	}
}
