// Package prompt loads the named prompt templates an Agent's messages are
// built from and interpolates them against the current challenge and
// environment state (spec §4.6).
package prompt

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

// EnvironmentView is the narrow read-only slice of Environment state a
// prompt template may interpolate, kept separate from the environment
// package to avoid prompt depending on tool/container internals.
type EnvironmentView struct {
	Solved  bool
	Giveup  bool
	Working string
}

// Manager loads and renders the named templates a run's prompts are built
// from, grounded on original_source/nyuctf_multiagent/prompt_manager.py's
// Get(key, **kwargs)/format semantics.
type Manager struct {
	mu        sync.RWMutex
	path      string
	templates map[string]string
}

// Load reads a flat YAML map of template name to template string.
func Load(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt: reading %s: %w", path, err)
	}
	var templates map[string]string
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("prompt: parsing %s: %w", path, err)
	}
	return &Manager{path: path, templates: templates}, nil
}

// Reload re-reads the backing file in place, used by the fsnotify watcher
// set up in cmd/ctfagent so template edits take effect on the next Get
// without restarting a run.
func (m *Manager) Reload() error {
	fresh, err := Load(m.path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.templates = fresh.templates
	m.mu.Unlock()
	return nil
}

var placeholder = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\.([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Get renders templates[key] against challenge, env, and any extra named
// values, substituting {challenge.field}, {environment.field}, and
// {prompter.server_description} placeholders. A missing template key
// yields an empty string, matching the original's defaultdict behavior.
func (m *Manager) Get(key string, challenge *models.Challenge, env EnvironmentView, extra map[string]string) string {
	m.mu.RLock()
	tmpl, ok := m.templates[key]
	m.mu.RUnlock()
	if !ok {
		return ""
	}

	fields := map[string]map[string]string{
		"challenge": {
			"name":        challenge.Name,
			"category":    string(challenge.Category),
			"description": challenge.Description,
		},
		"environment": {
			"working": env.Working,
		},
		"prompter": {
			"server_description": challenge.GetServerDescription(),
		},
	}
	for name, value := range extra {
		fields["extra_"+name] = map[string]string{name: value}
	}

	return placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		groups := placeholder.FindStringSubmatch(match)
		namespace, field := groups[1], groups[2]
		if ns, ok := fields[namespace]; ok {
			if v, ok := ns[field]; ok {
				return v
			}
		}
		if namespace == "extra" {
			if v, ok := extra[field]; ok {
				return v
			}
		}
		return ""
	})
}

// Keys returns the template names currently loaded, for diagnostics.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.templates))
	for k := range m.templates {
		keys = append(keys, k)
	}
	return keys
}
