// Package config loads the YAML run configuration and the keys.cfg
// credential file (spec §6), grounded on the teacher's
// DefaultLoopConfig/sanitizeLoopConfig default-backfill idiom
// (internal/agent/loop.go).
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RoleConfig configures one agent role (spec §6 "<role ∈ {autoprompter,
// planner, executor}>").
type RoleConfig struct {
	MaxRounds       int      `yaml:"max_rounds"`
	Model           string   `yaml:"model"`
	Temperature     float64  `yaml:"temperature"`
	MaxTokens       int      `yaml:"max_tokens"`
	Prompt          string   `yaml:"prompt"`
	Toolset         []string `yaml:"toolset"`
	LenObservations int      `yaml:"len_observations"`
}

// ExperimentConfig is the run-level section of the config file.
type ExperimentConfig struct {
	MaxCost          float64 `yaml:"max_cost"`
	EnableAutoprompt bool    `yaml:"enable_autoprompt"`
}

// Config is the full YAML run configuration (spec §6).
type Config struct {
	Experiment  ExperimentConfig `yaml:"experiment"`
	Autoprompter RoleConfig      `yaml:"autoprompter"`
	Planner      RoleConfig      `yaml:"planner"`
	Executor     RoleConfig      `yaml:"executor"`

	// dir is the directory the config file was loaded from; RoleConfig.Prompt
	// paths are resolved relative to it (spec §6).
	dir string
}

// defaultConfig mirrors the teacher's DefaultLoopConfig: every zero-valued
// field below is a value sanitize backfills when missing from the file.
func defaultConfig() *Config {
	return &Config{
		Experiment: ExperimentConfig{
			MaxCost:          1.0,
			EnableAutoprompt: true,
		},
		Autoprompter: RoleConfig{MaxRounds: 5, Temperature: 1.0, MaxTokens: 4096},
		Planner:      RoleConfig{MaxRounds: 30, Temperature: 1.0, MaxTokens: 4096},
		Executor:     RoleConfig{MaxRounds: 15, Temperature: 1.0, MaxTokens: 4096, LenObservations: 5},
	}
}

func sanitizeRole(cfg, defaults RoleConfig) RoleConfig {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaults.MaxRounds
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaults.Temperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.LenObservations <= 0 {
		cfg.LenObservations = defaults.LenObservations
	}
	return cfg
}

// sanitize backfills every zero-valued field from defaultConfig, the same
// pattern as the teacher's sanitizeLoopConfig.
func sanitize(cfg *Config) *Config {
	defaults := defaultConfig()
	out := *cfg
	if out.Experiment.MaxCost <= 0 {
		out.Experiment.MaxCost = defaults.Experiment.MaxCost
	}
	out.Autoprompter = sanitizeRole(out.Autoprompter, defaults.Autoprompter)
	out.Planner = sanitizeRole(out.Planner, defaults.Planner)
	out.Executor = sanitizeRole(out.Executor, defaults.Executor)
	return &out
}

// Load reads and sanitizes the YAML config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return sanitize(cfg), nil
}

// PromptPath resolves a RoleConfig's Prompt field relative to the config
// file's directory (spec §6: "relative to config file").
func (c *Config) PromptPath(role RoleConfig) string {
	if role.Prompt == "" || filepath.IsAbs(role.Prompt) {
		return role.Prompt
	}
	return filepath.Join(c.dir, role.Prompt)
}

// LoadKeys parses a keys.cfg file into a map from uppercased backend tag
// (OPENAI, ANTHROPIC, TOGETHER, GEMINI) to API key, skipping blank lines and
// '#' comments (spec §6).
func LoadKeys(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keys file %s: %w", path, err)
	}
	defer f.Close()

	keys := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tag, key, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("keys file %s: malformed line %q", path, line)
		}
		keys[strings.ToUpper(strings.TrimSpace(tag))] = strings.TrimSpace(key)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading keys file %s: %w", path, err)
	}
	return keys, nil
}
