package tools

import (
	"context"
	"time"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
)

const defaultCommandTimeout = 300 * time.Second

// RunCommand executes a shell command inside the working container.
// Grounded on original_source/llm_ctf/tools.py's CommandExec.
type RunCommand struct {
	Execer Execer
}

func NewRunCommand(e Execer) *RunCommand { return &RunCommand{Execer: e} }

func (t *RunCommand) Name() string        { return "run_command" }
func (t *RunCommand) Description() string { return "Execute a shell command in the challenge container and return its output." }

func (t *RunCommand) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"command": {Type: tool.ParamString, Description: "The bash command to run."},
		"timeout": {Type: tool.ParamNumber, Description: "Timeout in seconds (default 300)."},
	}
}

func (t *RunCommand) RequiredParameters() map[string]bool {
	return map[string]bool{"command": true}
}

func (t *RunCommand) Setup(ctx context.Context) error           { return nil }
func (t *RunCommand) Teardown(ctx context.Context, err error) error { return nil }

func (t *RunCommand) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	command, _ := args["command"].(string)
	if command == "" {
		return map[string]any{"error": "No command provided"}, nil
	}
	timeout := defaultCommandTimeout
	if v, ok := args["timeout"].(float64); ok && v > 0 {
		timeout = time.Duration(v) * time.Second
	}

	res, err := t.Execer.Exec(ctx, command, timeout)
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}
	return map[string]any{
		"stdout":      res.Stdout,
		"stderr":      res.Stderr,
		"returncode":  res.ReturnCode,
		"timed_out":   res.TimedOut,
	}, nil
}
