// Package environment implements Environment: the per-run owner of the
// working container and tool set, mediating tool dispatch and exposing the
// solved/giveup flags (spec §3, §4.3).
package environment

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/container"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

// Environment owns the runtime and tool set for one run.
type Environment struct {
	Challenge      *models.Challenge
	ContainerImage string
	Network        string

	runtime  container.Runtime
	handle   container.Handle
	registry *tool.Registry
	tools    []tool.Tool

	mu     sync.Mutex
	solved bool
	giveup bool
}

// New constructs an Environment. Tools are registered via RegisterTool
// before Setup is called; side effects happen in Setup, not here.
func New(challenge *models.Challenge, runtime container.Runtime, registry *tool.Registry, containerImage, network string) *Environment {
	return &Environment{
		Challenge:      challenge,
		ContainerImage: containerImage,
		Network:        network,
		runtime:        runtime,
		registry:       registry,
	}
}

// Flag implements tools.Solver.
func (e *Environment) Flag() string { return e.Challenge.Flag }

// MarkSolved implements tools.Solver. Once set, it can never be unset.
func (e *Environment) MarkSolved() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.solved = true
}

// MarkGiveup implements tools.Giveupper. Once set, it can never be unset.
func (e *Environment) MarkGiveup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.giveup = true
}

// Solved reports whether submit_flag (or the passive backstop) has fired.
func (e *Environment) Solved() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.solved
}

// Giveup reports whether the giveup tool has fired.
func (e *Environment) Giveup() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.giveup
}

// Terminated reports whether no further rounds may begin (spec invariant:
// solved and giveup can each be set exactly once; once either is set, no
// further rounds may begin).
func (e *Environment) Terminated() bool {
	return e.Solved() || e.Giveup()
}

// Exec implements tools.Execer, running a command in the working container.
func (e *Environment) Exec(ctx context.Context, command string, timeout time.Duration) (container.ExecResult, error) {
	return e.runtime.Exec(ctx, e.handle, command, timeout)
}

// CopyIn implements tools.CopyInner.
func (e *Environment) CopyIn(ctx context.Context, hostPath, containerPath string) (string, error) {
	return e.runtime.CopyIn(ctx, e.handle, hostPath, containerPath)
}

// Setup starts the working container, sets up every registered tool, then
// copies every challenge file into ctf_files/<name> under the container
// home (spec §4.3 ordering).
func (e *Environment) Setup(ctx context.Context, toolsetNames []string, challengeDir string) error {
	handle, err := e.runtime.Start(ctx, e.ContainerImage, e.Network)
	if err != nil {
		return fmt.Errorf("starting working container: %w", err)
	}
	e.handle = handle

	tools, err := e.registry.Toolset(toolsetNames)
	if err != nil {
		return fmt.Errorf("resolving toolset: %w", err)
	}
	e.tools = tools
	for _, t := range e.tools {
		if err := t.Setup(ctx); err != nil {
			return fmt.Errorf("setting up tool %s: %w", t.Name(), err)
		}
	}

	for _, file := range e.Challenge.Files {
		hostPath := path.Join(challengeDir, file)
		if _, err := e.CopyIn(ctx, hostPath, path.Join("ctf_files", file)); err != nil {
			return fmt.Errorf("copying challenge file %s: %w", file, err)
		}
	}
	return nil
}

// Teardown tears down every tool (passing the run's terminal error, if any)
// then stops the working container. Reverses Setup's ordering.
func (e *Environment) Teardown(ctx context.Context, runErr error) error {
	var firstErr error
	for _, t := range e.tools {
		if err := t.Teardown(ctx, runErr); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := e.runtime.Stop(ctx, e.handle); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Tools returns the toolset this Environment was set up with, for handing to
// Backend.Send.
func (e *Environment) Tools() []tool.Tool { return e.tools }

// GetToolset resolves a list of tool names into a toolset, for roles whose
// configured toolset differs from the one passed to Setup (e.g. the
// autoprompter's narrower set).
func (e *Environment) GetToolset(names []string) ([]tool.Tool, error) {
	return e.registry.Toolset(names)
}

// RunTool looks up the tool named by call, invokes it with its already
// parsed arguments, and wraps the return into a ToolResult keyed to the
// call's id (spec §4.3). The caller is responsible for having parsed
// arguments first.
func (e *Environment) RunTool(ctx context.Context, call models.ToolCall) models.ToolResult {
	t, ok := e.registry.Get(call.Name)
	if !ok {
		return models.ErrorResult(call, fmt.Sprintf("unknown tool %q", call.Name))
	}
	result, err := t.Call(ctx, call.ParsedArguments)
	if err != nil {
		return models.ErrorResult(call, err.Error())
	}
	return models.ForCall(call, result)
}
