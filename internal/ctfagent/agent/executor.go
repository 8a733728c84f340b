package agent

import (
	"context"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/backend"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/conversation"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/environment"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/prompt"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tools"
	"github.com/nyu-llm-ctf/agentcore/internal/observability"
)

// Executor carries out one delegated task to completion or exhaustion
// (spec §4.7, §4.8), grounded on
// original_source/nyuctf_multiagent/agent.py's ExecutorAgent.
type Executor struct {
	Base

	LenObservations int

	Finished      bool
	FinishSummary *string
	// RunError holds the backend error that ended the executor's loop
	// without a summary, if any (distinct from a run-fatal Error: an
	// executor swallows its own backend errors, spec §4.7 step 2).
	RunError string
}

// NewExecutor constructs a fresh Executor with an empty conversation,
// sharing the same backend/prompter/limits — the coordinator calls this
// once per delegated task (spec §4.8).
func NewExecutor(env *environment.Environment, prompter *prompt.Manager, be backend.Backend, toolset []tool.Tool, maxRounds, lenObservations int, logger *observability.Logger) *Executor {
	return &Executor{
		Base: Base{
			Role:         "executor",
			Environment:  env,
			Challenge:    env.Challenge,
			Prompter:     prompter,
			Backend:      be,
			Tools:        toolset,
			Conversation: conversation.New(conversation.WithLenObservations(lenObservations)),
			MaxRounds:    maxRounds,
			Logger:       logger,
		},
		LenObservations: lenObservations,
	}
}

// New returns a sibling Executor: same backend/prompter/limits, a fresh
// conversation, for the coordinator to spawn one per delegated task
// (spec §4.8).
func (e *Executor) New() *Executor {
	return NewExecutor(e.Environment, e.Prompter, e.Backend, e.Tools, e.MaxRounds, e.LenObservations, e.Logger)
}

var executorIntercepted = map[string]bool{tools.FinishTaskToolName: true}

// RunOneRound advances the executor by one round. Unlike the other roles, a
// backend error here is non-fatal to the run: it marks the executor
// finished with no summary and records the error (spec §4.7 step 2).
func (e *Executor) RunOneRound(ctx context.Context) error {
	outcome, err := e.runRound(ctx, e.Conversation.Messages(), executorIntercepted, true)
	if err != nil {
		return err
	}
	if outcome.erred {
		e.Finished = true
		e.RunError = outcome.errorMessage
		return nil
	}
	if outcome.interceptedName == tools.FinishTaskToolName {
		if s, ok := outcome.parsedCall.ParsedArguments["summary"].(string); ok {
			e.FinishSummary = &s
		}
		e.Finished = true
	}
	return nil
}

// RunForFinishSummary is the coordinator's one-shot escape hatch when the
// executor's loop ended without calling finish_task (spec §4.8): one more
// Send with a dedicated prompt, the response becoming the task outcome.
func (e *Executor) RunForFinishSummary(ctx context.Context) {
	e.AddUserMessage(e.Prompter.Get("finish_summary", e.Challenge, e.environmentView(), nil))
	resp, err := e.Backend.Send(ctx, e.Conversation.Messages(), e.Tools)
	if err != nil {
		return
	}
	e.CurrentCost += resp.Cost
	if resp.Error != "" {
		return
	}
	if resp.ToolCall == nil {
		e.FinishSummary = &resp.Content
		return
	}

	t, ok := e.toolFor(resp.ToolCall.Name)
	if !ok {
		combined := resp.Content + "\n\n" + string(resp.ToolCall.Arguments)
		e.FinishSummary = &combined
		return
	}
	ok2, parsedCall, _ := backend.ParseToolArguments(*resp.ToolCall, t)
	if !ok2 {
		combined := resp.Content + "\n\n" + string(resp.ToolCall.Arguments)
		e.FinishSummary = &combined
		return
	}
	if parsedCall.Name == tools.FinishTaskToolName {
		if s, ok := parsedCall.ParsedArguments["summary"].(string); ok {
			e.FinishSummary = &s
		}
	}
}
