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

// AutoPrompt generates the seed prompt the planner (or single executor) is
// started with, sharing the run's environment so it may read files, run
// commands, or even solve the challenge directly via the passive flag check
// (spec §4.11), grounded on
// original_source/nyuctf_multiagent/agent.py's AutoPromptAgent.
type AutoPrompt struct {
	Base

	Enabled    bool
	Finished   bool
	AutoPrompt *string
}

// NewAutoPrompt constructs an AutoPrompt agent and seeds its start prompts.
func NewAutoPrompt(env *environment.Environment, prompter *prompt.Manager, be backend.Backend, toolset []tool.Tool, maxRounds int, logger *observability.Logger) *AutoPrompt {
	a := &AutoPrompt{Base: Base{
		Role:         "autoprompter",
		Environment:  env,
		Challenge:    env.Challenge,
		Prompter:     prompter,
		Backend:      be,
		Tools:        toolset,
		Conversation: conversation.New(),
		MaxRounds:    maxRounds,
		Logger:       logger,
	}}
	a.AddStartPrompts(nil)
	return a
}

var autoPromptIntercepted = map[string]bool{tools.GeneratePromptToolName: true}

// RunOneRound advances the autoprompter by one round. A backend error is
// run-fatal, same as the planner (spec §4.7 step 2).
func (a *AutoPrompt) RunOneRound(ctx context.Context) error {
	outcome, err := a.runRound(ctx, a.Conversation.Messages(), autoPromptIntercepted, false)
	if err != nil {
		return err
	}
	if outcome.interceptedName == tools.GeneratePromptToolName {
		if s, ok := outcome.parsedCall.ParsedArguments["prompt"].(string); ok {
			a.AutoPrompt = &s
		}
		a.Finished = true
	}
	return nil
}

// RunForAutoPrompt is the coordinator's one-shot escape hatch used when the
// autoprompter's loop ended without calling generate_prompt (spec §4.9 step
// 1): one more Send with a dedicated prompt, the response becoming the seed
// prompt.
func (a *AutoPrompt) RunForAutoPrompt(ctx context.Context) {
	a.AddUserMessage(a.Prompter.Get("finish_autoprompt", a.Challenge, a.environmentView(), nil))
	resp, err := a.Backend.Send(ctx, a.Conversation.Messages(), a.Tools)
	if err != nil {
		return
	}
	a.CurrentCost += resp.Cost
	if resp.Error != "" {
		return
	}
	if resp.ToolCall == nil {
		a.AutoPrompt = &resp.Content
		return
	}

	t, ok := a.toolFor(resp.ToolCall.Name)
	if !ok {
		combined := resp.Content + "\n\n" + string(resp.ToolCall.Arguments)
		a.AutoPrompt = &combined
		return
	}
	ok2, parsedCall, _ := backend.ParseToolArguments(*resp.ToolCall, t)
	if !ok2 {
		combined := resp.Content + "\n\n" + string(resp.ToolCall.Arguments)
		a.AutoPrompt = &combined
		return
	}
	if parsedCall.Name == tools.GeneratePromptToolName {
		if s, ok := parsedCall.ParsedArguments["prompt"].(string); ok {
			a.AutoPrompt = &s
		}
	}
}
