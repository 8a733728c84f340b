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
	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

// Planner directs the run by delegating sub-tasks to fresh executors
// (spec §4.7, §4.9), grounded on
// original_source/nyuctf_multiagent/agent.py's PlannerAgent.
type Planner struct {
	Base

	// DelegatedTask holds the parsed delegate() call for the coordinator
	// to act on, cleared once the coordinator has consumed it.
	DelegatedTask *models.ToolCall
}

// NewPlanner constructs a Planner agent; the caller seeds its start prompts
// separately since the coordinator chooses the initial prompt (spec §4.9
// step 1: autoprompter output, or the hard-coded seed).
func NewPlanner(env *environment.Environment, prompter *prompt.Manager, be backend.Backend, toolset []tool.Tool, maxRounds int, logger *observability.Logger) *Planner {
	return &Planner{Base: Base{
		Role:         "planner",
		Environment:  env,
		Challenge:    env.Challenge,
		Prompter:     prompter,
		Backend:      be,
		Tools:        toolset,
		Conversation: conversation.New(),
		MaxRounds:    maxRounds,
		Logger:       logger,
	}}
}

var plannerIntercepted = map[string]bool{tools.DelegateToolName: true}

// RunOneRound advances the planner by one round. A backend error is
// run-fatal (spec §4.7 step 2).
func (p *Planner) RunOneRound(ctx context.Context) error {
	outcome, err := p.runRound(ctx, p.Conversation.Messages(), plannerIntercepted, false)
	if err != nil {
		return err
	}
	if outcome.interceptedName == tools.DelegateToolName {
		p.DelegatedTask = outcome.parsedCall
	}
	return nil
}
