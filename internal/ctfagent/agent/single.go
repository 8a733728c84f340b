package agent

import (
	"context"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/backend"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/conversation"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/environment"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/prompt"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
	"github.com/nyu-llm-ctf/agentcore/internal/observability"
)

// singleAgentObservationWindow is the original's hard-coded len_observations
// of 5 for the single-executor variant, independent of any configured
// conversation-level window (original_source/llm_ctf_multiagent/agent.py's
// SingleAgent.run_one_round).
const singleAgentObservationWindow = 5

// Single runs the whole challenge as one agent with no delegation, the
// simplest of the four roles (spec §4.7, no planner/executor split).
type Single struct {
	Base
}

// NewSingle constructs a Single agent and seeds its start prompts.
func NewSingle(env *environment.Environment, prompter *prompt.Manager, be backend.Backend, tools []tool.Tool, maxRounds int, logger *observability.Logger) *Single {
	a := &Single{Base{
		Role:         "single",
		Environment:  env,
		Challenge:    env.Challenge,
		Prompter:     prompter,
		Backend:      be,
		Tools:        tools,
		Conversation: conversation.New(),
		MaxRounds:    maxRounds,
		Logger:       logger,
	}}
	a.AddStartPrompts(nil)
	return a
}

// RunOneRound advances the agent by exactly one round (spec §4.7), applying
// the original's hard-coded 5-observation window regardless of
// configuration. A backend error is run-fatal, same as the planner role.
func (a *Single) RunOneRound(ctx context.Context) error {
	window := singleAgentObservationWindow
	messages := a.Conversation.MessagesWithWindow(&window)
	_, err := a.runRound(ctx, messages, nil, false)
	return err
}
