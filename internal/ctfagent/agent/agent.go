// Package agent implements the agent roles that drive one conversation
// forward a round at a time: SingleAgent, PlannerAgent, ExecutorAgent, and
// AutoPromptAgent (spec §4.7-§4.11), grounded on
// original_source/nyuctf_multiagent/agent.py's BaseAgent/RunOneRound split.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/backend"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/conversation"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/environment"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/prompt"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
	"github.com/nyu-llm-ctf/agentcore/internal/observability"
	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

// Error is a run-fatal error raised when a non-executor role's backend
// reports an error (spec §4.7 step 2).
type Error struct {
	Role    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s agent error: %s", e.Role, e.Message) }

// Base holds the state and helpers shared by every role. Per-role behavior
// lives in RunOneRound, implemented by the embedding type.
type Base struct {
	Role string

	Environment *environment.Environment
	Challenge   *models.Challenge
	Prompter    *prompt.Manager
	Backend     backend.Backend
	Tools       []tool.Tool

	Conversation *conversation.Conversation
	MaxRounds    int
	CurrentCost  float64

	Logger *observability.Logger
}

// stripFlagBody returns the flag's inner contents between the first '{' and
// the trailing '}', or the whole flag if it carries no braces (spec §4.7).
func stripFlagBody(flag string) string {
	start := strings.Index(flag, "{")
	if start == -1 || !strings.HasSuffix(flag, "}") {
		return flag
	}
	return flag[start+1 : len(flag)-1]
}

// checkFlag marks the environment solved if text contains the challenge
// flag, in full or its stripped inner form. A nil/empty text is a no-op.
func (b *Base) checkFlag(text string) {
	if text == "" || b.Environment == nil {
		return
	}
	flag := b.Challenge.Flag
	if strings.Contains(text, flag) {
		b.Environment.MarkSolved()
		return
	}
	if stripped := stripFlagBody(flag); stripped != flag && strings.Contains(text, stripped) {
		b.Environment.MarkSolved()
	}
}

// AddSystemMessage appends a SYSTEM message. No flag check: the system
// prompt is operator-authored, never model output.
func (b *Base) AddSystemMessage(text string) {
	b.Conversation.AppendSystem(text)
}

// AddUserMessage appends a USER message and runs the passive flag check.
func (b *Base) AddUserMessage(text string) {
	b.Conversation.AppendUser(text)
	b.checkFlag(text)
}

// AddAssistantMessage appends an ASSISTANT message and checks both its
// thought content and, if present, the model's raw tool-call arguments.
func (b *Base) AddAssistantMessage(content string, call *models.ToolCall) {
	b.Conversation.AppendAssistant(content, call)
	b.checkFlag(content)
	if call != nil {
		b.checkFlag(string(call.Arguments))
	}
}

// AddObservationMessage appends an OBSERVATION message and checks the
// (possibly truncated) result text it was just given.
func (b *Base) AddObservationMessage(result models.ToolResult) {
	b.Conversation.AppendObservation(result)
	b.checkFlag(fmt.Sprintf("%v", result.Result))
}

// roundOutcome is the shared return value of runRound, letting each role's
// thin RunOneRound react to delegate/finish_task/generate_prompt without
// duplicating the send/parse/dispatch plumbing.
type roundOutcome struct {
	// parsedCall is set when the model issued a tool call that parsed
	// successfully and was not one of the three intercepted names.
	parsedCall *models.ToolCall
	// interceptedName is set instead of running a tool when the call
	// matched a role-specific interception point.
	interceptedName string
	// erred is set when the executor role swallowed a backend error
	// instead of raising it; errorMessage carries the text.
	erred        bool
	errorMessage string
}

// runRound implements the send/cost/append/parse/dispatch sequence common
// to every role (spec §4.7 steps 1-6), stopping short of running a tool
// when parsedCall.Name matches one of the given intercepted names so the
// caller can special-case it. messages is the window to send, letting
// Single pass its hard-coded 5-observation window instead of the
// conversation's configured default.
func (b *Base) runRound(ctx context.Context, messages []conversation.Message, intercepted map[string]bool, tolerateBackendError bool) (roundOutcome, error) {
	b.log(ctx, "round start", "round", b.Conversation.Round())

	resp, err := b.Backend.Send(ctx, messages, b.Tools)
	if err != nil {
		return roundOutcome{}, err
	}
	if resp.Error != "" {
		if tolerateBackendError {
			b.log(ctx, "backend error, ending executor loop", "error", resp.Error)
			return roundOutcome{erred: true, errorMessage: resp.Error}, nil
		}
		return roundOutcome{}, &Error{Role: b.Role, Message: resp.Error}
	}

	b.CurrentCost += resp.Cost
	b.AddAssistantMessage(resp.Content, resp.ToolCall)

	if resp.ToolCall == nil {
		b.AddUserMessage(b.Prompter.Get("continue", b.Challenge, b.environmentView(), nil))
		return roundOutcome{}, nil
	}

	t, ok := b.toolFor(resp.ToolCall.Name)
	if !ok {
		b.AddObservationMessage(models.ErrorResult(*resp.ToolCall, fmt.Sprintf("unknown tool %q", resp.ToolCall.Name)))
		return roundOutcome{}, nil
	}

	ok2, parsedCall, errResult := backend.ParseToolArguments(*resp.ToolCall, t)
	if !ok2 {
		b.AddObservationMessage(errResult)
		return roundOutcome{}, nil
	}

	if intercepted[parsedCall.Name] {
		return roundOutcome{interceptedName: parsedCall.Name, parsedCall: &parsedCall}, nil
	}

	b.log(ctx, "dispatching tool", "tool", parsedCall.Name)
	result := b.Environment.RunTool(ctx, parsedCall)
	b.AddObservationMessage(result)
	return roundOutcome{parsedCall: &parsedCall}, nil
}

// log is a nil-safe wrapper so roles may be constructed without a logger in
// tests without every call site guarding it.
func (b *Base) log(ctx context.Context, msg string, args ...any) {
	if b.Logger == nil {
		return
	}
	b.Logger.Debug(ctx, msg, append([]any{"role", b.Role}, args...)...)
}

func (b *Base) toolFor(name string) (tool.Tool, bool) {
	for _, t := range b.Tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// EnvironmentView exposes the read-only environment state prompt templates
// may interpolate.
func (b *Base) EnvironmentView() prompt.EnvironmentView {
	return b.environmentView()
}

func (b *Base) environmentView() prompt.EnvironmentView {
	view := prompt.EnvironmentView{}
	if b.Environment != nil {
		view.Solved = b.Environment.Solved()
		view.Giveup = b.Environment.Giveup()
	}
	return view
}

// AddStartPrompts seeds the conversation with the role's system and initial
// prompts.
func (b *Base) AddStartPrompts(extra map[string]string) {
	b.AddSystemMessage(b.Prompter.Get("system", b.Challenge, b.environmentView(), nil))
	b.AddUserMessage(b.Prompter.Get("initial", b.Challenge, b.environmentView(), extra))
}
