package tools

import (
	"context"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
)

// DelegateToolName is the stable name agents special-case before dispatch.
const DelegateToolName = "delegate"

// Delegate is planner-only and is never actually executed: the planner
// agent intercepts calls to DelegateToolName before reaching
// Environment.RunTool and hands the task to the coordinator (spec §4.2,
// §4.9). It is registered only so its schema is visible to the model.
type Delegate struct{}

func NewDelegate() *Delegate { return &Delegate{} }

func (t *Delegate) Name() string        { return DelegateToolName }
func (t *Delegate) Description() string { return "Delegate a sub-task to a fresh executor agent." }

func (t *Delegate) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"task": {Type: tool.ParamString, Description: "Natural-language description of the sub-task."},
	}
}

func (t *Delegate) RequiredParameters() map[string]bool { return map[string]bool{"task": true} }

func (t *Delegate) Setup(ctx context.Context) error              { return nil }
func (t *Delegate) Teardown(ctx context.Context, err error) error { return nil }

func (t *Delegate) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	panic("delegate is special-cased by PlannerAgent and must never reach Environment.RunTool")
}
