package tools

import (
	"context"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
)

// FinishTaskToolName is the stable name agents special-case before dispatch.
const FinishTaskToolName = "finish_task"

// FinishTask is executor-only and is never actually executed: the executor
// agent intercepts calls to FinishTaskToolName before reaching
// Environment.RunTool and terminates its loop (spec §4.2, §4.8).
type FinishTask struct{}

func NewFinishTask() *FinishTask { return &FinishTask{} }

func (t *FinishTask) Name() string        { return FinishTaskToolName }
func (t *FinishTask) Description() string { return "Report the outcome of the delegated task back to the planner." }

func (t *FinishTask) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"summary": {Type: tool.ParamString, Description: "Natural-language summary of the task outcome."},
	}
}

func (t *FinishTask) RequiredParameters() map[string]bool { return map[string]bool{"summary": true} }

func (t *FinishTask) Setup(ctx context.Context) error              { return nil }
func (t *FinishTask) Teardown(ctx context.Context, err error) error { return nil }

func (t *FinishTask) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	panic("finish_task is special-cased by ExecutorAgent and must never reach Environment.RunTool")
}
