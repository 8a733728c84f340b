package tools

import (
	"context"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
)

// GeneratePromptToolName is the stable name the autoprompter special-cases.
const GeneratePromptToolName = "generate_prompt"

// GeneratePrompt is autoprompter-only and is never actually executed: the
// autoprompter agent intercepts calls to GeneratePromptToolName and captures
// the generated planner seed prompt (spec §4.2, §4.11).
type GeneratePrompt struct{}

func NewGeneratePrompt() *GeneratePrompt { return &GeneratePrompt{} }

func (t *GeneratePrompt) Name() string        { return GeneratePromptToolName }
func (t *GeneratePrompt) Description() string { return "Produce the initial prompt the planner will be seeded with." }

func (t *GeneratePrompt) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"prompt": {Type: tool.ParamString, Description: "The generated planner seed prompt."},
	}
}

func (t *GeneratePrompt) RequiredParameters() map[string]bool { return map[string]bool{"prompt": true} }

func (t *GeneratePrompt) Setup(ctx context.Context) error              { return nil }
func (t *GeneratePrompt) Teardown(ctx context.Context, err error) error { return nil }

func (t *GeneratePrompt) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	panic("generate_prompt is special-cased by AutoPromptAgent and must never reach Environment.RunTool")
}
