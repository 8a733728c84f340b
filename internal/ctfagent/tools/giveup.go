package tools

import (
	"context"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
)

// GiveUp lets the model end a run it cannot solve. Replaces the original's
// exception-based control flow with a polled mutable flag (spec §9).
// confirm is advisory only (spec §9 open question 2, decided in DESIGN.md):
// giveup always sets the flag regardless of its value.
type GiveUp struct {
	Giveupper Giveupper
}

func NewGiveUp(g Giveupper) *GiveUp { return &GiveUp{Giveupper: g} }

func (t *GiveUp) Name() string        { return "giveup" }
func (t *GiveUp) Description() string { return "Give up on this challenge." }

func (t *GiveUp) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"confirm": {Type: tool.ParamBoolean, Description: "Confirm giving up (advisory; giveup always takes effect)."},
	}
}

func (t *GiveUp) RequiredParameters() map[string]bool { return map[string]bool{} }

func (t *GiveUp) Setup(ctx context.Context) error              { return nil }
func (t *GiveUp) Teardown(ctx context.Context, err error) error { return nil }

func (t *GiveUp) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	t.Giveupper.MarkGiveup()
	return map[string]any{"success": true}, nil
}
