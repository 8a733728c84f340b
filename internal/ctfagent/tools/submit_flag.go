package tools

import (
	"context"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
)

// SubmitFlag compares the submitted flag against the challenge's real flag.
// Grounded on spec §4.2 (name/shape supersede the original's `checkflag`).
type SubmitFlag struct {
	Solver Solver
}

func NewSubmitFlag(s Solver) *SubmitFlag { return &SubmitFlag{Solver: s} }

func (t *SubmitFlag) Name() string        { return "submit_flag" }
func (t *SubmitFlag) Description() string { return "Submit a candidate flag for this challenge." }

func (t *SubmitFlag) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"flag": {Type: tool.ParamString, Description: "The candidate flag string."},
	}
}

func (t *SubmitFlag) RequiredParameters() map[string]bool {
	return map[string]bool{"flag": true}
}

func (t *SubmitFlag) Setup(ctx context.Context) error              { return nil }
func (t *SubmitFlag) Teardown(ctx context.Context, err error) error { return nil }

func (t *SubmitFlag) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	flag, _ := args["flag"].(string)
	if flag == t.Solver.Flag() {
		t.Solver.MarkSolved()
		return map[string]any{"success": true}, nil
	}
	return map[string]any{"error": "Flag is wrong!"}, nil
}
