package tools

import (
	"context"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
)

// Decompile and Disassemble run Ghidra headless inside the container,
// caching per-binary-content results. Grounded on
// original_source/llm_ctf/tools.py's Decompile/Disassemble, widened per
// spec §4.2's function fallback chain.

type Decompile struct{ runner *ghidraRunner }

func NewDecompile(e Execer) *Decompile {
	return &Decompile{runner: newGhidraRunner(e, "decompile")}
}

func (t *Decompile) Name() string        { return "decompile" }
func (t *Decompile) Description() string { return "Decompile a function from a binary in the challenge container using Ghidra." }

func (t *Decompile) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"binary":   {Type: tool.ParamString, Description: "Path to the binary inside the container."},
		"function": {Type: tool.ParamString, Description: "Function name, or fcn.<hexaddr> (default \"main\")."},
	}
}

func (t *Decompile) RequiredParameters() map[string]bool { return map[string]bool{"binary": true} }

func (t *Decompile) Setup(ctx context.Context) error              { return nil }
func (t *Decompile) Teardown(ctx context.Context, err error) error { return nil }

func (t *Decompile) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	binary, _ := args["binary"].(string)
	function, ok := args["function"].(string)
	if !ok || function == "" {
		function = "main"
	}
	return t.runner.run(ctx, binary, function)
}

type Disassemble struct{ runner *ghidraRunner }

func NewDisassemble(e Execer) *Disassemble {
	return &Disassemble{runner: newGhidraRunner(e, "disassemble")}
}

func (t *Disassemble) Name() string        { return "disassemble" }
func (t *Disassemble) Description() string { return "Disassemble a function from a binary in the challenge container using Ghidra." }

func (t *Disassemble) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"binary":   {Type: tool.ParamString, Description: "Path to the binary inside the container."},
		"function": {Type: tool.ParamString, Description: "Function name, or fcn.<hexaddr> (default \"main\")."},
	}
}

func (t *Disassemble) RequiredParameters() map[string]bool { return map[string]bool{"binary": true} }

func (t *Disassemble) Setup(ctx context.Context) error              { return nil }
func (t *Disassemble) Teardown(ctx context.Context, err error) error { return nil }

func (t *Disassemble) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	binary, _ := args["binary"].(string)
	function, ok := args["function"].(string)
	if !ok || function == "" {
		function = "main"
	}
	return t.runner.run(ctx, binary, function)
}
