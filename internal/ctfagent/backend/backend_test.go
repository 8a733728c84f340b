package backend

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

type stubTool struct {
	params   map[string]tool.Param
	required map[string]bool
}

func (s stubTool) Name() string                       { return "run_command" }
func (s stubTool) Description() string                { return "" }
func (s stubTool) Parameters() map[string]tool.Param   { return s.params }
func (s stubTool) RequiredParameters() map[string]bool { return s.required }
func (s stubTool) Setup(ctx context.Context) error     { return nil }
func (s stubTool) Teardown(ctx context.Context, err error) error { return nil }
func (s stubTool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	return nil, nil
}

func TestParseToolArgumentsRequiredMissing(t *testing.T) {
	call := models.ToolCall{ID: "1", Name: "run_command", Arguments: json.RawMessage(`{}`)}
	tl := stubTool{
		params:   map[string]tool.Param{"command": {Type: tool.ParamString}},
		required: map[string]bool{"command": true},
	}
	ok, _, result := ParseToolArguments(call, tl)
	if ok {
		t.Fatalf("expected failure for missing required parameter")
	}
	errMap, _ := result.Result.(map[string]any)
	if errMap == nil || errMap["error"] == "" {
		t.Errorf("expected an error message, got %+v", result)
	}
}

func TestParseToolArgumentsDropsUnknownAndCoercesNumbers(t *testing.T) {
	call := models.ToolCall{ID: "1", Name: "run_command", Arguments: json.RawMessage(`{"command":"ls","timeout":"30","extra":"drop me"}`)}
	tl := stubTool{
		params: map[string]tool.Param{
			"command": {Type: tool.ParamString},
			"timeout": {Type: tool.ParamNumber},
		},
		required: map[string]bool{"command": true},
	}
	ok, parsedCall, _ := ParseToolArguments(call, tl)
	if !ok {
		t.Fatalf("expected success")
	}
	if _, present := parsedCall.ParsedArguments["extra"]; present {
		t.Errorf("unknown parameter %q was not dropped", "extra")
	}
	if v, ok := parsedCall.ParsedArguments["timeout"].(float64); !ok || v != 30 {
		t.Errorf("timeout not coerced to float64: %#v", parsedCall.ParsedArguments["timeout"])
	}
}

func TestParseToolArgumentsAlreadyParsedIsIdempotent(t *testing.T) {
	call := models.ToolCall{ID: "1", Name: "run_command", ParsedArguments: map[string]any{"command": "ls"}}
	tl := stubTool{params: map[string]tool.Param{"command": {Type: tool.ParamString}}, required: map[string]bool{"command": true}}
	ok, parsedCall, _ := ParseToolArguments(call, tl)
	if !ok {
		t.Fatalf("expected success")
	}
	if parsedCall.ParsedArguments["command"] != "ls" {
		t.Errorf("already-parsed arguments must pass through unchanged")
	}
}
