// Package backend defines the Backend interface (spec §4.5): a single
// Send operation per completion, and the shared argument-parsing pipeline
// every concrete provider reuses.
package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/conversation"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

// Response is the result of one Send call.
type Response struct {
	Content  string
	ToolCall *models.ToolCall
	Cost     float64
	Error    string
}

// ModelPricing gives the per-token USD cost for a model, matching the
// original's MODELS dict (cost_per_input_token/cost_per_output_token).
type ModelPricing struct {
	MaxContext       int
	CostPerInputTok  float64
	CostPerOutputTok float64
}

// Backend is the contract every concrete LLM provider implements.
type Backend interface {
	// Send transmits the conversation and returns at most one tool call.
	// Rate-limit and bad-request conditions are reported through
	// Response.Error rather than returned as a Go error; a non-nil error
	// return is reserved for conditions the caller cannot recover from
	// (e.g. a cancelled context).
	Send(ctx context.Context, messages []conversation.Message, tools []tool.Tool) (Response, error)

	// Model returns the configured model identifier, recorded in the run
	// log (spec §6).
	Model() string
}

// ParseToolArguments decodes a ToolCall's raw arguments (JSON text if a
// string), checks every required parameter is present, drops unknown
// parameters, and coerces "number"-typed values to float64. Grounded on
// original_source/nyuctf_multiagent/backends/backend.py's
// parse_tool_arguments. On failure it returns a ToolResult carrying
// {"error": …}.
func ParseToolArguments(call models.ToolCall, t tool.Tool) (bool, models.ToolCall, models.ToolResult) {
	if call.ParsedArguments != nil {
		return true, call, models.ToolResult{}
	}

	var parsed map[string]any
	if len(call.Arguments) > 0 && call.Arguments[0] == '"' {
		var s string
		if err := json.Unmarshal(call.Arguments, &s); err != nil {
			return false, call, models.ErrorResult(call, fmt.Sprintf("%T while decoding parameters for %s: %v", err, call.Name, err))
		}
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return false, call, models.ErrorResult(call, fmt.Sprintf("%T while decoding parameters for %s: %v", err, call.Name, err))
		}
	} else {
		if err := json.Unmarshal(call.Arguments, &parsed); err != nil {
			return false, call, models.ErrorResult(call, fmt.Sprintf("%T while decoding parameters for %s: %v", err, call.Name, err))
		}
	}

	required := t.RequiredParameters()
	var missing []string
	for name, req := range required {
		if !req {
			continue
		}
		if _, ok := parsed[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return false, call, models.ErrorResult(call, fmt.Sprintf("Missing required parameters for %s: %v", call.Name, missing))
	}

	params := t.Parameters()
	for name := range parsed {
		if _, ok := params[name]; !ok {
			delete(parsed, name)
		}
	}

	for name, p := range params {
		if p.Type != tool.ParamNumber {
			continue
		}
		v, ok := parsed[name]
		if !ok {
			continue
		}
		f, err := toFloat(v)
		if err != nil {
			return false, call, models.ErrorResult(call, fmt.Sprintf("Type error in parameters for %s: %v", call.Name, err))
		}
		parsed[name] = f
	}

	call.ParsedArguments = parsed
	return true, call, models.ToolResult{}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%f", &f); err != nil {
			return 0, fmt.Errorf("could not convert %q to float64", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("could not convert %v (%T) to float64", v, v)
	}
}
