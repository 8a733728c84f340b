package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/conversation"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

// anthropicModels mirrors the original's per-model pricing table
// (original_source/nyuctf_multiagent/backends/*_backend.py MODELS dicts).
var anthropicModels = map[string]ModelPricing{
	"claude-sonnet-4-20250514": {MaxContext: 200000, CostPerInputTok: 3.0 / 1_000_000, CostPerOutputTok: 15.0 / 1_000_000},
	"claude-opus-4-20250514":   {MaxContext: 200000, CostPerInputTok: 15.0 / 1_000_000, CostPerOutputTok: 75.0 / 1_000_000},
	"claude-3-5-sonnet-latest": {MaxContext: 200000, CostPerInputTok: 3.0 / 1_000_000, CostPerOutputTok: 15.0 / 1_000_000},
}

// AnthropicBackend implements Backend against Claude models. Grounded on
// internal/agent/providers/anthropic.go's client construction and message
// conversion, adapted from streaming to a single synchronous call (spec's
// non-goal rules out streaming token output).
type AnthropicBackend struct {
	client       anthropic.Client
	model        string
	maxTokens    int
	temperature  float64
}

// AnthropicConfig configures an AnthropicBackend.
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

func NewAnthropicBackend(cfg AnthropicConfig) (*AnthropicBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: APIKey is required")
	}
	if _, ok := anthropicModels[cfg.Model]; !ok {
		return nil, fmt.Errorf("anthropic: model %q not in configured models", cfg.Model)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return &AnthropicBackend{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (b *AnthropicBackend) Send(ctx context.Context, messages []conversation.Message, tools []tool.Tool) (Response, error) {
	var system string
	var msgParams []anthropic.MessageParam
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			system = m.Content
			continue
		}
		var content []anthropic.ContentBlockParamUnion
		if m.Content != "" {
			content = append(content, anthropic.NewTextBlock(m.Content))
		}
		if m.ToolCall != nil {
			var input map[string]any
			if len(m.ToolCall.ParsedArguments) > 0 {
				input = m.ToolCall.ParsedArguments
			} else {
				_ = json.Unmarshal(m.ToolCall.Arguments, &input)
			}
			content = append(content, anthropic.NewToolUseBlock(m.ToolCall.ID, input, m.ToolCall.Name))
		}
		if m.ToolResult != nil {
			resultJSON, _ := json.Marshal(m.ToolResult.Result)
			content = append(content, anthropic.NewToolResultBlock(m.ToolResult.ID, string(resultJSON), false))
		}
		if len(content) == 0 {
			continue
		}
		if m.Role == models.RoleAssistant {
			msgParams = append(msgParams, anthropic.NewAssistantMessage(content...))
		} else {
			msgParams = append(msgParams, anthropic.NewUserMessage(content...))
		}
	}

	toolParams := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		toolParams = append(toolParams, anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: tool.Schema(t)["properties"],
			Required:   tool.Schema(t)["required"].([]string),
		}, t.Name()))
	}

	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: int64(b.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  msgParams,
		Tools:     toolParams,
	})
	if err != nil {
		return Response{Error: err.Error()}, nil
	}

	pricing := anthropicModels[b.model]
	cost := float64(resp.Usage.InputTokens)*pricing.CostPerInputTok + float64(resp.Usage.OutputTokens)*pricing.CostPerOutputTok

	var out Response
	out.Cost = cost
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Content += variant.Text
		case anthropic.ToolUseBlock:
			args, _ := json.Marshal(variant.Input)
			out.ToolCall = &models.ToolCall{ID: variant.ID, Name: variant.Name, Arguments: args}
		}
	}
	return out, nil
}

// Model returns the configured model identifier.
func (b *AnthropicBackend) Model() string { return b.model }
