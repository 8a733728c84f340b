package backend

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/conversation"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

var openaiModels = map[string]ModelPricing{
	"gpt-4o":      {MaxContext: 128000, CostPerInputTok: 2.5 / 1_000_000, CostPerOutputTok: 10.0 / 1_000_000},
	"gpt-4o-mini": {MaxContext: 128000, CostPerInputTok: 0.15 / 1_000_000, CostPerOutputTok: 0.6 / 1_000_000},
	"o1":          {MaxContext: 200000, CostPerInputTok: 15.0 / 1_000_000, CostPerOutputTok: 60.0 / 1_000_000},
}

// OpenAIBackend implements Backend against OpenAI chat-completion models.
// Grounded on original_source/nyuctf_multiagent/backends/openai_backend.py
// for the pricing-table shape and on the teacher's client-construction
// pattern for github.com/sashabaranov/go-openai usage elsewhere in the pack.
type OpenAIBackend struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: APIKey is required")
	}
	if _, ok := openaiModels[cfg.Model]; !ok {
		return nil, fmt.Errorf("openai: model %q not in configured models", cfg.Model)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (b *OpenAIBackend) Send(ctx context.Context, messages []conversation.Message, tools []tool.Tool) (Response, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Content})
		case models.RoleUser:
			chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		case models.RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
			if m.ToolCall != nil {
				args := m.ToolCall.Arguments
				if len(m.ToolCall.ParsedArguments) > 0 {
					args, _ = json.Marshal(m.ToolCall.ParsedArguments)
				}
				msg.ToolCalls = []openai.ToolCall{{
					ID:   m.ToolCall.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      m.ToolCall.Name,
						Arguments: string(args),
					},
				}}
			}
			chatMessages = append(chatMessages, msg)
		case models.RoleObservation:
			resultJSON, _ := json.Marshal(m.ToolResult.Result)
			chatMessages = append(chatMessages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    string(resultJSON),
				ToolCallID: m.ToolResult.ID,
			})
		}
	}

	toolDefs := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		toolDefs = append(toolDefs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  tool.Schema(t),
			},
		})
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    chatMessages,
		Tools:       toolDefs,
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
	})
	if err != nil {
		return Response{Error: err.Error()}, nil
	}
	if len(resp.Choices) == 0 {
		return Response{Error: "openai: empty choices in response"}, nil
	}

	pricing := openaiModels[b.model]
	cost := float64(resp.Usage.PromptTokens)*pricing.CostPerInputTok + float64(resp.Usage.CompletionTokens)*pricing.CostPerOutputTok

	choice := resp.Choices[0].Message
	out := Response{Content: choice.Content, Cost: cost}
	if len(choice.ToolCalls) > 0 {
		tc := choice.ToolCalls[0]
		out.ToolCall = &models.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: json.RawMessage(tc.Function.Arguments)}
	}
	return out, nil
}

// Model returns the configured model identifier.
func (b *OpenAIBackend) Model() string { return b.model }
