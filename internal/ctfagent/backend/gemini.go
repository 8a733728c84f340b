package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/conversation"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

var geminiModels = map[string]ModelPricing{
	"gemini-2.0-flash": {MaxContext: 1_000_000, CostPerInputTok: 0.1 / 1_000_000, CostPerOutputTok: 0.4 / 1_000_000},
	"gemini-1.5-pro":   {MaxContext: 2_000_000, CostPerInputTok: 1.25 / 1_000_000, CostPerOutputTok: 5.0 / 1_000_000},
}

// GeminiBackend implements Backend against Google's Gemini models, the
// concrete home for keys.cfg's GEMINI tag. Grounded on
// original_source/nyuctf_multiagent/backends/gemini_backend.py's pricing
// table shape.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

func NewGeminiBackend(ctx context.Context, cfg GeminiConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: APIKey is required")
	}
	if _, ok := geminiModels[cfg.Model]; !ok {
		return nil, fmt.Errorf("gemini: model %q not in configured models", cfg.Model)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	return &GeminiBackend{client: client, model: cfg.Model}, nil
}

func (b *GeminiBackend) Send(ctx context.Context, messages []conversation.Message, tools []tool.Tool) (Response, error) {
	var system string
	var contents []*genai.Content
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			system = m.Content
			continue
		}
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		var parts []*genai.Part
		if m.Content != "" {
			parts = append(parts, genai.NewPartFromText(m.Content))
		}
		if m.ToolCall != nil {
			parts = append(parts, genai.NewPartFromFunctionCall(m.ToolCall.Name, m.ToolCall.ParsedArguments))
		}
		if m.ToolResult != nil {
			resultMap, _ := m.ToolResult.Result.(map[string]any)
			parts = append(parts, genai.NewPartFromFunctionResponse(m.ToolResult.Name, resultMap))
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	var funcDecls []*genai.FunctionDeclaration
	for _, t := range tools {
		schema := tool.Schema(t)
		raw, _ := json.Marshal(schema)
		var params genai.Schema
		_ = json.Unmarshal(raw, &params)
		funcDecls = append(funcDecls, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  &params,
		})
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, "system"),
		Tools:             []*genai.Tool{{FunctionDeclarations: funcDecls}},
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, cfg)
	if err != nil {
		return Response{Error: err.Error()}, nil
	}

	pricing := geminiModels[b.model]
	var cost float64
	if resp.UsageMetadata != nil {
		cost = float64(resp.UsageMetadata.PromptTokenCount)*pricing.CostPerInputTok + float64(resp.UsageMetadata.CandidatesTokenCount)*pricing.CostPerOutputTok
	}

	var out Response
	out.Cost = cost
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				out.Content += part.Text
			}
			if part.FunctionCall != nil {
				args, _ := json.Marshal(part.FunctionCall.Args)
				out.ToolCall = &models.ToolCall{ID: models.NewToolCallID(), Name: part.FunctionCall.Name, Arguments: args}
			}
		}
	}
	return out, nil
}

// Model returns the configured model identifier.
func (b *GeminiBackend) Model() string { return b.model }
