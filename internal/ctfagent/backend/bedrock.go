package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/conversation"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

var bedrockModels = map[string]ModelPricing{
	"anthropic.claude-3-5-sonnet-20241022-v2:0": {MaxContext: 200000, CostPerInputTok: 3.0 / 1_000_000, CostPerOutputTok: 15.0 / 1_000_000},
	"meta.llama3-1-70b-instruct-v1:0":           {MaxContext: 128000, CostPerInputTok: 0.72 / 1_000_000, CostPerOutputTok: 0.72 / 1_000_000},
}

// BedrockBackend implements Backend against a Bedrock-hosted model, the
// concrete home for spec's arbitrary-routed "TOGETHER"-style third-party
// model identifier case (SPEC_FULL.md Domain Stack), grounded in pricing
// shape on original_source/nyuctf_multiagent/backends/together_backend.py.
type BedrockBackend struct {
	client *bedrockruntime.Client
	model  string
}

type BedrockConfig struct {
	Region string
	Model  string
}

func NewBedrockBackend(ctx context.Context, cfg BedrockConfig) (*BedrockBackend, error) {
	if _, ok := bedrockModels[cfg.Model]; !ok {
		return nil, fmt.Errorf("bedrock: model %q not in configured models", cfg.Model)
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: loading AWS config: %w", err)
	}
	return &BedrockBackend{client: bedrockruntime.NewFromConfig(awsCfg), model: cfg.Model}, nil
}

// converseMessage is the minimal subset of the Converse API request shape
// this backend needs.
func (b *BedrockBackend) Send(ctx context.Context, messages []conversation.Message, tools []tool.Tool) (Response, error) {
	var system []types.SystemContentBlock
	var convMessages []types.Message
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			system = append(system, &types.SystemContentBlockMemberText{Value: m.Content})
			continue
		}
		role := types.ConversationRoleUser
		var blocks []types.ContentBlock
		if m.Role == models.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		if m.Content != "" {
			blocks = append(blocks, &types.ContentBlockMemberText{Value: m.Content})
		}
		if m.ToolCall != nil {
			var input map[string]any = m.ToolCall.ParsedArguments
			blocks = append(blocks, &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
				ToolUseId: aws.String(m.ToolCall.ID),
				Name:      aws.String(m.ToolCall.Name),
				Input:     document(input),
			}})
		}
		if m.ToolResult != nil {
			resultJSON, _ := json.Marshal(m.ToolResult.Result)
			blocks = append(blocks, &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
				ToolUseId: aws.String(m.ToolResult.ID),
				Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: string(resultJSON)}},
			}})
		}
		if len(blocks) == 0 {
			continue
		}
		convMessages = append(convMessages, types.Message{Role: role, Content: blocks})
	}

	var toolConfig *types.ToolConfiguration
	if len(tools) > 0 {
		var specs []types.Tool
		for _, t := range tools {
			specs = append(specs, &types.ToolMemberToolSpec{Value: types.ToolSpecification{
				Name:        aws.String(t.Name()),
				Description: aws.String(t.Description()),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document(tool.Schema(t))},
			}})
		}
		toolConfig = &types.ToolConfiguration{Tools: specs}
	}

	resp, err := b.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:    aws.String(b.model),
		System:     system,
		Messages:   convMessages,
		ToolConfig: toolConfig,
	})
	if err != nil {
		return Response{Error: err.Error()}, nil
	}

	pricing := bedrockModels[b.model]
	var cost float64
	if resp.Usage != nil {
		cost = float64(aws.ToInt32(resp.Usage.InputTokens))*pricing.CostPerInputTok + float64(aws.ToInt32(resp.Usage.OutputTokens))*pricing.CostPerOutputTok
	}

	var out Response
	out.Cost = cost
	if msgOutput, ok := resp.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range msgOutput.Value.Content {
			switch v := block.(type) {
			case *types.ContentBlockMemberText:
				out.Content += v.Value
			case *types.ContentBlockMemberToolUse:
				args, _ := json.Marshal(v.Value.Input)
				out.ToolCall = &models.ToolCall{ID: aws.ToString(v.Value.ToolUseId), Name: aws.ToString(v.Value.Name), Arguments: args}
			}
		}
	}
	return out, nil
}

// document is a thin adapter from a plain map to bedrockruntime's
// smithydocument.Marshaler-compatible Document type.
func document(v map[string]any) types.Document {
	raw, _ := json.Marshal(v)
	return types.Document(raw)
}

// Model returns the configured model identifier.
func (b *BedrockBackend) Model() string { return b.model }
