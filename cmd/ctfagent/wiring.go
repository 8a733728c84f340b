package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/backend"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/config"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/container"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/environment"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tools"
)

// runOpts collects every flag the two run subcommands share.
type runOpts struct {
	challengeDir   string
	year           int
	finals         bool
	category       string
	configPath     string
	keysPath       string
	logdir         string
	experiment     string
	containerImage string
	network        string
	bedrockRegion  string
	firecracker    bool
	kernelImage    string
	rootDrive      string
	socketDir      string
	maxCost        float64
	plannerModel   string
	executorModel  string
	autoprompterM  string
	debug          bool
	quiet          bool
	skipExisting   bool
	overwrite      bool
}

// newRuntime picks the container.Runtime implementation, defaulting to
// Docker (spec §4.1 "a local container runtime by default").
func newRuntime(o *runOpts) container.Runtime {
	if o.firecracker {
		return container.NewFirecrackerRuntime(o.kernelImage, o.rootDrive, o.socketDir)
	}
	return container.NewDockerRuntime()
}

// registerBuiltins registers every built-in tool into reg, narrowed through
// env's Execer/CopyInner/Solver/Giveupper capability interfaces (spec §4.2,
// §9).
func registerBuiltins(reg *tool.Registry, env *environment.Environment) error {
	builtins := []tool.Tool{
		tools.NewRunCommand(env),
		tools.NewCreateFile(env),
		tools.NewSubmitFlag(env),
		tools.NewGiveUp(env),
		tools.NewDisassemble(env),
		tools.NewDecompile(env),
		tools.NewDelegate(),
		tools.NewFinishTask(),
		tools.NewGeneratePrompt(),
		tools.NewBrowseService(),
	}
	for _, t := range builtins {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// roleBackend picks the concrete Backend for a role's configured model,
// routing by the model identifier's shape: the same dispatch the original
// makes on backend name, adapted to pick providers by model prefix since
// this config carries one model field per role rather than a backend tag.
func roleBackend(ctx context.Context, role config.RoleConfig, keys map[string]string, bedrockRegion string) (backend.Backend, error) {
	model := role.Model
	switch {
	case strings.HasPrefix(model, "claude"):
		return backend.NewAnthropicBackend(backend.AnthropicConfig{
			APIKey:      keys["ANTHROPIC"],
			Model:       model,
			MaxTokens:   role.MaxTokens,
			Temperature: role.Temperature,
		})
	case strings.HasPrefix(model, "gpt") || strings.HasPrefix(model, "o1"):
		return backend.NewOpenAIBackend(backend.OpenAIConfig{
			APIKey:      keys["OPENAI"],
			Model:       model,
			MaxTokens:   role.MaxTokens,
			Temperature: float32(role.Temperature),
		})
	case strings.HasPrefix(model, "gemini"):
		return backend.NewGeminiBackend(ctx, backend.GeminiConfig{
			APIKey: keys["GEMINI"],
			Model:  model,
		})
	case strings.Contains(model, "."):
		// Bedrock model IDs are "<provider>.<model>[:version]" (e.g.
		// "anthropic.claude-3-5-sonnet-20241022-v2:0").
		return backend.NewBedrockBackend(ctx, backend.BedrockConfig{
			Region: bedrockRegion,
			Model:  model,
		})
	default:
		return nil, fmt.Errorf("model %q does not match a known backend (claude*, gpt*/o1*, gemini*, or a dotted bedrock model id)", model)
	}
}
