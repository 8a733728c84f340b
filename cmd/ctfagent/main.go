// Package main provides the CLI entry point for ctfagent, a multi-agent
// LLM system that attempts CTF challenges end to end: it stands up an
// isolated working container, hands a planner/executor pair (or a single
// combined agent) a tool set to explore the challenge with, and writes a
// run log recording the transcript, cost, and outcome.
//
// # Basic usage
//
//	ctfagent run --challenge ./dataset/pwn/baby_rop --year 2025 \
//	    --config config.yaml --keys keys.cfg --logdir ./logs \
//	    --experiment-name baseline
//
//	ctfagent run --challenge ./dataset/pwn/baby_rop --year 2025 --single \
//	    --config config.yaml --keys keys.cfg --logdir ./logs \
//	    --experiment-name baseline
//
// # Environment
//
// Model credentials are not read from the environment: they live in the
// keys.cfg file passed via --keys (spec §6), one "TAG=value" line per
// backend (OPENAI, ANTHROPIC, GEMINI). Bedrock models use the ambient AWS
// credential chain instead and only need --bedrock-region.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with every subcommand attached.
// Kept separate from main so tests can build and inspect the tree.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ctfagent",
		Short: "ctfagent - multi-agent LLM system for CTF challenges",
		Long: `ctfagent runs one or more LLM-backed agents against a single CTF
challenge inside an isolated container, records the transcript and cost,
and writes a run log.

Supported backends: Anthropic (Claude), OpenAI (GPT), Google (Gemini),
and any Bedrock-hosted model.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildRunCmd())
	return rootCmd
}
