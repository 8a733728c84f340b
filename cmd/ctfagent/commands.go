// commands.go contains the cobra command definitions for ctfagent. There is
// one command, "run", whose --single flag picks between the planner/executor
// multi-agent system and the single-agent variant (spec §4.9).
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func buildRunCmd() *cobra.Command {
	o := &runOpts{}
	var single bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an agent (or agent system) against one CTF challenge",
		Long: `run stands up an isolated working container for one challenge, drives
the configured agent(s) to completion, and writes a run log under
<logdir>/<experiment-name>/<canonical-name>.json.

By default it runs the planner/executor multi-agent system. --single runs
one combined agent with no delegation instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if single {
				return runSingle(cmd.Context(), o)
			}
			return runPlannerExecutor(cmd.Context(), o)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.challengeDir, "challenge", "", "path to the challenge directory containing challenge.json (required)")
	flags.IntVar(&o.year, "year", 0, "dataset year the challenge belongs to, for the canonical name (required)")
	flags.BoolVar(&o.finals, "finals", false, "mark the challenge as a finals-split challenge rather than quals")
	flags.StringVar(&o.category, "category", "", "override the challenge category (rev, pwn, crypto, misc, forensics, web); inferred from the challenge directory's parent name when empty")
	flags.StringVar(&o.configPath, "config", "", "path to the YAML run configuration (required)")
	flags.StringVar(&o.keysPath, "keys", "", "path to the keys.cfg credential file (required unless the only configured models are Bedrock-hosted)")
	flags.StringVar(&o.logdir, "logdir", "./logs", "root directory run logs are written under")
	flags.StringVar(&o.experiment, "experiment-name", "default", "experiment name, used both as a run-log subdirectory and a run-index key")
	flags.StringVar(&o.containerImage, "container-image", "", "override the challenge's own container image for the working container")
	flags.StringVar(&o.network, "container-network", "", "docker network the working and challenge containers join")
	flags.StringVar(&o.bedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock-hosted models")
	flags.BoolVar(&o.firecracker, "firecracker", false, "use the Firecracker runtime instead of Docker for the working container")
	flags.StringVar(&o.kernelImage, "firecracker-kernel", "", "path to the Firecracker kernel image (required with --firecracker)")
	flags.StringVar(&o.rootDrive, "firecracker-rootfs", "", "path to the Firecracker root drive image (required with --firecracker)")
	flags.StringVar(&o.socketDir, "firecracker-socket-dir", "/tmp", "directory Firecracker API sockets are created under")
	flags.Float64Var(&o.maxCost, "max-cost", 0, "override the config file's experiment.max_cost")
	flags.StringVar(&o.plannerModel, "planner-model", "", "override the config file's planner.model")
	flags.StringVar(&o.executorModel, "executor-model", "", "override the config file's executor.model")
	flags.StringVar(&o.autoprompterM, "autoprompter-model", "", "override the config file's autoprompter.model")
	flags.BoolVar(&single, "single", false, "run the single-agent variant instead of the planner/executor system")
	flags.BoolVar(&o.skipExisting, "skip-existing", false, "skip the run if the run index already has an entry for this experiment/challenge")
	flags.BoolVar(&o.overwrite, "overwrite-existing", false, "re-run and overwrite even if the run index has a prior entry (takes precedence over --skip-existing)")
	flags.BoolVar(&o.debug, "debug", false, "enable debug-level logging")
	flags.BoolVar(&o.quiet, "quiet", false, "suppress all but warning/error logging")

	cmd.MarkFlagRequired("challenge")
	cmd.MarkFlagRequired("year")
	cmd.MarkFlagRequired("config")

	return cmd
}

// checkFlags validates the combination of flags that cobra's own
// MarkFlagRequired can't express (mutually exclusive / conditionally
// required pairs).
func checkFlags(o *runOpts) error {
	if o.firecracker && (o.kernelImage == "" || o.rootDrive == "") {
		return fmt.Errorf("--firecracker requires --firecracker-kernel and --firecracker-rootfs")
	}
	if o.skipExisting && o.overwrite {
		return fmt.Errorf("--skip-existing and --overwrite-existing are mutually exclusive")
	}
	return nil
}
