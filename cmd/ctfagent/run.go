package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/agent"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/config"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/container"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/coordinator"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/environment"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/prompt"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/runindex"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/tool"
	"github.com/nyu-llm-ctf/agentcore/internal/observability"
	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

// setupContext bundles everything shared by both entry points: the loaded
// challenge, config, keys, a freshly Setup Environment, and the run's
// canonical name and log path.
type setupContext struct {
	ctx       context.Context
	challenge *models.Challenge
	cfg       *config.Config
	keys      map[string]string
	env       *environment.Environment
	logger    *observability.Logger
	metrics   *observability.Metrics
	events    *observability.EventRecorder
	canonical string
	logPath   string
}

func prepare(ctx context.Context, o *runOpts) (*setupContext, func(runErr error, exitReason models.ExitReason), error) {
	if err := checkFlags(o); err != nil {
		return nil, nil, err
	}

	level := "info"
	switch {
	case o.debug:
		level = "debug"
	case o.quiet:
		level = "warn"
	}
	logger := observability.NewLogger(observability.LogConfig{Level: level, Format: "json", AddSource: o.debug})
	metrics := observability.NewMetrics()
	events := observability.NewEventRecorder(observability.NewMemoryEventStore(0), logger)

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.maxCost > 0 {
		cfg.Experiment.MaxCost = o.maxCost
	}
	if o.plannerModel != "" {
		cfg.Planner.Model = o.plannerModel
	}
	if o.executorModel != "" {
		cfg.Executor.Model = o.executorModel
	}
	if o.autoprompterM != "" {
		cfg.Autoprompter.Model = o.autoprompterM
	}

	keys := map[string]string{}
	if o.keysPath != "" {
		keys, err = config.LoadKeys(o.keysPath)
		if err != nil {
			return nil, nil, err
		}
	}

	category := o.category
	if category == "" {
		category = filepath.Base(filepath.Dir(o.challengeDir))
	}
	challenge, err := models.LoadChallenge(filepath.Join(o.challengeDir, "challenge.json"), models.Category(category))
	if err != nil {
		return nil, nil, err
	}

	canonical, err := models.CanonicalName(o.year, o.finals, challenge.Category, challenge.Name)
	if err != nil {
		return nil, nil, err
	}
	logPath := models.RunLogPath(o.logdir, "runs", o.experiment, canonical)
	ctx = observability.AddRunID(ctx, canonical)

	idx, err := runindex.Open(filepath.Join(o.logdir, "run_index.db"))
	if err != nil {
		return nil, nil, err
	}
	if !o.overwrite && o.skipExisting {
		exists, err := idx.Exists(ctx, o.experiment, canonical)
		if err != nil {
			idx.Close()
			return nil, nil, err
		}
		if exists {
			idx.Close()
			return nil, nil, fmt.Errorf("run index already has an entry for %s/%s; skipping (--skip-existing)", o.experiment, canonical)
		}
	}

	containerImage := o.containerImage
	if containerImage == "" {
		containerImage = challenge.ContainerImage
	}

	runtime := newRuntime(o)
	registry := tool.NewRegistry()
	env := environment.New(challenge, runtime, registry, containerImage, o.network)
	if err := registerBuiltins(registry, env); err != nil {
		idx.Close()
		return nil, nil, err
	}

	chalMgr := container.NewChallengeManager(o.challengeDir)
	if err := chalMgr.StartChallenge(ctx, challenge, o.network); err != nil {
		idx.Close()
		return nil, nil, err
	}

	toolsetNames := tool.ToolsetForCategory(string(challenge.Category))
	if err := env.Setup(ctx, toolsetNames, o.challengeDir); err != nil {
		chalMgr.StopChallenge(ctx, challenge)
		idx.Close()
		return nil, nil, err
	}

	start := time.Now()
	events.RecordRunStart(ctx, canonical, map[string]interface{}{"challenge": challenge.Name, "category": string(challenge.Category)})

	teardown := func(runErr error, exitReason models.ExitReason) {
		env.Teardown(ctx, runErr)
		chalMgr.StopChallenge(ctx, challenge)
		idx.Record(ctx, o.experiment, canonical, env.Solved(), string(exitReason))
		idx.Close()
		events.RecordRunEnd(ctx, time.Since(start), runErr)
	}

	return &setupContext{
		ctx:       ctx,
		challenge: challenge,
		cfg:       cfg,
		keys:      keys,
		env:       env,
		logger:    logger,
		metrics:   metrics,
		events:    events,
		canonical: canonical,
		logPath:   logPath,
	}, teardown, nil
}

func loadRolePrompter(cfg *config.Config, role config.RoleConfig) (*prompt.Manager, error) {
	path := cfg.PromptPath(role)
	if path == "" {
		return nil, fmt.Errorf("role has no configured prompt template path")
	}
	return prompt.Load(path)
}

func buildAutoprompter(ctx context.Context, sc *setupContext, o *runOpts) (*agent.AutoPrompt, error) {
	if !sc.cfg.Experiment.EnableAutoprompt {
		return nil, nil
	}
	be, err := roleBackend(ctx, sc.cfg.Autoprompter, sc.keys, o.bedrockRegion)
	if err != nil {
		return nil, fmt.Errorf("autoprompter backend: %w", err)
	}
	prompter, err := loadRolePrompter(sc.cfg, sc.cfg.Autoprompter)
	if err != nil {
		return nil, fmt.Errorf("autoprompter prompts: %w", err)
	}
	toolset, err := sc.env.GetToolset(sc.cfg.Autoprompter.Toolset)
	if err != nil {
		return nil, fmt.Errorf("autoprompter toolset: %w", err)
	}
	return agent.NewAutoPrompt(sc.env, prompter, be, toolset, sc.cfg.Autoprompter.MaxRounds, sc.logger), nil
}

// runPlannerExecutor wires and drives the multi-agent system (spec §4.9).
func runPlannerExecutor(ctx context.Context, o *runOpts) error {
	sc, teardown, err := prepare(ctx, o)
	if err != nil {
		return err
	}
	ctx = sc.ctx

	autoprompter, err := buildAutoprompter(ctx, sc, o)
	if err != nil {
		teardown(err, models.ExitError)
		return err
	}

	plannerBackend, err := roleBackend(ctx, sc.cfg.Planner, sc.keys, o.bedrockRegion)
	if err != nil {
		teardown(err, models.ExitError)
		return fmt.Errorf("planner backend: %w", err)
	}
	plannerPrompter, err := loadRolePrompter(sc.cfg, sc.cfg.Planner)
	if err != nil {
		teardown(err, models.ExitError)
		return fmt.Errorf("planner prompts: %w", err)
	}
	plannerToolset, err := sc.env.GetToolset(sc.cfg.Planner.Toolset)
	if err != nil {
		teardown(err, models.ExitError)
		return fmt.Errorf("planner toolset: %w", err)
	}
	planner := agent.NewPlanner(sc.env, plannerPrompter, plannerBackend, plannerToolset, sc.cfg.Planner.MaxRounds, sc.logger)

	executorBackend, err := roleBackend(ctx, sc.cfg.Executor, sc.keys, o.bedrockRegion)
	if err != nil {
		teardown(err, models.ExitError)
		return fmt.Errorf("executor backend: %w", err)
	}
	executorPrompter, err := loadRolePrompter(sc.cfg, sc.cfg.Executor)
	if err != nil {
		teardown(err, models.ExitError)
		return fmt.Errorf("executor prompts: %w", err)
	}
	executorToolset, err := sc.env.GetToolset(sc.cfg.Executor.Toolset)
	if err != nil {
		teardown(err, models.ExitError)
		return fmt.Errorf("executor toolset: %w", err)
	}
	executorTmpl := agent.NewExecutor(sc.env, executorPrompter, executorBackend, executorToolset, sc.cfg.Executor.MaxRounds, sc.cfg.Executor.LenObservations, sc.logger)

	system := &coordinator.System{
		Environment:  sc.env,
		Challenge:    sc.challenge,
		Autoprompter: autoprompter,
		Planner:      planner,
		ExecutorTmpl: executorTmpl,
		MaxCost:      sc.cfg.Experiment.MaxCost,
		Logger:       sc.logger,
	}

	runErr := system.Run(ctx)
	teardown(runErr, system.ExitReason())

	rec := system.Dump()
	if runErr != nil {
		msg := runErr.Error()
		rec.Error = &msg
	}
	if err := models.WriteAtomic(sc.logPath, rec); err != nil {
		return err
	}
	return runErr
}

// runSingle wires and drives the single-agent variant (spec §4.9).
func runSingle(ctx context.Context, o *runOpts) error {
	sc, teardown, err := prepare(ctx, o)
	if err != nil {
		return err
	}
	ctx = sc.ctx

	autoprompter, err := buildAutoprompter(ctx, sc, o)
	if err != nil {
		teardown(err, models.ExitError)
		return err
	}

	executorBackend, err := roleBackend(ctx, sc.cfg.Executor, sc.keys, o.bedrockRegion)
	if err != nil {
		teardown(err, models.ExitError)
		return fmt.Errorf("executor backend: %w", err)
	}
	executorPrompter, err := loadRolePrompter(sc.cfg, sc.cfg.Executor)
	if err != nil {
		teardown(err, models.ExitError)
		return fmt.Errorf("executor prompts: %w", err)
	}
	executorToolset, err := sc.env.GetToolset(sc.cfg.Executor.Toolset)
	if err != nil {
		teardown(err, models.ExitError)
		return fmt.Errorf("executor toolset: %w", err)
	}
	single := agent.NewSingle(sc.env, executorPrompter, executorBackend, executorToolset, sc.cfg.Executor.MaxRounds, sc.logger)

	runner := &coordinator.SingleRunner{
		Environment:  sc.env,
		Challenge:    sc.challenge,
		Autoprompter: autoprompter,
		Executor:     single,
		MaxCost:      sc.cfg.Experiment.MaxCost,
		Logger:       sc.logger,
	}

	runErr := runner.Run(ctx)
	teardown(runErr, runner.ExitReason())

	rec := runner.Dump()
	if runErr != nil {
		msg := runErr.Error()
		rec.Error = &msg
	}
	if err := models.WriteAtomic(sc.logPath, rec); err != nil {
		return err
	}
	return runErr
}
