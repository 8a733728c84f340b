// Package coordinator implements PlannerExecutorSystem: the multi-agent
// sequencing that seeds the planner, spawns executors for delegated tasks,
// and arbitrates the run's global cost ceiling (spec §4.9).
package coordinator

import (
	"context"
	"time"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/agent"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/environment"
	"github.com/nyu-llm-ctf/agentcore/internal/observability"
	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

// System holds every agent of one multi-agent run and drives it to
// completion, grounded on
// original_source/nyuctf_multiagent/agent.py's PlannerExecutorSystem.
type System struct {
	Environment *environment.Environment
	Challenge   *models.Challenge

	Autoprompter *agent.AutoPrompt // nil when disabled
	Planner      *agent.Planner
	ExecutorTmpl *agent.Executor // cloned via .New() per delegated task

	MaxCost float64
	Logger  *observability.Logger

	AllExecutors []*agent.Executor
	StartTime    time.Time
	EndTime      time.Time
}

// TotalCost sums planner + every spawned executor + (if enabled) the
// autoprompter's cost, re-read by every loop's continue predicate
// (spec §4.9 "Global cost arbitration").
func (s *System) TotalCost() float64 {
	cost := s.Planner.CurrentCost
	for _, e := range s.AllExecutors {
		cost += e.CurrentCost
	}
	if s.Autoprompter != nil {
		cost += s.Autoprompter.CurrentCost
	}
	return cost
}

// withinBudget reports whether the run may still advance: neither solved
// nor given up, and within the global cost ceiling.
func (s *System) withinBudget() bool {
	return !s.Environment.Solved() && !s.Environment.Giveup() && s.TotalCost() <= s.MaxCost
}

// runAutoprompter runs the autoprompter loop until it produces a prompt,
// round/cost budget is exhausted, or the challenge is solved; falls back to
// the one-shot escape hatch if budget remains but no prompt was produced
// (spec §4.9 step 1).
func (s *System) runAutoprompter(ctx context.Context) error {
	ap := s.Autoprompter
	for !s.Environment.Solved() && !ap.Finished && ap.Conversation.Round() <= ap.MaxRounds && s.TotalCost() <= s.MaxCost {
		ap.Conversation.NextRound()
		if err := ap.RunOneRound(ctx); err != nil {
			return err
		}
	}
	if !s.Environment.Solved() && s.TotalCost() <= s.MaxCost && ap.AutoPrompt == nil {
		ap.RunForAutoPrompt(ctx)
	}
	return nil
}

// Run executes the full sequencing: optional autoprompter, planner seed,
// planner loop with delegate-triggered executor spawns, until solved,
// given up, round-exhausted, or cost-exhausted (spec §4.9).
func (s *System) Run(ctx context.Context) error {
	s.StartTime = time.Now()
	defer func() { s.EndTime = time.Now() }()

	plannerInitial := s.Planner.Prompter.Get("initial", s.Challenge, s.Planner.EnvironmentView(), nil)

	if s.Autoprompter != nil {
		if err := s.runAutoprompter(ctx); err != nil {
			return err
		}
		if s.Autoprompter.AutoPrompt != nil {
			plannerInitial = *s.Autoprompter.AutoPrompt
		}
	}

	s.Planner.AddSystemMessage(s.Planner.Prompter.Get("system", s.Challenge, s.Planner.EnvironmentView(), nil))
	s.Planner.AddUserMessage(plannerInitial)

	for s.withinBudget() && s.Planner.Conversation.Round() <= s.Planner.MaxRounds {
		s.Planner.Conversation.NextRound()
		if err := s.Planner.RunOneRound(ctx); err != nil {
			return err
		}

		if s.Planner.DelegatedTask != nil {
			task := s.Planner.DelegatedTask
			s.Planner.DelegatedTask = nil
			summary := s.runExecutor(ctx, task)
			s.Planner.AddObservationMessage(models.ForCall(*task, summary))
		}
	}
	return nil
}

// runExecutor spawns a fresh Executor for task, advances it to completion
// or exhaustion, and returns the text to hand back to the planner as the
// delegate() call's observation (spec §4.9 "RunExecutor").
func (s *System) runExecutor(ctx context.Context, task *models.ToolCall) string {
	exec := s.ExecutorTmpl.New()
	s.AllExecutors = append(s.AllExecutors, exec)

	taskDescription, _ := task.ParsedArguments["task"].(string)
	exec.AddSystemMessage(exec.Prompter.Get("system", s.Challenge, exec.EnvironmentView(), nil))
	exec.AddUserMessage(exec.Prompter.Get("initial", s.Challenge, exec.EnvironmentView(), map[string]string{"task_description": taskDescription}))

	for !s.Environment.Solved() && !exec.Finished && exec.Conversation.Round() <= exec.MaxRounds && s.TotalCost() <= s.MaxCost {
		exec.Conversation.NextRound()
		if err := exec.RunOneRound(ctx); err != nil {
			exec.Finished = true
			exec.RunError = err.Error()
			break
		}
	}

	if !s.Environment.Solved() && s.TotalCost() <= s.MaxCost && exec.FinishSummary == nil {
		exec.RunForFinishSummary(ctx)
	}

	switch {
	case exec.Finished && exec.FinishSummary != nil:
		return *exec.FinishSummary
	case exec.RunError != "":
		return exec.Prompter.Get("finish_error", s.Challenge, exec.EnvironmentView(), map[string]string{"error": exec.RunError})
	default:
		return exec.Prompter.Get("finish_empty", s.Challenge, exec.EnvironmentView(), nil)
	}
}

// ExitReason classifies why the run ended, first match wins (spec §4.9
// step 4 / §4.10): solved, giveup, cost, planner_rounds, unknown.
func (s *System) ExitReason() models.ExitReason {
	switch {
	case s.Environment.Solved():
		return models.ExitSolved
	case s.Environment.Giveup():
		return models.ExitGiveup
	case s.TotalCost() > s.MaxCost:
		return models.ExitCost
	case s.Planner.Conversation.Round() > s.Planner.MaxRounds:
		return models.ExitPlannerRounds
	default:
		return models.ExitUnknown
	}
}

// Dump projects the whole run into a RunRecord for the run log (spec §6).
func (s *System) Dump() *models.RunRecord {
	rec := &models.RunRecord{
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		TimeTaken:     s.EndTime.Sub(s.StartTime).Seconds(),
		PlannerModel:  s.Planner.Backend.Model(),
		ExecutorModel: s.ExecutorTmpl.Backend.Model(),
		TotalCost:     s.TotalCost(),
		Success:       s.Environment.Solved(),
		ExitReason:    s.ExitReason(),
		Planner:       s.Planner.Conversation.Dump(),
	}
	if s.Autoprompter != nil {
		rec.AutoprompterModel = s.Autoprompter.Backend.Model()
		rec.Autoprompter = s.Autoprompter.Conversation.Dump()
	}
	for _, e := range s.AllExecutors {
		rec.Executors = append(rec.Executors, e.Conversation.Dump())
		rec.ExecutorErrors = append(rec.ExecutorErrors, e.RunError)
	}
	return rec
}
