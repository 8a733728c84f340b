package coordinator

import (
	"context"
	"time"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/agent"
	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/environment"
	"github.com/nyu-llm-ctf/agentcore/internal/observability"
	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

// SingleRunner drives the single-agent variant: one executor handles the
// whole challenge with no delegation, optionally seeded by an autoprompter
// (spec §4.9 "or the single-agent variant"), grounded on
// original_source/nyuctf_multiagent/agent.py's SingleAgent.
type SingleRunner struct {
	Environment *environment.Environment
	Challenge   *models.Challenge

	Autoprompter *agent.AutoPrompt // nil when disabled
	Executor     *agent.Single

	MaxCost float64
	Logger  *observability.Logger

	StartTime time.Time
	EndTime   time.Time
}

// TotalCost sums the executor's cost plus the autoprompter's, if enabled.
func (r *SingleRunner) TotalCost() float64 {
	cost := r.Executor.CurrentCost
	if r.Autoprompter != nil {
		cost += r.Autoprompter.CurrentCost
	}
	return cost
}

// Run advances the single executor to completion, seeding it with the
// autoprompter's output when one ran successfully (spec §4.9 step 1).
func (r *SingleRunner) Run(ctx context.Context) error {
	r.StartTime = time.Now()
	defer func() { r.EndTime = time.Now() }()

	if r.Autoprompter != nil {
		ap := r.Autoprompter
		for !r.Environment.Solved() && !ap.Finished && ap.Conversation.Round() <= ap.MaxRounds && r.TotalCost() <= r.MaxCost {
			ap.Conversation.NextRound()
			if err := ap.RunOneRound(ctx); err != nil {
				return err
			}
		}
		if !r.Environment.Solved() && r.TotalCost() <= r.MaxCost && ap.AutoPrompt == nil {
			ap.RunForAutoPrompt(ctx)
		}
		if ap.AutoPrompt != nil {
			r.reseedInitialPrompt(*ap.AutoPrompt)
		}
	}

	for !r.Environment.Giveup() && !r.Environment.Solved() &&
		r.Executor.Conversation.Round() <= r.Executor.MaxRounds && r.TotalCost() <= r.MaxCost {
		r.Executor.Conversation.NextRound()
		if err := r.Executor.RunOneRound(ctx); err != nil {
			return err
		}
	}
	return nil
}

// reseedInitialPrompt replaces the hard-coded initial prompt already
// appended by NewSingle with the autoprompter's output. The executor is
// constructed with its start prompts already in place (matching the
// original's eager __init__), so this overwrites the last USER message
// rather than appending a second one.
func (r *SingleRunner) reseedInitialPrompt(prompt string) {
	r.Executor.Conversation.ReplaceLastUserMessage(prompt)
}

// ExitReason classifies why the run ended (spec §4.9/§4.10).
func (r *SingleRunner) ExitReason() models.ExitReason {
	switch {
	case r.Environment.Solved():
		return models.ExitSolved
	case r.Environment.Giveup():
		return models.ExitGiveup
	case r.TotalCost() > r.MaxCost:
		return models.ExitCost
	case r.Executor.Conversation.Round() > r.Executor.MaxRounds:
		return models.ExitMaxRounds
	default:
		return models.ExitUnknown
	}
}

// Dump projects the run into a RunRecord for the run log (spec §6).
func (r *SingleRunner) Dump() *models.RunRecord {
	rec := &models.RunRecord{
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		TimeTaken:     r.EndTime.Sub(r.StartTime).Seconds(),
		ExecutorModel: r.Executor.Backend.Model(),
		TotalCost:     r.TotalCost(),
		Success:       r.Environment.Solved(),
		ExitReason:    r.ExitReason(),
		Executor:      r.Executor.Conversation.Dump(),
	}
	if r.Autoprompter != nil {
		rec.AutoprompterModel = r.Autoprompter.Backend.Model()
		rec.Autoprompter = r.Autoprompter.Conversation.Dump()
	}
	return rec
}
