package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExitReason is the terminal classification of a run, written into the run
// record and used by the operator to decide retry policy.
type ExitReason string

const (
	ExitSolved        ExitReason = "solved"
	ExitGiveup        ExitReason = "giveup"
	ExitCost          ExitReason = "cost"
	ExitPlannerRounds ExitReason = "planner_rounds"
	ExitMaxRounds     ExitReason = "max_rounds"
	ExitError         ExitReason = "error"
	ExitUnknown       ExitReason = "unknown"
)

// MessageRecord is the plain, JSON-friendly projection of a conversation
// Message produced by Conversation.Dump().
type MessageRecord struct {
	Role       Role        `json:"role"`
	Index      int         `json:"index"`
	Content    string      `json:"content,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// RunRecord is the JSON document written atomically at run teardown (spec §3, §6).
type RunRecord struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	TimeTaken float64   `json:"time_taken"`

	AutoprompterModel string `json:"autoprompter_model,omitempty"`
	PlannerModel      string `json:"planner_model,omitempty"`
	ExecutorModel     string `json:"executor_model,omitempty"`

	TotalCost   float64    `json:"total_cost"`
	Success     bool       `json:"success"`
	ExitReason  ExitReason `json:"exit_reason"`
	Error       *string    `json:"error"`

	Autoprompter []MessageRecord   `json:"autoprompter,omitempty"`
	Planner      []MessageRecord   `json:"planner,omitempty"`
	Executors    [][]MessageRecord `json:"executors,omitempty"`
	Executor     []MessageRecord   `json:"executor,omitempty"`

	ExecutorErrors []string `json:"executor_errors,omitempty"`
	DebugLog       string   `json:"debug_log,omitempty"`
}

// WriteAtomic serializes the record and writes it to path via a
// write-to-temp-then-rename sequence, so a concurrent reader (or the
// run-index cache) never observes a partially written file.
func WriteAtomic(path string, rec *RunRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run record: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".runlog-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file into place: %w", err)
	}
	return nil
}
