// Package tools holds the built-in Tool implementations (spec §4.2).
package tools

import (
	"context"
	"time"

	"github.com/nyu-llm-ctf/agentcore/internal/ctfagent/container"
)

// Execer is the narrow capability a tool needs to run a command inside the
// working container, breaking the tool↔environment cycle called out in
// spec §9 ("tools hold a back-pointer interface... a narrow capability
// handle rather than the whole environment").
type Execer interface {
	Exec(ctx context.Context, command string, timeout time.Duration) (container.ExecResult, error)
}

// CopyInner is the narrow capability a tool needs to stage a host file into
// the working container.
type CopyInner interface {
	CopyIn(ctx context.Context, hostPath, containerPath string) (string, error)
}

// Solver is the narrow capability the submit_flag tool needs: comparing
// against the real flag and marking the environment solved.
type Solver interface {
	Flag() string
	MarkSolved()
}

// Giveupper is the narrow capability the giveup tool needs.
type Giveupper interface {
	MarkGiveup()
}
