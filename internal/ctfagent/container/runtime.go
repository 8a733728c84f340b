// Package container implements ContainerRuntime: the lifecycle of the
// working container the agents execute shell commands inside, plus
// challenge-service container start/stop.
package container

import (
	"context"
	"time"
)

// ExecResult is the structured outcome of a command run inside a container.
// Exec never returns an error for a nonzero exit or a timeout; both are
// encoded here (spec §4.1).
type ExecResult struct {
	Stdout     string
	Stderr     string
	ReturnCode *int
	TimedOut   bool
}

// Handle identifies a running container, typically its container id.
type Handle string

// Runtime is the contract every execution backend (Docker, Firecracker) must
// satisfy.
type Runtime interface {
	// Start runs a detached container from image on network, auto-removed
	// on exit, amd64 platform. A failed Start is fatal to the run.
	Start(ctx context.Context, image, network string) (Handle, error)

	// Exec runs `bash -c command` inside the container. On timeout the
	// child process is killed but partial output is still returned.
	Exec(ctx context.Context, h Handle, command string, timeout time.Duration) (ExecResult, error)

	// CopyIn copies hostPath into the container at containerPath. A
	// relative containerPath resolves under /home/ctfplayer/. Parent
	// directories are created inside the container first. Returns the
	// final absolute in-container path.
	CopyIn(ctx context.Context, h Handle, hostPath, containerPath string) (string, error)

	// Stop stops the container. Idempotent.
	Stop(ctx context.Context, h Handle) error
}

// ContainerHome is the home directory relative paths resolve under.
const ContainerHome = "/home/ctfplayer"
