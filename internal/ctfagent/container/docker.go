package container

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path"
	"strings"
	"time"
	"unicode/utf8"
)

// DockerRuntime shells out to the docker CLI, matching the pattern used by
// the teacher's sandbox executor (no docker/docker/client SDK dependency —
// the teacher never imports one either).
type DockerRuntime struct{}

// NewDockerRuntime returns a Runtime backed by the docker CLI.
func NewDockerRuntime() *DockerRuntime { return &DockerRuntime{} }

func (d *DockerRuntime) Start(ctx context.Context, image, network string) (Handle, error) {
	args := []string{"run", "-d", "--rm"}
	if network != "" {
		args = append(args, "--network", network)
	}
	args = append(args, "--platform", "linux/amd64", image)

	out, err := exec.CommandContext(ctx, "docker", args...).Output()
	if err != nil {
		return "", fmt.Errorf("starting container from %s: %w", image, err)
	}
	return Handle(strings.TrimSpace(string(out))), nil
}

func (d *DockerRuntime) Exec(ctx context.Context, h Handle, command string, timeout time.Duration) (ExecResult, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, "docker", "exec", string(h), "bash", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ExecResult{
		Stdout: cleanOutput(stdout.Bytes()),
		Stderr: cleanOutput(stderr.Bytes()),
	}

	if err == nil {
		zero := 0
		result.ReturnCode = &zero
		return result, nil
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		return result, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		code := exitErr.ExitCode()
		result.ReturnCode = &code
		return result, nil
	}
	// Network/permission failures: no return code, not a timeout, stderr
	// carries the diagnostic (spec §4.1).
	if result.Stderr == "" {
		result.Stderr = err.Error()
	}
	return result, nil
}

// cleanOutput decodes bytes as UTF-8 with lossy replacement and normalizes
// CRLF to LF, matching the original's _clean() helper.
func cleanOutput(b []byte) string {
	s := string(b)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func (d *DockerRuntime) CopyIn(ctx context.Context, h Handle, hostPath, containerPath string) (string, error) {
	finalPath := containerPath
	if !path.IsAbs(finalPath) {
		finalPath = path.Join(ContainerHome, containerPath)
	}
	mkdirCmd := exec.CommandContext(ctx, "docker", "exec", string(h), "mkdir", "-p", path.Dir(finalPath))
	if err := mkdirCmd.Run(); err != nil {
		return "", fmt.Errorf("creating parent directory %s in container: %w", path.Dir(finalPath), err)
	}

	cpCmd := exec.CommandContext(ctx, "docker", "cp", "-aq", hostPath, fmt.Sprintf("%s:%s", h, finalPath))
	if out, err := cpCmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("copying %s into container: %w (%s)", hostPath, err, strings.TrimSpace(string(out)))
	}
	return finalPath, nil
}

func (d *DockerRuntime) Stop(ctx context.Context, h Handle) error {
	if h == "" {
		return nil
	}
	out, err := exec.CommandContext(ctx, "docker", "stop", string(h)).CombinedOutput()
	if err != nil {
		// Idempotent: a container that is already gone is not an error.
		if strings.Contains(string(out), "No such container") {
			return nil
		}
		return fmt.Errorf("stopping container %s: %w (%s)", h, err, strings.TrimSpace(string(out)))
	}
	return nil
}
