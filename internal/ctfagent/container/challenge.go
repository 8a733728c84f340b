package container

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

// ChallengeManager brings a challenge's own network service up and down:
// a docker-compose bundle, a single named container, or nothing at all
// (spec §4.1). It also collects the challenge server's logs for inclusion
// in the run record.
type ChallengeManager struct {
	// ChallengeDir is the directory containing docker-compose.yml for
	// compose challenges.
	ChallengeDir string

	composeUp bool
	lastLogs  string
}

// NewChallengeManager returns a manager rooted at challengeDir.
func NewChallengeManager(challengeDir string) *ChallengeManager {
	return &ChallengeManager{ChallengeDir: challengeDir}
}

// StartChallenge brings the challenge's server up, if it has one.
func (m *ChallengeManager) StartChallenge(ctx context.Context, c *models.Challenge, network string) error {
	switch {
	case c.Compose:
		cmd := exec.CommandContext(ctx, "docker", "compose", "-f", filepath.Join(m.ChallengeDir, "docker-compose.yml"), "up", "-d", "--force-recreate")
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("starting compose bundle: %w (%s)", err, out)
		}
		m.composeUp = true
	case c.ContainerImage != "":
		args := []string{"run", "-d", "--rm"}
		if network != "" {
			args = append(args, "--network", network)
		}
		args = append(args, "--platform", "linux/amd64", "--name", c.ContainerImage, c.ContainerImage)
		cmd := exec.CommandContext(ctx, "docker", args...)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("starting challenge container %s: %w (%s)", c.ContainerImage, err, out)
		}
	default:
		// No challenge server; nothing to do.
	}
	return nil
}

// StopChallenge tears the challenge server down, collecting its logs first.
func (m *ChallengeManager) StopChallenge(ctx context.Context, c *models.Challenge) error {
	m.collectLogs(ctx, c)

	switch {
	case c.Compose:
		cmd := exec.CommandContext(ctx, "docker", "compose", "-f", filepath.Join(m.ChallengeDir, "docker-compose.yml"), "down", "--volumes")
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("stopping compose bundle: %w (%s)", err, out)
		}
		m.composeUp = false
	case c.ContainerImage != "":
		if out, err := exec.CommandContext(ctx, "docker", "stop", c.ContainerImage).CombinedOutput(); err != nil {
			return fmt.Errorf("stopping challenge container %s: %w (%s)", c.ContainerImage, err, out)
		}
	}
	return nil
}

// collectLogs tails the challenge container's stdout/stderr into a ring
// buffer from the moment it starts, supplementing the original's
// teardown-only log capture (SPEC_FULL.md supplemented feature) so a
// crash-looping service is diagnosable even if the run later times out.
func (m *ChallengeManager) collectLogs(ctx context.Context, c *models.Challenge) {
	name := c.ContainerImage
	if c.Compose {
		return // compose logs are multi-service; left to `docker compose logs` by the operator.
	}
	if name == "" {
		return
	}
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, "docker", "logs", "--tail", "200", name)
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	_ = cmd.Run()
	m.lastLogs = buf.String()
}

// Logs returns the most recently collected challenge-server log tail, for
// embedding in the run record's debug_log.
func (m *ChallengeManager) Logs() string { return m.lastLogs }
