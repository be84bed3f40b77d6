// Package audio probes uploaded recordings with ffprobe.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Executor runs an external command and returns its stdout.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

// Execute runs an external command with the given arguments
func (execRunner) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Include stderr in error message for debugging
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderrStr)
		}
		return "", fmt.Errorf("command '%s' failed: %w", name, err)
	}

	return stdout.String(), nil
}

// Prober measures the duration of audio files.
type Prober struct {
	executor Executor
}

// NewProber creates a Prober backed by the local ffprobe binary.
func NewProber() *Prober {
	return &Prober{executor: execRunner{}}
}

// NewProberWithExecutor creates a Prober with a custom executor (used in tests).
func NewProberWithExecutor(executor Executor) *Prober {
	return &Prober{executor: executor}
}

// Duration returns the duration of the audio file at path in seconds.
// A file ffprobe cannot parse yields an error, which callers treat the same
// as a zero-length recording.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	out, err := p.executor.Execute(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output %q: %w", out, err)
	}

	return seconds, nil
}
