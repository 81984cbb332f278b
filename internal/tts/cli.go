package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Seams for tests.
var (
	execCommandContext = exec.CommandContext
	lookPath           = exec.LookPath
)

// waitDelay bounds how long a killed child may hold its output pipes open.
const waitDelay = 2 * time.Second

// stderrTail keeps the last bytes of a child's stderr for error messages.
const stderrTail = 2048

// runCLI runs exe with args, feeding stdin when non-nil. Stdout is returned.
// Stderr is copied to echo (if set) and its tail attached to failures.
func runCLI(ctx context.Context, exe string, args []string, stdin io.Reader, echo io.Writer) ([]byte, error) {
	cmd := execCommandContext(ctx, exe, args...)
	cmd.WaitDelay = waitDelay
	if stdin != nil {
		cmd.Stdin = stdin
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if echo != nil {
		cmd.Stderr = io.MultiWriter(&stderr, echo)
	} else {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", exe, ctxErr)
		}
		return nil, mapCLIError(exe, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func mapCLIError(exe string, err error, stderr string) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%s executable not found; set --tts-cli-path or FRIDAY_TTS_CLI_PATH: %w", exe, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		detail := strings.TrimSpace(stderr)
		if len(detail) > stderrTail {
			detail = "..." + detail[len(detail)-stderrTail:]
		}
		if detail == "" {
			return fmt.Errorf("%s exited with code %d: %w", exe, exitErr.ExitCode(), err)
		}
		return fmt.Errorf("%s exited with code %d: %s: %w", exe, exitErr.ExitCode(), detail, err)
	}

	return fmt.Errorf("run %s: %w", exe, err)
}

// probeExecutable reports whether exe can be found and started.
func probeExecutable(exe string) (string, error) {
	path, err := lookPath(exe)
	if err != nil {
		return "", mapCLIError(exe, err, "")
	}
	return path, nil
}
