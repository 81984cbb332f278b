package playback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Seams for tests.
var (
	execCommandContext = exec.CommandContext
	lookPath           = exec.LookPath
)

// knownPlayers is tried in order when no player command is configured.
var knownPlayers = [][]string{
	{"aplay", "-q"},
	{"paplay"},
	{"afplay"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "error"},
}

// CommandDevice hands each file to an external player process.
type CommandDevice struct {
	command []string
}

// NewCommandDevice uses command (split on whitespace, file path appended)
// or, when empty, the first known player found on PATH.
func NewCommandDevice(command string) *CommandDevice {
	return &CommandDevice{command: strings.Fields(command)}
}

func (d *CommandDevice) Load(path string) (Handle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	argv, err := d.player()
	if err != nil {
		return nil, err
	}
	return &commandHandle{argv: append(argv, path)}, nil
}

// Describe reports the player command that Load would use.
func (d *CommandDevice) Describe() (string, error) {
	argv, err := d.player()
	if err != nil {
		return "", err
	}
	if _, err := lookPath(argv[0]); err != nil {
		return "", fmt.Errorf("player %q: %w", argv[0], err)
	}
	return strings.Join(argv, " "), nil
}

func (d *CommandDevice) player() ([]string, error) {
	if len(d.command) > 0 {
		return append([]string(nil), d.command...), nil
	}
	for _, p := range knownPlayers {
		if _, err := lookPath(p[0]); err == nil {
			return append([]string(nil), p...), nil
		}
	}
	names := make([]string, 0, len(knownPlayers))
	for _, p := range knownPlayers {
		names = append(names, p[0])
	}
	return nil, fmt.Errorf("no audio player found (tried %s); set --player: %w",
		strings.Join(names, ", "), exec.ErrNotFound)
}

type commandHandle struct {
	argv []string
}

func (h *commandHandle) Play(ctx context.Context) error {
	cmd := execCommandContext(ctx, h.argv[0], h.argv[1:]...)
	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("%s: %s: %w", h.argv[0], msg, err)
			}
		}
		return fmt.Errorf("%s: %w", h.argv[0], err)
	}
	return nil
}

// Close is a no-op; the player process owns the device only while it runs.
func (h *commandHandle) Close() error { return nil }
