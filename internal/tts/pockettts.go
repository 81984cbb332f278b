package tts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const defaultPocketTTSExecutable = "pocket-tts"

type PocketTTSOptions struct {
	ExecutablePath string
	ConfigPath     string
	Quiet          bool
	Stderr         io.Writer
	Logger         *slog.Logger
}

// PocketTTSEngine runs `pocket-tts generate`, streaming text on stdin and
// reading the WAV from stdout. The model only speaks English.
type PocketTTSEngine struct {
	exe        string
	configPath string
	quiet      bool
	stderr     io.Writer
	logger     *slog.Logger
}

func NewPocketTTSEngine(opts PocketTTSOptions) *PocketTTSEngine {
	exe := opts.ExecutablePath
	if exe == "" {
		exe = defaultPocketTTSExecutable
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PocketTTSEngine{
		exe:        exe,
		configPath: opts.ConfigPath,
		quiet:      opts.Quiet,
		stderr:     opts.Stderr,
		logger:     logger,
	}
}

func (e *PocketTTSEngine) Warm(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := probeExecutable(e.exe)
	if err != nil {
		return fmt.Errorf("pocket-tts: %w", err)
	}
	e.logger.Debug("pocket-tts engine ready", "executable", path)
	return nil
}

func (e *PocketTTSEngine) Generate(ctx context.Context, req Request) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("pocket-tts: %w", ErrEmptyText)
	}
	if req.Language != "" && !strings.EqualFold(req.Language, "en") {
		return nil, fmt.Errorf("pocket-tts: %w %q", ErrUnsupportedLanguage, req.Language)
	}

	args := []string{"generate", "--text", "-", "--output-path", "-"}
	if v := req.Speaker.String(); v != "" {
		args = append(args, "--voice", v)
	}
	if e.configPath != "" {
		args = append(args, "--config", e.configPath)
	}
	if e.quiet {
		args = append(args, "--quiet")
	}

	out, err := runCLI(ctx, e.exe, args, strings.NewReader(req.Text), e.stderr)
	if err != nil {
		return nil, fmt.Errorf("pocket-tts: %w", err)
	}
	return out, nil
}
