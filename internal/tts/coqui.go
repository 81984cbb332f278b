package tts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const defaultCoquiExecutable = "tts"

type CoquiOptions struct {
	ExecutablePath string
	// ModelPath is a model file or directory (XTTS v2 checkpoints ship as a
	// directory with config.json next to the weights).
	ModelPath  string
	ConfigPath string
	UseGPU     bool
	Stderr     io.Writer
	Logger     *slog.Logger
}

// CoquiEngine drives the Coqui TTS command line tool. Each request runs one
// process that writes its result to a scratch file.
type CoquiEngine struct {
	exe        string
	modelPath  string
	configPath string
	useGPU     bool
	stderr     io.Writer
	logger     *slog.Logger
}

func NewCoquiEngine(opts CoquiOptions) (*CoquiEngine, error) {
	if opts.ModelPath == "" {
		return nil, fmt.Errorf("coqui: model path is required")
	}

	info, err := os.Stat(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("coqui: model path: %w", err)
	}

	configPath := opts.ConfigPath
	if configPath == "" && info.IsDir() {
		candidate := filepath.Join(opts.ModelPath, "config.json")
		if _, err := os.Stat(candidate); err == nil {
			configPath = candidate
		}
	}

	exe := opts.ExecutablePath
	if exe == "" {
		exe = defaultCoquiExecutable
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CoquiEngine{
		exe:        exe,
		modelPath:  opts.ModelPath,
		configPath: configPath,
		useGPU:     opts.UseGPU,
		stderr:     opts.Stderr,
		logger:     logger,
	}, nil
}

// Warm checks that the executable is reachable and the model is still there.
func (e *CoquiEngine) Warm(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := probeExecutable(e.exe)
	if err != nil {
		return fmt.Errorf("coqui: %w", err)
	}
	if _, err := os.Stat(e.modelPath); err != nil {
		return fmt.Errorf("coqui: model path: %w", err)
	}
	e.logger.Debug("coqui engine ready", "executable", path, "model", e.modelPath)
	return nil
}

func (e *CoquiEngine) Generate(ctx context.Context, req Request) ([]byte, error) {
	dir, err := os.MkdirTemp("", "friday-coqui-*")
	if err != nil {
		return nil, fmt.Errorf("coqui: scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	outPath := filepath.Join(dir, "out.wav")

	if _, err := runCLI(ctx, e.exe, e.args(req, outPath), nil, e.stderr); err != nil {
		return nil, fmt.Errorf("coqui: %w", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("coqui: read output: %w", err)
	}
	return data, nil
}

func (e *CoquiEngine) args(req Request, outPath string) []string {
	args := []string{
		"--text", req.Text,
		"--model_path", e.modelPath,
		"--out_path", outPath,
	}
	if e.configPath != "" {
		args = append(args, "--config_path", e.configPath)
	}
	if req.Language != "" {
		args = append(args, "--language_idx", req.Language)
	}
	switch {
	case req.Speaker.Reference != "":
		args = append(args, "--speaker_wav", req.Speaker.Reference)
	case req.Speaker.Name != "":
		args = append(args, "--speaker_idx", req.Speaker.Name)
	}
	if e.useGPU {
		args = append(args, "--use_cuda", "true")
	}
	return args
}
