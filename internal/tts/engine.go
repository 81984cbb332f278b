package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/example/go-friday-voice/internal/config"
)

// Speaker selects the voice an engine speaks with. Reference, when set, is a
// WAV sample the engine clones; otherwise Name is a built-in speaker.
type Speaker struct {
	Name      string
	Reference string
}

func (s Speaker) String() string {
	if s.Reference != "" {
		return s.Reference
	}
	return s.Name
}

// Request is one call into a synthesis engine.
type Request struct {
	Text     string
	Language string
	Speaker  Speaker
}

// Engine turns text into a complete WAV container.
type Engine interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

// Warmer is implemented by engines that have startup work (model loading,
// executable probing) worth doing before the first request.
type Warmer interface {
	Warm(ctx context.Context) error
}

// EngineOptions carries the process-wide inputs used to build an engine.
type EngineOptions struct {
	Stderr io.Writer
	Logger *slog.Logger
}

// NewEngine builds the engine selected by cfg.TTS.Engine.
func NewEngine(cfg config.Config, opts EngineOptions) (Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name, err := config.NormalizeEngine(cfg.TTS.Engine)
	if err != nil {
		return nil, err
	}

	switch name {
	case config.EngineCoqui:
		return NewCoquiEngine(CoquiOptions{
			ExecutablePath: cfg.TTS.CLIPath,
			ModelPath:      cfg.Paths.ModelPath,
			ConfigPath:     cfg.Paths.ModelConfigPath,
			UseGPU:         cfg.TTS.UseGPU,
			Stderr:         opts.Stderr,
			Logger:         logger,
		})
	case config.EnginePocketTTS:
		return NewPocketTTSEngine(PocketTTSOptions{
			ExecutablePath: cfg.TTS.CLIPath,
			ConfigPath:     cfg.TTS.CLIConfigPath,
			Quiet:          cfg.TTS.Quiet,
			Stderr:         opts.Stderr,
			Logger:         logger,
		}), nil
	case config.EnginePiper:
		return NewPiperEngine(cfg.TTS.Piper, logger), nil
	default:
		return nil, fmt.Errorf("unsupported tts engine %q", name)
	}
}

// ResolveSpeaker maps a configured speaker to a Speaker. A value that names a
// voice in the manifest, or an existing file, becomes a reference sample; any
// other value is treated as a built-in speaker name. A missing manifest is not
// an error.
func ResolveSpeaker(manifestPath, speaker string) (Speaker, error) {
	speaker = strings.TrimSpace(speaker)
	if speaker == "" {
		return Speaker{}, nil
	}

	if manifestPath != "" {
		vm, err := NewVoiceManager(manifestPath)
		switch {
		case err == nil:
			path, err := vm.ResolvePath(speaker)
			if err == nil {
				return Speaker{Name: speaker, Reference: path}, nil
			}
			if vm.Has(speaker) {
				return Speaker{}, fmt.Errorf("resolve speaker %q: %w", speaker, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return Speaker{}, err
		}
	}

	if info, err := os.Stat(speaker); err == nil && !info.IsDir() {
		return Speaker{Name: speaker, Reference: speaker}, nil
	}
	return Speaker{Name: speaker}, nil
}
