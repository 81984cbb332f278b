package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-friday-voice/internal/config"
	"github.com/example/go-friday-voice/internal/doctor"
	"github.com/example/go-friday-voice/internal/playback"
	"github.com/example/go-friday-voice/internal/tts"
)

const probeTimeout = 10 * time.Second

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the engine, model, voices, history dir and audio output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			return runDoctor(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runDoctor(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	result := doctor.Run(doctorConfig(ctx, cfg), stdout)

	if result.Failed() {
		for _, f := range result.Failures() {
			_, _ = fmt.Fprintf(stderr, "FAIL: %s\n", f)
		}
		return errors.New("doctor checks failed")
	}

	_, _ = fmt.Fprintln(stdout, "doctor checks passed")
	return nil
}

func doctorConfig(ctx context.Context, cfg config.Config) doctor.Config {
	dcfg := doctor.Config{
		Engine:     cfg.TTS.Engine,
		VoiceFiles: collectVoiceFiles(cfg.Paths.VoiceManifest),
		HistoryDir: cfg.Paths.HistoryDir,
		Player:     func() (string, error) { return describePlayer(cfg.Playback) },
		ORTLibrary: cfg.Paths.ORTLibraryPath,
		VerifyONNX: doctor.VerifyONNX,
	}
	if cfg.Paths.ORTLibraryPath != "" {
		dcfg.ONNXGraphs = doctor.FindONNXGraphs(cfg.Paths.ModelPath)
	}

	switch cfg.TTS.Engine {
	case config.EngineCoqui:
		exe := executableOr(cfg.TTS.CLIPath, "tts")
		dcfg.EngineVersion = func() (string, error) { return probeExecutableVersion(ctx, exe) }
		dcfg.PythonVersion = probePythonVersion
		dcfg.Python = doctor.CoquiPython
		dcfg.ModelPath = cfg.Paths.ModelPath
	case config.EnginePocketTTS:
		exe := executableOr(cfg.TTS.CLIPath, "pocket-tts")
		dcfg.EngineVersion = func() (string, error) { return probeExecutableVersion(ctx, exe) }
		dcfg.PythonVersion = probePythonVersion
		dcfg.Python = doctor.PocketTTSPython
	case config.EnginePiper:
		dcfg.EngineVersion = func() (string, error) { return probePiper(ctx, cfg.TTS.Piper) }
	}

	return dcfg
}

func executableOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

// probeExecutableVersion runs `exe --version`. Executables that are present
// but do not understand --version report their resolved path instead.
func probeExecutableVersion(ctx context.Context, exe string) (string, error) {
	resolved, err := exec.LookPath(exe)
	if err != nil {
		return "", fmt.Errorf("%s not found on PATH (set --tts-cli-path): %w", exe, err)
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, resolved, "--version").Output()
	if err != nil {
		return resolved, nil
	}
	if ver := strings.TrimSpace(string(out)); ver != "" {
		return ver, nil
	}
	return resolved, nil
}

// probePythonVersion tries python3 then python and returns the version string.
func probePythonVersion() (string, error) {
	for _, bin := range []string{"python3", "python"} {
		out, err := exec.CommandContext(context.Background(), bin, "--version").Output()
		if err != nil {
			continue
		}
		// Output is e.g. "Python 3.11.4\n"
		raw := strings.TrimPrefix(strings.TrimSpace(string(out)), "Python ")
		if raw != "" {
			return raw, nil
		}
	}

	return "", errors.New("python3/python not found on PATH")
}

func probePiper(ctx context.Context, cfg config.PiperConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := tts.NewPiperEngine(cfg, nil).Warm(ctx); err != nil {
		return "", err
	}
	return "wyoming " + cfg.Endpoint, nil
}

func describePlayer(cfg config.PlaybackConfig) (string, error) {
	dev, err := newDevice(cfg)
	if err != nil {
		return "", err
	}
	d, ok := dev.(playback.Describer)
	if !ok {
		return cfg.Device, nil
	}
	desc, err := d.Describe()
	if err != nil {
		return "", err
	}
	return cfg.Device + ": " + desc, nil
}

// collectVoiceFiles returns the voice files declared in the manifest,
// resolved relative to the manifest directory. Unresolvable entries keep
// their raw path so the doctor check can report them.
func collectVoiceFiles(manifestPath string) []string {
	vm, err := tts.NewVoiceManager(manifestPath)
	if err != nil {
		return nil
	}

	voices := vm.ListVoices()
	paths := make([]string, 0, len(voices))
	for _, v := range voices {
		resolved, err := vm.ResolvePath(v.ID)
		if err != nil {
			paths = append(paths, v.Path)
			continue
		}
		if abs, err := filepath.Abs(resolved); err == nil {
			resolved = abs
		}
		paths = append(paths, resolved)
	}
	return paths
}
