package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/example/go-friday-voice/internal/artifact"
	"github.com/example/go-friday-voice/internal/config"
	"github.com/example/go-friday-voice/internal/playback"
	"github.com/example/go-friday-voice/internal/tts"
)

// Seams for tests.
var (
	newEngine = tts.NewEngine
	newDevice = playback.NewDevice
)

// services are the long-lived components of one process.
type services struct {
	synth  *tts.Service
	player *playback.Service
}

func (s *services) Close() error {
	if s.synth == nil {
		return nil
	}
	return s.synth.Close()
}

func buildSynthesis(cfg config.Config, stderr io.Writer) (*tts.Service, error) {
	speaker, err := tts.ResolveSpeaker(cfg.Paths.VoiceManifest, cfg.TTS.Speaker)
	if err != nil {
		return nil, err
	}

	engine, err := newEngine(cfg, tts.EngineOptions{Stderr: engineStderr(cfg, stderr), Logger: slog.Default()})
	if err != nil {
		return nil, fmt.Errorf("tts engine %q: %w", cfg.TTS.Engine, err)
	}

	namer := artifact.NewNamer(cfg.Paths.HistoryDir, cfg.Session.Name, nil)
	return tts.NewService(engine, namer, tts.ServiceOptions{
		Speaker:  speaker,
		Timeout:  cfg.TTS.Timeout,
		MaxChars: cfg.TTS.MaxChars,
		Logger:   slog.Default(),
	}), nil
}

func buildPlayback(cfg config.Config) (*playback.Service, error) {
	device, err := newDevice(cfg.Playback)
	if err != nil {
		return nil, fmt.Errorf("playback device: %w", err)
	}
	return playback.NewService(device, slog.Default()), nil
}

func buildServices(cfg config.Config, stderr io.Writer) (*services, error) {
	synth, err := buildSynthesis(cfg, stderr)
	if err != nil {
		return nil, err
	}
	player, err := buildPlayback(cfg)
	if err != nil {
		_ = synth.Close()
		return nil, err
	}
	return &services{synth: synth, player: player}, nil
}

// engineStderr decides where engine diagnostics go: quiet mode drops them.
func engineStderr(cfg config.Config, stderr io.Writer) io.Writer {
	if cfg.TTS.Quiet {
		return nil
	}
	return stderr
}
