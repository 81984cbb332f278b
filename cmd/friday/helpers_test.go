package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/go-friday-voice/internal/audio"
	"github.com/example/go-friday-voice/internal/config"
	"github.com/example/go-friday-voice/internal/testutil"
	"github.com/example/go-friday-voice/internal/tts"
)

var testFormat = audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 16}

// toneEngine answers every request with the same short tone.
type toneEngine struct {
	wav []byte

	mu   sync.Mutex
	reqs []tts.Request
}

func newToneEngine(t *testing.T) *toneEngine {
	t.Helper()
	return &toneEngine{wav: testutil.ToneWAV(t, testFormat, 160)}
}

func (e *toneEngine) Generate(_ context.Context, req tts.Request) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reqs = append(e.reqs, req)
	return e.wav, nil
}

func (e *toneEngine) requests() []tts.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tts.Request(nil), e.reqs...)
}

func useEngine(t *testing.T, eng tts.Engine, err error) {
	t.Helper()
	orig := newEngine
	t.Cleanup(func() { newEngine = orig })
	newEngine = func(config.Config, tts.EngineOptions) (tts.Engine, error) {
		if err != nil {
			return nil, err
		}
		return eng, nil
	}
}

// recordingPlayer writes a player script that appends each played path to
// the returned log file.
func recordingPlayer(t *testing.T) (script, log string) {
	t.Helper()
	testutil.RequirePOSIXShell(t)
	dir := t.TempDir()
	log = filepath.Join(dir, "played.txt")
	script = testutil.WriteScript(t, dir, "player", `printf '%s\n' "$1" >> "`+log+`"`+"\n")
	return script, log
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func testConfig(t *testing.T, player string) config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Paths.HistoryDir = filepath.Join(dir, "history")
	cfg.Paths.VoiceManifest = filepath.Join(dir, "voices", "manifest.json")
	cfg.TTS.Speaker = ""
	cfg.Playback.Device = config.DeviceCommand
	cfg.Playback.Command = player
	cfg.Session.PromptLanguage = false
	cfg.Startup.Delay = time.Millisecond
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	origCfg := activeCfg
	origLogger := slog.Default()
	t.Cleanup(func() {
		activeCfg = origCfg
		slog.SetDefault(origLogger)
	})

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(io.Discard)

	err := root.Execute()
	return out.String(), err
}
