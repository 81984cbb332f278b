package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/go-friday-voice/internal/config"
)

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"chat", "say", "replay", "history", "doctor", "health", "voice"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentConfigFlag(t *testing.T) {
	root := NewRootCmd()
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("expected --config persistent flag to be registered")
	}
	if root.PersistentFlags().Lookup("history-dir") == nil {
		t.Error("expected config flags to be registered as persistent flags")
	}
}

func TestSetupLogger_AddsRunID(t *testing.T) {
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })

	var buf bytes.Buffer
	setupLogger("info", &buf)
	slog.Info("hello")
	slog.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines; want 1:\n%s", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if id, _ := rec["run_id"].(string); len(id) != 36 {
		t.Errorf("run_id = %v; want a UUID", rec["run_id"])
	}
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })

	var buf bytes.Buffer
	setupLogger("not-a-level", &buf)
	slog.Debug("hidden")
	slog.Info("shown")

	if got := buf.String(); strings.Contains(got, "hidden") || !strings.Contains(got, "shown") {
		t.Errorf("unexpected log output: %s", got)
	}
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{}

	if _, err := requireConfig(); err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestRequireConfig_SucceedsWhenLoaded(t *testing.T) {
	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{Paths: config.PathsConfig{HistoryDir: "/tmp/history"}}

	got, err := requireConfig()
	if err != nil {
		t.Fatalf("requireConfig returned unexpected error: %v", err)
	}
	if got.Paths.HistoryDir != "/tmp/history" {
		t.Errorf("unexpected HistoryDir: %q", got.Paths.HistoryDir)
	}
}

func TestRootCmd_RejectsInvalidConfig(t *testing.T) {
	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	root := NewRootCmd()
	root.SetArgs([]string{"history", "--engine", "espeak"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "espeak") {
		t.Fatalf("Execute() error = %v; want unsupported engine", err)
	}
}
