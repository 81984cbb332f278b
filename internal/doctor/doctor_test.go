package doctor_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-friday-voice/internal/doctor"
	"github.com/example/go-friday-voice/internal/testutil"
)

var errBinaryNotFound = errors.New("executable file not found in $PATH")

func hasFailureContaining(failures []string, sub string) bool {
	for _, f := range failures {
		if strings.Contains(f, sub) {
			return true
		}
	}
	return false
}

func passingConfig(t *testing.T) doctor.Config {
	t.Helper()
	dir := t.TempDir()
	return doctor.Config{
		Engine:        "coqui",
		EngineVersion: func() (string, error) { return "TTS 0.22.0", nil },
		PythonVersion: func() (string, error) { return "3.11.4", nil },
		Python:        doctor.CoquiPython,
		ModelPath:     dir,
		HistoryDir:    filepath.Join(dir, "history"),
		Player:        func() (string, error) { return "command: aplay", nil },
	}
}

func TestRun_AllChecksPass(t *testing.T) {
	cfg := passingConfig(t)

	var out strings.Builder
	result := doctor.Run(cfg, &out)

	if result.Failed() {
		t.Fatalf("expected all checks to pass; failures: %v", result.Failures())
	}
	for _, want := range []string{"engine: coqui", "TTS 0.22.0", "3.11.4", "command: aplay", "onnx runtime: skipped"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if _, err := os.Stat(cfg.HistoryDir); err != nil {
		t.Errorf("history dir not created: %v", err)
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*doctor.Config)
		want   string
	}{
		{"engine missing", func(c *doctor.Config) {
			c.EngineVersion = func() (string, error) { return "", errBinaryNotFound }
		}, "engine"},
		{"python too old", func(c *doctor.Config) {
			c.PythonVersion = func() (string, error) { return "3.8.10", nil }
		}, "python"},
		{"python too new for coqui", func(c *doctor.Config) {
			c.PythonVersion = func() (string, error) { return "3.12.1", nil }
		}, "python"},
		{"python too old for pocket-tts", func(c *doctor.Config) {
			c.Python = doctor.PocketTTSPython
			c.PythonVersion = func() (string, error) { return "3.9.18", nil }
		}, "python"},
		{"python absent", func(c *doctor.Config) {
			c.PythonVersion = func() (string, error) { return "", errBinaryNotFound }
		}, "python"},
		{"model missing", func(c *doctor.Config) {
			c.ModelPath = "/nonexistent/xtts_v2"
		}, "model path"},
		{"voice missing", func(c *doctor.Config) {
			c.VoiceFiles = []string{"/nonexistent/astro.wav"}
		}, "voice file"},
		{"history not writable", func(c *doctor.Config) {
			blocker := filepath.Join(t.TempDir(), "file")
			if err := os.WriteFile(blocker, nil, 0o644); err != nil {
				t.Fatal(err)
			}
			c.HistoryDir = filepath.Join(blocker, "history")
		}, "history dir"},
		{"no player", func(c *doctor.Config) {
			c.Player = func() (string, error) { return "", errBinaryNotFound }
		}, "playback"},
		{"onnx runtime broken", func(c *doctor.Config) {
			c.ORTLibrary = "/nonexistent/libonnxruntime.so"
			c.VerifyONNX = func(string, []string) (string, error) { return "", errors.New("dlopen failed") }
		}, "onnx runtime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := passingConfig(t)
			tt.mutate(&cfg)

			var out strings.Builder
			result := doctor.Run(cfg, &out)

			if !result.Failed() {
				t.Fatal("expected failure")
			}
			if !hasFailureContaining(result.Failures(), tt.want) {
				t.Errorf("expected failure mentioning %q, got: %v", tt.want, result.Failures())
			}
			if !strings.Contains(out.String(), doctor.FailMark) {
				t.Errorf("output has no %s line:\n%s", doctor.FailMark, out.String())
			}
		})
	}
}

func TestRun_SkipsUnconfiguredChecks(t *testing.T) {
	var out strings.Builder
	result := doctor.Run(doctor.Config{}, &out)

	if result.Failed() {
		t.Fatalf("empty config failed: %v", result.Failures())
	}
	if strings.Count(out.String(), "skipped") != 3 {
		t.Errorf("want engine, python and onnx skipped:\n%s", out.String())
	}
}

func TestResult_AddFailure(t *testing.T) {
	var r doctor.Result
	r.AddFailure("extra")
	if !r.Failed() || r.Failures()[0] != "extra" {
		t.Errorf("Failures = %v", r.Failures())
	}
}

func TestFindONNXGraphs(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.onnx", "sub/b.ONNX", "config.json"} {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got := doctor.FindONNXGraphs(root)
	if len(got) != 2 {
		t.Errorf("FindONNXGraphs = %v; want 2 graphs", got)
	}
	if len(doctor.FindONNXGraphs(filepath.Join(root, "missing"))) != 0 {
		t.Error("missing root returned graphs")
	}
}

func TestVerifyONNX_BadLibrary(t *testing.T) {
	if _, err := doctor.VerifyONNX(filepath.Join(t.TempDir(), "libonnxruntime.so"), nil); err == nil {
		t.Fatal("VerifyONNX(missing lib) = nil error")
	}
}

func TestVerifyONNX_RealRuntime(t *testing.T) {
	lib := testutil.RequireONNXRuntime(t)

	bogus := filepath.Join(t.TempDir(), "broken.onnx")
	if err := os.WriteFile(bogus, []byte("not a graph"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := doctor.VerifyONNX(lib, nil); err != nil {
		t.Fatalf("VerifyONNX(no graphs): %v", err)
	}
	if _, err := doctor.VerifyONNX(lib, []string{bogus}); err == nil {
		t.Fatal("VerifyONNX(broken graph) = nil error")
	}
}
