// Package testutil provides shared fixtures and skip helpers for tests.
//
// Skip helpers call t.Skip with a human-readable reason when the named
// prerequisite is absent, so integration tests stay runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestCoquiIntegration(t *testing.T) {
//	    testutil.RequireCoqui(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// RequireExecutable skips the test unless the binary named by envVar (or
// fallback when envVar is unset) can be found.
func RequireExecutable(tb testing.TB, envVar, fallback string) string {
	tb.Helper()

	exe := os.Getenv(envVar)
	if exe == "" {
		exe = fallback
	}

	path, err := exec.LookPath(exe)
	if err != nil {
		tb.Skipf("%s not available (%q not in PATH); set %s to override", fallback, exe, envVar)
		return ""
	}
	return path
}

// RequireCoqui skips the test if the Coqui `tts` CLI cannot be found.
func RequireCoqui(tb testing.TB) string {
	tb.Helper()
	return RequireExecutable(tb, "FRIDAY_TTS_CLI_PATH", "tts")
}

// RequirePocketTTS skips the test if the pocket-tts CLI cannot be found.
func RequirePocketTTS(tb testing.TB) string {
	tb.Helper()
	return RequireExecutable(tb, "FRIDAY_POCKETTTS_CLI_PATH", "pocket-tts")
}

// RequirePOSIXShell skips tests that drive fake CLIs written as /bin/sh
// scripts.
func RequirePOSIXShell(tb testing.TB) {
	tb.Helper()

	if runtime.GOOS == "windows" {
		tb.Skip("fake CLI scripts need /bin/sh")
		return
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		tb.Skipf("/bin/sh not available: %v", err)
	}
}

// RequireONNXRuntime skips the test if no ONNX Runtime shared library can be
// located. It checks ORT_LIBRARY_PATH, then FRIDAY_PATHS_ORT_LIBRARY_PATH,
// then common system library paths.
func RequireONNXRuntime(tb testing.TB) string {
	tb.Helper()

	for _, env := range []string{"ORT_LIBRARY_PATH", "FRIDAY_PATHS_ORT_LIBRARY_PATH"} {
		if p := os.Getenv(env); p != "" {
			if _, err := os.Stat(p); err == nil {
				return p
			}
			tb.Skipf("ONNX Runtime library not found at %s=%q", env, p)
			return ""
		}
	}

	for _, p := range []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	tb.Skip("ONNX Runtime shared library not found; set ORT_LIBRARY_PATH")
	return ""
}

// WriteScript writes an executable /bin/sh script named name into dir and
// returns its path.
func WriteScript(tb testing.TB, dir, name, body string) string {
	tb.Helper()
	RequirePOSIXShell(tb)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		tb.Fatalf("write script %s: %v", name, err)
	}
	return path
}
