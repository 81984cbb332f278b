package tts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-friday-voice/internal/testutil"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestVoiceManager_ListAndResolve(t *testing.T) {
	tmp := t.TempDir()
	sample := testutil.WriteToneWAV(t, tmp, "astro.wav")
	manifest := writeManifest(t, tmp, `{
  "voices": [
    {"id": "tanja", "path": "missing.wav", "license": "CC-BY-4.0"},
    {"id": "astro", "path": "astro.wav", "license": "CC0"}
  ]
}`)

	mgr, err := NewVoiceManager(manifest)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	voices := mgr.ListVoices()
	if len(voices) != 2 || voices[0].ID != "astro" || voices[1].ID != "tanja" {
		t.Fatalf("ListVoices = %+v; want sorted astro, tanja", voices)
	}

	got, err := mgr.ResolvePath("astro")
	if err != nil || got != sample {
		t.Errorf("ResolvePath(astro) = %q, %v; want %q", got, err, sample)
	}
	if _, err := mgr.ResolvePath("tanja"); err == nil {
		t.Error("ResolvePath(tanja) with missing file = nil error")
	}
	if _, err := mgr.ResolvePath("nobody"); err == nil {
		t.Error("ResolvePath(unknown) = nil error")
	}
	if !mgr.Has("tanja") || mgr.Has("nobody") {
		t.Error("Has reports wrong membership")
	}
}

func TestNewVoiceManager_Errors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"invalid json", "{bad json"},
		{"empty id", `{"voices":[{"id":"","path":"v.wav"}]}`},
		{"empty path", `{"voices":[{"id":"v1","path":""}]}`},
		{"duplicate id", `{"voices":[{"id":"v1","path":"a.wav"},{"id":"v1","path":"b.wav"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.manifest)
			if _, err := NewVoiceManager(path); err == nil {
				t.Fatal("NewVoiceManager = nil error")
			}
		})
	}

	if _, err := NewVoiceManager(""); err == nil {
		t.Error("NewVoiceManager(\"\") = nil error")
	}
	if _, err := NewVoiceManager(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("NewVoiceManager(missing) = nil error")
	}
}

func TestAddVoice_CreatesAndReplaces(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "voices", "manifest.json")

	if err := AddVoice(manifest, Voice{ID: "astro", Path: "astro.wav"}); err != nil {
		t.Fatalf("AddVoice: %v", err)
	}
	if err := AddVoice(manifest, Voice{ID: "tanja", Path: "tanja.wav"}); err != nil {
		t.Fatalf("AddVoice: %v", err)
	}
	if err := AddVoice(manifest, Voice{ID: "astro", Path: "astro-v2.wav", License: "CC0"}); err != nil {
		t.Fatalf("AddVoice(replace): %v", err)
	}

	mgr, err := NewVoiceManager(manifest)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}
	voices := mgr.ListVoices()
	if len(voices) != 2 {
		t.Fatalf("voices = %+v", voices)
	}
	if voices[0].Path != "astro-v2.wav" || voices[0].License != "CC0" {
		t.Errorf("astro = %+v; want replaced entry", voices[0])
	}

	if err := AddVoice(manifest, Voice{ID: "x"}); err == nil {
		t.Error("AddVoice without path = nil error")
	}
}

func TestResolveSpeaker(t *testing.T) {
	tmp := t.TempDir()
	sample := testutil.WriteToneWAV(t, tmp, "astro.wav")
	manifest := writeManifest(t, tmp, `{"voices":[
		{"id":"astro","path":"astro.wav"},
		{"id":"ghost","path":"ghost.wav"}
	]}`)

	tests := []struct {
		name     string
		manifest string
		speaker  string
		want     Speaker
		wantErr  bool
	}{
		{"blank", manifest, "  ", Speaker{}, false},
		{"manifest voice", manifest, "astro", Speaker{Name: "astro", Reference: sample}, false},
		{"built-in name", manifest, "Tanja Adelina", Speaker{Name: "Tanja Adelina"}, false},
		{"direct file", "", sample, Speaker{Name: sample, Reference: sample}, false},
		{"missing manifest", filepath.Join(tmp, "nope.json"), "Tanja Adelina", Speaker{Name: "Tanja Adelina"}, false},
		{"declared but missing file", manifest, "ghost", Speaker{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSpeaker(tt.manifest, tt.speaker)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ResolveSpeaker = %+v; want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveSpeaker: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveSpeaker = %+v; want %+v", got, tt.want)
			}
		})
	}
}
