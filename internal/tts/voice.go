package tts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Voice is a speaker profile declared in the voice manifest. Path points at
// a reference sample, relative to the manifest directory unless absolute.
type Voice struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	License string `json:"license"`
}

type voiceManifest struct {
	Voices []Voice `json:"voices"`
}

type VoiceManager struct {
	baseDir string
	voices  []Voice
	byID    map[string]Voice
}

func NewVoiceManager(manifestPath string) (*VoiceManager, error) {
	if manifestPath == "" {
		return nil, errors.New("manifest path is required")
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read voice manifest: %w", err)
	}

	var manifest voiceManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode voice manifest: %w", err)
	}

	mgr := &VoiceManager{
		baseDir: filepath.Dir(manifestPath),
		byID:    make(map[string]Voice, len(manifest.Voices)),
	}

	for _, v := range manifest.Voices {
		if v.ID == "" {
			return nil, errors.New("voice manifest contains empty id")
		}
		if v.Path == "" {
			return nil, fmt.Errorf("voice %q has empty path", v.ID)
		}
		if _, exists := mgr.byID[v.ID]; exists {
			return nil, fmt.Errorf("duplicate voice id %q", v.ID)
		}
		mgr.byID[v.ID] = v
		mgr.voices = append(mgr.voices, v)
	}

	sort.Slice(mgr.voices, func(i, j int) bool { return mgr.voices[i].ID < mgr.voices[j].ID })

	return mgr, nil
}

// ListVoices returns the declared voices ordered by ID.
func (m *VoiceManager) ListVoices() []Voice {
	return append([]Voice(nil), m.voices...)
}

// Has reports whether id is declared in the manifest.
func (m *VoiceManager) Has(id string) bool {
	_, ok := m.byID[id]
	return ok
}

// ResolvePath returns the cleaned path of the sample for id. The file must
// exist.
func (m *VoiceManager) ResolvePath(id string) (string, error) {
	v, ok := m.byID[id]
	if !ok {
		return "", fmt.Errorf("unknown voice id %q", id)
	}

	resolved := v.Path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(m.baseDir, resolved)
	}
	resolved = filepath.Clean(resolved)

	if _, err := os.Stat(resolved); err != nil {
		return "", fmt.Errorf("voice file for %q: %w", id, err)
	}
	return resolved, nil
}

// AddVoice appends a voice to the manifest at manifestPath, creating the file
// when missing. An existing entry with the same ID is replaced.
func AddVoice(manifestPath string, v Voice) error {
	if v.ID == "" || v.Path == "" {
		return errors.New("voice id and path are required")
	}

	var manifest voiceManifest
	data, err := os.ReadFile(manifestPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &manifest); err != nil {
			return fmt.Errorf("decode voice manifest: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("read voice manifest: %w", err)
	}

	replaced := false
	for i := range manifest.Voices {
		if manifest.Voices[i].ID == v.ID {
			manifest.Voices[i] = v
			replaced = true
		}
	}
	if !replaced {
		manifest.Voices = append(manifest.Voices, v)
	}

	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode voice manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	return os.WriteFile(manifestPath, append(out, '\n'), 0o644)
}
