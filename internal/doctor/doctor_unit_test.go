package doctor

import (
	"strings"
	"testing"
)

func TestParseMajorMinor(t *testing.T) {
	tests := []struct {
		ver       string
		wantMajor int
		wantMinor int
		wantErr   bool
	}{
		{ver: "3.9", wantMajor: 3, wantMinor: 9},
		{ver: "3.11.9", wantMajor: 3, wantMinor: 11},
		{ver: "3.13.0rc1", wantMajor: 3, wantMinor: 13},
		{ver: "2.7.18", wantMajor: 2, wantMinor: 7},
		{ver: "3", wantErr: true},
		{ver: "", wantErr: true},
		{ver: "py.11", wantErr: true},
		{ver: "3.x", wantErr: true},
	}

	for _, tt := range tests {
		major, minor, err := parseMajorMinor(tt.ver)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseMajorMinor(%q) = %d.%d; want error", tt.ver, major, minor)
			}
			continue
		}
		if err != nil || major != tt.wantMajor || minor != tt.wantMinor {
			t.Errorf("parseMajorMinor(%q) = %d.%d, %v; want %d.%d",
				tt.ver, major, minor, err, tt.wantMajor, tt.wantMinor)
		}
	}
}

func TestCheckPythonVersion_PerEngineRange(t *testing.T) {
	tests := []struct {
		name    string
		r       PythonRange
		ver     string
		wantErr string
	}{
		{name: "coqui lower bound", r: CoquiPython, ver: "3.9.18"},
		{name: "coqui newest", r: CoquiPython, ver: "3.11.9"},
		{name: "coqui rejects 3.12", r: CoquiPython, ver: "3.12.1", wantErr: ">=3.9,<3.12"},
		{name: "coqui rejects 3.13", r: CoquiPython, ver: "3.13.0", wantErr: "got 3.13"},
		{name: "coqui rejects 3.8", r: CoquiPython, ver: "3.8.10", wantErr: "got 3.8"},
		{name: "pocket-tts rejects 3.9", r: PocketTTSPython, ver: "3.9.18", wantErr: ">=3.10,<3.15"},
		{name: "pocket-tts accepts 3.13", r: PocketTTSPython, ver: "3.13.0"},
		{name: "pocket-tts rejects 3.15", r: PocketTTSPython, ver: "3.15.0", wantErr: "got 3.15"},
		{name: "open range", r: PythonRange{}, ver: "3.4.0"},
		{name: "python 2", r: CoquiPython, ver: "2.7.18", wantErr: "requires Python 3"},
		{name: "garbage", r: CoquiPython, ver: "unknown", wantErr: "cannot parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkPythonVersion(tt.ver, tt.r)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("checkPythonVersion(%q, %s) = %v; want nil", tt.ver, tt.r, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("checkPythonVersion(%q, %s) = %v; want error containing %q", tt.ver, tt.r, err, tt.wantErr)
			}
		})
	}
}

func TestPythonRange_String(t *testing.T) {
	for r, want := range map[PythonRange]string{
		{Min: 9, Max: 12}: ">=3.9,<3.12",
		{Min: 10}:         ">=3.10",
		{Max: 15}:         "<3.15",
		{}:                "3.x",
	} {
		if got := r.String(); got != want {
			t.Errorf("%#v.String() = %q; want %q", r, got, want)
		}
	}
}
