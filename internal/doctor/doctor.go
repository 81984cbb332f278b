// Package doctor provides environment preflight checks for friday.
package doctor

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check. Nil funcs and
// empty paths skip their check.
type Config struct {
	// Engine is the selected synthesis engine, printed for context.
	Engine string
	// EngineVersion probes the engine executable or server.
	EngineVersion VersionFunc
	// PythonVersion returns the Python version string (e.g. "3.11.4").
	PythonVersion VersionFunc
	// Python is the range PythonVersion must fall in.
	Python PythonRange
	// ModelPath must exist when set.
	ModelPath string
	// VoiceFiles is the list of speaker reference files to verify on disk.
	VoiceFiles []string
	// HistoryDir must be creatable and writable.
	HistoryDir string
	// Player reports the playback device that will be used.
	Player VersionFunc
	// ORTLibrary and ONNXGraphs enable the ONNX Runtime check.
	ORTLibrary string
	ONNXGraphs []string
	VerifyONNX func(libPath string, graphs []string) (string, error)
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) check(w io.Writer, name, detail string, err error) {
	if err != nil {
		r.failures = append(r.failures, fmt.Sprintf("%s: %v", name, err))
		fmt.Fprintf(w, "%s %s: %v\n", FailMark, name, err)
		return
	}
	fmt.Fprintf(w, "%s %s: %s\n", PassMark, name, detail)
}

func skip(w io.Writer, name, why string) {
	fmt.Fprintf(w, "%s %s: skipped (%s)\n", PassMark, name, why)
}

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	if cfg.Engine != "" {
		fmt.Fprintf(w, "engine: %s\n", cfg.Engine)
	}

	// ---- engine -----------------------------------------------------------
	if cfg.EngineVersion == nil {
		skip(w, "engine", "no probe")
	} else {
		ver, err := cfg.EngineVersion()
		res.check(w, "engine", ver, err)
	}

	// ---- Python version ---------------------------------------------------
	if cfg.PythonVersion == nil {
		skip(w, "python version", "engine does not run on Python")
	} else {
		ver, err := cfg.PythonVersion()
		if err == nil {
			if verErr := checkPythonVersion(ver, cfg.Python); verErr != nil {
				err = fmt.Errorf("%s: %w", ver, verErr)
			}
		}
		res.check(w, "python version", ver, err)
	}

	// ---- model ------------------------------------------------------------
	if cfg.ModelPath != "" {
		_, err := os.Stat(cfg.ModelPath)
		res.check(w, "model path", cfg.ModelPath, err)
	}

	// ---- voice files ------------------------------------------------------
	for _, path := range cfg.VoiceFiles {
		_, err := os.Stat(path)
		res.check(w, "voice file", path, err)
	}

	// ---- history dir ------------------------------------------------------
	if cfg.HistoryDir != "" {
		res.check(w, "history dir", cfg.HistoryDir, checkWritable(cfg.HistoryDir))
	}

	// ---- playback ---------------------------------------------------------
	if cfg.Player != nil {
		desc, err := cfg.Player()
		res.check(w, "playback", desc, err)
	}

	// ---- ONNX Runtime -----------------------------------------------------
	switch {
	case cfg.ORTLibrary == "":
		skip(w, "onnx runtime", "paths.ort_library_path not set")
	case cfg.VerifyONNX == nil:
		skip(w, "onnx runtime", "no verifier")
	default:
		desc, err := cfg.VerifyONNX(cfg.ORTLibrary, cfg.ONNXGraphs)
		res.check(w, "onnx runtime", desc, err)
	}

	return res
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// PythonRange bounds the Python 3 minor version an engine runs on. Max is
// exclusive; zero bounds are open.
type PythonRange struct {
	Min int
	Max int
}

// Supported Python ranges of the CLI engines.
var (
	CoquiPython     = PythonRange{Min: 9, Max: 12}
	PocketTTSPython = PythonRange{Min: 10, Max: 15}
)

func (r PythonRange) String() string {
	switch {
	case r.Min > 0 && r.Max > 0:
		return fmt.Sprintf(">=3.%d,<3.%d", r.Min, r.Max)
	case r.Min > 0:
		return fmt.Sprintf(">=3.%d", r.Min)
	case r.Max > 0:
		return fmt.Sprintf("<3.%d", r.Max)
	default:
		return "3.x"
	}
}

// checkPythonVersion reports whether ver (e.g. "3.11.4") falls inside r.
func checkPythonVersion(ver string, r PythonRange) error {
	major, minor, err := parseMajorMinor(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major != 3 {
		return fmt.Errorf("requires Python 3, got %d", major)
	}
	if (r.Min > 0 && minor < r.Min) || (r.Max > 0 && minor >= r.Max) {
		return fmt.Errorf("requires Python %s, got 3.%d", r, minor)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
