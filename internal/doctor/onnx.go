package doctor

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	ort "github.com/shota3506/onnxruntime-purego/onnxruntime"
)

// ORTAPIVersion is the ONNX Runtime C API version requested from the library.
const ORTAPIVersion = 23

// FindONNXGraphs lists the .onnx files under root. A missing root yields
// none.
func FindONNXGraphs(root string) []string {
	var graphs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".onnx") {
			graphs = append(graphs, path)
		}
		return nil
	})
	return graphs
}

// VerifyONNX loads the ONNX Runtime library at libPath and opens a session
// for every graph. It returns a short description on success.
func VerifyONNX(libPath string, graphs []string) (string, error) {
	runtime, err := ort.NewRuntime(libPath, ORTAPIVersion)
	if err != nil {
		return "", fmt.Errorf("initialize ONNX Runtime (lib=%q api=%d): %w", libPath, ORTAPIVersion, err)
	}
	defer func() { _ = runtime.Close() }()

	env, err := runtime.NewEnv("friday-doctor", ort.LoggingLevelWarning)
	if err != nil {
		return "", fmt.Errorf("create ONNX Runtime env: %w", err)
	}
	defer env.Close()

	var failures []string
	for _, g := range graphs {
		s, err := runtime.NewSession(env, g, nil)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(g), err))
			continue
		}
		s.Close()
	}
	if len(failures) > 0 {
		return "", fmt.Errorf("load failed for %d graph(s): %s", len(failures), strings.Join(failures, "; "))
	}

	return fmt.Sprintf("%s (%d graph(s) loaded)", libPath, len(graphs)), nil
}
