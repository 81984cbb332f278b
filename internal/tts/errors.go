package tts

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText is returned by engines that cannot speak an empty string.
	ErrEmptyText = errors.New("empty input text")
	// ErrUnsupportedLanguage is returned when an engine has no voice for the
	// requested language code.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// SynthesisError reports a failed utterance. Every error returned by
// Service.Synthesize has this type.
type SynthesisError struct {
	Text     string
	Language string
	Err      error
}

// Stage names the pipeline stage that failed.
func (e *SynthesisError) Stage() string { return "synthesis" }

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis (%s): %v", e.Language, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
