// Package session holds the interactive session's language and exit flag.
package session

import "sync"

// State is the per-process session state. It is owned by the orchestrator;
// synthesis and playback receive the language as a call parameter instead of
// reading it from here.
type State struct {
	mu         sync.RWMutex
	language   string
	terminated bool
}

// New returns a running session using language.
func New(language string) *State {
	return &State{language: language}
}

// Language returns the current language code.
func (s *State) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetLanguage switches the language. Codes are not validated; an unknown code
// surfaces later as a synthesis failure. It is a no-op once terminated and
// reports whether the state changed.
func (s *State) SetLanguage(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return false
	}
	s.language = code
	return true
}

// Terminate moves the session into its terminal state.
func (s *State) Terminate() {
	s.mu.Lock()
	s.terminated = true
	s.mu.Unlock()
}

// Terminated reports whether Terminate has been called.
func (s *State) Terminated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terminated
}
