package orchestrator

import "fmt"

// InputError describes a line that could not be acted on as written. It is
// logged and never ends the session.
type InputError struct {
	Line   string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %q: %s", e.Line, e.Reason)
}

// FatalInitError reports startup work that failed before the loop began.
type FatalInitError struct {
	Err error
}

func (e *FatalInitError) Error() string {
	return fmt.Sprintf("initialization failed: %v", e.Err)
}

func (e *FatalInitError) Unwrap() error { return e.Err }
