package orchestrator

import "strings"

// Kind is the action an input line maps to.
type Kind int

const (
	KindSpeak Kind = iota
	KindLanguageSwitch
	KindExit
	KindNoop
)

func (k Kind) String() string {
	switch k {
	case KindSpeak:
		return "speak"
	case KindLanguageSwitch:
		return "language-switch"
	case KindExit:
		return "exit"
	case KindNoop:
		return "noop"
	default:
		return "unknown"
	}
}

// Command is a classified input line. Text holds the words to speak for
// KindSpeak; Language holds the new code for KindLanguageSwitch.
type Command struct {
	Kind     Kind
	Text     string
	Language string
}

const (
	langCommand = "/lang"
	langPrefix  = langCommand + " "
)

var exitWords = map[string]bool{"quit": true, "exit": true, "bye": true}

// Classify maps one input line to a Command. Exit words win over everything,
// then "/lang <code>" (a bare "/lang" does nothing), then speech. An empty
// line is speech with empty text.
func Classify(line string) Command {
	trimmed := strings.TrimSpace(line)

	if exitWords[strings.ToLower(trimmed)] {
		return Command{Kind: KindExit}
	}

	if trimmed == langCommand {
		return Command{Kind: KindNoop}
	}
	if rest, ok := strings.CutPrefix(trimmed, langPrefix); ok {
		return Command{Kind: KindLanguageSwitch, Language: strings.TrimSpace(rest)}
	}

	return Command{Kind: KindSpeak, Text: trimmed}
}
