package orchestrator

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"quit", Command{Kind: KindExit}},
		{"  EXIT ", Command{Kind: KindExit}},
		{"Bye", Command{Kind: KindExit}},
		{"bye bye", Command{Kind: KindSpeak, Text: "bye bye"}},
		{"/lang fr", Command{Kind: KindLanguageSwitch, Language: "fr"}},
		{"  /lang   es  ", Command{Kind: KindLanguageSwitch, Language: "es"}},
		{"/lang\tde", Command{Kind: KindSpeak, Text: "/lang\tde"}},
		{"/lang\nde", Command{Kind: KindSpeak, Text: "/lang\nde"}},
		{"/lang  it", Command{Kind: KindLanguageSwitch, Language: "it"}},
		{"/lang", Command{Kind: KindNoop}},
		{"/lang    ", Command{Kind: KindNoop}},
		{"/language fr", Command{Kind: KindSpeak, Text: "/language fr"}},
		{"/LANG fr", Command{Kind: KindSpeak, Text: "/LANG fr"}},
		{"", Command{Kind: KindSpeak, Text: ""}},
		{"   ", Command{Kind: KindSpeak, Text: ""}},
		{"  hola  ", Command{Kind: KindSpeak, Text: "hola"}},
		{"quit now", Command{Kind: KindSpeak, Text: "quit now"}},
	}

	for _, tt := range tests {
		if got := Classify(tt.line); got != tt.want {
			t.Errorf("Classify(%q) = %+v; want %+v", tt.line, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{
		KindSpeak:          "speak",
		KindLanguageSwitch: "language-switch",
		KindExit:           "exit",
		KindNoop:           "noop",
		Kind(42):           "unknown",
	} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q; want %q", k, got, want)
		}
	}
}
