package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-friday-voice/internal/tts"
)

func newSayCmd() *cobra.Command {
	var (
		text     string
		language string
		noPlay   bool
	)

	cmd := &cobra.Command{
		Use:   "say",
		Short: "Speak one line and keep the artifact",
		Long: "Synthesize a single utterance, store it under the history directory and\n" +
			"play it. Text comes from --text or, when omitted, from stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			input, err := readSayText(text, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if language == "" {
				language = cfg.Session.Language
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			synth, err := buildSynthesis(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = synth.Close() }()

			art, err := synth.Synthesize(ctx, tts.Utterance{
				Text:        input,
				Language:    language,
				RequestedAt: time.Now(),
			})
			if err != nil {
				return err
			}
			slog.Info("artifact saved", "id", art.ID, "path", art.Path, "language", art.Language)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), art.Path)

			if noPlay {
				return nil
			}
			player, err := buildPlayback(cfg)
			if err != nil {
				return err
			}
			return player.Play(ctx, art)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to speak (reads stdin when empty)")
	cmd.Flags().StringVar(&language, "lang", "", "Language code (defaults to --language)")
	cmd.Flags().BoolVar(&noPlay, "no-play", false, "Only synthesize, do not play")

	return cmd
}

// readSayText returns the flag value, or stdin when the flag is empty.
func readSayText(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text = strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("no text: pass --text or pipe text on stdin")
	}
	return text, nil
}
