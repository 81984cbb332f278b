package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/go-friday-voice/internal/config"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "friday",
		Short: "Voice front end: type, hear it spoken, keep the audio",
		Long: "friday reads lines from the terminal, speaks them through a local\n" +
			"text-to-speech engine, keeps every utterance as a WAV file under the\n" +
			"history directory and plays it back. Without a subcommand it starts chat.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			activeCfg = cfg
			setupLogger(cfg.LogLevel, os.Stderr)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newSayCmd())
	cmd.AddCommand(newReplayCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newVoiceCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger. Every record
// carries the run ID so concurrent sessions can be told apart.
func setupLogger(levelStr string, w io.Writer) {
	lvl, err := config.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h).With("run_id", uuid.NewString()))
}

func requireConfig() (config.Config, error) {
	if activeCfg.Paths.HistoryDir == "" {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}
