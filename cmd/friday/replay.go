package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/go-friday-voice/internal/artifact"
)

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <artifact>",
		Short: "Play a stored artifact again",
		Long: "Play an artifact from the history directory. The argument may be an\n" +
			"artifact ID, a file name or a path.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			path, err := artifact.Resolve(cfg.Paths.HistoryDir, args[0])
			if err != nil {
				return err
			}

			player, err := buildPlayback(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			id := strings.TrimSuffix(filepath.Base(path), artifact.Ext)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Playing %s\n", id)
			return player.Play(ctx, artifact.Artifact{ID: id, Path: path})
		},
	}
}
