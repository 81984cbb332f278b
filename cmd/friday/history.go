package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/go-friday-voice/internal/artifact"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored artifacts, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			entries, err := artifact.List(cfg.Paths.HistoryDir)
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no artifacts in %s\n", cfg.Paths.HistoryDir)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tSESSION\tCREATED\tBYTES")
			for _, e := range entries {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
					e.ID, e.Session, e.Stamp.Format("2006-01-02 15:04:05"), e.Size)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the most recent N artifacts (0 = all)")

	return cmd
}
