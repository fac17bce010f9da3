package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storyloader/internal/logging"
	"storyloader/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var batchID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the newest log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := logs.Latest(cfg.Paths.LogDir, logging.LogFilePattern)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					fmt.Fprintf(cmd.OutOrStdout(), "No log files in %s\n", cfg.Paths.LogDir)
					return nil
				}
				return err
			}
			return logs.Tail(cmd.Context(), path, cmd.OutOrStdout(), logs.TailOptions{
				Limit:  lines,
				Follow: follow,
				Match:  logs.BatchFilter(batchID),
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&batchID, "batch", "", "Only show lines for this batch id (prefix accepted)")
	return cmd
}
