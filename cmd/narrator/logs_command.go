package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"narrator/internal/logging"
	"narrator/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var jobID int64
	var chapter string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the narrator log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var jobFilter logs.Filter
			if jobID > 0 {
				jobFilter = logs.Field(logging.FieldJobID, strconv.FormatInt(jobID, 10))
			}
			filter := logs.All(jobFilter, logs.Contains(chapter))

			out := cmd.OutOrStdout()
			path := cfg.LogPath()
			recent, offset, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, logs.DefaultPollInterval, filter, func(batch []string) error {
				for _, line := range batch {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of recent lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().Int64Var(&jobID, "job", 0, "Only show lines for this job ID")
	cmd.Flags().StringVar(&chapter, "chapter", "", "Only show lines mentioning this chapter")
	return cmd
}
