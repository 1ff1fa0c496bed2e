package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"narrator/internal/config"
	"narrator/internal/preflight"
	"narrator/internal/queue"
)

type statusReport struct {
	Checks []preflight.Result `json:"checks"`
	Queue  map[string]int     `json:"queue"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show readiness checks and queue counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := statusReport{
				Checks: preflight.RunAll(cmd.Context(), cfg),
				Queue:  map[string]int{},
			}
			err = ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				for status, count := range stats {
					report.Queue[string(status)] = count
				}
				return nil
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("System", colorize)
			for _, check := range report.Checks {
				lines = append(lines, renderStatusLine(check.Name, checkKind(check), check.Detail, colorize))
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Queue", colorize)...)
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			fmt.Fprint(out, renderTable([]column{textCol("Status"), numberCol("Count")}, buildQueueStatusRows(report.Queue)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func checkKind(check preflight.Result) statusKind {
	switch {
	case check.Passed:
		return statusOK
	case check.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func buildQueueStatusRows(stats map[string]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		rows = append(rows, []string{string(status), strconv.Itoa(stats[string(status)])})
	}
	return rows
}
