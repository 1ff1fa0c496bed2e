package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"narrator/internal/chapters"
	"narrator/internal/config"
	"narrator/internal/convert"
	"narrator/internal/notifications"
	"narrator/internal/preflight"
	"narrator/internal/queue"
	"narrator/internal/workflow"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the chapter job ledger",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRunCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var voice string

	cmd := &cobra.Command{
		Use:   "add <file-or-dir>...",
		Short: "Queue chapter text files for narration",
		Long:  "Queues each file. Directories contribute their *.txt files in name order.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				files, err := collectChapterFiles(args)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					return errors.New("no chapter files found")
				}
				encodings := append([]string{"utf-8"}, cfg.Chapters.Encodings...)
				out := cmd.OutOrStdout()
				added := 0
				for _, path := range files {
					text, _, err := chapters.ReadText(path, encodings)
					if err != nil {
						return fmt.Errorf("read %s: %w", path, err)
					}
					plan := workflow.PlanJob(cfg, path, chapters.Title(text))
					plan.Voice = strings.TrimSpace(voice)
					job, err := store.Enqueue(cmd.Context(), plan)
					if err != nil {
						if errors.Is(err, queue.ErrDuplicateJob) {
							fmt.Fprintf(out, "Skipped %s (already queued)\n", path)
							continue
						}
						return err
					}
					added++
					fmt.Fprintf(out, "Queued #%d %s\n", job.ID, job.Title)
				}
				fmt.Fprintf(out, "Added %d of %d files\n", added, len(files))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "Voice for these chapters (defaults to synth.voice)")
	return cmd
}

func collectChapterFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", arg, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, abs)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(abs, "*.txt"))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", arg, err)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued chapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(listStatuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				jobs, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if jsonOutput {
					if jobs == nil {
						jobs = []*queue.Job{}
					}
					return writeJSON(cmd, jobs)
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]column{numberCol("ID"), titleCol(), textCol("Status"), numberCol("Progress"), numberCol("Lines"), textCol("Updated")},
					buildJobRows(jobs),
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func buildJobRows(jobs []*queue.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		lines := "-"
		if job.Status == queue.StatusCompleted {
			lines = strconv.Itoa(job.Lines)
		}
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			job.Title,
			string(job.Status),
			formatPercent(job.Progress),
			lines,
			humanize.Time(job.UpdatedAt),
		})
	}
	return rows
}

func newQueueRunCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var recordEvents bool
	var skipPreflight bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Narrate pending chapters until the queue is drained",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				if !skipPreflight {
					if err := preflight.FirstFailure(preflight.RunAll(cmd.Context(), cfg)); err != nil {
						return fmt.Errorf("%w (run 'narrator status' for details)", err)
					}
				}
				conv := convert.New(newSynthService(cfg, logger), cfg.LRC, logger)
				runner, err := workflow.NewRunner(cfg, store, conv, logger, workflow.Options{
					RecordEvents: recordEvents,
					Limit:        limit,
					Notifier:     notifications.NewService(cfg),
				})
				if err != nil {
					return err
				}
				summary, err := runner.Run(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, summary)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session %s: %d completed, %d failed, %d need review\n",
					summary.SessionID, summary.Completed, summary.Failed, summary.Review)
				if summary.Cleaned > 0 {
					fmt.Fprintf(out, "Removed %d stale partial files (%s)\n", summary.Cleaned, humanize.IBytes(uint64(summary.CleanedBytes)))
				}
				if summary.Recovered > 0 {
					fmt.Fprintf(out, "Recovered %d interrupted jobs\n", summary.Recovered)
				}
				if summary.Interrupted {
					fmt.Fprintln(out, "Run interrupted; remaining chapters stay pending")
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many chapters (0 means no limit)")
	cmd.Flags().BoolVar(&recordEvents, "record-events", false, "Keep a JSON Lines log of synthesis events next to each LRC file")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without checking directories and the synthesizer")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [jobID...]",
		Short: "Return failed or review chapters to pending",
		Long:  "Without IDs every failed and review job is retried.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				updated, err := store.Retry(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if updated == 0 {
					fmt.Fprintln(out, "No jobs to retry")
					return nil
				}
				fmt.Fprintf(out, "Retrying %d jobs\n", updated)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <jobID>...",
		Short: "Remove jobs from the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				for _, id := range ids {
					removed, err := store.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Removed job %d\n", id)
					} else {
						fmt.Fprintf(out, "Job %d not found\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearStatuses []string
	var clearCompleted bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove jobs from the ledger",
		Long:  "Without filters every job that is not currently converting is removed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(clearStatuses)
			if err != nil {
				return err
			}
			if clearCompleted {
				statuses = append(statuses, queue.StatusCompleted)
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				removed, err := store.Clear(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d jobs\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&clearStatuses, "status", "s", nil, "Only clear jobs with this status (repeatable)")
	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Only clear completed jobs")
	return cmd
}

func parseStatuses(values []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(values))
	for _, value := range values {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func parseJobIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid job id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
