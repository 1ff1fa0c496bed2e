package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"narrator/internal/chapters"
	"narrator/internal/config"
	"narrator/internal/queue"
	"narrator/internal/textutil"
	"narrator/internal/workflow"
)

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	chaptersCmd := &cobra.Command{
		Use:   "chapters",
		Short: "Split novels into chapter files and edit them",
		Long: "Chapter indexes are zero-based, as shown by 'chapters list'.\n" +
			"Editing renumbers the chapter files; queued jobs keep their old paths.",
	}
	chaptersCmd.AddCommand(newChaptersSplitCommand(ctx))
	chaptersCmd.AddCommand(newChaptersListCommand())
	chaptersCmd.AddCommand(newChaptersMergeCommand())
	chaptersCmd.AddCommand(newChaptersSplitAtCommand())
	chaptersCmd.AddCommand(newChaptersEditCommand())
	return chaptersCmd
}

func newChaptersSplitCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var pattern string
	var minChars int
	var merge []int
	var dryRun bool
	var enqueue bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "split <novel.txt>",
		Short: "Detect chapter headings and write one file per chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := chapters.Options{
				Pattern:   cfg.Chapters.Pattern,
				MinChars:  cfg.Chapters.MinChars,
				Encodings: cfg.Chapters.Encodings,
			}
			if cmd.Flags().Changed("pattern") {
				opts.Pattern = pattern
			}
			if cmd.Flags().Changed("min-chars") {
				opts.MinChars = minChars
			}

			book, err := chapters.Open(args[0], opts)
			if err != nil {
				return err
			}
			if err := applyMerges(book, merge); err != nil {
				return err
			}

			if dryRun {
				if jsonOutput {
					return writeJSON(cmd, book)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderChapterTable(book))
				return nil
			}

			dir := strings.TrimSpace(outDir)
			if dir == "" {
				dir = defaultChapterDir(cfg, args[0])
			}
			written, err := book.WriteDir(dir)
			if err != nil {
				return err
			}

			var queued []*queue.Job
			if enqueue {
				err := ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
					for i, path := range written {
						job, err := store.Enqueue(cmd.Context(), workflow.PlanJob(cfg, path, book.Chapters[i].Title))
						if err != nil {
							if errors.Is(err, queue.ErrDuplicateJob) {
								continue
							}
							return err
						}
						queued = append(queued, job)
					}
					return nil
				})
				if err != nil {
					return err
				}
			}

			if jsonOutput {
				return writeJSON(cmd, struct {
					Source   string       `json:"source"`
					Encoding string       `json:"encoding"`
					Files    []string     `json:"files"`
					Queued   []*queue.Job `json:"queued,omitempty"`
				}{book.Source, book.Encoding, written, queued})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Decoded %s as %s\n", book.Source, book.Encoding)
			fmt.Fprintf(out, "Wrote %d chapters to %s\n", len(written), dir)
			if enqueue {
				fmt.Fprintf(out, "Queued %d chapters\n", len(queued))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for chapter files (defaults to a folder under paths.content_dir)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Chapter heading regular expression")
	cmd.Flags().IntVar(&minChars, "min-chars", chapters.DefaultMinChars, "Minimum characters before a heading starts a new chapter")
	cmd.Flags().IntSliceVar(&merge, "merge", nil, "Merge the chapter at this index into the one before it (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List detected chapters without writing files")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Add the written chapters to the job ledger")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// applyMerges merges from the highest index down so earlier indexes stay valid.
func applyMerges(book *chapters.Book, indexes []int) error {
	sorted := slices.Clone(indexes)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	slices.Reverse(sorted)
	for _, idx := range sorted {
		if err := book.MergeUp(idx); err != nil {
			return fmt.Errorf("merge chapter %d: %w", idx, err)
		}
	}
	return nil
}

func defaultChapterDir(cfg *config.Config, source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(cfg.Paths.ContentDir, textutil.SanitizeFileName(base))
}

func renderChapterTable(book *chapters.Book) string {
	rows := make([][]string, 0, book.Len())
	for i, ch := range book.Chapters {
		rows = append(rows, []string{
			strconv.Itoa(i),
			ch.Title,
			strconv.Itoa(utf8.RuneCountInString(ch.Content)),
		})
	}
	return renderTable([]column{numberCol("#"), titleCol(), numberCol("Chars")}, rows)
}

func newChaptersListCommand() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list <dir>",
		Short: "List the chapter files in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := chapters.OpenDir(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, book)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderChapterTable(book))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// editChapterDir loads dir, applies edit and writes the result back.
func editChapterDir(cmd *cobra.Command, dir string, edit func(*chapters.Book) error) error {
	book, err := chapters.OpenDir(dir)
	if err != nil {
		return err
	}
	if err := edit(book); err != nil {
		return err
	}
	written, err := book.RewriteDir(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rewrote %d chapters in %s\n", len(written), dir)
	return nil
}

func newChaptersMergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <dir> <index>",
		Short: "Append a chapter to the one before it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseChapterIndex(args[1])
			if err != nil {
				return err
			}
			return editChapterDir(cmd, args[0], func(book *chapters.Book) error {
				return book.MergeUp(index)
			})
		},
	}
}

func newChaptersSplitAtCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "split-at <dir> <index> <offset>",
		Short: "Cut a chapter in two at a character offset",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseChapterIndex(args[1])
			if err != nil {
				return err
			}
			offset, err := strconv.Atoi(strings.TrimSpace(args[2]))
			if err != nil {
				return fmt.Errorf("invalid offset %q", args[2])
			}
			return editChapterDir(cmd, args[0], func(book *chapters.Book) error {
				return book.SplitAt(index, offset)
			})
		},
	}
}

func newChaptersEditCommand() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "edit <dir> <index>",
		Short: "Replace a chapter's text",
		Long:  "Reads the new text from --from, or from stdin when --from is omitted or '-'. The chapter is retitled from its first line.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseChapterIndex(args[1])
			if err != nil {
				return err
			}
			var data []byte
			if from == "" || from == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(from)
			}
			if err != nil {
				return fmt.Errorf("read replacement text: %w", err)
			}
			return editChapterDir(cmd, args[0], func(book *chapters.Book) error {
				return book.SetContent(index, string(data))
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "File holding the new chapter text")
	return cmd
}

func parseChapterIndex(arg string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid chapter index %q", arg)
	}
	return index, nil
}
