package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"narrator/internal/chapters"
	"narrator/internal/convert"
	"narrator/internal/fileutil"
	"narrator/internal/lrc"
)

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var referencePath string
	var outputPath string
	var stopGap int64
	var charBudget float64

	cmd := &cobra.Command{
		Use:   "align <events.jsonl>",
		Short: "Build LRC subtitles from a recorded synthesis event log",
		Long: "Replays a JSON Lines log of synthesis events through the alignment engine.\n" +
			"Audio events are ignored. Use '-' to read the log from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			opts := lrc.Options{
				StopGapMS:  cfg.LRC.StopGapMS,
				CharBudget: cfg.LRC.CharBudget,
			}
			if cmd.Flags().Changed("stop-gap") {
				opts.StopGapMS = stopGap
			}
			if cmd.Flags().Changed("char-budget") {
				opts.CharBudget = charBudget
			}
			if strings.TrimSpace(referencePath) != "" {
				encodings := append([]string{"utf-8"}, cfg.Chapters.Encodings...)
				text, _, err := chapters.ReadText(referencePath, encodings)
				if err != nil {
					return fmt.Errorf("read reference: %w", err)
				}
				opts.ReferenceText = strings.TrimSpace(text)
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open event log: %w", err)
				}
				defer file.Close()
				in = file
			}

			engine, err := convert.Align(in, opts)
			if err != nil {
				return err
			}
			rendered := engine.Render()

			if strings.TrimSpace(outputPath) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return nil
			}
			if err := fileutil.WriteFileAtomic(outputPath, []byte(rendered), 0o644); err != nil {
				return fmt.Errorf("write subtitles: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d lines to %s\n", len(engine.Lines()), outputPath)
			if misses := engine.Misses(); misses > 0 {
				fmt.Fprintf(out, "%d fragments were not found in the reference text\n", misses)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&referencePath, "reference", "r", "", "Source text used to recover punctuation")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the LRC file here instead of stdout")
	cmd.Flags().Int64Var(&stopGap, "stop-gap", 0, "Silence in milliseconds that starts a new line (<=0 disables)")
	cmd.Flags().Float64Var(&charBudget, "char-budget", 0, "Maximum weighted characters per line (<=0 disables)")
	return cmd
}
