package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"narrator/internal/chapters"
	"narrator/internal/convert"
	"narrator/internal/logging"
	"narrator/internal/workflow"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var voice string
	var recordEvents bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "convert <chapter.txt>",
		Short: "Narrate one text file into audio and LRC subtitles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			source, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve source: %w", err)
			}
			encodings := append([]string{"utf-8"}, cfg.Chapters.Encodings...)
			text, _, err := chapters.ReadText(source, encodings)
			if err != nil {
				return fmt.Errorf("read chapter: %w", err)
			}

			plan := workflow.PlanJob(cfg, source, chapters.Title(text))
			if dir := strings.TrimSpace(outputDir); dir != "" {
				plan.AudioPath = filepath.Join(dir, filepath.Base(plan.AudioPath))
				plan.LRCPath = filepath.Join(dir, filepath.Base(plan.LRCPath))
			}
			if strings.TrimSpace(voice) == "" {
				voice = cfg.Synth.Voice
			}

			req := convert.Request{
				Title:     plan.Title,
				Text:      text,
				AudioPath: plan.AudioPath,
				LRCPath:   plan.LRCPath,
				Voice:     voice,
				Rate:      cfg.Synth.Rate,
				Volume:    cfg.Synth.Volume,
				Pitch:     cfg.Synth.Pitch,
			}
			if recordEvents {
				req.EventLogPath = workflow.EventLogPath(plan.LRCPath)
			}
			var bar *progressbar.ProgressBar
			if !jsonOutput && cfg.LRC.UseReference {
				bar = newProgressBar(cmd.ErrOrStderr(), plan.Title)
			}
			if bar != nil {
				req.Progress = func(fraction float64) { _ = bar.Set(int(fraction * progressSteps)) }
			}

			runCtx := cmd.Context()
			if timeout := cfg.SynthTimeout(); timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, time.Duration(timeout)*time.Second)
				defer cancel()
			}

			conv := convert.New(newSynthService(cfg, logger), cfg.LRC, logger)
			result, err := conv.Convert(runCtx, req)
			if bar != nil {
				if err == nil {
					_ = bar.Finish()
				} else {
					_ = bar.Exit()
				}
			}
			if err != nil {
				logging.ErrorWithContext(logger, "conversion failed", "convert_failed",
					logging.String(logging.FieldChapter, plan.Title),
					logging.Error(err),
				)
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, struct {
					AudioPath string         `json:"audio_path"`
					LRCPath   string         `json:"lrc_path"`
					Result    convert.Result `json:"result"`
				}{plan.AudioPath, plan.LRCPath, result})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Audio:     %s (%s)\n", plan.AudioPath, humanize.IBytes(uint64(result.AudioBytes)))
			fmt.Fprintf(out, "Subtitles: %s (%d lines from %d fragments)\n", plan.LRCPath, result.Lines, result.Fragments)
			if result.Misses > 0 {
				fmt.Fprintf(out, "Reference misses: %d\n", result.Misses)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the audio and LRC files (defaults to paths.output_dir)")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice override")
	cmd.Flags().BoolVar(&recordEvents, "record-events", false, "Keep a JSON Lines log of synthesis events next to the LRC file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
