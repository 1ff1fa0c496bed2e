package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"narrator/internal/config"
	"narrator/internal/fileutil"
	"narrator/internal/logging"
	"narrator/internal/lrc"
	"narrator/internal/services"
	"narrator/internal/tts"
)

// Request describes one chapter to narrate.
type Request struct {
	Title     string
	Text      string
	AudioPath string
	LRCPath   string
	// EventLogPath, when set, records every synthesis event as JSON Lines so
	// the alignment can be replayed with Align. The log is kept even when the
	// conversion fails, as long as at least one word boundary arrived.
	EventLogPath string
	Voice        string
	Rate         string
	Volume       string
	Pitch        string
	// Progress receives the aligned fraction of the text in [0,1]. It is
	// sampled, not called for every fragment.
	Progress func(fraction float64)
}

// Result summarizes a finished conversion.
type Result struct {
	Lines      int     `json:"lines"`
	Fragments  int     `json:"fragments"`
	AudioBytes int64   `json:"audio_bytes"`
	Misses     int     `json:"misses"`
	Progress   float64 `json:"progress"`
}

// Converter turns chapter text into narrated audio plus subtitles.
type Converter struct {
	synth  tts.Synthesizer
	lrc    config.LRC
	logger *slog.Logger
}

// New constructs a Converter using synth for speech and cfg for line-break rules.
func New(synth tts.Synthesizer, cfg config.LRC, logger *slog.Logger) *Converter {
	return &Converter{
		synth:  synth,
		lrc:    cfg,
		logger: logging.NewComponentLogger(logger, "convert"),
	}
}

// EngineOptions maps the [lrc] configuration onto engine options for text.
func EngineOptions(cfg config.LRC, text string) lrc.Options {
	opts := lrc.Options{StopGapMS: cfg.StopGapMS, CharBudget: cfg.CharBudget}
	if cfg.UseReference {
		opts.ReferenceText = text
	}
	return opts
}

// Convert narrates req.Text. Leading and trailing whitespace is not spoken.
func (c *Converter) Convert(ctx context.Context, req Request) (Result, error) {
	var result Result
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return result, services.Wrap(services.ErrValidation, "convert", "read text", "chapter has no text", nil)
	}
	if req.AudioPath == "" || req.LRCPath == "" {
		return result, services.Wrap(services.ErrConfiguration, "convert", "plan outputs", "audio and lrc paths are required", nil)
	}

	logger := logging.WithContext(ctx, c.logger)
	audio, err := fileutil.NewAtomicWriter(req.AudioPath, 0o644)
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, "convert", "open audio", "", err)
	}
	defer audio.Abort()

	var recorder *tts.Encoder
	if req.EventLogPath != "" {
		eventLog, err := fileutil.NewAtomicWriter(req.EventLogPath, 0o644)
		if err != nil {
			return result, services.Wrap(services.ErrConfiguration, "convert", "open event log", "", err)
		}
		defer eventLog.Abort()
		recorder = tts.NewEncoder(eventLog)
		defer func() {
			if result.Fragments > 0 {
				if err := eventLog.Commit(); err != nil {
					logging.WarnWithContext(logger, "event log not saved", "event_log_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "alignment cannot be replayed offline"))
				}
			}
		}()
	}

	engine := lrc.New(EngineOptions(c.lrc, text))
	sampler := logging.NewProgressSampler(logging.DefaultProgressStep)

	logger.Info("conversion started",
		logging.String("title", req.Title),
		logging.String("audio", req.AudioPath),
		logging.Int("text_runes", len([]rune(text))),
		logging.Bool("reference", c.lrc.UseReference),
	)

	handle := func(ev tts.Event) error {
		if recorder != nil {
			if err := recorder.Encode(ev); err != nil {
				return fmt.Errorf("record event: %w", err)
			}
		}
		switch ev := ev.(type) {
		case tts.Audio:
			if _, err := audio.Write(ev.Data); err != nil {
				return fmt.Errorf("write audio: %w", err)
			}
		case tts.WordBoundary:
			misses := engine.Misses()
			if err := engine.Feed(ev); err != nil {
				return err
			}
			result.Fragments++
			if engine.Misses() > misses {
				logging.WarnWithContext(logger, "fragment not found in reference text", "reference_miss",
					logging.String("fragment", ev.Text),
					logging.Int64("offset_ms", ev.OffsetMS()),
					logging.String(logging.FieldErrorHint, "check that the synthesizer received the chapter text unchanged"),
					logging.String(logging.FieldImpact, "fragment appended without punctuation recovery"),
				)
			}
			if !c.lrc.UseReference {
				return nil
			}
			if fraction := engine.Progress(); sampler.Sample(fraction) {
				logger.Info("conversion progress", logging.String("percent", fmt.Sprintf("%.1f", fraction*100)))
				if req.Progress != nil {
					req.Progress(fraction)
				}
			}
		}
		return nil
	}

	streamReq := tts.Request{Text: text, Voice: req.Voice, Rate: req.Rate, Volume: req.Volume, Pitch: req.Pitch}
	if err := c.synth.Stream(ctx, streamReq, handle); err != nil {
		return result, classify(ctx, err)
	}
	if result.Fragments == 0 {
		return result, services.Wrap(services.ErrExternalTool, "convert", "synthesize", "synthesizer produced no word boundaries", nil)
	}

	result.AudioBytes = audio.Size()
	if err := audio.Commit(); err != nil {
		return result, services.Wrap(services.ErrTransient, "convert", "save audio", "", err)
	}
	if err := fileutil.WriteFileAtomic(req.LRCPath, []byte(engine.Render()), 0o644); err != nil {
		return result, services.Wrap(services.ErrTransient, "convert", "save lrc", "", err)
	}

	result.Lines = len(engine.Lines())
	result.Misses = engine.Misses()
	result.Progress = engine.Progress()
	logger.Info("conversion finished",
		logging.Int("lines", result.Lines),
		logging.Int("fragments", result.Fragments),
		logging.Int64("audio_bytes", result.AudioBytes),
		logging.Int("reference_misses", result.Misses),
	)
	return result, nil
}

func classify(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return err
	case errors.Is(err, lrc.ErrOffsetRegression):
		return services.Wrap(services.ErrExternalTool, "convert", "align", "synthesizer emitted out-of-order boundaries", err)
	case errors.As(err, new(*services.Error)):
		return err
	default:
		return services.Wrap(services.ErrTransient, "convert", "synthesize", "", err)
	}
}

// Align replays a recorded JSONL event log through a fresh engine. Audio
// events are skipped.
func Align(r io.Reader, opts lrc.Options) (*lrc.Engine, error) {
	engine := lrc.New(opts)
	err := tts.Each(r, func(ev tts.Event) error {
		if wb, ok := ev.(tts.WordBoundary); ok {
			return engine.Feed(wb)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("align events: %w", err)
	}
	return engine, nil
}
