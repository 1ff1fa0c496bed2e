package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"narrator/internal/logging"
	"narrator/internal/services"
	"narrator/internal/tts"
)

// DefaultCommand is the synthesizer executable used when none is configured.
const DefaultCommand = "edge-tts-stream"

// Config captures the synthesizer command and its default voice settings.
type Config struct {
	Command string
	Args    []string
	Voice   string
	Rate    string
	Volume  string
	Pitch   string
}

// CommandRunner executes name with args, feeding stdin and writing the
// command's standard output to stdout.
type CommandRunner func(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error

// Service runs the synthesizer command for each request.
type Service struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner CommandRunner
}

// NewService creates a synthesizer service with the given configuration.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = DefaultCommand
	}
	return &Service{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "synth"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Command returns the configured executable.
func (s *Service) Command() string {
	return s.cfg.Command
}

// Stream synthesizes req.Text and calls fn for every event in order. A
// non-nil error from fn stops the command and is returned unchanged.
func (s *Service) Stream(ctx context.Context, req tts.Request, fn func(tts.Event) error) error {
	if strings.TrimSpace(req.Text) == "" {
		return services.Wrap(services.ErrValidation, "synth", "stream", "text is empty", nil)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := s.BuildArgs(req)
	s.logger.Debug("starting synthesizer",
		logging.String("command", s.cfg.Command),
		logging.Any("args", args),
		logging.Int("text_runes", len([]rune(req.Text))),
	)

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := s.run(ctx, s.cfg.Command, args, strings.NewReader(req.Text), pw)
		_ = pw.Close()
		done <- err
	}()

	decoder := tts.NewDecoder(pr)
	var streamErr error
	for {
		ev, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			streamErr = services.Wrap(services.ErrExternalTool, "synth", "decode output", "", err)
			break
		}
		if err := fn(ev); err != nil {
			streamErr = err
			break
		}
	}
	if streamErr != nil {
		cancel()
		_ = pr.CloseWithError(streamErr)
	}
	runErr := <-done

	if streamErr != nil {
		return streamErr
	}
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrExternalTool, "synth", "run command", "", runErr)
	}
	return ctx.Err()
}

// BuildArgs assembles the command line for req, falling back to the
// configured voice settings for empty request fields.
func (s *Service) BuildArgs(req tts.Request) []string {
	args := append([]string(nil), s.cfg.Args...)
	appendFlag := func(flag, value, fallback string) {
		value = strings.TrimSpace(value)
		if value == "" {
			value = strings.TrimSpace(fallback)
		}
		if value != "" {
			args = append(args, flag, value)
		}
	}
	appendFlag("--voice", req.Voice, s.cfg.Voice)
	appendFlag("--rate", req.Rate, s.cfg.Rate)
	appendFlag("--volume", req.Volume, s.cfg.Volume)
	appendFlag("--pitch", req.Pitch, s.cfg.Pitch)
	return args
}

func (s *Service) run(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args, stdin, stdout)
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

var _ tts.Synthesizer = (*Service)(nil)
