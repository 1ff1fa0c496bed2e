package testsupport

import (
	"context"
	"sync"
	"unicode"

	"narrator/internal/tts"
)

// FakeSynthesizer emits one word boundary per letter of the request text,
// preceded by a one-byte audio chunk. Words are contiguous; punctuation and
// whitespace are not spoken but insert PauseMS of silence.
type FakeSynthesizer struct {
	StepMS  int64
	PauseMS int64
	// FailAfter makes Stream return Err after that many word boundaries; zero
	// with a non-nil Err fails before emitting anything.
	FailAfter int
	Err       error

	mu       sync.Mutex
	requests []tts.Request
}

// Requests returns the requests seen so far.
func (f *FakeSynthesizer) Requests() []tts.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tts.Request(nil), f.requests...)
}

// Stream implements tts.Synthesizer.
func (f *FakeSynthesizer) Stream(ctx context.Context, req tts.Request, fn func(tts.Event) error) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	step := f.StepMS
	if step <= 0 {
		step = 200
	}
	pause := f.PauseMS
	if pause <= 0 {
		pause = 500
	}
	if f.Err != nil && f.FailAfter == 0 {
		return f.Err
	}

	var offsetMS int64
	words := 0
	for _, r := range req.Text {
		if err := ctx.Err(); err != nil {
			return err
		}
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			offsetMS += pause
			continue
		}
		if err := fn(tts.Audio{Data: []byte{byte(words)}}); err != nil {
			return err
		}
		wb := tts.WordBoundary{
			Offset:   offsetMS * tts.TicksPerMillisecond,
			Duration: step * tts.TicksPerMillisecond,
			Text:     string(r),
		}
		if err := fn(wb); err != nil {
			return err
		}
		offsetMS += step
		words++
		if f.Err != nil && words >= f.FailAfter {
			return f.Err
		}
	}
	return nil
}

var _ tts.Synthesizer = (*FakeSynthesizer)(nil)
