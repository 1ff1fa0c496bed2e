package tts

import "context"

// TicksPerMillisecond converts synthesizer ticks (100ns units) to milliseconds.
const TicksPerMillisecond = 10000

// Event is a single element of a synthesis stream.
type Event interface {
	eventType() string
}

// WordBoundary reports the timing of one spoken text fragment.
type WordBoundary struct {
	// Offset is the fragment start within the audio track, in ticks.
	Offset int64
	// Duration is the fragment length, in ticks.
	Duration int64
	// Text is the fragment as the synthesizer spoke it.
	Text string
}

func (WordBoundary) eventType() string { return TypeWordBoundary }

// OffsetMS returns the fragment start in whole milliseconds.
func (w WordBoundary) OffsetMS() int64 { return w.Offset / TicksPerMillisecond }

// DurationMS returns the fragment length in whole milliseconds.
func (w WordBoundary) DurationMS() int64 { return w.Duration / TicksPerMillisecond }

// EndMS returns OffsetMS()+DurationMS().
func (w WordBoundary) EndMS() int64 { return w.OffsetMS() + w.DurationMS() }

// Audio carries a chunk of encoded audio.
type Audio struct {
	Data []byte
}

func (Audio) eventType() string { return TypeAudio }

// Wire type tags.
const (
	TypeWordBoundary = "WordBoundary"
	TypeAudio        = "audio"
)

// TypeOf returns the wire tag of an event, or "" for nil.
func TypeOf(ev Event) string {
	if ev == nil {
		return ""
	}
	return ev.eventType()
}

// Request describes a narration job handed to a Synthesizer.
type Request struct {
	Text   string
	Voice  string
	Rate   string
	Volume string
	Pitch  string
}

// Synthesizer narrates text and delivers events, in order, to fn. Stream
// returns once the stream is exhausted, fn returns an error, or ctx ends.
type Synthesizer interface {
	Stream(ctx context.Context, req Request, fn func(Event) error) error
}
