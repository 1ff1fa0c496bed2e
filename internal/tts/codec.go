package tts

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxLineBytes bounds a single JSONL record; audio chunks are base64 encoded.
const maxLineBytes = 16 << 20

// ErrUnknownType is returned for records whose type tag is not recognised.
var ErrUnknownType = errors.New("unknown event type")

// wireEvent is the decoding view of any record; fields a type does not use
// are left zero.
type wireEvent struct {
	Type     string `json:"type"`
	Offset   int64  `json:"offset"`
	Duration int64  `json:"duration"`
	Text     string `json:"text"`
	Data     []byte `json:"data"`
}

// Encoded records match the synthesizer's chunk shapes: word boundaries
// always carry offset, duration and text, audio chunks only data.
type wordBoundaryRecord struct {
	Type     string `json:"type"`
	Offset   int64  `json:"offset"`
	Duration int64  `json:"duration"`
	Text     string `json:"text"`
}

type audioRecord struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// Decoder reads events from a JSON Lines stream.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Decoder{scanner: scanner}
}

// Next returns the next event, or io.EOF when the stream is exhausted. Blank
// lines are skipped.
func (d *Decoder) Next() (Event, error) {
	for d.scanner.Scan() {
		d.line++
		raw := strings.TrimSpace(d.scanner.Text())
		if raw == "" {
			continue
		}
		var wire wireEvent
		if err := json.Unmarshal([]byte(raw), &wire); err != nil {
			return nil, fmt.Errorf("decode event line %d: %w", d.line, err)
		}
		switch wire.Type {
		case TypeWordBoundary:
			return WordBoundary{Offset: wire.Offset, Duration: wire.Duration, Text: wire.Text}, nil
		case TypeAudio:
			return Audio{Data: wire.Data}, nil
		default:
			return nil, fmt.Errorf("decode event line %d: %w %q", d.line, ErrUnknownType, wire.Type)
		}
	}
	if err := d.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return nil, io.EOF
}

// Each decodes every event in r and hands it to fn.
func Each(r io.Reader, fn func(Event) error) error {
	dec := NewDecoder(r)
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

// Encoder writes events as JSON Lines.
type Encoder struct {
	enc *json.Encoder
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Encoder{enc: enc}
}

// Encode writes a single event.
func (e *Encoder) Encode(ev Event) error {
	switch v := ev.(type) {
	case WordBoundary:
		return e.enc.Encode(wordBoundaryRecord{Type: TypeWordBoundary, Offset: v.Offset, Duration: v.Duration, Text: v.Text})
	case Audio:
		return e.enc.Encode(audioRecord{Type: TypeAudio, Data: v.Data})
	default:
		return fmt.Errorf("encode event: %w %q", ErrUnknownType, TypeOf(ev))
	}
}
