package tts

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDecoderReadsBothVariants(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"audio","data":"AAEC"}`,
		``,
		`{"type":"WordBoundary","offset":6000000,"duration":4000000,"text":"世界"}`,
	}, "\n")

	dec := NewDecoder(strings.NewReader(input))

	first, err := dec.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	audio, ok := first.(Audio)
	if !ok {
		t.Fatalf("expected Audio, got %T", first)
	}
	if !bytes.Equal(audio.Data, []byte{0, 1, 2}) {
		t.Fatalf("unexpected audio payload: %v", audio.Data)
	}

	second, err := dec.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	wb, ok := second.(WordBoundary)
	if !ok {
		t.Fatalf("expected WordBoundary, got %T", second)
	}
	if wb.Text != "世界" || wb.OffsetMS() != 600 || wb.DurationMS() != 400 || wb.EndMS() != 1000 {
		t.Fatalf("unexpected word boundary: %+v", wb)
	}

	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestDecoderRejectsUnknownType(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`{"type":"SentenceBoundary","text":"x"}`))
	_, err := dec.Next()
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected line number in error, got %v", err)
	}
}

func TestDecoderRejectsMalformedJSON(t *testing.T) {
	dec := NewDecoder(strings.NewReader("{not json"))
	if _, err := dec.Next(); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEncoderDecoderPreservesStream(t *testing.T) {
	events := []Event{
		WordBoundary{Offset: 0, Duration: 5000000, Text: "Hello, <world>"},
		Audio{Data: []byte("mp3")},
	}
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	if !strings.Contains(buf.String(), "<world>") || strings.Contains(buf.String(), `\u003c`) {
		t.Fatalf("expected HTML escaping disabled, got %s", buf.String())
	}

	var got []Event
	if err := Each(&buf, func(ev Event) error {
		got = append(got, ev)
		return nil
	}); err != nil {
		t.Fatalf("Each: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].(WordBoundary) != events[0].(WordBoundary) {
		t.Fatalf("word boundary changed: %+v", got[0])
	}
	if string(got[1].(Audio).Data) != "mp3" {
		t.Fatalf("audio changed: %+v", got[1])
	}
}

func TestEncoderWritesChunkShapes(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.Encode(WordBoundary{Offset: 0, Duration: 0, Text: "你"}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode(Audio{Data: []byte{1}}); err != nil {
		t.Fatal(err)
	}
	want := `{"type":"WordBoundary","offset":0,"duration":0,"text":"你"}` + "\n" +
		`{"type":"audio","data":"AQ=="}` + "\n"
	if buf.String() != want {
		t.Fatalf("encoded =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestEachStopsOnCallbackError(t *testing.T) {
	input := `{"type":"audio","data":""}` + "\n" + `{"type":"audio","data":""}`
	stop := errors.New("stop")
	calls := 0
	err := Each(strings.NewReader(input), func(Event) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestTypeOf(t *testing.T) {
	if TypeOf(nil) != "" {
		t.Fatal("expected empty tag for nil")
	}
	if TypeOf(WordBoundary{}) != TypeWordBoundary {
		t.Fatal("unexpected word boundary tag")
	}
	if TypeOf(Audio{}) != TypeAudio {
		t.Fatal("unexpected audio tag")
	}
}
