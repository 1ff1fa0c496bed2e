package lrc

import (
	"errors"
	"strings"
	"testing"
	"unicode"

	"narrator/internal/tts"
)

// frag builds a word boundary from millisecond values.
func frag(text string, offsetMS, durationMS int64) tts.WordBoundary {
	return tts.WordBoundary{
		Text:     text,
		Offset:   offsetMS * tts.TicksPerMillisecond,
		Duration: durationMS * tts.TicksPerMillisecond,
	}
}

func feedAll(t *testing.T, e *Engine, frags ...tts.WordBoundary) {
	t.Helper()
	for _, f := range frags {
		if err := e.Feed(f); err != nil {
			t.Fatalf("Feed(%q): %v", f.Text, err)
		}
	}
}

func lineTexts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestEngineBreaksOnPunctuationAfterPause(t *testing.T) {
	opts := DefaultOptions()
	opts.ReferenceText = "你好，世界"
	opts.StopGapMS = 100
	e := New(opts)

	feedAll(t, e, frag("你好", 0, 500), frag("世界", 600, 400))

	lines := e.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lineTexts(lines))
	}
	if lines[0].Text != "你好，" || lines[1].Text != "世界" {
		t.Fatalf("unexpected line texts: %q", lineTexts(lines))
	}
	want := "[00:00.00]你好，\r\n[00:00.60]世界"
	if got := e.Render(); got != want {
		t.Fatalf("unexpected render: got %q want %q", got, want)
	}
	if e.Progress() != 1 {
		t.Fatalf("expected full progress, got %v", e.Progress())
	}
}

func TestEngineShortPauseSuppressesReferenceBreak(t *testing.T) {
	opts := DefaultOptions()
	opts.ReferenceText = "Hello, world. Bye"
	opts.StopGapMS = 300
	e := New(opts)

	feedAll(t, e,
		frag("Hello", 0, 500),
		frag("world", 600, 400),
		frag("Bye", 2000, 300),
	)

	lines := e.Lines()
	if got := lineTexts(lines); len(got) != 2 || got[0] != "Hello, world. " || got[1] != "Bye" {
		t.Fatalf("unexpected lines: %q", got)
	}
	if lines[0].DurationMS != 1000 {
		t.Fatalf("expected first line to span 1000ms, got %d", lines[0].DurationMS)
	}
	if lines[1].StartMS != 2000 || lines[1].DurationMS != 300 {
		t.Fatalf("unexpected second line timing: %+v", lines[1])
	}
}

func TestEngineReferenceGapBreaksWithoutPauseRule(t *testing.T) {
	opts := DefaultOptions()
	opts.ReferenceText = "Hello, world. Bye"
	e := New(opts)

	feedAll(t, e,
		frag("Hello", 0, 500),
		frag("world", 510, 400),
		frag("Bye", 920, 300),
	)

	got := lineTexts(e.Lines())
	want := []string{"Hello, ", "world. ", "Bye"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected lines: got %q want %q", got, want)
	}
}

func TestEngineSpaceOnlyGapExtendsLine(t *testing.T) {
	opts := DefaultOptions()
	opts.ReferenceText = "Hello   world"
	e := New(opts)

	feedAll(t, e, frag("Hello", 0, 500), frag("world", 500, 500))

	got := lineTexts(e.Lines())
	if len(got) != 1 || got[0] != "Hello   world" {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestEngineDistributesParagraphGap(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		want      []string
	}{
		{"newline only", "One\nTwo", []string{"One", "Two"}},
		{"closing punctuation and indent", "One.\n\n  Two", []string{"One.", "  Two"}},
		{"text between separators dropped", "One.\nlost\n　Two", []string{"One.", "　Two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.ReferenceText = tt.reference
			e := New(opts)
			feedAll(t, e, frag("One", 0, 300), frag("Two", 300, 300))

			got := lineTexts(e.Lines())
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("unexpected lines: got %q want %q", got, tt.want)
			}
		})
	}
}

func TestEngineNoRulesConcatenatesIntoOneLine(t *testing.T) {
	e := New(DefaultOptions())

	feedAll(t, e,
		frag("Hello", 0, 300),
		frag("world", 5000, 300),
		frag("你好", 9000, 300),
		frag("again", 12000, 300),
	)

	lines := e.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected a single line, got %q", lineTexts(lines))
	}
	if lines[0].Text != "Hello world你好 again" {
		t.Fatalf("unexpected text: %q", lines[0].Text)
	}
	if lines[0].DurationMS != 12300 {
		t.Fatalf("unexpected duration: %d", lines[0].DurationMS)
	}
	if e.Progress() != 0 {
		t.Fatalf("expected zero progress without reference, got %v", e.Progress())
	}
}

func TestEngineBudgetBreaksAtOverflowingFragment(t *testing.T) {
	opts := DefaultOptions()
	opts.CharBudget = 4
	e := New(opts)

	feedAll(t, e,
		frag("你好", 0, 300),
		frag("你好", 300, 300),
		frag("你好", 600, 300),
		frag("你好", 900, 300),
		frag("你好", 1200, 300),
	)

	got := lineTexts(e.Lines())
	want := []string{"你好你好", "你好你好", "你好"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected lines: got %q want %q", got, want)
	}
}

func TestEngineBudgetBoundsLineWeight(t *testing.T) {
	opts := DefaultOptions()
	opts.CharBudget = 3
	e := New(opts)

	words := []string{"abcd", "ef", "g", "hij", "k", "你好", "lm", "nopq"}
	var maxFrag float64
	for i, w := range words {
		if err := e.Feed(frag(w, int64(i)*100, 100)); err != nil {
			t.Fatalf("Feed: %v", err)
		}
		if fw := Weight(w); fw > maxFrag {
			maxFrag = fw
		}
	}

	lines := e.Lines()
	if len(lines) < 2 {
		t.Fatalf("expected budget to force breaks, got %q", lineTexts(lines))
	}
	if lines[0].Text != "abcd ef" {
		t.Fatalf("expected the second fragment to fit the budget, got %q", lines[0].Text)
	}
	for _, line := range lines {
		if w := Weight(line.Text); w > opts.CharBudget+maxFrag {
			t.Fatalf("line %q weighs %v, above budget plus one fragment", line.Text, w)
		}
	}
}

func TestEnginePauseBreaksWithoutReference(t *testing.T) {
	opts := DefaultOptions()
	opts.StopGapMS = 200
	e := New(opts)

	feedAll(t, e,
		frag("one", 0, 100),
		frag("two", 299, 100),
		frag("three", 599, 100),
	)

	lines := e.Lines()
	if got := lineTexts(lines); len(got) != 2 || got[0] != "one two" || got[1] != "three" {
		t.Fatalf("unexpected lines: %q", got)
	}
	if lines[0].DurationMS != 399 {
		t.Fatalf("unexpected first line duration: %d", lines[0].DurationMS)
	}
}

func TestEngineReferenceMissFallsBack(t *testing.T) {
	opts := DefaultOptions()
	opts.ReferenceText = "Hello world"
	e := New(opts)

	feedAll(t, e, frag("Hello", 0, 100), frag("planet", 100, 100))
	afterMiss := e.Progress()
	feedAll(t, e, frag("world", 200, 100))

	got := lineTexts(e.Lines())
	if len(got) != 1 || got[0] != "Helloplanet world" {
		t.Fatalf("unexpected lines: %q", got)
	}
	if e.Misses() != 1 {
		t.Fatalf("expected 1 miss, got %d", e.Misses())
	}
	if afterMiss != 5.0/11.0 {
		t.Fatalf("cursor moved on miss: progress %v", afterMiss)
	}
	if e.Progress() != 1 {
		t.Fatalf("expected recovery to full progress, got %v", e.Progress())
	}
}

func TestEngineReferenceMissOnBreak(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		missAt int64
	}{
		{"pause", func(o *Options) { o.StopGapMS = 50 }, 500},
		{"budget", func(o *Options) { o.CharBudget = 4 }, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.ReferenceText = "Hello, world"
			tt.mutate(&opts)
			e := New(opts)

			feedAll(t, e, frag("Hello", 0, 100))
			before := e.Progress()
			feedAll(t, e, frag("planet", tt.missAt, 100))

			lines := e.Lines()
			if got := lineTexts(lines); len(got) != 2 || got[0] != "Hello" || got[1] != "planet" {
				t.Fatalf("lines = %q, want no reference text stitched around the miss", got)
			}
			if lines[1].StartMS != tt.missAt {
				t.Fatalf("missed line starts at %d, want %d", lines[1].StartMS, tt.missAt)
			}
			if e.Misses() != 1 {
				t.Fatalf("misses = %d, want 1", e.Misses())
			}
			if e.Progress() != before || before != 5.0/12.0 {
				t.Fatalf("cursor moved on miss: progress %v -> %v", before, e.Progress())
			}
		})
	}
}

func TestEngineProgressIsMonotonic(t *testing.T) {
	opts := DefaultOptions()
	opts.ReferenceText = "春眠不觉晓，处处闻啼鸟。夜来风雨声，花落知多少。"
	opts.StopGapMS = 150
	e := New(opts)

	frags := []tts.WordBoundary{
		frag("春眠", 0, 300), frag("不觉晓", 300, 400), frag("处处", 900, 300),
		frag("不存在", 1200, 100), frag("闻啼鸟", 1300, 400), frag("夜来", 2000, 300),
		frag("风雨声", 2300, 400), frag("花落", 3000, 300), frag("知多少", 3300, 400),
	}
	last := e.Progress()
	for _, f := range frags {
		if err := e.Feed(f); err != nil {
			t.Fatalf("Feed: %v", err)
		}
		p := e.Progress()
		if p < last {
			t.Fatalf("progress decreased from %v to %v at %q", last, p, f.Text)
		}
		if p < 0 || p > 1 {
			t.Fatalf("progress %v out of range", p)
		}
		last = p
	}
}

func TestEngineReconstructsReference(t *testing.T) {
	reference := "第一章 开始\n\n　　他说：“你好，世界！”然后离开了。\n　　天黑了。"
	opts := DefaultOptions()
	opts.ReferenceText = reference
	opts.StopGapMS = 100
	opts.CharBudget = 10
	e := New(opts)

	words := []string{"第一章", "开始", "他说", "你好", "世界", "然后", "离开了", "天黑了"}
	offset := int64(0)
	for i, w := range words {
		gap := int64(50)
		if i%2 == 1 {
			gap = 200
		}
		feedAll(t, e, frag(w, offset, 300))
		offset += 300 + gap
	}

	var joined strings.Builder
	for _, line := range e.Lines() {
		joined.WriteString(line.Text)
	}
	// The final "。" is never reached by a fragment and, being a single
	// character, is not appended by Render either.
	want := strings.TrimSuffix(reference, "。")
	if stripSpace(joined.String()) != stripSpace(want) {
		t.Fatalf("lines do not reconstruct the reference:\n got %q\nwant %q", joined.String(), want)
	}
	if strings.HasSuffix(e.Render(), "。") {
		t.Fatalf("expected single untracked character to be left out: %q", e.Render())
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func TestEngineRenderAppendsUntrackedRemainder(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		want      string
	}{
		{"two characters remain", "Hello world!!", "[00:00.00]Hello world!!"},
		{"single trailing character is not appended", "Hello world!", "[00:00.00]Hello world"},
		{"remainder is trimmed", "Hello world \n The end. ", "[00:00.00]Hello worldThe end."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.ReferenceText = tt.reference
			e := New(opts)
			feedAll(t, e, frag("Hello", 0, 100), frag("world", 100, 100))
			if got := e.Render(); got != tt.want {
				t.Fatalf("unexpected render: got %q want %q", got, tt.want)
			}
		})
	}
}

func TestEngineRenderStripsLineBreaks(t *testing.T) {
	e := New(DefaultOptions())
	feedAll(t, e, frag("  first\r\n", 0, 100))
	if got := e.Render(); got != "[00:00.00]first" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestEngineEmpty(t *testing.T) {
	opts := DefaultOptions()
	opts.ReferenceText = "never spoken"
	e := New(opts)
	if got := e.Render(); got != "" {
		t.Fatalf("expected empty render, got %q", got)
	}
	if e.Progress() != 0 {
		t.Fatalf("expected zero progress, got %v", e.Progress())
	}
	if len(e.Lines()) != 0 {
		t.Fatal("expected no lines")
	}
}

func TestEngineFeedEventRejectsOtherVariants(t *testing.T) {
	e := New(DefaultOptions())

	for _, ev := range []tts.Event{tts.Audio{Data: []byte{1}}, nil} {
		if err := e.FeedEvent(ev); !errors.Is(err, ErrNotWordBoundary) {
			t.Fatalf("expected ErrNotWordBoundary for %T, got %v", ev, err)
		}
	}
	if err := e.FeedEvent(frag("ok", 0, 10)); err != nil {
		t.Fatalf("FeedEvent(word boundary): %v", err)
	}
	if len(e.Lines()) != 1 {
		t.Fatalf("expected word boundary to be fed, got %d lines", len(e.Lines()))
	}
}

func TestEngineRejectsOffsetRegression(t *testing.T) {
	e := New(DefaultOptions())
	feedAll(t, e, frag("one", 500, 100))

	err := e.Feed(frag("two", 400, 100))
	if !errors.Is(err, ErrOffsetRegression) {
		t.Fatalf("expected ErrOffsetRegression, got %v", err)
	}
	lines := e.Lines()
	if len(lines) != 1 || lines[0].Text != "one" || lines[0].DurationMS != 100 {
		t.Fatalf("engine state changed after rejected fragment: %+v", lines)
	}
	if err := e.Feed(frag("two", 500, 100)); err != nil {
		t.Fatalf("equal offset should be accepted: %v", err)
	}
}

func TestLinesReturnsCopy(t *testing.T) {
	e := New(DefaultOptions())
	feedAll(t, e, frag("one", 0, 100))
	lines := e.Lines()
	lines[0].Text = "mutated"
	if e.Lines()[0].Text != "one" {
		t.Fatal("Lines exposed internal state")
	}
}
