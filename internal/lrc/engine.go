package lrc

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"narrator/internal/tts"
)

var (
	// ErrNotWordBoundary reports an event other than a word boundary passed
	// to FeedEvent.
	ErrNotWordBoundary = errors.New("lrc: expected WordBoundary event")
	// ErrOffsetRegression reports a fragment that starts before the previous one.
	ErrOffsetRegression = errors.New("lrc: fragment offset moved backwards")
)

// Options configures an Engine. Non-positive StopGapMS or CharBudget and an
// empty ReferenceText disable the corresponding rule.
type Options struct {
	// ReferenceText is the text the synthesizer narrated.
	ReferenceText string
	// StopGapMS is the minimum silence, in milliseconds, that forces a break.
	StopGapMS int64
	// CharBudget is the maximum weighted length of a line; see Weight.
	CharBudget float64
}

// DefaultOptions returns options with every rule disabled.
func DefaultOptions() Options {
	return Options{StopGapMS: -1, CharBudget: -1}
}

// Line is one subtitle line.
type Line struct {
	StartMS    int64
	DurationMS int64
	Text       string
}

// EndMS returns the end of the last fragment folded into the line.
func (l Line) EndMS() int64 { return l.StartMS + l.DurationMS }

// Engine folds word-boundary fragments into subtitle lines. The zero value is
// not usable; construct with New.
type Engine struct {
	opts Options

	ref      string
	refRunes int
	// pos is the reference cursor in bytes; posRunes mirrors it in runes.
	pos      int
	posRunes int

	lines        []Line
	lastOffsetMS int64
	misses       int
}

// New returns an engine configured by opts.
func New(opts Options) *Engine {
	return &Engine{
		opts:     opts,
		ref:      opts.ReferenceText,
		refRunes: utf8.RuneCountInString(opts.ReferenceText),
	}
}

// FeedEvent feeds ev when it is a word boundary and rejects every other
// variant with ErrNotWordBoundary.
func (e *Engine) FeedEvent(ev tts.Event) error {
	wb, ok := ev.(tts.WordBoundary)
	if !ok {
		return fmt.Errorf("%w: got %q", ErrNotWordBoundary, tts.TypeOf(ev))
	}
	return e.Feed(wb)
}

// Feed folds one fragment into the current line or starts a new line with it.
func (e *Engine) Feed(frag tts.WordBoundary) error {
	offset := frag.OffsetMS()
	duration := frag.DurationMS()
	if len(e.lines) > 0 && offset < e.lastOffsetMS {
		return fmt.Errorf("%w: %dms after %dms", ErrOffsetRegression, offset, e.lastOffsetMS)
	}
	e.lastOffsetMS = offset

	m, found := e.locate(frag.Text)
	if e.hasReference() && !found {
		e.misses++
	}

	if len(e.lines) == 0 {
		e.lines = append(e.lines, Line{StartMS: offset, DurationMS: duration, Text: frag.Text})
		e.consume(frag.Text, m, found)
		return nil
	}

	cur := &e.lines[len(e.lines)-1]
	var gap string
	if found {
		gap = e.ref[e.pos:m.start]
	}
	silence := offset - cur.EndMS()

	if e.referenceBreak(gap, silence) || e.pauseBreak(silence) || e.budgetBreak(cur.Text, frag.Text) {
		next := Line{StartMS: offset, DurationMS: duration, Text: frag.Text}
		if found {
			closing, leading := splitGap(gap)
			cur.Text += closing
			next.Text = leading + next.Text
		}
		e.lines = append(e.lines, next)
		e.consume(frag.Text, m, found)
		return nil
	}

	cur.DurationMS = offset + duration - cur.StartMS
	switch {
	case found:
		cur.Text += e.ref[e.pos:m.end]
	case e.hasReference():
		cur.Text += frag.Text
	default:
		if isNarrow(frag.Text) {
			cur.Text += " "
		}
		cur.Text += frag.Text
	}
	e.consume(frag.Text, m, found)
	return nil
}

// Progress reports how much of the reference text has been attributed to a
// line, as a fraction in [0, 1]. Without a reference it is always 0.
func (e *Engine) Progress() float64 {
	if e.refRunes == 0 {
		return 0
	}
	return float64(e.posRunes) / float64(e.refRunes)
}

// Misses counts fragments that could not be found in the reference text.
func (e *Engine) Misses() int { return e.misses }

// Lines returns a copy of the lines built so far. The last one is still open.
func (e *Engine) Lines() []Line {
	out := make([]Line, len(e.lines))
	copy(out, e.lines)
	return out
}

// Render formats the lines as CRLF-separated "[mm:ss.cc]text" entries. When
// more than one reference character was never reached, the trimmed remainder
// is appended after the last line.
func (e *Engine) Render() string {
	if len(e.lines) == 0 {
		return ""
	}
	var b strings.Builder
	for i, line := range e.lines {
		if i > 0 {
			b.WriteString("\r\n")
		}
		b.WriteByte('[')
		b.WriteString(FormatTimestamp(line.StartMS))
		b.WriteByte(']')
		b.WriteString(cleanText(line.Text))
	}
	if e.hasReference() && e.posRunes < e.refRunes-1 {
		b.WriteString(strings.TrimSpace(e.ref[e.pos:]))
	}
	return b.String()
}

func (e *Engine) hasReference() bool { return e.ref != "" }

func (e *Engine) pauseEnabled() bool { return e.opts.StopGapMS > 0 }

func (e *Engine) budgetEnabled() bool { return e.opts.CharBudget > 0 }

// referenceBreak reports whether the reference text between the cursor and
// the fragment warrants a new line.
func (e *Engine) referenceBreak(gap string, silenceMS int64) bool {
	if !isSemanticGap(gap) {
		return false
	}
	if e.pauseEnabled() && silenceMS < e.opts.StopGapMS {
		return false
	}
	return true
}

func (e *Engine) pauseBreak(silenceMS int64) bool {
	return e.pauseEnabled() && silenceMS >= e.opts.StopGapMS
}

func (e *Engine) budgetBreak(lineText, fragText string) bool {
	return e.budgetEnabled() && Weight(lineText)+Weight(fragText) > e.opts.CharBudget
}

// consume advances the cursor past a fragment. Without a reference the cursor
// only counts spoken runes.
func (e *Engine) consume(text string, m match, found bool) {
	switch {
	case !e.hasReference():
		e.posRunes += utf8.RuneCountInString(text)
	case found && m.end > e.pos:
		e.posRunes += utf8.RuneCountInString(e.ref[e.pos:m.end])
		e.pos = m.end
	}
}
