// Package lrc aligns a synthesizer's word-boundary stream with the text it
// narrated and renders the result as synchronized-lyrics (.lrc) subtitles.
//
// An Engine consumes fragments one at a time through Feed and groups them
// into timestamped lines. When a reference text is supplied, the engine keeps
// a cursor into it and copies the characters the synthesizer did not speak
// (punctuation, spacing, line breaks) into the lines, so the rendered
// subtitles reproduce the reference verbatim.
//
// Three independent rules decide whether a fragment starts a new line:
//   - reference gap: non-space text (usually punctuation) sits between the
//     cursor and the fragment in the reference;
//   - pause: the silence since the current line ended reaches StopGapMS;
//   - budget: the line's weighted length would exceed CharBudget.
//
// A break happens when any rule fires. Short pauses below StopGapMS veto the
// reference-gap rule, so clause punctuation spoken without a pause stays on
// the same line.
//
// The engine is single-owner and synchronous; callers sharing one must
// serialize access.
package lrc
