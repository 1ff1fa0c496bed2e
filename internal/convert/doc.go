// Package convert narrates one chapter: it streams synthesis events into an
// audio file, aligns the word boundaries into subtitle lines, and writes the
// rendered .lrc file next to the audio.
//
// Outputs are written through temporary files, so a failed or cancelled
// conversion never leaves a truncated audio or subtitle file at the target
// path. Align performs the same alignment offline from a recorded event log.
package convert
