// Package synth adapts an external text-to-speech command to the
// tts.Synthesizer interface.
//
// The command reads the text to speak on stdin and writes synthesis events as
// JSON Lines on stdout (see package tts for the shape). Voice and prosody are
// passed as --voice, --rate, --volume and --pitch flags after any configured
// extra arguments. Events are decoded and delivered while the command is
// still running, so audio can be written and subtitles aligned incrementally.
package synth
