// Package tts defines the events a speech synthesizer emits while it narrates
// text, and the JSON Lines codec used to stream or record them.
//
// A synthesis stream is an ordered, finite sequence of Event values. Audio
// events carry raw encoded audio bytes; WordBoundary events carry the text
// fragment that was just spoken along with its offset and duration in 100ns
// ticks. Event is a closed union: only the variants declared in this package
// implement it, so consumers can switch on the concrete type exhaustively.
package tts
