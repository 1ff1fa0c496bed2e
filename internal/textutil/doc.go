// Package textutil provides small text helpers shared by the chapter splitter
// and the conversion pipeline: filename sanitization for chapter titles and
// rune-aware truncation for log and table output.
package textutil
