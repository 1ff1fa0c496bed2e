package lrc

import "strings"

// match is the byte range of a fragment inside the reference text.
type match struct {
	start int
	end   int
}

// locate searches the reference for text at or after the cursor.
func (e *Engine) locate(text string) (match, bool) {
	if !e.hasReference() {
		return match{}, false
	}
	idx := strings.Index(e.ref[e.pos:], text)
	if idx < 0 {
		return match{}, false
	}
	start := e.pos + idx
	return match{start: start, end: start + len(text)}, true
}

// isSemanticGap reports whether skipped reference text carries more than
// plain spaces. Line breaks count as semantic.
func isSemanticGap(gap string) bool {
	return strings.Trim(gap, " ") != ""
}

// splitGap divides skipped reference text between the line being closed and
// the line being opened. Text before the first newline closes the old line,
// text after the last newline leads the new one, and anything between is
// dropped.
func splitGap(gap string) (closing, leading string) {
	first := strings.IndexByte(gap, '\n')
	if first < 0 {
		return gap, ""
	}
	last := strings.LastIndexByte(gap, '\n')
	return gap[:first], gap[last+1:]
}
