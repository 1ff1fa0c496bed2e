package lrc

import (
	"fmt"
	"strings"
)

// narrowLimit separates narrow (Latin-class) runes from wide (CJK-class) ones.
const narrowLimit = 0xFF

// Weight returns the weighted length of s: runes below 0xFF count 0.5, every
// other rune counts 1.
func Weight(s string) float64 {
	var w float64
	for _, r := range s {
		if r < narrowLimit {
			w += 0.5
		} else {
			w++
		}
	}
	return w
}

func isNarrow(s string) bool {
	for _, r := range s {
		if r >= narrowLimit {
			return false
		}
	}
	return true
}

// FormatTimestamp renders milliseconds as mm:ss.cc. Minutes wrap at 100 and
// negative input renders as zero.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	centis := (ms / 10) % 100
	secs := (ms / 1000) % 60
	mins := (ms / 60000) % 100
	return fmt.Sprintf("%02d:%02d.%02d", mins, secs, centis)
}

var lineBreakStripper = strings.NewReplacer("\r", "", "\n", "")

func cleanText(text string) string {
	return lineBreakStripper.Replace(strings.TrimSpace(text))
}
