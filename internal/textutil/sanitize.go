package textutil

import (
	"strings"
	"unicode"
)

// maxFileNameRunes keeps names under the usual 255-byte limit even when
// every rune is a three-byte CJK character.
const maxFileNameRunes = 64

// SanitizeFileName makes name safe to use as a single path element on
// Linux, macOS and Windows. Path separators, colons and asterisks become
// dashes; other reserved and control characters are dropped. Surrounding
// spaces and dots are trimmed and the result is capped at 64 runes.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			b.WriteByte('-')
		case strings.ContainsRune(`?"<>|`, r), unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(strings.TrimSpace(b.String()), ".")
	return strings.TrimSpace(TruncateRunes(cleaned, maxFileNameRunes))
}

// TruncateRunes returns at most limit runes of s; limit <= 0 means no limit.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
