package chapters

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultPattern matches chapter headings such as "第十二章 重逢",
// "第3回 夜雨" or "第IV集 Return". Separators may be any Unicode space,
// including the ideographic space U+3000.
const DefaultPattern = `^` +
	`(?:第[\s\p{Zs}]{0,4})` +
	`([\d零一二三四五六七八九十百千万壹贰叁肆伍陆柒捌玖拾佰仟万ⅠⅡⅢⅣⅤⅥⅦⅧⅨⅩⅪⅫIVXLCDM]+?)` +
	`(?:` +
	`(?:[\s\p{Zs}]{0,4}[集章篇节回段][\s\p{Zs}]{1,4}([^\s\p{Zs}]{1,32}))` +
	`|` +
	`(?:[\s\p{Zs}\.,、，]{1,4}([^\s\p{Zs}]{1,32}))` +
	`)` +
	`$`

// DefaultMinChars is the chapter length below which a heading is folded into
// the current chapter instead of starting a new one.
const DefaultMinChars = 100

// lineSeparator joins chapter lines in written output.
const lineSeparator = "\r\n"

// Chapter is a titled block of novel text.
type Chapter struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Compile compiles a heading pattern; blank means DefaultPattern.
func Compile(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile chapter pattern: %w", err)
	}
	return re, nil
}

// Split cuts content into chapters at lines matching pattern.
func Split(content, pattern string, minChars int) ([]Chapter, error) {
	re, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	return SplitRegexp(content, re, minChars), nil
}

// SplitRegexp cuts content into chapters at lines matching re. A heading only
// closes the current chapter when its lines total at least minChars
// characters (line terminators excluded); otherwise the heading is kept as
// an ordinary line. Each chapter's title is its first line, trimmed.
func SplitRegexp(content string, re *regexp.Regexp, minChars int) []Chapter {
	var (
		chapters []Chapter
		lines    []string
		size     int
	)
	flush := func() {
		if len(lines) == 0 {
			return
		}
		chapters = append(chapters, Chapter{
			Title:   strings.TrimSpace(lines[0]),
			Content: strings.Join(lines, lineSeparator),
		})
	}
	for _, line := range splitLines(content) {
		if re.MatchString(line) && size >= minChars {
			flush()
			lines = nil
			size = 0
		}
		lines = append(lines, line)
		size += utf8.RuneCountInString(line)
	}
	flush()
	return chapters
}

// splitLines breaks text on \r\n, \n and \r. A trailing terminator does not
// produce an empty final line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// Title returns the trimmed first line of text, the heading of a chapter.
func Title(text string) string {
	lines := splitLines(text)
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[0])
}
