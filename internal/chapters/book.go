package chapters

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"narrator/internal/fileutil"
	"narrator/internal/textutil"
)

var (
	// ErrIndexOutOfRange reports a chapter index outside the book.
	ErrIndexOutOfRange = errors.New("chapter index out of range")
	// ErrInvalidSplit reports a split offset that would leave an empty chapter.
	ErrInvalidSplit = errors.New("split offset must leave text on both sides")
	// ErrEmptyChapter reports replacement content with no text.
	ErrEmptyChapter = errors.New("chapter content is empty")
)

// Options controls how Open reads and splits a novel.
type Options struct {
	Pattern   string
	MinChars  int
	Encodings []string
}

// Book is an editable, ordered list of chapters cut from one source file.
type Book struct {
	Source   string    `json:"source"`
	Encoding string    `json:"encoding"`
	Chapters []Chapter `json:"chapters"`
}

// Open reads a novel and splits it into chapters.
func Open(path string, opts Options) (*Book, error) {
	text, used, err := ReadText(path, opts.Encodings)
	if err != nil {
		return nil, err
	}
	chapters, err := Split(text, opts.Pattern, opts.MinChars)
	if err != nil {
		return nil, err
	}
	return &Book{Source: path, Encoding: used, Chapters: chapters}, nil
}

// Len reports the number of chapters.
func (b *Book) Len() int {
	return len(b.Chapters)
}

// MergeUp appends chapter i to chapter i-1 and removes it. The previous
// chapter keeps its title; contents are concatenated as-is.
func (b *Book) MergeUp(i int) error {
	if i < 1 || i >= len(b.Chapters) {
		return fmt.Errorf("merge chapter %d: %w", i, ErrIndexOutOfRange)
	}
	b.Chapters[i-1].Content += b.Chapters[i].Content
	b.Chapters = append(b.Chapters[:i], b.Chapters[i+1:]...)
	return nil
}

// SplitAt cuts chapter i at a character offset into its content. Both halves
// are retitled from their first lines and the second half is inserted after i.
func (b *Book) SplitAt(i, offset int) error {
	if i < 0 || i >= len(b.Chapters) {
		return fmt.Errorf("split chapter %d: %w", i, ErrIndexOutOfRange)
	}
	content := b.Chapters[i].Content
	if offset <= 0 || offset >= utf8.RuneCountInString(content) {
		return fmt.Errorf("split chapter %d at %d: %w", i, offset, ErrInvalidSplit)
	}
	cut := byteOffset(content, offset)
	before, after := content[:cut], content[cut:]

	b.Chapters[i] = Chapter{Title: Title(before), Content: before}
	second := Chapter{Title: Title(after), Content: after}
	b.Chapters = append(b.Chapters, Chapter{})
	copy(b.Chapters[i+2:], b.Chapters[i+1:])
	b.Chapters[i+1] = second
	return nil
}

// SetContent replaces the text of chapter i and retitles it from the first line.
func (b *Book) SetContent(i int, text string) error {
	if i < 0 || i >= len(b.Chapters) {
		return fmt.Errorf("edit chapter %d: %w", i, ErrIndexOutOfRange)
	}
	if text == "" {
		return fmt.Errorf("edit chapter %d: %w", i, ErrEmptyChapter)
	}
	b.Chapters[i] = Chapter{Title: Title(text), Content: text}
	return nil
}

// FileName returns the on-disk name for the chapter at index i.
func FileName(i int, title string) string {
	name := textutil.SanitizeFileName(title)
	if name == "" {
		name = "chapter"
	}
	return fmt.Sprintf("%03d-%s.txt", i+1, name)
}

// WriteDir writes every chapter as a UTF-8 file in dir and returns the paths
// in chapter order.
func (b *Book) WriteDir(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("write chapters: output directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chapter directory: %w", err)
	}
	paths := make([]string, 0, len(b.Chapters))
	for i, ch := range b.Chapters {
		path := filepath.Join(dir, FileName(i, ch.Title))
		if err := fileutil.WriteFileAtomic(path, []byte(ch.Content), 0o644); err != nil {
			return paths, fmt.Errorf("write chapter %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func byteOffset(s string, runes int) int {
	count := 0
	for i := range s {
		if count == runes {
			return i
		}
		count++
	}
	return len(s)
}
