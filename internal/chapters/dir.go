package chapters

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// chapterFile matches the names FileName produces.
var chapterFile = regexp.MustCompile(`^(\d{3,})-.*\.txt$`)

// ErrNoChapters reports a directory without chapter files.
var ErrNoChapters = errors.New("no chapter files")

type numberedFile struct {
	n    int
	name string
}

// chapterFiles lists the chapter files in dir ordered by their number.
func chapterFiles(dir string) ([]numberedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read chapter directory: %w", err)
	}
	var files []numberedFile
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		m := chapterFile.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, numberedFile{n: n, name: entry.Name()})
	}
	slices.SortFunc(files, func(a, b numberedFile) int {
		return cmp.Or(cmp.Compare(a.n, b.n), strings.Compare(a.name, b.name))
	})
	return files, nil
}

// OpenDir loads the chapter files WriteDir produced in dir back into a book.
// Titles are taken from each file's first line.
func OpenDir(dir string) (*Book, error) {
	files, err := chapterFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("open %s: %w", dir, ErrNoChapters)
	}
	book := &Book{Source: dir, Encoding: "utf-8", Chapters: make([]Chapter, 0, len(files))}
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			return nil, fmt.Errorf("read chapter: %w", err)
		}
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("read chapter %s: not valid UTF-8", f.name)
		}
		text := string(data)
		book.Chapters = append(book.Chapters, Chapter{Title: Title(text), Content: text})
	}
	return book, nil
}

// RewriteDir writes the book into dir like WriteDir, then removes chapter
// files that no longer belong to it, such as names left over after a merge.
func (b *Book) RewriteDir(dir string) ([]string, error) {
	written, err := b.WriteDir(dir)
	if err != nil {
		return written, err
	}
	files, err := chapterFiles(dir)
	if err != nil {
		return written, err
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if slices.Contains(written, path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return written, fmt.Errorf("remove stale chapter: %w", err)
		}
	}
	return written, nil
}
