package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

// DefaultPollInterval is how often Follow checks the file for new lines.
const DefaultPollInterval = 250 * time.Millisecond

// Filter selects lines; nil keeps everything.
type Filter func(line string) bool

// Contains returns a Filter keeping lines that contain every non-empty needle.
func Contains(needles ...string) Filter {
	var keep []string
	for _, n := range needles {
		if n = strings.TrimSpace(n); n != "" {
			keep = append(keep, n)
		}
	}
	if len(keep) == 0 {
		return nil
	}
	return func(line string) bool {
		for _, n := range keep {
			if !strings.Contains(line, n) {
				return false
			}
		}
		return true
	}
}

// All returns a Filter keeping lines every non-nil filter keeps.
func All(filters ...Filter) Filter {
	var active []Filter
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(line string) bool {
		for _, f := range active {
			if !f(line) {
				return false
			}
		}
		return true
	}
}

// Field returns a Filter keeping lines where key has value, in either the
// console (key=value) or JSON ("key":value) rendering.
func Field(key, value string) Filter {
	quoted := regexp.QuoteMeta(key)
	val := regexp.QuoteMeta(value)
	re := regexp.MustCompile(`(?:\b` + quoted + `=|"` + quoted + `":"?)` + val + `(?:[^\w]|$)`)
	return re.MatchString
}

// Last returns up to n matching lines from the end of the file and the
// offset just past them. A missing file yields no lines and offset zero.
func Last(path string, n int, filter Filter) ([]string, int64, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return nil, 0, err
	}
	defer file.Close()

	if n <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	ring := make([]string, 0, n)
	start := 0
	offset, err := scan(file, filter, func(line string) {
		if len(ring) < n {
			ring = append(ring, line)
			return
		}
		ring[start] = line
		start = (start + 1) % n
	})
	if err != nil {
		return nil, 0, err
	}
	lines := append(append([]string(nil), ring[start:]...), ring[:start]...)
	return lines, offset, nil
}

// ReadFrom returns matching lines written after offset and the new offset.
// An offset beyond the current size means the file was truncated, so reading
// restarts at the beginning.
func ReadFrom(path string, offset int64, filter Filter) ([]string, int64, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return nil, 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	consumed, err := scan(file, filter, func(line string) { lines = append(lines, line) })
	if err != nil {
		return nil, 0, err
	}
	return lines, offset + consumed, nil
}

// Follow polls the file from offset and hands each batch of new lines to fn
// until ctx is done or fn returns an error. Cancellation is not an error.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, filter Filter, fn func([]string) error) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		lines, next, err := ReadFrom(path, offset, filter)
		if err != nil {
			return err
		}
		offset = next
		if len(lines) > 0 {
			if err := fn(lines); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("log path %q is a directory", path)
	}
	return file, nil
}

// scan feeds complete lines to emit and returns the bytes consumed. A trailing
// partial line is left unread so a later call picks it up whole.
func scan(r io.Reader, filter Filter, emit func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(raw))
		line := strings.TrimRight(raw, "\r\n")
		if filter == nil || filter(line) {
			emit(line)
		}
	}
}
