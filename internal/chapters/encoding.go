package chapters

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// ErrUnknownEncoding reports that none of the candidate encodings decoded the input cleanly.
var ErrUnknownEncoding = errors.New("no candidate encoding decodes the text")

// DefaultEncodings lists the encodings tried, in order, when reading novels.
var DefaultEncodings = []string{"gb18030", "utf-8", "gbk", "big5"}

// nil means the bytes are already UTF-8.
var encodings = map[string]encoding.Encoding{
	"gb18030": simplifiedchinese.GB18030,
	"gbk":     simplifiedchinese.GBK,
	"big5":    traditionalchinese.Big5,
	"utf-8":   nil,
}

// IsSupportedEncoding reports whether name is one of the encodings ReadText understands.
func IsSupportedEncoding(name string) bool {
	_, ok := encodings[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// ReadText reads path and decodes it with the first encoding that succeeds.
// It returns the decoded text and the name of the encoding used.
func ReadText(path string, candidates []string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	text, used, err := Decode(data, candidates)
	if err != nil {
		return "", "", fmt.Errorf("decode %s: %w", path, err)
	}
	return text, used, nil
}

// Decode trial-decodes data with each candidate encoding in order. A trial
// fails when the decoder has to substitute replacement characters. An empty
// candidate list means DefaultEncodings.
func Decode(data []byte, candidates []string) (string, string, error) {
	if len(candidates) == 0 {
		candidates = DefaultEncodings
	}
	for _, name := range candidates {
		name = strings.ToLower(strings.TrimSpace(name))
		enc, ok := encodings[name]
		if !ok {
			return "", "", fmt.Errorf("unsupported encoding %q", name)
		}
		if text, ok := decodeStrict(data, enc); ok {
			return text, name, nil
		}
	}
	return "", "", ErrUnknownEncoding
}

func decodeStrict(data []byte, enc encoding.Encoding) (string, bool) {
	if enc == nil {
		if !utf8.Valid(data) {
			return "", false
		}
		return string(data), true
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	if strings.ContainsRune(string(decoded), utf8.RuneError) {
		return "", false
	}
	return string(decoded), true
}
