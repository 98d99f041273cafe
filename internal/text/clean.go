package text

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// foldPunct maps CJK and typographic punctuation that has no full-width form
// to the ASCII or quote form the tokenizer expects. Full-width forms
// (U+FF01..U+FF5E, U+3000) are folded by width.Narrow.
var foldPunct = strings.NewReplacer(
	"。", ".",
	"、", ",",
	"《", "<",
	"》", ">",
	"【", "[",
	"】", "]",
	"「", "“",
	"」", "”",
	"‘", "'",
	"’", "'",
)

// Normalize prepares raw input text read from a file, flag or stdin.
// It normalizes line endings to \n, trims surrounding whitespace,
// and rejects empty or whitespace-only input.
func Normalize(s string) (string, error) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyText
	}

	return s, nil
}

// Clean canonicalizes text before tokenization:
//  1. CJK punctuation and full-width characters become their ASCII forms.
//  2. The result is NFC-composed so combining accents attach to their base.
//  3. Runs of whitespace collapse to a single space and the ends are trimmed.
//  4. Remaining control characters are dropped.
//
// Clean never fails; an all-whitespace input yields "".
func Clean(s string) string {
	if s == "" {
		return ""
	}

	s = foldPunct.Replace(s)
	s = width.Narrow.String(s)
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))

	pendingSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}

	return b.String()
}
