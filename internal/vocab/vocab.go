// Package vocab maps phoneme symbols to the integer ids an acoustic model
// consumes.
package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Pad is the id placed before and after every encoded sequence.
const Pad int64 = 0

// ErrEmptyPath is returned when Load is called with an empty path.
var ErrEmptyPath = errors.New("vocab path must not be empty")

var unescape = strings.NewReplacer(`\n`, "\n", `\r`, "\r", `\t`, "\t")

// Vocab is a read-only symbol table.
type Vocab struct {
	ids map[string]int64
}

// Load reads a vocabulary file, see Parse.
func Load(path string) (*Vocab, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	v, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse vocab %q: %w", path, err)
	}

	return v, nil
}

// Parse reads one "symbol<TAB>id" pair per line. Symbols may spell newline,
// carriage return and tab as \n, \r and \t. Lines without a tab are ignored.
func Parse(r io.Reader) (*Vocab, error) {
	ids := make(map[string]int64)

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		sym, idStr, ok := strings.Cut(sc.Text(), "\t")
		if !ok {
			continue
		}

		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id %q", line, idStr)
		}

		ids[unescape.Replace(sym)] = id
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, errors.New("no entries")
	}

	return &Vocab{ids: ids}, nil
}

// Len returns the number of symbols.
func (v *Vocab) Len() int { return len(v.ids) }

// ID returns the id of a single symbol.
func (v *Vocab) ID(sym string) (int64, bool) {
	id, ok := v.ids[sym]
	return id, ok
}

// Encode maps phonemes rune by rune and wraps the result in Pad ids.
// Symbols missing from the table are skipped.
func (v *Vocab) Encode(phonemes string) []int64 {
	out := make([]int64, 0, len(phonemes)+2)
	out = append(out, Pad)

	for _, r := range phonemes {
		if id, ok := v.ids[string(r)]; ok {
			out = append(out, id)
		}
	}

	return append(out, Pad)
}

// Missing lists the distinct symbols of phonemes that Encode would skip, in
// order of first appearance.
func (v *Vocab) Missing(phonemes string) []string {
	var out []string
	seen := make(map[rune]bool)

	for _, r := range phonemes {
		if _, ok := v.ids[string(r)]; ok || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, string(r))
	}

	return out
}
