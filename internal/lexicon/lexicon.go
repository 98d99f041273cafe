// Package lexicon implements dictionary lookup of English words, the
// primary resolution strategy of the phonemizer. Entries use the same
// phoneme inventory as the fallback engine output: single-letter diphthongs
// (A=eɪ, I=aɪ, O=oʊ, Q=əʊ, W=aʊ, Y=ɔɪ) and the affricates ʤ/ʧ.
package lexicon

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

//go:embed data/*.json
var builtin embed.FS

// ErrEmptyPath is returned when LoadFile is called with an empty path.
var ErrEmptyPath = errors.New("lexicon path must not be empty")

// Lexicon maps words to phoneme strings for one dialect.
// It is read-only after construction and safe for concurrent use.
type Lexicon struct {
	british bool
	entries map[string]string
}

// New returns the built-in lexicon for American (british=false) or British
// English, with each of extra merged over it in order.
func New(british bool, extra ...map[string]string) (*Lexicon, error) {
	name := "data/us.json"
	if british {
		name = "data/gb.json"
	}

	data, err := builtin.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read built-in lexicon %s: %w", name, err)
	}

	entries, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode built-in lexicon %s: %w", name, err)
	}

	for _, m := range extra {
		for word, ps := range m {
			entries[word] = ps
		}
	}

	return &Lexicon{british: british, entries: entries}, nil
}

// LoadFile reads a JSON lexicon. Values are either a phoneme string or an
// object of part-of-speech variants, in which case the "DEFAULT" variant is
// used and entries without one are skipped.
func LoadFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	entries, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode lexicon %q: %w", path, err)
	}

	return entries, nil
}

func decode(data []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	entries := make(map[string]string, len(raw))
	for word, msg := range raw {
		var ps string
		if err := json.Unmarshal(msg, &ps); err == nil {
			if ps != "" {
				entries[word] = ps
			}
			continue
		}

		var variants map[string]*string
		if err := json.Unmarshal(msg, &variants); err != nil {
			return nil, fmt.Errorf("entry %q: %w", word, err)
		}
		if def := variants["DEFAULT"]; def != nil && *def != "" {
			entries[word] = *def
		}
	}

	return entries, nil
}

// British reports whether the lexicon holds British English entries.
func (l *Lexicon) British() bool { return l.british }

// Len returns the number of entries.
func (l *Lexicon) Len() int { return len(l.entries) }

// Lookup resolves word to phonemes. Besides exact and lowercase matches it
// derives possessives, plurals, -ed and -ing forms from their stems, joins
// hyphenated compounds and spells out numbers.
func (l *Lexicon) Lookup(word string) (string, bool) {
	if word == "" {
		return "", false
	}

	if ps, ok := l.get(word); ok {
		return ps, true
	}

	if isNumeric(word) {
		return l.number(word)
	}

	if strings.Contains(word, "-") {
		return l.compound(word)
	}

	for _, stem := range []func(string) (string, bool){l.stemPossessive, l.stemS, l.stemEd, l.stemIng} {
		if ps, ok := stem(word); ok {
			return ps, true
		}
	}

	return "", false
}

func (l *Lexicon) get(word string) (string, bool) {
	if ps, ok := l.entries[word]; ok {
		return ps, true
	}

	lower := strings.ToLower(word)
	if lower != word {
		if ps, ok := l.entries[lower]; ok {
			return ps, true
		}
	}

	return "", false
}

func (l *Lexicon) compound(word string) (string, bool) {
	parts := strings.Split(word, "-")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		ps, ok := l.Lookup(p)
		if !ok {
			return "", false
		}
		out = append(out, ps)
	}

	return strings.Join(out, " "), true
}

func (l *Lexicon) stemPossessive(word string) (string, bool) {
	base, ok := strings.CutSuffix(word, "'s")
	if !ok || base == "" {
		return "", false
	}

	ps, ok := l.Lookup(base)
	if !ok {
		return "", false
	}

	return l.appendS(ps), true
}

func (l *Lexicon) stemS(word string) (string, bool) {
	lower := strings.ToLower(word)
	if len(lower) < 3 || !strings.HasSuffix(lower, "s") || strings.HasSuffix(lower, "ss") {
		return "", false
	}

	var candidates []string
	if base, ok := strings.CutSuffix(lower, "ies"); ok {
		candidates = append(candidates, base+"y")
	}
	if base, ok := strings.CutSuffix(lower, "es"); ok {
		candidates = append(candidates, base)
	}
	candidates = append(candidates, lower[:len(lower)-1])

	for _, base := range candidates {
		if ps, ok := l.get(base); ok {
			return l.appendS(ps), true
		}
	}

	return "", false
}

func (l *Lexicon) stemEd(word string) (string, bool) {
	lower := strings.ToLower(word)
	base, ok := strings.CutSuffix(lower, "ed")
	if !ok || len(base) < 2 {
		return "", false
	}

	for _, cand := range stemCandidates(base) {
		if ps, ok := l.get(cand); ok {
			return l.appendEd(ps), true
		}
	}

	return "", false
}

func (l *Lexicon) stemIng(word string) (string, bool) {
	lower := strings.ToLower(word)
	base, ok := strings.CutSuffix(lower, "ing")
	if !ok || len(base) < 2 {
		return "", false
	}

	for _, cand := range stemCandidates(base) {
		if ps, ok := l.get(cand); ok {
			return ps + "ɪŋ", true
		}
	}

	return "", false
}

// stemCandidates lists the plausible bare forms of base after an -ed/-ing
// suffix was removed: as is, with a silent e restored, or with a doubled
// final consonant undone.
func stemCandidates(base string) []string {
	out := []string{base, base + "e"}

	n := len(base)
	if n >= 3 && base[n-1] == base[n-2] && !strings.ContainsRune("aeiou", rune(base[n-1])) {
		out = append(out, base[:n-1])
	}

	return out
}

func (l *Lexicon) appendS(ps string) string {
	switch last := lastPhoneme(ps); {
	case strings.ContainsRune("ptkfθ", last):
		return ps + "s"
	case strings.ContainsRune("szʃʒʧʤ", last):
		if l.british {
			return ps + "ɪz"
		}
		return ps + "ᵻz"
	default:
		return ps + "z"
	}
}

func (l *Lexicon) appendEd(ps string) string {
	switch last := lastPhoneme(ps); {
	case strings.ContainsRune("pkfθʃsʧ", last):
		return ps + "t"
	case last == 't' || last == 'd':
		if l.british {
			return ps + "ɪd"
		}
		return ps + "ᵻd"
	default:
		return ps + "d"
	}
}

// lastPhoneme returns the final phoneme rune, skipping length and stress marks.
func lastPhoneme(ps string) rune {
	for ps != "" {
		r, size := utf8.DecodeLastRuneInString(ps)
		if r != 'ː' && r != 'ˈ' && r != 'ˌ' {
			return r
		}
		ps = ps[:len(ps)-size]
	}

	return 0
}

func isNumeric(word string) bool {
	if word[0] < '0' || word[0] > '9' {
		return false
	}

	for i := 0; i < len(word); i++ {
		c := word[i]
		if (c < '0' || c > '9') && c != '.' && c != ',' {
			return false
		}
	}

	return true
}
