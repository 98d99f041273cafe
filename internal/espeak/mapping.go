package espeak

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Rewrites from espeak-ng IPA (with TieChar ties) to the lexicon's phoneme
// inventory. Applied leftmost-longest.
var commonRewrites = map[string]string{
	"ʔˌn\u0329": "tᵊn",
	"ʔn\u0329":  "tᵊn",
	"ʔn":        "tᵊn",
	"ʔ":         "t",
	"a^ɪ":       "I",
	"a^ʊ":       "W",
	"d^ʒ":       "ʤ",
	"e^ɪ":       "A",
	"e":         "A",
	"t^ʃ":       "ʧ",
	"ɔ^ɪ":       "Y",
	"ə^l":       "ᵊl",
	"ʲo":        "jo",
	"ʲə":        "jə",
	"ʲ":         "",
	"ɚ":         "əɹ",
	"r":         "ɹ",
	"x":         "k",
	"ç":         "k",
	"ɐ":         "ə",
	"ɬ":         "l",
	"\u0303":    "",
}

var americanRewrites = map[string]string{
	"o^ʊ": "O",
	"ɜːɹ": "ɜɹ",
	"ɜː":  "ɜɹ",
	"ɪə":  "iə",
	"ː":   "",
}

var britishRewrites = map[string]string{
	"e^ə": "ɛː",
	"iə":  "ɪə",
	"ə^ʊ": "Q",
}

var (
	americanReplacer = newReplacer(commonRewrites, americanRewrites)
	britishReplacer  = newReplacer(commonRewrites, britishRewrites)

	// espeak-ng marks language switches as "(fr)" or "(en-us)".
	languageSwitch = regexp.MustCompile(`\([a-z]{2,3}(?:-[a-z0-9]+)*\)`)

	// A syllabic consonant (n̩, l̩) reads as a schwa before the consonant.
	syllabic = regexp.MustCompile(`(\S)\x{0329}`)
)

// newReplacer orders the rewrites longest first so strings.Replacer, which
// tries old strings in argument order, matches leftmost-longest.
func newReplacer(tables ...map[string]string) *strings.Replacer {
	merged := make(map[string]string)
	for _, t := range tables {
		for k, v := range t {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(keys[i]), utf8.RuneCountInString(keys[j])
		if li != lj {
			return li > lj
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, merged[k])
	}

	return strings.NewReplacer(pairs...)
}

// ToPhonemes converts raw espeak-ng IPA output into the phoneme inventory
// shared with the lexicon. Clause lines are joined with single spaces.
func ToPhonemes(raw string, british bool) string {
	ps := languageSwitch.ReplaceAllString(raw, "")
	ps = strings.Join(strings.Fields(ps), " ")

	if british {
		ps = britishReplacer.Replace(ps)
	} else {
		ps = americanReplacer.Replace(ps)
	}

	ps = syllabic.ReplaceAllString(ps, "ᵊ${1}")
	ps = strings.ReplaceAll(ps, "\u0329", "")

	return strings.ReplaceAll(ps, TieChar, "")
}
