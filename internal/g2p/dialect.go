package g2p

import "strings"

// Dialect selects the English variant used by the lexicon and the fallback.
type Dialect string

const (
	AmericanEnglish Dialect = "en-us"
	BritishEnglish  Dialect = "en-gb"
)

// ParseDialect accepts the canonical names plus common aliases
// ("us", "american", "a", "gb", "uk", "british", "b"). An empty string
// selects American English.
func ParseDialect(raw string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))) {
	case "", "en-us", "us", "american", "a", "en":
		return AmericanEnglish, nil
	case "en-gb", "gb", "uk", "en-uk", "british", "b":
		return BritishEnglish, nil
	default:
		return "", &UnsupportedLanguageError{Dialect: raw}
	}
}

// British reports whether d is British English.
func (d Dialect) British() bool { return d == BritishEnglish }

// Supported reports whether d is one of the canonical dialects.
func (d Dialect) Supported() bool {
	return d == AmericanEnglish || d == BritishEnglish
}
