package g2p

import (
	"fmt"
	"strings"
)

// DefaultUnknownMarker stands in for unresolved tokens in the joined
// phoneme string.
const DefaultUnknownMarker = "❓"

// State records how far a token got through resolution.
type State int

const (
	// Unresolved tokens have no phonemes yet.
	Unresolved State = iota
	// Resolved tokens were handled by the lexicon, the neural model or as
	// punctuation.
	Resolved
	// FallbackApplied tokens got their phonemes from the fallback engine.
	FallbackApplied
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	case FallbackApplied:
		return "fallback"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so JSON carries the name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unresolved":
		*s = Unresolved
	case "resolved":
		*s = Resolved
	case "fallback":
		*s = FallbackApplied
	default:
		return fmt.Errorf("unknown token state %q", b)
	}

	return nil
}

// Resolution sources.
const (
	SourceLexicon  = "lexicon"
	SourceNeural   = "neural"
	SourcePunct    = "punct"
	SourceFallback = "fallback"
)

// Token is one lexical unit of the input.
type Token struct {
	Text string `json:"text"`
	// Phonemes is empty while State is Unresolved, and for punctuation or
	// non-speech tokens.
	Phonemes string `json:"phonemes"`
	// Whitespace is the separator that followed Text in the cleaned input.
	Whitespace string `json:"whitespace"`
	State      State  `json:"state"`
	Source     string `json:"source,omitempty"`
}

// Result is the outcome of one conversion.
type Result struct {
	Phonemes string                   `json:"phonemes"`
	Tokens   []Token                  `json:"tokens"`
	Warnings []UnresolvedTokenWarning `json:"warnings,omitempty"`
}

// Unresolved returns the tokens still unresolved after conversion.
func (r Result) Unresolved() []Token {
	var out []Token
	for _, t := range r.Tokens {
		if t.State == Unresolved {
			out = append(out, t)
		}
	}

	return out
}

// JoinPhonemes concatenates each token's phonemes, or marker when the token
// is unresolved, followed by the token's whitespace.
func JoinPhonemes(tokens []Token, marker string) string {
	var b strings.Builder
	for _, t := range tokens {
		if t.State == Unresolved {
			b.WriteString(marker)
		} else {
			b.WriteString(t.Phonemes)
		}
		b.WriteString(t.Whitespace)
	}

	return b.String()
}
