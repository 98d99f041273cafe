package text

import (
	"strings"
	"unicode"
)

// DefaultMarks is the punctuation set split off as standalone tokens even
// when unicode does not classify the rune as punctuation.
const DefaultMarks = ";:,.!?¡¿—…\"«»“”(){}[]"

// Kind classifies a Piece.
type Kind int

const (
	// Word is a run of letters, digits and joined apostrophes/hyphens.
	Word Kind = iota
	// Punct is a single punctuation mark.
	Punct
	// Symbol is any other single non-space rune (currency, math, emoji).
	Symbol
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case Punct:
		return "punct"
	case Symbol:
		return "symbol"
	default:
		return "unknown"
	}
}

// Piece is one lexical unit of the input together with the whitespace that
// followed it.
type Piece struct {
	Text       string
	Whitespace string
	Kind       Kind
}

// Tokenize splits s into words, punctuation marks and symbols in input order.
// Concatenating Text+Whitespace of every piece reproduces s minus any
// leading whitespace.
//
// Apostrophes and hyphens stay inside a word when both neighbours are word
// runes ("don't", "well-known"); '.' and ',' stay inside when both
// neighbours are digits ("3.14", "1,000").
func Tokenize(s string) []Piece {
	runes := []rune(s)
	pieces := make([]Piece, 0, len(runes)/4+1)

	var word strings.Builder
	flushWord := func() {
		if word.Len() == 0 {
			return
		}
		pieces = append(pieces, Piece{Text: word.String(), Kind: Word})
		word.Reset()
	}

	for i, r := range runes {
		switch {
		case unicode.IsSpace(r):
			flushWord()
			if n := len(pieces); n > 0 {
				pieces[n-1].Whitespace += string(r)
			}
		case isWordRune(r):
			word.WriteRune(r)
		case word.Len() > 0 && joinsWord(runes, i):
			word.WriteRune(r)
		default:
			flushWord()
			pieces = append(pieces, Piece{Text: string(r), Kind: classify(r)})
		}
	}
	flushWord()

	return pieces
}

// IsMark reports whether r belongs to DefaultMarks.
func IsMark(r rune) bool {
	return strings.ContainsRune(DefaultMarks, r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

// joinsWord reports whether the joiner at runes[i] continues the current word.
func joinsWord(runes []rune, i int) bool {
	if i == 0 || i+1 >= len(runes) {
		return false
	}
	prev, next := runes[i-1], runes[i+1]

	switch runes[i] {
	case '\'', '-':
		return isWordRune(prev) && isWordRune(next)
	case '.', ',':
		return unicode.IsDigit(prev) && unicode.IsDigit(next)
	default:
		return false
	}
}

// classify separates silent punctuation from speakable symbols such as
// '%', '&' or '$', which unicode files under Po or Sc.
func classify(r rune) Kind {
	if IsMark(r) || r == '\'' || unicode.In(r, unicode.Pd, unicode.Ps, unicode.Pe, unicode.Pi, unicode.Pf) {
		return Punct
	}
	return Symbol
}
