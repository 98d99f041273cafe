package lexicon

import (
	"strconv"
	"strings"
)

var (
	ones = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tens = []string{
		"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
	}
	scales = []struct {
		value int64
		name  string
	}{
		{1_000_000_000, "billion"},
		{1_000_000, "million"},
		{1_000, "thousand"},
	}
)

const maxSpelled = 1_000_000_000_000

// number spells a numeric token with lexicon words. Grouping commas are
// ignored, a single decimal point reads as "point" followed by digits, and
// a leading zero reads the integer part digit by digit.
func (l *Lexicon) number(token string) (string, bool) {
	intPart, fracPart, hasFrac := strings.Cut(strings.ReplaceAll(token, ",", ""), ".")
	if intPart == "" || strings.Contains(fracPart, ".") || (hasFrac && fracPart == "") {
		return "", false
	}

	var words []string
	if len(intPart) > 1 && intPart[0] == '0' {
		words = digitWords(intPart)
	} else {
		n, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil || n >= maxSpelled {
			return "", false
		}
		words = cardinal(n)
	}

	if hasFrac {
		words = append(words, "point")
		words = append(words, digitWords(fracPart)...)
	}

	out := make([]string, 0, len(words))
	for _, w := range words {
		ps, ok := l.get(w)
		if !ok {
			return "", false
		}
		out = append(out, ps)
	}

	return strings.Join(out, " "), true
}

// cardinal returns the English words for n in [0, maxSpelled).
func cardinal(n int64) []string {
	if n < 20 {
		return []string{ones[n]}
	}

	var words []string
	for _, sc := range scales {
		if n >= sc.value {
			words = append(words, cardinal(n/sc.value)...)
			words = append(words, sc.name)
			n %= sc.value
			if n == 0 {
				return words
			}
		}
	}

	if n >= 100 {
		words = append(words, ones[n/100], "hundred")
		n %= 100
		if n == 0 {
			return words
		}
	}

	switch {
	case n >= 20:
		words = append(words, tens[n/10])
		if n%10 != 0 {
			words = append(words, ones[n%10])
		}
	default:
		words = append(words, ones[n])
	}

	return words
}

func digitWords(digits string) []string {
	words := make([]string, 0, len(digits))
	for _, d := range digits {
		words = append(words, ones[d-'0'])
	}

	return words
}
