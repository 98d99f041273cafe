package g2p

// punctPhonemes maps punctuation to the marks kept in the phoneme string.
// Marks not listed here are silent.
var punctPhonemes = map[string]string{
	";": ";", ":": ":", ",": ",", ".": ".", "!": "!", "?": "?",
	"—": "—", "–": "—", "…": "…",
	"\"": "\"", "“": "“", "”": "”", "«": "“", "»": "”",
	"(": "(", ")": ")", "[": "(", "]": ")", "{": "(", "}": ")",
}

func punctuation(mark string) string {
	return punctPhonemes[mark]
}
