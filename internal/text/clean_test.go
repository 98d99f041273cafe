package text

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "passthrough clean text", input: "Hello world", want: "Hello world"},
		{name: "trims surrounding whitespace", input: "\t\n Hello \n\t", want: "Hello"},
		{name: "normalizes CRLF to LF", input: "line one\r\nline two", want: "line one\nline two"},
		{name: "normalizes bare CR to LF", input: "line one\rline two", want: "line one\nline two"},
		{name: "rejects empty string", input: "", wantErr: ErrEmptyText},
		{name: "rejects whitespace-only string", input: "   \t\n  ", wantErr: ErrEmptyText},
		{name: "preserves internal whitespace", input: "  hello   world  ", want: "hello   world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: " \t\n ", want: ""},
		{name: "collapses whitespace", input: "  Hello,\n\n  World!  ", want: "Hello, World!"},
		{name: "full-width letters and punctuation", input: "Ｈｅｌｌｏ，　Ｗｏｒｌｄ！", want: "Hello, World!"},
		{name: "CJK full stop and comma", input: "你好、世界。", want: "你好,世界."},
		{name: "typographic apostrophe", input: "don’t", want: "don't"},
		{name: "drops control characters", input: "a\x00b\x1bc\x7f", want: "abc"},
		{name: "composes combining accents", input: "cafe\u0301", want: "caf\u00e9"},
		{name: "keeps ellipsis and dashes", input: "wait… now—go", want: "wait… now—go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
