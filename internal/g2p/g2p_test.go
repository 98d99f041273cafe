package g2p_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/example/go-g2p/internal/g2p"
)

// stubFallback implements g2p.Fallback for tests.
type stubFallback struct {
	mu    sync.Mutex
	calls []string
	fn    func(text string) (string, error)
}

func (s *stubFallback) Resolve(_ context.Context, tok g2p.Token) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, tok.Text)
	s.mu.Unlock()

	if s.fn != nil {
		return s.fn(tok.Text)
	}

	return "<" + strings.ToLower(tok.Text) + ">", nil
}

// stubPredictor implements g2p.Predictor for tests.
type stubPredictor struct {
	known map[string]string
}

func (s *stubPredictor) Predict(_ context.Context, word string) (string, error) {
	if ps, ok := s.known[strings.ToLower(word)]; ok {
		return ps, nil
	}

	return "", errors.New("no prediction")
}

func newPhonemizer(t *testing.T, cfg g2p.Config) *g2p.Phonemizer {
	t.Helper()

	p, err := g2p.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return p
}

func texts(tokens []g2p.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}

	return out
}

// ---------------------------------------------------------------------------
// primary strategy
// ---------------------------------------------------------------------------

func TestConvert_HelloWorldAmerican(t *testing.T) {
	p := newPhonemizer(t, g2p.Config{Dialect: g2p.AmericanEnglish})

	res, err := p.Convert(context.Background(), "Hello, World!")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if res.Phonemes != "həlˈO, wˈɜɹld!" {
		t.Errorf("Phonemes = %q, want %q", res.Phonemes, "həlˈO, wˈɜɹld!")
	}

	want := []g2p.Token{
		{Text: "Hello", Phonemes: "həlˈO", State: g2p.Resolved, Source: g2p.SourceLexicon},
		{Text: ",", Phonemes: ",", Whitespace: " ", State: g2p.Resolved, Source: g2p.SourcePunct},
		{Text: "World", Phonemes: "wˈɜɹld", State: g2p.Resolved, Source: g2p.SourceLexicon},
		{Text: "!", Phonemes: "!", State: g2p.Resolved, Source: g2p.SourcePunct},
	}
	if diff := cmp.Diff(want, res.Tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}

	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestConvert_HelloWorldBritish(t *testing.T) {
	res, err := g2p.Convert(context.Background(), "Hello, World!", g2p.Config{Dialect: g2p.BritishEnglish})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if res.Phonemes != "həlˈQ, wˈɜːld!" {
		t.Errorf("Phonemes = %q", res.Phonemes)
	}
}

func TestConvert_DialectDoesNotChangeTokens(t *testing.T) {
	input := "The quick brown fox jumped over the lazy dog, didn't it?"

	us, err := g2p.Convert(context.Background(), input, g2p.Config{Dialect: g2p.AmericanEnglish})
	if err != nil {
		t.Fatal(err)
	}

	gb, err := g2p.Convert(context.Background(), input, g2p.Config{Dialect: g2p.BritishEnglish})
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(texts(us.Tokens), texts(gb.Tokens)); diff != "" {
		t.Errorf("token texts differ between dialects (-us +gb):\n%s", diff)
	}

	if us.Phonemes == gb.Phonemes {
		t.Errorf("expected dialects to differ, both %q", us.Phonemes)
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	inputs := []string{
		"Hello, World!",
		"  Three   cats   ran... (quickly)  ",
		"Zyzzyva and 42 dogs — honestly?",
		"",
	}

	p := newPhonemizer(t, g2p.Config{Dialect: g2p.AmericanEnglish})

	for _, in := range inputs {
		res, err := p.Convert(context.Background(), in)
		if err != nil {
			t.Fatalf("Convert(%q): %v", in, err)
		}

		if got := g2p.JoinPhonemes(res.Tokens, p.UnknownMarker()); got != res.Phonemes {
			t.Errorf("JoinPhonemes = %q, Phonemes = %q", got, res.Phonemes)
		}

		for _, tok := range res.Tokens {
			if tok.State != g2p.Resolved || tok.Source == g2p.SourcePunct {
				continue
			}
			if tok.Phonemes == "" {
				t.Errorf("resolved word %q has empty phonemes", tok.Text)
			}
		}
	}
}

func TestConvert_TokenCountMatchesUnits(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"Hello, World!", 4},
		{"one two three", 3},
		{"Stop. Go!", 4},
		{"(yes)", 3},
		{"", 0},
	}

	p := newPhonemizer(t, g2p.Config{Dialect: g2p.AmericanEnglish})
	for _, tt := range tests {
		res, err := p.Convert(context.Background(), tt.input)
		if err != nil {
			t.Fatal(err)
		}

		if len(res.Tokens) != tt.want {
			t.Errorf("Convert(%q): %d tokens %v, want %d", tt.input, len(res.Tokens), texts(res.Tokens), tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// unresolved tokens and fallback
// ---------------------------------------------------------------------------

func TestConvert_UnresolvedWithoutFallback(t *testing.T) {
	p := newPhonemizer(t, g2p.Config{Dialect: g2p.AmericanEnglish, UnknownMarker: "?"})

	res, err := p.Convert(context.Background(), "hello zyzzyva")
	if err != nil {
		t.Fatalf("unresolved tokens must not fail Convert: %v", err)
	}

	if res.Phonemes != "həlˈO ?" {
		t.Errorf("Phonemes = %q", res.Phonemes)
	}

	if res.Tokens[1].State != g2p.Unresolved || res.Tokens[1].Phonemes != "" {
		t.Errorf("token not marked unresolved: %+v", res.Tokens[1])
	}

	want := []g2p.UnresolvedTokenWarning{{Index: 1, Text: "zyzzyva"}}
	if diff := cmp.Diff(want, res.Warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}

	if len(res.Unresolved()) != 1 {
		t.Errorf("Unresolved() = %v", res.Unresolved())
	}
}

func TestConvert_FallbackResolvesUnknownWords(t *testing.T) {
	fb := &stubFallback{}
	p := newPhonemizer(t, g2p.Config{Dialect: g2p.AmericanEnglish, Fallback: fb})

	res, err := p.Convert(context.Background(), "Hello Zyzzyva!")
	if err != nil {
		t.Fatal(err)
	}

	if res.Phonemes != "həlˈO <zyzzyva>!" {
		t.Errorf("Phonemes = %q", res.Phonemes)
	}

	got := res.Tokens[1]
	if got.State != g2p.FallbackApplied || got.Source != g2p.SourceFallback {
		t.Errorf("token state = %v source = %q", got.State, got.Source)
	}

	if diff := cmp.Diff([]string{"Zyzzyva"}, fb.calls); diff != "" {
		t.Errorf("fallback calls (-want +got):\n%s", diff)
	}

	if len(res.Warnings) != 1 {
		t.Errorf("warning should still be reported for the primary miss, got %v", res.Warnings)
	}
}

func TestConvert_FallbackPreservesOrder(t *testing.T) {
	words := make([]string, 0, 40)
	for i := range 40 {
		words = append(words, fmt.Sprintf("qx%02d", i))
	}

	fb := &stubFallback{fn: func(text string) (string, error) {
		// Later tokens finish first.
		var n int
		_, _ = fmt.Sscanf(text, "qx%d", &n)
		time.Sleep(time.Duration(40-n) * 100 * time.Microsecond)

		return "p" + text[2:], nil
	}}
	p := newPhonemizer(t, g2p.Config{Dialect: g2p.AmericanEnglish, Fallback: fb, Concurrency: 8})

	res, err := p.Convert(context.Background(), strings.Join(words, " "))
	if err != nil {
		t.Fatal(err)
	}

	for i, tok := range res.Tokens {
		want := fmt.Sprintf("p%02d", i)
		if tok.Text != words[i] || tok.Phonemes != want {
			t.Fatalf("token %d = %q/%q, want %q/%q", i, tok.Text, tok.Phonemes, words[i], want)
		}
	}
}

func TestConvert_EngineUnavailableAborts(t *testing.T) {
	fb := &stubFallback{fn: func(string) (string, error) {
		return "", &g2p.EngineUnavailableError{Engine: "espeak-ng", Err: errors.New("executable file not found")}
	}}
	p := newPhonemizer(t, g2p.Config{Dialect: g2p.AmericanEnglish, Fallback: fb})

	_, err := p.Convert(context.Background(), "hello zyzzyva")
	if !errors.Is(err, g2p.ErrEngineUnavailable) {
		t.Fatalf("want ErrEngineUnavailable, got %v", err)
	}

	var unavailable *g2p.EngineUnavailableError
	if !errors.As(err, &unavailable) || unavailable.Engine != "espeak-ng" {
		t.Errorf("errors.As failed: %v", err)
	}

	if !strings.Contains(err.Error(), "espeak-ng") {
		t.Errorf("message should name the engine: %q", err.Error())
	}
}

func TestConvert_PerTokenFallbackErrorDegrades(t *testing.T) {
	fb := &stubFallback{fn: func(text string) (string, error) {
		if text == "bad" {
			return "", errors.New("exit status 1")
		}
		return "ok", nil
	}}
	p := newPhonemizer(t, g2p.Config{Dialect: g2p.AmericanEnglish, Fallback: fb})

	res, err := p.Convert(context.Background(), "zyx bad")
	if err != nil {
		t.Fatalf("per-token failure must not abort: %v", err)
	}

	if res.Tokens[0].State != g2p.FallbackApplied {
		t.Errorf("token 0 state = %v", res.Tokens[0].State)
	}

	if res.Tokens[1].State != g2p.Unresolved {
		t.Errorf("token 1 state = %v", res.Tokens[1].State)
	}

	if res.Phonemes != "ok "+g2p.DefaultUnknownMarker {
		t.Errorf("Phonemes = %q", res.Phonemes)
	}
}

func TestConvert_EmptyFallbackAnswerStaysUnresolved(t *testing.T) {
	fb := &stubFallback{fn: func(string) (string, error) { return "", nil }}
	p := newPhonemizer(t, g2p.Config{Dialect: g2p.AmericanEnglish, Fallback: fb})

	res, err := p.Convert(context.Background(), "Hello zzyzx")
	if err != nil {
		t.Fatal(err)
	}

	if want := "həlˈO " + g2p.DefaultUnknownMarker; res.Phonemes != want {
		t.Errorf("Phonemes = %q, want %q", res.Phonemes, want)
	}

	got := res.Tokens[1]
	if got.State != g2p.Unresolved || got.Source != "" || got.Phonemes != "" {
		t.Errorf("token 1 = %+v, want unresolved", got)
	}

	if len(res.Unresolved()) != 1 {
		t.Errorf("Unresolved() = %v", res.Unresolved())
	}
}

func TestConvert_CancelledContext(t *testing.T) {
	fb := &stubFallback{fn: func(string) (string, error) { return "", context.Canceled }}
	p := newPhonemizer(t, g2p.Config{Dialect: g2p.AmericanEnglish, Fallback: fb})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Convert(ctx, "zyzzyva"); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestConvert_FallbackSkippedWhenAllResolved(t *testing.T) {
	fb := &stubFallback{}
	p := newPhonemizer(t, g2p.Config{Dialect: g2p.AmericanEnglish, Fallback: fb})

	if _, err := p.Convert(context.Background(), "hello world"); err != nil {
		t.Fatal(err)
	}

	if len(fb.calls) != 0 {
		t.Errorf("fallback called for resolved tokens: %v", fb.calls)
	}
}

// ---------------------------------------------------------------------------
// transformer path
// ---------------------------------------------------------------------------

func TestConvert_TransformerPath(t *testing.T) {
	fb := &stubFallback{}
	p := newPhonemizer(t, g2p.Config{
		Dialect:     g2p.AmericanEnglish,
		Transformer: true,
		Predictor:   &stubPredictor{known: map[string]string{"kokoro": "kˈOkəɹO"}},
		Fallback:    fb,
	})

	res, err := p.Convert(context.Background(), "kokoro zyzzyva")
	if err != nil {
		t.Fatal(err)
	}

	if got := res.Tokens[0]; got.Phonemes != "kˈOkəɹO" || got.Source != g2p.SourceNeural || got.State != g2p.Resolved {
		t.Errorf("token 0 = %+v", got)
	}

	if got := res.Tokens[1]; got.State != g2p.FallbackApplied {
		t.Errorf("predictor miss should reach fallback, got %+v", got)
	}
}

func TestConvert_TransformerDisabledIgnoresPredictor(t *testing.T) {
	p := newPhonemizer(t, g2p.Config{
		Dialect:   g2p.AmericanEnglish,
		Predictor: &stubPredictor{known: map[string]string{"kokoro": "kˈOkəɹO"}},
	})

	res, err := p.Convert(context.Background(), "kokoro")
	if err != nil {
		t.Fatal(err)
	}

	if res.Tokens[0].State != g2p.Unresolved {
		t.Errorf("predictor used while disabled: %+v", res.Tokens[0])
	}
}

func TestNew_TransformerWithoutPredictor(t *testing.T) {
	if _, err := g2p.New(g2p.Config{Dialect: g2p.AmericanEnglish, Transformer: true}); err == nil {
		t.Fatal("expected error")
	}
}

// ---------------------------------------------------------------------------
// configuration errors
// ---------------------------------------------------------------------------

func TestConvert_UnsupportedDialect(t *testing.T) {
	for _, d := range []g2p.Dialect{"", "fr-fr", "en-au"} {
		_, err := g2p.Convert(context.Background(), "hello", g2p.Config{Dialect: d})

		var unsupported *g2p.UnsupportedLanguageError
		if !errors.As(err, &unsupported) {
			t.Errorf("dialect %q: want UnsupportedLanguageError, got %v", d, err)
			continue
		}

		if unsupported.Dialect != string(d) {
			t.Errorf("Dialect = %q, want %q", unsupported.Dialect, d)
		}
	}
}

func TestConvert_ZeroPhonemizer(t *testing.T) {
	var p g2p.Phonemizer

	var unsupported *g2p.UnsupportedLanguageError
	if _, err := p.Convert(context.Background(), "hello"); !errors.As(err, &unsupported) {
		t.Errorf("want UnsupportedLanguageError, got %v", err)
	}
}

func TestConvert_CustomLexicon(t *testing.T) {
	lex := lexiconFunc(func(word string) (string, bool) {
		return strings.ToUpper(word), true
	})
	p := newPhonemizer(t, g2p.Config{Dialect: g2p.AmericanEnglish, Lexicon: lex})

	res, err := p.Convert(context.Background(), "abc def")
	if err != nil {
		t.Fatal(err)
	}

	if res.Phonemes != "ABC DEF" {
		t.Errorf("Phonemes = %q", res.Phonemes)
	}
}

type lexiconFunc func(string) (string, bool)

func (f lexiconFunc) Lookup(word string) (string, bool) { return f(word) }
