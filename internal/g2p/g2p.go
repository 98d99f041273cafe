// Package g2p converts English text to phonemes. A lexicon resolves most
// words; an optional neural predictor handles the rest when enabled, and a
// Fallback (usually espeak-ng) is consulted for whatever is left.
package g2p

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-g2p/internal/lexicon"
	"github.com/example/go-g2p/internal/text"
)

// Lexicon is the primary lookup strategy.
type Lexicon interface {
	Lookup(word string) (string, bool)
}

// Predictor is the heavyweight resolution path, typically a neural model.
type Predictor interface {
	Predict(ctx context.Context, word string) (string, error)
}

// Fallback resolves a single token independently of its context.
type Fallback interface {
	Resolve(ctx context.Context, tok Token) (string, error)
}

const defaultConcurrency = 4

// Config is fixed when the Phonemizer is built.
type Config struct {
	Dialect Dialect
	// Transformer enables the Predictor path for words the lexicon misses.
	Transformer bool
	Predictor   Predictor
	// Lexicon overrides the built-in lexicon for Dialect.
	Lexicon  Lexicon
	Fallback Fallback
	// UnknownMarker replaces unresolved tokens in Result.Phonemes.
	// Empty means DefaultUnknownMarker.
	UnknownMarker string
	// Concurrency bounds parallel fallback calls. Zero means 4.
	Concurrency int
	Logger      *slog.Logger
}

// Phonemizer is safe for concurrent use; it holds no per-call state.
type Phonemizer struct {
	cfg Config
	lex Lexicon
	log *slog.Logger
}

// New validates cfg and returns a Phonemizer. An unsupported dialect yields
// *UnsupportedLanguageError.
func New(cfg Config) (*Phonemizer, error) {
	if !cfg.Dialect.Supported() {
		return nil, &UnsupportedLanguageError{Dialect: string(cfg.Dialect)}
	}

	if cfg.Transformer && cfg.Predictor == nil {
		return nil, errors.New("transformer path enabled without a predictor")
	}

	if cfg.UnknownMarker == "" {
		cfg.UnknownMarker = DefaultUnknownMarker
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}

	lex := cfg.Lexicon
	if lex == nil {
		builtin, err := lexicon.New(cfg.Dialect.British())
		if err != nil {
			return nil, err
		}
		lex = builtin
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Phonemizer{cfg: cfg, lex: lex, log: log}, nil
}

// Convert builds a Phonemizer for cfg and converts input with it.
func Convert(ctx context.Context, input string, cfg Config) (Result, error) {
	p, err := New(cfg)
	if err != nil {
		return Result{}, err
	}

	return p.Convert(ctx, input)
}

// Dialect returns the configured dialect.
func (p *Phonemizer) Dialect() Dialect { return p.cfg.Dialect }

// UnknownMarker returns the marker used for unresolved tokens.
func (p *Phonemizer) UnknownMarker() string { return p.cfg.UnknownMarker }

// Fallback returns the configured fallback, or nil.
func (p *Phonemizer) Fallback() Fallback { return p.cfg.Fallback }

// Convert cleans and tokenizes input, then resolves every token. Tokens the
// lexicon and predictor miss are handed to the fallback; without one they
// stay Unresolved. Only an unusable fallback engine or a done context makes
// Convert fail.
func (p *Phonemizer) Convert(ctx context.Context, input string) (Result, error) {
	if p == nil || p.lex == nil {
		return Result{}, &UnsupportedLanguageError{}
	}

	pieces := text.Tokenize(text.Clean(input))
	tokens := make([]Token, len(pieces))

	var warnings []UnresolvedTokenWarning
	for i, pc := range pieces {
		tok := Token{Text: pc.Text, Whitespace: pc.Whitespace}
		p.resolve(ctx, &tok, pc.Kind)

		if tok.State == Unresolved {
			w := UnresolvedTokenWarning{Index: i, Text: tok.Text}
			warnings = append(warnings, w)
			p.log.DebugContext(ctx, "unresolved token", slog.Int("index", i), slog.String("text", tok.Text))
		}
		tokens[i] = tok
	}

	if p.cfg.Fallback != nil && len(warnings) > 0 {
		if err := p.applyFallback(ctx, tokens); err != nil {
			return Result{}, err
		}
	}

	return Result{
		Phonemes: JoinPhonemes(tokens, p.cfg.UnknownMarker),
		Tokens:   tokens,
		Warnings: warnings,
	}, nil
}

func (p *Phonemizer) resolve(ctx context.Context, tok *Token, kind text.Kind) {
	if kind == text.Punct {
		tok.Phonemes = punctuation(tok.Text)
		tok.State = Resolved
		tok.Source = SourcePunct
		return
	}

	if ps, ok := p.lex.Lookup(tok.Text); ok {
		tok.Phonemes = ps
		tok.State = Resolved
		tok.Source = SourceLexicon
		return
	}

	if !p.cfg.Transformer || kind != text.Word {
		return
	}

	ps, err := p.cfg.Predictor.Predict(ctx, tok.Text)
	if err != nil {
		p.log.DebugContext(ctx, "predictor failed", slog.String("text", tok.Text), slog.String("error", err.Error()))
		return
	}
	if ps != "" {
		tok.Phonemes = ps
		tok.State = Resolved
		tok.Source = SourceNeural
	}
}

// applyFallback resolves unresolved tokens in parallel. Each goroutine owns
// one slice index, so token order is preserved. An empty answer leaves the
// token Unresolved.
func (p *Phonemizer) applyFallback(ctx context.Context, tokens []Token) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i := range tokens {
		if tokens[i].State != Unresolved {
			continue
		}

		g.Go(func() error {
			ps, err := p.cfg.Fallback.Resolve(gctx, tokens[i])
			if err != nil {
				if errors.Is(err, ErrEngineUnavailable) || errors.Is(err, context.Canceled) ||
					errors.Is(err, context.DeadlineExceeded) {
					return fmt.Errorf("fallback for %q: %w", tokens[i].Text, err)
				}
				p.log.WarnContext(gctx, "fallback failed",
					slog.Int("index", i),
					slog.String("text", tokens[i].Text),
					slog.String("error", err.Error()),
				)
				return nil
			}
			if ps == "" {
				p.log.DebugContext(gctx, "fallback returned no phonemes", slog.Int("index", i), slog.String("text", tokens[i].Text))
				return nil
			}

			tokens[i].Phonemes = ps
			tokens[i].State = FallbackApplied
			tokens[i].Source = SourceFallback
			return nil
		})
	}

	return g.Wait()
}
