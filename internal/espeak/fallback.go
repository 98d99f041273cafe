package espeak

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/go-g2p/internal/g2p"
)

// DefaultCacheSize is the number of memoized token transcriptions.
const DefaultCacheSize = 1024

// Options configures a Fallback.
type Options struct {
	Dialect g2p.Dialect
	// CacheSize bounds the LRU of resolved texts. Zero means
	// DefaultCacheSize; negative disables caching.
	CacheSize int
	Logger    *slog.Logger
}

// Fallback resolves single tokens through an Engine. espeak-ng is rule based,
// so the output for a given (text, dialect) pair never changes and is cached.
type Fallback struct {
	engine  Engine
	dialect g2p.Dialect
	voice   string
	cache   *lru.Cache[string, string]
	log     *slog.Logger
}

var _ g2p.Fallback = (*Fallback)(nil)

// NewFallback returns a Fallback for opts.Dialect backed by engine.
func NewFallback(engine Engine, opts Options) (*Fallback, error) {
	if engine == nil {
		return nil, fmt.Errorf("espeak fallback: engine is required")
	}

	if !opts.Dialect.Supported() {
		return nil, &g2p.UnsupportedLanguageError{Dialect: string(opts.Dialect)}
	}

	f := &Fallback{
		engine:  engine,
		dialect: opts.Dialect,
		voice:   Voice(opts.Dialect),
		log:     opts.Logger,
	}
	if f.log == nil {
		f.log = slog.Default()
	}

	size := opts.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		cache, err := lru.New[string, string](size)
		if err != nil {
			return nil, fmt.Errorf("espeak fallback cache: %w", err)
		}
		f.cache = cache
	}

	return f, nil
}

// Dialect returns the dialect fixed at construction.
func (f *Fallback) Dialect() g2p.Dialect { return f.dialect }

// Resolve phonemizes tok.Text on its own. Tokens with no speakable content
// yield "" without invoking the engine.
func (f *Fallback) Resolve(ctx context.Context, tok g2p.Token) (string, error) {
	text := strings.TrimSpace(tok.Text)
	if text == "" {
		return "", nil
	}

	if f.cache != nil {
		if ps, ok := f.cache.Get(text); ok {
			return ps, nil
		}
	}

	raw, err := f.engine.Phonemize(ctx, text, f.voice)
	if err != nil {
		return "", err
	}

	ps := ToPhonemes(raw, f.dialect.British())
	f.log.DebugContext(ctx, "espeak fallback",
		slog.String("text", text),
		slog.String("voice", f.voice),
		slog.String("phonemes", ps),
	)

	if f.cache != nil {
		f.cache.Add(text, ps)
	}

	return ps, nil
}
