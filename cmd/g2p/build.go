package main

import (
	"fmt"
	"log/slog"

	"github.com/example/go-g2p/internal/config"
	"github.com/example/go-g2p/internal/espeak"
	"github.com/example/go-g2p/internal/g2p"
	"github.com/example/go-g2p/internal/lexicon"
	"github.com/example/go-g2p/internal/onnx"
)

// pipeline is a Phonemizer together with the resources it owns.
type pipeline struct {
	phonemizer *g2p.Phonemizer
	engine     *espeak.CLIEngine
	model      *onnx.Model
}

func (p *pipeline) Close() {
	if p.model != nil {
		p.model.Close()
	}
}

func newEngine(cfg config.Config) *espeak.CLIEngine {
	return &espeak.CLIEngine{Path: cfg.Espeak.Path, DataPath: cfg.Espeak.DataPath}
}

// buildPipeline wires lexicon, neural model and espeak fallback as cfg asks.
func buildPipeline(cfg config.Config) (*pipeline, error) {
	dialect, err := g2p.ParseDialect(cfg.G2P.Dialect)
	if err != nil {
		return nil, err
	}

	var extra []map[string]string
	if cfg.Paths.LexiconPath != "" {
		entries, err := lexicon.LoadFile(cfg.Paths.LexiconPath)
		if err != nil {
			return nil, err
		}
		extra = append(extra, entries)
	}

	lex, err := lexicon.New(dialect.British(), extra...)
	if err != nil {
		return nil, err
	}

	p := &pipeline{engine: newEngine(cfg)}
	gcfg := g2p.Config{
		Dialect:       dialect,
		Transformer:   cfg.G2P.Transformer,
		Lexicon:       lex,
		UnknownMarker: cfg.G2P.UnknownMarker,
		Concurrency:   cfg.G2P.Concurrency,
		Logger:        slog.Default(),
	}

	if cfg.G2P.Fallback {
		fb, err := espeak.NewFallback(p.engine, espeak.Options{
			Dialect:   dialect,
			CacheSize: cfg.Espeak.CacheSize,
			Logger:    slog.Default(),
		})
		if err != nil {
			return nil, err
		}
		gcfg.Fallback = fb
	}

	if cfg.G2P.Transformer {
		info, err := onnx.DetectRuntime(cfg.Runtime)
		if err != nil {
			return nil, fmt.Errorf("neural g2p: %w", err)
		}

		model, err := onnx.NewModel(cfg.Paths.ModelManifest, onnx.RunnerConfig{LibraryPath: info.LibraryPath})
		if err != nil {
			return nil, fmt.Errorf("neural g2p: %w", err)
		}
		p.model = model
		gcfg.Predictor = model
	}

	ph, err := g2p.New(gcfg)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.phonemizer = ph

	slog.Debug("phonemizer ready",
		slog.String("dialect", string(ph.Dialect())),
		slog.String("unknown_marker", ph.UnknownMarker()),
		slog.Int("lexicon_entries", lex.Len()),
		slog.Bool("fallback", cfg.G2P.Fallback),
		slog.Bool("transformer", cfg.G2P.Transformer),
	)

	return p, nil
}
