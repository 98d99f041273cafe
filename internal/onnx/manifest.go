package onnx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// Reserved ids shared by the grapheme and phoneme vocabularies. Symbol i of
// either list has id i+firstSymbolID.
const (
	padID         int64 = 0
	bosID         int64 = 1
	eosID         int64 = 2
	firstSymbolID int64 = 3
)

const (
	defaultInputName  = "input_ids"
	defaultOutputName = "output"
	defaultMaxInput   = 64
)

// Manifest describes a character-level sequence-to-sequence G2P graph.
//
// The graph takes int64 grapheme ids of shape [1, n] framed by BOS/EOS and
// returns either decoded phoneme ids [1, m] or logits [1, m, vocab].
type Manifest struct {
	Name      string   `json:"name"`
	Model     string   `json:"model"`
	Input     string   `json:"input"`
	Output    string   `json:"output"`
	Graphemes []string `json:"graphemes"`
	Phonemes  []string `json:"phonemes"`
	MaxInput  int      `json:"max_input"`
}

// LoadManifest reads and validates a manifest. A relative Model path is
// resolved against the manifest's directory.
func LoadManifest(path string) (Manifest, error) {
	if path == "" {
		return Manifest{}, errors.New("manifest path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read G2P manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode G2P manifest: %w", err)
	}

	if m.Model == "" {
		return Manifest{}, errors.New("G2P manifest has empty model")
	}

	if !filepath.IsAbs(m.Model) {
		m.Model = filepath.Join(filepath.Dir(path), m.Model)
	}

	m.Model = filepath.Clean(m.Model)
	if _, err := os.Stat(m.Model); err != nil {
		return Manifest{}, fmt.Errorf("model file: %w", err)
	}

	m.applyDefaults()
	if err := m.validate(); err != nil {
		return Manifest{}, err
	}

	slog.Info(
		"loaded G2P manifest",
		"name", m.Name,
		"path", m.Model,
		"graphemes", len(m.Graphemes),
		"phonemes", len(m.Phonemes),
	)

	return m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Name == "" {
		m.Name = "g2p"
	}
	if m.Input == "" {
		m.Input = defaultInputName
	}
	if m.Output == "" {
		m.Output = defaultOutputName
	}
	if m.MaxInput <= 0 {
		m.MaxInput = defaultMaxInput
	}
}

func (m Manifest) validate() error {
	if len(m.Graphemes) == 0 {
		return errors.New("G2P manifest has no graphemes")
	}
	if len(m.Phonemes) == 0 {
		return errors.New("G2P manifest has no phonemes")
	}

	seen := make(map[string]bool, len(m.Graphemes))
	for i, g := range m.Graphemes {
		if utf8.RuneCountInString(g) != 1 {
			return fmt.Errorf("grapheme %d (%q) must be a single character", i, g)
		}
		if seen[g] {
			return fmt.Errorf("duplicate grapheme %q", g)
		}
		seen[g] = true
	}

	for i, p := range m.Phonemes {
		if p == "" {
			return fmt.Errorf("phoneme %d is empty", i)
		}
	}

	return nil
}
