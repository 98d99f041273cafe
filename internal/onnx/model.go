package onnx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/go-g2p/internal/g2p"
)

var (
	// ErrUnknownGrapheme is returned when a word contains a character the
	// model was not trained on.
	ErrUnknownGrapheme = errors.New("unknown grapheme")
	// ErrWordTooLong is returned for words longer than the model input.
	ErrWordTooLong = errors.New("word exceeds model input length")
)

type graphRunner interface {
	Run(ctx context.Context, inputs map[string]*Tensor) (map[string]*Tensor, error)
	Close()
}

// Model predicts phonemes for single words with an ONNX G2P graph.
// It is safe for concurrent use.
type Model struct {
	manifest  Manifest
	runner    graphRunner
	graphemes map[rune]int64
}

var _ g2p.Predictor = (*Model)(nil)

// NewModel loads the manifest at manifestPath and opens its graph.
func NewModel(manifestPath string, cfg RunnerConfig) (*Model, error) {
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	runner, err := NewRunner(m.Name, m.Model, cfg)
	if err != nil {
		return nil, err
	}

	return newModel(m, runner), nil
}

func newModel(m Manifest, runner graphRunner) *Model {
	graphemes := make(map[rune]int64, len(m.Graphemes))
	for i, g := range m.Graphemes {
		r, _ := utf8.DecodeRuneInString(g)
		graphemes[r] = int64(i) + firstSymbolID
	}

	return &Model{manifest: m, runner: runner, graphemes: graphemes}
}

// Manifest returns the loaded manifest.
func (m *Model) Manifest() Manifest { return m.manifest }

// Predict returns the phonemes for word.
func (m *Model) Predict(ctx context.Context, word string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ids, err := m.encode(word)
	if err != nil {
		return "", err
	}

	input, err := NewTensor(ids, []int64{1, int64(len(ids))})
	if err != nil {
		return "", err
	}

	outputs, err := m.runner.Run(ctx, map[string]*Tensor{m.manifest.Input: input})
	if err != nil {
		return "", fmt.Errorf("predict %q: %w", word, err)
	}

	out, ok := outputs[m.manifest.Output]
	if !ok {
		return "", fmt.Errorf("predict %q: graph has no output %q", word, m.manifest.Output)
	}

	phonemeIDs, err := outputIDs(out)
	if err != nil {
		return "", fmt.Errorf("predict %q: %w", word, err)
	}

	return m.decode(phonemeIDs)
}

// Close releases the ORT session.
func (m *Model) Close() {
	if m.runner != nil {
		m.runner.Close()
	}
}

// encode lowercases word and frames its grapheme ids with BOS and EOS.
func (m *Model) encode(word string) ([]int64, error) {
	n := utf8.RuneCountInString(word)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty word", ErrUnknownGrapheme)
	}
	if n > m.manifest.MaxInput {
		return nil, fmt.Errorf("%w: %d > %d", ErrWordTooLong, n, m.manifest.MaxInput)
	}

	ids := make([]int64, 0, n+2)
	ids = append(ids, bosID)
	for _, r := range word {
		id, ok := m.graphemes[unicode.ToLower(r)]
		if !ok {
			return nil, fmt.Errorf("%w %q in %q", ErrUnknownGrapheme, r, word)
		}
		ids = append(ids, id)
	}

	return append(ids, eosID), nil
}

// decode maps ids to phoneme symbols until the first EOS.
func (m *Model) decode(ids []int64) (string, error) {
	var b strings.Builder
	for _, id := range ids {
		switch {
		case id == eosID:
			return b.String(), nil
		case id == padID || id == bosID:
			continue
		}

		idx := id - firstSymbolID
		if idx < 0 || idx >= int64(len(m.manifest.Phonemes)) {
			return "", fmt.Errorf("phoneme id %d out of range", id)
		}
		b.WriteString(m.manifest.Phonemes[idx])
	}

	return b.String(), nil
}

// outputIDs accepts decoded ids [1, m] or logits [1, m, vocab], which are
// reduced greedily.
func outputIDs(t *Tensor) ([]int64, error) {
	switch t.DType() {
	case DTypeInt64:
		return t.Int64s()
	case DTypeFloat32:
		shape := t.Shape()
		if len(shape) != 3 || shape[0] != 1 {
			return nil, fmt.Errorf("logits shape %v, want [1, steps, vocab]", shape)
		}
		logits, err := t.Float32s()
		if err != nil {
			return nil, err
		}
		return argmax(logits, int(shape[1]), int(shape[2])), nil
	default:
		return nil, fmt.Errorf("unsupported output dtype %s", t.DType())
	}
}

func argmax(logits []float32, steps, vocab int) []int64 {
	out := make([]int64, steps)
	for s := range steps {
		row := logits[s*vocab : (s+1)*vocab]
		best := 0
		for i, v := range row {
			if v > row[best] {
				best = i
			}
		}
		out[s] = int64(best)
	}

	return out
}
