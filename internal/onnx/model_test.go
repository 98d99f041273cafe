package onnx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/example/go-g2p/internal/config"
	"github.com/example/go-g2p/internal/testutil"
)

// fakeRunner returns a fixed output and records the last input.
type fakeRunner struct {
	out    *Tensor
	err    error
	input  []int64
	shape  []int64
	closed bool
}

func (f *fakeRunner) Run(_ context.Context, inputs map[string]*Tensor) (map[string]*Tensor, error) {
	in := inputs["input_ids"]
	f.input, _ = in.Int64s()
	f.shape = in.Shape()

	if f.err != nil {
		return nil, f.err
	}

	return map[string]*Tensor{"output": f.out}, nil
}

func (f *fakeRunner) Close() { f.closed = true }

func testManifest() Manifest {
	m := Manifest{
		Graphemes: []string{"a", "b", "c", "h", "e", "l", "o"},
		Phonemes:  []string{"h", "ə", "l", "ˈ", "O"},
		MaxInput:  8,
	}
	m.applyDefaults()
	return m
}

func mustTensor[T ~int64 | ~float32](t *testing.T, data []T, shape []int64) *Tensor {
	t.Helper()

	tt, err := NewTensor(data, shape)
	if err != nil {
		t.Fatal(err)
	}
	return tt
}

func TestModel_PredictDecodedIDs(t *testing.T) {
	// h ə l ˈ O EOS PAD
	runner := &fakeRunner{out: mustTensor(t, []int64{1, 3, 4, 5, 6, 7, 2, 0}, []int64{1, 8})}
	model := newModel(testManifest(), runner)

	got, err := model.Predict(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if got != "həlˈO" {
		t.Errorf("Predict = %q, want %q", got, "həlˈO")
	}

	// BOS h e l l o EOS, lowercased.
	wantIn := []int64{1, 6, 7, 8, 8, 9, 2}
	if !reflect.DeepEqual(runner.input, wantIn) {
		t.Errorf("input ids = %v, want %v", runner.input, wantIn)
	}
	if !reflect.DeepEqual(runner.shape, []int64{1, 7}) {
		t.Errorf("input shape = %v", runner.shape)
	}

	model.Close()
	if !runner.closed {
		t.Error("Close did not close the runner")
	}
}

func TestModel_PredictLogits(t *testing.T) {
	const vocab = 8
	steps := []int{3, 7, 2} // h O EOS
	logits := make([]float32, len(steps)*vocab)
	for s, id := range steps {
		logits[s*vocab+id] = 5
	}

	runner := &fakeRunner{out: mustTensor(t, logits, []int64{1, int64(len(steps)), vocab})}
	got, err := newModel(testManifest(), runner).Predict(context.Background(), "ho")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if got != "hO" {
		t.Errorf("Predict = %q, want %q", got, "hO")
	}
}

func TestModel_PredictErrors(t *testing.T) {
	good := mustTensor(t, []int64{3, 2}, []int64{1, 2})

	tests := []struct {
		name    string
		word    string
		runner  *fakeRunner
		wantErr error
		wantMsg string
	}{
		{name: "unknown grapheme", word: "héllo", runner: &fakeRunner{out: good}, wantErr: ErrUnknownGrapheme},
		{name: "too long", word: "abcabcabc", runner: &fakeRunner{out: good}, wantErr: ErrWordTooLong},
		{name: "empty", word: "", runner: &fakeRunner{out: good}, wantErr: ErrUnknownGrapheme},
		{name: "runner failure", word: "abc", runner: &fakeRunner{err: errors.New("boom")}, wantMsg: "boom"},
		{name: "id out of range", word: "abc", runner: &fakeRunner{out: mustTensor(t, []int64{42}, []int64{1, 1})}, wantMsg: "out of range"},
		{name: "bad logits shape", word: "abc", runner: &fakeRunner{out: mustTensor(t, []float32{1, 2}, []int64{1, 2})}, wantMsg: "logits shape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newModel(testManifest(), tt.runner).Predict(context.Background(), tt.word)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestModel_PredictCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{}
	_, err := newModel(testManifest(), runner).Predict(ctx, "abc")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if runner.input != nil {
		t.Error("runner should not be called with a done context")
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "g2p.onnx"), []byte("graph"), 0o644); err != nil {
		t.Fatal(err)
	}

	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	t.Run("valid with defaults", func(t *testing.T) {
		p := write("ok.json", `{"model":"g2p.onnx","graphemes":["a","b"],"phonemes":["ə"]}`)

		m, err := LoadManifest(p)
		if err != nil {
			t.Fatalf("LoadManifest: %v", err)
		}
		if m.Model != filepath.Join(dir, "g2p.onnx") {
			t.Errorf("Model = %q", m.Model)
		}
		if m.Input != "input_ids" || m.Output != "output" || m.MaxInput != 64 || m.Name != "g2p" {
			t.Errorf("defaults not applied: %+v", m)
		}
	})

	errCases := []struct {
		name string
		body string
		want string
	}{
		{"missing model file", `{"model":"missing.onnx","graphemes":["a"],"phonemes":["ə"]}`, "model file"},
		{"no graphemes", `{"model":"g2p.onnx","phonemes":["ə"]}`, "no graphemes"},
		{"no phonemes", `{"model":"g2p.onnx","graphemes":["a"]}`, "no phonemes"},
		{"multi-rune grapheme", `{"model":"g2p.onnx","graphemes":["ab"],"phonemes":["ə"]}`, "single character"},
		{"duplicate grapheme", `{"model":"g2p.onnx","graphemes":["a","a"],"phonemes":["ə"]}`, "duplicate"},
		{"empty model", `{"graphemes":["a"],"phonemes":["ə"]}`, "empty model"},
		{"bad json", `{`, "decode"},
	}

	for i, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			p := write("bad"+string(rune('a'+i))+".json", tc.body)
			_, err := LoadManifest(p)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("LoadManifest error = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestNewModel_Integration(t *testing.T) {
	testutil.RequireONNXRuntime(t)
	manifest := testutil.RequireModelManifest(t)

	info, err := DetectRuntime(config.RuntimeConfig{})
	if err != nil {
		t.Skipf("ONNX Runtime not detected: %v", err)
	}

	model, err := NewModel(manifest, RunnerConfig{LibraryPath: info.LibraryPath})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	defer model.Close()

	got, err := model.Predict(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got == "" {
		t.Error("expected non-empty prediction")
	}
}
