// Package espeak wraps the espeak-ng command line synthesizer as the
// fallback phonemizer.
package espeak

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/example/go-g2p/internal/g2p"
)

// DefaultExecutable is looked up on PATH when no path is configured.
const DefaultExecutable = "espeak-ng"

// TieChar joins the letters of multi-character phonemes in IPA output so
// the mapping can rewrite diphthongs and affricates as a unit.
const TieChar = "^"

const installHint = "install espeak-ng (e.g. apt-get install espeak-ng, brew install espeak-ng) or set --espeak-path"

// Engine turns text into espeak IPA for a voice.
type Engine interface {
	Phonemize(ctx context.Context, text, voice string) (string, error)
}

// CLIEngine runs the espeak-ng executable once per call.
type CLIEngine struct {
	// Path is the executable name or path. Empty means DefaultExecutable.
	Path string
	// DataPath, when set, is passed as --path (espeak-ng-data location).
	DataPath string
}

func (e *CLIEngine) exe() string {
	if e.Path == "" {
		return DefaultExecutable
	}
	return e.Path
}

// Phonemize returns the raw IPA espeak-ng produces for text, one line per
// clause, with multi-letter phonemes joined by TieChar.
func (e *CLIEngine) Phonemize(ctx context.Context, text, voice string) (string, error) {
	args := []string{"-q", "--ipa", "--tie=" + TieChar, "-v", voice, "--stdin"}
	out, err := e.run(ctx, args, text)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

// Speak renders text as WAV bytes with voice.
func (e *CLIEngine) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	return e.run(ctx, []string{"-v", voice, "--stdout", "--stdin"}, text)
}

// Version returns the first line of `espeak-ng --version`.
func (e *CLIEngine) Version(ctx context.Context) (string, error) {
	out, err := e.run(ctx, []string{"--version"}, "")
	if err != nil {
		return "", err
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")

	return line, nil
}

func (e *CLIEngine) run(ctx context.Context, args []string, stdin string) ([]byte, error) {
	exe := e.exe()
	if e.DataPath != "" {
		args = append([]string{"--path=" + e.DataPath}, args...)
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdin = strings.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isUnavailable(err) {
			return nil, &g2p.EngineUnavailableError{Engine: exe, Hint: installHint, Err: err}
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", exe, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", exe, err)
	}

	return stdout.Bytes(), nil
}

func isUnavailable(err error) bool {
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission)
}

// Voice returns the espeak-ng voice for dialect.
func Voice(d g2p.Dialect) string {
	if d.British() {
		return "en-gb"
	}
	return "en-us"
}
