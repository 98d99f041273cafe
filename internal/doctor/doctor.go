// Package doctor provides environment preflight checks for the g2p CLI.
package doctor

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Oldest espeak-ng release whose --ipa output supports --tie.
const (
	minEspeakMajor = 1
	minEspeakMinor = 49
)

var versionNumber = regexp.MustCompile(`[0-9]+\.[0-9]+(\.[0-9]+)?`)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// File is an optional data file to verify.
type File struct {
	// Label names the file in output, e.g. "lexicon".
	Label string
	Path  string
	// Validate, when set, parses the file after the existence check.
	Validate func(path string) error
}

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// EspeakVersion returns the first line of `espeak-ng --version`.
	EspeakVersion VersionFunc
	// SkipEspeak skips the espeak-ng check (fallback disabled).
	SkipEspeak bool
	// ORTVersion reports the ONNX Runtime library; nil skips the check.
	ORTVersion VersionFunc
	// Files lists configured data files. Entries with an empty Path are skipped.
	Files []File
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- espeak-ng binary -------------------------------------------------
	switch {
	case cfg.SkipEspeak:
		fmt.Fprintf(w, "%s espeak-ng: skipped (fallback disabled)\n", PassMark)
	case cfg.EspeakVersion == nil:
		res.fail("espeak-ng: no version probe configured")
		fmt.Fprintf(w, "%s espeak-ng: not checked\n", FailMark)
	default:
		ver, err := cfg.EspeakVersion()
		if err != nil {
			res.fail(fmt.Sprintf("espeak-ng: %v", err))
			fmt.Fprintf(w, "%s espeak-ng: not found (%v)\n", FailMark, err)
		} else if verErr := checkEspeakVersion(ver); verErr != nil {
			res.fail(fmt.Sprintf("espeak-ng version: %v", verErr))
			fmt.Fprintf(w, "%s espeak-ng %s: %v\n", FailMark, ver, verErr)
		} else {
			fmt.Fprintf(w, "%s espeak-ng: %s\n", PassMark, ver)
		}
	}

	// ---- ONNX Runtime -----------------------------------------------------
	if cfg.ORTVersion == nil {
		fmt.Fprintf(w, "%s onnx runtime: skipped (transformer disabled)\n", PassMark)
	} else {
		ver, err := cfg.ORTVersion()
		if err != nil {
			res.fail(fmt.Sprintf("onnx runtime: %v", err))
			fmt.Fprintf(w, "%s onnx runtime: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s onnx runtime: %s\n", PassMark, ver)
		}
	}

	// ---- data files -------------------------------------------------------
	for _, f := range cfg.Files {
		if f.Path == "" {
			continue
		}

		if _, err := os.Stat(f.Path); err != nil {
			res.fail(fmt.Sprintf("%s file %q: %v", f.Label, f.Path, err))
			fmt.Fprintf(w, "%s %s file %s: not found\n", FailMark, f.Label, f.Path)
			continue
		}

		if f.Validate == nil {
			fmt.Fprintf(w, "%s %s file: %s\n", PassMark, f.Label, f.Path)
			continue
		}

		if err := f.Validate(f.Path); err != nil {
			res.fail(fmt.Sprintf("%s validation: %v", f.Label, err))
			fmt.Fprintf(w, "%s %s file %s: %v\n", FailMark, f.Label, f.Path, err)
		} else {
			fmt.Fprintf(w, "%s %s file: %s (validation: ok)\n", PassMark, f.Label, f.Path)
		}
	}

	return res
}

// checkEspeakVersion returns an error unless ver is an espeak-ng banner
// (e.g. "eSpeak NG text-to-speech: 1.51  Data at: ...") of a release that
// supports tied IPA output.
func checkEspeakVersion(ver string) error {
	if !strings.Contains(strings.ToLower(ver), "espeak ng") && !strings.Contains(strings.ToLower(ver), "espeak-ng") {
		return fmt.Errorf("requires espeak-ng, got %q", ver)
	}

	num := versionNumber.FindString(ver)
	major, minor, err := parseMajorMinor(num)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major < minEspeakMajor || (major == minEspeakMajor && minor < minEspeakMinor) {
		return fmt.Errorf("requires espeak-ng >=%d.%d, got %d.%d", minEspeakMajor, minEspeakMinor, major, minor)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
