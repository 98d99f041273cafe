// Package testutil provides shared skip helpers for integration tests.
//
// Each helper calls t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    testutil.RequireEspeak(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"testing"
)

// RequireEspeak skips the test if the espeak-ng binary is not found in PATH
// or at the path given by the G2P_ESPEAK_PATH environment variable.
func RequireEspeak(tb testing.TB) {
	tb.Helper()

	exe := os.Getenv("G2P_ESPEAK_PATH")
	if exe == "" {
		exe = "espeak-ng"
	}

	_, err := exec.LookPath(exe)
	if err != nil {
		tb.Skipf("espeak-ng binary not available (%q not in PATH); set G2P_ESPEAK_PATH to override", exe)
	}
}

// RequireONNXRuntime skips the test if no ONNX Runtime shared library can be
// located. It checks (in order): the ORT_LIBRARY_PATH env var, then the
// G2P_ORT_LIB env var, then common system library paths.
func RequireONNXRuntime(tb testing.TB) {
	tb.Helper()

	for _, env := range []string{"ORT_LIBRARY_PATH", "G2P_ORT_LIB"} {
		if p := os.Getenv(env); p != "" {
			// #nosec G703 -- Integration tests intentionally accept explicit env-provided local library paths.
			_, err := os.Stat(p)
			if err == nil {
				return // found
			}

			tb.Skipf("ONNX Runtime library not found at %s=%q", env, p)
		}
	}
	// Fall back to common system locations.
	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
	}
	for _, p := range candidates {
		_, err := os.Stat(p)
		if err == nil {
			return // found
		}
	}

	tb.Skip("ONNX Runtime shared library not found; set ORT_LIBRARY_PATH or G2P_ORT_LIB")
}

// RequireModelManifest skips the test unless G2P_MODEL_MANIFEST names an
// existing neural G2P manifest, and returns its path.
func RequireModelManifest(tb testing.TB) string {
	tb.Helper()

	p := os.Getenv("G2P_MODEL_MANIFEST")
	if p == "" {
		tb.Skip("neural G2P model not configured; set G2P_MODEL_MANIFEST")
		return ""
	}

	if _, err := os.Stat(p); err != nil {
		tb.Skipf("model manifest not found at G2P_MODEL_MANIFEST=%q", p)
		return ""
	}

	return p
}
