//go:build windows || (js && wasm)

package onnx

import (
	"context"
	"fmt"
)

// Runner is unavailable on this platform; the neural path stays disabled.
type Runner struct {
	name string
}

// NewRunner always returns an error on this platform.
func NewRunner(name, _ string, _ RunnerConfig) (*Runner, error) {
	return nil, fmt.Errorf("native onnx runner is unavailable on this platform for graph %q", name)
}

// Run always returns an error on this platform.
func (r *Runner) Run(_ context.Context, _ map[string]*Tensor) (map[string]*Tensor, error) {
	return nil, fmt.Errorf("native onnx runner is unavailable on this platform for graph %q", r.name)
}

// Close is a no-op on this platform.
func (r *Runner) Close() {}

// Name returns the graph name.
func (r *Runner) Name() string {
	return r.name
}
