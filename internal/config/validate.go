package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate rejects values no component can run with. Dialect names are
// checked later by the phonemizer, which owns the list of supported ones.
func (c Config) Validate() error {
	var errs []error

	if c.G2P.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("g2p.concurrency must be >= 1, got %d", c.G2P.Concurrency))
	}
	if c.G2P.Transformer && strings.TrimSpace(c.Paths.ModelManifest) == "" {
		errs = append(errs, errors.New("g2p.transformer requires paths.model_manifest"))
	}
	if c.Server.Workers < 1 {
		errs = append(errs, fmt.Errorf("server.workers must be >= 1, got %d", c.Server.Workers))
	}
	if c.Server.MaxTextBytes < 1 {
		errs = append(errs, fmt.Errorf("server.max_text_bytes must be >= 1, got %d", c.Server.MaxTextBytes))
	}
	if c.Server.RequestTimeout < 1 {
		errs = append(errs, fmt.Errorf("server.request_timeout must be >= 1, got %d", c.Server.RequestTimeout))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be >= 0, got %d", c.Server.ShutdownTimeout))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}
