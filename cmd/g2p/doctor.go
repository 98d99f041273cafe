package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-g2p/internal/config"
	"github.com/example/go-g2p/internal/doctor"
	"github.com/example/go-g2p/internal/lexicon"
	"github.com/example/go-g2p/internal/onnx"
	"github.com/example/go-g2p/internal/vocab"
)

const probeTimeout = 10 * time.Second

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local espeak-ng, runtime and data file checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			return runDoctor(doctorConfig(cfg), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	return cmd
}

func doctorConfig(cfg config.Config) doctor.Config {
	engine := newEngine(cfg)

	dcfg := doctor.Config{
		EspeakVersion: func() (string, error) {
			ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
			defer cancel()
			return engine.Version(ctx)
		},
		SkipEspeak: !cfg.G2P.Fallback,
		Files: []doctor.File{
			{Label: "lexicon", Path: cfg.Paths.LexiconPath, Validate: func(p string) error {
				_, err := lexicon.LoadFile(p)
				return err
			}},
			{Label: "vocab", Path: cfg.Paths.VocabPath, Validate: func(p string) error {
				_, err := vocab.Load(p)
				return err
			}},
			{Label: "model manifest", Path: cfg.Paths.ModelManifest, Validate: func(p string) error {
				_, err := onnx.LoadManifest(p)
				return err
			}},
		},
	}

	if cfg.G2P.Transformer {
		dcfg.ORTVersion = func() (string, error) {
			info, err := onnx.DetectRuntime(cfg.Runtime)
			if err != nil {
				return "", err
			}
			if info.Version == "" {
				return info.LibraryPath, nil
			}
			return fmt.Sprintf("%s (%s)", info.Version, info.LibraryPath), nil
		}
	}

	return dcfg
}

func runDoctor(dcfg doctor.Config, stdout, stderr io.Writer) error {
	result := doctor.Run(dcfg, stdout)

	if result.Failed() {
		for _, f := range result.Failures() {
			fmt.Fprintf(stderr, "FAIL: %s\n", f)
		}

		return errors.New("doctor checks failed")
	}

	_, _ = fmt.Fprintln(stdout, "doctor checks passed")

	return nil
}
