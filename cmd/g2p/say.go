package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-g2p/internal/audio"
	"github.com/example/go-g2p/internal/espeak"
	"github.com/example/go-g2p/internal/g2p"
)

type sayDSPOptions struct {
	Normalize bool
	DCBlock   bool
	FadeInMS  float64
	FadeOutMS float64
}

// speaker renders text as WAV bytes.
type speaker interface {
	Speak(ctx context.Context, text, voice string) ([]byte, error)
}

func newSayCmd() *cobra.Command {
	var text string
	var out string
	var dsp sayDSPOptions

	cmd := &cobra.Command{
		Use:   "say [text...]",
		Short: "Speak text with espeak-ng in the configured dialect and write a WAV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			dialect, err := g2p.ParseDialect(cfg.G2P.Dialect)
			if err != nil {
				return err
			}

			input, err := readInputText(text, args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			wav, err := synthesize(cmd.Context(), newEngine(cfg), input, espeak.Voice(dialect), dsp)
			if err != nil {
				return err
			}

			return writeWAVOutput(out, wav, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to speak (if empty, read arguments or stdin)")
	cmd.Flags().StringVar(&out, "out", "out.wav", "Output WAV path ('-' for stdout)")
	cmd.Flags().BoolVar(&dsp.Normalize, "normalize", false, "Peak-normalize output audio")
	cmd.Flags().BoolVar(&dsp.DCBlock, "dc-block", false, "Apply DC-block high-pass filter")
	cmd.Flags().Float64Var(&dsp.FadeInMS, "fade-in-ms", 0, "Apply linear fade-in duration in milliseconds")
	cmd.Flags().Float64Var(&dsp.FadeOutMS, "fade-out-ms", 0, "Apply linear fade-out duration in milliseconds")

	return cmd
}

func synthesize(ctx context.Context, s speaker, text, voice string, opts sayDSPOptions) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	raw, err := s.Speak(ctx, text, voice)
	if err != nil {
		return nil, err
	}

	clip, err := audio.DecodeWAV(raw)
	if err != nil {
		return nil, fmt.Errorf("decode espeak-ng WAV: %w", err)
	}

	processed := audio.ApplyHooks(clip.Samples, dspHooks(opts, clip.SampleRate)...)

	wav, err := audio.EncodeWAV(processed, clip.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("encode WAV: %w", err)
	}
	return wav, nil
}

func dspHooks(opts sayDSPOptions, sampleRate int) []audio.Hook {
	var hooks []audio.Hook
	if opts.DCBlock {
		hooks = append(hooks, func(s []float32) []float32 { return audio.DCBlock(s, sampleRate) })
	}
	if opts.Normalize {
		hooks = append(hooks, audio.PeakNormalize)
	}
	if opts.FadeInMS > 0 {
		hooks = append(hooks, func(s []float32) []float32 { return audio.FadeIn(s, sampleRate, opts.FadeInMS) })
	}
	if opts.FadeOutMS > 0 {
		hooks = append(hooks, func(s []float32) []float32 { return audio.FadeOut(s, sampleRate, opts.FadeOutMS) })
	}

	return hooks
}

func writeWAVOutput(outPath string, wavData []byte, stdout io.Writer) error {
	if outPath == "-" {
		if stdout == nil {
			return fmt.Errorf("stdout writer is nil")
		}
		_, err := stdout.Write(wavData)
		return err
	}
	return os.WriteFile(outPath, wavData, 0o644)
}
