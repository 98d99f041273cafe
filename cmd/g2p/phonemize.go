package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/go-g2p/internal/g2p"
)

type phonemizeOptions struct {
	Text     string
	PerToken bool
	JSON     bool
}

func newPhonemizeCmd() *cobra.Command {
	var opts phonemizeOptions

	cmd := &cobra.Command{
		Use:   "phonemize [text...]",
		Short: "Convert English text to phonemes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			input, err := readInputText(opts.Text, args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			return runPhonemize(cmd.Context(), p.phonemizer, input, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Text, "text", "", "Text to convert (if empty, read arguments or stdin)")
	cmd.Flags().BoolVar(&opts.PerToken, "per-token", false,
		"Print one line per token: text, phonemes, state, source and the espeak-ng fallback phonemes")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the full conversion result as JSON")

	return cmd
}

// converter is the part of *g2p.Phonemizer the bench command needs.
type converter interface {
	Convert(ctx context.Context, text string) (g2p.Result, error)
}

// phonemizer adds the fallback lookup --per-token prints.
type phonemizer interface {
	converter
	Fallback() g2p.Fallback
}

func runPhonemize(ctx context.Context, p phonemizer, input string, opts phonemizeOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := p.Convert(ctx, input)
	if err != nil {
		return err
	}

	if n := len(res.Unresolved()); n > 0 {
		slog.Warn("unresolved tokens", slog.Int("count", n))
	}

	switch {
	case opts.JSON:
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case opts.PerToken:
		return writeTokens(ctx, out, res.Tokens, p.Fallback())
	default:
		_, err = fmt.Fprintln(out, res.Phonemes)
		return err
	}
}

// writeTokens prints one line per token. The last column is what the
// fallback answers for the token on its own, or "-" for punctuation and when
// no fallback is configured.
func writeTokens(ctx context.Context, out io.Writer, tokens []g2p.Token, fb g2p.Fallback) error {
	if fb == nil {
		slog.Warn("no fallback configured; enable g2p.fallback to fill the fallback column")
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, t := range tokens {
		ps := t.Phonemes
		if t.State == g2p.Unresolved {
			ps = "-"
		}
		source := t.Source
		if source == "" {
			source = "-"
		}

		fallback, err := fallbackColumn(ctx, fb, t)
		if err != nil {
			return err
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Text, ps, t.State, source, fallback)
	}

	return tw.Flush()
}

func fallbackColumn(ctx context.Context, fb g2p.Fallback, t g2p.Token) (string, error) {
	if fb == nil || t.Source == g2p.SourcePunct {
		return "-", nil
	}

	ps, err := fb.Resolve(ctx, t)
	switch {
	case err != nil && (errors.Is(err, g2p.ErrEngineUnavailable) || ctx.Err() != nil):
		return "", err
	case err != nil:
		slog.Debug("fallback failed", slog.String("text", t.Text), slog.String("error", err.Error()))
		return "-", nil
	case ps == "":
		return "-", nil
	default:
		return ps, nil
	}
}
