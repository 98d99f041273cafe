package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-g2p/internal/vocab"
)

func newIDsCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "ids [text...]",
		Short: "Convert text to phonemes and encode them as model input ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			v, err := vocab.Load(cfg.Paths.VocabPath)
			if err != nil {
				return fmt.Errorf("ids needs --vocab: %w", err)
			}

			input, err := readInputText(text, args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.phonemizer.Convert(cmd.Context(), input)
			if err != nil {
				return err
			}

			return writeIDs(cmd.OutOrStdout(), v, res.Phonemes)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to encode (if empty, read arguments or stdin)")

	return cmd
}

func writeIDs(out io.Writer, v *vocab.Vocab, phonemes string) error {
	if missing := v.Missing(phonemes); len(missing) > 0 {
		slog.Warn("phonemes missing from vocab", slog.String("symbols", strings.Join(missing, " ")))
	}

	ids := v.Encode(phonemes)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	_, err := fmt.Fprintln(out, strings.Join(parts, " "))
	return err
}
