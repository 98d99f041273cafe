package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/go-g2p/internal/server"
	"github.com/example/go-g2p/internal/vocab"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the phonemizer HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			var enc server.Encoder
			if cfg.Paths.VocabPath != "" {
				v, err := vocab.Load(cfg.Paths.VocabPath)
				if err != nil {
					return err
				}
				enc = v
			}

			srv := server.New(cfg, p.phonemizer, enc)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	return cmd
}
