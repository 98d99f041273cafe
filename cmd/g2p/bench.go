package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-g2p/internal/bench"
	"github.com/example/go-g2p/internal/g2p"
)

func newBenchCmd() *cobra.Command {
	var (
		text       string
		runs       int
		format     string
		maxMeanMS  float64
		cpuprofile string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark conversion latency and fallback cache effect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("--text is required for bench")
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("create cpu profile: %w", err)
				}
				defer f.Close()

				if err := pprof.StartCPUProfile(f); err != nil {
					return fmt.Errorf("start cpu profile: %w", err)
				}
				defer pprof.StopCPUProfile()
			}

			results, err := runBench(cmd.Context(), p.phonemizer, text, runs)
			if err != nil {
				return err
			}

			stats := bench.WarmStats(results)
			writeBenchReport(cmd.OutOrStdout(), format, results, stats)

			threshold := time.Duration(maxMeanMS * float64(time.Millisecond))
			return bench.CheckLatencyThreshold(stats.Mean, threshold)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to convert for each run (required)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of conversion runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&maxMeanMS, "max-mean-ms", 0, "Exit non-zero if mean warm latency exceeds this many ms (0 = disabled)")
	cmd.Flags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile of the runs to this file")

	return cmd
}

func runBench(ctx context.Context, p converter, text string, runs int) ([]bench.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]bench.RunResult, 0, runs)

	for i := range runs {
		start := time.Now()
		res, err := p.Convert(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("run %d failed: %w", i+1, err)
		}
		dur := time.Since(start)

		fallback := 0
		for _, t := range res.Tokens {
			if t.State == g2p.FallbackApplied {
				fallback++
			}
		}

		results = append(results, bench.RunResult{
			Index:    i,
			Cold:     i == 0,
			Duration: dur,
			Tokens:   len(res.Tokens),
			Fallback: fallback,
		})
	}

	return results, nil
}

func writeBenchReport(w io.Writer, format string, results []bench.RunResult, stats bench.Stats) {
	switch format {
	case "json":
		bench.FormatJSON(results, stats, w)
	default:
		bench.FormatTable(results, stats, w)
	}
}
