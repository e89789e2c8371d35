package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/designcritic/internal/batch"
	"github.com/dshills/designcritic/internal/config"
)

type batchFlags struct {
	modelFlags
	concurrency int
	out         string
}

func newBatchCmd(rf *rootFlags) *cobra.Command {
	f := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "batch <file.yaml>",
		Short: "Review every request in a YAML batch file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rf.setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			f.apply(cmd.Flags(), cfg)
			if cmd.Flags().Changed("concurrency") {
				cfg.BatchConcurrency = f.concurrency
			}
			return runBatch(cmd.Context(), args[0], f, cfg, log, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&f.concurrency, "concurrency", batch.DefaultConcurrency, "Reviews in flight at once")
	cmd.Flags().StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	f.register(cmd.Flags())
	return cmd
}

type batchReport struct {
	Tool    string         `json:"tool"`
	Version string         `json:"version"`
	Total   int            `json:"total"`
	Failed  int            `json:"failed"`
	Results []batch.Result `json:"results"`
}

func runBatch(ctx context.Context, path string, f *batchFlags, cfg *config.Config, log *zap.Logger, stdout io.Writer) error {
	items, err := batch.Load(path)
	if err != nil {
		return exitError(3, "%v", err)
	}

	reviewer, _, err := f.newReviewer(ctx, cfg, log)
	if err != nil {
		return err
	}

	log.Info("starting batch", zap.Int("items", len(items)), zap.Int("concurrency", cfg.BatchConcurrency))
	results := batch.Run(ctx, reviewer, items, cfg.BatchConcurrency, log)
	failed := batch.Failed(results)

	data, err := json.MarshalIndent(batchReport{
		Tool:    "designcritic",
		Version: version,
		Total:   len(results),
		Failed:  failed,
		Results: results,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	if err := writeOutput(f.out, string(data)+"\n", stdout, log); err != nil {
		return err
	}

	if failed > 0 {
		return exitError(1, "%d of %d reviews failed", failed, len(results))
	}
	return nil
}
