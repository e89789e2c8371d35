package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/designcritic/internal/config"
	"github.com/dshills/designcritic/internal/server"
)

const shutdownTimeout = 30 * time.Second

type serveFlags struct {
	modelFlags
	addr string
}

func newServeCmd(rf *rootFlags) *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reviews over HTTP (POST /review)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rf.setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			f.apply(cmd.Flags(), cfg)
			if cmd.Flags().Changed("addr") {
				cfg.ServerAddr = f.addr
			}
			return runServe(cmd.Context(), f, cfg, log)
		},
	}

	cmd.Flags().StringVar(&f.addr, "addr", config.Default().ServerAddr, "Listen address")
	f.register(cmd.Flags())
	return cmd
}

// runServe serves until ctx is cancelled, then drains in-flight requests.
func runServe(ctx context.Context, f *serveFlags, cfg *config.Config, log *zap.Logger) error {
	reviewer, _, err := f.newReviewer(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := server.New(reviewer, cfg.ServerAddr, cfg.MaxUploadBytes, log)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		if err != nil {
			return exitError(1, "%v", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil {
		return err
	}
	return <-errc
}
