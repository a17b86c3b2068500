package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/V4T54L/syslogfc/internal/pkg/config"
	"github.com/V4T54L/syslogfc/internal/pkg/logger"
	"github.com/V4T54L/syslogfc/internal/usecase"
)

func newReplayCmd(cfg *config.Config, opts *options) *cobra.Command {
	var watch time.Duration

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Deliver events spooled while Redis was unreachable",
		Long: `Replay reads the spool directory and appends its events to the Redis
stream, then empties the spool. With --watch it keeps running, pings Redis
periodically and replays whenever the connection recovers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(opts.logLevel, cfg.LogFormat)
			if cfg.RedisAddr == "" {
				return errors.New("no redis configured: set SYSLOGFC_REDIS_ADDR")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sink, err := openRedisSink(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer sink.Close()

			n, err := usecase.NewReplayUseCase(sink, log).Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d events\n", n)

			if watch > 0 {
				sink.StartHealthCheck(ctx, watch)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&watch, "watch", 0, "keep running and replay after every recovery, checking at this interval")
	return cmd
}
