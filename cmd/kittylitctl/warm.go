package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kittylit/kittylit/internal/app"
	"github.com/kittylit/kittylit/internal/repository/cache"
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Precompute every cache bucket and write it to Redis",
	Long: `Computes one payload per age band, genre and reading level from the book store
and writes it to Redis with the configured TTL. The API server picks the buckets up
on its next cache refresh.`,
	Args: cobra.NoArgs,
	RunE: runWarm,
}

func runWarm(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd)
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if s.stores.Redis == nil {
		return errors.New("warm requires a redis connection (database.addrs)")
	}

	svc, err := app.Build(&s.cfg, s.stores, s.logger)
	if err != nil {
		return err
	}

	report, err := svc.Builder.Warm(ctx, cache.NewRedisSource(s.stores.Redis),
		time.Duration(s.cfg.Cache.TTLHours)*time.Hour)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "warmed %d buckets (%d books), %d empty\n",
		report.Buckets, report.Books, report.Empty)
	return nil
}

func contextWithTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
