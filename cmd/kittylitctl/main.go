// Command kittylitctl runs maintenance operations against the book store and the
// recommendation cache: seeding, cache warm-up and one-off local queries.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/app"
	"github.com/kittylit/kittylit/internal/config"
	logpkg "github.com/kittylit/kittylit/internal/logger"
	"github.com/kittylit/kittylit/internal/version"
)

var (
	configPath string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "kittylitctl",
	Short:         "Maintenance CLI for the kittylit recommendation service",
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file (default: config/$ENV.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(warmCmd)
	rootCmd.AddCommand(recommendCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// session is the per-command environment: config, logger and open stores.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	stores *app.Stores
}

func openSession(ctx context.Context) (*session, error) {
	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	stores, err := app.OpenStores(ctx, &cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, stores: stores}, nil
}

func (s *session) close() {
	s.stores.Close()
	_ = s.logger.Sync()
}
