// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cmd implements CLI commands for the gossipd daemon.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loganrossus/gossipd/pkg/config"
	"github.com/loganrossus/gossipd/pkg/gossip"
	"github.com/loganrossus/gossipd/pkg/logging"
	"github.com/loganrossus/gossipd/pkg/metrics"
	"github.com/loganrossus/gossipd/pkg/version"
)

const defaultConfigPath = "/etc/gossipd/config.yaml"

var configPath string

// rootCmd is the base command: running gossipd with no subcommand
// loads the configured node and runs it until a shutdown signal.
var rootCmd = &cobra.Command{
	Use:     "gossipd",
	Short:   "Run a gossip-based membership and liveness node",
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to configuration file")
	rootCmd.SetVersionTemplate(fmt.Sprintf("gossipd version %s\n", version.String()))
	rootCmd.AddCommand(versionCmd)
}

func runDaemon(ctx context.Context) error {
	bootstrapLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	bootstrapLogger.Info("gossipd starting", "version", version.String(), "config", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger)

	metrics.SetAppInfo(version.Version, version.Commit, version.BuildDate)
	metrics.SetConfigLoadTimestamp(float64(time.Now().Unix()))

	seeds := make([]gossip.Seed, len(cfg.Seeds))
	for i, s := range cfg.Seeds {
		seeds[i] = gossip.Seed{ID: s.ID, Address: s.Address}
	}

	node, err := gossip.NewNode(gossip.Config{
		ID:                cfg.ID,
		Address:           cfg.Address,
		Seeds:             seeds,
		HeartbeatInterval: cfg.HeartbeatInterval,
		HeartbeatSpread:   cfg.HeartbeatSpread,
		PollInterval:      cfg.PollInterval,
		DecayFactor:       cfg.DecayFactor,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("failed to construct node: %w", err)
	}
	defer node.Close()

	metrics.SetNodeAlive(true)

	var metricsServer *metrics.Server
	errChan := make(chan error, 1)
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(metrics.ServerConfig{
			Address: cfg.Metrics.Address,
			Logger:  logger,
			Ready:   node.Alive,
		})
		go func() {
			errChan <- metricsServer.Start(ctx)
		}()
	}

	node.Run(ctx)
	logger.Info("gossipd running", "pid", os.Getpid(), "address", cfg.Address, "id", cfg.ID)

	select {
	case <-ctx.Done():
	case err := <-errChan:
		if err != nil {
			logger.Error("metrics server error", "error", err)
		}
	}

	logger.Info("gossipd shutting down")
	return nil
}
