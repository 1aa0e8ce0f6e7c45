// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cmd implements CLI commands for gossipd-harness.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loganrossus/gossipd/pkg/convergence"
	"github.com/loganrossus/gossipd/pkg/gossip"
	"github.com/loganrossus/gossipd/pkg/version"
)

var (
	nodeCount         int
	spread            int
	decayFactor       float64
	heartbeatInterval time.Duration
	pollInterval      time.Duration
	healthyThreshold  time.Duration
	reportInterval    time.Duration
	duration          time.Duration
)

var rootCmd = &cobra.Command{
	Use:     "gossipd-harness",
	Short:   "Run an in-memory gossip cluster and report convergence metrics",
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHarness(cmd.Context())
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
	rootCmd.Flags().IntVar(&nodeCount, "nodes", 10, "number of simulated nodes")
	rootCmd.Flags().IntVar(&spread, "spread", 3, "heartbeat and forward fanout")
	rootCmd.Flags().Float64Var(&decayFactor, "decay-factor", 0.1, "forwarding probability decay factor")
	rootCmd.Flags().DurationVar(&heartbeatInterval, "heartbeat-interval", 200*time.Millisecond, "self-heartbeat interval")
	rootCmd.Flags().DurationVar(&pollInterval, "poll-interval", 10*time.Millisecond, "forwarder poll interval")
	rootCmd.Flags().DurationVar(&healthyThreshold, "healthy-threshold", 5*time.Second, "max heartbeat age counted as fresh")
	rootCmd.Flags().DurationVar(&reportInterval, "report-interval", 1*time.Second, "interval between printed metrics lines")
	rootCmd.Flags().DurationVar(&duration, "duration", 30*time.Second, "total run time before exiting")
}

func runHarness(ctx context.Context) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if nodeCount < 2 {
		return fmt.Errorf("--nodes must be at least 2")
	}

	transport := gossip.NewMemoryTransport()
	rng := rand.New(rand.NewSource(1))

	ids := make([]string, nodeCount)
	addrs := make([]string, nodeCount)
	for i := 0; i < nodeCount; i++ {
		ids[i] = fmt.Sprintf("node-%d", i)
		addrs[i] = fmt.Sprintf("mem:%d", i)
	}

	views := make([]convergence.NodeView, 0, nodeCount)
	nodes := make([]*gossip.Node, 0, nodeCount)

	runCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	for i := 0; i < nodeCount; i++ {
		seeds := make([]gossip.Seed, 0, nodeCount-1)
		for j := 0; j < nodeCount; j++ {
			if j == i {
				continue
			}
			seeds = append(seeds, gossip.Seed{ID: ids[j], Address: addrs[j]})
		}

		node, err := gossip.NewNode(gossip.Config{
			ID:                ids[i],
			Address:           addrs[i],
			Seeds:             seeds,
			HeartbeatInterval: heartbeatInterval,
			HeartbeatSpread:   spread,
			PollInterval:      pollInterval,
			DecayFactor:       decayFactor,
			Logger:            logger,
			Rand:              rand.New(rand.NewSource(rng.Int63())),
			Channel:           transport.NewChannel(addrs[i]),
		})
		if err != nil {
			return fmt.Errorf("construct %s: %w", ids[i], err)
		}

		nodes = append(nodes, node)
		views = append(views, convergence.NodeView{ID: ids[i], Table: node.Table()})
	}

	for _, n := range nodes {
		n.Run(runCtx)
	}

	harness := convergence.NewHarness(views, nodeCount, healthyThreshold, heartbeatInterval)

	fmt.Printf("gossipd-harness %s: %d nodes, spread=%d, decay=%v, heartbeat=%v\n",
		version.String(), nodeCount, spread, decayFactor, heartbeatInterval)
	harness.Run(runCtx, reportInterval, func(m convergence.Metrics) {
		fmt.Printf("t=%s fully_informed=%d/%d know_all=%d/%d messages_observed=%d\n",
			time.Now().Format(time.RFC3339), m.FullyInformed, nodeCount, m.KnowAll, nodeCount, m.MessagesObserved)
	})

	return nil
}
