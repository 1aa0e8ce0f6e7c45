// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package convergence implements the convergence-measurement harness:
// a test/observability collaborator that snapshots every node's
// Membership Table and computes propagation metrics, per spec.md §4.5.
package convergence

import (
	"context"
	"time"

	"github.com/loganrossus/gossipd/pkg/gossip"
)

// NodeView is the minimal surface the harness needs from a node: its
// id (for the "configured nodes" set) and a way to snapshot its table
// without holding the table lock any longer than a clone takes.
type NodeView struct {
	ID    string
	Table *gossip.Table
}

// Metrics are the three numbers spec.md §4.5 and §8 check properties
// against.
type Metrics struct {
	// FullyInformed counts nodes whose table holds at least one entry
	// per configured node, all within HealthyThreshold of now.
	FullyInformed int

	// KnowAll counts nodes whose table holds at least ClusterSize
	// distinct entries.
	KnowAll int

	// MessagesObserved is a rough per-round traffic estimate: the sum
	// of ReceivedCount across entries refreshed within
	// HeartbeatInterval of now, judged at whole-second resolution.
	MessagesObserved uint64
}

// Harness computes convergence Metrics over a fixed set of node views.
type Harness struct {
	nodes             []NodeView
	clusterSize       int
	healthyThreshold  time.Duration
	heartbeatInterval time.Duration
}

// NewHarness builds a Harness. clusterSize is the number of distinct
// nodes the cluster is configured with; healthyThreshold and
// heartbeatInterval correspond directly to spec.md §4.5's
// healthy_threshold_secs and heartbeat_interval_secs.
func NewHarness(nodes []NodeView, clusterSize int, healthyThreshold, heartbeatInterval time.Duration) *Harness {
	return &Harness{
		nodes:             nodes,
		clusterSize:       clusterSize,
		healthyThreshold:  healthyThreshold,
		heartbeatInterval: heartbeatInterval,
	}
}

// Compute snapshots every node's table and derives Metrics as of now.
//
// A node only counts toward FullyInformed once every configured peer
// has actually sent a heartbeat (ReceivedCount > 0): per spec.md §9's
// resolved open question, a bootstrap seed entry alone — known
// address, no heartbeat yet — is not a liveness claim.
func (h *Harness) Compute(now time.Time) Metrics {
	expected := make(map[string]struct{}, len(h.nodes))
	for _, n := range h.nodes {
		expected[n.ID] = struct{}{}
	}

	var m Metrics
	for _, n := range h.nodes {
		snap := n.Table.Snapshot()

		if isFullyInformed(snap, expected, now, h.healthyThreshold) {
			m.FullyInformed++
		}
		if len(snap) >= h.clusterSize {
			m.KnowAll++
		}
		m.MessagesObserved += messagesWithinWindow(snap, now, h.heartbeatInterval)
	}
	return m
}

func isFullyInformed(snap map[string]gossip.Entry, expected map[string]struct{}, now time.Time, threshold time.Duration) bool {
	for id := range expected {
		e, ok := snap[id]
		if !ok || e.ReceivedCount == 0 {
			return false
		}
		if age(e.Heartbeat.Timestamp, now) > threshold {
			return false
		}
	}
	return true
}

// messagesWithinWindow compares at the whole-second resolution of
// Heartbeat.Timestamp: an entry counts when its second is not earlier
// than the second containing now-window, so a heartbeat refreshed
// within a sub-second window is never dropped.
func messagesWithinWindow(snap map[string]gossip.Entry, now time.Time, window time.Duration) uint64 {
	cutoff := uint64(now.Add(-window).Unix())
	var total uint64
	for _, e := range snap {
		if e.Heartbeat.Timestamp >= cutoff {
			total += e.ReceivedCount
		}
	}
	return total
}

func age(timestamp uint64, now time.Time) time.Duration {
	return now.Sub(time.Unix(int64(timestamp), 0))
}

// Run periodically computes Metrics and hands them to onMetrics until
// ctx is canceled. It is the non-chart-rendering half of spec.md's
// harness — terminal chart rendering is explicitly out of scope.
func (h *Harness) Run(ctx context.Context, interval time.Duration, onMetrics func(Metrics)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			onMetrics(h.Compute(time.Now()))
		}
	}
}
