// Copyright (c) 2026 gossipd authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package gossip

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/loganrossus/gossipd/pkg/metrics"
)

// ForwarderConfig configures the Forwarder loop.
type ForwarderConfig struct {
	// PollInterval is the polling quantum for the non-blocking
	// receive.
	PollInterval time.Duration

	// Spread is the maximum fanout per send.
	Spread int

	// DecayFactor is the exponent in the forwarding probability
	// exp(-DecayFactor * count). 0 means "always forward".
	DecayFactor float64

	Logger *slog.Logger

	// Rand, if non-nil, drives the forward/don't-forward coin flip.
	// Pass a seeded *rand.Rand for deterministic tests.
	Rand *rand.Rand
}

// Forwarder polls the channel for inbound heartbeats, merges them into
// the table, and probabilistically re-forwards them to a random
// fanout. It runs in its own goroutine for the lifetime of a Node.
type Forwarder struct {
	cfg     ForwarderConfig
	address string
	table   *Table
	channel Channel
	alive   *atomic.Bool
	logger  *slog.Logger
	rng     *rand.Rand
}

// NewForwarder constructs a Forwarder bound to a node's address,
// table, and channel.
func NewForwarder(cfg ForwarderConfig, address string, table *Table, channel Channel, alive *atomic.Bool) *Forwarder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Forwarder{cfg: cfg, address: address, table: table, channel: channel, alive: alive, logger: logger, rng: rng}
}

// Run drives the forwarder loop until ctx is canceled. The channel
// receive itself never suspends; only the poll-interval sleep and the
// is_alive backoff do.
func (f *Forwarder) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if !f.alive.Load() {
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}

		if !sleepCtx(ctx, f.cfg.PollInterval) {
			return
		}

		f.tick()
	}
}

func (f *Forwarder) tick() {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordLoopPanic("forwarder")
			f.logger.Error("forwarder iteration panicked", "panic", r)
		}
	}()

	h, err := f.channel.Receive()
	if err != nil {
		if errors.Is(err, ErrWouldBlock) {
			return
		}
		if errors.Is(err, ErrDecode) {
			metrics.RecordHeartbeatReceived(false)
		}
		f.logger.Warn("forwarder failed to receive", "error", err)
		return
	}
	metrics.RecordHeartbeatReceived(true)

	count := f.table.Insert(h)
	metrics.SetTableSize(f.table.Len())

	if !f.shouldForward(count) {
		metrics.RecordForwardDecision(false)
		return
	}

	exclude := map[string]struct{}{f.address: {}, h.Address: {}}
	addresses := f.table.SelectNRandomAddresses(f.cfg.Spread, exclude)
	if len(addresses) == 0 {
		metrics.RecordForwardDecision(false)
		return
	}

	if err := f.channel.Send(h, addresses); err != nil {
		metrics.RecordForwardSendError()
		f.logger.Warn("forwarder failed to forward heartbeat", "error", err)
		return
	}

	metrics.RecordForwardDecision(true)
	f.logger.Debug("heartbeat forwarded", "id", h.ID, "received_count", count, "fanout", len(addresses))
}

// shouldForward implements the decaying forwarding-probability rule:
// p = exp(-decayFactor * count); forward iff a uniform draw in [0, 1)
// is less than p.
func (f *Forwarder) shouldForward(count uint64) bool {
	p := math.Exp(-f.cfg.DecayFactor * float64(count))
	return f.rng.Float64() < p
}
